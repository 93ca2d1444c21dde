package stream

// manualFrames is a frame source driven by the test: Schedule only records
// tokens, tick delivers every recorded token as one frame boundary.
type manualFrames struct {
	tokens    []uint64
	scheduled int
}

func (m *manualFrames) Schedule(token uint64) {
	m.tokens = append(m.tokens, token)
	m.scheduled++
}

func (m *manualFrames) tick(s *Scheduler) int {
	tokens := m.tokens
	m.tokens = nil
	ran := 0
	for _, token := range tokens {
		if s.Frame(token) {
			ran++
		}
	}
	return ran
}

type flushRecorder struct {
	texts []string
}

func (r *flushRecorder) record(text string) {
	r.texts = append(r.texts, text)
}

func newTestAccumulator() (*Accumulator, *Scheduler, *manualFrames, *flushRecorder) {
	frames := &manualFrames{}
	sched := NewScheduler(frames)
	rec := &flushRecorder{}
	return NewAccumulator(sched, rec.record), sched, frames, rec
}
