// Package stream accumulates inbound text fragments and coalesces display
// refreshes to at most one per display frame.
//
// Nothing in this package locks. Scheduler, Accumulator and the frame
// callbacks must all be driven from the same loop; frame sources only hand
// tokens back to that loop.
package stream

// FrameSource delivers frame boundaries. Schedule asks for token to be handed
// back to the owning loop (which then calls Scheduler.Frame) at the next
// display frame. Implementations must not call Frame themselves from another
// goroutine.
type FrameSource interface {
	Schedule(token uint64)
}

// Scheduler holds at most one pending flush. Any number of RequestFlush calls
// between two frame boundaries collapse into one callback, which runs when the
// frame arrives and therefore observes the latest state.
type Scheduler struct {
	frames  FrameSource
	token   uint64
	pending bool
	flush   func()
	flushes int
}

// NewScheduler creates a scheduler bound to a frame source
func NewScheduler(frames FrameSource) *Scheduler {
	return &Scheduler{frames: frames}
}

// RequestFlush registers fn to run at the next frame boundary. If a flush is
// already pending the call is a no-op and the originally registered callback
// is kept. Returns true when a new frame was requested.
func (s *Scheduler) RequestFlush(fn func()) bool {
	if s.pending || fn == nil {
		return false
	}
	s.token++
	s.pending = true
	s.flush = fn
	s.frames.Schedule(s.token)
	return true
}

// Frame is called by the owning loop when a frame boundary for token arrives.
// The callback runs only if token is the currently pending one; frames for
// cancelled or superseded requests are ignored. Returns true if it ran.
func (s *Scheduler) Frame(token uint64) bool {
	if !s.pending || token != s.token {
		return false
	}
	fn := s.flush
	// Cleared before the callback so it may request the next frame.
	s.pending = false
	s.flush = nil
	s.flushes++
	fn()
	return true
}

// Cancel revokes the pending flush, if any. The frame that was requested for
// it will still arrive and is then ignored. Returns true if a flush was revoked.
func (s *Scheduler) Cancel() bool {
	if !s.pending {
		return false
	}
	s.pending = false
	s.flush = nil
	return true
}

// Pending reports whether a flush is waiting for a frame
func (s *Scheduler) Pending() bool {
	return s.pending
}

// Flushes returns how many flush callbacks have executed
func (s *Scheduler) Flushes() int {
	return s.flushes
}
