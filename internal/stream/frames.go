package stream

import (
	"sync"
	"time"
)

const (
	// DefaultFPS is the display refresh rate used when none is configured
	DefaultFPS = 30
	// MaxFPS caps configured refresh rates
	MaxFPS = 120
)

// FrameInterval converts a refresh rate to the duration of one frame,
// clamping fps to [1, MaxFPS]. Zero or negative rates use DefaultFPS.
func FrameInterval(fps int) time.Duration {
	if fps <= 0 {
		fps = DefaultFPS
	}
	if fps > MaxFPS {
		fps = MaxFPS
	}
	return time.Second / time.Duration(fps)
}

// TimerFrames is a wall-clock frame source. Frames fall on a fixed grid
// anchored at creation, so a request made late in a frame fires at that
// frame's end rather than one full interval later. Tokens are delivered on C;
// the owning loop passes them to Scheduler.Frame.
type TimerFrames struct {
	interval time.Duration
	epoch    time.Time
	c        chan uint64
	done     chan struct{}
	stopOnce sync.Once
}

// NewTimerFrames creates a frame source ticking at fps
func NewTimerFrames(fps int) *TimerFrames {
	return &TimerFrames{
		interval: FrameInterval(fps),
		epoch:    time.Now(),
		c:        make(chan uint64, 4),
		done:     make(chan struct{}),
	}
}

// C returns the channel on which frame tokens arrive
func (f *TimerFrames) C() <-chan uint64 {
	return f.c
}

// Interval returns the frame duration
func (f *TimerFrames) Interval() time.Duration {
	return f.interval
}

// Schedule arms a timer for the next frame boundary
func (f *TimerFrames) Schedule(token uint64) {
	time.AfterFunc(f.untilNextFrame(time.Now()), func() {
		select {
		case f.c <- token:
		case <-f.done:
		}
	})
}

// Stop releases timers that have not delivered yet
func (f *TimerFrames) Stop() {
	f.stopOnce.Do(func() { close(f.done) })
}

func (f *TimerFrames) untilNextFrame(now time.Time) time.Duration {
	elapsed := now.Sub(f.epoch)
	if elapsed < 0 {
		return f.interval
	}
	next := (elapsed/f.interval + 1) * f.interval
	return next - elapsed
}
