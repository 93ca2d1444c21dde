package stream

import (
	"strings"

	apierrors "github.com/diogo/streamchat/internal/errors"
	"github.com/diogo/streamchat/internal/models"
)

// Accumulator owns the in-progress assistant message. Text only grows while
// the buffer is active and is cleared on Finalize or Discard.
type Accumulator struct {
	text      strings.Builder
	active    bool
	fragments int
	scheduler *Scheduler
	onFlush   func(text string)
}

// NewAccumulator creates an inactive accumulator. onFlush receives the buffer
// contents at each frame in which at least one fragment was appended; it may
// be nil.
func NewAccumulator(scheduler *Scheduler, onFlush func(text string)) *Accumulator {
	return &Accumulator{
		scheduler: scheduler,
		onFlush:   onFlush,
	}
}

// Start activates an empty buffer. Starting while a stream is already active
// means the server opened a second concurrent stream: the current buffer is
// dropped, the accumulator returns to idle and a protocol violation is
// returned.
func (a *Accumulator) Start() error {
	if a.active {
		a.Discard()
		return apierrors.NewProtocolViolationError("start", "a stream is already active")
	}
	a.text.Reset()
	a.fragments = 0
	a.active = true
	return nil
}

// Append adds a fragment to the active buffer, asks the scheduler for a flush
// and returns the new total text.
func (a *Accumulator) Append(fragment string) (string, error) {
	if !a.active {
		return "", apierrors.NewProtocolViolationError("append", "no active stream")
	}
	a.text.WriteString(fragment)
	a.fragments++
	a.scheduler.RequestFlush(a.flush)
	return a.text.String(), nil
}

// Finalize captures the buffer as an assistant message and resets to idle.
// The pending flush is cancelled before the buffer is cleared.
func (a *Accumulator) Finalize() (models.Message, error) {
	if !a.active {
		return models.Message{}, apierrors.NewProtocolViolationError("finalize", "no active stream")
	}
	a.scheduler.Cancel()
	msg := models.NewAssistantMessage(a.text.String())
	a.reset()
	return msg, nil
}

// Discard drops the buffer without producing a message
func (a *Accumulator) Discard() {
	a.scheduler.Cancel()
	a.reset()
}

// CurrentText returns the buffer contents; empty when inactive
func (a *Accumulator) CurrentText() string {
	if !a.active {
		return ""
	}
	return a.text.String()
}

// Active reports whether a stream is in progress
func (a *Accumulator) Active() bool {
	return a.active
}

// Fragments returns the number of fragments appended to the active stream
func (a *Accumulator) Fragments() int {
	return a.fragments
}

func (a *Accumulator) reset() {
	a.text.Reset()
	a.fragments = 0
	a.active = false
}

func (a *Accumulator) flush() {
	if !a.active || a.onFlush == nil {
		return
	}
	a.onFlush(a.text.String())
}
