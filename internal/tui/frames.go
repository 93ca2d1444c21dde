package tui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/diogo/streamchat/internal/stream"
)

// frameMsg is a frame boundary for the flush registered under token
type frameMsg struct {
	token uint64
}

// tickFrames is a stream.FrameSource for the bubbletea loop. Schedule is
// called from inside Update; the queued tick commands are handed back to
// the runtime when Update returns.
type tickFrames struct {
	interval time.Duration
	queued   []tea.Cmd
}

var _ stream.FrameSource = (*tickFrames)(nil)

func newTickFrames(fps int) *tickFrames {
	return &tickFrames{interval: stream.FrameInterval(fps)}
}

// Schedule queues a tick that fires at the next frame boundary of the
// wall clock
func (f *tickFrames) Schedule(token uint64) {
	f.queued = append(f.queued, tea.Every(f.interval, func(time.Time) tea.Msg {
		return frameMsg{token: token}
	}))
}

// take drains the queued tick commands
func (f *tickFrames) take() []tea.Cmd {
	cmds := f.queued
	f.queued = nil
	return cmds
}
