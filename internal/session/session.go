// Package session ties a FragmentChannel to the stream accumulator, the
// flush scheduler and the conversation log.
//
// A Session is the single owner of that state. It is not safe for concurrent
// use: every method, including frame delivery, must be called from the same
// loop (the bubbletea Update loop, or Run).
package session

import (
	"context"
	"strings"

	"github.com/diogo/streamchat/internal/api"
	apierrors "github.com/diogo/streamchat/internal/errors"
	"github.com/diogo/streamchat/internal/history"
	"github.com/diogo/streamchat/internal/logger"
	"github.com/diogo/streamchat/internal/models"
	"github.com/diogo/streamchat/internal/stream"
)

// State is the protocol state of a session
type State int

const (
	// StateIdle means no response text is buffered. A request may still be
	// outstanding (see Awaiting).
	StateIdle State = iota
	// StateStreaming means fragments of a response are being accumulated
	StateStreaming
	// StateTerminating is held only while an end marker is being applied
	StateTerminating
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateStreaming:
		return "streaming"
	case StateTerminating:
		return "terminating"
	default:
		return "unknown"
	}
}

// Session is one connection's conversation
type Session struct {
	channel   api.Channel
	log       *history.Log
	scheduler *stream.Scheduler
	acc       *stream.Accumulator

	state    State
	awaiting bool
	closed   bool
	live     string

	onFlush      func(text string)
	onMessage    func(msg models.Message)
	onDiagnostic func(err error)
	logger       *logger.Logger
}

// Option configures a Session
type Option func(*Session)

// WithFlushHandler is called at each frame in which the live text changed
func WithFlushHandler(fn func(text string)) Option {
	return func(s *Session) {
		s.onFlush = fn
	}
}

// WithMessageHandler is called after each message is appended to the log
func WithMessageHandler(fn func(msg models.Message)) Option {
	return func(s *Session) {
		s.onMessage = fn
	}
}

// WithDiagnostics receives non-fatal protocol problems: malformed frames,
// protocol violations, server errors and channel closure
func WithDiagnostics(fn func(err error)) Option {
	return func(s *Session) {
		s.onDiagnostic = fn
	}
}

// WithLogger sets the diagnostic logger
func WithLogger(l *logger.Logger) Option {
	return func(s *Session) {
		s.logger = l.With("session")
	}
}

// WithLog resumes into an existing conversation log
func WithLog(log *history.Log) Option {
	return func(s *Session) {
		if log != nil {
			s.log = log
		}
	}
}

// New creates an idle session over channel. frames decides when flushes
// run; its tokens must be passed back through Frame.
func New(channel api.Channel, frames stream.FrameSource, opts ...Option) *Session {
	s := &Session{
		channel: channel,
		log:     history.NewLog(),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.scheduler = stream.NewScheduler(frames)
	s.acc = stream.NewAccumulator(s.scheduler, s.flush)
	return s
}

// ID returns the session identifier
func (s *Session) ID() string {
	return s.log.ID()
}

// Send records the user's message and transmits it. Only one response may
// be outstanding at a time.
func (s *Session) Send(ctx context.Context, text string) error {
	if strings.TrimSpace(text) == "" {
		return apierrors.ErrEmptyMessage
	}
	if s.closed {
		return apierrors.NewChannelClosedError(nil)
	}
	if s.awaiting {
		return apierrors.ErrResponsePending
	}

	msg := models.NewUserMessage(text)
	s.log.Append(msg)
	s.notifyMessage(msg)

	if err := s.channel.Send(ctx, text); err != nil {
		s.logger.Error("send failed: %v", err)
		if apierrors.IsChannelClosed(err) {
			s.teardown()
		}
		return err
	}

	s.awaiting = true
	s.logger.Debug("request sent, awaiting response")
	return nil
}

// Handle applies one inbound event. The returned error describes a
// non-fatal problem with the event (it is also passed to the diagnostics
// handler); the session is always left in a consistent state.
func (s *Session) Handle(ev api.Event) error {
	switch ev.Kind {
	case api.EventFragment:
		return s.handleFragment(ev.Text)

	case api.EventEnd:
		return s.handleEnd()

	case api.EventMalformed:
		s.diagnose(ev.Err)
		return ev.Err

	case api.EventServerError:
		// The backend sends no end marker after an error.
		if s.acc.Active() {
			s.logger.Warn("discarding %d buffered bytes after server error", len(s.acc.CurrentText()))
		}
		s.abandon()
		s.diagnose(ev.Err)
		return ev.Err

	case api.EventClosed:
		s.teardown()
		err := ev.Err
		if err == nil {
			err = apierrors.NewChannelClosedError(nil)
		}
		s.diagnose(err)
		return err

	default:
		err := apierrors.NewProtocolViolationError("handle", "unknown event kind "+ev.Kind.String())
		s.diagnose(err)
		return err
	}
}

// Frame delivers a frame token from the frame source. Returns true if a
// flush ran.
func (s *Session) Frame(token uint64) bool {
	return s.scheduler.Frame(token)
}

// Close tears the session down: any pending flush is cancelled and partial
// response text is discarded before the channel is closed.
func (s *Session) Close() error {
	s.teardown()
	return s.channel.Close()
}

// Run drives the session from the channel's events and the given frame
// tokens. It returns nil once stop reports true after an event, the
// channel-closed error when the connection ends, or ctx's error.
func (s *Session) Run(ctx context.Context, frames <-chan uint64, stop func(*Session) bool) error {
	events := s.channel.Events()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case token := <-frames:
			s.Frame(token)

		case ev, ok := <-events:
			if !ok {
				s.teardown()
				return apierrors.NewChannelClosedError(nil)
			}
			err := s.Handle(ev)
			if ev.Kind == api.EventClosed {
				return err
			}
			if stop != nil && stop(s) {
				return nil
			}
		}
	}
}

// Log returns the conversation log
func (s *Session) Log() *history.Log {
	return s.log
}

// LiveText returns the in-progress response as of the last flush. This is
// what the display shows; it lags CurrentText by at most one frame.
func (s *Session) LiveText() string {
	return s.live
}

// CurrentText returns the in-progress response including fragments not yet
// flushed
func (s *Session) CurrentText() string {
	return s.acc.CurrentText()
}

// State returns the protocol state
func (s *Session) State() State {
	return s.state
}

// Awaiting reports whether a request is outstanding (sent, no end marker yet)
func (s *Session) Awaiting() bool {
	return s.awaiting
}

// Closed reports whether the channel has gone away
func (s *Session) Closed() bool {
	return s.closed
}

// FlushPending reports whether a display refresh is scheduled
func (s *Session) FlushPending() bool {
	return s.scheduler.Pending()
}

// Flushes returns how many display refreshes have run
func (s *Session) Flushes() int {
	return s.scheduler.Flushes()
}

func (s *Session) handleFragment(text string) error {
	if !s.acc.Active() {
		if !s.awaiting {
			err := apierrors.NewProtocolViolationError("fragment", "no outstanding request")
			s.diagnose(err)
			return err
		}
		if err := s.acc.Start(); err != nil {
			s.state = StateIdle
			s.diagnose(err)
			return err
		}
		s.state = StateStreaming
		s.logger.Debug("response started")
	}

	if _, err := s.acc.Append(text); err != nil {
		s.diagnose(err)
		return err
	}
	return nil
}

func (s *Session) handleEnd() error {
	if !s.acc.Active() {
		if !s.awaiting {
			err := apierrors.NewProtocolViolationError("end", "no outstanding request")
			s.diagnose(err)
			return err
		}
		// Response with no fragments: still exactly one assistant message.
		if err := s.acc.Start(); err != nil {
			s.diagnose(err)
			return err
		}
	}

	s.state = StateTerminating
	fragments := s.acc.Fragments()
	msg, err := s.acc.Finalize()
	if err != nil {
		s.state = StateIdle
		s.diagnose(err)
		return err
	}

	s.log.Append(msg)
	s.awaiting = false
	s.live = ""
	s.state = StateIdle
	s.logger.Debug("response finalized: %d fragments, %d bytes", fragments, len(msg.Text))
	s.notifyMessage(msg)
	return nil
}

// abandon drops the outstanding request without producing a message
func (s *Session) abandon() {
	s.acc.Discard()
	s.awaiting = false
	s.live = ""
	s.state = StateIdle
}

func (s *Session) teardown() {
	if s.acc.Active() {
		s.logger.Info("connection ended mid-response; discarding partial reply")
	}
	s.abandon()
	s.closed = true
}

func (s *Session) flush(text string) {
	s.live = text
	if s.onFlush != nil {
		s.onFlush(text)
	}
}

func (s *Session) notifyMessage(msg models.Message) {
	if s.onMessage != nil {
		s.onMessage(msg)
	}
}

func (s *Session) diagnose(err error) {
	if err == nil {
		return
	}
	switch {
	case apierrors.IsChannelClosed(err):
		s.logger.Info("%v", err)
	case apierrors.IsMalformedFragment(err):
		s.logger.Warn("dropped frame: %v", err)
	default:
		s.logger.Warn("%v", err)
	}
	if s.onDiagnostic != nil {
		s.onDiagnostic(err)
	}
}
