package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/diogo/streamchat/internal/api"
	apierrors "github.com/diogo/streamchat/internal/errors"
	"github.com/diogo/streamchat/internal/models"
)

// steppedFrames records scheduled tokens until the test delivers them.
type steppedFrames struct {
	tokens []uint64
}

func (f *steppedFrames) Schedule(token uint64) {
	f.tokens = append(f.tokens, token)
}

// frame delivers every scheduled token as one frame boundary.
func (f *steppedFrames) frame(s *Session) int {
	tokens := f.tokens
	f.tokens = nil
	ran := 0
	for _, token := range tokens {
		if s.Frame(token) {
			ran++
		}
	}
	return ran
}

type harness struct {
	ch      *api.MockChannel
	frames  *steppedFrames
	session *Session
	flushes []string
	diags   []error
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{
		ch:     api.NewMockChannel(16),
		frames: &steppedFrames{},
	}
	h.session = New(h.ch, h.frames,
		WithFlushHandler(func(text string) { h.flushes = append(h.flushes, text) }),
		WithDiagnostics(func(err error) { h.diags = append(h.diags, err) }),
	)
	return h
}

func (h *harness) send(t *testing.T, text string) {
	t.Helper()
	if err := h.session.Send(context.Background(), text); err != nil {
		t.Fatalf("Send(%q) error: %v", text, err)
	}
}

func TestSession_HelloScenario(t *testing.T) {
	h := newHarness(t)
	s := h.session

	h.send(t, "hello")
	if got := h.ch.LastSent(); got != "hello" {
		t.Errorf("transmitted %q, want %q", got, "hello")
	}
	if s.Log().Len() != 1 {
		t.Fatalf("log length after send = %d, want 1", s.Log().Len())
	}
	if !s.Awaiting() {
		t.Error("Awaiting() should be true after send")
	}

	if err := s.Handle(api.FragmentEvent("Hi")); err != nil {
		t.Fatalf("fragment error: %v", err)
	}
	if s.State() != StateStreaming {
		t.Errorf("State() = %v, want streaming", s.State())
	}
	h.frames.frame(s)
	if s.LiveText() != "Hi" {
		t.Errorf("LiveText() = %q, want %q", s.LiveText(), "Hi")
	}

	if err := s.Handle(api.FragmentEvent(" there")); err != nil {
		t.Fatalf("fragment error: %v", err)
	}
	h.frames.frame(s)
	if s.LiveText() != "Hi there" {
		t.Errorf("LiveText() = %q, want %q", s.LiveText(), "Hi there")
	}

	if err := s.Handle(api.EndEvent()); err != nil {
		t.Fatalf("end error: %v", err)
	}

	msgs := s.Log().Snapshot()
	if len(msgs) != 2 {
		t.Fatalf("log length = %d, want 2", len(msgs))
	}
	if msgs[0].Sender != models.SenderUser || msgs[0].Text != "hello" {
		t.Errorf("first message = %+v", msgs[0])
	}
	if msgs[1].Sender != models.SenderAssistant || msgs[1].Text != "Hi there" {
		t.Errorf("second message = %+v", msgs[1])
	}
	if s.State() != StateIdle || s.Awaiting() {
		t.Errorf("after end: state=%v awaiting=%v, want idle/false", s.State(), s.Awaiting())
	}
	if s.CurrentText() != "" || s.LiveText() != "" {
		t.Error("buffer should be empty after end")
	}
	if len(h.diags) != 0 {
		t.Errorf("unexpected diagnostics: %v", h.diags)
	}
}

func TestSession_BurstWithinOneFrame(t *testing.T) {
	h := newHarness(t)
	s := h.session
	h.send(t, "q")

	for _, frag := range []string{"A", "B", "C"} {
		if err := s.Handle(api.FragmentEvent(frag)); err != nil {
			t.Fatalf("fragment %q: %v", frag, err)
		}
	}
	if !s.FlushPending() {
		t.Fatal("a flush should be pending")
	}
	if len(h.flushes) != 0 {
		t.Fatalf("flushed before frame boundary: %v", h.flushes)
	}

	h.frames.frame(s)

	if len(h.flushes) != 1 || h.flushes[0] != "ABC" {
		t.Errorf("flushes = %v, want [ABC]", h.flushes)
	}
	if s.Flushes() != 1 {
		t.Errorf("Flushes() = %d, want 1", s.Flushes())
	}
}

func TestSession_EndCancelsPendingFlush(t *testing.T) {
	h := newHarness(t)
	s := h.session
	h.send(t, "q")

	_ = s.Handle(api.FragmentEvent("partial"))
	_ = s.Handle(api.EndEvent())

	if s.FlushPending() {
		t.Error("flush still pending after end")
	}
	if ran := h.frames.frame(s); ran != 0 {
		t.Errorf("stale flush ran %d time(s) after end", ran)
	}
	if len(h.flushes) != 0 {
		t.Errorf("flushes after end = %v, want none", h.flushes)
	}
	last, ok := s.Log().Last(models.SenderAssistant)
	if !ok || last.Text != "partial" {
		t.Errorf("assistant message = %+v, %v", last, ok)
	}
}

func TestSession_EndWithoutFragments(t *testing.T) {
	h := newHarness(t)
	s := h.session
	h.send(t, "q")

	if err := s.Handle(api.EndEvent()); err != nil {
		t.Fatalf("end error: %v", err)
	}
	if got := s.Log().Count(models.SenderAssistant); got != 1 {
		t.Fatalf("assistant messages = %d, want 1", got)
	}
	last, _ := s.Log().Last(models.SenderAssistant)
	if last.Text != "" {
		t.Errorf("assistant text = %q, want empty", last.Text)
	}
}

func TestSession_ExactlyOneMessagePerResponse(t *testing.T) {
	h := newHarness(t)
	s := h.session

	for i, reply := range [][]string{{"one"}, {"tw", "o"}, {"th", "r", "ee"}} {
		h.send(t, "q")
		for _, frag := range reply {
			_ = s.Handle(api.FragmentEvent(frag))
			if i%2 == 0 {
				h.frames.frame(s)
			}
		}
		_ = s.Handle(api.EndEvent())
	}

	if got := s.Log().Count(models.SenderAssistant); got != 3 {
		t.Fatalf("assistant messages = %d, want 3", got)
	}
	want := []string{"q", "one", "q", "two", "q", "three"}
	for i, msg := range s.Log().Snapshot() {
		if msg.Text != want[i] {
			t.Errorf("message %d = %q, want %q", i, msg.Text, want[i])
		}
	}
}

func TestSession_SendRejections(t *testing.T) {
	t.Run("empty text", func(t *testing.T) {
		h := newHarness(t)
		err := h.session.Send(context.Background(), "   ")
		if !errors.Is(err, apierrors.ErrEmptyMessage) {
			t.Errorf("error = %v, want ErrEmptyMessage", err)
		}
		if h.session.Log().Len() != 0 || len(h.ch.Sent) != 0 {
			t.Error("empty message should not be recorded or sent")
		}
	})

	t.Run("response pending", func(t *testing.T) {
		h := newHarness(t)
		h.send(t, "first")
		err := h.session.Send(context.Background(), "second")
		if !errors.Is(err, apierrors.ErrResponsePending) {
			t.Errorf("error = %v, want ErrResponsePending", err)
		}
		if h.session.Log().Len() != 1 {
			t.Errorf("log length = %d, want 1", h.session.Log().Len())
		}
	})

	t.Run("after close", func(t *testing.T) {
		h := newHarness(t)
		_ = h.session.Close()
		err := h.session.Send(context.Background(), "hi")
		if !apierrors.IsChannelClosed(err) {
			t.Errorf("error = %v, want channel closed", err)
		}
	})

	t.Run("transport failure", func(t *testing.T) {
		h := newHarness(t)
		h.ch.SendErr = apierrors.NewChannelClosedError(errors.New("broken pipe"))
		err := h.session.Send(context.Background(), "hi")
		if !apierrors.IsChannelClosed(err) {
			t.Errorf("error = %v, want channel closed", err)
		}
		if h.session.Awaiting() {
			t.Error("failed send must not leave a request outstanding")
		}
		if !h.session.Closed() {
			t.Error("session should be closed after the channel failed")
		}
	})
}

func TestSession_ProtocolViolations(t *testing.T) {
	t.Run("fragment without request", func(t *testing.T) {
		h := newHarness(t)
		err := h.session.Handle(api.FragmentEvent("stray"))
		if !apierrors.IsProtocolViolation(err) {
			t.Errorf("error = %v, want protocol violation", err)
		}
		if h.session.State() != StateIdle || h.session.CurrentText() != "" {
			t.Error("stray fragment should be dropped")
		}
		if len(h.diags) != 1 {
			t.Errorf("diagnostics = %d, want 1", len(h.diags))
		}
	})

	t.Run("end without request", func(t *testing.T) {
		h := newHarness(t)
		err := h.session.Handle(api.EndEvent())
		if !apierrors.IsProtocolViolation(err) {
			t.Errorf("error = %v, want protocol violation", err)
		}
		if h.session.Log().Len() != 0 {
			t.Error("no message should be appended")
		}
	})
}

func TestSession_MalformedLeavesBufferUnchanged(t *testing.T) {
	h := newHarness(t)
	s := h.session
	h.send(t, "q")
	_ = s.Handle(api.FragmentEvent("ok"))

	err := s.Handle(api.ParseInbound("{not json"))
	if !apierrors.IsMalformedFragment(err) {
		t.Fatalf("error = %v, want malformed fragment", err)
	}
	if s.CurrentText() != "ok" || s.State() != StateStreaming {
		t.Errorf("buffer changed: text=%q state=%v", s.CurrentText(), s.State())
	}

	_ = s.Handle(api.FragmentEvent("!"))
	_ = s.Handle(api.EndEvent())
	last, _ := s.Log().Last(models.SenderAssistant)
	if last.Text != "ok!" {
		t.Errorf("assistant text = %q, want %q", last.Text, "ok!")
	}
}

func TestSession_ServerErrorAbandonsRequest(t *testing.T) {
	h := newHarness(t)
	s := h.session
	h.send(t, "q")
	_ = s.Handle(api.FragmentEvent("half"))

	err := s.Handle(api.ParseInbound(`{"error":"generation failed"}`))
	if !apierrors.IsServerError(err) {
		t.Fatalf("error = %v, want server error", err)
	}
	if s.Awaiting() || s.State() != StateIdle || s.CurrentText() != "" {
		t.Errorf("after server error: awaiting=%v state=%v text=%q", s.Awaiting(), s.State(), s.CurrentText())
	}
	if h.frames.frame(s) != 0 {
		t.Error("flush ran after server error")
	}
	if s.Log().Count(models.SenderAssistant) != 0 {
		t.Error("server error must not produce an assistant message")
	}

	// The session is usable again.
	h.send(t, "retry")
}

func TestSession_ClosedMidStream(t *testing.T) {
	h := newHarness(t)
	s := h.session
	h.send(t, "q")
	_ = s.Handle(api.FragmentEvent("partial"))

	err := s.Handle(api.ClosedEvent(errors.New("connection reset")))
	if !apierrors.IsChannelClosed(err) {
		t.Fatalf("error = %v, want channel closed", err)
	}
	if h.frames.frame(s) != 0 {
		t.Error("flush ran after closure")
	}
	if s.CurrentText() != "" || s.Awaiting() || !s.Closed() {
		t.Errorf("after close: text=%q awaiting=%v closed=%v", s.CurrentText(), s.Awaiting(), s.Closed())
	}
	if s.Log().Count(models.SenderAssistant) != 0 {
		t.Error("partial reply must not be appended")
	}
}

func TestSession_CloseCancelsAndClosesChannel(t *testing.T) {
	h := newHarness(t)
	s := h.session
	h.send(t, "q")
	_ = s.Handle(api.FragmentEvent("x"))

	if err := s.Close(); err != nil {
		t.Fatalf("Close() error: %v", err)
	}
	if h.ch.CloseCalled != 1 {
		t.Errorf("channel Close called %d times, want 1", h.ch.CloseCalled)
	}
	if s.FlushPending() {
		t.Error("flush pending after Close")
	}
}

func TestSession_MessageHandler(t *testing.T) {
	ch := api.NewMockChannel(4)
	var got []models.Message
	s := New(ch, &steppedFrames{}, WithMessageHandler(func(m models.Message) {
		got = append(got, m)
	}))

	if err := s.Send(context.Background(), "hi"); err != nil {
		t.Fatal(err)
	}
	_ = s.Handle(api.FragmentEvent("yo"))
	_ = s.Handle(api.EndEvent())

	if len(got) != 2 {
		t.Fatalf("handler calls = %d, want 2", len(got))
	}
	if got[0].Sender != models.SenderUser || got[1].Sender != models.SenderAssistant {
		t.Errorf("senders = %v, %v", got[0].Sender, got[1].Sender)
	}
}

func TestSession_Run(t *testing.T) {
	ch := api.NewMockChannel(8)
	var flushed []string
	frames := make(chan uint64, 8)
	src := frameFunc(func(token uint64) { frames <- token })
	s := New(ch, src, WithFlushHandler(func(text string) { flushed = append(flushed, text) }))

	if err := s.Send(context.Background(), "hello"); err != nil {
		t.Fatal(err)
	}
	ch.PushFragments("Hi", " there", models.EndOfStream)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	err := s.Run(ctx, frames, func(s *Session) bool { return !s.Awaiting() })
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	last, ok := s.Log().Last(models.SenderAssistant)
	if !ok || last.Text != "Hi there" {
		t.Errorf("assistant message = %+v, %v", last, ok)
	}
}

func TestSession_RunReturnsOnClose(t *testing.T) {
	ch := api.NewMockChannel(4)
	s := New(ch, &steppedFrames{})
	_ = ch.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	err := s.Run(ctx, nil, nil)
	if !apierrors.IsChannelClosed(err) {
		t.Errorf("Run() error = %v, want channel closed", err)
	}
	if !s.Closed() {
		t.Error("session should be closed")
	}
}

func TestStateString(t *testing.T) {
	tests := []struct {
		state State
		want  string
	}{
		{StateIdle, "idle"},
		{StateStreaming, "streaming"},
		{StateTerminating, "terminating"},
		{State(42), "unknown"},
	}
	for _, tt := range tests {
		if got := tt.state.String(); got != tt.want {
			t.Errorf("State(%d).String() = %q, want %q", tt.state, got, tt.want)
		}
	}
}

type frameFunc func(token uint64)

func (f frameFunc) Schedule(token uint64) { f(token) }
