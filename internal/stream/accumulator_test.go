package stream

import (
	"strings"
	"testing"

	apierrors "github.com/diogo/streamchat/internal/errors"
	"github.com/diogo/streamchat/internal/models"
)

func TestAccumulator_AppendOrderPreserved(t *testing.T) {
	acc, _, _, _ := newTestAccumulator()

	fragments := []string{"The", " quick", " brown", " fox", "", " ✓", "\n```go\n", "x := 1", "\n```"}
	if err := acc.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	var total string
	for _, f := range fragments {
		var err error
		total, err = acc.Append(f)
		if err != nil {
			t.Fatalf("Append(%q) failed: %v", f, err)
		}
	}

	want := strings.Join(fragments, "")
	if total != want {
		t.Errorf("Append returned %q, want %q", total, want)
	}

	msg, err := acc.Finalize()
	if err != nil {
		t.Fatalf("Finalize failed: %v", err)
	}
	if msg.Text != want {
		t.Errorf("Finalize().Text = %q, want %q", msg.Text, want)
	}
	if msg.Sender != models.SenderAssistant {
		t.Errorf("Sender = %v, want assistant", msg.Sender)
	}
}

func TestAccumulator_BurstFlushesOnceWithLatestText(t *testing.T) {
	acc, sched, frames, rec := newTestAccumulator()

	acc.Start()
	acc.Append("A")
	acc.Append("B")
	acc.Append("C")

	if frames.scheduled != 1 {
		t.Errorf("scheduled %d frames, want 1", frames.scheduled)
	}

	frames.tick(sched)

	if len(rec.texts) != 1 {
		t.Fatalf("got %d flushes, want 1", len(rec.texts))
	}
	if rec.texts[0] != "ABC" {
		t.Errorf("flushed %q, want ABC", rec.texts[0])
	}
}

func TestAccumulator_FlushPerFrame(t *testing.T) {
	acc, sched, frames, rec := newTestAccumulator()

	acc.Start()
	acc.Append("one")
	frames.tick(sched)
	frames.tick(sched)
	acc.Append(" two")
	acc.Append(" three")
	frames.tick(sched)

	want := []string{"one", "one two three"}
	if len(rec.texts) != len(want) {
		t.Fatalf("flushes = %v, want %v", rec.texts, want)
	}
	for i := range want {
		if rec.texts[i] != want[i] {
			t.Errorf("flush %d = %q, want %q", i, rec.texts[i], want[i])
		}
	}
}

func TestAccumulator_NoStaleFlushAfterFinalize(t *testing.T) {
	acc, sched, frames, rec := newTestAccumulator()

	acc.Start()
	acc.Append("partial")
	if !sched.Pending() {
		t.Fatal("expected pending flush")
	}

	if _, err := acc.Finalize(); err != nil {
		t.Fatalf("Finalize failed: %v", err)
	}
	if sched.Pending() {
		t.Error("expected Finalize to cancel the pending flush")
	}

	// Next response starts before the old frame arrives.
	acc.Start()
	frames.tick(sched)

	if len(rec.texts) != 0 {
		t.Errorf("stale flush observed %v", rec.texts)
	}
}

func TestAccumulator_FinalizeClearsBuffer(t *testing.T) {
	acc, _, _, _ := newTestAccumulator()

	acc.Start()
	acc.Append("Hi")
	acc.Append(" there")
	acc.Finalize()

	if acc.Active() {
		t.Error("expected inactive after Finalize")
	}
	if acc.CurrentText() != "" {
		t.Errorf("CurrentText() = %q, want empty", acc.CurrentText())
	}
	if acc.Fragments() != 0 {
		t.Errorf("Fragments() = %d, want 0", acc.Fragments())
	}
}

func TestAccumulator_ProtocolViolations(t *testing.T) {
	t.Run("append while idle", func(t *testing.T) {
		acc, _, frames, _ := newTestAccumulator()

		_, err := acc.Append("x")
		if !apierrors.IsProtocolViolation(err) {
			t.Errorf("expected protocol violation, got %v", err)
		}
		if acc.Active() || frames.scheduled != 0 {
			t.Error("expected no state change")
		}
	})

	t.Run("finalize while idle", func(t *testing.T) {
		acc, _, _, _ := newTestAccumulator()

		msg, err := acc.Finalize()
		if !apierrors.IsProtocolViolation(err) {
			t.Errorf("expected protocol violation, got %v", err)
		}
		if msg.Text != "" {
			t.Errorf("expected zero message, got %+v", msg)
		}
	})

	t.Run("start while active", func(t *testing.T) {
		acc, sched, _, _ := newTestAccumulator()

		acc.Start()
		acc.Append("first stream")

		err := acc.Start()
		if !apierrors.IsProtocolViolation(err) {
			t.Errorf("expected protocol violation, got %v", err)
		}
		if acc.Active() {
			t.Error("expected accumulator reset to idle")
		}
		if acc.CurrentText() != "" {
			t.Errorf("CurrentText() = %q, want empty", acc.CurrentText())
		}
		if sched.Pending() {
			t.Error("expected pending flush cancelled")
		}
	})
}

func TestAccumulator_Discard(t *testing.T) {
	acc, sched, frames, rec := newTestAccumulator()

	acc.Start()
	acc.Append("lost")
	acc.Discard()
	frames.tick(sched)

	if acc.Active() {
		t.Error("expected inactive after Discard")
	}
	if len(rec.texts) != 0 {
		t.Errorf("flush after discard: %v", rec.texts)
	}

	// Discard while idle is harmless.
	acc.Discard()
}

func TestAccumulator_CurrentTextWhileIdle(t *testing.T) {
	acc, _, _, _ := newTestAccumulator()

	if acc.CurrentText() != "" {
		t.Errorf("CurrentText() = %q, want empty", acc.CurrentText())
	}

	acc.Start()
	if acc.CurrentText() != "" {
		t.Errorf("CurrentText() after Start = %q, want empty", acc.CurrentText())
	}
	acc.Append("x")
	if acc.CurrentText() != "x" {
		t.Errorf("CurrentText() = %q, want x", acc.CurrentText())
	}
}

func TestAccumulator_NilFlushHandler(t *testing.T) {
	frames := &manualFrames{}
	sched := NewScheduler(frames)
	acc := NewAccumulator(sched, nil)

	acc.Start()
	acc.Append("x")
	frames.tick(sched)

	if sched.Flushes() != 1 {
		t.Errorf("Flushes() = %d, want 1", sched.Flushes())
	}
}
