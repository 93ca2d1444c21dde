package logger

import (
	"bytes"
	"strings"
	"testing"
)

func TestLogger_Levels(t *testing.T) {
	tests := []struct {
		name      string
		level     Level
		wantDebug bool
		wantInfo  bool
	}{
		{"off", LevelOff, false, false},
		{"normal", LevelNormal, false, true},
		{"verbose", LevelVerbose, true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			l := New(tt.level, &buf)

			l.Debug("debug %d", 1)
			l.Info("info %d", 2)
			l.Warn("warn")
			l.Error("error")

			out := buf.String()
			if got := strings.Contains(out, "DBG debug 1"); got != tt.wantDebug {
				t.Errorf("debug present = %v, want %v\n%s", got, tt.wantDebug, out)
			}
			if got := strings.Contains(out, "INF info 2"); got != tt.wantInfo {
				t.Errorf("info present = %v, want %v\n%s", got, tt.wantInfo, out)
			}
			if got := strings.Contains(out, "ERR error"); got != tt.wantInfo {
				t.Errorf("error present = %v, want %v\n%s", got, tt.wantInfo, out)
			}
			if l.GetLevel() != tt.level {
				t.Errorf("GetLevel() = %v, want %v", l.GetLevel(), tt.level)
			}
		})
	}
}

func TestLogger_WithTagsComponent(t *testing.T) {
	var buf bytes.Buffer
	root := New(LevelVerbose, &buf)
	child := root.With("session")

	child.Debug("visible")

	out := buf.String()
	if !strings.Contains(out, "DBG visible") || !strings.Contains(out, "component=session") {
		t.Errorf("expected tagged debug line, got:\n%s", out)
	}
	if child.GetLevel() != LevelVerbose {
		t.Errorf("child level = %v, want verbose", child.GetLevel())
	}
}

func TestLogger_PlainOutputForFiles(t *testing.T) {
	var buf bytes.Buffer
	New(LevelNormal, &buf).Warn("progress %d%%", 5)

	out := buf.String()
	if strings.Contains(out, "\x1b[") {
		t.Errorf("non-terminal output should not be colored: %q", out)
	}
	if !strings.Contains(out, "WRN progress 5%") {
		t.Errorf("unexpected line %q", out)
	}
}

func TestLogger_LiteralMessageWithoutArgs(t *testing.T) {
	var buf bytes.Buffer
	New(LevelNormal, &buf).Info("100% done")

	if !strings.Contains(buf.String(), "100% done") {
		t.Errorf("message without args should be written as is: %q", buf.String())
	}
}

func TestLogger_Discard(t *testing.T) {
	l := Discard()
	l.Error("nothing")
	if l.GetLevel() != LevelOff {
		t.Errorf("Discard level = %v, want off", l.GetLevel())
	}
}

func TestLogger_Nil(t *testing.T) {
	var l *Logger

	l.Info("no panic")
	l.Debug("no panic")
	if l.GetLevel() != LevelOff {
		t.Error("nil logger should report LevelOff")
	}
	if l.With("x") != nil {
		t.Error("With on nil logger should return nil")
	}
}

func TestParseLevel(t *testing.T) {
	if ParseLevel(false, false) != LevelNormal {
		t.Error("default should be normal")
	}
	if ParseLevel(true, false) != LevelVerbose {
		t.Error("verbose should win without quiet")
	}
	if ParseLevel(true, true) != LevelOff {
		t.Error("quiet should win")
	}
}
