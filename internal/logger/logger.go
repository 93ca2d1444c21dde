// Package logger provides the leveled diagnostic logger used across
// streamchat. It wraps zerolog with a console writer so lines stay readable
// when they share a file with bubbletea's own log output.
package logger

import (
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"
	"golang.org/x/term"
)

// Level controls the verbosity of the logger.
type Level int

const (
	// LevelOff disables all log output.
	LevelOff Level = iota
	// LevelNormal enables info, warn, and error output.
	LevelNormal
	// LevelVerbose enables all output including debug.
	LevelVerbose
)

// ParseLevel maps the verbose/quiet switches onto a level
func ParseLevel(verbose, quiet bool) Level {
	switch {
	case quiet:
		return LevelOff
	case verbose:
		return LevelVerbose
	default:
		return LevelNormal
	}
}

// zerologLevel maps a Level onto the zerolog threshold
func (lv Level) zerologLevel() zerolog.Level {
	switch lv {
	case LevelVerbose:
		return zerolog.DebugLevel
	case LevelNormal:
		return zerolog.InfoLevel
	default:
		return zerolog.Disabled
	}
}

// Logger is a leveled logger. All methods are safe for concurrent use and
// a nil *Logger discards everything.
type Logger struct {
	zl zerolog.Logger
}

// TimeFormat is the timestamp layout of console lines
const TimeFormat = "15:04:05.000"

// New creates a logger with the given level, writing to out.
// If out is nil, os.Stderr is used. Colors are only used on terminals.
func New(level Level, out io.Writer) *Logger {
	if out == nil {
		out = os.Stderr
	}
	cw := zerolog.ConsoleWriter{
		Out:        out,
		NoColor:    !isTerminal(out),
		TimeFormat: TimeFormat,
	}
	zl := zerolog.New(cw).Level(level.zerologLevel()).With().Timestamp().Logger()
	return &Logger{zl: zl}
}

// Discard returns a logger that writes nothing
func Discard() *Logger {
	return &Logger{zl: zerolog.Nop()}
}

// With returns a logger sharing output and level that tags each line with
// component.
func (l *Logger) With(component string) *Logger {
	if l == nil {
		return nil
	}
	return &Logger{zl: l.zl.With().Str("component", component).Logger()}
}

// GetLevel returns the current log level.
func (l *Logger) GetLevel() Level {
	if l == nil {
		return LevelOff
	}
	switch lvl := l.zl.GetLevel(); {
	case lvl <= zerolog.DebugLevel:
		return LevelVerbose
	case lvl <= zerolog.ErrorLevel:
		return LevelNormal
	default:
		return LevelOff
	}
}

// Zerolog exposes the underlying logger for structured fields
func (l *Logger) Zerolog() zerolog.Logger {
	if l == nil {
		return zerolog.Nop()
	}
	return l.zl
}

// Debug logs a message at debug level (only visible in verbose mode).
func (l *Logger) Debug(format string, args ...any) {
	if l == nil {
		return
	}
	l.zl.Debug().Msg(sprintf(format, args))
}

// Info logs a message at info level.
func (l *Logger) Info(format string, args ...any) {
	if l == nil {
		return
	}
	l.zl.Info().Msg(sprintf(format, args))
}

// Warn logs a message at warn level.
func (l *Logger) Warn(format string, args ...any) {
	if l == nil {
		return
	}
	l.zl.Warn().Msg(sprintf(format, args))
}

// Error logs a message at error level.
func (l *Logger) Error(format string, args ...any) {
	if l == nil {
		return
	}
	l.zl.Error().Msg(sprintf(format, args))
}

func sprintf(format string, args []any) string {
	if len(args) == 0 {
		return format
	}
	return fmt.Sprintf(format, args...)
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
