package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	"github.com/diogo/streamchat/internal/config"
	apierrors "github.com/diogo/streamchat/internal/errors"
	"github.com/diogo/streamchat/internal/logger"
	"github.com/diogo/streamchat/internal/models"
	"github.com/diogo/streamchat/internal/session"
	"github.com/diogo/streamchat/internal/stream"
)

// Gradient colors for animation
var gradientColors = []lipgloss.Color{
	lipgloss.Color("#7aa2f7"),
	lipgloss.Color("#bb9af7"),
	lipgloss.Color("#9ece6a"),
	lipgloss.Color("#e0af68"),
}

var (
	colorText    = lipgloss.Color("#c0caf5")
	colorTextDim = lipgloss.Color("#565f89")
	colorSuccess = lipgloss.Color("#9ece6a")
	colorError   = lipgloss.Color("#f7768e")
	colorLabel   = lipgloss.Color("#7aa2f7")
)

var assistantLabelStyle = lipgloss.NewStyle().
	Foreground(colorLabel).
	Bold(true)

// clipboardWrite is replaced in tests
var clipboardWrite = clipboard.WriteAll

// spinner handles the animated waiting indicator
type spinner struct {
	out     io.Writer
	message string
	stop    chan struct{}
	done    chan struct{}
	mu      sync.Mutex
	frame   int
	stopped bool
}

func newSpinner(out io.Writer, message string) *spinner {
	return &spinner{
		out:     out,
		message: message,
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}
}

func (s *spinner) start() {
	go func() {
		defer close(s.done)

		ticker := time.NewTicker(80 * time.Millisecond)
		defer ticker.Stop()

		// Hide cursor
		fmt.Fprint(s.out, "\033[?25l")

		for {
			select {
			case <-s.stop:
				// Clear line and show cursor
				fmt.Fprint(s.out, "\r\033[K\033[?25h")
				return
			case <-ticker.C:
				s.mu.Lock()
				s.render()
				s.frame++
				s.mu.Unlock()
			}
		}
	}()
}

func (s *spinner) render() {
	chars := []string{"⣾", "⣽", "⣻", "⢿", "⡿", "⣟", "⣯", "⣷"}

	spinColor := gradientColors[s.frame%len(gradientColors)]
	spinnerChar := lipgloss.NewStyle().Foreground(spinColor).Bold(true).Render(chars[s.frame%len(chars)])

	dots := strings.Repeat(".", (s.frame/4)%4)
	msg := lipgloss.NewStyle().Foreground(colorText).Render(s.message + dots)

	fmt.Fprintf(s.out, "\r\033[K%s %s", spinnerChar, msg)
}

// halt stops the animation and waits for the line to be cleared. Safe to
// call more than once.
func (s *spinner) halt() {
	s.mu.Lock()
	if !s.stopped {
		close(s.stop)
		s.stopped = true
	}
	s.mu.Unlock()
	<-s.done
}

// queryOptions configures a one-shot query
type queryOptions struct {
	cfg    config.Config
	raw    bool
	output string
	copy   bool
	stdout io.Writer
	stderr io.Writer
}

// runQuery sends one prompt and streams the reply. Fragments are written
// at frame boundaries; whatever arrived after the last frame is written
// when the end marker comes in.
func runQuery(ctx context.Context, prompt string, opts queryOptions) error {
	if strings.TrimSpace(prompt) == "" {
		return fmt.Errorf("prompt cannot be empty")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	log, closeLog := queryLogger(opts)
	defer closeLog()

	var spin *spinner
	if !opts.raw {
		spin = newSpinner(opts.stderr, "Connecting")
		spin.start()
	}
	stopSpinner := func() {
		if spin != nil {
			spin.halt()
			spin = nil
		}
	}
	defer stopSpinner()

	ch, err := deps.Dial(ctx, opts.cfg.ServerURL, log)
	if err != nil {
		stopSpinner()
		return fmt.Errorf("failed to connect: %w", err)
	}

	// With -o the reply goes to the file only.
	live := opts.stdout
	if opts.output != "" {
		live = io.Discard
	}

	frames := stream.NewTimerFrames(opts.cfg.FPS)
	defer frames.Stop()

	written := 0
	started := false
	writeDelta := func(text string) {
		if !started {
			started = true
			stopSpinner()
			if !opts.raw && opts.output == "" {
				fmt.Fprintln(live, assistantLabelStyle.Render(models.SenderAssistant.Label()))
			}
		}
		if len(text) > written {
			io.WriteString(live, text[written:])
			written = len(text)
		}
	}

	var serverErr error
	sess := session.New(ch, frames,
		session.WithLogger(log),
		session.WithFlushHandler(writeDelta),
		session.WithDiagnostics(func(err error) {
			if apierrors.IsServerError(err) {
				serverErr = err
			}
		}),
	)
	defer sess.Close()

	if spin != nil {
		spin.mu.Lock()
		spin.message = "Waiting for reply"
		spin.mu.Unlock()
	}

	start := time.Now()
	if err := sess.Send(ctx, prompt); err != nil {
		stopSpinner()
		return fmt.Errorf("failed to send prompt: %w", err)
	}

	runErr := sess.Run(ctx, frames.C(), func(s *session.Session) bool {
		return !s.Awaiting()
	})
	stopSpinner()

	if runErr != nil {
		if started {
			fmt.Fprintln(live)
		}
		return fmt.Errorf("reply interrupted: %w", runErr)
	}
	if serverErr != nil {
		return serverErr
	}

	reply, _ := sess.Log().Last(models.SenderAssistant)
	writeDelta(reply.Text)
	if !strings.HasSuffix(reply.Text, "\n") {
		fmt.Fprintln(live)
	}
	log.Debug("reply complete: %d bytes, %d refreshes in %s",
		len(reply.Text), sess.Flushes(), time.Since(start).Round(time.Millisecond))

	return finishQuery(reply.Text, opts)
}

// finishQuery handles the clipboard and output file after a reply
func finishQuery(text string, opts queryOptions) error {
	success := lipgloss.NewStyle().Foreground(colorSuccess)

	if opts.copy {
		if err := clipboardWrite(text); err != nil {
			fmt.Fprintln(opts.stderr, lipgloss.NewStyle().Foreground(colorError).Render(
				fmt.Sprintf("⚠ Failed to copy to clipboard: %v", err)))
		} else if !opts.raw {
			fmt.Fprintln(opts.stderr, success.Render("✓ Copied to clipboard"))
		}
	}

	if opts.output != "" {
		if err := os.WriteFile(opts.output, []byte(text), 0o644); err != nil {
			return fmt.Errorf("failed to write output file: %w", err)
		}
		if !opts.raw {
			fmt.Fprintln(opts.stderr, success.Render(fmt.Sprintf("✓ Reply saved to %s", opts.output)))
		}
	}
	return nil
}

// queryLogger logs to --log-file when given, else to stderr in verbose
// mode only
func queryLogger(opts queryOptions) (*logger.Logger, func()) {
	if opts.cfg.LogFile != "" {
		f, err := os.OpenFile(opts.cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
		if err == nil {
			return logger.New(logger.ParseLevel(opts.cfg.Verbose, false), f), func() { f.Close() }
		}
		fmt.Fprintf(opts.stderr, "Warning: cannot open log file: %v\n", err)
	}
	if opts.cfg.Verbose {
		return logger.New(logger.LevelVerbose, opts.stderr), func() {}
	}
	return logger.Discard(), func() {}
}

// isStdoutTTY returns true if stdout is connected to a terminal
func isStdoutTTY() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}

// formatErrorMessage formats an error with a hint for the common cases
func formatErrorMessage(err error, context string) string {
	if err == nil {
		return ""
	}

	errorStyle := lipgloss.NewStyle().Foreground(colorError)
	dimStyle := lipgloss.NewStyle().Foreground(colorTextDim)

	var sb strings.Builder
	sb.WriteString(errorStyle.Render(fmt.Sprintf("✗ %s: %v", context, err)))

	switch {
	case apierrors.IsChannelClosed(err):
		sb.WriteString(dimStyle.Render("\n  Hint: the connection dropped before the reply finished"))
	case apierrors.IsServerError(err):
		sb.WriteString(dimStyle.Render("\n  Hint: the server could not answer; try again"))
	case strings.Contains(err.Error(), "failed to connect"):
		sb.WriteString(dimStyle.Render("\n  Hint: is the server running? Try 'streamchat serve' for a local one"))
	}

	return sb.String()
}
