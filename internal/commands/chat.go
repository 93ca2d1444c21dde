package commands

import (
	"context"
	"fmt"
	"io"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/diogo/streamchat/internal/config"
	"github.com/diogo/streamchat/internal/history"
	"github.com/diogo/streamchat/internal/logger"
	"github.com/diogo/streamchat/internal/tui"
)

var transcriptFlag string

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Start an interactive chat session",
	Long: `Start an interactive chat session over one connection.

Replies render as markdown while they stream. Type '/copy' to copy the last
reply, 'exit', 'quit' or press Esc to end the session.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadSettings(cmd.ErrOrStderr())
		if err != nil {
			return err
		}
		return runChat(cmd.Context(), cfg, transcriptFlag, cmd.ErrOrStderr())
	},
}

func init() {
	chatCmd.Flags().StringVar(&transcriptFlag, "transcript", "", "Write the conversation to this .md or .json file on exit")
}

func runChat(ctx context.Context, cfg config.Config, transcript string, stderr io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}

	log, closeLog, err := chatLogger(cfg)
	if err != nil {
		fmt.Fprintf(stderr, "Warning: %v\n", err)
	}
	defer closeLog()

	spin := newSpinner(stderr, "Connecting to "+cfg.ServerURL)
	spin.start()
	ch, err := deps.Dial(ctx, cfg.ServerURL, log)
	spin.halt()
	if err != nil {
		return fmt.Errorf("failed to connect: %w", err)
	}

	sess, err := deps.RunChat(tui.Options{
		Channel:   ch,
		ServerURL: cfg.ServerURL,
		FPS:       cfg.FPS,
		Theme:     cfg.TUITheme,
		Markdown:  cfg.Markdown,
		Logger:    log,
	})
	if err != nil {
		return fmt.Errorf("chat failed: %w", err)
	}

	if transcript != "" && sess != nil && sess.Log().Len() > 0 {
		opts := history.DefaultExportOptions()
		opts.Format = history.FormatFromPath(transcript)
		opts.Server = cfg.ServerURL
		if err := sess.Log().WriteTranscript(transcript, opts); err != nil {
			return fmt.Errorf("failed to write transcript: %w", err)
		}
		fmt.Fprintf(stderr, "Transcript saved to %s\n", transcript)
	}
	return nil
}

// chatLogger sends diagnostics to the log file, since bubbletea owns the
// terminal while the chat runs
func chatLogger(cfg config.Config) (*logger.Logger, func(), error) {
	if cfg.LogFile == "" {
		return logger.Discard(), func() {}, nil
	}
	f, err := tea.LogToFile(cfg.LogFile, "streamchat")
	if err != nil {
		return logger.Discard(), func() {}, fmt.Errorf("cannot open log file: %w", err)
	}
	return logger.New(logger.ParseLevel(cfg.Verbose, false), f), func() { f.Close() }, nil
}
