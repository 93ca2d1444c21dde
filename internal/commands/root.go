// Package commands provides CLI commands for streamchat.
package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/diogo/streamchat/internal/api"
	"github.com/diogo/streamchat/internal/config"
)

var (
	// Global flags
	urlFlag     string
	fpsFlag     int
	verboseFlag bool
	logFileFlag string

	// One-shot flags
	outputFlag string
	fileFlag   string
	copyFlag   bool
	rawFlag    bool

	// Version info (set at build time)
	Version   = "0.1.0"
	BuildTime = "unknown"
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "streamchat [prompt]",
	Short: "Terminal client for streaming chat servers",
	Long: `streamchat talks to a chat server over a WebSocket. Replies arrive as
small fragments and are shown as they stream in, refreshed at most once per
display frame.

Examples:
  streamchat chat                          Start interactive chat
  streamchat "What is Go?"                 Send a single prompt
  streamchat -f prompt.md                  Read prompt from file
  cat prompt.md | streamchat               Read prompt from stdin
  streamchat "Hello" -o reply.md           Save the reply to a file
  streamchat serve                         Run the local demo server
  streamchat -u ws://host:8000/ws/chat ... Use another server`,
	Args:          cobra.MaximumNArgs(1),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		if v, _ := cmd.Flags().GetBool("version"); v {
			fmt.Fprintf(cmd.OutOrStdout(), "streamchat %s (built %s)\n", Version, BuildTime)
			return nil
		}

		prompt, ok, err := readPrompt(cmd.InOrStdin(), args)
		if err != nil {
			return err
		}
		if !ok {
			return cmd.Help()
		}

		cfg, err := loadSettings(cmd.ErrOrStderr())
		if err != nil {
			return err
		}
		return runQuery(cmd.Context(), prompt, queryOptions{
			cfg:    cfg,
			raw:    rawFlag || !isStdoutTTY(),
			output: outputFlag,
			copy:   copyFlag || cfg.CopyToClipboard,
			stdout: cmd.OutOrStdout(),
			stderr: cmd.ErrOrStderr(),
		})
	},
}

// Execute runs the root command
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		fmt.Fprintln(os.Stderr, formatErrorMessage(err, "Error"))
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&urlFlag, "url", "u", "", "Chat server WebSocket URL (default from config)")
	rootCmd.PersistentFlags().IntVar(&fpsFlag, "fps", 0, "Display refresh rate while a reply streams")
	rootCmd.PersistentFlags().BoolVar(&verboseFlag, "verbose", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVar(&logFileFlag, "log-file", "", "Write diagnostics to this file")

	rootCmd.Flags().StringVarP(&outputFlag, "output", "o", "", "Save reply to file")
	rootCmd.Flags().StringVarP(&fileFlag, "file", "f", "", "Read prompt from file")
	rootCmd.Flags().BoolVar(&copyFlag, "copy", false, "Copy the reply to the clipboard")
	rootCmd.Flags().BoolVar(&rawFlag, "raw", false, "Print only the reply text")
	rootCmd.Flags().BoolP("version", "v", false, "Show version and exit")

	rootCmd.AddCommand(chatCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(configCmd)
}

// readPrompt picks the prompt from --file, piped stdin or the argument,
// in that order. ok is false when there is no input at all.
func readPrompt(stdin io.Reader, args []string) (prompt string, ok bool, err error) {
	if fileFlag != "" {
		data, err := os.ReadFile(fileFlag)
		if err != nil {
			return "", false, fmt.Errorf("failed to read file: %w", err)
		}
		return string(data), true, nil
	}

	if hasPipedInput(stdin) {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return "", false, fmt.Errorf("failed to read stdin: %w", err)
		}
		return string(data), true, nil
	}

	if len(args) > 0 {
		return args[0], true, nil
	}
	return "", false, nil
}

// hasPipedInput reports whether r is a pipe or file rather than a terminal.
// Readers that are not files (tests) count as piped.
func hasPipedInput(r io.Reader) bool {
	f, ok := r.(*os.File)
	if !ok {
		return r != nil
	}
	stat, err := f.Stat()
	if err != nil {
		return false
	}
	return (stat.Mode() & os.ModeCharDevice) == 0
}

// loadSettings returns the effective configuration: config file, then
// environment, then command-line flags.
func loadSettings(stderr io.Writer) (config.Config, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(stderr, "Warning: %v (using defaults)\n", err)
	}

	if urlFlag != "" {
		cfg.ServerURL = urlFlag
	}
	if fpsFlag > 0 {
		cfg.FPS = fpsFlag
	}
	if verboseFlag {
		cfg.Verbose = true
	}
	if logFileFlag != "" {
		cfg.LogFile = logFileFlag
	}

	url, err := api.NormalizeURL(cfg.ServerURL)
	if err != nil {
		return cfg, err
	}
	cfg.ServerURL = url
	return cfg, nil
}
