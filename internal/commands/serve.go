package commands

import (
	"context"
	"fmt"
	"io"
	"net"

	"github.com/spf13/cobra"

	"github.com/diogo/streamchat/internal/logger"
	"github.com/diogo/streamchat/internal/models"
	"github.com/diogo/streamchat/internal/server"
)

var (
	serveAddrFlag string
	serveRateFlag float64
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run a local demo chat server",
	Long: `Run a local server that speaks the streamchat protocol. Each prompt is
echoed back as a short markdown reply, streamed word by word at the
configured token rate and terminated with the end marker.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadSettings(cmd.ErrOrStderr())
		if err != nil {
			return err
		}
		addr := cfg.ServeAddr
		if serveAddrFlag != "" {
			addr = serveAddrFlag
		}
		rate := cfg.TokenRate
		if cmd.Flags().Changed("rate") {
			rate = serveRateFlag
		}
		log := logger.New(logger.ParseLevel(cfg.Verbose, false), cmd.ErrOrStderr())
		return runServe(cmd.Context(), addr, rate, log, cmd.OutOrStdout())
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveAddrFlag, "addr", "", "Listen address (default from config, localhost:8000)")
	serveCmd.Flags().Float64Var(&serveRateFlag, "rate", 0, "Fragments per second per connection (0 = unlimited)")
}

func runServe(ctx context.Context, addr string, rate float64, log *logger.Logger, stdout io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}
	srv := server.New(
		server.WithTokenRate(rate),
		server.WithLogger(log),
	)
	return srv.ListenAndServe(ctx, addr, func(a net.Addr) {
		fmt.Fprintf(stdout, "Serving on ws://%s%s (Ctrl+C to stop)\n", a, models.ChatPath)
	})
}
