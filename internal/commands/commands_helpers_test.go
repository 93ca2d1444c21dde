package commands

import (
	"context"
	"errors"
	"testing"

	"github.com/diogo/streamchat/internal/api"
	"github.com/diogo/streamchat/internal/logger"
	"github.com/diogo/streamchat/internal/models"
	"github.com/diogo/streamchat/internal/session"
	"github.com/diogo/streamchat/internal/tui"
)

// scriptedServer answers every send on a MockChannel with a fixed reply
type scriptedServer struct {
	*api.MockChannel
	reply []string
}

func (s *scriptedServer) Send(ctx context.Context, text string) error {
	if err := s.MockChannel.Send(ctx, text); err != nil {
		return err
	}
	return s.PushFragments(s.reply...)
}

// withDeps swaps the package dependencies for the duration of a test
func withDeps(t *testing.T, d *Dependencies) {
	t.Helper()
	old := deps
	deps = d
	t.Cleanup(func() { deps = old })
}

func dialTo(ch api.Channel) func(context.Context, string, *logger.Logger) (api.Channel, error) {
	return func(context.Context, string, *logger.Logger) (api.Channel, error) {
		return ch, nil
	}
}

func failDial(context.Context, string, *logger.Logger) (api.Channel, error) {
	return nil, errors.New("connection refused")
}

func noChat(tui.Options) (*session.Session, error) {
	return nil, errors.New("chat screen not available in tests")
}

func replyWith(fragments ...string) *scriptedServer {
	return &scriptedServer{
		MockChannel: api.NewMockChannel(len(fragments) + 4),
		reply:       append(fragments, models.EndOfStream),
	}
}

// resetFlags restores global flag values changed by a test
func resetFlags(t *testing.T) {
	t.Helper()
	t.Cleanup(func() {
		urlFlag, fpsFlag, verboseFlag, logFileFlag = "", 0, false, ""
		outputFlag, fileFlag, copyFlag, rawFlag = "", "", false, false
		transcriptFlag, serveAddrFlag, serveRateFlag = "", "", 0
	})
}
