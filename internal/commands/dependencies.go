package commands

import (
	"context"

	"github.com/diogo/streamchat/internal/api"
	"github.com/diogo/streamchat/internal/logger"
	"github.com/diogo/streamchat/internal/session"
	"github.com/diogo/streamchat/internal/tui"
)

// Dependencies holds the external dependencies for the commands.
// This allows for dependency injection and easier testing.
type Dependencies struct {
	// Dial opens a fragment channel to the chat server.
	Dial func(ctx context.Context, url string, log *logger.Logger) (api.Channel, error)

	// RunChat runs the interactive screen until the user quits.
	RunChat func(opts tui.Options) (*session.Session, error)
}

// NewDependencies creates a new Dependencies struct with default implementations.
func NewDependencies() *Dependencies {
	return &Dependencies{
		Dial: func(ctx context.Context, url string, log *logger.Logger) (api.Channel, error) {
			return api.Dial(ctx, url, api.WithLogger(log))
		},
		RunChat: tui.RunChat,
	}
}

var deps = NewDependencies()
