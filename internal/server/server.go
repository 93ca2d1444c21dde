// Package server is a local demo backend speaking the streamchat protocol:
// one JSON request per utterance, the reply as {"message": fragment}
// frames, then the end marker.
package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/tidwall/gjson"
	"golang.org/x/net/websocket"
	"golang.org/x/time/rate"

	"github.com/diogo/streamchat/internal/logger"
	"github.com/diogo/streamchat/internal/models"
)

// Error texts sent to clients
const (
	errInvalidJSON    = "Invalid JSON"
	errMissingMessage = "Missing message"
	errInternal       = "Internal server error"
)

// Server streams replies over WebSocket connections
type Server struct {
	responder Responder
	tokenRate float64
	log       *logger.Logger
}

// Option configures a Server
type Option func(*Server)

// WithResponder sets the reply generator (default EchoResponder)
func WithResponder(r Responder) Option {
	return func(s *Server) {
		if r != nil {
			s.responder = r
		}
	}
}

// WithTokenRate limits each connection to perSecond fragments per second.
// Zero or less means unlimited.
func WithTokenRate(perSecond float64) Option {
	return func(s *Server) {
		s.tokenRate = perSecond
	}
}

// WithLogger sets the server logger
func WithLogger(l *logger.Logger) Option {
	return func(s *Server) {
		s.log = l.With("server")
	}
}

// New creates a server
func New(opts ...Option) *Server {
	s := &Server{
		responder: EchoResponder{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler returns the HTTP handler serving the chat endpoint
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle(models.ChatPath, websocket.Server{Handler: s.handleConn})
	return mux
}

// ListenAndServe serves on addr until ctx is cancelled. ready, if non-nil,
// receives the bound address once the listener is open.
func (s *Server) ListenAndServe(ctx context.Context, addr string, ready func(net.Addr)) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()

	s.log.Info("listening on %s", ln.Addr())
	if ready != nil {
		ready(ln.Addr())
	}

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		// hijacked websocket connections are not tracked by Shutdown
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

func (s *Server) newLimiter() *rate.Limiter {
	if s.tokenRate <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	return rate.NewLimiter(rate.Limit(s.tokenRate), 1)
}

// handleConn serves one client until it disconnects. Requests on a
// connection are answered strictly in order.
func (s *Server) handleConn(ws *websocket.Conn) {
	ctx := ws.Request().Context()
	remote := ws.Request().RemoteAddr
	limiter := s.newLimiter()
	s.log.Info("client connected: %s", remote)

	for {
		var raw string
		if err := websocket.Message.Receive(ws, &raw); err != nil {
			if errors.Is(err, io.EOF) {
				s.log.Info("client disconnected: %s", remote)
			} else {
				s.log.Warn("receive from %s: %v", remote, err)
			}
			return
		}

		if err := s.handleMessage(ctx, ws, limiter, raw); err != nil {
			s.log.Warn("send to %s: %v", remote, err)
			return
		}
	}
}

// handleMessage answers one request. The returned error is a transport
// failure; protocol problems are reported to the client instead.
func (s *Server) handleMessage(ctx context.Context, ws *websocket.Conn, limiter *rate.Limiter, raw string) error {
	if !gjson.Valid(raw) {
		s.log.Error("failed to decode JSON message")
		return sendError(ws, errInvalidJSON)
	}
	msg := gjson.Get(raw, "message")
	if msg.Type != gjson.String {
		s.log.Error("request without a message field")
		return sendError(ws, errMissingMessage)
	}

	start := time.Now()
	fragments := 0
	emit := func(fragment string) error {
		if err := limiter.Wait(ctx); err != nil {
			return err
		}
		fragments++
		return websocket.JSON.Send(ws, models.Payload{Message: fragment})
	}

	if err := s.responder.Respond(ctx, msg.String(), emit); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		s.log.Error("generation failed: %v", err)
		return sendError(ws, errInternal)
	}

	s.log.Debug("reply sent: %d fragments in %s", fragments, time.Since(start).Round(time.Millisecond))
	return websocket.JSON.Send(ws, models.Payload{Message: models.EndOfStream})
}

func sendError(ws *websocket.Conn, text string) error {
	return websocket.JSON.Send(ws, models.ErrorPayload{Error: text})
}
