// Package api implements the client side of the streaming chat channel.
package api

import (
	"context"
	"fmt"
	"net/url"
	"sync"
	"time"

	"golang.org/x/net/websocket"

	apierrors "github.com/diogo/streamchat/internal/errors"
	"github.com/diogo/streamchat/internal/logger"
	"github.com/diogo/streamchat/internal/models"
)

// Channel is the ordered, full-duplex connection a session consumes:
// one outbound request per user turn and an ordered stream of inbound
// events that always ends with EventClosed.
type Channel interface {
	Send(ctx context.Context, text string) error
	Events() <-chan Event
	Close() error
}

// Client is a Channel over a WebSocket connection
type Client struct {
	url        string
	origin     string
	bufferSize int
	log        *logger.Logger

	conn   *websocket.Conn
	events chan Event

	sendMu    sync.Mutex
	closeOnce sync.Once
	closed    chan struct{}
}

// Ensure Client implements Channel
var _ Channel = (*Client)(nil)

// ClientOption is a function that configures the client
type ClientOption func(*Client)

// WithOrigin sets the Origin header sent during the handshake
func WithOrigin(origin string) ClientOption {
	return func(c *Client) {
		c.origin = origin
	}
}

// WithEventBuffer sets how many inbound events may queue before the reader
// waits for the consumer
func WithEventBuffer(size int) ClientOption {
	return func(c *Client) {
		if size >= 0 {
			c.bufferSize = size
		}
	}
}

// WithLogger sets the diagnostic logger
func WithLogger(l *logger.Logger) ClientOption {
	return func(c *Client) {
		c.log = l.With("channel")
	}
}

// NewClient creates a client for a ws:// or wss:// URL. No connection is made
// until Connect.
func NewClient(serverURL string, opts ...ClientOption) (*Client, error) {
	if err := ValidateURL(serverURL); err != nil {
		return nil, err
	}

	client := &Client{
		url:        serverURL,
		origin:     models.DefaultOrigin,
		bufferSize: 256,
		closed:     make(chan struct{}),
	}

	for _, opt := range opts {
		opt(client)
	}

	return client, nil
}

// Dial creates a client and connects it
func Dial(ctx context.Context, serverURL string, opts ...ClientOption) (*Client, error) {
	client, err := NewClient(serverURL, opts...)
	if err != nil {
		return nil, err
	}
	if err := client.Connect(ctx); err != nil {
		return nil, err
	}
	return client, nil
}

// ValidateURL checks that serverURL is an absolute WebSocket URL
func ValidateURL(serverURL string) error {
	u, err := url.Parse(serverURL)
	if err != nil {
		return fmt.Errorf("invalid server URL: %w", err)
	}
	if u.Scheme != "ws" && u.Scheme != "wss" {
		return fmt.Errorf("invalid server URL %q: scheme must be ws or wss", serverURL)
	}
	if u.Host == "" {
		return fmt.Errorf("invalid server URL %q: missing host", serverURL)
	}
	return nil
}

// Connect performs the WebSocket handshake and starts delivering events
func (c *Client) Connect(ctx context.Context) error {
	if c.conn != nil {
		return fmt.Errorf("client already connected")
	}

	cfg, err := websocket.NewConfig(c.url, c.origin)
	if err != nil {
		return fmt.Errorf("failed to configure connection: %w", err)
	}

	conn, err := cfg.DialContext(ctx)
	if err != nil {
		return fmt.Errorf("failed to connect to %s: %w", c.url, err)
	}

	c.conn = conn
	c.events = make(chan Event, c.bufferSize)
	c.log.Info("connected to %s", c.url)

	go c.readLoop()
	return nil
}

// URL returns the server URL
func (c *Client) URL() string {
	return c.url
}

// Send transmits one user utterance as {"message": text}
func (c *Client) Send(ctx context.Context, text string) error {
	if c.conn == nil {
		return fmt.Errorf("client not connected")
	}
	if c.isClosed() {
		return apierrors.NewChannelClosedError(nil)
	}

	c.sendMu.Lock()
	defer c.sendMu.Unlock()

	if deadline, ok := ctx.Deadline(); ok {
		_ = c.conn.SetWriteDeadline(deadline)
		defer func() { _ = c.conn.SetWriteDeadline(time.Time{}) }()
	}

	if err := websocket.JSON.Send(c.conn, models.Payload{Message: text}); err != nil {
		return apierrors.NewChannelClosedError(err)
	}
	c.log.Debug("sent request (%d bytes)", len(text))
	return nil
}

// Events returns the inbound event stream. It is nil before Connect.
func (c *Client) Events() <-chan Event {
	return c.events
}

// Close shuts the connection down. It is safe to call more than once.
func (c *Client) Close() error {
	var err error
	c.closeOnce.Do(func() {
		close(c.closed)
		if c.conn != nil {
			err = c.conn.Close()
		}
		c.log.Debug("connection closed locally")
	})
	return err
}

func (c *Client) isClosed() bool {
	select {
	case <-c.closed:
		return true
	default:
		return false
	}
}

// readLoop turns frames into events until the connection ends
func (c *Client) readLoop() {
	defer close(c.events)

	for {
		var raw string
		if err := websocket.Message.Receive(c.conn, &raw); err != nil {
			if c.isClosed() {
				err = nil
			} else {
				c.log.Warn("connection lost: %v", err)
			}
			c.deliver(ClosedEvent(err))
			return
		}

		ev := ParseInbound(raw)
		if ev.Kind == EventMalformed {
			c.log.Debug("malformed frame: %v", ev.Err)
		}
		if !c.deliver(ev) {
			return
		}
	}
}

// deliver hands ev to the consumer; false once the client has been closed
// locally and nobody is expected to read anymore.
func (c *Client) deliver(ev Event) bool {
	if ev.Kind == EventClosed {
		// The final event must not be lost to a full buffer while the
		// consumer is still reading, but must not block after Close.
		select {
		case c.events <- ev:
		case <-c.closed:
		}
		return false
	}
	select {
	case c.events <- ev:
		return true
	case <-c.closed:
		return false
	}
}
