package render

import (
	"strings"

	"github.com/diogo/streamchat/internal/models"
)

// Markdown renders markdown content for terminal display.
func Markdown(content string, opts Options) (string, error) {
	opts = opts.normalized()
	renderer, err := renderers.acquire(opts)
	if err != nil {
		return "", err
	}
	defer renderers.release(opts, renderer)

	return renderer.Render(content)
}

// Reply renders an assistant reply, falling back to the raw text when the
// markdown cannot be rendered. Partial replies are rendered the same way;
// an unterminated code fence simply renders as an open block.
func Reply(text string, opts Options) string {
	if strings.TrimSpace(text) == "" {
		return text
	}
	out, err := Markdown(text, opts)
	if err != nil {
		return text
	}
	return strings.Trim(out, "\n")
}

// MessageCache holds rendered bubbles for finalized messages. Messages in
// the log never change, so an entry only goes stale when the width or
// style does.
type MessageCache struct {
	opts    Options
	entries map[int]string
}

// NewMessageCache creates an empty cache
func NewMessageCache() *MessageCache {
	return &MessageCache{entries: make(map[int]string)}
}

// Get returns the rendered text of the index-th message, rendering it on a
// miss. User text is returned verbatim.
func (c *MessageCache) Get(index int, msg models.Message, opts Options) string {
	if opts = opts.normalized(); opts != c.opts {
		c.opts = opts
		clear(c.entries)
	}
	if out, ok := c.entries[index]; ok {
		return out
	}

	out := msg.Text
	if msg.Sender == models.SenderAssistant {
		out = Reply(msg.Text, opts)
	}
	c.entries[index] = out
	return out
}

// Len returns the number of cached entries
func (c *MessageCache) Len() int {
	return len(c.entries)
}
