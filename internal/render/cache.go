package render

import (
	"sync"

	"github.com/charmbracelet/glamour"
)

// Limits for the shared renderer cache. Every terminal resize yields a new
// width, so only the most recently used option sets keep renderers around.
const (
	maxOptionSets = 8
	maxIdlePerSet = 4
)

// rendererCache hands out glamour renderers by option set. A TermRenderer
// holds per-render state, so each one is used by a single caller between
// acquire and release.
type rendererCache struct {
	mu    sync.Mutex
	idle  map[Options][]*glamour.TermRenderer
	order []Options // least recently used first
}

var renderers = newRendererCache()

func newRendererCache() *rendererCache {
	return &rendererCache{idle: make(map[Options][]*glamour.TermRenderer)}
}

func (c *rendererCache) acquire(opts Options) (*glamour.TermRenderer, error) {
	c.mu.Lock()
	c.touch(opts)
	if list := c.idle[opts]; len(list) > 0 {
		r := list[len(list)-1]
		c.idle[opts] = list[:len(list)-1]
		c.mu.Unlock()
		return r, nil
	}
	c.mu.Unlock()

	return newRenderer(opts)
}

func (c *rendererCache) release(opts Options, r *glamour.TermRenderer) {
	if r == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.touch(opts)
	if len(c.idle[opts]) < maxIdlePerSet {
		c.idle[opts] = append(c.idle[opts], r)
	}
}

// touch marks opts as most recently used and evicts the oldest option set
// once the limit is exceeded. Callers hold c.mu.
func (c *rendererCache) touch(opts Options) {
	for i, o := range c.order {
		if o == opts {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
	c.order = append(c.order, opts)
	if _, ok := c.idle[opts]; !ok {
		c.idle[opts] = nil
	}

	for len(c.order) > maxOptionSets {
		oldest := c.order[0]
		c.order = c.order[1:]
		delete(c.idle, oldest)
	}
}

func (c *rendererCache) reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.idle = make(map[Options][]*glamour.TermRenderer)
	c.order = nil
}

func (c *rendererCache) size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.order)
}

func newRenderer(opts Options) (*glamour.TermRenderer, error) {
	rendererOpts := []glamour.TermRendererOption{
		glamour.WithStylePath(opts.Style),
		glamour.WithWordWrap(opts.Width),
		glamour.WithTableWrap(opts.TableWrap),
		glamour.WithInlineTableLinks(opts.InlineTableLinks),
	}
	if opts.EnableEmoji {
		rendererOpts = append(rendererOpts, glamour.WithEmoji())
	}
	if opts.PreserveNewLines {
		rendererOpts = append(rendererOpts, glamour.WithPreservedNewLines())
	}
	return glamour.NewTermRenderer(rendererOpts...)
}

// ClearCache drops every cached renderer.
func ClearCache() {
	renderers.reset()
}

// CacheSize returns the number of option sets currently tracked.
func CacheSize() int {
	return renderers.size()
}
