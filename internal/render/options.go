// Package render turns assistant replies into styled terminal output.
package render

// MinWidth is the narrowest wrap width handed to glamour. The chat
// viewport can report smaller widths before the first resize.
const MinWidth = 20

// Options is one renderer configuration. It is comparable and used
// directly as a cache key, so it only holds plain values.
type Options struct {
	// Width is the wrap column, usually the bubble width
	Width int

	// Style is a glamour style name ("tokyo-night", "dark", ...) or the
	// path to a JSON style file
	Style string

	EnableEmoji      bool
	PreserveNewLines bool
	TableWrap        bool
	InlineTableLinks bool
}

// DefaultOptions returns the settings used when the config has none.
func DefaultOptions() Options {
	return Options{
		Width:            80,
		Style:            StyleTokyoNight,
		EnableEmoji:      true,
		PreserveNewLines: true,
		TableWrap:        true,
	}
}

// WithWidth returns a copy wrapping at width.
func (o Options) WithWidth(width int) Options {
	o.Width = width
	return o
}

// WithStyle returns a copy using style.
func (o Options) WithStyle(style string) Options {
	o.Style = style
	return o
}

func (o Options) normalized() Options {
	if o.Width < MinWidth {
		o.Width = MinWidth
	}
	if o.Style == "" {
		o.Style = StyleTokyoNight
	}
	return o
}
