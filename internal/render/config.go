package render

import (
	"os"

	"github.com/diogo/streamchat/internal/config"
)

// EnvStyle overrides the configured markdown style
const EnvStyle = "GLAMOUR_STYLE"

// OptionsFromConfig builds render options from the user's markdown settings.
// GLAMOUR_STYLE takes precedence over the config file.
func OptionsFromConfig(md config.MarkdownConfig, width int) Options {
	opts := DefaultOptions().WithWidth(width)
	if md.Style != "" {
		opts.Style = md.Style
	}
	opts.EnableEmoji = md.EnableEmoji
	opts.PreserveNewLines = md.PreserveNewLines
	opts.TableWrap = md.TableWrap
	opts.InlineTableLinks = md.InlineTableLinks

	if style := os.Getenv(EnvStyle); style != "" {
		opts.Style = style
	}
	return opts
}
