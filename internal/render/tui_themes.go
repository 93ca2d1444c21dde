package render

import (
	"sort"

	"github.com/charmbracelet/lipgloss"
)

// TUITheme is the color scheme of the chat screen
type TUITheme struct {
	Name        string
	Description string

	// MarkdownStyle is the glamour style that matches the palette
	MarkdownStyle string

	Border  lipgloss.Color
	Surface lipgloss.Color

	// User is the color of the "You" label and bubble border
	User lipgloss.Color
	// Assistant is the color of the "AI" label and bubble border
	Assistant lipgloss.Color
	Accent    lipgloss.Color
	Warning   lipgloss.Color
	Error     lipgloss.Color

	Text    lipgloss.Color
	TextDim lipgloss.Color
}

var tuiThemes = map[string]TUITheme{
	"tokyonight": {
		Name:          "tokyonight",
		Description:   "Tokyo Night - dark with blue accents",
		MarkdownStyle: StyleTokyoNight,
		Border:        lipgloss.Color("#414868"),
		Surface:       lipgloss.Color("#24283b"),
		User:          lipgloss.Color("#7aa2f7"),
		Assistant:     lipgloss.Color("#9ece6a"),
		Accent:        lipgloss.Color("#bb9af7"),
		Warning:       lipgloss.Color("#e0af68"),
		Error:         lipgloss.Color("#f7768e"),
		Text:          lipgloss.Color("#c0caf5"),
		TextDim:       lipgloss.Color("#565f89"),
	},
	"dracula": {
		Name:          "dracula",
		Description:   "Dracula - dark with vivid accents",
		MarkdownStyle: StyleDracula,
		Border:        lipgloss.Color("#6272a4"),
		Surface:       lipgloss.Color("#44475a"),
		User:          lipgloss.Color("#8be9fd"),
		Assistant:     lipgloss.Color("#50fa7b"),
		Accent:        lipgloss.Color("#ff79c6"),
		Warning:       lipgloss.Color("#f1fa8c"),
		Error:         lipgloss.Color("#ff5555"),
		Text:          lipgloss.Color("#f8f8f2"),
		TextDim:       lipgloss.Color("#6272a4"),
	},
	"light": {
		Name:          "light",
		Description:   "Light - for bright terminals",
		MarkdownStyle: StyleLight,
		Border:        lipgloss.Color("#c8c8c8"),
		Surface:       lipgloss.Color("#f0f0f0"),
		User:          lipgloss.Color("#1e66f5"),
		Assistant:     lipgloss.Color("#40a02b"),
		Accent:        lipgloss.Color("#8839ef"),
		Warning:       lipgloss.Color("#df8e1d"),
		Error:         lipgloss.Color("#d20f39"),
		Text:          lipgloss.Color("#4c4f69"),
		TextDim:       lipgloss.Color("#8c8fa1"),
	},
}

// DefaultTUITheme is used when the configured theme is unknown
const DefaultTUITheme = "tokyonight"

// GetTUIThemeByName returns a TUI theme by its name
func GetTUIThemeByName(name string) (TUITheme, bool) {
	theme, ok := tuiThemes[name]
	return theme, ok
}

// ResolveTUITheme returns the named theme or the default one
func ResolveTUITheme(name string) TUITheme {
	if theme, ok := tuiThemes[name]; ok {
		return theme
	}
	return tuiThemes[DefaultTUITheme]
}

// TUIThemeNames returns the theme names in sorted order
func TUIThemeNames() []string {
	names := make([]string, 0, len(tuiThemes))
	for name := range tuiThemes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
