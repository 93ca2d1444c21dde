// Package tui provides the interactive chat screen for streamchat.
package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/diogo/streamchat/internal/errors"
	"github.com/diogo/streamchat/internal/render"
)

// Color variables (updated from theme)
var (
	colorBorder    lipgloss.Color
	colorUser      lipgloss.Color
	colorAssistant lipgloss.Color
	colorAccent    lipgloss.Color
	colorWarning   lipgloss.Color
	colorError     lipgloss.Color
	colorText      lipgloss.Color
	colorTextDim   lipgloss.Color
)

// Style variables (rebuilt when theme changes)
var (
	headerStyle   lipgloss.Style
	titleStyle    lipgloss.Style
	subtitleStyle lipgloss.Style
	hintStyle     lipgloss.Style

	messagesAreaStyle lipgloss.Style

	userBubbleStyle      lipgloss.Style
	userLabelStyle       lipgloss.Style
	assistantBubbleStyle lipgloss.Style
	assistantLabelStyle  lipgloss.Style
	// streaming reply, not yet in the log
	liveBubbleStyle lipgloss.Style

	inputPanelStyle lipgloss.Style
	inputLabelStyle lipgloss.Style
	typingStyle     lipgloss.Style

	statusBarStyle  lipgloss.Style
	statusKeyStyle  lipgloss.Style
	statusDescStyle lipgloss.Style
	connectedStyle  lipgloss.Style

	errorStyle   lipgloss.Style
	warningStyle lipgloss.Style
	noticeStyle  lipgloss.Style

	welcomeTitleStyle lipgloss.Style
	welcomeStyle      lipgloss.Style
)

func init() {
	ApplyTheme(render.DefaultTUITheme)
}

// ApplyTheme rebuilds all styles from the named theme. Unknown names fall
// back to the default theme. Returns the theme that was applied.
func ApplyTheme(name string) render.TUITheme {
	theme := render.ResolveTUITheme(name)

	colorBorder = theme.Border
	colorUser = theme.User
	colorAssistant = theme.Assistant
	colorAccent = theme.Accent
	colorWarning = theme.Warning
	colorError = theme.Error
	colorText = theme.Text
	colorTextDim = theme.TextDim

	rebuildStyles()
	return theme
}

func rebuildStyles() {
	headerStyle = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(colorBorder).
		Padding(0, 2)

	titleStyle = lipgloss.NewStyle().
		Foreground(colorAccent).
		Bold(true)

	subtitleStyle = lipgloss.NewStyle().
		Foreground(colorTextDim)

	hintStyle = lipgloss.NewStyle().
		Foreground(colorTextDim).
		Italic(true)

	messagesAreaStyle = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(colorBorder).
		Padding(0, 1)

	userBubbleStyle = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(colorUser).
		Foreground(colorText).
		Padding(0, 1).
		MarginLeft(4)

	userLabelStyle = lipgloss.NewStyle().
		Foreground(colorUser).
		Bold(true).
		MarginLeft(4)

	assistantBubbleStyle = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(colorAssistant).
		Foreground(colorText).
		Padding(0, 1).
		MarginRight(4)

	assistantLabelStyle = lipgloss.NewStyle().
		Foreground(colorAssistant).
		Bold(true)

	liveBubbleStyle = assistantBubbleStyle.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(colorTextDim)

	inputPanelStyle = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(colorBorder).
		Padding(0, 1)

	inputLabelStyle = lipgloss.NewStyle().
		Foreground(colorUser).
		Bold(true)

	typingStyle = lipgloss.NewStyle().
		Foreground(colorAccent).
		Italic(true)

	statusBarStyle = lipgloss.NewStyle().
		Foreground(colorTextDim)

	statusKeyStyle = lipgloss.NewStyle().
		Foreground(colorText).
		Bold(true)

	statusDescStyle = lipgloss.NewStyle().
		Foreground(colorTextDim)

	connectedStyle = lipgloss.NewStyle().
		Foreground(colorAssistant)

	errorStyle = lipgloss.NewStyle().
		Foreground(colorError).
		Bold(true)

	warningStyle = lipgloss.NewStyle().
		Foreground(colorWarning)

	noticeStyle = lipgloss.NewStyle().
		Foreground(colorTextDim).
		Italic(true)

	welcomeTitleStyle = lipgloss.NewStyle().
		Foreground(colorAccent).
		Bold(true)

	welcomeStyle = lipgloss.NewStyle().
		Foreground(colorTextDim)
}

// FormatError returns a styled diagnostic line. Protocol noise (malformed
// frames, stray fragments) is shown as a warning; the rest as an error with
// a hint where one helps.
func FormatError(err error) string {
	if err == nil {
		return ""
	}

	dimStyle := lipgloss.NewStyle().Foreground(colorTextDim)

	var sb strings.Builder
	switch {
	case errors.IsMalformedFragment(err), errors.IsProtocolViolation(err):
		sb.WriteString(warningStyle.Render(fmt.Sprintf("! %v", err)))
	default:
		sb.WriteString(errorStyle.Render(fmt.Sprintf("✗ %v", err)))
	}

	switch {
	case errors.IsChannelClosed(err):
		sb.WriteString(dimStyle.Render("\n  Hint: the server went away; restart the chat to reconnect"))
	case errors.IsServerError(err):
		sb.WriteString(dimStyle.Render("\n  Hint: the reply was abandoned; you can send again"))
	}

	return sb.String()
}
