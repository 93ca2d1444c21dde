package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/diogo/streamchat/internal/api"
	"github.com/diogo/streamchat/internal/config"
	"github.com/diogo/streamchat/internal/logger"
	"github.com/diogo/streamchat/internal/models"
	"github.com/diogo/streamchat/internal/render"
	"github.com/diogo/streamchat/internal/session"
)

// Message types for the TUI
type (
	// eventMsg carries one inbound channel event into Update
	eventMsg struct {
		event api.Event
	}
	// eventsDoneMsg means the channel's event stream has ended
	eventsDoneMsg struct{}
)

// sendTimeout bounds a single outbound write
const sendTimeout = 10 * time.Second

// clipboardWrite is replaced in tests
var clipboardWrite = clipboard.WriteAll

// Options configures the chat screen
type Options struct {
	Channel   api.Channel
	ServerURL string
	FPS       int
	Theme     string
	Markdown  config.MarkdownConfig
	Logger    *logger.Logger
}

// Model represents the TUI state
type Model struct {
	session *session.Session
	events  <-chan api.Event
	frames  *tickFrames
	log     *logger.Logger

	serverURL  string
	markdown   config.MarkdownConfig
	themeStyle string
	cache      *render.MessageCache

	// UI components
	viewport viewport.Model
	textarea textarea.Model
	spinner  spinner.Model

	// State
	ready  bool
	err    error
	notice string

	// Dimensions
	width  int
	height int
}

// NewChatModel creates a chat model over an open channel
func NewChatModel(opts Options) Model {
	theme := ApplyTheme(opts.Theme)

	ta := textarea.New()
	ta.Placeholder = "Type your message here..."
	ta.CharLimit = 4000
	ta.ShowLineNumbers = false
	ta.SetHeight(2)
	ta.Focus()

	ta.FocusedStyle.CursorLine = lipgloss.NewStyle()
	ta.FocusedStyle.Base = lipgloss.NewStyle().Foreground(colorText)
	ta.FocusedStyle.Placeholder = lipgloss.NewStyle().Foreground(colorTextDim)
	ta.BlurredStyle = ta.FocusedStyle

	s := spinner.New()
	s.Spinner = spinner.Points
	s.Style = typingStyle

	frames := newTickFrames(opts.FPS)
	markdown := opts.Markdown
	if markdown.Style == "" {
		markdown = config.DefaultMarkdownConfig()
		markdown.Style = theme.MarkdownStyle
	}

	return Model{
		session:    session.New(opts.Channel, frames, session.WithLogger(opts.Logger)),
		events:     opts.Channel.Events(),
		frames:     frames,
		log:        opts.Logger.With("tui"),
		serverURL:  opts.ServerURL,
		markdown:   markdown,
		themeStyle: theme.MarkdownStyle,
		cache:      render.NewMessageCache(),
		textarea:   ta,
		spinner:    s,
	}
}

// Session returns the conversation behind the screen
func (m Model) Session() *session.Session {
	return m.session
}

// Init initializes the model
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		textarea.Blink,
		m.spinner.Tick,
		waitForEvent(m.events),
	)
}

// waitForEvent blocks on the channel for the next inbound event
func waitForEvent(events <-chan api.Event) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-events
		if !ok {
			return eventsDoneMsg{}
		}
		return eventMsg{event: ev}
	}
}

// Update handles messages and updates the model
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

		headerHeight := 3
		inputHeight := 5
		statusHeight := 2
		padding := 2

		vpHeight := m.height - headerHeight - inputHeight - statusHeight - padding
		if vpHeight < 5 {
			vpHeight = 5
		}
		contentWidth := m.width - 4
		if contentWidth < 20 {
			contentWidth = 20
		}

		if !m.ready {
			m.viewport = viewport.New(contentWidth, vpHeight)
			m.ready = true
		} else {
			m.viewport.Width = contentWidth
			m.viewport.Height = vpHeight
		}
		m.textarea.SetWidth(contentWidth - 4)
		m.refresh()

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			return m, tea.Quit

		case "enter":
			input := strings.TrimSpace(m.textarea.Value())
			if input == "" || m.session.Awaiting() {
				// input stays put until the reply is done
				return m, nil
			}
			if handled, cmd := m.command(input); handled {
				return m, cmd
			}

			m.err = nil
			m.notice = ""
			ctx, cancel := context.WithTimeout(context.Background(), sendTimeout)
			err := m.session.Send(ctx, m.textarea.Value())
			cancel()
			if err != nil {
				m.err = err
			} else {
				m.textarea.Reset()
			}
			m.refresh()
			return m, m.spinner.Tick
		}

	case eventMsg:
		if err := m.session.Handle(msg.event); err != nil {
			m.err = err
		}
		if msg.event.Kind == api.EventEnd || msg.event.Kind == api.EventServerError {
			m.refresh()
		}
		if msg.event.Kind != api.EventClosed {
			cmds = append(cmds, waitForEvent(m.events))
		} else {
			m.refresh()
		}

	case eventsDoneMsg:
		if !m.session.Closed() {
			m.err = m.session.Handle(api.ClosedEvent(nil))
			m.refresh()
		}

	case frameMsg:
		if m.session.Frame(msg.token) {
			m.refresh()
		}

	case spinner.TickMsg:
		if m.session.Awaiting() {
			m.spinner, cmd = m.spinner.Update(msg)
			cmds = append(cmds, cmd)
			if m.session.LiveText() == "" {
				m.refresh()
			}
		}
	}

	cmds = append(cmds, m.frames.take()...)

	// Only pass KeyMsg to textarea to prevent escape sequence leaks
	if !m.session.Awaiting() {
		if _, ok := msg.(tea.KeyMsg); ok {
			m.textarea, cmd = m.textarea.Update(msg)
			cmds = append(cmds, cmd)
		}
	}

	m.viewport, cmd = m.viewport.Update(msg)
	cmds = append(cmds, cmd)

	return m, tea.Batch(cmds...)
}

// command handles exit words and slash commands. Unknown input is left
// for the server.
func (m *Model) command(input string) (bool, tea.Cmd) {
	switch input {
	case "exit", "quit", "/exit", "/quit":
		return true, tea.Quit

	case "/copy":
		m.textarea.Reset()
		m.err = nil
		last, ok := m.session.Log().Last(models.SenderAssistant)
		if !ok {
			m.notice = "nothing to copy yet"
			return true, nil
		}
		if err := clipboardWrite(last.Text); err != nil {
			m.err = fmt.Errorf("copy to clipboard: %w", err)
			return true, nil
		}
		m.notice = "copied last reply to clipboard"
		return true, nil
	}
	return false, nil
}

// renderOptions returns markdown options for the current bubble width
func (m Model) renderOptions() render.Options {
	return render.OptionsFromConfig(m.markdown, m.bubbleWidth()-4)
}

func (m Model) bubbleWidth() int {
	w := m.viewport.Width - 6
	if w < 10 {
		w = 10
	}
	return w
}

// refresh rebuilds the viewport content and scrolls to the bottom
func (m *Model) refresh() {
	if !m.ready {
		return
	}
	m.viewport.SetContent(m.renderConversation())
	m.viewport.GotoBottom()
}

// renderConversation renders the log followed by the in-progress reply
func (m Model) renderConversation() string {
	var content strings.Builder
	width := m.bubbleWidth()
	opts := m.renderOptions()

	for i, msg := range m.session.Log().Snapshot() {
		if i > 0 {
			content.WriteString("\n")
		}
		body := m.cache.Get(i, msg, opts)
		if msg.Sender == models.SenderUser {
			content.WriteString(userLabelStyle.Render(msg.Sender.Label()))
			content.WriteString("\n")
			content.WriteString(userBubbleStyle.Width(width).Render(body))
		} else {
			content.WriteString(assistantLabelStyle.Render(msg.Sender.Label()))
			content.WriteString("\n")
			content.WriteString(assistantBubbleStyle.Width(width).Render(body))
		}
		content.WriteString("\n")
	}

	if m.session.Awaiting() {
		content.WriteString("\n")
		content.WriteString(assistantLabelStyle.Render(models.SenderAssistant.Label()))
		content.WriteString("\n")
		if live := m.session.LiveText(); live != "" {
			content.WriteString(liveBubbleStyle.Width(width).Render(render.Reply(live, opts)))
		} else {
			content.WriteString(m.renderTyping())
		}
		content.WriteString("\n")
	}

	return content.String()
}

// renderTyping renders the indicator shown before the first flush
func (m Model) renderTyping() string {
	return m.spinner.View() + typingStyle.Render(" AI is typing")
}

// View renders the TUI
func (m Model) View() string {
	if !m.ready {
		return typingStyle.Render("  Initializing...")
	}

	var sections []string
	contentWidth := m.width - 4

	header := lipgloss.JoinHorizontal(lipgloss.Center,
		titleStyle.Render("streamchat"),
		hintStyle.Render("  •  "),
		subtitleStyle.Render(m.serverURL),
	)
	sections = append(sections, headerStyle.Width(contentWidth).Render(header))

	var messages string
	if m.session.Log().Len() == 0 && !m.session.Awaiting() {
		messages = m.renderWelcome()
	} else {
		messages = m.viewport.View()
	}
	sections = append(sections, messagesAreaStyle.
		Width(contentWidth).
		Height(m.viewport.Height).
		Render(messages))

	var input string
	if m.session.Awaiting() {
		input = m.renderTyping()
	} else {
		input = lipgloss.JoinVertical(lipgloss.Left,
			inputLabelStyle.Render(models.SenderUser.Label()),
			m.textarea.View(),
		)
	}
	sections = append(sections, inputPanelStyle.Width(contentWidth).Render(input))

	sections = append(sections, m.renderStatusBar(contentWidth))

	if m.err != nil {
		sections = append(sections, FormatError(m.err))
	} else if m.notice != "" {
		sections = append(sections, noticeStyle.Render(m.notice))
	}

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m Model) renderWelcome() string {
	width := m.viewport.Width - 4
	height := m.viewport.Height

	content := lipgloss.JoinVertical(lipgloss.Center,
		welcomeTitleStyle.Width(width).Align(lipgloss.Center).Render("Start a conversation"),
		"",
		welcomeStyle.Width(width).Align(lipgloss.Center).Render("Replies stream in as they are generated"),
	)

	topPadding := (height - lipgloss.Height(content)) / 2
	if topPadding < 0 {
		topPadding = 0
	}
	return strings.Repeat("\n", topPadding) + content
}

func (m Model) renderStatusBar(width int) string {
	shortcuts := []struct {
		key  string
		desc string
	}{
		{"Enter", "Send"},
		{"/copy", "Copy reply"},
		{"Esc", "Quit"},
		{"↑↓", "Scroll"},
	}

	var items []string
	for _, s := range shortcuts {
		items = append(items, statusKeyStyle.Render(s.key)+statusDescStyle.Render(" "+s.desc))
	}

	state := connectedStyle.Render("● connected")
	if m.session.Closed() {
		state = errorStyle.Render("○ disconnected")
	}
	items = append(items, state)

	return statusBarStyle.Width(width).Align(lipgloss.Center).Render(strings.Join(items, "  │  "))
}

// RunChat starts the chat TUI. It returns the conversation once the user
// quits, with the channel closed and any partial reply discarded.
func RunChat(opts Options) (*session.Session, error) {
	m := NewChatModel(opts)

	p := tea.NewProgram(
		m,
		tea.WithAltScreen(),
	)

	final, err := p.Run()
	sess := m.session
	if fm, ok := final.(Model); ok {
		sess = fm.session
	}
	if cerr := sess.Close(); cerr != nil {
		m.log.Debug("close channel: %v", cerr)
	}
	return sess, err
}
