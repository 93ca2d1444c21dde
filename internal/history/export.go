package history

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/diogo/streamchat/internal/models"
)

// ExportFormat represents the format for exporting conversations
type ExportFormat string

const (
	ExportFormatMarkdown ExportFormat = "markdown"
	ExportFormatJSON     ExportFormat = "json"
)

// ExportOptions configures how conversations are exported
type ExportOptions struct {
	Format            ExportFormat
	IncludeTimestamps bool
	Server            string // Server URL recorded in the header
}

// DefaultExportOptions returns sensible defaults for export
func DefaultExportOptions() ExportOptions {
	return ExportOptions{
		Format:            ExportFormatMarkdown,
		IncludeTimestamps: true,
	}
}

// FormatFromPath picks the export format from a file extension
func FormatFromPath(path string) ExportFormat {
	if strings.EqualFold(filepath.Ext(path), ".json") {
		return ExportFormatJSON
	}
	return ExportFormatMarkdown
}

// ExportToMarkdown exports the log to Markdown format
func (l *Log) ExportToMarkdown(opts ExportOptions) string {
	var sb strings.Builder

	sb.WriteString("# ")
	sb.WriteString(l.Title())
	sb.WriteString("\n\n")

	sb.WriteString("**Session:** ")
	sb.WriteString(l.id)
	sb.WriteString("\n")
	if opts.Server != "" {
		sb.WriteString("**Server:** ")
		sb.WriteString(opts.Server)
		sb.WriteString("\n")
	}
	sb.WriteString("**Created:** ")
	sb.WriteString(l.createdAt.Format("2006-01-02 15:04:05"))
	sb.WriteString("\n")
	sb.WriteString(fmt.Sprintf("**Messages:** %d", len(l.messages)))
	sb.WriteString("\n\n---\n\n")

	for i, msg := range l.messages {
		role := "User"
		if msg.Sender == models.SenderAssistant {
			role = "Assistant"
		}

		sb.WriteString("## ")
		sb.WriteString(role)
		if opts.IncludeTimestamps && !msg.Timestamp.IsZero() {
			sb.WriteString(" (")
			sb.WriteString(msg.Timestamp.Format("15:04:05"))
			sb.WriteString(")")
		}
		sb.WriteString("\n\n")

		sb.WriteString(msg.Text)
		sb.WriteString("\n")

		if i < len(l.messages)-1 {
			sb.WriteString("\n---\n\n")
		}
	}

	return sb.String()
}

// ExportToJSON exports the log to JSON format
func (l *Log) ExportToJSON(opts ExportOptions) ([]byte, error) {
	type exportMessage struct {
		Sender    models.Sender `json:"sender"`
		Text      string        `json:"text"`
		Timestamp *time.Time    `json:"timestamp,omitempty"`
	}

	type exportLog struct {
		ID        string          `json:"id"`
		Title     string          `json:"title"`
		Server    string          `json:"server,omitempty"`
		CreatedAt time.Time       `json:"created_at"`
		Messages  []exportMessage `json:"messages"`
	}

	export := exportLog{
		ID:        l.id,
		Title:     l.Title(),
		Server:    opts.Server,
		CreatedAt: l.createdAt,
		Messages:  make([]exportMessage, len(l.messages)),
	}

	for i, msg := range l.messages {
		export.Messages[i] = exportMessage{Sender: msg.Sender, Text: msg.Text}
		if opts.IncludeTimestamps {
			ts := msg.Timestamp
			export.Messages[i].Timestamp = &ts
		}
	}

	return json.MarshalIndent(export, "", "  ")
}

// WriteTranscript writes the log to path in the format implied by its extension
func (l *Log) WriteTranscript(path string, opts ExportOptions) error {
	opts.Format = FormatFromPath(path)

	var data []byte
	switch opts.Format {
	case ExportFormatJSON:
		var err error
		data, err = l.ExportToJSON(opts)
		if err != nil {
			return fmt.Errorf("failed to export transcript: %w", err)
		}
	default:
		data = []byte(l.ExportToMarkdown(opts))
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create transcript directory: %w", err)
		}
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write transcript: %w", err)
	}
	return nil
}
