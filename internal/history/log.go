// Package history holds the ordered record of finalized chat messages.
package history

import (
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/diogo/streamchat/internal/models"
)

// Log is an append-only, in-memory conversation log. Insertion order is the
// order in which messages were finalized. It is owned by a single session
// loop and is not safe for concurrent use.
type Log struct {
	id        string
	createdAt time.Time
	messages  []models.Message
}

// NewLog creates an empty log with a fresh identifier
func NewLog() *Log {
	return &Log{
		id:        uuid.NewString(),
		createdAt: time.Now(),
		messages:  []models.Message{},
	}
}

// ID returns the log identifier
func (l *Log) ID() string {
	return l.id
}

// CreatedAt returns when the log was created
func (l *Log) CreatedAt() time.Time {
	return l.createdAt
}

// Append adds a message to the end of the log
func (l *Log) Append(msg models.Message) {
	l.messages = append(l.messages, msg)
}

// Snapshot returns a copy of the messages in order
func (l *Log) Snapshot() []models.Message {
	out := make([]models.Message, len(l.messages))
	copy(out, l.messages)
	return out
}

// Len returns the number of messages
func (l *Log) Len() int {
	return len(l.messages)
}

// At returns the message at index i
func (l *Log) At(i int) models.Message {
	return l.messages[i]
}

// Last returns the most recent message from sender
func (l *Log) Last(sender models.Sender) (models.Message, bool) {
	for i := len(l.messages) - 1; i >= 0; i-- {
		if l.messages[i].Sender == sender {
			return l.messages[i], true
		}
	}
	return models.Message{}, false
}

// Count returns how many messages sender has in the log
func (l *Log) Count(sender models.Sender) int {
	n := 0
	for _, msg := range l.messages {
		if msg.Sender == sender {
			n++
		}
	}
	return n
}

// maxTitleRunes bounds titles derived from the first user message
const maxTitleRunes = 50

// Title derives a title from the first user message
func (l *Log) Title() string {
	for _, msg := range l.messages {
		if msg.Sender != models.SenderUser {
			continue
		}
		title := msg.Text
		if utf8.RuneCountInString(title) > maxTitleRunes {
			title = string([]rune(title)[:maxTitleRunes]) + "..."
		}
		return title
	}
	return fmt.Sprintf("Chat %s", l.createdAt.Format("2006-01-02 15:04"))
}
