package models

import (
	"encoding/json"
	"fmt"
	"time"
)

// Sender identifies who produced a message
type Sender int

const (
	SenderUser Sender = iota
	SenderAssistant
)

// String returns the wire/JSON name of the sender
func (s Sender) String() string {
	switch s {
	case SenderUser:
		return "user"
	case SenderAssistant:
		return "assistant"
	default:
		return fmt.Sprintf("sender(%d)", int(s))
	}
}

// Label returns the display label used in chat bubbles
func (s Sender) Label() string {
	if s == SenderUser {
		return "You"
	}
	return "AI"
}

// MarshalJSON encodes the sender as its name
func (s Sender) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// UnmarshalJSON decodes a sender name
func (s *Sender) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return err
	}
	parsed, err := ParseSender(name)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// ParseSender converts a sender name to a Sender.
// "bot" is accepted as an alias for the assistant.
func ParseSender(name string) (Sender, error) {
	switch name {
	case "user":
		return SenderUser, nil
	case "assistant", "bot":
		return SenderAssistant, nil
	default:
		return 0, fmt.Errorf("unknown sender: %q", name)
	}
}

// Message is a finalized chat message. Values are never modified after
// they are appended to a conversation log.
type Message struct {
	Sender    Sender    `json:"sender"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

// NewUserMessage creates a user message stamped with the current time
func NewUserMessage(text string) Message {
	return Message{Sender: SenderUser, Text: text, Timestamp: time.Now()}
}

// NewAssistantMessage creates an assistant message stamped with the current time
func NewAssistantMessage(text string) Message {
	return Message{Sender: SenderAssistant, Text: text, Timestamp: time.Now()}
}
