package api

import (
	"github.com/tidwall/gjson"

	apierrors "github.com/diogo/streamchat/internal/errors"
	"github.com/diogo/streamchat/internal/models"
)

// EventKind classifies an inbound channel event
type EventKind int

const (
	// EventFragment carries a piece of response text
	EventFragment EventKind = iota
	// EventEnd marks the end of the current response
	EventEnd
	// EventMalformed is a frame that could not be decoded
	EventMalformed
	// EventServerError is an {"error": ...} frame from the backend
	EventServerError
	// EventClosed is the last event of every channel
	EventClosed
)

// String returns a short name for logs
func (k EventKind) String() string {
	switch k {
	case EventFragment:
		return "fragment"
	case EventEnd:
		return "end"
	case EventMalformed:
		return "malformed"
	case EventServerError:
		return "server-error"
	case EventClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Event is one inbound occurrence on a FragmentChannel
type Event struct {
	Kind EventKind
	Text string // fragment text for EventFragment
	Err  error  // set for EventMalformed, EventServerError and EventClosed
}

// FragmentEvent builds a fragment event
func FragmentEvent(text string) Event {
	return Event{Kind: EventFragment, Text: text}
}

// EndEvent builds an end-of-stream event
func EndEvent() Event {
	return Event{Kind: EventEnd}
}

// ClosedEvent builds a closure event
func ClosedEvent(cause error) Event {
	return Event{Kind: EventClosed, Err: apierrors.NewChannelClosedError(cause)}
}

// ParseInbound decodes one raw text frame. Only {"message": <string>} is
// valid; the end marker is recognised by exact comparison. {"error": ...}
// frames become server errors and everything else is malformed.
func ParseInbound(raw string) Event {
	if !gjson.Valid(raw) {
		return Event{Kind: EventMalformed, Err: apierrors.NewMalformedFragmentError(raw, "invalid JSON")}
	}

	root := gjson.Parse(raw)
	if !root.IsObject() {
		return Event{Kind: EventMalformed, Err: apierrors.NewMalformedFragmentError(raw, "expected a JSON object")}
	}

	if msg := root.Get("message"); msg.Exists() {
		if msg.Type != gjson.String {
			return Event{Kind: EventMalformed, Err: apierrors.NewMalformedFragmentError(raw, "message is not a string")}
		}
		if models.IsEndOfStream(msg.Str) {
			return EndEvent()
		}
		return FragmentEvent(msg.Str)
	}

	if e := root.Get("error"); e.Exists() {
		return Event{Kind: EventServerError, Err: apierrors.NewServerError(e.String())}
	}

	return Event{Kind: EventMalformed, Err: apierrors.NewMalformedFragmentError(raw, "missing message field")}
}
