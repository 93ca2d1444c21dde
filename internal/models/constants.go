// Package models contains data types and wire constants for the streaming chat protocol.
package models

// Protocol constants shared by the client and the demo server
const (
	// EndOfStream is the literal fragment that ends the current response.
	// Any reply that contains exactly this text is indistinguishable from
	// the marker; the wire format has no separate message type field.
	EndOfStream = "[END]"

	// ChatPath is the WebSocket endpoint path served by the chat backend
	ChatPath = "/ws/chat"

	// DefaultServerURL is used when neither flags nor config name a server
	DefaultServerURL = "ws://localhost:8000" + ChatPath

	// DefaultOrigin is sent in the WebSocket handshake
	DefaultOrigin = "http://localhost/"
)

// Payload is the only frame shape on the wire, in both directions:
// {"message": "<text>"}
type Payload struct {
	Message string `json:"message"`
}

// ErrorPayload is sent by the server when it cannot process a request
type ErrorPayload struct {
	Error string `json:"error"`
}

// IsEndOfStream reports whether a decoded fragment is the end marker
func IsEndOfStream(text string) bool {
	return text == EndOfStream
}
