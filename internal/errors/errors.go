// Package errors provides custom error types for the streaming chat client.
package errors

import (
	"errors"
	"fmt"
	"unicode/utf8"
)

// Sentinel errors for common cases
var (
	ErrMalformedFragment = errors.New("malformed fragment")
	ErrProtocolViolation = errors.New("protocol violation")
	ErrChannelClosed     = errors.New("channel closed")
	ErrServerError       = errors.New("server error")
	ErrResponsePending   = errors.New("a response is still streaming")
	ErrEmptyMessage      = errors.New("message cannot be empty")
)

// MalformedFragmentError represents an inbound frame that could not be decoded
type MalformedFragmentError struct {
	Raw    string
	Reason string
}

func (e *MalformedFragmentError) Error() string {
	if e.Reason == "" {
		return "malformed fragment"
	}
	return fmt.Sprintf("malformed fragment: %s", e.Reason)
}

// Is allows comparison with sentinel errors
func (e *MalformedFragmentError) Is(target error) bool {
	if target == ErrMalformedFragment {
		return true
	}
	_, ok := target.(*MalformedFragmentError)
	return ok
}

// maxRawBytes bounds the frame excerpt kept in a MalformedFragmentError
const maxRawBytes = 256

// NewMalformedFragmentError creates a new MalformedFragmentError.
// The raw frame is truncated on a rune boundary so diagnostics stay readable.
func NewMalformedFragmentError(raw, reason string) *MalformedFragmentError {
	if len(raw) > maxRawBytes {
		cut := maxRawBytes
		for cut > 0 && !utf8.RuneStart(raw[cut]) {
			cut--
		}
		raw = raw[:cut] + "..."
	}
	return &MalformedFragmentError{Raw: raw, Reason: reason}
}

// ProtocolViolationError represents an event that is invalid for the current
// stream state, e.g. a fragment with no outstanding request
type ProtocolViolationError struct {
	Op     string
	Reason string
}

func (e *ProtocolViolationError) Error() string {
	return fmt.Sprintf("protocol violation in %s: %s", e.Op, e.Reason)
}

// Is allows comparison with sentinel errors
func (e *ProtocolViolationError) Is(target error) bool {
	if target == ErrProtocolViolation {
		return true
	}
	_, ok := target.(*ProtocolViolationError)
	return ok
}

// NewProtocolViolationError creates a new ProtocolViolationError
func NewProtocolViolationError(op, reason string) *ProtocolViolationError {
	return &ProtocolViolationError{Op: op, Reason: reason}
}

// ChannelClosedError represents a lost or closed connection
type ChannelClosedError struct {
	Cause error
}

func (e *ChannelClosedError) Error() string {
	if e.Cause == nil {
		return "channel closed"
	}
	return fmt.Sprintf("channel closed: %v", e.Cause)
}

// Unwrap returns the underlying transport error
func (e *ChannelClosedError) Unwrap() error {
	return e.Cause
}

// Is allows comparison with sentinel errors
func (e *ChannelClosedError) Is(target error) bool {
	if target == ErrChannelClosed {
		return true
	}
	_, ok := target.(*ChannelClosedError)
	return ok
}

// NewChannelClosedError creates a new ChannelClosedError
func NewChannelClosedError(cause error) *ChannelClosedError {
	return &ChannelClosedError{Cause: cause}
}

// ServerError represents an {"error": ...} frame sent by the backend
type ServerError struct {
	Message string
}

func (e *ServerError) Error() string {
	if e.Message == "" {
		return "server error"
	}
	return fmt.Sprintf("server error: %s", e.Message)
}

// Is allows comparison with sentinel errors
func (e *ServerError) Is(target error) bool {
	if target == ErrServerError {
		return true
	}
	_, ok := target.(*ServerError)
	return ok
}

// NewServerError creates a new ServerError
func NewServerError(message string) *ServerError {
	return &ServerError{Message: message}
}

// IsMalformedFragment checks if err is a MalformedFragmentError
func IsMalformedFragment(err error) bool {
	return errors.Is(err, ErrMalformedFragment)
}

// IsProtocolViolation checks if err is a ProtocolViolationError
func IsProtocolViolation(err error) bool {
	return errors.Is(err, ErrProtocolViolation)
}

// IsChannelClosed checks if err is a ChannelClosedError
func IsChannelClosed(err error) bool {
	return errors.Is(err, ErrChannelClosed)
}

// IsServerError checks if err is a ServerError
func IsServerError(err error) bool {
	return errors.Is(err, ErrServerError)
}
