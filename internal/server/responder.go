package server

import (
	"context"
	"fmt"
	"strings"
	"unicode"
)

// Responder produces the reply to one prompt. Each call to emit sends one
// fragment to the client; a non-nil error from emit means the client is
// gone and generation should stop.
type Responder interface {
	Respond(ctx context.Context, prompt string, emit func(fragment string) error) error
}

// ResponderFunc adapts a function to the Responder interface
type ResponderFunc func(ctx context.Context, prompt string, emit func(fragment string) error) error

// Respond calls f
func (f ResponderFunc) Respond(ctx context.Context, prompt string, emit func(fragment string) error) error {
	return f(ctx, prompt, emit)
}

// EchoResponder answers with a short markdown reply quoting the prompt,
// streamed word by word
type EchoResponder struct{}

// Respond streams the echo reply
func (EchoResponder) Respond(ctx context.Context, prompt string, emit func(fragment string) error) error {
	return EmitAll(ctx, Tokenize(EchoReply(prompt)), emit)
}

// EchoReply is the full text EchoResponder streams for prompt
func EchoReply(prompt string) string {
	var sb strings.Builder
	sb.WriteString("**You said:**\n\n")
	for _, line := range strings.Split(strings.TrimSpace(prompt), "\n") {
		sb.WriteString("> ")
		sb.WriteString(line)
		sb.WriteString("\n")
	}
	fmt.Fprintf(&sb, "\nThat is %d words.", len(strings.Fields(prompt)))
	return sb.String()
}

// EmitAll sends fragments in order, stopping early when ctx ends or emit
// fails
func EmitAll(ctx context.Context, fragments []string, emit func(string) error) error {
	for _, frag := range fragments {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := emit(frag); err != nil {
			return err
		}
	}
	return nil
}

// Tokenize splits text into word fragments the way a model streams them:
// each fragment is a word with the whitespace that precedes it, so the
// fragments concatenate back to text exactly.
func Tokenize(text string) []string {
	var tokens []string
	start := 0
	inWord := false
	for i, r := range text {
		space := unicode.IsSpace(r)
		if !space {
			inWord = true
			continue
		}
		if inWord {
			tokens = append(tokens, text[start:i])
			start = i
			inWord = false
		}
	}
	if start < len(text) {
		tokens = append(tokens, text[start:])
	}
	return tokens
}
