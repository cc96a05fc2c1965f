package services

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"unicode/utf8"
)

type ErrorKind string

const (
	KindRemote  ErrorKind = "remote_error"
	KindTimeout ErrorKind = "timeout"
	KindParse   ErrorKind = "parse_error"
)

var ErrEmptyConversation = errors.New("completion: empty conversation")

const maxDiagnosticBody = 300

// CompletionError describes a failed completion call. StatusCode is zero when
// the request never produced an HTTP response.
type CompletionError struct {
	Kind       ErrorKind
	Provider   string
	StatusCode int
	Body       string
	Err        error
}

func (e *CompletionError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s", e.Provider, e.Kind)
	if e.StatusCode != 0 {
		fmt.Fprintf(&b, " (status %d)", e.StatusCode)
	}
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	return b.String()
}

func (e *CompletionError) Unwrap() error { return e.Err }

// Diagnostic is the text shown to the chat user.
func (e *CompletionError) Diagnostic() string {
	switch e.Kind {
	case KindTimeout:
		return "⚠️ The model did not answer in time. Please try again later."
	case KindParse:
		return "⚠️ Failed to parse the model response."
	default:
		if e.StatusCode == 0 {
			return "⚠️ API error: the completion service is unreachable."
		}
		body := truncate(strings.TrimSpace(e.Body), maxDiagnosticBody)
		if body == "" {
			return fmt.Sprintf("⚠️ API error: %d", e.StatusCode)
		}
		return fmt.Sprintf("⚠️ API error: %d - %s", e.StatusCode, body)
	}
}

// Diagnostic converts any completion failure into a chat reply.
func Diagnostic(err error) string {
	var ce *CompletionError
	if errors.As(err, &ce) {
		return ce.Diagnostic()
	}
	if errors.Is(err, ErrEmptyConversation) {
		return "⚠️ Nothing to send to the model."
	}
	return "⚠️ The model request failed."
}

func IsKind(err error, kind ErrorKind) bool {
	var ce *CompletionError
	return errors.As(err, &ce) && ce.Kind == kind
}

// transportError classifies an error raised before a response was read.
func transportError(provider string, err error) *CompletionError {
	if isTimeout(err) {
		return &CompletionError{Kind: KindTimeout, Provider: provider, Err: err}
	}
	return &CompletionError{Kind: KindRemote, Provider: provider, Err: err}
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

func truncate(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	runes := []rune(s)
	return string(runes[:max]) + "…"
}
