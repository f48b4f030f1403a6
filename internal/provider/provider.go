// Package provider abstracts the language-model backends behind a single
// gateway interface. The engine selects a named variant by configuration and
// never inspects the concrete type.
package provider

import (
	"context"
	"errors"
	"fmt"
)

// ErrorKind partitions upstream generation failures.
type ErrorKind string

const (
	KindTimeout     ErrorKind = "timeout"
	KindRateLimited ErrorKind = "rate-limited"
	KindMalformed   ErrorKind = "malformed-response"
	KindUnavailable ErrorKind = "unavailable"
)

// Error wraps a provider failure with its kind and origin.
type Error struct {
	Provider string
	Kind     ErrorKind
	Err      error
}

func (e *Error) Error() string {
	return fmt.Sprintf("provider %s: %s: %v", e.Provider, e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// KindOf extracts the error kind, or "" for non-provider errors.
func KindOf(err error) ErrorKind {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Kind
	}
	return ""
}

// Request carries one generation request.
type Request struct {
	System string
	Prompt string
}

// Reply carries the generated text plus token counts when the backend
// reports them.
type Reply struct {
	Text             string
	PromptTokens     int
	CompletionTokens int
	TokensReported   bool
}

// Gateway is a generation backend.
type Gateway interface {
	Name() string
	Request(ctx context.Context, req Request) (Reply, error)
}
