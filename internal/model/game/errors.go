package game

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrSessionNotFound reports an operation against an unknown session id.
	ErrSessionNotFound = errors.New("session not found")
	// ErrSessionEnded reports an operation against an ended session.
	ErrSessionEnded = errors.New("session has ended")
	// ErrTurnInFlight reports a second turn submitted while one is pending.
	ErrTurnInFlight = errors.New("a turn is already in flight for this session")
)

// ValidationError reports malformed input, naming the offending field and the
// accepted values so callers and test assertions can act on it.
type ValidationError struct {
	Field   string
	Value   string
	Allowed []string
}

func (e *ValidationError) Error() string {
	if len(e.Allowed) == 0 {
		return fmt.Sprintf("invalid %s: %q", e.Field, e.Value)
	}
	return fmt.Sprintf("invalid %s: %q (valid: %s)", e.Field, e.Value, strings.Join(e.Allowed, ", "))
}

// NewValidationError builds a ValidationError for a field and rejected value.
func NewValidationError(field, value string, allowed ...string) *ValidationError {
	return &ValidationError{Field: field, Value: value, Allowed: allowed}
}

// InsufficientPoolError reports an effort cost the chosen pool cannot afford.
// The pool is guaranteed untouched when this error is returned.
type InsufficientPoolError struct {
	Pool    PoolName
	Cost    int
	Current int
}

func (e *InsufficientPoolError) Error() string {
	return fmt.Sprintf("%s pool cannot afford effort cost: need %d, have %d", e.Pool, e.Cost, e.Current)
}

// PersistenceError reports an export/import failure. It is fatal to that
// single operation only.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }
