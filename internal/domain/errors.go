package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrDeckNotFound indicates the deck content could not be loaded.
	ErrDeckNotFound = errors.New("deck not found")
	// ErrQuizNotFound indicates the quiz content could not be loaded.
	ErrQuizNotFound = errors.New("quiz not found")
	// ErrProgressNotFound is returned when no snapshot exists for a deck or quiz.
	ErrProgressNotFound = errors.New("progress not found")
	// ErrInvalidState marks an action that does not apply to the current session state
	// (undo without a preceding mark, mark on a completed session). Callers treat it as a no-op.
	ErrInvalidState = errors.New("action not valid in current session state")
	// ErrSessionClosed is returned when a controller is used after Close.
	ErrSessionClosed = errors.New("session closed")
)

// ValidationError reports a malformed progress snapshot. Messages holds every
// field-level problem found, not only the first.
type ValidationError struct {
	Messages []string
}

func (e *ValidationError) Error() string {
	return "invalid progress snapshot: " + strings.Join(e.Messages, "; ")
}

// PersistenceError reports an unreachable store or a rejected write.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// UserMessage is the single message shown to the user for any persistence failure.
func (e *PersistenceError) UserMessage() string {
	return "Your progress could not be saved. It will be retried automatically."
}
