package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors for the failure classes callers are expected to branch on.
var (
	ErrNotFound     = errors.New("not found")
	ErrUnauthorized = errors.New("not allowed")
	ErrAlreadyLiked = errors.New("already liked")
)

// ValidationError rejects malformed input (empty reply text etc).
type ValidationError struct {
	Msg string
}

func (e ValidationError) Error() string { return e.Msg }

// TransientError wraps a store failure the caller may retry. No notification
// is ever emitted for an operation that returned one.
type TransientError struct {
	Err error
}

func (e TransientError) Error() string { return fmt.Sprintf("store unavailable: %v", e.Err) }

func (e TransientError) Unwrap() error { return e.Err }

// Transient tags err as a retryable store failure, nil stays nil.
func Transient(err error) error {
	if err == nil {
		return nil
	}
	return TransientError{Err: err}
}

func IsTransient(err error) bool {
	var te TransientError
	return errors.As(err, &te)
}
