package domain

import (
	"errors"
	"fmt"
)

var (
	ErrPollNotFound  = errors.New("poll not found")
	ErrInvalidPollID = errors.New("invalid poll id")
	ErrForbidden     = errors.New("caller is not allowed to access this poll")
	ErrPollClosed    = errors.New("poll is inactive or expired")
	ErrAlreadyVoted  = errors.New("voter has already voted on this poll")
	ErrPollHasVotes  = errors.New("poll options cannot change after votes exist")
	ErrConflict      = errors.New("conflicting concurrent write")
	ErrTransient     = errors.New("transient store failure")
)

// ValidationError reports the first violated field constraint found.
// It is always caused by caller input and never retried.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func NewValidationError(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}

// IsValidation reports whether err is a field validation failure.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
