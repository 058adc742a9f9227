package queue

import (
	"fmt"
	"strings"
)

// NewEntry builds a pending entry for jobRef at position.
func NewEntry(jobRef string, position int64) (Entry, error) {
	return NewEntryWithStatus(jobRef, position, StatusPending)
}

// NewEntryWithStatus builds a new entry in status. Only StatusPending is a
// legal initial status; anything else fails with ErrInvalidInitialState.
func NewEntryWithStatus(jobRef string, position int64, status Status) (Entry, error) {
	jobRef = strings.TrimSpace(jobRef)
	if jobRef == "" {
		return Entry{}, fmt.Errorf("%w: job reference is required", ErrInvalidArgument)
	}
	if position < 1 {
		return Entry{}, fmt.Errorf("%w: position must be at least 1, got %d", ErrInvalidArgument, position)
	}
	if err := ValidateTransition("", status, true); err != nil {
		return Entry{}, err
	}
	return Entry{JobRef: jobRef, Position: position, Status: status}, nil
}

// WithStatus returns a copy of the entry moved to next, or the validation
// error when the transition is not allowed. The receiver is left untouched.
func (e Entry) WithStatus(next Status) (Entry, error) {
	if err := ValidateTransition(e.Status, next, false); err != nil {
		return e, err
	}
	e.Status = next
	return e, nil
}
