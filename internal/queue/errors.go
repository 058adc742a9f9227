package queue

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidArgument reports malformed input such as a blank job reference
	// or a position below 1.
	ErrInvalidArgument = errors.New("queue: invalid argument")
	// ErrInvalidInitialState reports an attempt to create an entry outside pending.
	ErrInvalidInitialState = errors.New("queue: new entries must start pending")
	// ErrIllegalTransition reports a status change outside the transition graph.
	ErrIllegalTransition = errors.New("queue: illegal status transition")
	// ErrDuplicateJob reports that an entry already exists for the job reference.
	ErrDuplicateJob = errors.New("queue: job already queued")
	// ErrPositionConflict reports that another active entry holds the position.
	ErrPositionConflict = errors.New("queue: position held by another active entry")
	// ErrConflict reports a lost compare-and-set: the persisted status no longer
	// matches the expected one.
	ErrConflict = errors.New("queue: entry changed concurrently")
	// ErrNotFound reports that no entry exists for the job reference.
	ErrNotFound = errors.New("queue: entry not found")
)

// TransitionError carries the statuses involved in a rejected transition.
type TransitionError struct {
	From Status
	To   Status
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("%s: %s -> %s", ErrIllegalTransition, e.From, e.To)
}

// Unwrap lets errors.Is match ErrIllegalTransition.
func (e *TransitionError) Unwrap() error {
	return ErrIllegalTransition
}

// Kind is a stable classification of queue errors for callers that translate
// them into their own vocabulary (HTTP status codes, exit codes).
type Kind string

const (
	KindInvalidArgument     Kind = "invalid_argument"
	KindInvalidInitialState Kind = "invalid_initial_state"
	KindIllegalTransition   Kind = "illegal_transition"
	KindDuplicateJob        Kind = "duplicate_job"
	KindPositionConflict    Kind = "position_conflict"
	KindConflict            Kind = "conflict"
	KindNotFound            Kind = "not_found"
	KindInternal            Kind = "internal"
)

var kindErrors = []struct {
	kind Kind
	err  error
}{
	{KindInvalidArgument, ErrInvalidArgument},
	{KindInvalidInitialState, ErrInvalidInitialState},
	{KindIllegalTransition, ErrIllegalTransition},
	{KindDuplicateJob, ErrDuplicateJob},
	{KindPositionConflict, ErrPositionConflict},
	{KindConflict, ErrConflict},
	{KindNotFound, ErrNotFound},
}

// ErrorClassifier allows errors from outside this package to declare their Kind.
type ErrorClassifier interface {
	ErrorKind() Kind
}

// KindOf classifies err. Nil errors have an empty kind; anything unrecognised
// is KindInternal.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	for _, candidate := range kindErrors {
		if errors.Is(err, candidate.err) {
			return candidate.kind
		}
	}
	var classifier ErrorClassifier
	if errors.As(err, &classifier) {
		return classifier.ErrorKind()
	}
	return KindInternal
}

// ErrorForKind returns the sentinel for kind, or nil when kind has none.
func ErrorForKind(kind Kind) error {
	for _, candidate := range kindErrors {
		if candidate.kind == kind {
			return candidate.err
		}
	}
	return nil
}

// IsRetryable reports whether err is a store-boundary race the caller may
// retry after re-reading current state.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrConflict) || errors.Is(err, ErrPositionConflict)
}
