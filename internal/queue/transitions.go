package queue

import "fmt"

type statusTransition struct {
	from Status
	to   Status
}

var allowedTransitions = map[statusTransition]struct{}{
	{from: StatusPending, to: StatusInProgress}:   {},
	{from: StatusInProgress, to: StatusCompleted}: {},
	{from: StatusInProgress, to: StatusFailed}:    {},
}

// ValidateTransition checks whether an entry may move from current to next.
//
// When isNew is set, current is ignored and anything other than StatusPending,
// unknown statuses included, fails with ErrInvalidInitialState. Setting the
// same status again is not an edge of the graph and is rejected.
func ValidateTransition(current, next Status, isNew bool) error {
	if isNew {
		if next != StatusPending {
			return fmt.Errorf("%w: got %q", ErrInvalidInitialState, next)
		}
		return nil
	}
	if !next.Valid() {
		return fmt.Errorf("%w: unknown status %q", ErrInvalidArgument, next)
	}
	if !current.Valid() {
		return fmt.Errorf("%w: unknown status %q", ErrInvalidArgument, current)
	}
	if _, ok := allowedTransitions[statusTransition{from: current, to: next}]; !ok {
		return &TransitionError{From: current, To: next}
	}
	return nil
}

// AllowedTransitions lists the statuses reachable from from in one step.
func AllowedTransitions(from Status) []Status {
	var next []Status
	for _, candidate := range allStatuses {
		if _, ok := allowedTransitions[statusTransition{from: from, to: candidate}]; ok {
			next = append(next, candidate)
		}
	}
	return next
}
