package model

import (
	"errors"
	"fmt"
)

// Outcomes of core operations. Callers match them with errors.Is and decide
// how to present them; none of them leaves a partial change behind.
var (
	// ErrUnauthorized means the actor does not hold the role required for
	// the operation, or the loan is not in a state that permits it.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrNotAllowed means the actor may act in principle but a business
	// precondition failed, such as requesting an unavailable item.
	ErrNotAllowed = errors.New("not allowed")

	// ErrNotFound means a referenced record does not exist or does not
	// belong to the expected parent.
	ErrNotFound = errors.New("not found")
)

// TransitionError reports a rejected loan transition together with the
// loan state observed at the time of rejection.
type TransitionError struct {
	Action Action
	State  LoanState
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("cannot %s loan in state %s", e.Action, e.State)
}

// Unwrap makes errors.Is(err, ErrUnauthorized) hold.
func (e *TransitionError) Unwrap() error {
	return ErrUnauthorized
}
