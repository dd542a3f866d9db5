package services

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound covers players, tasks and events looked up by id.
	ErrNotFound = errors.New("record not found")

	// ErrGenerationExhausted is the terminal content-pipeline failure
	// after the bounded retry budget is spent.
	ErrGenerationExhausted = errors.New("content generation exhausted retries")
)

// InsufficientError reports a resource shortfall with the amounts the
// caller needs to display. No state is mutated when it is returned.
type InsufficientError struct {
	Resource  string
	Required  float64
	Available float64
}

func (e *InsufficientError) Error() string {
	return fmt.Sprintf("insufficient %s: required %.0f, available %.0f", e.Resource, e.Required, e.Available)
}

// IllegalStateError reports an operation attempted against a record not in
// the expected status (e.g. completing a PENDING task, re-resolving an
// event with a different choice).
type IllegalStateError struct {
	Entity string
	State  string
	Action string
}

func (e *IllegalStateError) Error() string {
	return fmt.Sprintf("cannot %s %s in state %s", e.Action, e.Entity, e.State)
}
