package domain

import (
	"errors"
	"fmt"
)

// ErrNotFound marks a lookup for an id the store does not hold.
var ErrNotFound = errors.New("entity not found")

// RejectedError is a malformed input or a business-rule violation.
// The caller corrects and resubmits; it is never retried as-is.
type RejectedError struct {
	Reason string
}

func (e RejectedError) Error() string { return "rejected: " + e.Reason }

// InvalidTransitionError is a status change the transition table forbids.
type InvalidTransitionError struct {
	From Status
	To   Status
}

func (e InvalidTransitionError) Error() string {
	next := ValidNext(e.From)
	if len(next) == 0 {
		return fmt.Sprintf("invalid transition: %s is terminal, cannot move to %s", e.From, e.To)
	}
	return fmt.Sprintf("invalid transition: %s -> %s, valid next states: %v", e.From, e.To, next)
}

// TransitionFailedError wraps a store failure after guards passed.
// Safe to retry: the guards re-evaluate against current store state.
type TransitionFailedError struct {
	Err error
}

func (e TransitionFailedError) Error() string { return "transition failed: " + e.Err.Error() }

func (e TransitionFailedError) Unwrap() error { return e.Err }
