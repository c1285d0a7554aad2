// Package service implements the event, order, broadcast and user
// workflows on top of the record store and the notifier.  Stores and the
// notifier are consumed through the small interfaces declared in store.go.
package service

import (
    "errors"
    "fmt"
)

// ErrCreationExhausted is returned when every slug attempt collided with
// an existing event.
var ErrCreationExhausted = errors.New("could not allocate a unique event slug")

// ValidationError reports a rejected input field.
type ValidationError struct {
    Field  string
    Reason string
}

func (e *ValidationError) Error() string {
    return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func invalid(field, reason string) error {
    return &ValidationError{Field: field, Reason: reason}
}
