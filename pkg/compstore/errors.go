package compstore

import (
	"errors"
	"fmt"
)

// Sentinel errors for fallible cell access.
var (
	// ErrNotInitialized indicates access to a forward-declared cell whose
	// value has not been inserted yet.
	ErrNotInitialized = errors.New("component not initialized")
)

// TypeMismatchError indicates a typed accessor disagreed with the type a
// cell was declared with.
type TypeMismatchError struct {
	// Expected is the type the caller asked for.
	Expected string
	// Found is the type the cell actually stores.
	Found string
}

// Error implements the error interface.
func (e *TypeMismatchError) Error() string {
	return fmt.Sprintf("type mismatch: expected %s, found %s", e.Expected, e.Found)
}
