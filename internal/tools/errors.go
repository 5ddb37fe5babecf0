package tools

import (
	"errors"
	"fmt"
)

// ErrUnauthenticated is returned when a tool that persists data is
// dispatched without an authenticated user in the execution context.
var ErrUnauthenticated = errors.New("authentication required")

// ValidationError reports tool arguments that failed schema validation.
// Validation happens before the tool body runs, so a ValidationError
// guarantees no side effects occurred.
type ValidationError struct {
	Tool   string
	Detail string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid arguments for %s: %s", e.Tool, e.Detail)
}

// PersistenceError wraps a database failure inside a tool execution.
type PersistenceError struct {
	Tool string
	Err  error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s: failed to persist: %v", e.Tool, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}
