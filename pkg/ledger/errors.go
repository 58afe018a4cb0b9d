package ledger

import (
	"errors"
	"fmt"
)

// ErrTransactionNotFound is returned when an operation references a
// transaction id that does not exist in storage.
var ErrTransactionNotFound = errors.New("transaction not found")

// ValidationError reports malformed or out-of-range input to a mutation.
// It is never partially applied: the operation fails before any state change.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// StateError reports an operation attempted on a transaction whose lifecycle
// state forbids it, e.g. recording a payment on a completed loan.
type StateError struct {
	Op     string
	Reason string
}

func (e *StateError) Error() string {
	return fmt.Sprintf("%s: %s", e.Op, e.Reason)
}
