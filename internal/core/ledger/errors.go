package ledger

import (
	"errors"
	"fmt"
)

var (
	// ErrNotInitialized is the panic value for calls made before Initialize.
	ErrNotInitialized = errors.New("ledger not initialized")

	// ErrInvalidTransaction wraps the panic value AddTransaction raises for a
	// transaction that could not be stored and read back unchanged.
	ErrInvalidTransaction = errors.New("invalid transaction")
)

// InvariantViolation describes the first block that breaks a chain rule.
type InvariantViolation struct {
	Index  uint64 // index of the offending block, 0 for an empty chain
	Reason string
}

func (e *InvariantViolation) Error() string {
	if e.Index == 0 {
		return fmt.Sprintf("invariant violation: %s", e.Reason)
	}
	return fmt.Sprintf("invariant violation at block %d: %s", e.Index, e.Reason)
}
