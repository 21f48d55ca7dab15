package ledger

import (
	"context"
	"errors"
	"fmt"
)

// WriteResult reports what a transactional write did.
type WriteResult struct {
	// ItemsWritten is the length of the write's item list: puts plus
	// coalesced updates.
	ItemsWritten int

	// ConsumedCapacity is the sink's cost telemetry for the write.
	ConsumedCapacity float64

	// Replayed is set when the sink recognized the client request token and
	// treated the write as a no-op.
	Replayed bool
}

// Sink is the transactional store the ledger workload writes into. A write
// is atomic: either every put and every increment applies, or none do.
type Sink interface {
	// CreateAccounts stores the given accounts, overwriting existing ones.
	CreateAccounts(ctx context.Context, accounts []Account) error

	// TransactWrite applies one Write atomically. Re-submitting a write
	// with a token the sink has seen is a no-op; a write whose transfer ids
	// already exist under a fresh token fails with a ConflictError and
	// leaves every balance untouched.
	TransactWrite(ctx context.Context, w *Write) (*WriteResult, error)

	// GetAccount returns the current state of one account.
	GetAccount(ctx context.Context, ledger uint32, id uint64) (Account, error)

	Close() error
}

// ErrAccountNotFound is returned by GetAccount for an unknown account.
var ErrAccountNotFound = errors.New("account not found")

// ConflictError reports a conditional put that found its key occupied.
type ConflictError struct {
	TransferID string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("transfer %s already exists", e.TransferID)
}

// IsConflict reports whether err is a put-if-absent condition failure.
func IsConflict(err error) bool {
	var ce *ConflictError
	return errors.As(err, &ce)
}

// TransientError is a retryable sink failure.
type TransientError struct {
	Msg string
}

func (e *TransientError) Error() string {
	return e.Msg
}

// IsTransient reports whether err is worth retrying.
func IsTransient(err error) bool {
	var te *TransientError
	return errors.As(err, &te)
}
