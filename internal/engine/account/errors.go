package account

import (
	"errors"
	"fmt"

	"github.com/chenzhangda16/payments-engine/internal/engine/event"
)

// Rejections. None of them changes account state.
var (
	ErrDuplicateTxID     = errors.New("duplicate transaction id")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrTxNotFound        = errors.New("transaction not found")
	ErrNotDisputable     = errors.New("transaction is not disputable")
	ErrInvalidState      = errors.New("invalid dispute state")
	ErrAccountLocked     = errors.New("account locked")
)

// ApplyError is a recoverable rejection of one record. Anything else returned
// by Apply is a ledger failure and must stop the run.
type ApplyError struct {
	Client uint16
	Tx     uint32
	Kind   event.Kind
	Err    error
}

func (e *ApplyError) Error() string {
	return fmt.Sprintf("%s client=%d tx=%d: %v", e.Kind, e.Client, e.Tx, e.Err)
}

func (e *ApplyError) Unwrap() error { return e.Err }

func reject(tx event.Tx, err error) error {
	return &ApplyError{Client: tx.Client, Tx: tx.ID, Kind: tx.Kind, Err: err}
}
