// Package account is the per-client transaction state machine.
//
// An Account is owned by exactly one worker goroutine; none of its methods
// are safe for concurrent use. After every Apply, total == available + held,
// and no balance is ever negative.
package account

import (
	"fmt"

	"github.com/chenzhangda16/payments-engine/internal/engine/amount"
	"github.com/chenzhangda16/payments-engine/internal/engine/event"
)

type Account struct {
	client    uint16
	available amount.Amount
	held      amount.Amount
	total     amount.Amount
	locked    bool

	ledger Ledger
}

// Snapshot is the externally visible state of an account.
type Snapshot struct {
	Client    uint16        `json:"client"`
	Available amount.Amount `json:"available"`
	Held      amount.Amount `json:"held"`
	Total     amount.Amount `json:"total"`
	Locked    bool          `json:"locked"`
}

// New returns an empty, unlocked account. A nil ledger means in-memory.
func New(client uint16, ledger Ledger) *Account {
	if ledger == nil {
		ledger = NewMemLedger()
	}
	return &Account{client: client, ledger: ledger}
}

func (a *Account) Client() uint16 { return a.client }

func (a *Account) Locked() bool { return a.locked }

func (a *Account) Snapshot() Snapshot {
	return Snapshot{
		Client:    a.client,
		Available: a.available,
		Held:      a.held,
		Total:     a.total,
		Locked:    a.locked,
	}
}

// Apply runs one record against the account. Rejections come back as
// *ApplyError and leave the account untouched.
//
// A locked account rejects every kind, including Resolve and Chargeback of
// disputes opened before the lock.
func (a *Account) Apply(tx event.Tx) error {
	if tx.Client != a.client {
		return fmt.Errorf("account %d: record for client %d", a.client, tx.Client)
	}
	if a.locked {
		return reject(tx, ErrAccountLocked)
	}

	switch tx.Kind {
	case event.Deposit:
		return a.deposit(tx)
	case event.Withdrawal:
		return a.withdraw(tx)
	case event.Dispute:
		return a.dispute(tx)
	case event.Resolve:
		return a.resolve(tx)
	case event.Chargeback:
		return a.chargeback(tx)
	default:
		return fmt.Errorf("account %d: unknown kind %s", a.client, tx.Kind)
	}
}

func (a *Account) deposit(tx event.Tx) error {
	if err := a.ensureUnseen(tx); err != nil {
		return err
	}
	if err := a.ledger.PutDeposit(tx.ID, Entry{Amount: tx.Amount, State: Undisputed}); err != nil {
		return fmt.Errorf("ledger put deposit %d: %w", tx.ID, err)
	}
	a.available = a.available.Add(tx.Amount)
	a.total = a.total.Add(tx.Amount)
	return nil
}

func (a *Account) withdraw(tx event.Tx) error {
	if err := a.ensureUnseen(tx); err != nil {
		return err
	}
	if a.available.LessThan(tx.Amount) {
		return reject(tx, ErrInsufficientFunds)
	}
	if err := a.ledger.MarkWithdrawal(tx.ID); err != nil {
		return fmt.Errorf("ledger mark withdrawal %d: %w", tx.ID, err)
	}
	a.available = a.available.Sub(tx.Amount)
	a.total = a.total.Sub(tx.Amount)
	return nil
}

func (a *Account) dispute(tx event.Tx) error {
	e, ok, err := a.ledger.Deposit(tx.ID)
	if err != nil {
		return fmt.Errorf("ledger get deposit %d: %w", tx.ID, err)
	}
	if !ok {
		w, err := a.ledger.IsWithdrawal(tx.ID)
		if err != nil {
			return fmt.Errorf("ledger get withdrawal %d: %w", tx.ID, err)
		}
		if w {
			return reject(tx, ErrNotDisputable)
		}
		return reject(tx, ErrTxNotFound)
	}
	if e.State != Undisputed {
		return reject(tx, ErrInvalidState)
	}
	// funds already spent cannot be held
	if a.available.LessThan(e.Amount) {
		return reject(tx, ErrInsufficientFunds)
	}

	if err := a.setState(tx.ID, e, Disputed); err != nil {
		return err
	}
	a.available = a.available.Sub(e.Amount)
	a.held = a.held.Add(e.Amount)
	return nil
}

func (a *Account) resolve(tx event.Tx) error {
	e, err := a.disputed(tx)
	if err != nil {
		return err
	}
	if err := a.setState(tx.ID, e, Resolved); err != nil {
		return err
	}
	a.held = a.held.Sub(e.Amount)
	a.available = a.available.Add(e.Amount)
	return nil
}

func (a *Account) chargeback(tx event.Tx) error {
	e, err := a.disputed(tx)
	if err != nil {
		return err
	}
	if err := a.setState(tx.ID, e, ChargedBack); err != nil {
		return err
	}
	a.held = a.held.Sub(e.Amount)
	a.total = a.total.Sub(e.Amount)
	a.locked = true
	return nil
}

// disputed returns the ledger entry referenced by a Resolve or Chargeback.
func (a *Account) disputed(tx event.Tx) (Entry, error) {
	e, ok, err := a.ledger.Deposit(tx.ID)
	if err != nil {
		return Entry{}, fmt.Errorf("ledger get deposit %d: %w", tx.ID, err)
	}
	if !ok {
		w, err := a.ledger.IsWithdrawal(tx.ID)
		if err != nil {
			return Entry{}, fmt.Errorf("ledger get withdrawal %d: %w", tx.ID, err)
		}
		if w {
			return Entry{}, reject(tx, ErrInvalidState)
		}
		return Entry{}, reject(tx, ErrTxNotFound)
	}
	if e.State != Disputed {
		return Entry{}, reject(tx, ErrInvalidState)
	}
	return e, nil
}

func (a *Account) ensureUnseen(tx event.Tx) error {
	if _, ok, err := a.ledger.Deposit(tx.ID); err != nil {
		return fmt.Errorf("ledger get deposit %d: %w", tx.ID, err)
	} else if ok {
		return reject(tx, ErrDuplicateTxID)
	}
	if w, err := a.ledger.IsWithdrawal(tx.ID); err != nil {
		return fmt.Errorf("ledger get withdrawal %d: %w", tx.ID, err)
	} else if w {
		return reject(tx, ErrDuplicateTxID)
	}
	return nil
}

func (a *Account) setState(id uint32, e Entry, s DisputeState) error {
	e.State = s
	if err := a.ledger.PutDeposit(id, e); err != nil {
		return fmt.Errorf("ledger put deposit %d: %w", id, err)
	}
	return nil
}
