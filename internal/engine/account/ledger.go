package account

import (
	"fmt"

	"github.com/chenzhangda16/payments-engine/internal/engine/amount"
)

type DisputeState uint8

const (
	Undisputed DisputeState = iota
	Disputed
	Resolved
	ChargedBack
)

func (s DisputeState) String() string {
	switch s {
	case Undisputed:
		return "undisputed"
	case Disputed:
		return "disputed"
	case Resolved:
		return "resolved"
	case ChargedBack:
		return "charged_back"
	default:
		return fmt.Sprintf("state(%d)", uint8(s))
	}
}

// Entry is the ledger record of one accepted deposit.
type Entry struct {
	Amount amount.Amount
	State  DisputeState
}

// Ledger keeps the accepted deposits of one account (disputable) and the ids
// of its accepted withdrawals (never disputable). Entries are never removed.
// Implementations are used by a single account worker and need no locking of
// their own for that account's keys.
type Ledger interface {
	Deposit(tx uint32) (Entry, bool, error)
	PutDeposit(tx uint32, e Entry) error
	IsWithdrawal(tx uint32) (bool, error)
	MarkWithdrawal(tx uint32) error
}

// MemLedger is the default in-memory Ledger.
type MemLedger struct {
	deposits    map[uint32]Entry
	withdrawals map[uint32]struct{}
}

func NewMemLedger() *MemLedger {
	return &MemLedger{
		deposits:    make(map[uint32]Entry),
		withdrawals: make(map[uint32]struct{}),
	}
}

func (l *MemLedger) Deposit(tx uint32) (Entry, bool, error) {
	e, ok := l.deposits[tx]
	return e, ok, nil
}

func (l *MemLedger) PutDeposit(tx uint32, e Entry) error {
	l.deposits[tx] = e
	return nil
}

func (l *MemLedger) IsWithdrawal(tx uint32) (bool, error) {
	_, ok := l.withdrawals[tx]
	return ok, nil
}

func (l *MemLedger) MarkWithdrawal(tx uint32) error {
	l.withdrawals[tx] = struct{}{}
	return nil
}
