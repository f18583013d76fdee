// Package worker runs one account as a mailbox-driven actor: records sent to
// a Worker are applied strictly in send order by a single goroutine, and the
// goroutine is parked while the mailbox is empty.
package worker

import (
	"context"
	"errors"
	"fmt"

	"github.com/chenzhangda16/payments-engine/internal/engine/account"
	"github.com/chenzhangda16/payments-engine/internal/engine/event"
)

// Reporter receives every rejected record. It is called from worker
// goroutines and must be safe for concurrent use.
type Reporter func(tx event.Tx, err *account.ApplyError)

type Worker struct {
	acct   *account.Account
	box    *mailbox
	report Reporter

	applied  uint64
	rejected uint64
}

func New(acct *account.Account, report Reporter) *Worker {
	if report == nil {
		report = func(event.Tx, *account.ApplyError) {}
	}
	return &Worker{acct: acct, box: newMailbox(), report: report}
}

func (w *Worker) Client() uint16 { return w.acct.Client() }

// Send queues tx. It returns false once the worker has been closed.
func (w *Worker) Send(tx event.Tx) bool { return w.box.push(tx) }

// Close lets Run return after the queued records are applied.
func (w *Worker) Close() { w.box.close() }

// Pending is the number of queued, not yet applied records.
func (w *Worker) Pending() int { return w.box.len() }

// Run applies queued records until the mailbox is closed and empty, or ctx is
// cancelled. A non-nil error other than ctx.Err() is a ledger failure.
func (w *Worker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-w.box.notify:
		}

		batch, closed := w.box.drain()
		for _, tx := range batch {
			if err := w.apply(tx); err != nil {
				return err
			}
		}
		if closed {
			return nil
		}
	}
}

func (w *Worker) apply(tx event.Tx) error {
	err := w.acct.Apply(tx)
	if err == nil {
		w.applied++
		return nil
	}

	var ae *account.ApplyError
	if errors.As(err, &ae) {
		w.rejected++
		w.report(tx, ae)
		return nil
	}
	return fmt.Errorf("client %d seq %d: %w", tx.Client, tx.Seq, err)
}

// Snapshot and Stats must only be read after Run has returned.
func (w *Worker) Snapshot() account.Snapshot { return w.acct.Snapshot() }

func (w *Worker) Stats() (applied, rejected uint64) { return w.applied, w.rejected }
