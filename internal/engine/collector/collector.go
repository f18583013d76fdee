// Package collector reads the final state of every account once the
// dispatcher has drained its input.
package collector

import (
	"github.com/chenzhangda16/payments-engine/internal/engine/account"
	"github.com/chenzhangda16/payments-engine/internal/engine/registry"
	"github.com/chenzhangda16/payments-engine/internal/engine/worker"
)

// Collect returns one snapshot per account, client id ascending. Call it only
// after dispatcher.Run returned nil; the workers have exited by then and their
// state is no longer written.
func Collect(reg *registry.Registry) []account.Snapshot {
	out := make([]account.Snapshot, 0, reg.Len())
	reg.Each(func(w *worker.Worker) {
		out = append(out, w.Snapshot())
	})
	return out
}
