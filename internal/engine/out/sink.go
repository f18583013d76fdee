// Package out publishes the final account report.
package out

import (
	"context"

	"github.com/chenzhangda16/payments-engine/internal/engine/account"
)

// Sink receives the complete report once, after all input has been applied.
// Snapshots arrive sorted by client id.
type Sink interface {
	Emit(ctx context.Context, snaps []account.Snapshot) error
	Close() error
}
