package dispatcher

import (
	"errors"

	"go.uber.org/zap"

	"github.com/chenzhangda16/payments-engine/internal/engine/account"
	"github.com/chenzhangda16/payments-engine/internal/engine/event"
	"github.com/chenzhangda16/payments-engine/internal/engine/worker"
)

// NewReporter logs rejected records. A reference to an unknown transaction is
// only a warning: it may point outside what this run has seen.
func NewReporter(log *zap.Logger) worker.Reporter {
	if log == nil {
		log = zap.NewNop()
	}
	return func(tx event.Tx, err *account.ApplyError) {
		fields := []zap.Field{
			zap.Uint64("seq", tx.Seq),
			zap.Stringer("kind", tx.Kind),
			zap.Uint16("client", tx.Client),
			zap.Uint32("tx", tx.ID),
			zap.Error(err.Err),
		}
		if errors.Is(err, account.ErrTxNotFound) {
			log.Warn("transaction rejected", fields...)
			return
		}
		log.Error("transaction rejected", fields...)
	}
}
