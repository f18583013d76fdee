// Package ingest turns an input stream into transaction records, one at a
// time, without buffering the whole input.
package ingest

import (
	"context"
	"errors"

	"github.com/chenzhangda16/payments-engine/internal/engine/event"
)

// ErrMalformed wraps every per-record decode failure. Such records are
// dropped; any other error from Next is a fatal I/O failure.
var ErrMalformed = errors.New("malformed record")

// Source is a forward-only, non-restartable record stream. Next returns
// io.EOF once the input is exhausted.
type Source interface {
	Next(ctx context.Context) (event.Tx, error)
	Close() error
}
