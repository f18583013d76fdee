package dispatcher

import (
	"context"
	"errors"
	"fmt"
	"io"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/chenzhangda16/payments-engine/internal/engine/ingest"
	"github.com/chenzhangda16/payments-engine/internal/engine/registry"
	"github.com/chenzhangda16/payments-engine/internal/engine/worker"
)

// Stats counts what the dispatcher saw on the input side.
type Stats struct {
	Dispatched uint64
	Malformed  uint64
	Accounts   int
}

// Dispatcher：单入口读 Source，按 client 投递到各自的 worker 信箱。
// 同一 client 的记录按输入顺序处理；不同 client 之间没有顺序保证，并行执行。
type Dispatcher struct {
	reg *registry.Registry
	log *zap.Logger

	// 下一条记录分配的 Seq
	nextSeq uint64
}

type Option func(*Dispatcher)

func WithLogger(l *zap.Logger) Option {
	return func(d *Dispatcher) { d.log = l }
}

func New(reg *registry.Registry, opts ...Option) *Dispatcher {
	d := &Dispatcher{reg: reg, log: zap.NewNop()}
	for _, o := range opts {
		o(d)
	}
	return d
}

// Run consumes src until io.EOF and returns once every dispatched record has
// been applied. Only then may the registry be collected.
//
// A fatal source error cancels all workers and is returned; the account
// state is then incomplete and must not be reported.
func (d *Dispatcher) Run(ctx context.Context, src ingest.Source) (Stats, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)
	var st Stats

	for {
		tx, err := src.Next(gctx)
		if errors.Is(err, io.EOF) {
			break
		}
		if errors.Is(err, ingest.ErrMalformed) {
			st.Malformed++
			d.log.Debug("drop malformed record", zap.Error(err))
			continue
		}
		if err != nil {
			cancel()
			if werr := g.Wait(); werr != nil && !errors.Is(werr, context.Canceled) {
				// a worker failed first and cancelled the group
				return st, werr
			}
			return st, fmt.Errorf("read input: %w", err)
		}

		w, created := d.reg.GetOrCreate(tx.Client)
		if created {
			g.Go(func() error { return w.Run(gctx) })
		}

		tx.Seq = d.nextSeq
		d.nextSeq++
		w.Send(tx)
		st.Dispatched++
	}

	// 输入结束：关闭所有信箱，等待 worker 处理完已投递的记录
	d.reg.Each(func(w *worker.Worker) { w.Close() })
	st.Accounts = d.reg.Len()

	if err := g.Wait(); err != nil {
		return st, fmt.Errorf("apply: %w", err)
	}
	d.log.Info("input drained",
		zap.Uint64("dispatched", st.Dispatched),
		zap.Uint64("malformed", st.Malformed),
		zap.Int("accounts", st.Accounts))
	return st, nil
}
