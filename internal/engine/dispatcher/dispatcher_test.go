package dispatcher

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/chenzhangda16/payments-engine/internal/engine/account"
	"github.com/chenzhangda16/payments-engine/internal/engine/collector"
	"github.com/chenzhangda16/payments-engine/internal/engine/event"
	"github.com/chenzhangda16/payments-engine/internal/engine/ingest"
	"github.com/chenzhangda16/payments-engine/internal/engine/registry"
	"github.com/chenzhangda16/payments-engine/internal/engine/worker"
	"github.com/chenzhangda16/payments-engine/internal/txgen"
	"github.com/chenzhangda16/payments-engine/pkg/rng"
)

func memRegistry(report worker.Reporter) *registry.Registry {
	return registry.New(func(client uint16) *worker.Worker {
		return worker.New(account.New(client, nil), report)
	})
}

func run(t *testing.T, input string, report worker.Reporter) ([]account.Snapshot, Stats) {
	t.Helper()
	reg := memRegistry(report)
	st, err := New(reg).Run(context.Background(), ingest.NewCSVSource(strings.NewReader(input)))
	require.NoError(t, err)
	return collector.Collect(reg), st
}

func row(s account.Snapshot) string {
	locked := "false"
	if s.Locked {
		locked = "true"
	}
	return strings.Join([]string{s.Available.StringFixed(), s.Held.StringFixed(), s.Total.StringFixed(), locked}, ",")
}

func TestScenarios(t *testing.T) {
	input := `type,client,tx,amount
deposit,1,1,10.0
deposit,2,10,20.0
deposit,1,2,5.0
deposit,3,20,15.0
withdrawal,4,30,5.0
dispute,2,10,
withdrawal,1,3,3.0
dispute,3,20,
resolve,2,10,
chargeback,3,20,
`
	snaps, st := run(t, input, nil)
	require.Len(t, snaps, 4)

	want := map[uint16]string{
		1: "12.0000,0.0000,12.0000,false",
		2: "20.0000,0.0000,20.0000,false",
		3: "0.0000,0.0000,0.0000,true",
		4: "0.0000,0.0000,0.0000,false",
	}
	for _, s := range snaps {
		assert.Equal(t, want[s.Client], row(s), "client %d", s.Client)
	}
	assert.EqualValues(t, 10, st.Dispatched)
	assert.Equal(t, 4, st.Accounts)
	assert.Zero(t, st.Malformed)
}

func TestMalformedRowsAreSkipped(t *testing.T) {
	input := `type,client,tx,amount
deposit,1,1,10
bogus,1,2,1
deposit,x,3,1
deposit,1,4,-1
withdrawal,1,5
deposit,1,6,2.5
`
	snaps, st := run(t, input, nil)
	require.Len(t, snaps, 1)
	assert.Equal(t, "12.5000,0.0000,12.5000,false", row(snaps[0]))
	assert.EqualValues(t, 4, st.Malformed)
	assert.EqualValues(t, 2, st.Dispatched)
}

func TestRejectionsAreReported(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	report := NewReporter(zap.New(core))

	input := `type,client,tx,amount
withdrawal,4,30,5.0
dispute,4,99,
`
	run(t, input, report)

	warn := logs.FilterLevelExact(zapcore.WarnLevel).All()
	require.Len(t, warn, 1)
	assert.Equal(t, "transaction rejected", warn[0].Message)
	assert.EqualValues(t, 99, warn[0].ContextMap()["tx"])

	errs := logs.FilterLevelExact(zapcore.ErrorLevel).All()
	require.Len(t, errs, 1)
	assert.EqualValues(t, 30, errs[0].ContextMap()["tx"])
	assert.Equal(t, "insufficient funds", errs[0].ContextMap()["error"])
}

func TestSeqFollowsInputOrder(t *testing.T) {
	var (
		mu   sync.Mutex
		seqs = map[uint16][]uint64{}
	)
	report := func(tx event.Tx, _ *account.ApplyError) {
		mu.Lock()
		defer mu.Unlock()
		seqs[tx.Client] = append(seqs[tx.Client], tx.Seq)
	}
	// every record below is rejected, so each one reaches the reporter
	var b strings.Builder
	b.WriteString("type,client,tx,amount\n")
	for i := 0; i < 200; i++ {
		b.WriteString("withdrawal,")
		b.WriteString([]string{"1", "2", "3"}[i%3])
		b.WriteString(",1,1\n")
	}
	run(t, b.String(), report)

	total := 0
	for client, s := range seqs {
		total += len(s)
		for i := 1; i < len(s); i++ {
			assert.Less(t, s[i-1], s[i], "client %d", client)
		}
	}
	assert.Equal(t, 200, total)
}

// Interleaving clients must not change any client's result: the final state
// equals applying that client's records alone, in order.
func TestInterleavingMatchesPerClientReplay(t *testing.T) {
	g := txgen.New(txgen.Config{Clients: 50, MaxAmount: 100}, rng.New(rng.Deterministic, 2024))
	txs := make([]event.Tx, 20000)
	for i := range txs {
		txs[i] = g.Next()
	}

	reg := memRegistry(nil)
	_, err := New(reg).Run(context.Background(), &sliceSource{txs: txs})
	require.NoError(t, err)
	got := collector.Collect(reg)

	replay := map[uint16]*account.Account{}
	for _, tx := range txs {
		a, ok := replay[tx.Client]
		if !ok {
			a = account.New(tx.Client, nil)
			replay[tx.Client] = a
		}
		_ = a.Apply(tx)
	}

	require.Len(t, got, len(replay))
	for _, s := range got {
		assert.Equal(t, row(replay[s.Client].Snapshot()), row(s), "client %d", s.Client)
	}
}

var errBroken = errors.New("broken pipe")

func TestFatalSourceErrorStopsRun(t *testing.T) {
	src := &sliceSource{
		txs: []event.Tx{
			{Kind: event.Deposit, Client: 1, ID: 1},
			{Kind: event.Deposit, Client: 2, ID: 2},
		},
		fail: errBroken,
	}
	_, err := New(memRegistry(nil)).Run(context.Background(), src)
	require.ErrorIs(t, err, errBroken)
	assert.Contains(t, err.Error(), "read input")
}

type brokenLedger struct{ *account.MemLedger }

func (brokenLedger) PutDeposit(uint32, account.Entry) error { return errBroken }

func TestLedgerFailureFailsRun(t *testing.T) {
	reg := registry.New(func(client uint16) *worker.Worker {
		return worker.New(account.New(client, brokenLedger{account.NewMemLedger()}), nil)
	})
	_, err := New(reg).Run(context.Background(), ingest.NewCSVSource(strings.NewReader("deposit,1,1,1\n")))
	require.ErrorIs(t, err, errBroken)
	assert.Contains(t, err.Error(), "client 1")
}

func TestEmptyInput(t *testing.T) {
	snaps, st := run(t, "type,client,tx,amount\n", nil)
	assert.Empty(t, snaps)
	assert.Zero(t, st.Dispatched)
}

type sliceSource struct {
	txs  []event.Tx
	i    int
	fail error
}

func (s *sliceSource) Next(ctx context.Context) (event.Tx, error) {
	if s.i < len(s.txs) {
		tx := s.txs[s.i]
		s.i++
		return tx, nil
	}
	if s.fail != nil {
		return event.Tx{}, s.fail
	}
	return event.Tx{}, io.EOF
}

func (s *sliceSource) Close() error { return nil }
