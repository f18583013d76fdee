// Package txgen produces reproducible transaction streams for load runs and
// tests. Every stream draws from named rng streams, so the same seed always
// yields the same rows.
package txgen

import (
	"encoding/csv"
	"io"
	"math/rand"
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/chenzhangda16/payments-engine/internal/engine/amount"
	"github.com/chenzhangda16/payments-engine/internal/engine/event"
	"github.com/chenzhangda16/payments-engine/pkg/rng"
)

type Config struct {
	Clients int // client ids are 1..Clients
	// MaxAmount in whole units, amounts carry up to four decimals
	MaxAmount int64
}

type Gen struct {
	cfg Config

	rClient *rand.Rand
	rKind   *rand.Rand
	rAmt    *rand.Rand
	rRef    *rand.Rand

	nextID   uint32
	deposits map[uint16][]uint32 // 可发起 dispute 的 deposit
	disputed map[uint16][]uint32
}

func New(cfg Config, rf *rng.Factory) *Gen {
	if cfg.Clients <= 0 {
		cfg.Clients = 1
	}
	if cfg.Clients > 1<<16-1 {
		cfg.Clients = 1<<16 - 1
	}
	if cfg.MaxAmount <= 0 {
		cfg.MaxAmount = 1000
	}
	return &Gen{
		cfg:      cfg,
		rClient:  rf.R(rng.ClientPick),
		rKind:    rf.R(rng.KindPick),
		rAmt:     rf.R(rng.Amount),
		rRef:     rf.R(rng.RefPick),
		nextID:   1,
		deposits: make(map[uint16][]uint32),
		disputed: make(map[uint16][]uint32),
	}
}

// Next returns the next record. Roughly half are deposits; the rest are
// withdrawals and dispute flows against earlier deposits of the same client,
// with a small share of references to unknown ids.
func (g *Gen) Next() event.Tx {
	client := uint16(1 + g.rClient.Intn(g.cfg.Clients))

	switch p := g.rKind.Intn(100); {
	case p < 50:
		return g.deposit(client)
	case p < 75:
		return event.Tx{Kind: event.Withdrawal, Client: client, ID: g.newID(), Amount: g.amount()}
	case p < 87:
		if id, ok := pick(g.rRef, g.deposits[client]); ok {
			g.disputed[client] = append(g.disputed[client], id)
			return event.Tx{Kind: event.Dispute, Client: client, ID: id}
		}
		return event.Tx{Kind: event.Dispute, Client: client, ID: g.nextID + 1000}
	case p < 95:
		if id, ok := take(g.rRef, g.disputed, client); ok {
			return event.Tx{Kind: event.Resolve, Client: client, ID: id}
		}
		return g.deposit(client)
	default:
		if id, ok := take(g.rRef, g.disputed, client); ok {
			return event.Tx{Kind: event.Chargeback, Client: client, ID: id}
		}
		return g.deposit(client)
	}
}

func (g *Gen) deposit(client uint16) event.Tx {
	id := g.newID()
	g.deposits[client] = append(g.deposits[client], id)
	return event.Tx{Kind: event.Deposit, Client: client, ID: id, Amount: g.amount()}
}

func (g *Gen) newID() uint32 {
	id := g.nextID
	g.nextID++
	return id
}

func (g *Gen) amount() amount.Amount {
	units := 1 + g.rAmt.Int63n(g.cfg.MaxAmount*10000)
	return amount.FromDecimal(decimal.New(units, -amount.Scale))
}

func pick(r *rand.Rand, ids []uint32) (uint32, bool) {
	if len(ids) == 0 {
		return 0, false
	}
	return ids[r.Intn(len(ids))], true
}

func take(r *rand.Rand, m map[uint16][]uint32, client uint16) (uint32, bool) {
	ids := m[client]
	if len(ids) == 0 {
		return 0, false
	}
	i := r.Intn(len(ids))
	id := ids[i]
	ids[i] = ids[len(ids)-1]
	m[client] = ids[:len(ids)-1]
	return id, true
}

// Row renders tx as a `type,client,tx,amount` record.
func Row(tx event.Tx) []string {
	amt := ""
	if tx.Kind.CarriesAmount() {
		amt = tx.Amount.String()
	}
	return []string{
		tx.Kind.String(),
		strconv.FormatUint(uint64(tx.Client), 10),
		strconv.FormatUint(uint64(tx.ID), 10),
		amt,
	}
}

// WriteCSV writes the header followed by n generated rows.
func WriteCSV(w io.Writer, g *Gen, n int) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"type", "client", "tx", "amount"}); err != nil {
		return err
	}
	for i := 0; i < n; i++ {
		if err := cw.Write(Row(g.Next())); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
