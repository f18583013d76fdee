package ingest

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/chenzhangda16/payments-engine/internal/engine/amount"
	"github.com/chenzhangda16/payments-engine/internal/engine/event"
)

// Header is the expected first row of a CSV input.
var Header = []string{"type", "client", "tx", "amount"}

// DecodeRow parses one `type,client,tx[,amount]` row. Fields are trimmed.
// Dispute, resolve and chargeback rows may omit the amount or leave it empty;
// any amount they carry is ignored.
func DecodeRow(fields []string) (event.Tx, error) {
	if len(fields) < 3 || len(fields) > 4 {
		return event.Tx{}, fmt.Errorf("%w: want 3 or 4 fields, got %d", ErrMalformed, len(fields))
	}

	kind, err := event.ParseKind(fields[0])
	if err != nil {
		return event.Tx{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	client, err := strconv.ParseUint(strings.TrimSpace(fields[1]), 10, 16)
	if err != nil {
		return event.Tx{}, fmt.Errorf("%w: client: %v", ErrMalformed, err)
	}
	id, err := strconv.ParseUint(strings.TrimSpace(fields[2]), 10, 32)
	if err != nil {
		return event.Tx{}, fmt.Errorf("%w: tx: %v", ErrMalformed, err)
	}

	tx := event.Tx{Kind: kind, Client: uint16(client), ID: uint32(id)}
	if !kind.CarriesAmount() {
		return tx, nil
	}

	raw := ""
	if len(fields) == 4 {
		raw = strings.TrimSpace(fields[3])
	}
	if raw == "" {
		return event.Tx{}, fmt.Errorf("%w: %s without amount", ErrMalformed, kind)
	}
	amt, err := amount.Parse(raw)
	if err != nil {
		return event.Tx{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if amt.IsNegative() {
		return event.Tx{}, fmt.Errorf("%w: negative amount %s", ErrMalformed, raw)
	}
	tx.Amount = amt
	return tx, nil
}

func isHeader(fields []string) bool {
	if len(fields) < len(Header)-1 {
		return false
	}
	for i, f := range fields {
		if i >= len(Header) || !strings.EqualFold(strings.TrimSpace(f), Header[i]) {
			return false
		}
	}
	return true
}
