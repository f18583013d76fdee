package store

import (
	"errors"

	"github.com/chenzhangda16/payments-engine/internal/engine/account"
	"github.com/chenzhangda16/payments-engine/internal/engine/amount"
)

var ErrShortValue = errors.New("store: short deposit value")

// EncodeEntry lays a deposit out as state(1) + amount text.
func EncodeEntry(e account.Entry) []byte {
	s := e.Amount.StringFixed()
	b := make([]byte, 0, 1+len(s))
	b = append(b, byte(e.State))
	return append(b, s...)
}

func DecodeEntry(b []byte) (account.Entry, error) {
	if len(b) < 2 {
		return account.Entry{}, ErrShortValue
	}
	amt, err := amount.Parse(string(b[1:]))
	if err != nil {
		return account.Entry{}, err
	}
	return account.Entry{Amount: amt, State: account.DisputeState(b[0])}, nil
}
