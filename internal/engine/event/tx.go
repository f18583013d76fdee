package event

import (
	"fmt"
	"strings"

	"github.com/chenzhangda16/payments-engine/internal/engine/amount"
)

type Kind uint8

const (
	Deposit Kind = iota + 1
	Withdrawal
	Dispute
	Resolve
	Chargeback
)

var kindNames = map[Kind]string{
	Deposit:    "deposit",
	Withdrawal: "withdrawal",
	Dispute:    "dispute",
	Resolve:    "resolve",
	Chargeback: "chargeback",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// CarriesAmount reports whether records of this kind have an amount of their own.
func (k Kind) CarriesAmount() bool { return k == Deposit || k == Withdrawal }

// ParseKind is case-insensitive and ignores surrounding blanks.
func ParseKind(s string) (Kind, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for k, name := range kindNames {
		if name == s {
			return k, nil
		}
	}
	return 0, fmt.Errorf("unknown transaction type %q", s)
}

// Tx is one decoded input record.
type Tx struct {
	Seq    uint64 // Dispatcher 分配，输入顺序
	Kind   Kind
	Client uint16
	ID     uint32
	Amount amount.Amount // only meaningful when Kind.CarriesAmount()
}

func (t Tx) String() string {
	if t.Kind.CarriesAmount() {
		return fmt.Sprintf("%s client=%d tx=%d amount=%s", t.Kind, t.Client, t.ID, t.Amount)
	}
	return fmt.Sprintf("%s client=%d tx=%d", t.Kind, t.Client, t.ID)
}
