// Package amount is the fixed-precision money type every balance flows through.
package amount

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Scale is the number of fractional digits kept after every operation.
const Scale = 4

// Amount is an immutable decimal rounded half-to-even to Scale digits.
// The zero value is 0.0000.
type Amount struct {
	d decimal.Decimal
}

var Zero = Amount{}

// round is the only place rounding happens.
func round(d decimal.Decimal) Amount {
	return Amount{d: d.RoundBank(Scale)}
}

// Parse reads a decimal literal such as "1.5", "-0.12345" or "10".
func Parse(s string) (Amount, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Zero, fmt.Errorf("amount: parse %q: %w", s, err)
	}
	return round(d), nil
}

// MustParse is Parse for literals known to be valid (tests, constants).
func MustParse(s string) Amount {
	a, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return a
}

func FromDecimal(d decimal.Decimal) Amount { return round(d) }

func FromInt(v int64) Amount { return Amount{d: decimal.NewFromInt(v)} }

func (a Amount) Add(b Amount) Amount { return round(a.d.Add(b.d)) }

func (a Amount) Sub(b Amount) Amount { return round(a.d.Sub(b.d)) }

// Cmp returns -1, 0 or +1.
func (a Amount) Cmp(b Amount) int { return a.d.Cmp(b.d) }

func (a Amount) Equal(b Amount) bool { return a.d.Equal(b.d) }

func (a Amount) LessThan(b Amount) bool { return a.d.LessThan(b.d) }

func (a Amount) IsNegative() bool { return a.d.IsNegative() }

func (a Amount) IsZero() bool { return a.d.IsZero() }

func (a Amount) Decimal() decimal.Decimal { return a.d }

// StringFixed renders exactly Scale fractional digits, e.g. "12.0000".
func (a Amount) StringFixed() string { return a.d.StringFixed(Scale) }

func (a Amount) String() string { return a.StringFixed() }

func (a Amount) MarshalText() ([]byte, error) { return []byte(a.StringFixed()), nil }

func (a *Amount) UnmarshalText(b []byte) error {
	v, err := Parse(string(b))
	if err != nil {
		return err
	}
	*a = v
	return nil
}
