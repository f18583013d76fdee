package amount

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRoundsHalfToEven(t *testing.T) {
	cases := map[string]string{
		"0.12345":   "0.1234",
		"0.12355":   "0.1236",
		"1.00005":   "1.0000",
		"1.00015":   "1.0002",
		"140.12344": "140.1234",
		"-0.12345":  "-0.1234",
		"10":        "10.0000",
		"0.00004":   "0.0000",
	}
	for in, want := range cases {
		got, err := Parse(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got.StringFixed(), in)
	}
}

func TestParseRejectsGarbage(t *testing.T) {
	for _, in := range []string{"", "abc", "1.2.3", "1,5"} {
		_, err := Parse(in)
		assert.Error(t, err, in)
	}
}

func TestArithmeticRounds(t *testing.T) {
	a := FromDecimal(decimal.RequireFromString("100.00002"))
	b := MustParse("140.12344")

	sum := a.Add(b)
	assert.Equal(t, "240.1234", sum.StringFixed())
	assert.True(t, sum.Sub(b).Equal(MustParse("100")))
}

func TestCompare(t *testing.T) {
	small := MustParse("1.5")
	big := MustParse("2")

	assert.Equal(t, -1, small.Cmp(big))
	assert.Equal(t, 1, big.Cmp(small))
	assert.True(t, small.LessThan(big))
	assert.False(t, big.LessThan(small))

	// equal after rounding means indistinguishable
	assert.True(t, MustParse("1.00005").Equal(MustParse("1")))
	assert.Equal(t, 0, MustParse("0.12345").Cmp(MustParse("0.1234")))
}

func TestZeroValue(t *testing.T) {
	var a Amount
	assert.True(t, a.IsZero())
	assert.False(t, a.IsNegative())
	assert.Equal(t, "0.0000", a.StringFixed())
	assert.True(t, Zero.Sub(MustParse("1")).IsNegative())
	assert.Equal(t, "7.0000", FromInt(7).String())
}

func TestJSON(t *testing.T) {
	b, err := json.Marshal(struct {
		V Amount `json:"v"`
	}{V: MustParse("3.14159")})
	require.NoError(t, err)
	assert.JSONEq(t, `{"v":"3.1416"}`, string(b))

	var out struct {
		V Amount `json:"v"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"v":"2.00005"}`), &out))
	assert.Equal(t, "2.0000", out.V.StringFixed())
}
