package event

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chenzhangda16/payments-engine/internal/engine/amount"
)

func TestParseKind(t *testing.T) {
	for in, want := range map[string]Kind{
		"deposit":     Deposit,
		" Withdrawal": Withdrawal,
		"DISPUTE":     Dispute,
		"resolve ":    Resolve,
		"chargeback":  Chargeback,
	} {
		got, err := ParseKind(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseKind("transfer")
	assert.Error(t, err)
}

func TestKindCarriesAmount(t *testing.T) {
	assert.True(t, Deposit.CarriesAmount())
	assert.True(t, Withdrawal.CarriesAmount())
	assert.False(t, Dispute.CarriesAmount())
	assert.False(t, Resolve.CarriesAmount())
	assert.False(t, Chargeback.CarriesAmount())
	assert.Equal(t, "kind(9)", Kind(9).String())
}

func TestTxString(t *testing.T) {
	dep := Tx{Kind: Deposit, Client: 1, ID: 7, Amount: amount.MustParse("1.5")}
	assert.Equal(t, "deposit client=1 tx=7 amount=1.5000", dep.String())

	dis := Tx{Kind: Dispute, Client: 1, ID: 7}
	assert.Equal(t, "dispute client=1 tx=7", dis.String())
}
