package txgen

import (
	"context"
	"testing"

	"github.com/IBM/sarama"
	"github.com/IBM/sarama/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chenzhangda16/payments-engine/internal/engine/amount"
	"github.com/chenzhangda16/payments-engine/internal/engine/event"
	"github.com/chenzhangda16/payments-engine/pkg/rng"
)

func TestProduceKeysByClient(t *testing.T) {
	sp := mocks.NewSyncProducer(t, nil)
	var got *sarama.ProducerMessage
	sp.ExpectSendMessageWithMessageCheckerFunctionAndSucceed(func(m *sarama.ProducerMessage) error {
		got = m
		return nil
	})
	p := NewProducerFrom(sp, "transactions")

	tx := event.Tx{Kind: event.Deposit, Client: 7, ID: 42, Amount: amount.MustParse("1.25")}
	require.NoError(t, p.Produce(context.Background(), tx))
	require.NoError(t, p.Close())

	require.NotNil(t, got)
	assert.Equal(t, "transactions", got.Topic)
	key, _ := got.Key.Encode()
	assert.Equal(t, "7", string(key))
	val, _ := got.Value.Encode()
	assert.Equal(t, "deposit,7,42,1.2500", string(val))
}

func TestPublish(t *testing.T) {
	sp := mocks.NewSyncProducer(t, nil)
	for i := 0; i < 25; i++ {
		sp.ExpectSendMessageAndSucceed()
	}
	p := NewProducerFrom(sp, "transactions")
	g := New(Config{Clients: 3}, rng.New(rng.Deterministic, 9))

	require.NoError(t, Publish(context.Background(), p, g, 25))
	require.NoError(t, p.Close())
}

func TestNewProducerValidates(t *testing.T) {
	_, err := NewProducer([]string{"127.0.0.1:9092"}, "")
	assert.Error(t, err)
	_, err = NewProducer(nil, "transactions")
	assert.Error(t, err)
}
