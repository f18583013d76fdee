package txgen

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"strconv"
	"time"

	"github.com/IBM/sarama"

	"github.com/chenzhangda16/payments-engine/internal/engine/event"
)

// Producer publishes records as one CSV row per message, keyed by client id,
// which is the layout the engine's Kafka input reads.
type Producer struct {
	topic string
	sp    sarama.SyncProducer
	buf   bytes.Buffer
}

func NewProducer(brokers []string, topic string) (*Producer, error) {
	if topic == "" {
		return nil, errors.New("topic empty")
	}
	if len(brokers) == 0 {
		return nil, errors.New("no brokers")
	}

	cfg := sarama.NewConfig()
	cfg.Producer.RequiredAcks = sarama.WaitForAll
	cfg.Producer.Retry.Max = 10
	cfg.Producer.Retry.Backoff = 200 * time.Millisecond
	// SyncProducer 必须 Return.Successes=true
	cfg.Producer.Return.Successes = true
	cfg.Producer.Return.Errors = true
	// 同一 client 的记录必须按顺序落在同一分区
	cfg.Producer.Idempotent = true
	cfg.Net.MaxOpenRequests = 1
	cfg.Producer.Partitioner = sarama.NewHashPartitioner
	cfg.Version = sarama.V2_1_0_0

	sp, err := sarama.NewSyncProducer(brokers, cfg)
	if err != nil {
		return nil, err
	}
	return NewProducerFrom(sp, topic), nil
}

func NewProducerFrom(sp sarama.SyncProducer, topic string) *Producer {
	return &Producer{topic: topic, sp: sp}
}

func (p *Producer) Close() error {
	if p.sp != nil {
		return p.sp.Close()
	}
	return nil
}

// Produce sends tx and waits for the broker ack.
func (p *Producer) Produce(ctx context.Context, tx event.Tx) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	p.buf.Reset()
	cw := csv.NewWriter(&p.buf)
	if err := cw.Write(Row(tx)); err != nil {
		return err
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return err
	}

	msg := &sarama.ProducerMessage{
		Topic: p.topic,
		Key:   sarama.StringEncoder(strconv.FormatUint(uint64(tx.Client), 10)),
		Value: sarama.ByteEncoder(append([]byte(nil), bytes.TrimRight(p.buf.Bytes(), "\n")...)),
	}
	_, _, err := p.sp.SendMessage(msg)
	return err
}

// Publish sends n generated records.
func Publish(ctx context.Context, p *Producer, g *Gen, n int) error {
	for i := 0; i < n; i++ {
		if err := p.Produce(ctx, g.Next()); err != nil {
			return err
		}
	}
	return nil
}
