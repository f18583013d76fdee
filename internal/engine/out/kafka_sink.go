package out

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/IBM/sarama"
	"go.uber.org/zap"

	"github.com/chenzhangda16/payments-engine/internal/engine/account"
	"github.com/chenzhangda16/payments-engine/internal/engine/retry"
)

// KafkaSink publishes one Envelope per account, keyed by client id, so every
// client's snapshots land on the same partition.
type KafkaSink struct {
	topic string
	run   string
	p     sarama.SyncProducer
	retry retry.Policy
	now   func() time.Time
}

func NewKafkaSink(brokers []string, topic, run string, log *zap.Logger) (*KafkaSink, error) {
	cfg := sarama.NewConfig()
	cfg.Producer.Return.Successes = true
	cfg.Producer.Return.Errors = true
	cfg.Producer.RequiredAcks = sarama.WaitForAll
	cfg.Producer.Partitioner = sarama.NewHashPartitioner

	p, err := sarama.NewSyncProducer(brokers, cfg)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}
	return NewKafkaSinkFromProducer(p, topic, run, log), nil
}

func NewKafkaSinkFromProducer(p sarama.SyncProducer, topic, run string, log *zap.Logger) *KafkaSink {
	if log == nil {
		log = zap.NewNop()
	}
	return &KafkaSink{
		topic: topic,
		run:   run,
		p:     p,
		retry: retry.Default().WithLog(log, "kafka send"),
		now:   time.Now,
	}
}

func (s *KafkaSink) Close() error {
	if s.p != nil {
		return s.p.Close()
	}
	return nil
}

func (s *KafkaSink) Emit(ctx context.Context, snaps []account.Snapshot) error {
	ts := s.now().UnixMilli()
	for _, snap := range snaps {
		msg, err := s.message(snap, ts)
		if err != nil {
			return err
		}
		// SyncProducer 不吃 ctx，由 retry 负责取消
		err = retry.Do(ctx, s.retry, func(context.Context) error {
			_, _, err := s.p.SendMessage(msg)
			return err
		})
		if err != nil {
			return fmt.Errorf("kafka emit client %d: %w", snap.Client, err)
		}
	}
	return nil
}

func (s *KafkaSink) message(snap account.Snapshot, ts int64) (*sarama.ProducerMessage, error) {
	data, err := json.Marshal(snap)
	if err != nil {
		return nil, err
	}
	b, err := json.Marshal(Envelope{Type: TypeAccount, Run: s.run, TS: ts, Data: data})
	if err != nil {
		return nil, err
	}
	return &sarama.ProducerMessage{
		Topic: s.topic,
		Key:   sarama.StringEncoder(strconv.FormatUint(uint64(snap.Client), 10)),
		Value: sarama.ByteEncoder(b),
	}, nil
}
