package ingest

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/IBM/sarama"

	"github.com/chenzhangda16/payments-engine/internal/engine/event"
)

type KafkaConfig struct {
	Brokers string // comma-separated
	Topic   string

	// IdleTimeout ends a partition that yields nothing for this long.
	IdleTimeout time.Duration
}

// KafkaSource replays a topic as a finite stream: each partition is read from
// the oldest offset up to its high-water mark, one partition after another.
// Every message value is one CSV row. Producers key messages by client id, so
// one client's records share a partition and keep their order.
type KafkaSource struct {
	consumer sarama.Consumer
	topic    string
	idle     time.Duration

	parts   []int32
	started bool
	next    int

	pc       sarama.PartitionConsumer
	partDone bool
}

func NewKafkaSource(cfg KafkaConfig) (*KafkaSource, error) {
	if cfg.Topic == "" {
		return nil, errors.New("kafka topic is empty")
	}
	brokers := SplitBrokers(cfg.Brokers)
	if len(brokers) == 0 {
		return nil, errors.New("no kafka brokers")
	}

	sc := sarama.NewConfig()
	sc.Version = sarama.V2_1_0_0
	sc.Consumer.Return.Errors = true
	sc.Consumer.Offsets.Initial = sarama.OffsetOldest

	c, err := sarama.NewConsumer(brokers, sc)
	if err != nil {
		return nil, fmt.Errorf("kafka consumer: %w", err)
	}
	return NewKafkaSourceFromConsumer(c, cfg.Topic, cfg.IdleTimeout), nil
}

func NewKafkaSourceFromConsumer(c sarama.Consumer, topic string, idle time.Duration) *KafkaSource {
	if idle <= 0 {
		idle = 2 * time.Second
	}
	return &KafkaSource{consumer: c, topic: topic, idle: idle}
}

func (s *KafkaSource) Next(ctx context.Context) (event.Tx, error) {
	if !s.started {
		parts, err := s.consumer.Partitions(s.topic)
		if err != nil {
			return event.Tx{}, fmt.Errorf("kafka partitions of %s: %w", s.topic, err)
		}
		sort.Slice(parts, func(i, j int) bool { return parts[i] < parts[j] })
		s.parts = parts
		s.started = true
	}

	for {
		if s.pc != nil && s.partDone {
			s.closePartition()
		}
		if s.pc == nil {
			if s.next >= len(s.parts) {
				return event.Tx{}, io.EOF
			}
			p := s.parts[s.next]
			s.next++
			pc, err := s.consumer.ConsumePartition(s.topic, p, sarama.OffsetOldest)
			if err != nil {
				return event.Tx{}, fmt.Errorf("kafka consume %s/%d: %w", s.topic, p, err)
			}
			s.pc = pc
		}

		timer := time.NewTimer(s.idle)
		select {
		case <-ctx.Done():
			timer.Stop()
			return event.Tx{}, ctx.Err()

		case msg, ok := <-s.pc.Messages():
			timer.Stop()
			if !ok {
				s.partDone = true
				continue
			}
			if hwm := s.pc.HighWaterMarkOffset(); hwm > 0 && msg.Offset+1 >= hwm {
				s.partDone = true
			}
			tx, err := decodeMessage(msg.Value)
			if err != nil {
				return event.Tx{}, fmt.Errorf("%s/%d@%d: %w", msg.Topic, msg.Partition, msg.Offset, err)
			}
			return tx, nil

		case cerr, ok := <-s.pc.Errors():
			timer.Stop()
			if !ok {
				s.partDone = true
				continue
			}
			return event.Tx{}, fmt.Errorf("kafka %s/%d: %w", cerr.Topic, cerr.Partition, cerr.Err)

		case <-timer.C:
			// nothing new within the idle window: treat the partition as drained
			s.partDone = true
		}
	}
}

func (s *KafkaSource) closePartition() {
	s.pc.AsyncClose()
	s.pc = nil
	s.partDone = false
}

func (s *KafkaSource) Close() error {
	if s.pc != nil {
		s.closePartition()
	}
	return s.consumer.Close()
}

func decodeMessage(value []byte) (event.Tx, error) {
	r := csv.NewReader(bytes.NewReader(value))
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true
	fields, err := r.Read()
	if err != nil {
		return event.Tx{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return DecodeRow(fields)
}

// SplitBrokers splits a comma-separated broker list, dropping blanks.
func SplitBrokers(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, x := range parts {
		x = strings.TrimSpace(x)
		if x != "" {
			out = append(out, x)
		}
	}
	return out
}
