package app

import (
	"errors"
	"time"
)

type Config struct {
	// 输入：CSV 文件路径，或 Kafka topic，二选一
	InputPath    string
	KafkaBrokers string // comma-separated
	KafkaTopic   string
	KafkaIdle    time.Duration

	// 输出：CSV 始终写出（文件或 stdout），Kafka / Postgres 可选
	OutPath       string
	OutKafkaTopic string
	PGDSN         string
}

var (
	ErrNoInput  = errors.New("no input: give a CSV path or -kafka-topic")
	ErrTwoInput = errors.New("both a CSV path and -kafka-topic given")
)

func (c *Config) validate() error {
	hasKafka := c.KafkaTopic != ""
	switch {
	case c.InputPath == "" && !hasKafka:
		return ErrNoInput
	case c.InputPath != "" && hasKafka:
		return ErrTwoInput
	}
	if c.OutKafkaTopic != "" && c.KafkaBrokers == "" {
		return errors.New("-out-kafka-topic needs -kafka-brokers")
	}
	if c.KafkaIdle <= 0 {
		c.KafkaIdle = 2 * time.Second
	}
	return nil
}
