// Package retry runs output side effects (Kafka sends, Postgres inserts) with
// capped exponential backoff. Account processing itself never retries.
package retry

import (
	"context"
	"errors"
	"math/rand"
	"time"

	"go.uber.org/zap"
)

type Class int

const (
	Retryable Class = iota
	Fatal
)

type Policy struct {
	MaxAttempts int           // e.g. 5
	BaseDelay   time.Duration // e.g. 100ms
	MaxDelay    time.Duration // e.g. 5s
	Jitter      time.Duration // <= BaseDelay

	// Classify decides whether an error is retryable. If nil, errors marked
	// with Permanent are fatal and everything else is retried.
	Classify func(error) Class

	OnRetry func(attempt int, wait time.Duration, err error)
}

// Default is the policy used by the sinks.
func Default() Policy {
	return Policy{
		MaxAttempts: 5,
		BaseDelay:   100 * time.Millisecond,
		MaxDelay:    2 * time.Second,
		Jitter:      50 * time.Millisecond,
	}
}

// WithLog returns p with OnRetry logging each retry of op at warn level.
func (p Policy) WithLog(log *zap.Logger, op string) Policy {
	p.OnRetry = func(attempt int, wait time.Duration, err error) {
		log.Warn("retrying", zap.String("op", op), zap.Int("attempt", attempt),
			zap.Duration("wait", wait), zap.Error(err))
	}
	return p
}

type permanent struct{ err error }

func (p permanent) Error() string { return p.err.Error() }
func (p permanent) Unwrap() error { return p.err }

// Permanent marks err as not worth retrying under the default classifier.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return permanent{err}
}

func classifyDefault(err error) Class {
	var p permanent
	if errors.As(err, &p) {
		return Fatal
	}
	return Retryable
}

func Do(ctx context.Context, p Policy, fn func(context.Context) error) error {
	if p.MaxAttempts <= 0 {
		p.MaxAttempts = 1
	}
	if p.BaseDelay <= 0 {
		p.BaseDelay = 100 * time.Millisecond
	}
	if p.MaxDelay <= 0 {
		p.MaxDelay = 5 * time.Second
	}
	if p.Jitter < 0 {
		p.Jitter = 0
	}
	classify := p.Classify
	if classify == nil {
		classify = classifyDefault
	}

	var lastErr error
	for attempt := 1; attempt <= p.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		err := fn(ctx)
		if err == nil {
			return nil
		}
		lastErr = err

		if classify(err) == Fatal {
			return err
		}
		if attempt == p.MaxAttempts {
			break
		}

		// 指数退避，封顶 + jitter
		wait := p.BaseDelay << (attempt - 1)
		if wait > p.MaxDelay || wait <= 0 {
			wait = p.MaxDelay
		}
		if p.Jitter > 0 {
			wait += time.Duration(rand.Int63n(int64(p.Jitter)))
		}
		if p.OnRetry != nil {
			p.OnRetry(attempt, wait, err)
		}

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
	return lastErr
}
