// Package app wires one engine run: open the input, route every record to its
// account worker, wait for the drain, then publish the report to every sink.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/chenzhangda16/payments-engine/internal/engine/account"
	"github.com/chenzhangda16/payments-engine/internal/engine/collector"
	"github.com/chenzhangda16/payments-engine/internal/engine/dispatcher"
	"github.com/chenzhangda16/payments-engine/internal/engine/ingest"
	"github.com/chenzhangda16/payments-engine/internal/engine/out"
	"github.com/chenzhangda16/payments-engine/internal/engine/registry"
	"github.com/chenzhangda16/payments-engine/internal/engine/worker"
	"github.com/chenzhangda16/payments-engine/internal/engine/writer"
)

// LedgerFactory returns the ledger of a client seen for the first time.
type LedgerFactory func(client uint16) account.Ledger

type App struct {
	cfg Config
	log *zap.Logger
	run string

	stdout  io.Writer
	src     ingest.Source
	ledgers LedgerFactory
	sinks   []out.Sink
}

type Option func(*App)

// WithSource replaces the source named by the config.
func WithSource(src ingest.Source) Option { return func(a *App) { a.src = src } }

// WithLedgers replaces the in-memory ledgers, e.g. with RocksDB views.
func WithLedgers(f LedgerFactory) Option { return func(a *App) { a.ledgers = f } }

// WithStdout redirects the CSV report when no -out file is set.
func WithStdout(w io.Writer) Option { return func(a *App) { a.stdout = w } }

// WithSink adds an extra report sink.
func WithSink(s out.Sink) Option { return func(a *App) { a.sinks = append(a.sinks, s) } }

// New validates cfg and connects the optional Kafka and Postgres sinks, so a
// misconfigured output fails before any input is read.
func New(ctx context.Context, cfg Config, log *zap.Logger, opts ...Option) (*App, error) {
	if log == nil {
		log = zap.NewNop()
	}
	a := &App{
		log:    log,
		run:    uuid.NewString(),
		stdout: os.Stdout,
	}
	for _, o := range opts {
		o(a)
	}
	if a.src == nil {
		if err := cfg.validate(); err != nil {
			return nil, err
		}
	}
	a.cfg = cfg

	if err := a.openSinks(ctx); err != nil {
		a.closeSinks()
		return nil, err
	}
	return a, nil
}

func (a *App) RunID() string { return a.run }

func (a *App) openSinks(ctx context.Context) error {
	if a.cfg.OutPath != "" {
		a.sinks = append([]out.Sink{out.NewCSVFileSink(a.cfg.OutPath)}, a.sinks...)
	} else {
		a.sinks = append([]out.Sink{out.NewCSVSink(a.stdout)}, a.sinks...)
	}

	if a.cfg.OutKafkaTopic != "" {
		ks, err := out.NewKafkaSink(ingest.SplitBrokers(a.cfg.KafkaBrokers), a.cfg.OutKafkaTopic, a.run, a.log.Named("kafka-sink"))
		if err != nil {
			return err
		}
		a.sinks = append(a.sinks, ks)
	}
	if a.cfg.PGDSN != "" {
		pw, err := writer.NewPGWriter(ctx, a.cfg.PGDSN, a.run, a.log.Named("pg"))
		if err != nil {
			return err
		}
		a.sinks = append(a.sinks, pw)
		if err := pw.EnsureSchema(ctx); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}

func (a *App) openSource() (ingest.Source, error) {
	if a.src != nil {
		return a.src, nil
	}
	if a.cfg.InputPath != "" {
		return ingest.OpenCSVFile(a.cfg.InputPath)
	}
	return ingest.NewKafkaSource(ingest.KafkaConfig{
		Brokers:     a.cfg.KafkaBrokers,
		Topic:       a.cfg.KafkaTopic,
		IdleTimeout: a.cfg.KafkaIdle,
	})
}

// Run processes the whole input and emits the report. Any returned error
// means no sink received anything, except when the error comes from a sink.
func (a *App) Run(ctx context.Context) error {
	defer a.closeSinks()

	src, err := a.openSource()
	if err != nil {
		return err
	}
	defer src.Close()

	ledgers := a.ledgers
	if ledgers == nil {
		ledgers = func(uint16) account.Ledger { return account.NewMemLedger() }
	}
	report := dispatcher.NewReporter(a.log.Named("account"))
	reg := registry.New(func(client uint16) *worker.Worker {
		return worker.New(account.New(client, ledgers(client)), report)
	})

	a.log.Info("run started", zap.String("run", a.run))
	d := dispatcher.New(reg, dispatcher.WithLogger(a.log.Named("dispatcher")))
	if _, err := d.Run(ctx, src); err != nil {
		return err
	}

	snaps := collector.Collect(reg)
	var errs []error
	for _, s := range a.sinks {
		if err := s.Emit(ctx, snaps); err != nil {
			errs = append(errs, err)
		}
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("emit report: %w", err)
	}
	a.log.Info("report emitted", zap.Int("accounts", len(snaps)), zap.Int("sinks", len(a.sinks)))
	return nil
}

func (a *App) closeSinks() {
	for _, s := range a.sinks {
		if err := s.Close(); err != nil {
			a.log.Warn("close sink", zap.Error(err))
		}
	}
	a.sinks = nil
}
