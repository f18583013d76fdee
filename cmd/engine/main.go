package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/chenzhangda16/payments-engine/internal/engine/app"
	"github.com/chenzhangda16/payments-engine/internal/engine/store/rocks"
	"github.com/chenzhangda16/payments-engine/pkg/obs"
)

func main() {
	// .env 可选，不存在时只用真实环境变量
	_ = godotenv.Load()

	var (
		kafkaBrokers = flag.String("kafka-brokers", "127.0.0.1:9092", "kafka brokers csv")
		kafkaTopic   = flag.String("kafka-topic", "", "read transactions from this topic instead of a CSV file")
		kafkaIdle    = flag.Duration("kafka-idle", 2*time.Second, "end a partition after this long without messages")

		outPath       = flag.String("out", "", "write the report to this file instead of stdout")
		outKafkaTopic = flag.String("out-kafka-topic", "", "also publish the report to this topic")
		pgDSN         = flag.String("pg", os.Getenv("PG_DSN"), "also store the report in postgres (dsn, default $PG_DSN)")

		ledgerDir = flag.String("ledger-dir", "", "keep deposit ledgers in a RocksDB scratch dir under this path")
		logLevel  = flag.String("log-level", envOr("ENGINE_LOG_LEVEL", "warn"), "debug|info|warn|error")
	)
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: %s [flags] transactions.csv > accounts.csv\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	log, err := obs.Init("engine", *logLevel)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	if flag.NArg() > 1 {
		flag.Usage()
		os.Exit(1)
	}

	cfg := app.Config{
		InputPath:     flag.Arg(0),
		KafkaTopic:    *kafkaTopic,
		KafkaBrokers:  *kafkaBrokers,
		KafkaIdle:     *kafkaIdle,
		OutPath:       *outPath,
		OutKafkaTopic: *outKafkaTopic,
		PGDSN:         *pgDSN,
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, cfg, *ledgerDir, log); err != nil {
		log.Error("engine failed", zap.Error(err))
		_ = log.Sync()
		cancel()
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg app.Config, ledgerDir string, log *zap.Logger) error {
	var opts []app.Option
	if ledgerDir != "" {
		store, err := rocks.Open(filepath.Join(ledgerDir, "ledger-"+uuid.NewString()))
		if err != nil {
			return fmt.Errorf("open ledger dir: %w", err)
		}
		defer func() {
			if err := store.Close(); err != nil {
				log.Warn("remove ledger dir", zap.Error(err))
			}
		}()
		opts = append(opts, app.WithLedgers(store.Ledger))
	}

	a, err := app.New(ctx, cfg, log, opts...)
	if err != nil {
		return err
	}
	return a.Run(ctx)
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
