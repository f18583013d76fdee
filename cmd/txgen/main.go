package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/chenzhangda16/payments-engine/internal/engine/ingest"
	"github.com/chenzhangda16/payments-engine/internal/txgen"
	"github.com/chenzhangda16/payments-engine/pkg/obs"
	"github.com/chenzhangda16/payments-engine/pkg/rng"
)

func main() {
	var (
		seed      = flag.Int64("seed", 1, "rng seed (deterministic mode)")
		clock     = flag.Bool("real", false, "seed from the clock instead of -seed")
		clients   = flag.Int("clients", 100, "number of client ids")
		count     = flag.Int("n", 10000, "number of rows")
		maxAmount = flag.Int64("max-amount", 1000, "max amount in whole units")
		out       = flag.String("out", "", "output file (default stdout)")
		brokers   = flag.String("kafka-brokers", "", "publish to kafka instead of writing CSV")
		topic     = flag.String("kafka-topic", "transactions", "topic for -kafka-brokers")
		logLevel  = flag.String("log-level", "info", "log level")
	)
	flag.Parse()

	log, err := obs.Init("txgen", *logLevel)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	defer func() { _ = log.Sync() }()

	mode := rng.Deterministic
	if *clock {
		mode = rng.Real
	}
	rf := rng.New(mode, *seed)
	g := txgen.New(txgen.Config{Clients: *clients, MaxAmount: *maxAmount}, rf)

	if *brokers != "" {
		ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer cancel()

		p, err := txgen.NewProducer(ingest.SplitBrokers(*brokers), *topic)
		if err != nil {
			log.Fatal("kafka producer", zap.Error(err))
		}
		defer p.Close()
		if err := txgen.Publish(ctx, p, g, *count); err != nil {
			log.Error("publish", zap.Error(err))
			return
		}
		log.Info("published", zap.Int("rows", *count), zap.String("topic", *topic), zap.Int64("seed", rf.Seed()))
		return
	}

	w := os.Stdout
	if *out != "" {
		f, err := os.Create(*out)
		if err != nil {
			log.Fatal("create output", zap.Error(err))
		}
		defer f.Close()
		w = f
	}

	bw := bufio.NewWriter(w)
	if err := txgen.WriteCSV(bw, g, *count); err != nil {
		log.Fatal("write rows", zap.Error(err))
	}
	if err := bw.Flush(); err != nil {
		log.Fatal("flush", zap.Error(err))
	}
	log.Info("generated", zap.Int("rows", *count), zap.Int64("seed", rf.Seed()))
}
