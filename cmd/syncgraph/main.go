// Package main provides the ledger-to-graph sync entry point. It replays
// the transaction ledger into the wallet graph and applies blacklist
// labels, then exits. Safe to re-run at any time.
package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"github.com/wallet-sentinel/internal/config"
	"github.com/wallet-sentinel/internal/logging"
	"github.com/wallet-sentinel/internal/storage"
	"github.com/wallet-sentinel/internal/syncer"
)

func main() {
	log.Println("Graph sync starting...")

	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logging.InitGlobalLogger(
		logging.ParseLogLevel(cfg.Logging.Level),
		logging.ParseLogFormat(cfg.Logging.Format),
	)
	logger := logging.GetGlobalLogger()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Connect to Postgres
	postgres, err := storage.NewPostgresDB(&cfg.Database.Postgres)
	if err != nil {
		log.Fatalf("Failed to connect to Postgres: %v", err)
	}
	defer postgres.Close()

	// Connect to the graph store
	graph, err := storage.NewGraphStore(&cfg.Database.Redis)
	if err != nil {
		log.Fatalf("Failed to connect to graph store: %v", err)
	}
	defer graph.Close()

	txRepo := storage.NewTransactionRepository(postgres)
	blacklistRepo := storage.NewBlacklistRepository(postgres)

	s := syncer.NewSyncer(txRepo, blacklistRepo, graph, cfg.Sync, logger)
	summary, err := s.Run(ctx)
	if err != nil {
		log.Fatalf("Graph sync failed: %v", err)
	}

	log.Printf("Graph sync done: %d transactions in %d batches, %d blacklist labels",
		summary.Transactions, summary.Batches, summary.Labeled)
}
