// Package main provides the detection sweep entry point. It runs every
// registered detector over every known wallet and writes deduplicated
// alerts, then exits. Intended to be run from cron.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/wallet-sentinel/internal/config"
	"github.com/wallet-sentinel/internal/detector"
	"github.com/wallet-sentinel/internal/logging"
	"github.com/wallet-sentinel/internal/scheduler"
	"github.com/wallet-sentinel/internal/storage"
)

func main() {
	alertsFor := flag.String("alerts", "", "List stored alerts for a wallet, newest first, instead of sweeping")
	flag.Parse()

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

	txRepo := storage.NewTransactionRepository(postgres)
	walletRepo := storage.NewWalletRepository(postgres)
	alertRepo := storage.NewAlertRepository(postgres)

	if *alertsFor != "" {
		alerts, err := alertRepo.ListByWallet(ctx, *alertsFor)
		if err != nil {
			log.Fatalf("Failed to list alerts: %v", err)
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(alerts); err != nil {
			log.Fatalf("Failed to encode alerts: %v", err)
		}
		return
	}

	log.Println("Detection sweep starting...")

	registry := detector.DefaultRegistry(txRepo, cfg.Detection)
	sched := scheduler.NewScheduler(walletRepo, alertRepo, registry, cfg.Detection.Workers, logger)

	summary, err := sched.Run(ctx)
	if err != nil {
		log.Fatalf("Detection sweep failed: %v", err)
	}

	log.Printf("Detection sweep done: %d wallets, %d alerts created, %d duplicates skipped, %d failures",
		summary.Wallets, summary.AlertsCreated, summary.DuplicatesSkipped, summary.Failures)
}
