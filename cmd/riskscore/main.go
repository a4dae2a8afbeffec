// Package main provides the risk scoring entry point. Without flags it
// scores every wallet that lacks a risk row; with -wallet it rescores one
// wallet eagerly and prints its profile.
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
	"github.com/wallet-sentinel/internal/risk"
	"github.com/wallet-sentinel/internal/storage"
)

func main() {
	var (
		wallet   = flag.String("wallet", "", "Score a single wallet eagerly and print its risk row")
		summary  = flag.Bool("summary", false, "With -wallet: print the full wallet summary instead")
		overview = flag.Bool("overview", false, "Print the risk distribution and anomaly rollup")
		repeated = flag.Bool("repeated", false, "With -wallet: print repeated-value groups")
	)
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
	riskRepo := storage.NewRiskRepository(postgres)
	blacklistRepo := storage.NewBlacklistRepository(postgres)
	walletRepo := storage.NewWalletRepository(postgres)

	scorer := risk.NewScorer(cfg.Risk)
	service := risk.NewService(txRepo, riskRepo, blacklistRepo, walletRepo, scorer, logger)

	switch {
	case *overview:
		rollup, err := service.BuildOverview(ctx)
		if err != nil {
			log.Fatalf("Failed to build risk overview: %v", err)
		}
		printJSON(rollup)

	case *wallet != "":
		if err := storage.ValidateAddress(*wallet); err != nil {
			log.Fatalf("Invalid wallet address: %v", err)
		}
		target := storage.NormalizeAddress(*wallet)

		if *repeated {
			d := detector.NewRepeatedValueDetector(txRepo, cfg.Detection.RepeatedMinTx, cfg.Detection.RepeatedOccurrence)
			groups, err := d.Groups(ctx, target)
			if err != nil {
				log.Fatalf("Failed to compute repeated-value groups: %v", err)
			}
			printJSON(groups)
			return
		}

		if *summary {
			printWalletReport(ctx, service, target)
			return
		}

		result, err := service.ScoreWallet(ctx, target)
		if err != nil {
			log.Fatalf("Failed to score wallet: %v", err)
		}
		printJSON(result)

	default:
		scored, err := service.ScoreUnscored(ctx)
		if err != nil {
			log.Fatalf("Batch scoring failed: %v", err)
		}
		log.Printf("Batch scoring done: %d wallets scored", scored)
	}
}

func printWalletReport(ctx context.Context, service *risk.Service, wallet string) {
	walletSummary, err := service.Summary(ctx, wallet)
	if err != nil {
		log.Fatalf("Failed to build wallet summary: %v", err)
	}

	top, receivers, senders, err := service.TopActivity(ctx, wallet)
	if err != nil {
		log.Fatalf("Failed to read top activity: %v", err)
	}

	blacklistEntry, err := service.Blacklisted(ctx, wallet)
	if err != nil {
		log.Fatalf("Failed to check blacklist: %v", err)
	}

	blacklistHits, err := service.BlacklistInteractions(ctx, wallet)
	if err != nil {
		log.Fatalf("Failed to list blacklist interactions: %v", err)
	}

	riskyHits, err := service.RiskyInteractions(ctx, wallet)
	if err != nil {
		log.Fatalf("Failed to list risky interactions: %v", err)
	}

	printJSON(map[string]interface{}{
		"summary":                walletSummary,
		"top_transactions":       top,
		"top_receivers":          receivers,
		"top_senders":            senders,
		"blacklist_entry":        blacklistEntry,
		"blacklist_interactions": blacklistHits,
		"risky_interactions":     riskyHits,
	})
}

func printJSON(v interface{}) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		log.Fatalf("Failed to encode output: %v", err)
	}
}
