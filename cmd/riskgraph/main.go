// Package main provides the transitive risk query entry point: which
// blacklisted wallets can reach a target within the hop limit, and the
// renderable exposure graph.
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
	"github.com/wallet-sentinel/internal/graphrisk"
	"github.com/wallet-sentinel/internal/logging"
	"github.com/wallet-sentinel/internal/storage"
)

func main() {
	var (
		wallet       = flag.String("wallet", "", "Target wallet address (required)")
		render       = flag.Bool("render", false, "Print the exposure graph instead of the exposure list")
		neighborhood = flag.Bool("neighborhood", false, "Print the direct-neighbor graph")
	)
	flag.Parse()

	if *wallet == "" {
		flag.Usage()
		os.Exit(2)
	}

	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logging.InitGlobalLogger(
		logging.ParseLogLevel(cfg.Logging.Level),
		logging.ParseLogFormat(cfg.Logging.Format),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Connect to the graph store
	graph, err := storage.NewGraphStore(&cfg.Database.Redis)
	if err != nil {
		log.Fatalf("Failed to connect to graph store: %v", err)
	}
	defer graph.Close()

	grapher := graphrisk.NewGrapher(graph, cfg.Traversal)

	switch {
	case *neighborhood:
		rg, err := grapher.Neighborhood(ctx, *wallet)
		if err != nil {
			log.Fatalf("Neighborhood query failed: %v", err)
		}
		printJSON(rg)

	case *render:
		rg, err := grapher.BuildGraph(ctx, *wallet)
		if err != nil {
			log.Fatalf("Exposure graph query failed: %v", err)
		}
		printJSON(rg)

	default:
		exposures, err := grapher.Exposures(ctx, *wallet)
		if err != nil {
			log.Fatalf("Exposure query failed: %v", err)
		}
		printJSON(exposures)
	}
}

func printJSON(v interface{}) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		log.Fatalf("Failed to encode output: %v", err)
	}
}
