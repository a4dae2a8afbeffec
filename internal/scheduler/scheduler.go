// Package scheduler fans the registered detectors out over every known
// wallet on a bounded worker pool and writes deduplicated alerts.
package scheduler

import (
	"context"
	"fmt"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/wallet-sentinel/internal/detector"
	"github.com/wallet-sentinel/internal/logging"
)

// WalletSource lists the wallet universe to sweep.
type WalletSource interface {
	Addresses(ctx context.Context) ([]string, error)
}

// AlertSink persists alerts with at-most-once semantics per dedup key.
type AlertSink interface {
	SaveIfAbsent(ctx context.Context, wallet, detectorName string, payload map[string]interface{}) (bool, error)
}

// Summary reports what one sweep did.
type Summary struct {
	Wallets           int
	AlertsCreated     int64
	DuplicatesSkipped int64
	Failures          int64
}

// Scheduler runs the detection sweep. A sweep is idempotent: re-running it
// over unchanged history creates zero new alerts.
type Scheduler struct {
	wallets  WalletSource
	alerts   AlertSink
	registry *detector.Registry
	workers  int
	log      *logging.Logger
}

// NewScheduler creates a detection scheduler
func NewScheduler(wallets WalletSource, alerts AlertSink, registry *detector.Registry, workers int, log *logging.Logger) *Scheduler {
	if workers < 1 {
		workers = 1
	}
	return &Scheduler{
		wallets:  wallets,
		alerts:   alerts,
		registry: registry,
		workers:  workers,
		log:      log,
	}
}

// Run sweeps every wallet through every registered detector. Failures of a
// single (wallet, detector) run are logged and counted without stopping
// the sweep; only wallet enumeration failure or context cancellation abort
// it.
func (s *Scheduler) Run(ctx context.Context) (*Summary, error) {
	addresses, err := s.wallets.Addresses(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list wallets: %w", err)
	}

	var created, skipped, failures atomic.Int64

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)

	for _, wallet := range addresses {
		wallet := wallet
		g.Go(func() error {
			for _, d := range s.registry.Detectors() {
				if err := ctx.Err(); err != nil {
					return err
				}

				events, err := d.Run(ctx, wallet)
				if err != nil {
					failures.Add(1)
					s.log.WithFields(map[string]interface{}{
						"wallet":   wallet,
						"detector": d.Name(),
					}).WithError(err).Warn("detector run failed")
					continue
				}

				for _, event := range events {
					inserted, err := s.alerts.SaveIfAbsent(ctx, wallet, event.Detector, event.Payload)
					if err != nil {
						failures.Add(1)
						s.log.WithFields(map[string]interface{}{
							"wallet":   wallet,
							"detector": event.Detector,
						}).WithError(err).Warn("alert save failed")
						continue
					}
					if inserted {
						created.Add(1)
					} else {
						skipped.Add(1)
					}
				}
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	summary := &Summary{
		Wallets:           len(addresses),
		AlertsCreated:     created.Load(),
		DuplicatesSkipped: skipped.Load(),
		Failures:          failures.Load(),
	}

	s.log.WithFields(map[string]interface{}{
		"wallets":    summary.Wallets,
		"created":    summary.AlertsCreated,
		"duplicates": summary.DuplicatesSkipped,
		"failures":   summary.Failures,
	}).Info("detection sweep finished")

	return summary, nil
}
