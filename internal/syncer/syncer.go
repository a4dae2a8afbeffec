// Package syncer replicates the ledger into the wallet-relationship graph
// in rate-limited batches. Every graph write is a merge keyed on stable
// identities, so replaying the sync never duplicates nodes or edges.
package syncer

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"

	"github.com/wallet-sentinel/internal/config"
	"github.com/wallet-sentinel/internal/logging"
	"github.com/wallet-sentinel/internal/models"
)

// TransactionSource streams the full ledger transaction set.
type TransactionSource interface {
	ForEachTransaction(ctx context.Context, fn func(*models.Transaction) error) error
}

// BlacklistSource lists the curated blacklist addresses.
type BlacklistSource interface {
	Addresses(ctx context.Context) ([]string, error)
}

// GraphWriter is the merge surface of the graph store.
type GraphWriter interface {
	MergeTransactions(ctx context.Context, txs []*models.Transaction) error
	LabelBlacklisted(ctx context.Context, addresses []string) (int64, error)
}

// Summary reports what one sync run wrote.
type Summary struct {
	Transactions int64
	Batches      int
	Labeled      int64
}

// Syncer copies ledger transactions and blacklist labels into the graph.
type Syncer struct {
	ledger    TransactionSource
	blacklist BlacklistSource
	graph     GraphWriter
	cfg       config.SyncConfig
	limiter   *rate.Limiter
	log       *logging.Logger
}

// NewSyncer creates a ledger-to-graph synchronizer
func NewSyncer(ledger TransactionSource, blacklist BlacklistSource, graph GraphWriter, cfg config.SyncConfig, log *logging.Logger) *Syncer {
	if cfg.TxBatchSize < 1 {
		cfg.TxBatchSize = 1
	}
	if cfg.LabelBatchSize < 1 {
		cfg.LabelBatchSize = 1
	}

	limiter := rate.NewLimiter(rate.Inf, 1)
	if cfg.BatchesPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.BatchesPerSecond), 1)
	}

	return &Syncer{
		ledger:    ledger,
		blacklist: blacklist,
		graph:     graph,
		cfg:       cfg,
		limiter:   limiter,
		log:       log,
	}
}

// Run replays the ledger into the graph and then applies blacklist labels.
// A failed batch aborts the run; the merge semantics make the next run pick
// up where this one left off without double-writing.
func (s *Syncer) Run(ctx context.Context) (*Summary, error) {
	summary := &Summary{}

	if err := s.syncTransactions(ctx, summary); err != nil {
		return nil, err
	}
	if err := s.syncBlacklist(ctx, summary); err != nil {
		return nil, err
	}

	s.log.WithFields(map[string]interface{}{
		"transactions": summary.Transactions,
		"batches":      summary.Batches,
		"labeled":      summary.Labeled,
	}).Info("graph sync finished")

	return summary, nil
}

func (s *Syncer) syncTransactions(ctx context.Context, summary *Summary) error {
	batch := make([]*models.Transaction, 0, s.cfg.TxBatchSize)

	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		if err := s.limiter.Wait(ctx); err != nil {
			return err
		}
		if err := s.graph.MergeTransactions(ctx, batch); err != nil {
			return fmt.Errorf("failed to merge batch %d: %w", summary.Batches+1, err)
		}
		summary.Transactions += int64(len(batch))
		summary.Batches++
		batch = batch[:0]
		return nil
	}

	err := s.ledger.ForEachTransaction(ctx, func(tx *models.Transaction) error {
		batch = append(batch, tx)
		if len(batch) >= s.cfg.TxBatchSize {
			return flush()
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to stream transactions: %w", err)
	}

	return flush()
}

func (s *Syncer) syncBlacklist(ctx context.Context, summary *Summary) error {
	addresses, err := s.blacklist.Addresses(ctx)
	if err != nil {
		return fmt.Errorf("failed to list blacklist: %w", err)
	}

	for start := 0; start < len(addresses); start += s.cfg.LabelBatchSize {
		end := start + s.cfg.LabelBatchSize
		if end > len(addresses) {
			end = len(addresses)
		}

		if err := s.limiter.Wait(ctx); err != nil {
			return err
		}
		labeled, err := s.graph.LabelBlacklisted(ctx, addresses[start:end])
		if err != nil {
			return fmt.Errorf("failed to label blacklist batch: %w", err)
		}
		summary.Labeled += labeled
	}

	return nil
}
