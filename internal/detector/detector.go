// Package detector implements the suspicious-pattern detectors that run
// against a wallet's ledger history and emit alert events.
package detector

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/wallet-sentinel/internal/config"
	"github.com/wallet-sentinel/internal/models"
)

// Ledger is the transaction history surface detectors read from.
type Ledger interface {
	ListByWallet(ctx context.Context, wallet string) ([]*models.Transaction, error)
}

// Event is one detection finding before persistence. Payload always carries
// a numeric "timestamp" field; together with the wallet and detector name it
// forms the alert dedup key.
type Event struct {
	Detector string
	Payload  map[string]interface{}
}

// Detector inspects one wallet's full history and returns zero or more
// events. Implementations are stateless and safe for concurrent use.
type Detector interface {
	Name() string
	Run(ctx context.Context, wallet string) ([]Event, error)
}

// Registry holds the detector set the scheduler fans out over.
type Registry struct {
	detectors []Detector
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{}
}

// Register adds a detector. Registration order is preserved.
func (r *Registry) Register(d Detector) {
	r.detectors = append(r.detectors, d)
}

// Detectors returns the registered detectors in registration order.
func (r *Registry) Detectors() []Detector {
	return r.detectors
}

// DefaultRegistry wires the three detectors that run on every scheduled
// sweep. The repeated-value detector is reporting-only and not registered.
func DefaultRegistry(ledger Ledger, cfg config.DetectionConfig) *Registry {
	r := NewRegistry()
	r.Register(NewLargeTransferDetector(ledger, cfg.LargeTxThreshold))
	r.Register(NewHourlySpikeDetector(ledger, cfg.HourlySpikeCount))
	r.Register(NewRecurringDetector(ledger, cfg.RecurringMinTx))
	return r
}

// validHistory loads a wallet's history and drops records that violate the
// ledger invariants, sorted oldest first.
func validHistory(ctx context.Context, ledger Ledger, wallet string) ([]*models.Transaction, error) {
	txs, err := ledger.ListByWallet(ctx, wallet)
	if err != nil {
		return nil, fmt.Errorf("failed to load wallet history: %w", err)
	}

	valid := make([]*models.Transaction, 0, len(txs))
	for _, tx := range txs {
		if tx.Valid() {
			valid = append(valid, tx)
		}
	}

	sort.Slice(valid, func(i, j int) bool {
		return valid[i].Timestamp.Before(valid[j].Timestamp)
	})

	return valid, nil
}

// payloadTimestamp is the numeric dedup timestamp for a ledger time,
// seconds since epoch in UTC.
func payloadTimestamp(t time.Time) float64 {
	return float64(t.UTC().Unix())
}
