package detector

import "context"

// LargeTransferDetector flags transfers at or above a value threshold. To
// keep one alert per relationship it emits only the earliest qualifying
// transaction for each (sender, receiver) pair.
type LargeTransferDetector struct {
	ledger    Ledger
	threshold float64
}

// NewLargeTransferDetector creates a large transfer detector
func NewLargeTransferDetector(ledger Ledger, threshold float64) *LargeTransferDetector {
	return &LargeTransferDetector{ledger: ledger, threshold: threshold}
}

// Name returns the detector name used in alert rows.
func (d *LargeTransferDetector) Name() string {
	return "large_tx"
}

// Run scans the wallet history oldest first, so the first qualifying
// transaction seen for a pair is the earliest one.
func (d *LargeTransferDetector) Run(ctx context.Context, wallet string) ([]Event, error) {
	txs, err := validHistory(ctx, d.ledger, wallet)
	if err != nil {
		return nil, err
	}

	seen := make(map[[2]string]struct{})
	var events []Event
	for _, tx := range txs {
		if tx.Value < d.threshold {
			continue
		}
		pair := [2]string{tx.Sender, tx.Receiver}
		if _, ok := seen[pair]; ok {
			continue
		}
		seen[pair] = struct{}{}

		events = append(events, Event{
			Detector: d.Name(),
			Payload: map[string]interface{}{
				"tx_hash":   tx.Hash,
				"sender":    tx.Sender,
				"receiver":  tx.Receiver,
				"value":     tx.Value,
				"timestamp": payloadTimestamp(tx.Timestamp),
			},
		})
	}

	return events, nil
}
