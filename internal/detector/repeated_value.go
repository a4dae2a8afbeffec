package detector

import (
	"context"
	"sort"
	"strconv"

	"github.com/wallet-sentinel/internal/models"
)

// RepeatedValueDetector finds (sender, receiver, value) triples recurring
// an unusual number of times, a structuring tell. It is reporting-only and
// not part of the default sweep; the riskscore tool exposes it on demand.
type RepeatedValueDetector struct {
	ledger     Ledger
	minTx      int
	occurrence int
}

// ValueGroup is one flagged triple with its member transactions, oldest
// first.
type ValueGroup struct {
	Sender       string                `json:"sender"`
	Receiver     string                `json:"receiver"`
	Value        float64               `json:"value"`
	Transactions []*models.Transaction `json:"transactions"`
}

// NewRepeatedValueDetector creates a repeated value detector
func NewRepeatedValueDetector(ledger Ledger, minTx, occurrence int) *RepeatedValueDetector {
	return &RepeatedValueDetector{ledger: ledger, minTx: minTx, occurrence: occurrence}
}

// Name returns the detector name used in alert rows.
func (d *RepeatedValueDetector) Name() string {
	return "repeated_value"
}

// Groups returns the qualifying triples: every (sender, receiver, value)
// occurring strictly more than the occurrence threshold, provided the
// wallet has at least the minimum history size. Sorted by sender, receiver,
// then value.
func (d *RepeatedValueDetector) Groups(ctx context.Context, wallet string) ([]ValueGroup, error) {
	txs, err := validHistory(ctx, d.ledger, wallet)
	if err != nil {
		return nil, err
	}
	if len(txs) < d.minTx {
		return nil, nil
	}

	type tripleKey struct {
		sender   string
		receiver string
		value    float64
	}

	byTriple := make(map[tripleKey][]*models.Transaction)
	for _, tx := range txs {
		key := tripleKey{sender: tx.Sender, receiver: tx.Receiver, value: tx.Value}
		byTriple[key] = append(byTriple[key], tx)
	}

	var groups []ValueGroup
	for key, group := range byTriple {
		if len(group) > d.occurrence {
			groups = append(groups, ValueGroup{
				Sender:       key.sender,
				Receiver:     key.receiver,
				Value:        key.value,
				Transactions: group,
			})
		}
	}

	sort.Slice(groups, func(i, j int) bool {
		if groups[i].Sender != groups[j].Sender {
			return groups[i].Sender < groups[j].Sender
		}
		if groups[i].Receiver != groups[j].Receiver {
			return groups[i].Receiver < groups[j].Receiver
		}
		return groups[i].Value < groups[j].Value
	})

	return groups, nil
}

// Run emits one event per flagged triple. The payload timestamp is the
// earliest transaction in the group, so the group dedups across re-runs.
func (d *RepeatedValueDetector) Run(ctx context.Context, wallet string) ([]Event, error) {
	groups, err := d.Groups(ctx, wallet)
	if err != nil {
		return nil, err
	}

	var events []Event
	for _, group := range groups {
		events = append(events, Event{
			Detector: d.Name(),
			Payload: map[string]interface{}{
				"sender":    group.Sender,
				"receiver":  group.Receiver,
				"value":     strconv.FormatFloat(group.Value, 'f', -1, 64),
				"count":     len(group.Transactions),
				"timestamp": payloadTimestamp(group.Transactions[0].Timestamp),
			},
		})
	}

	return events, nil
}
