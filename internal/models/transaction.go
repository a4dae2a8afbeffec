// Package models provides the data types shared by the ledger store, the
// graph store, and the detection engine.
package models

import (
	"strings"
	"time"
)

// Transaction represents an immutable ledger transaction. Values are ETH
// units. IsAnomaly is nil until backfilled by the external anomaly
// classifier.
type Transaction struct {
	Hash      string    `json:"tx_hash"`
	Sender    string    `json:"sender"`
	Receiver  string    `json:"receiver"`
	Value     float64   `json:"value"`
	Timestamp time.Time `json:"timestamp"`
	IsAnomaly *bool     `json:"is_anomaly,omitempty"`
}

// Valid reports whether the record satisfies the ledger invariants.
// Detectors exclude invalid records rather than failing on them.
func (t *Transaction) Valid() bool {
	return t.Value >= 0 && !t.Timestamp.IsZero() && t.Sender != "" && t.Receiver != ""
}

// SentBy reports whether the wallet is the sender of this transaction.
func (t *Transaction) SentBy(wallet string) bool {
	return strings.EqualFold(t.Sender, wallet)
}

// Counterparty returns the other side of the transaction relative to wallet.
func (t *Transaction) Counterparty(wallet string) string {
	if t.SentBy(wallet) {
		return t.Receiver
	}
	return t.Sender
}

// WalletAggregates holds the ledger aggregates consumed by the risk scorer.
type WalletAggregates struct {
	OutboundCount   int64
	UniqueReceivers int64
	InboundCount    int64
	UniqueSenders   int64
	OutboundValue   float64
	InboundValue    float64
}

// TotalValue returns the combined inbound and outbound volume.
func (a WalletAggregates) TotalValue() float64 {
	return a.InboundValue + a.OutboundValue
}
