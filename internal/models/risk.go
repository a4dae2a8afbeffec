package models

import "time"

// Risk profile categories assigned by the heuristic scorer.
const (
	ProfileHighRisk   = "High Risk"
	ProfileMediumRisk = "Medium Risk"
	ProfileLowRisk    = "Low Risk"
)

// WalletRisk is the persisted scoring result for one address. Exactly one
// row exists per address once computed.
type WalletRisk struct {
	Address     string    `json:"address"`
	RiskScore   int       `json:"risk_score"`
	RiskProfile string    `json:"risk_profile"`
	LastUpdated time.Time `json:"last_updated"`
}

// RiskBucket is one entry of the High/Medium/Low distribution rollup.
type RiskBucket struct {
	RiskProfile string  `json:"risk_profile"`
	Count       int64   `json:"count"`
	Percentage  float64 `json:"percentage"`
}

// WalletSummary is the ledger-derived profile of one wallet.
type WalletSummary struct {
	Address          string       `json:"address"`
	Balance          float64      `json:"balance"`
	TotalReceived    float64      `json:"total_received"`
	TotalSent        float64      `json:"total_sent"`
	FirstTransaction *Transaction `json:"first_transaction,omitempty"`
	LastTransaction  *Transaction `json:"last_transaction,omitempty"`
	RiskScore        *int         `json:"risk_score,omitempty"`
	RiskProfile      string       `json:"risk_profile"`
}

// Counterparty is an address ranked by transaction count against a wallet.
type Counterparty struct {
	Address string `json:"address"`
	Count   int64  `json:"count"`
}

// FlaggedInteraction is a transaction whose counterparty is blacklisted or
// scored High Risk.
type FlaggedInteraction struct {
	Transaction  Transaction `json:"transaction"`
	FlaggedParty string      `json:"flagged_party"`
}
