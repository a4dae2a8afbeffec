package models

import "time"

// Alert is a persisted detector finding. No two alerts share the same
// (wallet_address, detector_name, payload timestamp) triple; the alert
// store enforces this on insert.
type Alert struct {
	ID            string                 `json:"id"`
	WalletAddress string                 `json:"wallet_address"`
	DetectorName  string                 `json:"detector_name"`
	Payload       map[string]interface{} `json:"payload"`
	CreatedAt     time.Time              `json:"created_at"`
}

// BlacklistEntry is an externally curated known-bad address. Append-only,
// unique per address.
type BlacklistEntry struct {
	Address  string    `json:"address"`
	Source   string    `json:"source"`
	Reason   string    `json:"reason"`
	Category string    `json:"category"`
	AddedOn  time.Time `json:"added_on"`
}
