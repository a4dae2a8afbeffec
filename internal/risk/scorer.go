// Package risk computes heuristic wallet risk scores and the ledger-derived
// wallet profile views built on top of them.
package risk

import (
	"github.com/wallet-sentinel/internal/config"
	"github.com/wallet-sentinel/internal/models"
)

// Scorer turns ledger aggregates into a risk score and category. It is a
// pure function of its inputs: identical aggregates always produce the
// identical result, and a wallet with no transactions scores 0 / Low Risk.
type Scorer struct {
	cfg config.RiskConfig
}

// NewScorer creates a scorer with the given thresholds
func NewScorer(cfg config.RiskConfig) *Scorer {
	return &Scorer{cfg: cfg}
}

// Score applies the heuristic scoring rule:
//
//	+2 when outbound count or distinct receivers exceed their thresholds
//	+2 when inbound count or distinct senders exceed their thresholds
//	+1 when combined volume exceeds the total-value threshold
//	+1 when the outbound share of combined volume exceeds the ratio
//
// Score >= 4 maps to High Risk, >= 2 to Medium Risk, otherwise Low Risk.
func (s *Scorer) Score(agg models.WalletAggregates) (profile string, score int) {
	total := agg.TotalValue()

	if agg.OutboundCount > s.cfg.TxCountThreshold || agg.UniqueReceivers > s.cfg.UniqueWalletThreshold {
		score += 2
	}
	if agg.InboundCount > s.cfg.TxCountThreshold || agg.UniqueSenders > s.cfg.UniqueWalletThreshold {
		score += 2
	}
	if total > s.cfg.TotalValueThreshold {
		score++
	}
	if agg.OutboundValue > total*s.cfg.OutboundRatio {
		score++
	}

	switch {
	case score >= 4:
		profile = models.ProfileHighRisk
	case score >= 2:
		profile = models.ProfileMediumRisk
	default:
		profile = models.ProfileLowRisk
	}

	return profile, score
}
