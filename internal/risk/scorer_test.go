package risk

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/wallet-sentinel/internal/config"
	"github.com/wallet-sentinel/internal/models"
)

func testRiskConfig() config.RiskConfig {
	return config.RiskConfig{
		TxCountThreshold:      50,
		UniqueWalletThreshold: 20,
		TotalValueThreshold:   100,
		OutboundRatio:         0.8,
	}
}

func TestScore(t *testing.T) {
	scorer := NewScorer(testRiskConfig())

	tests := []struct {
		name        string
		agg         models.WalletAggregates
		wantScore   int
		wantProfile string
	}{
		{
			name:        "no activity",
			agg:         models.WalletAggregates{},
			wantScore:   0,
			wantProfile: models.ProfileLowRisk,
		},
		{
			name: "thresholds exactly met score nothing",
			agg: models.WalletAggregates{
				OutboundCount:   50,
				UniqueReceivers: 20,
				InboundCount:    50,
				UniqueSenders:   20,
				InboundValue:    100,
			},
			wantScore:   0,
			wantProfile: models.ProfileLowRisk,
		},
		{
			name: "busy sender",
			agg: models.WalletAggregates{
				OutboundCount: 51,
				InboundValue:  10,
				OutboundValue: 5,
			},
			wantScore:   2,
			wantProfile: models.ProfileMediumRisk,
		},
		{
			name: "fan-out by unique receivers alone",
			agg: models.WalletAggregates{
				OutboundCount:   10,
				UniqueReceivers: 21,
			},
			wantScore:   3,
			wantProfile: models.ProfileMediumRisk,
		},
		{
			name: "busy receiver with high volume",
			agg: models.WalletAggregates{
				InboundCount: 200,
				InboundValue: 150,
			},
			wantScore:   3,
			wantProfile: models.ProfileMediumRisk,
		},
		{
			name: "both directions over threshold",
			agg: models.WalletAggregates{
				OutboundCount: 51,
				InboundCount:  51,
				InboundValue:  50,
				OutboundValue: 10,
			},
			wantScore:   4,
			wantProfile: models.ProfileHighRisk,
		},
		{
			name: "every rule fires",
			agg: models.WalletAggregates{
				OutboundCount:   500,
				UniqueReceivers: 100,
				InboundCount:    500,
				UniqueSenders:   100,
				OutboundValue:   900,
				InboundValue:    50,
			},
			wantScore:   6,
			wantProfile: models.ProfileHighRisk,
		},
		{
			name: "outbound dominance only",
			agg: models.WalletAggregates{
				OutboundCount: 3,
				OutboundValue: 90,
				InboundValue:  5,
			},
			wantScore:   1,
			wantProfile: models.ProfileLowRisk,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			profile, score := scorer.Score(tt.agg)
			assert.Equal(t, tt.wantScore, score)
			assert.Equal(t, tt.wantProfile, profile)
		})
	}
}

func TestScoreProperties(t *testing.T) {
	scorer := NewScorer(testRiskConfig())

	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	genAggregates := gopter.CombineGens(
		gen.Int64Range(0, 1000),
		gen.Int64Range(0, 1000),
		gen.Int64Range(0, 1000),
		gen.Int64Range(0, 1000),
		gen.Float64Range(0, 1e6),
		gen.Float64Range(0, 1e6),
	).Map(func(vals []interface{}) models.WalletAggregates {
		return models.WalletAggregates{
			OutboundCount:   vals[0].(int64),
			UniqueReceivers: vals[1].(int64),
			InboundCount:    vals[2].(int64),
			UniqueSenders:   vals[3].(int64),
			OutboundValue:   vals[4].(float64),
			InboundValue:    vals[5].(float64),
		}
	})

	properties.Property("deterministic for identical aggregates", prop.ForAll(
		func(agg models.WalletAggregates) bool {
			p1, s1 := scorer.Score(agg)
			p2, s2 := scorer.Score(agg)
			return p1 == p2 && s1 == s2
		},
		genAggregates,
	))

	properties.Property("score stays within 0..6", prop.ForAll(
		func(agg models.WalletAggregates) bool {
			_, score := scorer.Score(agg)
			return score >= 0 && score <= 6
		},
		genAggregates,
	))

	properties.Property("profile matches score band", prop.ForAll(
		func(agg models.WalletAggregates) bool {
			profile, score := scorer.Score(agg)
			switch {
			case score >= 4:
				return profile == models.ProfileHighRisk
			case score >= 2:
				return profile == models.ProfileMediumRisk
			default:
				return profile == models.ProfileLowRisk
			}
		},
		genAggregates,
	))

	properties.Property("adding outbound activity never lowers the score", prop.ForAll(
		func(agg models.WalletAggregates, extraCount int64) bool {
			_, base := scorer.Score(agg)
			grown := agg
			grown.OutboundCount += extraCount
			grown.UniqueReceivers += extraCount
			_, after := scorer.Score(grown)
			return after >= base
		},
		genAggregates,
		gen.Int64Range(0, 1000),
	))

	properties.TestingRun(t)
}
