package risk

import (
	"context"
	"fmt"
	"time"

	"github.com/wallet-sentinel/internal/logging"
	"github.com/wallet-sentinel/internal/models"
)

// topLimit is the number of entries returned by the top-transaction and
// top-counterparty views.
const topLimit = 3

// LedgerReader is the ledger query surface the risk service needs.
type LedgerReader interface {
	Aggregates(ctx context.Context, wallet string) (*models.WalletAggregates, error)
	ListByWallet(ctx context.Context, wallet string) ([]*models.Transaction, error)
	FirstTransaction(ctx context.Context, wallet string) (*models.Transaction, error)
	LastTransaction(ctx context.Context, wallet string) (*models.Transaction, error)
	TopTransactions(ctx context.Context, wallet string, limit int) ([]*models.Transaction, error)
	TopReceivers(ctx context.Context, wallet string, limit int) ([]models.Counterparty, error)
	TopSenders(ctx context.Context, wallet string, limit int) ([]models.Counterparty, error)
	AnomalyCount(ctx context.Context) (int64, error)
	RecentAnomalies(ctx context.Context, limit int) ([]*models.Transaction, error)
}

// WalletToucher records wallets into the history the scheduler sweeps.
type WalletToucher interface {
	Touch(ctx context.Context, address string) error
}

// RiskStore persists and reads scoring results.
type RiskStore interface {
	Insert(ctx context.Context, risk *models.WalletRisk) (bool, error)
	Upsert(ctx context.Context, risk *models.WalletRisk) error
	Get(ctx context.Context, address string) (*models.WalletRisk, error)
	UnscoredAddresses(ctx context.Context) ([]string, error)
	HighRiskAddresses(ctx context.Context) ([]string, error)
	HighRiskCount(ctx context.Context) (int64, error)
	Distribution(ctx context.Context) ([]models.RiskBucket, error)
}

// BlacklistReader exposes the curated known-bad address set.
type BlacklistReader interface {
	Get(ctx context.Context, address string) (*models.BlacklistEntry, error)
	Addresses(ctx context.Context) ([]string, error)
}

// Service wires the pure scorer to the ledger and risk stores.
type Service struct {
	ledger    LedgerReader
	risks     RiskStore
	blacklist BlacklistReader
	wallets   WalletToucher
	scorer    *Scorer
	log       *logging.Logger
}

// NewService creates a risk service
func NewService(ledger LedgerReader, risks RiskStore, blacklist BlacklistReader, wallets WalletToucher, scorer *Scorer, log *logging.Logger) *Service {
	return &Service{
		ledger:    ledger,
		risks:     risks,
		blacklist: blacklist,
		wallets:   wallets,
		scorer:    scorer,
		log:       log,
	}
}

// ScoreWallet recomputes and persists the risk row for one wallet. This is
// the interactive path: it ignores staleness and replaces any existing row.
func (s *Service) ScoreWallet(ctx context.Context, wallet string) (*models.WalletRisk, error) {
	s.touch(ctx, wallet)

	agg, err := s.ledger.Aggregates(ctx, wallet)
	if err != nil {
		return nil, fmt.Errorf("failed to read wallet aggregates: %w", err)
	}

	profile, score := s.scorer.Score(*agg)
	risk := &models.WalletRisk{
		Address:     wallet,
		RiskScore:   score,
		RiskProfile: profile,
		LastUpdated: time.Now().UTC(),
	}

	if err := s.risks.Upsert(ctx, risk); err != nil {
		return nil, err
	}

	return risk, nil
}

// ScoreUnscored scores every wallet in the history that lacks a risk row
// and has ledger activity. Existing rows are never touched. Per-wallet
// failures are logged and skipped; the batch continues. Returns the number
// of rows written.
func (s *Service) ScoreUnscored(ctx context.Context) (int, error) {
	addresses, err := s.risks.UnscoredAddresses(ctx)
	if err != nil {
		return 0, err
	}

	scored := 0
	for _, wallet := range addresses {
		agg, err := s.ledger.Aggregates(ctx, wallet)
		if err != nil {
			s.log.WithField("wallet", wallet).WithError(err).Warn("skipping wallet: aggregate read failed")
			continue
		}
		if agg.OutboundCount+agg.InboundCount == 0 {
			continue
		}

		profile, score := s.scorer.Score(*agg)
		inserted, err := s.risks.Insert(ctx, &models.WalletRisk{
			Address:     wallet,
			RiskScore:   score,
			RiskProfile: profile,
			LastUpdated: time.Now().UTC(),
		})
		if err != nil {
			s.log.WithField("wallet", wallet).WithError(err).Warn("skipping wallet: risk insert failed")
			continue
		}
		if inserted {
			scored++
		}
	}

	return scored, nil
}

// Summary builds the ledger-derived profile of a wallet: balance, volume
// totals, first and last transactions, and the stored risk row if any.
func (s *Service) Summary(ctx context.Context, wallet string) (*models.WalletSummary, error) {
	s.touch(ctx, wallet)

	agg, err := s.ledger.Aggregates(ctx, wallet)
	if err != nil {
		return nil, fmt.Errorf("failed to read wallet aggregates: %w", err)
	}

	first, err := s.ledger.FirstTransaction(ctx, wallet)
	if err != nil {
		return nil, err
	}
	last, err := s.ledger.LastTransaction(ctx, wallet)
	if err != nil {
		return nil, err
	}

	summary := &models.WalletSummary{
		Address:          wallet,
		Balance:          agg.InboundValue - agg.OutboundValue,
		TotalReceived:    agg.InboundValue,
		TotalSent:        agg.OutboundValue,
		FirstTransaction: first,
		LastTransaction:  last,
		RiskProfile:      "Unknown",
	}

	risk, err := s.risks.Get(ctx, wallet)
	if err != nil {
		return nil, err
	}
	if risk != nil {
		summary.RiskScore = &risk.RiskScore
		summary.RiskProfile = risk.RiskProfile
	}

	return summary, nil
}

// TopActivity returns the largest transactions and the most frequent
// counterparties of a wallet.
func (s *Service) TopActivity(ctx context.Context, wallet string) (top []*models.Transaction, receivers, senders []models.Counterparty, err error) {
	top, err = s.ledger.TopTransactions(ctx, wallet, topLimit)
	if err != nil {
		return nil, nil, nil, err
	}
	receivers, err = s.ledger.TopReceivers(ctx, wallet, topLimit)
	if err != nil {
		return nil, nil, nil, err
	}
	senders, err = s.ledger.TopSenders(ctx, wallet, topLimit)
	if err != nil {
		return nil, nil, nil, err
	}
	return top, receivers, senders, nil
}

// Blacklisted returns the blacklist entry for a wallet, or nil.
func (s *Service) Blacklisted(ctx context.Context, wallet string) (*models.BlacklistEntry, error) {
	return s.blacklist.Get(ctx, wallet)
}

// BlacklistInteractions lists transactions of a wallet whose counterparty
// is on the blacklist.
func (s *Service) BlacklistInteractions(ctx context.Context, wallet string) ([]models.FlaggedInteraction, error) {
	flagged, err := s.blacklist.Addresses(ctx)
	if err != nil {
		return nil, err
	}
	return s.interactionsWith(ctx, wallet, flagged)
}

// RiskyInteractions lists transactions of a wallet whose counterparty is
// scored High Risk.
func (s *Service) RiskyInteractions(ctx context.Context, wallet string) ([]models.FlaggedInteraction, error) {
	flagged, err := s.risks.HighRiskAddresses(ctx)
	if err != nil {
		return nil, err
	}
	return s.interactionsWith(ctx, wallet, flagged)
}

func (s *Service) interactionsWith(ctx context.Context, wallet string, flagged []string) ([]models.FlaggedInteraction, error) {
	if len(flagged) == 0 {
		return nil, nil
	}

	flaggedSet := make(map[string]struct{}, len(flagged))
	for _, addr := range flagged {
		flaggedSet[addr] = struct{}{}
	}

	txs, err := s.ledger.ListByWallet(ctx, wallet)
	if err != nil {
		return nil, err
	}

	var interactions []models.FlaggedInteraction
	for _, tx := range txs {
		party := tx.Counterparty(wallet)
		if _, ok := flaggedSet[party]; ok {
			interactions = append(interactions, models.FlaggedInteraction{
				Transaction:  *tx,
				FlaggedParty: party,
			})
		}
	}

	return interactions, nil
}

// Distribution returns the High/Medium/Low risk distribution rollup.
func (s *Service) Distribution(ctx context.Context) ([]models.RiskBucket, error) {
	return s.risks.Distribution(ctx)
}

// HighRiskCount returns the number of High Risk addresses.
func (s *Service) HighRiskCount(ctx context.Context) (int64, error) {
	return s.risks.HighRiskCount(ctx)
}

// Overview is the dashboard rollup: score distribution, high-risk count,
// and the anomaly flags backfilled by the external classifier.
type Overview struct {
	Distribution    []models.RiskBucket   `json:"distribution"`
	HighRiskCount   int64                 `json:"high_risk_count"`
	AnomalyCount    int64                 `json:"anomaly_count"`
	RecentAnomalies []*models.Transaction `json:"recent_anomalies,omitempty"`
}

// BuildOverview assembles the rollup view.
func (s *Service) BuildOverview(ctx context.Context) (*Overview, error) {
	distribution, err := s.risks.Distribution(ctx)
	if err != nil {
		return nil, err
	}
	highRisk, err := s.risks.HighRiskCount(ctx)
	if err != nil {
		return nil, err
	}
	anomalies, err := s.ledger.AnomalyCount(ctx)
	if err != nil {
		return nil, err
	}
	recent, err := s.ledger.RecentAnomalies(ctx, topLimit)
	if err != nil {
		return nil, err
	}

	return &Overview{
		Distribution:    distribution,
		HighRiskCount:   highRisk,
		AnomalyCount:    anomalies,
		RecentAnomalies: recent,
	}, nil
}

// touch records the wallet into the sweep universe. Failure here never
// blocks the read path.
func (s *Service) touch(ctx context.Context, wallet string) {
	if err := s.wallets.Touch(ctx, wallet); err != nil {
		s.log.WithField("wallet", wallet).WithError(err).Warn("failed to record wallet history")
	}
}
