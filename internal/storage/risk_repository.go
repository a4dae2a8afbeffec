package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/wallet-sentinel/internal/models"
)

// RiskRepository persists wallet risk scores
type RiskRepository struct {
	db *PostgresDB
}

// NewRiskRepository creates a new risk repository
func NewRiskRepository(db *PostgresDB) *RiskRepository {
	return &RiskRepository{db: db}
}

// Insert writes a risk row only when no row exists yet for the address.
// This is the batch-scoring path: existing scores are never retroactively
// updated by it. Returns true when a row was written.
func (r *RiskRepository) Insert(ctx context.Context, risk *models.WalletRisk) (bool, error) {
	query := `
		INSERT INTO wallet_risk (address, risk_score, risk_profile, last_updated)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (address) DO NOTHING
	`

	tag, err := r.db.Pool().Exec(ctx, query,
		NormalizeAddress(risk.Address),
		risk.RiskScore,
		risk.RiskProfile,
		risk.LastUpdated,
	)
	if err != nil {
		return false, fmt.Errorf("failed to insert wallet risk: %w", err)
	}

	return tag.RowsAffected() > 0, nil
}

// Upsert writes or replaces the risk row for an address. This is the
// interactive path, which recomputes eagerly ignoring staleness.
func (r *RiskRepository) Upsert(ctx context.Context, risk *models.WalletRisk) error {
	query := `
		INSERT INTO wallet_risk (address, risk_score, risk_profile, last_updated)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (address) DO UPDATE
		SET risk_score = EXCLUDED.risk_score,
		    risk_profile = EXCLUDED.risk_profile,
		    last_updated = EXCLUDED.last_updated
	`

	_, err := r.db.Pool().Exec(ctx, query,
		NormalizeAddress(risk.Address),
		risk.RiskScore,
		risk.RiskProfile,
		risk.LastUpdated,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert wallet risk: %w", err)
	}

	return nil
}

// Get retrieves the risk row for an address, or nil when not yet scored.
func (r *RiskRepository) Get(ctx context.Context, address string) (*models.WalletRisk, error) {
	query := `
		SELECT address, risk_score, risk_profile, last_updated
		FROM wallet_risk
		WHERE address = $1
	`

	var risk models.WalletRisk
	err := r.db.Pool().QueryRow(ctx, query, NormalizeAddress(address)).Scan(
		&risk.Address,
		&risk.RiskScore,
		&risk.RiskProfile,
		&risk.LastUpdated,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get wallet risk: %w", err)
	}

	return &risk, nil
}

// Delete removes the risk row for an address so the batch path rescans it.
func (r *RiskRepository) Delete(ctx context.Context, address string) error {
	_, err := r.db.Pool().Exec(ctx,
		`DELETE FROM wallet_risk WHERE address = $1`, NormalizeAddress(address))
	if err != nil {
		return fmt.Errorf("failed to delete wallet risk: %w", err)
	}
	return nil
}

// UnscoredAddresses returns wallets in the history that have no risk row yet.
func (r *RiskRepository) UnscoredAddresses(ctx context.Context) ([]string, error) {
	query := `
		SELECT wh.address
		FROM wallet_history wh
		LEFT JOIN wallet_risk wr ON wh.address = wr.address
		WHERE wr.address IS NULL
		ORDER BY wh.address
	`

	rows, err := r.db.Pool().Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query unscored wallets: %w", err)
	}
	defer rows.Close()

	var addresses []string
	for rows.Next() {
		var addr string
		if err := rows.Scan(&addr); err != nil {
			return nil, fmt.Errorf("failed to scan address: %w", err)
		}
		addresses = append(addresses, addr)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating unscored wallets: %w", err)
	}

	return addresses, nil
}

// HighRiskAddresses returns every address scored High Risk.
func (r *RiskRepository) HighRiskAddresses(ctx context.Context) ([]string, error) {
	rows, err := r.db.Pool().Query(ctx,
		`SELECT address FROM wallet_risk WHERE risk_profile = $1`, models.ProfileHighRisk)
	if err != nil {
		return nil, fmt.Errorf("failed to query high risk addresses: %w", err)
	}
	defer rows.Close()

	var addresses []string
	for rows.Next() {
		var addr string
		if err := rows.Scan(&addr); err != nil {
			return nil, fmt.Errorf("failed to scan address: %w", err)
		}
		addresses = append(addresses, addr)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating high risk addresses: %w", err)
	}

	return addresses, nil
}

// HighRiskCount returns the number of addresses scored High Risk.
func (r *RiskRepository) HighRiskCount(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.Pool().QueryRow(ctx,
		`SELECT COUNT(*) FROM wallet_risk WHERE risk_profile = $1`, models.ProfileHighRisk).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count high risk addresses: %w", err)
	}
	return count, nil
}

// Distribution returns High/Medium/Low bucket counts and percentages, in
// that order. Buckets with no rows are included with zero counts.
func (r *RiskRepository) Distribution(ctx context.Context) ([]models.RiskBucket, error) {
	query := `
		SELECT risk_profile, COUNT(*) AS count
		FROM wallet_risk
		WHERE risk_profile IN ($1, $2, $3)
		GROUP BY risk_profile
	`

	rows, err := r.db.Pool().Query(ctx, query,
		models.ProfileHighRisk, models.ProfileMediumRisk, models.ProfileLowRisk)
	if err != nil {
		return nil, fmt.Errorf("failed to query risk distribution: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int64)
	var total int64
	for rows.Next() {
		var profile string
		var count int64
		if err := rows.Scan(&profile, &count); err != nil {
			return nil, fmt.Errorf("failed to scan risk bucket: %w", err)
		}
		counts[profile] = count
		total += count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating risk distribution: %w", err)
	}

	if total == 0 {
		total = 1
	}

	order := []string{models.ProfileHighRisk, models.ProfileMediumRisk, models.ProfileLowRisk}
	buckets := make([]models.RiskBucket, 0, len(order))
	for _, profile := range order {
		count := counts[profile]
		buckets = append(buckets, models.RiskBucket{
			RiskProfile: profile,
			Count:       count,
			Percentage:  float64(count) / float64(total) * 100,
		})
	}

	return buckets, nil
}

// ListRecent returns the most recently scored wallets.
func (r *RiskRepository) ListRecent(ctx context.Context, limit int) ([]*models.WalletRisk, error) {
	query := `
		SELECT address, risk_score, risk_profile, last_updated
		FROM wallet_risk
		ORDER BY last_updated DESC
		LIMIT $1
	`

	rows, err := r.db.Pool().Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query recent risk rows: %w", err)
	}
	defer rows.Close()

	var risks []*models.WalletRisk
	for rows.Next() {
		var risk models.WalletRisk
		if err := rows.Scan(&risk.Address, &risk.RiskScore, &risk.RiskProfile, &risk.LastUpdated); err != nil {
			return nil, fmt.Errorf("failed to scan risk row: %w", err)
		}
		risks = append(risks, &risk)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating risk rows: %w", err)
	}

	return risks, nil
}
