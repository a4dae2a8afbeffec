package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/wallet-sentinel/internal/models"
)

// AlertRepository is the deduplicating alert sink. The dedup key is
// (wallet_address, detector_name, payload timestamp compared numerically);
// a unique expression index on that triple makes the insert atomic, so the
// invariant holds under concurrent scheduler workers.
type AlertRepository struct {
	db *PostgresDB
}

// NewAlertRepository creates a new alert repository
func NewAlertRepository(db *PostgresDB) *AlertRepository {
	return &AlertRepository{db: db}
}

// Exists reports whether an alert with the same wallet, detector, and
// payload timestamp is already stored. The timestamp match is numeric,
// tolerant of integer vs float representations in the stored payload.
func (r *AlertRepository) Exists(ctx context.Context, wallet, detector string, timestamp float64) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1
			FROM alerts
			WHERE wallet_address = $1
			  AND detector_name = $2
			  AND (payload->>'timestamp')::float8 = $3
		)
	`

	var exists bool
	err := r.db.Pool().QueryRow(ctx, query, NormalizeAddress(wallet), detector, timestamp).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check alert existence: %w", err)
	}

	return exists, nil
}

// SaveIfAbsent inserts an alert unless one with the same dedup triple is
// already stored. Returns true when a row was written.
func (r *AlertRepository) SaveIfAbsent(ctx context.Context, wallet, detector string, payload map[string]interface{}) (bool, error) {
	payloadJSON, err := json.Marshal(payload)
	if err != nil {
		return false, fmt.Errorf("failed to marshal alert payload: %w", err)
	}

	query := `
		INSERT INTO alerts (id, wallet_address, detector_name, payload, created_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT DO NOTHING
	`

	tag, err := r.db.Pool().Exec(ctx, query,
		uuid.New().String(),
		NormalizeAddress(wallet),
		detector,
		payloadJSON,
		time.Now().UTC(),
	)
	if err != nil {
		return false, fmt.Errorf("failed to insert alert: %w", err)
	}

	return tag.RowsAffected() > 0, nil
}

// ListByWallet returns all alerts for a wallet, newest first.
func (r *AlertRepository) ListByWallet(ctx context.Context, wallet string) ([]*models.Alert, error) {
	if err := ValidateAddress(wallet); err != nil {
		return nil, err
	}

	query := `
		SELECT id, wallet_address, detector_name, payload, created_at
		FROM alerts
		WHERE wallet_address = $1
		ORDER BY created_at DESC
	`

	rows, err := r.db.Pool().Query(ctx, query, NormalizeAddress(wallet))
	if err != nil {
		return nil, fmt.Errorf("failed to query alerts: %w", err)
	}
	defer rows.Close()

	var alerts []*models.Alert
	for rows.Next() {
		var alert models.Alert
		var payloadJSON []byte
		if err := rows.Scan(&alert.ID, &alert.WalletAddress, &alert.DetectorName, &payloadJSON, &alert.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan alert: %w", err)
		}
		if len(payloadJSON) > 0 {
			if err := json.Unmarshal(payloadJSON, &alert.Payload); err != nil {
				return nil, fmt.Errorf("failed to unmarshal alert payload: %w", err)
			}
		}
		alerts = append(alerts, &alert)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating alerts: %w", err)
	}

	return alerts, nil
}

// Count returns the total number of stored alerts.
func (r *AlertRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.Pool().QueryRow(ctx, `SELECT COUNT(*) FROM alerts`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count alerts: %w", err)
	}
	return count, nil
}
