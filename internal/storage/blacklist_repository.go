package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/wallet-sentinel/internal/models"
)

// BlacklistRepository handles the externally curated known-bad address set.
// The table is append-only: entries are inserted if absent, never updated.
type BlacklistRepository struct {
	db *PostgresDB
}

// NewBlacklistRepository creates a new blacklist repository
func NewBlacklistRepository(db *PostgresDB) *BlacklistRepository {
	return &BlacklistRepository{db: db}
}

// Add inserts a blacklist entry if the address is not already listed.
// Returns true when a row was written.
func (r *BlacklistRepository) Add(ctx context.Context, entry *models.BlacklistEntry) (bool, error) {
	if err := ValidateAddress(entry.Address); err != nil {
		return false, err
	}
	entry.Address = NormalizeAddress(entry.Address)
	if entry.AddedOn.IsZero() {
		entry.AddedOn = time.Now().UTC()
	}

	query := `
		INSERT INTO blacklist_addresses (address, source, reason, category, added_on)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (address) DO NOTHING
	`

	tag, err := r.db.Pool().Exec(ctx, query,
		entry.Address,
		entry.Source,
		entry.Reason,
		entry.Category,
		entry.AddedOn,
	)
	if err != nil {
		return false, fmt.Errorf("failed to insert blacklist entry: %w", err)
	}

	return tag.RowsAffected() > 0, nil
}

// Get retrieves a blacklist entry, or nil when the address is not listed.
func (r *BlacklistRepository) Get(ctx context.Context, address string) (*models.BlacklistEntry, error) {
	if err := ValidateAddress(address); err != nil {
		return nil, err
	}

	query := `
		SELECT address, source, reason, category, added_on
		FROM blacklist_addresses
		WHERE address = $1
	`

	var entry models.BlacklistEntry
	err := r.db.Pool().QueryRow(ctx, query, NormalizeAddress(address)).Scan(
		&entry.Address,
		&entry.Source,
		&entry.Reason,
		&entry.Category,
		&entry.AddedOn,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get blacklist entry: %w", err)
	}

	return &entry, nil
}

// Addresses returns every blacklisted address.
func (r *BlacklistRepository) Addresses(ctx context.Context) ([]string, error) {
	rows, err := r.db.Pool().Query(ctx, `SELECT address FROM blacklist_addresses ORDER BY address`)
	if err != nil {
		return nil, fmt.Errorf("failed to query blacklist: %w", err)
	}
	defer rows.Close()

	var addresses []string
	for rows.Next() {
		var addr string
		if err := rows.Scan(&addr); err != nil {
			return nil, fmt.Errorf("failed to scan blacklist address: %w", err)
		}
		addresses = append(addresses, addr)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating blacklist: %w", err)
	}

	return addresses, nil
}
