package storage

import (
	"context"
	"fmt"
	"time"
)

// WalletRepository tracks the universe of queried wallet addresses. The
// detection scheduler iterates this set on every pass.
type WalletRepository struct {
	db *PostgresDB
}

// NewWalletRepository creates a new wallet history repository
func NewWalletRepository(db *PostgresDB) *WalletRepository {
	return &WalletRepository{db: db}
}

// Touch records that a wallet was queried, inserting it on first sight.
func (r *WalletRepository) Touch(ctx context.Context, address string) error {
	if err := ValidateAddress(address); err != nil {
		return err
	}
	address = NormalizeAddress(address)

	query := `
		INSERT INTO wallet_history (address, queried_at)
		VALUES ($1, $2)
		ON CONFLICT (address) DO UPDATE SET queried_at = EXCLUDED.queried_at
	`

	if _, err := r.db.Pool().Exec(ctx, query, address, time.Now().UTC()); err != nil {
		return fmt.Errorf("failed to touch wallet: %w", err)
	}

	return nil
}

// Addresses returns every known wallet address.
func (r *WalletRepository) Addresses(ctx context.Context) ([]string, error) {
	rows, err := r.db.Pool().Query(ctx, `SELECT address FROM wallet_history ORDER BY address`)
	if err != nil {
		return nil, fmt.Errorf("failed to query wallet history: %w", err)
	}
	defer rows.Close()

	var addresses []string
	for rows.Next() {
		var addr string
		if err := rows.Scan(&addr); err != nil {
			return nil, fmt.Errorf("failed to scan wallet address: %w", err)
		}
		addresses = append(addresses, addr)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating wallet history: %w", err)
	}

	return addresses, nil
}

// Exists reports whether a wallet is already in the history.
func (r *WalletRepository) Exists(ctx context.Context, address string) (bool, error) {
	if err := ValidateAddress(address); err != nil {
		return false, err
	}
	address = NormalizeAddress(address)

	var exists bool
	err := r.db.Pool().QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM wallet_history WHERE address = $1)`, address).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check wallet history: %w", err)
	}

	return exists, nil
}
