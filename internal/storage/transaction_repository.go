package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/wallet-sentinel/internal/models"
)

// TransactionRepository handles ledger transaction persistence
type TransactionRepository struct {
	db *PostgresDB
}

// NewTransactionRepository creates a new transaction repository
func NewTransactionRepository(db *PostgresDB) *TransactionRepository {
	return &TransactionRepository{db: db}
}

// Insert inserts a transaction, ignoring duplicates by hash. Returns true
// when a row was actually written.
func (r *TransactionRepository) Insert(ctx context.Context, tx *models.Transaction) (bool, error) {
	if err := ValidateAddress(tx.Sender); err != nil {
		return false, err
	}
	if err := ValidateAddress(tx.Receiver); err != nil {
		return false, err
	}
	tx.Sender = NormalizeAddress(tx.Sender)
	tx.Receiver = NormalizeAddress(tx.Receiver)

	query := `
		INSERT INTO transactions (tx_hash, sender, receiver, value, timestamp)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (tx_hash) DO NOTHING
	`

	tag, err := r.db.Pool().Exec(ctx, query,
		tx.Hash,
		tx.Sender,
		tx.Receiver,
		tx.Value,
		tx.Timestamp,
	)
	if err != nil {
		return false, fmt.Errorf("failed to insert transaction: %w", err)
	}

	return tag.RowsAffected() > 0, nil
}

// SetAnomaly backfills the is_anomaly flag for a transaction by hash.
func (r *TransactionRepository) SetAnomaly(ctx context.Context, hash string, isAnomaly bool) error {
	query := `UPDATE transactions SET is_anomaly = $2 WHERE tx_hash = $1`

	tag, err := r.db.Pool().Exec(ctx, query, hash, isAnomaly)
	if err != nil {
		return fmt.Errorf("failed to update anomaly flag: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("transaction not found: %s", hash)
	}

	return nil
}

// GetByHash retrieves a transaction by hash
func (r *TransactionRepository) GetByHash(ctx context.Context, hash string) (*models.Transaction, error) {
	query := `
		SELECT tx_hash, sender, receiver, value, timestamp, is_anomaly
		FROM transactions
		WHERE tx_hash = $1
	`

	var tx models.Transaction
	err := r.db.Pool().QueryRow(ctx, query, hash).Scan(
		&tx.Hash,
		&tx.Sender,
		&tx.Receiver,
		&tx.Value,
		&tx.Timestamp,
		&tx.IsAnomaly,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("transaction not found: %s", hash)
		}
		return nil, fmt.Errorf("failed to get transaction: %w", err)
	}

	return &tx, nil
}

// ListByWallet retrieves all transactions where the wallet is sender or
// receiver, ordered by timestamp ascending. This is the detector read path.
func (r *TransactionRepository) ListByWallet(ctx context.Context, wallet string) ([]*models.Transaction, error) {
	if err := ValidateAddress(wallet); err != nil {
		return nil, err
	}
	wallet = NormalizeAddress(wallet)

	query := `
		SELECT tx_hash, sender, receiver, value, timestamp, is_anomaly
		FROM transactions
		WHERE sender = $1 OR receiver = $1
		ORDER BY timestamp ASC
	`

	rows, err := r.db.Pool().Query(ctx, query, wallet)
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions: %w", err)
	}
	defer rows.Close()

	return scanTransactions(rows)
}

// Aggregates computes the risk-scorer inputs for a wallet in one pass.
func (r *TransactionRepository) Aggregates(ctx context.Context, wallet string) (*models.WalletAggregates, error) {
	if err := ValidateAddress(wallet); err != nil {
		return nil, err
	}
	wallet = NormalizeAddress(wallet)

	query := `
		SELECT
			COUNT(*) FILTER (WHERE sender = $1),
			COUNT(DISTINCT receiver) FILTER (WHERE sender = $1),
			COUNT(*) FILTER (WHERE receiver = $1),
			COUNT(DISTINCT sender) FILTER (WHERE receiver = $1),
			COALESCE(SUM(value) FILTER (WHERE sender = $1), 0),
			COALESCE(SUM(value) FILTER (WHERE receiver = $1), 0)
		FROM transactions
		WHERE sender = $1 OR receiver = $1
	`

	var agg models.WalletAggregates
	err := r.db.Pool().QueryRow(ctx, query, wallet).Scan(
		&agg.OutboundCount,
		&agg.UniqueReceivers,
		&agg.InboundCount,
		&agg.UniqueSenders,
		&agg.OutboundValue,
		&agg.InboundValue,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate transactions: %w", err)
	}

	return &agg, nil
}

// ForEachTransaction streams every ledger transaction ordered by timestamp.
// Used by the graph synchronizer so the full table never needs to be held
// in memory.
func (r *TransactionRepository) ForEachTransaction(ctx context.Context, fn func(*models.Transaction) error) error {
	query := `
		SELECT tx_hash, sender, receiver, value, timestamp
		FROM transactions
		ORDER BY timestamp ASC
	`

	rows, err := r.db.Pool().Query(ctx, query)
	if err != nil {
		return fmt.Errorf("failed to query transactions: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var tx models.Transaction
		if err := rows.Scan(&tx.Hash, &tx.Sender, &tx.Receiver, &tx.Value, &tx.Timestamp); err != nil {
			return fmt.Errorf("failed to scan transaction: %w", err)
		}
		if err := fn(&tx); err != nil {
			return err
		}
	}

	if err := rows.Err(); err != nil {
		return fmt.Errorf("error iterating transactions: %w", err)
	}

	return nil
}

// FirstTransaction returns the earliest transaction touching the wallet,
// or nil when the wallet has no ledger history.
func (r *TransactionRepository) FirstTransaction(ctx context.Context, wallet string) (*models.Transaction, error) {
	return r.boundaryTransaction(ctx, wallet, "ASC")
}

// LastTransaction returns the most recent transaction touching the wallet,
// or nil when the wallet has no ledger history.
func (r *TransactionRepository) LastTransaction(ctx context.Context, wallet string) (*models.Transaction, error) {
	return r.boundaryTransaction(ctx, wallet, "DESC")
}

func (r *TransactionRepository) boundaryTransaction(ctx context.Context, wallet, order string) (*models.Transaction, error) {
	if err := ValidateAddress(wallet); err != nil {
		return nil, err
	}
	wallet = NormalizeAddress(wallet)

	query := fmt.Sprintf(`
		SELECT tx_hash, sender, receiver, value, timestamp, is_anomaly
		FROM transactions
		WHERE sender = $1 OR receiver = $1
		ORDER BY timestamp %s
		LIMIT 1
	`, order)

	var tx models.Transaction
	err := r.db.Pool().QueryRow(ctx, query, wallet).Scan(
		&tx.Hash,
		&tx.Sender,
		&tx.Receiver,
		&tx.Value,
		&tx.Timestamp,
		&tx.IsAnomaly,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to query boundary transaction: %w", err)
	}

	return &tx, nil
}

// TopTransactions returns the highest-value transactions touching the wallet.
func (r *TransactionRepository) TopTransactions(ctx context.Context, wallet string, limit int) ([]*models.Transaction, error) {
	if err := ValidateAddress(wallet); err != nil {
		return nil, err
	}
	wallet = NormalizeAddress(wallet)

	query := `
		SELECT tx_hash, sender, receiver, value, timestamp, is_anomaly
		FROM transactions
		WHERE sender = $1 OR receiver = $1
		ORDER BY value DESC
		LIMIT $2
	`

	rows, err := r.db.Pool().Query(ctx, query, wallet, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query top transactions: %w", err)
	}
	defer rows.Close()

	return scanTransactions(rows)
}

// TopReceivers returns the addresses that most frequently received from the wallet.
func (r *TransactionRepository) TopReceivers(ctx context.Context, wallet string, limit int) ([]models.Counterparty, error) {
	return r.topCounterparties(ctx, wallet, "receiver", "sender", limit)
}

// TopSenders returns the addresses that most frequently sent to the wallet.
func (r *TransactionRepository) TopSenders(ctx context.Context, wallet string, limit int) ([]models.Counterparty, error) {
	return r.topCounterparties(ctx, wallet, "sender", "receiver", limit)
}

func (r *TransactionRepository) topCounterparties(ctx context.Context, wallet, groupCol, matchCol string, limit int) ([]models.Counterparty, error) {
	if err := ValidateAddress(wallet); err != nil {
		return nil, err
	}
	wallet = NormalizeAddress(wallet)

	query := fmt.Sprintf(`
		SELECT %s, COUNT(*) AS count
		FROM transactions
		WHERE %s = $1
		GROUP BY %s
		ORDER BY count DESC
		LIMIT $2
	`, groupCol, matchCol, groupCol)

	rows, err := r.db.Pool().Query(ctx, query, wallet, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query counterparties: %w", err)
	}
	defer rows.Close()

	var parties []models.Counterparty
	for rows.Next() {
		var p models.Counterparty
		if err := rows.Scan(&p.Address, &p.Count); err != nil {
			return nil, fmt.Errorf("failed to scan counterparty: %w", err)
		}
		parties = append(parties, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating counterparties: %w", err)
	}

	return parties, nil
}

// AnomalyCount returns the number of ledger transactions flagged anomalous.
func (r *TransactionRepository) AnomalyCount(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.Pool().QueryRow(ctx, `SELECT COUNT(*) FROM transactions WHERE is_anomaly = TRUE`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count anomalies: %w", err)
	}
	return count, nil
}

// RecentAnomalies returns the most recent anomalous transactions.
func (r *TransactionRepository) RecentAnomalies(ctx context.Context, limit int) ([]*models.Transaction, error) {
	query := `
		SELECT tx_hash, sender, receiver, value, timestamp, is_anomaly
		FROM transactions
		WHERE is_anomaly = TRUE
		ORDER BY timestamp DESC
		LIMIT $1
	`

	rows, err := r.db.Pool().Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query anomalies: %w", err)
	}
	defer rows.Close()

	return scanTransactions(rows)
}

func scanTransactions(rows pgx.Rows) ([]*models.Transaction, error) {
	var transactions []*models.Transaction
	for rows.Next() {
		var tx models.Transaction
		err := rows.Scan(
			&tx.Hash,
			&tx.Sender,
			&tx.Receiver,
			&tx.Value,
			&tx.Timestamp,
			&tx.IsAnomaly,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		transactions = append(transactions, &tx)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating transactions: %w", err)
	}

	return transactions, nil
}
