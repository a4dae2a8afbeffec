package storage

import (
	"context"
	"fmt"
	"path/filepath"
	"runtime"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wallet-sentinel/internal/config"
)

// getTestPostgres returns a ledger store connection for integration tests,
// with migrations applied. Skips when Postgres is not available.
func getTestPostgres(t *testing.T) *PostgresDB {
	t.Helper()

	cfg := &config.PostgresConfig{
		Host:           "localhost",
		Port:           "5432",
		Database:       "wallet_sentinel_test",
		User:           "sentinel",
		Password:       "sentinel",
		MaxConnections: 5,
	}

	db, err := NewPostgresDB(cfg)
	if err != nil {
		t.Skipf("Postgres not available: %v", err)
	}

	_, thisFile, _, _ := runtime.Caller(0)
	migrationsPath := filepath.Join(filepath.Dir(thisFile), "..", "..", "migrations", "postgres")

	databaseURL := fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable",
		cfg.User, cfg.Password, cfg.Host, cfg.Port, cfg.Database)
	require.NoError(t, RunMigrations(databaseURL, migrationsPath))

	t.Cleanup(func() {
		ctx := context.Background()
		_, _ = db.Pool().Exec(ctx, `TRUNCATE alerts, blacklist_addresses, wallet_risk, wallet_history, transactions`)
		db.Close()
	})

	return db
}

func TestSaveIfAbsentDeduplicates(t *testing.T) {
	db := getTestPostgres(t)
	repo := NewAlertRepository(db)
	ctx := context.Background()

	wallet := "0xd8da6bf26964af9d7eed9e03e53415d37aa96045"
	ts := float64(time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC).Unix())
	payload := map[string]interface{}{
		"tx_hash":   "0xfeed",
		"value":     25000.0,
		"timestamp": ts,
	}

	inserted, err := repo.SaveIfAbsent(ctx, wallet, "large_tx", payload)
	require.NoError(t, err)
	assert.True(t, inserted)

	// Same dedup triple, different payload body: still a duplicate.
	payload["value"] = 30000.0
	inserted, err = repo.SaveIfAbsent(ctx, wallet, "large_tx", payload)
	require.NoError(t, err)
	assert.False(t, inserted)

	// Different detector under the same wallet and timestamp is distinct.
	inserted, err = repo.SaveIfAbsent(ctx, wallet, "hourly_spike", payload)
	require.NoError(t, err)
	assert.True(t, inserted)

	exists, err := repo.Exists(ctx, wallet, "large_tx", ts)
	require.NoError(t, err)
	assert.True(t, exists)

	alerts, err := repo.ListByWallet(ctx, wallet)
	require.NoError(t, err)
	assert.Len(t, alerts, 2)
}

func TestSaveIfAbsentNumericTimestampMatch(t *testing.T) {
	db := getTestPostgres(t)
	repo := NewAlertRepository(db)
	ctx := context.Background()

	wallet := "0x1111111111111111111111111111111111111111"

	inserted, err := repo.SaveIfAbsent(ctx, wallet, "large_tx", map[string]interface{}{
		"timestamp": float64(1740830400),
	})
	require.NoError(t, err)
	assert.True(t, inserted)

	// Integer representation of the same instant dedups against the float.
	inserted, err = repo.SaveIfAbsent(ctx, wallet, "large_tx", map[string]interface{}{
		"timestamp": int64(1740830400),
	})
	require.NoError(t, err)
	assert.False(t, inserted)
}

func TestSaveIfAbsentConcurrent(t *testing.T) {
	db := getTestPostgres(t)
	repo := NewAlertRepository(db)
	ctx := context.Background()

	wallet := "0x2222222222222222222222222222222222222222"
	payload := map[string]interface{}{"timestamp": float64(1740834000)}

	const workers = 8
	results := make(chan bool, workers)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			inserted, err := repo.SaveIfAbsent(ctx, wallet, "hourly_spike", payload)
			assert.NoError(t, err)
			results <- inserted
		}()
	}
	wg.Wait()
	close(results)

	insertedCount := 0
	for inserted := range results {
		if inserted {
			insertedCount++
		}
	}
	assert.Equal(t, 1, insertedCount)
}
