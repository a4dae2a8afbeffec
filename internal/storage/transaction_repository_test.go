package storage

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wallet-sentinel/internal/models"
)

func TestTransactionInsertIdempotent(t *testing.T) {
	db := getTestPostgres(t)
	repo := NewTransactionRepository(db)
	ctx := context.Background()

	tx := &models.Transaction{
		Hash:      "0xaaa1",
		Sender:    "0x1111111111111111111111111111111111111111",
		Receiver:  "0x2222222222222222222222222222222222222222",
		Value:     12.5,
		Timestamp: time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC),
	}

	inserted, err := repo.Insert(ctx, tx)
	require.NoError(t, err)
	assert.True(t, inserted)

	inserted, err = repo.Insert(ctx, tx)
	require.NoError(t, err)
	assert.False(t, inserted)

	got, err := repo.GetByHash(ctx, "0xaaa1")
	require.NoError(t, err)
	assert.Equal(t, tx.Sender, got.Sender)
	assert.Equal(t, 12.5, got.Value)
	assert.Nil(t, got.IsAnomaly)
}

func TestSetAnomalyBackfill(t *testing.T) {
	db := getTestPostgres(t)
	repo := NewTransactionRepository(db)
	ctx := context.Background()

	tx := &models.Transaction{
		Hash:      "0xaaa2",
		Sender:    "0x1111111111111111111111111111111111111111",
		Receiver:  "0x2222222222222222222222222222222222222222",
		Value:     1,
		Timestamp: time.Date(2025, 3, 1, 11, 0, 0, 0, time.UTC),
	}
	_, err := repo.Insert(ctx, tx)
	require.NoError(t, err)

	require.NoError(t, repo.SetAnomaly(ctx, "0xaaa2", true))

	got, err := repo.GetByHash(ctx, "0xaaa2")
	require.NoError(t, err)
	require.NotNil(t, got.IsAnomaly)
	assert.True(t, *got.IsAnomaly)

	count, err := repo.AnomalyCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	require.Error(t, repo.SetAnomaly(ctx, "0xmissing", true))
}

func TestAggregates(t *testing.T) {
	db := getTestPostgres(t)
	repo := NewTransactionRepository(db)
	ctx := context.Background()

	wallet := "0x1111111111111111111111111111111111111111"
	b := "0x2222222222222222222222222222222222222222"
	c := "0x3333333333333333333333333333333333333333"
	base := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)

	txs := []*models.Transaction{
		{Hash: "0xb1", Sender: wallet, Receiver: b, Value: 10, Timestamp: base},
		{Hash: "0xb2", Sender: wallet, Receiver: c, Value: 20, Timestamp: base.Add(time.Hour)},
		{Hash: "0xb3", Sender: b, Receiver: wallet, Value: 5, Timestamp: base.Add(2 * time.Hour)},
	}
	for _, tx := range txs {
		_, err := repo.Insert(ctx, tx)
		require.NoError(t, err)
	}

	agg, err := repo.Aggregates(ctx, wallet)
	require.NoError(t, err)
	assert.Equal(t, int64(2), agg.OutboundCount)
	assert.Equal(t, int64(2), agg.UniqueReceivers)
	assert.Equal(t, int64(1), agg.InboundCount)
	assert.Equal(t, int64(1), agg.UniqueSenders)
	assert.Equal(t, 30.0, agg.OutboundValue)
	assert.Equal(t, 5.0, agg.InboundValue)

	history, err := repo.ListByWallet(ctx, wallet)
	require.NoError(t, err)
	require.Len(t, history, 3)
	assert.Equal(t, "0xb1", history[0].Hash)
	assert.Equal(t, "0xb3", history[2].Hash)

	first, err := repo.FirstTransaction(ctx, wallet)
	require.NoError(t, err)
	assert.Equal(t, "0xb1", first.Hash)

	last, err := repo.LastTransaction(ctx, wallet)
	require.NoError(t, err)
	assert.Equal(t, "0xb3", last.Hash)

	top, err := repo.TopTransactions(ctx, wallet, 2)
	require.NoError(t, err)
	require.Len(t, top, 2)
	assert.Equal(t, "0xb2", top[0].Hash)
}
