package storage

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wallet-sentinel/internal/models"
)

func setupTestGraph(t *testing.T) *GraphStore {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	return NewGraphStoreWithClient(client)
}

func TestMergeTransactionsIdempotent(t *testing.T) {
	graph := setupTestGraph(t)
	ctx := context.Background()

	sender := "0xAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA"
	receiver := "0xbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb"
	txs := []*models.Transaction{{
		Hash:      "0xfeed",
		Sender:    sender,
		Receiver:  receiver,
		Value:     12.5,
		Timestamp: time.Date(2025, 3, 1, 10, 30, 0, 0, time.UTC),
	}}

	require.NoError(t, graph.MergeTransactions(ctx, txs))
	require.NoError(t, graph.MergeTransactions(ctx, txs))

	nodes, err := graph.NodeCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), nodes)

	edges, err := graph.EdgeCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), edges)

	// Mixed-case sender collapsed to one node.
	exists, err := graph.NodeExists(ctx, sender)
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestMergeTransactionsBuildsUndirectedAdjacency(t *testing.T) {
	graph := setupTestGraph(t)
	ctx := context.Background()

	a := "0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"
	b := "0xbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb"
	require.NoError(t, graph.MergeTransactions(ctx, []*models.Transaction{{
		Hash: "0x01", Sender: a, Receiver: b, Value: 1,
		Timestamp: time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
	}}))

	fromA, err := graph.Neighbors(ctx, a)
	require.NoError(t, err)
	assert.Equal(t, []string{b}, fromA)

	fromB, err := graph.Neighbors(ctx, b)
	require.NoError(t, err)
	assert.Equal(t, []string{a}, fromB)
}

func TestLabelBlacklistedSkipsUnknownNodes(t *testing.T) {
	graph := setupTestGraph(t)
	ctx := context.Background()

	a := "0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"
	b := "0xbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb"
	unknown := "0xcccccccccccccccccccccccccccccccccccccccc"

	require.NoError(t, graph.MergeTransactions(ctx, []*models.Transaction{{
		Hash: "0x01", Sender: a, Receiver: b, Value: 1,
		Timestamp: time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
	}}))

	labeled, err := graph.LabelBlacklisted(ctx, []string{a, unknown})
	require.NoError(t, err)
	assert.Equal(t, int64(1), labeled)

	isA, err := graph.IsBlacklisted(ctx, a)
	require.NoError(t, err)
	assert.True(t, isA)

	isUnknown, err := graph.IsBlacklisted(ctx, unknown)
	require.NoError(t, err)
	assert.False(t, isUnknown)

	count, err := graph.BlacklistedCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestSentEdgesRoundTrip(t *testing.T) {
	graph := setupTestGraph(t)
	ctx := context.Background()

	a := "0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"
	b := "0xbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb"
	ts := time.Date(2025, 3, 1, 10, 30, 0, 0, time.UTC)

	require.NoError(t, graph.MergeTransactions(ctx, []*models.Transaction{
		{Hash: "0x01", Sender: a, Receiver: b, Value: 12.5, Timestamp: ts},
		{Hash: "0x02", Sender: b, Receiver: a, Value: 3, Timestamp: ts.Add(time.Hour)},
	}))

	sent, err := graph.SentEdges(ctx, a)
	require.NoError(t, err)
	require.Len(t, sent, 1)

	assert.Equal(t, "0x01", sent[0].Hash)
	assert.Equal(t, a, sent[0].Sender)
	assert.Equal(t, b, sent[0].Receiver)
	assert.Equal(t, 12.5, sent[0].Value)
	assert.True(t, sent[0].Timestamp.Equal(ts))
}
