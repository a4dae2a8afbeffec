package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wallet-sentinel/internal/config"
	"github.com/wallet-sentinel/internal/detector"
	"github.com/wallet-sentinel/internal/logging"
	"github.com/wallet-sentinel/internal/models"
)

type fakeWallets struct {
	addresses []string
	err       error
}

func (f *fakeWallets) Addresses(context.Context) ([]string, error) {
	return f.addresses, f.err
}

// memorySink enforces the alert dedup key in memory the way the alert
// table's unique index does.
type memorySink struct {
	mu    sync.Mutex
	saved map[string]map[string]interface{}
}

func newMemorySink() *memorySink {
	return &memorySink{saved: make(map[string]map[string]interface{})}
}

func (m *memorySink) SaveIfAbsent(_ context.Context, wallet, detectorName string, payload map[string]interface{}) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := fmt.Sprintf("%s|%s|%v", wallet, detectorName, payload["timestamp"])
	if _, ok := m.saved[key]; ok {
		return false, nil
	}
	m.saved[key] = payload
	return true, nil
}

func (m *memorySink) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.saved)
}

type fakeLedger struct {
	txs map[string][]*models.Transaction
}

func (f *fakeLedger) ListByWallet(_ context.Context, wallet string) ([]*models.Transaction, error) {
	return f.txs[wallet], nil
}

type failingDetector struct{}

func (failingDetector) Name() string { return "broken" }
func (failingDetector) Run(context.Context, string) ([]detector.Event, error) {
	return nil, errors.New("boom")
}

func testLogger() *logging.Logger {
	l := logging.NewLogger(logging.LevelFatal, logging.FormatText)
	return l
}

func testRegistry(ledger detector.Ledger) *detector.Registry {
	return detector.DefaultRegistry(ledger, config.DetectionConfig{
		LargeTxThreshold: 10000,
		HourlySpikeCount: 50,
		RecurringMinTx:   5,
	})
}

func TestSchedulerSweepIsIdempotent(t *testing.T) {
	w1 := "0x1111111111111111111111111111111111111111"
	w2 := "0x2222222222222222222222222222222222222222"
	ts := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	ledger := &fakeLedger{txs: map[string][]*models.Transaction{
		w1: {
			{Hash: "0xa1", Sender: w1, Receiver: w2, Value: 25000, Timestamp: ts},
		},
		w2: {
			{Hash: "0xa1", Sender: w1, Receiver: w2, Value: 25000, Timestamp: ts},
		},
	}}

	wallets := &fakeWallets{addresses: []string{w1, w2}}
	sink := newMemorySink()
	s := NewScheduler(wallets, sink, testRegistry(ledger), 4, testLogger())

	first, err := s.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, first.Wallets)
	assert.Equal(t, int64(2), first.AlertsCreated)
	assert.Equal(t, int64(0), first.DuplicatesSkipped)
	assert.Equal(t, 2, sink.count())

	// Unchanged history: the second sweep creates nothing new.
	second, err := s.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(0), second.AlertsCreated)
	assert.Equal(t, int64(2), second.DuplicatesSkipped)
	assert.Equal(t, 2, sink.count())
}

func TestSchedulerIsolatesDetectorFailures(t *testing.T) {
	w1 := "0x1111111111111111111111111111111111111111"
	w2 := "0x2222222222222222222222222222222222222222"
	ts := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	ledger := &fakeLedger{txs: map[string][]*models.Transaction{
		w1: {{Hash: "0xa1", Sender: w1, Receiver: w2, Value: 25000, Timestamp: ts}},
	}}

	registry := detector.NewRegistry()
	registry.Register(failingDetector{})
	registry.Register(detector.NewLargeTransferDetector(ledger, 10000))

	wallets := &fakeWallets{addresses: []string{w1, w2}}
	sink := newMemorySink()
	s := NewScheduler(wallets, sink, registry, 2, testLogger())

	summary, err := s.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(2), summary.Failures)
	assert.Equal(t, int64(1), summary.AlertsCreated)
	assert.Equal(t, 1, sink.count())
}

func TestSchedulerWalletListFailure(t *testing.T) {
	wallets := &fakeWallets{err: errors.New("db down")}
	s := NewScheduler(wallets, newMemorySink(), detector.NewRegistry(), 2, testLogger())

	_, err := s.Run(context.Background())
	require.Error(t, err)
}

func TestSchedulerCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	wallets := &fakeWallets{addresses: []string{"0x1111111111111111111111111111111111111111"}}
	registry := detector.NewRegistry()
	registry.Register(failingDetector{})
	s := NewScheduler(wallets, newMemorySink(), registry, 1, testLogger())

	_, err := s.Run(ctx)
	require.ErrorIs(t, err, context.Canceled)
}
