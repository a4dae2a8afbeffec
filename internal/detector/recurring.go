package detector

import (
	"context"
	"sort"
	"time"

	"github.com/wallet-sentinel/internal/models"
)

// Interval classification cutoffs: the share of day-gaps that must match
// the cadence, and the gap widths that count as one cycle.
const (
	dailyShare   = 0.7
	weeklyShare  = 0.5
	monthlyShare = 0.3

	weeklyGapDays     = 7
	monthlyGapMinDays = 28
	monthlyGapMaxDays = 31
)

// RecurringDetector flags wallets transacting on a regular cadence. It
// deduplicates activity to calendar dates, measures the gaps between
// consecutive dates, and classifies the cadence from the share of gaps
// matching daily, weekly, or monthly spacing.
type RecurringDetector struct {
	ledger Ledger
	minTx  int
}

// NewRecurringDetector creates a recurring activity detector
func NewRecurringDetector(ledger Ledger, minTx int) *RecurringDetector {
	return &RecurringDetector{ledger: ledger, minTx: minTx}
}

// Name returns the detector name used in alert rows.
func (d *RecurringDetector) Name() string {
	return "recurring_tx"
}

// Run emits at most one event per wallet. The payload timestamp is the
// first active date, so the alert stays deduplicated as history grows.
func (d *RecurringDetector) Run(ctx context.Context, wallet string) ([]Event, error) {
	txs, err := validHistory(ctx, d.ledger, wallet)
	if err != nil {
		return nil, err
	}
	if len(txs) < d.minTx {
		return nil, nil
	}

	dates := activeDates(txs)
	if len(dates) < 2 {
		return nil, nil
	}

	gaps := make([]int, 0, len(dates)-1)
	for i := 1; i < len(dates); i++ {
		gaps = append(gaps, int(dates[i].Sub(dates[i-1]).Hours()/24))
	}

	pattern := classifyCadence(gaps)
	if pattern == "" {
		return nil, nil
	}

	return []Event{{
		Detector: d.Name(),
		Payload: map[string]interface{}{
			"pattern":      pattern,
			"tx_count":     len(txs),
			"active_days":  len(dates),
			"first_active": dates[0].Format("2006-01-02"),
			"last_active":  dates[len(dates)-1].Format("2006-01-02"),
			"timestamp":    payloadTimestamp(dates[0]),
		},
	}}, nil
}

// activeDates returns the distinct UTC calendar dates of the history,
// sorted ascending.
func activeDates(txs []*models.Transaction) []time.Time {
	seen := make(map[time.Time]struct{})
	var dates []time.Time
	for _, tx := range txs {
		ts := tx.Timestamp.UTC()
		day := time.Date(ts.Year(), ts.Month(), ts.Day(), 0, 0, 0, 0, time.UTC)
		if _, ok := seen[day]; ok {
			continue
		}
		seen[day] = struct{}{}
		dates = append(dates, day)
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })
	return dates
}

func classifyCadence(gaps []int) string {
	if len(gaps) == 0 {
		return ""
	}

	var daily, weekly, monthly int
	for _, gap := range gaps {
		switch {
		case gap == 1:
			daily++
		case gap == weeklyGapDays:
			weekly++
		case gap >= monthlyGapMinDays && gap <= monthlyGapMaxDays:
			monthly++
		}
	}

	total := float64(len(gaps))
	switch {
	case float64(daily)/total >= dailyShare:
		return "daily"
	case float64(weekly)/total >= weeklyShare:
		return "weekly"
	case float64(monthly)/total >= monthlyShare:
		return "monthly"
	default:
		return ""
	}
}
