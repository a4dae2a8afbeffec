package detector

import (
	"context"
	"sort"
	"time"
)

// HourlySpikeDetector flags bursts of activity: strictly more than the
// configured number of transactions inside one UTC clock hour, with sent
// and received transactions bucketed separately.
type HourlySpikeDetector struct {
	ledger Ledger
	limit  int
}

// NewHourlySpikeDetector creates an hourly spike detector
func NewHourlySpikeDetector(ledger Ledger, limit int) *HourlySpikeDetector {
	return &HourlySpikeDetector{ledger: ledger, limit: limit}
}

// Name returns the detector name used in alert rows.
func (d *HourlySpikeDetector) Name() string {
	return "hourly_spike"
}

type hourBucket struct {
	hour      time.Time
	direction string
}

// Run buckets the wallet history by UTC hour and direction and emits one
// event per bucket over the limit. The payload timestamp is the bucket
// start, so a re-run over the same history dedups to the same key.
func (d *HourlySpikeDetector) Run(ctx context.Context, wallet string) ([]Event, error) {
	txs, err := validHistory(ctx, d.ledger, wallet)
	if err != nil {
		return nil, err
	}

	buckets := make(map[hourBucket]int)
	for _, tx := range txs {
		direction := "received"
		if tx.SentBy(wallet) {
			direction = "sent"
		}
		buckets[hourBucket{
			hour:      tx.Timestamp.UTC().Truncate(time.Hour),
			direction: direction,
		}]++
	}

	var spikes []hourBucket
	for bucket, count := range buckets {
		if count > d.limit {
			spikes = append(spikes, bucket)
		}
	}
	sort.Slice(spikes, func(i, j int) bool {
		if !spikes[i].hour.Equal(spikes[j].hour) {
			return spikes[i].hour.Before(spikes[j].hour)
		}
		return spikes[i].direction < spikes[j].direction
	})

	var events []Event
	for _, bucket := range spikes {
		events = append(events, Event{
			Detector: d.Name(),
			Payload: map[string]interface{}{
				"hour":      bucket.hour.Format(time.RFC3339),
				"direction": bucket.direction,
				"tx_count":  buckets[bucket],
				"timestamp": payloadTimestamp(bucket.hour),
			},
		})
	}

	return events, nil
}
