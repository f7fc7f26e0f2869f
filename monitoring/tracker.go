package monitoring

import (
	"sync"
	"time"
)

// PredictionTracker accumulates service-level counters for the stats
// endpoint. It tracks outcomes only; it never stores feature values.
type PredictionTracker struct {
	mu             sync.RWMutex
	startTime      time.Time
	totalCount     int64
	failedCount    int64
	lastRevenue    float64
	lastPredicted  time.Time
	totalLatency   time.Duration
	latencySamples int64
}

// Stats is a point-in-time snapshot of the tracker.
type Stats struct {
	TotalPredictions  int64     `json:"total_predictions"`
	FailedPredictions int64     `json:"failed_predictions"`
	LastRevenue       float64   `json:"last_revenue"`
	LastPredictedAt   time.Time `json:"last_predicted_at"`
	MeanLatencyMs     float64   `json:"mean_latency_ms"`
	UptimeSeconds     float64   `json:"uptime_seconds"`
	StartTime         time.Time `json:"start_time"`
}

func NewPredictionTracker() *PredictionTracker {
	return &PredictionTracker{startTime: time.Now()}
}

// RecordSuccess notes a completed prediction and its latency.
func (t *PredictionTracker) RecordSuccess(revenue float64, latency time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.totalCount++
	t.lastRevenue = revenue
	t.lastPredicted = time.Now()
	t.totalLatency += latency
	t.latencySamples++
}

// RecordFailure notes a prediction attempt the model rejected.
func (t *PredictionTracker) RecordFailure() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.totalCount++
	t.failedCount++
}

func (t *PredictionTracker) Snapshot() Stats {
	t.mu.RLock()
	defer t.mu.RUnlock()

	stats := Stats{
		TotalPredictions:  t.totalCount,
		FailedPredictions: t.failedCount,
		LastRevenue:       t.lastRevenue,
		LastPredictedAt:   t.lastPredicted,
		UptimeSeconds:     time.Since(t.startTime).Seconds(),
		StartTime:         t.startTime,
	}
	if t.latencySamples > 0 {
		stats.MeanLatencyMs = float64(t.totalLatency.Milliseconds()) / float64(t.latencySamples)
	}
	return stats
}
