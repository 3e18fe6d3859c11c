package infra

import (
	"sync/atomic"
	"time"
)

// Metrics provides lightweight observability without external dependencies.
// Uses atomic operations for thread-safety. One instance is created by the
// bootstrap and shared by the engine and the quote service.
type Metrics struct {
	// Counters
	eventsProcessed   atomic.Uint64
	evaluations       atomic.Uint64
	ordersFilled      atomic.Uint64
	trailingUpdates   atomic.Uint64
	unsupportedOrders atomic.Uint64
	fetchRetries      atomic.Uint64
	errorsTotal       atomic.Uint64

	// Latency tracking (per evaluation cycle)
	latencySumNs atomic.Int64
	latencyCount atomic.Uint64

	// Gauges
	openOrders atomic.Int64
}

// RecordEvent records an event processing with latency.
func (m *Metrics) RecordEvent(latencyNs int64) {
	m.eventsProcessed.Add(1)
	m.latencySumNs.Add(latencyNs)
	m.latencyCount.Add(1)
}

// RecordEvaluation records one order evaluated against a quote.
func (m *Metrics) RecordEvaluation() {
	m.evaluations.Add(1)
}

// RecordOrderFilled records a filled order.
func (m *Metrics) RecordOrderFilled() {
	m.ordersFilled.Add(1)
}

// RecordTrailingUpdate records a raised trailing reference.
func (m *Metrics) RecordTrailingUpdate() {
	m.trailingUpdates.Add(1)
}

// RecordUnsupported records an order whose strategy/action pairing is not supported.
func (m *Metrics) RecordUnsupported() {
	m.unsupportedOrders.Add(1)
	m.errorsTotal.Add(1)
}

// RecordRetry records a retried quote fetch.
func (m *Metrics) RecordRetry() {
	m.fetchRetries.Add(1)
}

// RecordError records an error occurrence.
func (m *Metrics) RecordError() {
	m.errorsTotal.Add(1)
}

// SetOpenOrders sets the current open-order count.
func (m *Metrics) SetOpenOrders(count int) {
	m.openOrders.Store(int64(count))
}

// MetricsSnapshot is a point-in-time view of all metrics.
type MetricsSnapshot struct {
	EventsProcessed   uint64
	Evaluations       uint64
	OrdersFilled      uint64
	TrailingUpdates   uint64
	UnsupportedOrders uint64
	FetchRetries      uint64
	ErrorsTotal       uint64
	AvgLatencyNs      int64
	OpenOrders        int64
	Timestamp         time.Time
}

// Snapshot returns current metrics as a snapshot.
func (m *Metrics) Snapshot() MetricsSnapshot {
	var avgLatency int64
	count := m.latencyCount.Load()
	if count > 0 {
		avgLatency = m.latencySumNs.Load() / int64(count)
	}

	return MetricsSnapshot{
		EventsProcessed:   m.eventsProcessed.Load(),
		Evaluations:       m.evaluations.Load(),
		OrdersFilled:      m.ordersFilled.Load(),
		TrailingUpdates:   m.trailingUpdates.Load(),
		UnsupportedOrders: m.unsupportedOrders.Load(),
		FetchRetries:      m.fetchRetries.Load(),
		ErrorsTotal:       m.errorsTotal.Load(),
		AvgLatencyNs:      avgLatency,
		OpenOrders:        m.openOrders.Load(),
		Timestamp:         time.Now(),
	}
}

// Reset clears all metrics (for testing).
func (m *Metrics) Reset() {
	m.eventsProcessed.Store(0)
	m.evaluations.Store(0)
	m.ordersFilled.Store(0)
	m.trailingUpdates.Store(0)
	m.unsupportedOrders.Store(0)
	m.fetchRetries.Store(0)
	m.errorsTotal.Store(0)
	m.latencySumNs.Store(0)
	m.latencyCount.Store(0)
	m.openOrders.Store(0)
}
