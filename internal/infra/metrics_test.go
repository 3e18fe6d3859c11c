package infra

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMetrics_RecordEvent(t *testing.T) {
	m := &Metrics{}

	m.RecordEvent(1000)
	m.RecordEvent(2000)
	m.RecordEvent(3000)

	snap := m.Snapshot()

	assert.Equal(t, uint64(3), snap.EventsProcessed)
	// Average latency: (1000 + 2000 + 3000) / 3 = 2000
	assert.Equal(t, int64(2000), snap.AvgLatencyNs)
}

func TestMetrics_OrderCounters(t *testing.T) {
	m := &Metrics{}

	m.RecordEvaluation()
	m.RecordEvaluation()
	m.RecordOrderFilled()
	m.RecordTrailingUpdate()
	m.RecordUnsupported()
	m.RecordError()
	m.SetOpenOrders(4)

	snap := m.Snapshot()
	assert.Equal(t, uint64(2), snap.Evaluations)
	assert.Equal(t, uint64(1), snap.OrdersFilled)
	assert.Equal(t, uint64(1), snap.TrailingUpdates)
	// Unsupported orders also count as errors
	assert.Equal(t, uint64(1), snap.UnsupportedOrders)
	assert.Equal(t, uint64(2), snap.ErrorsTotal)
	assert.Equal(t, int64(4), snap.OpenOrders)
}

func TestMetrics_Reset(t *testing.T) {
	m := &Metrics{}

	m.RecordEvent(1000)
	m.RecordError()
	m.RecordRetry()
	m.SetOpenOrders(3)

	m.Reset()
	snap := m.Snapshot()

	assert.Zero(t, snap.EventsProcessed)
	assert.Zero(t, snap.ErrorsTotal)
	assert.Zero(t, snap.FetchRetries)
	assert.Zero(t, snap.OpenOrders)
}
