package event

import (
	"sync"
)

// quoteBatchPool reduces allocations for the most frequent event.
//
// Usage:
//
//	ev := AcquireQuoteBatchEvent()
//	ev.Quotes = append(ev.Quotes, q)
//	// ... send and process ...
//	ReleaseQuoteBatchEvent(ev)  // Return to pool after processing
var quoteBatchPool = sync.Pool{
	New: func() interface{} {
		return &QuoteBatchEvent{}
	},
}

// AcquireQuoteBatchEvent gets a QuoteBatchEvent from the pool.
// The returned event has zero values and an empty (possibly pre-sized) Quotes slice.
func AcquireQuoteBatchEvent() *QuoteBatchEvent {
	return quoteBatchPool.Get().(*QuoteBatchEvent)
}

// ReleaseQuoteBatchEvent returns a QuoteBatchEvent to the pool.
// The event is reset before being pooled; the Quotes backing array is kept.
func ReleaseQuoteBatchEvent(ev *QuoteBatchEvent) {
	if ev == nil {
		return
	}
	ev.Seq = 0
	ev.Ts = 0
	clear(ev.Quotes)
	ev.Quotes = ev.Quotes[:0]

	quoteBatchPool.Put(ev)
}

// Warmup pre-allocates event objects to reduce GC pressure at startup.
func Warmup() {
	const batchSize = 256

	evs := make([]*QuoteBatchEvent, 0, batchSize)
	for i := 0; i < batchSize; i++ {
		evs = append(evs, AcquireQuoteBatchEvent())
	}
	for _, ev := range evs {
		ReleaseQuoteBatchEvent(ev)
	}
}
