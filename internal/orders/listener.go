package orders

import (
	"context"
	"time"

	"mocktrade/internal/domain"
)

// UpdateResult is the outcome of persisting a trailing-reference change.
type UpdateResult int

const (
	// UpdateNoop means nothing needed persisting (e.g. no store configured).
	UpdateNoop UpdateResult = iota
	// UpdateSaved means the new reference was persisted.
	UpdateSaved
	// UpdateFailed means persistence was attempted and failed.
	UpdateFailed
)

func (r UpdateResult) String() string {
	switch r {
	case UpdateNoop:
		return "NOOP"
	case UpdateSaved:
		return "SAVED"
	case UpdateFailed:
		return "FAILED"
	default:
		return "UNKNOWN"
	}
}

// Listener performs the side effects the Manager decides on.
type Listener interface {
	// ExecuteOrder fills the order at price: move funds, aggregate the
	// investment, mark the order executed, persist.
	ExecuteOrder(ctx context.Context, order *domain.Order, quote domain.Quote, price domain.Money) error

	// UpdateOrder persists an order whose trailing reference moved.
	// The error is non-nil exactly when the result is UpdateFailed.
	UpdateOrder(ctx context.Context, order *domain.Order) (UpdateResult, error)
}

// QuoteValidator decides whether a quote is good enough to act on.
// Orders are left untouched for quotes it rejects.
type QuoteValidator func(q domain.Quote) bool

// AnyQuote accepts every quote. Useful in tests and replays.
func AnyQuote(domain.Quote) bool { return true }

// FreshQuotes accepts quotes with a positive price that are not flagged
// stale and whose last trade is at most maxAge old (maxAge <= 0 disables
// the age check). now defaults to time.Now.
func FreshQuotes(maxAge time.Duration, now func() time.Time) QuoteValidator {
	if now == nil {
		now = time.Now
	}
	return func(q domain.Quote) bool {
		if !q.Price.IsPositive() || q.Stale {
			return false
		}
		if maxAge > 0 && q.Age(now()) > maxAge {
			return false
		}
		return true
	}
}
