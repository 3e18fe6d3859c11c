package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Quote is a read-only market snapshot for a single symbol.
type Quote struct {
	Symbol        string    `json:"symbol"`
	Price         Money     `json:"price"`
	PreviousClose Money     `json:"previous_close"`
	LastTrade     time.Time `json:"last_trade"`
	Stale         bool      `json:"stale"`   // Feed marked the quote as outdated
	Delayed       bool      `json:"delayed"` // Exchange-delayed (e.g. 15 min)
}

// Change returns Price - PreviousClose.
func (q Quote) Change() Money {
	return q.Price.Sub(q.PreviousClose)
}

// ChangePercent calculates 100 * (Price - PreviousClose) / PreviousClose.
// Returns nil when the previous close is unknown.
func (q Quote) ChangePercent() *decimal.Decimal {
	if q.PreviousClose.IsZero() {
		return nil
	}

	pct := q.Change().Decimal().Div(q.PreviousClose.Decimal()).Mul(decimal.NewFromInt(100))
	return &pct
}

// Age returns how long ago the last trade happened relative to now.
func (q Quote) Age(now time.Time) time.Duration {
	return now.Sub(q.LastTrade)
}

// Direction returns "positive", "negative", or "neutral"
func (q Quote) Direction() string {
	change := q.Change()
	if change.IsPositive() {
		return "positive"
	}
	if change.IsNegative() {
		return "negative"
	}
	return "neutral"
}
