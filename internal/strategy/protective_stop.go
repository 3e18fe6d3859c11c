package strategy

import (
	"mocktrade/internal/domain"

	"github.com/shopspring/decimal"
)

// ProtectiveStopStrategy follows every BUY fill with a trailing-percent SELL
// for the same quantity, seeded at the fill price.
type ProtectiveStopStrategy struct {
	percent decimal.Decimal
}

// NewProtectiveStopStrategy creates the strategy. percent must be in (0, 100).
func NewProtectiveStopStrategy(percent decimal.Decimal) *ProtectiveStopStrategy {
	if !percent.IsPositive() || percent.GreaterThanOrEqual(decimal.NewFromInt(100)) {
		panic("ProtectiveStopStrategy: percent must be in (0, 100)")
	}
	return &ProtectiveStopStrategy{percent: percent}
}

func (p *ProtectiveStopStrategy) OnQuote(domain.Quote) []*domain.Order { return nil }

func (p *ProtectiveStopStrategy) OnOrderUpdate(o *domain.Order) []*domain.Order {
	if o.Status != domain.OrderStatusExecuted || !o.IsBuy() {
		return nil
	}
	return []*domain.Order{{
		Symbol:       o.Symbol,
		Action:       domain.ActionSell,
		Strategy:     domain.StrategyTrailingStopPercent,
		Quantity:     o.Quantity,
		StopPercent:  p.percent,
		HighestPrice: o.ExecutedPrice,
	}}
}
