package domain

import (
	"context"
)

// QuoteSource supplies quote snapshots for a set of symbols.
// Symbols without a quote are simply absent from the result.
type QuoteSource interface {
	Quotes(ctx context.Context, symbols []string) (map[string]Quote, error)
}

// OrderRepository persists orders.
type OrderRepository interface {
	SaveOrder(ctx context.Context, order *Order) error
	OpenOrders(ctx context.Context, accountID uint) ([]*Order, error)
}

// InvestmentRepository persists positions.
type InvestmentRepository interface {
	SaveInvestment(ctx context.Context, inv *Investment) error
	Investments(ctx context.Context, accountID uint) ([]*Investment, error)
}

// AccountRepository persists accounts.
type AccountRepository interface {
	SaveAccount(ctx context.Context, acct *Account) error
}
