package domain

import (
	"fmt"
	"time"
)

// InvestmentStatus is the lifecycle state of a position.
type InvestmentStatus string

const (
	InvestmentStatusOpen   InvestmentStatus = "OPEN"
	InvestmentStatusClosed InvestmentStatus = "CLOSED"
)

// Investment is a position in one symbol.
// Quantity and CostBasis change together, only through AggregateOrder.
type Investment struct {
	ID            uint             `gorm:"primaryKey" json:"id"`
	AccountID     uint             `gorm:"uniqueIndex:idx_account_symbol" json:"account_id"`
	Symbol        string           `gorm:"uniqueIndex:idx_account_symbol" json:"symbol"`
	Quantity      int64            `json:"quantity"`
	CostBasis     Money            `json:"cost_basis"`
	Price         Money            `json:"price"`
	PreviousClose Money            `json:"previous_close"`
	Status        InvestmentStatus `json:"status"`
	CreatedAt     time.Time        `json:"created_at"`
	UpdatedAt     time.Time        `json:"updated_at"`
}

// NewInvestment creates an empty open position.
func NewInvestment(accountID uint, symbol string) *Investment {
	return &Investment{
		AccountID: accountID,
		Symbol:    symbol,
		CostBasis: NewMoney(0),
		Status:    InvestmentStatusOpen,
	}
}

// AggregateOrder folds a filled order into the position.
// BUY adds quantity and cost; SELL removes both. A SELL larger than the
// holding drives Quantity negative: callers reject over-sells before this.
func (i *Investment) AggregateOrder(order *Order, price Money) {
	i.CostBasis = i.CostBasis.Add(order.Cost(price))
	i.Quantity += order.SignedQuantity()
}

// UpdateQuote refreshes the mark price from a quote.
func (i *Investment) UpdateQuote(q Quote) {
	i.Price = q.Price
	i.PreviousClose = q.PreviousClose
}

// Value returns Price * Quantity.
func (i *Investment) Value() Money {
	return i.Price.Mul(i.Quantity)
}

// Gain returns Value - CostBasis.
func (i *Investment) Gain() Money {
	return i.Value().Sub(i.CostBasis)
}

// DayChange returns (Price - PreviousClose) * Quantity.
func (i *Investment) DayChange() Money {
	if i.PreviousClose.IsZero() {
		return NewMoney(0)
	}
	return i.Price.Sub(i.PreviousClose).Mul(i.Quantity)
}

// IsOpen checks if the position is still held.
func (i *Investment) IsOpen() bool {
	return i.Status == InvestmentStatusOpen
}

// Close marks the position CLOSED once nothing is held.
// Returns false (and changes nothing) while Quantity != 0.
func (i *Investment) Close() bool {
	if i.Quantity != 0 {
		return false
	}
	i.Status = InvestmentStatusClosed
	return true
}

// Reopen marks a closed position OPEN again on a new fill.
func (i *Investment) Reopen() {
	i.Status = InvestmentStatusOpen
}

func (i *Investment) String() string {
	return fmt.Sprintf("%s x%d cost=%s", i.Symbol, i.Quantity, i.CostBasis)
}
