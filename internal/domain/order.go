package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// MaxOrderQuantity is the largest share count a single order may carry.
const MaxOrderQuantity int64 = 1_000_000_000

// Action is the trade direction.
type Action string

const (
	ActionBuy  Action = "BUY"
	ActionSell Action = "SELL"
)

// IsValid checks if the action is BUY or SELL.
func (a Action) IsValid() bool {
	return a == ActionBuy || a == ActionSell
}

// ParseAction creates an Action from a string (case-insensitive).
func ParseAction(value string) (Action, error) {
	a := Action(strings.ToUpper(strings.TrimSpace(value)))
	if !a.IsValid() {
		return "", fmt.Errorf("%w: unknown action %q", ErrInvalidOrder, value)
	}
	return a, nil
}

// Strategy is the trigger rule of an order.
type Strategy string

const (
	StrategyMarket              Strategy = "MARKET"
	StrategyManual              Strategy = "MANUAL"
	StrategyLimit               Strategy = "LIMIT"
	StrategyStopLoss            Strategy = "STOP_LOSS"
	StrategyTrailingStopAmount  Strategy = "TRAILING_STOP_AMOUNT_CHANGE"
	StrategyTrailingStopPercent Strategy = "TRAILING_STOP_PERCENT_CHANGE"
)

// Strategies lists every known strategy in display order.
var Strategies = []Strategy{
	StrategyMarket,
	StrategyManual,
	StrategyLimit,
	StrategyStopLoss,
	StrategyTrailingStopAmount,
	StrategyTrailingStopPercent,
}

// IsValid checks if the strategy is one of Strategies.
func (s Strategy) IsValid() bool {
	for _, known := range Strategies {
		if s == known {
			return true
		}
	}
	return false
}

// IsTrailing reports whether the strategy keeps a trailing reference price.
func (s Strategy) IsTrailing() bool {
	return s == StrategyTrailingStopAmount || s == StrategyTrailingStopPercent
}

// ParseStrategy creates a Strategy from a string (case-insensitive).
func ParseStrategy(value string) (Strategy, error) {
	s := Strategy(strings.ToUpper(strings.TrimSpace(value)))
	if !s.IsValid() {
		return "", fmt.Errorf("%w: unknown strategy %q", ErrInvalidOrder, value)
	}
	return s, nil
}

// OrderStatus is the lifecycle state of an order.
type OrderStatus string

const (
	OrderStatusOpen      OrderStatus = "OPEN"
	OrderStatusExecuted  OrderStatus = "EXECUTED"
	OrderStatusCancelled OrderStatus = "CANCELLED"
)

// Order represents a pending or finished trade instruction.
// All monetary values are Money (integer micro-cents).
type Order struct {
	ID        uint     `gorm:"primaryKey" json:"id"`
	AccountID uint     `gorm:"index" json:"account_id"`
	Symbol    string   `gorm:"index" json:"symbol"`
	Action    Action   `json:"action"`
	Strategy  Strategy `json:"strategy"`
	Quantity  int64    `json:"quantity"`

	LimitPrice  Money           `json:"limit_price"`  // LIMIT/MANUAL price, STOP_LOSS stop price
	StopPrice   Money           `json:"stop_price"`   // Trailing stop amount
	StopPercent decimal.Decimal `json:"stop_percent"` // Trailing stop percent (0-100)

	// HighestPrice is the trailing reference: best price seen since the order opened.
	// Only the order manager moves it.
	HighestPrice Money `json:"highest_price"`

	Status        OrderStatus `gorm:"index" json:"status"`
	ExecutedPrice Money       `json:"executed_price"`
	ExecutedAt    *time.Time  `json:"executed_at,omitempty"`
	CreatedAt     time.Time   `json:"created_at"`
	UpdatedAt     time.Time   `json:"updated_at"`
}

// IsOpen checks if the order is still waiting to execute.
func (o *Order) IsOpen() bool {
	return o.Status == OrderStatusOpen
}

func (o *Order) IsBuy() bool  { return o.Action == ActionBuy }
func (o *Order) IsSell() bool { return o.Action == ActionSell }

// SignedQuantity returns +Quantity for BUY and -Quantity for SELL.
func (o *Order) SignedQuantity() int64 {
	if o.IsSell() {
		return -o.Quantity
	}
	return o.Quantity
}

// Cost returns price * quantity, negative for SELL.
func (o *Order) Cost(price Money) Money {
	return price.Mul(o.SignedQuantity())
}

// CostChecked is Cost for untrusted prices: an amount that does not fit
// in Money is an ErrInvalidOrder instead of a panic.
func (o *Order) CostChecked(price Money) (Money, error) {
	cost, err := price.MulChecked(o.SignedQuantity())
	if err != nil {
		return Money{}, fmt.Errorf("%w: %s %d @ %s: %w", ErrInvalidOrder, o.Symbol, o.Quantity, price, err)
	}
	return cost, nil
}

// Validate checks that the order carries what its strategy needs.
func (o *Order) Validate() error {
	if strings.TrimSpace(o.Symbol) == "" {
		return fmt.Errorf("%w: symbol cannot be empty", ErrInvalidOrder)
	}
	if !o.Action.IsValid() {
		return fmt.Errorf("%w: unknown action %q", ErrInvalidOrder, o.Action)
	}
	if !o.Strategy.IsValid() {
		return fmt.Errorf("%w: unknown strategy %q", ErrInvalidOrder, o.Strategy)
	}
	if o.Quantity <= 0 {
		return fmt.Errorf("%w: quantity must be positive", ErrInvalidOrder)
	}
	if o.Quantity > MaxOrderQuantity {
		return fmt.Errorf("%w: quantity %d exceeds %d", ErrInvalidOrder, o.Quantity, MaxOrderQuantity)
	}

	switch o.Strategy {
	case StrategyLimit, StrategyManual, StrategyStopLoss:
		if !o.LimitPrice.IsPositive() {
			return fmt.Errorf("%w: %s requires a positive limit price", ErrInvalidOrder, o.Strategy)
		}
	case StrategyTrailingStopAmount:
		if !o.StopPrice.IsPositive() {
			return fmt.Errorf("%w: %s requires a positive stop amount", ErrInvalidOrder, o.Strategy)
		}
	case StrategyTrailingStopPercent:
		if !o.StopPercent.IsPositive() || o.StopPercent.GreaterThanOrEqual(decimal.NewFromInt(100)) {
			return fmt.Errorf("%w: %s requires a stop percent in (0, 100)", ErrInvalidOrder, o.Strategy)
		}
	}
	return nil
}

// MarkExecuted records the fill.
func (o *Order) MarkExecuted(price Money, at time.Time) {
	o.Status = OrderStatusExecuted
	o.ExecutedPrice = price
	o.ExecutedAt = &at
}

// Cancel moves an open order to CANCELLED.
func (o *Order) Cancel() error {
	if !o.IsOpen() {
		return fmt.Errorf("%w: order %d is %s", ErrOrderNotOpen, o.ID, o.Status)
	}
	o.Status = OrderStatusCancelled
	return nil
}

func (o *Order) String() string {
	return fmt.Sprintf("#%d %s %d %s %s", o.ID, o.Action, o.Quantity, o.Symbol, o.Strategy)
}
