// Package orders decides when pending orders execute.
//
// Evaluate is a pure function of an order and a quote. Process applies its
// decision through a Listener, which owns all I/O. Neither locks: callers
// must not share an order across concurrent calls.
package orders

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"mocktrade/internal/domain"

	"github.com/shopspring/decimal"
)

// DecisionKind is what the manager wants done with an order.
type DecisionKind int

const (
	NoAction DecisionKind = iota
	Execute
	UpdateTrailingReference
)

func (k DecisionKind) String() string {
	switch k {
	case NoAction:
		return "NO_ACTION"
	case Execute:
		return "EXECUTE"
	case UpdateTrailingReference:
		return "UPDATE_TRAILING_REFERENCE"
	default:
		return "UNKNOWN"
	}
}

// Decision is the result of evaluating one order against one quote.
// Price is the execution price for Execute and the new highest price for
// UpdateTrailingReference.
type Decision struct {
	Kind  DecisionKind
	Price domain.Money
}

var (
	noAction = Decision{Kind: NoAction}

	errUpdateFailed = errors.New("trailing reference not persisted")

	hundred = decimal.NewFromInt(100)
)

// Manager evaluates orders against quotes.
type Manager struct {
	listener Listener
	valid    QuoteValidator
}

// NewManager creates a manager. A nil validator accepts every quote.
func NewManager(listener Listener, valid QuoteValidator) *Manager {
	if valid == nil {
		valid = AnyQuote
	}
	return &Manager{listener: listener, valid: valid}
}

// Evaluate decides what to do with order given quote. It never mutates the
// order and never calls the listener.
//
// Closed orders and invalid quotes yield NoAction. BUY with STOP_LOSS or a
// trailing strategy yields an *domain.UnsupportedOrderError.
func (m *Manager) Evaluate(order *domain.Order, quote domain.Quote) (Decision, error) {
	if !order.IsOpen() {
		return noAction, nil
	}
	if order.Symbol != quote.Symbol {
		return noAction, fmt.Errorf("%w: order %s, quote %s", domain.ErrQuoteMismatch, order.Symbol, quote.Symbol)
	}
	if !m.valid(quote) {
		return noAction, nil
	}

	price := quote.Price

	switch order.Strategy {
	case domain.StrategyMarket:
		return execute(price), nil

	case domain.StrategyManual:
		return execute(order.LimitPrice), nil

	case domain.StrategyLimit:
		switch order.Action {
		case domain.ActionBuy:
			if price.LessThanOrEqual(order.LimitPrice) {
				return execute(price), nil
			}
		case domain.ActionSell:
			if price.GreaterThanOrEqual(order.LimitPrice) {
				return execute(price), nil
			}
		default:
			return noAction, unsupported(order)
		}
		return noAction, nil

	case domain.StrategyStopLoss:
		if !order.IsSell() {
			return noAction, unsupported(order)
		}
		if price.LessThanOrEqual(order.LimitPrice) {
			return execute(price), nil
		}
		return noAction, nil

	case domain.StrategyTrailingStopAmount:
		if !order.IsSell() {
			return noAction, unsupported(order)
		}
		return trail(order, price, order.HighestPrice.Sub(order.StopPrice)), nil

	case domain.StrategyTrailingStopPercent:
		if !order.IsSell() {
			return noAction, unsupported(order)
		}
		return trail(order, price, percentBelow(order.HighestPrice, order.StopPercent)), nil

	default:
		return noAction, unsupported(order)
	}
}

// Process evaluates the order and applies the decision through the listener.
//
// On UpdateTrailingReference the order's HighestPrice is raised before
// UpdateOrder is called; if the listener reports UpdateFailed the previous
// reference is restored and an error is returned. No retries.
func (m *Manager) Process(ctx context.Context, order *domain.Order, quote domain.Quote) (Decision, error) {
	d, err := m.Evaluate(order, quote)
	if err != nil {
		return d, err
	}

	switch d.Kind {
	case Execute:
		if err := m.listener.ExecuteOrder(ctx, order, quote, d.Price); err != nil {
			return d, fmt.Errorf("execute order %d: %w", order.ID, err)
		}
		slog.Debug("Order executed",
			slog.Uint64("order_id", uint64(order.ID)),
			slog.String("symbol", order.Symbol),
			slog.String("price", d.Price.String()))

	case UpdateTrailingReference:
		previous := order.HighestPrice
		order.HighestPrice = d.Price

		res, err := m.listener.UpdateOrder(ctx, order)
		if res == UpdateFailed {
			order.HighestPrice = previous
			if err == nil {
				err = errUpdateFailed
			}
			return d, fmt.Errorf("update order %d: %w", order.ID, err)
		}
		slog.Debug("Trailing reference raised",
			slog.Uint64("order_id", uint64(order.ID)),
			slog.String("from", previous.String()),
			slog.String("to", d.Price.String()),
			slog.String("result", res.String()))
	}

	return d, nil
}

func execute(price domain.Money) Decision {
	return Decision{Kind: Execute, Price: price}
}

func unsupported(order *domain.Order) error {
	return &domain.UnsupportedOrderError{Strategy: order.Strategy, Action: order.Action}
}

// trail is the SELL trailing-stop branch: execute at or below the threshold,
// ratchet the reference up on a new high, otherwise wait. A zero reference
// is below every positive price, so the first quote only seeds it.
func trail(order *domain.Order, price, threshold domain.Money) Decision {
	if price.LessThanOrEqual(threshold) {
		return execute(price)
	}
	if price.GreaterThan(order.HighestPrice) {
		return Decision{Kind: UpdateTrailingReference, Price: price}
	}
	return noAction
}

// percentBelow returns ref * (100 - pct) / 100 rounded to the nearest micro-cent.
func percentBelow(ref domain.Money, pct decimal.Decimal) domain.Money {
	micros := decimal.NewFromInt(ref.Micros()).Mul(hundred.Sub(pct)).Div(hundred).Round(0)
	return domain.NewMoneyIn(micros.IntPart(), ref.Currency())
}
