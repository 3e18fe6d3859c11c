// Package execution fills orders against a simulated account.
package execution

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"mocktrade/internal/domain"
	"mocktrade/internal/orders"
)

// Store is the persistence the desk writes through. A nil Store keeps
// everything in memory.
type Store interface {
	SaveOrder(ctx context.Context, order *domain.Order) error
	SaveInvestment(ctx context.Context, inv *domain.Investment) error
	SaveAccount(ctx context.Context, acct *domain.Account) error
}

// Fill is one executed order.
type Fill struct {
	OrderID  uint
	Symbol   string
	Action   domain.Action
	Quantity int64
	Price    domain.Money
	Cost     domain.Money
	At       time.Time
}

// PaperExecution is the simulated broker: it implements orders.Listener and
// moves account funds and positions for every fill.
type PaperExecution struct {
	mu          sync.RWMutex
	account     *domain.Account
	investments map[string]*domain.Investment
	fills       []Fill
	store       Store
	nextID      uint
	now         func() time.Time
}

// NewPaperExecution creates a desk trading for account.
func NewPaperExecution(account *domain.Account, store Store) *PaperExecution {
	return &PaperExecution{
		account:     account,
		investments: make(map[string]*domain.Investment),
		store:       store,
		nextID:      1,
		now:         time.Now,
	}
}

var _ orders.Listener = (*PaperExecution)(nil)

// LoadInvestments seeds positions (e.g. from storage at startup).
func (p *PaperExecution) LoadInvestments(invs []*domain.Investment) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for _, inv := range invs {
		p.investments[inv.Symbol] = inv
	}
}

// PlaceOrder validates a new order, marks it OPEN and persists it.
// Without a store, IDs come from a local counter.
func (p *PaperExecution) PlaceOrder(ctx context.Context, order *domain.Order) error {
	if err := order.Validate(); err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	order.AccountID = p.account.ID
	order.Status = domain.OrderStatusOpen
	if p.store == nil {
		if order.ID == 0 {
			order.ID = p.nextID
		}
		if order.ID >= p.nextID {
			p.nextID = order.ID + 1
		}
		return nil
	}
	if err := p.store.SaveOrder(ctx, order); err != nil {
		return fmt.Errorf("failed to save order: %w", err)
	}
	return nil
}

// CancelOrder cancels an open order and persists it.
func (p *PaperExecution) CancelOrder(ctx context.Context, order *domain.Order) error {
	if err := order.Cancel(); err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	return p.saveOrder(ctx, order)
}

// ExecuteOrder fills order at price.
//
// A BUY the account cannot pay for, or a SELL larger than the holding, is
// cancelled instead and ErrInsufficientFunds / ErrOversell is returned.
// An amount that would overflow Money cancels the order with ErrInvalidOrder.
func (p *PaperExecution) ExecuteOrder(ctx context.Context, order *domain.Order, quote domain.Quote, price domain.Money) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	inv, ok := p.investments[order.Symbol]
	if !ok {
		inv = domain.NewInvestment(p.account.ID, order.Symbol)
	}

	cost, err := order.CostChecked(price)
	if err != nil {
		return p.reject(ctx, order, err)
	}
	if _, err := inv.CostBasis.AddChecked(cost); err != nil {
		return p.reject(ctx, order, fmt.Errorf("%w: %s cost basis: %w", domain.ErrInvalidOrder, order.Symbol, err))
	}

	switch order.Action {
	case domain.ActionBuy:
		if err := p.account.Debit(cost); err != nil {
			return p.reject(ctx, order, err)
		}
	case domain.ActionSell:
		if order.Quantity > inv.Quantity {
			return p.reject(ctx, order, fmt.Errorf("%w: %s sell %d, held %d",
				domain.ErrOversell, order.Symbol, order.Quantity, inv.Quantity))
		}
		proceeds, err := price.MulChecked(order.Quantity)
		if err == nil {
			_, err = p.account.Funds.AddChecked(proceeds)
		}
		if err != nil {
			return p.reject(ctx, order, fmt.Errorf("%w: %s proceeds: %w", domain.ErrInvalidOrder, order.Symbol, err))
		}
		p.account.Credit(proceeds)
	default:
		return p.reject(ctx, order, fmt.Errorf("%w: unknown action %q", domain.ErrInvalidOrder, order.Action))
	}
	p.account.VerifyInvariant()

	if !inv.IsOpen() {
		inv.Reopen()
	}
	inv.AggregateOrder(order, price)
	inv.UpdateQuote(quote)
	inv.Close()
	p.investments[order.Symbol] = inv

	at := quote.LastTrade
	if at.IsZero() {
		at = p.now()
	}
	order.MarkExecuted(price, at)

	p.fills = append(p.fills, Fill{
		OrderID:  order.ID,
		Symbol:   order.Symbol,
		Action:   order.Action,
		Quantity: order.Quantity,
		Price:    price,
		Cost:     cost,
		At:       at,
	})

	slog.Info("FILL",
		slog.Uint64("order_id", uint64(order.ID)),
		slog.String("symbol", order.Symbol),
		slog.String("action", string(order.Action)),
		slog.Int64("qty", order.Quantity),
		slog.String("price", price.String()),
		slog.String("funds", p.account.Funds.String()))

	return p.persistFill(ctx, order, inv)
}

// UpdateOrder persists a moved trailing reference.
func (p *PaperExecution) UpdateOrder(ctx context.Context, order *domain.Order) (orders.UpdateResult, error) {
	if p.store == nil {
		return orders.UpdateNoop, nil
	}
	if err := p.store.SaveOrder(ctx, order); err != nil {
		return orders.UpdateFailed, err
	}
	return orders.UpdateSaved, nil
}

func (p *PaperExecution) reject(ctx context.Context, order *domain.Order, cause error) error {
	if err := order.Cancel(); err != nil {
		return fmt.Errorf("%w (cancel failed: %v)", cause, err)
	}
	slog.Warn("Order rejected",
		slog.Uint64("order_id", uint64(order.ID)),
		slog.String("symbol", order.Symbol),
		slog.Any("reason", cause))

	if err := p.saveOrder(ctx, order); err != nil {
		return fmt.Errorf("%w (persist failed: %v)", cause, err)
	}
	return cause
}

func (p *PaperExecution) saveOrder(ctx context.Context, order *domain.Order) error {
	if p.store == nil {
		return nil
	}
	if err := p.store.SaveOrder(ctx, order); err != nil {
		return fmt.Errorf("failed to save order: %w", err)
	}
	return nil
}

func (p *PaperExecution) persistFill(ctx context.Context, order *domain.Order, inv *domain.Investment) error {
	if p.store == nil {
		return nil
	}
	if err := p.store.SaveOrder(ctx, order); err != nil {
		return fmt.Errorf("failed to save order: %w", err)
	}
	if err := p.store.SaveInvestment(ctx, inv); err != nil {
		return fmt.Errorf("failed to save investment: %w", err)
	}
	if err := p.store.SaveAccount(ctx, p.account); err != nil {
		return fmt.Errorf("failed to save account: %w", err)
	}
	return nil
}

// Funds returns the account's available funds.
func (p *PaperExecution) Funds() domain.Money {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.account.Funds
}

// Account returns a copy of the account.
func (p *PaperExecution) Account() domain.Account {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return *p.account
}

// Investment returns a copy of the position in symbol.
func (p *PaperExecution) Investment(symbol string) (domain.Investment, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	inv, ok := p.investments[symbol]
	if !ok {
		return domain.Investment{}, false
	}
	return *inv, true
}

// Investments returns copies of all positions sorted by symbol.
func (p *PaperExecution) Investments() []domain.Investment {
	p.mu.RLock()
	defer p.mu.RUnlock()

	result := make([]domain.Investment, 0, len(p.investments))
	for _, inv := range p.investments {
		result = append(result, *inv)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Symbol < result[j].Symbol
	})
	return result
}

// GetFills returns a copy of all fills in execution order.
func (p *PaperExecution) GetFills() []Fill {
	p.mu.RLock()
	defer p.mu.RUnlock()

	fills := make([]Fill, len(p.fills))
	copy(fills, p.fills)
	return fills
}
