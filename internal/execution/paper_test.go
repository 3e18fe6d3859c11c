package execution

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"mocktrade/internal/domain"
	"mocktrade/internal/orders"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memStore is an in-memory Store that can be told to fail.
type memStore struct {
	orders      map[uint]domain.Order
	investments map[string]domain.Investment
	accounts    int
	nextID      uint
	err         error
}

func newMemStore() *memStore {
	return &memStore{
		orders:      make(map[uint]domain.Order),
		investments: make(map[string]domain.Investment),
		nextID:      100,
	}
}

func (m *memStore) SaveOrder(_ context.Context, o *domain.Order) error {
	if m.err != nil {
		return m.err
	}
	if o.ID == 0 {
		o.ID = m.nextID
		m.nextID++
	}
	m.orders[o.ID] = *o
	return nil
}

func (m *memStore) SaveInvestment(_ context.Context, inv *domain.Investment) error {
	if m.err != nil {
		return m.err
	}
	m.investments[inv.Symbol] = *inv
	return nil
}

func (m *memStore) SaveAccount(_ context.Context, _ *domain.Account) error {
	if m.err != nil {
		return m.err
	}
	m.accounts++
	return nil
}

func quoteAt(symbol, price string) domain.Quote {
	return domain.Quote{
		Symbol:        symbol,
		Price:         domain.MustParseMoney(price),
		PreviousClose: domain.MustParseMoney(price),
		LastTrade:     time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC),
	}
}

func marketOrder(action domain.Action, qty int64) *domain.Order {
	return &domain.Order{
		Symbol:   "AAPL",
		Action:   action,
		Strategy: domain.StrategyMarket,
		Quantity: qty,
	}
}

func TestPaperExecution_Buy(t *testing.T) {
	acct := domain.NewAccount("default", domain.MustParseMoney("10000"))
	paper := NewPaperExecution(acct, nil)
	ctx := context.Background()

	order := marketOrder(domain.ActionBuy, 10)
	require.NoError(t, paper.PlaceOrder(ctx, order))
	require.Equal(t, uint(1), order.ID)
	require.True(t, order.IsOpen())

	price := domain.MustParseMoney("150")
	require.NoError(t, paper.ExecuteOrder(ctx, order, quoteAt("AAPL", "150"), price))

	// 10000 - 10 * 150 = 8500
	assert.True(t, paper.Funds().Equal(domain.MustParseMoney("8500")), "funds %s", paper.Funds())

	inv, ok := paper.Investment("AAPL")
	require.True(t, ok, "Investment should exist")
	assert.Equal(t, int64(10), inv.Quantity)
	assert.True(t, inv.CostBasis.Equal(domain.MustParseMoney("1500")), "cost basis %s", inv.CostBasis)

	assert.Equal(t, domain.OrderStatusExecuted, order.Status)
	assert.True(t, order.ExecutedPrice.Equal(price))

	fills := paper.GetFills()
	require.Len(t, fills, 1)
	assert.Equal(t, domain.ActionBuy, fills[0].Action)
}

func TestPaperExecution_Sell(t *testing.T) {
	acct := domain.NewAccount("default", domain.MustParseMoney("0"))
	paper := NewPaperExecution(acct, nil)
	paper.LoadInvestments([]*domain.Investment{
		{Symbol: "AAPL", Quantity: 10, CostBasis: domain.MustParseMoney("1000"), Status: domain.InvestmentStatusOpen},
	})
	ctx := context.Background()

	// Sell half
	sell := marketOrder(domain.ActionSell, 5)
	require.NoError(t, paper.ExecuteOrder(ctx, sell, quoteAt("AAPL", "120"), domain.MustParseMoney("120")))
	assert.True(t, paper.Funds().Equal(domain.MustParseMoney("600")), "funds %s", paper.Funds())

	inv, _ := paper.Investment("AAPL")
	assert.Equal(t, int64(5), inv.Quantity)
	assert.True(t, inv.IsOpen())

	// Sell the rest: position closes
	rest := marketOrder(domain.ActionSell, 5)
	require.NoError(t, paper.ExecuteOrder(ctx, rest, quoteAt("AAPL", "120"), domain.MustParseMoney("120")))

	inv, _ = paper.Investment("AAPL")
	assert.Zero(t, inv.Quantity)
	assert.False(t, inv.IsOpen())
}

func TestPaperExecution_InsufficientFunds(t *testing.T) {
	acct := domain.NewAccount("default", domain.MustParseMoney("100"))
	paper := NewPaperExecution(acct, nil)

	order := marketOrder(domain.ActionBuy, 1)
	order.Status = domain.OrderStatusOpen

	err := paper.ExecuteOrder(context.Background(), order, quoteAt("AAPL", "150"), domain.MustParseMoney("150"))
	require.ErrorIs(t, err, domain.ErrInsufficientFunds)
	assert.Equal(t, domain.OrderStatusCancelled, order.Status, "rejected order should be cancelled")
	assert.True(t, paper.Funds().Equal(domain.MustParseMoney("100")), "Funds must not change on rejection")
	assert.Empty(t, paper.GetFills())
}

func TestPaperExecution_CostOverflow(t *testing.T) {
	t.Run("buy", func(t *testing.T) {
		acct := domain.NewAccount("default", domain.MustParseMoney("1000"))
		paper := NewPaperExecution(acct, nil)

		order := marketOrder(domain.ActionBuy, domain.MaxOrderQuantity)
		order.Status = domain.OrderStatusOpen

		var err error
		require.NotPanics(t, func() {
			err = paper.ExecuteOrder(context.Background(), order, quoteAt("AAPL", "1000000"), domain.MustParseMoney("1000000"))
		})
		assert.ErrorIs(t, err, domain.ErrInvalidOrder)
		assert.ErrorIs(t, err, domain.ErrMoneyOverflow)
		assert.Equal(t, domain.OrderStatusCancelled, order.Status)
		assert.True(t, paper.Funds().Equal(domain.MustParseMoney("1000")), "Funds must not change on rejection")
		assert.Empty(t, paper.GetFills())
		_, ok := paper.Investment("AAPL")
		assert.False(t, ok, "Rejected buy must not create a position")
	})

	t.Run("sell proceeds", func(t *testing.T) {
		acct := domain.NewAccount("default", domain.NewMoney(math.MaxInt64-10))
		paper := NewPaperExecution(acct, nil)
		paper.LoadInvestments([]*domain.Investment{
			{Symbol: "AAPL", Quantity: 10, CostBasis: domain.MustParseMoney("1000"), Status: domain.InvestmentStatusOpen},
		})

		order := marketOrder(domain.ActionSell, 10)
		order.Status = domain.OrderStatusOpen

		// Funds sit just below the int64 ceiling
		err := paper.ExecuteOrder(context.Background(), order, quoteAt("AAPL", "100"), domain.MustParseMoney("100"))
		assert.ErrorIs(t, err, domain.ErrMoneyOverflow)
		assert.Equal(t, domain.OrderStatusCancelled, order.Status)

		inv, _ := paper.Investment("AAPL")
		assert.Equal(t, int64(10), inv.Quantity, "Rejected sell must keep the position")
	})
}

func TestPaperExecution_Oversell(t *testing.T) {
	acct := domain.NewAccount("default", domain.MustParseMoney("100"))
	paper := NewPaperExecution(acct, nil)

	order := marketOrder(domain.ActionSell, 1)
	order.Status = domain.OrderStatusOpen

	err := paper.ExecuteOrder(context.Background(), order, quoteAt("AAPL", "150"), domain.MustParseMoney("150"))
	require.ErrorIs(t, err, domain.ErrOversell)
	_, ok := paper.Investment("AAPL")
	assert.False(t, ok, "Rejected sell must not create a position")
}

func TestPaperExecution_Store(t *testing.T) {
	store := newMemStore()
	acct := domain.NewAccount("default", domain.MustParseMoney("1000"))
	paper := NewPaperExecution(acct, store)
	ctx := context.Background()

	order := marketOrder(domain.ActionBuy, 2)
	require.NoError(t, paper.PlaceOrder(ctx, order))
	assert.Equal(t, uint(100), order.ID, "store assigns the ID")

	require.NoError(t, paper.ExecuteOrder(ctx, order, quoteAt("AAPL", "10"), domain.MustParseMoney("10")))
	assert.Equal(t, domain.OrderStatusExecuted, store.orders[100].Status, "executed status persisted")
	assert.Equal(t, int64(2), store.investments["AAPL"].Quantity, "investment persisted")
	assert.Equal(t, 1, store.accounts, "account persisted")

	t.Run("trailing update results", func(t *testing.T) {
		stop := &domain.Order{ID: 100, Symbol: "AAPL", Action: domain.ActionSell}

		res, err := paper.UpdateOrder(ctx, stop)
		assert.NoError(t, err)
		assert.Equal(t, orders.UpdateSaved, res)

		store.err = errors.New("database is locked")
		res, err = paper.UpdateOrder(ctx, stop)
		assert.Error(t, err)
		assert.Equal(t, orders.UpdateFailed, res)

		memOnly := NewPaperExecution(acct, nil)
		res, err = memOnly.UpdateOrder(ctx, stop)
		assert.NoError(t, err)
		assert.Equal(t, orders.UpdateNoop, res)
	})
}

func TestPaperExecution_PlaceInvalid(t *testing.T) {
	paper := NewPaperExecution(domain.NewAccount("default", domain.MustParseMoney("1")), nil)

	err := paper.PlaceOrder(context.Background(), &domain.Order{Symbol: "AAPL", Action: domain.ActionBuy, Strategy: domain.StrategyLimit, Quantity: 1})
	assert.ErrorIs(t, err, domain.ErrInvalidOrder)

	err = paper.PlaceOrder(context.Background(), marketOrder(domain.ActionBuy, domain.MaxOrderQuantity+1))
	assert.ErrorIs(t, err, domain.ErrInvalidOrder)
}

func TestPaperExecution_CancelOrder(t *testing.T) {
	paper := NewPaperExecution(domain.NewAccount("default", domain.MustParseMoney("1")), nil)
	ctx := context.Background()

	order := marketOrder(domain.ActionBuy, 1)
	require.NoError(t, paper.PlaceOrder(ctx, order))
	require.NoError(t, paper.CancelOrder(ctx, order))
	assert.ErrorIs(t, paper.CancelOrder(ctx, order), domain.ErrOrderNotOpen, "Second cancel should fail")
}

func TestPaperExecution_ImplementsInterface(t *testing.T) {
	var _ orders.Listener = (*PaperExecution)(nil)
}
