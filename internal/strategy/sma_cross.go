package strategy

import (
	"mocktrade/internal/domain"
	"mocktrade/pkg/safe"
)

// SMACrossStrategy implements a simple SMA Crossover strategy.
// It is stateful and deterministic.
// Prices are kept as micro-cents in a ring buffer so the hotpath does not allocate.
type SMACrossStrategy struct {
	symbol      string
	shortPeriod int
	longPeriod  int
	quantity    int64
	funds       FundsFunc

	// State (Ring Buffer)
	prices []int64
	head   int   // Current write position
	count  int   // Number of elements filled
	sum    int64 // Running sum for the longest period

	prevShortSMA int64
	prevLongSMA  int64

	// held tracks filled shares of symbol so a dead cross never over-sells.
	held int64
}

// NewSMACrossStrategy creates a new instance. funds may be nil, in which
// case BUY orders are sized by quantity alone.
func NewSMACrossStrategy(symbol string, shortPeriod, longPeriod int, quantity int64, funds FundsFunc) *SMACrossStrategy {
	if shortPeriod >= longPeriod {
		panic("SMACrossStrategy: shortPeriod must be less than longPeriod")
	}
	if quantity <= 0 {
		panic("SMACrossStrategy: quantity must be positive")
	}
	return &SMACrossStrategy{
		symbol:      symbol,
		shortPeriod: shortPeriod,
		longPeriod:  longPeriod,
		quantity:    quantity,
		funds:       funds,
		prices:      make([]int64, longPeriod), // Fixed size allocation
	}
}

// OnQuote processes quotes and places MARKET orders on crosses.
func (s *SMACrossStrategy) OnQuote(q domain.Quote) []*domain.Order {
	// 1. Filter by symbol
	if q.Symbol != s.symbol || !q.Price.IsPositive() {
		return nil
	}

	currentPrice := q.Price.Micros()

	// 2. Update Price History (Ring Buffer)
	// If full, subtract the oldest value from sum before overwriting
	if s.count == s.longPeriod {
		oldestPrice := s.prices[s.head] // s.head points to the oldest value when full
		s.sum = safe.SafeSub(s.sum, oldestPrice)
	}

	s.prices[s.head] = currentPrice
	s.sum = safe.SafeAdd(s.sum, currentPrice)
	s.head = (s.head + 1) % s.longPeriod

	if s.count < s.longPeriod {
		s.count++
	}

	// 3. Check if we have enough data
	if s.count < s.longPeriod {
		return nil
	}

	// 4. Calculate SMAs
	currLongSMA := safe.SafeDiv(s.sum, int64(s.longPeriod))
	currShortSMA := s.calculateShortSMA()

	var orders []*domain.Order

	// 5. Check for Cross
	if s.prevShortSMA != 0 && s.prevLongSMA != 0 {
		// Golden Cross: Short goes above Long
		if s.prevShortSMA <= s.prevLongSMA && currShortSMA > currLongSMA {
			if qty := s.buyQuantity(q.Price); qty > 0 {
				orders = append(orders, s.marketOrder(domain.ActionBuy, qty))
			}
		}

		// Dead Cross: Short goes below Long
		if s.prevShortSMA >= s.prevLongSMA && currShortSMA < currLongSMA {
			if s.held > 0 {
				orders = append(orders, s.marketOrder(domain.ActionSell, min(s.quantity, s.held)))
			}
		}
	}

	// 6. Update State
	s.prevShortSMA = currShortSMA
	s.prevLongSMA = currLongSMA

	return orders
}

// OnOrderUpdate tracks fills in the strategy's symbol.
func (s *SMACrossStrategy) OnOrderUpdate(o *domain.Order) []*domain.Order {
	if o.Symbol != s.symbol || o.Status != domain.OrderStatusExecuted {
		return nil
	}
	s.held = safe.SafeAdd(s.held, o.SignedQuantity())
	if s.held < 0 {
		s.held = 0
	}
	return nil
}

// Held returns the shares the strategy believes are held.
func (s *SMACrossStrategy) Held() int64 {
	return s.held
}

// buyQuantity caps the configured size at what the funds can pay for.
func (s *SMACrossStrategy) buyQuantity(price domain.Money) int64 {
	if s.funds == nil {
		return s.quantity
	}
	affordable := safe.SafeDiv(s.funds().Micros(), price.Micros())
	return max(0, min(s.quantity, affordable))
}

func (s *SMACrossStrategy) marketOrder(action domain.Action, qty int64) *domain.Order {
	return &domain.Order{
		Symbol:   s.symbol,
		Action:   action,
		Strategy: domain.StrategyMarket,
		Quantity: qty,
	}
}

// calculateShortSMA calculates the SMA for the short period using the ring buffer.
func (s *SMACrossStrategy) calculateShortSMA() int64 {
	var sum int64 = 0
	// Walk backwards from current head (which points to next write slot, so head-1 is latest)
	idx := s.head
	for i := 0; i < s.shortPeriod; i++ {
		idx--
		if idx < 0 {
			idx = s.longPeriod - 1
		}
		sum = safe.SafeAdd(sum, s.prices[idx])
	}
	return safe.SafeDiv(sum, int64(s.shortPeriod))
}
