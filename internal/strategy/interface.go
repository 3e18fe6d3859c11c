package strategy

import (
	"mocktrade/internal/domain"
)

// Strategy places orders in reaction to quotes and fills.
// It is called synchronously by the Sequencer.
type Strategy interface {
	// OnQuote is called once per quote in every batch.
	// It returns new orders to be placed.
	OnQuote(q domain.Quote) []*domain.Order

	// OnOrderUpdate is called after an order leaves the book (executed or
	// cancelled). It may return follow-up orders.
	OnOrderUpdate(o *domain.Order) []*domain.Order
}

// FundsFunc reports the funds currently available for new orders.
type FundsFunc func() domain.Money

// chain fans every call out to a list of strategies.
type chain []Strategy

// Chain combines strategies. Orders are concatenated in argument order.
func Chain(strategies ...Strategy) Strategy {
	var c chain
	for _, s := range strategies {
		if s != nil {
			c = append(c, s)
		}
	}
	return c
}

func (c chain) OnQuote(q domain.Quote) []*domain.Order {
	var out []*domain.Order
	for _, s := range c {
		out = append(out, s.OnQuote(q)...)
	}
	return out
}

func (c chain) OnOrderUpdate(o *domain.Order) []*domain.Order {
	var out []*domain.Order
	for _, s := range c {
		out = append(out, s.OnOrderUpdate(o)...)
	}
	return out
}
