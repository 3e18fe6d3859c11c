package engine

import (
	"sort"

	"mocktrade/internal/domain"
)

// Book holds the open orders the sequencer evaluates. Not safe for
// concurrent use; the sequencer guards it.
type Book struct {
	orders map[uint]*domain.Order
}

// NewBook creates an empty book.
func NewBook() *Book {
	return &Book{orders: make(map[uint]*domain.Order)}
}

// Add puts an order in the book, replacing any order with the same ID.
func (b *Book) Add(order *domain.Order) {
	b.orders[order.ID] = order
}

// Remove drops an order by ID.
func (b *Book) Remove(id uint) {
	delete(b.orders, id)
}

// Get returns the order with id, or nil.
func (b *Book) Get(id uint) *domain.Order {
	return b.orders[id]
}

// Len returns the number of orders in the book.
func (b *Book) Len() int {
	return len(b.orders)
}

// Open returns the open orders sorted by ID, oldest first.
func (b *Book) Open() []*domain.Order {
	result := make([]*domain.Order, 0, len(b.orders))
	for _, o := range b.orders {
		if o.IsOpen() {
			result = append(result, o)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].ID < result[j].ID
	})
	return result
}
