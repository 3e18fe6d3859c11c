// Package event defines the messages consumed by the engine's sequencer.
package event

import "mocktrade/internal/domain"

// Type identifies the concrete event.
type Type int

const (
	TypeQuoteBatch Type = iota + 1
	TypeOrderPlaced
	TypeOrderCancel
)

func (t Type) String() string {
	switch t {
	case TypeQuoteBatch:
		return "QUOTE_BATCH"
	case TypeOrderPlaced:
		return "ORDER_PLACED"
	case TypeOrderCancel:
		return "ORDER_CANCEL"
	default:
		return "UNKNOWN"
	}
}

// Event is anything the sequencer can process. Seq must be gapless.
type Event interface {
	GetSeq() uint64
	GetType() Type
}

// BaseEvent carries the sequence number and a unix-micro timestamp.
type BaseEvent struct {
	Seq uint64 `json:"seq"`
	Ts  int64  `json:"ts"`
}

func (e BaseEvent) GetSeq() uint64 { return e.Seq }

// QuoteBatchEvent is one snapshot of quotes. All orders evaluated in the
// resulting cycle see exactly these quotes.
type QuoteBatchEvent struct {
	BaseEvent
	Quotes []domain.Quote `json:"quotes"`
}

func (e *QuoteBatchEvent) GetType() Type { return TypeQuoteBatch }

// OrderPlacedEvent submits a new order to the desk.
type OrderPlacedEvent struct {
	BaseEvent
	Order *domain.Order `json:"order"`
}

func (e *OrderPlacedEvent) GetType() Type { return TypeOrderPlaced }

// OrderCancelEvent cancels an open order by ID.
type OrderCancelEvent struct {
	BaseEvent
	OrderID uint `json:"order_id"`
}

func (e *OrderCancelEvent) GetType() Type { return TypeOrderCancel }
