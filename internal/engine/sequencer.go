package engine

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"mocktrade/internal/domain"
	"mocktrade/internal/event"
	"mocktrade/internal/infra"
	"mocktrade/internal/orders"
	"mocktrade/internal/strategy"
)

// DefaultDumpFile is where Run writes state before halting on a panic.
const DefaultDumpFile = "panic_dump.json"

// Desk places, cancels and fills orders. It is the Listener the order
// manager reports to.
type Desk interface {
	orders.Listener
	PlaceOrder(ctx context.Context, order *domain.Order) error
	CancelOrder(ctx context.Context, order *domain.Order) error
}

// Sequencer is the core single-threaded event processor.
//
// Every QuoteBatchEvent is one evaluation cycle: all open orders are
// evaluated against the quotes of that batch only, in ID order.
type Sequencer struct {
	inbox   chan event.Event
	quotes  map[string]domain.Quote
	book    *Book
	nextSeq uint64

	manager  *orders.Manager
	desk     Desk
	strategy strategy.Strategy
	metrics  *infra.Metrics
	dumpFile string

	// Boundary: notified when an order leaves the book
	onOrderUpdate func(domain.Order)

	mu sync.RWMutex // Held while processing; external reads take RLock
}

// NewSequencer creates a new sequencer instance. strat and metrics may be nil.
func NewSequencer(inboxSize int, manager *orders.Manager, desk Desk, strat strategy.Strategy, metrics *infra.Metrics) *Sequencer {
	if metrics == nil {
		metrics = &infra.Metrics{}
	}
	return &Sequencer{
		inbox:    make(chan event.Event, inboxSize),
		quotes:   make(map[string]domain.Quote),
		book:     NewBook(),
		nextSeq:  1,
		manager:  manager,
		desk:     desk,
		strategy: strat,
		metrics:  metrics,
		dumpFile: DefaultDumpFile,
	}
}

// OnOrderUpdate registers a callback for orders that executed or were cancelled.
// It must be set before Run.
func (s *Sequencer) OnOrderUpdate(fn func(domain.Order)) {
	s.onOrderUpdate = fn
}

// SetDumpFile changes where DumpState writes on a panic.
func (s *Sequencer) SetDumpFile(path string) {
	s.dumpFile = path
}

// Restore puts already-persisted open orders back in the book.
// It must be called before Run.
func (s *Sequencer) Restore(open []*domain.Order) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, o := range open {
		if o.IsOpen() {
			s.book.Add(o)
		}
	}
	s.metrics.SetOpenOrders(s.book.Len())
}

// Inbox returns the event channel. External producers send events here.
func (s *Sequencer) Inbox() chan<- event.Event {
	return s.inbox
}

// Run starts the main event loop. This MUST be run in a single goroutine.
// QuoteBatchEvents received here are returned to the event pool once processed.
func (s *Sequencer) Run(ctx context.Context) {
	slog.Info("Sequencer started")

	defer func() {
		if r := recover(); r != nil {
			slog.Error("CRITICAL_PANIC_DETECTED", slog.Any("panic", r))
			s.DumpState(s.dumpFile)
			// Halt after dump.
			panic(fmt.Sprintf("HALTED: %v", r))
		}
	}()

	for {
		select {
		case <-ctx.Done():
			slog.Info("Sequencer stopping...")
			return
		case ev := <-s.inbox:
			s.processEvent(ctx, ev)
			if batch, ok := ev.(*event.QuoteBatchEvent); ok {
				event.ReleaseQuoteBatchEvent(batch)
			}
		}
	}
}

func (s *Sequencer) processEvent(ctx context.Context, ev event.Event) {
	// 1. Sequence Gap Check (Halt Policy)
	if ev.GetSeq() != s.nextSeq {
		panic(fmt.Sprintf("SEQUENCE_GAP_DETECTED: expected %d, got %d", s.nextSeq, ev.GetSeq()))
	}

	start := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	// 2. Logic Dispatch
	switch e := ev.(type) {
	case *event.QuoteBatchEvent:
		s.handleQuoteBatch(ctx, e)
	case *event.OrderPlacedEvent:
		s.placeOrder(ctx, e.Order)
	case *event.OrderCancelEvent:
		s.cancelOrder(ctx, e.OrderID)
	default:
		slog.Warn("Unknown event type", slog.Any("type", ev.GetType()))
	}

	// 3. Increment Sequence
	s.nextSeq++
	s.metrics.SetOpenOrders(s.book.Len())
	s.metrics.RecordEvent(time.Since(start).Nanoseconds())
}

func (s *Sequencer) handleQuoteBatch(ctx context.Context, e *event.QuoteBatchEvent) {
	snapshot := make(map[string]domain.Quote, len(e.Quotes))
	for _, q := range e.Quotes {
		snapshot[q.Symbol] = q
		s.quotes[q.Symbol] = q
	}

	// Invoke Strategy
	if s.strategy != nil {
		for _, q := range e.Quotes {
			for _, order := range s.strategy.OnQuote(q) {
				slog.Info("STRATEGY_ORDER", slog.String("order", order.String()))
				s.placeOrder(ctx, order)
			}
		}
	}

	// Evaluation cycle. Orders placed during the cycle wait for the next batch.
	for _, order := range s.book.Open() {
		q, ok := snapshot[order.Symbol]
		if !ok {
			continue
		}
		s.evaluate(ctx, order, q)
	}
}

func (s *Sequencer) evaluate(ctx context.Context, order *domain.Order, q domain.Quote) {
	s.metrics.RecordEvaluation()

	d, err := s.manager.Process(ctx, order, q)
	switch {
	case errors.Is(err, domain.ErrUnsupportedOrder):
		s.metrics.RecordUnsupported()
		slog.Warn("Unsupported order skipped",
			slog.Uint64("order_id", uint64(order.ID)),
			slog.Any("error", err))
	case err != nil:
		s.metrics.RecordError()
		slog.Error("Order processing failed",
			slog.Uint64("order_id", uint64(order.ID)),
			slog.String("decision", d.Kind.String()),
			slog.Any("error", err))
	case d.Kind == orders.Execute:
		s.metrics.RecordOrderFilled()
	case d.Kind == orders.UpdateTrailingReference:
		s.metrics.RecordTrailingUpdate()
	}

	if !order.IsOpen() {
		s.book.Remove(order.ID)
		s.orderClosed(ctx, order)
	}
}

func (s *Sequencer) placeOrder(ctx context.Context, order *domain.Order) {
	if order == nil {
		return
	}
	if err := s.desk.PlaceOrder(ctx, order); err != nil {
		s.metrics.RecordError()
		slog.Warn("Order rejected at placement",
			slog.String("order", order.String()),
			slog.Any("error", err))
		return
	}
	s.book.Add(order)
}

func (s *Sequencer) cancelOrder(ctx context.Context, id uint) {
	order := s.book.Get(id)
	if order == nil {
		slog.Warn("Cancel for unknown order", slog.Uint64("order_id", uint64(id)))
		return
	}
	if err := s.desk.CancelOrder(ctx, order); err != nil {
		s.metrics.RecordError()
		slog.Error("Cancel failed", slog.Uint64("order_id", uint64(id)), slog.Any("error", err))
	}
	if !order.IsOpen() {
		s.book.Remove(id)
		s.orderClosed(ctx, order)
	}
}

// orderClosed notifies the boundary and lets the strategy place follow-ups.
func (s *Sequencer) orderClosed(ctx context.Context, order *domain.Order) {
	if s.onOrderUpdate != nil {
		s.onOrderUpdate(*order)
	}
	if s.strategy == nil {
		return
	}
	for _, next := range s.strategy.OnOrderUpdate(order) {
		slog.Info("STRATEGY_FOLLOW_UP", slog.String("order", next.String()))
		s.placeOrder(ctx, next)
	}
}

// LastSeq returns the sequence number of the last processed event.
func (s *Sequencer) LastSeq() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.nextSeq - 1
}

// GetQuote returns the latest quote seen for symbol (external read).
func (s *Sequencer) GetQuote(symbol string) (domain.Quote, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	q, ok := s.quotes[symbol]
	return q, ok
}

// OpenOrders returns copies of the open orders sorted by ID (external read).
func (s *Sequencer) OpenOrders() []domain.Order {
	s.mu.RLock()
	defer s.mu.RUnlock()

	open := s.book.Open()
	result := make([]domain.Order, len(open))
	for i, o := range open {
		result[i] = *o
	}
	return result
}

// DumpState writes the entire internal state to a file (for post-mortem).
// It does not lock: Run calls it after a panic in the processing goroutine.
func (s *Sequencer) DumpState(filename string) {
	slog.Info("Dumping internal state...", slog.String("file", filename))

	data := struct {
		NextSeq    uint64                  `json:"next_seq"`
		Quotes     map[string]domain.Quote `json:"quotes"`
		OpenOrders []*domain.Order         `json:"open_orders"`
	}{
		NextSeq:    s.nextSeq,
		Quotes:     s.quotes,
		OpenOrders: s.book.Open(),
	}

	b, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		slog.Error("Failed to marshal state", slog.Any("error", err))
		return
	}

	err = os.WriteFile(filename, b, 0644)
	if err != nil {
		slog.Error("Failed to write state dump", slog.Any("error", err))
	}
}
