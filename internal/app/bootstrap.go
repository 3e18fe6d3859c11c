package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"mocktrade/internal/domain"
	"mocktrade/internal/engine"
	"mocktrade/internal/event"
	"mocktrade/internal/execution"
	"mocktrade/internal/form"
	"mocktrade/internal/infra"
	"mocktrade/internal/infra/storage"
	"mocktrade/internal/orders"
	"mocktrade/internal/service"
	"mocktrade/internal/strategy"
)

// Bootstrap builds every component once and hands them to each other.
// Nothing in the application reaches for a global instead.
type Bootstrap struct {
	Config    *infra.Config
	Metrics   *infra.Metrics
	Storage   *storage.Storage
	Account   *domain.Account
	Desk      *execution.PaperExecution
	Manager   *orders.Manager
	Strategy  strategy.Strategy
	Tape      *infra.Tape
	Quotes    *service.QuoteService
	Sequencer *engine.Sequencer

	nextSeq uint64
	running bool
}

// NewBootstrap creates a new Bootstrap instance
func NewBootstrap() *Bootstrap {
	return &Bootstrap{nextSeq: 1}
}

// Initialize loads config from configPath and wires the application.
func (b *Bootstrap) Initialize(ctx context.Context, configPath string) error {
	// 1. Load Config
	cfg, err := infra.LoadConfig(configPath)
	if err != nil {
		return err // Let main handle the error
	}
	return b.InitializeWith(ctx, cfg)
}

// InitializeWith wires the application from an already loaded config.
func (b *Bootstrap) InitializeWith(ctx context.Context, cfg *infra.Config) error {
	b.Config = cfg

	// 2. Setup Logger
	slog.SetDefault(infra.NewLogger(cfg))
	slog.Info("Bootstrapping MockTrade...", slog.String("version", cfg.App.Version))

	b.Metrics = &infra.Metrics{}
	event.Warmup()

	// 3. Initialize Storage (DB) and the account
	store, err := storage.Open(cfg.Storage.Path)
	if err != nil {
		return err
	}
	b.Storage = store

	acct, err := store.EnsureAccount(ctx, cfg.Account.Name, cfg.Account.InitialFunds)
	if err != nil {
		return err
	}
	b.Account = acct
	slog.Info("Account ready", slog.String("name", acct.Name), slog.String("funds", acct.Funds.String()))

	// 4. Execution desk with persisted positions
	b.Desk = execution.NewPaperExecution(acct, store)
	invs, err := store.Investments(ctx, acct.ID)
	if err != nil {
		return fmt.Errorf("failed to load investments: %w", err)
	}
	b.Desk.LoadInvestments(invs)

	// 5. Order manager and strategies
	maxAge := time.Duration(cfg.Quotes.MaxAgeSec) * time.Second
	b.Manager = orders.NewManager(b.Desk, orders.FreshQuotes(maxAge, nil))
	b.Strategy = buildStrategy(cfg, b.Desk.Funds)

	// 6. Quote source
	tape, err := infra.LoadTape(cfg.Quotes.Tape)
	if err != nil {
		return err
	}
	b.Tape = tape
	backoff := time.Duration(cfg.Quotes.RetryBackoffMS) * time.Millisecond
	b.Quotes = service.NewQuoteService(tape, cfg.Quotes.Retries, backoff, b.Metrics)

	// 7. Sequencer with persisted open orders
	b.Sequencer = engine.NewSequencer(cfg.Engine.InboxSize, b.Manager, b.Desk, b.Strategy, b.Metrics)
	b.Sequencer.SetDumpFile(cfg.Engine.DumpFile)
	open, err := store.OpenOrders(ctx, acct.ID)
	if err != nil {
		return fmt.Errorf("failed to load open orders: %w", err)
	}
	b.Sequencer.Restore(open)
	slog.Info("Engine ready",
		slog.Int("open_orders", len(open)),
		slog.Int("positions", len(invs)),
		slog.Int("tape_frames", tape.Remaining()))

	return nil
}

func buildStrategy(cfg *infra.Config, funds strategy.FundsFunc) strategy.Strategy {
	var strategies []strategy.Strategy
	if sc := cfg.Strategy; sc.Symbol != "" {
		strategies = append(strategies,
			strategy.NewSMACrossStrategy(sc.Symbol, sc.ShortPeriod, sc.LongPeriod, sc.OrderQuantity, funds))
	}
	if cfg.Strategy.TrailingStopPercent.IsPositive() {
		strategies = append(strategies, strategy.NewProtectiveStopStrategy(cfg.Strategy.TrailingStopPercent))
	}
	return strategy.Chain(strategies...)
}

// Start runs the sequencer on ctx. Later calls are no-ops.
// Submit and Replay call it themselves.
func (b *Bootstrap) Start(ctx context.Context) {
	if b.running {
		return
	}
	b.running = true
	go b.Sequencer.Run(ctx)
}

// Submit binds order-entry input, hands the order to the sequencer and
// returns once the sequencer has processed it. A desk rejection is logged
// by the sequencer and leaves the order unplaced.
func (b *Bootstrap) Submit(ctx context.Context, input map[string]string) (*domain.Order, error) {
	order, err := form.BuildOrder(input)
	if err != nil {
		return nil, err
	}
	b.Start(ctx)

	ev := &event.OrderPlacedEvent{BaseEvent: b.nextBase(), Order: order}
	if err := b.send(ctx, ev); err != nil {
		return nil, err
	}
	if err := b.waitFor(ctx, ev.Seq); err != nil {
		return nil, err
	}
	return order, nil
}

// Replay feeds the sequencer every tape frame as one quote batch and
// returns once the sequencer has processed them all.
func (b *Bootstrap) Replay(ctx context.Context) error {
	b.Start(ctx)

	symbols := b.Tape.Symbols()
	for {
		res := <-b.Quotes.FetchAsync(ctx, symbols)
		if errors.Is(res.Err, infra.ErrTapeExhausted) {
			break
		}
		if res.Err != nil {
			return res.Err
		}

		ev := event.AcquireQuoteBatchEvent()
		ev.BaseEvent = b.nextBase()
		for _, q := range res.Quotes {
			ev.Quotes = append(ev.Quotes, q)
		}
		// Map order is random; batches must be deterministic
		sort.Slice(ev.Quotes, func(i, j int) bool {
			return ev.Quotes[i].Symbol < ev.Quotes[j].Symbol
		})

		if err := b.send(ctx, ev); err != nil {
			return err
		}
	}

	return b.waitFor(ctx, b.nextSeq-1)
}

func (b *Bootstrap) nextBase() event.BaseEvent {
	base := event.BaseEvent{Seq: b.nextSeq, Ts: time.Now().UnixMicro()}
	b.nextSeq++
	return base
}

func (b *Bootstrap) send(ctx context.Context, ev event.Event) error {
	select {
	case b.Sequencer.Inbox() <- ev:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (b *Bootstrap) waitFor(ctx context.Context, seq uint64) error {
	ticker := time.NewTicker(10 * time.Millisecond)
	defer ticker.Stop()

	for b.Sequencer.LastSeq() < seq {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
	return nil
}

// Close releases storage.
func (b *Bootstrap) Close() error {
	if b.Storage == nil {
		return nil
	}
	return b.Storage.Close()
}
