package service

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"mocktrade/internal/domain"
	"mocktrade/internal/infra"
)

// QuoteResult is the single value delivered by FetchAsync.
type QuoteResult struct {
	Quotes map[string]domain.Quote
	Err    error
}

// QuoteService caches the latest quote per symbol and fetches new ones
// from a QuoteSource.
type QuoteService struct {
	mu     sync.RWMutex
	quotes map[string]domain.Quote

	source   domain.QuoteSource
	attempts int
	backoff  time.Duration
	metrics  *infra.Metrics
}

// NewQuoteService creates a new QuoteService. attempts below 1 is treated as 1.
func NewQuoteService(source domain.QuoteSource, attempts int, backoff time.Duration, metrics *infra.Metrics) *QuoteService {
	if attempts < 1 {
		attempts = 1
	}
	if metrics == nil {
		metrics = &infra.Metrics{}
	}
	return &QuoteService{
		quotes:   make(map[string]domain.Quote),
		source:   source,
		attempts: attempts,
		backoff:  backoff,
		metrics:  metrics,
	}
}

// Update stores quotes, replacing older ones for the same symbol.
func (s *QuoteService) Update(quotes ...domain.Quote) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, q := range quotes {
		s.quotes[q.Symbol] = q
	}
}

// Get returns the cached quote for a symbol.
func (s *QuoteService) Get(symbol string) (domain.Quote, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	q, ok := s.quotes[symbol]
	return q, ok
}

// Snapshot returns the cached quotes for symbols. Unknown symbols are absent.
func (s *QuoteService) Snapshot(symbols []string) map[string]domain.Quote {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make(map[string]domain.Quote, len(symbols))
	for _, sym := range symbols {
		if q, ok := s.quotes[sym]; ok {
			result[sym] = q
		}
	}
	return result
}

// All returns every cached quote sorted by symbol.
func (s *QuoteService) All() []domain.Quote {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]domain.Quote, 0, len(s.quotes))
	for _, q := range s.quotes {
		result = append(result, q)
	}

	// Sort by symbol for consistent ordering
	sort.Slice(result, func(i, j int) bool {
		return result[i].Symbol < result[j].Symbol
	})

	return result
}

// FetchAsync starts a fetch and returns a channel that receives exactly one
// result and is then closed.
func (s *QuoteService) FetchAsync(ctx context.Context, symbols []string) <-chan QuoteResult {
	out := make(chan QuoteResult, 1)
	go func() {
		defer close(out)
		quotes, err := s.Fetch(ctx, symbols)
		out <- QuoteResult{Quotes: quotes, Err: err}
	}()
	return out
}

// Fetch asks the source for quotes, retrying retriable errors up to the
// configured number of attempts. Successful results are cached.
func (s *QuoteService) Fetch(ctx context.Context, symbols []string) (map[string]domain.Quote, error) {
	var lastErr error
	for attempt := 1; attempt <= s.attempts; attempt++ {
		quotes, err := s.source.Quotes(ctx, symbols)
		if err == nil {
			for _, q := range quotes {
				s.Update(q)
			}
			return quotes, nil
		}

		lastErr = err
		if !domain.IsRetriable(err) || attempt == s.attempts {
			break
		}

		s.metrics.RecordRetry()
		slog.Warn("Quote fetch failed, retrying",
			slog.Int("attempt", attempt),
			slog.Any("error", err))

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(s.backoff):
		}
	}

	s.metrics.RecordError()
	return nil, fmt.Errorf("fetch quotes: %w", lastErr)
}
