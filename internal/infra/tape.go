package infra

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"
	"sync"
	"time"

	"mocktrade/internal/domain"

	"gopkg.in/yaml.v3"
)

// ErrTapeExhausted is returned once every frame has been played.
var ErrTapeExhausted = errors.New("quote tape exhausted")

// Tape is a recorded sequence of quote frames played back one frame per
// Quotes call. It implements domain.QuoteSource.
type Tape struct {
	mu     sync.Mutex
	frames []tapeFrame
	next   int
}

type tapeFile struct {
	Frames []tapeFrame `yaml:"frames"`
}

type tapeFrame struct {
	Time   time.Time   `yaml:"time"`
	Quotes []tapeQuote `yaml:"quotes"`
}

type tapeQuote struct {
	Symbol        string       `yaml:"symbol"`
	Price         domain.Money `yaml:"price"`
	PreviousClose domain.Money `yaml:"previous_close"`
	LastTrade     time.Time    `yaml:"last_trade"` // defaults to the frame time
	Stale         bool         `yaml:"stale"`
	Delayed       bool         `yaml:"delayed"`
}

// LoadTape reads a tape file. Every failure is fatal: retrying cannot
// make a missing or malformed tape readable.
func LoadTape(path string) (*Tape, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, domain.NewFatalNetworkError("open tape", err)
	}
	t, err := ParseTape(data)
	if err != nil {
		return nil, domain.NewFatalNetworkError("decode tape "+path, err)
	}
	return t, nil
}

// ParseTape decodes a tape from YAML.
func ParseTape(data []byte) (*Tape, error) {
	var f tapeFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, err
	}
	for i, fr := range f.Frames {
		for _, q := range fr.Quotes {
			if q.Symbol == "" {
				return nil, fmt.Errorf("frame %d: quote without symbol", i+1)
			}
		}
	}
	return &Tape{frames: f.Frames}, nil
}

// Quotes returns the next frame, keeping only symbols (all of them when
// symbols is empty).
func (t *Tape) Quotes(ctx context.Context, symbols []string) (map[string]domain.Quote, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if t.next >= len(t.frames) {
		return nil, ErrTapeExhausted
	}
	frame := t.frames[t.next]
	t.next++

	want := make(map[string]bool, len(symbols))
	for _, s := range symbols {
		want[s] = true
	}

	out := make(map[string]domain.Quote, len(frame.Quotes))
	for _, tq := range frame.Quotes {
		if len(want) > 0 && !want[tq.Symbol] {
			continue
		}
		last := tq.LastTrade
		if last.IsZero() {
			last = frame.Time
		}
		out[tq.Symbol] = domain.Quote{
			Symbol:        tq.Symbol,
			Price:         tq.Price,
			PreviousClose: tq.PreviousClose,
			LastTrade:     last,
			Stale:         tq.Stale,
			Delayed:       tq.Delayed,
		}
	}
	return out, nil
}

// Symbols returns every symbol on the tape, sorted.
func (t *Tape) Symbols() []string {
	t.mu.Lock()
	defer t.mu.Unlock()

	seen := make(map[string]bool)
	for _, fr := range t.frames {
		for _, q := range fr.Quotes {
			seen[q.Symbol] = true
		}
	}
	result := make([]string, 0, len(seen))
	for s := range seen {
		result = append(result, s)
	}
	sort.Strings(result)
	return result
}

// Remaining returns the number of frames not yet played.
func (t *Tape) Remaining() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.frames) - t.next
}
