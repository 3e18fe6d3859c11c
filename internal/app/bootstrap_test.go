package app

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"mocktrade/internal/domain"
	"mocktrade/internal/form"
	"mocktrade/internal/infra"
	"mocktrade/internal/infra/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testTape = `
frames:
  - time: 2024-01-15T14:30:00Z
    quotes:
      - {symbol: AAPL, price: "105"}
  - time: 2024-01-15T14:31:00Z
    quotes:
      - {symbol: AAPL, price: "99"}
  - time: 2024-01-15T14:32:00Z
    quotes:
      - {symbol: AAPL, price: "98"}
`

func testConfig(t *testing.T) *infra.Config {
	t.Helper()
	dir := t.TempDir()
	tape := filepath.Join(dir, "tape.yaml")
	require.NoError(t, os.WriteFile(tape, []byte(testTape), 0644))

	cfg := infra.DefaultConfig()
	cfg.Quotes.Tape = tape
	cfg.Storage.Path = storage.MemoryPath
	cfg.Logging.Dir = ""
	cfg.Logging.Level = "error"
	cfg.Engine.DumpFile = filepath.Join(dir, "dump.json")
	return cfg
}

func limitBuy(qty, price string) map[string]string {
	return map[string]string{
		form.FieldSymbol:     "AAPL",
		form.FieldAction:     "BUY",
		form.FieldStrategy:   "LIMIT",
		form.FieldQuantity:   qty,
		form.FieldLimitPrice: price,
	}
}

func TestBootstrap_ReplayFillsSubmittedOrder(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	b := NewBootstrap()
	require.NoError(t, b.InitializeWith(ctx, testConfig(t)))
	defer b.Close()

	order, err := b.Submit(ctx, limitBuy("10", "100"))
	require.NoError(t, err)
	assert.NotZero(t, order.ID, "Submit returns the placed order")

	require.NoError(t, b.Replay(ctx))

	// Executes on the second frame at 99
	assert.True(t, b.Desk.Funds().Equal(domain.MustParseMoney("9010")), "funds %s", b.Desk.Funds())

	stored, err := b.Storage.GetOrder(ctx, order.ID)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, domain.OrderStatusExecuted, stored.Status)
	assert.True(t, stored.ExecutedPrice.Equal(domain.MustParseMoney("99")), "executed at %s", stored.ExecutedPrice)

	invs, err := b.Storage.Investments(ctx, b.Account.ID)
	require.NoError(t, err)
	require.Len(t, invs, 1)
	assert.Equal(t, int64(10), invs[0].Quantity)

	snap := b.Metrics.Snapshot()
	assert.Equal(t, uint64(4), snap.EventsProcessed)
	assert.Equal(t, uint64(1), snap.OrdersFilled)
}

func TestBootstrap_SubmitMoreThanInbox(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	cfg := testConfig(t)
	cfg.Engine.InboxSize = 1

	b := NewBootstrap()
	require.NoError(t, b.InitializeWith(ctx, cfg))
	defer b.Close()

	for i := 0; i < 5; i++ {
		_, err := b.Submit(ctx, limitBuy("1", "90"))
		require.NoError(t, err, "submit %d", i)
	}
	assert.Len(t, b.Sequencer.OpenOrders(), 5)

	require.NoError(t, b.Replay(ctx))
	assert.Equal(t, uint64(8), b.Metrics.Snapshot().EventsProcessed)
}

func TestBootstrap_SubmitInvalid(t *testing.T) {
	b := NewBootstrap()
	require.NoError(t, b.InitializeWith(context.Background(), testConfig(t)))
	defer b.Close()

	_, err := b.Submit(context.Background(), map[string]string{form.FieldStrategy: "MARKET"})
	assert.ErrorIs(t, err, form.ErrRequired)

	_, err = b.Submit(context.Background(), limitBuy("1000000000000000", "100"))
	assert.ErrorIs(t, err, form.ErrInvalidValue)
}

func TestBootstrap_MissingTape(t *testing.T) {
	cfg := testConfig(t)
	cfg.Quotes.Tape = filepath.Join(t.TempDir(), "missing.yaml")

	b := NewBootstrap()
	defer b.Close()
	err := b.InitializeWith(context.Background(), cfg)
	require.Error(t, err)
	assert.False(t, domain.IsRetriable(err), "Expected a fatal error")
}
