package infra

import (
	"context"
	"path/filepath"
	"testing"

	"mocktrade/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleTape = `
frames:
  - time: 2024-01-15T14:30:00Z
    quotes:
      - symbol: AAPL
        price: "185.50"
        previous_close: "184.00"
      - symbol: MSFT
        price: "390.00"
  - time: 2024-01-15T14:31:00Z
    quotes:
      - symbol: AAPL
        price: "186"
        last_trade: 2024-01-15T14:30:45Z
        stale: true
`

func TestTape_Playback(t *testing.T) {
	tape, err := ParseTape([]byte(sampleTape))
	require.NoError(t, err)
	ctx := context.Background()

	assert.Equal(t, []string{"AAPL", "MSFT"}, tape.Symbols())

	// Frame 1, filtered to AAPL
	quotes, err := tape.Quotes(ctx, []string{"AAPL"})
	require.NoError(t, err)
	require.Len(t, quotes, 1)

	aapl := quotes["AAPL"]
	assert.True(t, aapl.Price.Equal(domain.MustParseMoney("185.50")), "price %s", aapl.Price)
	assert.True(t, aapl.PreviousClose.Equal(domain.MustParseMoney("184")), "previous close %s", aapl.PreviousClose)
	assert.Equal(t, 30, aapl.LastTrade.Minute(), "LastTrade should default to the frame time")

	// Frame 2, all symbols
	quotes, err = tape.Quotes(ctx, nil)
	require.NoError(t, err)
	aapl = quotes["AAPL"]
	assert.True(t, aapl.Stale)
	assert.Equal(t, 45, aapl.LastTrade.Second(), "quote keeps its own last trade")
	assert.Zero(t, tape.Remaining())

	_, err = tape.Quotes(ctx, nil)
	assert.ErrorIs(t, err, ErrTapeExhausted)
}

func TestTape_Errors(t *testing.T) {
	t.Run("missing file is fatal", func(t *testing.T) {
		_, err := LoadTape(filepath.Join(t.TempDir(), "missing.yaml"))
		var netErr *domain.NetworkError
		require.ErrorAs(t, err, &netErr)
		assert.False(t, domain.IsRetriable(err), "Missing tape must not be retriable")
	})

	t.Run("quote without symbol", func(t *testing.T) {
		_, err := ParseTape([]byte("frames:\n  - quotes:\n      - price: \"1\"\n"))
		assert.Error(t, err)
	})

	t.Run("cancelled context", func(t *testing.T) {
		tape, err := ParseTape([]byte(sampleTape))
		require.NoError(t, err)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err = tape.Quotes(ctx, nil)
		assert.ErrorIs(t, err, context.Canceled)
		assert.Equal(t, 2, tape.Remaining(), "A cancelled call must not consume a frame")
	})
}

func TestTape_LoadFile(t *testing.T) {
	path := writeFile(t, t.TempDir(), "tape.yaml", sampleTape)
	tape, err := LoadTape(path)
	require.NoError(t, err)
	assert.Equal(t, 2, tape.Remaining())
}
