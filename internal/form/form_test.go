package form

import (
	"errors"
	"testing"

	"mocktrade/internal/domain"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBind_AllKinds(t *testing.T) {
	fields := []Field{
		{Name: "sym", Kind: KindSymbol, Required: true},
		{Name: "price", Kind: KindMoney, Required: true},
		{Name: "qty", Kind: KindQuantity, Required: true},
		{Name: "pct", Kind: KindPercent},
		{Name: "side", Kind: KindChoice, Choices: []string{"BUY", "SELL"}},
	}
	input := map[string]string{
		"sym":   " brk.b ",
		"price": "$1,234.50",
		"qty":   "1,000",
		"pct":   "7.5%",
		"side":  "sell",
	}

	values, err := Bind(fields, input)
	require.NoError(t, err)

	assert.Equal(t, "BRK.B", values.Text("sym"))
	assert.True(t, values.Money("price").Equal(domain.MustParseMoney("1234.50")))
	assert.Equal(t, int64(1000), values.Int("qty"))
	assert.True(t, values.Decimal("pct").Equal(decimal.RequireFromString("7.5")))
	assert.Equal(t, "SELL", values.Text("side"))

	rendered := Render(fields, values)
	assert.Equal(t, "$1,234.50", rendered["price"])
	assert.Equal(t, "1,000", rendered["qty"])
	assert.Equal(t, "7.5%", rendered["pct"])
}

func TestBind_CollectsEveryError(t *testing.T) {
	fields := []Field{
		{Name: "sym", Kind: KindSymbol, Required: true},
		{Name: "price", Kind: KindMoney, Required: true},
		{Name: "qty", Kind: KindQuantity, Required: true},
		{Name: "pct", Kind: KindPercent},
		{Name: "note", Kind: Kind(99)},
	}
	input := map[string]string{
		"price": "abc",
		"qty":   "-3",
		"pct":   "120",
		"note":  "x",
	}

	_, err := Bind(fields, input)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrRequired)
	assert.ErrorIs(t, err, ErrInvalidValue)

	var failed []string
	for _, e := range err.(interface{ Unwrap() []error }).Unwrap() {
		var fe *FieldError
		require.True(t, errors.As(e, &fe))
		failed = append(failed, fe.Field)
	}
	assert.Equal(t, []string{"sym", "price", "qty", "pct", "note"}, failed)
}

func TestBind_OptionalBlank(t *testing.T) {
	values, err := Bind([]Field{{Name: "pct", Kind: KindPercent}}, map[string]string{"pct": "  "})
	require.NoError(t, err)
	assert.NotContains(t, values, "pct")
}

func TestOrderFields(t *testing.T) {
	names := func(fs []Field) []string {
		var out []string
		for _, f := range fs {
			out = append(out, f.Name)
		}
		return out
	}

	base := []string{FieldSymbol, FieldAction, FieldStrategy, FieldQuantity}
	assert.Equal(t, base, names(OrderFields(domain.StrategyMarket)))
	assert.Equal(t, append(base, FieldLimitPrice), names(OrderFields(domain.StrategyLimit)))
	assert.Equal(t, append(base, FieldLimitPrice), names(OrderFields(domain.StrategyStopLoss)))
	assert.Equal(t, append(base, FieldStopPrice), names(OrderFields(domain.StrategyTrailingStopAmount)))
	assert.Equal(t, append(base, FieldStopPercent), names(OrderFields(domain.StrategyTrailingStopPercent)))
}

func TestBuildOrder(t *testing.T) {
	order, err := BuildOrder(map[string]string{
		FieldSymbol:      "aapl",
		FieldAction:      "sell",
		FieldStrategy:    "trailing_stop_percent_change",
		FieldQuantity:    "10",
		FieldStopPercent: "5",
	})
	require.NoError(t, err)
	assert.Equal(t, "AAPL", order.Symbol)
	assert.Equal(t, domain.ActionSell, order.Action)
	assert.Equal(t, domain.StrategyTrailingStopPercent, order.Strategy)
	assert.Equal(t, int64(10), order.Quantity)
	assert.True(t, order.StopPercent.Equal(decimal.NewFromInt(5)))

	t.Run("unknown strategy", func(t *testing.T) {
		_, err := BuildOrder(map[string]string{FieldStrategy: "iceberg"})
		var fe *FieldError
		require.True(t, errors.As(err, &fe))
		assert.Equal(t, FieldStrategy, fe.Field)
		assert.ErrorIs(t, err, domain.ErrInvalidOrder)
	})

	t.Run("missing limit price", func(t *testing.T) {
		_, err := BuildOrder(map[string]string{
			FieldSymbol:   "AAPL",
			FieldAction:   "BUY",
			FieldStrategy: "LIMIT",
			FieldQuantity: "1",
		})
		assert.ErrorIs(t, err, ErrRequired)
	})

	t.Run("zero limit price fails validation", func(t *testing.T) {
		_, err := BuildOrder(map[string]string{
			FieldSymbol:     "AAPL",
			FieldAction:     "BUY",
			FieldStrategy:   "LIMIT",
			FieldQuantity:   "1",
			FieldLimitPrice: "0",
		})
		assert.ErrorIs(t, err, domain.ErrInvalidOrder)
	})

	t.Run("quantity over the cap", func(t *testing.T) {
		_, err := BuildOrder(map[string]string{
			FieldSymbol:   "AAPL",
			FieldAction:   "BUY",
			FieldStrategy: "MARKET",
			FieldQuantity: "1000000000000000",
		})
		var fe *FieldError
		require.True(t, errors.As(err, &fe))
		assert.Equal(t, FieldQuantity, fe.Field)
		assert.ErrorIs(t, err, ErrInvalidValue)

		order, err := BuildOrder(map[string]string{
			FieldSymbol:   "AAPL",
			FieldAction:   "BUY",
			FieldStrategy: "MARKET",
			FieldQuantity: "1,000,000,000",
		})
		require.NoError(t, err)
		assert.Equal(t, domain.MaxOrderQuantity, order.Quantity)
	})

	t.Run("percent of 100 fails validation", func(t *testing.T) {
		_, err := BuildOrder(map[string]string{
			FieldSymbol:      "AAPL",
			FieldAction:      "SELL",
			FieldStrategy:    "TRAILING_STOP_PERCENT_CHANGE",
			FieldQuantity:    "1",
			FieldStopPercent: "100",
		})
		assert.ErrorIs(t, err, domain.ErrInvalidOrder)
	})
}
