package domain

import (
	"database/sql/driver"
	"fmt"
	"math"
	"strconv"
	"strings"

	"mocktrade/pkg/safe"

	"github.com/dustin/go-humanize"
	"github.com/shopspring/decimal"
)

const (
	// MicrosPerUnit is the number of micro-cents in one currency unit.
	MicrosPerUnit int64 = 10_000

	// CurrencyUSD is the default (and in practice only) currency.
	CurrencyUSD = "USD"

	moneyScale = 4
)

var (
	maxMicros = decimal.NewFromInt(math.MaxInt64)
	minMicros = decimal.NewFromInt(math.MinInt64)
)

// Money is a fixed-point currency amount stored as integer micro-cents.
// All arithmetic stays on the int64 representation; floats are only touched
// at the edges (MoneyFromFloat, Float64).
//
// An empty currency means "unspecified" and adopts the other operand's
// currency. Mixing two different non-empty currencies panics.
type Money struct {
	micros   int64
	currency string
}

// NewMoney creates a USD amount from raw micro-cents.
func NewMoney(micros int64) Money {
	return Money{micros: micros, currency: CurrencyUSD}
}

// NewMoneyIn creates an amount in the given currency from raw micro-cents.
func NewMoneyIn(micros int64, currency string) Money {
	return Money{micros: micros, currency: strings.ToUpper(currency)}
}

// MoneyFromFloat converts a float to the nearest micro-cent.
// The float is read through its shortest decimal representation, so 0.1 is exactly 1000 micros.
// Panics when the amount does not fit in int64 micro-cents.
func MoneyFromFloat(f float64) Money {
	m, err := MoneyFromDecimal(decimal.NewFromFloat(f))
	if err != nil {
		panic(fmt.Sprintf("MONEY_FLOAT_OVERFLOW: %v", f))
	}
	return m
}

// MoneyFromDecimal converts a decimal amount to the nearest micro-cent.
func MoneyFromDecimal(d decimal.Decimal) (Money, error) {
	micros := d.Shift(moneyScale).Round(0)
	if micros.GreaterThan(maxMicros) || micros.LessThan(minMicros) {
		return Money{}, fmt.Errorf("%w: %s", ErrMoneyOverflow, d.String())
	}
	return NewMoney(micros.IntPart()), nil
}

// ParseMoney parses a decimal string such as "1234.5", "$1,234.50" or "-$12".
// A leading currency symbol and group separators are stripped before the
// value is handed to the decimal parser; its error is returned as-is (wrapped).
// An empty string is zero.
func ParseMoney(s string) (Money, error) {
	raw := s
	s = strings.TrimSpace(s)
	if s == "" {
		return NewMoney(0), nil
	}

	neg := false
	if strings.HasPrefix(s, "-") {
		neg = true
		s = s[1:]
	}
	s = strings.TrimPrefix(s, "$")
	s = strings.ReplaceAll(s, ",", "")
	if neg {
		s = "-" + s
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return Money{}, fmt.Errorf("parse money %q: %w", raw, err)
	}
	return MoneyFromDecimal(d)
}

// MustParseMoney is ParseMoney for constants. Panics on malformed input.
func MustParseMoney(s string) Money {
	m, err := ParseMoney(s)
	if err != nil {
		panic(err)
	}
	return m
}

// Micros returns the raw micro-cent count.
func (m Money) Micros() int64 { return m.micros }

// Currency returns the currency code ("" when unspecified).
func (m Money) Currency() string { return m.currency }

// Decimal returns the amount in currency units.
func (m Money) Decimal() decimal.Decimal {
	return decimal.New(m.micros, -moneyScale)
}

// Float64 returns the amount in currency units as a float. Display only.
func (m Money) Float64() float64 {
	return m.Decimal().InexactFloat64()
}

func (m Money) resolve(o Money, op string) string {
	switch {
	case m.currency == "":
		return o.currency
	case o.currency == "" || o.currency == m.currency:
		return m.currency
	}
	panic(fmt.Sprintf("MONEY_CURRENCY_MISMATCH: %s %s %s", m.currency, op, o.currency))
}

// Add returns m + o.
func (m Money) Add(o Money) Money {
	return Money{micros: safe.SafeAdd(m.micros, o.micros), currency: m.resolve(o, "+")}
}

// Sub returns m - o.
func (m Money) Sub(o Money) Money {
	return Money{micros: safe.SafeSub(m.micros, o.micros), currency: m.resolve(o, "-")}
}

// AddChecked is Add returning ErrMoneyOverflow instead of panicking.
func (m Money) AddChecked(o Money) (Money, error) {
	currency := m.resolve(o, "+")
	micros, ok := safe.CheckedAdd(m.micros, o.micros)
	if !ok {
		return Money{}, fmt.Errorf("%w: %s + %s", ErrMoneyOverflow, m, o)
	}
	return Money{micros: micros, currency: currency}, nil
}

// Mul scales the amount by an integer share quantity.
// Money-by-money multiplication is deliberately not offered.
func (m Money) Mul(qty int64) Money {
	return Money{micros: safe.SafeMul(m.micros, qty), currency: m.currency}
}

// MulChecked is Mul returning ErrMoneyOverflow instead of panicking.
func (m Money) MulChecked(qty int64) (Money, error) {
	micros, ok := safe.CheckedMul(m.micros, qty)
	if !ok {
		return Money{}, fmt.Errorf("%w: %s * %d", ErrMoneyOverflow, m, qty)
	}
	return Money{micros: micros, currency: m.currency}, nil
}

// Neg returns -m.
func (m Money) Neg() Money {
	return Money{micros: safe.SafeSub(0, m.micros), currency: m.currency}
}

// Abs returns |m|.
func (m Money) Abs() Money {
	if m.micros < 0 {
		return m.Neg()
	}
	return m
}

// Cmp compares by micro-cents: -1 if m < o, 0 if equal, +1 if m > o.
func (m Money) Cmp(o Money) int {
	m.resolve(o, "cmp")
	switch {
	case m.micros < o.micros:
		return -1
	case m.micros > o.micros:
		return 1
	default:
		return 0
	}
}

func (m Money) Equal(o Money) bool              { return m.Cmp(o) == 0 }
func (m Money) LessThan(o Money) bool           { return m.Cmp(o) < 0 }
func (m Money) LessThanOrEqual(o Money) bool    { return m.Cmp(o) <= 0 }
func (m Money) GreaterThan(o Money) bool        { return m.Cmp(o) > 0 }
func (m Money) GreaterThanOrEqual(o Money) bool { return m.Cmp(o) >= 0 }

func (m Money) IsZero() bool     { return m.micros == 0 }
func (m Money) IsPositive() bool { return m.micros > 0 }
func (m Money) IsNegative() bool { return m.micros < 0 }

// Format renders the amount with a fixed number of decimal places, rounding
// half away from zero. Grouping inserts "," every three integer digits.
// No currency symbol is added.
func (m Money) Format(places int32, grouping bool) string {
	if places < 0 {
		places = 0
	}
	d := m.Decimal().Round(places)
	sign := ""
	if d.IsNegative() {
		sign = "-"
		d = d.Abs()
	}

	intPart, frac, _ := strings.Cut(d.StringFixed(places), ".")
	if grouping {
		if n, err := strconv.ParseInt(intPart, 10, 64); err == nil {
			intPart = humanize.Comma(n)
		}
	}
	if frac == "" {
		return sign + intPart
	}
	return sign + intPart + "." + frac
}

// String renders "$1,234.56" for USD and "EUR 1,234.56" otherwise.
func (m Money) String() string {
	body := m.Abs().Format(2, true)
	sign := ""
	if m.micros < 0 {
		sign = "-"
	}
	if m.currency == "" || m.currency == CurrencyUSD {
		return sign + "$" + body
	}
	return sign + m.currency + " " + body
}

// MarshalText encodes the plain decimal amount (e.g. "1234.56").
func (m Money) MarshalText() ([]byte, error) {
	return []byte(m.Decimal().String()), nil
}

// UnmarshalText accepts anything ParseMoney does. The result is USD.
func (m *Money) UnmarshalText(text []byte) error {
	parsed, err := ParseMoney(string(text))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// GormDataType stores Money as an integer micro-cent column.
func (Money) GormDataType() string {
	return "integer"
}

// Value implements driver.Valuer. Only micro-cents are stored.
func (m Money) Value() (driver.Value, error) {
	return m.micros, nil
}

// Scan implements sql.Scanner.
func (m *Money) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*m = NewMoney(0)
	case int64:
		*m = NewMoney(v)
	case float64:
		*m = NewMoney(int64(math.Round(v)))
	case []byte:
		n, err := strconv.ParseInt(string(v), 10, 64)
		if err != nil {
			return fmt.Errorf("scan money: %w", err)
		}
		*m = NewMoney(n)
	case string:
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("scan money: %w", err)
		}
		*m = NewMoney(n)
	default:
		return fmt.Errorf("scan money: unsupported type %T", src)
	}
	return nil
}
