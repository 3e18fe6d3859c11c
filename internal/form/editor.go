package form

import (
	"fmt"
	"strconv"
	"strings"

	"mocktrade/internal/domain"

	"github.com/dustin/go-humanize"
	"github.com/shopspring/decimal"
)

// Editor converts between raw input and a typed field value.
type Editor interface {
	Parse(f Field, raw string) (any, error)
	Format(v any) string
}

var (
	hundred = decimal.NewFromInt(100)

	symbolEd   Editor = symbolEditor{}
	moneyEd    Editor = moneyEditor{}
	quantityEd Editor = quantityEditor{}
	percentEd  Editor = percentEditor{}
	choiceEd   Editor = choiceEditor{}
)

func editorFor(k Kind) (Editor, error) {
	switch k {
	case KindSymbol:
		return symbolEd, nil
	case KindMoney:
		return moneyEd, nil
	case KindQuantity:
		return quantityEd, nil
	case KindPercent:
		return percentEd, nil
	case KindChoice:
		return choiceEd, nil
	default:
		return nil, fmt.Errorf("no editor for field kind %d", int(k))
	}
}

// symbolEditor upper-cases ticker symbols such as "brk.b".
type symbolEditor struct{}

func (symbolEditor) Parse(_ Field, raw string) (any, error) {
	sym := strings.ToUpper(raw)
	for _, r := range sym {
		if (r < 'A' || r > 'Z') && (r < '0' || r > '9') && r != '.' && r != '-' {
			return nil, invalid("symbol %q contains %q", raw, r)
		}
	}
	return sym, nil
}

func (symbolEditor) Format(v any) string {
	s, _ := v.(string)
	return s
}

type moneyEditor struct{}

func (moneyEditor) Parse(_ Field, raw string) (any, error) {
	m, err := domain.ParseMoney(raw)
	if err != nil {
		return nil, invalid("%v", err)
	}
	if m.IsNegative() {
		return nil, invalid("amount %s is negative", m)
	}
	return m, nil
}

func (moneyEditor) Format(v any) string {
	m, _ := v.(domain.Money)
	return m.String()
}

// quantityEditor accepts whole positive share counts, with optional grouping.
type quantityEditor struct{}

func (quantityEditor) Parse(_ Field, raw string) (any, error) {
	n, err := strconv.ParseInt(strings.ReplaceAll(raw, ",", ""), 10, 64)
	if err != nil {
		return nil, invalid("quantity %q is not a whole number", raw)
	}
	if n <= 0 {
		return nil, invalid("quantity must be positive")
	}
	if n > domain.MaxOrderQuantity {
		return nil, invalid("quantity %s exceeds %s", humanize.Comma(n), humanize.Comma(domain.MaxOrderQuantity))
	}
	return n, nil
}

func (quantityEditor) Format(v any) string {
	n, _ := v.(int64)
	return humanize.Comma(n)
}

// percentEditor accepts "5", "5.5" or "5%" in [0, 100].
type percentEditor struct{}

func (percentEditor) Parse(_ Field, raw string) (any, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(strings.TrimSuffix(raw, "%")))
	if err != nil {
		return nil, invalid("percent %q: %v", raw, err)
	}
	if d.IsNegative() || d.GreaterThan(hundred) {
		return nil, invalid("percent %s is outside 0-100", d)
	}
	return d, nil
}

func (percentEditor) Format(v any) string {
	d, _ := v.(decimal.Decimal)
	return d.String() + "%"
}

// choiceEditor matches case-insensitively and returns the canonical choice.
type choiceEditor struct{}

func (choiceEditor) Parse(f Field, raw string) (any, error) {
	for _, c := range f.Choices {
		if strings.EqualFold(c, raw) {
			return c, nil
		}
	}
	return nil, invalid("%q is not one of %s", raw, strings.Join(f.Choices, ", "))
}

func (choiceEditor) Format(v any) string {
	s, _ := v.(string)
	return s
}
