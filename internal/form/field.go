// Package form binds order-entry input to typed values through explicit
// field descriptors. Each field kind has exactly one editor.
package form

import (
	"errors"
	"fmt"
	"strings"

	"mocktrade/internal/domain"

	"github.com/shopspring/decimal"
)

// Kind is the closed set of field types an order form can hold.
type Kind int

const (
	KindSymbol Kind = iota + 1
	KindMoney
	KindQuantity
	KindPercent
	KindChoice
)

func (k Kind) String() string {
	switch k {
	case KindSymbol:
		return "symbol"
	case KindMoney:
		return "money"
	case KindQuantity:
		return "quantity"
	case KindPercent:
		return "percent"
	case KindChoice:
		return "choice"
	default:
		return "unknown"
	}
}

// Field describes one input.
type Field struct {
	Name     string
	Label    string
	Kind     Kind
	Required bool
	Choices  []string // KindChoice only
}

var (
	ErrRequired     = errors.New("value is required")
	ErrInvalidValue = errors.New("invalid value")
)

// FieldError ties a binding failure to the field that caused it.
type FieldError struct {
	Field string
	Err   error
}

func (e *FieldError) Error() string {
	return e.Field + ": " + e.Err.Error()
}

func (e *FieldError) Unwrap() error {
	return e.Err
}

// Values holds bound field values keyed by field name. Each value has the
// Go type of its field's editor: string, domain.Money, int64 or decimal.Decimal.
type Values map[string]any

func (v Values) Text(name string) string {
	s, _ := v[name].(string)
	return s
}

func (v Values) Money(name string) domain.Money {
	m, _ := v[name].(domain.Money)
	return m
}

func (v Values) Int(name string) int64 {
	n, _ := v[name].(int64)
	return n
}

func (v Values) Decimal(name string) decimal.Decimal {
	d, _ := v[name].(decimal.Decimal)
	return d
}

// Bind parses input against fields. Every failing field is reported; the
// returned error is an errors.Join of *FieldError values. Blank optional
// fields are left out of Values.
func Bind(fields []Field, input map[string]string) (Values, error) {
	values := make(Values, len(fields))
	var errs []error

	for _, f := range fields {
		raw := strings.TrimSpace(input[f.Name])
		if raw == "" {
			if f.Required {
				errs = append(errs, &FieldError{Field: f.Name, Err: ErrRequired})
			}
			continue
		}

		ed, err := editorFor(f.Kind)
		if err != nil {
			errs = append(errs, &FieldError{Field: f.Name, Err: err})
			continue
		}
		v, err := ed.Parse(f, raw)
		if err != nil {
			errs = append(errs, &FieldError{Field: f.Name, Err: err})
			continue
		}
		values[f.Name] = v
	}

	return values, errors.Join(errs...)
}

// Render formats bound values for display. Fields without a value are omitted.
func Render(fields []Field, values Values) map[string]string {
	out := make(map[string]string, len(fields))
	for _, f := range fields {
		v, ok := values[f.Name]
		if !ok {
			continue
		}
		ed, err := editorFor(f.Kind)
		if err != nil {
			continue
		}
		out[f.Name] = ed.Format(v)
	}
	return out
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrInvalidValue}, args...)...)
}
