package form

import (
	"errors"

	"mocktrade/internal/domain"
)

// Field names used by the order form.
const (
	FieldSymbol      = "symbol"
	FieldAction      = "action"
	FieldStrategy    = "strategy"
	FieldQuantity    = "quantity"
	FieldLimitPrice  = "limit_price"
	FieldStopPrice   = "stop_price"
	FieldStopPercent = "stop_percent"
)

// OrderFields returns the inputs an order with strategy s needs.
func OrderFields(s domain.Strategy) []Field {
	strategies := make([]string, len(domain.Strategies))
	for i, st := range domain.Strategies {
		strategies[i] = string(st)
	}

	fields := []Field{
		{Name: FieldSymbol, Label: "Symbol", Kind: KindSymbol, Required: true},
		{Name: FieldAction, Label: "Action", Kind: KindChoice, Required: true,
			Choices: []string{string(domain.ActionBuy), string(domain.ActionSell)}},
		{Name: FieldStrategy, Label: "Strategy", Kind: KindChoice, Required: true, Choices: strategies},
		{Name: FieldQuantity, Label: "Quantity", Kind: KindQuantity, Required: true},
	}

	switch s {
	case domain.StrategyLimit, domain.StrategyManual:
		fields = append(fields, Field{Name: FieldLimitPrice, Label: "Limit price", Kind: KindMoney, Required: true})
	case domain.StrategyStopLoss:
		fields = append(fields, Field{Name: FieldLimitPrice, Label: "Stop price", Kind: KindMoney, Required: true})
	case domain.StrategyTrailingStopAmount:
		fields = append(fields, Field{Name: FieldStopPrice, Label: "Trail amount", Kind: KindMoney, Required: true})
	case domain.StrategyTrailingStopPercent:
		fields = append(fields, Field{Name: FieldStopPercent, Label: "Trail percent", Kind: KindPercent, Required: true})
	}
	return fields
}

// BuildOrder binds input to a new, validated order. Field problems come back
// joined as *FieldError values; a bound order that fails domain validation
// returns the wrapped domain.ErrInvalidOrder.
func BuildOrder(input map[string]string) (*domain.Order, error) {
	strategy, err := domain.ParseStrategy(input[FieldStrategy])
	if err != nil {
		return nil, &FieldError{Field: FieldStrategy, Err: errors.Join(ErrInvalidValue, err)}
	}

	values, err := Bind(OrderFields(strategy), input)
	if err != nil {
		return nil, err
	}

	order := &domain.Order{
		Symbol:      values.Text(FieldSymbol),
		Action:      domain.Action(values.Text(FieldAction)),
		Strategy:    strategy,
		Quantity:    values.Int(FieldQuantity),
		LimitPrice:  values.Money(FieldLimitPrice),
		StopPrice:   values.Money(FieldStopPrice),
		StopPercent: values.Decimal(FieldStopPercent),
	}
	if err := order.Validate(); err != nil {
		return nil, err
	}
	return order, nil
}
