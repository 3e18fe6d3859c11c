package domain

import (
	"errors"
	"fmt"
)

// RetriableError defines an interface for errors that can be retried
type RetriableError interface {
	error
	IsRetriable() bool
}

// IsRetriable checks if an error is retriable
func IsRetriable(err error) bool {
	var re RetriableError
	if errors.As(err, &re) {
		return re.IsRetriable()
	}
	return false
}

// NetworkError represents a quote-source failure that may be retriable
type NetworkError struct {
	Op        string // Operation that failed (e.g., "fetch", "open", "decode")
	Err       error  // Underlying error
	Retriable bool   // Whether this error is retriable
}

func (e *NetworkError) Error() string {
	return e.Op + ": " + e.Err.Error()
}

func (e *NetworkError) IsRetriable() bool {
	return e.Retriable
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// NewNetworkError creates a new retriable network error
func NewNetworkError(op string, err error) *NetworkError {
	return &NetworkError{Op: op, Err: err, Retriable: true}
}

// NewFatalNetworkError creates a non-retriable network error
func NewFatalNetworkError(op string, err error) *NetworkError {
	return &NetworkError{Op: op, Err: err, Retriable: false}
}

// ConfigError represents a configuration error (never retriable)
type ConfigError struct {
	Field string
	Err   error
}

func (e *ConfigError) Error() string {
	return "config error [" + e.Field + "]: " + e.Err.Error()
}

func (e *ConfigError) IsRetriable() bool {
	return false
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

// UnsupportedOrderError is raised for strategy/action pairs the engine never
// evaluates (e.g. BUY + STOP_LOSS). It aborts evaluation of that order only.
type UnsupportedOrderError struct {
	Strategy Strategy
	Action   Action
}

func (e *UnsupportedOrderError) Error() string {
	return fmt.Sprintf("unsupported order: %s with %s", e.Strategy, e.Action)
}

func (e *UnsupportedOrderError) IsRetriable() bool {
	return false
}

func (e *UnsupportedOrderError) Unwrap() error {
	return ErrUnsupportedOrder
}

var (
	// ErrUnsupportedOrder matches every UnsupportedOrderError via errors.Is.
	ErrUnsupportedOrder = errors.New("unsupported order")

	// ErrQuoteMismatch is returned when an order is evaluated against another symbol's quote.
	ErrQuoteMismatch = errors.New("quote symbol does not match order")

	// ErrInvalidOrder is returned when an order fails validation.
	ErrInvalidOrder = errors.New("invalid order")

	// ErrOrderNotOpen is returned when a finished order is modified.
	ErrOrderNotOpen = errors.New("order not open")

	// ErrInsufficientFunds is returned when a BUY costs more than the account holds.
	ErrInsufficientFunds = errors.New("insufficient funds")

	// ErrOversell is returned when a SELL exceeds the quantity held.
	ErrOversell = errors.New("sell quantity exceeds holding")

	// ErrMoneyOverflow is returned when an amount leaves the int64 micro-cent range.
	ErrMoneyOverflow = errors.New("money out of range")

	// ErrConfigNotFound is returned when configuration file is missing
	ErrConfigNotFound = errors.New("configuration not found")
)
