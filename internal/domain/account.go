package domain

import (
	"fmt"
	"time"
)

// Account holds the cash available for trading.
// Funds are only moved by the execution desk, never by the order manager.
type Account struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"uniqueIndex" json:"name"`
	Funds     Money     `json:"funds"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewAccount creates an account with opening funds.
func NewAccount(name string, funds Money) *Account {
	return &Account{Name: name, Funds: funds}
}

// CanAfford checks if a cost can be paid from available funds.
func (a *Account) CanAfford(cost Money) bool {
	return a.Funds.GreaterThanOrEqual(cost)
}

// Credit adds funds to the account. Panics on overflow.
func (a *Account) Credit(amount Money) {
	a.Funds = a.Funds.Add(amount)
}

// Debit removes funds from the account.
// Returns ErrInsufficientFunds (and changes nothing) when funds would go negative.
func (a *Account) Debit(amount Money) error {
	if !a.CanAfford(amount) {
		return fmt.Errorf("%w: %s need %s, available %s",
			ErrInsufficientFunds, a.Name, amount, a.Funds)
	}
	a.Funds = a.Funds.Sub(amount)
	return nil
}

// VerifyInvariant checks that funds are non-negative.
// Call this after any state change to ensure data integrity.
func (a *Account) VerifyInvariant() {
	if a.Funds.IsNegative() {
		panic(fmt.Sprintf("ACCOUNT_INVARIANT_NEGATIVE_FUNDS: %s = %s", a.Name, a.Funds))
	}
}
