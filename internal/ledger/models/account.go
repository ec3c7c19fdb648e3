package models

import (
	"time"

	"github.com/shopspring/decimal"

	"bankledger/pkg/platform/sentinel"
)

// Account is the only mutable aggregate in the ledger.
//
// Invariants:
//   - Balance always equals the signed sum of the account's movement records
//     (the opening funding is itself a Deposit record)
//   - OpenDate is set once at creation and never modified
//   - active → inactive is the only status transition; it is terminal
//
// Entities are plain data: all defaulting (open dates, processing dates) and
// balance mutation live in the owning services, never here.
type Account struct {
	ID         int64           `json:"id"`
	CustomerID int64           `json:"customer"`
	Balance    decimal.Decimal `json:"balance"`
	Type       string          `json:"type"`
	IsActive   bool            `json:"is_active"`
	OpenDate   time.Time       `json:"open_date"`
}

// CanReactivate reports whether the account may return to active status.
// It never can: deactivation is a one-way transition.
func (a *Account) CanReactivate() error {
	if !a.IsActive {
		return sentinel.ErrInvalidState
	}
	return nil
}
