package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Movement records are append-only facts. Accounts must always be derivable
// by replaying them from account opening; nothing else may move a balance.

// Deposit is one credit leg against an account.
type Deposit struct {
	ID             int64           `json:"id"`
	AccountID      int64           `json:"account"`
	Amount         decimal.Decimal `json:"amount"`
	ProcessingDate time.Time       `json:"processing_date"`
}

// Withdraw is one debit leg against an account.
type Withdraw struct {
	ID             int64           `json:"id"`
	AccountID      int64           `json:"account"`
	Amount         decimal.Decimal `json:"amount"`
	ProcessingDate time.Time       `json:"processing_date"`
}

// Transfer links a debit leg on the source account to a credit leg on the
// destination, applied atomically.
type Transfer struct {
	ID             int64           `json:"id"`
	Amount         decimal.Decimal `json:"amount"`
	FromID         int64           `json:"transfer_from"`
	ToID           int64           `json:"transfer_to"`
	ProcessingDate time.Time       `json:"processing_date"`
}

// Adjustment is a synthetic signed movement recorded when an account update
// overwrites the balance directly, so the replay invariant keeps holding.
type Adjustment struct {
	ID             int64           `json:"id"`
	AccountID      int64           `json:"account"`
	Delta          decimal.Decimal `json:"delta"`
	ProcessingDate time.Time       `json:"processing_date"`
}
