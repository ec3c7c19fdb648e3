// Package store holds the Ledger Store contract and its in-memory and
// PostgreSQL implementations: durable account state plus append-only movement
// history, with an explicit atomic unit-of-work boundary.
package store

import (
	"context"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"bankledger/internal/ledger/models"
)

// Unit is the view of the ledger inside one atomic unit. Every mutation is
// staged against the unit and commits only if the unit's callback returns nil.
// Balance changes are expressed as deltas against the stored value, never as
// read-then-overwrite, so adjustments compound correctly within one unit.
type Unit interface {
	// Account returns the current state of a locked account, including any
	// mutations already staged in this unit. Returns sentinel.ErrNotFound for
	// ids that don't exist or weren't named in the unit.
	Account(id int64) (*models.Account, error)
	// AdjustBalance applies a signed delta to the stored balance.
	AdjustBalance(id int64, delta decimal.Decimal) error
	SetType(id int64, accountType string) error
	SetActive(id int64, active bool) error
	AppendDeposit(d *models.Deposit) error
	AppendWithdraw(w *models.Withdraw) error
	AppendTransfer(t *models.Transfer) error
	AppendAdjustment(a *models.Adjustment) error
}

// Store is the durable contract the Money-Movement Engine and Account
// Directory run against.
type Store interface {
	// WithAtomicAccounts executes fn with exclusive access to the named
	// accounts. All staged mutations and movement appends commit together or
	// not at all; a failure leaves state unchanged. Locks are acquired in
	// ascending account id order, so units over disjoint account sets proceed
	// concurrently and overlapping units cannot deadlock.
	WithAtomicAccounts(ctx context.Context, ids []int64, fn func(Unit) error) error

	// CreateAccount persists a new account together with its opening Deposit
	// record in one atomic unit, assigning both ids.
	CreateAccount(ctx context.Context, account *models.Account, opening *models.Deposit) error

	GetAccount(ctx context.Context, id int64) (*models.Account, error)
	ListAccounts(ctx context.Context, filter AccountFilter) ([]*models.Account, error)

	// ListTransfers returns transfers ordered by processing date descending.
	ListTransfers(ctx context.Context, filter TransferFilter) ([]*models.Transfer, error)
	// ListTransfersByAccount returns every transfer where the account is
	// source or destination.
	ListTransfersByAccount(ctx context.Context, accountID int64) ([]*models.Transfer, error)

	ListDeposits(ctx context.Context, accountID int64) ([]*models.Deposit, error)
	ListWithdraws(ctx context.Context, accountID int64) ([]*models.Withdraw, error)
	ListAdjustments(ctx context.Context, accountID int64) ([]*models.Adjustment, error)
}

// AccountFilter narrows account listings. Nil fields match everything.
type AccountFilter struct {
	OpenDateGTE *time.Time
	OpenDateLTE *time.Time
	Type        *string
	CustomerID  *int64
}

func (f AccountFilter) matches(a *models.Account) bool {
	if f.OpenDateGTE != nil && a.OpenDate.Before(*f.OpenDateGTE) {
		return false
	}
	if f.OpenDateLTE != nil && a.OpenDate.After(*f.OpenDateLTE) {
		return false
	}
	if f.Type != nil && a.Type != *f.Type {
		return false
	}
	if f.CustomerID != nil && a.CustomerID != *f.CustomerID {
		return false
	}
	return true
}

// TransferFilter narrows transfer listings. Nil fields match everything.
type TransferFilter struct {
	FromID            *int64
	ToID              *int64
	ProcessingDateGTE *time.Time
	ProcessingDateLTE *time.Time
	AmountGTE         *decimal.Decimal
	AmountLTE         *decimal.Decimal
	AmountExact       *decimal.Decimal
}

func (f TransferFilter) matches(t *models.Transfer) bool {
	if f.FromID != nil && t.FromID != *f.FromID {
		return false
	}
	if f.ToID != nil && t.ToID != *f.ToID {
		return false
	}
	if f.ProcessingDateGTE != nil && t.ProcessingDate.Before(*f.ProcessingDateGTE) {
		return false
	}
	if f.ProcessingDateLTE != nil && t.ProcessingDate.After(*f.ProcessingDateLTE) {
		return false
	}
	if f.AmountGTE != nil && t.Amount.LessThan(*f.AmountGTE) {
		return false
	}
	if f.AmountLTE != nil && t.Amount.GreaterThan(*f.AmountLTE) {
		return false
	}
	if f.AmountExact != nil && !t.Amount.Equal(*f.AmountExact) {
		return false
	}
	return true
}

// dedupeSort returns the unique account ids in ascending order, which is the
// store-wide lock acquisition order.
func dedupeSort(ids []int64) []int64 {
	out := make([]int64, 0, len(ids))
	seen := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
