// Package service implements the account directory: customer identity and
// account lifecycle. Balance-bearing state is delegated to the ledger store
// so every account mutation stays inside an atomic unit.
package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/shopspring/decimal"

	directorymetrics "bankledger/internal/directory/metrics"
	"bankledger/internal/directory/models"
	ledgermodels "bankledger/internal/ledger/models"
	ledgerstore "bankledger/internal/ledger/store"
	dErrors "bankledger/pkg/domain-errors"
	"bankledger/pkg/platform/sentinel"
	"bankledger/pkg/requestcontext"
)

// MinimumOpeningBalance is the smallest amount an account can be opened with,
// and the floor for direct balance overwrites.
var MinimumOpeningBalance = decimal.NewFromInt(50)

// CustomerStore persists identity records. Implementations enforce
// identification-number uniqueness atomically with the insert.
type CustomerStore interface {
	CreateIfIdentificationAvailable(ctx context.Context, customer *models.Customer) error
	FindByID(ctx context.Context, id int64) (*models.Customer, error)
	List(ctx context.Context) ([]*models.Customer, error)
}

// AccountPatch carries the mutable account fields for an update. Nil fields
// are left untouched.
type AccountPatch struct {
	Type     *string
	Balance  *decimal.Decimal
	IsActive *bool
}

// Service orchestrates customer and account lifecycle operations.
type Service struct {
	logger    *slog.Logger
	customers CustomerStore
	ledger    ledgerstore.Store
	metrics   *directorymetrics.Metrics
}

// New creates an account directory. metrics may be nil.
func New(customers CustomerStore, ledger ledgerstore.Store, logger *slog.Logger, metrics *directorymetrics.Metrics) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{logger: logger, customers: customers, ledger: ledger, metrics: metrics}
}

// CreateCustomer validates and stores a new identity record.
func (s *Service) CreateCustomer(ctx context.Context, name, address, identificationNumber string) (*models.Customer, error) {
	name = strings.TrimSpace(name)
	address = strings.TrimSpace(address)

	fields := make(map[string]string)
	if name == "" {
		fields["name"] = "name is required"
	}
	if address == "" {
		fields["address"] = "address is required"
	}
	if ok, reason := models.ValidateIdentificationNumber(identificationNumber); !ok {
		fields["identification_number"] = reason
	}
	if len(fields) > 0 {
		return nil, dErrors.NewValidation("invalid customer", fields)
	}

	customer := &models.Customer{
		Name:                 name,
		Address:              address,
		IdentificationNumber: identificationNumber,
	}
	if err := s.customers.CreateIfIdentificationAvailable(ctx, customer); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, dErrors.NewValidation("invalid customer", map[string]string{
				"identification_number": "identification number is already in use",
			})
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create customer")
	}

	s.metrics.IncrementCustomersCreated()
	return customer, nil
}

// ListCustomers returns every identity record.
func (s *Service) ListCustomers(ctx context.Context) ([]*models.Customer, error) {
	customers, err := s.customers.List(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list customers")
	}
	return customers, nil
}

// CreateAccount opens an account funded with depositAmount. The account row
// and its opening Deposit record are persisted in one atomic unit so the
// replay invariant holds from account birth.
func (s *Service) CreateAccount(ctx context.Context, customerID int64, accountType string, depositAmount decimal.Decimal, isActive bool) (*ledgermodels.Account, error) {
	accountType = strings.TrimSpace(accountType)

	fields := make(map[string]string)
	if accountType == "" {
		fields["type"] = "type is required"
	}
	if depositAmount.LessThan(MinimumOpeningBalance) {
		fields["deposit_amount"] = "initial amount must be at least 50"
	}
	if len(fields) > 0 {
		return nil, dErrors.NewValidation("invalid account", fields)
	}

	if _, err := s.customers.FindByID(ctx, customerID); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.NewValidation("invalid account", map[string]string{
				"customer": "customer does not exist",
			})
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create account")
	}

	now := requestcontext.Now(ctx)
	account := &ledgermodels.Account{
		CustomerID: customerID,
		Balance:    depositAmount,
		Type:       accountType,
		IsActive:   isActive,
		OpenDate:   now,
	}
	opening := &ledgermodels.Deposit{
		Amount:         depositAmount,
		ProcessingDate: now,
	}
	if err := s.ledger.CreateAccount(ctx, account, opening); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create account")
	}

	s.metrics.IncrementAccountsCreated()
	return account, nil
}

// GetAccount returns the current account state.
func (s *Service) GetAccount(ctx context.Context, id int64) (*ledgermodels.Account, error) {
	account, err := s.ledger.GetAccount(ctx, id)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "account not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load account")
	}
	return account, nil
}

// ListAccounts returns accounts matching the filter.
func (s *Service) ListAccounts(ctx context.Context, filter ledgerstore.AccountFilter) ([]*ledgermodels.Account, error) {
	accounts, err := s.ledger.ListAccounts(ctx, filter)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list accounts")
	}
	return accounts, nil
}

// UpdateAccount applies a patch inside one atomic unit. A balance overwrite
// is revalidated against the minimum and recorded as a synthetic Adjustment
// movement so the account still replays from its movement history.
// Reactivation is rejected: deactivation is a terminal transition.
func (s *Service) UpdateAccount(ctx context.Context, id int64, patch AccountPatch) (*ledgermodels.Account, error) {
	if patch.Balance != nil && patch.Balance.LessThan(MinimumOpeningBalance) {
		return nil, dErrors.NewValidation("invalid account", map[string]string{
			"balance": "balance must be at least 50",
		})
	}

	var updated *ledgermodels.Account
	err := s.ledger.WithAtomicAccounts(ctx, []int64{id}, func(u ledgerstore.Unit) error {
		account, err := u.Account(id)
		if err != nil {
			return translateAccountErr(err)
		}

		if patch.IsActive != nil {
			if *patch.IsActive {
				if err := account.CanReactivate(); err != nil {
					return dErrors.New(dErrors.CodeBusinessRule, "a deactivated account cannot be reactivated")
				}
			} else if account.IsActive {
				if err := u.SetActive(id, false); err != nil {
					return err
				}
			}
		}

		if patch.Type != nil && *patch.Type != account.Type {
			if err := u.SetType(id, strings.TrimSpace(*patch.Type)); err != nil {
				return err
			}
		}

		if patch.Balance != nil {
			delta := patch.Balance.Sub(account.Balance)
			if !delta.IsZero() {
				if err := u.AdjustBalance(id, delta); err != nil {
					return err
				}
				if err := u.AppendAdjustment(&ledgermodels.Adjustment{
					AccountID:      id,
					Delta:          delta,
					ProcessingDate: requestcontext.Now(ctx),
				}); err != nil {
					return err
				}
			}
		}

		updated, err = u.Account(id)
		return err
	})
	if err != nil {
		if dErrors.CodeOf(err) == dErrors.CodeInternal {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to update account")
		}
		return nil, err
	}
	return updated, nil
}

// DeactivateAccount flips the account inactive. The flip is one-way and not
// guarded against repetition: deactivating twice is a no-op, unknown ids fail.
func (s *Service) DeactivateAccount(ctx context.Context, id int64) error {
	err := s.ledger.WithAtomicAccounts(ctx, []int64{id}, func(u ledgerstore.Unit) error {
		if _, err := u.Account(id); err != nil {
			return translateAccountErr(err)
		}
		return u.SetActive(id, false)
	})
	if err != nil {
		if dErrors.CodeOf(err) == dErrors.CodeInternal {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to deactivate account")
		}
		return err
	}

	s.metrics.IncrementAccountsDeactivated()
	return nil
}

func translateAccountErr(err error) error {
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.New(dErrors.CodeNotFound, "account not found")
	}
	return err
}
