// Package service implements the money-movement engine: deposit, withdraw,
// and transfer, each executed as one atomic unit against the ledger store.
package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/shopspring/decimal"

	ledgermetrics "bankledger/internal/ledger/metrics"
	"bankledger/internal/ledger/models"
	"bankledger/internal/ledger/store"
	dErrors "bankledger/pkg/domain-errors"
	"bankledger/pkg/platform/sentinel"
	"bankledger/pkg/requestcontext"
)

const (
	kindDeposit  = "deposit"
	kindWithdraw = "withdraw"
	kindTransfer = "transfer"
)

// Service orchestrates movement operations. Validation and mutation happen
// inside the same atomic unit: state is never observed in one transaction and
// acted on in another.
type Service struct {
	logger  *slog.Logger
	store   store.Store
	metrics *ledgermetrics.Metrics
}

// New creates a movement engine on top of the given ledger store.
// metrics may be nil.
func New(ledger store.Store, logger *slog.Logger, metrics *ledgermetrics.Metrics) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{logger: logger, store: ledger, metrics: metrics}
}

// Deposit credits amount to the account and records a Deposit movement.
func (s *Service) Deposit(ctx context.Context, accountID int64, amount decimal.Decimal) (*models.Deposit, error) {
	start := requestcontext.Now(ctx)
	if err := requirePositiveAmount(amount); err != nil {
		s.metrics.MovementRejected(kindDeposit, "amount")
		return nil, err
	}

	deposit := &models.Deposit{
		AccountID:      accountID,
		Amount:         amount,
		ProcessingDate: requestcontext.Now(ctx),
	}
	err := s.store.WithAtomicAccounts(ctx, []int64{accountID}, func(u store.Unit) error {
		acct, err := u.Account(accountID)
		if err != nil {
			return translateAccountErr(err)
		}
		if !acct.IsActive {
			return dErrors.New(dErrors.CodeBusinessRule, "inactive account")
		}
		if err := u.AdjustBalance(accountID, amount); err != nil {
			return translateAccountErr(err)
		}
		return u.AppendDeposit(deposit)
	})
	if err != nil {
		s.rejectMovement(ctx, kindDeposit, err)
		return nil, err
	}

	s.metrics.MovementApplied(kindDeposit)
	s.metrics.ObserveMovement(kindDeposit, start)
	return deposit, nil
}

// Withdraw debits amount from the account and records a Withdraw movement.
// The balance check happens under the same lock as the debit.
func (s *Service) Withdraw(ctx context.Context, accountID int64, amount decimal.Decimal) (*models.Withdraw, error) {
	start := requestcontext.Now(ctx)
	if err := requirePositiveAmount(amount); err != nil {
		s.metrics.MovementRejected(kindWithdraw, "amount")
		return nil, err
	}

	withdraw := &models.Withdraw{
		AccountID:      accountID,
		Amount:         amount,
		ProcessingDate: requestcontext.Now(ctx),
	}
	err := s.store.WithAtomicAccounts(ctx, []int64{accountID}, func(u store.Unit) error {
		acct, err := u.Account(accountID)
		if err != nil {
			return translateAccountErr(err)
		}
		if !acct.IsActive {
			return dErrors.New(dErrors.CodeBusinessRule, "inactive account")
		}
		if acct.Balance.LessThan(amount) {
			return dErrors.New(dErrors.CodeBusinessRule, "insufficient balance")
		}
		if err := u.AdjustBalance(accountID, amount.Neg()); err != nil {
			return translateAccountErr(err)
		}
		return u.AppendWithdraw(withdraw)
	})
	if err != nil {
		s.rejectMovement(ctx, kindWithdraw, err)
		return nil, err
	}

	s.metrics.MovementApplied(kindWithdraw)
	s.metrics.ObserveMovement(kindWithdraw, start)
	return withdraw, nil
}

// Transfer moves amount from one account to another: a debit leg and a credit
// leg applied in one atomic unit, plus a Transfer record linking them.
func (s *Service) Transfer(ctx context.Context, fromID, toID int64, amount decimal.Decimal) (*models.Transfer, error) {
	start := requestcontext.Now(ctx)
	if err := requirePositiveAmount(amount); err != nil {
		s.metrics.MovementRejected(kindTransfer, "amount")
		return nil, err
	}

	transfer := &models.Transfer{
		Amount:         amount,
		FromID:         fromID,
		ToID:           toID,
		ProcessingDate: requestcontext.Now(ctx),
	}
	err := s.store.WithAtomicAccounts(ctx, []int64{fromID, toID}, func(u store.Unit) error {
		from, err := u.Account(fromID)
		if err != nil {
			return translateAccountErr(err)
		}
		to, err := u.Account(toID)
		if err != nil {
			return translateAccountErr(err)
		}
		if fromID == toID {
			return dErrors.New(dErrors.CodeBusinessRule, "transfers cannot be made between two same accounts")
		}
		if !from.IsActive {
			return dErrors.New(dErrors.CodeBusinessRule, "sending account must be active")
		}
		if !to.IsActive {
			return dErrors.New(dErrors.CodeBusinessRule, "recipient account must be active")
		}
		if from.Balance.LessThan(amount) {
			return dErrors.New(dErrors.CodeBusinessRule, "insufficient balance")
		}
		if err := u.AdjustBalance(fromID, amount.Neg()); err != nil {
			return translateAccountErr(err)
		}
		if err := u.AdjustBalance(toID, amount); err != nil {
			return translateAccountErr(err)
		}
		return u.AppendTransfer(transfer)
	})
	if err != nil {
		s.rejectMovement(ctx, kindTransfer, err)
		return nil, err
	}

	s.metrics.MovementApplied(kindTransfer)
	s.metrics.ObserveMovement(kindTransfer, start)
	return transfer, nil
}

// ListTransfers returns transfers matching the filter, ordered by processing
// date descending.
func (s *Service) ListTransfers(ctx context.Context, filter store.TransferFilter) ([]*models.Transfer, error) {
	transfers, err := s.store.ListTransfers(ctx, filter)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list transfers")
	}
	return transfers, nil
}

// TransfersByAccount returns every transfer where the account is source or
// destination. Fails with not-found when the account doesn't exist.
func (s *Service) TransfersByAccount(ctx context.Context, accountID int64) ([]*models.Transfer, error) {
	if _, err := s.store.GetAccount(ctx, accountID); err != nil {
		return nil, translateAccountErr(err)
	}
	transfers, err := s.store.ListTransfersByAccount(ctx, accountID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list transfers")
	}
	return transfers, nil
}

func (s *Service) rejectMovement(ctx context.Context, kind string, err error) {
	switch dErrors.CodeOf(err) {
	case dErrors.CodeBusinessRule:
		s.metrics.MovementRejected(kind, "business_rule")
	case dErrors.CodeNotFound:
		s.metrics.MovementRejected(kind, "not_found")
	case dErrors.CodeInternal:
		s.logger.ErrorContext(ctx, "movement failed",
			"request_id", requestcontext.RequestID(ctx),
			"kind", kind,
			"error", err.Error(),
		)
		s.metrics.MovementRejected(kind, "internal")
	}
}

func requirePositiveAmount(amount decimal.Decimal) error {
	if amount.Sign() <= 0 {
		return dErrors.NewValidation("invalid movement", map[string]string{
			"amount": "amount must be greater than zero",
		})
	}
	return nil
}

func translateAccountErr(err error) error {
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.New(dErrors.CodeNotFound, "account not found")
	}
	if dErrors.CodeOf(err) != dErrors.CodeInternal {
		return err
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, "ledger store failure")
}
