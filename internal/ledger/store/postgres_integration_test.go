//go:build integration

package store

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
	"golang.org/x/sync/errgroup"

	"bankledger/internal/ledger/models"
	"bankledger/pkg/platform/sentinel"
	"bankledger/pkg/testutil/containers"
)

type PostgresLedgerSuite struct {
	suite.Suite
	container *containers.PostgresContainer
	store     *Postgres
	ctx       context.Context
}

func TestPostgresLedgerSuite(t *testing.T) {
	suite.Run(t, new(PostgresLedgerSuite))
}

func (s *PostgresLedgerSuite) SetupSuite() {
	s.container = containers.GetManager().GetPostgres(s.T())
	s.store = NewPostgres(s.container.DB)
	s.ctx = context.Background()
}

func (s *PostgresLedgerSuite) SetupTest() {
	s.Require().NoError(s.container.TruncateTables(s.ctx,
		"adjustments", "transfers", "withdraws", "deposits", "accounts", "customers"))
	_, err := s.container.DB.ExecContext(s.ctx,
		`INSERT INTO customers (name, address, identification_number) VALUES ('Sarah Johnson', '12 Elm Street', '12345678901')`)
	s.Require().NoError(err)
}

func (s *PostgresLedgerSuite) newAccount(balance int64) int64 {
	account := &models.Account{
		CustomerID: 1,
		Balance:    decimal.NewFromInt(balance),
		Type:       "checking",
		IsActive:   true,
		OpenDate:   time.Now().UTC(),
	}
	opening := &models.Deposit{
		Amount:         decimal.NewFromInt(balance),
		ProcessingDate: time.Now().UTC(),
	}
	s.Require().NoError(s.store.CreateAccount(s.ctx, account, opening))
	return account.ID
}

func (s *PostgresLedgerSuite) TestCreateAccountRecordsOpeningDeposit() {
	id := s.newAccount(200)

	account, err := s.store.GetAccount(s.ctx, id)
	s.Require().NoError(err)
	s.True(account.Balance.Equal(decimal.NewFromInt(200)))
	s.True(account.IsActive)

	deposits, err := s.store.ListDeposits(s.ctx, id)
	s.Require().NoError(err)
	s.Require().Len(deposits, 1)
	s.True(deposits[0].Amount.Equal(decimal.NewFromInt(200)))
	s.Equal(id, deposits[0].AccountID)
}

func (s *PostgresLedgerSuite) TestGetAccountUnknown() {
	_, err := s.store.GetAccount(s.ctx, 9999)
	s.Require().ErrorIs(err, sentinel.ErrNotFound)
}

func (s *PostgresLedgerSuite) TestAtomicTransferCommit() {
	from := s.newAccount(250)
	to := s.newAccount(10)
	amount := decimal.NewFromInt(100)

	err := s.store.WithAtomicAccounts(s.ctx, []int64{from, to}, func(u Unit) error {
		if err := u.AdjustBalance(from, amount.Neg()); err != nil {
			return err
		}
		if err := u.AdjustBalance(to, amount); err != nil {
			return err
		}
		return u.AppendTransfer(&models.Transfer{
			FromID:         from,
			ToID:           to,
			Amount:         amount,
			ProcessingDate: time.Now().UTC(),
		})
	})
	s.Require().NoError(err)

	fromAcct, err := s.store.GetAccount(s.ctx, from)
	s.Require().NoError(err)
	toAcct, err := s.store.GetAccount(s.ctx, to)
	s.Require().NoError(err)
	s.True(fromAcct.Balance.Equal(decimal.NewFromInt(150)))
	s.True(toAcct.Balance.Equal(decimal.NewFromInt(110)))

	transfers, err := s.store.ListTransfersByAccount(s.ctx, from)
	s.Require().NoError(err)
	s.Require().Len(transfers, 1)
}

func (s *PostgresLedgerSuite) TestAtomicRollbackOnError() {
	id := s.newAccount(100)

	boom := sentinel.ErrInvalidState
	err := s.store.WithAtomicAccounts(s.ctx, []int64{id}, func(u Unit) error {
		if err := u.AdjustBalance(id, decimal.NewFromInt(500)); err != nil {
			return err
		}
		return boom
	})
	s.Require().ErrorIs(err, boom)

	account, err := s.store.GetAccount(s.ctx, id)
	s.Require().NoError(err)
	s.True(account.Balance.Equal(decimal.NewFromInt(100)))

	var count int
	s.Require().NoError(s.container.DB.QueryRowContext(s.ctx,
		`SELECT count(*) FROM deposits WHERE account_id = $1`, id).Scan(&count))
	s.Equal(1, count)
}

func (s *PostgresLedgerSuite) TestUnknownAccountInUnit() {
	id := s.newAccount(100)

	err := s.store.WithAtomicAccounts(s.ctx, []int64{id, 9999}, func(u Unit) error {
		_, err := u.Account(9999)
		return err
	})
	s.Require().ErrorIs(err, sentinel.ErrNotFound)
}

func (s *PostgresLedgerSuite) TestStagedReadsSeeAdjustments() {
	id := s.newAccount(100)

	err := s.store.WithAtomicAccounts(s.ctx, []int64{id}, func(u Unit) error {
		if err := u.AdjustBalance(id, decimal.NewFromInt(40)); err != nil {
			return err
		}
		account, err := u.Account(id)
		if err != nil {
			return err
		}
		s.True(account.Balance.Equal(decimal.NewFromInt(140)))
		return nil
	})
	s.Require().NoError(err)
}

func (s *PostgresLedgerSuite) TestOpposingTransfersDoNotDeadlock() {
	a := s.newAccount(1000)
	b := s.newAccount(1000)
	amount := decimal.NewFromInt(5)

	move := func(from, to int64) error {
		return s.store.WithAtomicAccounts(s.ctx, []int64{from, to}, func(u Unit) error {
			if err := u.AdjustBalance(from, amount.Neg()); err != nil {
				return err
			}
			return u.AdjustBalance(to, amount)
		})
	}

	g := new(errgroup.Group)
	for i := 0; i < 20; i++ {
		g.Go(func() error { return move(a, b) })
		g.Go(func() error { return move(b, a) })
	}
	s.Require().NoError(g.Wait())

	acctA, err := s.store.GetAccount(s.ctx, a)
	s.Require().NoError(err)
	acctB, err := s.store.GetAccount(s.ctx, b)
	s.Require().NoError(err)
	s.True(acctA.Balance.Equal(decimal.NewFromInt(1000)))
	s.True(acctB.Balance.Equal(decimal.NewFromInt(1000)))
}

func (s *PostgresLedgerSuite) TestListAccountsFilters() {
	checking := s.newAccount(100)
	_, err := s.container.DB.ExecContext(s.ctx,
		`UPDATE accounts SET type = 'savings', open_date = '2026-03-10T00:00:00Z' WHERE id = $1`, checking)
	s.Require().NoError(err)
	s.newAccount(200)

	savings := "savings"
	accounts, err := s.store.ListAccounts(s.ctx, AccountFilter{Type: &savings})
	s.Require().NoError(err)
	s.Require().Len(accounts, 1)
	s.Equal(checking, accounts[0].ID)

	cutoff := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	accounts, err = s.store.ListAccounts(s.ctx, AccountFilter{OpenDateLTE: &cutoff})
	s.Require().NoError(err)
	s.Require().Len(accounts, 0)
}

func (s *PostgresLedgerSuite) TestListTransfersFiltersAndOrder() {
	a := s.newAccount(500)
	b := s.newAccount(500)

	base := time.Date(2026, 4, 1, 12, 0, 0, 0, time.UTC)
	for i, amount := range []int64{50, 75, 25} {
		err := s.store.WithAtomicAccounts(s.ctx, []int64{a, b}, func(u Unit) error {
			return u.AppendTransfer(&models.Transfer{
				FromID:         a,
				ToID:           b,
				Amount:         decimal.NewFromInt(amount),
				ProcessingDate: base.Add(time.Duration(i) * time.Hour),
			})
		})
		s.Require().NoError(err)
	}

	transfers, err := s.store.ListTransfers(s.ctx, TransferFilter{})
	s.Require().NoError(err)
	s.Require().Len(transfers, 3)
	s.True(transfers[0].Amount.Equal(decimal.NewFromInt(25)))
	s.True(transfers[2].Amount.Equal(decimal.NewFromInt(50)))

	low := decimal.NewFromInt(30)
	high := decimal.NewFromInt(60)
	ranged, err := s.store.ListTransfers(s.ctx, TransferFilter{AmountGTE: &low, AmountLTE: &high})
	s.Require().NoError(err)
	s.Require().Len(ranged, 1)
	s.True(ranged[0].Amount.Equal(decimal.NewFromInt(50)))

	cutoff := base.Add(90 * time.Minute)
	recent, err := s.store.ListTransfers(s.ctx, TransferFilter{ProcessingDateGTE: &cutoff})
	s.Require().NoError(err)
	s.Require().Len(recent, 1)
	s.True(recent[0].Amount.Equal(decimal.NewFromInt(25)))
}

func (s *PostgresLedgerSuite) TestAdjustmentsPersist() {
	id := s.newAccount(100)

	err := s.store.WithAtomicAccounts(s.ctx, []int64{id}, func(u Unit) error {
		if err := u.AdjustBalance(id, decimal.NewFromInt(150)); err != nil {
			return err
		}
		return u.AppendAdjustment(&models.Adjustment{
			AccountID:      id,
			Delta:          decimal.NewFromInt(150),
			ProcessingDate: time.Now().UTC(),
		})
	})
	s.Require().NoError(err)

	adjustments, err := s.store.ListAdjustments(s.ctx, id)
	s.Require().NoError(err)
	s.Require().Len(adjustments, 1)
	s.True(adjustments[0].Delta.Equal(decimal.NewFromInt(150)))
}

func (s *PostgresLedgerSuite) TestSetTypeAndSetActive() {
	id := s.newAccount(100)

	err := s.store.WithAtomicAccounts(s.ctx, []int64{id}, func(u Unit) error {
		if err := u.SetType(id, "savings"); err != nil {
			return err
		}
		return u.SetActive(id, false)
	})
	s.Require().NoError(err)

	account, err := s.store.GetAccount(s.ctx, id)
	s.Require().NoError(err)
	s.Equal("savings", account.Type)
	s.False(account.IsActive)
}
