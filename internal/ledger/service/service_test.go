package service

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"bankledger/internal/ledger/models"
	"bankledger/internal/ledger/store"
	dErrors "bankledger/pkg/domain-errors"
)

func newService(t *testing.T) (*Service, *store.Memory) {
	t.Helper()
	mem := store.NewMemory()
	return New(mem, nil, nil), mem
}

func openAccount(t *testing.T, mem *store.Memory, balance int64, active bool) *models.Account {
	t.Helper()
	now := time.Now()
	acct := &models.Account{
		CustomerID: 1,
		Balance:    decimal.NewFromInt(balance),
		Type:       "checking",
		IsActive:   active,
		OpenDate:   now,
	}
	opening := &models.Deposit{Amount: decimal.NewFromInt(balance), ProcessingDate: now}
	require.NoError(t, mem.CreateAccount(context.Background(), acct, opening))
	return acct
}

// replayBalance recomputes an account's balance from its movement records.
// The opening funding is itself a Deposit record, so the sum starts at zero.
func replayBalance(t *testing.T, mem *store.Memory, accountID int64) decimal.Decimal {
	t.Helper()
	ctx := context.Background()
	sum := decimal.Zero

	deposits, err := mem.ListDeposits(ctx, accountID)
	require.NoError(t, err)
	for _, d := range deposits {
		sum = sum.Add(d.Amount)
	}

	withdraws, err := mem.ListWithdraws(ctx, accountID)
	require.NoError(t, err)
	for _, w := range withdraws {
		sum = sum.Sub(w.Amount)
	}

	transfers, err := mem.ListTransfersByAccount(ctx, accountID)
	require.NoError(t, err)
	for _, tr := range transfers {
		if tr.ToID == accountID {
			sum = sum.Add(tr.Amount)
		}
		if tr.FromID == accountID {
			sum = sum.Sub(tr.Amount)
		}
	}

	adjustments, err := mem.ListAdjustments(ctx, accountID)
	require.NoError(t, err)
	for _, a := range adjustments {
		sum = sum.Add(a.Delta)
	}
	return sum
}

func requireReplayHolds(t *testing.T, mem *store.Memory, accountID int64) {
	t.Helper()
	acct, err := mem.GetAccount(context.Background(), accountID)
	require.NoError(t, err)
	replayed := replayBalance(t, mem, accountID)
	require.True(t, acct.Balance.Equal(replayed),
		"balance %s must equal movement replay %s", acct.Balance, replayed)
}

func TestDepositCreditsAndRecords(t *testing.T) {
	svc, mem := newService(t)
	acct := openAccount(t, mem, 100, true)

	dep, err := svc.Deposit(context.Background(), acct.ID, decimal.NewFromInt(30))
	require.NoError(t, err)
	assert.NotZero(t, dep.ID)
	assert.Equal(t, acct.ID, dep.AccountID)
	assert.False(t, dep.ProcessingDate.IsZero())

	got, err := mem.GetAccount(context.Background(), acct.ID)
	require.NoError(t, err)
	assert.True(t, got.Balance.Equal(decimal.NewFromInt(130)))
	requireReplayHolds(t, mem, acct.ID)
}

func TestDepositUnknownAccount(t *testing.T) {
	svc, _ := newService(t)
	_, err := svc.Deposit(context.Background(), 999, decimal.NewFromInt(30))
	require.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))
}

func TestDepositInactiveAccount(t *testing.T) {
	svc, mem := newService(t)
	acct := openAccount(t, mem, 100, false)

	_, err := svc.Deposit(context.Background(), acct.ID, decimal.NewFromInt(30))
	require.True(t, dErrors.HasCode(err, dErrors.CodeBusinessRule))

	got, err := mem.GetAccount(context.Background(), acct.ID)
	require.NoError(t, err)
	assert.True(t, got.Balance.Equal(decimal.NewFromInt(100)), "failed movement must not change balance")
}

func TestDepositRejectsNonPositiveAmounts(t *testing.T) {
	svc, mem := newService(t)
	acct := openAccount(t, mem, 100, true)

	for _, amount := range []decimal.Decimal{decimal.Zero, decimal.NewFromInt(-5)} {
		_, err := svc.Deposit(context.Background(), acct.ID, amount)
		require.True(t, dErrors.HasCode(err, dErrors.CodeValidation), "amount %s", amount)
	}
}

func TestWithdrawDebitsAndRecords(t *testing.T) {
	svc, mem := newService(t)
	acct := openAccount(t, mem, 100, true)

	wd, err := svc.Withdraw(context.Background(), acct.ID, decimal.NewFromInt(40))
	require.NoError(t, err)
	assert.NotZero(t, wd.ID)

	got, err := mem.GetAccount(context.Background(), acct.ID)
	require.NoError(t, err)
	assert.True(t, got.Balance.Equal(decimal.NewFromInt(60)))
	requireReplayHolds(t, mem, acct.ID)
}

func TestWithdrawInsufficientBalance(t *testing.T) {
	svc, mem := newService(t)
	acct := openAccount(t, mem, 100, true)

	_, err := svc.Withdraw(context.Background(), acct.ID, decimal.NewFromInt(101))
	require.True(t, dErrors.HasCode(err, dErrors.CodeBusinessRule))

	got, err := mem.GetAccount(context.Background(), acct.ID)
	require.NoError(t, err)
	assert.True(t, got.Balance.Equal(decimal.NewFromInt(100)))

	withdraws, err := mem.ListWithdraws(context.Background(), acct.ID)
	require.NoError(t, err)
	assert.Empty(t, withdraws, "failed withdraw must not leave a movement record")
}

func TestWithdrawInactiveAccount(t *testing.T) {
	svc, mem := newService(t)
	acct := openAccount(t, mem, 100, false)

	_, err := svc.Withdraw(context.Background(), acct.ID, decimal.NewFromInt(10))
	require.True(t, dErrors.HasCode(err, dErrors.CodeBusinessRule))
}

func TestTransferMovesBothLegs(t *testing.T) {
	svc, mem := newService(t)
	from := openAccount(t, mem, 250, true)
	to := openAccount(t, mem, 10, true)

	tr, err := svc.Transfer(context.Background(), from.ID, to.ID, decimal.NewFromInt(100))
	require.NoError(t, err)
	assert.NotZero(t, tr.ID)

	gotFrom, err := mem.GetAccount(context.Background(), from.ID)
	require.NoError(t, err)
	gotTo, err := mem.GetAccount(context.Background(), to.ID)
	require.NoError(t, err)
	assert.True(t, gotFrom.Balance.Equal(decimal.NewFromInt(150)), "got %s", gotFrom.Balance)
	assert.True(t, gotTo.Balance.Equal(decimal.NewFromInt(110)), "got %s", gotTo.Balance)

	requireReplayHolds(t, mem, from.ID)
	requireReplayHolds(t, mem, to.ID)
}

func TestTransferSameAccount(t *testing.T) {
	svc, mem := newService(t)
	acct := openAccount(t, mem, 250, true)

	_, err := svc.Transfer(context.Background(), acct.ID, acct.ID, decimal.NewFromInt(10))
	require.True(t, dErrors.HasCode(err, dErrors.CodeBusinessRule))

	got, err := mem.GetAccount(context.Background(), acct.ID)
	require.NoError(t, err)
	assert.True(t, got.Balance.Equal(decimal.NewFromInt(250)))
}

func TestTransferValidationOrder(t *testing.T) {
	svc, mem := newService(t)
	active := openAccount(t, mem, 250, true)
	inactive := openAccount(t, mem, 250, false)

	t.Run("missing destination", func(t *testing.T) {
		_, err := svc.Transfer(context.Background(), active.ID, 999, decimal.NewFromInt(10))
		require.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	t.Run("inactive source", func(t *testing.T) {
		_, err := svc.Transfer(context.Background(), inactive.ID, active.ID, decimal.NewFromInt(10))
		require.True(t, dErrors.HasCode(err, dErrors.CodeBusinessRule))
	})

	t.Run("inactive destination", func(t *testing.T) {
		_, err := svc.Transfer(context.Background(), active.ID, inactive.ID, decimal.NewFromInt(10))
		require.True(t, dErrors.HasCode(err, dErrors.CodeBusinessRule))
	})
}

func TestTransferInsufficientBalanceLeavesBothUnchanged(t *testing.T) {
	svc, mem := newService(t)
	from := openAccount(t, mem, 50, true)
	to := openAccount(t, mem, 10, true)

	_, err := svc.Transfer(context.Background(), from.ID, to.ID, decimal.NewFromInt(60))
	require.True(t, dErrors.HasCode(err, dErrors.CodeBusinessRule))

	gotFrom, err := mem.GetAccount(context.Background(), from.ID)
	require.NoError(t, err)
	gotTo, err := mem.GetAccount(context.Background(), to.ID)
	require.NoError(t, err)
	assert.True(t, gotFrom.Balance.Equal(decimal.NewFromInt(50)))
	assert.True(t, gotTo.Balance.Equal(decimal.NewFromInt(10)))
}

// TestConcurrentDepositsAndWithdrawsNoLostUpdate runs interleaved deposits and
// withdraws against one account; the final balance must equal the serial-order
// result for any interleaving.
func TestConcurrentDepositsAndWithdrawsNoLostUpdate(t *testing.T) {
	svc, mem := newService(t)
	acct := openAccount(t, mem, 10_000, true)

	const rounds = 100
	var g errgroup.Group
	g.Go(func() error {
		for i := 0; i < rounds; i++ {
			if _, err := svc.Deposit(context.Background(), acct.ID, decimal.NewFromInt(7)); err != nil {
				return err
			}
		}
		return nil
	})
	g.Go(func() error {
		for i := 0; i < rounds; i++ {
			if _, err := svc.Withdraw(context.Background(), acct.ID, decimal.NewFromInt(3)); err != nil {
				return err
			}
		}
		return nil
	})
	require.NoError(t, g.Wait())

	got, err := mem.GetAccount(context.Background(), acct.ID)
	require.NoError(t, err)
	want := decimal.NewFromInt(10_000 + rounds*7 - rounds*3)
	assert.True(t, got.Balance.Equal(want), "want %s, got %s", want, got.Balance)
	requireReplayHolds(t, mem, acct.ID)
}

// TestConcurrentOpposingTransfers exercises transfers sharing accounts in
// opposite roles: they must serialize without deadlock or lost updates.
func TestConcurrentOpposingTransfers(t *testing.T) {
	svc, mem := newService(t)
	a := openAccount(t, mem, 5_000, true)
	b := openAccount(t, mem, 5_000, true)

	const rounds = 100
	var g errgroup.Group
	g.Go(func() error {
		for i := 0; i < rounds; i++ {
			if _, err := svc.Transfer(context.Background(), a.ID, b.ID, decimal.NewFromInt(2)); err != nil {
				return err
			}
		}
		return nil
	})
	g.Go(func() error {
		for i := 0; i < rounds; i++ {
			if _, err := svc.Transfer(context.Background(), b.ID, a.ID, decimal.NewFromInt(5)); err != nil {
				return err
			}
		}
		return nil
	})
	require.NoError(t, g.Wait())

	gotA, err := mem.GetAccount(context.Background(), a.ID)
	require.NoError(t, err)
	gotB, err := mem.GetAccount(context.Background(), b.ID)
	require.NoError(t, err)
	assert.True(t, gotA.Balance.Equal(decimal.NewFromInt(5_000-rounds*2+rounds*5)), "got %s", gotA.Balance)
	assert.True(t, gotB.Balance.Equal(decimal.NewFromInt(5_000+rounds*2-rounds*5)), "got %s", gotB.Balance)
	requireReplayHolds(t, mem, a.ID)
	requireReplayHolds(t, mem, b.ID)
}

func TestTransfersByAccountIncludesBothRoles(t *testing.T) {
	svc, mem := newService(t)
	a := openAccount(t, mem, 1_000, true)
	b := openAccount(t, mem, 1_000, true)
	c := openAccount(t, mem, 1_000, true)

	_, err := svc.Transfer(context.Background(), a.ID, b.ID, decimal.NewFromInt(10))
	require.NoError(t, err)
	_, err = svc.Transfer(context.Background(), c.ID, a.ID, decimal.NewFromInt(20))
	require.NoError(t, err)
	_, err = svc.Transfer(context.Background(), b.ID, c.ID, decimal.NewFromInt(30))
	require.NoError(t, err)

	transfers, err := svc.TransfersByAccount(context.Background(), a.ID)
	require.NoError(t, err)
	assert.Len(t, transfers, 2)
}

func TestTransfersByAccountUnknownAccount(t *testing.T) {
	svc, _ := newService(t)
	_, err := svc.TransfersByAccount(context.Background(), 404)
	require.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))
}
