package store

import (
	"context"
	"sort"
	"sync"

	"github.com/shopspring/decimal"

	"bankledger/internal/ledger/models"
	"bankledger/pkg/platform/sentinel"
)

// Memory is the in-memory Ledger Store. Each account has its own mutex;
// WithAtomicAccounts acquires them in ascending id order, so units touching
// disjoint accounts never block each other and overlapping units serialize
// without deadlock. A store-level mutex guards the maps, id counters, and the
// commit/read boundary.
type Memory struct {
	mu          sync.Mutex
	accounts    map[int64]*models.Account
	locks       map[int64]*sync.Mutex
	deposits    []*models.Deposit
	withdraws   []*models.Withdraw
	transfers   []*models.Transfer
	adjustments []*models.Adjustment

	nextAccountID    int64
	nextDepositID    int64
	nextWithdrawID   int64
	nextTransferID   int64
	nextAdjustmentID int64
}

// NewMemory creates an empty in-memory ledger store.
func NewMemory() *Memory {
	return &Memory{
		accounts: make(map[int64]*models.Account),
		locks:    make(map[int64]*sync.Mutex),
	}
}

func (s *Memory) WithAtomicAccounts(ctx context.Context, ids []int64, fn func(Unit) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	ids = dedupeSort(ids)

	// Resolve lock objects for the accounts that exist right now. Accounts
	// created after this point were not visible to the caller and surface as
	// ErrNotFound inside the unit, same as on a database snapshot.
	s.mu.Lock()
	locks := make([]*sync.Mutex, 0, len(ids))
	held := make([]int64, 0, len(ids))
	for _, id := range ids {
		if _, ok := s.accounts[id]; ok {
			locks = append(locks, s.lockFor(id))
			held = append(held, id)
		}
	}
	s.mu.Unlock()

	// Ascending id order: ids are already sorted, locks follow that order.
	for _, l := range locks {
		l.Lock()
	}
	defer func() {
		for i := len(locks) - 1; i >= 0; i-- {
			locks[i].Unlock()
		}
	}()

	u := &memoryUnit{store: s, staged: make(map[int64]*models.Account, len(held))}
	s.mu.Lock()
	for _, id := range held {
		cp := *s.accounts[id]
		u.staged[id] = &cp
	}
	s.mu.Unlock()

	if err := fn(u); err != nil {
		return err
	}

	// Commit: write staged account state back and append staged movements.
	// Readers take s.mu, so they observe either none or all of the unit.
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, acct := range u.staged {
		cp := *acct
		s.accounts[id] = &cp
	}
	s.deposits = append(s.deposits, u.deposits...)
	s.withdraws = append(s.withdraws, u.withdraws...)
	s.transfers = append(s.transfers, u.transfers...)
	s.adjustments = append(s.adjustments, u.adjustments...)
	return nil
}

// lockFor returns the mutex for an account, creating it on first use.
// Callers must hold s.mu.
func (s *Memory) lockFor(id int64) *sync.Mutex {
	l, ok := s.locks[id]
	if !ok {
		l = &sync.Mutex{}
		s.locks[id] = l
	}
	return l
}

func (s *Memory) CreateAccount(_ context.Context, account *models.Account, opening *models.Deposit) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextAccountID++
	account.ID = s.nextAccountID
	acctCopy := *account
	s.accounts[account.ID] = &acctCopy

	s.nextDepositID++
	opening.ID = s.nextDepositID
	opening.AccountID = account.ID
	depCopy := *opening
	s.deposits = append(s.deposits, &depCopy)
	return nil
}

func (s *Memory) GetAccount(_ context.Context, id int64) (*models.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if acct, ok := s.accounts[id]; ok {
		cp := *acct
		return &cp, nil
	}
	return nil, sentinel.ErrNotFound
}

func (s *Memory) ListAccounts(_ context.Context, filter AccountFilter) ([]*models.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*models.Account, 0)
	for _, acct := range s.accounts {
		if filter.matches(acct) {
			cp := *acct
			out = append(out, &cp)
		}
	}
	sortAccountsByID(out)
	return out, nil
}

func (s *Memory) ListTransfers(_ context.Context, filter TransferFilter) ([]*models.Transfer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*models.Transfer, 0)
	for _, t := range s.transfers {
		if filter.matches(t) {
			cp := *t
			out = append(out, &cp)
		}
	}
	sortTransfersByProcessingDateDesc(out)
	return out, nil
}

func (s *Memory) ListTransfersByAccount(_ context.Context, accountID int64) ([]*models.Transfer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*models.Transfer, 0)
	for _, t := range s.transfers {
		if t.FromID == accountID || t.ToID == accountID {
			cp := *t
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (s *Memory) ListDeposits(_ context.Context, accountID int64) ([]*models.Deposit, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*models.Deposit, 0)
	for _, d := range s.deposits {
		if d.AccountID == accountID {
			cp := *d
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (s *Memory) ListWithdraws(_ context.Context, accountID int64) ([]*models.Withdraw, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*models.Withdraw, 0)
	for _, w := range s.withdraws {
		if w.AccountID == accountID {
			cp := *w
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (s *Memory) ListAdjustments(_ context.Context, accountID int64) ([]*models.Adjustment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*models.Adjustment, 0)
	for _, a := range s.adjustments {
		if a.AccountID == accountID {
			cp := *a
			out = append(out, &cp)
		}
	}
	return out, nil
}

func sortAccountsByID(accounts []*models.Account) {
	sort.Slice(accounts, func(i, j int) bool { return accounts[i].ID < accounts[j].ID })
}

func sortTransfersByProcessingDateDesc(transfers []*models.Transfer) {
	sort.Slice(transfers, func(i, j int) bool {
		if !transfers[i].ProcessingDate.Equal(transfers[j].ProcessingDate) {
			return transfers[i].ProcessingDate.After(transfers[j].ProcessingDate)
		}
		return transfers[i].ID > transfers[j].ID
	})
}

// memoryUnit stages mutations against copies of the locked accounts. Nothing
// touches the store until the unit commits.
type memoryUnit struct {
	store       *Memory
	staged      map[int64]*models.Account
	deposits    []*models.Deposit
	withdraws   []*models.Withdraw
	transfers   []*models.Transfer
	adjustments []*models.Adjustment
}

func (u *memoryUnit) Account(id int64) (*models.Account, error) {
	acct, ok := u.staged[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cp := *acct
	return &cp, nil
}

func (u *memoryUnit) AdjustBalance(id int64, delta decimal.Decimal) error {
	acct, ok := u.staged[id]
	if !ok {
		return sentinel.ErrNotFound
	}
	acct.Balance = acct.Balance.Add(delta)
	return nil
}

func (u *memoryUnit) SetType(id int64, accountType string) error {
	acct, ok := u.staged[id]
	if !ok {
		return sentinel.ErrNotFound
	}
	acct.Type = accountType
	return nil
}

func (u *memoryUnit) SetActive(id int64, active bool) error {
	acct, ok := u.staged[id]
	if !ok {
		return sentinel.ErrNotFound
	}
	acct.IsActive = active
	return nil
}

func (u *memoryUnit) AppendDeposit(d *models.Deposit) error {
	u.store.mu.Lock()
	u.store.nextDepositID++
	d.ID = u.store.nextDepositID
	u.store.mu.Unlock()
	cp := *d
	u.deposits = append(u.deposits, &cp)
	return nil
}

func (u *memoryUnit) AppendWithdraw(w *models.Withdraw) error {
	u.store.mu.Lock()
	u.store.nextWithdrawID++
	w.ID = u.store.nextWithdrawID
	u.store.mu.Unlock()
	cp := *w
	u.withdraws = append(u.withdraws, &cp)
	return nil
}

func (u *memoryUnit) AppendTransfer(t *models.Transfer) error {
	u.store.mu.Lock()
	u.store.nextTransferID++
	t.ID = u.store.nextTransferID
	u.store.mu.Unlock()
	cp := *t
	u.transfers = append(u.transfers, &cp)
	return nil
}

func (u *memoryUnit) AppendAdjustment(a *models.Adjustment) error {
	u.store.mu.Lock()
	u.store.nextAdjustmentID++
	a.ID = u.store.nextAdjustmentID
	u.store.mu.Unlock()
	cp := *a
	u.adjustments = append(u.adjustments, &cp)
	return nil
}
