package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"bankledger/internal/ledger/models"
	"bankledger/pkg/platform/sentinel"
	platformtx "bankledger/pkg/platform/tx"
)

// Postgres is the PostgreSQL Ledger Store. Schema lives in db/schema.sql.
// Atomic units map to database transactions with `SELECT ... FOR UPDATE`
// ordered by account id, so row locks are always taken in ascending order.
type Postgres struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed ledger store.
func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

const accountColumns = "id, customer_id, balance, type, is_active, open_date"

func (s *Postgres) WithAtomicAccounts(ctx context.Context, ids []int64, fn func(Unit) error) error {
	ids = dedupeSort(ids)

	return platformtx.Execute(ctx, s.db, func(txn *sql.Tx) error {
		rows, err := txn.QueryContext(ctx,
			"SELECT "+accountColumns+" FROM accounts WHERE id = ANY($1) ORDER BY id FOR UPDATE",
			pq.Array(ids))
		if err != nil {
			return fmt.Errorf("lock accounts: %w", err)
		}
		staged := make(map[int64]*models.Account, len(ids))
		for rows.Next() {
			acct, err := scanAccount(rows)
			if err != nil {
				rows.Close()
				return err
			}
			staged[acct.ID] = acct
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return fmt.Errorf("lock accounts: %w", err)
		}

		return fn(&postgresUnit{ctx: ctx, tx: txn, staged: staged})
	})
}

func (s *Postgres) CreateAccount(ctx context.Context, account *models.Account, opening *models.Deposit) error {
	return platformtx.Execute(ctx, s.db, func(txn *sql.Tx) error {
		err := txn.QueryRowContext(ctx,
			`INSERT INTO accounts (customer_id, balance, type, is_active, open_date)
			 VALUES ($1, $2, $3, $4, $5) RETURNING id`,
			account.CustomerID, account.Balance, account.Type, account.IsActive, account.OpenDate,
		).Scan(&account.ID)
		if err != nil {
			return fmt.Errorf("insert account: %w", err)
		}

		opening.AccountID = account.ID
		err = txn.QueryRowContext(ctx,
			`INSERT INTO deposits (account_id, amount, processing_date) VALUES ($1, $2, $3) RETURNING id`,
			opening.AccountID, opening.Amount, opening.ProcessingDate,
		).Scan(&opening.ID)
		if err != nil {
			return fmt.Errorf("insert opening deposit: %w", err)
		}
		return nil
	})
}

func (s *Postgres) GetAccount(ctx context.Context, id int64) (*models.Account, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+accountColumns+" FROM accounts WHERE id = $1", id)
	acct, err := scanAccount(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	return acct, err
}

func (s *Postgres) ListAccounts(ctx context.Context, filter AccountFilter) ([]*models.Account, error) {
	var conds []string
	var args []any
	if filter.OpenDateGTE != nil {
		args = append(args, *filter.OpenDateGTE)
		conds = append(conds, fmt.Sprintf("open_date >= $%d", len(args)))
	}
	if filter.OpenDateLTE != nil {
		args = append(args, *filter.OpenDateLTE)
		conds = append(conds, fmt.Sprintf("open_date <= $%d", len(args)))
	}
	if filter.Type != nil {
		args = append(args, *filter.Type)
		conds = append(conds, fmt.Sprintf("type = $%d", len(args)))
	}
	if filter.CustomerID != nil {
		args = append(args, *filter.CustomerID)
		conds = append(conds, fmt.Sprintf("customer_id = $%d", len(args)))
	}

	query := "SELECT " + accountColumns + " FROM accounts" + whereClause(conds) + " ORDER BY id"
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	defer rows.Close()

	out := make([]*models.Account, 0)
	for rows.Next() {
		acct, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, acct)
	}
	return out, rows.Err()
}

const transferColumns = "id, amount, transfer_from, transfer_to, processing_date"

func (s *Postgres) ListTransfers(ctx context.Context, filter TransferFilter) ([]*models.Transfer, error) {
	var conds []string
	var args []any
	if filter.FromID != nil {
		args = append(args, *filter.FromID)
		conds = append(conds, fmt.Sprintf("transfer_from = $%d", len(args)))
	}
	if filter.ToID != nil {
		args = append(args, *filter.ToID)
		conds = append(conds, fmt.Sprintf("transfer_to = $%d", len(args)))
	}
	if filter.ProcessingDateGTE != nil {
		args = append(args, *filter.ProcessingDateGTE)
		conds = append(conds, fmt.Sprintf("processing_date >= $%d", len(args)))
	}
	if filter.ProcessingDateLTE != nil {
		args = append(args, *filter.ProcessingDateLTE)
		conds = append(conds, fmt.Sprintf("processing_date <= $%d", len(args)))
	}
	if filter.AmountGTE != nil {
		args = append(args, *filter.AmountGTE)
		conds = append(conds, fmt.Sprintf("amount >= $%d", len(args)))
	}
	if filter.AmountLTE != nil {
		args = append(args, *filter.AmountLTE)
		conds = append(conds, fmt.Sprintf("amount <= $%d", len(args)))
	}
	if filter.AmountExact != nil {
		args = append(args, *filter.AmountExact)
		conds = append(conds, fmt.Sprintf("amount = $%d", len(args)))
	}

	query := "SELECT " + transferColumns + " FROM transfers" + whereClause(conds) +
		" ORDER BY processing_date DESC, id DESC"
	return s.queryTransfers(ctx, query, args...)
}

func (s *Postgres) ListTransfersByAccount(ctx context.Context, accountID int64) ([]*models.Transfer, error) {
	query := "SELECT " + transferColumns + " FROM transfers WHERE transfer_from = $1 OR transfer_to = $1 ORDER BY id"
	return s.queryTransfers(ctx, query, accountID)
}

func (s *Postgres) queryTransfers(ctx context.Context, query string, args ...any) ([]*models.Transfer, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list transfers: %w", err)
	}
	defer rows.Close()

	out := make([]*models.Transfer, 0)
	for rows.Next() {
		var t models.Transfer
		if err := rows.Scan(&t.ID, &t.Amount, &t.FromID, &t.ToID, &t.ProcessingDate); err != nil {
			return nil, fmt.Errorf("scan transfer: %w", err)
		}
		out = append(out, &t)
	}
	return out, rows.Err()
}

func (s *Postgres) ListDeposits(ctx context.Context, accountID int64) ([]*models.Deposit, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, account_id, amount, processing_date FROM deposits WHERE account_id = $1 ORDER BY id", accountID)
	if err != nil {
		return nil, fmt.Errorf("list deposits: %w", err)
	}
	defer rows.Close()

	out := make([]*models.Deposit, 0)
	for rows.Next() {
		var d models.Deposit
		if err := rows.Scan(&d.ID, &d.AccountID, &d.Amount, &d.ProcessingDate); err != nil {
			return nil, fmt.Errorf("scan deposit: %w", err)
		}
		out = append(out, &d)
	}
	return out, rows.Err()
}

func (s *Postgres) ListWithdraws(ctx context.Context, accountID int64) ([]*models.Withdraw, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, account_id, amount, processing_date FROM withdraws WHERE account_id = $1 ORDER BY id", accountID)
	if err != nil {
		return nil, fmt.Errorf("list withdraws: %w", err)
	}
	defer rows.Close()

	out := make([]*models.Withdraw, 0)
	for rows.Next() {
		var w models.Withdraw
		if err := rows.Scan(&w.ID, &w.AccountID, &w.Amount, &w.ProcessingDate); err != nil {
			return nil, fmt.Errorf("scan withdraw: %w", err)
		}
		out = append(out, &w)
	}
	return out, rows.Err()
}

func (s *Postgres) ListAdjustments(ctx context.Context, accountID int64) ([]*models.Adjustment, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, account_id, delta, processing_date FROM adjustments WHERE account_id = $1 ORDER BY id", accountID)
	if err != nil {
		return nil, fmt.Errorf("list adjustments: %w", err)
	}
	defer rows.Close()

	out := make([]*models.Adjustment, 0)
	for rows.Next() {
		var a models.Adjustment
		if err := rows.Scan(&a.ID, &a.AccountID, &a.Delta, &a.ProcessingDate); err != nil {
			return nil, fmt.Errorf("scan adjustment: %w", err)
		}
		out = append(out, &a)
	}
	return out, rows.Err()
}

// postgresUnit runs mutations against the transaction holding the row locks.
// The staged map mirrors the database-side state so reads within the unit see
// mutations already applied.
type postgresUnit struct {
	ctx    context.Context
	tx     *sql.Tx
	staged map[int64]*models.Account
}

func (u *postgresUnit) Account(id int64) (*models.Account, error) {
	acct, ok := u.staged[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cp := *acct
	return &cp, nil
}

func (u *postgresUnit) AdjustBalance(id int64, delta decimal.Decimal) error {
	acct, ok := u.staged[id]
	if !ok {
		return sentinel.ErrNotFound
	}
	if _, err := u.tx.ExecContext(u.ctx,
		"UPDATE accounts SET balance = balance + $1 WHERE id = $2", delta, id); err != nil {
		return fmt.Errorf("adjust balance: %w", err)
	}
	acct.Balance = acct.Balance.Add(delta)
	return nil
}

func (u *postgresUnit) SetType(id int64, accountType string) error {
	acct, ok := u.staged[id]
	if !ok {
		return sentinel.ErrNotFound
	}
	if _, err := u.tx.ExecContext(u.ctx,
		"UPDATE accounts SET type = $1 WHERE id = $2", accountType, id); err != nil {
		return fmt.Errorf("set type: %w", err)
	}
	acct.Type = accountType
	return nil
}

func (u *postgresUnit) SetActive(id int64, active bool) error {
	acct, ok := u.staged[id]
	if !ok {
		return sentinel.ErrNotFound
	}
	if _, err := u.tx.ExecContext(u.ctx,
		"UPDATE accounts SET is_active = $1 WHERE id = $2", active, id); err != nil {
		return fmt.Errorf("set active: %w", err)
	}
	acct.IsActive = active
	return nil
}

func (u *postgresUnit) AppendDeposit(d *models.Deposit) error {
	err := u.tx.QueryRowContext(u.ctx,
		"INSERT INTO deposits (account_id, amount, processing_date) VALUES ($1, $2, $3) RETURNING id",
		d.AccountID, d.Amount, d.ProcessingDate).Scan(&d.ID)
	if err != nil {
		return fmt.Errorf("append deposit: %w", err)
	}
	return nil
}

func (u *postgresUnit) AppendWithdraw(w *models.Withdraw) error {
	err := u.tx.QueryRowContext(u.ctx,
		"INSERT INTO withdraws (account_id, amount, processing_date) VALUES ($1, $2, $3) RETURNING id",
		w.AccountID, w.Amount, w.ProcessingDate).Scan(&w.ID)
	if err != nil {
		return fmt.Errorf("append withdraw: %w", err)
	}
	return nil
}

func (u *postgresUnit) AppendTransfer(t *models.Transfer) error {
	err := u.tx.QueryRowContext(u.ctx,
		"INSERT INTO transfers (amount, transfer_from, transfer_to, processing_date) VALUES ($1, $2, $3, $4) RETURNING id",
		t.Amount, t.FromID, t.ToID, t.ProcessingDate).Scan(&t.ID)
	if err != nil {
		return fmt.Errorf("append transfer: %w", err)
	}
	return nil
}

func (u *postgresUnit) AppendAdjustment(a *models.Adjustment) error {
	err := u.tx.QueryRowContext(u.ctx,
		"INSERT INTO adjustments (account_id, delta, processing_date) VALUES ($1, $2, $3) RETURNING id",
		a.AccountID, a.Delta, a.ProcessingDate).Scan(&a.ID)
	if err != nil {
		return fmt.Errorf("append adjustment: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAccount(row rowScanner) (*models.Account, error) {
	var a models.Account
	if err := row.Scan(&a.ID, &a.CustomerID, &a.Balance, &a.Type, &a.IsActive, &a.OpenDate); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan account: %w", err)
	}
	return &a, nil
}

func whereClause(conds []string) string {
	if len(conds) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(conds, " AND ")
}
