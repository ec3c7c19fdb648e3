// Package tx wraps database/sql transactions with commit-or-rollback handling
// so stores don't repeat the Begin/Rollback/Commit dance.
package tx

import (
	"context"
	"database/sql"
	"fmt"
)

// Execute runs fn inside a transaction. The transaction commits when fn
// returns nil and rolls back otherwise.
func Execute(ctx context.Context, db *sql.DB, fn func(*sql.Tx) error) error {
	txn, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		_ = txn.Rollback()
	}()

	if err := fn(txn); err != nil {
		return err
	}

	if err := txn.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}
