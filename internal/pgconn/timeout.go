package pgconn

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// WithStatementTimeout runs fn inside a transaction with
// SET LOCAL statement_timeout scoped to that transaction only, so the
// setting never leaks to later statements on the same connection
// (spec.md §6 "Statement-level controls"). fn receives the transaction to
// run its single statement against; the transaction is committed on
// success and rolled back on error.
func WithStatementTimeout(ctx context.Context, conn *sql.Conn, d time.Duration, fn func(tx *sql.Tx) error) error {
	tx, err := conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("pgconn: begin: %w", err)
	}

	ms := d.Milliseconds()
	if ms <= 0 {
		ms = 1
	}
	if _, err := tx.ExecContext(ctx, fmt.Sprintf("SET LOCAL statement_timeout = %d", ms)); err != nil {
		tx.Rollback()
		return fmt.Errorf("pgconn: set statement_timeout: %w", err)
	}

	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("pgconn: commit: %w", err)
	}
	return nil
}
