// Package testrunner is the Test Case Runner: a transaction-isolated
// preprocess → predicted → cleanup execution (spec.md §4.6). Grounded on
// the teacher's query_executor.go transaction/row-scanning code for
// executing arbitrary SQL and capturing column names + row multisets.
package testrunner

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/sqlens-agent/pgoptimizer/internal/domain"
	"github.com/sqlens-agent/pgoptimizer/internal/pgconn"
)

// Result carries one Test Case Runner invocation's outcome (spec.md §4.6
// "Output").
type Result struct {
	PreprocessFailedAt int // -1 when every preprocess statement succeeded
	PreprocessError    string

	IsSelect        bool
	Columns         []string
	Rows            [][]interface{}
	AffectedRows    int64
	PredictedError  string

	CleanupErrors []string

	WorkflowComplete bool
}

// MaxCapturedRows bounds the predicted result-set cardinality captured
// into Result.Rows (spec.md §4.6 "bounded cardinality").
const MaxCapturedRows = 1000

// Run executes task's preprocess, the predicted SQL, and task's cleanup
// inside one transaction on a dedicated connection, then always rolls
// back (spec.md §8.1 "Transaction isolation").
func Run(ctx context.Context, pool *pgconn.Pool, task domain.Task, predictedSQL []string, statementTimeout time.Duration) (Result, error) {
	res := Result{PreprocessFailedAt: -1}

	conn, release, err := pool.FreshConn(ctx)
	if err != nil {
		return res, fmt.Errorf("testrunner: fresh conn: %w", err)
	}
	defer release()

	tx, err := conn.BeginTx(ctx, nil)
	if err != nil {
		return res, fmt.Errorf("testrunner: begin: %w", err)
	}
	defer tx.Rollback()

	for i, stmt := range task.PreprocessSQL {
		if err := execWithTimeout(ctx, tx, stmt, statementTimeout); err != nil {
			if isAlreadyExists(err) {
				continue // idempotent preprocess: already applied, proceed
			}
			res.PreprocessFailedAt = i
			res.PreprocessError = err.Error()
			return res, nil
		}
	}

	runPredicted(ctx, tx, predictedSQL, statementTimeout, &res)

	for _, stmt := range task.CleanUpSQL {
		if err := execWithTimeout(ctx, tx, stmt, statementTimeout); err != nil {
			res.CleanupErrors = append(res.CleanupErrors, err.Error())
		}
	}

	res.WorkflowComplete = res.PreprocessFailedAt == -1 && res.PredictedError == ""
	return res, nil
}

func runPredicted(ctx context.Context, tx *sql.Tx, stmts []string, timeout time.Duration, res *Result) {
	for _, stmt := range stmts {
		trimmed := strings.TrimSpace(stmt)
		if strings.HasPrefix(strings.ToUpper(trimmed), "SELECT") {
			res.IsSelect = true
			if err := captureSelect(ctx, tx, trimmed, timeout, res); err != nil {
				res.PredictedError = err.Error()
				return
			}
			continue
		}

		qctx, cancel := context.WithTimeout(ctx, timeout)
		result, err := tx.ExecContext(qctx, trimmed)
		cancel()
		if err != nil {
			res.PredictedError = err.Error()
			return
		}
		if n, err := result.RowsAffected(); err == nil {
			res.AffectedRows += n
		}
	}
}

func captureSelect(ctx context.Context, tx *sql.Tx, query string, timeout time.Duration, res *Result) error {
	qctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	rows, err := tx.QueryContext(qctx, query)
	if err != nil {
		return err
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return err
	}
	res.Columns = cols

	for rows.Next() && len(res.Rows) < MaxCapturedRows {
		values := make([]interface{}, len(cols))
		ptrs := make([]interface{}, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return err
		}
		for i, v := range values {
			if b, ok := v.([]byte); ok {
				values[i] = string(b)
			}
		}
		res.Rows = append(res.Rows, values)
	}
	return rows.Err()
}

func execWithTimeout(ctx context.Context, tx *sql.Tx, stmt string, timeout time.Duration) error {
	qctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	_, err := tx.ExecContext(qctx, stmt)
	return err
}

func isAlreadyExists(err error) bool {
	return err != nil && strings.Contains(strings.ToLower(err.Error()), "already exists")
}
