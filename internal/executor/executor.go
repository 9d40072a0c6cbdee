// Package executor applies a Planner Action to the database (spec.md
// §4.4). Grounded on the teacher's query_executor.go Execute/
// connection-per-op style, narrowed to the fixed Action dispatch.
package executor

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/sqlens-agent/pgoptimizer/internal/domain"
	"github.com/sqlens-agent/pgoptimizer/internal/hypoindex"
	"github.com/sqlens-agent/pgoptimizer/internal/pgconn"
	"github.com/sqlens-agent/pgoptimizer/internal/schema"
)

// Result is what the Agent Controller needs after dispatching one Action:
// the (possibly updated) query set and whether the database was mutated.
type Result struct {
	QuerySet   []string
	Mutated    bool
	TestResult *hypoindex.Estimate
	Err        error
}

type Executor struct {
	pool             *pgconn.Pool
	oracle           *schema.Oracle
	prover           *hypoindex.Prover
	statementTimeout time.Duration
	testIndexPct     float64
	database         string
}

func New(pool *pgconn.Pool, oracle *schema.Oracle, prover *hypoindex.Prover, statementTimeout time.Duration, testIndexPct float64, database string) *Executor {
	return &Executor{
		pool:             pool,
		oracle:           oracle,
		prover:           prover,
		statementTimeout: statementTimeout,
		testIndexPct:     testIndexPct,
		database:         database,
	}
}

// Execute dispatches on action.Kind. Every engine error is converted to
// an Action-level error on Result rather than propagated as a panic or a
// Go error return (spec.md §4.4 "Safety").
func (e *Executor) Execute(ctx context.Context, action domain.Action, querySet []string) Result {
	switch action.Kind {
	case domain.ActionCreateIndex:
		return e.createIndex(ctx, action, querySet)
	case domain.ActionRunAnalyze:
		return e.runAnalyze(ctx, action, querySet)
	case domain.ActionRewriteQuery:
		return e.rewriteQuery(action, querySet)
	case domain.ActionTestIndex:
		return e.testIndex(ctx, action, querySet)
	case domain.ActionDone, domain.ActionFailed:
		return Result{QuerySet: querySet}
	default:
		return Result{QuerySet: querySet, Err: fmt.Errorf("executor: unknown action kind %q", action.Kind)}
	}
}

func (e *Executor) createIndex(ctx context.Context, action domain.Action, querySet []string) Result {
	conn, release, err := e.pool.FreshConn(ctx)
	if err != nil {
		return Result{QuerySet: querySet, Err: err}
	}
	defer release()

	execErr := pgconn.WithStatementTimeout(ctx, conn, e.statementTimeout, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, action.DDL)
		return err
	})
	if execErr != nil {
		return Result{QuerySet: querySet, Err: fmt.Errorf("executor: create index: %w", execErr)}
	}

	if e.oracle != nil {
		e.oracle.Invalidate(ctx, e.database)
	}
	return Result{QuerySet: querySet, Mutated: true}
}

func (e *Executor) runAnalyze(ctx context.Context, action domain.Action, querySet []string) Result {
	conn, release, err := e.pool.FreshConn(ctx)
	if err != nil {
		return Result{QuerySet: querySet, Err: err}
	}
	defer release()

	execErr := pgconn.WithStatementTimeout(ctx, conn, e.statementTimeout, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, "ANALYZE "+action.Table)
		return err
	})
	if execErr != nil {
		return Result{QuerySet: querySet, Err: fmt.Errorf("executor: analyze: %w", execErr)}
	}
	return Result{QuerySet: querySet, Mutated: false}
}

func (e *Executor) rewriteQuery(action domain.Action, querySet []string) Result {
	stmts := splitStatements(action.NewSQL)
	if len(stmts) == 0 {
		return Result{QuerySet: querySet, Err: fmt.Errorf("executor: rewrite produced no statements")}
	}
	return Result{QuerySet: stmts}
}

func (e *Executor) testIndex(ctx context.Context, action domain.Action, querySet []string) Result {
	est, err := e.prover.Estimate(ctx, action.DDL, action.ProbeQuery, e.testIndexPct)
	if err != nil {
		return Result{QuerySet: querySet, Err: fmt.Errorf("executor: test index: %w", err)}
	}
	return Result{QuerySet: querySet, TestResult: &est}
}

func splitStatements(sql string) []string {
	parts := strings.Split(sql, ";")
	var out []string
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
