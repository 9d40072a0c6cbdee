package pgconn

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
)

// Explain issues EXPLAIN (FORMAT JSON[, ANALYZE, BUFFERS]) against query on
// the given connection/pool-like executor, mirroring the teacher's
// analyzePostgreSQL (services/query_analyzer.go). The caller decides
// estimated-only vs ANALYZE per spec.md §4.5 step 1.
func Explain(ctx context.Context, q Queryable, query string, analyze bool) (json.RawMessage, error) {
	explainSQL := "EXPLAIN (FORMAT JSON"
	if analyze {
		explainSQL += ", ANALYZE, BUFFERS"
	}
	explainSQL += ") " + query

	var raw string
	if err := q.QueryRowContext(ctx, explainSQL).Scan(&raw); err != nil {
		return nil, fmt.Errorf("pgconn: explain: %w", err)
	}

	// PostgreSQL returns a single-element JSON array; the caller (the Plan
	// Analyzer's normalisation step) is responsible for unwrapping it, but
	// we validate it parses here so EXPLAIN failures surface immediately.
	if !json.Valid([]byte(raw)) {
		return nil, fmt.Errorf("pgconn: explain: invalid JSON output")
	}

	return json.RawMessage(raw), nil
}

// Queryable is satisfied by *sql.DB, *sql.Conn, and *sql.Tx, so Explain
// works the same whether called against the pool or a fresh dedicated
// connection.
type Queryable interface {
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}
