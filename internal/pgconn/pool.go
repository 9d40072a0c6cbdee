// Package pgconn is the low-level PostgreSQL boundary: pooled connections,
// EXPLAIN retrieval, and statement-level timeout control. Narrowed from the
// teacher's QueryExecutor (services/query_executor.go), which pooled one
// *sql.DB per connection across several dialects, down to PostgreSQL only.
package pgconn

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
)

// Pool wraps a single *sql.DB for one task's database, tuned for short-lived
// per-task work rather than the teacher's long-running multi-tenant pool.
type Pool struct {
	db  *sql.DB
	dsn string
}

// Open dials dsn and applies pool-tuning defaults scaled down from
// database/connect.go's GORM configuration (50/25/30m/10m) to the much
// shorter lifetime of a single benchmark task.
func Open(ctx context.Context, dsn string) (*Pool, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("pgconn: open: %w", err)
	}

	db.SetMaxOpenConns(8)
	db.SetMaxIdleConns(4)
	db.SetConnMaxLifetime(10 * time.Minute)
	db.SetConnMaxIdleTime(2 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("pgconn: ping: %w", err)
	}

	return &Pool{db: db, dsn: dsn}, nil
}

// DB exposes the underlying handle for callers that need raw query access
// (the Agent Controller, Schema Oracle and Hypothetical Index Prover do).
func (p *Pool) DB() *sql.DB {
	return p.db
}

// Close releases all pooled connections.
func (p *Pool) Close() error {
	return p.db.Close()
}

// FreshConn checks out a single dedicated connection outside the pool's
// normal reuse, for DDL/ANALYZE/hypothetical-index work that must not share
// session state with the evaluation transaction (spec.md §4.4, §9
// "Concurrency for re-probe"). The returned func releases the connection.
func (p *Pool) FreshConn(ctx context.Context) (*sql.Conn, func(), error) {
	conn, err := p.db.Conn(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("pgconn: fresh conn: %w", err)
	}
	return conn, func() { conn.Close() }, nil
}
