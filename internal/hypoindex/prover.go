// Package hypoindex scores a candidate index's benefit using the target
// database's hypothetical-index extension (hypopg) without ever building
// the physical structure (spec.md §4.4 TestIndex, §6 "Hypothetical-index
// extension"). No teacher analogue exists; this is built directly on
// internal/pgconn's dedicated-connection pattern.
package hypoindex

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/sqlens-agent/pgoptimizer/internal/pgconn"
)

// Prover probes for hypopg once per worker connection pool and reuses that
// verdict for every subsequent TestIndex call (spec.md §6 "probed once per
// worker").
type Prover struct {
	pool      *pgconn.Pool
	available bool
	probed    bool
}

func New(pool *pgconn.Pool) *Prover {
	return &Prover{pool: pool}
}

// Available reports whether hypopg's functions are installed on the
// target database. If absent, TestIndex always reports "unavailable" and
// the Planner must not emit TestIndex (spec.md §6).
func (p *Prover) Available(ctx context.Context) bool {
	if p.probed {
		return p.available
	}
	p.probed = true

	const probe = `SELECT EXISTS (
		SELECT 1 FROM pg_proc WHERE proname = 'hypopg_create_index'
	)`
	var exists bool
	if err := p.pool.DB().QueryRowContext(ctx, probe).Scan(&exists); err != nil {
		p.available = false
		return false
	}
	p.available = exists
	return exists
}

// Estimate creates ddl as a hypothetical index, estimates probeQuery's
// cost with and without it, then always cleans up — even on error — so a
// session-scoped hypothetical index never contaminates a later measurement
// (spec.md §9 "Concurrency for re-probe").
type Estimate struct {
	CostBefore      float64
	CostAfter       float64
	ImprovementPct  float64
	Beneficial      bool
}

func (p *Prover) Estimate(ctx context.Context, ddl, probeQuery string, beneficialThresholdPct float64) (Estimate, error) {
	if !p.Available(ctx) {
		return Estimate{}, fmt.Errorf("hypoindex: hypopg extension is unavailable")
	}

	conn, release, err := p.pool.FreshConn(ctx)
	if err != nil {
		return Estimate{}, err
	}
	defer release()

	before, err := estimatedCost(ctx, conn, probeQuery)
	if err != nil {
		return Estimate{}, fmt.Errorf("hypoindex: baseline estimate: %w", err)
	}

	indexOID, err := createHypotheticalIndex(ctx, conn, ddl)
	if err != nil {
		return Estimate{}, fmt.Errorf("hypoindex: create: %w", err)
	}
	defer dropHypotheticalIndex(ctx, conn, indexOID)

	after, err := estimatedCost(ctx, conn, probeQuery)
	if err != nil {
		return Estimate{}, fmt.Errorf("hypoindex: post-index estimate: %w", err)
	}

	improvement := 0.0
	if before > 0 {
		improvement = (before - after) / before * 100
	}

	return Estimate{
		CostBefore:     before,
		CostAfter:      after,
		ImprovementPct: improvement,
		Beneficial:     improvement >= beneficialThresholdPct,
	}, nil
}

func createHypotheticalIndex(ctx context.Context, conn *sql.Conn, ddl string) (int64, error) {
	var oid int64
	err := conn.QueryRowContext(ctx, "SELECT * FROM hypopg_create_index($1)", ddl).Scan(&oid, new(string))
	if err != nil {
		return 0, err
	}
	return oid, nil
}

func dropHypotheticalIndex(ctx context.Context, conn *sql.Conn, indexOID int64) {
	conn.ExecContext(ctx, "SELECT hypopg_drop_index($1)", indexOID)
}

// Reset drops every hypothetical index left on conn, used defensively at
// the start of a worker's lifetime.
func Reset(ctx context.Context, conn *sql.Conn) {
	conn.ExecContext(ctx, "SELECT hypopg_reset()")
}

func estimatedCost(ctx context.Context, conn *sql.Conn, query string) (float64, error) {
	var raw string
	if err := conn.QueryRowContext(ctx, "EXPLAIN (FORMAT JSON) "+query).Scan(&raw); err != nil {
		return 0, err
	}
	var plans []struct {
		Plan struct {
			TotalCost float64 `json:"Total Cost"`
		} `json:"Plan"`
	}
	if err := json.Unmarshal([]byte(raw), &plans); err != nil || len(plans) == 0 {
		return 0, fmt.Errorf("hypoindex: malformed EXPLAIN output")
	}
	return plans[0].Plan.TotalCost, nil
}
