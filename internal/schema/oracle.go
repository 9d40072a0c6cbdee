package schema

import (
	"context"
	"fmt"

	"github.com/lib/pq"
	"github.com/sqlens-agent/pgoptimizer/internal/domain"
	"github.com/sqlens-agent/pgoptimizer/internal/pgconn"
)

// Oracle fetches and caches one database's canonical schema snapshot,
// per task (spec.md §3 Schema lifecycle: "loaded once per task, cached;
// invalidated only if task changes"). The optional ProcessCache adds a
// second, opt-in layer shared across workers.
type Oracle struct {
	pool    *pgconn.Pool
	process *ProcessCache

	cached  *domain.Schema
	version int64
}

func New(pool *pgconn.Pool, process *ProcessCache) *Oracle {
	return &Oracle{pool: pool, process: process}
}

// Fetch returns the cached schema if present, else queries the catalog
// and populates the cache.
func (o *Oracle) Fetch(ctx context.Context, database string) (*domain.Schema, error) {
	if o.cached != nil {
		return o.cached, nil
	}

	if o.process != nil {
		version, err := o.catalogVersion(ctx)
		if err == nil {
			if s, err := o.process.Get(ctx, database, version); err == nil && s != nil {
				o.cached = s
				o.version = version
				return s, nil
			}
		}
	}

	s, err := o.fetchFromCatalog(ctx, database)
	if err != nil {
		return nil, err
	}
	o.cached = s

	if o.process != nil {
		version, err := o.catalogVersion(ctx)
		if err == nil {
			o.version = version
			_ = o.process.Set(ctx, database, version, s)
		}
	}
	return s, nil
}

// Invalidate drops the per-task cache and, if present, the process-wide
// entry — called after every CreateIndex action (spec.md §3, §8.1).
func (o *Oracle) Invalidate(ctx context.Context, database string) {
	o.cached = nil
	if o.process != nil {
		o.process.Invalidate(ctx, database, o.version)
	}
}

func (o *Oracle) catalogVersion(ctx context.Context) (int64, error) {
	var oid int64
	err := o.pool.DB().QueryRowContext(ctx, "SELECT txid_current_if_assigned()::bigint").Scan(&oid)
	if err != nil {
		return 0, fmt.Errorf("schema: catalog version: %w", err)
	}
	return oid, nil
}

func (o *Oracle) fetchFromCatalog(ctx context.Context, database string) (*domain.Schema, error) {
	tables := make(map[string]domain.Table)

	const tableQuery = `
		SELECT c.relname, COALESCE(c.reltuples, 0)::bigint
		FROM pg_class c
		JOIN pg_namespace n ON n.oid = c.relnamespace
		WHERE c.relkind = 'r' AND n.nspname = 'public'`

	rows, err := o.pool.DB().QueryContext(ctx, tableQuery)
	if err != nil {
		return nil, fmt.Errorf("schema: list tables: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var name string
		var estRows int64
		if err := rows.Scan(&name, &estRows); err != nil {
			return nil, fmt.Errorf("schema: scan table: %w", err)
		}
		tables[name] = domain.Table{Name: name, EstimatedRows: estRows}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("schema: list tables: %w", err)
	}

	for name, t := range tables {
		cols, err := o.fetchColumns(ctx, name)
		if err != nil {
			return nil, err
		}
		t.Columns = cols

		idx, err := o.fetchIndexes(ctx, name)
		if err != nil {
			return nil, err
		}
		t.Indexes = idx

		tables[name] = t
	}

	return &domain.Schema{Database: database, Tables: tables}, nil
}

func (o *Oracle) fetchColumns(ctx context.Context, table string) ([]domain.Column, error) {
	const q = `
		SELECT column_name, data_type, is_nullable = 'YES'
		FROM information_schema.columns
		WHERE table_schema = 'public' AND table_name = $1
		ORDER BY ordinal_position`

	rows, err := o.pool.DB().QueryContext(ctx, q, table)
	if err != nil {
		return nil, fmt.Errorf("schema: columns of %s: %w", table, err)
	}
	defer rows.Close()

	var cols []domain.Column
	for rows.Next() {
		var name, dataType string
		var nullable bool
		if err := rows.Scan(&name, &dataType, &nullable); err != nil {
			return nil, fmt.Errorf("schema: scan column: %w", err)
		}
		cols = append(cols, domain.Column{
			Name:     name,
			Type:     normalizeType(dataType),
			Nullable: nullable,
		})
	}
	return cols, rows.Err()
}

func (o *Oracle) fetchIndexes(ctx context.Context, table string) ([]domain.Index, error) {
	const q = `
		SELECT i.relname, ix.indisunique, am.amname, array_agg(a.attname ORDER BY k.ord)
		FROM pg_index ix
		JOIN pg_class t ON t.oid = ix.indrelid
		JOIN pg_class i ON i.oid = ix.indexrelid
		JOIN pg_am am ON am.oid = i.relam
		JOIN unnest(ix.indkey) WITH ORDINALITY AS k(attnum, ord) ON true
		JOIN pg_attribute a ON a.attrelid = t.oid AND a.attnum = k.attnum
		WHERE t.relname = $1
		GROUP BY i.relname, ix.indisunique, am.amname`

	rows, err := o.pool.DB().QueryContext(ctx, q, table)
	if err != nil {
		return nil, fmt.Errorf("schema: indexes of %s: %w", table, err)
	}
	defer rows.Close()

	var indexes []domain.Index
	for rows.Next() {
		var name, method string
		var unique bool
		var cols []string
		if err := rows.Scan(&name, &unique, &method, pq.Array(&cols)); err != nil {
			return nil, fmt.Errorf("schema: scan index: %w", err)
		}
		indexes = append(indexes, domain.Index{
			Name:    name,
			Columns: cols,
			Unique:  unique,
			Method:  method,
		})
	}
	return indexes, rows.Err()
}

func normalizeType(pgType string) domain.DataType {
	switch pgType {
	case "integer", "smallint":
		return domain.TypeInteger
	case "bigint":
		return domain.TypeBigInt
	case "numeric", "real", "double precision":
		return domain.TypeNumeric
	case "text":
		return domain.TypeText
	case "character varying", "character":
		return domain.TypeVarchar
	case "boolean":
		return domain.TypeBoolean
	case "timestamp without time zone", "timestamp with time zone":
		return domain.TypeTimestamp
	case "date":
		return domain.TypeDate
	case "uuid":
		return domain.TypeUUID
	case "json", "jsonb":
		return domain.TypeJSON
	default:
		return domain.TypeUnknown
	}
}
