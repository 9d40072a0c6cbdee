package domain

// DataType is a normalized column type, dialect-neutral at this layer.
// Grounded on Chahine-tech-sqlens pkg/schema.Schema, narrowed to the
// PostgreSQL types the Schema Oracle actually resolves.
type DataType string

const (
	TypeInteger   DataType = "integer"
	TypeBigInt    DataType = "bigint"
	TypeNumeric   DataType = "numeric"
	TypeText      DataType = "text"
	TypeVarchar   DataType = "varchar"
	TypeBoolean   DataType = "boolean"
	TypeTimestamp DataType = "timestamp"
	TypeDate      DataType = "date"
	TypeUUID      DataType = "uuid"
	TypeJSON      DataType = "json"
	TypeUnknown   DataType = "unknown"
)

// Column is one column of a Table, as reported by the catalog.
type Column struct {
	Name     string   `json:"name"`
	Type     DataType `json:"type"`
	Nullable bool     `json:"nullable"`
}

// Index is one index on a Table, as reported by pg_indexes.
type Index struct {
	Name      string   `json:"name"`
	Columns   []string `json:"columns"`
	Unique    bool     `json:"unique"`
	Method    string   `json:"method"` // "btree", "hash", "gin", "gist", ...
	Predicate string   `json:"predicate,omitempty"`
}

// ForeignKey describes a column-to-column reference, used by the
// MissingJoinIndex rule to tell whether a join column is a natural FK.
type ForeignKey struct {
	Column       string `json:"column"`
	RefTable     string `json:"refTable"`
	RefColumn    string `json:"refColumn"`
}

// Table is the canonical catalog snapshot the Schema Oracle hands to the
// Plan Analyzer and Planner — estimated row count included, since most
// bottleneck rules gate on table size.
type Table struct {
	Name        string       `json:"name"`
	EstimatedRows int64      `json:"estimatedRows"`
	Columns     []Column     `json:"columns"`
	Indexes     []Index      `json:"indexes"`
	ForeignKeys []ForeignKey `json:"foreignKeys,omitempty"`
}

// HasColumn reports whether the table carries a column with this name.
func (t *Table) HasColumn(name string) bool {
	for _, c := range t.Columns {
		if c.Name == name {
			return true
		}
	}
	return false
}

// IndexedColumns returns the set of columns covered by at least one index,
// leading column only — sufficient for the FilterOnUnindexedColumn rule.
func (t *Table) IndexedColumns() map[string]bool {
	out := make(map[string]bool)
	for _, idx := range t.Indexes {
		if len(idx.Columns) > 0 {
			out[idx.Columns[0]] = true
		}
	}
	return out
}

// Schema is a per-database catalog snapshot, cached by the Schema Oracle
// and invalidated whenever the Executor applies a CreateIndex action.
type Schema struct {
	Database string           `json:"database"`
	Tables   map[string]Table `json:"tables"`
}

// GetTable looks up a table by name, case-sensitive (PostgreSQL identifiers
// are folded to lowercase unless quoted, and callers are expected to have
// already normalized names the same way the catalog query does).
func (s *Schema) GetTable(name string) (Table, bool) {
	t, ok := s.Tables[name]
	return t, ok
}
