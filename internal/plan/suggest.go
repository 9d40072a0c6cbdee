package plan

import (
	"fmt"
	"strings"
)

// SingleColumnIndex synthesises the one-column canonical form
// (spec.md §4.1 "Canonical suggestion synthesis").
func SingleColumnIndex(table, col string) string {
	return fmt.Sprintf("CREATE INDEX idx_%s_%s ON %s(%s)", table, col, table, col)
}

// CompositeIndex synthesises the AND-joined k-column canonical form.
func CompositeIndex(table string, cols []string) string {
	if len(cols) == 1 {
		return SingleColumnIndex(table, cols[0])
	}
	return fmt.Sprintf("CREATE INDEX idx_%s_composite ON %s(%s)", table, table, strings.Join(cols, ","))
}

// DisjunctiveIndexes synthesises the OR-joined form: one single-column
// index per column, semicolon-separated.
func DisjunctiveIndexes(table string, cols []string) string {
	stmts := make([]string, len(cols))
	for i, c := range cols {
		stmts[i] = SingleColumnIndex(table, c)
	}
	return strings.Join(stmts, "; ")
}

// SortKeyIndex synthesises an index over the sort-key columns, in order.
func SortKeyIndex(table string, cols []string) string {
	if len(cols) == 0 {
		return RunAnalyze(table)
	}
	if len(cols) == 1 {
		return SingleColumnIndex(table, cols[0])
	}
	return CompositeIndex(table, cols)
}

// RunAnalyze is the canonical "refresh statistics" suggestion.
func RunAnalyze(table string) string {
	return "RUN_ANALYZE " + table
}

// Synthesize picks the AND/OR/single form based on the connective
// ExtractColumns reported.
func Synthesize(table string, cols []string, connective string) string {
	switch {
	case len(cols) == 0:
		return RunAnalyze(table)
	case connective == "OR":
		return DisjunctiveIndexes(table, cols)
	default:
		return CompositeIndex(table, cols)
	}
}
