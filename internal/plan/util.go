package plan

import (
	"fmt"
	"strings"
)

func sprintfRows(format, relation string, rows int64) string {
	return fmt.Sprintf(format, relation, rows)
}

func sprintfCost(format, nodeType string, a, b, c float64) string {
	return fmt.Sprintf(format, nodeType, a, b, c)
}

func sprintfRatio(format, relation string, ratio float64, planRows, actualRows int64) string {
	return fmt.Sprintf(format, relation, ratio, planRows, actualRows)
}

func sprintfJoin(format, nodeType, table string) string {
	return fmt.Sprintf(format, nodeType, table)
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}

// splitEquality splits a "lhs = rhs" (or AND-joined set of such) condition
// into its individual sides, ignoring any top-level AND/OR structure –
// good enough for picking out qualified identifiers from Hash/Merge/Index
// conditions, which are always simple equalities.
func splitEquality(cond string) []string {
	s := stripCasts(stripOuterParens(cond))
	parts := strings.SplitN(s, "=", 2)
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}

func hasQualifier(s, table string) bool {
	prefix := table + "."
	return strings.HasPrefix(strings.TrimSpace(strings.Trim(s, "()")), prefix)
}

func lastSegment(s string) string {
	s = strings.TrimSpace(strings.Trim(s, "()"))
	if idx := strings.LastIndex(s, "."); idx != -1 {
		s = s[idx+1:]
	}
	return s
}
