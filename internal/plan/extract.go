package plan

import (
	"regexp"
	"strings"
)

// reservedWords are never returned as column names by ExtractColumns
// (spec.md §4.1 "discard reserved words").
var reservedWords = map[string]bool{
	"AND": true, "OR": true, "NOT": true, "IS": true, "NULL": true,
	"TRUE": true, "FALSE": true, "IN": true, "LIKE": true, "ANY": true,
	"ALL": true, "EXISTS": true, "BETWEEN": true, "SOME": true,
}

var castSuffix = regexp.MustCompile(`::[A-Za-z_][A-Za-z0-9_]*(\([0-9, ]+\))?(\[\])?`)

// comparisonOps are tried left-to-right; longer operators must precede
// their prefixes (">=" before ">") so the scan finds the real operator.
var comparisonOps = []string{"<=", ">=", "<>", "!=", "=", "<", ">", " IS ", " IN ", " LIKE "}

// ExtractColumns implements spec.md §4.1 "Column extraction (filter →
// column set)": strip parens and casts, split on the top-level logical
// connective, and take the left-hand identifier of each conjunct/disjunct.
// Returns the ordered, de-duplicated column list and the connective found
// ("AND", "OR", or "" for a single predicate).
func ExtractColumns(filter string) ([]string, string) {
	s := stripCasts(stripOuterParens(strings.TrimSpace(filter)))
	if s == "" {
		return nil, ""
	}

	parts, connective := splitTopLevel(s)

	seen := make(map[string]bool)
	var cols []string
	for _, part := range parts {
		col := leftHandColumn(part)
		if col == "" || reservedWords[strings.ToUpper(col)] {
			continue
		}
		if !seen[col] {
			seen[col] = true
			cols = append(cols, col)
		}
	}
	return cols, connective
}

// stripOuterParens removes a wrapping parenthesis pair only when it spans
// the entire string (recursively, since EXPLAIN output nests freely).
func stripOuterParens(s string) string {
	for {
		s = strings.TrimSpace(s)
		if len(s) < 2 || s[0] != '(' || s[len(s)-1] != ')' {
			return s
		}
		depth := 0
		spansWhole := true
		for i, r := range s {
			switch r {
			case '(':
				depth++
			case ')':
				depth--
				if depth == 0 && i != len(s)-1 {
					spansWhole = false
				}
			}
		}
		if !spansWhole {
			return s
		}
		s = s[1 : len(s)-1]
	}
}

func stripCasts(s string) string {
	return castSuffix.ReplaceAllString(s, "")
}

// splitTopLevel splits s on the first logical connective found at
// parenthesis depth zero, returning the pieces and which connective was
// used. A filter with only one predicate returns a single-element slice
// and an empty connective.
func splitTopLevel(s string) ([]string, string) {
	depth := 0
	upper := strings.ToUpper(s)
	var cutPositions []int
	connective := ""

	i := 0
	for i < len(s) {
		switch s[i] {
		case '(':
			depth++
		case ')':
			depth--
		}
		if depth == 0 {
			if strings.HasPrefix(upper[i:], " AND ") {
				if connective == "" {
					connective = "AND"
				}
				if connective == "AND" {
					cutPositions = append(cutPositions, i)
				}
				i += 5
				continue
			}
			if strings.HasPrefix(upper[i:], " OR ") {
				if connective == "" {
					connective = "OR"
				}
				if connective == "OR" {
					cutPositions = append(cutPositions, i)
				}
				i += 4
				continue
			}
		}
		i++
	}

	if len(cutPositions) == 0 {
		return []string{strings.TrimSpace(s)}, ""
	}

	var parts []string
	prev := 0
	sepLen := 5
	if connective == "OR" {
		sepLen = 4
	}
	for _, pos := range cutPositions {
		parts = append(parts, strings.TrimSpace(s[prev:pos]))
		prev = pos + sepLen
	}
	parts = append(parts, strings.TrimSpace(s[prev:]))
	return parts, connective
}

// leftHandColumn extracts the identifier to the left of the first
// comparison operator in a single predicate, stripping any table
// qualifier ("lineitem.l_comment" → "l_comment") and surrounding parens.
func leftHandColumn(predicate string) string {
	p := stripCasts(stripOuterParens(strings.TrimSpace(predicate)))
	upper := strings.ToUpper(p)

	cut := -1
	for _, op := range comparisonOps {
		if idx := strings.Index(upper, op); idx != -1 {
			if cut == -1 || idx < cut {
				cut = idx
			}
		}
	}
	if cut == -1 {
		cut = len(p)
	}

	lhs := strings.TrimSpace(p[:cut])
	lhs = stripOuterParens(stripCasts(lhs))
	lhs = strings.Trim(lhs, `"`)

	if idx := strings.LastIndex(lhs, "."); idx != -1 {
		lhs = lhs[idx+1:]
	}

	if !identifierPattern.MatchString(lhs) {
		return ""
	}
	return lhs
}

var identifierPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)
