// Package planner builds the Planner's prompt, throttles and calls the
// LLM boundary (internal/llmclient), and parses the response into an
// Action (spec.md §4.3). Grounded on the teacher's ai_service.go
// orchestration shape and token_counter.go's budget estimation,
// throttled with middleware/ratelimit/limiter.go's token-bucket pattern.
package planner

import (
	"fmt"
	"strings"

	"github.com/sqlens-agent/pgoptimizer/internal/domain"
)

// Input is everything the Planner needs to build one prompt (spec.md
// §4.3 "Input").
type Input struct {
	Intent        string
	CurrentSQL    []string
	Feedback      domain.Feedback
	Memory        []domain.IterationRecord
	Schema        *domain.Schema
	Category      domain.Category
	MaxIterations int
	Iteration     int

	HypoIndexAvailable bool
	SyntaxError        bool // EXPLAIN failed with a syntax error this iteration
	MultiStatement     bool // buggy SQL list has length > 1
}

// buildPrompt assembles the single structured message spec.md §4.3
// describes: intent, current SQL, feedback, compressed memory, schema,
// action grammar + category rules, and the single-JSON-object instruction.
func buildPrompt(in Input) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Intent: %s\n\n", in.Intent)

	fmt.Fprintf(&b, "Current SQL:\n")
	for i, stmt := range in.CurrentSQL {
		fmt.Fprintf(&b, "  [%d] %s\n", i+1, stmt)
	}
	b.WriteString("\n")

	fmt.Fprintf(&b, "Feedback: status=%s priority=%s\n", in.Feedback.Status, in.Feedback.Priority)
	fmt.Fprintf(&b, "Reason: %s\n", in.Feedback.Reason)
	fmt.Fprintf(&b, "Suggestion: %s\n\n", in.Feedback.Suggestion)

	if len(in.Memory) > 0 {
		b.WriteString("Recent iterations:\n")
		for _, rec := range in.Memory {
			b.WriteString("  " + rec.Line() + "\n")
		}
		b.WriteString("\n")
	}

	if in.Schema != nil {
		b.WriteString("Schema:\n")
		b.WriteString(renderSchema(in.Schema))
		b.WriteString("\n")
	}

	b.WriteString(actionGrammar())
	b.WriteString(categoryRules(in))
	b.WriteString(learningDirectives())

	b.WriteString("\nRespond with a single JSON object and nothing else.\n")
	return b.String()
}

func renderSchema(s *domain.Schema) string {
	var b strings.Builder
	for name, t := range s.Tables {
		fmt.Fprintf(&b, "  %s (~%d rows)\n", name, t.EstimatedRows)
		for _, c := range t.Columns {
			fmt.Fprintf(&b, "    %s %s%s\n", c.Name, c.Type, nullableSuffix(c.Nullable))
		}
		for _, idx := range t.Indexes {
			fmt.Fprintf(&b, "    index %s(%s)\n", idx.Name, strings.Join(idx.Columns, ","))
		}
		for _, fk := range t.ForeignKeys {
			fmt.Fprintf(&b, "    fk %s -> %s(%s)\n", fk.Column, fk.RefTable, fk.RefColumn)
		}
	}
	return b.String()
}

func nullableSuffix(nullable bool) string {
	if nullable {
		return ""
	}
	return " not null"
}

func actionGrammar() string {
	return `Action grammar (emit exactly one):
  {"kind":"CreateIndex","ddl":"...","rationale":"...","confidence":0.0-1.0}
  {"kind":"RewriteQuery","newSQL":"...","rationale":"...","confidence":0.0-1.0}
  {"kind":"RunAnalyze","table":"...","rationale":"...","confidence":0.0-1.0}
  {"kind":"TestIndex","ddl":"...","probeQuery":"...","rationale":"...","confidence":0.0-1.0}
  {"kind":"Done","reason":"...","confidence":0.0-1.0}
  {"kind":"Failed","reason":"...","confidence":0.0-1.0}
`
}

func categoryRules(in Input) string {
	var b strings.Builder
	switch in.Category {
	case domain.CategoryManagement:
		if in.MultiStatement {
			b.WriteString("This is a Management task with multiple statements: you may emit a single RewriteQuery containing the full statement sequence; it will be applied in order.\n")
		}
	case domain.CategoryEfficiency:
		b.WriteString("This is an Efficiency task: prefer CreateIndex or RunAnalyze over a query rewrite.\n")
	}
	if in.SyntaxError {
		b.WriteString("The previous EXPLAIN failed with a syntax error: you must propose a RewriteQuery that fixes the syntax. DDL is forbidden until the syntax is valid.\n")
	}
	if !in.HypoIndexAvailable {
		b.WriteString("The hypothetical-index facility is unavailable on this database: do not emit TestIndex.\n")
	}
	if updateReturningWithJoin(in.CurrentSQL) {
		b.WriteString("PostgreSQL cannot RETURNING columns from a joined relation in an UPDATE statement: rewrite using a common-table-expression that performs the UPDATE and RETURNING the base table's columns, then SELECT from that CTE joined to the other relation for any additional columns.\n")
	}
	return b.String()
}

// updateReturningWithJoin reports whether any statement is an UPDATE ...
// RETURNING that also references another relation via a FROM clause
// (PostgreSQL's join-in-UPDATE shape), which RETURNING cannot pull
// columns from directly (spec.md §4.3, §8.6 scenario 6).
func updateReturningWithJoin(stmts []string) bool {
	for _, stmt := range stmts {
		u := strings.ToUpper(stmt)
		if strings.Contains(u, "UPDATE") && strings.Contains(u, "RETURNING") && strings.Contains(u, "FROM") {
			return true
		}
	}
	return false
}

func learningDirectives() string {
	return `Do not repeat an action recorded as "regressed" or "unchanged" in the iteration history.
If an index was created but a later Feedback still shows the same scan, try RunAnalyze before trying another index.
Emit Done when Feedback.status is pass or no further improvement is plausible.
Emit Failed when no productive action remains.
`
}
