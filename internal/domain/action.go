package domain

// ActionKind tags the variant carried by an Action (spec.md §3).
type ActionKind string

const (
	ActionCreateIndex  ActionKind = "CreateIndex"
	ActionRewriteQuery ActionKind = "RewriteQuery"
	ActionRunAnalyze   ActionKind = "RunAnalyze"
	ActionTestIndex    ActionKind = "TestIndex"
	ActionDone         ActionKind = "Done"
	ActionFailed       ActionKind = "Failed"
)

// IsTerminal reports whether this kind ends the ReAct loop.
func (k ActionKind) IsTerminal() bool {
	return k == ActionDone || k == ActionFailed
}

// Action is the tagged variant the Planner emits and the Executor
// dispatches on. Only the kind-specific fields of its kind are populated
// (both DDL and ProbeQuery for TestIndex, one field for every other
// kind; spec.md §3 Action invariants).
type Action struct {
	Kind ActionKind `json:"kind"`

	// CreateIndex / TestIndex
	DDL string `json:"ddl,omitempty"`

	// RewriteQuery
	NewSQL string `json:"newSQL,omitempty"`

	// RunAnalyze
	Table string `json:"table,omitempty"`

	// TestIndex
	ProbeQuery string `json:"probeQuery,omitempty"`

	// Done / Failed
	Reason string `json:"reason,omitempty"`

	Rationale  string  `json:"rationale,omitempty"`
	Confidence float64 `json:"confidence"`
}

// Valid reports whether the Action carries the fields its kind requires,
// per spec.md §4.3 "Responses specifying CreateIndex without a ddl field...
// are coerced to Failed."
func (a Action) Valid() bool {
	switch a.Kind {
	case ActionCreateIndex:
		return a.DDL != ""
	case ActionRewriteQuery:
		return a.NewSQL != ""
	case ActionRunAnalyze:
		return a.Table != ""
	case ActionTestIndex:
		return a.DDL != "" && a.ProbeQuery != ""
	case ActionDone, ActionFailed:
		return true
	default:
		return false
	}
}

// Summary compresses an action to the ≤16-token form IterationRecord
// stores (spec.md §3 IterationRecord.Compression).
func (a Action) Summary() string {
	switch a.Kind {
	case ActionCreateIndex:
		return "CreateIndex(" + shortSQL(a.DDL) + ")"
	case ActionRewriteQuery:
		return "RewriteQuery(" + shortSQL(a.NewSQL) + ")"
	case ActionRunAnalyze:
		return "RunAnalyze(" + a.Table + ")"
	case ActionTestIndex:
		return "TestIndex(" + shortSQL(a.DDL) + ")"
	case ActionDone:
		return "Done"
	case ActionFailed:
		return "Failed"
	default:
		return string(a.Kind)
	}
}

// shortSQL truncates a DDL/query string to a stable, short token for
// summaries — full text stays available on the Action itself.
func shortSQL(s string) string {
	const max = 60
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
