package domain

import "fmt"

// Outcome classifies the effect of an iteration's action (spec.md §3, §4.5
// step 5: < −5% improved, > +5% regressed, otherwise unchanged).
type Outcome string

const (
	OutcomeImproved  Outcome = "improved"
	OutcomeRegressed Outcome = "regressed"
	OutcomeUnchanged Outcome = "unchanged"
	OutcomeError     Outcome = "error"
)

// IterationRecord is one compressed entry of the agent's iteration memory.
type IterationRecord struct {
	Ordinal    int     `json:"ordinal"`
	ActionKind ActionKind `json:"actionKind"`
	Summary    string  `json:"summary"`
	CostBefore float64 `json:"costBefore"`
	CostAfter  float64 `json:"costAfter"`
	DeltaPct   float64 `json:"deltaPct"`
	Outcome    Outcome `json:"outcome"`
	Insight    string  `json:"insight,omitempty"`
}

// Line renders the record the way it is injected into planner prompts:
// "Iter n: <summary> → Δ%, outcome[, insight]".
func (r IterationRecord) Line() string {
	line := fmt.Sprintf("Iter %d: %s → %+.1f%%, %s", r.Ordinal, r.Summary, r.DeltaPct, r.Outcome)
	if r.Insight != "" {
		line += ", " + r.Insight
	}
	return line
}
