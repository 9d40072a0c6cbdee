package domain

// Status is the Semantic Translator's verdict on the current query.
type Status string

const (
	StatusPass    Status = "pass"
	StatusWarning Status = "warning"
	StatusFail    Status = "fail"
	StatusError   Status = "error"
)

// Priority mirrors Bottleneck.Severity but belongs to Feedback/Action, kept
// as a distinct type so a future divergence in scale doesn't ripple.
type Priority string

const (
	PriorityHigh   Priority = "HIGH"
	PriorityMedium Priority = "MEDIUM"
	PriorityLow    Priority = "LOW"
)

// Feedback is produced once per Analyze phase and never persisted across
// iterations (spec.md §3 Feedback lifecycle).
type Feedback struct {
	Status     Status       `json:"status"`
	Reason     string       `json:"reason"`
	Suggestion string       `json:"suggestion"`
	Priority   Priority     `json:"priority"`
	Report     TechReport   `json:"report"`
}

// TechReport is the full technical detail a Feedback carries forward for
// downstream grounding (the Planner prompt, the harness result record).
type TechReport struct {
	Bottlenecks   []Bottleneck `json:"bottlenecks"`
	TotalCost     float64      `json:"totalCost"`
	ExecutionMs   float64      `json:"executionMs,omitempty"`
	PlanningMs    float64      `json:"planningMs,omitempty"`
	ExplainFailed bool         `json:"explainFailed,omitempty"`
	ExplainError  string       `json:"explainError,omitempty"`
}
