package domain

// Solution is the harness's per-task outcome record: the query the agent
// started from, what it ended with, and the trail of actions that got it
// there (spec.md §3 Solution, §7 result schema).
type Solution struct {
	InstanceID   string            `json:"instanceId"`
	Category     Category          `json:"category"`
	InitialQuery string            `json:"initialQuery"`
	FinalQuery   string            `json:"finalQuery"`
	Success      bool              `json:"success"`
	Reason       string            `json:"reason"`
	Actions      []Action          `json:"actions"`
	Iterations   []IterationRecord `json:"iterations"`
	Metric       string            `json:"metric,omitempty"`
	Score        float64           `json:"score,omitempty"`
	ElapsedMs    int64             `json:"elapsedMs"`
	Error        string            `json:"error,omitempty"`
}

// AppendIteration records one completed loop turn, keeping Actions and
// Iterations in lockstep.
func (s *Solution) AppendIteration(a Action, rec IterationRecord) {
	s.Actions = append(s.Actions, a)
	s.Iterations = append(s.Iterations, rec)
}
