package domain

import "testing"

func TestSolution_AppendIterationKeepsActionsAndIterationsInLockstep(t *testing.T) {
	var s Solution

	s.AppendIteration(Action{Kind: ActionCreateIndex, DDL: "CREATE INDEX idx_a ON t(a)"}, IterationRecord{Ordinal: 1, Outcome: OutcomeImproved})
	s.AppendIteration(Action{Kind: ActionRunAnalyze, Table: "orders"}, IterationRecord{Ordinal: 2, Outcome: OutcomeUnchanged})

	if len(s.Actions) != 2 || len(s.Iterations) != 2 {
		t.Fatalf("expected 2 actions and 2 iterations, got %d/%d", len(s.Actions), len(s.Iterations))
	}
	if s.Actions[0].Kind != ActionCreateIndex || s.Iterations[0].Ordinal != 1 {
		t.Fatalf("unexpected first entry: %+v / %+v", s.Actions[0], s.Iterations[0])
	}
	if s.Actions[1].Kind != ActionRunAnalyze || s.Iterations[1].Ordinal != 2 {
		t.Fatalf("unexpected second entry: %+v / %+v", s.Actions[1], s.Iterations[1])
	}
}
