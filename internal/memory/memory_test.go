package memory

import (
	"testing"

	"github.com/sqlens-agent/pgoptimizer/internal/domain"
)

func TestMemory_AppendAndRecent(t *testing.T) {
	m := New(3)
	m.Append(domain.IterationRecord{Ordinal: 1})
	m.Append(domain.IterationRecord{Ordinal: 2})

	recent := m.Recent()
	if len(recent) != 2 || recent[0].Ordinal != 1 || recent[1].Ordinal != 2 {
		t.Fatalf("expected [1 2] in chronological order, got %+v", recent)
	}
}

func TestMemory_AppendEvictsOldestPastDepth(t *testing.T) {
	m := New(2)
	m.Append(domain.IterationRecord{Ordinal: 1})
	m.Append(domain.IterationRecord{Ordinal: 2})
	m.Append(domain.IterationRecord{Ordinal: 3})

	recent := m.Recent()
	if len(recent) != 2 || recent[0].Ordinal != 2 || recent[1].Ordinal != 3 {
		t.Fatalf("expected the oldest record evicted, got %+v", recent)
	}
}

func TestMemory_DepthFloorsAtOne(t *testing.T) {
	m := New(0)
	m.Append(domain.IterationRecord{Ordinal: 1})
	m.Append(domain.IterationRecord{Ordinal: 2})

	recent := m.Recent()
	if len(recent) != 1 || recent[0].Ordinal != 2 {
		t.Fatalf("expected depth to floor at 1, got %+v", recent)
	}
}

func TestMemory_RecentReturnsACopy(t *testing.T) {
	m := New(2)
	m.Append(domain.IterationRecord{Ordinal: 1})

	recent := m.Recent()
	recent[0].Ordinal = 999

	if got := m.Recent()[0].Ordinal; got != 1 {
		t.Fatalf("expected Recent to be insulated from mutation of its returned slice, got %d", got)
	}
}

func TestMemory_Last(t *testing.T) {
	m := New(2)
	if _, ok := m.Last(); ok {
		t.Fatal("expected Last to report false on an empty Memory")
	}

	m.Append(domain.IterationRecord{Ordinal: 1})
	m.Append(domain.IterationRecord{Ordinal: 2})

	last, ok := m.Last()
	if !ok || last.Ordinal != 2 {
		t.Fatalf("expected the most recent record, got %+v ok=%v", last, ok)
	}
}

func TestMemory_HasOutcome(t *testing.T) {
	m := New(3)
	m.Append(domain.IterationRecord{Summary: "CreateIndex(x)", Outcome: domain.OutcomeRegressed})

	if !m.HasOutcome("CreateIndex(x)", domain.OutcomeRegressed) {
		t.Fatal("expected HasOutcome to find the matching record")
	}
	if m.HasOutcome("CreateIndex(x)", domain.OutcomeImproved) {
		t.Fatal("expected HasOutcome to reject a non-matching outcome")
	}
	if m.HasOutcome("RunAnalyze(y)", domain.OutcomeRegressed) {
		t.Fatal("expected HasOutcome to reject a non-matching summary")
	}
}
