// Package memory is the Agent Controller's iteration history: a plain,
// non-cyclic list bounded at H records (spec.md §3 IterationRecord,
// §9 "Stateful memory without shared objects"). No teacher analogue；
// sized the way services/job_queue.go bounds its own in-memory job
// history.
package memory

import "github.com/sqlens-agent/pgoptimizer/internal/domain"

// Memory holds at most depth records; appending past depth discards the
// oldest entry first (spec.md §4.5 "Budgets... older records are
// discarded").
type Memory struct {
	depth   int
	records []domain.IterationRecord
}

func New(depth int) *Memory {
	if depth < 1 {
		depth = 1
	}
	return &Memory{depth: depth}
}

// Append records one completed iteration, evicting the oldest entry if
// the bound is already reached.
func (m *Memory) Append(rec domain.IterationRecord) {
	m.records = append(m.records, rec)
	if len(m.records) > m.depth {
		m.records = m.records[len(m.records)-m.depth:]
	}
}

// Recent returns up to the last H records, in chronological order — the
// only view the Planner prompt is ever built from (spec.md §8.1 "Memory
// bound").
func (m *Memory) Recent() []domain.IterationRecord {
	out := make([]domain.IterationRecord, len(m.records))
	copy(out, m.records)
	return out
}

// Last returns the most recent record and true, or the zero value and
// false if Memory is empty.
func (m *Memory) Last() (domain.IterationRecord, bool) {
	if len(m.records) == 0 {
		return domain.IterationRecord{}, false
	}
	return m.records[len(m.records)-1], true
}

// HasOutcome reports whether any retained record for the given action
// summary carries outcome, used by the Planner's learning directive "do
// not repeat an action recorded as regressed or unchanged" — applied here
// defensively in case the Agent Controller wants to short-circuit before
// even asking the Planner.
func (m *Memory) HasOutcome(summary string, outcome domain.Outcome) bool {
	for _, r := range m.records {
		if r.Summary == summary && r.Outcome == outcome {
			return true
		}
	}
	return false
}
