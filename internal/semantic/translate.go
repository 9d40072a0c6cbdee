// Package semantic converts a Bottleneck list plus cost/time constraints
// into the Feedback the Planner consumes (spec.md §4.2). Grounded on the
// teacher's query_optimizer.go scoring/suggestion shape (severity → score
// deduction, suggestion-from-pattern), generalized from its regex-pattern
// list to the Plan Analyzer's Bottleneck list.
package semantic

import (
	"fmt"

	"github.com/sqlens-agent/pgoptimizer/internal/domain"
)

// Constraints are the budget the Translator checks the report against.
type Constraints struct {
	MaxCost float64
}

// Mode selects whether Translate calls out to an LLM for the reason
// sentence or stays fully deterministic (spec.md §4.2 "Mode switch").
// Both modes return the same Feedback schema.
type Mode int

const (
	ModeDeterministic Mode = iota
	ModeLLM
)

// Translator applies the status rule and synthesizes the Feedback. Its
// LLM mode is reserved for future use (a richer "reason" sentence); the
// status/suggestion/priority fields are always computed deterministically
// so the hallucination guard in spec.md §4.1 holds regardless of mode.
type Translator struct {
	mode Mode
}

func New(mode Mode) *Translator {
	return &Translator{mode: mode}
}

// Translate implements the status rule, reason sentence, and
// suggestion-passthrough of spec.md §4.2. report.ExplainFailed/ExplainError handle
// the status=error reservation for EXPLAIN failures.
func (t *Translator) Translate(bottlenecks []domain.Bottleneck, report domain.TechReport, c Constraints) domain.Feedback {
	if report.ExplainFailed {
		return domain.Feedback{
			Status:     domain.StatusError,
			Reason:     report.ExplainError,
			Suggestion: "no action",
			Priority:   domain.PriorityHigh,
			Report:     report,
		}
	}

	status, priority := classify(bottlenecks, report.TotalCost, c.MaxCost)

	most := domain.MostSevere(bottlenecks)
	reason := reasonSentence(most, report.TotalCost, c.MaxCost)
	suggestion := "no action"
	if most != nil {
		suggestion = most.Suggestion
	}

	return domain.Feedback{
		Status:     status,
		Reason:     reason,
		Suggestion: suggestion,
		Priority:   priority,
		Report:     report,
	}
}

// classify applies spec.md §4.2's status rule exactly:
//   fail    iff total cost > max-cost, or any HIGH-severity bottleneck
//   warning iff only MEDIUM/LOW bottlenecks exist
//   pass    iff the bottleneck list is empty and total cost <= max-cost
func classify(bottlenecks []domain.Bottleneck, totalCost, maxCost float64) (domain.Status, domain.Priority) {
	overBudget := maxCost > 0 && totalCost > maxCost
	hasHigh := false
	hasAny := len(bottlenecks) > 0
	for _, b := range bottlenecks {
		if b.Severity == domain.SeverityHigh {
			hasHigh = true
			break
		}
	}

	switch {
	case overBudget || hasHigh:
		return domain.StatusFail, domain.PriorityHigh
	case hasAny:
		return domain.StatusWarning, domain.PriorityMedium
	default:
		return domain.StatusPass, domain.PriorityLow
	}
}

func reasonSentence(most *domain.Bottleneck, totalCost, maxCost float64) string {
	if most == nil {
		if maxCost > 0 && totalCost <= maxCost {
			return fmt.Sprintf("plan cost %.1f is within the %.1f budget and no bottlenecks were found", totalCost, maxCost)
		}
		return "no bottlenecks were found"
	}

	gap := ""
	if maxCost > 0 {
		gap = fmt.Sprintf(", %.1f over the %.1f cost budget", totalCost-maxCost, maxCost)
	}
	return fmt.Sprintf("%s: %s%s", most.Kind, most.Reason, gap)
}
