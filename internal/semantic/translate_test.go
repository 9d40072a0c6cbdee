package semantic

import (
	"testing"

	"github.com/sqlens-agent/pgoptimizer/internal/domain"
)

func TestTranslate_ExplainFailureIsAlwaysError(t *testing.T) {
	tr := New(ModeDeterministic)
	report := domain.TechReport{ExplainFailed: true, ExplainError: "relation \"bogus\" does not exist"}

	f := tr.Translate(nil, report, Constraints{MaxCost: 1000})

	if f.Status != domain.StatusError {
		t.Fatalf("expected StatusError, got %v", f.Status)
	}
	if f.Priority != domain.PriorityHigh {
		t.Fatalf("expected PriorityHigh, got %v", f.Priority)
	}
	if f.Reason != report.ExplainError {
		t.Fatalf("expected reason to carry the EXPLAIN error, got %q", f.Reason)
	}
	if f.Suggestion != "no action" {
		t.Fatalf("expected no-action suggestion, got %q", f.Suggestion)
	}
}

func TestTranslate_PassWhenNoBottlenecksAndWithinBudget(t *testing.T) {
	tr := New(ModeDeterministic)
	report := domain.TechReport{TotalCost: 100}

	f := tr.Translate(nil, report, Constraints{MaxCost: 1000})

	if f.Status != domain.StatusPass {
		t.Fatalf("expected StatusPass, got %v", f.Status)
	}
	if f.Priority != domain.PriorityLow {
		t.Fatalf("expected PriorityLow, got %v", f.Priority)
	}
	if f.Suggestion != "no action" {
		t.Fatalf("expected no-action suggestion, got %q", f.Suggestion)
	}
}

func TestTranslate_WarningOnMediumOrLowBottlenecksWithinBudget(t *testing.T) {
	tr := New(ModeDeterministic)
	bottlenecks := []domain.Bottleneck{
		{Severity: domain.SeverityMedium, Kind: domain.KindHighCostNode, Reason: "high cost node", Suggestion: "RUN_ANALYZE orders"},
	}
	report := domain.TechReport{TotalCost: 100, Bottlenecks: bottlenecks}

	f := tr.Translate(bottlenecks, report, Constraints{MaxCost: 1000})

	if f.Status != domain.StatusWarning {
		t.Fatalf("expected StatusWarning, got %v", f.Status)
	}
	if f.Priority != domain.PriorityMedium {
		t.Fatalf("expected PriorityMedium, got %v", f.Priority)
	}
	if f.Suggestion != "RUN_ANALYZE orders" {
		t.Fatalf("expected the bottleneck's own suggestion to pass through, got %q", f.Suggestion)
	}
}

func TestTranslate_FailOnHighSeverityBottleneckRegardlessOfCost(t *testing.T) {
	tr := New(ModeDeterministic)
	bottlenecks := []domain.Bottleneck{
		{Severity: domain.SeverityHigh, Kind: domain.KindSeqScanLargeTable, Reason: "seq scan", Suggestion: "CREATE INDEX idx_a ON t(a)"},
	}
	report := domain.TechReport{TotalCost: 1, Bottlenecks: bottlenecks}

	f := tr.Translate(bottlenecks, report, Constraints{MaxCost: 1000})

	if f.Status != domain.StatusFail {
		t.Fatalf("expected StatusFail, got %v", f.Status)
	}
	if f.Priority != domain.PriorityHigh {
		t.Fatalf("expected PriorityHigh, got %v", f.Priority)
	}
}

func TestTranslate_FailWhenOverCostBudgetEvenWithNoBottlenecks(t *testing.T) {
	tr := New(ModeDeterministic)
	report := domain.TechReport{TotalCost: 5000}

	f := tr.Translate(nil, report, Constraints{MaxCost: 1000})

	if f.Status != domain.StatusFail {
		t.Fatalf("expected StatusFail, got %v", f.Status)
	}
}

func TestTranslate_UnboundedBudgetNeverTriggersOverBudget(t *testing.T) {
	tr := New(ModeDeterministic)
	report := domain.TechReport{TotalCost: 999999}

	f := tr.Translate(nil, report, Constraints{MaxCost: 0})

	if f.Status != domain.StatusPass {
		t.Fatalf("expected StatusPass when no cost budget is configured, got %v", f.Status)
	}
}

func TestTranslate_MostSevereBreaksTiesByEarlierEntry(t *testing.T) {
	tr := New(ModeDeterministic)
	bottlenecks := []domain.Bottleneck{
		{Severity: domain.SeverityHigh, Kind: domain.KindSeqScanLargeTable, Reason: "first", Suggestion: "CREATE INDEX idx_a ON t(a)"},
		{Severity: domain.SeverityHigh, Kind: domain.KindNestedLoopLarge, Reason: "second", Suggestion: "CREATE INDEX idx_b ON t(b)"},
	}
	report := domain.TechReport{TotalCost: 1, Bottlenecks: bottlenecks}

	f := tr.Translate(bottlenecks, report, Constraints{})

	if f.Suggestion != "CREATE INDEX idx_a ON t(a)" {
		t.Fatalf("expected the first HIGH severity entry's suggestion, got %q", f.Suggestion)
	}
}
