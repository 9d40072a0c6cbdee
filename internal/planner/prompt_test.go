package planner

import (
	"strings"
	"testing"

	"github.com/sqlens-agent/pgoptimizer/internal/domain"
)

func TestCategoryRules_ManagementMultiStatement(t *testing.T) {
	rules := categoryRules(Input{Category: domain.CategoryManagement, MultiStatement: true})
	if !strings.Contains(rules, "single RewriteQuery") {
		t.Fatalf("expected the Management multi-statement rule, got %q", rules)
	}
}

func TestCategoryRules_Efficiency(t *testing.T) {
	rules := categoryRules(Input{Category: domain.CategoryEfficiency})
	if !strings.Contains(rules, "prefer CreateIndex or RunAnalyze") {
		t.Fatalf("expected the Efficiency rule, got %q", rules)
	}
}

func TestCategoryRules_SyntaxError(t *testing.T) {
	rules := categoryRules(Input{SyntaxError: true})
	if !strings.Contains(rules, "syntax error") {
		t.Fatalf("expected the syntax-error rule, got %q", rules)
	}
}

func TestCategoryRules_HypoIndexUnavailable(t *testing.T) {
	rules := categoryRules(Input{HypoIndexAvailable: false})
	if !strings.Contains(rules, "do not emit TestIndex") {
		t.Fatalf("expected the hypothetical-index-unavailable rule, got %q", rules)
	}
}

func TestCategoryRules_UpdateReturningWithJoinRecommendsCTE(t *testing.T) {
	sql := `UPDATE orders SET status = 'shipped' FROM customers WHERE orders.customer_id = customers.id RETURNING orders.id, customers.name`
	rules := categoryRules(Input{CurrentSQL: []string{sql}})
	if !strings.Contains(rules, "common-table-expression") {
		t.Fatalf("expected the UPDATE...RETURNING-with-join CTE guidance, got %q", rules)
	}
}

func TestCategoryRules_PlainUpdateReturningHasNoJoinGuidance(t *testing.T) {
	sql := `UPDATE orders SET status = 'shipped' WHERE id = 1 RETURNING id`
	rules := categoryRules(Input{CurrentSQL: []string{sql}})
	if strings.Contains(rules, "common-table-expression") {
		t.Fatalf("did not expect CTE guidance for a joinless UPDATE...RETURNING, got %q", rules)
	}
}

func TestUpdateReturningWithJoin(t *testing.T) {
	cases := []struct {
		name  string
		stmts []string
		want  bool
	}{
		{"update returning with from-join", []string{"update t set a=1 from u where t.id=u.id returning t.a"}, true},
		{"plain update returning", []string{"UPDATE t SET a=1 WHERE id=1 RETURNING a"}, false},
		{"select only", []string{"SELECT * FROM t"}, false},
		{"empty", nil, false},
	}
	for _, c := range cases {
		if got := updateReturningWithJoin(c.stmts); got != c.want {
			t.Errorf("%s: updateReturningWithJoin() = %v, want %v", c.name, got, c.want)
		}
	}
}

func TestBuildPrompt_IncludesUpdateReturningJoinGuidanceWhenApplicable(t *testing.T) {
	in := Input{
		Intent:     "fix this update",
		CurrentSQL: []string{"UPDATE orders SET total = 1 FROM customers WHERE orders.customer_id = customers.id RETURNING customers.name"},
	}
	prompt := buildPrompt(in)
	if !strings.Contains(prompt, "common-table-expression") {
		t.Fatal("expected buildPrompt to surface the CTE rewrite guidance")
	}
}
