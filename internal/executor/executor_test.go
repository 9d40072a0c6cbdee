package executor

import (
	"context"
	"testing"

	"github.com/sqlens-agent/pgoptimizer/internal/domain"
)

func TestExecute_RewriteQuerySplitsOnSemicolons(t *testing.T) {
	e := &Executor{}
	action := domain.Action{Kind: domain.ActionRewriteQuery, NewSQL: "SELECT 1; SELECT 2 "}

	result := e.Execute(context.Background(), action, []string{"SELECT 0"})

	if result.Err != nil {
		t.Fatalf("unexpected error: %v", result.Err)
	}
	want := []string{"SELECT 1", "SELECT 2"}
	if len(result.QuerySet) != len(want) {
		t.Fatalf("expected %v, got %v", want, result.QuerySet)
	}
	for i := range want {
		if result.QuerySet[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, result.QuerySet)
		}
	}
}

func TestExecute_RewriteQueryEmptyProducesError(t *testing.T) {
	e := &Executor{}
	action := domain.Action{Kind: domain.ActionRewriteQuery, NewSQL: "   ;  ; "}

	result := e.Execute(context.Background(), action, []string{"SELECT 0"})

	if result.Err == nil {
		t.Fatal("expected an error for a rewrite that produces no statements")
	}
	if len(result.QuerySet) != 1 || result.QuerySet[0] != "SELECT 0" {
		t.Fatalf("expected the original query set preserved on error, got %v", result.QuerySet)
	}
}

func TestExecute_DoneAndFailedArePassthroughs(t *testing.T) {
	e := &Executor{}
	original := []string{"SELECT 1"}

	for _, kind := range []domain.ActionKind{domain.ActionDone, domain.ActionFailed} {
		result := e.Execute(context.Background(), domain.Action{Kind: kind}, original)
		if result.Err != nil {
			t.Fatalf("expected no error for %v, got %v", kind, result.Err)
		}
		if len(result.QuerySet) != 1 || result.QuerySet[0] != "SELECT 1" {
			t.Fatalf("expected the query set to pass through unchanged for %v, got %v", kind, result.QuerySet)
		}
	}
}

func TestExecute_UnknownKindIsAnError(t *testing.T) {
	e := &Executor{}
	result := e.Execute(context.Background(), domain.Action{Kind: domain.ActionKind("Bogus")}, []string{"SELECT 1"})

	if result.Err == nil {
		t.Fatal("expected an error for an unrecognized action kind")
	}
}

func TestSplitStatements(t *testing.T) {
	cases := []struct {
		in   string
		want []string
	}{
		{"SELECT 1", []string{"SELECT 1"}},
		{"SELECT 1; SELECT 2", []string{"SELECT 1", "SELECT 2"}},
		{"  ; SELECT 1;  ;", []string{"SELECT 1"}},
		{"", nil},
	}
	for _, c := range cases {
		got := splitStatements(c.in)
		if len(got) != len(c.want) {
			t.Fatalf("splitStatements(%q) = %v, want %v", c.in, got, c.want)
		}
		for i := range c.want {
			if got[i] != c.want[i] {
				t.Fatalf("splitStatements(%q) = %v, want %v", c.in, got, c.want)
			}
		}
	}
}
