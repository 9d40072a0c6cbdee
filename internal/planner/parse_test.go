package planner

import (
	"testing"

	"github.com/sqlens-agent/pgoptimizer/internal/domain"
)

func TestParseResponse_FencedJSONBlock(t *testing.T) {
	text := "Here is my plan:\n```json\n{\"kind\": \"CreateIndex\", \"ddl\": \"CREATE INDEX idx_a ON t(a)\", \"rationale\": \"seq scan\"}\n```\nLet me know."

	a := parseResponse(text)
	if a.Kind != domain.ActionCreateIndex {
		t.Fatalf("expected CreateIndex, got %v", a.Kind)
	}
	if a.DDL != "CREATE INDEX idx_a ON t(a)" {
		t.Fatalf("expected ddl to carry through, got %q", a.DDL)
	}
}

func TestParseResponse_BareJSONObject(t *testing.T) {
	text := `{"kind": "RunAnalyze", "table": "orders"}`

	a := parseResponse(text)
	if a.Kind != domain.ActionRunAnalyze || a.Table != "orders" {
		t.Fatalf("expected RunAnalyze(orders), got %+v", a)
	}
}

func TestParseResponse_KindOnlyRegexFallback(t *testing.T) {
	text := "I think the right move is kind: Done since the query is already fast."

	a := parseResponse(text)
	if a.Kind != domain.ActionDone {
		t.Fatalf("expected Done, got %v", a)
	}
}

func TestParseResponse_UnparseableTextBecomesFailed(t *testing.T) {
	a := parseResponse("I am not sure what to do here.")
	if a.Kind != domain.ActionFailed {
		t.Fatalf("expected Failed, got %v", a.Kind)
	}
	if a.Reason != "planning error" {
		t.Fatalf("expected planning error reason, got %q", a.Reason)
	}
}

func TestParseResponse_MissingRequiredFieldCoercesToFailed(t *testing.T) {
	text := `{"kind": "CreateIndex", "rationale": "no ddl given"}`

	a := parseResponse(text)
	if a.Kind != domain.ActionFailed {
		t.Fatalf("expected CreateIndex without ddl to coerce to Failed, got %v", a.Kind)
	}
}

func TestParseResponse_TerminalKindsNeverNeedFields(t *testing.T) {
	a := parseResponse(`{"kind": "Failed", "reason": "cannot improve further"}`)
	if a.Kind != domain.ActionFailed || a.Reason != "cannot improve further" {
		t.Fatalf("expected Failed with its reason preserved, got %+v", a)
	}
}

func TestParseResponse_FencedBlockTakesPriorityOverBareText(t *testing.T) {
	text := "stray { not json\n```json\n{\"kind\": \"Done\"}\n```"

	a := parseResponse(text)
	if a.Kind != domain.ActionDone {
		t.Fatalf("expected the fenced block to be preferred, got %v", a.Kind)
	}
}
