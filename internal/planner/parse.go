package planner

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/sqlens-agent/pgoptimizer/internal/domain"
)

var fencedJSON = regexp.MustCompile("(?s)```(?:json)?\\s*(\\{.*?\\})\\s*```")
var bareJSON = regexp.MustCompile(`(?s)\{.*\}`)
var kindOnly = regexp.MustCompile(`(?i)"?kind"?\s*[:=]?\s*"?(CreateIndex|RewriteQuery|RunAnalyze|TestIndex|Done|Failed)"?`)

type rawAction struct {
	Kind       string  `json:"kind"`
	DDL        string  `json:"ddl"`
	NewSQL     string  `json:"newSQL"`
	Table      string  `json:"table"`
	ProbeQuery string  `json:"probeQuery"`
	Reason     string  `json:"reason"`
	Rationale  string  `json:"rationale"`
	Confidence float64 `json:"confidence"`
}

// parseResponse implements spec.md §4.3's three-tier parse: a fenced JSON
// block, then a bare JSON object, finally a regex that extracts only the
// action kind. Unparseable responses, and responses missing a field their
// kind requires, become Failed("planning error") (the coercion rule).
func parseResponse(text string) domain.Action {
	if a, ok := tryParse(fencedBlock(text)); ok {
		return coerce(a)
	}
	if a, ok := tryParse(bareBlock(text)); ok {
		return coerce(a)
	}
	if m := kindOnly.FindStringSubmatch(text); m != nil {
		return coerce(rawAction{Kind: m[1]})
	}
	return domain.Action{Kind: domain.ActionFailed, Reason: "planning error"}
}

func fencedBlock(text string) string {
	m := fencedJSON.FindStringSubmatch(text)
	if m == nil {
		return ""
	}
	return m[1]
}

func bareBlock(text string) string {
	return bareJSON.FindString(text)
}

func tryParse(block string) (rawAction, bool) {
	if strings.TrimSpace(block) == "" {
		return rawAction{}, false
	}
	var r rawAction
	if err := json.Unmarshal([]byte(block), &r); err != nil {
		return rawAction{}, false
	}
	return r, true
}

// coerce converts the loosely-typed parse result into a domain.Action,
// falling back to Failed when the kind doesn't carry the field its
// variant requires (spec.md §4.3 "coerced to Failed").
func coerce(r rawAction) domain.Action {
	a := domain.Action{
		Kind:       domain.ActionKind(r.Kind),
		DDL:        r.DDL,
		NewSQL:     r.NewSQL,
		Table:      r.Table,
		ProbeQuery: r.ProbeQuery,
		Reason:     r.Reason,
		Rationale:  r.Rationale,
		Confidence: r.Confidence,
	}
	if !a.Valid() {
		return domain.Action{Kind: domain.ActionFailed, Reason: "planning error"}
	}
	return a
}
