package plan

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/sqlens-agent/pgoptimizer/internal/domain"
)

// Parse converts the raw EXPLAIN (FORMAT JSON) output into a domain.Plan.
// The top level may arrive as a singleton array (the normal `psql` shape)
// or, once unwrapped by a driver, as a bare object — both are accepted
// (spec.md §4.1 "Normalisation"). Grounded on the teacher's
// analyzePostgreSQL (services/query_analyzer.go), which unmarshals into
// []map[string]interface{} and reads planOutput[0].
func Parse(raw json.RawMessage, query string) (*domain.Plan, error) {
	root, ok := unwrapTop(raw)
	if !ok {
		return nil, fmt.Errorf("plan: empty or malformed EXPLAIN output")
	}

	planField, ok := root["Plan"]
	if !ok {
		return nil, fmt.Errorf("plan: no Plan field in EXPLAIN output")
	}
	planMap, ok := planField.(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("plan: Plan field is not an object")
	}

	node := buildNode(planMap)

	p := &domain.Plan{
		Query:    query,
		Root:     node,
		Analyzed: hasActualStats(planMap),
	}
	if node != nil {
		p.TotalCost = node.TotalCost
	}
	if ms, ok := floatField(root, "Planning Time"); ok {
		p.PlanningTime = millisToDuration(ms)
	}
	if ms, ok := floatField(root, "Execution Time"); ok {
		p.ExecutionTime = millisToDuration(ms)
	}
	return p, nil
}

// unwrapTop resolves the singleton-sequence-or-map ambiguity at the top of
// an EXPLAIN JSON document.
func unwrapTop(raw json.RawMessage) (map[string]interface{}, bool) {
	var asArray []map[string]interface{}
	if err := json.Unmarshal(raw, &asArray); err == nil {
		if len(asArray) == 0 {
			return nil, false
		}
		return asArray[0], true
	}

	var asMap map[string]interface{}
	if err := json.Unmarshal(raw, &asMap); err == nil {
		return asMap, true
	}
	return nil, false
}

// buildNode converts one EXPLAIN node and its subtree. Parallel-worker
// variants ("Parallel Seq Scan", ...) take their sequential node type, and a
// Gather/Gather Merge wrapper is replaced by its single child.
func buildNode(m map[string]interface{}) *domain.PlanNode {
	n := &domain.PlanNode{
		NodeType:    strings.TrimPrefix(stringField(m, "Node Type"), "Parallel "),
		Relation:    stringField(m, "Relation Name"),
		Alias:       stringField(m, "Alias"),
		Index:       stringField(m, "Index Name"),
		Filter:      stringField(m, "Filter"),
		IndexCond:   stringField(m, "Index Cond"),
		JoinType:    stringField(m, "Join Type"),
		SortMethod:  stringField(m, "Sort Method"),
		PlanWidth:   intField(m, "Plan Width"),
		ActualLoops: intField(m, "Actual Loops"),
	}
	if n.JoinType == "" {
		n.JoinType = stringField(m, "Parent Relationship")
	}
	n.JoinCond = firstNonEmpty(stringField(m, "Hash Cond"), stringField(m, "Merge Cond"))

	if v, ok := floatField(m, "Startup Cost"); ok {
		n.StartupCost = v
	}
	if v, ok := floatField(m, "Total Cost"); ok {
		n.TotalCost = v
	}
	if v, ok := floatField(m, "Plan Rows"); ok {
		n.PlanRows = int64(v)
	}
	if v, ok := floatField(m, "Actual Rows"); ok {
		n.ActualRows = int64(v)
	}
	if keys, ok := m["Sort Key"].([]interface{}); ok {
		for _, k := range keys {
			if s, ok := k.(string); ok {
				n.SortKeys = append(n.SortKeys, s)
			}
		}
	}

	if children, ok := m["Plans"].([]interface{}); ok {
		for _, c := range children {
			if cm, ok := c.(map[string]interface{}); ok {
				n.Children = append(n.Children, buildNode(cm))
			}
		}
	}

	if (n.NodeType == "Gather" || n.NodeType == "Gather Merge") && len(n.Children) == 1 {
		return n.Children[0]
	}
	return n
}

func hasActualStats(m map[string]interface{}) bool {
	_, ok := m["Actual Rows"]
	return ok
}

func stringField(m map[string]interface{}, key string) string {
	if v, ok := m[key].(string); ok {
		return v
	}
	return ""
}

func intField(m map[string]interface{}, key string) int {
	if v, ok := m[key].(float64); ok {
		return int(v)
	}
	return 0
}

func floatField(m map[string]interface{}, key string) (float64, bool) {
	v, ok := m[key].(float64)
	return v, ok
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

func millisToDuration(ms float64) time.Duration {
	return time.Duration(ms * float64(time.Millisecond))
}
