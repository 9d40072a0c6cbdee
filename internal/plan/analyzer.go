// Package plan is the deterministic rule engine that turns a parsed
// EXPLAIN tree into an ordered Bottleneck list (spec.md §4.1). Grounded on
// the teacher's analyzePostgreSQLPlan (services/query_analyzer.go) for the
// PostgreSQL field mapping and recursion shape, and on
// Chahine-tech-sqlens's pkg/plan.FindBottlenecks for the post-order,
// rule-per-node style.
package plan

import (
	"github.com/sqlens-agent/pgoptimizer/internal/domain"
)

// Thresholds are the tunable knobs every detection rule reads (spec.md
// §4.1, §9 "exact severity threshold... was selected empirically").
type Thresholds struct {
	LargeTableRows     int64
	HighCostFraction   float64
	EstimateErrorRatio float64
	WorkMemBudgetBytes int64
}

// Analyzer applies the six detection rules in a single post-order
// traversal. It never panics: a malformed tree yields an empty bottleneck
// list (spec.md §4.1 "Failure modes").
type Analyzer struct {
	th Thresholds
}

func New(th Thresholds) *Analyzer {
	return &Analyzer{th: th}
}

// Analyze walks root and returns every bottleneck found, in the order the
// post-order traversal visits nodes. Given the same tree it always
// returns a byte-identical list (spec.md §8.1 "Analyzer purity").
func (a *Analyzer) Analyze(root *domain.PlanNode) (bottlenecks []domain.Bottleneck) {
	defer func() {
		if recover() != nil {
			bottlenecks = nil
		}
	}()
	if root == nil {
		return nil
	}
	rootCost := root.TotalCost
	var out []domain.Bottleneck
	a.walk(root, root, rootCost, &out)
	return out
}

func (a *Analyzer) walk(n, root *domain.PlanNode, rootCost float64, out *[]domain.Bottleneck) {
	if n == nil {
		return
	}
	for _, c := range n.Children {
		a.walk(c, root, rootCost, out)
	}
	a.applyRules(n, n == root, rootCost, out)
}

func (a *Analyzer) applyRules(n *domain.PlanNode, isRoot bool, rootCost float64, out *[]domain.Bottleneck) {
	a.seqScanLargeTable(n, out)
	a.highCostNode(n, isRoot, rootCost, out)
	a.estimateError(n, out)
	a.nestedLoopLarge(n, out)
	a.externalSort(n, out)
	a.missingJoinIndex(n, out)
}

func (a *Analyzer) seqScanLargeTable(n *domain.PlanNode, out *[]domain.Bottleneck) {
	if n.NodeType != "Seq Scan" || !n.IsLeaf() {
		return
	}
	rows := n.PlanRows
	if n.ActualRows > rows {
		rows = n.ActualRows
	}
	if rows < a.th.LargeTableRows {
		return
	}

	cols, connective := ExtractColumns(n.Filter)
	suggestion := Synthesize(n.Relation, cols, connective)

	*out = append(*out, domain.Bottleneck{
		Severity:   domain.SeverityHigh,
		Kind:       domain.KindSeqScanLargeTable,
		Relation:   n.Relation,
		Columns:    cols,
		Reason:     sprintfRows("sequential scan on %s touches %d rows with no supporting index", n.Relation, rows),
		Suggestion: suggestion,
	})
}

func (a *Analyzer) highCostNode(n *domain.PlanNode, isRoot bool, rootCost float64, out *[]domain.Bottleneck) {
	if isRoot {
		// The root always satisfies cost >= fraction*rootCost trivially;
		// it isn't a node worth flagging against itself.
		return
	}
	if rootCost <= 0 || n.TotalCost < a.th.HighCostFraction*rootCost {
		return
	}

	relation := n.Relation
	if relation == "" {
		relation = firstRelation(n)
	}
	if relation == "" {
		return
	}

	*out = append(*out, domain.Bottleneck{
		Severity:   domain.SeverityMedium,
		Kind:       domain.KindHighCostNode,
		Relation:   relation,
		Reason:     sprintfCost("%s costs %.1f, at least %.0f%% of the total plan cost %.1f", n.NodeType, n.TotalCost, a.th.HighCostFraction*100, rootCost),
		Suggestion: RunAnalyze(relation),
	})
}

func (a *Analyzer) estimateError(n *domain.PlanNode, out *[]domain.Bottleneck) {
	ratio := n.EstimateErrorRatio()
	if ratio <= a.th.EstimateErrorRatio {
		return
	}
	relation := n.Relation
	if relation == "" {
		relation = firstRelation(n)
	}
	if relation == "" {
		return
	}

	*out = append(*out, domain.Bottleneck{
		Severity:   domain.SeverityLow,
		Kind:       domain.KindEstimateError,
		Relation:   relation,
		Reason:     sprintfRatio("planner estimate for %s is off by %.1fx (estimated %d, actual %d rows)", relation, ratio, n.PlanRows, n.ActualRows),
		Suggestion: RunAnalyze(relation),
	})
}

func (a *Analyzer) nestedLoopLarge(n *domain.PlanNode, out *[]domain.Bottleneck) {
	if n.NodeType != "Nested Loop" || len(n.Children) < 2 {
		return
	}
	inner := n.Children[1]
	rows := inner.ActualRows
	if rows == 0 {
		rows = inner.PlanRows
	}
	if rows < a.th.LargeTableRows {
		return
	}

	table := inner.Relation
	if table == "" {
		table = firstRelation(inner)
	}
	if table == "" {
		return
	}

	col := joinColumnFor(n, inner, table)
	var suggestion string
	if col != "" {
		suggestion = SingleColumnIndex(table, col)
	} else {
		suggestion = RunAnalyze(table)
	}

	*out = append(*out, domain.Bottleneck{
		Severity:   domain.SeverityHigh,
		Kind:       domain.KindNestedLoopLarge,
		Relation:   table,
		Columns:    nonEmpty(col),
		Reason:     sprintfRows("nested loop's inner side on %s scans %d rows on every outer iteration", table, rows),
		Suggestion: suggestion,
	})
}

func (a *Analyzer) externalSort(n *domain.PlanNode, out *[]domain.Bottleneck) {
	if n.NodeType != "Sort" {
		return
	}
	spills := containsFold(n.SortMethod, "external")
	estimatedBytes := int64(n.PlanWidth) * n.PlanRows
	overBudget := a.th.WorkMemBudgetBytes > 0 && estimatedBytes > a.th.WorkMemBudgetBytes
	if !spills && !overBudget {
		return
	}

	table := firstRelation(n)
	cols := sortColumns(n.SortKeys)

	*out = append(*out, domain.Bottleneck{
		Severity:   domain.SeverityMedium,
		Kind:       domain.KindExternalSort,
		Relation:   table,
		Columns:    cols,
		Reason:     "sort spills to disk or exceeds the configured working-memory budget",
		Suggestion: SortKeyIndex(table, cols),
	})
}

func (a *Analyzer) missingJoinIndex(n *domain.PlanNode, out *[]domain.Bottleneck) {
	if n.NodeType != "Hash Join" && n.NodeType != "Nested Loop" {
		return
	}
	if len(n.Children) < 2 {
		return
	}
	inner := n.Children[1]
	if inner.NodeType != "Seq Scan" {
		return
	}
	if inner.Filter == "" && inner.IndexCond == "" && n.JoinCond == "" {
		return
	}

	table := inner.Relation
	if table == "" {
		return
	}

	filterCols, _ := ExtractColumns(inner.Filter)
	joinCol := joinColumnFor(n, inner, table)

	seen := make(map[string]bool)
	var cols []string
	if joinCol != "" {
		seen[joinCol] = true
		cols = append(cols, joinCol)
	}
	for _, c := range filterCols {
		if !seen[c] {
			seen[c] = true
			cols = append(cols, c)
		}
	}
	if len(cols) == 0 {
		return
	}

	*out = append(*out, domain.Bottleneck{
		Severity:   domain.SeverityHigh,
		Kind:       domain.KindMissingJoinIndex,
		Relation:   table,
		Columns:    cols,
		Reason:     sprintfJoin("%s's inner side (%s) has no index covering its join and filter columns", n.NodeType, table),
		Suggestion: CompositeIndex(table, cols),
	})
}

// joinColumnFor extracts the column name of table referenced by a node's
// Index Cond, Hash/Merge Cond (on the parent), or Filter, whichever is
// available — used by both the nested-loop and missing-join-index rules.
func joinColumnFor(parent, inner *domain.PlanNode, table string) string {
	if inner.IndexCond != "" {
		if col := columnForTable(inner.IndexCond, table); col != "" {
			return col
		}
	}
	if parent.JoinCond != "" {
		if col := columnForTable(parent.JoinCond, table); col != "" {
			return col
		}
	}
	if inner.Filter != "" {
		cols, _ := ExtractColumns(inner.Filter)
		if len(cols) > 0 {
			return cols[0]
		}
	}
	return ""
}

// columnForTable picks, from a two-sided equality condition like
// "a.x = b.y", the side whose qualifier matches table; falls back to the
// first extracted identifier when no qualifier matches.
func columnForTable(cond, table string) string {
	sides := splitEquality(cond)
	for _, s := range sides {
		if hasQualifier(s, table) {
			return lastSegment(s)
		}
	}
	cols, _ := ExtractColumns(cond)
	if len(cols) > 0 {
		return cols[0]
	}
	return ""
}

func firstRelation(n *domain.PlanNode) string {
	if n == nil {
		return ""
	}
	if n.Relation != "" {
		return n.Relation
	}
	for _, c := range n.Children {
		if r := firstRelation(c); r != "" {
			return r
		}
	}
	return ""
}

func sortColumns(sortKeys []string) []string {
	var cols []string
	for _, k := range sortKeys {
		if c := leftHandColumn(k); c != "" {
			cols = append(cols, c)
		}
	}
	return cols
}

func nonEmpty(s string) []string {
	if s == "" {
		return nil
	}
	return []string{s}
}
