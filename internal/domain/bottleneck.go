package domain

// Severity ranks how urgently a Bottleneck needs addressing.
type Severity string

const (
	SeverityHigh   Severity = "HIGH"
	SeverityMedium Severity = "MEDIUM"
	SeverityLow    Severity = "LOW"
)

// BottleneckKind names the detection rule that produced a Bottleneck.
type BottleneckKind string

const (
	KindSeqScanLargeTable       BottleneckKind = "SeqScanLargeTable"
	KindHighCostNode            BottleneckKind = "HighCostNode"
	KindEstimateError           BottleneckKind = "EstimateError"
	KindNestedLoopLarge         BottleneckKind = "NestedLoopLarge"
	KindExternalSort            BottleneckKind = "ExternalSort"
	KindMissingJoinIndex        BottleneckKind = "MissingJoinIndex"
	KindFilterOnUnindexedColumn BottleneckKind = "FilterOnUnindexedColumn"
)

// Bottleneck is a single localized performance issue found by the Plan
// Analyzer, always carrying a syntactically well-formed canonical
// suggestion (spec.md §3 Bottleneck invariants).
type Bottleneck struct {
	Severity   Severity       `json:"severity"`
	Kind       BottleneckKind `json:"kind"`
	Relation   string         `json:"relation,omitempty"`
	Columns    []string       `json:"columns,omitempty"`
	Reason     string         `json:"reason"`
	Suggestion string         `json:"suggestion"`
}

// severityRank gives a total order over severities for picking the most
// severe bottleneck (used by the Semantic Translator, spec.md §4.2).
var severityRank = map[Severity]int{
	SeverityHigh:   3,
	SeverityMedium: 2,
	SeverityLow:    1,
}

// MostSevere returns the first bottleneck with the highest severity, or nil
// if the list is empty. Ties keep the earlier (post-order traversal) entry,
// which keeps the Analyzer's purity invariant (spec.md §8.1).
func MostSevere(bottlenecks []Bottleneck) *Bottleneck {
	if len(bottlenecks) == 0 {
		return nil
	}
	best := &bottlenecks[0]
	for i := 1; i < len(bottlenecks); i++ {
		if severityRank[bottlenecks[i].Severity] > severityRank[best.Severity] {
			best = &bottlenecks[i]
		}
	}
	return best
}
