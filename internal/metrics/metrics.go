// Package metrics implements the Evaluation Harness's three scoring
// functions — soft-ex, tcv, qep (spec.md §4.7) — and the category→metric
// Selector. Grounded on the teacher's query_optimizer.go scoring shape
// (a severity-weighted score reduction), generalized here into the
// three benchmark-defined metrics.
package metrics

import (
	"fmt"
	"math"

	"github.com/sqlens-agent/pgoptimizer/internal/domain"
	"github.com/sqlens-agent/pgoptimizer/internal/testrunner"
)

// Metric names the scoring function a task was evaluated with.
type Metric string

const (
	MetricSoftEx Metric = "soft-ex"
	MetricTCV    Metric = "tcv"
	MetricQEP    Metric = "qep"
)

// FloatTolerance is soft-ex's epsilon for comparing numeric cells
// (spec.md §4.7 "floats are compared with tolerance ε").
const FloatTolerance = 1e-6

// QEPPassRatio is the cost-ratio ceiling a qep-scored task must meet to
// count as success (spec.md §4.7 "pass iff cost-ratio ≤ 0.9").
const QEPPassRatio = 0.9

// Selector picks the metric for a category, honouring an explicit
// override if one is set (spec.md §4.7 "Manual override is allowed").
func Selector(category domain.Category, override Metric) Metric {
	if override != "" {
		return override
	}
	switch category {
	case domain.CategoryEfficiency:
		return MetricQEP
	case domain.CategoryManagement:
		return MetricTCV
	default:
		return MetricSoftEx
	}
}

// SoftEx scores result equivalence for Query/Personalization tasks. With
// a reference result set it compares row multisets order-insensitively;
// without one, it falls back to "did the predicted statement execute
// without error" (spec.md §4.7 "or by checking pure execution success").
func SoftEx(predicted testrunner.Result, reference *testrunner.Result) float64 {
	if predicted.PredictedError != "" {
		return 0
	}
	if reference == nil {
		return 1
	}
	if reference.PredictedError != "" {
		return 0
	}
	if !predicted.IsSelect || !reference.IsSelect {
		if predicted.AffectedRows == reference.AffectedRows {
			return 1
		}
		return 0
	}
	if rowMultisetsEqual(predicted.Rows, reference.Rows) {
		return 1
	}
	return 0
}

// TCV scores workflow validation for Management tasks: 1 iff
// preprocess, predicted, and cleanup all ran to completion.
func TCV(result testrunner.Result) float64 {
	if result.PreprocessFailedAt != -1 {
		return 0
	}
	if result.PredictedError != "" {
		return 0
	}
	if len(result.CleanupErrors) > 0 {
		return 0
	}
	return 1
}

// QEP scores plan-cost comparison for Efficiency tasks. ratio is
// cost(predicted)/cost(original); score = max(0, 1 − ratio). A
// non-positive originalCost makes the ratio meaningless, so it scores 0.
func QEP(originalCost, predictedCost float64) (score float64, pass bool) {
	if originalCost <= 0 {
		return 0, false
	}
	ratio := predictedCost / originalCost
	score = math.Max(0, 1-ratio)
	pass = ratio <= QEPPassRatio
	return score, pass
}

// rowMultisetsEqual compares two row sets ignoring order: every row in a
// must match exactly one not-yet-matched row in b, and counts must be
// equal.
func rowMultisetsEqual(a, b [][]interface{}) bool {
	if len(a) != len(b) {
		return false
	}
	used := make([]bool, len(b))
	for _, ra := range a {
		matched := false
		for j, rb := range b {
			if used[j] {
				continue
			}
			if rowsEqual(ra, rb) {
				used[j] = true
				matched = true
				break
			}
		}
		if !matched {
			return false
		}
	}
	return true
}

func rowsEqual(a, b []interface{}) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !cellsEqual(a[i], b[i]) {
			return false
		}
	}
	return true
}

func cellsEqual(a, b interface{}) bool {
	if a == nil && b == nil {
		return true
	}
	if a == nil || b == nil {
		return false
	}
	af, aok := toFloat(a)
	bf, bok := toFloat(b)
	if aok && bok {
		return math.Abs(af-bf) <= FloatTolerance
	}
	return fmt.Sprint(a) == fmt.Sprint(b)
}

func toFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
}
