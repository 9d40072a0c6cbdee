package harness

import (
	"encoding/json"
	"os"
	"testing"

	"github.com/sqlens-agent/pgoptimizer/internal/domain"
	"github.com/sqlens-agent/pgoptimizer/internal/metrics"
)

func TestBuild_EmptyResultSet(t *testing.T) {
	report := Build("dataset.jsonl", 1.5, nil)
	if report.TotalTasks != 0 {
		t.Fatalf("expected 0 total tasks, got %d", report.TotalTasks)
	}
	if report.Aggregate.SuccessRate != 0 {
		t.Fatalf("expected 0 success rate on an empty set, got %v", report.Aggregate.SuccessRate)
	}
	if report.RunID == "" {
		t.Fatal("expected a non-empty RunID even on an empty result set")
	}
}

func TestBuild_AssignsDistinctRunIDsAcrossCalls(t *testing.T) {
	first := Build("dataset.jsonl", 1, nil)
	second := Build("dataset.jsonl", 1, nil)
	if first.RunID == second.RunID {
		t.Fatalf("expected distinct RunIDs across separate Build calls, got %q twice", first.RunID)
	}
}

func TestBuild_Aggregation(t *testing.T) {
	results := []ResultRecord{
		{TaskID: "1", Database: "tpch", Category: domain.CategoryQuery, Success: true, Metric: metrics.MetricSoftEx, Score: 1, Iterations: 3, WallTimeMs: 100, Actions: []domain.ActionKind{domain.ActionCreateIndex, domain.ActionDone}},
		{TaskID: "2", Database: "tpch", Category: domain.CategoryQuery, Success: false, Metric: metrics.MetricSoftEx, Score: 0, Iterations: 5, WallTimeMs: 200, Actions: []domain.ActionKind{domain.ActionFailed}},
		{TaskID: "3", Database: "other", Category: domain.CategoryManagement, Success: true, Metric: metrics.MetricTCV, Score: 1, Iterations: 1, WallTimeMs: 50, Actions: []domain.ActionKind{domain.ActionDone}},
	}

	report := Build("dataset.jsonl", 3.0, results)

	if report.TotalTasks != 3 {
		t.Fatalf("expected 3 total tasks, got %d", report.TotalTasks)
	}
	if got := report.Aggregate.SuccessRate; got < 0.666 || got > 0.667 {
		t.Fatalf("expected success rate 2/3, got %v", got)
	}
	if got := report.Aggregate.MeanScore; got < 0.666 || got > 0.667 {
		t.Fatalf("expected mean score 2/3, got %v", got)
	}
	if got := report.Aggregate.MeanIterations; got != 3 {
		t.Fatalf("expected mean iterations 3, got %v", got)
	}

	byCat := report.Aggregate.ByCategory[string(domain.CategoryQuery)]
	if byCat.Count != 2 || byCat.SuccessRate != 0.5 {
		t.Fatalf("unexpected Query category bucket: %+v", byCat)
	}

	byDB := report.Aggregate.ByDatabase["tpch"]
	if byDB.Count != 2 {
		t.Fatalf("expected 2 tasks against database tpch, got %+v", byDB)
	}

	byMetric := report.Aggregate.ByMetric[string(metrics.MetricTCV)]
	if byMetric.Count != 1 || byMetric.SuccessRate != 1 {
		t.Fatalf("unexpected tcv metric bucket: %+v", byMetric)
	}

	if report.Aggregate.ActionHistogram[string(domain.ActionDone)] != 2 {
		t.Fatalf("expected 2 Done actions in the histogram, got %d", report.Aggregate.ActionHistogram[string(domain.ActionDone)])
	}
	if report.Aggregate.ActionHistogram[string(domain.ActionCreateIndex)] != 1 {
		t.Fatalf("expected 1 CreateIndex action in the histogram, got %d", report.Aggregate.ActionHistogram[string(domain.ActionCreateIndex)])
	}
}

func TestWriteAtomic_WritesValidJSONAndReplacesExisting(t *testing.T) {
	dir := t.TempDir()
	path := dir + "/report.json"

	if err := os.WriteFile(path, []byte("stale"), 0644); err != nil {
		t.Fatalf("failed to seed fixture: %v", err)
	}

	report := Build("dataset.jsonl", 2.0, []ResultRecord{
		{TaskID: "1", Success: true, Score: 1},
	})

	if err := WriteAtomic(path, report); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read written report: %v", err)
	}
	var readBack Report
	if err := json.Unmarshal(data, &readBack); err != nil {
		t.Fatalf("expected valid JSON, got error: %v", err)
	}
	if readBack.TotalTasks != 1 {
		t.Fatalf("expected 1 task round-tripped, got %d", readBack.TotalTasks)
	}

	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Fatalf("expected the temp file to be renamed away, stat err: %v", err)
	}
}
