package harness

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/google/uuid"
)

// CategoryStats is one breakdown bucket of the aggregate report (by
// category, database, or metric).
type CategoryStats struct {
	Count       int     `json:"count"`
	SuccessRate float64 `json:"successRate"`
	MeanScore   float64 `json:"meanScore"`
}

// Aggregate is the summary block of the final report (spec.md §4.8
// "Aggregation").
type Aggregate struct {
	SuccessRate     float64                  `json:"successRate"`
	MeanScore       float64                  `json:"meanScore"`
	MeanIterations  float64                  `json:"meanIterations"`
	MeanTimeMs      float64                  `json:"meanTimeMs"`
	ByCategory      map[string]CategoryStats `json:"byCategory"`
	ByDatabase      map[string]CategoryStats `json:"byDatabase"`
	ByMetric        map[string]CategoryStats `json:"byMetric"`
	ActionHistogram map[string]int           `json:"actionHistogram"`
}

// Report is the atomically-written final output document (spec.md §6
// "Output").
type Report struct {
	RunID            string          `json:"runId"`
	Dataset          string          `json:"dataset"`
	TotalTasks       int             `json:"totalTasks"`
	TotalTimeSeconds float64         `json:"totalTimeSeconds"`
	Aggregate        Aggregate       `json:"aggregate"`
	Results          []ResultRecord  `json:"results"`
}

// Build computes the summary block from a finished result set. Each
// report gets a fresh RunID so repeated benchmark runs against the same
// dataset never collide when archived side by side.
func Build(dataset string, totalTimeSeconds float64, results []ResultRecord) Report {
	agg := Aggregate{
		ByCategory:      map[string]CategoryStats{},
		ByDatabase:      map[string]CategoryStats{},
		ByMetric:        map[string]CategoryStats{},
		ActionHistogram: map[string]int{},
	}
	runID := uuid.NewString()

	if len(results) == 0 {
		return Report{RunID: runID, Dataset: dataset, TotalTasks: 0, TotalTimeSeconds: totalTimeSeconds, Aggregate: agg}
	}

	var successes int
	var scoreSum, iterSum, timeSum float64
	byCategory := map[string][]ResultRecord{}
	byDatabase := map[string][]ResultRecord{}
	byMetric := map[string][]ResultRecord{}

	for _, r := range results {
		if r.Success {
			successes++
		}
		scoreSum += r.Score
		iterSum += float64(r.Iterations)
		timeSum += float64(r.WallTimeMs)

		byCategory[string(r.Category)] = append(byCategory[string(r.Category)], r)
		byDatabase[r.Database] = append(byDatabase[r.Database], r)
		byMetric[string(r.Metric)] = append(byMetric[string(r.Metric)], r)

		for _, a := range r.Actions {
			agg.ActionHistogram[string(a)]++
		}
	}

	n := float64(len(results))
	agg.SuccessRate = float64(successes) / n
	agg.MeanScore = scoreSum / n
	agg.MeanIterations = iterSum / n
	agg.MeanTimeMs = timeSum / n

	for k, v := range byCategory {
		agg.ByCategory[k] = bucketStats(v)
	}
	for k, v := range byDatabase {
		agg.ByDatabase[k] = bucketStats(v)
	}
	for k, v := range byMetric {
		agg.ByMetric[k] = bucketStats(v)
	}

	return Report{
		RunID:            runID,
		Dataset:          dataset,
		TotalTasks:       len(results),
		TotalTimeSeconds: totalTimeSeconds,
		Aggregate:        agg,
		Results:          results,
	}
}

func bucketStats(rs []ResultRecord) CategoryStats {
	var successes int
	var scoreSum float64
	for _, r := range rs {
		if r.Success {
			successes++
		}
		scoreSum += r.Score
	}
	n := float64(len(rs))
	return CategoryStats{
		Count:       len(rs),
		SuccessRate: float64(successes) / n,
		MeanScore:   scoreSum / n,
	}
}

// WriteAtomic writes report to path by first writing to a temp file in
// the same directory, then renaming over the destination, so a reader
// never observes a partially-written report (spec.md §4.8 "written
// atomically").
func WriteAtomic(path string, report Report) error {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("harness: marshal report: %w", err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("harness: write temp report: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("harness: rename report: %w", err)
	}
	return nil
}
