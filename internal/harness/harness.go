package harness

import (
	"context"
	"sync"

	"github.com/sqlens-agent/pgoptimizer/internal/domain"
	"github.com/sqlens-agent/pgoptimizer/internal/metrics"
	"github.com/sqlens-agent/pgoptimizer/internal/obslog"
)

// ResultRecord is one task's entry in both the intermediate log and the
// final report's results[] array (spec.md §6 "Output").
type ResultRecord struct {
	TaskID     string             `json:"taskId"`
	Database   string             `json:"database"`
	Category   domain.Category    `json:"category"`
	Success    bool               `json:"success"`
	Metric     metrics.Metric     `json:"metric"`
	Score      float64            `json:"score"`
	Iterations int                `json:"iterations"`
	WallTimeMs int64              `json:"wallTimeMs"`
	Actions    []domain.ActionKind `json:"actions"`
	FinalQuery string             `json:"finalQuery"`
	Reason     string             `json:"reason,omitempty"`
	Error      string             `json:"error,omitempty"`
}

// TaskFunc evaluates a single task end to end (Agent Controller run, Test
// Case Runner, metric scoring) and returns its ResultRecord. Supplied by
// cmd/pgoptimizer, which wires together the per-worker collaborators; the
// Harness itself is agnostic to those internals.
type TaskFunc func(ctx context.Context, task domain.Task) ResultRecord

// Run dispatches tasks across a bounded worker pool of size poolSize,
// appending every ResultRecord to log as soon as it is produced (spec.md
// §4.8 "Scheduling"). Results are returned in completion order, which is
// not guaranteed to match the input order (spec.md §5 "no ordering is
// guaranteed" across tasks).
func Run(ctx context.Context, tasks []domain.Task, poolSize int, fn TaskFunc, log *IntermediateLog) []ResultRecord {
	if poolSize < 1 {
		poolSize = 1
	}

	sem := make(chan struct{}, poolSize)
	var wg sync.WaitGroup
	var mu sync.Mutex
	results := make([]ResultRecord, 0, len(tasks))

	for _, task := range tasks {
		task := task
		wg.Add(1)
		sem <- struct{}{}
		go func() {
			defer wg.Done()
			defer func() { <-sem }()

			rec := fn(ctx, task)

			if log != nil {
				if err := log.Append(rec); err != nil {
					obslog.Warn("harness.intermediate_log", "failed to append result", map[string]interface{}{
						"task_id": rec.TaskID,
						"error":   err,
					})
				}
			}

			mu.Lock()
			results = append(results, rec)
			mu.Unlock()
		}()

		select {
		case <-ctx.Done():
			wg.Wait()
			return results
		default:
		}
	}

	wg.Wait()
	return results
}
