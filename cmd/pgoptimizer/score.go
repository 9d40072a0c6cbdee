package main

import (
	"context"
	"strings"

	"github.com/sqlens-agent/pgoptimizer/internal/config"
	"github.com/sqlens-agent/pgoptimizer/internal/domain"
	"github.com/sqlens-agent/pgoptimizer/internal/metrics"
	"github.com/sqlens-agent/pgoptimizer/internal/pgconn"
	"github.com/sqlens-agent/pgoptimizer/internal/plan"
	"github.com/sqlens-agent/pgoptimizer/internal/testrunner"
)

func metricFor(category domain.Category) metrics.Metric {
	return metrics.Selector(category, "")
}

// scoreSolution runs the Test Case Runner against the Agent Controller's
// final query and applies the category-selected metric (spec.md §4.7
// Selector).
func scoreSolution(ctx context.Context, pool *pgconn.Pool, task domain.Task, solution domain.Solution, settings config.Settings) (float64, metrics.Metric) {
	metric := metricFor(task.Category)

	predictedSQL := splitStatements(solution.FinalQuery)
	predicted, err := testrunner.Run(ctx, pool, task, predictedSQL, settings.StatementTimeout)
	if err != nil {
		return 0, metric
	}

	switch metric {
	case metrics.MetricTCV:
		return metrics.TCV(predicted), metric

	case metrics.MetricQEP:
		original := task.IssueSQL[len(task.IssueSQL)-1]
		rewritten := predictedSQL[len(predictedSQL)-1]
		originalCost, _ := explainCost(ctx, pool, original)
		predictedCost, _ := explainCost(ctx, pool, rewritten)
		score, _ := metrics.QEP(originalCost, predictedCost)
		return score, metric

	default: // soft-ex
		var reference *testrunner.Result
		if task.Reference != "" {
			if ref, err := testrunner.Run(ctx, pool, task, splitStatements(task.Reference), settings.StatementTimeout); err == nil {
				reference = &ref
			}
		}
		return metrics.SoftEx(predicted, reference), metric
	}
}

func explainCost(ctx context.Context, pool *pgconn.Pool, query string) (float64, error) {
	raw, err := pgconn.Explain(ctx, pool.DB(), query, false)
	if err != nil {
		return 0, err
	}
	p, err := plan.Parse(raw, query)
	if err != nil {
		return 0, err
	}
	return p.TotalCost, nil
}

func splitStatements(sql string) []string {
	parts := strings.Split(sql, ";")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return []string{sql}
	}
	return out
}
