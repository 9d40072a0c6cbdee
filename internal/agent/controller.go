// Package agent is the Agent Controller: the single-task ReAct loop of
// Analyze → Plan → Act → re-probe (spec.md §4.5). Grounded on the
// teacher's job_queue.go worker-loop shape (bounded iteration, select on
// a cancellable context.Context, structured log per phase transition),
// adapted from a queue-drain loop into a per-task state machine.
package agent

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/sqlens-agent/pgoptimizer/internal/config"
	"github.com/sqlens-agent/pgoptimizer/internal/domain"
	"github.com/sqlens-agent/pgoptimizer/internal/executor"
	"github.com/sqlens-agent/pgoptimizer/internal/hypoindex"
	"github.com/sqlens-agent/pgoptimizer/internal/memory"
	"github.com/sqlens-agent/pgoptimizer/internal/obslog"
	"github.com/sqlens-agent/pgoptimizer/internal/pgconn"
	"github.com/sqlens-agent/pgoptimizer/internal/plan"
	"github.com/sqlens-agent/pgoptimizer/internal/planner"
	"github.com/sqlens-agent/pgoptimizer/internal/schema"
	"github.com/sqlens-agent/pgoptimizer/internal/semantic"
)

// Controller owns one worker's pipeline of collaborators and runs tasks
// through them one at a time; a harness worker holds exactly one
// Controller per database connection (spec.md §4.8 "Worker pool").
type Controller struct {
	pool       *pgconn.Pool
	oracle     *schema.Oracle
	prover     *hypoindex.Prover
	analyzer   *plan.Analyzer
	translator *semantic.Translator
	planr      *planner.Planner
	exec       *executor.Executor
	settings   config.Settings
	database   string
}

func New(pool *pgconn.Pool, oracle *schema.Oracle, prover *hypoindex.Prover, analyzer *plan.Analyzer, translator *semantic.Translator, planr *planner.Planner, exec *executor.Executor, settings config.Settings, database string) *Controller {
	return &Controller{
		pool:       pool,
		oracle:     oracle,
		prover:     prover,
		analyzer:   analyzer,
		translator: translator,
		planr:      planr,
		exec:       exec,
		settings:   settings,
		database:   database,
	}
}

// Run drives one task through the loop and returns its Solution. It
// never returns a Go error: every failure mode becomes Solution.Success
// = false with Reason/Error populated (spec.md §7 "Failure taxonomy").
func (c *Controller) Run(ctx context.Context, task domain.Task) domain.Solution {
	task.Normalize()
	start := time.Now()

	sol := domain.Solution{
		InstanceID:   fmt.Sprint(task.InstanceID),
		Category:     task.Category,
		InitialQuery: strings.Join(task.CurrentSQL(), "; "),
	}

	taskCtx, cancel := context.WithTimeout(ctx, c.settings.TaskTimeout)
	defer cancel()

	obslog.Debug("agent.task.start", "starting task", map[string]interface{}{"task_id": sol.InstanceID, "database": c.database})

	querySet := task.CurrentSQL()

	// Management tasks with more than one statement are, by default, a
	// DDL/DML batch rather than a query to optimize: try applying them
	// verbatim in one transaction before falling back to the normal loop
	// (spec.md §4.5 "Management batch mode").
	if task.Category == domain.CategoryManagement && len(querySet) > 1 {
		if err := c.runManagementBatch(taskCtx, querySet); err == nil {
			sol.Success = true
			sol.FinalQuery = strings.Join(querySet, "; ")
			sol.Reason = "management statements applied"
			sol.ElapsedMs = time.Since(start).Milliseconds()
			obslog.Info("agent.task.done", "management batch applied", map[string]interface{}{"task_id": sol.InstanceID, "database": c.database})
			return sol
		}
	}

	sch, _ := c.oracle.Fetch(taskCtx, c.database)
	hypoAvail := c.prover.Available(taskCtx)
	mem := memory.New(c.settings.MemoryDepth)

	for iter := 1; iter <= c.settings.MaxIterations; iter++ {
		if taskCtx.Err() != nil {
			sol.Reason = "task timed out"
			sol.Error = taskCtx.Err().Error()
			break
		}

		report := c.probe(taskCtx, querySet)
		feedback := c.translator.Translate(report.Bottlenecks, report, semantic.Constraints{})
		obslog.Debug("agent.analyze", "probed plan", map[string]interface{}{
			"task_id": sol.InstanceID, "database": c.database,
			"iteration": iter, "status": string(feedback.Status),
		})

		syntaxError := report.ExplainFailed && looksLikeSyntaxError(report.ExplainError)

		action, err := c.planr.Plan(taskCtx, planner.Input{
			Intent:             task.Query,
			CurrentSQL:         querySet,
			Feedback:           feedback,
			Memory:             mem.Recent(),
			Schema:             sch,
			Category:           task.Category,
			MaxIterations:      c.settings.MaxIterations,
			Iteration:          iter,
			HypoIndexAvailable: hypoAvail,
			SyntaxError:        syntaxError,
			MultiStatement:     len(querySet) > 1,
		})
		if err != nil {
			sol.Reason = "planner interrupted"
			sol.Error = err.Error()
			obslog.Warn("agent.plan", "planner interrupted", map[string]interface{}{"task_id": sol.InstanceID, "database": c.database, "iteration": iter, "error": err})
			break
		}
		obslog.Debug("agent.plan", "planner emitted action", map[string]interface{}{"task_id": sol.InstanceID, "database": c.database, "iteration": iter, "action": string(action.Kind)})

		if action.Kind.IsTerminal() {
			sol.Success = action.Kind == domain.ActionDone
			sol.Reason = action.Reason
			sol.Actions = append(sol.Actions, action)
			obslog.Info("agent.task.done", "reached terminal action", map[string]interface{}{"task_id": sol.InstanceID, "database": c.database, "iteration": iter, "action": string(action.Kind)})
			break
		}

		result := c.exec.Execute(taskCtx, action, querySet)
		if result.Err != nil {
			rec := domain.IterationRecord{
				Ordinal:    iter,
				ActionKind: action.Kind,
				Summary:    action.Summary(),
				Outcome:    domain.OutcomeError,
				Insight:    result.Err.Error(),
			}
			mem.Append(rec)
			sol.AppendIteration(action, rec)
			obslog.Warn("agent.act", "action execution failed", map[string]interface{}{"task_id": sol.InstanceID, "database": c.database, "iteration": iter, "error": result.Err})
			continue
		}
		obslog.Debug("agent.act", "action executed", map[string]interface{}{"task_id": sol.InstanceID, "database": c.database, "iteration": iter, "action": string(action.Kind), "mutated": result.Mutated})
		querySet = result.QuerySet

		if result.Mutated {
			if refreshed, err := c.oracle.Fetch(taskCtx, c.database); err == nil {
				sch = refreshed
			}
		}

		if action.Kind == domain.ActionTestIndex {
			rec := testIndexRecord(iter, action, result)
			mem.Append(rec)
			sol.AppendIteration(action, rec)
			continue
		}

		reprobe := c.probe(taskCtx, querySet)
		rec := deltaRecord(iter, action, report.TotalCost, reprobe.TotalCost, c.settings)

		mem.Append(rec)
		sol.AppendIteration(action, rec)
	}

	if !sol.Success && sol.Reason == "" {
		sol.Reason = "max iterations reached"
	}
	sol.FinalQuery = strings.Join(querySet, "; ")
	sol.ElapsedMs = time.Since(start).Milliseconds()
	obslog.Debug("agent.task.end", "task finished", map[string]interface{}{
		"task_id": sol.InstanceID, "database": c.database, "success": sol.Success, "reason": sol.Reason,
	})
	return sol
}

// probe runs the two-phase EXPLAIN (spec.md §4.5 step 1): an always-on
// estimated plan, followed by an EXPLAIN ANALYZE re-run only when the
// estimated cost is cheap enough to actually execute and the statement
// is read-only (re-running a write would double-apply it).
func (c *Controller) probe(ctx context.Context, querySet []string) domain.TechReport {
	if len(querySet) == 0 {
		return domain.TechReport{ExplainFailed: true, ExplainError: "empty query set"}
	}
	query := querySet[len(querySet)-1]

	raw, err := pgconn.Explain(ctx, c.pool.DB(), query, false)
	if err != nil {
		return domain.TechReport{ExplainFailed: true, ExplainError: err.Error()}
	}
	p, err := plan.Parse(raw, query)
	if err != nil {
		return domain.TechReport{ExplainFailed: true, ExplainError: err.Error()}
	}

	if isSelectOnly(query) && p.TotalCost <= c.settings.AnalyzeCostThreshold {
		if raw2, err2 := pgconn.Explain(ctx, c.pool.DB(), query, true); err2 == nil {
			if p2, err3 := plan.Parse(raw2, query); err3 == nil {
				p = p2
			}
		}
	}

	bottlenecks := c.analyzer.Analyze(p.Root)
	return domain.TechReport{
		Bottlenecks: bottlenecks,
		TotalCost:   p.TotalCost,
		ExecutionMs: float64(p.ExecutionTime.Milliseconds()),
		PlanningMs:  float64(p.PlanningTime.Milliseconds()),
	}
}

// runManagementBatch applies every statement in querySet inside one
// transaction, on a connection with the configured statement timeout
// scoped to it, rolling back on the first failure.
func (c *Controller) runManagementBatch(ctx context.Context, querySet []string) error {
	conn, release, err := c.pool.FreshConn(ctx)
	if err != nil {
		return err
	}
	defer release()

	return pgconn.WithStatementTimeout(ctx, conn, c.settings.StatementTimeout, func(tx *sql.Tx) error {
		for _, stmt := range querySet {
			if _, err := tx.ExecContext(ctx, stmt); err != nil {
				return err
			}
		}
		return nil
	})
}

func testIndexRecord(iter int, action domain.Action, result executor.Result) domain.IterationRecord {
	outcome := domain.OutcomeUnchanged
	insight := ""
	if result.TestResult != nil {
		if result.TestResult.Beneficial {
			outcome = domain.OutcomeImproved
		}
		insight = fmt.Sprintf("hypothetical index estimate: %.1f%% cost reduction", result.TestResult.ImprovementPct)
	}
	return domain.IterationRecord{
		Ordinal:    iter,
		ActionKind: action.Kind,
		Summary:    action.Summary(),
		Outcome:    outcome,
		Insight:    insight,
	}
}

func deltaRecord(iter int, action domain.Action, before, after float64, s config.Settings) domain.IterationRecord {
	deltaPct := 0.0
	if before > 0 {
		deltaPct = (after - before) / before * 100
	}
	outcome := domain.OutcomeUnchanged
	switch {
	case deltaPct < s.ImprovedDeltaPct:
		outcome = domain.OutcomeImproved
	case deltaPct > s.RegressedDeltaPct:
		outcome = domain.OutcomeRegressed
	}
	return domain.IterationRecord{
		Ordinal:    iter,
		ActionKind: action.Kind,
		Summary:    action.Summary(),
		CostBefore: before,
		CostAfter:  after,
		DeltaPct:   deltaPct,
		Outcome:    outcome,
	}
}

func isSelectOnly(query string) bool {
	return strings.HasPrefix(strings.ToUpper(strings.TrimSpace(query)), "SELECT")
}

func looksLikeSyntaxError(msg string) bool {
	return strings.Contains(strings.ToLower(msg), "syntax error")
}
