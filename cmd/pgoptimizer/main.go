// Command pgoptimizer is the single entry point of the autonomous
// PostgreSQL query-optimization and repair agent (spec.md §6
// "Invocation"). Grounded on the teacher's main.go bootstrap sequence:
// load .env, wire services, install a graceful-shutdown signal handler.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	goredis "github.com/redis/go-redis/v9"

	"github.com/sqlens-agent/pgoptimizer/internal/agent"
	"github.com/sqlens-agent/pgoptimizer/internal/config"
	"github.com/sqlens-agent/pgoptimizer/internal/domain"
	"github.com/sqlens-agent/pgoptimizer/internal/executor"
	"github.com/sqlens-agent/pgoptimizer/internal/harness"
	"github.com/sqlens-agent/pgoptimizer/internal/hypoindex"
	"github.com/sqlens-agent/pgoptimizer/internal/llmclient"
	"github.com/sqlens-agent/pgoptimizer/internal/obslog"
	"github.com/sqlens-agent/pgoptimizer/internal/pgconn"
	"github.com/sqlens-agent/pgoptimizer/internal/plan"
	"github.com/sqlens-agent/pgoptimizer/internal/planner"
	"github.com/sqlens-agent/pgoptimizer/internal/schema"
	"github.com/sqlens-agent/pgoptimizer/internal/semantic"
)

func main() {
	os.Exit(run())
}

func run() int {
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file found, using system env")
	}

	var (
		datasetPath  = flag.String("dataset", "", "path to the JSON-lines task file")
		connTemplate = flag.String("conn-template", "", "PostgreSQL connection string, with optional {db_id} placeholder")
		outputPath   = flag.String("output", "", "path to write the final aggregate report")
		limit        = flag.Int("limit", 0, "limit the number of tasks evaluated (0 = no limit)")
		category     = flag.String("category", "", "restrict evaluation to one task category")
		workers      = flag.Int("workers", 0, "worker-pool size (0 = default)")
		maxIter      = flag.Int("max-iterations", 0, "iteration ceiling per task (0 = default)")
		minIter      = flag.Int("min-iterations", 0, "iteration floor per task (0 = default)")
		smokeTest    = flag.Bool("smoke", false, "evaluate only the first 10 tasks")
		configPath   = flag.String("config", "", "optional YAML settings overlay")
	)
	flag.Parse()

	settings := config.FromEnv()
	if *configPath != "" {
		merged, err := config.LoadYAML(*configPath, settings)
		if err != nil {
			log.Printf("config: %v", err)
			return 1
		}
		settings = merged
	}
	if *outputPath != "" {
		settings.OutputPath = *outputPath
	}
	if *workers > 0 {
		settings.WorkerPoolSize = *workers
	}
	if *maxIter > 0 {
		settings.MaxIterations = *maxIter
	}
	if *minIter > 0 {
		settings.MinIterations = *minIter
	}

	obslog.Init("pgoptimizer", settings.Environment)

	if *datasetPath == "" || *connTemplate == "" {
		fmt.Fprintln(os.Stderr, "pgoptimizer: -dataset and -conn-template are required")
		return 1
	}

	tasks, err := harness.LoadTasks(*datasetPath)
	if err != nil {
		obslog.Error("main.load_tasks", "failed to load dataset", map[string]interface{}{"error": err})
		return 1
	}
	tasks = harness.Filter(tasks, harness.FilterOptions{
		Category:  domain.Category(*category),
		Limit:     *limit,
		SmokeTest: *smokeTest,
	})

	intermediate, err := harness.OpenIntermediateLog(settings.IntermediateLog)
	if err != nil {
		obslog.Error("main.intermediate_log", "failed to open intermediate log", map[string]interface{}{"error": err})
		return 1
	}
	defer intermediate.Close()

	var processCache *schema.ProcessCache
	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		client := goredis.NewClient(&goredis.Options{Addr: addr})
		processCache = schema.NewProcessCache(client, 5*time.Minute)
	}

	providerFactory := llmclient.NewFactory()
	provider, err := providerFactory.Create(llmclient.Config{
		Type:    os.Getenv("LLM_PROVIDER"),
		APIKey:  os.Getenv("LLM_API_KEY"),
		BaseURL: os.Getenv("LLM_BASE_URL"),
		Model:   os.Getenv("LLM_MODEL"),
	})
	if err != nil {
		obslog.Error("main.llm_provider", "failed to construct LLM provider", map[string]interface{}{"error": err})
		return 1
	}

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
		<-sigChan
		obslog.Info("main.shutdown", "shutdown signal received, finishing in-flight tasks", nil)
		cancel()
	}()

	evaluate := taskEvaluator(*connTemplate, settings, processCache, provider)

	start := time.Now()
	results := harness.Run(ctx, tasks, settings.WorkerPoolSize, evaluate, intermediate)
	elapsed := time.Since(start).Seconds()

	report := harness.Build(*datasetPath, elapsed, results)
	if err := harness.WriteAtomic(settings.OutputPath, report); err != nil {
		obslog.Error("main.write_report", "failed to write final report", map[string]interface{}{"error": err})
		return 1
	}

	obslog.Info("main.complete", "evaluation complete", map[string]interface{}{
		"total_tasks":  report.TotalTasks,
		"success_rate": report.Aggregate.SuccessRate,
	})
	return 0
}

// taskEvaluator wires one worker's collaborators per task: a fresh
// pgconn.Pool on the task's resolved database, a Schema Oracle, a
// Hypothetical Index Prover, the Plan Analyzer/Semantic Translator, a
// rate-limited Planner, and the Executor — then runs the Agent
// Controller and scores the result (spec.md §5 "each worker opens its
// own connection(s)").
func taskEvaluator(connTemplate string, settings config.Settings, processCache *schema.ProcessCache, provider llmclient.Provider) harness.TaskFunc {
	return func(ctx context.Context, task domain.Task) harness.ResultRecord {
		start := time.Now()
		dsn := harness.ResolveDSN(connTemplate, task.DBID)

		pool, err := pgconn.Open(ctx, dsn)
		if err != nil {
			return failedRecord(task, start, err)
		}
		defer pool.Close()

		oracle := schema.New(pool, processCache)
		prover := hypoindex.New(pool)
		analyzer := plan.New(plan.Thresholds{
			LargeTableRows:     settings.LargeTableRowThreshold,
			HighCostFraction:   settings.HighCostNodeFraction,
			EstimateErrorRatio: settings.EstimateErrorRatio,
			WorkMemBudgetBytes: settings.WorkMemBudgetBytes,
		})
		translator := semantic.New(semantic.ModeDeterministic)
		pl := planner.New(provider, settings.LLMRatePerSecond, settings.LLMBurst, settings.DeepThinkingBudget)
		exec := executor.New(pool, oracle, prover, settings.StatementTimeout, settings.TestIndexImprovementPct, task.DBID)

		controller := agent.New(pool, oracle, prover, analyzer, translator, pl, exec, settings, task.DBID)
		solution := controller.Run(ctx, task)

		score, metric := scoreSolution(ctx, pool, task, solution, settings)

		actions := make([]domain.ActionKind, 0, len(solution.Actions))
		for _, a := range solution.Actions {
			actions = append(actions, a.Kind)
		}

		return harness.ResultRecord{
			TaskID:     solution.InstanceID,
			Database:   task.DBID,
			Category:   task.Category,
			Success:    solution.Success,
			Metric:     metric,
			Score:      score,
			Iterations: len(solution.Iterations),
			WallTimeMs: time.Since(start).Milliseconds(),
			Actions:    actions,
			FinalQuery: solution.FinalQuery,
			Reason:     solution.Reason,
			Error:      solution.Error,
		}
	}
}

func failedRecord(task domain.Task, start time.Time, err error) harness.ResultRecord {
	return harness.ResultRecord{
		TaskID:     fmt.Sprint(task.InstanceID),
		Database:   task.DBID,
		Category:   task.Category,
		Success:    false,
		Metric:     metricFor(task.Category),
		Score:      0,
		WallTimeMs: time.Since(start).Milliseconds(),
		Error:      err.Error(),
	}
}
