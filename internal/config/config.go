// Package config resolves the agent's tunables from the environment and an
// optional YAML harness file, the way the teacher's main.go loads .env
// before wiring services.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Settings are the typed, defaulted tunables every component reads from.
// Field names mirror the spec's named thresholds and budgets directly.
type Settings struct {
	// Plan Analyzer thresholds (spec.md §4.1).
	LargeTableRowThreshold int64   `yaml:"largeTableRowThreshold"`
	HighCostNodeFraction   float64 `yaml:"highCostNodeFraction"`
	EstimateErrorRatio     float64 `yaml:"estimateErrorRatio"`
	WorkMemBudgetBytes     int64   `yaml:"workMemBudgetBytes"`

	// Agent Controller budgets (spec.md §4.5, §9).
	MemoryDepth         int           `yaml:"memoryDepth"`
	MaxIterations       int           `yaml:"maxIterations"`
	MinIterations       int           `yaml:"minIterations"`
	AnalyzeCostThreshold float64      `yaml:"analyzeCostThreshold"`
	TaskTimeout         time.Duration `yaml:"taskTimeout"`
	StatementTimeout    time.Duration `yaml:"statementTimeout"`
	ImprovedDeltaPct    float64       `yaml:"improvedDeltaPct"`
	RegressedDeltaPct   float64       `yaml:"regressedDeltaPct"`

	// Planner (spec.md §4.3).
	DeepThinkingBudget int           `yaml:"deepThinkingBudget"`
	LLMRatePerSecond   float64       `yaml:"llmRatePerSecond"`
	LLMBurst           int           `yaml:"llmBurst"`
	LLMTimeout         time.Duration `yaml:"llmTimeout"`

	// Hypothetical Index Prover (spec.md §4.4, §6).
	TestIndexImprovementPct float64 `yaml:"testIndexImprovementPct"`

	// Harness (spec.md §4.8, §6).
	WorkerPoolSize   int    `yaml:"workerPoolSize"`
	SmokeTestLimit   int    `yaml:"smokeTestLimit"`
	IntermediateLog  string `yaml:"intermediateLog"`
	OutputPath       string `yaml:"outputPath"`

	Environment string `yaml:"environment"`
}

// Defaults returns the settings baseline the spec documents before any
// environment or file override is applied.
func Defaults() Settings {
	return Settings{
		LargeTableRowThreshold: 1000,
		HighCostNodeFraction:   0.7,
		EstimateErrorRatio:     5.0,
		WorkMemBudgetBytes:     4 * 1024 * 1024, // matches the default work_mem of 4MB

		MemoryDepth:          2,
		MaxIterations:        10,
		MinIterations:        1,
		AnalyzeCostThreshold: 10000,
		TaskTimeout:          2 * time.Minute,
		StatementTimeout:     10 * time.Second,
		ImprovedDeltaPct:     -5.0,
		RegressedDeltaPct:    5.0,

		DeepThinkingBudget: 8000,
		LLMRatePerSecond:   1.0,
		LLMBurst:           2,
		LLMTimeout:         30 * time.Second,

		TestIndexImprovementPct: 10.0,

		WorkerPoolSize:  4,
		SmokeTestLimit:  10,
		IntermediateLog: "results.intermediate.jsonl",
		OutputPath:      "results.json",

		Environment: "development",
	}
}

// FromEnv overlays environment-variable overrides onto the defaults, the
// way the teacher reads GO_ENV / PORT / REDIS_ADDR in main.go.
func FromEnv() Settings {
	s := Defaults()

	if v, ok := os.LookupEnv("GO_ENV"); ok {
		s.Environment = v
	}
	if v := envInt64("PGOPT_LARGE_TABLE_ROWS"); v != 0 {
		s.LargeTableRowThreshold = v
	}
	if v := envFloat("PGOPT_HIGH_COST_FRACTION"); v != 0 {
		s.HighCostNodeFraction = v
	}
	if v := envFloat("PGOPT_ESTIMATE_ERROR_RATIO"); v != 0 {
		s.EstimateErrorRatio = v
	}
	if v := envInt("PGOPT_MEMORY_DEPTH"); v != 0 {
		s.MemoryDepth = v
	}
	if v := envInt("PGOPT_MAX_ITERATIONS"); v != 0 {
		s.MaxIterations = v
	}
	if v := envInt("PGOPT_MIN_ITERATIONS"); v != 0 {
		s.MinIterations = v
	}
	if v := envFloat("PGOPT_ANALYZE_COST_THRESHOLD"); v != 0 {
		s.AnalyzeCostThreshold = v
	}
	if v := envDuration("PGOPT_TASK_TIMEOUT"); v != 0 {
		s.TaskTimeout = v
	}
	if v := envDuration("PGOPT_STATEMENT_TIMEOUT"); v != 0 {
		s.StatementTimeout = v
	}
	if v := envInt("PGOPT_DEEP_THINKING_BUDGET"); v != 0 {
		s.DeepThinkingBudget = v
	}
	if v := envInt("PGOPT_WORKER_POOL_SIZE"); v != 0 {
		s.WorkerPoolSize = v
	}
	if v := envInt("PGOPT_SMOKE_TEST_LIMIT"); v != 0 {
		s.SmokeTestLimit = v
	}
	if v, ok := os.LookupEnv("PGOPT_INTERMEDIATE_LOG"); ok {
		s.IntermediateLog = v
	}
	if v, ok := os.LookupEnv("PGOPT_OUTPUT_PATH"); ok {
		s.OutputPath = v
	}

	return s
}

// LoadYAML merges an optional harness configuration file on top of base,
// matching the Chahine-tech-sqlens convention of a single yaml.v3 document
// for all tunables. Zero values in the file are treated as "not set".
func LoadYAML(path string, base Settings) (Settings, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return base, fmt.Errorf("config: read %s: %w", path, err)
	}

	var overlay Settings
	if err := yaml.Unmarshal(raw, &overlay); err != nil {
		return base, fmt.Errorf("config: parse %s: %w", path, err)
	}

	merged := base
	mergeNonZero(&merged, overlay)
	return merged, nil
}

func mergeNonZero(dst *Settings, src Settings) {
	if src.LargeTableRowThreshold != 0 {
		dst.LargeTableRowThreshold = src.LargeTableRowThreshold
	}
	if src.HighCostNodeFraction != 0 {
		dst.HighCostNodeFraction = src.HighCostNodeFraction
	}
	if src.EstimateErrorRatio != 0 {
		dst.EstimateErrorRatio = src.EstimateErrorRatio
	}
	if src.WorkMemBudgetBytes != 0 {
		dst.WorkMemBudgetBytes = src.WorkMemBudgetBytes
	}
	if src.MemoryDepth != 0 {
		dst.MemoryDepth = src.MemoryDepth
	}
	if src.MaxIterations != 0 {
		dst.MaxIterations = src.MaxIterations
	}
	if src.MinIterations != 0 {
		dst.MinIterations = src.MinIterations
	}
	if src.AnalyzeCostThreshold != 0 {
		dst.AnalyzeCostThreshold = src.AnalyzeCostThreshold
	}
	if src.TaskTimeout != 0 {
		dst.TaskTimeout = src.TaskTimeout
	}
	if src.StatementTimeout != 0 {
		dst.StatementTimeout = src.StatementTimeout
	}
	if src.DeepThinkingBudget != 0 {
		dst.DeepThinkingBudget = src.DeepThinkingBudget
	}
	if src.LLMRatePerSecond != 0 {
		dst.LLMRatePerSecond = src.LLMRatePerSecond
	}
	if src.LLMBurst != 0 {
		dst.LLMBurst = src.LLMBurst
	}
	if src.LLMTimeout != 0 {
		dst.LLMTimeout = src.LLMTimeout
	}
	if src.TestIndexImprovementPct != 0 {
		dst.TestIndexImprovementPct = src.TestIndexImprovementPct
	}
	if src.WorkerPoolSize != 0 {
		dst.WorkerPoolSize = src.WorkerPoolSize
	}
	if src.SmokeTestLimit != 0 {
		dst.SmokeTestLimit = src.SmokeTestLimit
	}
	if src.IntermediateLog != "" {
		dst.IntermediateLog = src.IntermediateLog
	}
	if src.OutputPath != "" {
		dst.OutputPath = src.OutputPath
	}
	if src.Environment != "" {
		dst.Environment = src.Environment
	}
}

func envInt(key string) int {
	v, ok := os.LookupEnv(key)
	if !ok {
		return 0
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0
	}
	return n
}

func envInt64(key string) int64 {
	v, ok := os.LookupEnv(key)
	if !ok {
		return 0
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0
	}
	return n
}

func envFloat(key string) float64 {
	v, ok := os.LookupEnv(key)
	if !ok {
		return 0
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0
	}
	return f
}

func envDuration(key string) time.Duration {
	v, ok := os.LookupEnv(key)
	if !ok {
		return 0
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0
	}
	return d
}
