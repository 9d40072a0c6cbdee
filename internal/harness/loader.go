// Package harness loads benchmark tasks, dispatches them across a bounded
// worker pool, and aggregates results (spec.md §4.8). Grounded on the
// teacher's job_queue.go worker-pool shape and database/connect.go's
// template-driven DSN construction, generalized to a JSON-lines task file.
package harness

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/sqlens-agent/pgoptimizer/internal/domain"
	"github.com/sqlens-agent/pgoptimizer/internal/obslog"
)

var validate = validator.New()

// LoadTasks reads one JSON object per line from path, validates each with
// go-playground/validator tags on domain.Task, and normalizes legacy
// aliases. A line that fails to parse or validate is skipped with a
// warning rather than aborting the whole load (spec.md §6 "Unknown fields
// are ignored").
func LoadTasks(path string) ([]domain.Task, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("harness: open %s: %w", path, err)
	}
	defer f.Close()

	var tasks []domain.Task
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var t domain.Task
		if err := json.Unmarshal([]byte(line), &t); err != nil {
			obslog.Warn("harness.load_tasks", "skipping unparseable task line", map[string]interface{}{"line": lineNo, "error": err})
			continue
		}
		t.Normalize()
		if err := validate.Struct(t); err != nil {
			obslog.Warn("harness.load_tasks", "skipping invalid task line", map[string]interface{}{"line": lineNo, "error": err})
			continue
		}
		tasks = append(tasks, t)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("harness: scan %s: %w", path, err)
	}
	return tasks, nil
}

// FilterOptions narrows the loaded task list before dispatch.
type FilterOptions struct {
	Category  domain.Category
	Limit     int
	SmokeTest bool
}

// Filter applies an optional category filter and an optional size cap;
// SmokeTest takes the first 10 tasks regardless of Limit (spec.md §4.8
// "smoke test = first 10").
func Filter(tasks []domain.Task, opt FilterOptions) []domain.Task {
	out := tasks
	if opt.Category != "" {
		filtered := make([]domain.Task, 0, len(out))
		for _, t := range out {
			if t.Category == opt.Category {
				filtered = append(filtered, t)
			}
		}
		out = filtered
	}

	limit := opt.Limit
	if opt.SmokeTest {
		limit = 10
	}
	if limit > 0 && limit < len(out) {
		out = out[:limit]
	}
	return out
}

// ResolveDSN substitutes {db_id} into template, falling back to template
// verbatim when it carries no placeholder (spec.md §6 "Database connection
// template").
func ResolveDSN(template, dbID string) string {
	if strings.Contains(template, "{db_id}") {
		return strings.ReplaceAll(template, "{db_id}", dbID)
	}
	return template
}
