package harness

import (
	"context"
	"sync/atomic"
	"testing"

	"github.com/sqlens-agent/pgoptimizer/internal/domain"
)

func TestRun_EvaluatesEveryTask(t *testing.T) {
	tasks := []domain.Task{
		{InstanceID: 1, DBID: "a"},
		{InstanceID: 2, DBID: "b"},
		{InstanceID: 3, DBID: "c"},
	}

	fn := func(ctx context.Context, task domain.Task) ResultRecord {
		return ResultRecord{TaskID: task.DBID, Success: true}
	}

	results := Run(context.Background(), tasks, 2, fn, nil)
	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}
}

func TestRun_RespectsPoolSizeConcurrencyCeiling(t *testing.T) {
	tasks := make([]domain.Task, 10)
	for i := range tasks {
		tasks[i] = domain.Task{InstanceID: i}
	}

	var inFlight int32
	var maxObserved int32
	start := make(chan struct{})

	fn := func(ctx context.Context, task domain.Task) ResultRecord {
		cur := atomic.AddInt32(&inFlight, 1)
		for {
			observed := atomic.LoadInt32(&maxObserved)
			if cur <= observed || atomic.CompareAndSwapInt32(&maxObserved, observed, cur) {
				break
			}
		}
		<-start
		atomic.AddInt32(&inFlight, -1)
		return ResultRecord{}
	}

	done := make(chan []ResultRecord, 1)
	go func() {
		done <- Run(context.Background(), tasks, 3, fn, nil)
	}()

	close(start)
	<-done

	if atomic.LoadInt32(&maxObserved) > 3 {
		t.Fatalf("expected concurrency to never exceed the pool size of 3, observed %d", maxObserved)
	}
	if atomic.LoadInt32(&maxObserved) < 1 {
		t.Fatalf("expected at least one task to have run")
	}
}

func TestRun_ZeroPoolSizeFloorsAtOne(t *testing.T) {
	tasks := []domain.Task{{InstanceID: 1}, {InstanceID: 2}}
	fn := func(ctx context.Context, task domain.Task) ResultRecord {
		return ResultRecord{TaskID: "x"}
	}
	results := Run(context.Background(), tasks, 0, fn, nil)
	if len(results) != 2 {
		t.Fatalf("expected both tasks to still run with pool size floored at 1, got %d", len(results))
	}
}
