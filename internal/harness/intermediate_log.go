package harness

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"
)

// IntermediateLog is the append-only, crash-recoverable per-task result
// log (spec.md §4.8, §5 "writes serialised through a single append
// mutex; readers may tail without locking").
type IntermediateLog struct {
	mu sync.Mutex
	f  *os.File
}

func OpenIntermediateLog(path string) (*IntermediateLog, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("harness: open intermediate log %s: %w", path, err)
	}
	return &IntermediateLog{f: f}, nil
}

// Append writes one ResultRecord as a JSON line, flushing it before
// returning so a crashed worker never loses an already-finished task
// (spec.md §5 "flushed before the worker returns").
func (l *IntermediateLog) Append(rec ResultRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("harness: marshal result: %w", err)
	}
	data = append(data, '\n')

	l.mu.Lock()
	defer l.mu.Unlock()

	if _, err := l.f.Write(data); err != nil {
		return fmt.Errorf("harness: write result: %w", err)
	}
	return l.f.Sync()
}

func (l *IntermediateLog) Close() error {
	return l.f.Close()
}
