package obslog

import (
	"bufio"
	"encoding/json"
	"errors"
	"os"
	"testing"
)

func TestNew_DefaultsToDebugInDevelopment(t *testing.T) {
	l := New("svc", "development")
	if !l.shouldLog(LevelDebug) {
		t.Fatal("expected development environment to log at DEBUG")
	}
}

func TestNew_DefaultsToInfoOutsideDevelopment(t *testing.T) {
	l := New("svc", "production")
	if l.shouldLog(LevelDebug) {
		t.Fatal("expected production environment to suppress DEBUG")
	}
	if !l.shouldLog(LevelInfo) {
		t.Fatal("expected production environment to still log INFO")
	}
}

func TestNew_EmptyEnvironmentDefaultsToDevelopment(t *testing.T) {
	l := New("svc", "")
	if l.environment != "development" {
		t.Fatalf("expected empty environment to default to development, got %q", l.environment)
	}
}

func captureStdout(t *testing.T, fn func()) string {
	t.Helper()
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("failed to create pipe: %v", err)
	}
	original := os.Stdout
	os.Stdout = w
	defer func() { os.Stdout = original }()

	fn()
	w.Close()

	scanner := bufio.NewScanner(r)
	var last string
	for scanner.Scan() {
		last = scanner.Text()
	}
	return last
}

func TestLogger_InfoEmitsStructuredJSON(t *testing.T) {
	l := New("pgoptimizer", "production")

	line := captureStdout(t, func() {
		l.Info("agent.probe", "probed the plan", map[string]interface{}{"task_id": "42"})
	})

	var entry Entry
	if err := json.Unmarshal([]byte(line), &entry); err != nil {
		t.Fatalf("expected valid JSON log line, got %q: %v", line, err)
	}
	if entry.Level != LevelInfo {
		t.Fatalf("expected INFO level, got %v", entry.Level)
	}
	if entry.Operation != "agent.probe" || entry.Message != "probed the plan" {
		t.Fatalf("unexpected entry: %+v", entry)
	}
	if entry.TaskID != "42" {
		t.Fatalf("expected task_id field promoted to TaskID, got %q", entry.TaskID)
	}
	if entry.Environment != "production" {
		t.Fatalf("expected environment production, got %q", entry.Environment)
	}
}

func TestLogger_DebugSuppressedOutsideDevelopment(t *testing.T) {
	l := New("pgoptimizer", "production")

	line := captureStdout(t, func() {
		l.Debug("agent.probe", "should not appear", nil)
	})

	if line != "" {
		t.Fatalf("expected DEBUG to be suppressed in production, got %q", line)
	}
}

func TestLogger_ErrorFieldPromotesGoErrorToString(t *testing.T) {
	l := New("pgoptimizer", "production")

	line := captureStdout(t, func() {
		l.Error("agent.probe", "failed", map[string]interface{}{"error": errors.New("boom")})
	})

	var entry Entry
	if err := json.Unmarshal([]byte(line), &entry); err != nil {
		t.Fatalf("expected valid JSON, got %q: %v", line, err)
	}
	if entry.Error != "boom" {
		t.Fatalf("expected the error field promoted to a string, got %q", entry.Error)
	}
}
