// Package obslog provides structured JSON logging for the optimization agent.
package obslog

import (
	"encoding/json"
	"fmt"
	"os"
	"runtime"
	"time"
)

// Level is the severity of a log entry.
type Level string

const (
	LevelDebug Level = "DEBUG"
	LevelInfo  Level = "INFO"
	LevelWarn  Level = "WARN"
	LevelError Level = "ERROR"
	LevelFatal Level = "FATAL"
)

var levelOrder = map[Level]int{
	LevelDebug: 0,
	LevelInfo:  1,
	LevelWarn:  2,
	LevelError: 3,
	LevelFatal: 4,
}

// Entry is a single structured log line.
type Entry struct {
	Timestamp   string                 `json:"timestamp"`
	Level       Level                  `json:"level"`
	Service     string                 `json:"service"`
	Operation   string                 `json:"operation"`
	Message     string                 `json:"message"`
	TaskID      string                 `json:"taskId,omitempty"`
	Database    string                 `json:"database,omitempty"`
	Error       string                 `json:"error,omitempty"`
	Metadata    map[string]interface{} `json:"metadata,omitempty"`
	SourceFile  string                 `json:"sourceFile,omitempty"`
	SourceLine  int                    `json:"sourceLine,omitempty"`
	DurationMs  int64                  `json:"durationMs,omitempty"`
	Environment string                 `json:"environment"`
}

// Logger is a structured JSON logger scoped to one service/component name.
type Logger struct {
	service     string
	environment string
	minLevel    Level
}

// New creates a Logger. The minimum level is DEBUG in development and INFO
// otherwise, matching GO_ENV the way the rest of this agent reads config.
func New(service, environment string) *Logger {
	if environment == "" {
		environment = "development"
	}
	minLevel := LevelInfo
	if environment == "development" {
		minLevel = LevelDebug
	}
	return &Logger{service: service, environment: environment, minLevel: minLevel}
}

func (l *Logger) shouldLog(level Level) bool {
	return levelOrder[level] >= levelOrder[l.minLevel]
}

func (l *Logger) log(level Level, operation, message string, fields map[string]interface{}) {
	if !l.shouldLog(level) {
		return
	}

	_, file, line, _ := runtime.Caller(2)

	entry := Entry{
		Timestamp:   time.Now().UTC().Format(time.RFC3339Nano),
		Level:       level,
		Service:     l.service,
		Operation:   operation,
		Message:     message,
		Metadata:    fields,
		SourceFile:  file,
		SourceLine:  line,
		Environment: l.environment,
	}

	if fields != nil {
		if taskID, ok := fields["task_id"].(string); ok {
			entry.TaskID = taskID
			delete(fields, "task_id")
		}
		if db, ok := fields["database"].(string); ok {
			entry.Database = db
			delete(fields, "database")
		}
		if err, ok := fields["error"].(error); ok {
			entry.Error = err.Error()
			delete(fields, "error")
		}
		if errStr, ok := fields["error"].(string); ok {
			entry.Error = errStr
			delete(fields, "error")
		}
		if d, ok := fields["duration_ms"].(int64); ok {
			entry.DurationMs = d
			delete(fields, "duration_ms")
		}
	}

	data, err := json.Marshal(entry)
	if err != nil {
		fmt.Fprintf(os.Stderr, "[obslog] failed to marshal entry: %v\n", err)
		return
	}
	fmt.Fprintln(os.Stdout, string(data))
}

func (l *Logger) Debug(operation, message string, fields map[string]interface{}) {
	l.log(LevelDebug, operation, message, fields)
}

func (l *Logger) Info(operation, message string, fields map[string]interface{}) {
	l.log(LevelInfo, operation, message, fields)
}

func (l *Logger) Warn(operation, message string, fields map[string]interface{}) {
	l.log(LevelWarn, operation, message, fields)
}

func (l *Logger) Error(operation, message string, fields map[string]interface{}) {
	l.log(LevelError, operation, message, fields)
}

// Global is the process-wide logger, initialized once by cmd/pgoptimizer.
var Global *Logger

// Init sets the global logger.
func Init(service, environment string) {
	Global = New(service, environment)
}

func Info(operation, message string, fields map[string]interface{}) {
	if Global != nil {
		Global.Info(operation, message, fields)
	}
}

func Warn(operation, message string, fields map[string]interface{}) {
	if Global != nil {
		Global.Warn(operation, message, fields)
	}
}

func Error(operation, message string, fields map[string]interface{}) {
	if Global != nil {
		Global.Error(operation, message, fields)
	}
}

func Debug(operation, message string, fields map[string]interface{}) {
	if Global != nil {
		Global.Debug(operation, message, fields)
	}
}
