package logging

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLogLevelString(t *testing.T) {
	tests := []struct {
		level    Level
		expected string
	}{
		{DebugLevel, "DEBUG"},
		{InfoLevel, "INFO"},
		{WarnLevel, "WARN"},
		{ErrorLevel, "ERROR"},
		{Level(42), "UNKNOWN"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			if got := tt.level.String(); got != tt.expected {
				t.Errorf("Level.String() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected Level
	}{
		{"DEBUG", DebugLevel},
		{"debug", DebugLevel},
		{" Info ", InfoLevel},
		{"warn", WarnLevel},
		{"WARNING", WarnLevel},
		{"error", ErrorLevel},
		{"", InfoLevel},
		{"invalid", InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := ParseLevel(tt.input); got != tt.expected {
				t.Errorf("ParseLevel(%q) = %v, want %v", tt.input, got, tt.expected)
			}
		})
	}
}

func TestDomainFields(t *testing.T) {
	tests := []struct {
		field Field
		key   string
		value any
	}{
		{Session("abc"), "session", "abc"},
		{Seed(42), "seed", int64(42)},
		{StreamID(3), "stream", 3},
		{Value(17), "value", 17},
		{State("RUNNING"), "state", "RUNNING"},
		{Comparisons(9), "comparisons", 9},
		{Duration("speed", 250*time.Millisecond), "speed", "250ms"},
		{Latency(2 * time.Second), "latency", "2s"},
		{Error(errors.New("boom")), "error", "boom"},
		{Error(nil), "error", nil},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			if tt.field.Key != tt.key || tt.field.Value != tt.value {
				t.Errorf("field = %+v, want {Key:%s Value:%v}", tt.field, tt.key, tt.value)
			}
		})
	}
}

func TestJSONLogger_BasicLogging(t *testing.T) {
	var buf bytes.Buffer
	logger := NewJSONLogger(&buf, DebugLevel)

	logger.Info("step", StreamID(2), Value(13))

	var entry LogEntry
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("Failed to unmarshal log entry: %v", err)
	}

	if entry.Level != "INFO" {
		t.Errorf("Level = %v, want INFO", entry.Level)
	}
	if entry.Message != "step" {
		t.Errorf("Message = %v, want step", entry.Message)
	}
	if entry.Fields["stream"] != float64(2) {
		t.Errorf("Fields[stream] = %v, want 2", entry.Fields["stream"])
	}
	if entry.Time == "" {
		t.Error("Time field is empty")
	}
}

func TestJSONLogger_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := NewJSONLogger(&buf, WarnLevel)

	logger.Debug("debug message")
	logger.Info("info message")
	logger.Warn("warn message")
	logger.Error("error message")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("Expected 2 log entries, got %d", len(lines))
	}

	for i, want := range []string{"WARN", "ERROR"} {
		var entry LogEntry
		if err := json.Unmarshal([]byte(lines[i]), &entry); err != nil {
			t.Fatalf("Failed to unmarshal entry %d: %v", i, err)
		}
		if entry.Level != want {
			t.Errorf("Entry %d level = %v, want %v", i, entry.Level, want)
		}
	}
}

func TestJSONLogger_WithSharesLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := NewJSONLogger(&buf, InfoLevel)
	child := logger.With(Component("engine"), Session("s-1"))

	child.Info("reset", Seed(7))

	var entry LogEntry
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("Failed to unmarshal: %v", err)
	}
	if entry.Fields["component"] != "engine" || entry.Fields["session"] != "s-1" {
		t.Errorf("preset fields missing: %v", entry.Fields)
	}
	if entry.Fields["seed"] != float64(7) {
		t.Errorf("seed field = %v, want 7", entry.Fields["seed"])
	}

	buf.Reset()
	logger.SetLevel(ErrorLevel)
	child.Info("filtered")
	if buf.Len() != 0 {
		t.Error("child logger should follow the parent's level")
	}
	if child.GetLevel() != ErrorLevel {
		t.Errorf("child level = %v, want ERROR", child.GetLevel())
	}
}

func TestJSONLogger_NoFieldsOmitted(t *testing.T) {
	var buf bytes.Buffer
	logger := NewJSONLogger(&buf, InfoLevel)

	logger.Info("message without fields")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("Failed to unmarshal: %v", err)
	}
	if _, exists := entry["fields"]; exists {
		t.Error("Expected fields key to be omitted when empty")
	}
}

func TestNewFileLogger(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "mergeviz.log")

	logger, closer, err := NewFileLogger(path, InfoLevel)
	if err != nil {
		t.Fatalf("NewFileLogger() error = %v", err)
	}
	logger.Info("opened", Path(path))
	if err := closer.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if !strings.Contains(string(data), `"msg":"opened"`) {
		t.Errorf("log file missing entry: %s", data)
	}
}

func TestGlobalHelperFunctions(t *testing.T) {
	var buf bytes.Buffer
	SetDefaultLogger(NewJSONLogger(&buf, DebugLevel))
	defer SetDefaultLogger(nil)

	Info("info msg")
	Warn("warn msg")
	ErrorLog("error msg")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("Expected 3 log entries, got %d", len(lines))
	}
}

func TestTimedOperation(t *testing.T) {
	var buf bytes.Buffer
	logger := NewJSONLogger(&buf, DebugLevel)

	op := StartTimer(logger, "merge run", Seed(1))
	op.End(Comparisons(4))

	var entry LogEntry
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("Failed to unmarshal: %v", err)
	}
	if entry.Level != "DEBUG" {
		t.Errorf("Level = %v, want DEBUG", entry.Level)
	}
	if _, ok := entry.Fields["latency"]; !ok {
		t.Error("latency field missing")
	}
	if entry.Fields["comparisons"] != float64(4) {
		t.Errorf("comparisons = %v, want 4", entry.Fields["comparisons"])
	}

	buf.Reset()
	StartTimer(logger, "journal write").EndError(errors.New("disk full"))
	if !strings.Contains(buf.String(), "disk full") {
		t.Errorf("EndError output missing error: %s", buf.String())
	}
	if !strings.Contains(buf.String(), `"latency"`) {
		t.Errorf("EndError output missing latency: %s", buf.String())
	}
}

func TestNopLogger(t *testing.T) {
	logger := NewNopLogger()
	logger.Info("ignored")
	if logger.With(Seed(1)) == nil {
		t.Error("With() returned nil")
	}
	if logger.GetLevel() != InfoLevel {
		t.Errorf("GetLevel() = %v, want INFO", logger.GetLevel())
	}
}

func BenchmarkJSONLogger_Info(b *testing.B) {
	var buf bytes.Buffer
	logger := NewJSONLogger(&buf, InfoLevel)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		logger.Info("step", StreamID(1), Value(42))
	}
}
