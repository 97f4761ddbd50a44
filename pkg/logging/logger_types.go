package logging

import (
	"io"
	"strings"
	"sync"
	"time"
)

// Level represents a log level
type Level int

const (
	// DebugLevel logs every merge step and timer event
	DebugLevel Level = iota
	// InfoLevel logs lifecycle transitions (init, reset, play, pause, exhausted)
	InfoLevel
	// WarnLevel logs rejected user actions and recoverable misconfiguration
	WarnLevel
	// ErrorLevel logs failures that abort an operation
	ErrorLevel
)

// String returns the string representation of a log level
func (l Level) String() string {
	switch l {
	case DebugLevel:
		return "DEBUG"
	case InfoLevel:
		return "INFO"
	case WarnLevel:
		return "WARN"
	case ErrorLevel:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// ParseLevel converts a string to a Level, defaulting to InfoLevel
func ParseLevel(s string) Level {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "DEBUG":
		return DebugLevel
	case "INFO":
		return InfoLevel
	case "WARN", "WARNING":
		return WarnLevel
	case "ERROR":
		return ErrorLevel
	default:
		return InfoLevel
	}
}

// Field represents a key-value pair for structured logging
type Field struct {
	Key   string
	Value any
}

// Logger is the interface for structured logging
type Logger interface {
	Debug(msg string, fields ...Field)
	Info(msg string, fields ...Field)
	Warn(msg string, fields ...Field)
	Error(msg string, fields ...Field)
	// With creates a child logger with the given fields pre-set
	With(fields ...Field) Logger
	SetLevel(level Level)
	GetLevel() Level
}

// JSONLogger implements Logger with one JSON object per line
type JSONLogger struct {
	out    *syncWriter
	level  *levelVar
	fields []Field
}

// syncWriter serialises writes from a logger and all of its children
type syncWriter struct {
	mu sync.Mutex
	w  io.Writer
}

// levelVar is shared between a logger and its children so SetLevel applies
// to the whole family
type levelVar struct {
	mu    sync.RWMutex
	level Level
}

// LogEntry represents a single log entry in JSON format
type LogEntry struct {
	Time    string         `json:"time"`
	Level   string         `json:"level"`
	Message string         `json:"msg"`
	Fields  map[string]any `json:"fields,omitempty"`
}

// NopLogger is a logger that does nothing (useful for testing)
type NopLogger struct{}

func (NopLogger) Debug(msg string, fields ...Field) {}
func (NopLogger) Info(msg string, fields ...Field)  {}
func (NopLogger) Warn(msg string, fields ...Field)  {}
func (NopLogger) Error(msg string, fields ...Field) {}
func (n NopLogger) With(fields ...Field) Logger     { return n }
func (NopLogger) SetLevel(level Level)              {}
func (NopLogger) GetLevel() Level                   { return InfoLevel }

// NewNopLogger creates a logger that discards all output
func NewNopLogger() Logger {
	return NopLogger{}
}

// TimedOperation helps measure operation duration
type TimedOperation struct {
	logger Logger
	msg    string
	start  time.Time
	fields []Field
}
