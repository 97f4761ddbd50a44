package logging

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// NewJSONLogger creates a new JSON logger
func NewJSONLogger(writer io.Writer, level Level) *JSONLogger {
	return &JSONLogger{
		out:   &syncWriter{w: writer},
		level: &levelVar{level: level},
	}
}

// NewFileLogger opens (or creates) path for appending and logs to it. The
// interactive viewer owns the terminal, so its logs go to a file instead of
// stdout. The returned closer closes the file.
func NewFileLogger(path string, level Level) (*JSONLogger, io.Closer, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, nil, fmt.Errorf("failed to create log directory: %w", err)
		}
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open log file: %w", err)
	}
	return NewJSONLogger(f, level), f, nil
}

// log is the internal logging method
func (l *JSONLogger) log(level Level, msg string, fields ...Field) {
	if level < l.GetLevel() {
		return
	}

	entry := LogEntry{
		Time:    time.Now().Format(time.RFC3339Nano),
		Level:   level.String(),
		Message: msg,
	}

	if n := len(l.fields) + len(fields); n > 0 {
		entry.Fields = make(map[string]any, n)
		for _, f := range l.fields {
			entry.Fields[f.Key] = f.Value
		}
		for _, f := range fields {
			entry.Fields[f.Key] = f.Value
		}
	}

	data, err := json.Marshal(entry)
	if err != nil {
		data = []byte(fmt.Sprintf(`{"level":"ERROR","msg":"failed to marshal log entry","error":%q}`, err.Error()))
	}
	data = append(data, '\n')

	l.out.mu.Lock()
	defer l.out.mu.Unlock()
	l.out.w.Write(data)
}

// Debug logs a debug-level message
func (l *JSONLogger) Debug(msg string, fields ...Field) {
	l.log(DebugLevel, msg, fields...)
}

// Info logs an info-level message
func (l *JSONLogger) Info(msg string, fields ...Field) {
	l.log(InfoLevel, msg, fields...)
}

// Warn logs a warning-level message
func (l *JSONLogger) Warn(msg string, fields ...Field) {
	l.log(WarnLevel, msg, fields...)
}

// Error logs an error-level message
func (l *JSONLogger) Error(msg string, fields ...Field) {
	l.log(ErrorLevel, msg, fields...)
}

// With creates a child logger with the given fields pre-set. The child
// shares the parent's writer and level.
func (l *JSONLogger) With(fields ...Field) Logger {
	newFields := make([]Field, 0, len(l.fields)+len(fields))
	newFields = append(newFields, l.fields...)
	newFields = append(newFields, fields...)

	return &JSONLogger{
		out:    l.out,
		level:  l.level,
		fields: newFields,
	}
}

// SetLevel sets the minimum log level
func (l *JSONLogger) SetLevel(level Level) {
	l.level.mu.Lock()
	defer l.level.mu.Unlock()
	l.level.level = level
}

// GetLevel returns the current log level
func (l *JSONLogger) GetLevel() Level {
	l.level.mu.RLock()
	defer l.level.mu.RUnlock()
	return l.level.level
}

var (
	defaultMu     sync.RWMutex
	defaultLogger Logger
)

// DefaultLogger returns the global default logger. Unless replaced with
// SetDefaultLogger it writes to stderr at the level named by LOG_LEVEL.
func DefaultLogger() Logger {
	defaultMu.RLock()
	logger := defaultLogger
	defaultMu.RUnlock()
	if logger != nil {
		return logger
	}

	defaultMu.Lock()
	defer defaultMu.Unlock()
	if defaultLogger == nil {
		defaultLogger = NewJSONLogger(os.Stderr, ParseLevel(os.Getenv("LOG_LEVEL")))
	}
	return defaultLogger
}

// SetDefaultLogger sets the global default logger
func SetDefaultLogger(logger Logger) {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	defaultLogger = logger
}

// Info logs an info-level message using the default logger
func Info(msg string, fields ...Field) {
	DefaultLogger().Info(msg, fields...)
}

// Warn logs a warning-level message using the default logger
func Warn(msg string, fields ...Field) {
	DefaultLogger().Warn(msg, fields...)
}

// ErrorLog logs an error-level message using the default logger
// Named ErrorLog to avoid conflict with Error field constructor
func ErrorLog(msg string, fields ...Field) {
	DefaultLogger().Error(msg, fields...)
}

// StartTimer begins timing an operation
func StartTimer(logger Logger, msg string, fields ...Field) *TimedOperation {
	return &TimedOperation{
		logger: logger,
		msg:    msg,
		start:  time.Now(),
		fields: fields,
	}
}

// End logs the operation with its duration at debug level
func (t *TimedOperation) End(fields ...Field) {
	all := append(append(t.fields, fields...), Latency(time.Since(t.start)))
	t.logger.Debug(t.msg, all...)
}

// EndError logs the operation as an error with its duration
func (t *TimedOperation) EndError(err error) {
	t.logger.Error(t.msg, append(t.fields, Latency(time.Since(t.start)), Error(err))...)
}
