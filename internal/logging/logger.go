// Package logging provides structured logging for pipeline runs.
// It wraps log/slog with a JSON handler so that run logs can be
// correlated and inspected after the fact.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// Log levels accepted by NewLogger.
const (
	LevelDebug = "DEBUG"
	LevelInfo  = "INFO"
	LevelWarn  = "WARN"
	LevelError = "ERROR"
)

// Logger emits JSON-formatted structured logs. Child loggers created
// with the With* methods carry persistent attributes (run, stage) on
// every entry. Safe for concurrent use.
type Logger struct {
	logger *slog.Logger
	file   *os.File
}

// NewLogger creates a Logger writing to logFile, or to stderr when
// logFile is empty. The parent directory is created if needed.
func NewLogger(logFile, level string) (*Logger, error) {
	var writer io.Writer = os.Stderr
	var file *os.File

	if logFile != "" {
		if err := os.MkdirAll(filepath.Dir(logFile), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create log directory: %w", err)
		}
		f, err := os.OpenFile(logFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, fmt.Errorf("failed to open log file: %w", err)
		}
		writer = f
		file = f
	}

	handler := slog.NewJSONHandler(writer, &slog.HandlerOptions{Level: parseLevel(level)})
	return &Logger{logger: slog.New(handler), file: file}, nil
}

// NewTestLogger returns a logger that discards all output. Intended
// for tests.
func NewTestLogger() *Logger {
	return &Logger{logger: slog.New(slog.NewJSONHandler(io.Discard, nil))}
}

func parseLevel(level string) slog.Level {
	switch strings.ToUpper(level) {
	case LevelDebug:
		return slog.LevelDebug
	case LevelWarn:
		return slog.LevelWarn
	case LevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// WithRun returns a child logger with the run ID attached to all entries.
func (l *Logger) WithRun(runID string) *Logger {
	return l.with(slog.String("run_id", runID))
}

// WithStage returns a child logger with the stage name attached to all entries.
func (l *Logger) WithStage(stage string) *Logger {
	return l.with(slog.String("stage", stage))
}

// With returns a child logger with arbitrary alternating key-value attributes.
func (l *Logger) With(args ...any) *Logger {
	return &Logger{logger: l.logger.With(args...), file: l.file}
}

func (l *Logger) with(attr slog.Attr) *Logger {
	return &Logger{logger: l.logger.With(attr), file: l.file}
}

// Debug logs at DEBUG level with optional key-value pairs.
func (l *Logger) Debug(msg string, args ...any) { l.logger.Debug(msg, args...) }

// Info logs at INFO level with optional key-value pairs.
func (l *Logger) Info(msg string, args ...any) { l.logger.Info(msg, args...) }

// Warn logs at WARN level with optional key-value pairs.
func (l *Logger) Warn(msg string, args ...any) { l.logger.Warn(msg, args...) }

// Error logs at ERROR level with optional key-value pairs.
func (l *Logger) Error(msg string, args ...any) { l.logger.Error(msg, args...) }

// Close closes the underlying log file, if any.
func (l *Logger) Close() error {
	if l.file != nil {
		return l.file.Close()
	}
	return nil
}
