package logger

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	// Default is the default logger instance
	Default *zap.SugaredLogger
)

func init() {
	l, err := New("info", "console")
	if err != nil {
		panic(err)
	}
	Default = l
}

func parseLevel(level string) zapcore.Level {
	switch strings.ToLower(level) {
	case "debug":
		return zapcore.DebugLevel
	case "info":
		return zapcore.InfoLevel
	case "warn", "warning":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

// New creates a new structured logger with the specified level and format.
// Format is "json" (production encoding) or "console".
func New(level, format string) (*zap.SugaredLogger, error) {
	var cfg zap.Config

	switch strings.ToLower(format) {
	case "", "console":
		cfg = zap.NewDevelopmentConfig()
	case "json":
		cfg = zap.NewProductionConfig()
	default:
		return nil, fmt.Errorf("invalid log format: %s", format)
	}
	cfg.Level = zap.NewAtomicLevelAt(parseLevel(level))

	l, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build logger: %w", err)
	}
	return l.Sugar(), nil
}

// SetDefault sets the default logger
func SetDefault(l *zap.SugaredLogger) {
	Default = l
}

// Debug logs a debug message with key-value attributes
func Debug(msg string, args ...any) {
	Default.Debugw(msg, args...)
}

// Info logs an info message with key-value attributes
func Info(msg string, args ...any) {
	Default.Infow(msg, args...)
}

// Warn logs a warning message with key-value attributes
func Warn(msg string, args ...any) {
	Default.Warnw(msg, args...)
}

// Error logs an error message with key-value attributes
func Error(msg string, args ...any) {
	Default.Errorw(msg, args...)
}

// With returns a logger with additional attributes
func With(args ...any) *zap.SugaredLogger {
	return Default.With(args...)
}

// Sync flushes any buffered log entries
func Sync() {
	_ = Default.Sync()
}
