// Package logging provides the structured logger used across the storefront
// service. Loggers are named per component and take field maps.
package logging

import (
	"fmt"
	"os"
	"strings"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Fields carries structured key/value pairs for a log entry.
type Fields map[string]interface{}

var (
	baseMu sync.RWMutex
	base   = newBase(os.Getenv("LOG_LEVEL"), os.Getenv("LOG_FORMAT"))
)

// LoggerV2 is a named structured logger.
type LoggerV2 struct {
	zl *zap.Logger
}

// NewLoggerV2 creates a logger named after the component that owns it.
func NewLoggerV2(name string) *LoggerV2 {
	baseMu.RLock()
	defer baseMu.RUnlock()
	return &LoggerV2{zl: base.Named(name)}
}

// Configure replaces the process-wide backend. Loggers created earlier keep
// the backend they were created with.
func Configure(level, format string) {
	baseMu.Lock()
	defer baseMu.Unlock()
	base = newBase(level, format)
}

// NewNopLogger returns a logger that discards everything. Used in tests.
func NewNopLogger() *LoggerV2 {
	return &LoggerV2{zl: zap.NewNop()}
}

func newBase(level, format string) *zap.Logger {
	lvl := zapcore.InfoLevel
	if level != "" {
		if err := lvl.UnmarshalText([]byte(strings.ToLower(level))); err != nil {
			lvl = zapcore.InfoLevel
		}
	}

	cfg := zap.NewProductionConfig()
	if format == "console" {
		cfg = zap.NewDevelopmentConfig()
	}
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	cfg.EncoderConfig.TimeKey = "timestamp"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	zl, err := cfg.Build(zap.AddCallerSkip(1))
	if err != nil {
		return zap.NewNop()
	}
	return zl
}

func (l *LoggerV2) Debug(msg string, fields ...Fields) {
	l.zl.Debug(msg, toZap(fields)...)
}

func (l *LoggerV2) Info(msg string, fields ...Fields) {
	l.zl.Info(msg, toZap(fields)...)
}

func (l *LoggerV2) Warn(msg string, fields ...Fields) {
	l.zl.Warn(msg, toZap(fields)...)
}

func (l *LoggerV2) Error(msg string, fields ...Fields) {
	l.zl.Error(msg, toZap(fields)...)
}

// Fatal logs and exits the process.
func (l *LoggerV2) Fatal(msg string, fields ...Fields) {
	l.zl.Fatal(msg, toZap(fields)...)
}

// With returns a child logger that always carries the given fields.
func (l *LoggerV2) With(fields Fields) *LoggerV2 {
	return &LoggerV2{zl: l.zl.With(toZap([]Fields{fields})...)}
}

// Sync flushes buffered entries.
func (l *LoggerV2) Sync() error {
	return l.zl.Sync()
}

func toZap(fields []Fields) []zap.Field {
	if len(fields) == 0 {
		return nil
	}
	out := make([]zap.Field, 0, len(fields[0]))
	for _, f := range fields {
		for k, v := range f {
			out = append(out, zap.Any(k, v))
		}
	}
	return out
}

// Info logs through the process-wide logger.
func Info(msg string, fields ...Fields) {
	baseMu.RLock()
	zl := base
	baseMu.RUnlock()
	zl.Info(msg, toZap(fields)...)
}

// Infof logs a formatted message through the process-wide logger.
func Infof(format string, args ...interface{}) {
	baseMu.RLock()
	zl := base
	baseMu.RUnlock()
	zl.Info(fmt.Sprintf(format, args...))
}
