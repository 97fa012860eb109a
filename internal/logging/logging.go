// Package logging builds the process-wide zap logger and the logr.Logger
// adapter used by components (registry health loop, manifest refresher)
// that accept the controller-runtime-style logr.Logger interface.
package logging

import (
	"strings"

	"github.com/go-logr/logr"
	"github.com/go-logr/zapr"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New builds a *zap.Logger from an LOG_LEVEL string (debug|info|warn|error,
// case-insensitive, defaulting to info) in JSON production format.
func New(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(parseLevel(level))
	cfg.EncoderConfig.TimeKey = "timestamp"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	return cfg.Build()
}

func parseLevel(level string) zapcore.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return zapcore.DebugLevel
	case "warn", "warning":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

// AsLogr adapts a *zap.Logger to logr.Logger for collaborators written
// against the logr interface.
func AsLogr(l *zap.Logger) logr.Logger {
	return zapr.NewLogger(l)
}
