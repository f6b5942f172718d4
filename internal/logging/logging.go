// Package logging builds the process logger.
package logging

import (
	"os"
	"strings"

	"go.uber.org/zap"
)

// DebugEnv forces debug logging when set to any non-empty value.
const DebugEnv = "DEBUG_MCP_ECHARTS"

// New returns a production zap logger at level. A failed build yields a
// no-op logger so logging never takes the process down.
func New(level string) *zap.Logger {
	cfg := zap.NewProductionConfig()
	cfg.Level = ParseLevel(level)
	logger, err := cfg.Build()
	if err != nil {
		return zap.NewNop()
	}
	return logger
}

// FromEnv reads LOG_LEVEL, overridden by DEBUG_MCP_ECHARTS.
func FromEnv() *zap.Logger {
	if os.Getenv(DebugEnv) != "" {
		return New("debug")
	}
	return New(os.Getenv("LOG_LEVEL"))
}

// ParseLevel maps a level name to a zap level; unknown names mean info.
func ParseLevel(level string) zap.AtomicLevel {
	switch strings.ToLower(level) {
	case "debug":
		return zap.NewAtomicLevelAt(zap.DebugLevel)
	case "warn":
		return zap.NewAtomicLevelAt(zap.WarnLevel)
	case "error":
		return zap.NewAtomicLevelAt(zap.ErrorLevel)
	default:
		return zap.NewAtomicLevelAt(zap.InfoLevel)
	}
}
