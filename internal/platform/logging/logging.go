// Package logging constructs the shared zap logger for QuestForge binaries.
package logging

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// New builds a production zap logger for the named service.
//
// When QUESTFORGE_LOG_LEVEL is set (debug, info, warn, error) it overrides
// the production default of info.
func New(service string, level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()

	switch strings.ToLower(strings.TrimSpace(level)) {
	case "", "info":
	case "debug":
		cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	case "warn":
		cfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	case "error":
		cfg.Level = zap.NewAtomicLevelAt(zap.ErrorLevel)
	default:
		return nil, fmt.Errorf("unknown log level %q", level)
	}

	logger, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}
	return logger.With(zap.String("service", service)), nil
}
