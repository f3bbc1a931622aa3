// Package maintenance implements the periodic cleanup sweeper for
// expired sessions and password-reset tokens.
package maintenance

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/questforge/questforge/internal/platform/config"
	"github.com/questforge/questforge/internal/platform/logging"
	"github.com/questforge/questforge/internal/services/auth/storage"
	authsqlite "github.com/questforge/questforge/internal/services/auth/storage/sqlite"
)

// Config holds sweeper configuration, loaded from QUESTFORGE_*
// environment variables. A zero interval runs one sweep and exits.
type Config struct {
	DataDir  string        `env:"QUESTFORGE_DATA_DIR" envDefault:"data"`
	Interval time.Duration `env:"QUESTFORGE_CLEANUP_INTERVAL" envDefault:"0"`
	LogLevel string        `env:"QUESTFORGE_LOG_LEVEL" envDefault:"info"`
}

// ParseConfig loads sweeper configuration from the environment.
func ParseConfig() (Config, error) {
	var cfg Config
	if err := config.ParseEnv(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Run sweeps expired auth records once, or on every interval tick
// until ctx is cancelled.
func Run(ctx context.Context, cfg Config) error {
	logger, err := logging.New("maintenance", cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	store, err := authsqlite.Open(filepath.Join(cfg.DataDir, "auth.db"))
	if err != nil {
		return fmt.Errorf("open auth store: %w", err)
	}
	defer store.Close()

	if cfg.Interval <= 0 {
		return Sweep(ctx, store, logger)
	}

	ticker := time.NewTicker(cfg.Interval)
	defer ticker.Stop()
	logger.Info("cleanup sweeper running", zap.Duration("interval", cfg.Interval))
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := Sweep(ctx, store, logger); err != nil {
				logger.Error("cleanup sweep failed", zap.Error(err))
			}
		}
	}
}

// Sweep removes expired sessions and stale reset tokens.
func Sweep(ctx context.Context, store storage.Store, logger *zap.Logger) error {
	now := time.Now().UTC()
	sessions, err := store.DeleteExpiredSessions(ctx, now)
	if err != nil {
		return fmt.Errorf("delete expired sessions: %w", err)
	}
	resets, err := store.DeleteExpiredResetTokens(ctx, now)
	if err != nil {
		return fmt.Errorf("delete expired reset tokens: %w", err)
	}
	logger.Info("cleanup sweep finished",
		zap.Int64("sessions", sessions),
		zap.Int64("reset_tokens", resets))
	return nil
}
