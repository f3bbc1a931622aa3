// Package server wires configuration and dependencies for the API
// server binary.
package server

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/questforge/questforge/internal/platform/config"
	"github.com/questforge/questforge/internal/platform/logging"
	platformotel "github.com/questforge/questforge/internal/platform/otel"
	advhttp "github.com/questforge/questforge/internal/services/adventure/api/httpapi"
	advapp "github.com/questforge/questforge/internal/services/adventure/app"
	"github.com/questforge/questforge/internal/services/adventure/gm"
	"github.com/questforge/questforge/internal/services/adventure/media"
	"github.com/questforge/questforge/internal/services/adventure/state"
	authhttp "github.com/questforge/questforge/internal/services/auth/api/httpapi"
	authapp "github.com/questforge/questforge/internal/services/auth/app"
	"github.com/questforge/questforge/internal/services/auth/password"
	authsqlite "github.com/questforge/questforge/internal/services/auth/storage/sqlite"
	"github.com/questforge/questforge/internal/services/auth/token"
	charhttp "github.com/questforge/questforge/internal/services/character/api/httpapi"
	charapp "github.com/questforge/questforge/internal/services/character/app"
	charsqlite "github.com/questforge/questforge/internal/services/character/storage/sqlite"
	transport "github.com/questforge/questforge/internal/transport/httpapi"
)

// Config holds API server configuration, loaded from QUESTFORGE_*
// environment variables.
type Config struct {
	HTTPAddr string `env:"QUESTFORGE_HTTP_ADDR" envDefault:":8000"`
	DataDir  string `env:"QUESTFORGE_DATA_DIR" envDefault:"data"`
	LogLevel string `env:"QUESTFORGE_LOG_LEVEL" envDefault:"info"`

	JWTSecret     string        `env:"QUESTFORGE_JWT_SECRET"`
	TokenIssuer   string        `env:"QUESTFORGE_TOKEN_ISSUER" envDefault:"questforge"`
	TokenAudience string        `env:"QUESTFORGE_TOKEN_AUDIENCE" envDefault:"questforge-api"`
	AccessTTL     time.Duration `env:"QUESTFORGE_ACCESS_TTL" envDefault:"30m"`

	OpenAIAPIKey  string `env:"QUESTFORGE_OPENAI_API_KEY"`
	OpenAIBaseURL string `env:"QUESTFORGE_OPENAI_BASE_URL"`
	GMModel       string `env:"QUESTFORGE_GM_MODEL"`
	MediaAudioDir string `env:"QUESTFORGE_MEDIA_AUDIO_DIR"`

	RedisAddr     string `env:"QUESTFORGE_REDIS_ADDR"`
	RedisPassword string `env:"QUESTFORGE_REDIS_PASSWORD"`
	RedisDB       int    `env:"QUESTFORGE_REDIS_DB"`

	RateAuthPerMinute    float64 `env:"QUESTFORGE_RATE_AUTH" envDefault:"5"`
	RateStrictPerMinute  float64 `env:"QUESTFORGE_RATE_STRICT" envDefault:"1"`
	RateGeneralPerMinute float64 `env:"QUESTFORGE_RATE_GENERAL" envDefault:"100"`
}

// ParseConfig loads server configuration from the environment, with
// flag overrides for the common knobs.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := config.ParseEnv(&cfg); err != nil {
		return Config{}, err
	}

	fs.StringVar(&cfg.HTTPAddr, "http-addr", cfg.HTTPAddr, "The HTTP listen address")
	fs.StringVar(&cfg.DataDir, "data-dir", cfg.DataDir, "Directory for SQLite databases and generated media")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "Log level (debug, info, warn, error)")
	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	if cfg.MediaAudioDir == "" {
		cfg.MediaAudioDir = filepath.Join(cfg.DataDir, "media", "tts")
	}
	return cfg, nil
}

// Run starts the API server and blocks until ctx is cancelled.
func Run(ctx context.Context, cfg Config) error {
	logger, err := logging.New("server", cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	shutdownTracing, err := platformotel.Setup(ctx, "questforge-server")
	if err != nil {
		return fmt.Errorf("setup tracing: %w", err)
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = shutdownTracing(flushCtx)
	}()

	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}

	authStore, err := authsqlite.Open(filepath.Join(cfg.DataDir, "auth.db"))
	if err != nil {
		return fmt.Errorf("open auth store: %w", err)
	}
	defer authStore.Close()

	charStore, err := charsqlite.Open(filepath.Join(cfg.DataDir, "characters.db"))
	if err != nil {
		return fmt.Errorf("open character store: %w", err)
	}
	defer charStore.Close()

	tokens, err := token.NewService(token.Config{
		Secret:    []byte(cfg.JWTSecret),
		Issuer:    cfg.TokenIssuer,
		Audience:  cfg.TokenAudience,
		AccessTTL: cfg.AccessTTL,
	})
	if err != nil {
		return fmt.Errorf("token service: %w", err)
	}
	authService, err := authapp.NewService(authStore, tokens, password.DefaultPolicy(), logger)
	if err != nil {
		return fmt.Errorf("auth service: %w", err)
	}
	characterService, err := charapp.NewService(charStore, logger)
	if err != nil {
		return fmt.Errorf("character service: %w", err)
	}
	if _, err := characterService.SeedSkills(ctx); err != nil {
		return fmt.Errorf("seed skill catalog: %w", err)
	}

	var gmClient gm.Client = gm.Disabled{}
	if cfg.OpenAIAPIKey != "" {
		gmClient = gm.NewOpenAIClient(gm.OpenAIConfig{
			APIKey:  cfg.OpenAIAPIKey,
			Model:   cfg.GMModel,
			BaseURL: cfg.OpenAIBaseURL,
		})
	} else {
		logger.Warn("no OpenAI API key configured, adventures use the stock fallback")
	}
	generator := media.NewGenerator(media.Config{
		APIKey:   cfg.OpenAIAPIKey,
		BaseURL:  cfg.OpenAIBaseURL,
		AudioDir: cfg.MediaAudioDir,
	})

	var sessions state.Store
	if cfg.RedisAddr != "" {
		redisStore, err := state.NewRedisStore(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			return fmt.Errorf("connect adventure state store: %w", err)
		}
		defer redisStore.Close()
		sessions = redisStore
		logger.Info("adventure state in redis", zap.String("addr", cfg.RedisAddr))
	} else {
		sessions = state.NewMemoryStore()
	}

	adventureService, err := advapp.NewService(characterService, gmClient, generator, sessions, logger)
	if err != nil {
		return fmt.Errorf("adventure service: %w", err)
	}

	router := mux.NewRouter()
	router.Use(
		transport.RequestID,
		transport.RequestLogger(logger),
		transport.Recover(logger),
		transport.Trace("questforge"),
		transport.RateLimit(cfg.RateGeneralPerMinute),
	)

	authenticated := transport.Authenticate(authService)
	authhttp.NewHandler(authService, logger).RegisterWithLimits(router, authenticated,
		transport.RateLimit(cfg.RateAuthPerMinute),
		transport.RateLimit(cfg.RateStrictPerMinute))
	charhttp.NewHandler(characterService, logger).Register(router, authenticated)
	advhttp.NewHandler(adventureService, generator, logger).Register(router, authenticated)

	if generator.Enabled() {
		router.PathPrefix(media.MountRoute + "/").Handler(
			http.StripPrefix(media.MountRoute+"/", http.FileServer(http.Dir(cfg.MediaAudioDir))))
	}

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		logger.Info("http server listening", zap.String("addr", cfg.HTTPAddr))
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown http server: %w", err)
	}
	logger.Info("http server stopped")
	return nil
}
