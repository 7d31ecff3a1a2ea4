// Command ecosight serves the environmental-site analytics API over the
// read-only site database.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/restorical/ecosight/internal/auth"
	"github.com/restorical/ecosight/internal/config"
	"github.com/restorical/ecosight/internal/processing"
	"github.com/restorical/ecosight/internal/ratelimit"
	"github.com/restorical/ecosight/internal/server"
	"github.com/restorical/ecosight/internal/storage"
	"github.com/restorical/ecosight/internal/telemetry"
)

// version is set at build time via -ldflags.
var version = "dev"

func main() {
	os.Exit(run0())
}

func run0() int {
	level := slog.LevelInfo
	if os.Getenv("ECOSIGHT_LOG_LEVEL") == "debug" {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, logger); err != nil {
		slog.Error("fatal error", "error", err)
		return 1
	}
	return 0
}

func run(ctx context.Context, logger *slog.Logger) error {
	// Load .env file if present (non-fatal; production won't have one).
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	slog.Info("ecosight starting", "version", version, "port", cfg.Port)

	// Initialize OpenTelemetry.
	otelShutdown, err := telemetry.Init(ctx, cfg.OTELEndpoint, cfg.ServiceName, version, cfg.OTELInsecure)
	if err != nil {
		return fmt.Errorf("telemetry: %w", err)
	}
	defer func() { _ = otelShutdown(context.Background()) }()

	// Open the site database read-only. The ingestion pipeline owns the
	// schema; this process never writes.
	db, err := storage.Open(ctx, cfg.DBPath, cfg.BusyTimeout, logger)
	if err != nil {
		return fmt.Errorf("storage: %w", err)
	}
	defer func() { _ = db.Close() }()

	// Create JWT manager.
	jwtMgr, err := auth.NewJWTManager(cfg.JWTPrivateKeyPath, cfg.JWTPublicKeyPath, cfg.JWTExpiration)
	if err != nil {
		return fmt.Errorf("auth: %w", err)
	}

	// Resolve the viewer credential. A plaintext password is hashed at
	// startup so only the hash lives in memory afterwards.
	passwordHash := cfg.PasswordHash
	if passwordHash == "" {
		passwordHash, err = auth.HashPassword(cfg.Password)
		if err != nil {
			return fmt.Errorf("auth: hash password: %w", err)
		}
	}

	// Create the processing client and gate when a trigger target is
	// configured.
	var processor *processing.Client
	var gate *processing.Gate
	if cfg.ProcessAPIBase != "" && cfg.ProcessAPIToken != "" {
		processor = processing.NewClient(cfg.ProcessAPIBase, cfg.ProcessAPIToken, cfg.ProcessTimeout)
		gate = processing.NewGate(cfg.ProcessCooldown)
		logger.Info("processing trigger: enabled", "base", cfg.ProcessAPIBase, "cooldown", cfg.ProcessCooldown)
	} else {
		logger.Info("processing trigger: disabled (no PROCESS_API_TOKEN)")
	}

	// Create rate limiter.
	var limiter ratelimit.Limiter
	if cfg.RateLimitRPS > 0 {
		limiter = ratelimit.NewMemoryLimiter(float64(cfg.RateLimitRPS), cfg.RateLimitBurst)
		defer func() { _ = limiter.Close() }()
		logger.Info("rate limiting: memory (in-process token bucket)",
			"rps", cfg.RateLimitRPS, "burst", cfg.RateLimitBurst)
	} else {
		limiter = ratelimit.NoopLimiter{}
		logger.Info("rate limiting: disabled")
	}

	srv := server.New(server.ServerConfig{
		DB:                  db,
		JWTMgr:              jwtMgr,
		PasswordHash:        passwordHash,
		Processor:           processor,
		Gate:                gate,
		Limiter:             limiter,
		Logger:              logger,
		Port:                cfg.Port,
		ReadTimeout:         cfg.ReadTimeout,
		WriteTimeout:        cfg.WriteTimeout,
		Version:             version,
		MaxRequestBodyBytes: cfg.MaxRequestBodyBytes,
		MaxPageSize:         cfg.MaxPageSize,
		ResultsBaseURL:      cfg.ResultsBaseURL,
	})

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.WriteTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	}
}
