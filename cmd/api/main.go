// AngelaMos | 2026
// main.go

package main

import (
	"context"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/brightclass/backend/internal/achievement"
	"github.com/brightclass/backend/internal/admin"
	"github.com/brightclass/backend/internal/auth"
	"github.com/brightclass/backend/internal/config"
	"github.com/brightclass/backend/internal/core"
	"github.com/brightclass/backend/internal/email"
	"github.com/brightclass/backend/internal/health"
	"github.com/brightclass/backend/internal/invitation"
	"github.com/brightclass/backend/internal/middleware"
	"github.com/brightclass/backend/internal/server"
	"github.com/brightclass/backend/internal/submission"
	"github.com/brightclass/backend/internal/user"
)

const (
	drainDelay = 5 * time.Second
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	flag.Parse()

	if err := run(*configPath); err != nil {
		slog.Error("application error", "error", err)
		os.Exit(1)
	}
}

//nolint:funlen // bootstrap code is inherently verbose
func run(configPath string) error {
	ctx, stop := signal.NotifyContext(
		context.Background(),
		syscall.SIGINT,
		syscall.SIGTERM,
	)
	defer stop()

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	logger := setupLogger(cfg.Log)
	slog.SetDefault(logger)

	logger.Info("starting application",
		"name", cfg.App.Name,
		"version", cfg.App.Version,
		"environment", cfg.App.Environment,
	)

	var telemetry *core.Telemetry
	if cfg.Otel.Enabled {
		tel, telErr := core.NewTelemetry(ctx, cfg.Otel, cfg.App)
		if telErr != nil {
			logger.Warn("failed to initialize telemetry", "error", telErr)
		} else {
			telemetry = tel
			logger.Info("OpenTelemetry tracer initialized",
				"endpoint", cfg.Otel.Endpoint,
			)
		}
	}

	db, err := core.NewDatabase(ctx, cfg.Database)
	if err != nil {
		return err
	}
	logger.Info("database connected",
		"max_open_conns", cfg.Database.MaxOpenConns,
		"max_idle_conns", cfg.Database.MaxIdleConns,
	)

	redis, err := core.NewRedis(ctx, cfg.Redis)
	if err != nil {
		return err
	}
	logger.Info("redis connected",
		"pool_size", cfg.Redis.PoolSize,
	)

	if cfg.IsDevelopment() {
		if _, statErr := os.Stat(cfg.JWT.PrivateKeyPath); os.IsNotExist(statErr) {
			if genErr := auth.GenerateKeyPair(cfg.JWT.PrivateKeyPath, cfg.JWT.PublicKeyPath); genErr != nil {
				return genErr
			}
			logger.Info("generated signing key pair",
				"private_key_path", cfg.JWT.PrivateKeyPath,
			)
		}
	}

	jwtManager, err := auth.NewJWTManager(cfg.JWT)
	if err != nil {
		return err
	}
	logger.Info("JWT manager initialized",
		"algorithm", "ES256",
		"key_id", jwtManager.GetKeyID(),
	)

	dispatcher := newDispatcher(cfg.Email, logger)
	logger.Info("email dispatcher configured", "provider", cfg.Email.Provider)

	userRepo := user.NewRepository(db.DB)
	userSvc := user.NewService(userRepo)
	userHandler := user.NewHandler(userSvc)

	authRepo := auth.NewRepository(db.DB)
	authSvc := auth.NewService(authRepo, jwtManager, userSvc, redis.Client)
	authHandler := auth.NewHandler(authSvc)

	invStore := invitation.NewStore(db.DB)
	invSvc := invitation.NewService(
		invStore,
		userRepo,
		dispatcher,
		redis.Client,
		cfg.Invite,
		cfg.Email.DispatchTimeout,
		logger,
	)
	invHandler := invitation.NewHandler(invSvc)

	subRepo := submission.NewRepository(db.DB)

	achStore := achievement.NewStore(db.DB)
	achSvc := achievement.NewService(
		achStore,
		subRepo,
		achievement.DefaultTiers,
		logger,
	)
	achHandler := achievement.NewHandler(achSvc)

	subSvc := submission.NewService(subRepo, achSvc, logger)
	subHandler := submission.NewHandler(subSvc)

	healthHandler := health.NewHandler()
	healthHandler.AddCheck("database", db)
	healthHandler.AddCheck("redis", redis)

	adminHandler := admin.NewHandler(admin.HandlerConfig{
		DBStats:    db.Stats,
		RedisStats: redis.PoolStats,
		DBPing:     db.Ping,
		RedisPing:  redis.Ping,
		Platform:   admin.NewStatsSource(db.DB),
	})

	srv := server.New(server.Config{
		ServerConfig:  cfg.Server,
		HealthHandler: healthHandler,
		Logger:        logger,
	})

	router := srv.Router()

	router.Use(middleware.RequestID)
	router.Use(middleware.Logger(logger))
	router.Use(
		middleware.NewRateLimiter(redis.Client, middleware.RateLimitConfig{
			Limit: middleware.PerMinute(
				cfg.RateLimit.Requests,
				cfg.RateLimit.Burst,
			),
			FailOpen: true,
		}).Handler,
	)
	router.Use(middleware.SecurityHeaders(cfg.App.Environment == "production"))
	router.Use(middleware.CORS(cfg.CORS))

	healthHandler.RegisterRoutes(router)

	router.Get("/.well-known/jwks.json", jwtManager.GetJWKSHandler())

	authenticator := middleware.Authenticator(jwtManager, authSvc)
	roleLimiter := middleware.RoleRateLimiter(
		redis.Client,
		middleware.DefaultRoleLimits,
	)

	// Authenticated routes get the per-role limiter on top of the
	// global IP limiter; role comes from the verified token, so the
	// authenticator must run first.
	authenticated := func(next http.Handler) http.Handler {
		return authenticator(roleLimiter(next))
	}

	router.Route("/v1", func(r chi.Router) {
		authHandler.RegisterRoutes(r, authenticated)

		invHandler.RegisterRoutes(r)
		achHandler.RegisterRoutes(r, authenticated)
		subHandler.RegisterRoutes(r, authenticated)

		userHandler.RegisterRoutes(r, authenticated)

		r.Route("/admin", func(r chi.Router) {
			r.Use(authenticated)
			r.Use(middleware.RequireAdmin)

			invHandler.RegisterAdminRoutes(r)
			userHandler.RegisterAdminRoutes(r)
			adminHandler.RegisterRoutes(r)
		})

		r.Group(func(r chi.Router) {
			r.Use(authenticated)
			r.Use(middleware.RequireStaff)

			subHandler.RegisterStaffRoutes(r)
			achHandler.RegisterStaffRoutes(r)
		})
	})

	go pruneRefreshTokens(ctx, authRepo, logger)

	errChan := make(chan error, 1)
	go func() {
		errChan <- srv.Start()
	}()

	select {
	case err := <-errChan:
		return err
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(
		context.Background(),
		cfg.Server.ShutdownTimeout+drainDelay+5*time.Second,
	)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx, drainDelay); err != nil {
		logger.Error("server shutdown error", "error", err)
	}

	if telemetry != nil {
		if err := telemetry.Shutdown(shutdownCtx); err != nil {
			logger.Error("telemetry shutdown error", "error", err)
		}
	}

	if err := redis.Close(); err != nil {
		logger.Error("redis close error", "error", err)
	}

	if err := db.Close(); err != nil {
		logger.Error("database close error", "error", err)
	}

	logger.Info("application stopped")
	return nil
}

// pruneRefreshTokens deletes refresh tokens that expired more than a day
// ago, so rotation history stays queryable for a grace window.
func pruneRefreshTokens(
	ctx context.Context,
	repo auth.Repository,
	logger *slog.Logger,
) {
	ticker := time.NewTicker(1 * time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			deleted, err := repo.DeleteExpired(ctx)
			if err != nil {
				logger.Error("refresh token cleanup failed", "error", err)
				continue
			}
			if deleted > 0 {
				logger.Info("pruned expired refresh tokens", "count", deleted)
			}
		}
	}
}

func newDispatcher(cfg config.EmailConfig, logger *slog.Logger) email.Dispatcher {
	if cfg.Provider == "sendgrid" {
		return email.NewSendgridDispatcher(cfg)
	}
	return email.NewConsoleDispatcher(cfg.FrontendBaseURL, logger)
}

func setupLogger(cfg config.LogConfig) *slog.Logger {
	var handler slog.Handler

	level := slog.LevelInfo
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	opts := &slog.HandlerOptions{Level: level}

	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	return slog.New(handler)
}
