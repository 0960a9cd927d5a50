// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Command api is the entry point for the Gatekeeper HTTP API server.
//
// # Startup Sequence
//
//  1. Initialize structured logger.
//  2. Load configuration from environment variables.
//  3. Build storage backends (PostgreSQL + Redis, or in-memory).
//  4. Run database migrations (idempotent, postgres only).
//  5. Wire the identity service, workspace registry and HTTP handlers.
//  6. Start HTTP server with graceful shutdown.
//
// No business logic lives here. All wiring is explicit constructor injection.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/taibuivan/gatekeeper/internal/api"
	"github.com/taibuivan/gatekeeper/internal/identity"
	"github.com/taibuivan/gatekeeper/internal/platform/config"
	"github.com/taibuivan/gatekeeper/internal/platform/constants"
	"github.com/taibuivan/gatekeeper/internal/platform/docstore"
	"github.com/taibuivan/gatekeeper/internal/platform/kvcache"
	"github.com/taibuivan/gatekeeper/internal/platform/metrics"
	"github.com/taibuivan/gatekeeper/internal/platform/migration"
	pgstore "github.com/taibuivan/gatekeeper/internal/platform/postgres"
	redisstore "github.com/taibuivan/gatekeeper/internal/platform/redis"
	"github.com/taibuivan/gatekeeper/internal/platform/sec"
	"github.com/taibuivan/gatekeeper/internal/users/profile"
	"github.com/taibuivan/gatekeeper/internal/workspace"
)

// backends groups the storage collaborators selected by STORAGE_DRIVER.
type backends struct {
	accounts     identity.AccountRepository
	resetTokens  identity.TokenRepository
	verifyTokens identity.TokenRepository
	documents    docstore.Store
	caches       kvcache.Backend
	health       api.HealthDependencies
	close        func()
}

func main() {
	// ── 1. Logger ──────────────────────────────────────────────────────────
	// Initialize first so that subsequent startup errors are structured JSON.
	rawLog := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	log := rawLog.With(slog.String("app", constants.AppName))
	slog.SetDefault(log)

	log.Info("service_initializing", slog.String("version", constants.AppVersion))

	// ── 2. Configuration ──────────────────────────────────────────────────
	cfg, err := config.Load()
	must(log, err, "load configuration")

	if cfg.Debug {
		debugLog := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		}))
		log = debugLog.With(slog.String("app", constants.AppName))
		slog.SetDefault(log)
		log.Debug("debug_logging_enabled")
	}

	log.Info("configuration_loaded",
		slog.String("environment", cfg.Environment),
		slog.String("port", cfg.ServerPort),
		slog.String("storage_driver", cfg.StorageDriver),
	)

	// Root context for startup. Use a 30s deadline so misconfiguration is
	// caught quickly rather than hanging indefinitely.
	startupCtx, startupCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer startupCancel()

	// ── 3. Storage ────────────────────────────────────────────────────────
	var stores backends
	if cfg.StorageDriver == config.DriverMemory {
		stores = memoryBackends(log)
	} else {
		stores, err = postgresBackends(startupCtx, cfg, log)
		must(log, err, "connect storage")
	}
	defer stores.close()

	// ── 4. Metrics ────────────────────────────────────────────────────────
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	collector := metrics.NewCollector(registry)

	// ── 5. Identity ───────────────────────────────────────────────────────
	tokens, err := sec.NewTokenService(cfg.SessionSecret, constants.AuthIssuer)
	must(log, err, "initialize workspace token service")

	identityService := identity.NewService(
		stores.accounts,
		stores.resetTokens,
		stores.verifyTokens,
		identity.NewLogMailer(log),
		identity.ServiceOptions{
			PublicBaseURL:      cfg.PublicBaseURL,
			AllowAnonymous:     cfg.AllowAnonymous,
			EmailRatePerMinute: cfg.EmailRatePerMinute,
		},
		log,
	)
	identityService.SetAccountGuard(profile.NewDisabledChecker(stores.documents, cfg.ProfileCollection))

	// ── 6. Workspaces ─────────────────────────────────────────────────────
	// Server lifetime context: cancelled on shutdown to stop background sweepers.
	serverCtx, serverCancel := context.WithCancel(context.Background())
	defer serverCancel()

	workspaces := workspace.NewRegistry(workspace.Shared{
		Identity:  identityService,
		Documents: stores.documents,
		Caches:    stores.caches,
		Recorder:  collector,
		Logger:    log,
		Profile: profile.Options{
			Collection:    cfg.ProfileCollection,
			CacheKey:      cfg.ProfileCacheKey,
			DefaultAvatar: cfg.DefaultAvatar,
		},
		IsAdminEmail: cfg.IsAdminEmail,
	}, cfg.WorkspaceIdleTTL)
	defer workspaces.Close()
	go workspaces.Run(serverCtx, constants.WorkspaceSweepInterval)

	// ── 7. HTTP Server ────────────────────────────────────────────────────
	liveness, readiness := api.NewHealthHandlers(stores.health, log)

	handlers := api.Handlers{
		Liveness:  liveness,
		Readiness: readiness,
		Metrics:   metrics.Handler(registry),
		Identity:  identity.NewHandler(identityService),
		Session:   api.NewSessionHandler(workspaces),
		Profile:   api.NewProfileHandler(workspaces),
		Admin:     api.NewAdminHandler(workspaces),
	}

	server := api.NewServer(serverCtx, cfg, log, tokens, collector, handlers)

	// ── 8. Graceful Shutdown ──────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGTERM, syscall.SIGINT)

	serverErr := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	// Block until OS signal or server error.
	select {
	case sig := <-quit:
		log.Info("shutdown_signal_received", slog.String("signal", sig.String()))
	case err := <-serverErr:
		log.Error("server_startup_error", slog.Any("error", err))
	}

	// Give in-flight requests enough time to complete.
	shutdownTimeout := constants.ShutdownTimeout
	log.Info("server_shutting_down", slog.Duration("timeout", shutdownTimeout))

	if err := server.Shutdown(shutdownTimeout); err != nil {
		log.Error("shutdown_error", slog.Any("error", err))
		os.Exit(1)
	}

	log.Info("server_stopped")
}

// postgresBackends connects PostgreSQL and Redis and runs migrations.
func postgresBackends(ctx context.Context, cfg *config.Config, log *slog.Logger) (backends, error) {
	pool, err := pgstore.NewPool(ctx, cfg.DatabaseURL, pgstore.PoolOptions{}, log)
	if err != nil {
		return backends{}, err
	}

	rdb, err := redisstore.NewClient(ctx, cfg.RedisURL, log)
	if err != nil {
		pool.Close()
		return backends{}, err
	}

	if err := migration.RunUp(cfg.DatabaseURL, cfg.MigrationPath, log); err != nil {
		pool.Close()
		_ = rdb.Close()
		return backends{}, err
	}

	return backends{
		accounts:     identity.NewAccountRepository(pool),
		resetTokens:  identity.NewTokenRepository(rdb, constants.RedisPrefixResetToken),
		verifyTokens: identity.NewTokenRepository(rdb, constants.RedisPrefixVerifyToken),
		documents:    docstore.NewPostgres(pool),
		caches:       kvcache.NewRedisBackend(rdb, cfg.WorkspaceIdleTTL),
		health: api.HealthDependencies{Probes: []api.HealthProbe{
			{Name: "postgres", Check: func(ctx context.Context) error { return pgstore.Ping(ctx, pool) }},
			{Name: "redis", Check: func(ctx context.Context) error { return redisstore.Ping(ctx, rdb) }},
		}},
		close: func() {
			log.Info("closing_redis_client")
			if cerr := rdb.Close(); cerr != nil {
				log.Error("redis_close_error", slog.Any("error", cerr))
			}
			log.Info("closing_postgres_pool")
			pool.Close()
		},
	}, nil
}

// memoryBackends keeps everything in process. Data is lost on restart.
func memoryBackends(log *slog.Logger) backends {
	log.Warn("storage_in_memory", slog.String("reason", "STORAGE_DRIVER=memory"))

	return backends{
		accounts:     identity.NewMemoryAccountRepository(),
		resetTokens:  identity.NewMemoryTokenRepository(),
		verifyTokens: identity.NewMemoryTokenRepository(),
		documents:    docstore.NewMemory(),
		caches:       kvcache.NewMemoryBackend(),
		close:        func() {},
	}
}

// must logs a structured fatal error and terminates the process if err is non-nil.
//
// It is intentionally limited to startup wiring. After startup, all errors
// must be returned and handled explicitly (never panic).
func must(log *slog.Logger, err error, context string) {
	if err != nil {
		log.Error("startup_failure",
			slog.String("context", context),
			slog.Any("error", err),
		)
		os.Exit(1)
	}
}
