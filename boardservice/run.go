// Package boardservice boots the HTTP board service: config, storage,
// optional feed cache, router, health checkers and graceful shutdown.
package boardservice

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/harborpost/harborpost/internal/api"
	"github.com/harborpost/harborpost/internal/auth"
	"github.com/harborpost/harborpost/internal/cache"
	"github.com/harborpost/harborpost/internal/config"
	"github.com/harborpost/harborpost/internal/health"
	"github.com/harborpost/harborpost/internal/logger"
	"github.com/harborpost/harborpost/internal/services"
	"github.com/harborpost/harborpost/internal/store"
	"github.com/harborpost/harborpost/internal/store/memory"
	"github.com/harborpost/harborpost/internal/store/postgres"
	"github.com/harborpost/harborpost/internal/store/sqlite"
)

// Run starts the board service HTTP server and blocks until shutdown or error.
func Run() error {
	log := logger.New("board-service")

	cfg, err := config.New()
	if err != nil {
		log.Error().Err(err).Msg("Failed to load configuration")
		return err
	}

	log.Info().
		Str("environment", string(cfg.Environment)).
		Str("db_driver", cfg.DBDriver).
		Int("http_port", cfg.HTTPPort).
		Bool("feed_cache", cfg.RedisURL != "").
		Msg("Board service starting")

	// Cancellable root context bound to SIGINT/SIGTERM
	ctx, stop := newServerContext()
	defer stop()

	st, err := newStore(ctx, cfg, log)
	if err != nil {
		log.Error().Stack().Err(err).Msg("Store adapter unavailable")
		return err
	}

	feedCache := newFeedCache(cfg, log)

	router := buildRouter(st, feedCache)

	// Start health checkers and bind service health
	svcHealth := startHealthCheckers(ctx, log, st)

	// Block startup until dependencies report healthy; fail fast otherwise
	if err := waitUntilHealthy(ctx, cfg, svcHealth); err != nil {
		log.Error().Stack().Err(err).Msg("startup health check failed")
		return err
	}

	server := newHTTPServer(ctx, cfg, router)
	errCh := serveHTTP(server, log, cfg)

	select {
	case <-ctx.Done():
		log.Info().Msg("Shutting down server")
		grace := time.Duration(cfg.ShutdownGraceSecs) * time.Second
		ctxShutdown, cancel := context.WithTimeout(context.Background(), grace)
		defer cancel()
		if err := server.Shutdown(ctxShutdown); err != nil {
			log.Error().Stack().Err(err).Msg("Server forced to shutdown")
			return err
		}
		log.Info().Msg("Server exited")
		return nil
	case err := <-errCh:
		log.Error().Stack().Err(err).Msg("HTTP server failed")
		return err
	}
}

// newStore selects the storage adapter from configuration.
func newStore(ctx context.Context, cfg *config.Config, log zerolog.Logger) (store.Store, error) {
	switch cfg.DBDriver {
	case "postgres":
		db, err := postgres.Open(cfg.PostgresDSN)
		if err != nil {
			return nil, err
		}
		if err := postgres.Bootstrap(ctx, db); err != nil {
			return nil, err
		}
		log.Info().Msg("Using Postgres store")
		return postgres.NewWithDB(db), nil
	case "sqlite":
		st, err := sqlite.New(cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		log.Info().Str("path", cfg.SQLitePath).Msg("Using SQLite store")
		return st, nil
	case "memory":
		log.Warn().Msg("Using in-memory store; data is not persisted")
		return memory.New(), nil
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER: %s", cfg.DBDriver)
	}
}

// newFeedCache connects the Redis feed cache when configured. A cache
// failure is logged and the service runs without caching.
func newFeedCache(cfg *config.Config, log zerolog.Logger) services.FeedCache {
	if cfg.RedisURL == "" {
		return nil
	}
	ttl := time.Duration(cfg.FeedCacheTTLSecs) * time.Second
	fc, err := cache.New(cfg.RedisURL, ttl)
	if err != nil {
		log.Warn().Err(err).Msg("Feed cache unavailable; continuing without it")
		return nil
	}
	log.Info().Dur("ttl", ttl).Msg("Feed cache enabled")
	return fc
}

// buildRouter wires services to the HTTP surface.
func buildRouter(st store.Store, feedCache services.FeedCache) http.Handler {
	posts := services.NewPostService(st, feedCache)
	replies := services.NewReplyService(st)
	queries := services.NewQueryService(st, feedCache)
	return api.NewRouter(posts, replies, queries, auth.NewHeaderAuthorizer())
}

// startHealthCheckers starts component checkers and the service aggregator.
func startHealthCheckers(ctx context.Context, log zerolog.Logger, st store.Store) *health.ServiceHealthChecker {
	const probeTimeout = 2 * time.Second
	const interval = 5 * time.Second

	storeChecker := health.NewStoreChecker(st, log, probeTimeout)
	go storeChecker.Start(ctx, interval)

	svcHealth := health.NewServiceHealthChecker(log, storeChecker)
	go svcHealth.Start(ctx, interval)
	api.BindServiceHealth(svcHealth.IsHealthy)
	return svcHealth
}

func newHTTPServer(ctx context.Context, cfg *config.Config, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           handler,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}
}

func serveHTTP(server *http.Server, log zerolog.Logger, cfg *config.Config) <-chan error {
	errCh := make(chan error, 1)
	go func() {
		log.Info().Int("port", cfg.HTTPPort).Msg("HTTP server starting")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()
	return errCh
}

// waitUntilHealthy blocks until service health is healthy or the startup window expires.
func waitUntilHealthy(ctx context.Context, cfg *config.Config, svcHealth *health.ServiceHealthChecker) error {
	timeout := time.Duration(cfg.StartupHealthSecs) * time.Second
	deadline := time.Now().Add(timeout)
	ticker := time.NewTicker(250 * time.Millisecond)
	defer ticker.Stop()
	for {
		if svcHealth.IsHealthy() {
			return nil
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("startup aborted: dependencies not healthy within %s", timeout)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// newServerContext returns a cancellable context that is cancelled on SIGINT/SIGTERM.
func newServerContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}
