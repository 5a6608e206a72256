// Package server assembles and runs the folio auth server: storage,
// token services, HTTP routes, the background token sweep and graceful
// shutdown.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/robfig/cron/v3"

	"github.com/avolkov/folio/internal/server/auth"
	"github.com/avolkov/folio/internal/server/config"
	"github.com/avolkov/folio/internal/server/handlers"
	"github.com/avolkov/folio/internal/server/jwt"
	"github.com/avolkov/folio/internal/server/metrics"
	"github.com/avolkov/folio/internal/server/middleware"
	"github.com/avolkov/folio/internal/server/refresh"
	"github.com/avolkov/folio/internal/server/storage/cache"
	"github.com/avolkov/folio/internal/server/storage/sqlite"
)

// shutdownTimeout bounds graceful shutdown of in-flight requests.
const shutdownTimeout = 10 * time.Second

// App is the assembled server with everything it owns.
type App struct {
	config  *config.Config
	logger  *slog.Logger
	store   *sqlite.Storage
	tokens  *refresh.Manager
	httpSrv *http.Server
	cron    *cron.Cron
	version string
}

// NewApp wires the full dependency graph from configuration.
func NewApp(ctx context.Context, cfg *config.Config, version string) (*App, error) {
	logger := newLogger(cfg.LogLevel)

	store, err := sqlite.New(ctx, cfg.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("storage init failed: %w", err)
	}

	registry := prometheus.NewRegistry()
	m := metrics.New(registry)

	users, err := cache.NewUserStorage(store, cfg.CacheSize, logger, m)
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("cache init failed: %w", err)
	}

	signer, err := jwt.New(cfg.SecretKey, cfg.AccessTokenTTL)
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("jwt init failed: %w", err)
	}

	tokens := refresh.NewManager(store, refresh.Config{
		TTL:        cfg.RefreshTokenTTL,
		MaxPerUser: cfg.MaxTokensPerUser,
		Retention:  cfg.RevokedRetention,
	}, logger, m)

	svc := auth.NewService(users, store, signer, tokens, logger)

	authHandler := handlers.NewAuthHandler(logger, svc)
	healthHandler := handlers.NewHealthHandler(logger, tokens, version)

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/v1/auth/register", authHandler.Register)
	mux.HandleFunc("POST /api/v1/auth/login", authHandler.Login)
	mux.HandleFunc("POST /api/v1/auth/refresh", authHandler.Refresh)
	mux.HandleFunc("POST /api/v1/auth/logout", requireAuth(logger, authHandler.Logout))
	mux.HandleFunc("DELETE /api/v1/auth/delete-account", requireAuth(logger, authHandler.DeleteAccount))
	mux.HandleFunc("GET /api/v1/health", healthHandler.Health)
	mux.Handle("GET /metrics", m.Handler())

	// Outermost first: recovery, request logging, then optional
	// authentication for every route.
	var handler http.Handler = mux
	handler = middleware.Authenticate(signer, users, logger)(handler)
	handler = middleware.LoggingWithSkip(logger, []string{"/api/v1/health", "/metrics"})(handler)
	handler = middleware.Recovery(logger)(handler)

	app := &App{
		config: cfg,
		logger: logger,
		store:  store,
		tokens: tokens,
		httpSrv: &http.Server{
			Addr:              cfg.Addr,
			Handler:           handler,
			ReadHeaderTimeout: 5 * time.Second,
		},
		cron:    cron.New(),
		version: version,
	}

	if err := app.scheduleSweep(); err != nil {
		_ = store.Close()
		return nil, err
	}

	return app, nil
}

// requireAuth wraps a handler with the principal requirement. The
// Authenticate middleware already ran on the outer chain.
func requireAuth(logger *slog.Logger, h http.HandlerFunc) http.HandlerFunc {
	wrapped := middleware.RequireAuth(logger)(h)
	return wrapped.ServeHTTP
}

// scheduleSweep registers the periodic expired/revoked token cleanup.
func (app *App) scheduleSweep() error {
	_, err := app.cron.AddFunc(app.config.SweepSpec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()

		if err := app.tokens.Sweep(ctx); err != nil {
			app.logger.Error("token sweep failed", "error", err)
		}
	})
	if err != nil {
		return fmt.Errorf("failed to schedule token sweep %q: %w", app.config.SweepSpec, err)
	}

	return nil
}

// Run starts the HTTP server and the sweep scheduler, then blocks until
// the context is canceled or SIGINT/SIGTERM arrives. Shutdown drains
// in-flight requests before closing storage.
func (app *App) Run(ctx context.Context) error {
	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	app.cron.Start()

	errCh := make(chan error, 1)
	go func() {
		app.logger.Info("server starting",
			"addr", app.config.Addr, "version", app.version)

		if err := app.httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		app.shutdown(context.Background())
		return fmt.Errorf("http server failed: %w", err)
	case <-ctx.Done():
	}

	app.logger.Info("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	if err := app.httpSrv.Shutdown(shutdownCtx); err != nil {
		app.logger.Error("http shutdown failed", "error", err)
	}

	app.shutdown(shutdownCtx)

	return nil
}

// shutdown stops the scheduler and closes storage.
func (app *App) shutdown(ctx context.Context) {
	stopped := app.cron.Stop()
	select {
	case <-stopped.Done():
	case <-ctx.Done():
	}

	if err := app.store.Close(); err != nil {
		app.logger.Error("storage close failed", "error", err)
	}
}

// newLogger builds the process-wide structured logger.
func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}

	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl}))
}
