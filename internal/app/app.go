package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/mobilityp/errorsender/internal/config"
	"github.com/mobilityp/errorsender/internal/crypto"
	"github.com/mobilityp/errorsender/internal/db"
	"github.com/mobilityp/errorsender/internal/desk365"
	"github.com/mobilityp/errorsender/internal/handler"
	appmw "github.com/mobilityp/errorsender/internal/middleware"
	"github.com/mobilityp/errorsender/internal/model"
	"github.com/mobilityp/errorsender/internal/report"
	"github.com/mobilityp/errorsender/internal/store"
)

type settingsStore interface {
	Load(ctx context.Context) (*model.IntegrationSettings, error)
	Save(ctx context.Context, settings *model.IntegrationSettings) error
}

type App struct {
	config    *config.Config
	logger    *slog.Logger
	pool      *pgxpool.Pool
	rdb       *redis.Client
	settings  settingsStore
	sessions  appmw.SessionReader
	forwarder *report.Forwarder
	checks    map[string]handler.Check
}

func (app *App) Close() {
	if app.rdb != nil {
		_ = app.rdb.Close()
	}
	if app.pool != nil {
		app.pool.Close()
	}
}

func New(ctx context.Context) (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	logger := newLogger(cfg)

	pool, err := db.Open(ctx, db.Config{DSN: cfg.DatabaseURL})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Migrate(pool); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	crypter, err := crypto.New([]byte(cfg.SettingsEncryptionKey))
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("settings crypter: %w", err)
	}
	settingsStore := store.NewSettingsStore(pool, crypter)

	fileStore, err := store.NewFileStore(pool, cfg.StorageRoot)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("file store: %w", err)
	}

	app := &App{
		config:   cfg,
		logger:   logger,
		pool:     pool,
		settings: settingsStore,
		checks: map[string]handler.Check{
			"database": pool.Ping,
		},
	}

	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			app.Close()
			return nil, fmt.Errorf("parse redis url: %w", err)
		}
		app.rdb = redis.NewClient(opts)
		app.sessions = store.NewSessionStore(app.rdb, cfg.SessionKeyPrefix)
		app.checks["redis"] = func(ctx context.Context) error {
			return app.rdb.Ping(ctx).Err()
		}
	} else {
		logger.Warn("REDIS_URL not set, session identities disabled")
	}

	client := desk365.NewClient(desk365.Config{
		Endpoint: cfg.Desk365URL,
		Timeout:  cfg.Desk365Timeout,
	})
	app.forwarder = report.NewForwarder(logger, settingsStore, fileStore, client)

	return app, nil
}

func (app *App) Start(ctx context.Context) error {
	// Create an errgroup derived from the parent context
	g, gctx := errgroup.WithContext(ctx)

	srv := &http.Server{
		Addr:        fmt.Sprintf(":%s", app.config.Port),
		Handler:     app.routes(),
		IdleTimeout: time.Minute,
		ReadTimeout: 30 * time.Second,
		// Desk365 has no client-side timeout by default; leave room for it.
		WriteTimeout: 2 * time.Minute,
		ErrorLog:     slog.NewLogLogger(app.logger.Handler(), slog.LevelError),
	}

	g.Go(func() error {
		app.logger.Info("starting server", "addr", srv.Addr, "env", app.config.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done() // Wait for OS signal or parent context to fail

		app.logger.Info("shutting down server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return fmt.Errorf("server error: %w", err)
	}

	app.logger.Info("stopped server")
	return nil
}

func newLogger(cfg *config.Config) *slog.Logger {
	logLevel := slog.LevelInfo

	if cfg.IsDevelopment() {
		logLevel = slog.LevelDebug
	}

	var h slog.Handler
	if cfg.IsProduction() {
		h = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})
	} else {
		h = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})
	}

	logger := slog.New(h)
	slog.SetDefault(logger)
	return logger
}
