// Package app builds the long-lived filmbro services and runs the HTTP API.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/wildanrfq/filmbro/internal/api"
	"github.com/wildanrfq/filmbro/internal/cache"
	"github.com/wildanrfq/filmbro/internal/clock/system"
	"github.com/wildanrfq/filmbro/internal/config"
	collyfetcher "github.com/wildanrfq/filmbro/internal/fetcher/colly"
	"github.com/wildanrfq/filmbro/internal/format"
	"github.com/wildanrfq/filmbro/internal/id/uuid"
	"github.com/wildanrfq/filmbro/internal/letterboxd"
	"github.com/wildanrfq/filmbro/internal/logging"
	"github.com/wildanrfq/filmbro/internal/metrics"
	"github.com/wildanrfq/filmbro/internal/roulette"
	"github.com/wildanrfq/filmbro/internal/scraper"
	"github.com/wildanrfq/filmbro/internal/service"
	"github.com/wildanrfq/filmbro/internal/tmdb"
	"github.com/wildanrfq/filmbro/internal/workerpool"
)

const shutdownTimeout = 10 * time.Second

// App contains the application's dependencies.
type App struct {
	cfg       config.Config
	logger    *zap.Logger
	pool      *workerpool.Pool
	service   *service.Service
	apiServer *api.Server

	stopPool  context.CancelFunc
	poolDone  chan struct{}
	closeOnce sync.Once
}

// Build creates the application's dependencies and starts the worker pool.
// The caller must Close the App.
func Build(ctx context.Context, cfg config.Config) (*App, error) {
	logger, err := logging.New(logging.Options{Development: cfg.Logging.Development, Level: cfg.Logging.Level})
	if err != nil {
		return nil, fmt.Errorf("logger init failed: %w", err)
	}
	zap.ReplaceGlobals(logger)
	return build(ctx, cfg, logger, collyfetcher.New(collyfetcher.Config{
		UserAgent: cfg.HTTP.UserAgent,
		Timeout:   cfg.Timeout(),
	}))
}

func build(ctx context.Context, cfg config.Config, logger *zap.Logger, fetcher scraper.Fetcher) (*App, error) {
	logger.Info("building application dependencies",
		zap.Int("server_port", cfg.Server.Port),
		zap.Int("workers", cfg.Workers.Size),
		zap.Bool("tmdb_key_set", cfg.TMDB.APIKey != ""),
	)
	metrics.Init()

	pool := workerpool.New(cfg.Workers.Size, cfg.Workers.QueueDepth, logger.Named("pool"))
	poolCtx, stopPool := context.WithCancel(context.WithoutCancel(ctx))
	poolDone := make(chan struct{})
	go func() {
		defer close(poolDone)
		pool.Run(poolCtx)
	}()

	stars := format.Stars{Whole: cfg.Stars.Whole, Half: cfg.Stars.Half}
	pooled := workerpool.NewFetcher(pool, fetcher)
	lb := letterboxd.New(pooled, system.New(nil), letterboxd.Config{
		BaseURL: cfg.Letterboxd.BaseURL,
		Stars:   stars,
	}, logger.Named("letterboxd"))
	images := tmdb.New(tmdb.Config{
		APIBase:   cfg.TMDB.APIBase,
		ImageBase: cfg.TMDB.ImageBase,
		APIKey:    cfg.TMDB.APIKey,
		UserAgent: cfg.HTTP.UserAgent,
		Timeout:   cfg.Timeout(),
	}, logger.Named("tmdb"))

	backoffInitial, backoffMax := cfg.RouletteBackoff()
	svc, err := service.New(service.Deps{
		Letterboxd: lb,
		Images:     images,
		Pool:       pool,
		NewSpinner: func(films scraper.FilmFinder) service.Spinner {
			return roulette.New(pooled, films, roulette.Config{
				ShortLinkBase: cfg.Letterboxd.ShortLinkBase,
				MaxProbes:     cfg.Roulette.MaxProbes,
			},
				roulette.WithRetryPolicy(roulette.NewExponentialRetryPolicy(cfg.Roulette.Attempts, backoffInitial, backoffMax)),
				roulette.WithLogger(logger.Named("roulette")),
			)
		},
		Cache: cache.Options{
			MaxEntries:     cfg.Cache.MaxEntries,
			DedupeInflight: cfg.Cache.DedupeInflight,
		},
		Logger: logger.Named("service"),
	})
	if err != nil {
		stopPool()
		pool.Close()
		<-poolDone
		return nil, fmt.Errorf("service init failed: %w", err)
	}

	return &App{
		cfg:       cfg,
		logger:    logger,
		pool:      pool,
		service:   svc,
		apiServer: api.NewServer(svc, uuid.NewUUIDGenerator(), cfg, logger.Named("api")),
		stopPool:  stopPool,
		poolDone:  poolDone,
	}, nil
}

// Service returns the lookup service.
func (a *App) Service() *service.Service {
	return a.service
}

// Handler returns the HTTP API handler.
func (a *App) Handler() http.Handler {
	return a.apiServer.Handler()
}

// Logger returns the application logger.
func (a *App) Logger() *zap.Logger {
	return a.logger
}

// Run serves the HTTP API and blocks until the context is canceled or a
// termination signal arrives.
func (a *App) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", a.cfg.Server.Port),
		Handler:           a.apiServer.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		a.logger.Info("http server started", zap.Int("port", a.cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
			stop()
		}
		close(serveErr)
	}()

	<-ctx.Done()
	a.logger.Info("shutdown initiated")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("server shutdown error", zap.Error(err))
	}
	if err := <-serveErr; err != nil {
		return fmt.Errorf("http server: %w", err)
	}
	return nil
}

// Close stops the worker pool and flushes the logger. It is safe to call more
// than once.
func (a *App) Close() {
	a.closeOnce.Do(func() {
		a.pool.Close()
		a.stopPool()
		<-a.poolDone
		a.logger.Info("shutdown complete")
		_ = a.logger.Sync()
	})
}
