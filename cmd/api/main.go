package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"pe_modeller/pkg/api/model"
	"pe_modeller/pkg/config"
	"pe_modeller/pkg/core/sensitivity"
	"pe_modeller/pkg/core/store"
	"pe_modeller/pkg/logger"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.New("info", "development").Fatal("failed to load config", "error", err)
	}

	log := logger.New(cfg.LogLevel, cfg.Environment)
	defer log.Sync() //nolint:errcheck

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sweeps, err := config.LoadSweeps(cfg.SweepsFile)
	if err != nil {
		log.Fatal("failed to load sweeps", "error", err, "path", cfg.SweepsFile)
	}

	// Postgres is optional; without it the cache uses memory and CACHE_DIR.
	if err := store.InitDB(ctx, cfg.DatabaseURL); err != nil {
		if !errors.Is(err, store.ErrNoDatabaseURL) {
			log.WithError(err).Warn("database unavailable, sweep cache stays local")
		}
	} else {
		log.Info("sweep cache backed by postgres")
	}
	defer store.Close()

	cache, err := store.NewSweepCache(store.GetPool(), cfg.CacheDir, cfg.CacheTTL)
	if err != nil {
		log.Fatal("failed to create sweep cache", "error", err)
	}

	runner := sensitivity.NewRunner(cfg.SweepWorkers, cache)
	handler := model.NewHandler(runner, sweeps, log)

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           model.NewRouter(handler, log),
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Infow("API server starting",
			"addr", cfg.HTTPAddr,
			"workers", runner.Workers(),
			"swings", len(sweeps.Swings),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Fatal("server stopped with error", "error", err)
	}
	log.Info("server stopped")
}
