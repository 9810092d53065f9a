package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/jonboulle/clockwork"

	httpadapter "github.com/couchcryptid/agro-climate-viz/internal/adapter/http"
	"github.com/couchcryptid/agro-climate-viz/internal/config"
	"github.com/couchcryptid/agro-climate-viz/internal/observability"
	"github.com/couchcryptid/agro-climate-viz/internal/pipeline"
	"github.com/couchcryptid/agro-climate-viz/internal/session"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := sharedobs.NewLogger(cfg.LogLevel, cfg.LogFormat)
	slog.SetDefault(logger)
	metrics := observability.NewMetrics()

	source := pipeline.NewSource(cfg.DataBasePath, cfg.DataFetchTimeout, logger)
	loader := pipeline.NewLoader(source, pipeline.Files{
		Yields:   cfg.DataYieldFile,
		Trends:   cfg.DataTrendFile,
		Geometry: cfg.DataGeometryFile,
	}, logger, metrics)

	srv := httpadapter.NewServer(cfg.HTTPAddr, loader, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Start HTTP server.
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	// Load the datasets once. The page shows a loading notice until this
	// finishes and the failure message if it does not succeed.
	go func() {
		records, err := loader.Load(ctx)
		if err != nil {
			logger.Error("datasets unavailable", "error", err, "base_path", cfg.DataBasePath)
			srv.Fail(err)
			return
		}
		sessions := session.NewStore(records, cfg.SessionCacheSize, cfg.SessionIdleTimeout, clockwork.NewRealClock(), logger, metrics)
		srv.Attach(records, sessions)
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}

	logger.Info("shutdown complete")
}
