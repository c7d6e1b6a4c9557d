package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"fintrack/internal/backend"
	"fintrack/internal/cache"
	"fintrack/internal/cli"
	"fintrack/internal/config"
	apphttp "fintrack/internal/http"
	"fintrack/internal/insights"
	applog "fintrack/internal/log"
	"fintrack/internal/services"
	"fintrack/internal/worker"
)

const (
	shutdownTimeout      = 30 * time.Second
	cacheCleanupInterval = time.Minute
)

func main() {
	cfg, logger := cli.Bootstrap(applog.ComponentApp, (*config.Config).Validate)

	backendConfig, err := backend.FromAppConfig(cfg)
	if err != nil {
		cli.Fatal(logger, "Invalid backend configuration", err)
	}

	ctx, stop := cli.SignalContext(logger)
	defer stop()

	factory := backend.NewFactory(logger)
	storeResult, err := factory.CreateStore(ctx, backendConfig)
	if err != nil {
		cli.Fatal(logger, "Failed to initialize store", err, "backend", cfg.DataBackend)
	}
	st := storeResult.Store

	exporter, err := factory.CreateExporter(ctx, backendConfig)
	if err != nil {
		cli.Fatal(logger, "Failed to initialize exporter", err)
	}
	// Without a broker, exports run in this process.
	exportWorker := worker.NewExportWorker(st, st, exporter, logger)
	pub, err := factory.CreatePublisher(ctx, backendConfig, exportWorker.HandleEvent)
	if err != nil {
		cli.Fatal(logger, "Failed to initialize event publisher", err)
	}

	categories := services.NewCategoryService(st, cfg.CategoryCacheTTL, logger)
	caches := cache.NewManager(logger)
	caches.Register(categories.Cache())
	caches.StartCleanup(cacheCleanupInterval)

	svc := apphttp.Services{
		Profiles:     services.NewProfileService(st, pub.Publisher, logger),
		Goals:        services.NewGoalService(st, st, logger),
		Transactions: services.NewTransactionService(st, st, pub.Publisher, logger),
		Insights: services.NewInsightService(st, categories, insights.DashboardOptions{
			RecentCount:    cfg.RecentTransactions,
			TrailingMonths: cfg.DashboardMonths,
		}, logger),
		Categories: categories,
	}

	srv := apphttp.NewServer(":"+cfg.Port, svc, apphttp.Options{
		RateLimitRPM: cfg.RateLimitRPM,
		Ready:        st.Ping,
	}, logger)

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("Starting fintrack server",
			"port", cfg.Port,
			"backend", cfg.DataBackend,
			"remote_events", pub.Remote)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case <-ctx.Done():
	case err := <-serveErr:
		if err != nil {
			logger.Error("Server error", applog.FieldError, err, "port", cfg.Port)
		}
	}

	// The server stops first so no request publishes into a closed queue.
	cli.Shutdown(logger, shutdownTimeout,
		srv.Shutdown,
		cli.WithoutContext(pub.Cleanup),
		func(context.Context) error { caches.Stop(); return nil },
		cli.WithoutContext(storeResult.Cleanup),
	)
	logger.Info("Server stopped gracefully")
}
