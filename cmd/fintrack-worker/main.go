package main

import (
	"context"
	"errors"
	"time"

	"fintrack/internal/amqp"
	"fintrack/internal/backend"
	"fintrack/internal/cli"
	"fintrack/internal/config"
	applog "fintrack/internal/log"
	"fintrack/internal/worker"
)

const shutdownTimeout = 30 * time.Second

func main() {
	cfg, logger := cli.Bootstrap(applog.ComponentWorker, (*config.Config).ValidateWorker)
	logger.Info("Starting fintrack-worker")

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
	exportWorker := worker.NewExportWorker(st, st, exporter, logger)

	client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger)
	if err != nil {
		cli.Fatal(logger, "Failed to initialize AMQP client", err)
	}

	// Consume returns only when ctx ends or on a non-connection error.
	if err := client.Consume(ctx, exportWorker.HandleEvent); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Event consumption failed", applog.FieldError, err)
	}

	cli.Shutdown(logger, shutdownTimeout,
		cli.WithoutContext(client.Close),
		cli.WithoutContext(storeResult.Cleanup),
	)
}
