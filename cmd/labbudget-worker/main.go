package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"labbudget/internal/amqp"
	"labbudget/internal/config"
	applog "labbudget/internal/log"
	"labbudget/internal/sheets"
	gsheet "labbudget/internal/sheets/google"
	"labbudget/internal/storage"
	"labbudget/internal/worker"
)

func main() {
	_ = godotenv.Load()
	applog.Setup()
	logger := applog.ForComponent(applog.ComponentWorker)

	logger.Info("Starting labbudget-worker")

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}
	if cfg.AMQPURL == "" {
		logger.Error("AMQP_URL is required for the worker")
		os.Exit(1)
	}

	backend, err := storage.NewBackend(cfg)
	if err != nil {
		logger.Error("Failed to initialize storage backend", "error", err, "backend", cfg.DataBackend)
		os.Exit(1)
	}
	if backend.Cleanup != nil {
		defer func() { _ = backend.Cleanup() }()
	}
	docs := storage.NewDocumentStore(backend.Blobs)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// The sheet mirror is optional; without it the worker still logs
	// the reminder digest after every save.
	var exporter sheets.TableExporter
	if cfg.GoogleSpreadsheetID != "" {
		sheetsClient, err := gsheet.NewFromEnv(ctx)
		if err != nil {
			logger.Error("Failed to initialize Google Sheets client", "error", err)
			os.Exit(1)
		}
		exporter = sheetsClient
		logger.Info("Google Sheets mirror enabled", "spreadsheet_id", cfg.GoogleSpreadsheetID)
	} else {
		logger.Info("Google Sheets mirror disabled - no GOOGLE_SPREADSHEET_ID provided")
	}

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", "error", err)
		os.Exit(1)
	}
	defer amqpClient.Close()

	mirror := worker.NewMirrorWorker(docs, exporter)

	// Mirror the current state once on startup so a freshly provisioned
	// sheet is not empty until the next save.
	if err := mirror.HandleDocumentSaved(ctx, amqp.NewDocumentSavedMessage(storage.DocumentKey, "startup")); err != nil {
		logger.Error("Startup mirror failed", "error", err)
	}

	logger.Info("Consuming document events", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
	if err := amqpClient.ConsumeDocumentSaved(ctx, mirror.HandleDocumentSaved); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Consumer stopped", "error", err)
		os.Exit(1)
	}

	logger.Info("Worker stopped gracefully")
}
