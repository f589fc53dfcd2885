package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"canteen/internal/amqp"
	"canteen/internal/cache"
	"canteen/internal/config"
	"canteen/internal/log"
	gsheet "canteen/internal/sheets/google"
	"canteen/internal/worker"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	cfg := config.Load()

	logger := log.New(log.Config{
		Level:     cfg.SlogLevel(),
		Component: log.ComponentArchiver,
		Output:    os.Stdout,
	})
	log.SetDefault(logger)

	logger.Info("Starting report-archiver")

	if err := cfg.ValidateArchiver(); err != nil {
		logger.Error("Configuration validation failed", log.FieldError, err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	sheetsClient, err := gsheet.New(ctx, gsheet.Config{
		SpreadsheetID:   cfg.GoogleSpreadsheetID,
		SheetName:       cfg.GoogleReportSheetName,
		CredentialsJSON: cfg.GoogleServiceAccountJSON,
		CredentialsFile: cfg.GoogleServiceAccountFile,
	})
	if err != nil {
		logger.Error("Failed to initialize Google Sheets client", log.FieldError, err)
		os.Exit(1)
	}
	if err := sheetsClient.EnsureHeader(ctx); err != nil {
		// Not fatal: appends still work on a sheet without a header row.
		logger.Warn("Failed to ensure archive header row", log.FieldError, err)
	}
	logger.Info("Google Sheets client initialized",
		"spreadsheet_id", cfg.GoogleSpreadsheetID,
		"sheet", cfg.GoogleReportSheetName)

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", log.FieldError, err)
		os.Exit(1)
	}
	defer amqpClient.Close()

	archiver := worker.NewReportArchiver(sheetsClient, logger)
	janitor := cache.NewJanitor(archiver.Seen())

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return amqpClient.ConsumeReportCompleted(gctx, archiver.HandleReportCompleted)
	})
	g.Go(func() error {
		return janitor.Run(gctx, time.Hour)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Report consumption failed", log.FieldError, err)
		os.Exit(1)
	}
	logger.Info("Report archiver stopped")
}
