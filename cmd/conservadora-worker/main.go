package main

import (
	"context"
	"errors"
	"os"
	"time"

	"conservadora/internal/cli"
	"conservadora/internal/export/sheets"
	"conservadora/internal/log"
	"conservadora/internal/session"
	"conservadora/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(log.ComponentWorker)

	cfg := cli.LoadAndValidateConfig(logger)
	if !cfg.SheetsEnabled() {
		logger.Error("GOOGLE_SPREADSHEET_ID is required to run the export worker")
		os.Exit(1)
	}
	logger.Info("Starting conservadora-worker",
		log.FieldBackend, cfg.DataBackend,
		"interval", cfg.ExportInterval.String(),
		"amqp_enabled", cfg.AMQPEnabled())

	startCtx, startCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer startCancel()

	backend := cli.OpenBackend(startCtx, logger, cfg)
	// The service keeps this context for token refreshes.
	publisher, err := sheets.New(context.Background(), sheets.Config{
		SpreadsheetID:   cfg.GoogleSpreadsheetID,
		SheetPrefix:     cfg.GoogleSheetPrefix,
		CredentialsJSON: cfg.GoogleServiceAccountJSON,
		CredentialsFile: cfg.ServiceAccountFile(),
	}, logger)
	if err != nil {
		logger.Error("Failed to initialize Google Sheets publisher", log.FieldError, err)
		_ = backend.Close()
		os.Exit(1)
	}

	sess := session.New(backend.Client, backend.Sink, logger)
	w := worker.NewExportWorker(sess, publisher, logger)

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func(context.Context) {
		if err := backend.Close(); err != nil {
			logger.Error("Backend close failed", log.FieldError, err)
		}
	})

	if backend.Broker != nil {
		go func() {
			err := backend.Broker.ConsumeNotifications(ctx, w.HandleNotification)
			if err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("Notification consumption stopped", log.FieldError, err)
			}
		}()
	} else {
		logger.Info("Change notifications disabled, exporting on the interval only")
	}

	if err := w.Run(ctx, cfg.ExportInterval); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Export worker stopped", log.FieldError, err)
	}
	cli.WaitForShutdown(ctx, done)
}
