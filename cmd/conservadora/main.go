package main

import (
	"context"
	"os"
	"time"

	"conservadora/internal/cli"
	apphttp "conservadora/internal/http"
	"conservadora/internal/log"
	"conservadora/internal/session"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(log.ComponentApp)

	cfg := cli.LoadAndValidateConfig(logger)
	logger.Info("Starting conservadora",
		"port", cfg.Port,
		log.FieldBackend, cfg.DataBackend,
		"amqp_enabled", cfg.AMQPEnabled())

	startCtx, startCancel := context.WithTimeout(context.Background(), 30*time.Second)
	backend := cli.OpenBackend(startCtx, logger, cfg)
	startCancel()

	sess := session.New(backend.Client, backend.Sink, logger)
	srv := apphttp.NewServer(":"+cfg.Port, sess, apphttp.Options{
		CacheSize:      cfg.ReportCacheSize,
		CacheTTL:       cfg.ReportCacheTTL,
		AllowedOrigins: cfg.CORSAllowedOrigins,
		Logger:         logger,
	})

	ctx, done := cli.GracefulShutdown(logger, 15*time.Second, func(ctx context.Context) {
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("HTTP server shutdown failed", log.FieldError, err)
		}
		if err := backend.Close(); err != nil {
			logger.Error("Backend close failed", log.FieldError, err)
		}
	})

	// The API answers /readyz with 503 until the first load completes.
	go func() {
		if err := sess.Load(ctx); err != nil {
			logger.Warn("Initial load interrupted", log.FieldError, err)
		}
	}()

	if err := srv.Start(ctx); err != nil {
		logger.Error("HTTP server failed", log.FieldError, err)
		os.Exit(1)
	}
	cli.WaitForShutdown(ctx, done)
}
