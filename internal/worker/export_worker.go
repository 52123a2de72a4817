// Package worker runs background jobs outside the request path.
package worker

import (
	"context"
	"fmt"
	"time"

	"conservadora/internal/amqp"
	"conservadora/internal/core"
	"conservadora/internal/log"
	"conservadora/internal/notify"
	"conservadora/internal/report"
)

// Source supplies fresh report data.
type Source interface {
	Refresh(ctx context.Context) error
	Data() report.Data
}

// Publisher receives finished reports.
type Publisher interface {
	Publish(ctx context.Context, r report.Report) error
}

// ExportWorker publishes the current month's report on a fixed interval and
// whenever a record change is announced on the broker.
type ExportWorker struct {
	source    Source
	publisher Publisher
	logger    *log.Logger
	now       func() time.Time
	trigger   chan struct{}
}

func NewExportWorker(source Source, publisher Publisher, logger *log.Logger) *ExportWorker {
	if logger == nil {
		logger = log.Discard()
	}
	return &ExportWorker{
		source:    source,
		publisher: publisher,
		logger:    logger.WithComponent(log.ComponentWorker),
		now:       time.Now,
		trigger:   make(chan struct{}, 1),
	}
}

// ExportOnce refreshes the data and publishes the report for the current
// month.
func (w *ExportWorker) ExportOnce(ctx context.Context) error {
	start := time.Now()
	if err := w.source.Refresh(ctx); err != nil {
		return fmt.Errorf("refresh data: %w", err)
	}

	f := report.Filter{Month: core.MonthOf(w.now())}
	r := report.Build(w.source.Data(), f)
	if err := w.publisher.Publish(ctx, r); err != nil {
		return fmt.Errorf("publish report: %w", err)
	}

	w.logger.InfoContext(ctx, "Report exported",
		log.FieldOperation, log.OpExport,
		log.FieldMonth, f.Month.String(),
		log.FieldDuration, time.Since(start).Milliseconds())
	return nil
}

// Trigger requests an export. Requests made while one is pending are merged.
func (w *ExportWorker) Trigger() {
	select {
	case w.trigger <- struct{}{}:
	default:
	}
}

// HandleNotification is the broker consumer callback. Successful record
// changes schedule an export; everything else is only logged.
func (w *ExportWorker) HandleNotification(ctx context.Context, msg *amqp.NotificationMessage) error {
	n := msg.Notification()
	w.logger.InfoContext(ctx, "Notification received",
		log.FieldTitle, n.Title,
		log.FieldSeverity, string(n.Severity),
		log.FieldEntity, n.Entity)

	if n.Entity != "" && n.Severity != notify.SeverityDestructive {
		w.Trigger()
	}
	return nil
}

// Run exports at start-up, then on every tick and trigger until ctx ends.
// Failed exports are logged and retried on the next tick.
func (w *ExportWorker) Run(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	w.exportLogged(ctx)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			w.exportLogged(ctx)
		case <-w.trigger:
			w.exportLogged(ctx)
		}
	}
}

func (w *ExportWorker) exportLogged(ctx context.Context) {
	if err := w.ExportOnce(ctx); err != nil && ctx.Err() == nil {
		w.logger.ErrorContext(ctx, "Export failed",
			log.FieldOperation, log.OpExport,
			log.FieldError, err)
	}
}
