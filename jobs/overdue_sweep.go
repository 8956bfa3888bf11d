package jobs

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/hairline-erp/hairline/internal/jobs"
)

// OverdueMarker flags invoices past due and returns their numbers.
type OverdueMarker interface {
	MarkOverdue(ctx context.Context) ([]string, error)
}

// OverdueSweepJob processes TaskInvoiceOverdueSweep tasks.
type OverdueSweepJob struct {
	Invoices OverdueMarker
	Logger   *slog.Logger
	Metrics  *jobmetrics.Metrics
}

func NewOverdueSweepJob(invoices OverdueMarker, logger *slog.Logger, metrics *jobmetrics.Metrics) *OverdueSweepJob {
	if logger == nil {
		logger = slog.Default()
	}
	return &OverdueSweepJob{Invoices: invoices, Logger: logger, Metrics: metrics}
}

func (j *OverdueSweepJob) Handle(ctx context.Context, t *asynq.Task) (err error) {
	if j == nil || j.Invoices == nil {
		return errors.New("overdue sweep: handler not configured")
	}
	tracker := j.Metrics.Track(TaskInvoiceOverdueSweep)
	defer func() { err = tracker.End(err) }()

	start := time.Now()
	numbers, err := j.Invoices.MarkOverdue(ctx)
	if err != nil {
		j.Logger.Error("overdue sweep failed", slog.Any("error", err))
		return err
	}
	j.Logger.Info("overdue sweep completed",
		slog.Int("marked", len(numbers)),
		slog.Any("invoices", numbers),
		slog.Duration("duration", time.Since(start)))
	return nil
}
