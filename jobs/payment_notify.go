package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/hairline-erp/hairline/internal/billing/payments"
	jobmetrics "github.com/hairline-erp/hairline/internal/jobs"
)

// Deliverer hands a payment decision to whatever channel reaches staff and the customer.
type Deliverer interface {
	Deliver(ctx context.Context, n payments.Notification) error
}

// LogDeliverer writes decisions to the structured log; it is the default channel.
type LogDeliverer struct {
	Logger *slog.Logger
}

func (d LogDeliverer) Deliver(ctx context.Context, n payments.Notification) error {
	attrs := []any{
		slog.String("payment", n.PaymentNumber),
		slog.String("invoice", n.InvoiceNumber),
		slog.Int64("customer_id", n.CustomerID),
		slog.String("decision", n.Decision),
		slog.String("amount", n.Amount),
		slog.String("invoice_status", n.InvoiceStatus),
	}
	if n.Reason != "" {
		attrs = append(attrs, slog.String("reason", n.Reason))
	}
	d.Logger.Info("payment decision", attrs...)
	return nil
}

// PaymentNotifyJob processes TaskPaymentNotify tasks.
type PaymentNotifyJob struct {
	Deliverer Deliverer
	Logger    *slog.Logger
	Metrics   *jobmetrics.Metrics
}

func NewPaymentNotifyJob(deliverer Deliverer, logger *slog.Logger, metrics *jobmetrics.Metrics) *PaymentNotifyJob {
	if logger == nil {
		logger = slog.Default()
	}
	if deliverer == nil {
		deliverer = LogDeliverer{Logger: logger}
	}
	return &PaymentNotifyJob{Deliverer: deliverer, Logger: logger, Metrics: metrics}
}

func (j *PaymentNotifyJob) Handle(ctx context.Context, t *asynq.Task) (err error) {
	if j == nil {
		return errors.New("payment notify: handler not configured")
	}
	var payload PaymentNotifyPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("payment notify: decode payload: %v: %w", err, asynq.SkipRetry)
	}
	tracker := j.Metrics.Track(TaskPaymentNotify)
	defer func() { err = tracker.End(err) }()

	logger := j.Logger.With(slog.String("request_id", payload.RequestID))
	if err := j.Deliverer.Deliver(ctx, payload.Notification); err != nil {
		logger.Warn("payment notification failed", slog.Int64("payment_id", payload.Notification.PaymentID), slog.Any("error", err))
		return err
	}
	return nil
}
