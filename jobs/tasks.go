package jobs

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	"github.com/hairline-erp/hairline/internal/billing/payments"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// QueueCritical carries staff-facing notifications.
	QueueCritical = "critical"

	// TaskPaymentNotify tells staff and the customer about a payment decision.
	TaskPaymentNotify = "payment:notify"
	// TaskInvoiceOverdueSweep flags unpaid invoices past their due date.
	TaskInvoiceOverdueSweep = "invoice:overdue_sweep"
	// TaskInventoryLowStockScan refreshes the cached low-stock report and logs shortfalls.
	TaskInventoryLowStockScan = "inventory:low_stock_scan"
)

// PaymentNotifyPayload wraps a payment decision with a request id for log correlation.
type PaymentNotifyPayload struct {
	RequestID    string                `json:"request_id"`
	Notification payments.Notification `json:"notification"`
}

// NewPaymentNotifyTask constructs an Asynq task for a payment decision.
func NewPaymentNotifyTask(n payments.Notification) (*asynq.Task, error) {
	body, err := json.Marshal(PaymentNotifyPayload{RequestID: uuid.NewString(), Notification: n})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskPaymentNotify, body, asynq.Queue(QueueCritical), asynq.MaxRetry(5)), nil
}

// OverdueSweepPayload carries scheduling metadata.
type OverdueSweepPayload struct {
	ScheduledFor time.Time `json:"scheduled_for"`
}

func NewOverdueSweepTask(at time.Time) (*asynq.Task, error) {
	body, err := json.Marshal(OverdueSweepPayload{ScheduledFor: at})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskInvoiceOverdueSweep, body, asynq.Queue(QueueDefault)), nil
}

// LowStockScanPayload overrides the configured threshold when Threshold is set.
type LowStockScanPayload struct {
	Threshold string `json:"threshold,omitempty"`
}

func NewLowStockScanTask(threshold string) (*asynq.Task, error) {
	body, err := json.Marshal(LowStockScanPayload{Threshold: threshold})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskInventoryLowStockScan, body, asynq.Queue(QueueDefault)), nil
}
