package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"
	"github.com/shopspring/decimal"

	"github.com/hairline-erp/hairline/internal/inventory"
	jobmetrics "github.com/hairline-erp/hairline/internal/jobs"
)

// StockReporter builds the low-stock report; cached implementations refresh on the way.
type StockReporter interface {
	LowStock(ctx context.Context, threshold decimal.Decimal) ([]inventory.StockLevel, error)
}

// LowStockScanJob processes TaskInventoryLowStockScan tasks.
type LowStockScanJob struct {
	Stock     StockReporter
	Threshold decimal.Decimal
	Logger    *slog.Logger
	Metrics   *jobmetrics.Metrics
}

func NewLowStockScanJob(stock StockReporter, threshold decimal.Decimal, logger *slog.Logger, metrics *jobmetrics.Metrics) *LowStockScanJob {
	if logger == nil {
		logger = slog.Default()
	}
	return &LowStockScanJob{Stock: stock, Threshold: threshold, Logger: logger, Metrics: metrics}
}

func (j *LowStockScanJob) Handle(ctx context.Context, t *asynq.Task) (err error) {
	if j == nil || j.Stock == nil {
		return errors.New("low stock scan: handler not configured")
	}
	var payload LowStockScanPayload
	if len(t.Payload()) > 0 {
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return fmt.Errorf("low stock scan: decode payload: %v: %w", err, asynq.SkipRetry)
		}
	}
	threshold := j.Threshold
	if payload.Threshold != "" {
		parsed, err := decimal.NewFromString(payload.Threshold)
		if err != nil {
			return fmt.Errorf("low stock scan: threshold %q: %v: %w", payload.Threshold, err, asynq.SkipRetry)
		}
		threshold = parsed
	}

	tracker := j.Metrics.Track(TaskInventoryLowStockScan)
	defer func() { err = tracker.End(err) }()

	levels, err := j.Stock.LowStock(ctx, threshold)
	if err != nil {
		j.Logger.Error("low stock scan failed", slog.Any("error", err))
		return err
	}
	for _, l := range levels {
		j.Logger.Warn("low stock",
			slog.String("warehouse", l.WarehouseCode),
			slog.String("sku", l.SKU),
			slog.String("product", l.ProductName),
			slog.String("quantity", l.Quantity.String()),
			slog.String("unit", l.Unit))
	}
	j.Metrics.SetLowStock(len(levels))
	j.Logger.Info("low stock scan completed", slog.Int("items", len(levels)), slog.String("threshold", threshold.String()))
	return nil
}
