package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/hairline-erp/hairline/internal/app"
	"github.com/hairline-erp/hairline/internal/billing/invoices"
	"github.com/hairline-erp/hairline/internal/inventory"
	jobmetrics "github.com/hairline-erp/hairline/internal/jobs"
	"github.com/hairline-erp/hairline/internal/masterdata/products"
	"github.com/hairline-erp/hairline/internal/masterdata/warehouses"
	"github.com/hairline-erp/hairline/internal/numbering"
	"github.com/hairline-erp/hairline/internal/observability"
	"github.com/hairline-erp/hairline/internal/platform/cache"
	"github.com/hairline-erp/hairline/internal/platform/db"
	"github.com/hairline-erp/hairline/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping worker startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	loc, err := cfg.Location()
	if err != nil {
		logger.Error("business timezone", slog.Any("error", err))
		os.Exit(1)
	}
	threshold, err := cfg.Threshold()
	if err != nil {
		logger.Error("low stock threshold", slog.Any("error", err))
		os.Exit(1)
	}

	pool, err := db.New(ctx, cfg.PGDSN, cfg.Pool("hairline-worker"))
	if err != nil {
		logger.Error("connect database", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	redisClient, err := cache.New(ctx, cfg.Redis())
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	metrics := observability.NewMetrics()
	jobMetrics := jobmetrics.NewMetrics(metrics.Registerer())

	invoiceService := invoices.NewService(invoices.NewRepository(pool), numbering.NewService(loc), logger)
	inventoryService := inventory.NewService(inventory.NewRepository(pool), inventory.ServiceConfig{
		Cache:   inventory.NewCache(redisClient, cfg.ReportCacheTTL),
		Metrics: metrics,
		Labels: inventory.CatalogLabels{
			Products:   products.NewService(products.NewRepository(pool)),
			Warehouses: warehouses.NewService(warehouses.NewRepository(pool)),
		},
		Logger: logger,
	})

	notifyJob := jobs.NewPaymentNotifyJob(nil, logger, jobMetrics)
	overdueJob := jobs.NewOverdueSweepJob(invoiceService, logger, jobMetrics)
	lowStockJob := jobs.NewLowStockScanJob(inventoryService, threshold, logger, jobMetrics)

	overdueTask, err := jobs.NewOverdueSweepTask(time.Time{})
	if err != nil {
		logger.Error("build overdue task", slog.Any("error", err))
		os.Exit(1)
	}
	lowStockTask, err := jobs.NewLowStockScanTask("")
	if err != nil {
		logger.Error("build low stock task", slog.Any("error", err))
		os.Exit(1)
	}

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts:   cfg.Queue(),
		Logger:      logger,
		Concurrency: cfg.WorkerConcurrency,
		Location:    loc,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskPaymentNotify, Handler: notifyJob.Handle},
			{Type: jobs.TaskInvoiceOverdueSweep, Handler: overdueJob.Handle},
			{Type: jobs.TaskInventoryLowStockScan, Handler: lowStockJob.Handle},
		},
		Cron: []jobs.CronRegistration{
			{Spec: "5 0 * * *", Task: overdueTask, Options: []asynq.Option{asynq.MaxRetry(3)}},
			{Spec: "0 * * * *", Task: lowStockTask, Options: []asynq.Option{asynq.MaxRetry(1)}},
		},
	})
	if err != nil {
		logger.Error("init worker", slog.Any("error", err))
		os.Exit(1)
	}

	metricsServer := &http.Server{Addr: cfg.WorkerMetricsAddr, Handler: metrics.Handler(), ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Warn("worker metrics server", slog.Any("error", err))
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = metricsServer.Shutdown(shutdownCtx)
	}()

	if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("worker run", slog.Any("error", err))
		os.Exit(1)
	}
}
