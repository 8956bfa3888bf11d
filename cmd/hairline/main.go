package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/hairline-erp/hairline/cmd/hairline/cli"
	"github.com/hairline-erp/hairline/internal/app"
	"github.com/hairline-erp/hairline/internal/billing/invoices"
	"github.com/hairline-erp/hairline/internal/billing/payments"
	"github.com/hairline-erp/hairline/internal/documents"
	"github.com/hairline-erp/hairline/internal/inventory"
	"github.com/hairline-erp/hairline/internal/masterdata/customers"
	"github.com/hairline-erp/hairline/internal/masterdata/pricetiers"
	"github.com/hairline-erp/hairline/internal/masterdata/products"
	"github.com/hairline-erp/hairline/internal/masterdata/warehouses"
	"github.com/hairline-erp/hairline/internal/numbering"
	"github.com/hairline-erp/hairline/internal/observability"
	"github.com/hairline-erp/hairline/internal/platform/cache"
	"github.com/hairline-erp/hairline/internal/platform/db"
	"github.com/hairline-erp/hairline/internal/pricing"
	"github.com/hairline-erp/hairline/internal/production/joborders"
	"github.com/hairline-erp/hairline/internal/rbac"
	"github.com/hairline-erp/hairline/internal/sales/orders"
	"github.com/hairline-erp/hairline/internal/sales/quotations"
	"github.com/hairline-erp/hairline/internal/seed"
	"github.com/hairline-erp/hairline/internal/shared"
	"github.com/hairline-erp/hairline/internal/staff"
	"github.com/hairline-erp/hairline/internal/workflow"
	"github.com/hairline-erp/hairline/jobs"
)

const usage = `usage: hairline <command>

commands:
  serve            run the HTTP API (default)
  migrate          apply pending database migrations
  seed             insert reference data and the admin account
  jobs trigger X   enqueue a background job (overdue-sweep, low-stock-scan)
  jobs stats       print queue statistics`

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
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

	flag.Usage = func() { fmt.Fprintln(os.Stderr, usage) }
	flag.Parse()
	command := flag.Arg(0)
	if command == "" {
		command = "serve"
	}

	switch command {
	case "serve":
		err = serve(ctx, cfg, logger)
	case "migrate":
		err = migrate(ctx, cfg, logger)
	case "seed":
		err = seedData(ctx, cfg, logger)
	case "jobs":
		err = jobsCommand(ctx, cfg, flag.Args()[1:])
	default:
		flag.Usage()
		os.Exit(2)
	}
	if err != nil && !errors.Is(err, context.Canceled) {
		logger.Error(command, slog.Any("error", err))
		os.Exit(1)
	}
}

func migrate(ctx context.Context, cfg *app.Config, logger *slog.Logger) error {
	pool, err := db.New(ctx, cfg.PGDSN, cfg.Pool("hairline"))
	if err != nil {
		return err
	}
	defer pool.Close()
	applied, err := db.Migrate(ctx, pool)
	if err != nil {
		return err
	}
	logger.Info("migrations applied", slog.Any("versions", applied))
	return nil
}

func seedData(ctx context.Context, cfg *app.Config, logger *slog.Logger) error {
	if cfg.SeedAdminPassword == "" {
		return errors.New("SEED_ADMIN_PASSWORD must be set to seed the admin account")
	}
	pool, err := db.New(ctx, cfg.PGDSN, cfg.Pool("hairline"))
	if err != nil {
		return err
	}
	defer pool.Close()
	hasher := staff.NewService(staff.NewRepository(pool))
	return db.WithTx(ctx, pool, func(tx pgx.Tx) error {
		_, err := seed.EnsureSeedData(ctx, tx, hasher, seed.Options{
			AdminEmail:    cfg.SeedAdminEmail,
			AdminPassword: cfg.SeedAdminPassword,
		}, logger)
		return err
	})
}

func jobsCommand(ctx context.Context, cfg *app.Config, args []string) error {
	ops := cli.NewJobsCLI(cfg.Queue())
	defer ops.Close()
	switch {
	case len(args) == 2 && args[0] == "trigger":
		info, err := ops.Trigger(ctx, args[1])
		if err != nil {
			return err
		}
		fmt.Printf("enqueued %s as %s on %s\n", info.Type, info.ID, info.Queue)
	case len(args) == 1 && args[0] == "stats":
		stats, err := ops.InspectQueues(ctx)
		if err != nil {
			return err
		}
		for _, s := range stats {
			fmt.Printf("%-9s pending=%d active=%d scheduled=%d retry=%d\n", s.Queue, s.Pending, s.Active, s.Scheduled, s.Retry)
		}
	default:
		flag.Usage()
	}
	return nil
}

func serve(ctx context.Context, cfg *app.Config, logger *slog.Logger) error {
	loc, err := cfg.Location()
	if err != nil {
		return err
	}
	threshold, err := cfg.Threshold()
	if err != nil {
		return err
	}

	dbpool, err := db.New(ctx, cfg.PGDSN, cfg.Pool("hairline"))
	if err != nil {
		return fmt.Errorf("connect postgres: %w", err)
	}
	defer dbpool.Close()

	redisClient, err := cache.New(ctx, cfg.Redis())
	if err != nil {
		return fmt.Errorf("connect redis: %w", err)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	metrics := observability.NewMetrics()
	auditLogger := shared.NewAuditLogger(dbpool)
	numbers := numbering.NewService(loc)

	staffService := staff.NewService(staff.NewRepository(dbpool))
	rbacMiddleware := rbac.Middleware{Directory: staffService, Logger: logger}

	customerService := customers.NewService(customers.NewRepository(dbpool))
	productService := products.NewService(products.NewRepository(dbpool))
	warehouseService := warehouses.NewService(warehouses.NewRepository(dbpool))
	tierService := pricetiers.NewService(pricetiers.NewRepository(dbpool))
	prices := pricing.NewResolver(tierService, productService)

	inventoryService := newInventoryService(dbpool, redisClient, cfg, metrics, auditLogger, productService, warehouseService, logger)

	quotationService := quotations.NewService(quotations.NewRepository(dbpool), customerService, prices, numbers, auditLogger, logger)
	orderService := orders.NewService(orders.NewRepository(dbpool), customerService, prices, numbers, auditLogger, logger)
	jobOrderService := joborders.NewService(joborders.NewRepository(dbpool), numbers, auditLogger, logger)
	invoiceService := invoices.NewService(invoices.NewRepository(dbpool), numbers, logger)

	jobClient := jobs.NewClient(cfg.Queue())
	defer func() {
		if err := jobClient.Close(); err != nil {
			logger.Warn("job client close", slog.Any("error", err))
		}
	}()
	paymentService := payments.NewService(payments.NewRepository(dbpool), numbers, payments.ServiceConfig{
		Notifier: jobClient,
		Metrics:  metrics,
		Audit:    auditLogger,
		Logger:   logger,
	})

	workflowService := workflow.NewService(workflow.Config{
		Store:   workflow.NewPGStore(dbpool),
		Numbers: numbers,
		Ledger:  inventoryService,
		Buckets: warehouseService,
		Metrics: metrics,
		Logger:  logger,
	})

	formatter, err := documents.NewFormatter(cfg.DocumentCurrency, cfg.DocumentLocale)
	if err != nil {
		return err
	}
	documentService := documents.NewService(documents.Sources{
		Quotations: quotationService,
		Orders:     orderService,
		JobOrders:  jobOrderService,
		Invoices:   invoiceService,
		Payments:   paymentService,
		Customers:  customerService,
	}, formatter)

	inspector := asynq.NewInspector(cfg.Queue())
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()

	router := app.NewRouter(app.RouterParams{
		Logger:            logger,
		Config:            cfg,
		Metrics:           metrics,
		RBAC:              rbacMiddleware,
		CustomersHandler:  customers.NewHandler(logger, customerService, rbacMiddleware),
		ProductsHandler:   products.NewHandler(logger, productService, rbacMiddleware),
		WarehousesHandler: warehouses.NewHandler(logger, warehouseService, rbacMiddleware),
		PriceTiersHandler: pricetiers.NewHandler(logger, tierService, rbacMiddleware),
		StaffHandler:      staff.NewHandler(logger, staffService, rbacMiddleware),
		InventoryHandler:  inventory.NewHandler(logger, inventoryService, rbacMiddleware, threshold),
		QuotationsHandler: quotations.NewHandler(logger, quotationService, rbacMiddleware),
		OrdersHandler:     orders.NewHandler(logger, orderService, rbacMiddleware),
		JobOrdersHandler:  joborders.NewHandler(logger, jobOrderService, rbacMiddleware),
		InvoicesHandler:   invoices.NewHandler(logger, invoiceService, rbacMiddleware),
		PaymentsHandler:   payments.NewHandler(logger, paymentService, rbacMiddleware),
		WorkflowHandler:   workflow.NewHandler(logger, workflowService, rbacMiddleware),
		DocumentsHandler:  documents.NewHandler(logger, documentService, rbacMiddleware),
		JobHandler:        jobs.NewHandler(inspector, logger),
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	}
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

func newInventoryService(pool *pgxpool.Pool, client *redis.Client, cfg *app.Config, metrics *observability.Metrics, audit inventory.AuditPort, products *products.Service, warehouses *warehouses.Service, logger *slog.Logger) *inventory.Service {
	return inventory.NewService(inventory.NewRepository(pool), inventory.ServiceConfig{
		Cache:   inventory.NewCache(client, cfg.ReportCacheTTL),
		Audit:   audit,
		Metrics: metrics,
		Labels:  inventory.CatalogLabels{Products: products, Warehouses: warehouses},
		Logger:  logger,
	})
}
