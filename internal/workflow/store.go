package workflow

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hairline-erp/hairline/internal/billing/invoices"
	"github.com/hairline-erp/hairline/internal/inventory"
	"github.com/hairline-erp/hairline/internal/platform/db"
	"github.com/hairline-erp/hairline/internal/production/joborders"
	"github.com/hairline-erp/hairline/internal/sales/orders"
	"github.com/hairline-erp/hairline/internal/sales/quotations"
	core "github.com/hairline-erp/hairline/internal/shared"
)

// Tx exposes every repository the workflow touches, bound to one transaction.
type Tx interface {
	Quotations() quotations.Repository
	Orders() orders.Repository
	JobOrders() joborders.Repository
	Invoices() invoices.Repository
	Stock() inventory.TxRepository
	Audit(ctx context.Context, log core.AuditLog) error
}

// Store opens workflow transactions.
type Store interface {
	WithTx(ctx context.Context, fn func(context.Context, Tx) error) error
}

type PGStore struct {
	pool *pgxpool.Pool
}

func NewPGStore(pool *pgxpool.Pool) *PGStore {
	return &PGStore{pool: pool}
}

func (s *PGStore) WithTx(ctx context.Context, fn func(context.Context, Tx) error) error {
	return db.WithTx(ctx, s.pool, func(tx pgx.Tx) error {
		return fn(ctx, &pgTx{
			tx:         tx,
			quotations: quotations.NewTxRepository(tx),
			orders:     orders.NewTxRepository(tx),
			jobOrders:  joborders.NewTxRepository(tx),
			invoices:   invoices.NewTxRepository(tx),
			stock:      inventory.NewTxRepository(tx),
		})
	})
}

type pgTx struct {
	tx         pgx.Tx
	quotations quotations.Repository
	orders     orders.Repository
	jobOrders  joborders.Repository
	invoices   invoices.Repository
	stock      inventory.TxRepository
}

func (t *pgTx) Quotations() quotations.Repository { return t.quotations }
func (t *pgTx) Orders() orders.Repository         { return t.orders }
func (t *pgTx) JobOrders() joborders.Repository   { return t.jobOrders }
func (t *pgTx) Invoices() invoices.Repository     { return t.invoices }
func (t *pgTx) Stock() inventory.TxRepository     { return t.stock }

// Audit writes the audit row inside the workflow transaction so it commits or rolls back with it.
func (t *pgTx) Audit(ctx context.Context, log core.AuditLog) error {
	return core.RecordAudit(ctx, t.tx, log)
}
