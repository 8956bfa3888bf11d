package invoices

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/hairline-erp/hairline/internal/platform/db"
	salesshared "github.com/hairline-erp/hairline/internal/sales/shared"
	core "github.com/hairline-erp/hairline/internal/shared"
)

type Repository interface {
	WithTx(ctx context.Context, fn func(context.Context, Repository) error) error
	Get(ctx context.Context, id int64) (Invoice, error)
	GetForUpdate(ctx context.Context, id int64) (Invoice, error)
	GetBySalesOrder(ctx context.Context, salesOrderID int64) (Invoice, error)
	List(ctx context.Context, filters salesshared.DocumentFilters) ([]Invoice, int, error)
	Create(ctx context.Context, inv Invoice) (Invoice, error)
	UpdatePayment(ctx context.Context, id int64, paid decimal.Decimal, status PaymentStatus) error
	MarkOverdue(ctx context.Context, today time.Time) ([]string, error)
}

type repository struct {
	db   db.DBTX
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{db: pool, pool: pool}
}

// NewTxRepository binds the repository to a transaction owned by the caller.
func NewTxRepository(tx db.DBTX) Repository {
	return &repository{db: tx}
}

func (r *repository) WithTx(ctx context.Context, fn func(context.Context, Repository) error) error {
	if r.pool == nil {
		return fn(ctx, r)
	}
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, NewTxRepository(tx))
	})
}

const selectInvoice = `
	SELECT i.id, i.number, i.sales_order_id, i.customer_id,
	       i.shipping_fee, i.bank_charge, i.discount, i.others, i.subtotal, i.total,
	       i.payment_method, i.due_date, i.paid_amount, i.payment_status, i.created_by,
	       i.issued_at, i.updated_at
	FROM invoices i`

func scanInvoice(row pgx.Row) (Invoice, error) {
	var inv Invoice
	err := row.Scan(&inv.ID, &inv.Number, &inv.SalesOrderID, &inv.CustomerID,
		&inv.ShippingFee, &inv.BankCharge, &inv.Discount, &inv.Others, &inv.Subtotal, &inv.Total,
		&inv.PaymentMethod, &inv.DueDate, &inv.PaidAmount, &inv.PaymentStatus, &inv.CreatedBy,
		&inv.IssuedAt, &inv.UpdatedAt)
	return inv, err
}

func (r *repository) Get(ctx context.Context, id int64) (Invoice, error) {
	return r.get(ctx, selectInvoice+` WHERE i.id = $1`, id, id)
}

// GetForUpdate locks the invoice row; payment approvals serialise on it.
func (r *repository) GetForUpdate(ctx context.Context, id int64) (Invoice, error) {
	return r.get(ctx, selectInvoice+` WHERE i.id = $1 FOR UPDATE`, id, id)
}

func (r *repository) GetBySalesOrder(ctx context.Context, salesOrderID int64) (Invoice, error) {
	return r.get(ctx, selectInvoice+` WHERE i.sales_order_id = $1`, salesOrderID, "for sales order "+strconv.FormatInt(salesOrderID, 10))
}

func (r *repository) get(ctx context.Context, query string, arg int64, label any) (Invoice, error) {
	inv, err := scanInvoice(r.db.QueryRow(ctx, query, arg))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Invoice{}, core.NotFound("Invoice", label)
		}
		return Invoice{}, err
	}
	inv.Lines, err = salesshared.LoadLines(ctx, r.db, salesshared.InvoiceLines, inv.ID)
	if err != nil {
		return Invoice{}, err
	}
	return inv, nil
}

// List filters on payment_status through DocumentFilters.Status.
func (r *repository) List(ctx context.Context, filters salesshared.DocumentFilters) ([]Invoice, int, error) {
	status := filters.Status
	filters.Status = ""
	where, args := filters.Where("i")
	if status != "" {
		args = append(args, status)
		cond := "i.payment_status = $" + strconv.Itoa(len(args))
		if where == "" {
			where = " WHERE " + cond
		} else {
			where += " AND " + cond
		}
	}

	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM invoices i`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}
	limit := filters.Limit
	if limit <= 0 {
		limit = core.DefaultPerPage
	}
	args = append(args, limit, filters.Offset)
	rows, err := r.db.Query(ctx, selectInvoice+where+` ORDER BY i.issued_at DESC, i.id DESC LIMIT $`+strconv.Itoa(len(args)-1)+` OFFSET $`+strconv.Itoa(len(args)), args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var out []Invoice
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, inv)
	}
	return out, total, rows.Err()
}

// Create inserts the snapshot. A second invoice for the same sales order is reported
// as DuplicateInvoice.
func (r *repository) Create(ctx context.Context, inv Invoice) (Invoice, error) {
	err := r.db.QueryRow(ctx, `
		INSERT INTO invoices (number, sales_order_id, customer_id,
			shipping_fee, bank_charge, discount, others, subtotal, total,
			payment_method, due_date, paid_amount, payment_status, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		RETURNING id, issued_at, updated_at`,
		inv.Number, inv.SalesOrderID, inv.CustomerID,
		inv.ShippingFee, inv.BankCharge, inv.Discount, inv.Others, inv.Subtotal, inv.Total,
		inv.PaymentMethod, inv.DueDate, inv.PaidAmount, inv.PaymentStatus, inv.CreatedBy,
	).Scan(&inv.ID, &inv.IssuedAt, &inv.UpdatedAt)
	if err != nil {
		if db.IsUniqueViolation(err, "invoices_sales_order_id_key") || db.IsUniqueViolation(err, "invoices_number_key") {
			return Invoice{}, core.DuplicateInvoice(inv.Number)
		}
		return Invoice{}, err
	}
	inv.Lines, err = salesshared.ReplaceLines(ctx, r.db, salesshared.InvoiceLines, inv.ID, inv.Lines)
	if err != nil {
		return Invoice{}, err
	}
	return inv, nil
}

func (r *repository) UpdatePayment(ctx context.Context, id int64, paid decimal.Decimal, status PaymentStatus) error {
	tag, err := r.db.Exec(ctx, `UPDATE invoices SET paid_amount = $2, payment_status = $3, updated_at = NOW() WHERE id = $1`,
		id, paid, status)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return core.NotFound("Invoice", id)
	}
	return nil
}

// MarkOverdue flags unpaid invoices whose due date is before today and returns their numbers.
func (r *repository) MarkOverdue(ctx context.Context, today time.Time) ([]string, error) {
	rows, err := r.db.Query(ctx, `
		UPDATE invoices SET payment_status = 'overdue', updated_at = NOW()
		WHERE payment_status IN ('pending', 'partial') AND due_date IS NOT NULL AND due_date < $1
		RETURNING number`, today)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var numbers []string
	for rows.Next() {
		var n string
		if err := rows.Scan(&n); err != nil {
			return nil, err
		}
		numbers = append(numbers, n)
	}
	return numbers, rows.Err()
}
