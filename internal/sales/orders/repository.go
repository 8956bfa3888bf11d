package orders

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hairline-erp/hairline/internal/numbering"
	"github.com/hairline-erp/hairline/internal/platform/db"
	salesshared "github.com/hairline-erp/hairline/internal/sales/shared"
	core "github.com/hairline-erp/hairline/internal/shared"
)

type Repository interface {
	numbering.Sequencer
	WithTx(ctx context.Context, fn func(context.Context, Repository) error) error
	Get(ctx context.Context, id int64) (SalesOrder, error)
	GetForUpdate(ctx context.Context, id int64) (SalesOrder, error)
	List(ctx context.Context, filters salesshared.DocumentFilters) ([]SalesOrder, int, error)
	ListConfirmedWithoutInvoice(ctx context.Context, limit int) ([]SalesOrder, error)
	Create(ctx context.Context, order SalesOrder) (SalesOrder, error)
	Update(ctx context.Context, order SalesOrder) error
	MarkConfirmed(ctx context.Context, id, staffID int64, at time.Time) error
	Delete(ctx context.Context, id int64) error
}

type repository struct {
	db   db.DBTX
	pool *pgxpool.Pool
	seq  *numbering.Repository
}

func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{db: pool, pool: pool, seq: numbering.NewRepository(pool)}
}

// NewTxRepository binds the repository to a transaction owned by the caller.
func NewTxRepository(tx db.DBTX) Repository {
	return &repository{db: tx, seq: numbering.NewRepository(tx)}
}

func (r *repository) WithTx(ctx context.Context, fn func(context.Context, Repository) error) error {
	if r.pool == nil {
		return fn(ctx, r)
	}
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, NewTxRepository(tx))
	})
}

func (r *repository) Increment(ctx context.Context, class numbering.Class, year, month int) (int64, error) {
	return r.seq.Increment(ctx, class, year, month)
}

const selectOrder = `
	SELECT so.id, so.number, so.quotation_id, so.customer_id, so.price_tier_id, so.revision,
	       so.status, so.is_confirmed,
	       so.shipping_fee, so.bank_charge, so.discount, so.others, so.subtotal, so.total,
	       so.payment_method, so.notes, so.due_date, so.created_by, so.confirmed_by, so.confirmed_at,
	       so.created_at, so.updated_at
	FROM sales_orders so`

func scanOrder(row pgx.Row) (SalesOrder, error) {
	var o SalesOrder
	err := row.Scan(
		&o.ID, &o.Number, &o.QuotationID, &o.CustomerID, &o.PriceTierID, &o.Revision,
		&o.Status, &o.IsConfirmed,
		&o.ShippingFee, &o.BankCharge, &o.Discount, &o.Others, &o.Subtotal, &o.Total,
		&o.PaymentMethod, &o.Notes, &o.DueDate, &o.CreatedBy, &o.ConfirmedBy, &o.ConfirmedAt,
		&o.CreatedAt, &o.UpdatedAt,
	)
	return o, err
}

func (r *repository) Get(ctx context.Context, id int64) (SalesOrder, error) {
	return r.get(ctx, selectOrder+` WHERE so.id = $1`, id)
}

// GetForUpdate locks the order row for the rest of the transaction.
func (r *repository) GetForUpdate(ctx context.Context, id int64) (SalesOrder, error) {
	return r.get(ctx, selectOrder+` WHERE so.id = $1 FOR UPDATE`, id)
}

func (r *repository) get(ctx context.Context, query string, id int64) (SalesOrder, error) {
	o, err := scanOrder(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return SalesOrder{}, core.NotFound("Sales order", id)
		}
		return SalesOrder{}, err
	}
	o.Lines, err = salesshared.LoadLines(ctx, r.db, salesshared.SalesOrderLines, o.ID)
	if err != nil {
		return SalesOrder{}, err
	}
	return o, nil
}

func (r *repository) List(ctx context.Context, filters salesshared.DocumentFilters) ([]SalesOrder, int, error) {
	where, args := filters.Where("so")

	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM sales_orders so`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	limit := filters.Limit
	if limit <= 0 {
		limit = core.DefaultPerPage
	}
	args = append(args, limit, filters.Offset)
	rows, err := r.db.Query(ctx, selectOrder+where+` ORDER BY so.created_at DESC, so.id DESC LIMIT $`+strconv.Itoa(len(args)-1)+` OFFSET $`+strconv.Itoa(len(args)), args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	out, err := collectOrders(rows)
	return out, total, err
}

// ListConfirmedWithoutInvoice returns confirmed orders that never received an invoice, oldest first.
func (r *repository) ListConfirmedWithoutInvoice(ctx context.Context, limit int) ([]SalesOrder, error) {
	rows, err := r.db.Query(ctx, selectOrder+`
		WHERE so.is_confirmed
		  AND NOT EXISTS (SELECT 1 FROM invoices i WHERE i.sales_order_id = so.id)
		ORDER BY so.confirmed_at, so.id
		LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectOrders(rows)
}

func collectOrders(rows pgx.Rows) ([]SalesOrder, error) {
	var out []SalesOrder
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

func (r *repository) Create(ctx context.Context, o SalesOrder) (SalesOrder, error) {
	err := r.db.QueryRow(ctx, `
		INSERT INTO sales_orders (number, quotation_id, customer_id, price_tier_id, revision, status,
			shipping_fee, bank_charge, discount, others, subtotal, total,
			payment_method, notes, due_date, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
		RETURNING id, created_at, updated_at`,
		o.Number, o.QuotationID, o.CustomerID, o.PriceTierID, o.Revision, o.Status,
		o.ShippingFee, o.BankCharge, o.Discount, o.Others, o.Subtotal, o.Total,
		o.PaymentMethod, o.Notes, o.DueDate, o.CreatedBy,
	).Scan(&o.ID, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		if db.IsUniqueViolation(err, "sales_orders_number_key") {
			return SalesOrder{}, core.InvalidState("Sales order number %s is already taken; please retry.", o.Number)
		}
		return SalesOrder{}, err
	}
	o.Lines, err = salesshared.ReplaceLines(ctx, r.db, salesshared.SalesOrderLines, o.ID, o.Lines)
	if err != nil {
		return SalesOrder{}, err
	}
	return o, nil
}

// Update writes an unconfirmed order's editable header fields and replaces its lines.
func (r *repository) Update(ctx context.Context, o SalesOrder) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE sales_orders SET
			price_tier_id = $2, shipping_fee = $3, bank_charge = $4, discount = $5, others = $6,
			subtotal = $7, total = $8, payment_method = $9, notes = $10, due_date = $11,
			customer_id = $12, updated_at = NOW()
		WHERE id = $1 AND NOT is_confirmed`,
		o.ID, o.PriceTierID, o.ShippingFee, o.BankCharge, o.Discount, o.Others,
		o.Subtotal, o.Total, o.PaymentMethod, o.Notes, o.DueDate, o.CustomerID,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return core.Locked("Sales order %s is confirmed and can no longer be changed.", o.Number)
	}
	_, err = salesshared.ReplaceLines(ctx, r.db, salesshared.SalesOrderLines, o.ID, o.Lines)
	return err
}

func (r *repository) MarkConfirmed(ctx context.Context, id, staffID int64, at time.Time) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE sales_orders
		SET status = $2, is_confirmed = TRUE, confirmed_by = $3, confirmed_at = $4, updated_at = NOW()
		WHERE id = $1 AND NOT is_confirmed`,
		id, SalesOrderStatusConfirmed, staffID, at)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return core.InvalidState("Sales order %d could not be confirmed.", id)
	}
	return nil
}

// Delete removes a draft order. A quotation converted into it returns to approved.
func (r *repository) Delete(ctx context.Context, id int64) error {
	if _, err := r.db.Exec(ctx, `
		UPDATE quotations SET status = 'approved', sales_order_id = NULL, updated_at = NOW()
		WHERE sales_order_id = $1`, id); err != nil {
		return err
	}
	tag, err := r.db.Exec(ctx, `DELETE FROM sales_orders WHERE id = $1 AND NOT is_confirmed`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return core.NotFound("Sales order", id)
	}
	return nil
}
