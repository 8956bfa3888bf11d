package quotations

import (
	"context"
	"errors"
	"strconv"

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
	Get(ctx context.Context, id int64) (Quotation, error)
	GetForUpdate(ctx context.Context, id int64) (Quotation, error)
	List(ctx context.Context, filters salesshared.DocumentFilters) ([]Quotation, int, error)
	Create(ctx context.Context, quotation Quotation) (Quotation, error)
	Update(ctx context.Context, quotation Quotation) error
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

const selectQuotation = `
	SELECT q.id, q.number, q.customer_id, q.price_tier_id, q.revision, q.status,
	       q.shipping_fee, q.bank_charge, q.discount, q.others, q.subtotal, q.total,
	       q.payment_method, q.notes, q.rejection_reason, q.sales_order_id,
	       q.created_by, q.created_at, q.revised_at, q.updated_at
	FROM quotations q`

func scanQuotation(row pgx.Row) (Quotation, error) {
	var q Quotation
	err := row.Scan(
		&q.ID, &q.Number, &q.CustomerID, &q.PriceTierID, &q.Revision, &q.Status,
		&q.ShippingFee, &q.BankCharge, &q.Discount, &q.Others, &q.Subtotal, &q.Total,
		&q.PaymentMethod, &q.Notes, &q.RejectionReason, &q.SalesOrderID,
		&q.CreatedBy, &q.CreatedAt, &q.RevisedAt, &q.UpdatedAt,
	)
	return q, err
}

func (r *repository) Get(ctx context.Context, id int64) (Quotation, error) {
	return r.get(ctx, selectQuotation+` WHERE q.id = $1`, id)
}

// GetForUpdate locks the quotation row for the rest of the transaction.
func (r *repository) GetForUpdate(ctx context.Context, id int64) (Quotation, error) {
	return r.get(ctx, selectQuotation+` WHERE q.id = $1 FOR UPDATE`, id)
}

func (r *repository) get(ctx context.Context, query string, id int64) (Quotation, error) {
	q, err := scanQuotation(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Quotation{}, core.NotFound("Quotation", id)
		}
		return Quotation{}, err
	}
	q.Lines, err = salesshared.LoadLines(ctx, r.db, salesshared.QuotationLines, q.ID)
	if err != nil {
		return Quotation{}, err
	}
	return q, nil
}

func (r *repository) List(ctx context.Context, filters salesshared.DocumentFilters) ([]Quotation, int, error) {
	where, args := filters.Where("q")

	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM quotations q`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	limit := filters.Limit
	if limit <= 0 {
		limit = core.DefaultPerPage
	}
	args = append(args, limit, filters.Offset)
	rows, err := r.db.Query(ctx, selectQuotation+where+` ORDER BY q.created_at DESC, q.id DESC LIMIT $`+strconv.Itoa(len(args)-1)+` OFFSET $`+strconv.Itoa(len(args)), args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []Quotation
	for rows.Next() {
		q, err := scanQuotation(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, q)
	}
	return out, total, rows.Err()
}

func (r *repository) Create(ctx context.Context, q Quotation) (Quotation, error) {
	err := r.db.QueryRow(ctx, `
		INSERT INTO quotations (number, customer_id, price_tier_id, revision, status,
			shipping_fee, bank_charge, discount, others, subtotal, total,
			payment_method, notes, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		RETURNING id, created_at, revised_at, updated_at`,
		q.Number, q.CustomerID, q.PriceTierID, q.Revision, q.Status,
		q.ShippingFee, q.BankCharge, q.Discount, q.Others, q.Subtotal, q.Total,
		q.PaymentMethod, q.Notes, q.CreatedBy,
	).Scan(&q.ID, &q.CreatedAt, &q.RevisedAt, &q.UpdatedAt)
	if err != nil {
		if db.IsUniqueViolation(err, "quotations_number_key") {
			return Quotation{}, core.InvalidState("Quotation number %s is already taken; please retry.", q.Number)
		}
		return Quotation{}, err
	}
	q.Lines, err = salesshared.ReplaceLines(ctx, r.db, salesshared.QuotationLines, q.ID, q.Lines)
	if err != nil {
		return Quotation{}, err
	}
	return q, nil
}

// Update writes the header, including status fields, and replaces the lines.
func (r *repository) Update(ctx context.Context, q Quotation) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE quotations SET
			price_tier_id = $2, revision = $3, status = $4,
			shipping_fee = $5, bank_charge = $6, discount = $7, others = $8,
			subtotal = $9, total = $10, payment_method = $11, notes = $12,
			rejection_reason = $13, sales_order_id = $14, revised_at = $15,
			customer_id = $16, updated_at = NOW()
		WHERE id = $1`,
		q.ID, q.PriceTierID, q.Revision, q.Status,
		q.ShippingFee, q.BankCharge, q.Discount, q.Others,
		q.Subtotal, q.Total, q.PaymentMethod, q.Notes,
		q.RejectionReason, q.SalesOrderID, q.RevisedAt,
		q.CustomerID,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return core.NotFound("Quotation", q.ID)
	}
	_, err = salesshared.ReplaceLines(ctx, r.db, salesshared.QuotationLines, q.ID, q.Lines)
	return err
}

func (r *repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM quotations WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return core.NotFound("Quotation", id)
	}
	return nil
}
