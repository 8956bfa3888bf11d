package joborders

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
	Get(ctx context.Context, id int64) (JobOrder, error)
	GetForUpdate(ctx context.Context, id int64) (JobOrder, error)
	GetBySalesOrder(ctx context.Context, salesOrderID int64) (JobOrder, error)
	List(ctx context.Context, filters salesshared.DocumentFilters) ([]JobOrder, int, error)
	Create(ctx context.Context, jo JobOrder) (JobOrder, error)
	SaveProgress(ctx context.Context, jo JobOrder) error
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

const selectJobOrder = `
	SELECT jo.id, jo.number, jo.sales_order_id, jo.source_id, jo.customer_id, jo.status, jo.notes,
	       jo.created_by, jo.created_at, jo.updated_at
	FROM job_orders jo`

func scanJobOrder(row pgx.Row) (JobOrder, error) {
	var jo JobOrder
	err := row.Scan(&jo.ID, &jo.Number, &jo.SalesOrderID, &jo.SourceID, &jo.CustomerID, &jo.Status, &jo.Notes,
		&jo.CreatedBy, &jo.CreatedAt, &jo.UpdatedAt)
	return jo, err
}

func (r *repository) Get(ctx context.Context, id int64) (JobOrder, error) {
	return r.get(ctx, selectJobOrder+` WHERE jo.id = $1`, id, id)
}

func (r *repository) GetForUpdate(ctx context.Context, id int64) (JobOrder, error) {
	return r.get(ctx, selectJobOrder+` WHERE jo.id = $1 FOR UPDATE`, id, id)
}

func (r *repository) GetBySalesOrder(ctx context.Context, salesOrderID int64) (JobOrder, error) {
	return r.get(ctx, selectJobOrder+` WHERE jo.sales_order_id = $1`, salesOrderID, "for sales order "+strconv.FormatInt(salesOrderID, 10))
}

func (r *repository) get(ctx context.Context, query string, arg int64, label any) (JobOrder, error) {
	jo, err := scanJobOrder(r.db.QueryRow(ctx, query, arg))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return JobOrder{}, core.NotFound("Job order", label)
		}
		return JobOrder{}, err
	}
	jo.Lines, err = r.lines(ctx, jo.ID)
	if err != nil {
		return JobOrder{}, err
	}
	return jo, nil
}

func (r *repository) lines(ctx context.Context, jobOrderID int64) ([]Line, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, line_no, product_id, description, unit, to_produce, reserved, ready, shipped, order_balance
		FROM job_order_lines WHERE job_order_id = $1 ORDER BY line_no`, jobOrderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Line
	for rows.Next() {
		var l Line
		if err := rows.Scan(&l.ID, &l.LineNo, &l.ProductID, &l.Description, &l.Unit,
			&l.ToProduce, &l.Reserved, &l.Ready, &l.Shipped, &l.OrderBalance); err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

func (r *repository) List(ctx context.Context, filters salesshared.DocumentFilters) ([]JobOrder, int, error) {
	where, args := filters.Where("jo")

	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM job_orders jo`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}
	limit := filters.Limit
	if limit <= 0 {
		limit = core.DefaultPerPage
	}
	args = append(args, limit, filters.Offset)
	rows, err := r.db.Query(ctx, selectJobOrder+where+` ORDER BY jo.created_at DESC, jo.id DESC LIMIT $`+strconv.Itoa(len(args)-1)+` OFFSET $`+strconv.Itoa(len(args)), args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var out []JobOrder
	for rows.Next() {
		jo, err := scanJobOrder(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, jo)
	}
	return out, total, rows.Err()
}

// Create inserts the header and lines. A second job order for the same sales order
// violates job_orders_sales_order_id_key and is reported as AlreadyConfirmed.
func (r *repository) Create(ctx context.Context, jo JobOrder) (JobOrder, error) {
	err := r.db.QueryRow(ctx, `
		INSERT INTO job_orders (number, sales_order_id, source_id, customer_id, status, notes, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at, updated_at`,
		jo.Number, jo.SalesOrderID, jo.SourceID, jo.CustomerID, jo.Status, jo.Notes, jo.CreatedBy,
	).Scan(&jo.ID, &jo.CreatedAt, &jo.UpdatedAt)
	if err != nil {
		switch {
		case db.IsUniqueViolation(err, "job_orders_sales_order_id_key"):
			return JobOrder{}, core.AlreadyConfirmed(jo.Number)
		case db.IsUniqueViolation(err, "job_orders_number_key"):
			return JobOrder{}, core.InvalidState("Job order number %s is already taken.", jo.Number)
		}
		return JobOrder{}, err
	}
	for i := range jo.Lines {
		l := &jo.Lines[i]
		if err := r.db.QueryRow(ctx, `
			INSERT INTO job_order_lines (job_order_id, line_no, product_id, description, unit,
				to_produce, reserved, ready, shipped, order_balance)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
			RETURNING id`,
			jo.ID, l.LineNo, l.ProductID, l.Description, l.Unit,
			l.ToProduce, l.Reserved, l.Ready, l.Shipped, l.OrderBalance,
		).Scan(&l.ID); err != nil {
			return JobOrder{}, err
		}
	}
	return jo, nil
}

// SaveProgress writes status, notes and every line's counters.
func (r *repository) SaveProgress(ctx context.Context, jo JobOrder) error {
	tag, err := r.db.Exec(ctx, `UPDATE job_orders SET status = $2, notes = $3, updated_at = NOW() WHERE id = $1`,
		jo.ID, jo.Status, jo.Notes)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return core.NotFound("Job order", jo.ID)
	}
	for _, l := range jo.Lines {
		if _, err := r.db.Exec(ctx, `
			UPDATE job_order_lines SET reserved = $3, ready = $4, shipped = $5, order_balance = $6
			WHERE id = $1 AND job_order_id = $2`,
			l.ID, jo.ID, l.Reserved, l.Ready, l.Shipped, l.OrderBalance); err != nil {
			return err
		}
	}
	return nil
}
