package warehouses

import (
	"context"
	"errors"
	"strconv"

	"github.com/jackc/pgx/v5"

	"github.com/hairline-erp/hairline/internal/masterdata/shared"
	"github.com/hairline-erp/hairline/internal/platform/db"
	core "github.com/hairline-erp/hairline/internal/shared"
)

type Repository interface {
	List(ctx context.Context, filters shared.ListFilters) ([]Warehouse, int, error)
	Get(ctx context.Context, id int64) (Warehouse, error)
	ReservedBucket(ctx context.Context) (Warehouse, error)
	Create(ctx context.Context, w Warehouse) (Warehouse, error)
	Update(ctx context.Context, id int64, w Warehouse) error
}

type repository struct {
	db db.DBTX
}

func NewRepository(conn db.DBTX) Repository {
	return &repository{db: conn}
}

const selectWarehouse = `SELECT id, code, name, address, is_reserved_bucket, is_active, created_at, updated_at FROM warehouses`

func scanWarehouse(row pgx.Row) (Warehouse, error) {
	var w Warehouse
	err := row.Scan(&w.ID, &w.Code, &w.Name, &w.Address, &w.IsReservedBucket, &w.IsActive, &w.CreatedAt, &w.UpdatedAt)
	return w, err
}

func (r *repository) List(ctx context.Context, filters shared.ListFilters) ([]Warehouse, int, error) {
	where := ` WHERE 1=1`
	args := []any{}
	if filters.Search != "" {
		args = append(args, "%"+filters.Search+"%")
		n := strconv.Itoa(len(args))
		where += ` AND (name ILIKE $` + n + ` OR code ILIKE $` + n + `)`
	}
	if filters.IsActive != nil {
		args = append(args, *filters.IsActive)
		where += ` AND is_active = $` + strconv.Itoa(len(args))
	}

	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM warehouses`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	order := "name"
	if filters.SortBy == "code" {
		order = "code"
	}
	query := selectWarehouse + where + ` ORDER BY ` + order + ` ` + shared.SortDirection(filters.SortDir)
	if filters.Limit > 0 {
		args = append(args, filters.Limit, filters.Offset())
		query += ` LIMIT $` + strconv.Itoa(len(args)-1) + ` OFFSET $` + strconv.Itoa(len(args))
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var out []Warehouse
	for rows.Next() {
		w, err := scanWarehouse(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, w)
	}
	return out, total, rows.Err()
}

func (r *repository) Get(ctx context.Context, id int64) (Warehouse, error) {
	w, err := scanWarehouse(r.db.QueryRow(ctx, selectWarehouse+` WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Warehouse{}, core.NotFound("Warehouse", id)
	}
	return w, err
}

func (r *repository) ReservedBucket(ctx context.Context) (Warehouse, error) {
	w, err := scanWarehouse(r.db.QueryRow(ctx, selectWarehouse+` WHERE is_reserved_bucket`))
	if errors.Is(err, pgx.ErrNoRows) {
		return Warehouse{}, core.InvalidState("No reserved stock location is configured. Run the seed command or ask an administrator.")
	}
	return w, err
}

func (r *repository) Create(ctx context.Context, w Warehouse) (Warehouse, error) {
	err := r.db.QueryRow(ctx,
		`INSERT INTO warehouses (code, name, address, is_reserved_bucket, is_active) VALUES ($1, $2, $3, $4, $5) RETURNING id, created_at, updated_at`,
		w.Code, w.Name, w.Address, w.IsReservedBucket, w.IsActive,
	).Scan(&w.ID, &w.CreatedAt, &w.UpdatedAt)
	if err != nil {
		return Warehouse{}, shared.TranslateWriteError(err, "Warehouse", "code", w.Code)
	}
	return w, nil
}

func (r *repository) Update(ctx context.Context, id int64, w Warehouse) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE warehouses SET code = $1, name = $2, address = $3, is_active = $4, updated_at = NOW() WHERE id = $5`,
		w.Code, w.Name, w.Address, w.IsActive, id,
	)
	if err != nil {
		return shared.TranslateWriteError(err, "Warehouse", "code", w.Code)
	}
	if tag.RowsAffected() == 0 {
		return core.NotFound("Warehouse", id)
	}
	return nil
}
