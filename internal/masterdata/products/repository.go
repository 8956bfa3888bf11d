package products

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
	List(ctx context.Context, filters shared.ListFilters) ([]Product, int, error)
	Get(ctx context.Context, id int64) (Product, error)
	Create(ctx context.Context, product Product) (Product, error)
	Update(ctx context.Context, id int64, product Product) error
}

type repository struct {
	db db.DBTX
}

func NewRepository(conn db.DBTX) Repository {
	return &repository{db: conn}
}

const selectProduct = `SELECT id, sku, name, unit, base_price, is_active, created_at, updated_at FROM products`

func (r *repository) List(ctx context.Context, filters shared.ListFilters) ([]Product, int, error) {
	where := ` WHERE 1=1`
	args := []any{}
	argCount := 0

	if filters.Search != "" {
		argCount++
		where += ` AND (name ILIKE $` + strconv.Itoa(argCount) + ` OR sku ILIKE $` + strconv.Itoa(argCount) + `)`
		args = append(args, "%"+filters.Search+"%")
	}
	if filters.IsActive != nil {
		argCount++
		where += ` AND is_active = $` + strconv.Itoa(argCount)
		args = append(args, *filters.IsActive)
	}

	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM products`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := selectProduct + where + " ORDER BY " + sortOrder(filters.SortBy, filters.SortDir)
	if filters.Limit > 0 {
		argCount++
		query += ` LIMIT $` + strconv.Itoa(argCount)
		args = append(args, filters.Limit)
		argCount++
		query += ` OFFSET $` + strconv.Itoa(argCount)
		args = append(args, filters.Offset())
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var products []Product
	for rows.Next() {
		var p Product
		if err := rows.Scan(&p.ID, &p.SKU, &p.Name, &p.Unit, &p.BasePrice, &p.IsActive, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, 0, err
		}
		products = append(products, p)
	}
	return products, total, rows.Err()
}

func (r *repository) Get(ctx context.Context, id int64) (Product, error) {
	var p Product
	err := r.db.QueryRow(ctx, selectProduct+` WHERE id = $1`, id).
		Scan(&p.ID, &p.SKU, &p.Name, &p.Unit, &p.BasePrice, &p.IsActive, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Product{}, core.NotFound("Product", id)
	}
	return p, err
}

func (r *repository) Create(ctx context.Context, product Product) (Product, error) {
	err := r.db.QueryRow(ctx,
		`INSERT INTO products (sku, name, unit, base_price, is_active) VALUES ($1, $2, $3, $4, $5) RETURNING id, created_at, updated_at`,
		product.SKU, product.Name, product.Unit, product.BasePrice, product.IsActive,
	).Scan(&product.ID, &product.CreatedAt, &product.UpdatedAt)
	if err != nil {
		return Product{}, shared.TranslateWriteError(err, "Product", "sku", product.SKU)
	}
	return product, nil
}

func (r *repository) Update(ctx context.Context, id int64, product Product) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE products SET sku = $1, name = $2, unit = $3, base_price = $4, is_active = $5, updated_at = NOW() WHERE id = $6`,
		product.SKU, product.Name, product.Unit, product.BasePrice, product.IsActive, id,
	)
	if err != nil {
		return shared.TranslateWriteError(err, "Product", "sku", product.SKU)
	}
	if tag.RowsAffected() == 0 {
		return core.NotFound("Product", id)
	}
	return nil
}

func sortOrder(sortBy, sortDir string) string {
	dir := shared.SortDirection(sortDir)
	switch sortBy {
	case "sku":
		return "sku " + dir
	case "base_price":
		return "base_price " + dir
	case "created_at":
		return "created_at " + dir
	default:
		return "name " + dir
	}
}
