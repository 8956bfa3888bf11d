package customers

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/hairline-erp/hairline/internal/masterdata/shared"
	"github.com/hairline-erp/hairline/internal/platform/db"
	core "github.com/hairline-erp/hairline/internal/shared"
)

type Repository interface {
	Get(ctx context.Context, id int64) (Customer, error)
	List(ctx context.Context, filters shared.ListFilters) ([]Customer, int, error)
	Create(ctx context.Context, customer Customer) (Customer, error)
	Update(ctx context.Context, customer Customer) error
}

type repository struct {
	db db.DBTX
}

func NewRepository(conn db.DBTX) Repository {
	return &repository{db: conn}
}

const customerColumns = `id, code, name, country, email, price_tier_id, is_active, created_by, created_at, updated_at`

func scanCustomer(row pgx.Row) (Customer, error) {
	var c Customer
	err := row.Scan(&c.ID, &c.Code, &c.Name, &c.Country, &c.Email, &c.PriceTierID, &c.IsActive, &c.CreatedBy, &c.CreatedAt, &c.UpdatedAt)
	return c, err
}

func (r *repository) Get(ctx context.Context, id int64) (Customer, error) {
	c, err := scanCustomer(r.db.QueryRow(ctx, `SELECT `+customerColumns+` FROM customers WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Customer{}, core.NotFound("Customer", id)
	}
	return c, err
}

func (r *repository) List(ctx context.Context, filters shared.ListFilters) ([]Customer, int, error) {
	var conditions []string
	var args []any
	argPos := 1

	if filters.IsActive != nil {
		conditions = append(conditions, fmt.Sprintf("is_active = $%d", argPos))
		args = append(args, *filters.IsActive)
		argPos++
	}
	if filters.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(code ILIKE $%d OR name ILIKE $%d OR email ILIKE $%d)", argPos, argPos, argPos))
		args = append(args, "%"+filters.Search+"%")
		argPos++
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = "WHERE " + strings.Join(conditions, " AND ")
	}

	var total int
	if err := r.db.QueryRow(ctx, "SELECT COUNT(*) FROM customers "+whereClause, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	orderBy := "code"
	if filters.SortBy == "name" {
		orderBy = "name"
	}
	query := fmt.Sprintf(`SELECT %s FROM customers %s ORDER BY %s %s LIMIT $%d OFFSET $%d`,
		customerColumns, whereClause, orderBy, shared.SortDirection(filters.SortDir), argPos, argPos+1)
	args = append(args, filters.Limit, filters.Offset())

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var customers []Customer
	for rows.Next() {
		c, err := scanCustomer(rows)
		if err != nil {
			return nil, 0, err
		}
		customers = append(customers, c)
	}
	return customers, total, rows.Err()
}

func (r *repository) Create(ctx context.Context, c Customer) (Customer, error) {
	err := r.db.QueryRow(ctx,
		`INSERT INTO customers (code, name, country, email, price_tier_id, is_active, created_by)
		 VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING id, created_at, updated_at`,
		c.Code, c.Name, c.Country, c.Email, c.PriceTierID, c.IsActive, c.CreatedBy,
	).Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return Customer{}, shared.TranslateWriteError(err, "Customer", "code", c.Code)
	}
	return c, nil
}

func (r *repository) Update(ctx context.Context, c Customer) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE customers SET name = $1, country = $2, email = $3, price_tier_id = $4, is_active = $5, updated_at = NOW() WHERE id = $6`,
		c.Name, c.Country, c.Email, c.PriceTierID, c.IsActive, c.ID,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return core.NotFound("Customer", c.ID)
	}
	return nil
}
