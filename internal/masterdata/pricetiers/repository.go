package pricetiers

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
	List(ctx context.Context, filters shared.ListFilters) ([]PriceTier, int, error)
	Get(ctx context.Context, id int64) (PriceTier, error)
	GetByCode(ctx context.Context, code string) (PriceTier, error)
	Create(ctx context.Context, tier PriceTier) (PriceTier, error)
	Update(ctx context.Context, id int64, tier PriceTier) error
}

type repository struct {
	db db.DBTX
}

func NewRepository(conn db.DBTX) Repository {
	return &repository{db: conn}
}

const selectTier = `SELECT id, code, name, multiplier, created_at, updated_at FROM price_tiers`

func (r *repository) List(ctx context.Context, filters shared.ListFilters) ([]PriceTier, int, error) {
	where := ` WHERE 1=1`
	args := []any{}
	if filters.Search != "" {
		args = append(args, "%"+filters.Search+"%")
		where += ` AND (code ILIKE $1 OR name ILIKE $1)`
	}

	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM price_tiers`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := selectTier + where + ` ORDER BY code ` + shared.SortDirection(filters.SortDir)
	if filters.Limit > 0 {
		query += ` LIMIT ` + strconv.Itoa(filters.Limit) + ` OFFSET ` + strconv.Itoa(filters.Offset())
	}
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var tiers []PriceTier
	for rows.Next() {
		var t PriceTier
		if err := rows.Scan(&t.ID, &t.Code, &t.Name, &t.Multiplier, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, 0, err
		}
		tiers = append(tiers, t)
	}
	return tiers, total, rows.Err()
}

func (r *repository) Get(ctx context.Context, id int64) (PriceTier, error) {
	return r.scanOne(ctx, selectTier+` WHERE id = $1`, id)
}

func (r *repository) GetByCode(ctx context.Context, code string) (PriceTier, error) {
	return r.scanOne(ctx, selectTier+` WHERE code = $1`, code)
}

func (r *repository) scanOne(ctx context.Context, query string, arg any) (PriceTier, error) {
	var t PriceTier
	err := r.db.QueryRow(ctx, query, arg).Scan(&t.ID, &t.Code, &t.Name, &t.Multiplier, &t.CreatedAt, &t.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return PriceTier{}, core.NotFound("Price tier", arg)
	}
	return t, err
}

func (r *repository) Create(ctx context.Context, tier PriceTier) (PriceTier, error) {
	err := r.db.QueryRow(ctx,
		`INSERT INTO price_tiers (code, name, multiplier) VALUES ($1, $2, $3) RETURNING id, created_at, updated_at`,
		tier.Code, tier.Name, tier.Multiplier,
	).Scan(&tier.ID, &tier.CreatedAt, &tier.UpdatedAt)
	if err != nil {
		return PriceTier{}, shared.TranslateWriteError(err, "Price tier", "code", tier.Code)
	}
	return tier, nil
}

func (r *repository) Update(ctx context.Context, id int64, tier PriceTier) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE price_tiers SET code = $1, name = $2, multiplier = $3, updated_at = NOW() WHERE id = $4`,
		tier.Code, tier.Name, tier.Multiplier, id,
	)
	if err != nil {
		return shared.TranslateWriteError(err, "Price tier", "code", tier.Code)
	}
	if tag.RowsAffected() == 0 {
		return core.NotFound("Price tier", id)
	}
	return nil
}

