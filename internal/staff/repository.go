package staff

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/hairline-erp/hairline/internal/platform/db"
	"github.com/hairline-erp/hairline/internal/shared"
)

// Repository exposes persistence for staff accounts.
type Repository interface {
	Get(ctx context.Context, id int64) (Member, error)
	List(ctx context.Context, limit, offset int) ([]Member, int, error)
	Create(ctx context.Context, m Member) (Member, error)
	Update(ctx context.Context, m Member) error
}

type repository struct {
	db db.DBTX
}

func NewRepository(conn db.DBTX) Repository {
	return &repository{db: conn}
}

const memberColumns = `id, email, name, role, permissions, COALESCE(password_hash, ''), is_active, created_at, updated_at`

func scanMember(row pgx.Row) (Member, error) {
	var m Member
	err := row.Scan(&m.ID, &m.Email, &m.Name, &m.Role, &m.Permissions, &m.PasswordHash, &m.IsActive, &m.CreatedAt, &m.UpdatedAt)
	return m, err
}

func (r *repository) Get(ctx context.Context, id int64) (Member, error) {
	m, err := scanMember(r.db.QueryRow(ctx, `SELECT `+memberColumns+` FROM staff WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Member{}, shared.NotFound("Staff member", id)
	}
	return m, err
}

func (r *repository) List(ctx context.Context, limit, offset int) ([]Member, int, error) {
	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM staff`).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.db.Query(ctx, `SELECT `+memberColumns+` FROM staff ORDER BY name LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var out []Member
	for rows.Next() {
		m, err := scanMember(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, m)
	}
	return out, total, rows.Err()
}

func (r *repository) Create(ctx context.Context, m Member) (Member, error) {
	var hash *string
	if m.PasswordHash != "" {
		hash = &m.PasswordHash
	}
	err := r.db.QueryRow(ctx,
		`INSERT INTO staff (email, name, role, permissions, password_hash, is_active) VALUES ($1, $2, $3, $4, $5, $6) RETURNING id, created_at, updated_at`,
		m.Email, m.Name, m.Role, m.Permissions, hash, m.IsActive,
	).Scan(&m.ID, &m.CreatedAt, &m.UpdatedAt)
	if db.IsUniqueViolation(err, "") {
		return Member{}, shared.ValidationFields(map[string]string{"email": "A staff member with this email already exists"})
	}
	return m, err
}

func (r *repository) Update(ctx context.Context, m Member) error {
	var hash *string
	if m.PasswordHash != "" {
		hash = &m.PasswordHash
	}
	tag, err := r.db.Exec(ctx,
		`UPDATE staff SET name = $1, role = $2, permissions = $3, password_hash = $4, is_active = $5, updated_at = NOW() WHERE id = $6`,
		m.Name, m.Role, m.Permissions, hash, m.IsActive, m.ID,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.NotFound("Staff member", m.ID)
	}
	return nil
}
