package numbering

import (
	"context"

	"github.com/hairline-erp/hairline/internal/platform/db"
)

// Repository is the PostgreSQL-backed Sequencer.
type Repository struct {
	db db.DBTX
}

// NewRepository binds the sequencer to a pool or a transaction.
func NewRepository(conn db.DBTX) *Repository {
	return &Repository{db: conn}
}

// Increment bumps the counter row in a single statement, creating it on first use.
func (r *Repository) Increment(ctx context.Context, class Class, year, month int) (int64, error) {
	const q = `
		INSERT INTO document_sequences (document_class, period_year, period_month, last_value)
		VALUES ($1, $2, $3, 1)
		ON CONFLICT (document_class, period_year, period_month)
		DO UPDATE SET last_value = document_sequences.last_value + 1, updated_at = NOW()
		RETURNING last_value`
	var value int64
	if err := r.db.QueryRow(ctx, q, string(class), year, month).Scan(&value); err != nil {
		return 0, err
	}
	return value, nil
}
