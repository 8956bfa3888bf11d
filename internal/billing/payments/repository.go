package payments

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hairline-erp/hairline/internal/billing/invoices"
	"github.com/hairline-erp/hairline/internal/numbering"
	"github.com/hairline-erp/hairline/internal/platform/db"
	core "github.com/hairline-erp/hairline/internal/shared"
)

type Repository interface {
	numbering.Sequencer
	WithTx(ctx context.Context, fn func(context.Context, Repository) error) error
	// Invoices returns an invoice repository sharing this repository's connection or transaction.
	Invoices() invoices.Repository
	Get(ctx context.Context, id int64) (Payment, error)
	GetForUpdate(ctx context.Context, id int64) (Payment, error)
	List(ctx context.Context, filters ListFilters) ([]Payment, int, error)
	Create(ctx context.Context, p Payment) (Payment, error)
	SaveDecision(ctx context.Context, p Payment) error
}

type repository struct {
	db       db.DBTX
	pool     *pgxpool.Pool
	seq      *numbering.Repository
	invoices invoices.Repository
}

func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{db: pool, pool: pool, seq: numbering.NewRepository(pool), invoices: invoices.NewRepository(pool)}
}

func NewTxRepository(tx db.DBTX) Repository {
	return &repository{db: tx, seq: numbering.NewRepository(tx), invoices: invoices.NewTxRepository(tx)}
}

func (r *repository) WithTx(ctx context.Context, fn func(context.Context, Repository) error) error {
	if r.pool == nil {
		return fn(ctx, r)
	}
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, NewTxRepository(tx))
	})
}

func (r *repository) Invoices() invoices.Repository { return r.invoices }

func (r *repository) Increment(ctx context.Context, class numbering.Class, year, month int) (int64, error) {
	return r.seq.Increment(ctx, class, year, month)
}

const selectPayment = `
	SELECT p.id, p.number, p.invoice_id, p.amount, p.method, p.proof_images, p.metadata, p.status,
	       p.submitted_by, p.submitted_at, p.verified_by, p.verified_at, p.notes, p.rejection_reason
	FROM payments p`

func scanPayment(row pgx.Row) (Payment, error) {
	var p Payment
	err := row.Scan(&p.ID, &p.Number, &p.InvoiceID, &p.Amount, &p.Method, &p.ProofImages, &p.Metadata, &p.Status,
		&p.SubmittedBy, &p.SubmittedAt, &p.VerifiedBy, &p.VerifiedAt, &p.Notes, &p.RejectionReason)
	return p, err
}

func (r *repository) Get(ctx context.Context, id int64) (Payment, error) {
	return r.get(ctx, selectPayment+` WHERE p.id = $1`, id)
}

func (r *repository) GetForUpdate(ctx context.Context, id int64) (Payment, error) {
	return r.get(ctx, selectPayment+` WHERE p.id = $1 FOR UPDATE`, id)
}

func (r *repository) get(ctx context.Context, query string, id int64) (Payment, error) {
	p, err := scanPayment(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Payment{}, core.NotFound("Payment", id)
		}
		return Payment{}, err
	}
	return p, nil
}

func (r *repository) List(ctx context.Context, filters ListFilters) ([]Payment, int, error) {
	var conds []string
	var args []any
	if filters.InvoiceID > 0 {
		args = append(args, filters.InvoiceID)
		conds = append(conds, "p.invoice_id = $"+strconv.Itoa(len(args)))
	}
	if filters.Status != "" {
		args = append(args, filters.Status)
		conds = append(conds, "p.status = $"+strconv.Itoa(len(args)))
	}
	where := ""
	if len(conds) > 0 {
		where = " WHERE " + strings.Join(conds, " AND ")
	}

	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM payments p`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}
	limit := filters.Limit
	if limit <= 0 {
		limit = core.DefaultPerPage
	}
	args = append(args, limit, filters.Offset)
	rows, err := r.db.Query(ctx, selectPayment+where+` ORDER BY p.submitted_at DESC, p.id DESC LIMIT $`+strconv.Itoa(len(args)-1)+` OFFSET $`+strconv.Itoa(len(args)), args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var out []Payment
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, p)
	}
	return out, total, rows.Err()
}

func (r *repository) Create(ctx context.Context, p Payment) (Payment, error) {
	if p.Metadata == nil {
		p.Metadata = map[string]string{}
	}
	err := r.db.QueryRow(ctx, `
		INSERT INTO payments (number, invoice_id, amount, method, proof_images, metadata, status, submitted_by, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, submitted_at`,
		p.Number, p.InvoiceID, p.Amount, p.Method, p.ProofImages, p.Metadata, p.Status, p.SubmittedBy, p.Notes,
	).Scan(&p.ID, &p.SubmittedAt)
	if err != nil {
		if db.IsUniqueViolation(err, "payments_number_key") {
			return Payment{}, core.InvalidState("Payment number %s is already taken; please retry.", p.Number)
		}
		return Payment{}, err
	}
	return p, nil
}

// SaveDecision records the verifier outcome of a submitted payment.
func (r *repository) SaveDecision(ctx context.Context, p Payment) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE payments SET status = $2, verified_by = $3, verified_at = $4, notes = $5, rejection_reason = $6
		WHERE id = $1 AND status = 'submitted'`,
		p.ID, p.Status, p.VerifiedBy, p.VerifiedAt, p.Notes, p.RejectionReason)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return core.InvalidState("Payment %s has already been verified.", p.Number)
	}
	return nil
}
