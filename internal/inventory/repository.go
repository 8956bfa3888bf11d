package inventory

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/hairline-erp/hairline/internal/platform/db"
)

// TxRepository exposes the ledger operations that must run inside one transaction.
type TxRepository interface {
	LockStock(ctx context.Context, warehouseID, productID int64) error
	Stock(ctx context.Context, warehouseID, productID int64) (decimal.Decimal, error)
	InsertMovement(ctx context.Context, m Movement) (Movement, error)
}

// Repository persists inventory data in PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
	q    *queries
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool, q: &queries{db: pool}}
}

// NewTxRepository binds ledger operations to an open transaction owned by the caller.
func NewTxRepository(conn db.DBTX) TxRepository {
	return &queries{db: conn}
}

// WithTx executes the callback inside a read-committed transaction.
func (r *Repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &queries{db: tx})
	})
}

func (r *Repository) Stock(ctx context.Context, warehouseID, productID int64) (decimal.Decimal, error) {
	return r.q.Stock(ctx, warehouseID, productID)
}

// LowStock returns active (warehouse, product) pairs outside the reserved bucket
// whose derived stock is at or below threshold. Pairs without movements count as zero.
func (r *Repository) LowStock(ctx context.Context, threshold decimal.Decimal) ([]StockLevel, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT w.id, w.code, p.id, p.sku, p.name, p.unit, COALESCE(s.qty, 0) AS qty
		FROM warehouses w
		CROSS JOIN products p
		LEFT JOIN (
			SELECT warehouse_id, product_id, SUM(quantity) AS qty
			FROM inventory_movements
			GROUP BY warehouse_id, product_id
		) s ON s.warehouse_id = w.id AND s.product_id = p.id
		WHERE w.is_active AND NOT w.is_reserved_bucket AND p.is_active
		  AND COALESCE(s.qty, 0) <= $1
		ORDER BY qty, w.code, p.sku`, threshold)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []StockLevel
	for rows.Next() {
		var lvl StockLevel
		if err := rows.Scan(&lvl.WarehouseID, &lvl.WarehouseCode, &lvl.ProductID, &lvl.SKU, &lvl.ProductName, &lvl.Unit, &lvl.Quantity); err != nil {
			return nil, err
		}
		out = append(out, lvl)
	}
	return out, rows.Err()
}

// StockCard lists the latest movements of a pair, oldest first, with running balances.
func (r *Repository) StockCard(ctx context.Context, filter StockCardFilter) ([]StockCardEntry, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = 200
	}
	rows, err := r.pool.Query(ctx, `
		SELECT * FROM (
			SELECT id, warehouse_id, product_id, quantity, movement_type, reference_id, reason, created_by, created_at,
			       SUM(quantity) OVER (ORDER BY created_at, id) AS balance
			FROM inventory_movements
			WHERE warehouse_id = $1 AND product_id = $2
			ORDER BY created_at DESC, id DESC
			LIMIT $3
		) card ORDER BY created_at, id`, filter.WarehouseID, filter.ProductID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []StockCardEntry
	for rows.Next() {
		var e StockCardEntry
		if err := rows.Scan(&e.ID, &e.WarehouseID, &e.ProductID, &e.Quantity, &e.Type, &e.ReferenceID, &e.Reason, &e.CreatedBy, &e.CreatedAt, &e.Balance); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

type queries struct {
	db db.DBTX
}

// LockStock serialises writers of one (warehouse, product) pair. The key row is
// created on first use so there is always something to lock.
func (q *queries) LockStock(ctx context.Context, warehouseID, productID int64) error {
	if _, err := q.db.Exec(ctx, `INSERT INTO stock_keys (warehouse_id, product_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`, warehouseID, productID); err != nil {
		return err
	}
	var discard int64
	return q.db.QueryRow(ctx, `SELECT warehouse_id FROM stock_keys WHERE warehouse_id = $1 AND product_id = $2 FOR UPDATE`, warehouseID, productID).Scan(&discard)
}

func (q *queries) Stock(ctx context.Context, warehouseID, productID int64) (decimal.Decimal, error) {
	var qty decimal.Decimal
	err := q.db.QueryRow(ctx, `SELECT COALESCE(SUM(quantity), 0) FROM inventory_movements WHERE warehouse_id = $1 AND product_id = $2`, warehouseID, productID).Scan(&qty)
	return qty, err
}

func (q *queries) InsertMovement(ctx context.Context, m Movement) (Movement, error) {
	err := q.db.QueryRow(ctx, `
		INSERT INTO inventory_movements (warehouse_id, product_id, quantity, movement_type, reference_id, reason, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at`,
		m.WarehouseID, m.ProductID, m.Quantity, string(m.Type), m.ReferenceID, m.Reason, m.CreatedBy,
	).Scan(&m.ID, &m.CreatedAt)
	return m, err
}
