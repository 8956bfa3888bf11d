package shared

import (
	"context"
	"fmt"

	"github.com/hairline-erp/hairline/internal/platform/db"
)

// LineTable names a line table and its parent foreign key. Only the constants
// below are valid; they are interpolated into SQL.
type LineTable struct {
	Table     string
	ParentKey string
}

var (
	QuotationLines  = LineTable{Table: "quotation_lines", ParentKey: "quotation_id"}
	SalesOrderLines = LineTable{Table: "sales_order_lines", ParentKey: "sales_order_id"}
	InvoiceLines    = LineTable{Table: "invoice_lines", ParentKey: "invoice_id"}
)

// LoadLines returns the lines of a document ordered by line number.
func LoadLines(ctx context.Context, conn db.DBTX, t LineTable, parentID int64) ([]Line, error) {
	rows, err := conn.Query(ctx, fmt.Sprintf(
		`SELECT id, line_no, product_id, description, unit, quantity, unit_price, line_total FROM %s WHERE %s = $1 ORDER BY line_no`,
		t.Table, t.ParentKey), parentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var lines []Line
	for rows.Next() {
		var l Line
		if err := rows.Scan(&l.ID, &l.LineNo, &l.ProductID, &l.Description, &l.Unit, &l.Quantity, &l.UnitPrice, &l.LineTotal); err != nil {
			return nil, err
		}
		lines = append(lines, l)
	}
	return lines, rows.Err()
}

// ReplaceLines deletes existing lines and inserts lines, assigning fresh ids.
func ReplaceLines(ctx context.Context, conn db.DBTX, t LineTable, parentID int64, lines []Line) ([]Line, error) {
	if _, err := conn.Exec(ctx, fmt.Sprintf(`DELETE FROM %s WHERE %s = $1`, t.Table, t.ParentKey), parentID); err != nil {
		return nil, err
	}
	out := make([]Line, len(lines))
	insert := fmt.Sprintf(
		`INSERT INTO %s (%s, line_no, product_id, description, unit, quantity, unit_price, line_total) VALUES ($1, $2, $3, $4, $5, $6, $7, $8) RETURNING id`,
		t.Table, t.ParentKey)
	for i, l := range lines {
		if err := conn.QueryRow(ctx, insert, parentID, l.LineNo, l.ProductID, l.Description, l.Unit, l.Quantity, l.UnitPrice, l.LineTotal).Scan(&l.ID); err != nil {
			return nil, err
		}
		out[i] = l
	}
	return out, nil
}
