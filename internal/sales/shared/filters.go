package shared

import (
	"net/http"
	"strconv"
	"strings"

	core "github.com/hairline-erp/hairline/internal/shared"
)

// DocumentFilters narrows document lists.
type DocumentFilters struct {
	Status     string
	CustomerID int64
	Search     string
	Page       int
	Limit      int
	Offset     int
}

// FiltersFromRequest reads status, customer_id, q, page and per_page.
func FiltersFromRequest(r *http.Request) DocumentFilters {
	page, limit, offset := core.PageParams(r)
	q := r.URL.Query()
	customerID, _ := strconv.ParseInt(q.Get("customer_id"), 10, 64)
	return DocumentFilters{
		Status:     strings.ToLower(strings.TrimSpace(q.Get("status"))),
		CustomerID: customerID,
		Search:     strings.TrimSpace(q.Get("q")),
		Page:       page,
		Limit:      limit,
		Offset:     offset,
	}
}

// Where renders the shared filter conditions against a table alias. The
// returned args start at $1.
func (f DocumentFilters) Where(alias string) (string, []any) {
	var conds []string
	var args []any
	if f.Status != "" {
		args = append(args, f.Status)
		conds = append(conds, alias+".status = $"+strconv.Itoa(len(args)))
	}
	if f.CustomerID > 0 {
		args = append(args, f.CustomerID)
		conds = append(conds, alias+".customer_id = $"+strconv.Itoa(len(args)))
	}
	if f.Search != "" {
		args = append(args, "%"+f.Search+"%")
		conds = append(conds, alias+".number ILIKE $"+strconv.Itoa(len(args)))
	}
	if len(conds) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}
