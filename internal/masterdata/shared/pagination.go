package shared

import (
	"net/http"
	"strconv"
	"strings"

	core "github.com/hairline-erp/hairline/internal/shared"
)

// SortDesc is the dir query value that reverses list order.
const SortDesc = "desc"

// ListFilters represents standard list page filters
type ListFilters struct {
	Page     int
	Limit    int
	Search   string
	SortBy   string
	SortDir  string
	IsActive *bool
}

// Offset returns the row offset for the current page.
func (f ListFilters) Offset() int {
	if f.Page <= 1 || f.Limit <= 0 {
		return 0
	}
	return (f.Page - 1) * f.Limit
}

// FiltersFromRequest reads page, per_page, q, sort, dir and active query parameters.
func FiltersFromRequest(r *http.Request) ListFilters {
	page, limit, _ := core.PageParams(r)
	q := r.URL.Query()
	f := ListFilters{
		Page:    page,
		Limit:   limit,
		Search:  strings.TrimSpace(q.Get("q")),
		SortBy:  q.Get("sort"),
		SortDir: q.Get("dir"),
	}
	if raw := q.Get("active"); raw != "" {
		if v, err := strconv.ParseBool(raw); err == nil {
			f.IsActive = &v
		}
	}
	return f
}

// SortDirection returns the SQL direction keyword.
func SortDirection(dir string) string {
	if strings.EqualFold(dir, SortDesc) {
		return "DESC"
	}
	return "ASC"
}
