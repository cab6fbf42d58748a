package echoapi

import (
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/trezcool/campus/core"
)

var (
	orderingParam = "ordering"
	pageParam     = "page"
	limitParam    = "limit"
)

// ListResponse is the body of every paginated listing.
type ListResponse struct {
	Results interface{} `json:"results"`
	Total   int         `json:"total"`
}

type Ordering struct {
	Orderings []core.DBOrdering
}

// Bind parses `?ordering=name,-created_at`, keeping only allowed fields.
func (ord *Ordering) Bind(ctx echo.Context, allowed ...string) {
	val := ctx.QueryParam(orderingParam)
	if val == "" {
		return
	}

	for _, field := range strings.Split(val, ",") {
		field = strings.TrimSpace(field)
		descending := strings.HasPrefix(field, "-")
		if descending {
			field = field[1:] // drop "-"
		}
		if !contains(allowed, field) {
			continue
		}
		ord.Orderings = append(ord.Orderings, core.DBOrdering{Field: field, Ascending: !descending})
	}
}

// bindPagination reads `page` and `limit`; invalid values fall back to the configured defaults.
func bindPagination(ctx echo.Context, conf core.PaginationConfig) core.Pagination {
	var page core.Pagination
	page.Page, _ = strconv.Atoi(ctx.QueryParam(pageParam))
	page.Limit, _ = strconv.Atoi(ctx.QueryParam(limitParam))
	page.Clean(conf.DefaultLimit, conf.MaxLimit)
	return page
}

func queryBool(ctx echo.Context, name string) *bool {
	b, err := strconv.ParseBool(ctx.QueryParam(name))
	if err != nil {
		return nil
	}
	return &b
}

// queryTime accepts RFC 3339 timestamps and YYYY-MM-DD days.
func queryTime(ctx echo.Context, name string) time.Time {
	val := ctx.QueryParam(name)
	if val == "" {
		return time.Time{}
	}
	if t, err := time.Parse(time.RFC3339, val); err == nil {
		return t.UTC()
	}
	if t, err := core.ParseDate(val); err == nil {
		return t
	}
	return time.Time{}
}

// queryStrings collects repeated and comma separated values: `?role=a&role=b,c`.
func queryStrings(ctx echo.Context, name string) []string {
	var vals []string
	for _, v := range ctx.QueryParams()[name] {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				vals = append(vals, part)
			}
		}
	}
	return vals
}

func contains(vals []string, val string) bool {
	for _, v := range vals {
		if v == val {
			return true
		}
	}
	return false
}
