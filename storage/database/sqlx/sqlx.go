// Package sqlxrepos implements the course, enrollment, grade, attendance and announcement
// repositories on PostgreSQL with sqlx.
package sqlxrepos

import (
	"context"
	"strconv"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/trezcool/campus/core"
)

const uniqueViolation = "23505"

func isUniqueViolation(err error) bool {
	pqErr, ok := errors.Cause(err).(*pq.Error)
	return ok && pqErr.Code == uniqueViolation
}

// where accumulates AND-ed conditions using `?` placeholders, rebound on build.
type where struct {
	conds []string
	args  []interface{}
}

func (w *where) add(cond string, args ...interface{}) {
	w.conds = append(w.conds, cond)
	w.args = append(w.args, args...)
}

// in adds a `col IN (...)` condition; an empty list matches nothing.
func (w *where) in(col string, vals []string) error {
	if len(vals) == 0 {
		w.add("FALSE")
		return nil
	}
	q, args, err := sqlx.In(col+" IN (?)", vals)
	if err != nil {
		return err
	}
	w.add(q, args...)
	return nil
}

func (w *where) String() string {
	if len(w.conds) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(w.conds, " AND ")
}

func limitOffset(page core.Pagination) string {
	if page.Limit <= 0 {
		return ""
	}
	return " LIMIT " + strconv.Itoa(page.Limit) + " OFFSET " + strconv.Itoa(page.Offset())
}

// selectPage runs the count and the paginated select sharing the same conditions.
func selectPage(
	ctx context.Context,
	db sqlx.ExtContext,
	dest interface{},
	from, columns, orderBy string,
	w *where,
	page core.Pagination,
) (int, error) {
	var total int
	if err := sqlx.GetContext(ctx, db, &total, db.Rebind("SELECT COUNT(*) FROM "+from+w.String()), w.args...); err != nil {
		return 0, err
	}
	q := "SELECT " + columns + " FROM " + from + w.String() + " ORDER BY " + orderBy + limitOffset(page)
	if err := sqlx.SelectContext(ctx, db, dest, db.Rebind(q), w.args...); err != nil {
		return 0, err
	}
	return total, nil
}
