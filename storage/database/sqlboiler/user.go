package boiledrepos

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"
	"github.com/volatiletech/sqlboiler/v4/queries"
	"github.com/volatiletech/strmangle"

	"github.com/trezcool/campus/core"
	"github.com/trezcool/campus/core/user"
)

const userColumns = `id, name, email, role, department, student_id, employee_id, phone, avatar, is_active,
	password_hash, created_at, updated_at, last_login`

// userOrderable lists the columns a listing may be ordered by.
var userOrderable = map[string]bool{"name": true, "email": true, "role": true, "created_at": true, "last_login": true}

type userRow struct {
	ID           string      `boil:"id"`
	Name         string      `boil:"name"`
	Email        string      `boil:"email"`
	Role         string      `boil:"role"`
	Department   null.String `boil:"department"`
	StudentID    null.String `boil:"student_id"`
	EmployeeID   null.String `boil:"employee_id"`
	Phone        null.String `boil:"phone"`
	Avatar       null.String `boil:"avatar"`
	IsActive     bool        `boil:"is_active"`
	PasswordHash []byte      `boil:"password_hash"`
	CreatedAt    time.Time   `boil:"created_at"`
	UpdatedAt    time.Time   `boil:"updated_at"`
	LastLogin    null.Time   `boil:"last_login"`
}

type userRepository struct {
	exec core.DBExecutor
}

var _ user.Repository = (*userRepository)(nil) // interface compliance check

func NewUserRepository(exec core.DBExecutor) user.Repository {
	return &userRepository{exec: exec}
}

func (repo userRepository) boil(usr user.User) userRow {
	return userRow{
		ID:           usr.ID,
		Name:         usr.Name,
		Email:        usr.Email,
		Role:         usr.Role,
		Department:   null.NewString(usr.Department, usr.Department != ""),
		StudentID:    null.NewString(usr.StudentID, usr.StudentID != ""),
		EmployeeID:   null.NewString(usr.EmployeeID, usr.EmployeeID != ""),
		Phone:        null.NewString(usr.Phone, usr.Phone != ""),
		Avatar:       null.NewString(usr.Avatar, usr.Avatar != ""),
		IsActive:     usr.IsActive,
		PasswordHash: usr.PasswordHash,
		CreatedAt:    usr.CreatedAt.UTC(),
		UpdatedAt:    usr.UpdatedAt.UTC(),
		LastLogin:    null.NewTime(usr.LastLogin.UTC(), !usr.LastLogin.IsZero()),
	}
}

func (repo userRepository) unboil(row userRow) user.User {
	usr := user.User{
		ID:           row.ID,
		Name:         row.Name,
		Email:        row.Email,
		Role:         row.Role,
		Department:   row.Department.String,
		StudentID:    row.StudentID.String,
		EmployeeID:   row.EmployeeID.String,
		Phone:        row.Phone.String,
		Avatar:       row.Avatar.String,
		IsActive:     row.IsActive,
		PasswordHash: row.PasswordHash,
		CreatedAt:    row.CreatedAt.UTC(),
		UpdatedAt:    row.UpdatedAt.UTC(),
	}
	if row.LastLogin.Valid {
		usr.LastLogin = row.LastLogin.Time.UTC()
	}
	return usr
}

// trapNoRowsErr maps psql "no rows" err to user.ErrNotFound
func (repo userRepository) trapNoRowsErr(err error, msg string) error {
	if errors.Cause(err) == sql.ErrNoRows {
		return user.ErrNotFound
	}
	return errors.Wrap(err, msg)
}

func (repo userRepository) CheckEmailUniqueness(ctx context.Context, email string, excludedUsers ...user.User) error {
	q := `SELECT COUNT(*) AS count FROM "user" WHERE email = $1`
	args := []interface{}{email}
	if len(excludedUsers) > 0 {
		q += " AND id NOT IN (" + strmangle.Placeholders(true, len(excludedUsers), 2, 1) + ")"
		for _, u := range excludedUsers {
			args = append(args, u.ID)
		}
	}

	var res struct {
		Count int `boil:"count"`
	}
	if err := queries.Raw(q, args...).Bind(ctx, repo.exec, &res); err != nil {
		return errors.Wrap(err, "checking user uniqueness")
	}
	if res.Count > 0 {
		return user.ErrEmailExists
	}
	return nil
}

func (repo userRepository) CreateUser(ctx context.Context, usr user.User) (user.User, error) {
	usr.ID = uuid.New().String()
	row := repo.boil(usr)
	q := `INSERT INTO "user" (` + userColumns + `) VALUES (` + strmangle.Placeholders(true, 14, 1, 1) + `)`
	_, err := queries.Raw(
		q,
		row.ID, row.Name, row.Email, row.Role, row.Department, row.StudentID, row.EmployeeID, row.Phone, row.Avatar,
		row.IsActive, row.PasswordHash, row.CreatedAt, row.UpdatedAt, row.LastLogin,
	).ExecContext(ctx, repo.exec)
	if err != nil {
		return user.User{}, errors.Wrap(err, "inserting user")
	}
	return repo.unboil(row), nil
}

func (repo userRepository) GetUser(ctx context.Context, filter user.GetFilter) (user.User, error) {
	var row userRow
	var err error

	switch {
	case filter.ID != "":
		if _, err = uuid.Parse(filter.ID); err != nil {
			return user.User{}, user.ErrNotFound
		}
		err = queries.Raw(`SELECT `+userColumns+` FROM "user" WHERE id = $1`, filter.ID).Bind(ctx, repo.exec, &row)
	case filter.Email != "":
		err = queries.Raw(`SELECT `+userColumns+` FROM "user" WHERE email = $1`, filter.Email).Bind(ctx, repo.exec, &row)
	default:
		return user.User{}, user.ErrNotFound
	}
	if err != nil {
		return user.User{}, repo.trapNoRowsErr(err, "finding user")
	}
	return repo.unboil(row), nil
}

func (repo userRepository) QueryUsers(
	ctx context.Context,
	filter *user.QueryFilter,
	ordering []core.DBOrdering,
	page core.Pagination,
) ([]user.User, int, error) {
	var conds []string
	var args []interface{}
	arg := func(v interface{}) string {
		args = append(args, v)
		return strmangle.Placeholders(true, 1, len(args), 1)
	}

	if filter != nil {
		// users with Name or Email matching the search keyword
		if filter.Search != "" {
			val := "%" + filter.Search + "%"
			conds = append(conds, "(name ILIKE "+arg(val)+" OR email ILIKE "+arg(val)+")")
		}
		// users with any of the specified roles
		if len(filter.Roles) > 0 {
			start := len(args) + 1
			for _, role := range filter.Roles {
				args = append(args, role)
			}
			conds = append(conds, "role IN ("+strmangle.Placeholders(true, len(filter.Roles), start, 1)+")")
		}
		if filter.Department != "" {
			conds = append(conds, "LOWER(department) = LOWER("+arg(filter.Department)+")")
		}
		if filter.IsActive != nil {
			conds = append(conds, "is_active = "+arg(*filter.IsActive))
		}
		if !filter.CreatedFrom.IsZero() {
			conds = append(conds, "created_at >= "+arg(filter.CreatedFrom.UTC()))
		}
		if !filter.CreatedTo.IsZero() {
			conds = append(conds, "created_at <= "+arg(filter.CreatedTo.UTC()))
		}
	}

	whereClause := ""
	if len(conds) > 0 {
		whereClause = " WHERE " + strings.Join(conds, " AND ")
	}

	var cnt struct {
		Count int `boil:"count"`
	}
	if err := queries.Raw(`SELECT COUNT(*) AS count FROM "user"`+whereClause, args...).Bind(ctx, repo.exec, &cnt); err != nil {
		return nil, 0, errors.Wrap(err, "counting users")
	}

	orderList := make([]string, 0, len(ordering)+1)
	for _, ord := range ordering {
		if userOrderable[ord.Field] {
			orderList = append(orderList, ord.String())
		}
	}
	orderList = append(orderList, "created_at DESC")

	q := `SELECT ` + userColumns + ` FROM "user"` + whereClause + " ORDER BY " + strings.Join(orderList, ", ")
	if page.Limit > 0 {
		q += " LIMIT " + arg(page.Limit) + " OFFSET " + arg(page.Offset())
	}

	var rows []userRow
	if err := queries.Raw(q, args...).Bind(ctx, repo.exec, &rows); err != nil {
		return nil, 0, errors.Wrap(err, "querying users")
	}
	users := make([]user.User, 0, len(rows))
	for _, row := range rows {
		users = append(users, repo.unboil(row))
	}
	return users, cnt.Count, nil
}

func (repo userRepository) UpdateUser(ctx context.Context, usr user.User) (user.User, error) {
	row := repo.boil(usr)
	q := `UPDATE "user" SET name = $2, email = $3, role = $4, department = $5, student_id = $6, employee_id = $7,
		phone = $8, avatar = $9, is_active = $10, password_hash = $11, updated_at = $12, last_login = $13
		WHERE id = $1`
	res, err := queries.Raw(
		q,
		row.ID, row.Name, row.Email, row.Role, row.Department, row.StudentID, row.EmployeeID, row.Phone, row.Avatar,
		row.IsActive, row.PasswordHash, row.UpdatedAt, row.LastLogin,
	).ExecContext(ctx, repo.exec)
	if err != nil {
		return user.User{}, errors.Wrap(err, "updating user")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return user.User{}, user.ErrNotFound
	}
	return repo.unboil(row), nil
}

func (repo userRepository) CountUsers(ctx context.Context, role string, activeOnly bool) (int, error) {
	var conds []string
	var args []interface{}
	if role != "" {
		args = append(args, role)
		conds = append(conds, "role = $1")
	}
	if activeOnly {
		conds = append(conds, "is_active")
	}
	q := `SELECT COUNT(*) AS count FROM "user"`
	if len(conds) > 0 {
		q += " WHERE " + strings.Join(conds, " AND ")
	}

	var cnt struct {
		Count int `boil:"count"`
	}
	if err := queries.Raw(q, args...).Bind(ctx, repo.exec, &cnt); err != nil {
		return 0, errors.Wrap(err, "counting users")
	}
	return cnt.Count, nil
}

func (repo userRepository) StudentsPerDepartment(ctx context.Context) ([]user.DepartmentCount, error) {
	var rows []struct {
		Department string `boil:"department"`
		Count      int    `boil:"count"`
	}
	q := `SELECT department, COUNT(*) AS count FROM "user"
		WHERE role = $1 AND is_active AND department IS NOT NULL AND department <> ''
		GROUP BY department ORDER BY count DESC, department`
	if err := queries.Raw(q, user.RoleStudent).Bind(ctx, repo.exec, &rows); err != nil {
		return nil, errors.Wrap(err, "counting students per department")
	}
	stats := make([]user.DepartmentCount, 0, len(rows))
	for _, r := range rows {
		stats = append(stats, user.DepartmentCount{Department: r.Department, Count: r.Count})
	}
	return stats, nil
}
