package sqlxrepos

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/trezcool/campus/core"
	"github.com/trezcool/campus/core/course"
)

const courseColumns = "id, code, title, description, faculty_id, department, credits, max_capacity, semester, is_active, created_at, updated_at"

type courseRow struct {
	ID          string    `db:"id"`
	Code        string    `db:"code"`
	Title       string    `db:"title"`
	Description string    `db:"description"`
	FacultyID   string    `db:"faculty_id"`
	Department  string    `db:"department"`
	Credits     int       `db:"credits"`
	MaxCapacity int       `db:"max_capacity"`
	Semester    string    `db:"semester"`
	IsActive    bool      `db:"is_active"`
	CreatedAt   time.Time `db:"created_at"`
	UpdatedAt   time.Time `db:"updated_at"`
}

func toCourseRow(c course.Course) courseRow {
	return courseRow{
		ID:          c.ID,
		Code:        c.Code,
		Title:       c.Title,
		Description: c.Description,
		FacultyID:   c.FacultyID,
		Department:  c.Department,
		Credits:     c.Credits,
		MaxCapacity: c.MaxCapacity,
		Semester:    c.Semester,
		IsActive:    c.IsActive,
		CreatedAt:   c.CreatedAt.UTC(),
		UpdatedAt:   c.UpdatedAt.UTC(),
	}
}

func (r courseRow) course() course.Course {
	return course.Course{
		ID:          r.ID,
		Code:        r.Code,
		Title:       r.Title,
		Description: r.Description,
		FacultyID:   r.FacultyID,
		Department:  r.Department,
		Credits:     r.Credits,
		MaxCapacity: r.MaxCapacity,
		Semester:    r.Semester,
		IsActive:    r.IsActive,
		CreatedAt:   r.CreatedAt.UTC(),
		UpdatedAt:   r.UpdatedAt.UTC(),
	}
}

func courseRows(rows []courseRow) []course.Course {
	courses := make([]course.Course, 0, len(rows))
	for _, r := range rows {
		courses = append(courses, r.course())
	}
	return courses
}

type courseRepository struct {
	db sqlx.ExtContext
}

var _ course.Repository = (*courseRepository)(nil) // interface compliance check

func NewCourseRepository(db sqlx.ExtContext) course.Repository {
	return &courseRepository{db: db}
}

func (repo *courseRepository) CreateCourse(ctx context.Context, c course.Course) (course.Course, error) {
	c.ID = uuid.New().String()
	q := `INSERT INTO course (` + courseColumns + `)
		VALUES (:id, :code, :title, :description, :faculty_id, :department, :credits, :max_capacity, :semester, :is_active, :created_at, :updated_at)`
	if _, err := sqlx.NamedExecContext(ctx, repo.db, q, toCourseRow(c)); err != nil {
		if isUniqueViolation(err) {
			return course.Course{}, course.ErrCodeExists
		}
		return course.Course{}, errors.Wrap(err, "inserting course")
	}
	return c, nil
}

func (repo *courseRepository) GetCourse(ctx context.Context, id string) (course.Course, error) {
	if _, err := uuid.Parse(id); err != nil {
		return course.Course{}, course.ErrNotFound
	}
	var row courseRow
	q := repo.db.Rebind("SELECT " + courseColumns + " FROM course WHERE id = ?")
	if err := sqlx.GetContext(ctx, repo.db, &row, q, id); err != nil {
		if err == sql.ErrNoRows {
			return course.Course{}, course.ErrNotFound
		}
		return course.Course{}, errors.Wrap(err, "finding course")
	}
	return row.course(), nil
}

func (repo *courseRepository) QueryCourses(ctx context.Context, filter *course.QueryFilter, page core.Pagination) ([]course.Course, int, error) {
	var w where
	if filter != nil {
		if filter.Search != "" {
			val := "%" + filter.Search + "%"
			w.add("(title ILIKE ? OR code ILIKE ?)", val, val)
		}
		if filter.Department != "" {
			w.add("LOWER(department) = LOWER(?)", filter.Department)
		}
		if filter.Semester != "" {
			w.add("semester = ?", filter.Semester)
		}
		if filter.FacultyID != "" {
			if _, err := uuid.Parse(filter.FacultyID); err != nil {
				return []course.Course{}, 0, nil
			}
			w.add("faculty_id = ?", filter.FacultyID)
		}
		if filter.IsActive != nil {
			w.add("is_active = ?", *filter.IsActive)
		}
	}

	var rows []courseRow
	total, err := selectPage(ctx, repo.db, &rows, "course", courseColumns, "code ASC", &w, page)
	if err != nil {
		return nil, 0, errors.Wrap(err, "querying courses")
	}
	return courseRows(rows), total, nil
}

func (repo *courseRepository) CoursesByID(ctx context.Context, ids []string) ([]course.Course, error) {
	valid := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, err := uuid.Parse(id); err == nil {
			valid = append(valid, id)
		}
	}
	var w where
	if err := w.in("id", valid); err != nil {
		return nil, errors.Wrap(err, "finding courses")
	}

	var rows []courseRow
	q := repo.db.Rebind("SELECT " + courseColumns + " FROM course" + w.String())
	if err := sqlx.SelectContext(ctx, repo.db, &rows, q, w.args...); err != nil {
		return nil, errors.Wrap(err, "finding courses")
	}
	return courseRows(rows), nil
}

func (repo *courseRepository) UpdateCourse(ctx context.Context, c course.Course) (course.Course, error) {
	q := `UPDATE course SET code = :code, title = :title, description = :description, faculty_id = :faculty_id,
		department = :department, credits = :credits, max_capacity = :max_capacity, semester = :semester,
		is_active = :is_active, updated_at = :updated_at
		WHERE id = :id`
	res, err := sqlx.NamedExecContext(ctx, repo.db, q, toCourseRow(c))
	if err != nil {
		if isUniqueViolation(err) {
			return course.Course{}, course.ErrCodeExists
		}
		return course.Course{}, errors.Wrap(err, "updating course")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return course.Course{}, course.ErrNotFound
	}
	return c, nil
}

func (repo *courseRepository) CountCourses(ctx context.Context, activeOnly bool) (int, error) {
	q := "SELECT COUNT(*) FROM course"
	if activeOnly {
		q += " WHERE is_active"
	}
	var cnt int
	if err := sqlx.GetContext(ctx, repo.db, &cnt, q); err != nil {
		return 0, errors.Wrap(err, "counting courses")
	}
	return cnt, nil
}
