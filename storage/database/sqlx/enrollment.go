package sqlxrepos

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/trezcool/campus/core"
	"github.com/trezcool/campus/core/course"
	"github.com/trezcool/campus/core/enrollment"
)

const enrollmentColumns = "id, student_id, course_id, status, created_at, updated_at"

type enrollmentRow struct {
	ID        string    `db:"id"`
	StudentID string    `db:"student_id"`
	CourseID  string    `db:"course_id"`
	Status    string    `db:"status"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

func toEnrollmentRow(e enrollment.Enrollment) enrollmentRow {
	return enrollmentRow{
		ID:        e.ID,
		StudentID: e.StudentID,
		CourseID:  e.CourseID,
		Status:    e.Status,
		CreatedAt: e.CreatedAt.UTC(),
		UpdatedAt: e.UpdatedAt.UTC(),
	}
}

func (r enrollmentRow) enrollment() enrollment.Enrollment {
	return enrollment.Enrollment{
		ID:        r.ID,
		StudentID: r.StudentID,
		CourseID:  r.CourseID,
		Status:    r.Status,
		CreatedAt: r.CreatedAt.UTC(),
		UpdatedAt: r.UpdatedAt.UTC(),
	}
}

type enrollmentRepository struct {
	db *sqlx.DB
}

var _ enrollment.Repository = (*enrollmentRepository)(nil) // interface compliance check

func NewEnrollmentRepository(db *sqlx.DB) enrollment.Repository {
	return &enrollmentRepository{db: db}
}

func (repo *enrollmentRepository) getOne(ctx context.Context, cond string, args ...interface{}) (enrollment.Enrollment, error) {
	var row enrollmentRow
	q := repo.db.Rebind("SELECT " + enrollmentColumns + " FROM enrollment WHERE " + cond)
	if err := sqlx.GetContext(ctx, repo.db, &row, q, args...); err != nil {
		if err == sql.ErrNoRows {
			return enrollment.Enrollment{}, enrollment.ErrNotFound
		}
		return enrollment.Enrollment{}, errors.Wrap(err, "finding enrollment")
	}
	return row.enrollment(), nil
}

func (repo *enrollmentRepository) GetEnrollment(ctx context.Context, id string) (enrollment.Enrollment, error) {
	if _, err := uuid.Parse(id); err != nil {
		return enrollment.Enrollment{}, enrollment.ErrNotFound
	}
	return repo.getOne(ctx, "id = ?", id)
}

func (repo *enrollmentRepository) FindEnrollment(ctx context.Context, studentID, courseID string) (enrollment.Enrollment, error) {
	return repo.getOne(ctx, "student_id = ? AND course_id = ?", studentID, courseID)
}

func (repo *enrollmentRepository) CreateEnrollment(ctx context.Context, e enrollment.Enrollment) (enrollment.Enrollment, error) {
	e.ID = uuid.New().String()
	q := `INSERT INTO enrollment (` + enrollmentColumns + `)
		VALUES (:id, :student_id, :course_id, :status, :created_at, :updated_at)`
	if _, err := sqlx.NamedExecContext(ctx, repo.db, q, toEnrollmentRow(e)); err != nil {
		if isUniqueViolation(err) {
			return enrollment.Enrollment{}, enrollment.ErrAlreadyEnrolled
		}
		return enrollment.Enrollment{}, errors.Wrap(err, "inserting enrollment")
	}
	return e, nil
}

func updateEnrollment(ctx context.Context, db sqlx.ExtContext, e enrollment.Enrollment) (enrollment.Enrollment, error) {
	q := `UPDATE enrollment SET status = :status, updated_at = :updated_at WHERE id = :id`
	res, err := sqlx.NamedExecContext(ctx, db, q, toEnrollmentRow(e))
	if err != nil {
		return enrollment.Enrollment{}, errors.Wrap(err, "updating enrollment")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return enrollment.Enrollment{}, enrollment.ErrNotFound
	}
	return e, nil
}

func (repo *enrollmentRepository) UpdateEnrollment(ctx context.Context, e enrollment.Enrollment) (enrollment.Enrollment, error) {
	return updateEnrollment(ctx, repo.db, e)
}

// ApproveEnrollment locks the course row so approvals of the same course run one at a time.
// Under READ COMMITTED the count taken after the lock sees every approval committed before it.
func (repo *enrollmentRepository) ApproveEnrollment(
	ctx context.Context,
	e enrollment.Enrollment,
	capacity int,
) (enrollment.Enrollment, error) {
	tx, err := repo.db.BeginTxx(ctx, nil)
	if err != nil {
		return enrollment.Enrollment{}, errors.Wrap(err, "approving enrollment")
	}
	defer func() { _ = tx.Rollback() }()

	var courseID string
	if err = sqlx.GetContext(ctx, tx, &courseID, tx.Rebind("SELECT id FROM course WHERE id = ? FOR UPDATE"), e.CourseID); err != nil {
		if err == sql.ErrNoRows {
			return enrollment.Enrollment{}, course.ErrNotFound
		}
		return enrollment.Enrollment{}, errors.Wrap(err, "locking course")
	}

	var approved int
	q := tx.Rebind("SELECT COUNT(*) FROM enrollment WHERE course_id = ? AND status = ? AND id <> ?")
	if err = sqlx.GetContext(ctx, tx, &approved, q, e.CourseID, enrollment.StatusApproved, e.ID); err != nil {
		return enrollment.Enrollment{}, errors.Wrap(err, "counting enrollments")
	}
	if approved >= capacity {
		return enrollment.Enrollment{}, enrollment.ErrCourseFull
	}

	e.Status = enrollment.StatusApproved
	if e, err = updateEnrollment(ctx, tx, e); err != nil {
		return enrollment.Enrollment{}, err
	}
	if err = tx.Commit(); err != nil {
		return enrollment.Enrollment{}, errors.Wrap(err, "approving enrollment")
	}
	return e, nil
}

func (repo *enrollmentRepository) QueryEnrollments(
	ctx context.Context,
	filter *enrollment.QueryFilter,
	ordering []core.DBOrdering,
	page core.Pagination,
) ([]enrollment.Enrollment, int, error) {
	var w where
	if filter != nil {
		if len(filter.Statuses) > 0 {
			if err := w.in("status", filter.Statuses); err != nil {
				return nil, 0, errors.Wrap(err, "querying enrollments")
			}
		}
		if filter.CourseID != "" {
			if _, err := uuid.Parse(filter.CourseID); err != nil {
				return []enrollment.Enrollment{}, 0, nil
			}
			w.add("course_id = ?", filter.CourseID)
		}
		if filter.StudentID != "" {
			if _, err := uuid.Parse(filter.StudentID); err != nil {
				return []enrollment.Enrollment{}, 0, nil
			}
			w.add("student_id = ?", filter.StudentID)
		}
	}

	orderBy := "created_at DESC"
	if len(ordering) > 0 {
		orderList := make([]string, 0, len(ordering))
		for _, ord := range ordering {
			orderList = append(orderList, ord.String())
		}
		orderBy = strings.Join(orderList, ", ")
	}

	var rows []enrollmentRow
	total, err := selectPage(ctx, repo.db, &rows, "enrollment", enrollmentColumns, orderBy, &w, page)
	if err != nil {
		return nil, 0, errors.Wrap(err, "querying enrollments")
	}
	enrollments := make([]enrollment.Enrollment, 0, len(rows))
	for _, r := range rows {
		enrollments = append(enrollments, r.enrollment())
	}
	return enrollments, total, nil
}

type courseCountRow struct {
	CourseID string `db:"course_id"`
	Count    int    `db:"count"`
}

func (repo *enrollmentRepository) CountApproved(ctx context.Context, courseIDs []string) (map[string]int, error) {
	w := where{}
	w.add("status = ?", enrollment.StatusApproved)
	if err := w.in("course_id", courseIDs); err != nil {
		return nil, errors.Wrap(err, "counting enrollments")
	}

	var rows []courseCountRow
	q := repo.db.Rebind("SELECT course_id, COUNT(*) AS count FROM enrollment" + w.String() + " GROUP BY course_id")
	if err := sqlx.SelectContext(ctx, repo.db, &rows, q, w.args...); err != nil {
		return nil, errors.Wrap(err, "counting enrollments")
	}
	counts := make(map[string]int, len(rows))
	for _, r := range rows {
		counts[r.CourseID] = r.Count
	}
	return counts, nil
}

func (repo *enrollmentRepository) CountByStatus(ctx context.Context) ([]enrollment.StatusCount, error) {
	stats := make([]enrollment.StatusCount, 0)
	rows, err := repo.db.QueryxContext(ctx, "SELECT status, COUNT(*) FROM enrollment GROUP BY status ORDER BY status")
	if err != nil {
		return nil, errors.Wrap(err, "counting enrollments")
	}
	defer func() { _ = rows.Close() }()
	for rows.Next() {
		var sc enrollment.StatusCount
		if err = rows.Scan(&sc.Status, &sc.Count); err != nil {
			return nil, errors.Wrap(err, "counting enrollments")
		}
		stats = append(stats, sc)
	}
	return stats, errors.Wrap(rows.Err(), "counting enrollments")
}

func (repo *enrollmentRepository) TopCourses(ctx context.Context, n int) ([]enrollment.CourseCount, error) {
	var rows []courseCountRow
	q := repo.db.Rebind(`SELECT course_id, COUNT(*) AS count FROM enrollment WHERE status = ?
		GROUP BY course_id ORDER BY count DESC, course_id LIMIT ?`)
	if err := sqlx.SelectContext(ctx, repo.db, &rows, q, enrollment.StatusApproved, n); err != nil {
		return nil, errors.Wrap(err, "ranking courses")
	}
	top := make([]enrollment.CourseCount, 0, len(rows))
	for _, r := range rows {
		top = append(top, enrollment.CourseCount{CourseID: r.CourseID, Count: r.Count})
	}
	return top, nil
}
