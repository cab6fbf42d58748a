package sqlxrepos

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/trezcool/campus/core"
	"github.com/trezcool/campus/core/attendance"
)

const attendanceColumns = "id, student_id, course_id, date, status, marked_by, note, created_at, updated_at"

type attendanceRow struct {
	ID        string    `db:"id"`
	StudentID string    `db:"student_id"`
	CourseID  string    `db:"course_id"`
	Date      time.Time `db:"date"`
	Status    string    `db:"status"`
	MarkedBy  string    `db:"marked_by"`
	Note      string    `db:"note"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

func (r attendanceRow) record() attendance.Record {
	return attendance.Record{
		ID:        r.ID,
		StudentID: r.StudentID,
		CourseID:  r.CourseID,
		Date:      r.Date.UTC(),
		Status:    r.Status,
		MarkedBy:  r.MarkedBy,
		Note:      r.Note,
		CreatedAt: r.CreatedAt.UTC(),
		UpdatedAt: r.UpdatedAt.UTC(),
	}
}

type attendanceRepository struct {
	db sqlx.ExtContext
}

var _ attendance.Repository = (*attendanceRepository)(nil) // interface compliance check

func NewAttendanceRepository(db sqlx.ExtContext) attendance.Repository {
	return &attendanceRepository{db: db}
}

// UpsertRecords relies on the (student_id, course_id, date) unique constraint.
func (repo *attendanceRepository) UpsertRecords(ctx context.Context, records []attendance.Record) (int, error) {
	q := `INSERT INTO attendance (` + attendanceColumns + `)
		VALUES (:id, :student_id, :course_id, :date, :status, :marked_by, :note, :created_at, :updated_at)
		ON CONFLICT (student_id, course_id, date)
		DO UPDATE SET status = EXCLUDED.status, marked_by = EXCLUDED.marked_by, note = EXCLUDED.note,
			updated_at = EXCLUDED.updated_at`

	var saved int
	for _, rec := range records {
		row := attendanceRow{
			ID:        uuid.New().String(),
			StudentID: rec.StudentID,
			CourseID:  rec.CourseID,
			Date:      rec.Date.UTC(),
			Status:    rec.Status,
			MarkedBy:  rec.MarkedBy,
			Note:      rec.Note,
			CreatedAt: rec.CreatedAt.UTC(),
			UpdatedAt: rec.UpdatedAt.UTC(),
		}
		if _, err := sqlx.NamedExecContext(ctx, repo.db, q, row); err != nil {
			return saved, errors.Wrap(err, "saving attendance")
		}
		saved++
	}
	return saved, nil
}

func (repo *attendanceRepository) QueryRecords(
	ctx context.Context,
	filter *attendance.QueryFilter,
	day time.Time,
	page core.Pagination,
) ([]attendance.Record, int, error) {
	var w where
	if filter != nil {
		if filter.CourseID != "" {
			if _, err := uuid.Parse(filter.CourseID); err != nil {
				return []attendance.Record{}, 0, nil
			}
			w.add("course_id = ?", filter.CourseID)
		}
		if filter.CourseIDs != nil {
			if err := w.in("course_id", filter.CourseIDs); err != nil {
				return nil, 0, errors.Wrap(err, "querying attendance")
			}
		}
		if filter.StudentID != "" {
			if _, err := uuid.Parse(filter.StudentID); err != nil {
				return []attendance.Record{}, 0, nil
			}
			w.add("student_id = ?", filter.StudentID)
		}
	}
	if !day.IsZero() {
		w.add("date = ?", day.Format(core.DateLayout))
	}

	var rows []attendanceRow
	total, err := selectPage(ctx, repo.db, &rows, "attendance", attendanceColumns, "date DESC, student_id", &w, page)
	if err != nil {
		return nil, 0, errors.Wrap(err, "querying attendance")
	}
	records := make([]attendance.Record, 0, len(rows))
	for _, r := range rows {
		records = append(records, r.record())
	}
	return records, total, nil
}

func (repo *attendanceRepository) CountRecords(ctx context.Context, courseIDs []string) (int, error) {
	var w where
	if len(courseIDs) > 0 {
		if err := w.in("course_id", courseIDs); err != nil {
			return 0, errors.Wrap(err, "counting attendance")
		}
	}
	var cnt int
	if err := sqlx.GetContext(ctx, repo.db, &cnt, repo.db.Rebind("SELECT COUNT(*) FROM attendance"+w.String()), w.args...); err != nil {
		return 0, errors.Wrap(err, "counting attendance")
	}
	return cnt, nil
}

func (repo *attendanceRepository) CountByStatus(ctx context.Context) ([]attendance.StatusCount, error) {
	var rows []struct {
		Status string `db:"status"`
		Count  int    `db:"count"`
	}
	q := "SELECT status, COUNT(*) AS count FROM attendance GROUP BY status ORDER BY status"
	if err := sqlx.SelectContext(ctx, repo.db, &rows, q); err != nil {
		return nil, errors.Wrap(err, "counting attendance")
	}
	stats := make([]attendance.StatusCount, 0, len(rows))
	for _, r := range rows {
		stats = append(stats, attendance.StatusCount{Status: r.Status, Count: r.Count})
	}
	return stats, nil
}
