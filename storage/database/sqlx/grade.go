package sqlxrepos

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/trezcool/campus/core"
	"github.com/trezcool/campus/core/grade"
	"github.com/trezcool/campus/core/grading"
)

const gradeColumns = "id, student_id, course_id, assignment, score, max_score, type, graded_by, graded_at, comment"

type gradeRow struct {
	ID         string    `db:"id"`
	StudentID  string    `db:"student_id"`
	CourseID   string    `db:"course_id"`
	Assignment string    `db:"assignment"`
	Score      float64   `db:"score"`
	MaxScore   float64   `db:"max_score"`
	Type       string    `db:"type"`
	GradedBy   string    `db:"graded_by"`
	GradedAt   time.Time `db:"graded_at"`
	Comment    string    `db:"comment"`
}

func toGradeRow(g grade.Grade) gradeRow {
	return gradeRow{
		ID:         g.ID,
		StudentID:  g.StudentID,
		CourseID:   g.CourseID,
		Assignment: g.Assignment,
		Score:      g.Score,
		MaxScore:   g.MaxScore,
		Type:       g.Type,
		GradedBy:   g.GradedBy,
		GradedAt:   g.GradedAt.UTC(),
		Comment:    g.Comment,
	}
}

func (r gradeRow) grade() grade.Grade {
	return grade.Grade{
		ID:         r.ID,
		StudentID:  r.StudentID,
		CourseID:   r.CourseID,
		Assignment: r.Assignment,
		Score:      r.Score,
		MaxScore:   r.MaxScore,
		Type:       r.Type,
		GradedBy:   r.GradedBy,
		GradedAt:   r.GradedAt.UTC(),
		Comment:    r.Comment,
	}
}

type gradeRepository struct {
	db sqlx.ExtContext
}

var _ grade.Repository = (*gradeRepository)(nil) // interface compliance check

func NewGradeRepository(db sqlx.ExtContext) grade.Repository {
	return &gradeRepository{db: db}
}

func (repo *gradeRepository) CreateGrade(ctx context.Context, g grade.Grade) (grade.Grade, error) {
	g.ID = uuid.New().String()
	q := `INSERT INTO grade (` + gradeColumns + `)
		VALUES (:id, :student_id, :course_id, :assignment, :score, :max_score, :type, :graded_by, :graded_at, :comment)`
	if _, err := sqlx.NamedExecContext(ctx, repo.db, q, toGradeRow(g)); err != nil {
		return grade.Grade{}, errors.Wrap(err, "inserting grade")
	}
	return g, nil
}

func (repo *gradeRepository) GetGrade(ctx context.Context, id string) (grade.Grade, error) {
	if _, err := uuid.Parse(id); err != nil {
		return grade.Grade{}, grade.ErrNotFound
	}
	var row gradeRow
	q := repo.db.Rebind("SELECT " + gradeColumns + " FROM grade WHERE id = ?")
	if err := sqlx.GetContext(ctx, repo.db, &row, q, id); err != nil {
		if err == sql.ErrNoRows {
			return grade.Grade{}, grade.ErrNotFound
		}
		return grade.Grade{}, errors.Wrap(err, "finding grade")
	}
	return row.grade(), nil
}

func (repo *gradeRepository) QueryGrades(ctx context.Context, filter *grade.QueryFilter, page core.Pagination) ([]grade.Grade, int, error) {
	var w where
	if filter != nil {
		if filter.StudentID != "" {
			if _, err := uuid.Parse(filter.StudentID); err != nil {
				return []grade.Grade{}, 0, nil
			}
			w.add("student_id = ?", filter.StudentID)
		}
		if filter.CourseID != "" {
			if _, err := uuid.Parse(filter.CourseID); err != nil {
				return []grade.Grade{}, 0, nil
			}
			w.add("course_id = ?", filter.CourseID)
		}
		if filter.CourseIDs != nil {
			if err := w.in("course_id", filter.CourseIDs); err != nil {
				return nil, 0, errors.Wrap(err, "querying grades")
			}
		}
	}

	var rows []gradeRow
	total, err := selectPage(ctx, repo.db, &rows, "grade", gradeColumns, "graded_at DESC", &w, page)
	if err != nil {
		return nil, 0, errors.Wrap(err, "querying grades")
	}
	grades := make([]grade.Grade, 0, len(rows))
	for _, r := range rows {
		grades = append(grades, r.grade())
	}
	return grades, total, nil
}

func (repo *gradeRepository) UpdateGrade(ctx context.Context, g grade.Grade) (grade.Grade, error) {
	q := `UPDATE grade SET assignment = :assignment, score = :score, max_score = :max_score, type = :type, comment = :comment
		WHERE id = :id`
	res, err := sqlx.NamedExecContext(ctx, repo.db, q, toGradeRow(g))
	if err != nil {
		return grade.Grade{}, errors.Wrap(err, "updating grade")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return grade.Grade{}, grade.ErrNotFound
	}
	return g, nil
}

func (repo *gradeRepository) DeleteGrade(ctx context.Context, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return grade.ErrNotFound
	}
	res, err := repo.db.ExecContext(ctx, repo.db.Rebind("DELETE FROM grade WHERE id = ?"), id)
	if err != nil {
		return errors.Wrap(err, "deleting grade")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return grade.ErrNotFound
	}
	return nil
}

func (repo *gradeRepository) CountGrades(ctx context.Context, courseIDs []string) (int, error) {
	var w where
	if len(courseIDs) > 0 {
		if err := w.in("course_id", courseIDs); err != nil {
			return 0, errors.Wrap(err, "counting grades")
		}
	}
	var cnt int
	if err := sqlx.GetContext(ctx, repo.db, &cnt, repo.db.Rebind("SELECT COUNT(*) FROM grade"+w.String()), w.args...); err != nil {
		return 0, errors.Wrap(err, "counting grades")
	}
	return cnt, nil
}

func (repo *gradeRepository) Percentages(ctx context.Context) ([]float64, error) {
	var rows []struct {
		Score    float64 `db:"score"`
		MaxScore float64 `db:"max_score"`
	}
	if err := sqlx.SelectContext(ctx, repo.db, &rows, "SELECT score, max_score FROM grade"); err != nil {
		return nil, errors.Wrap(err, "computing grade percentages")
	}
	pcts := make([]float64, 0, len(rows))
	for _, r := range rows {
		pcts = append(pcts, grading.Percentage(r.Score, r.MaxScore))
	}
	return pcts, nil
}
