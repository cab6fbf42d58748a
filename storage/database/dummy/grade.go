package dummydb

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/trezcool/campus/core"
	"github.com/trezcool/campus/core/grade"
)

type gradeRepository struct {
	db *gradeTable
}

var _ grade.Repository = (*gradeRepository)(nil) // interface compliance check

func NewGradeRepository(db *DB) grade.Repository {
	return &gradeRepository{db: db.grade}
}

func (repo *gradeRepository) CreateGrade(_ context.Context, g grade.Grade) (grade.Grade, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	g.ID = uuid.New().String()
	repo.db.table[g.ID] = &g
	return g, nil
}

func (repo *gradeRepository) GetGrade(_ context.Context, id string) (grade.Grade, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if g, ok := repo.db.table[id]; ok {
		return *g, nil
	}
	return grade.Grade{}, grade.ErrNotFound
}

func (repo *gradeRepository) QueryGrades(_ context.Context, filter *grade.QueryFilter, page core.Pagination) ([]grade.Grade, int, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	grades := make([]grade.Grade, 0)
	for _, g := range repo.db.table {
		if filter != nil {
			if filter.StudentID != "" && g.StudentID != filter.StudentID {
				continue
			}
			if filter.CourseID != "" && g.CourseID != filter.CourseID {
				continue
			}
			if filter.CourseIDs != nil && !containsStr(filter.CourseIDs, g.CourseID) {
				continue
			}
		}
		grades = append(grades, *g)
	}
	sort.Slice(grades, func(i, j int) bool { return grades[i].GradedAt.After(grades[j].GradedAt) })

	start, end := page.Window(len(grades))
	return grades[start:end], len(grades), nil
}

func (repo *gradeRepository) UpdateGrade(_ context.Context, g grade.Grade) (grade.Grade, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.table[g.ID]; !ok {
		return grade.Grade{}, grade.ErrNotFound
	}
	repo.db.table[g.ID] = &g
	return g, nil
}

func (repo *gradeRepository) DeleteGrade(_ context.Context, id string) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.table[id]; !ok {
		return grade.ErrNotFound
	}
	delete(repo.db.table, id)
	return nil
}

func (repo *gradeRepository) CountGrades(_ context.Context, courseIDs []string) (int, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	var cnt int
	for _, g := range repo.db.table {
		if len(courseIDs) == 0 || containsStr(courseIDs, g.CourseID) {
			cnt++
		}
	}
	return cnt, nil
}

func (repo *gradeRepository) Percentages(_ context.Context) ([]float64, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	pcts := make([]float64, 0, len(repo.db.table))
	for _, g := range repo.db.table {
		pcts = append(pcts, g.Percentage())
	}
	return pcts, nil
}
