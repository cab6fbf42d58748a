package dummydb

import (
	"context"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/trezcool/campus/core"
	"github.com/trezcool/campus/core/course"
)

type courseRepository struct {
	db *courseTable
}

var _ course.Repository = (*courseRepository)(nil) // interface compliance check

func NewCourseRepository(db *DB) course.Repository {
	return &courseRepository{db: db.course}
}

func (repo *courseRepository) codeTaken(code, excludedID string) bool {
	for _, c := range repo.db.table {
		if c.Code == code && c.ID != excludedID {
			return true
		}
	}
	return false
}

func (repo *courseRepository) CreateCourse(_ context.Context, c course.Course) (course.Course, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if repo.codeTaken(c.Code, "") {
		return course.Course{}, course.ErrCodeExists
	}
	c.ID = uuid.New().String()
	repo.db.table[c.ID] = &c
	return c, nil
}

func (repo *courseRepository) GetCourse(_ context.Context, id string) (course.Course, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if c, ok := repo.db.table[id]; ok {
		return *c, nil
	}
	return course.Course{}, course.ErrNotFound
}

func (repo *courseRepository) QueryCourses(
	_ context.Context,
	filter *course.QueryFilter,
	page core.Pagination,
) ([]course.Course, int, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	courses := make([]course.Course, 0)
	for _, c := range repo.db.table {
		if filter == nil || matchCourse(*c, filter) {
			courses = append(courses, *c)
		}
	}
	sort.Slice(courses, func(i, j int) bool { return courses[i].Code < courses[j].Code })

	start, end := page.Window(len(courses))
	return courses[start:end], len(courses), nil
}

func matchCourse(c course.Course, filter *course.QueryFilter) bool {
	if filter.Search != "" && !containsFold(c.Title, filter.Search) && !containsFold(c.Code, filter.Search) {
		return false
	}
	if filter.Department != "" && !strings.EqualFold(c.Department, filter.Department) {
		return false
	}
	if filter.Semester != "" && c.Semester != filter.Semester {
		return false
	}
	if filter.FacultyID != "" && c.FacultyID != filter.FacultyID {
		return false
	}
	if filter.IsActive != nil && c.IsActive != *filter.IsActive {
		return false
	}
	return true
}

func (repo *courseRepository) CoursesByID(_ context.Context, ids []string) ([]course.Course, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	courses := make([]course.Course, 0, len(ids))
	for _, id := range ids {
		if c, ok := repo.db.table[id]; ok {
			courses = append(courses, *c)
		}
	}
	return courses, nil
}

func (repo *courseRepository) UpdateCourse(_ context.Context, c course.Course) (course.Course, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.table[c.ID]; !ok {
		return course.Course{}, course.ErrNotFound
	}
	if repo.codeTaken(c.Code, c.ID) {
		return course.Course{}, course.ErrCodeExists
	}
	repo.db.table[c.ID] = &c
	return c, nil
}

func (repo *courseRepository) CountCourses(_ context.Context, activeOnly bool) (int, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	var cnt int
	for _, c := range repo.db.table {
		if !activeOnly || c.IsActive {
			cnt++
		}
	}
	return cnt, nil
}
