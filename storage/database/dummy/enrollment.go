package dummydb

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/trezcool/campus/core"
	"github.com/trezcool/campus/core/enrollment"
)

type enrollmentRepository struct {
	db *enrollmentTable
}

var _ enrollment.Repository = (*enrollmentRepository)(nil) // interface compliance check

func NewEnrollmentRepository(db *DB) enrollment.Repository {
	return &enrollmentRepository{db: db.enrollment}
}

func (repo *enrollmentRepository) GetEnrollment(_ context.Context, id string) (enrollment.Enrollment, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if e, ok := repo.db.table[id]; ok {
		return *e, nil
	}
	return enrollment.Enrollment{}, enrollment.ErrNotFound
}

func (repo *enrollmentRepository) find(studentID, courseID string) *enrollment.Enrollment {
	for _, e := range repo.db.table {
		if e.StudentID == studentID && e.CourseID == courseID {
			return e
		}
	}
	return nil
}

func (repo *enrollmentRepository) FindEnrollment(_ context.Context, studentID, courseID string) (enrollment.Enrollment, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if e := repo.find(studentID, courseID); e != nil {
		return *e, nil
	}
	return enrollment.Enrollment{}, enrollment.ErrNotFound
}

func (repo *enrollmentRepository) CreateEnrollment(_ context.Context, e enrollment.Enrollment) (enrollment.Enrollment, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if repo.find(e.StudentID, e.CourseID) != nil {
		return enrollment.Enrollment{}, enrollment.ErrAlreadyEnrolled
	}
	e.ID = uuid.New().String()
	repo.db.table[e.ID] = &e
	return e, nil
}

func (repo *enrollmentRepository) UpdateEnrollment(_ context.Context, e enrollment.Enrollment) (enrollment.Enrollment, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.table[e.ID]; !ok {
		return enrollment.Enrollment{}, enrollment.ErrNotFound
	}
	repo.db.table[e.ID] = &e
	return e, nil
}

func (repo *enrollmentRepository) ApproveEnrollment(
	_ context.Context,
	e enrollment.Enrollment,
	capacity int,
) (enrollment.Enrollment, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.table[e.ID]; !ok {
		return enrollment.Enrollment{}, enrollment.ErrNotFound
	}
	approved := 0
	for id, other := range repo.db.table {
		if id != e.ID && other.CourseID == e.CourseID && other.Status == enrollment.StatusApproved {
			approved++
		}
	}
	if approved >= capacity {
		return enrollment.Enrollment{}, enrollment.ErrCourseFull
	}
	e.Status = enrollment.StatusApproved
	repo.db.table[e.ID] = &e
	return e, nil
}

func (repo *enrollmentRepository) QueryEnrollments(
	_ context.Context,
	filter *enrollment.QueryFilter,
	ordering []core.DBOrdering,
	page core.Pagination,
) ([]enrollment.Enrollment, int, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	enrollments := make([]enrollment.Enrollment, 0)
	for _, e := range repo.db.table {
		if filter != nil {
			if len(filter.Statuses) > 0 && !containsStr(filter.Statuses, e.Status) {
				continue
			}
			if filter.CourseID != "" && e.CourseID != filter.CourseID {
				continue
			}
			if filter.StudentID != "" && e.StudentID != filter.StudentID {
				continue
			}
		}
		enrollments = append(enrollments, *e)
	}

	asc := ascending(ordering)
	sort.Slice(enrollments, func(i, j int) bool {
		if asc {
			return enrollments[i].CreatedAt.Before(enrollments[j].CreatedAt)
		}
		return enrollments[i].CreatedAt.After(enrollments[j].CreatedAt)
	})

	start, end := page.Window(len(enrollments))
	return enrollments[start:end], len(enrollments), nil
}

func (repo *enrollmentRepository) CountApproved(_ context.Context, courseIDs []string) (map[string]int, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	counts := make(map[string]int)
	for _, e := range repo.db.table {
		if e.Status == enrollment.StatusApproved && containsStr(courseIDs, e.CourseID) {
			counts[e.CourseID]++
		}
	}
	return counts, nil
}

func (repo *enrollmentRepository) CountByStatus(_ context.Context) ([]enrollment.StatusCount, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	counts := make(map[string]int)
	for _, e := range repo.db.table {
		counts[e.Status]++
	}
	stats := make([]enrollment.StatusCount, 0, len(counts))
	for _, status := range enrollment.AllStatuses {
		if cnt, ok := counts[status]; ok {
			stats = append(stats, enrollment.StatusCount{Status: status, Count: cnt})
		}
	}
	return stats, nil
}

func (repo *enrollmentRepository) TopCourses(_ context.Context, n int) ([]enrollment.CourseCount, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	counts := make(map[string]int)
	for _, e := range repo.db.table {
		if e.Status == enrollment.StatusApproved {
			counts[e.CourseID]++
		}
	}
	top := make([]enrollment.CourseCount, 0, len(counts))
	for id, cnt := range counts {
		top = append(top, enrollment.CourseCount{CourseID: id, Count: cnt})
	}
	sort.Slice(top, func(i, j int) bool {
		if top[i].Count != top[j].Count {
			return top[i].Count > top[j].Count
		}
		return top[i].CourseID < top[j].CourseID
	})
	if len(top) > n {
		top = top[:n]
	}
	return top, nil
}
