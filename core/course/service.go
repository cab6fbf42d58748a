package course

import (
	"context"
	"time"

	"github.com/trezcool/campus/core"
	"github.com/trezcool/campus/core/user"
)

var (
	// errors
	ErrNotFound      = core.NewNotFoundError("course not found")
	ErrCodeExists    = core.NewConflictError("a course with this code already exists")
	ErrNotInstructor = core.NewPermissionError("this course is not assigned to you")
)

type (
	Repository interface {
		// CreateCourse returns ErrCodeExists when the code is taken.
		CreateCourse(ctx context.Context, c Course) (Course, error)
		GetCourse(ctx context.Context, id string) (Course, error)
		// QueryCourses returns the requested page ordered by code, plus the total count.
		// QueryFilter.Search does a case-insensitive match on one of Course.Title or Course.Code.
		QueryCourses(ctx context.Context, filter *QueryFilter, page core.Pagination) ([]Course, int, error)
		// CoursesByID silently skips unknown IDs.
		CoursesByID(ctx context.Context, ids []string) ([]Course, error)
		// UpdateCourse returns ErrCodeExists when the new code is taken by another Course.
		UpdateCourse(ctx context.Context, c Course) (Course, error)
		CountCourses(ctx context.Context, activeOnly bool) (int, error)
	}

	ServiceInterface interface {
		Create(ctx context.Context, nc NewCourse) (Course, error)
		GetByID(ctx context.Context, id string) (Course, error)
		Query(ctx context.Context, filter *QueryFilter, page core.Pagination) ([]Course, int, error)
		Update(ctx context.Context, id string, uc UpdateCourse) (Course, error)
		Deactivate(ctx context.Context, id string) (Course, error)
		CheckOwnership(c Course, usr user.User) error
		CreditsByID(ctx context.Context, ids []string) (map[string]int, error)
		ByID(ctx context.Context, ids []string) (map[string]Course, error)
		ListByFaculty(ctx context.Context, facultyID string) ([]Course, error)
		Count(ctx context.Context) (int, error)
	}

	Service struct {
		repo Repository
	}
)

var _ ServiceInterface = (*Service)(nil)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (svc *Service) Create(ctx context.Context, nc NewCourse) (Course, error) {
	now := time.Now().UTC()
	return svc.repo.CreateCourse(ctx, Course{
		Code:        nc.Code,
		Title:       nc.Title,
		Description: nc.Description,
		FacultyID:   nc.FacultyID,
		Department:  nc.Department,
		Credits:     nc.Credits,
		MaxCapacity: nc.MaxCapacity,
		Semester:    nc.Semester,
		IsActive:    true,
		CreatedAt:   now,
		UpdatedAt:   now,
	})
}

func (svc *Service) GetByID(ctx context.Context, id string) (Course, error) {
	return svc.repo.GetCourse(ctx, id)
}

func (svc *Service) Query(ctx context.Context, filter *QueryFilter, page core.Pagination) ([]Course, int, error) {
	return svc.repo.QueryCourses(ctx, filter, page)
}

func (svc *Service) Update(ctx context.Context, id string, uc UpdateCourse) (Course, error) {
	c, err := svc.repo.GetCourse(ctx, id)
	if err != nil {
		return Course{}, err
	}
	uc.apply(&c)
	c.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateCourse(ctx, c)
}

// Deactivate soft-deletes a Course; its enrollments, grades and attendance are kept.
func (svc *Service) Deactivate(ctx context.Context, id string) (Course, error) {
	c, err := svc.repo.GetCourse(ctx, id)
	if err != nil {
		return Course{}, err
	}
	c.IsActive = false
	c.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateCourse(ctx, c)
}

// CheckOwnership lets admins manage any Course and faculty members only the ones they teach.
func (svc *Service) CheckOwnership(c Course, usr user.User) error {
	if usr.IsAdmin() {
		return nil
	}
	if usr.IsFaculty() && c.FacultyID == usr.ID {
		return nil
	}
	return ErrNotInstructor
}

func (svc *Service) ByID(ctx context.Context, ids []string) (map[string]Course, error) {
	courses, err := svc.repo.CoursesByID(ctx, ids)
	if err != nil {
		return nil, err
	}
	res := make(map[string]Course, len(courses))
	for _, c := range courses {
		res[c.ID] = c
	}
	return res, nil
}

func (svc *Service) CreditsByID(ctx context.Context, ids []string) (map[string]int, error) {
	courses, err := svc.repo.CoursesByID(ctx, ids)
	if err != nil {
		return nil, err
	}
	credits := make(map[string]int, len(courses))
	for _, c := range courses {
		credits[c.ID] = c.Credits
	}
	return credits, nil
}

// ListByFaculty returns every active Course taught by facultyID.
func (svc *Service) ListByFaculty(ctx context.Context, facultyID string) ([]Course, error) {
	active := true
	courses, _, err := svc.repo.QueryCourses(ctx, &QueryFilter{FacultyID: facultyID, IsActive: &active}, core.Pagination{})
	return courses, err
}

// Count returns the number of active courses.
func (svc *Service) Count(ctx context.Context) (int, error) {
	return svc.repo.CountCourses(ctx, true)
}
