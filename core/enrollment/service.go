package enrollment

import (
	"context"
	"errors"
	"time"

	"github.com/trezcool/campus/core"
	"github.com/trezcool/campus/core/course"
)

var (
	// errors
	ErrNotFound        = core.NewNotFoundError("enrollment not found")
	ErrAlreadyEnrolled = core.NewConflictError("already enrolled in this course")
	ErrCourseFull      = core.NewValidationError(errors.New("course is at full capacity"))
)

type (
	Repository interface {
		GetEnrollment(ctx context.Context, id string) (Enrollment, error)
		// FindEnrollment returns the Enrollment of studentID in courseID, whatever its status.
		FindEnrollment(ctx context.Context, studentID, courseID string) (Enrollment, error)
		// CreateEnrollment returns ErrAlreadyEnrolled if the (student, course) pair exists.
		CreateEnrollment(ctx context.Context, e Enrollment) (Enrollment, error)
		UpdateEnrollment(ctx context.Context, e Enrollment) (Enrollment, error)
		// ApproveEnrollment approves e unless its course already holds capacity other approved
		// enrollments, in which case it returns ErrCourseFull. The count and the write are atomic.
		ApproveEnrollment(ctx context.Context, e Enrollment, capacity int) (Enrollment, error)
		QueryEnrollments(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering, page core.Pagination) ([]Enrollment, int, error)
		// CountApproved maps each course ID with at least one approved Enrollment to the count.
		CountApproved(ctx context.Context, courseIDs []string) (map[string]int, error)
		CountByStatus(ctx context.Context) ([]StatusCount, error)
		// TopCourses returns the n courses with the most approved enrollments, most first.
		TopCourses(ctx context.Context, n int) ([]CourseCount, error)
	}

	ServiceInterface interface {
		Enroll(ctx context.Context, studentID, courseID string) (Enrollment, error)
		Drop(ctx context.Context, studentID, courseID string) (Enrollment, error)
		SetStatus(ctx context.Context, id, status string) (Enrollment, error)
		GetByID(ctx context.Context, id string) (Enrollment, error)
		Query(ctx context.Context, filter *QueryFilter, page core.Pagination) ([]Enrollment, int, error)
		CourseStudents(ctx context.Context, courseID string) ([]Enrollment, error)
		StudentCourses(ctx context.Context, studentID string) ([]Enrollment, error)
		ApprovedCounts(ctx context.Context, courseIDs []string) (map[string]int, error)
		CountByStatus(ctx context.Context) ([]StatusCount, error)
		TopCourses(ctx context.Context, n int) ([]CourseCount, error)
	}

	Service struct {
		repo    Repository
		courses course.ServiceInterface
	}
)

var _ ServiceInterface = (*Service)(nil)

func NewService(repo Repository, courses course.ServiceInterface) *Service {
	return &Service{repo: repo, courses: courses}
}

func (svc *Service) checkCapacity(ctx context.Context, c course.Course) error {
	counts, err := svc.repo.CountApproved(ctx, []string{c.ID})
	if err != nil {
		return err
	}
	if counts[c.ID] >= c.MaxCapacity {
		return ErrCourseFull
	}
	return nil
}

// Enroll requests a seat in an active course. A dropped enrollment is reopened as pending.
func (svc *Service) Enroll(ctx context.Context, studentID, courseID string) (Enrollment, error) {
	c, err := svc.courses.GetByID(ctx, courseID)
	if err != nil {
		return Enrollment{}, err
	}
	if !c.IsActive {
		return Enrollment{}, course.ErrNotFound
	}

	existing, err := svc.repo.FindEnrollment(ctx, studentID, courseID)
	switch {
	case err == nil && existing.Status != StatusDropped:
		return Enrollment{}, ErrAlreadyEnrolled
	case err != nil && err != ErrNotFound:
		return Enrollment{}, err
	}

	if err = svc.checkCapacity(ctx, c); err != nil {
		return Enrollment{}, err
	}

	now := time.Now().UTC()
	if existing.ID != "" {
		existing.Status = StatusPending
		existing.UpdatedAt = now
		return svc.repo.UpdateEnrollment(ctx, existing)
	}
	return svc.repo.CreateEnrollment(ctx, Enrollment{
		StudentID: studentID,
		CourseID:  courseID,
		Status:    StatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	})
}

func (svc *Service) Drop(ctx context.Context, studentID, courseID string) (Enrollment, error) {
	e, err := svc.repo.FindEnrollment(ctx, studentID, courseID)
	if err != nil {
		return Enrollment{}, err
	}
	if e.Status == StatusDropped {
		return Enrollment{}, ErrNotFound
	}
	e.Status = StatusDropped
	e.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateEnrollment(ctx, e)
}

// SetStatus approves or rejects an Enrollment. Approving re-checks the course capacity
// in the same step as the write, so concurrent approvals cannot overfill a course.
func (svc *Service) SetStatus(ctx context.Context, id, status string) (Enrollment, error) {
	e, err := svc.repo.GetEnrollment(ctx, id)
	if err != nil {
		return Enrollment{}, err
	}
	if status == e.Status {
		return e, nil
	}
	e.Status = status
	e.UpdatedAt = time.Now().UTC()
	if status == StatusApproved {
		c, err := svc.courses.GetByID(ctx, e.CourseID)
		if err != nil {
			return Enrollment{}, err
		}
		return svc.repo.ApproveEnrollment(ctx, e, c.MaxCapacity)
	}
	return svc.repo.UpdateEnrollment(ctx, e)
}

func (svc *Service) GetByID(ctx context.Context, id string) (Enrollment, error) {
	return svc.repo.GetEnrollment(ctx, id)
}

// Query lists enrollments, newest first.
func (svc *Service) Query(ctx context.Context, filter *QueryFilter, page core.Pagination) ([]Enrollment, int, error) {
	return svc.repo.QueryEnrollments(ctx, filter, []core.DBOrdering{{Field: "created_at"}}, page)
}

// CourseStudents returns the approved and pending enrollments of a course, oldest first.
func (svc *Service) CourseStudents(ctx context.Context, courseID string) ([]Enrollment, error) {
	enrollments, _, err := svc.repo.QueryEnrollments(
		ctx,
		&QueryFilter{CourseID: courseID, Statuses: []string{StatusApproved, StatusPending}},
		[]core.DBOrdering{{Field: "created_at", Ascending: true}},
		core.Pagination{},
	)
	return enrollments, err
}

// StudentCourses returns the approved and pending enrollments of a student, newest first.
func (svc *Service) StudentCourses(ctx context.Context, studentID string) ([]Enrollment, error) {
	enrollments, _, err := svc.repo.QueryEnrollments(
		ctx,
		&QueryFilter{StudentID: studentID, Statuses: []string{StatusApproved, StatusPending}},
		[]core.DBOrdering{{Field: "created_at"}},
		core.Pagination{},
	)
	return enrollments, err
}

func (svc *Service) ApprovedCounts(ctx context.Context, courseIDs []string) (map[string]int, error) {
	if len(courseIDs) == 0 {
		return map[string]int{}, nil
	}
	return svc.repo.CountApproved(ctx, courseIDs)
}

func (svc *Service) CountByStatus(ctx context.Context) ([]StatusCount, error) {
	return svc.repo.CountByStatus(ctx)
}

func (svc *Service) TopCourses(ctx context.Context, n int) ([]CourseCount, error) {
	return svc.repo.TopCourses(ctx, n)
}
