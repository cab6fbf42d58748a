// Package dashboard assembles the per-role landing pages out of the other domain services.
package dashboard

import (
	"context"

	"github.com/kat-co/vala"

	"github.com/trezcool/campus/core"
	"github.com/trezcool/campus/core/announcement"
	"github.com/trezcool/campus/core/attendance"
	"github.com/trezcool/campus/core/audit"
	"github.com/trezcool/campus/core/course"
	"github.com/trezcool/campus/core/enrollment"
	"github.com/trezcool/campus/core/grade"
	"github.com/trezcool/campus/core/user"
)

const (
	latestAnnouncements = 5
	recentUsers         = 8
	topCourses          = 5
	recentActivity      = 50
)

type (
	Deps struct {
		Users         user.ServiceInterface
		Courses       course.ServiceInterface
		Enrollments   enrollment.ServiceInterface
		Grades        grade.ServiceInterface
		Attendance    attendance.ServiceInterface
		Announcements announcement.ServiceInterface
		Audit         audit.ServiceInterface
	}

	ServiceInterface interface {
		Student(ctx context.Context, studentID string) (StudentDashboard, error)
		Faculty(ctx context.Context, facultyID string) (FacultyDashboard, error)
		Admin(ctx context.Context, includeReports bool) (AdminDashboard, error)
	}

	Service struct {
		Deps
	}
)

var _ ServiceInterface = (*Service)(nil)

// NewService panics if any dependency is missing.
func NewService(deps Deps) *Service {
	vala.BeginValidation().Validate(
		vala.IsNotNil(deps.Users, "Users"),
		vala.IsNotNil(deps.Courses, "Courses"),
		vala.IsNotNil(deps.Enrollments, "Enrollments"),
		vala.IsNotNil(deps.Grades, "Grades"),
		vala.IsNotNil(deps.Attendance, "Attendance"),
		vala.IsNotNil(deps.Announcements, "Announcements"),
		vala.IsNotNil(deps.Audit, "Audit"),
	).CheckAndPanic()
	return &Service{Deps: deps}
}

func (svc *Service) latestAnnouncements(ctx context.Context, role string) ([]announcement.Announcement, error) {
	anns, _, err := svc.Announcements.ListForRole(ctx, role, core.Pagination{Page: 1, Limit: latestAnnouncements})
	if anns == nil {
		anns = []announcement.Announcement{}
	}
	return anns, err
}

func (svc *Service) Student(ctx context.Context, studentID string) (StudentDashboard, error) {
	enrollments, err := svc.Enrollments.StudentCourses(ctx, studentID)
	if err != nil {
		return StudentDashboard{}, err
	}
	ids := make([]string, 0, len(enrollments))
	for _, e := range enrollments {
		if e.Status == enrollment.StatusApproved {
			ids = append(ids, e.CourseID)
		}
	}

	courses := make([]course.Course, 0, len(ids))
	var credits int
	if len(ids) > 0 {
		byID, err := svc.Courses.ByID(ctx, ids)
		if err != nil {
			return StudentDashboard{}, err
		}
		for _, id := range ids {
			if c, ok := byID[id]; ok {
				courses = append(courses, c)
				credits += c.Credits
			}
		}
	}

	report, err := svc.Grades.StudentReport(ctx, studentID)
	if err != nil {
		return StudentDashboard{}, err
	}
	anns, err := svc.latestAnnouncements(ctx, user.RoleStudent)
	if err != nil {
		return StudentDashboard{}, err
	}

	return StudentDashboard{
		GPA:           report.GPA,
		Class:         report.Class,
		EnrolledCount: len(courses),
		TotalCredits:  credits,
		Courses:       courses,
		Grades:        report.Courses,
		Announcements: anns,
	}, nil
}

func (svc *Service) Faculty(ctx context.Context, facultyID string) (FacultyDashboard, error) {
	courses, err := svc.Courses.ListByFaculty(ctx, facultyID)
	if err != nil {
		return FacultyDashboard{}, err
	}
	ids := make([]string, 0, len(courses))
	for _, c := range courses {
		ids = append(ids, c.ID)
	}

	dash := FacultyDashboard{Courses: make([]FacultyCourse, 0, len(courses))}
	if len(ids) > 0 {
		counts, err := svc.Enrollments.ApprovedCounts(ctx, ids)
		if err != nil {
			return FacultyDashboard{}, err
		}
		for _, c := range courses {
			dash.Courses = append(dash.Courses, FacultyCourse{Course: c, StudentCount: counts[c.ID]})
			dash.TotalStudents += counts[c.ID]
		}
		if dash.GradeCount, err = svc.Grades.Count(ctx, ids); err != nil {
			return FacultyDashboard{}, err
		}
		if dash.AttendanceCount, err = svc.Attendance.Count(ctx, ids); err != nil {
			return FacultyDashboard{}, err
		}
	}

	if dash.Announcements, err = svc.latestAnnouncements(ctx, user.RoleFaculty); err != nil {
		return FacultyDashboard{}, err
	}
	return dash, nil
}

func (svc *Service) Admin(ctx context.Context, includeReports bool) (AdminDashboard, error) {
	var dash AdminDashboard
	var err error

	if dash.Stats.Students, err = svc.Users.Count(ctx, user.RoleStudent); err != nil {
		return AdminDashboard{}, err
	}
	if dash.Stats.Faculty, err = svc.Users.Count(ctx, user.RoleFaculty); err != nil {
		return AdminDashboard{}, err
	}
	if dash.Stats.Courses, err = svc.Courses.Count(ctx); err != nil {
		return AdminDashboard{}, err
	}
	byStatus, err := svc.Enrollments.CountByStatus(ctx)
	if err != nil {
		return AdminDashboard{}, err
	}
	for _, sc := range byStatus {
		if sc.Status == enrollment.StatusPending {
			dash.Stats.PendingEnrollments = sc.Count
		}
	}
	if dash.RecentUsers, err = svc.Users.Recent(ctx, recentUsers); err != nil {
		return AdminDashboard{}, err
	}
	if dash.StudentsPerDepartment, err = svc.Users.DepartmentStats(ctx); err != nil {
		return AdminDashboard{}, err
	}

	if !includeReports {
		return dash, nil
	}

	reports := AdminReports{EnrollmentsByStatus: byStatus}
	if reports.GradeDistribution, err = svc.Grades.Distribution(ctx); err != nil {
		return AdminDashboard{}, err
	}
	if reports.AttendanceByStatus, err = svc.Attendance.CountByStatus(ctx); err != nil {
		return AdminDashboard{}, err
	}
	if reports.TopCourses, err = svc.topCourses(ctx); err != nil {
		return AdminDashboard{}, err
	}
	if reports.RecentActivity, err = svc.Audit.Recent(ctx, recentActivity); err != nil {
		return AdminDashboard{}, err
	}
	dash.Reports = &reports
	return dash, nil
}

func (svc *Service) topCourses(ctx context.Context) ([]TopCourse, error) {
	counts, err := svc.Enrollments.TopCourses(ctx, topCourses)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(counts))
	for _, cc := range counts {
		ids = append(ids, cc.CourseID)
	}
	byID := map[string]course.Course{}
	if len(ids) > 0 {
		if byID, err = svc.Courses.ByID(ctx, ids); err != nil {
			return nil, err
		}
	}

	top := make([]TopCourse, 0, len(counts))
	for _, cc := range counts {
		c := byID[cc.CourseID]
		top = append(top, TopCourse{CourseID: cc.CourseID, Code: c.Code, Title: c.Title, Count: cc.Count})
	}
	return top, nil
}
