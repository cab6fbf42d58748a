package dashboard

import (
	"github.com/trezcool/campus/core/announcement"
	"github.com/trezcool/campus/core/attendance"
	"github.com/trezcool/campus/core/audit"
	"github.com/trezcool/campus/core/course"
	"github.com/trezcool/campus/core/enrollment"
	"github.com/trezcool/campus/core/grade"
	"github.com/trezcool/campus/core/grading"
	"github.com/trezcool/campus/core/user"
)

type (
	StudentDashboard struct {
		GPA           float64                     `json:"gpa"`
		Class         string                      `json:"class"`
		EnrolledCount int                         `json:"enrolled_count"`
		TotalCredits  int                         `json:"total_credits"`
		Courses       []course.Course             `json:"courses"`
		Grades        []grade.CourseResult        `json:"grades"`
		Announcements []announcement.Announcement `json:"announcements"`
	}

	FacultyCourse struct {
		course.Course
		StudentCount int `json:"student_count"`
	}

	FacultyDashboard struct {
		Courses         []FacultyCourse             `json:"courses"`
		TotalStudents   int                         `json:"total_students"`
		GradeCount      int                         `json:"grade_count"`
		AttendanceCount int                         `json:"attendance_count"`
		Announcements   []announcement.Announcement `json:"announcements"`
	}

	AdminStats struct {
		Students           int `json:"students"`
		Faculty            int `json:"faculty"`
		Courses            int `json:"courses"`
		PendingEnrollments int `json:"pending_enrollments"`
	}

	TopCourse struct {
		CourseID string `json:"course_id"`
		Code     string `json:"code"`
		Title    string `json:"title"`
		Count    int    `json:"count"`
	}

	AdminReports struct {
		EnrollmentsByStatus []enrollment.StatusCount `json:"enrollments_by_status"`
		GradeDistribution   []grading.LetterCount    `json:"grade_distribution"`
		AttendanceByStatus  []attendance.StatusCount `json:"attendance_by_status"`
		TopCourses          []TopCourse              `json:"top_courses"`
		RecentActivity      []audit.Entry            `json:"recent_activity"`
	}

	AdminDashboard struct {
		Stats                 AdminStats             `json:"stats"`
		RecentUsers           []user.User            `json:"recent_users"`
		StudentsPerDepartment []user.DepartmentCount `json:"students_per_department"`
		Reports               *AdminReports          `json:"reports,omitempty"`
	}
)
