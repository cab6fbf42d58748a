package tests

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/campus/core/audit"
	"github.com/trezcool/campus/core/dashboard"
	"github.com/trezcool/campus/core/enrollment"
	"github.com/trezcool/campus/core/user"
	"github.com/trezcool/campus/tests"
)

func Test_dashboardApi(t *testing.T) {
	srv, r := setup(t)

	prof := testutil.CreateUser(t, r.users, "Prof", "prof@campus.edu", "", user.RoleFaculty, true)
	student := testutil.CreateUser(t, r.users, "Hero", "hero@campus.edu", "", user.RoleStudent, true)
	pending := testutil.CreateUser(t, r.users, "Wait", "wait@campus.edu", "", user.RoleStudent, true)
	extra := testutil.CreateUser(t, r.users, "Extra", "extra@campus.edu", "", user.RoleStudent, true)
	admin := testutil.CreateUser(t, r.users, "Admin", "admin@campus.edu", "", user.RoleAdmin, true)

	algo := testutil.CreateCourse(t, r.courses, "CS101", prof.ID, 3, 0)
	math := testutil.CreateCourse(t, r.courses, "MA101", prof.ID, 2, 0)
	testutil.Enroll(t, r.enrollments, student.ID, algo.ID, enrollment.StatusApproved)
	testutil.Enroll(t, r.enrollments, student.ID, math.ID, enrollment.StatusApproved)
	testutil.Enroll(t, r.enrollments, pending.ID, algo.ID, enrollment.StatusPending)
	testutil.Enroll(t, r.enrollments, extra.ID, algo.ID, enrollment.StatusApproved)
	testutil.CreateGrade(t, r.grades, student.ID, algo.ID, 35, 50)
	testutil.CreateGrade(t, r.grades, student.ID, math.ID, 11, 20)

	roleTests := []httpTest{
		{name: "student only", path: "/v1/dashboard/student", token: getToken(t, prof), wantCode: http.StatusForbidden, wantData: marchallObj(t, errForbidden)},
		{name: "faculty only", path: "/v1/dashboard/faculty", token: getToken(t, admin), wantCode: http.StatusForbidden, wantData: marchallObj(t, errForbidden)},
		{name: "admin only", path: "/v1/dashboard/admin", token: getToken(t, student), wantCode: http.StatusForbidden, wantData: marchallObj(t, errForbidden)},
	}
	runHTTPTests(t, srv, roleTests)

	t.Run("student", func(t *testing.T) {
		rec := do(srv, httpTest{path: "/v1/dashboard/student", token: getToken(t, student)})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var dash dashboard.StudentDashboard
		unmarchall(t, rec, &dash)
		// CS101: 70% => A (5); MA101: 55% => C (3); (15 + 6) / 5
		assert.Equal(t, 4.2, dash.GPA)
		assert.Equal(t, "Second Class Upper", dash.Class)
		assert.Equal(t, 2, dash.EnrolledCount)
		assert.Equal(t, 5, dash.TotalCredits)
		assert.Len(t, dash.Grades, 2)
	})

	t.Run("faculty", func(t *testing.T) {
		rec := do(srv, httpTest{path: "/v1/dashboard/faculty", token: getToken(t, prof)})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var dash dashboard.FacultyDashboard
		unmarchall(t, rec, &dash)
		assert.Len(t, dash.Courses, 2)
		assert.Equal(t, 3, dash.TotalStudents)
		assert.Equal(t, 2, dash.GradeCount)
	})

	t.Run("admin", func(t *testing.T) {
		rec := do(srv, httpTest{path: "/v1/dashboard/admin", token: getToken(t, admin)})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var dash dashboard.AdminDashboard
		unmarchall(t, rec, &dash)
		assert.Equal(t, dashboard.AdminStats{Students: 3, Faculty: 1, Courses: 2, PendingEnrollments: 1}, dash.Stats)
		assert.Len(t, dash.RecentUsers, 5)
		assert.Nil(t, dash.Reports)

		rec = do(srv, httpTest{path: "/v1/dashboard/admin?reports=true", token: getToken(t, admin)})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		unmarchall(t, rec, &dash)
		require.NotNil(t, dash.Reports)
		require.NotEmpty(t, dash.Reports.TopCourses)
		assert.Equal(t, algo.ID, dash.Reports.TopCourses[0].CourseID)
		assert.Equal(t, 2, dash.Reports.TopCourses[0].Count)
	})
}

func Test_auditApi(t *testing.T) {
	srv, r := setup(t)

	hero := testutil.CreateUser(t, r.users, "Hero", "hero@campus.edu", strongPwd, user.RoleStudent, true)
	admin := testutil.CreateUser(t, r.users, "Admin", "admin@campus.edu", "", user.RoleAdmin, true)

	rec := do(srv, httpTest{method: http.MethodPost, path: "/v1/users/login", body: []byte(`{"email":"hero@campus.edu","password":"` + strongPwd + `"}`)})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	runHTTPTests(t, srv, []httpTest{
		{name: "admin required", path: "/v1/audit-logs", token: getToken(t, hero), wantCode: http.StatusForbidden, wantData: marchallObj(t, errForbidden)},
	})

	rec = do(srv, httpTest{path: "/v1/audit-logs?action=login", token: getToken(t, admin)})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var resp struct {
		Results []audit.Entry `json:"results"`
		Total   int           `json:"total"`
	}
	unmarchall(t, rec, &resp)
	require.Equal(t, 1, resp.Total)
	assert.Equal(t, audit.ActionLogin, resp.Results[0].Action)
	assert.Equal(t, audit.ResourceUser, resp.Results[0].Resource)
}
