package tests

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/campus/core/attendance"
	"github.com/trezcool/campus/core/course"
	"github.com/trezcool/campus/core/grade"
	"github.com/trezcool/campus/core/user"
	"github.com/trezcool/campus/tests"
)

func Test_gradeApi_studentReport(t *testing.T) {
	srv, r := setup(t)

	prof := testutil.CreateUser(t, r.users, "Prof", "prof@campus.edu", "", user.RoleFaculty, true)
	student := testutil.CreateUser(t, r.users, "Hero", "hero@campus.edu", "", user.RoleStudent, true)
	newbie := testutil.CreateUser(t, r.users, "Newbie", "newbie@campus.edu", "", user.RoleStudent, true)

	algo := testutil.CreateCourse(t, r.courses, "CS101", prof.ID, 3, 0)
	math := testutil.CreateCourse(t, r.courses, "MA101", prof.ID, 2, 0)
	testutil.CreateGrade(t, r.grades, student.ID, algo.ID, 80, 100)
	testutil.CreateGrade(t, r.grades, student.ID, algo.ID, 30, 50)
	testutil.CreateGrade(t, r.grades, student.ID, math.ID, 9, 20)

	tests := []struct {
		name        string
		usr         user.User
		wantGPA     float64
		wantClass   string
		wantGrades  int
		wantLetters map[string]string
	}{
		// CS101: (0.8 + 0.6) / 2 = 70% => A (5); MA101: 45% => D (2)
		// (5*3 + 2*2) / 5 = 3.8
		{name: "graded", usr: student, wantGPA: 3.8, wantClass: "Second Class Upper", wantGrades: 3, wantLetters: map[string]string{algo.ID: "A", math.ID: "D"}},
		{name: "no grades", usr: newbie, wantClass: "Pass", wantLetters: map[string]string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(srv, httpTest{path: "/v1/grades", token: getToken(t, tt.usr)})
			require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

			var report grade.Report
			unmarchall(t, rec, &report)
			assert.Equal(t, tt.wantGPA, report.GPA)
			assert.Equal(t, tt.wantClass, report.Class)
			assert.Len(t, report.Grades, tt.wantGrades)
			letters := make(map[string]string)
			for _, cr := range report.Courses {
				letters[cr.CourseID] = cr.Letter
			}
			assert.Equal(t, tt.wantLetters, letters)
		})
	}
}

func Test_gradeApi_gradeCRUD(t *testing.T) {
	srv, r := setup(t)

	prof := testutil.CreateUser(t, r.users, "Prof", "prof@campus.edu", "", user.RoleFaculty, true)
	other := testutil.CreateUser(t, r.users, "Other Prof", "other@campus.edu", "", user.RoleFaculty, true)
	student := testutil.CreateUser(t, r.users, "Hero", "hero@campus.edu", "", user.RoleStudent, true)
	admin := testutil.CreateUser(t, r.users, "Admin", "admin@campus.edu", "", user.RoleAdmin, true)

	algo := testutil.CreateCourse(t, r.courses, "CS101", prof.ID, 3, 0)
	mine := testutil.CreateCourse(t, r.courses, "CS102", other.ID, 3, 0)
	otherGrade := testutil.CreateGrade(t, r.grades, student.ID, mine.ID, 10, 20)

	body := func(studentID, courseID string, score, maxScore float64) []byte {
		return marchallObj(t, grade.NewGrade{
			StudentID: studentID, CourseID: courseID, Assignment: "Homework 1", Score: &score, MaxScore: maxScore, Type: grade.TypeAssignment,
		})
	}
	profToken := getToken(t, prof)

	tests := []httpTest{
		{
			name: "students cannot grade", body: body(student.ID, algo.ID, 50, 100), token: getToken(t, student),
			wantCode: http.StatusForbidden, wantData: marchallObj(t, errForbidden),
		},
		{
			name: "not the instructor", body: body(student.ID, mine.ID, 50, 100), token: profToken,
			wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: course.ErrNotInstructor.Error()}),
		},
		{
			name: "unknown course", body: body(student.ID, "nope", 50, 100), token: profToken,
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, map[string]string{"course_id": course.ErrNotFound.Error()}),
		},
		{
			name: "not a student", body: body(other.ID, algo.ID, 50, 100), token: profToken,
			wantCode: http.StatusBadRequest, wantData: []byte(`{"student_id":"must be a student"}`),
		},
		{name: "score above max", body: body(student.ID, algo.ID, 120, 100), token: profToken, wantCode: http.StatusBadRequest},
		{name: "missing score", body: []byte(`{"student_id":"x","course_id":"y","assignment":"a","max_score":10,"type":"quiz"}`), token: profToken, wantCode: http.StatusBadRequest},
	}
	for _, tt := range tests {
		tt.method = http.MethodPost
		tt.path = "/v1/grades"
		t.Run(tt.name, func(t *testing.T) {
			checkCodeAndData(t, tt, do(srv, tt))
		})
	}

	var g grade.Grade
	t.Run("create", func(t *testing.T) {
		rec := do(srv, httpTest{method: http.MethodPost, path: "/v1/grades", token: profToken, body: body(student.ID, algo.ID, 42, 50)})
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
		unmarchall(t, rec, &g)
		assert.Equal(t, prof.ID, g.GradedBy)
		assert.Equal(t, "A", g.Letter())
		var raw map[string]interface{}
		unmarchall(t, rec, &raw)
		assert.Equal(t, "A", raw["letter"])
		assert.Equal(t, 84.0, raw["percentage"])
	})

	t.Run("faculty only list own courses", func(t *testing.T) {
		rec := do(srv, httpTest{path: "/v1/grades", token: profToken})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var resp struct {
			Results []grade.Grade `json:"results"`
			Total   int           `json:"total"`
		}
		unmarchall(t, rec, &resp)
		require.Equal(t, 1, resp.Total)
		assert.Equal(t, g.ID, resp.Results[0].ID)

		rec = do(srv, httpTest{path: "/v1/grades?course=" + mine.ID, token: profToken})
		assert.Equal(t, http.StatusForbidden, rec.Code)

		rec = do(srv, httpTest{path: "/v1/grades?student=" + student.ID, token: getToken(t, admin)})
		require.Equal(t, http.StatusOK, rec.Code)
		unmarchall(t, rec, &resp)
		assert.Equal(t, 2, resp.Total)
	})

	updates := []httpTest{
		{
			name: "other instructor cannot update", method: http.MethodPut, path: "/v1/grades/" + otherGrade.ID, token: profToken,
			body: []byte(`{"score":20}`), wantCode: http.StatusForbidden,
		},
		{
			name: "score above stored max", method: http.MethodPut, path: fmt.Sprintf("/v1/grades/%s", g.ID), token: profToken,
			body: []byte(`{"score":60}`), wantCode: http.StatusBadRequest,
		},
		{
			name: "update", method: http.MethodPut, path: "/v1/grades/" + g.ID, token: profToken,
			body: []byte(`{"score":20,"comment":"late"}`), wantCode: http.StatusOK,
		},
		{
			name: "faculty cannot delete", method: http.MethodDelete, path: "/v1/grades/" + g.ID, token: profToken,
			wantCode: http.StatusForbidden, wantData: marchallObj(t, errForbidden),
		},
		{name: "admin deletes", method: http.MethodDelete, path: "/v1/grades/" + g.ID, token: getToken(t, admin), wantCode: http.StatusNoContent},
		{
			name: "gone", method: http.MethodDelete, path: "/v1/grades/" + g.ID, token: getToken(t, admin),
			wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: grade.ErrNotFound.Error()}),
		},
	}
	runHTTPTests(t, srv, updates)
}

func Test_attendanceApi(t *testing.T) {
	srv, r := setup(t)

	prof := testutil.CreateUser(t, r.users, "Prof", "prof@campus.edu", "", user.RoleFaculty, true)
	other := testutil.CreateUser(t, r.users, "Other Prof", "other@campus.edu", "", user.RoleFaculty, true)
	s1 := testutil.CreateUser(t, r.users, "One", "one@campus.edu", "", user.RoleStudent, true)
	s2 := testutil.CreateUser(t, r.users, "Two", "two@campus.edu", "", user.RoleStudent, true)
	c := testutil.CreateCourse(t, r.courses, "CS101", prof.ID, 3, 0)

	rollCall := func(date string, marks ...attendance.StudentMark) []byte {
		return marchallObj(t, attendance.MarkAttendance{CourseID: c.ID, Date: date, Records: marks})
	}
	marks := []attendance.StudentMark{
		{StudentID: s1.ID, Status: attendance.StatusPresent},
		{StudentID: s2.ID, Status: "ABSENT"},
	}
	profToken := getToken(t, prof)

	tests := []httpTest{
		{
			name: "students cannot mark", method: http.MethodPost, body: rollCall("2026-10-12", marks...), token: getToken(t, s1),
			wantCode: http.StatusForbidden, wantData: marchallObj(t, errForbidden),
		},
		{
			name: "not the instructor", method: http.MethodPost, body: rollCall("2026-10-12", marks...), token: getToken(t, other),
			wantCode: http.StatusForbidden,
		},
		{
			name: "bad date", method: http.MethodPost, body: rollCall("12/10/2026", marks...), token: profToken,
			wantCode: http.StatusBadRequest, wantData: []byte(`{"date":"date must be formatted as YYYY-MM-DD"}`),
		},
		{name: "no records", method: http.MethodPost, body: rollCall("2026-10-12"), token: profToken, wantCode: http.StatusBadRequest},
		{
			name: "marked", method: http.MethodPost, body: rollCall("2026-10-12", marks...), token: profToken,
			wantCode: http.StatusOK, wantData: []byte(`{"saved":2}`),
		},
		{
			name: "re-marked", method: http.MethodPost, token: profToken,
			body:     rollCall("2026-10-12", attendance.StudentMark{StudentID: s2.ID, Status: attendance.StatusLate, Note: "bus"}),
			wantCode: http.StatusOK, wantData: []byte(`{"saved":1}`),
		},
		{
			name: "next day", method: http.MethodPost, body: rollCall("2026-10-13", marks[0]), token: profToken,
			wantCode: http.StatusOK, wantData: []byte(`{"saved":1}`),
		},
		{name: "bad date filter", path: "/v1/attendance?date=yesterday", token: profToken, wantCode: http.StatusBadRequest},
	}
	for _, tt := range tests {
		if tt.path == "" {
			tt.path = "/v1/attendance"
		}
		t.Run(tt.name, func(t *testing.T) {
			checkCodeAndData(t, tt, do(srv, tt))
		})
	}

	type page struct {
		Results []attendance.Record `json:"results"`
		Total   int                 `json:"total"`
	}
	listing := []struct {
		name      string
		path      string
		token     string
		wantTotal int
	}{
		{name: "own courses", path: "/v1/attendance", token: profToken, wantTotal: 3},
		{name: "by day", path: "/v1/attendance?date=2026-10-12", token: profToken, wantTotal: 2},
		{name: "by student", path: "/v1/attendance?student=" + s2.ID, token: profToken, wantTotal: 1},
		{name: "other faculty sees nothing", path: "/v1/attendance", token: getToken(t, other), wantTotal: 0},
	}
	for _, tt := range listing {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(srv, httpTest{path: tt.path, token: tt.token})
			require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
			var resp page
			unmarchall(t, rec, &resp)
			assert.Equal(t, tt.wantTotal, resp.Total)
		})
	}

	t.Run("late mark overwrote absence", func(t *testing.T) {
		rec := do(srv, httpTest{path: "/v1/attendance?student=" + s2.ID, token: profToken})
		var resp page
		unmarchall(t, rec, &resp)
		require.Len(t, resp.Results, 1)
		assert.Equal(t, attendance.StatusLate, resp.Results[0].Status)
		assert.Equal(t, "bus", resp.Results[0].Note)
	})
}
