package tests

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"

	. "github.com/trezcool/campus/apps/api/echo"
	"github.com/trezcool/campus/core"
	"github.com/trezcool/campus/core/announcement"
	"github.com/trezcool/campus/core/attendance"
	"github.com/trezcool/campus/core/audit"
	"github.com/trezcool/campus/core/course"
	"github.com/trezcool/campus/core/dashboard"
	"github.com/trezcool/campus/core/enrollment"
	"github.com/trezcool/campus/core/grade"
	"github.com/trezcool/campus/core/user"
	"github.com/trezcool/campus/services/email"
	"github.com/trezcool/campus/storage/database/dummy"
	"github.com/trezcool/campus/tests"
)

var (
	conf = core.NewTestConfig()

	errMissingToken = httpErr{Error: "missing or malformed jwt"}
	errForbidden    = httpErr{Error: "permission denied"}

	zeroPage = core.Pagination{} // everything
)

// repos gives tests direct access to the storage behind the Server.
type repos struct {
	users         user.Repository
	courses       course.Repository
	enrollments   enrollment.Repository
	grades        grade.Repository
	attendance    attendance.Repository
	announcements announcement.Repository
	audit         audit.Repository
	mail          *emailsvc.ConsoleServiceMock
}

func setup(t *testing.T) (*Server, repos) {
	t.Helper()

	// set up DB & repos
	db := dummydb.Open()
	r := repos{
		users:         dummydb.NewUserRepository(db),
		courses:       dummydb.NewCourseRepository(db),
		enrollments:   dummydb.NewEnrollmentRepository(db),
		grades:        dummydb.NewGradeRepository(db),
		attendance:    dummydb.NewAttendanceRepository(db),
		announcements: dummydb.NewAnnouncementRepository(db),
		audit:         dummydb.NewAuditRepository(db),
	}

	// set up services
	logger := testutil.NewLogger()
	validate, translator := testutil.NewValidator()
	r.mail = emailsvc.NewConsoleServiceMock(conf, logger)
	core.ParseEmailTemplates(conf, logger)

	usrSvc := user.NewService(r.users, r.mail, conf)
	courseSvc := course.NewService(r.courses)
	enrollmentSvc := enrollment.NewService(r.enrollments, courseSvc)
	gradeSvc := grade.NewService(r.grades, courseSvc)
	attendanceSvc := attendance.NewService(r.attendance)
	announcementSvc := announcement.NewService(r.announcements)
	auditSvc := audit.NewServiceMock(r.audit, logger)
	dashboardSvc := dashboard.NewService(dashboard.Deps{
		Users:         usrSvc,
		Courses:       courseSvc,
		Enrollments:   enrollmentSvc,
		Grades:        gradeSvc,
		Attendance:    attendanceSvc,
		Announcements: announcementSvc,
		Audit:         auditSvc,
	})

	// set up server
	srv := NewServer(ServerDeps{
		Conf:            conf,
		Logger:          logger,
		Validate:        validate,
		Translator:      translator,
		UserSvc:         usrSvc,
		CourseSvc:       courseSvc,
		EnrollmentSvc:   enrollmentSvc,
		GradeSvc:        gradeSvc,
		AttendanceSvc:   attendanceSvc,
		AnnouncementSvc: announcementSvc,
		AuditSvc:        auditSvc,
		DashboardSvc:    dashboardSvc,
	})
	return srv, r
}

type httpErr struct {
	Error string `json:"error"`
}

type httpTest struct {
	name     string
	method   string
	path     string
	body     []byte
	token    string
	wantCode int
	wantData []byte
}

func newAuthRequest(method, path, token string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	var body bytes.Buffer
	if len(data) > 0 {
		body.Write(data[0])
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	return req, rec
}

func newRequest(method, path string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	return newAuthRequest(method, path, "", data...)
}

// do runs tt against srv and returns the recorded response.
func do(srv *Server, tt httpTest) *httptest.ResponseRecorder {
	method := tt.method
	if method == "" {
		method = http.MethodGet
	}
	req, rec := newAuthRequest(method, tt.path, tt.token, tt.body)
	srv.ServeHTTP(rec, req)
	return rec
}

func getToken(t *testing.T, usr user.User) string {
	claims := GetUserClaims(conf, usr)
	token, err := GenerateToken(conf, claims)
	if err != nil {
		t.Fatalf("getToken() failed: %v", err)
	}
	return token
}

func marchallObj(t *testing.T, obj interface{}) []byte {
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marchallObj() failed: %v", err)
	}
	return data
}

// marchallPage marshals objs the way listings return them.
func marchallPage(t *testing.T, total int, objs ...interface{}) []byte {
	if objs == nil {
		objs = []interface{}{}
	}
	return marchallObj(t, ListResponse{Results: objs, Total: total})
}

func unmarchall(t *testing.T, rec *httptest.ResponseRecorder, dst interface{}) {
	if err := json.Unmarshal(rec.Body.Bytes(), dst); err != nil {
		t.Fatalf("unmarchall() failed: %v; body %s", err, rec.Body.String())
	}
}

func jsonBytesEqual(t *testing.T, b1, b2 []byte) (bool, error) {
	var j1, j2 interface{}
	if err := json.Unmarshal(b1, &j1); err != nil {
		return false, err
	}
	if err := json.Unmarshal(b2, &j2); err != nil {
		return false, err
	}
	return reflect.DeepEqual(j1, j2), nil
}

func checkCodeAndData(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
	assert.Equal(t, tt.wantCode, rec.Code, "code; body %s", rec.Body.String())
	if tt.wantData == nil {
		return
	}
	ok, err := jsonBytesEqual(t, rec.Body.Bytes(), tt.wantData)
	if err != nil {
		t.Errorf("jsonBytesEqual() failed to compare; err %v", err)
	}
	if !ok {
		t.Errorf("failed! data = %v; wantData %v", rec.Body.String(), string(tt.wantData))
	}
}

func runHTTPTests(t *testing.T, srv *Server, tests []httpTest) {
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			checkCodeAndData(t, tt, do(srv, tt))
		})
	}
}
