package tests

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/campus/core/announcement"
	"github.com/trezcool/campus/core/audit"
	"github.com/trezcool/campus/core/user"
	"github.com/trezcool/campus/tests"
)

func createAnnouncement(t *testing.T, repo announcement.Repository, title, target string, expiresAt *time.Time) announcement.Announcement {
	now := time.Now().UTC()
	a, err := repo.CreateAnnouncement(context.Background(), announcement.Announcement{
		Title:      title,
		Body:       "Announcement body text",
		TargetRole: target,
		ExpiresAt:  expiresAt,
		CreatedAt:  now,
		UpdatedAt:  now,
	})
	require.NoError(t, err)
	return a
}

func Test_announcementApi_list(t *testing.T) {
	srv, r := setup(t)

	prof := testutil.CreateUser(t, r.users, "Prof", "prof@campus.edu", "", user.RoleFaculty, true)
	student := testutil.CreateUser(t, r.users, "Hero", "hero@campus.edu", "", user.RoleStudent, true)
	admin := testutil.CreateUser(t, r.users, "Admin", "admin@campus.edu", "", user.RoleAdmin, true)

	past := time.Now().Add(-time.Hour)
	future := time.Now().Add(24 * time.Hour)
	createAnnouncement(t, r.announcements, "Welcome", announcement.TargetAll, nil)
	createAnnouncement(t, r.announcements, "Exams", announcement.TargetStudent, &future)
	createAnnouncement(t, r.announcements, "Staff meeting", announcement.TargetFaculty, nil)
	createAnnouncement(t, r.announcements, "Old news", announcement.TargetAll, &past)

	tests := []struct {
		name       string
		usr        user.User
		wantTitles []string
	}{
		{name: "student", usr: student, wantTitles: []string{"Welcome", "Exams"}},
		{name: "faculty", usr: prof, wantTitles: []string{"Welcome", "Staff meeting"}},
		{name: "admin", usr: admin, wantTitles: []string{"Welcome", "Exams", "Staff meeting"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(srv, httpTest{path: "/v1/announcements", token: getToken(t, tt.usr)})
			require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

			var resp struct {
				Results []announcement.Announcement `json:"results"`
				Total   int                         `json:"total"`
			}
			unmarchall(t, rec, &resp)
			titles := make([]string, 0, len(resp.Results))
			for _, a := range resp.Results {
				titles = append(titles, a.Title)
			}
			assert.ElementsMatch(t, tt.wantTitles, titles)
			assert.Equal(t, len(tt.wantTitles), resp.Total)
		})
	}
}

func Test_announcementApi_manage(t *testing.T) {
	srv, r := setup(t)

	prof := testutil.CreateUser(t, r.users, "Prof", "prof@campus.edu", "", user.RoleFaculty, true)
	admin := testutil.CreateUser(t, r.users, "Admin", "admin@campus.edu", "", user.RoleAdmin, true)
	adminToken := getToken(t, admin)

	past := time.Now().Add(-time.Hour)
	body := func(title, target string, expiresAt *time.Time) []byte {
		return marchallObj(t, announcement.NewAnnouncement{Title: title, Body: "Classes resume on Monday.", TargetRole: target, ExpiresAt: expiresAt})
	}

	tests := []httpTest{
		{
			name: "admin required", method: http.MethodPost, body: body("Resume", "", nil), token: getToken(t, prof),
			wantCode: http.StatusForbidden, wantData: marchallObj(t, errForbidden),
		},
		{name: "short title", method: http.MethodPost, body: body("Hi", "", nil), token: adminToken, wantCode: http.StatusBadRequest},
		{name: "unknown target", method: http.MethodPost, body: body("Resume", "parents", nil), token: adminToken, wantCode: http.StatusBadRequest},
		{name: "expired already", method: http.MethodPost, body: body("Resume", "", &past), token: adminToken, wantCode: http.StatusBadRequest},
	}
	for _, tt := range tests {
		tt.path = "/v1/announcements"
		t.Run(tt.name, func(t *testing.T) {
			checkCodeAndData(t, tt, do(srv, tt))
		})
	}

	rec := do(srv, httpTest{method: http.MethodPost, path: "/v1/announcements", token: adminToken, body: body(" Resume ", "", nil)})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var a announcement.Announcement
	unmarchall(t, rec, &a)
	assert.Equal(t, "Resume", a.Title)
	assert.Equal(t, announcement.TargetAll, a.TargetRole)
	assert.Equal(t, admin.ID, a.AuthorID)

	rec = do(srv, httpTest{method: http.MethodPut, path: "/v1/announcements/" + a.ID, token: adminToken, body: []byte(`{"target_role":"student"}`)})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	unmarchall(t, rec, &a)
	assert.Equal(t, announcement.TargetStudent, a.TargetRole)
	assert.Equal(t, "Resume", a.Title)

	runHTTPTests(t, srv, []httpTest{
		{name: "delete", method: http.MethodDelete, path: "/v1/announcements/" + a.ID, token: adminToken, wantCode: http.StatusNoContent},
		{
			name: "delete again", method: http.MethodDelete, path: "/v1/announcements/" + a.ID, token: adminToken,
			wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: announcement.ErrNotFound.Error()}),
		},
		{
			name: "update unknown", method: http.MethodPut, path: "/v1/announcements/" + a.ID, token: adminToken,
			body: []byte(`{"title":"Whatever"}`), wantCode: http.StatusNotFound,
		},
	})

	entries, total, err := r.audit.QueryEntries(context.Background(), &audit.QueryFilter{Resource: audit.ResourceAnnouncement}, zeroPage)
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	actions := make([]string, 0, len(entries))
	for _, e := range entries {
		actions = append(actions, e.Action)
		assert.Equal(t, admin.ID, e.ActorID)
	}
	assert.Equal(t, []string{audit.ActionDeleteAnnouncement, audit.ActionUpdateAnnouncement, audit.ActionCreateAnnouncement}, actions)
}
