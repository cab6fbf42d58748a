package user_test

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/campus/core"
	"github.com/trezcool/campus/core/course"
	"github.com/trezcool/campus/core/user"
	"github.com/trezcool/campus/services/email"
	"github.com/trezcool/campus/storage/database/dummy"
	"github.com/trezcool/campus/tests"
)

const strongPwd = "Campus2026Pass"

func setup(t *testing.T) (*user.Service, user.Repository, *emailsvc.ConsoleServiceMock) {
	t.Helper()
	conf := core.NewTestConfig()
	logger := testutil.NewLogger()
	core.ParseEmailTemplates(conf, logger)
	repo := dummydb.NewUserRepository(dummydb.Open())
	mail := emailsvc.NewConsoleServiceMock(conf, logger)
	return user.NewService(repo, mail, conf), repo, mail
}

func TestValidatePassword(t *testing.T) {
	user.SetCommonPasswords([]string{"password1"})
	defer user.SetCommonPasswords(nil)

	tests := []struct {
		pwd     string
		wantErr string
	}{
		{pwd: "Sh0rt", wantErr: "password must contain at least 8 characters"},
		{pwd: "has space 1A", wantErr: "password must not contain whitespace"},
		{pwd: "1234567890", wantErr: "password cannot be entirely numeric"},
		{pwd: "alllowercase1", wantErr: "password must contain at least one uppercase letter and one number"},
		{pwd: "Jane2Doe", wantErr: "password cannot be similar to user attributes"},
		{pwd: "PASSWORD1", wantErr: "password is too common"},
		{pwd: strongPwd},
	}
	for _, tt := range tests {
		t.Run(tt.pwd, func(t *testing.T) {
			err := user.ValidatePassword(tt.pwd, "Jane Doe", "jane@campus.edu")
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.Equal(t, core.NewValidationError(nil, core.FieldError{Field: "password", Error: tt.wantErr}), err)
		})
	}
}

func TestService_Register(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := setup(t)

	tests := []struct {
		name    string
		role    string
		token   string
		wantErr error
	}{
		{name: "student, no token", role: ""},
		{name: "faculty, no token", role: user.RoleFaculty, wantErr: user.ErrRoleNotAllowed},
		{name: "faculty, wrong token", role: user.RoleFaculty, token: "admin-token", wantErr: user.ErrRoleNotAllowed},
		{name: "faculty", role: user.RoleFaculty, token: "faculty-token"},
		{name: "admin", role: user.RoleAdmin, token: "admin-token"},
	}
	for i, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			nu := user.NewUser{Name: "Jane", Email: string(rune('a'+i)) + "@campus.edu", Password: strongPwd, Role: tt.role}
			usr, err := svc.Register(ctx, nu, tt.token)
			if tt.wantErr != nil {
				assert.Equal(t, tt.wantErr, err)
				return
			}
			require.NoError(t, err)
			assert.True(t, usr.IsActive)
			assert.NotEmpty(t, usr.ID)
			assert.NoError(t, usr.CheckPassword(strongPwd))
			if tt.role == "" {
				assert.Equal(t, user.RoleStudent, usr.Role)
			} else {
				assert.Equal(t, tt.role, usr.Role)
			}
		})
	}
}

func TestNewUser_Validate(t *testing.T) {
	ctx := context.Background()
	svc, repo, _ := setup(t)
	validate, _ := testutil.NewValidator()
	testutil.CreateUser(t, repo, "Taken", "taken@campus.edu", "", user.RoleStudent, true)

	nu := user.NewUser{Name: "Jane", Email: " TAKEN@campus.edu ", Password: strongPwd, PasswordConfirm: strongPwd}
	err := nu.Validate(ctx, validate, svc)
	assert.Equal(t, core.NewValidationError(user.ErrEmailExists, core.FieldError{Field: "email", Error: user.ErrEmailExists.Error()}), err)
	assert.Equal(t, "taken@campus.edu", nu.Email)

	nu = user.NewUser{Name: "Jane Doe", Email: "jane@campus.edu", Password: strongPwd, PasswordConfirm: strongPwd}
	require.NoError(t, nu.Validate(ctx, validate, svc))
	assert.Equal(t, user.RoleStudent, nu.Role)
}

func TestDepartment_sameRulesAsCourses(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := setup(t)
	validate, _ := testutil.NewValidator()

	tests := []struct {
		name    string
		dept    string
		wantErr bool
	}{
		{name: "ampersand", dept: "Electrical & Electronics"},
		{name: "hyphen", dept: "Bio-Engineering"},
		{name: "punctuation", dept: "Arts (Fine/Applied)"},
		{name: "too long", dept: strings.Repeat("d", 101), wantErr: true},
	}
	for i, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			nc := course.NewCourse{Code: "EE101", Title: "Circuits", FacultyID: "prof", Department: tt.dept, Credits: 3, Semester: "Fall 2026"}
			courseErr := nc.Validate(validate)

			nu := user.NewUser{
				Name:            "Jane Doe",
				Email:           fmt.Sprintf("jane%d@campus.edu", i),
				Password:        strongPwd,
				PasswordConfirm: strongPwd,
				Department:      tt.dept,
			}
			userErr := nu.Validate(ctx, validate, svc)

			if tt.wantErr {
				assert.Error(t, courseErr)
				assert.Error(t, userErr)
				return
			}
			require.NoError(t, courseErr)
			require.NoError(t, userErr)
			usr, err := svc.Register(ctx, nu, "")
			require.NoError(t, err)
			assert.Equal(t, tt.dept, usr.Department)

			uu := user.UpdateUser{Department: tt.dept}
			assert.NoError(t, uu.Validate(ctx, usr, validate, svc))
		})
	}
}

func TestService_UpdateAndDeactivate(t *testing.T) {
	ctx := context.Background()
	svc, repo, _ := setup(t)
	validate, _ := testutil.NewValidator()
	orig := testutil.CreateUser(t, repo, "Jane", "jane@campus.edu", strongPwd, user.RoleStudent, true)

	uu := user.UpdateUser{Department: "Physics"}
	require.NoError(t, uu.Validate(ctx, orig, validate, svc))
	updated, err := svc.Update(ctx, orig.ID, uu)
	require.NoError(t, err)
	assert.Equal(t, "Jane", updated.Name)
	assert.Equal(t, "Physics", updated.Department)
	assert.NoError(t, updated.CheckPassword(strongPwd))

	deactivated, err := svc.Deactivate(ctx, orig.ID)
	require.NoError(t, err)
	assert.False(t, deactivated.IsActive)

	cnt, err := svc.Count(ctx, user.RoleStudent)
	require.NoError(t, err)
	assert.Equal(t, 0, cnt)

	_, err = svc.Deactivate(ctx, "nope")
	assert.Equal(t, user.ErrNotFound, err)
}

func TestService_PasswordReset(t *testing.T) {
	ctx := context.Background()
	svc, repo, mail := setup(t)
	usr := testutil.CreateUser(t, repo, "Jane", "jane@campus.edu", strongPwd, user.RoleStudent, true)
	testutil.CreateUser(t, repo, "Gone", "gone@campus.edu", strongPwd, user.RoleStudent, false)

	assert.Equal(t, user.ErrNotFound, svc.RequestPasswordReset(ctx, "nobody@campus.edu"))
	assert.Equal(t, user.ErrNotFound, svc.RequestPasswordReset(ctx, "gone@campus.edu"))
	assert.Empty(t, mail.SentMessages())

	require.NoError(t, svc.RequestPasswordReset(ctx, " JANE@campus.edu"))
	sent := mail.SentMessages()
	require.Len(t, sent, 1)
	assert.Equal(t, usr.Email, sent[0].To[0].Address)
	data := sent[0].TemplateData.(map[string]interface{})
	uid, token := data["UID"].(string), data["Token"].(string)
	assert.Contains(t, sent[0].TextContent, data["ResetURL"].(string))

	newPwd := "Brand2026NewPass"
	assert.Error(t, svc.ResetPassword(ctx, user.ResetUserPassword{UID: uid, Token: "bogus", Password: newPwd}))
	assert.Error(t, svc.ResetPassword(ctx, user.ResetUserPassword{UID: "!!", Token: token, Password: newPwd}))
	assert.Error(t, svc.ResetPassword(ctx, user.ResetUserPassword{UID: uid, Token: token, Password: "weak"}))

	require.NoError(t, svc.ResetPassword(ctx, user.ResetUserPassword{UID: uid, Token: token, Password: newPwd}))
	refreshed, err := svc.GetByID(ctx, usr.ID)
	require.NoError(t, err)
	assert.NoError(t, refreshed.CheckPassword(newPwd))

	// the token is single use: the new password hash invalidates it
	assert.Error(t, svc.ResetPassword(ctx, user.ResetUserPassword{UID: uid, Token: token, Password: "Another2026Pass"}))
}
