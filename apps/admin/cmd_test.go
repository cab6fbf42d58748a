package main

import (
	"bytes"
	"context"
	"database/sql"
	"fmt"
	"io/fs"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/campus/core/course"
	"github.com/trezcool/campus/core/grade"
	"github.com/trezcool/campus/core/user"
	"github.com/trezcool/campus/storage/database/dummy"
	"github.com/trezcool/campus/tests"
)

const strongPwd = "Campus2026Pass"

type fixtures struct {
	usrRepo    user.Repository
	courseRepo course.Repository
	gradeRepo  grade.Repository
	out        *bytes.Buffer
}

func setup(t *testing.T) (*commandLine, fixtures) {
	t.Helper()

	// set up DB & repos
	db := dummydb.Open()
	fx := fixtures{
		usrRepo:    dummydb.NewUserRepository(db),
		courseRepo: dummydb.NewCourseRepository(db),
		gradeRepo:  dummydb.NewGradeRepository(db),
		out:        new(bytes.Buffer),
	}

	// start CLI
	return &commandLine{
		db:       &sql.DB{}, // never reached: goose is mocked
		usrRepo:  fx.usrRepo,
		gradeSvc: grade.NewService(fx.gradeRepo, course.NewService(fx.courseRepo)),
		out:      fx.out,
	}, fx
}

type cliTest struct {
	name       string
	args       []string // without program name
	pwd        string   // typed at the password prompt
	wantErr    error
	wantErrStr string
}

func (tt cliTest) check(t *testing.T, err error) {
	t.Helper()
	switch {
	case tt.wantErr != nil:
		assert.Equal(t, tt.wantErr, err)
	case tt.wantErrStr != "":
		if assert.Error(t, err) {
			assert.Equal(t, tt.wantErrStr, err.Error())
		}
	default:
		assert.NoError(t, err)
	}
}

func mockPassword(pwd string) {
	readPasswordFunc = func(fd int) ([]byte, error) {
		return []byte(pwd), nil
	}
}

func Test_commandLine_migrate(t *testing.T) {
	cli, _ := setup(t)

	gooseRunFunc = func(command string, db *sql.DB, fsys fs.FS, dir string, args ...string) error {
		switch command {
		case "up", "up-by-one", "down", "fix", "redo", "reset", "status", "version": // pass
		case "up-to", "down-to":
			if len(args) == 0 {
				return fmt.Errorf("%s must be of form: goose [OPTIONS] DRIVER DBSTRING %s VERSION", command, command)
			}
			if _, err := strconv.ParseInt(args[0], 10, 64); err != nil {
				return fmt.Errorf("version must be a number (got '%s')", args[0])
			}
		case "create":
			if len(args) == 0 {
				return fmt.Errorf("create must be of form: goose [OPTIONS] DRIVER DBSTRING create NAME [go|sql]")
			}
		default:
			return fmt.Errorf("%q: no such command", command)
		}
		return nil
	}

	tests := []cliTest{
		{name: "no subcommand", args: []string{"migrate"}, wantErr: errHelp},
		{name: "unknown subcommand", args: []string{"migrate", "lol"}, wantErrStr: "\"lol\": no such command"},
		{name: "up-to: no args", args: []string{"migrate", "up-to"}, wantErrStr: "up-to must be of form: goose [OPTIONS] DRIVER DBSTRING up-to VERSION"},
		{name: "up-to: non-int arg", args: []string{"migrate", "up-to", "lol"}, wantErrStr: "version must be a number (got 'lol')"},
		{name: "down-to: no args", args: []string{"migrate", "down-to"}, wantErrStr: "down-to must be of form: goose [OPTIONS] DRIVER DBSTRING down-to VERSION"},
		{name: "create: no args", args: []string{"migrate", "create"}, wantErrStr: "create must be of form: goose [OPTIONS] DRIVER DBSTRING create NAME [go|sql]"},
		{name: "up", args: []string{"migrate", "up"}},
		{name: "up-to", args: []string{"migrate", "up-to", "2"}},
		{name: "down", args: []string{"migrate", "down"}},
		{name: "down-to", args: []string{"migrate", "down-to", "1"}},
		{name: "status", args: []string{"migrate", "status"}},
		{name: "create", args: []string{"migrate", "create", "course_tags", "sql"}},
	}
	for _, tt := range tests {
		args := append([]string{"admin"}, tt.args...)
		t.Run(tt.name, func(t *testing.T) {
			tt.check(t, cli.run(args))
		})
	}

	t.Run("no database", func(t *testing.T) {
		cli.db = nil
		assert.Equal(t, errNoDatabase, cli.run([]string{"admin", "migrate", "up"}))
	})
}

func Test_commandLine_addUser(t *testing.T) {
	cli, fx := setup(t)
	existing := testutil.CreateUser(t, fx.usrRepo, "Old Name", "old@campus.edu", strongPwd, user.RoleStudent, false)

	tests := []cliTest{
		{name: "no command", wantErr: errHelp},
		{name: "unknown command", args: []string{"lol"}, wantErr: errHelp},
		{name: "no args", args: []string{"adduser"}, wantErr: errHelp},
		{name: "no email", args: []string{"adduser", "-name", "Root"}, wantErr: errHelp},
		{name: "no password", args: []string{"adduser", "-name", "Root", "-email", "root@campus.edu"}, wantErr: errHelp},
		{
			name: "unknown role", args: []string{"adduser", "-name", "Root", "-email", "root@campus.edu", "-role", "janitor"},
			pwd: strongPwd, wantErrStr: `unknown role "janitor"`,
		},
		{
			name: "weak password", args: []string{"adduser", "-name", "Root", "-email", "root@campus.edu"},
			pwd: "password", wantErrStr: "password: password must contain at least one uppercase letter and one number",
		},
		{name: "create admin", args: []string{"adduser", "-name", "Root", "-email", "ROOT@campus.edu"}, pwd: strongPwd},
		{
			name: "update existing", args: []string{"adduser", "-name", "New Name", "-email", existing.Email, "-role", user.RoleFaculty},
			pwd: strongPwd,
		},
	}
	for _, tt := range tests {
		args := append([]string{"admin"}, tt.args...)
		mockPassword(tt.pwd)
		t.Run(tt.name, func(t *testing.T) {
			tt.check(t, cli.run(args))
		})
	}

	ctx := context.Background()
	root, err := fx.usrRepo.GetUser(ctx, user.GetFilter{Email: "root@campus.edu"})
	require.NoError(t, err)
	assert.Equal(t, user.RoleAdmin, root.Role)
	assert.True(t, root.IsActive)
	assert.NoError(t, root.CheckPassword(strongPwd))

	updated, err := fx.usrRepo.GetUser(ctx, user.GetFilter{ID: existing.ID})
	require.NoError(t, err)
	assert.Equal(t, "New Name", updated.Name)
	assert.Equal(t, user.RoleFaculty, updated.Role)
	assert.True(t, updated.IsActive)
}

func Test_commandLine_resetPassword(t *testing.T) {
	cli, fx := setup(t)
	usr := testutil.CreateUser(t, fx.usrRepo, "Hero", "hero@campus.edu", strongPwd, user.RoleStudent, true)

	tests := []cliTest{
		{name: "no args", args: []string{"resetpassword"}, wantErr: errHelp},
		{name: "email but no password", args: []string{"resetpassword", "-email", usr.Email}, wantErr: errHelp},
		{name: "user not found", args: []string{"resetpassword", "-email", "nobody@campus.edu"}, pwd: strongPwd, wantErr: user.ErrNotFound},
		{name: "reset", args: []string{"resetpassword", "-email", " HERO@campus.edu"}, pwd: "Brand2026NewPass"},
	}
	for _, tt := range tests {
		args := append([]string{"admin"}, tt.args...)
		mockPassword(tt.pwd)
		t.Run(tt.name, func(t *testing.T) {
			tt.check(t, cli.run(args))
		})
	}

	refreshed, err := fx.usrRepo.GetUser(context.Background(), user.GetFilter{ID: usr.ID})
	require.NoError(t, err)
	assert.NoError(t, refreshed.CheckPassword("Brand2026NewPass"))
}

func Test_commandLine_gpa(t *testing.T) {
	cli, fx := setup(t)

	prof := testutil.CreateUser(t, fx.usrRepo, "Prof", "prof@campus.edu", "", user.RoleFaculty, true)
	student := testutil.CreateUser(t, fx.usrRepo, "Hero", "hero@campus.edu", "", user.RoleStudent, true)
	algo := testutil.CreateCourse(t, fx.courseRepo, "CS101", prof.ID, 4, 0)
	testutil.CreateGrade(t, fx.gradeRepo, student.ID, algo.ID, 62, 100)

	tests := []cliTest{
		{name: "no args", args: []string{"gpa"}, wantErr: errHelp},
		{name: "unknown", args: []string{"gpa", "-email", "nobody@campus.edu"}, wantErr: user.ErrNotFound},
		{name: "not a student", args: []string{"gpa", "-email", prof.Email}, wantErr: errNotStudent},
	}
	for _, tt := range tests {
		args := append([]string{"admin"}, tt.args...)
		t.Run(tt.name, func(t *testing.T) {
			tt.check(t, cli.run(args))
		})
	}

	fx.out.Reset()
	require.NoError(t, cli.run([]string{"admin", "gpa", "-email", student.Email}))
	assert.Contains(t, fx.out.String(), "Hero <hero@campus.edu>")
	assert.Contains(t, fx.out.String(), "62.00%")
	assert.Contains(t, fx.out.String(), "GPA: 4.00 (Second Class Upper)")
}
