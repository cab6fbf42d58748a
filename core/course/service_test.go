package course_test

import (
	"context"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/campus/core/course"
	"github.com/trezcool/campus/core/user"
	"github.com/trezcool/campus/storage/database/dummy"
	"github.com/trezcool/campus/tests"
)

func TestNewCourse_Validate(t *testing.T) {
	validate, translator := testutil.NewValidator()

	tests := []struct {
		name       string
		nc         course.NewCourse
		wantFields map[string]string
	}{
		{
			name: "empty",
			nc:   course.NewCourse{},
			wantFields: map[string]string{
				"code":       "this field is required",
				"title":      "this field is required",
				"faculty_id": "this field is required",
				"department": "this field is required",
				"credits":    "this field is required",
				"semester":   "this field is required",
			},
		},
		{
			name: "bad code and credits",
			nc: course.NewCourse{
				Code: "computer science 1", Title: "Algorithms", FacultyID: "prof",
				Department: "CS", Credits: 9, Semester: "Fall 2026",
			},
			wantFields: map[string]string{
				"code":    "course code must look like CS101 or MATH2020",
				"credits": "credits must be 6 or less",
			},
		},
		{
			name: "valid, cleaned",
			nc: course.NewCourse{
				Code: " cs101 ", Title: "  Algorithms ", FacultyID: "prof",
				Department: "CS", Credits: 3, Semester: "Fall 2026",
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.nc.Validate(validate)
			if tt.wantFields == nil {
				require.NoError(t, err)
				assert.Equal(t, "CS101", tt.nc.Code)
				assert.Equal(t, "Algorithms", tt.nc.Title)
				assert.Equal(t, course.DefaultMaxCapacity, tt.nc.MaxCapacity)
				return
			}
			verrs, ok := err.(validator.ValidationErrors)
			require.True(t, ok, "want validator.ValidationErrors, got %v", err)
			got := make(map[string]string, len(verrs))
			for _, fe := range verrs {
				got[fe.Field()] = fe.Translate(translator)
			}
			assert.Equal(t, tt.wantFields, got)
		})
	}
}

func TestService(t *testing.T) {
	ctx := context.Background()
	db := dummydb.Open()
	users := dummydb.NewUserRepository(db)
	repo := dummydb.NewCourseRepository(db)
	svc := course.NewService(repo)

	admin := testutil.CreateUser(t, users, "Admin", "admin@campus.edu", "", user.RoleAdmin, true)
	prof := testutil.CreateUser(t, users, "Prof", "prof@campus.edu", "", user.RoleFaculty, true)
	other := testutil.CreateUser(t, users, "Other", "other@campus.edu", "", user.RoleFaculty, true)
	student := testutil.CreateUser(t, users, "Hero", "hero@campus.edu", "", user.RoleStudent, true)

	algo, err := svc.Create(ctx, course.NewCourse{
		Code: "CS101", Title: "Algorithms", FacultyID: prof.ID, Department: "CS", Credits: 4, MaxCapacity: 30, Semester: "Fall 2026",
	})
	require.NoError(t, err)
	assert.True(t, algo.IsActive)
	calc := testutil.CreateCourse(t, repo, "MA101", prof.ID, 3, 0)

	t.Run("duplicate code", func(t *testing.T) {
		_, err := svc.Create(ctx, course.NewCourse{Code: "CS101", FacultyID: prof.ID, Credits: 1})
		assert.Equal(t, course.ErrCodeExists, err)

		_, err = svc.Update(ctx, calc.ID, course.UpdateCourse{Code: "CS101"})
		assert.Equal(t, course.ErrCodeExists, err)
	})

	t.Run("ownership", func(t *testing.T) {
		assert.NoError(t, svc.CheckOwnership(algo, admin))
		assert.NoError(t, svc.CheckOwnership(algo, prof))
		assert.Equal(t, course.ErrNotInstructor, svc.CheckOwnership(algo, other))
		assert.Equal(t, course.ErrNotInstructor, svc.CheckOwnership(algo, student))
	})

	t.Run("partial update", func(t *testing.T) {
		credits := 5
		desc := "Sorting and searching"
		updated, err := svc.Update(ctx, algo.ID, course.UpdateCourse{Credits: &credits, Description: &desc})
		require.NoError(t, err)
		assert.Equal(t, 5, updated.Credits)
		assert.Equal(t, desc, updated.Description)
		assert.Equal(t, "Algorithms", updated.Title)
		assert.Equal(t, 30, updated.MaxCapacity)
	})

	t.Run("credits", func(t *testing.T) {
		credits, err := svc.CreditsByID(ctx, []string{algo.ID, calc.ID, "nope"})
		require.NoError(t, err)
		assert.Equal(t, map[string]int{algo.ID: 5, calc.ID: 3}, credits)
	})

	t.Run("deactivate", func(t *testing.T) {
		c, err := svc.Deactivate(ctx, calc.ID)
		require.NoError(t, err)
		assert.False(t, c.IsActive)

		_, err = svc.Deactivate(ctx, "nope")
		assert.Equal(t, course.ErrNotFound, err)

		cnt, err := svc.Count(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, cnt)

		taught, err := svc.ListByFaculty(ctx, prof.ID)
		require.NoError(t, err)
		if assert.Len(t, taught, 1) {
			assert.Equal(t, algo.ID, taught[0].ID)
		}
	})
}
