package grade_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/campus/core"
	"github.com/trezcool/campus/core/course"
	"github.com/trezcool/campus/core/grade"
	"github.com/trezcool/campus/core/grading"
	"github.com/trezcool/campus/storage/database/dummy"
	"github.com/trezcool/campus/tests"
)

func float(f float64) *float64 { return &f }

func TestNewGrade_Validate(t *testing.T) {
	validate, _ := testutil.NewValidator()

	tests := []struct {
		name    string
		ng      grade.NewGrade
		wantErr bool
		wantVal error
	}{
		{name: "missing score", ng: grade.NewGrade{StudentID: "s", CourseID: "c", Assignment: "HW1", MaxScore: 10, Type: "quiz"}, wantErr: true},
		{name: "unknown type", ng: grade.NewGrade{StudentID: "s", CourseID: "c", Assignment: "HW1", Score: float(5), MaxScore: 10, Type: "essay"}, wantErr: true},
		{
			name:    "score above max",
			ng:      grade.NewGrade{StudentID: "s", CourseID: "c", Assignment: "HW1", Score: float(11), MaxScore: 10, Type: "quiz"},
			wantErr: true,
			wantVal: core.NewValidationError(nil, core.FieldError{Field: "score", Error: "score cannot exceed max score"}),
		},
		{name: "zero score", ng: grade.NewGrade{StudentID: "s", CourseID: "c", Assignment: "HW1", Score: float(0), MaxScore: 10, Type: " QUIZ "}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.ng.Validate(validate)
			if !tt.wantErr {
				assert.NoError(t, err)
				assert.Equal(t, grade.TypeQuiz, tt.ng.Type)
				return
			}
			assert.Error(t, err)
			if tt.wantVal != nil {
				assert.Equal(t, tt.wantVal, err)
			}
		})
	}
}

func TestUpdateGrade_Validate(t *testing.T) {
	validate, _ := testutil.NewValidator()
	orig := grade.Grade{Score: 8, MaxScore: 10}

	lower := grade.UpdateGrade{MaxScore: float(5)}
	assert.Error(t, lower.Validate(orig, validate))

	both := grade.UpdateGrade{Score: float(4), MaxScore: float(5)}
	assert.NoError(t, both.Validate(orig, validate))
}

func TestService_StudentReport(t *testing.T) {
	ctx := context.Background()
	db := dummydb.Open()
	courses := dummydb.NewCourseRepository(db)
	repo := dummydb.NewGradeRepository(db)
	svc := grade.NewService(repo, course.NewService(courses))

	algo := testutil.CreateCourse(t, courses, "CS101", "prof", 3, 0)
	calc := testutil.CreateCourse(t, courses, "MA101", "prof", 2, 0)
	essay := testutil.CreateCourse(t, courses, "EN101", "prof", 1, 0)

	t.Run("no grades", func(t *testing.T) {
		report, err := svc.StudentReport(ctx, "hero")
		require.NoError(t, err)
		assert.Empty(t, report.Grades)
		assert.NotNil(t, report.Grades)
		assert.Empty(t, report.Courses)
		assert.Equal(t, 0.0, report.GPA)
		assert.Equal(t, "Pass", report.Class)
	})

	// CS101: (8/10 + 30/50) / 2 = 70% -> A (5); MA101: 45% -> D (2); EN101: 20% -> F (0)
	testutil.CreateGrade(t, repo, "hero", algo.ID, 8, 10)
	testutil.CreateGrade(t, repo, "hero", algo.ID, 30, 50)
	testutil.CreateGrade(t, repo, "hero", calc.ID, 45, 100)
	testutil.CreateGrade(t, repo, "hero", essay.ID, 2, 10)
	testutil.CreateGrade(t, repo, "villain", algo.ID, 0, 10)

	report, err := svc.StudentReport(ctx, "hero")
	require.NoError(t, err)
	assert.Len(t, report.Grades, 4)

	got := make(map[string]grade.CourseResult)
	for _, cr := range report.Courses {
		got[cr.CourseID] = cr
	}
	assert.Equal(t, grade.CourseResult{CourseID: algo.ID, Credits: 3, Percentage: 70, Letter: "A", Points: 5}, got[algo.ID])
	assert.Equal(t, grade.CourseResult{CourseID: calc.ID, Credits: 2, Percentage: 45, Letter: "D", Points: 2}, got[calc.ID])
	assert.Equal(t, grade.CourseResult{CourseID: essay.ID, Credits: 1, Percentage: 20, Letter: "F", Points: 0}, got[essay.ID])

	// (5*3 + 2*2 + 0*1) / 6 = 3.1666..
	assert.Equal(t, 3.17, report.GPA)
	assert.Equal(t, "Second Class Lower", report.Class)

	dist, err := svc.Distribution(ctx)
	require.NoError(t, err)
	assert.Equal(t, []grading.LetterCount{
		{Letter: "A", Count: 1},
		{Letter: "B", Count: 1},
		{Letter: "C", Count: 0},
		{Letter: "D", Count: 1},
		{Letter: "F", Count: 2},
	}, dist)
}

func TestGrade_MarshalJSON(t *testing.T) {
	tests := []struct {
		name            string
		score, maxScore float64
		wantPct         float64
		wantLetter      string
	}{
		{name: "A", score: 42, maxScore: 50, wantPct: 84, wantLetter: "A"},
		{name: "D boundary", score: 4.05, maxScore: 9, wantPct: 45, wantLetter: "D"},
		{name: "F", score: 0, maxScore: 10, wantPct: 0, wantLetter: "F"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := grade.Grade{ID: "g1", StudentID: "hero", CourseID: "algo", Score: tt.score, MaxScore: tt.maxScore, Type: grade.TypeQuiz}
			data, err := json.Marshal(g)
			require.NoError(t, err)

			var got map[string]interface{}
			require.NoError(t, json.Unmarshal(data, &got))
			assert.Equal(t, "g1", got["id"])
			assert.Equal(t, tt.maxScore, got["max_score"])
			assert.Equal(t, tt.wantPct, got["percentage"])
			assert.Equal(t, tt.wantLetter, got["letter"])

			var back grade.Grade
			require.NoError(t, json.Unmarshal(data, &back))
			assert.Equal(t, g.Score, back.Score)
			assert.Equal(t, tt.wantLetter, back.Letter())
		})
	}
}

func TestService_Update(t *testing.T) {
	ctx := context.Background()
	db := dummydb.Open()
	repo := dummydb.NewGradeRepository(db)
	svc := grade.NewService(repo, course.NewService(dummydb.NewCourseRepository(db)))
	g := testutil.CreateGrade(t, repo, "hero", "algo", 6, 10)

	_, err := svc.Update(ctx, "nope", grade.UpdateGrade{})
	assert.Equal(t, grade.ErrNotFound, err)

	_, err = svc.Update(ctx, g.ID, grade.UpdateGrade{Score: float(12)})
	assert.Error(t, err)

	comment := "well done"
	updated, err := svc.Update(ctx, g.ID, grade.UpdateGrade{Score: float(9), Comment: &comment})
	require.NoError(t, err)
	assert.Equal(t, 9.0, updated.Score)
	assert.Equal(t, "well done", updated.Comment)
	assert.Equal(t, "A", updated.Letter())

	require.NoError(t, svc.Delete(ctx, g.ID))
	_, err = svc.GetByID(ctx, g.ID)
	assert.Equal(t, grade.ErrNotFound, err)
}
