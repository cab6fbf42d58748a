package testutil

import (
	"context"
	"io/ioutil"
	"log"
	"testing"
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/trezcool/campus/core"
	"github.com/trezcool/campus/core/course"
	"github.com/trezcool/campus/core/enrollment"
	"github.com/trezcool/campus/core/grade"
	"github.com/trezcool/campus/core/user"
	"github.com/trezcool/campus/services/logger"
)

// NewLogger returns a silent logger with error reporting disabled.
func NewLogger() core.Logger {
	return logsvc.NewRollbarLogger(log.New(ioutil.Discard, "", 0), core.NewTestConfig())
}

// NewValidator returns a validator with every domain tag registered.
func NewValidator() (*validator.Validate, ut.Translator) {
	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)
	course.InitValidators(validate, translator)
	grade.InitValidators(validate, translator)
	return validate, translator
}

func CreateUser(
	t *testing.T,
	repo user.Repository,
	name, email, pwd, role string,
	isActive bool,
	createdAt ...time.Time,
) user.User {
	tstamp := time.Now().UTC()
	if len(createdAt) > 0 {
		tstamp = createdAt[0].UTC()
	}
	usr := user.User{
		Name:      name,
		Email:     email,
		Role:      role,
		IsActive:  isActive,
		CreatedAt: tstamp,
		UpdatedAt: tstamp,
	}
	if usr.Role == "" {
		usr.Role = user.RoleStudent
	}
	if pwd != "" {
		if err := usr.SetPassword(pwd); err != nil {
			t.Fatalf("CreateUser() failed: %v", err)
		}
	}
	usr, err := repo.CreateUser(context.Background(), usr)
	if err != nil {
		t.Fatalf("CreateUser() failed: %v", err)
	}
	return usr
}

// CreateCourse saves an active course; a zero capacity falls back to course.DefaultMaxCapacity.
func CreateCourse(t *testing.T, repo course.Repository, code, facultyID string, credits, capacity int) course.Course {
	if capacity == 0 {
		capacity = course.DefaultMaxCapacity
	}
	now := time.Now().UTC()
	c, err := repo.CreateCourse(context.Background(), course.Course{
		Code:        code,
		Title:       "Course " + code,
		FacultyID:   facultyID,
		Department:  "Computer Science",
		Credits:     credits,
		MaxCapacity: capacity,
		Semester:    "Fall 2026",
		IsActive:    true,
		CreatedAt:   now,
		UpdatedAt:   now,
	})
	if err != nil {
		t.Fatalf("CreateCourse() failed: %v", err)
	}
	return c
}

func Enroll(t *testing.T, repo enrollment.Repository, studentID, courseID, status string) enrollment.Enrollment {
	now := time.Now().UTC()
	e, err := repo.CreateEnrollment(context.Background(), enrollment.Enrollment{
		StudentID: studentID,
		CourseID:  courseID,
		Status:    status,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		t.Fatalf("Enroll() failed: %v", err)
	}
	return e
}

func CreateGrade(t *testing.T, repo grade.Repository, studentID, courseID string, score, maxScore float64) grade.Grade {
	g, err := repo.CreateGrade(context.Background(), grade.Grade{
		StudentID:  studentID,
		CourseID:   courseID,
		Assignment: "Assignment",
		Score:      score,
		MaxScore:   maxScore,
		Type:       grade.TypeAssignment,
		GradedAt:   time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("CreateGrade() failed: %v", err)
	}
	return g
}
