package course

import (
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/campus/core"
)

const DefaultMaxCapacity = 50

type Course struct {
	ID          string    `json:"id"`
	Code        string    `json:"code"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	FacultyID   string    `json:"faculty_id"`
	Department  string    `json:"department"`
	Credits     int       `json:"credits"`
	MaxCapacity int       `json:"max_capacity"`
	Semester    string    `json:"semester"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"` // UTC
	UpdatedAt   time.Time `json:"updated_at"` // UTC
}

// NewCourse contains information needed to create a new Course.
type NewCourse struct {
	Code        string `json:"code" validate:"required,coursecode"`
	Title       string `json:"title" validate:"required,min=3,max=200"`
	Description string `json:"description" validate:"omitempty,max=2000"`
	FacultyID   string `json:"faculty_id" validate:"required"`
	Department  string `json:"department" validate:"required,max=100"`
	Credits     int    `json:"credits" validate:"required,min=1,max=6"`
	MaxCapacity int    `json:"max_capacity" validate:"omitempty,min=1"`
	Semester    string `json:"semester" validate:"required,max=50"`
}

func (nc *NewCourse) Validate(validate *validator.Validate) error {
	nc.Code = cleanCode(nc.Code)
	nc.Title = core.CleanString(nc.Title)
	nc.Description = core.CleanString(nc.Description)
	nc.FacultyID = core.CleanString(nc.FacultyID)
	nc.Department = core.CleanString(nc.Department)
	nc.Semester = core.CleanString(nc.Semester)
	if nc.MaxCapacity == 0 {
		nc.MaxCapacity = DefaultMaxCapacity
	}
	return validate.Struct(nc)
}

// UpdateCourse holds a partial update: nil and empty fields are left untouched.
type UpdateCourse struct {
	Code        string  `json:"code" validate:"omitempty,coursecode"`
	Title       string  `json:"title" validate:"omitempty,min=3,max=200"`
	Description *string `json:"description" validate:"omitempty,max=2000"`
	FacultyID   string  `json:"faculty_id"`
	Department  string  `json:"department" validate:"omitempty,max=100"`
	Credits     *int    `json:"credits" validate:"omitempty,min=1,max=6"`
	MaxCapacity *int    `json:"max_capacity" validate:"omitempty,min=1"`
	Semester    string  `json:"semester" validate:"omitempty,max=50"`
	IsActive    *bool   `json:"is_active"`
}

func (uc *UpdateCourse) Validate(validate *validator.Validate) error {
	uc.Code = cleanCode(uc.Code)
	uc.Title = core.CleanString(uc.Title)
	uc.FacultyID = core.CleanString(uc.FacultyID)
	uc.Department = core.CleanString(uc.Department)
	uc.Semester = core.CleanString(uc.Semester)
	if uc.Description != nil {
		desc := core.CleanString(*uc.Description)
		uc.Description = &desc
	}
	return validate.Struct(uc)
}

func (uc UpdateCourse) apply(c *Course) {
	if uc.Code != "" {
		c.Code = uc.Code
	}
	if uc.Title != "" {
		c.Title = uc.Title
	}
	if uc.Description != nil {
		c.Description = *uc.Description
	}
	if uc.FacultyID != "" {
		c.FacultyID = uc.FacultyID
	}
	if uc.Department != "" {
		c.Department = uc.Department
	}
	if uc.Credits != nil {
		c.Credits = *uc.Credits
	}
	if uc.MaxCapacity != nil {
		c.MaxCapacity = *uc.MaxCapacity
	}
	if uc.Semester != "" {
		c.Semester = uc.Semester
	}
	if uc.IsActive != nil {
		c.IsActive = *uc.IsActive
	}
}

type QueryFilter struct {
	Search     string `query:"search"`
	Department string `query:"department"`
	Semester   string `query:"semester"`
	FacultyID  string `query:"faculty"`
	IsActive   *bool  `query:"is_active"`
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search)
	qf.Department = core.CleanString(qf.Department)
	qf.Semester = core.CleanString(qf.Semester)
	qf.FacultyID = core.CleanString(qf.FacultyID)
}

func cleanCode(code string) string {
	return strings.ToUpper(core.CleanString(code))
}
