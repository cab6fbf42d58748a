package enrollment

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/campus/core"
)

// Statuses
const (
	StatusPending  = "pending"
	StatusApproved = "approved"
	StatusDropped  = "dropped"
)

var AllStatuses = []string{StatusPending, StatusApproved, StatusDropped}

type Enrollment struct {
	ID        string    `json:"id"`
	StudentID string    `json:"student_id"`
	CourseID  string    `json:"course_id"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"` // UTC
	UpdatedAt time.Time `json:"updated_at"` // UTC
}

// UpdateStatus is an admin's decision on an Enrollment.
type UpdateStatus struct {
	Status string `json:"status" validate:"required,oneof=approved dropped"`
}

func (us *UpdateStatus) Validate(validate *validator.Validate) error {
	us.Status = core.CleanString(us.Status, true /* lower */)
	return validate.Struct(us)
}

type QueryFilter struct {
	Statuses  []string `query:"status"`
	CourseID  string   `query:"course"`
	StudentID string   `query:"student"`
}

func (qf *QueryFilter) Clean() {
	qf.CourseID = core.CleanString(qf.CourseID)
	qf.StudentID = core.CleanString(qf.StudentID)
	for i, s := range qf.Statuses {
		qf.Statuses[i] = core.CleanString(s, true /* lower */)
	}
}

type StatusCount struct {
	Status string `json:"status"`
	Count  int    `json:"count"`
}

type CourseCount struct {
	CourseID string `json:"course_id"`
	Count    int    `json:"count"`
}
