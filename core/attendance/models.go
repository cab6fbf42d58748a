package attendance

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/campus/core"
)

// Statuses
const (
	StatusPresent = "present"
	StatusAbsent  = "absent"
	StatusLate    = "late"
)

// Record is a student's attendance to one course on one day.
type Record struct {
	ID        string    `json:"id"`
	StudentID string    `json:"student_id"`
	CourseID  string    `json:"course_id"`
	Date      time.Time `json:"date"` // UTC midnight
	Status    string    `json:"status"`
	MarkedBy  string    `json:"marked_by"`
	Note      string    `json:"note,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type StudentMark struct {
	StudentID string `json:"student_id" validate:"required"`
	Status    string `json:"status" validate:"required,oneof=present absent late"`
	Note      string `json:"note" validate:"omitempty,max=500"`
}

// MarkAttendance is a roll call: one mark per student for a course on a given day.
type MarkAttendance struct {
	CourseID string        `json:"course_id" validate:"required"`
	Date     string        `json:"date" validate:"required,dateonly"`
	Records  []StudentMark `json:"records" validate:"required,min=1,dive"`
}

func (ma *MarkAttendance) Validate(validate *validator.Validate) error {
	ma.CourseID = core.CleanString(ma.CourseID)
	ma.Date = core.CleanString(ma.Date)
	for i := range ma.Records {
		ma.Records[i].StudentID = core.CleanString(ma.Records[i].StudentID)
		ma.Records[i].Status = core.CleanString(ma.Records[i].Status, true /* lower */)
		ma.Records[i].Note = core.CleanString(ma.Records[i].Note)
	}
	return validate.Struct(ma)
}

type QueryFilter struct {
	CourseID  string   `query:"course"`
	CourseIDs []string `query:"-"` // restricts results to these courses when non-nil
	StudentID string   `query:"student"`
	Date      string   `query:"date"`
}

func (qf *QueryFilter) Clean() {
	qf.CourseID = core.CleanString(qf.CourseID)
	qf.StudentID = core.CleanString(qf.StudentID)
	qf.Date = core.CleanString(qf.Date)
}

type StatusCount struct {
	Status string `json:"status"`
	Count  int    `json:"count"`
}
