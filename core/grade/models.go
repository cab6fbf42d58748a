package grade

import (
	"encoding/json"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/campus/core"
	"github.com/trezcool/campus/core/grading"
)

// Types
const (
	TypeAssignment = "assignment"
	TypeQuiz       = "quiz"
	TypeMidterm    = "midterm"
	TypeFinal      = "final"
	TypeProject    = "project"
)

var AllTypes = []string{TypeAssignment, TypeQuiz, TypeMidterm, TypeFinal, TypeProject}

type Grade struct {
	ID         string    `json:"id"`
	StudentID  string    `json:"student_id"`
	CourseID   string    `json:"course_id"`
	Assignment string    `json:"assignment"`
	Score      float64   `json:"score"`
	MaxScore   float64   `json:"max_score"`
	Type       string    `json:"type"`
	GradedBy   string    `json:"graded_by"`
	GradedAt   time.Time `json:"graded_at"` // UTC
	Comment    string    `json:"comment,omitempty"`
}

// Percentage is the score on a 0-100 scale.
func (g Grade) Percentage() float64 {
	return grading.Percentage(g.Score, g.MaxScore)
}

func (g Grade) Letter() string {
	return grading.Classify(g.Percentage())
}

// MarshalJSON adds the derived percentage and letter to the stored fields.
func (g Grade) MarshalJSON() ([]byte, error) {
	type stored Grade
	return json.Marshal(struct {
		stored
		Percentage float64 `json:"percentage"`
		Letter     string  `json:"letter"`
	}{stored: stored(g), Percentage: g.Percentage(), Letter: g.Letter()})
}

func (g Grade) record(credits int) grading.ScoreRecord {
	return grading.ScoreRecord{CourseID: g.CourseID, Credits: credits, Score: g.Score, MaxScore: g.MaxScore}
}

// NewGrade contains information needed to grade a student's assignment.
type NewGrade struct {
	StudentID  string   `json:"student_id" validate:"required"`
	CourseID   string   `json:"course_id" validate:"required"`
	Assignment string   `json:"assignment" validate:"required,max=200"`
	Score      *float64 `json:"score" validate:"required,min=0"`
	MaxScore   float64  `json:"max_score" validate:"required,min=1"`
	Type       string   `json:"type" validate:"required,gradetype"`
	Comment    string   `json:"comment" validate:"omitempty,max=1000"`
}

func (ng *NewGrade) Validate(validate *validator.Validate) error {
	ng.StudentID = core.CleanString(ng.StudentID)
	ng.CourseID = core.CleanString(ng.CourseID)
	ng.Assignment = core.CleanString(ng.Assignment)
	ng.Type = core.CleanString(ng.Type, true /* lower */)
	ng.Comment = core.CleanString(ng.Comment)

	if err := validate.Struct(ng); err != nil {
		return err
	}
	return checkScore(*ng.Score, ng.MaxScore)
}

// UpdateGrade holds a partial update; the student and course of a Grade never change.
type UpdateGrade struct {
	Assignment string   `json:"assignment" validate:"omitempty,max=200"`
	Score      *float64 `json:"score" validate:"omitempty,min=0"`
	MaxScore   *float64 `json:"max_score" validate:"omitempty,min=1"`
	Type       string   `json:"type" validate:"omitempty,gradetype"`
	Comment    *string  `json:"comment" validate:"omitempty,max=1000"`
}

// Validate checks the update against the Grade it applies to.
func (ug *UpdateGrade) Validate(orig Grade, validate *validator.Validate) error {
	ug.Assignment = core.CleanString(ug.Assignment)
	ug.Type = core.CleanString(ug.Type, true /* lower */)
	if ug.Comment != nil {
		comment := core.CleanString(*ug.Comment)
		ug.Comment = &comment
	}

	if err := validate.Struct(ug); err != nil {
		return err
	}
	g := orig
	ug.apply(&g)
	return checkScore(g.Score, g.MaxScore)
}

func (ug UpdateGrade) apply(g *Grade) {
	if ug.Assignment != "" {
		g.Assignment = ug.Assignment
	}
	if ug.Score != nil {
		g.Score = *ug.Score
	}
	if ug.MaxScore != nil {
		g.MaxScore = *ug.MaxScore
	}
	if ug.Type != "" {
		g.Type = ug.Type
	}
	if ug.Comment != nil {
		g.Comment = *ug.Comment
	}
}

type QueryFilter struct {
	StudentID string   `query:"student"`
	CourseID  string   `query:"course"`
	CourseIDs []string `query:"-"`
}

func (qf *QueryFilter) Clean() {
	qf.StudentID = core.CleanString(qf.StudentID)
	qf.CourseID = core.CleanString(qf.CourseID)
}

// CourseResult is a student's standing in one course.
type CourseResult struct {
	CourseID   string  `json:"course_id"`
	Credits    int     `json:"credits"`
	Percentage float64 `json:"percentage"`
	Letter     string  `json:"letter"`
	Points     float64 `json:"points"`
}

// Report is a student's transcript with its GPA and degree class.
type Report struct {
	Grades  []Grade        `json:"grades"`
	Courses []CourseResult `json:"courses"`
	GPA     float64        `json:"gpa"`
	Class   string         `json:"class"`
}
