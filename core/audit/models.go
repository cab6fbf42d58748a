package audit

import (
	"strings"
	"time"

	"github.com/trezcool/campus/core"
)

// Actions
const (
	ActionRegister           = "REGISTER"
	ActionLogin              = "LOGIN"
	ActionCreateUser         = "CREATE_USER"
	ActionUpdateUser         = "UPDATE_USER"
	ActionDeactivateUser     = "DEACTIVATE_USER"
	ActionCreateCourse       = "CREATE_COURSE"
	ActionUpdateCourse       = "UPDATE_COURSE"
	ActionDeleteCourse       = "DELETE_COURSE"
	ActionEnrollCourse       = "ENROLL_COURSE"
	ActionDropCourse         = "DROP_COURSE"
	ActionApproveEnrollment  = "APPROVE_ENROLLMENT"
	ActionRejectEnrollment   = "REJECT_ENROLLMENT"
	ActionCreateGrade        = "CREATE_GRADE"
	ActionUpdateGrade        = "UPDATE_GRADE"
	ActionDeleteGrade        = "DELETE_GRADE"
	ActionMarkAttendance     = "MARK_ATTENDANCE"
	ActionCreateAnnouncement = "CREATE_ANNOUNCEMENT"
	ActionUpdateAnnouncement = "UPDATE_ANNOUNCEMENT"
	ActionDeleteAnnouncement = "DELETE_ANNOUNCEMENT"
)

// Resources
const (
	ResourceUser         = "User"
	ResourceCourse       = "Course"
	ResourceEnrollment   = "Enrollment"
	ResourceGrade        = "Grade"
	ResourceAttendance   = "Attendance"
	ResourceAnnouncement = "Announcement"
)

type Metadata map[string]interface{}

// Entry records who did what to which resource.
type Entry struct {
	ID         string    `json:"id"`
	ActorID    string    `json:"actor_id"`
	Action     string    `json:"action"`
	Resource   string    `json:"resource"`
	ResourceID string    `json:"resource_id,omitempty"`
	Metadata   Metadata  `json:"metadata"`
	Timestamp  time.Time `json:"timestamp"` // UTC
}

type QueryFilter struct {
	ActorID    string `query:"actor"`
	Action     string `query:"action"`
	Resource   string `query:"resource"`
	ResourceID string `query:"resource_id"`
}

func (qf *QueryFilter) Clean() {
	qf.ActorID = core.CleanString(qf.ActorID)
	qf.Action = strings.ToUpper(core.CleanString(qf.Action))
	qf.Resource = core.CleanString(qf.Resource)
	qf.ResourceID = core.CleanString(qf.ResourceID)
}
