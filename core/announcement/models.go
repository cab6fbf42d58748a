package announcement

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/campus/core"
)

// Targets
const (
	TargetAll     = "all"
	TargetStudent = "student"
	TargetFaculty = "faculty"
)

type Announcement struct {
	ID         string     `json:"id"`
	Title      string     `json:"title"`
	Body       string     `json:"body"`
	AuthorID   string     `json:"author_id"`
	TargetRole string     `json:"target_role"`
	ExpiresAt  *time.Time `json:"expires_at"` // UTC
	CreatedAt  time.Time  `json:"created_at"` // UTC
	UpdatedAt  time.Time  `json:"updated_at"` // UTC
}

// IsExpired reports whether the announcement is no longer shown at t.
func (a Announcement) IsExpired(t time.Time) bool {
	return a.ExpiresAt != nil && !a.ExpiresAt.After(t)
}

// NewAnnouncement contains information needed to publish an Announcement.
type NewAnnouncement struct {
	Title      string     `json:"title" validate:"required,min=3,max=200"`
	Body       string     `json:"body" validate:"required,min=10,max=5000"`
	TargetRole string     `json:"target_role" validate:"omitempty,oneof=all student faculty"`
	ExpiresAt  *time.Time `json:"expires_at"`
}

func (na *NewAnnouncement) Validate(validate *validator.Validate) error {
	na.Title = core.CleanString(na.Title)
	na.Body = core.CleanString(na.Body)
	na.TargetRole = core.CleanString(na.TargetRole, true /* lower */)
	if na.TargetRole == "" {
		na.TargetRole = TargetAll
	}
	if err := validate.Struct(na); err != nil {
		return err
	}
	return checkExpiry(na.ExpiresAt)
}

// UpdateAnnouncement holds a partial update. ClearExpiry removes the expiry date.
type UpdateAnnouncement struct {
	Title       string     `json:"title" validate:"omitempty,min=3,max=200"`
	Body        string     `json:"body" validate:"omitempty,min=10,max=5000"`
	TargetRole  string     `json:"target_role" validate:"omitempty,oneof=all student faculty"`
	ExpiresAt   *time.Time `json:"expires_at"`
	ClearExpiry bool       `json:"clear_expiry"`
}

func (ua *UpdateAnnouncement) Validate(validate *validator.Validate) error {
	ua.Title = core.CleanString(ua.Title)
	ua.Body = core.CleanString(ua.Body)
	ua.TargetRole = core.CleanString(ua.TargetRole, true /* lower */)
	if err := validate.Struct(ua); err != nil {
		return err
	}
	return checkExpiry(ua.ExpiresAt)
}

func (ua UpdateAnnouncement) apply(a *Announcement) {
	if ua.Title != "" {
		a.Title = ua.Title
	}
	if ua.Body != "" {
		a.Body = ua.Body
	}
	if ua.TargetRole != "" {
		a.TargetRole = ua.TargetRole
	}
	if ua.ClearExpiry {
		a.ExpiresAt = nil
	} else if ua.ExpiresAt != nil {
		exp := ua.ExpiresAt.UTC()
		a.ExpiresAt = &exp
	}
}

func checkExpiry(expiresAt *time.Time) error {
	if expiresAt != nil && !expiresAt.After(time.Now()) {
		return core.NewValidationError(nil, core.FieldError{Field: "expires_at", Error: "expiry date must be in the future"})
	}
	return nil
}
