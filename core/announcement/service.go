package announcement

import (
	"context"
	"time"

	"github.com/trezcool/campus/core"
)

var (
	// errors
	ErrNotFound = core.NewNotFoundError("announcement not found")
)

type (
	Repository interface {
		CreateAnnouncement(ctx context.Context, a Announcement) (Announcement, error)
		GetAnnouncement(ctx context.Context, id string) (Announcement, error)
		UpdateAnnouncement(ctx context.Context, a Announcement) (Announcement, error)
		DeleteAnnouncement(ctx context.Context, id string) error
		// QueryActive returns the page of announcements targeted to any of targets that are
		// not expired at now, newest first, plus the total count. No targets means all.
		QueryActive(ctx context.Context, targets []string, now time.Time, page core.Pagination) ([]Announcement, int, error)
		// DeleteExpired removes announcements expired at now and returns how many were removed.
		DeleteExpired(ctx context.Context, now time.Time) (int, error)
	}

	ServiceInterface interface {
		Create(ctx context.Context, authorID string, na NewAnnouncement) (Announcement, error)
		GetByID(ctx context.Context, id string) (Announcement, error)
		Update(ctx context.Context, id string, ua UpdateAnnouncement) (Announcement, error)
		Delete(ctx context.Context, id string) error
		ListForRole(ctx context.Context, role string, page core.Pagination) ([]Announcement, int, error)
		PurgeExpired(ctx context.Context, now time.Time) (int, error)
	}

	Service struct {
		repo Repository
	}
)

var _ ServiceInterface = (*Service)(nil)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (svc *Service) Create(ctx context.Context, authorID string, na NewAnnouncement) (Announcement, error) {
	now := time.Now().UTC()
	a := Announcement{
		Title:      na.Title,
		Body:       na.Body,
		AuthorID:   authorID,
		TargetRole: na.TargetRole,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if na.ExpiresAt != nil {
		exp := na.ExpiresAt.UTC()
		a.ExpiresAt = &exp
	}
	return svc.repo.CreateAnnouncement(ctx, a)
}

func (svc *Service) GetByID(ctx context.Context, id string) (Announcement, error) {
	return svc.repo.GetAnnouncement(ctx, id)
}

func (svc *Service) Update(ctx context.Context, id string, ua UpdateAnnouncement) (Announcement, error) {
	a, err := svc.repo.GetAnnouncement(ctx, id)
	if err != nil {
		return Announcement{}, err
	}
	ua.apply(&a)
	a.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateAnnouncement(ctx, a)
}

func (svc *Service) Delete(ctx context.Context, id string) error {
	return svc.repo.DeleteAnnouncement(ctx, id)
}

// ListForRole returns the live announcements a role sees, newest first.
// Admins see every live announcement whatever its target.
func (svc *Service) ListForRole(ctx context.Context, role string, page core.Pagination) ([]Announcement, int, error) {
	var targets []string
	if role != "admin" {
		targets = []string{TargetAll, role}
	}
	return svc.repo.QueryActive(ctx, targets, time.Now().UTC(), page)
}

func (svc *Service) PurgeExpired(ctx context.Context, now time.Time) (int, error) {
	return svc.repo.DeleteExpired(ctx, now.UTC())
}
