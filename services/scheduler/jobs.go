package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/trezcool/campus/core"
)

type announcementPurger interface {
	PurgeExpired(ctx context.Context, now time.Time) (int, error)
}

// AnnouncementPurgeJob deletes announcements past their expiry date.
type AnnouncementPurgeJob struct {
	svc      announcementPurger
	schedule string
	logger   core.Logger
	nowFunc  func() time.Time // mockable
}

func NewAnnouncementPurgeJob(svc announcementPurger, schedule string, logger core.Logger) *AnnouncementPurgeJob {
	return &AnnouncementPurgeJob{svc: svc, schedule: schedule, logger: logger, nowFunc: time.Now}
}

func (j *AnnouncementPurgeJob) Name() string     { return "announcement_purge" }
func (j *AnnouncementPurgeJob) Schedule() string { return j.schedule }

func (j *AnnouncementPurgeJob) Run(ctx context.Context) error {
	n, err := j.svc.PurgeExpired(ctx, j.nowFunc().UTC())
	if err != nil {
		return err
	}
	if n > 0 {
		j.logger.Info(fmt.Sprintf("purged %d expired announcement(s)", n))
	}
	return nil
}
