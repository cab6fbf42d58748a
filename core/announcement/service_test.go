package announcement_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/campus/core"
	"github.com/trezcool/campus/core/announcement"
	"github.com/trezcool/campus/storage/database/dummy"
	"github.com/trezcool/campus/tests"
)

func TestNewAnnouncement_Validate(t *testing.T) {
	validate, _ := testutil.NewValidator()
	past := time.Now().Add(-time.Hour)

	na := announcement.NewAnnouncement{Title: "Exams", Body: "Exams start on Monday."}
	require.NoError(t, na.Validate(validate))
	assert.Equal(t, announcement.TargetAll, na.TargetRole)

	na = announcement.NewAnnouncement{Title: "Exams", Body: "Exams start on Monday.", TargetRole: "parents"}
	assert.Error(t, na.Validate(validate))

	na = announcement.NewAnnouncement{Title: "Exams", Body: "Exams start on Monday.", ExpiresAt: &past}
	assert.Equal(
		t,
		core.NewValidationError(nil, core.FieldError{Field: "expires_at", Error: "expiry date must be in the future"}),
		na.Validate(validate),
	)
}

func TestService(t *testing.T) {
	ctx := context.Background()
	repo := dummydb.NewAnnouncementRepository(dummydb.Open())
	svc := announcement.NewService(repo)

	now := time.Now().UTC()
	tomorrow := now.Add(24 * time.Hour)
	publish := func(title, target string, createdAt time.Time, expiresAt *time.Time) announcement.Announcement {
		a, err := repo.CreateAnnouncement(ctx, announcement.Announcement{
			Title: title, Body: "Lorem ipsum dolor", AuthorID: "admin", TargetRole: target,
			ExpiresAt: expiresAt, CreatedAt: createdAt, UpdatedAt: createdAt,
		})
		require.NoError(t, err)
		return a
	}

	expired := now.Add(-time.Minute)
	everyone := publish("Welcome", announcement.TargetAll, now.Add(-3*time.Hour), nil)
	publish("Exams", announcement.TargetStudent, now.Add(-2*time.Hour), &tomorrow)
	publish("Staff meeting", announcement.TargetFaculty, now.Add(-time.Hour), nil)
	publish("Old news", announcement.TargetAll, now.Add(-48*time.Hour), &expired)

	tests := []struct {
		role       string
		wantTitles []string
	}{
		{role: "student", wantTitles: []string{"Exams", "Welcome"}},
		{role: "faculty", wantTitles: []string{"Staff meeting", "Welcome"}},
		{role: "admin", wantTitles: []string{"Staff meeting", "Exams", "Welcome"}},
	}
	for _, tt := range tests {
		t.Run(tt.role, func(t *testing.T) {
			anns, total, err := svc.ListForRole(ctx, tt.role, core.Pagination{})
			require.NoError(t, err)
			assert.Equal(t, len(tt.wantTitles), total)
			titles := make([]string, 0, len(anns))
			for _, a := range anns {
				titles = append(titles, a.Title)
			}
			assert.Equal(t, tt.wantTitles, titles)
		})
	}

	t.Run("update", func(t *testing.T) {
		updated, err := svc.Update(ctx, everyone.ID, announcement.UpdateAnnouncement{Title: "Welcome back", ExpiresAt: &tomorrow})
		require.NoError(t, err)
		assert.Equal(t, "Welcome back", updated.Title)
		require.NotNil(t, updated.ExpiresAt)

		updated, err = svc.Update(ctx, everyone.ID, announcement.UpdateAnnouncement{ClearExpiry: true})
		require.NoError(t, err)
		assert.Nil(t, updated.ExpiresAt)

		_, err = svc.Update(ctx, "nope", announcement.UpdateAnnouncement{})
		assert.Equal(t, announcement.ErrNotFound, err)
	})

	t.Run("purge", func(t *testing.T) {
		n, err := svc.PurgeExpired(ctx, now)
		require.NoError(t, err)
		assert.Equal(t, 1, n)

		n, err = svc.PurgeExpired(ctx, tomorrow.Add(time.Second))
		require.NoError(t, err)
		assert.Equal(t, 1, n)
	})

	t.Run("delete", func(t *testing.T) {
		require.NoError(t, svc.Delete(ctx, everyone.ID))
		assert.Equal(t, announcement.ErrNotFound, svc.Delete(ctx, everyone.ID))
	})
}
