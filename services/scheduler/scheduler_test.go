package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/campus/tests"
)

type purgerStub struct {
	calledWith time.Time
	n          int
	err        error
}

func (p *purgerStub) PurgeExpired(_ context.Context, now time.Time) (int, error) {
	p.calledWith = now
	return p.n, p.err
}

func TestScheduler_AddJob(t *testing.T) {
	s := New(testutil.NewLogger(), time.Second)

	job := NewAnnouncementPurgeJob(&purgerStub{}, "@hourly", testutil.NewLogger())
	require.NoError(t, s.AddJob(job))
	assert.Error(t, s.AddJob(job), "duplicate job names are rejected")

	bad := NewAnnouncementPurgeJob(&purgerStub{}, "every now and then", testutil.NewLogger())
	s2 := New(testutil.NewLogger(), time.Second)
	assert.Error(t, s2.AddJob(bad), "invalid specs are rejected")
	assert.Empty(t, s2.Jobs())

	assert.Equal(t, []string{"announcement_purge"}, s.Jobs())
}

func TestScheduler_RunNow(t *testing.T) {
	now := time.Date(2026, time.March, 1, 12, 0, 0, 0, time.UTC)
	errBoom := errors.New("boom")

	tests := []struct {
		name    string
		purger  *purgerStub
		wantErr error
	}{
		{name: "nothing to purge", purger: &purgerStub{}},
		{name: "purged", purger: &purgerStub{n: 3}},
		{name: "failure", purger: &purgerStub{err: errBoom}, wantErr: errBoom},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := New(testutil.NewLogger(), time.Second)
			job := NewAnnouncementPurgeJob(tt.purger, "@hourly", testutil.NewLogger())
			job.nowFunc = func() time.Time { return now }
			require.NoError(t, s.AddJob(job))

			err := s.RunNow(job.Name())
			assert.Equal(t, tt.wantErr, err)
			assert.Equal(t, now, tt.purger.calledWith)

			res, ok := s.LastRun(job.Name())
			require.True(t, ok)
			if tt.wantErr != nil {
				assert.Equal(t, tt.wantErr.Error(), res.Error)
			} else {
				assert.Empty(t, res.Error)
			}
		})
	}

	s := New(testutil.NewLogger(), 0)
	assert.Error(t, s.RunNow("missing"))
}

func TestScheduler_StartStop(t *testing.T) {
	s := New(testutil.NewLogger(), time.Second)
	require.NoError(t, s.AddJob(NewAnnouncementPurgeJob(&purgerStub{}, "@every 1h", testutil.NewLogger())))
	s.Start()
	s.Stop()
}
