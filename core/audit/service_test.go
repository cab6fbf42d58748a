package audit_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/campus/core"
	"github.com/trezcool/campus/core/audit"
	"github.com/trezcool/campus/storage/database/dummy"
	"github.com/trezcool/campus/tests"
)

type brokenRepo struct {
	audit.Repository
}

func (brokenRepo) CreateEntry(context.Context, audit.Entry) (audit.Entry, error) {
	return audit.Entry{}, errors.New("disk full")
}

type recordingLogger struct {
	core.Logger
	mu     sync.Mutex
	errors []string
}

func (l *recordingLogger) Error(msg string, _ ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.errors = append(l.errors, msg)
}

func TestService_Record(t *testing.T) {
	ctx := context.Background()
	svc := audit.NewService(dummydb.NewAuditRepository(dummydb.Open()), testutil.NewLogger())

	for i := 0; i < 20; i++ {
		svc.Record(audit.Entry{
			ActorID:    fmt.Sprintf("user-%d", i%2),
			Action:     audit.ActionLogin,
			Resource:   audit.ResourceUser,
			ResourceID: fmt.Sprintf("user-%d", i%2),
		})
	}
	svc.Record(audit.Entry{ActorID: "user-0", Action: audit.ActionCreateCourse, Resource: audit.ResourceCourse})
	svc.Wait()

	entries, total, err := svc.Query(ctx, nil, core.Pagination{Page: 1, Limit: 5})
	require.NoError(t, err)
	assert.Equal(t, 21, total)
	assert.Len(t, entries, 5)
	for _, e := range entries {
		assert.NotEmpty(t, e.ID)
		assert.False(t, e.Timestamp.IsZero())
		assert.NotNil(t, e.Metadata)
	}

	filter := &audit.QueryFilter{Action: " login "}
	filter.Clean()
	_, total, err = svc.Query(ctx, filter, core.Pagination{})
	require.NoError(t, err)
	assert.Equal(t, 20, total)

	_, total, err = svc.Query(ctx, &audit.QueryFilter{ActorID: "user-0", Resource: audit.ResourceCourse}, core.Pagination{})
	require.NoError(t, err)
	assert.Equal(t, 1, total)

	recent, err := svc.Recent(ctx, 3)
	require.NoError(t, err)
	assert.Len(t, recent, 3)
}

func TestService_RecordFailure(t *testing.T) {
	logger := &recordingLogger{}
	svc := audit.NewServiceMock(brokenRepo{}, logger)

	svc.Record(audit.Entry{Action: audit.ActionDeleteGrade, Resource: audit.ResourceGrade})
	assert.Equal(t, []string{"recording audit entry DELETE_GRADE Grade: disk full"}, logger.errors)
}
