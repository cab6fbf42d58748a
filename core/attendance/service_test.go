package attendance_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/campus/core"
	"github.com/trezcool/campus/core/attendance"
	"github.com/trezcool/campus/storage/database/dummy"
	"github.com/trezcool/campus/tests"
)

func TestMarkAttendance_Validate(t *testing.T) {
	validate, _ := testutil.NewValidator()

	tests := []struct {
		name    string
		ma      attendance.MarkAttendance
		wantErr bool
	}{
		{name: "no records", ma: attendance.MarkAttendance{CourseID: "c", Date: "2026-10-01"}, wantErr: true},
		{name: "bad date", ma: attendance.MarkAttendance{CourseID: "c", Date: "01/10/2026", Records: []attendance.StudentMark{{StudentID: "s", Status: "present"}}}, wantErr: true},
		{name: "bad status", ma: attendance.MarkAttendance{CourseID: "c", Date: "2026-10-01", Records: []attendance.StudentMark{{StudentID: "s", Status: "sick"}}}, wantErr: true},
		{name: "valid", ma: attendance.MarkAttendance{CourseID: "c", Date: "2026-10-01", Records: []attendance.StudentMark{{StudentID: " s ", Status: " LATE"}}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.ma.Validate(validate)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "s", tt.ma.Records[0].StudentID)
			assert.Equal(t, attendance.StatusLate, tt.ma.Records[0].Status)
		})
	}
}

func TestService(t *testing.T) {
	ctx := context.Background()
	svc := attendance.NewService(dummydb.NewAttendanceRepository(dummydb.Open()))

	saved, err := svc.Mark(ctx, "prof", attendance.MarkAttendance{
		CourseID: "algo",
		Date:     "2026-10-01",
		Records: []attendance.StudentMark{
			{StudentID: "hero", Status: attendance.StatusPresent},
			{StudentID: "sidekick", Status: attendance.StatusAbsent},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, saved)

	// same day again overwrites
	saved, err = svc.Mark(ctx, "prof", attendance.MarkAttendance{
		CourseID: "algo",
		Date:     "2026-10-01",
		Records:  []attendance.StudentMark{{StudentID: "sidekick", Status: attendance.StatusLate, Note: "bus"}},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, saved)

	_, err = svc.Mark(ctx, "prof", attendance.MarkAttendance{
		CourseID: "calc",
		Date:     "2026-10-02",
		Records:  []attendance.StudentMark{{StudentID: "hero", Status: attendance.StatusAbsent}},
	})
	require.NoError(t, err)

	t.Run("query by day", func(t *testing.T) {
		records, total, err := svc.Query(ctx, &attendance.QueryFilter{Date: "2026-10-01"}, core.Pagination{})
		require.NoError(t, err)
		assert.Equal(t, 2, total)
		if assert.Len(t, records, 2) {
			assert.Equal(t, "sidekick", records[1].StudentID)
			assert.Equal(t, attendance.StatusLate, records[1].Status)
			assert.Equal(t, "bus", records[1].Note)
		}
	})

	t.Run("query scoped to courses", func(t *testing.T) {
		_, total, err := svc.Query(ctx, &attendance.QueryFilter{CourseIDs: []string{"calc"}}, core.Pagination{})
		require.NoError(t, err)
		assert.Equal(t, 1, total)

		_, total, err = svc.Query(ctx, &attendance.QueryFilter{CourseIDs: []string{}}, core.Pagination{})
		require.NoError(t, err)
		assert.Equal(t, 0, total)
	})

	t.Run("query bad day", func(t *testing.T) {
		_, _, err := svc.Query(ctx, &attendance.QueryFilter{Date: "yesterday"}, core.Pagination{})
		assert.IsType(t, &core.ValidationError{}, err)
	})

	t.Run("counts", func(t *testing.T) {
		cnt, err := svc.Count(ctx, []string{"algo"})
		require.NoError(t, err)
		assert.Equal(t, 2, cnt)

		byStatus, err := svc.CountByStatus(ctx)
		require.NoError(t, err)
		assert.Equal(t, []attendance.StatusCount{
			{Status: attendance.StatusPresent, Count: 1},
			{Status: attendance.StatusAbsent, Count: 1},
			{Status: attendance.StatusLate, Count: 1},
		}, byStatus)
	})
}
