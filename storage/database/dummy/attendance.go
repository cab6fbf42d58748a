package dummydb

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/trezcool/campus/core"
	"github.com/trezcool/campus/core/attendance"
)

var attendanceStatuses = []string{attendance.StatusPresent, attendance.StatusAbsent, attendance.StatusLate}

type attendanceRepository struct {
	db *attendanceTable
}

var _ attendance.Repository = (*attendanceRepository)(nil) // interface compliance check

func NewAttendanceRepository(db *DB) attendance.Repository {
	return &attendanceRepository{db: db.attendance}
}

func (repo *attendanceRepository) UpsertRecords(_ context.Context, records []attendance.Record) (int, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	for _, rec := range records {
		rec := rec
		var existing *attendance.Record
		for _, r := range repo.db.table {
			if r.StudentID == rec.StudentID && r.CourseID == rec.CourseID && r.Date.Equal(rec.Date) {
				existing = r
				break
			}
		}
		if existing != nil {
			existing.Status = rec.Status
			existing.MarkedBy = rec.MarkedBy
			existing.Note = rec.Note
			existing.UpdatedAt = rec.UpdatedAt
			continue
		}
		rec.ID = uuid.New().String()
		repo.db.table[rec.ID] = &rec
	}
	return len(records), nil
}

func (repo *attendanceRepository) QueryRecords(
	_ context.Context,
	filter *attendance.QueryFilter,
	day time.Time,
	page core.Pagination,
) ([]attendance.Record, int, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	records := make([]attendance.Record, 0)
	for _, r := range repo.db.table {
		if filter != nil {
			if filter.CourseID != "" && r.CourseID != filter.CourseID {
				continue
			}
			if filter.CourseIDs != nil && !containsStr(filter.CourseIDs, r.CourseID) {
				continue
			}
			if filter.StudentID != "" && r.StudentID != filter.StudentID {
				continue
			}
		}
		if !day.IsZero() && !r.Date.Equal(day) {
			continue
		}
		records = append(records, *r)
	}
	sort.Slice(records, func(i, j int) bool {
		if !records[i].Date.Equal(records[j].Date) {
			return records[i].Date.After(records[j].Date)
		}
		return records[i].StudentID < records[j].StudentID
	})

	start, end := page.Window(len(records))
	return records[start:end], len(records), nil
}

func (repo *attendanceRepository) CountRecords(_ context.Context, courseIDs []string) (int, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	var cnt int
	for _, r := range repo.db.table {
		if len(courseIDs) == 0 || containsStr(courseIDs, r.CourseID) {
			cnt++
		}
	}
	return cnt, nil
}

func (repo *attendanceRepository) CountByStatus(_ context.Context) ([]attendance.StatusCount, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	counts := make(map[string]int)
	for _, r := range repo.db.table {
		counts[r.Status]++
	}
	stats := make([]attendance.StatusCount, 0, len(counts))
	for _, status := range attendanceStatuses {
		if cnt, ok := counts[status]; ok {
			stats = append(stats, attendance.StatusCount{Status: status, Count: cnt})
		}
	}
	return stats, nil
}
