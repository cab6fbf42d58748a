package attendance

import (
	"context"
	"time"

	"github.com/trezcool/campus/core"
)

type (
	Repository interface {
		// UpsertRecords saves every Record, replacing any existing one for the same student, course and day.
		UpsertRecords(ctx context.Context, records []Record) (int, error)
		// QueryRecords returns the requested page, latest day first, plus the total count.
		QueryRecords(ctx context.Context, filter *QueryFilter, day time.Time, page core.Pagination) ([]Record, int, error)
		// CountRecords counts the records of courseIDs; no IDs counts everything.
		CountRecords(ctx context.Context, courseIDs []string) (int, error)
		CountByStatus(ctx context.Context) ([]StatusCount, error)
	}

	ServiceInterface interface {
		Mark(ctx context.Context, markedBy string, ma MarkAttendance) (int, error)
		Query(ctx context.Context, filter *QueryFilter, page core.Pagination) ([]Record, int, error)
		Count(ctx context.Context, courseIDs []string) (int, error)
		CountByStatus(ctx context.Context) ([]StatusCount, error)
	}

	Service struct {
		repo Repository
	}
)

var _ ServiceInterface = (*Service)(nil)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Mark records a validated roll call and returns the number of saved records.
// Marking the same day again overwrites the previous marks.
func (svc *Service) Mark(ctx context.Context, markedBy string, ma MarkAttendance) (int, error) {
	day, err := core.ParseDate(ma.Date)
	if err != nil {
		return 0, core.NewValidationError(nil, core.FieldError{Field: "date", Error: err.Error()})
	}

	now := time.Now().UTC()
	records := make([]Record, 0, len(ma.Records))
	for _, m := range ma.Records {
		records = append(records, Record{
			StudentID: m.StudentID,
			CourseID:  ma.CourseID,
			Date:      day,
			Status:    m.Status,
			MarkedBy:  markedBy,
			Note:      m.Note,
			CreatedAt: now,
			UpdatedAt: now,
		})
	}
	return svc.repo.UpsertRecords(ctx, records)
}

func (svc *Service) Query(ctx context.Context, filter *QueryFilter, page core.Pagination) ([]Record, int, error) {
	var day time.Time
	if filter != nil && filter.Date != "" {
		d, err := core.ParseDate(filter.Date)
		if err != nil {
			return nil, 0, core.NewValidationError(nil, core.FieldError{Field: "date", Error: "date must be formatted as YYYY-MM-DD"})
		}
		day = d
	}
	return svc.repo.QueryRecords(ctx, filter, day, page)
}

func (svc *Service) Count(ctx context.Context, courseIDs []string) (int, error) {
	return svc.repo.CountRecords(ctx, courseIDs)
}

func (svc *Service) CountByStatus(ctx context.Context) ([]StatusCount, error) {
	return svc.repo.CountByStatus(ctx)
}
