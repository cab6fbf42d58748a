package audit

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/trezcool/campus/core"
)

type (
	Repository interface {
		CreateEntry(ctx context.Context, e Entry) (Entry, error)
		// QueryEntries returns the requested page, newest first, plus the total count.
		QueryEntries(ctx context.Context, filter *QueryFilter, page core.Pagination) ([]Entry, int, error)
	}

	ServiceInterface interface {
		// Record saves e in the background; a failed write is logged, never returned.
		Record(e Entry)
		Query(ctx context.Context, filter *QueryFilter, page core.Pagination) ([]Entry, int, error)
		Recent(ctx context.Context, n int) ([]Entry, error)
		// Wait blocks until every pending Record is saved.
		Wait()
	}

	Service struct {
		repo     Repository
		logger   core.Logger
		blocking bool
		wg       sync.WaitGroup
	}
)

var _ ServiceInterface = (*Service)(nil)

func NewService(repo Repository, logger core.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

// NewServiceMock returns a Service that saves entries before Record returns.
func NewServiceMock(repo Repository, logger core.Logger) *Service {
	return &Service{repo: repo, logger: logger, blocking: true}
}

func (svc *Service) Record(e Entry) {
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now().UTC()
	}
	if e.Metadata == nil {
		e.Metadata = Metadata{}
	}

	if svc.blocking {
		svc.save(e)
		return
	}
	svc.wg.Add(1)
	go func() {
		defer svc.wg.Done()
		svc.save(e)
	}()
}

func (svc *Service) save(e Entry) {
	if _, err := svc.repo.CreateEntry(context.Background(), e); err != nil {
		svc.logger.Error(fmt.Sprintf("recording audit entry %s %s: %v", e.Action, e.Resource, err), err)
	}
}

func (svc *Service) Wait() { svc.wg.Wait() }

func (svc *Service) Query(ctx context.Context, filter *QueryFilter, page core.Pagination) ([]Entry, int, error) {
	return svc.repo.QueryEntries(ctx, filter, page)
}

func (svc *Service) Recent(ctx context.Context, n int) ([]Entry, error) {
	entries, _, err := svc.repo.QueryEntries(ctx, nil, core.Pagination{Page: 1, Limit: n})
	return entries, err
}
