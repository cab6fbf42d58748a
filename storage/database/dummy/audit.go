package dummydb

import (
	"context"

	"github.com/google/uuid"

	"github.com/trezcool/campus/core"
	"github.com/trezcool/campus/core/audit"
)

type auditRepository struct {
	db *auditTable
}

var _ audit.Repository = (*auditRepository)(nil) // interface compliance check

func NewAuditRepository(db *DB) audit.Repository {
	return &auditRepository{db: db.audit}
}

func (repo *auditRepository) CreateEntry(_ context.Context, e audit.Entry) (audit.Entry, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	e.ID = uuid.New().String()
	repo.db.table = append(repo.db.table, e)
	return e, nil
}

// QueryEntries walks the append-only log backwards, so results come out newest first.
func (repo *auditRepository) QueryEntries(_ context.Context, filter *audit.QueryFilter, page core.Pagination) ([]audit.Entry, int, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	entries := make([]audit.Entry, 0)
	for i := len(repo.db.table) - 1; i >= 0; i-- {
		e := repo.db.table[i]
		if filter != nil {
			if filter.ActorID != "" && e.ActorID != filter.ActorID {
				continue
			}
			if filter.Action != "" && e.Action != filter.Action {
				continue
			}
			if filter.Resource != "" && e.Resource != filter.Resource {
				continue
			}
			if filter.ResourceID != "" && e.ResourceID != filter.ResourceID {
				continue
			}
		}
		entries = append(entries, e)
	}

	start, end := page.Window(len(entries))
	return entries[start:end], len(entries), nil
}
