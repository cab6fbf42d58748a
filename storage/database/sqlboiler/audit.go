package boiledrepos

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"
	"github.com/volatiletech/sqlboiler/v4/queries"
	"github.com/volatiletech/strmangle"

	"github.com/trezcool/campus/core"
	"github.com/trezcool/campus/core/audit"
)

const auditColumns = "id, actor_id, action, resource, resource_id, metadata, timestamp"

type auditRow struct {
	ID         string      `boil:"id"`
	ActorID    string      `boil:"actor_id"`
	Action     string      `boil:"action"`
	Resource   string      `boil:"resource"`
	ResourceID null.String `boil:"resource_id"`
	Metadata   null.JSON   `boil:"metadata"`
	Timestamp  time.Time   `boil:"timestamp"`
}

type auditRepository struct {
	exec core.DBExecutor
}

var _ audit.Repository = (*auditRepository)(nil) // interface compliance check

func NewAuditRepository(exec core.DBExecutor) audit.Repository {
	return &auditRepository{exec: exec}
}

func (repo auditRepository) unboil(row auditRow) (audit.Entry, error) {
	e := audit.Entry{
		ID:         row.ID,
		ActorID:    row.ActorID,
		Action:     row.Action,
		Resource:   row.Resource,
		ResourceID: row.ResourceID.String,
		Metadata:   audit.Metadata{},
		Timestamp:  row.Timestamp.UTC(),
	}
	if row.Metadata.Valid {
		if err := row.Metadata.Unmarshal(&e.Metadata); err != nil {
			return audit.Entry{}, errors.Wrap(err, "decoding audit metadata")
		}
	}
	return e, nil
}

func (repo auditRepository) CreateEntry(ctx context.Context, e audit.Entry) (audit.Entry, error) {
	meta, err := json.Marshal(e.Metadata)
	if err != nil {
		return audit.Entry{}, errors.Wrap(err, "encoding audit metadata")
	}
	e.ID = uuid.New().String()
	e.Timestamp = e.Timestamp.UTC()

	q := "INSERT INTO audit_log (" + auditColumns + ") VALUES (" + strmangle.Placeholders(true, 7, 1, 1) + ")"
	_, err = queries.Raw(
		q,
		e.ID, e.ActorID, e.Action, e.Resource, null.NewString(e.ResourceID, e.ResourceID != ""), null.JSONFrom(meta), e.Timestamp,
	).ExecContext(ctx, repo.exec)
	if err != nil {
		return audit.Entry{}, errors.Wrap(err, "inserting audit entry")
	}
	return e, nil
}

func (repo auditRepository) QueryEntries(ctx context.Context, filter *audit.QueryFilter, page core.Pagination) ([]audit.Entry, int, error) {
	var conds []string
	var args []interface{}
	add := func(cond string, v interface{}) {
		args = append(args, v)
		conds = append(conds, cond+" = "+strmangle.Placeholders(true, 1, len(args), 1))
	}

	if filter != nil {
		if filter.ActorID != "" {
			if _, err := uuid.Parse(filter.ActorID); err != nil {
				return []audit.Entry{}, 0, nil
			}
			add("actor_id", filter.ActorID)
		}
		if filter.Action != "" {
			add("action", filter.Action)
		}
		if filter.Resource != "" {
			add("resource", filter.Resource)
		}
		if filter.ResourceID != "" {
			add("resource_id", filter.ResourceID)
		}
	}

	whereClause := ""
	if len(conds) > 0 {
		whereClause = " WHERE " + strings.Join(conds, " AND ")
	}

	var cnt struct {
		Count int `boil:"count"`
	}
	if err := queries.Raw("SELECT COUNT(*) AS count FROM audit_log"+whereClause, args...).Bind(ctx, repo.exec, &cnt); err != nil {
		return nil, 0, errors.Wrap(err, "counting audit entries")
	}

	q := "SELECT " + auditColumns + " FROM audit_log" + whereClause + " ORDER BY timestamp DESC"
	if page.Limit > 0 {
		n := len(args)
		q += " LIMIT " + strmangle.Placeholders(true, 1, n+1, 1) + " OFFSET " + strmangle.Placeholders(true, 1, n+2, 1)
		args = append(args, page.Limit, page.Offset())
	}

	var rows []auditRow
	if err := queries.Raw(q, args...).Bind(ctx, repo.exec, &rows); err != nil {
		return nil, 0, errors.Wrap(err, "querying audit entries")
	}
	entries := make([]audit.Entry, 0, len(rows))
	for _, row := range rows {
		e, err := repo.unboil(row)
		if err != nil {
			return nil, 0, err
		}
		entries = append(entries, e)
	}
	return entries, cnt.Count, nil
}
