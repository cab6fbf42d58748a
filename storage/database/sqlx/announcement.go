package sqlxrepos

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/campus/core"
	"github.com/trezcool/campus/core/announcement"
)

const announcementColumns = "id, title, body, author_id, target_role, expires_at, created_at, updated_at"

type announcementRow struct {
	ID         string    `db:"id"`
	Title      string    `db:"title"`
	Body       string    `db:"body"`
	AuthorID   string    `db:"author_id"`
	TargetRole string    `db:"target_role"`
	ExpiresAt  null.Time `db:"expires_at"`
	CreatedAt  time.Time `db:"created_at"`
	UpdatedAt  time.Time `db:"updated_at"`
}

func toAnnouncementRow(a announcement.Announcement) announcementRow {
	row := announcementRow{
		ID:         a.ID,
		Title:      a.Title,
		Body:       a.Body,
		AuthorID:   a.AuthorID,
		TargetRole: a.TargetRole,
		CreatedAt:  a.CreatedAt.UTC(),
		UpdatedAt:  a.UpdatedAt.UTC(),
	}
	if a.ExpiresAt != nil {
		row.ExpiresAt = null.TimeFrom(a.ExpiresAt.UTC())
	}
	return row
}

func (r announcementRow) announcement() announcement.Announcement {
	a := announcement.Announcement{
		ID:         r.ID,
		Title:      r.Title,
		Body:       r.Body,
		AuthorID:   r.AuthorID,
		TargetRole: r.TargetRole,
		CreatedAt:  r.CreatedAt.UTC(),
		UpdatedAt:  r.UpdatedAt.UTC(),
	}
	if r.ExpiresAt.Valid {
		exp := r.ExpiresAt.Time.UTC()
		a.ExpiresAt = &exp
	}
	return a
}

type announcementRepository struct {
	db sqlx.ExtContext
}

var _ announcement.Repository = (*announcementRepository)(nil) // interface compliance check

func NewAnnouncementRepository(db sqlx.ExtContext) announcement.Repository {
	return &announcementRepository{db: db}
}

func (repo *announcementRepository) CreateAnnouncement(ctx context.Context, a announcement.Announcement) (announcement.Announcement, error) {
	a.ID = uuid.New().String()
	q := `INSERT INTO announcement (` + announcementColumns + `)
		VALUES (:id, :title, :body, :author_id, :target_role, :expires_at, :created_at, :updated_at)`
	if _, err := sqlx.NamedExecContext(ctx, repo.db, q, toAnnouncementRow(a)); err != nil {
		return announcement.Announcement{}, errors.Wrap(err, "inserting announcement")
	}
	return a, nil
}

func (repo *announcementRepository) GetAnnouncement(ctx context.Context, id string) (announcement.Announcement, error) {
	if _, err := uuid.Parse(id); err != nil {
		return announcement.Announcement{}, announcement.ErrNotFound
	}
	var row announcementRow
	q := repo.db.Rebind("SELECT " + announcementColumns + " FROM announcement WHERE id = ?")
	if err := sqlx.GetContext(ctx, repo.db, &row, q, id); err != nil {
		if err == sql.ErrNoRows {
			return announcement.Announcement{}, announcement.ErrNotFound
		}
		return announcement.Announcement{}, errors.Wrap(err, "finding announcement")
	}
	return row.announcement(), nil
}

func (repo *announcementRepository) UpdateAnnouncement(ctx context.Context, a announcement.Announcement) (announcement.Announcement, error) {
	q := `UPDATE announcement SET title = :title, body = :body, target_role = :target_role, expires_at = :expires_at,
		updated_at = :updated_at
		WHERE id = :id`
	res, err := sqlx.NamedExecContext(ctx, repo.db, q, toAnnouncementRow(a))
	if err != nil {
		return announcement.Announcement{}, errors.Wrap(err, "updating announcement")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return announcement.Announcement{}, announcement.ErrNotFound
	}
	return a, nil
}

func (repo *announcementRepository) DeleteAnnouncement(ctx context.Context, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return announcement.ErrNotFound
	}
	res, err := repo.db.ExecContext(ctx, repo.db.Rebind("DELETE FROM announcement WHERE id = ?"), id)
	if err != nil {
		return errors.Wrap(err, "deleting announcement")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return announcement.ErrNotFound
	}
	return nil
}

func (repo *announcementRepository) QueryActive(
	ctx context.Context,
	targets []string,
	now time.Time,
	page core.Pagination,
) ([]announcement.Announcement, int, error) {
	var w where
	w.add("(expires_at IS NULL OR expires_at > ?)", now.UTC())
	if len(targets) > 0 {
		if err := w.in("target_role", targets); err != nil {
			return nil, 0, errors.Wrap(err, "querying announcements")
		}
	}

	var rows []announcementRow
	total, err := selectPage(ctx, repo.db, &rows, "announcement", announcementColumns, "created_at DESC", &w, page)
	if err != nil {
		return nil, 0, errors.Wrap(err, "querying announcements")
	}
	anns := make([]announcement.Announcement, 0, len(rows))
	for _, r := range rows {
		anns = append(anns, r.announcement())
	}
	return anns, total, nil
}

func (repo *announcementRepository) DeleteExpired(ctx context.Context, now time.Time) (int, error) {
	q := repo.db.Rebind("DELETE FROM announcement WHERE expires_at IS NOT NULL AND expires_at <= ?")
	res, err := repo.db.ExecContext(ctx, q, now.UTC())
	if err != nil {
		return 0, errors.Wrap(err, "purging expired announcements")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, errors.Wrap(err, "purging expired announcements")
	}
	return int(n), nil
}
