package repositories

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"boardly/internal/platform/models"
)

type ChangelogRepository struct {
	db *sql.DB
}

func NewChangelogRepository(db *sql.DB) *ChangelogRepository {
	return &ChangelogRepository{db: db}
}

const changelogColumns = `id, org_id, title, body, link, published_at, created_at, updated_at`

func (r *ChangelogRepository) Create(ctx context.Context, e *models.ChangelogEntry) error {
	e.ID = "chg_" + uuid.New().String()
	e.CreatedAt = time.Now().Unix()
	e.UpdatedAt = e.CreatedAt

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO changelog_entries (id, org_id, title, body, link, published_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, e.ID, e.OrgID, e.Title, e.Body, e.Link, e.PublishedAt, e.CreatedAt, e.UpdatedAt)
	return err
}

func (r *ChangelogRepository) GetByID(ctx context.Context, orgID, id string) (*models.ChangelogEntry, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+changelogColumns+` FROM changelog_entries WHERE org_id = ? AND id = ?`, orgID, id)
	return scanChangelog(row)
}

// MarkPublished stamps the entry; it fails with ErrNotFound when the entry
// does not exist or is already published.
func (r *ChangelogRepository) MarkPublished(ctx context.Context, orgID, id string, at int64) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE changelog_entries SET published_at = ?, updated_at = ?
		WHERE org_id = ? AND id = ? AND published_at IS NULL
	`, at, at, orgID, id)
	if err != nil {
		return err
	}
	return expectOne(res)
}

// Latest returns the most recently published entry, or ErrNotFound.
func (r *ChangelogRepository) Latest(ctx context.Context, orgID string) (*models.ChangelogEntry, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+changelogColumns+` FROM changelog_entries
		WHERE org_id = ? AND published_at IS NOT NULL
		ORDER BY published_at DESC LIMIT 1
	`, orgID)
	return scanChangelog(row)
}

func (r *ChangelogRepository) ListPublished(ctx context.Context, orgID string, limit int) ([]*models.ChangelogEntry, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+changelogColumns+` FROM changelog_entries
		WHERE org_id = ? AND published_at IS NOT NULL
		ORDER BY published_at DESC LIMIT ?
	`, orgID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := make([]*models.ChangelogEntry, 0)
	for rows.Next() {
		e, err := scanChangelog(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func scanChangelog(s scanner) (*models.ChangelogEntry, error) {
	var (
		e           models.ChangelogEntry
		publishedAt sql.NullInt64
	)
	err := s.Scan(&e.ID, &e.OrgID, &e.Title, &e.Body, &e.Link, &publishedAt, &e.CreatedAt, &e.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if publishedAt.Valid {
		e.PublishedAt = &publishedAt.Int64
	}
	return &e, nil
}
