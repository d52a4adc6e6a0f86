package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"boardly/internal/platform/models"
)

// ErrNotFound is returned when a row scoped to the caller's organization
// does not exist.
var ErrNotFound = errors.New("not found")

type OrganizationRepository struct {
	db *sql.DB
}

func NewOrganizationRepository(db *sql.DB) *OrganizationRepository {
	return &OrganizationRepository{db: db}
}

func (r *OrganizationRepository) Create(ctx context.Context, org *models.Organization) error {
	now := time.Now().Unix()
	if org.CreatedAt == 0 {
		org.CreatedAt = now
	}
	org.UpdatedAt = now
	if org.EmbedOrigins == nil {
		org.EmbedOrigins = []string{}
	}

	origins, err := json.Marshal(org.EmbedOrigins)
	if err != nil {
		return err
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO organizations (id, slug, name, embed_origins, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, org.ID, org.Slug, org.Name, string(origins), org.CreatedAt, org.UpdatedAt)
	return err
}

func (r *OrganizationRepository) GetByID(ctx context.Context, id string) (*models.Organization, error) {
	return r.getOne(ctx, `SELECT id, slug, name, embed_origins, created_at, updated_at FROM organizations WHERE id = ?`, id)
}

func (r *OrganizationRepository) GetBySlug(ctx context.Context, slug string) (*models.Organization, error) {
	return r.getOne(ctx, `SELECT id, slug, name, embed_origins, created_at, updated_at FROM organizations WHERE slug = ?`, slug)
}

func (r *OrganizationRepository) getOne(ctx context.Context, query string, arg string) (*models.Organization, error) {
	org := &models.Organization{}
	var origins string
	err := r.db.QueryRowContext(ctx, query, arg).
		Scan(&org.ID, &org.Slug, &org.Name, &origins, &org.CreatedAt, &org.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	if err := json.Unmarshal([]byte(origins), &org.EmbedOrigins); err != nil {
		return nil, fmt.Errorf("organization %s: decode embed_origins: %w", org.ID, err)
	}
	return org, nil
}

// Update saves the organization's editable settings.
func (r *OrganizationRepository) Update(ctx context.Context, org *models.Organization) error {
	org.UpdatedAt = time.Now().Unix()
	if org.EmbedOrigins == nil {
		org.EmbedOrigins = []string{}
	}

	origins, err := json.Marshal(org.EmbedOrigins)
	if err != nil {
		return err
	}

	res, err := r.db.ExecContext(ctx, `UPDATE organizations SET name = ?, embed_origins = ?, updated_at = ? WHERE id = ?`,
		org.Name, string(origins), org.UpdatedAt, org.ID)
	if err != nil {
		return err
	}
	return expectOne(res)
}
