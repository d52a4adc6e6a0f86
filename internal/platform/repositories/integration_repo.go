package repositories

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"boardly/internal/platform/models"
)

type IntegrationRepository struct {
	db *sql.DB
}

func NewIntegrationRepository(db *sql.DB) *IntegrationRepository {
	return &IntegrationRepository{db: db}
}

// Upsert stores the provider token for the organization, replacing any
// previous connection to the same provider.
func (r *IntegrationRepository) Upsert(ctx context.Context, in *models.Integration) error {
	now := time.Now().Unix()
	if in.ID == "" {
		in.ID = "int_" + uuid.New().String()
	}
	in.CreatedAt = now
	in.UpdatedAt = now

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO integrations (id, org_id, provider, access_token, refresh_token, token_type, expires_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (org_id, provider) DO UPDATE SET
			access_token = excluded.access_token,
			refresh_token = excluded.refresh_token,
			token_type = excluded.token_type,
			expires_at = excluded.expires_at,
			updated_at = excluded.updated_at
	`, in.ID, in.OrgID, in.Provider, in.AccessToken, in.RefreshToken, in.TokenType, in.ExpiresAt, in.CreatedAt, in.UpdatedAt)
	return err
}

func (r *IntegrationRepository) ListByOrg(ctx context.Context, orgID string) ([]*models.Integration, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, org_id, provider, token_type, expires_at, created_at, updated_at
		FROM integrations WHERE org_id = ? ORDER BY provider
	`, orgID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]*models.Integration, 0)
	for rows.Next() {
		var (
			in        models.Integration
			expiresAt sql.NullInt64
		)
		if err := rows.Scan(&in.ID, &in.OrgID, &in.Provider, &in.TokenType, &expiresAt, &in.CreatedAt, &in.UpdatedAt); err != nil {
			return nil, err
		}
		if expiresAt.Valid {
			in.ExpiresAt = &expiresAt.Int64
		}
		out = append(out, &in)
	}
	return out, rows.Err()
}
