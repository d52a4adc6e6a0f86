package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"boardly/internal/platform/models"
)

type WebhookRepository struct {
	db *sql.DB
}

func NewWebhookRepository(db *sql.DB) *WebhookRepository {
	return &WebhookRepository{db: db}
}

const subscriptionColumns = `id, org_id, url, secret, events, is_active, created_at, updated_at`

func (r *WebhookRepository) Create(ctx context.Context, sub *models.Subscription) error {
	sub.ID = "wh_" + uuid.New().String()
	sub.CreatedAt = time.Now().Unix()
	sub.UpdatedAt = sub.CreatedAt
	sub.IsActive = true

	eventsJSON, err := json.Marshal(sub.Events)
	if err != nil {
		return err
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO webhooks (id, org_id, url, secret, events, is_active, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, sub.ID, sub.OrgID, sub.URL, sub.Secret, string(eventsJSON), sub.IsActive, sub.CreatedAt, sub.UpdatedAt)
	return err
}

func (r *WebhookRepository) GetByID(ctx context.Context, orgID, id string) (*models.Subscription, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+subscriptionColumns+` FROM webhooks WHERE org_id = ? AND id = ?`, orgID, id)
	sub, err := scanSubscription(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return sub, err
}

func (r *WebhookRepository) ListByOrg(ctx context.Context, orgID string) ([]*models.Subscription, error) {
	return r.list(ctx, `SELECT `+subscriptionColumns+` FROM webhooks WHERE org_id = ? ORDER BY created_at DESC`, orgID)
}

// ListActiveByOrg returns every active subscription of the organization.
// Event matching is left to the caller.
func (r *WebhookRepository) ListActiveByOrg(ctx context.Context, orgID string) ([]*models.Subscription, error) {
	return r.list(ctx, `SELECT `+subscriptionColumns+` FROM webhooks WHERE org_id = ? AND is_active = 1`, orgID)
}

func (r *WebhookRepository) list(ctx context.Context, query string, orgID string) ([]*models.Subscription, error) {
	rows, err := r.db.QueryContext(ctx, query, orgID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var subs []*models.Subscription
	for rows.Next() {
		sub, err := scanSubscription(rows)
		if err != nil {
			return nil, err
		}
		subs = append(subs, sub)
	}
	return subs, rows.Err()
}

func (r *WebhookRepository) SetActive(ctx context.Context, orgID, id string, active bool) error {
	res, err := r.db.ExecContext(ctx, `UPDATE webhooks SET is_active = ?, updated_at = ? WHERE org_id = ? AND id = ?`,
		active, time.Now().Unix(), orgID, id)
	if err != nil {
		return err
	}
	return expectOne(res)
}

func (r *WebhookRepository) Delete(ctx context.Context, orgID, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM webhooks WHERE org_id = ? AND id = ?`, orgID, id)
	if err != nil {
		return err
	}
	return expectOne(res)
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanSubscription(s scanner) (*models.Subscription, error) {
	var (
		sub       models.Subscription
		secret    sql.NullString
		eventsStr string
	)
	if err := s.Scan(&sub.ID, &sub.OrgID, &sub.URL, &secret, &eventsStr, &sub.IsActive, &sub.CreatedAt, &sub.UpdatedAt); err != nil {
		return nil, err
	}

	if secret.Valid && secret.String != "" {
		sub.Secret = &secret.String
	}
	if err := json.Unmarshal([]byte(eventsStr), &sub.Events); err != nil {
		return nil, fmt.Errorf("webhook %s: decode events: %w", sub.ID, err)
	}
	return &sub, nil
}

func expectOne(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
