package audit

import (
	"context"
	"database/sql"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/sourcegraph/conc"

	apiContext "boardly/internal/api/context"
	"boardly/internal/platform/auth"
)

type AuditLog struct {
	ID           string                 `json:"id"`
	OrgID        string                 `json:"org_id"`
	UserID       string                 `json:"user_id"`
	Action       string                 `json:"action"`
	ResourceType string                 `json:"resource_type"`
	ResourceID   string                 `json:"resource_id"`
	Metadata     map[string]interface{} `json:"metadata"`
	IPAddress    string                 `json:"ip_address"`
	UserAgent    string                 `json:"user_agent"`
	CreatedAt    int64                  `json:"created_at"`
}

type Logger struct {
	db      *sql.DB
	pending conc.WaitGroup
}

func NewLogger(db *sql.DB) *Logger {
	return &Logger{db: db}
}

// Log records an action taken by the caller in ctx. The insert happens in
// the background; failures are logged and otherwise ignored.
func (l *Logger) Log(ctx context.Context, action, resourceType, resourceID string, metadata map[string]interface{}) {
	var orgID, userID string

	if claims, ok := ctx.Value(apiContext.Claims).(*auth.Claims); ok {
		orgID = claims.OrganizationID
		userID = claims.UserID
	}
	if tenant, ok := ctx.Value(apiContext.Tenant).(*apiContext.TenantContext); ok && orgID == "" {
		orgID = tenant.OrgID
	}

	ip, ua := "unknown", "unknown"
	if info, ok := ctx.Value(apiContext.Request).(*apiContext.RequestInfo); ok {
		ip = info.IP
		ua = info.UserAgent
	}

	entry := &AuditLog{
		ID:           "audit_" + uuid.New().String(),
		OrgID:        orgID,
		UserID:       userID,
		Action:       action,
		ResourceType: resourceType,
		ResourceID:   resourceID,
		Metadata:     metadata,
		IPAddress:    ip,
		UserAgent:    ua,
		CreatedAt:    time.Now().Unix(),
	}

	l.pending.Go(func() {
		l.insert(entry)
	})
}

func (l *Logger) insert(entry *AuditLog) {
	metaJSON, err := json.Marshal(entry.Metadata)
	if err != nil {
		metaJSON = []byte("{}")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err = l.db.ExecContext(ctx, `
		INSERT INTO audit_logs (id, org_id, user_id, action, resource_type, resource_id, metadata, ip_address, user_agent, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, entry.ID, entry.OrgID, entry.UserID, entry.Action, entry.ResourceType, entry.ResourceID, string(metaJSON), entry.IPAddress, entry.UserAgent, entry.CreatedAt)
	if err != nil {
		log.Error().Err(err).Str("action", entry.Action).Str("org_id", entry.OrgID).Msg("failed to write audit log")
	}
}

// Wait blocks until queued audit writes finish.
func (l *Logger) Wait() {
	l.pending.Wait()
}

func (l *Logger) List(ctx context.Context, orgID string, limit int) ([]*AuditLog, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	rows, err := l.db.QueryContext(ctx, `
		SELECT id, org_id, user_id, action, resource_type, resource_id, metadata, ip_address, user_agent, created_at
		FROM audit_logs WHERE org_id = ? ORDER BY created_at DESC LIMIT ?
	`, orgID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	logs := make([]*AuditLog, 0)
	for rows.Next() {
		var (
			a    AuditLog
			meta sql.NullString
		)
		if err := rows.Scan(&a.ID, &a.OrgID, &a.UserID, &a.Action, &a.ResourceType, &a.ResourceID, &meta, &a.IPAddress, &a.UserAgent, &a.CreatedAt); err != nil {
			return nil, err
		}
		if meta.Valid && meta.String != "" {
			_ = json.Unmarshal([]byte(meta.String), &a.Metadata)
		}
		logs = append(logs, &a)
	}
	return logs, rows.Err()
}
