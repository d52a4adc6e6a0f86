package audit

import (
	"context"
	"testing"

	apiContext "boardly/internal/api/context"
	"boardly/internal/platform/auth"
	"boardly/internal/platform/database/dbtest"
)

func TestLogger_LogAndList(t *testing.T) {
	db := dbtest.New(t)
	dbtest.SeedOrg(t, db, "org_1", "acme")
	l := NewLogger(db)

	ctx := context.WithValue(context.Background(), apiContext.Claims, &auth.Claims{UserID: "user_1", OrganizationID: "org_1"})
	ctx = context.WithValue(ctx, apiContext.Request, &apiContext.RequestInfo{IP: "10.0.0.1", UserAgent: "curl/8"})

	l.Log(ctx, "webhook.created", "webhook", "wh_1", map[string]interface{}{"url": "https://example.com"})
	l.Log(context.Background(), "webhook.deleted", "webhook", "wh_2", nil)
	l.Wait()

	logs, err := l.List(context.Background(), "org_1", 10)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(logs) != 1 {
		t.Fatalf("List() returned %d entries, want 1", len(logs))
	}
	got := logs[0]
	if got.UserID != "user_1" || got.IPAddress != "10.0.0.1" || got.UserAgent != "curl/8" {
		t.Errorf("entry = %+v", got)
	}
	if got.Metadata["url"] != "https://example.com" {
		t.Errorf("metadata = %v", got.Metadata)
	}
}
