package changelog

import (
	"context"
	"errors"
	"testing"
	"time"

	"boardly/internal/platform/database/dbtest"
	"boardly/internal/platform/models"
	"boardly/internal/platform/repositories"
)

type countingDispatcher struct {
	events []models.EventName
	last   interface{}
}

func (c *countingDispatcher) Dispatch(ctx context.Context, orgID string, event models.EventName, payload interface{}) {
	c.events = append(c.events, event)
	c.last = payload
}

func TestService_PublishAndLatest(t *testing.T) {
	db := dbtest.New(t)
	dbtest.SeedOrg(t, db, "org_1", "acme")

	events := &countingDispatcher{}
	svc := NewService(repositories.NewChangelogRepository(db), events)
	clock := time.Unix(1_700_000_000, 0)
	svc.now = func() time.Time { return clock }
	ctx := context.Background()

	latest, err := svc.Latest(ctx, "org_1")
	if err != nil || latest != nil {
		t.Fatalf("Latest() on empty changelog = %v, %v", latest, err)
	}

	first, err := svc.Create(ctx, &models.ChangelogEntry{OrgID: "org_1", Title: "Dark mode"})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if latest, _ := svc.Latest(ctx, "org_1"); latest != nil {
		t.Errorf("draft visible through Latest(): %v", latest)
	}

	published, err := svc.Publish(ctx, "org_1", first.ID)
	if err != nil {
		t.Fatalf("Publish() error = %v", err)
	}
	if !published.Published() || *published.PublishedAt != clock.Unix() {
		t.Errorf("PublishedAt = %v", published.PublishedAt)
	}
	if _, err := svc.Publish(ctx, "org_1", first.ID); !errors.Is(err, ErrAlreadyPublished) {
		t.Errorf("second Publish() error = %v, want ErrAlreadyPublished", err)
	}
	if _, err := svc.Publish(ctx, "org_2", first.ID); !errors.Is(err, repositories.ErrNotFound) {
		t.Errorf("cross-org Publish() error = %v, want ErrNotFound", err)
	}

	second, _ := svc.Create(ctx, &models.ChangelogEntry{OrgID: "org_1", Title: "SSO"})
	clock = clock.Add(time.Hour)
	if _, err := svc.Publish(ctx, "org_1", second.ID); err != nil {
		t.Fatalf("Publish() error = %v", err)
	}

	latest, err = svc.Latest(ctx, "org_1")
	if err != nil {
		t.Fatalf("Latest() error = %v", err)
	}
	if latest.ID != second.ID {
		t.Errorf("Latest() = %s, want %s", latest.ID, second.ID)
	}

	if len(events.events) != 2 || events.events[0] != models.EventChangelogPublished {
		t.Errorf("events = %v", events.events)
	}
	if e, ok := events.last.(*models.ChangelogEntry); !ok || e.ID != second.ID {
		t.Errorf("last payload = %#v", events.last)
	}

	list, err := svc.ListPublished(ctx, "org_1", 0)
	if err != nil || len(list) != 2 {
		t.Errorf("ListPublished() = %d entries, %v", len(list), err)
	}
}
