// Package changelog manages changelog entries and feeds the content-bearing
// widgets.
package changelog

import (
	"context"
	"errors"
	"time"

	"boardly/internal/platform/models"
	"boardly/internal/platform/repositories"
)

var ErrAlreadyPublished = errors.New("changelog entry already published")

type EventDispatcher interface {
	Dispatch(ctx context.Context, orgID string, event models.EventName, payload interface{})
}

type Service struct {
	repo   *repositories.ChangelogRepository
	events EventDispatcher
	now    func() time.Time
}

func NewService(repo *repositories.ChangelogRepository, events EventDispatcher) *Service {
	return &Service{repo: repo, events: events, now: time.Now}
}

// Create stores a draft entry. Drafts are invisible to widgets until
// published.
func (s *Service) Create(ctx context.Context, e *models.ChangelogEntry) (*models.ChangelogEntry, error) {
	e.PublishedAt = nil
	if err := s.repo.Create(ctx, e); err != nil {
		return nil, err
	}
	return e, nil
}

func (s *Service) Get(ctx context.Context, orgID, id string) (*models.ChangelogEntry, error) {
	return s.repo.GetByID(ctx, orgID, id)
}

func (s *Service) Publish(ctx context.Context, orgID, id string) (*models.ChangelogEntry, error) {
	entry, err := s.repo.GetByID(ctx, orgID, id)
	if err != nil {
		return nil, err
	}
	if entry.Published() {
		return nil, ErrAlreadyPublished
	}

	if err := s.repo.MarkPublished(ctx, orgID, id, s.now().Unix()); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			// published concurrently
			return nil, ErrAlreadyPublished
		}
		return nil, err
	}

	entry, err = s.repo.GetByID(ctx, orgID, id)
	if err != nil {
		return nil, err
	}

	s.events.Dispatch(ctx, orgID, models.EventChangelogPublished, entry)
	return entry, nil
}

// Latest returns the newest published entry, or nil when there is none.
func (s *Service) Latest(ctx context.Context, orgID string) (*models.ChangelogEntry, error) {
	entry, err := s.repo.Latest(ctx, orgID)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, nil
	}
	return entry, err
}

func (s *Service) ListPublished(ctx context.Context, orgID string, limit int) ([]*models.ChangelogEntry, error) {
	if limit <= 0 || limit > 50 {
		limit = 10
	}
	return s.repo.ListPublished(ctx, orgID, limit)
}
