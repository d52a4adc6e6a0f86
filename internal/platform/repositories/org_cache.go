package repositories

import (
	"context"
	"sync"
	"time"

	"boardly/internal/platform/models"
)

type cachedOrg struct {
	org      models.Organization
	cachedAt time.Time
}

// OrganizationCache keeps slug lookups for the public widget routes out of
// the database. Updates made through it invalidate the cached slug; rows
// changed elsewhere are seen once ttl passes.
type OrganizationCache struct {
	repo  *OrganizationRepository
	store sync.Map // map[slug]*cachedOrg
	ttl   time.Duration
	now   func() time.Time
}

func NewOrganizationCache(repo *OrganizationRepository, ttl time.Duration) *OrganizationCache {
	return &OrganizationCache{repo: repo, ttl: ttl, now: time.Now}
}

func (c *OrganizationCache) GetByID(ctx context.Context, id string) (*models.Organization, error) {
	return c.repo.GetByID(ctx, id)
}

// GetBySlug returns a copy of the cached row, loading it on a miss.
// Missing organizations are not cached.
func (c *OrganizationCache) GetBySlug(ctx context.Context, slug string) (*models.Organization, error) {
	if c.ttl > 0 {
		if val, ok := c.store.Load(slug); ok {
			entry := val.(*cachedOrg)
			if c.now().Sub(entry.cachedAt) <= c.ttl {
				return copyOrg(&entry.org), nil
			}
			c.store.Delete(slug)
		}
	}

	org, err := c.repo.GetBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	if c.ttl > 0 {
		c.store.Store(slug, &cachedOrg{org: *copyOrg(org), cachedAt: c.now()})
	}
	return org, nil
}

func (c *OrganizationCache) Update(ctx context.Context, org *models.Organization) error {
	c.store.Delete(org.Slug)
	if err := c.repo.Update(ctx, org); err != nil {
		return err
	}
	c.store.Delete(org.Slug)
	return nil
}

// Invalidate drops slug so the next lookup reads the database.
func (c *OrganizationCache) Invalidate(slug string) {
	c.store.Delete(slug)
}

func copyOrg(org *models.Organization) *models.Organization {
	out := *org
	out.EmbedOrigins = append([]string(nil), org.EmbedOrigins...)
	return &out
}
