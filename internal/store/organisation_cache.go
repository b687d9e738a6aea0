package store

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/ledenhub/ledenhub/internal/models"
	"github.com/rs/zerolog/log"
)

// OrganisationCache is a read-through cache in front of an OrganisationStore.
//
// Entries live for at most ttl, so a block or billing restriction recorded by another
// process is observed within one ttl. Writes made through the cache evict the entry
// immediately.
type OrganisationCache struct {
	OrganisationStore

	ttl time.Duration
	now func() time.Time

	mu     sync.RWMutex
	byID   map[uuid.UUID]*cachedOrganisation
	bySlug map[string]*cachedOrganisation
}

type cachedOrganisation struct {
	org       models.Organisation
	expiresAt time.Time
}

// NewOrganisationCache wraps next. A ttl of zero or less disables caching and returns
// next unchanged.
func NewOrganisationCache(next OrganisationStore, ttl time.Duration) OrganisationStore {
	if ttl <= 0 {
		return next
	}
	return &OrganisationCache{
		OrganisationStore: next,
		ttl:               ttl,
		now:               time.Now,
		byID:              make(map[uuid.UUID]*cachedOrganisation),
		bySlug:            make(map[string]*cachedOrganisation),
	}
}

// Get retrieves an organisation by ID.
func (c *OrganisationCache) Get(ctx context.Context, id uuid.UUID) (*models.Organisation, error) {
	c.mu.RLock()
	cached, ok := c.byID[id]
	c.mu.RUnlock()

	if ok && c.now().Before(cached.expiresAt) {
		return cached.clone(), nil
	}

	org, err := c.OrganisationStore.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	c.put(org)
	return org, nil
}

// GetBySlug retrieves an organisation by slug.
func (c *OrganisationCache) GetBySlug(ctx context.Context, slug string) (*models.Organisation, error) {
	c.mu.RLock()
	cached, ok := c.bySlug[slug]
	c.mu.RUnlock()

	if ok && c.now().Before(cached.expiresAt) {
		log.Debug().Str("slug", slug).Msg("Organisation cache hit")
		return cached.clone(), nil
	}

	org, err := c.OrganisationStore.GetBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	c.put(org)
	return org, nil
}

// Update updates the organisation and evicts it.
func (c *OrganisationCache) Update(ctx context.Context, org *models.Organisation) error {
	defer c.evict(org.ID)
	return c.OrganisationStore.Update(ctx, org)
}

// SetStatus updates the lifecycle status and evicts the organisation.
func (c *OrganisationCache) SetStatus(ctx context.Context, id uuid.UUID, status models.LifecycleStatus) (*models.Organisation, error) {
	defer c.evict(id)
	return c.OrganisationStore.SetStatus(ctx, id, status)
}

// SetBilling updates the billing status and evicts the organisation.
func (c *OrganisationCache) SetBilling(ctx context.Context, id uuid.UUID, status models.BillingStatus, note *string) (*models.Organisation, error) {
	defer c.evict(id)
	return c.OrganisationStore.SetBilling(ctx, id, status, note)
}

func (e *cachedOrganisation) clone() *models.Organisation {
	org := e.org
	if e.org.BillingNote != nil {
		note := *e.org.BillingNote
		org.BillingNote = &note
	}
	return &org
}

func (c *OrganisationCache) put(org *models.Organisation) {
	entry := &cachedOrganisation{org: *org, expiresAt: c.now().Add(c.ttl)}

	c.mu.Lock()
	defer c.mu.Unlock()

	// a renamed slug must not keep resolving to this organisation
	if old, ok := c.byID[org.ID]; ok && old.org.Slug != org.Slug {
		delete(c.bySlug, old.org.Slug)
	}
	c.byID[org.ID] = entry
	c.bySlug[org.Slug] = entry
}

func (c *OrganisationCache) evict(id uuid.UUID) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if old, ok := c.byID[id]; ok {
		delete(c.bySlug, old.org.Slug)
		delete(c.byID, id)
	}
}
