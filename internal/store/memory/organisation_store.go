package memory

import (
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/ledenhub/ledenhub/internal/models"
	"github.com/ledenhub/ledenhub/internal/store"
)

// OrganisationStore implements store.OrganisationStore using in-memory storage.
// This implementation is for development and testing - data is lost on restart.
type OrganisationStore struct {
	mu sync.RWMutex

	organisations map[uuid.UUID]*models.Organisation // id -> Organisation
	slugs         map[string]uuid.UUID               // slug -> id
}

// NewOrganisationStore creates a new in-memory organisation store.
func NewOrganisationStore() *OrganisationStore {
	return &OrganisationStore{
		organisations: make(map[uuid.UUID]*models.Organisation),
		slugs:         make(map[string]uuid.UUID),
	}
}

// Create creates a new organisation in memory.
func (s *OrganisationStore) Create(ctx context.Context, org *models.Organisation) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.organisations[org.ID]; exists {
		return store.ErrOrganisationAlreadyExists
	}
	if _, exists := s.slugs[org.Slug]; exists {
		return store.ErrOrganisationAlreadyExists
	}

	now := time.Now()
	if org.CreatedAt.IsZero() {
		org.CreatedAt = now
	}
	org.UpdatedAt = now

	// Clone to avoid external modifications
	s.organisations[org.ID] = cloneOrganisation(org)
	s.slugs[org.Slug] = org.ID

	return nil
}

// Get retrieves an organisation by ID.
func (s *OrganisationStore) Get(ctx context.Context, id uuid.UUID) (*models.Organisation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	org, exists := s.organisations[id]
	if !exists {
		return nil, store.ErrOrganisationNotFound
	}

	return cloneOrganisation(org), nil
}

// GetBySlug retrieves an organisation by slug.
func (s *OrganisationStore) GetBySlug(ctx context.Context, slug string) (*models.Organisation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, exists := s.slugs[slug]
	if !exists {
		return nil, store.ErrOrganisationNotFound
	}

	return cloneOrganisation(s.organisations[id]), nil
}

// Update updates name and slug of an existing organisation.
func (s *OrganisationStore) Update(ctx context.Context, org *models.Organisation) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, exists := s.organisations[org.ID]
	if !exists {
		return store.ErrOrganisationNotFound
	}
	if owner, taken := s.slugs[org.Slug]; taken && owner != org.ID {
		return store.ErrOrganisationAlreadyExists
	}

	delete(s.slugs, existing.Slug)
	existing.Slug = org.Slug
	existing.Name = org.Name
	existing.UpdatedAt = time.Now()
	s.slugs[org.Slug] = org.ID

	*org = *cloneOrganisation(existing)
	return nil
}

// List returns all organisations ordered by slug.
func (s *OrganisationStore) List(ctx context.Context) ([]*models.Organisation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*models.Organisation, 0, len(s.organisations))
	for _, org := range s.organisations {
		result = append(result, cloneOrganisation(org))
	}
	slices.SortFunc(result, func(a, b *models.Organisation) int {
		return strings.Compare(a.Slug, b.Slug)
	})

	return result, nil
}

// SetStatus blocks or activates an organisation.
func (s *OrganisationStore) SetStatus(ctx context.Context, id uuid.UUID, status models.LifecycleStatus) (*models.Organisation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	org, exists := s.organisations[id]
	if !exists {
		return nil, store.ErrOrganisationNotFound
	}
	org.Status = status
	org.UpdatedAt = time.Now()

	return cloneOrganisation(org), nil
}

// SetBilling records the billing status and note.
func (s *OrganisationStore) SetBilling(ctx context.Context, id uuid.UUID, status models.BillingStatus, note *string) (*models.Organisation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	org, exists := s.organisations[id]
	if !exists {
		return nil, store.ErrOrganisationNotFound
	}
	org.BillingStatus = status
	org.BillingNote = cloneString(note)
	org.UpdatedAt = time.Now()

	return cloneOrganisation(org), nil
}

func cloneOrganisation(org *models.Organisation) *models.Organisation {
	clone := *org
	clone.BillingNote = cloneString(org.BillingNote)
	return &clone
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}
