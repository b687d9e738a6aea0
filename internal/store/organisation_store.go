package store

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/ledenhub/ledenhub/internal/models"
)

// Sentinel errors for organisation store operations
var (
	ErrOrganisationNotFound      = errors.New("organisation not found")
	ErrOrganisationAlreadyExists = errors.New("organisation already exists")
)

// OrganisationFinder is the read side used by the request pipeline.
type OrganisationFinder interface {
	// Get retrieves an organisation by ID.
	// Returns ErrOrganisationNotFound if the organisation doesn't exist.
	Get(ctx context.Context, id uuid.UUID) (*models.Organisation, error)

	// GetBySlug retrieves an organisation by its subdomain slug.
	// Returns ErrOrganisationNotFound if no organisation uses the slug.
	GetBySlug(ctx context.Context, slug string) (*models.Organisation, error)
}

// OrganisationStore defines the interface for organisation storage operations.
// Organisations are tenants and are never hard-deleted in normal flow.
type OrganisationStore interface {
	OrganisationFinder

	// Create creates a new organisation in the store.
	// Returns ErrOrganisationAlreadyExists if the ID or slug is already taken.
	Create(ctx context.Context, org *models.Organisation) error

	// Update updates name and slug of an existing organisation.
	// Returns ErrOrganisationNotFound if the organisation doesn't exist.
	Update(ctx context.Context, org *models.Organisation) error

	// List returns all organisations ordered by slug.
	List(ctx context.Context) ([]*models.Organisation, error)

	// SetStatus blocks or activates an organisation.
	SetStatus(ctx context.Context, id uuid.UUID, status models.LifecycleStatus) (*models.Organisation, error)

	// SetBilling records the billing status reported by the billing provider.
	SetBilling(ctx context.Context, id uuid.UUID, status models.BillingStatus, note *string) (*models.Organisation, error)
}
