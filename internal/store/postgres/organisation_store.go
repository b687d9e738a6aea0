package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/ledenhub/ledenhub/internal/models"
	"github.com/ledenhub/ledenhub/internal/store"
	"github.com/rs/zerolog/log"
)

const organisationColumns = `organisation_id, slug, name, status, billing_status, billing_note, created_at, updated_at`

// OrganisationStore implements store.OrganisationStore using PostgreSQL.
type OrganisationStore struct {
	pool *pgxpool.Pool
}

// NewOrganisationStore creates a new PostgreSQL-backed organisation store.
// It shares the connection pool with other stores.
func NewOrganisationStore(pool *pgxpool.Pool) *OrganisationStore {
	return &OrganisationStore{pool: pool}
}

// Create creates a new organisation in the database.
func (s *OrganisationStore) Create(ctx context.Context, org *models.Organisation) error {
	row := s.pool.QueryRow(ctx, `
		INSERT INTO organisations (organisation_id, slug, name, status, billing_status, billing_note)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at, updated_at
	`,
		org.ID,
		org.Slug,
		org.Name,
		string(org.Status),
		string(org.BillingStatus),
		org.BillingNote,
	)

	if err := row.Scan(&org.CreatedAt, &org.UpdatedAt); err != nil {
		if isUniqueViolation(err) {
			return store.ErrOrganisationAlreadyExists
		}
		return fmt.Errorf("failed to create organisation: %w", mapPostgresError(err))
	}

	log.Debug().
		Str("org_id", org.ID.String()).
		Str("slug", org.Slug).
		Msg("Created organisation")

	return nil
}

// Get retrieves an organisation by ID.
func (s *OrganisationStore) Get(ctx context.Context, id uuid.UUID) (*models.Organisation, error) {
	return s.getOne(ctx, `SELECT `+organisationColumns+` FROM organisations WHERE organisation_id = $1`, id)
}

// GetBySlug retrieves an organisation by slug.
func (s *OrganisationStore) GetBySlug(ctx context.Context, slug string) (*models.Organisation, error) {
	return s.getOne(ctx, `SELECT `+organisationColumns+` FROM organisations WHERE slug = $1`, slug)
}

// Update updates name and slug of an existing organisation.
func (s *OrganisationStore) Update(ctx context.Context, org *models.Organisation) error {
	row := s.pool.QueryRow(ctx, `
		UPDATE organisations SET
			slug = $2,
			name = $3,
			updated_at = now()
		WHERE organisation_id = $1
		RETURNING `+organisationColumns,
		org.ID,
		org.Slug,
		org.Name,
	)

	updated, err := scanOrganisation(row)
	if err != nil {
		if isUniqueViolation(err) {
			return store.ErrOrganisationAlreadyExists
		}
		return err
	}
	*org = *updated

	return nil
}

// List returns all organisations ordered by slug.
func (s *OrganisationStore) List(ctx context.Context) ([]*models.Organisation, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+organisationColumns+` FROM organisations ORDER BY slug`)
	if err != nil {
		return nil, fmt.Errorf("failed to list organisations: %w", mapPostgresError(err))
	}
	defer rows.Close()

	var orgs []*models.Organisation
	for rows.Next() {
		org, err := scanOrganisation(rows)
		if err != nil {
			return nil, err
		}
		orgs = append(orgs, org)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating organisations: %w", err)
	}

	return orgs, nil
}

// SetStatus blocks or activates an organisation.
func (s *OrganisationStore) SetStatus(ctx context.Context, id uuid.UUID, status models.LifecycleStatus) (*models.Organisation, error) {
	org, err := s.getOne(ctx, `
		UPDATE organisations SET status = $2, updated_at = now()
		WHERE organisation_id = $1
		RETURNING `+organisationColumns,
		id, string(status),
	)
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("org_id", id.String()).
		Str("status", string(status)).
		Msg("Changed organisation status")

	return org, nil
}

// SetBilling records the billing status and note.
func (s *OrganisationStore) SetBilling(ctx context.Context, id uuid.UUID, status models.BillingStatus, note *string) (*models.Organisation, error) {
	org, err := s.getOne(ctx, `
		UPDATE organisations SET billing_status = $2, billing_note = $3, updated_at = now()
		WHERE organisation_id = $1
		RETURNING `+organisationColumns,
		id, string(status), note,
	)
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("org_id", id.String()).
		Str("billing_status", string(status)).
		Msg("Changed organisation billing status")

	return org, nil
}

func (s *OrganisationStore) getOne(ctx context.Context, query string, args ...any) (*models.Organisation, error) {
	return scanOrganisation(s.pool.QueryRow(ctx, query, args...))
}

func scanOrganisation(row pgx.Row) (*models.Organisation, error) {
	var (
		org           models.Organisation
		status        string
		billingStatus string
	)
	err := row.Scan(
		&org.ID,
		&org.Slug,
		&org.Name,
		&status,
		&billingStatus,
		&org.BillingNote,
		&org.CreatedAt,
		&org.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, store.ErrOrganisationNotFound
		}
		return nil, fmt.Errorf("failed to read organisation: %w", mapPostgresError(err))
	}

	org.Status = models.LifecycleStatus(status)
	org.BillingStatus = models.BillingStatus(billingStatus)

	return &org, nil
}
