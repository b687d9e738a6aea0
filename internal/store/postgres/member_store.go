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
)

const memberColumns = `member_id, organisation_id, user_id, first_name, last_name, email, created_at`

// MemberStore implements store.MemberStore using PostgreSQL.
type MemberStore struct {
	pool *pgxpool.Pool
}

// NewMemberStore creates a new PostgreSQL-backed member store.
func NewMemberStore(pool *pgxpool.Pool) *MemberStore {
	return &MemberStore{pool: pool}
}

// Create creates a member, checking the linked user's organisation reference.
func (s *MemberStore) Create(ctx context.Context, member *models.Member) error {
	return pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		if member.UserID != nil {
			var orgID *uuid.UUID
			err := tx.QueryRow(ctx,
				`SELECT organisation_id FROM users WHERE user_id = $1 FOR UPDATE`, *member.UserID,
			).Scan(&orgID)
			if err != nil {
				if errors.Is(err, pgx.ErrNoRows) {
					return store.ErrUserNotFound
				}
				return fmt.Errorf("failed to lock user: %w", mapPostgresError(err))
			}
			if orgID != nil && *orgID != member.OrganisationID {
				return models.ErrOrganisationMismatch
			}
		}

		err := tx.QueryRow(ctx, `
			INSERT INTO members (member_id, organisation_id, user_id, first_name, last_name, email)
			VALUES ($1, $2, $3, $4, $5, $6)
			RETURNING created_at
		`,
			member.ID,
			member.OrganisationID,
			member.UserID,
			member.FirstName,
			member.LastName,
			member.Email,
		).Scan(&member.CreatedAt)
		if err != nil {
			if isUniqueViolation(err) {
				return store.ErrMemberAlreadyExists
			}
			if isForeignKeyViolation(err) {
				return store.ErrOrganisationNotFound
			}
			return fmt.Errorf("failed to create member: %w", mapPostgresError(err))
		}

		return nil
	})
}

// Get retrieves a member by ID.
func (s *MemberStore) Get(ctx context.Context, id uuid.UUID) (*models.Member, error) {
	return scanMember(s.pool.QueryRow(ctx, `SELECT `+memberColumns+` FROM members WHERE member_id = $1`, id))
}

// GetByUser returns the member linked to a user.
func (s *MemberStore) GetByUser(ctx context.Context, userID uuid.UUID) (*models.Member, error) {
	return getMemberByUser(ctx, s.pool, userID)
}

func getMemberByUser(ctx context.Context, db queryRower, userID uuid.UUID) (*models.Member, error) {
	return scanMember(db.QueryRow(ctx, `SELECT `+memberColumns+` FROM members WHERE user_id = $1`, userID))
}

func scanMember(row pgx.Row) (*models.Member, error) {
	var m models.Member
	err := row.Scan(&m.ID, &m.OrganisationID, &m.UserID, &m.FirstName, &m.LastName, &m.Email, &m.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, store.ErrMemberNotFound
		}
		return nil, fmt.Errorf("failed to read member: %w", mapPostgresError(err))
	}
	return &m, nil
}
