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

// UserStore implements store.UserStore using PostgreSQL.
type UserStore struct {
	pool *pgxpool.Pool
}

// NewUserStore creates a new PostgreSQL-backed user store.
func NewUserStore(pool *pgxpool.Pool) *UserStore {
	return &UserStore{pool: pool}
}

// Create creates a new user together with its roles.
func (s *UserStore) Create(ctx context.Context, user *models.User) error {
	if err := user.Validate(); err != nil {
		return err
	}

	return pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx, `
			INSERT INTO users (user_id, email, name, organisation_id)
			VALUES ($1, $2, $3, $4)
			RETURNING created_at, updated_at
		`, user.ID, user.Email, user.Name, user.OrganisationID).Scan(&user.CreatedAt, &user.UpdatedAt)
		if err != nil {
			if isUniqueViolation(err) {
				return store.ErrUserAlreadyExists
			}
			if isForeignKeyViolation(err) {
				return store.ErrOrganisationNotFound
			}
			return fmt.Errorf("failed to create user: %w", mapPostgresError(err))
		}

		for _, role := range user.Roles {
			if err := insertRole(ctx, tx, user.ID, role); err != nil {
				return err
			}
		}

		log.Debug().
			Str("user_id", user.ID.String()).
			Strs("roles", user.Roles.Strings()).
			Msg("Created user")

		return nil
	})
}

// Get retrieves a user with roles and linked member.
func (s *UserStore) Get(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var u models.User
	err := s.pool.QueryRow(ctx, `
		SELECT user_id, email, name, organisation_id, created_at, updated_at
		FROM users
		WHERE user_id = $1
	`, id).Scan(&u.ID, &u.Email, &u.Name, &u.OrganisationID, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, store.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", mapPostgresError(err))
	}

	rows, err := s.pool.Query(ctx, `SELECT role FROM user_roles WHERE user_id = $1 ORDER BY assigned_at, role`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get user roles: %w", mapPostgresError(err))
	}
	names, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("failed to read user roles: %w", err)
	}
	if u.Roles, err = models.ParseRoles(names); err != nil {
		return nil, err
	}

	member, err := getMemberByUser(ctx, s.pool, id)
	switch {
	case err == nil:
		u.Member = member
	case !errors.Is(err, store.ErrMemberNotFound):
		return nil, err
	}

	return &u, nil
}

// Update updates email, name and organisation reference.
func (s *UserStore) Update(ctx context.Context, user *models.User) error {
	return pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		// same user row lock MemberStore.Create takes, so linking and
		// re-pointing the organisation serialize
		var locked int
		err := tx.QueryRow(ctx, `SELECT 1 FROM users WHERE user_id = $1 FOR UPDATE`, user.ID).Scan(&locked)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return store.ErrUserNotFound
			}
			return fmt.Errorf("failed to lock user: %w", mapPostgresError(err))
		}

		member, err := getMemberByUser(ctx, tx, user.ID)
		if err != nil && !errors.Is(err, store.ErrMemberNotFound) {
			return err
		}
		candidate := *user
		candidate.Member = member
		if err := candidate.Validate(); err != nil {
			return err
		}

		err = tx.QueryRow(ctx, `
			UPDATE users SET email = $2, name = $3, organisation_id = $4, updated_at = now()
			WHERE user_id = $1
			RETURNING updated_at
		`, user.ID, user.Email, user.Name, user.OrganisationID).Scan(&user.UpdatedAt)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return store.ErrUserNotFound
			}
			if isUniqueViolation(err) {
				return store.ErrUserAlreadyExists
			}
			return fmt.Errorf("failed to update user: %w", mapPostgresError(err))
		}
		user.Member = member

		return nil
	})
}

// AssignRole adds a role to the user.
func (s *UserStore) AssignRole(ctx context.Context, id uuid.UUID, role models.Role) error {
	return insertRole(ctx, s.pool, id, role)
}

// queryRower is satisfied by both *pgxpool.Pool and pgx.Tx.
type queryRower interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func insertRole(ctx context.Context, db queryRower, userID uuid.UUID, role models.Role) error {
	var inserted bool
	err := db.QueryRow(ctx, `
		INSERT INTO user_roles (user_id, role) VALUES ($1, $2)
		ON CONFLICT (user_id, role) DO NOTHING
		RETURNING true
	`, userID, string(role)).Scan(&inserted)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		if isForeignKeyViolation(err) {
			return store.ErrUserNotFound
		}
		return fmt.Errorf("failed to assign role: %w", mapPostgresError(err))
	}
	return nil
}
