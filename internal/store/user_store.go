package store

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/ledenhub/ledenhub/internal/models"
)

// Errors
var (
	ErrUserNotFound        = errors.New("user not found")
	ErrUserAlreadyExists   = errors.New("user already exists")
	ErrMemberNotFound      = errors.New("member not found")
	ErrMemberAlreadyExists = errors.New("member already exists")
)

// UserFinder loads a user together with its linked member record.
type UserFinder interface {
	Get(ctx context.Context, id uuid.UUID) (*models.User, error)
}

// UserStore manages user accounts.
//
// Create and Update reject users whose direct organisation reference disagrees with
// the organisation of their linked member (models.ErrOrganisationMismatch).
type UserStore interface {
	UserFinder

	// Create creates a new user.
	Create(ctx context.Context, user *models.User) error

	// Update updates email, name and organisation reference.
	Update(ctx context.Context, user *models.User) error

	// AssignRole adds a role to the user. Assigning a held role is a no-op.
	AssignRole(ctx context.Context, id uuid.UUID, role models.Role) error
}

// MemberStore manages member records.
type MemberStore interface {
	// Create creates a member. When the member links a user, that user's direct
	// organisation reference must agree (models.ErrOrganisationMismatch).
	Create(ctx context.Context, member *models.Member) error

	Get(ctx context.Context, id uuid.UUID) (*models.Member, error)

	// GetByUser returns the member linked to a user, or ErrMemberNotFound.
	GetByUser(ctx context.Context, userID uuid.UUID) (*models.Member, error)
}
