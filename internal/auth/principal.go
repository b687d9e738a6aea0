package auth

import (
	"context"

	"github.com/google/uuid"
	"github.com/ledenhub/ledenhub/internal/models"
)

// Principal is the authenticated caller attached to the request context.
type Principal struct {
	UserID uuid.UUID
	Email  string
	Roles  models.Roles

	// OrganisationID is the effective tenant: the linked member's organisation when
	// one exists, else the user's direct reference. Nil for users without a tenant.
	OrganisationID *uuid.UUID
}

// NewPrincipal builds the principal for a loaded user.
func NewPrincipal(u *models.User) *Principal {
	p := &Principal{
		UserID: u.ID,
		Email:  u.Email,
		Roles:  u.Roles,
	}
	if id, ok := u.EffectiveOrganisationID(); ok {
		p.OrganisationID = &id
	}
	return p
}

// IsPlatformAdmin reports whether the principal holds platform_admin.
func (p *Principal) IsPlatformAdmin() bool {
	return p != nil && p.Roles.Has(models.RolePlatformAdmin)
}

type contextKey int

const (
	principalContextKey contextKey = iota
)

// WithPrincipal returns a copy of ctx carrying p.
func WithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, principalContextKey, p)
}

// PrincipalFromContext extracts the authenticated principal from the request context.
// Returns nil if no principal is present (unauthenticated request).
func PrincipalFromContext(ctx context.Context) *Principal {
	principal, _ := ctx.Value(principalContextKey).(*Principal)
	return principal
}
