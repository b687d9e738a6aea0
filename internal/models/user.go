package models

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrOrganisationMismatch is returned when a user's direct organisation reference and the
// organisation of its member record disagree.
var ErrOrganisationMismatch = errors.New("user organisation does not match member organisation")

// Member is a membership record within an organisation. A member may be linked to a
// user account for portal self-service.
type Member struct {
	ID             uuid.UUID // UUIDv7
	OrganisationID uuid.UUID
	UserID         *uuid.UUID
	FirstName      string
	LastName       string
	Email          string
	CreatedAt      time.Time
}

// User is an authenticatable account.
type User struct {
	ID             uuid.UUID // UUIDv7
	Email          string
	Name           string
	OrganisationID *uuid.UUID // direct reference, nil for platform staff
	Roles          Roles
	Member         *Member // linked member record, if any

	CreatedAt time.Time
	UpdatedAt time.Time
}

// EffectiveOrganisationID returns the organisation the user is scoped to: the
// member's organisation when a member exists, else the direct reference.
func (u *User) EffectiveOrganisationID() (uuid.UUID, bool) {
	if u.Member != nil {
		return u.Member.OrganisationID, true
	}
	if u.OrganisationID != nil {
		return *u.OrganisationID, true
	}
	return uuid.Nil, false
}

// Validate enforces that the direct organisation reference agrees with the member.
func (u *User) Validate() error {
	if u.Member != nil && u.OrganisationID != nil && *u.OrganisationID != u.Member.OrganisationID {
		return ErrOrganisationMismatch
	}
	return nil
}

// IsPlatformAdmin reports whether the user operates the platform itself.
func (u *User) IsPlatformAdmin() bool {
	return u.Roles.Has(RolePlatformAdmin)
}
