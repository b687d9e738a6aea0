package commands

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"

	"github.com/ledenhub/ledenhub/internal/models"
	"github.com/ledenhub/ledenhub/internal/store"
)

// seedFile describes organisations and users to create on startup, mostly useful with
// the memory store:
//
//	organisations:
//	  - slug: acme
//	    name: Acme
//	    billing_status: restricted
//	users:
//	  - id: 0199b2c4-7a38-7c4e-9a53-5f0d1c3e2b11
//	    email: beheer@acme.nl
//	    roles: [org_admin]
//	    organisation: acme
type seedFile struct {
	Organisations []seedOrganisation `yaml:"organisations"`
	Users         []seedUser         `yaml:"users"`
}

type seedOrganisation struct {
	Slug          string  `yaml:"slug"`
	Name          string  `yaml:"name"`
	Status        string  `yaml:"status"`
	BillingStatus string  `yaml:"billing_status"`
	BillingNote   *string `yaml:"billing_note"`
}

type seedUser struct {
	ID    string   `yaml:"id"`
	Email string   `yaml:"email"`
	Name  string   `yaml:"name"`
	Roles []string `yaml:"roles"`

	// Organisation is the slug of the user's direct organisation.
	Organisation string      `yaml:"organisation"`
	Member       *seedMember `yaml:"member"`
}

type seedMember struct {
	Organisation string `yaml:"organisation"`
	FirstName    string `yaml:"first_name"`
	LastName     string `yaml:"last_name"`
}

func seedFromFile(ctx context.Context, path string, st *stores) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read seed file: %w", err)
	}
	var seed seedFile
	if err := yaml.Unmarshal(data, &seed); err != nil {
		return fmt.Errorf("failed to parse seed file %s: %w", path, err)
	}
	return applySeed(ctx, &seed, st)
}

// applySeed creates what is missing. Existing records are left as they are, apart from
// roles which are only ever added.
func applySeed(ctx context.Context, seed *seedFile, st *stores) error {
	slugs := make(map[string]uuid.UUID, len(seed.Organisations))

	for _, so := range seed.Organisations {
		org, err := seedOrganisationRecord(ctx, so, st.organisations)
		if err != nil {
			return fmt.Errorf("organisation %q: %w", so.Slug, err)
		}
		slugs[org.Slug] = org.ID
	}

	lookup := func(slug string) (uuid.UUID, error) {
		if id, ok := slugs[slug]; ok {
			return id, nil
		}
		org, err := st.organisations.GetBySlug(ctx, slug)
		if err != nil {
			return uuid.Nil, fmt.Errorf("organisation %q: %w", slug, err)
		}
		slugs[slug] = org.ID
		return org.ID, nil
	}

	for _, su := range seed.Users {
		if err := seedUserRecord(ctx, su, st, lookup); err != nil {
			return fmt.Errorf("user %q: %w", su.Email, err)
		}
	}

	return nil
}

func seedOrganisationRecord(ctx context.Context, so seedOrganisation, orgs store.OrganisationStore) (*models.Organisation, error) {
	existing, err := orgs.GetBySlug(ctx, so.Slug)
	switch {
	case err == nil:
		return existing, nil
	case !errors.Is(err, store.ErrOrganisationNotFound):
		return nil, err
	}

	org := &models.Organisation{
		ID:            uuid.Must(uuid.NewV7()),
		Slug:          so.Slug,
		Name:          so.Name,
		Status:        models.LifecycleActive,
		BillingStatus: models.BillingOK,
		BillingNote:   so.BillingNote,
	}
	if so.Status != "" {
		org.Status = models.LifecycleStatus(so.Status)
	}
	if so.BillingStatus != "" {
		org.BillingStatus = models.BillingStatus(so.BillingStatus)
	}
	if !org.Status.Valid() {
		return nil, fmt.Errorf("unknown status %q", so.Status)
	}
	if !org.BillingStatus.Valid() {
		return nil, fmt.Errorf("unknown billing_status %q", so.BillingStatus)
	}

	if err := orgs.Create(ctx, org); err != nil {
		return nil, err
	}
	log.Debug().Str("slug", org.Slug).Str("org_id", org.ID.String()).Msg("Seeded organisation")
	return org, nil
}

func seedUserRecord(ctx context.Context, su seedUser, st *stores, lookup func(string) (uuid.UUID, error)) error {
	id, err := uuid.Parse(su.ID)
	if err != nil {
		return fmt.Errorf("invalid id: %w", err)
	}
	roles, err := models.ParseRoles(su.Roles)
	if err != nil {
		return err
	}

	_, err = st.users.Get(ctx, id)
	switch {
	case errors.Is(err, store.ErrUserNotFound):
		user := &models.User{ID: id, Email: su.Email, Name: su.Name, Roles: roles}
		if su.Organisation != "" {
			orgID, err := lookup(su.Organisation)
			if err != nil {
				return err
			}
			user.OrganisationID = &orgID
		}
		if err := st.users.Create(ctx, user); err != nil {
			return err
		}
		log.Debug().Str("user_id", id.String()).Strs("roles", roles.Strings()).Msg("Seeded user")
	case err != nil:
		return err
	default:
		for _, role := range roles {
			if err := st.users.AssignRole(ctx, id, role); err != nil {
				return err
			}
		}
	}

	if su.Member == nil {
		return nil
	}

	if _, err := st.members.GetByUser(ctx, id); err == nil {
		return nil
	} else if !errors.Is(err, store.ErrMemberNotFound) {
		return err
	}

	orgID, err := lookup(su.Member.Organisation)
	if err != nil {
		return err
	}
	return st.members.Create(ctx, &models.Member{
		ID:             uuid.Must(uuid.NewV7()),
		OrganisationID: orgID,
		UserID:         &id,
		FirstName:      su.Member.FirstName,
		LastName:       su.Member.LastName,
		Email:          su.Email,
	})
}
