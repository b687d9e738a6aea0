package server

import (
	"time"

	"github.com/google/uuid"

	"github.com/ledenhub/ledenhub/internal/auth"
	"github.com/ledenhub/ledenhub/internal/models"
)

type organisationView struct {
	ID            uuid.UUID `json:"id"`
	Slug          string    `json:"slug"`
	Name          string    `json:"name"`
	Status        string    `json:"status"`
	BillingStatus string    `json:"billing_status"`
	BillingNote   *string   `json:"billing_note"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func newOrganisationView(o *models.Organisation) organisationView {
	return organisationView{
		ID:            o.ID,
		Slug:          o.Slug,
		Name:          o.Name,
		Status:        string(o.Status),
		BillingStatus: string(o.BillingStatus),
		BillingNote:   o.BillingNote,
		CreatedAt:     o.CreatedAt,
		UpdatedAt:     o.UpdatedAt,
	}
}

type principalView struct {
	ID             uuid.UUID         `json:"id"`
	Email          string            `json:"email"`
	Roles          []string          `json:"roles"`
	OrganisationID *uuid.UUID        `json:"organisation_id"`
	Organisation   *organisationView `json:"organisation"`
}

func newPrincipalView(p *auth.Principal, org *models.Organisation) principalView {
	v := principalView{
		ID:             p.UserID,
		Email:          p.Email,
		Roles:          p.Roles.Strings(),
		OrganisationID: p.OrganisationID,
	}
	if v.Roles == nil {
		v.Roles = []string{}
	}
	if org != nil {
		ov := newOrganisationView(org)
		v.Organisation = &ov
	}
	return v
}

type createOrganisationRequest struct {
	Slug string `json:"slug"`
	Name string `json:"name"`
}

type updateOrganisationRequest struct {
	Name string `json:"name"`
}

type billingRequest struct {
	BillingStatus string  `json:"billing_status"`
	BillingNote   *string `json:"billing_note"`
}
