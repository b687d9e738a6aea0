package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/ledenhub/ledenhub/internal/auth"
	ledenhttp "github.com/ledenhub/ledenhub/internal/http"
	"github.com/ledenhub/ledenhub/internal/models"
	"github.com/ledenhub/ledenhub/internal/store"
	"github.com/ledenhub/ledenhub/internal/tenant"
)

const maxBodyBytes = 1 << 20

// slugPattern is a single DNS label.
var slugPattern = regexp.MustCompile(`^[a-z0-9]([a-z0-9-]{0,61}[a-z0-9])?$`)

type handlers struct {
	orgs store.OrganisationStore
}

func (h *handlers) register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/me", h.me)
	mux.HandleFunc("GET /api/organisation", h.getOrganisation)
	mux.HandleFunc("PUT /api/organisation", h.updateOrganisation)

	mux.Handle("GET /api/portal/organisations", requirePlatformAdmin(h.listOrganisations))
	mux.Handle("POST /api/portal/organisations", requirePlatformAdmin(h.createOrganisation))
	mux.Handle("POST /api/portal/organisations/{id}/block", requirePlatformAdmin(h.setStatus(models.LifecycleBlocked)))
	mux.Handle("POST /api/portal/organisations/{id}/activate", requirePlatformAdmin(h.setStatus(models.LifecycleActive)))
	mux.Handle("PUT /api/portal/organisations/{id}/billing", requirePlatformAdmin(h.setBilling))
}

func (h *handlers) me(w http.ResponseWriter, r *http.Request) {
	principal := auth.PrincipalFromContext(r.Context())
	if principal == nil {
		ledenhttp.WriteJSONError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	ledenhttp.WriteJSON(w, http.StatusOK, newPrincipalView(principal, tenant.OrganisationFromContext(r.Context())))
}

func (h *handlers) getOrganisation(w http.ResponseWriter, r *http.Request) {
	org := tenant.OrganisationFromContext(r.Context())
	if org == nil {
		ledenhttp.WriteJSONError(w, http.StatusNotFound, tenant.MessageNotFound)
		return
	}

	ledenhttp.WriteJSON(w, http.StatusOK, newOrganisationView(org))
}

// updateOrganisation lets an org_admin rename their own organisation.
func (h *handlers) updateOrganisation(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	principal := auth.PrincipalFromContext(ctx)
	if principal == nil {
		ledenhttp.WriteJSONError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	org := tenant.OrganisationFromContext(ctx)
	if org == nil {
		ledenhttp.WriteJSONError(w, http.StatusNotFound, tenant.MessageNotFound)
		return
	}

	if !principal.IsPlatformAdmin() && !principal.Roles.Has(models.RoleOrgAdmin) {
		ledenhttp.WriteJSONError(w, http.StatusForbidden, "forbidden")
		return
	}

	var req updateOrganisationRequest
	if err := decode(w, r, &req); err != nil {
		ledenhttp.WriteJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		ledenhttp.WriteJSONError(w, http.StatusBadRequest, "name is required")
		return
	}

	updated := *org
	updated.Name = name
	if err := h.orgs.Update(ctx, &updated); err != nil {
		h.storeError(w, r, err)
		return
	}

	ledenhttp.WriteJSON(w, http.StatusOK, newOrganisationView(&updated))
}

func (h *handlers) listOrganisations(w http.ResponseWriter, r *http.Request) {
	orgs, err := h.orgs.List(r.Context())
	if err != nil {
		h.storeError(w, r, err)
		return
	}

	views := make([]organisationView, 0, len(orgs))
	for _, org := range orgs {
		views = append(views, newOrganisationView(org))
	}
	ledenhttp.WriteJSON(w, http.StatusOK, views)
}

func (h *handlers) createOrganisation(w http.ResponseWriter, r *http.Request) {
	var req createOrganisationRequest
	if err := decode(w, r, &req); err != nil {
		ledenhttp.WriteJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	slug := strings.ToLower(strings.TrimSpace(req.Slug))
	if err := validateSlug(slug); err != nil {
		ledenhttp.WriteJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		ledenhttp.WriteJSONError(w, http.StatusBadRequest, "name is required")
		return
	}

	id, err := uuid.NewV7()
	if err != nil {
		ledenhttp.WriteInternalError(w)
		return
	}

	org := &models.Organisation{
		ID:            id,
		Slug:          slug,
		Name:          name,
		Status:        models.LifecycleActive,
		BillingStatus: models.BillingOK,
	}
	if err := h.orgs.Create(r.Context(), org); err != nil {
		h.storeError(w, r, err)
		return
	}

	log.Ctx(r.Context()).Info().Str("org_id", org.ID.String()).Str("slug", org.Slug).Msg("Organisation created")
	ledenhttp.WriteJSON(w, http.StatusCreated, newOrganisationView(org))
}

func (h *handlers) setStatus(status models.LifecycleStatus) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r)
		if !ok {
			return
		}

		org, err := h.orgs.SetStatus(r.Context(), id, status)
		if err != nil {
			h.storeError(w, r, err)
			return
		}

		ledenhttp.WriteJSON(w, http.StatusOK, newOrganisationView(org))
	}
}

// setBilling records a billing status reported by the payment provider integration.
func (h *handlers) setBilling(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	var req billingRequest
	if err := decode(w, r, &req); err != nil {
		ledenhttp.WriteJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	status := models.BillingStatus(req.BillingStatus)
	if !status.Valid() {
		ledenhttp.WriteJSONError(w, http.StatusBadRequest, fmt.Sprintf("unknown billing_status %q", req.BillingStatus))
		return
	}

	org, err := h.orgs.SetBilling(r.Context(), id, status, req.BillingNote)
	if err != nil {
		h.storeError(w, r, err)
		return
	}

	ledenhttp.WriteJSON(w, http.StatusOK, newOrganisationView(org))
}

func (h *handlers) storeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, store.ErrOrganisationNotFound):
		ledenhttp.WriteJSONError(w, http.StatusNotFound, "organisation not found")
	case errors.Is(err, store.ErrOrganisationAlreadyExists):
		ledenhttp.WriteJSONError(w, http.StatusConflict, "organisation already exists")
	default:
		log.Ctx(r.Context()).Error().Err(err).Msg("Store operation failed")
		ledenhttp.WriteInternalError(w)
	}
}

// requirePlatformAdmin guards operator routes: 401 for anonymous callers, 403 for
// everyone without platform_admin.
func requirePlatformAdmin(next http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		principal := auth.PrincipalFromContext(r.Context())
		switch {
		case principal == nil:
			ledenhttp.WriteJSONError(w, http.StatusUnauthorized, "unauthorized")
		case !principal.IsPlatformAdmin():
			ledenhttp.WriteJSONError(w, http.StatusForbidden, "forbidden")
		default:
			next(w, r)
		}
	})
}

func validateSlug(slug string) error {
	if !slugPattern.MatchString(slug) {
		return fmt.Errorf("slug %q must be a lowercase DNS label", slug)
	}
	if slug == tenant.SlugApp || slug == tenant.SlugPortal {
		return fmt.Errorf("slug %q is reserved", slug)
	}
	return nil
}

func pathID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		ledenhttp.WriteJSONError(w, http.StatusBadRequest, "invalid organisation id")
		return uuid.Nil, false
	}
	return id, true
}

func decode(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}
