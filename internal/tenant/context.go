package tenant

import (
	"context"

	"github.com/ledenhub/ledenhub/internal/models"
)

// State is what the loader decided for one request.
type State struct {
	// Slug is the resolved slug, empty when none was found.
	Slug string

	// Portal is set for requests addressed to the operator portal.
	Portal bool

	// Organisation is the loaded tenant, nil for tenant agnostic requests.
	Organisation *models.Organisation
}

type contextKey int

const stateContextKey contextKey = iota

// WithState attaches the loader outcome to ctx.
func WithState(ctx context.Context, s *State) context.Context {
	return context.WithValue(ctx, stateContextKey, s)
}

// StateFromContext returns the loader outcome, if the loader ran.
func StateFromContext(ctx context.Context) (*State, bool) {
	s, ok := ctx.Value(stateContextKey).(*State)
	return s, ok && s != nil
}

// Resolved reports whether the loader already ran for this request.
func Resolved(ctx context.Context) bool {
	_, ok := StateFromContext(ctx)
	return ok
}

// WithOrganisation attaches org as the request's tenant.
func WithOrganisation(ctx context.Context, org *models.Organisation) context.Context {
	s := &State{Organisation: org}
	if org != nil {
		s.Slug = org.Slug
	}
	return WithState(ctx, s)
}

// OrganisationFromContext returns the request's tenant, or nil when the request carries none.
func OrganisationFromContext(ctx context.Context) *models.Organisation {
	if s, ok := StateFromContext(ctx); ok {
		return s.Organisation
	}
	return nil
}
