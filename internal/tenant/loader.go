package tenant

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/ledenhub/ledenhub/internal/auth"
	ledenhttp "github.com/ledenhub/ledenhub/internal/http"
	"github.com/ledenhub/ledenhub/internal/store"
	"github.com/ledenhub/ledenhub/internal/telemetry"
)

// Loader errors. Each maps to a terminal HTTP response.
var (
	ErrNotFound        = errors.New("organisation not found")
	ErrBlocked         = errors.New("organisation blocked")
	ErrPortalForbidden = errors.New("portal requires platform_admin")
)

// User facing messages.
const (
	MessageNotFound        = "Organisatie niet gevonden voor dit subdomein."
	MessageBlocked         = "Deze organisatie is geblokkeerd."
	MessagePortalForbidden = "Alleen platformbeheerders hebben toegang tot het portaal."
)

// Loader turns the resolved slug into the request's tenant.
type Loader struct {
	resolver *Resolver
	orgs     store.OrganisationFinder
	metrics  *telemetry.Metrics
}

// LoaderOption configures a Loader.
type LoaderOption func(*Loader)

// WithMetrics overrides the metrics instruments.
func WithMetrics(m *telemetry.Metrics) LoaderOption {
	return func(l *Loader) {
		l.metrics = m
	}
}

// NewLoader creates a loader.
func NewLoader(resolver *Resolver, orgs store.OrganisationFinder, opts ...LoaderOption) *Loader {
	l := &Loader{
		resolver: resolver,
		orgs:     orgs,
	}
	for _, opt := range opts {
		opt(l)
	}
	if l.metrics == nil {
		l.metrics = telemetry.GetMetrics()
	}
	return l
}

// Load decides the tenant state for slug. It performs at most one store lookup.
func (l *Loader) Load(ctx context.Context, slug string, principal *auth.Principal) (*State, error) {
	switch slug {
	case "", SlugApp:
		return &State{Slug: slug}, nil
	case SlugPortal:
		if principal != nil && !principal.IsPlatformAdmin() {
			return nil, ErrPortalForbidden
		}
		return &State{Slug: slug, Portal: true}, nil
	}

	org, err := l.orgs.GetBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, store.ErrOrganisationNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to load organisation %q: %w", slug, err)
	}

	if org.IsBlocked() {
		return nil, ErrBlocked
	}

	return &State{Slug: slug, Organisation: org}, nil
}

// Middleware resolves and loads the tenant once per request. A request that already
// carries loader state is passed through untouched.
func (l *Loader) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			if Resolved(ctx) {
				next.ServeHTTP(w, r)
				return
			}

			slug, _ := l.resolver.ResolveRequest(r)

			state, err := l.Load(ctx, slug, auth.PrincipalFromContext(ctx))
			if err != nil {
				l.fail(ctx, w, slug, err)
				return
			}

			l.metrics.RecordResolution(ctx, outcome(state))

			if state.Organisation != nil {
				zerolog.Ctx(ctx).UpdateContext(func(c zerolog.Context) zerolog.Context {
					return c.Str("org_id", state.Organisation.ID.String()).Str("slug", state.Slug)
				})
			}

			next.ServeHTTP(w, r.WithContext(WithState(ctx, state)))
		})
	}
}

func (l *Loader) fail(ctx context.Context, w http.ResponseWriter, slug string, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		l.metrics.RecordResolution(ctx, telemetry.OutcomeNotFound)
		log.Ctx(ctx).Debug().Str("slug", slug).Msg("No organisation for slug")
		ledenhttp.WriteJSONError(w, http.StatusNotFound, MessageNotFound)
	case errors.Is(err, ErrBlocked):
		l.metrics.RecordResolution(ctx, telemetry.OutcomeBlocked)
		log.Ctx(ctx).Info().Str("slug", slug).Msg("Rejected request for blocked organisation")
		ledenhttp.WriteJSONError(w, http.StatusForbidden, MessageBlocked)
	case errors.Is(err, ErrPortalForbidden):
		l.metrics.RecordDenial(ctx, telemetry.ReasonPortalRole)
		log.Ctx(ctx).Info().Msg("Rejected portal request without platform_admin")
		ledenhttp.WriteJSONError(w, http.StatusForbidden, MessagePortalForbidden)
	default:
		l.metrics.RecordResolution(ctx, telemetry.OutcomeError)
		log.Ctx(ctx).Error().Err(err).Str("slug", slug).Msg("Failed to load organisation")
		ledenhttp.WriteInternalError(w)
	}
}

func outcome(s *State) string {
	switch {
	case s.Portal:
		return telemetry.OutcomePortal
	case s.Organisation != nil:
		return telemetry.OutcomeResolved
	default:
		return telemetry.OutcomeNone
	}
}
