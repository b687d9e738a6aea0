// Package gate decides, per request, whether the caller may use the tenant the request is
// addressed to and whether that tenant's billing status permits the request.
package gate

import (
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/ledenhub/ledenhub/internal/auth"
	ledenhttp "github.com/ledenhub/ledenhub/internal/http"
	"github.com/ledenhub/ledenhub/internal/models"
	"github.com/ledenhub/ledenhub/internal/telemetry"
	"github.com/ledenhub/ledenhub/internal/tenant"
)

// MessageNoAccess is returned when a principal addresses another tenant.
const MessageNoAccess = "Je hebt geen toegang tot deze organisatie."

// Decision is the outcome of a gate evaluation.
type Decision int

const (
	Allow Decision = iota
	DenyTenantMismatch
	DenyPaymentRequired
)

func (d Decision) String() string {
	switch d {
	case Allow:
		return "allow"
	case DenyTenantMismatch:
		return "deny_tenant_mismatch"
	case DenyPaymentRequired:
		return "deny_payment_required"
	default:
		return "unknown"
	}
}

// EvaluateAccess applies the tenant access rules in order: anonymous callers, platform
// admins and tenant agnostic requests pass; everyone else must belong to org.
func EvaluateAccess(p *auth.Principal, org *models.Organisation) Decision {
	if p == nil {
		return Allow
	}
	if p.IsPlatformAdmin() {
		return Allow
	}
	if org == nil {
		return Allow
	}
	if p.OrganisationID != nil && *p.OrganisationID == org.ID {
		return Allow
	}
	return DenyTenantMismatch
}

// Option configures a gate.
type Option func(*options)

type options struct {
	metrics *telemetry.Metrics
}

// WithMetrics overrides the metrics instruments.
func WithMetrics(m *telemetry.Metrics) Option {
	return func(o *options) {
		o.metrics = m
	}
}

func buildOptions(opts []Option) options {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	if o.metrics == nil {
		o.metrics = telemetry.GetMetrics()
	}
	return o
}

// AccessGate rejects principals addressing a tenant other than their own with 403. It
// reads the tenant placed on the context by the tenant loader.
func AccessGate(opts ...Option) func(http.Handler) http.Handler {
	o := buildOptions(opts)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			principal := auth.PrincipalFromContext(ctx)
			org := tenant.OrganisationFromContext(ctx)

			if EvaluateAccess(principal, org) != Allow {
				o.metrics.RecordDenial(ctx, telemetry.ReasonTenantMismatch)
				log.Ctx(ctx).Warn().
					Str("principal_id", principal.UserID.String()).
					Str("org_id", org.ID.String()).
					Str("client_ip", ledenhttp.ClientIPFromContext(ctx)).
					Msg("Denied cross-tenant request")
				ledenhttp.WriteJSONError(w, http.StatusForbidden, MessageNoAccess)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
