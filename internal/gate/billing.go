package gate

import (
	"context"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/ledenhub/ledenhub/internal/auth"
	ledenhttp "github.com/ledenhub/ledenhub/internal/http"
	"github.com/ledenhub/ledenhub/internal/models"
	"github.com/ledenhub/ledenhub/internal/store"
	"github.com/ledenhub/ledenhub/internal/tenant"
)

// Billing block messages.
const (
	MessagePendingPayment = "Your organisation does not have an active subscription yet. Please select and pay for a plan to continue."
	MessageRestricted     = "A payment for your organisation has failed. Please update your payment method to continue."
)

// BlockMessage returns the user facing message for a blocking billing status.
func BlockMessage(status models.BillingStatus) string {
	if status == models.BillingPendingPayment {
		return MessagePendingPayment
	}
	return MessageRestricted
}

// PaymentRequiredResponse is the 402 body. BillingNote is null when no note is stored.
type PaymentRequiredResponse struct {
	Message       string  `json:"message"`
	BillingStatus string  `json:"billing_status"`
	BillingNote   *string `json:"billing_note"`
}

// IsSafeMethod reports whether method never mutates state.
func IsSafeMethod(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return true
	default:
		return false
	}
}

// EvaluateBilling decides whether a request to path with method may proceed for a
// principal whose tenant is org.
func EvaluateBilling(method, path string, org *models.Organisation, allow AllowList) Decision {
	if org == nil || !org.BillingStatus.Restricts() {
		return Allow
	}
	if IsSafeMethod(method) {
		return Allow
	}
	if allow.Allows(path) {
		return Allow
	}
	return DenyPaymentRequired
}

// BillingGate blocks mutating requests from principals whose tenant has an unresolved
// billing status.
type BillingGate struct {
	orgs  store.OrganisationFinder
	allow AllowList
	opts  options
}

// NewBillingGate creates a billing gate.
func NewBillingGate(orgs store.OrganisationFinder, allow AllowList, opts ...Option) *BillingGate {
	return &BillingGate{
		orgs:  orgs,
		allow: allow,
		opts:  buildOptions(opts),
	}
}

// Middleware returns the gate as HTTP middleware. It must run after the access gate.
func (g *BillingGate) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			principal := auth.PrincipalFromContext(ctx)
			if principal == nil || principal.IsPlatformAdmin() || principal.OrganisationID == nil {
				next.ServeHTTP(w, r)
				return
			}

			// safe methods never need the tenant
			if IsSafeMethod(r.Method) {
				next.ServeHTTP(w, r)
				return
			}

			org, err := g.effectiveOrganisation(ctx, *principal.OrganisationID)
			if err != nil {
				log.Ctx(ctx).Error().Err(err).
					Str("org_id", principal.OrganisationID.String()).
					Msg("Failed to load principal organisation")
				ledenhttp.WriteInternalError(w)
				return
			}

			if EvaluateBilling(r.Method, r.URL.Path, org, g.allow) != Allow {
				g.opts.metrics.RecordBillingBlocked(ctx, string(org.BillingStatus))
				log.Ctx(ctx).Info().
					Str("org_id", org.ID.String()).
					Str("billing_status", string(org.BillingStatus)).
					Msg("Blocked request for organisation with billing restriction")

				ledenhttp.WriteJSON(w, http.StatusPaymentRequired, PaymentRequiredResponse{
					Message:       BlockMessage(org.BillingStatus),
					BillingStatus: string(org.BillingStatus),
					BillingNote:   org.BillingNote,
				})
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// effectiveOrganisation reuses the tenant the loader attached when it is the principal's
// own, and otherwise fetches it by id. A missing row yields nil (nothing to restrict).
func (g *BillingGate) effectiveOrganisation(ctx context.Context, id uuid.UUID) (*models.Organisation, error) {
	if org := tenant.OrganisationFromContext(ctx); org != nil && org.ID == id {
		return org, nil
	}

	org, err := g.orgs.Get(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrOrganisationNotFound) {
			log.Ctx(ctx).Warn().Str("org_id", id.String()).Msg("Principal references missing organisation")
			return nil, nil
		}
		return nil, err
	}
	return org, nil
}
