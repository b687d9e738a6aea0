// Package server assembles the HTTP API: the tenant resolution and access gate pipeline in
// front of the JSON handlers.
package server

import (
	"errors"
	"net/http"
	"strings"

	"filippo.io/csrf"
	"github.com/klauspost/compress/gzhttp"
	"github.com/rs/cors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/ledenhub/ledenhub/internal/auth"
	"github.com/ledenhub/ledenhub/internal/gate"
	ledenhttp "github.com/ledenhub/ledenhub/internal/http"
	"github.com/ledenhub/ledenhub/internal/logger"
	"github.com/ledenhub/ledenhub/internal/store"
	"github.com/ledenhub/ledenhub/internal/telemetry"
	"github.com/ledenhub/ledenhub/internal/tenant"
)

// Config wires the server's collaborators.
type Config struct {
	Logger zerolog.Logger

	Organisations store.OrganisationStore
	Users         store.UserFinder

	// ParentDomain is the registered domain tenant subdomains live under.
	ParentDomain string

	// Verifier authenticates bearer tokens. Nil leaves every request anonymous.
	Verifier auth.TokenVerifier

	AllowList gate.AllowList

	// CORSOrigins may contain one wildcard per origin, e.g. https://*.ledenhub.nl.
	CORSOrigins []string

	// Tracing wraps the handler with otelhttp.
	Tracing bool

	// Metrics defaults to the process wide instruments.
	Metrics *telemetry.Metrics
}

// Validate checks the required collaborators are present.
func (c *Config) Validate() error {
	if c.Organisations == nil {
		return errors.New("organisation store is required")
	}
	if c.Users == nil {
		return errors.New("user store is required")
	}
	if c.ParentDomain == "" {
		return errors.New("parent domain is required")
	}
	return c.AllowList.Validate()
}

// New returns the API handler. Requests pass, outermost first, through request id,
// access log, client ip, gzip, CORS, cross-origin protection, authentication, tenant
// loader, access gate and billing gate before reaching the routes. /healthz skips the
// authentication and gate stages.
func New(cfg Config) (http.Handler, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.Metrics == nil {
		cfg.Metrics = telemetry.GetMetrics()
	}

	api := http.NewServeMux()
	h := &handlers{orgs: cfg.Organisations}
	h.register(api)

	loader := tenant.NewLoader(tenant.NewResolver(cfg.ParentDomain), cfg.Organisations, tenant.WithMetrics(cfg.Metrics))
	billing := gate.NewBillingGate(cfg.Organisations, cfg.AllowList, gate.WithMetrics(cfg.Metrics))

	gated := chain(api,
		authenticate(cfg),
		loader.Middleware(),
		gate.AccessGate(gate.WithMetrics(cfg.Metrics)),
		billing.Middleware(),
	)

	root := http.NewServeMux()
	root.HandleFunc("GET /healthz", health)
	root.Handle("/", gated)

	corsPolicy := newCORS(cfg.CORSOrigins)
	protection, err := crossOriginProtection(cfg.CORSOrigins, corsPolicy)
	if err != nil {
		return nil, err
	}

	var handler http.Handler = chain(root,
		ledenhttp.RequestIDMiddleware(),
		logger.HTTPRequests(cfg.Logger),
		ledenhttp.ClientIPMiddleware(),
		compress,
		corsPolicy.Handler,
		protection,
	)

	if cfg.Tracing {
		handler = otelhttp.NewHandler(handler, "ledenhub",
			otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
				return r.Method + " " + r.URL.Path
			}),
		)
	}

	return handler, nil
}

// chain applies middlewares so that the first one listed runs first.
func chain(h http.Handler, middlewares ...func(http.Handler) http.Handler) http.Handler {
	for i := len(middlewares) - 1; i >= 0; i-- {
		h = middlewares[i](h)
	}
	return h
}

func authenticate(cfg Config) func(http.Handler) http.Handler {
	if cfg.Verifier == nil {
		log.Warn().Msg("Authentication disabled, all requests are anonymous")
		return func(next http.Handler) http.Handler { return next }
	}
	return auth.Authenticate(cfg.Verifier, cfg.Users)
}

func compress(next http.Handler) http.Handler {
	return gzhttp.GzipHandler(next)
}

// newCORS lets the single page application on tenant subdomains call the API.
func newCORS(allowedOrigins []string) *cors.Cors {
	return cors.New(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{
			http.MethodGet, http.MethodHead, http.MethodPost,
			http.MethodPut, http.MethodPatch, http.MethodDelete,
		},
		AllowedHeaders:   []string{"Authorization", "Content-Type", tenant.OverrideHeader, ledenhttp.RequestIDHeader},
		ExposedHeaders:   []string{ledenhttp.RequestIDHeader},
		AllowCredentials: true,
	})
}

// crossOriginProtection rejects browser initiated cross-origin writes unless the origin
// is one the CORS policy allows, wildcards included.
func crossOriginProtection(origins []string, corsPolicy *cors.Cors) (func(http.Handler) http.Handler, error) {
	protection := csrf.New()
	for _, origin := range origins {
		if strings.Contains(origin, "*") {
			continue
		}
		if err := protection.AddTrustedOrigin(origin); err != nil {
			return nil, err
		}
	}

	return func(next http.Handler) http.Handler {
		deny := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if corsPolicy.OriginAllowed(r) {
				next.ServeHTTP(w, r)
				return
			}
			log.Ctx(r.Context()).Warn().Str("origin", r.Header.Get("Origin")).Msg("Rejected cross-origin request")
			ledenhttp.WriteJSONError(w, http.StatusForbidden, "cross-origin request rejected")
		})
		return protection.HandlerWithFailHandler(next, deny)
	}, nil
}

func health(w http.ResponseWriter, r *http.Request) {
	ledenhttp.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
