package telemetry

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	meterName = "github.com/ledenhub/ledenhub"
)

// Resolution outcomes recorded by the tenant loader.
const (
	OutcomeNone     = "none"
	OutcomePortal   = "portal"
	OutcomeResolved = "resolved"
	OutcomeNotFound = "not_found"
	OutcomeBlocked  = "blocked"
	OutcomeError    = "error"
)

// Denial reasons recorded by the gates.
const (
	ReasonPortalRole      = "portal_role"
	ReasonTenantMismatch  = "tenant_mismatch"
	ReasonPaymentRequired = "payment_required"
)

// Metrics holds all the OpenTelemetry metric instruments
type Metrics struct {
	TenantResolutions metric.Int64Counter
	GateDenials       metric.Int64Counter
	BillingBlocked    metric.Int64Counter
}

var (
	once    sync.Once
	metrics *Metrics
)

// GetMetrics returns the singleton Metrics instance, initializing it if necessary
func GetMetrics() *Metrics {
	once.Do(func() {
		metrics = initMetrics()
	})
	return metrics
}

func initMetrics() *Metrics {
	meter := otel.GetMeterProvider().Meter(meterName)

	m := &Metrics{}

	m.TenantResolutions, _ = meter.Int64Counter(
		"ledenhub.tenant.resolutions",
		metric.WithDescription("Tenant loader outcomes per request"),
		metric.WithUnit("{request}"),
	)

	m.GateDenials, _ = meter.Int64Counter(
		"ledenhub.gate.denials",
		metric.WithDescription("Requests refused by the portal, access or billing gate"),
		metric.WithUnit("{request}"),
	)

	m.BillingBlocked, _ = meter.Int64Counter(
		"ledenhub.billing.blocked",
		metric.WithDescription("Mutating requests refused because of the tenant billing status"),
		metric.WithUnit("{request}"),
	)

	return m
}

// RecordResolution counts one tenant loader outcome.
func (m *Metrics) RecordResolution(ctx context.Context, outcome string) {
	m.TenantResolutions.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
}

// RecordDenial counts one gate denial.
func (m *Metrics) RecordDenial(ctx context.Context, reason string) {
	m.GateDenials.Add(ctx, 1, metric.WithAttributes(attribute.String("reason", reason)))
}

// RecordBillingBlocked counts one 402 by billing status.
func (m *Metrics) RecordBillingBlocked(ctx context.Context, status string) {
	m.RecordDenial(ctx, ReasonPaymentRequired)
	m.BillingBlocked.Add(ctx, 1, metric.WithAttributes(attribute.String("billing_status", status)))
}
