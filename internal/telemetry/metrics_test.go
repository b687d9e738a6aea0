package telemetry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func TestMetrics_record(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	otel.SetMeterProvider(provider)
	t.Cleanup(func() { _ = provider.Shutdown(context.Background()) })

	// bypass the singleton so the instruments bind to the test provider
	m := initMetrics()
	ctx := context.Background()

	m.RecordResolution(ctx, OutcomeResolved)
	m.RecordResolution(ctx, OutcomeNotFound)
	m.RecordDenial(ctx, ReasonTenantMismatch)
	m.RecordBillingBlocked(ctx, "restricted")

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(ctx, &rm))
	require.Len(t, rm.ScopeMetrics, 1)

	totals := map[string]int64{}
	for _, sm := range rm.ScopeMetrics[0].Metrics {
		sum, ok := sm.Data.(metricdata.Sum[int64])
		require.True(t, ok, sm.Name)
		for _, dp := range sum.DataPoints {
			totals[sm.Name] += dp.Value
		}
	}

	require.Equal(t, int64(2), totals["ledenhub.tenant.resolutions"])
	require.Equal(t, int64(2), totals["ledenhub.gate.denials"])
	require.Equal(t, int64(1), totals["ledenhub.billing.blocked"])
}
