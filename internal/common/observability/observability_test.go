package observability

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"trip-workers/internal/common/config"
	"trip-workers/internal/common/logger"
)

func TestObservability_SpansAndMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	spans := tracetest.NewInMemoryExporter()

	obs := New(
		config.ObservabilityConfig{ServiceName: "trip-workers-test", SampleRatio: 1},
		logger.NewTestLogger(t),
		WithRegisterer(reg),
		WithSpanExporter(spans),
	)
	ctx := context.Background()

	_, span := obs.StartSpan(ctx, "tripgen.persist", attribute.String("tripId", "t-1"))
	span.End()
	obs.RecordTripOutcome(ctx, "success")
	obs.RecordStageDuration(ctx, "persist", 25*time.Millisecond)

	require.NoError(t, obs.ForceFlush(ctx))
	got := spans.GetSpans()
	require.Len(t, got, 1)
	assert.Equal(t, "tripgen.persist", got[0].Name)

	families, err := reg.Gather()
	require.NoError(t, err)
	var names []string
	for _, f := range families {
		names = append(names, f.GetName())
	}
	assert.True(t, containsSubstring(names, "generated"), "families: %v", names)
	assert.True(t, containsSubstring(names, "stage"), "families: %v", names)

	assert.NoError(t, obs.Shutdown(ctx))
}

func TestObservability_Noop(t *testing.T) {
	obs := NewNoop()
	ctx := context.Background()

	spanCtx, span := obs.StartSpan(ctx, "noop")
	span.End()
	assert.NotNil(t, spanCtx)

	obs.RecordTripOutcome(ctx, "success")
	obs.RecordStageDuration(ctx, "generate", time.Second)
	assert.NoError(t, obs.ForceFlush(ctx))
	assert.NoError(t, obs.Shutdown(ctx))
}

func containsSubstring(names []string, sub string) bool {
	for _, n := range names {
		if strings.Contains(n, sub) {
			return true
		}
	}
	return false
}
