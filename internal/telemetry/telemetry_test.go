package telemetry

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"

	"github.com/bighogz/insider-ledger/internal/config"
)

func TestSetupMetricsOnly(t *testing.T) {
	p, err := Setup(config.TelemetryConfig{Metrics: true, TraceExporter: "none"}, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = p.Shutdown(context.Background()) })

	assert.Nil(t, p.TracerProvider)
	require.NotNil(t, p.MeterProvider)
	require.NotNil(t, p.MetricsHandler)

	counter, err := otel.Meter(InstrumentationName).Int64Counter("setup_test_total")
	require.NoError(t, err)
	counter.Add(context.Background(), 3)

	rec := httptest.NewRecorder()
	p.MetricsHandler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "setup_test")
}

func TestSetupDisabled(t *testing.T) {
	p, err := Setup(config.TelemetryConfig{}, zap.NewNop())
	require.NoError(t, err)
	assert.Nil(t, p.TracerProvider)
	assert.Nil(t, p.MeterProvider)
	assert.Nil(t, p.MetricsHandler)
	assert.NoError(t, p.Shutdown(context.Background()))
}
