package observability

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"careerai/internal/ai"
	"careerai/internal/config"
	"careerai/internal/errors"
	"careerai/internal/tools"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func newTestManager(t *testing.T) (*Manager, *sdkmetric.ManualReader) {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	om, err := NewManager(config.ObservabilityConfig{
		Enabled:     true,
		ServiceName: "careerai-test",
		SampleRate:  1,
		Metrics:     config.MetricsConfig{TrackTokenUsage: true},
	}, "test", errors.NewNop(), reader)
	require.NoError(t, err)
	t.Cleanup(func() { _ = om.Shutdown(context.Background()) })
	return om, reader
}

func collect(t *testing.T, reader *sdkmetric.ManualReader) map[string]metricdata.Aggregation {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))
	out := map[string]metricdata.Aggregation{}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			out[m.Name] = m.Data
		}
	}
	return out
}

func sumOf(t *testing.T, data metricdata.Aggregation) int64 {
	t.Helper()
	sum, ok := data.(metricdata.Sum[int64])
	require.True(t, ok, "expected an int64 sum, got %T", data)
	var total int64
	for _, dp := range sum.DataPoints {
		total += dp.Value
	}
	return total
}

func TestRecordInvocation(t *testing.T) {
	om, reader := newTestManager(t)
	ctx := context.Background()

	om.RecordInvocation(ctx, "analyzeResume", 120*time.Millisecond,
		&ai.TokenUsage{InputTokens: 10, OutputTokens: 5, TotalTokens: 15}, nil)
	om.RecordInvocation(ctx, "analyzeResume", 30*time.Millisecond, nil,
		errors.NewEmptyResultError("analyzeResume"))

	got := collect(t, reader)
	assert.Equal(t, int64(2), sumOf(t, got["careerai_flow_invocations_total"]))
	assert.Equal(t, int64(1), sumOf(t, got["careerai_flow_errors_total"]))

	errs := got["careerai_flow_errors_total"].(metricdata.Sum[int64])
	require.Len(t, errs.DataPoints, 1)
	code, ok := errs.DataPoints[0].Attributes.Value("code")
	require.True(t, ok)
	assert.Equal(t, errors.ErrCodeEmptyResult, code.AsString())

	tokens, ok := got["careerai_flow_tokens"].(metricdata.Histogram[int64])
	require.True(t, ok)
	assert.Len(t, tokens.DataPoints, 3)

	duration, ok := got["careerai_flow_duration_seconds"].(metricdata.Histogram[float64])
	require.True(t, ok)
	var count uint64
	for _, dp := range duration.DataPoints {
		count += dp.Count
	}
	assert.Equal(t, uint64(2), count)
}

func TestRecordFallbackAndRateLimit(t *testing.T) {
	om, reader := newTestManager(t)

	om.RecordFallback(tools.FallbackEvent{Tool: tools.GetAllResumes, Reason: tools.FallbackReasonEmpty})
	om.Metrics().RecordRateLimitHit(context.Background(), "ip")

	got := collect(t, reader)
	assert.Equal(t, int64(1), sumOf(t, got["careerai_tool_fallbacks_total"]))
	assert.Equal(t, int64(1), sumOf(t, got["careerai_rate_limit_hits_total"]))
}

func TestDisabledManagerIsNoop(t *testing.T) {
	om, err := NewManager(config.ObservabilityConfig{Enabled: false}, "test", errors.NewNop())
	require.NoError(t, err)

	assert.Nil(t, om.Metrics())
	assert.NotPanics(t, func() {
		om.RecordInvocation(context.Background(), "searchJobs", time.Second, nil, nil)
		om.RecordFallback(tools.FallbackEvent{Tool: "x"})
		om.Metrics().RecordRateLimitHit(context.Background(), "api")
	})

	_, span := om.Tracer("test").Start(context.Background(), "op")
	assert.False(t, span.SpanContext().IsValid())
	span.End()

	next := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusTeapot) })
	rec := httptest.NewRecorder()
	om.HTTPMiddleware()(next).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusTeapot, rec.Code)
	assert.NoError(t, om.Shutdown(context.Background()))
}

func TestErrorCode(t *testing.T) {
	assert.Equal(t, errors.ErrCodeToolExecution, errorCode(errors.NewToolExecutionError("t", nil)))
	assert.Equal(t, errors.ErrCodeInternal, errorCode(context.Canceled))
}
