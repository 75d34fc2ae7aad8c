package observability

import (
	"context"
	"fmt"
	"time"

	"careerai/internal/ai"
	"careerai/internal/errors"
	"careerai/internal/tools"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metrics holds the custom instruments for flow invocations.
type Metrics struct {
	FlowDuration    metric.Float64Histogram
	FlowInvocations metric.Int64Counter
	FlowErrors      metric.Int64Counter
	TokenUsage      metric.Int64Histogram
	ToolFallbacks   metric.Int64Counter
	RateLimitHits   metric.Int64Counter

	trackTokens bool
}

func newMetrics(meter metric.Meter) (*Metrics, error) {
	m := &Metrics{trackTokens: true}
	var err error

	m.FlowDuration, err = meter.Float64Histogram(
		"careerai_flow_duration_seconds",
		metric.WithDescription("Time spent in flow invocations"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create flow duration metric: %w", err)
	}

	m.FlowInvocations, err = meter.Int64Counter(
		"careerai_flow_invocations_total",
		metric.WithDescription("Total number of flow invocations"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create flow invocation metric: %w", err)
	}

	m.FlowErrors, err = meter.Int64Counter(
		"careerai_flow_errors_total",
		metric.WithDescription("Failed flow invocations by error code"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create flow error metric: %w", err)
	}

	m.TokenUsage, err = meter.Int64Histogram(
		"careerai_flow_tokens",
		metric.WithDescription("Token usage per flow invocation (input, output, total)"),
		metric.WithUnit("tokens"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create token usage metric: %w", err)
	}

	m.ToolFallbacks, err = meter.Int64Counter(
		"careerai_tool_fallbacks_total",
		metric.WithDescription("Tool fallback substitutions by tool and reason"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create tool fallback metric: %w", err)
	}

	m.RateLimitHits, err = meter.Int64Counter(
		"careerai_rate_limit_hits_total",
		metric.WithDescription("Total number of rate limited requests"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create rate limit hits metric: %w", err)
	}

	return m, nil
}

// RecordInvocation records duration, outcome and token usage of one flow
// invocation. It is safe to call on a nil *Metrics.
func (m *Metrics) RecordInvocation(ctx context.Context, flow string, duration time.Duration, usage *ai.TokenUsage, err error) {
	if m == nil {
		return
	}

	attrs := []attribute.KeyValue{
		attribute.String("flow", flow),
		attribute.Bool("success", err == nil),
	}
	m.FlowDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(attrs...))
	m.FlowInvocations.Add(ctx, 1, metric.WithAttributes(attrs...))

	if err != nil {
		m.FlowErrors.Add(ctx, 1, metric.WithAttributes(
			attribute.String("flow", flow),
			attribute.String("code", errorCode(err)),
		))
	}

	if usage == nil || !m.trackTokens {
		return
	}
	for _, tt := range []struct {
		tokenType string
		value     int64
	}{
		{"input", usage.InputTokens},
		{"output", usage.OutputTokens},
		{"total", usage.TotalTokens},
	} {
		m.TokenUsage.Record(ctx, tt.value, metric.WithAttributes(
			attribute.String("flow", flow),
			attribute.String("token_type", tt.tokenType),
		))
	}
}

// RecordFallback counts one tool fallback substitution.
func (m *Metrics) RecordFallback(ev tools.FallbackEvent) {
	if m == nil {
		return
	}
	m.ToolFallbacks.Add(context.Background(), 1, metric.WithAttributes(
		attribute.String("tool", ev.Tool),
		attribute.String("reason", ev.Reason),
	))
}

// RecordRateLimitHit counts one rejected request. keyType is "ip" or "api".
func (m *Metrics) RecordRateLimitHit(ctx context.Context, keyType string) {
	if m == nil {
		return
	}
	m.RateLimitHits.Add(ctx, 1, metric.WithAttributes(attribute.String("key_type", keyType)))
}

func errorCode(err error) string {
	if appErr, ok := errors.AsAppError(err); ok {
		return appErr.Code
	}
	return errors.ErrCodeInternal
}

// RecordInvocation forwards to the manager's metrics so a *Manager can be
// handed to the flow invoker directly.
func (om *Manager) RecordInvocation(ctx context.Context, flow string, duration time.Duration, usage *ai.TokenUsage, err error) {
	om.metrics.RecordInvocation(ctx, flow, duration, usage, err)
}

// RecordFallback forwards to the manager's metrics. It matches
// tools.Registry.OnFallback.
func (om *Manager) RecordFallback(ev tools.FallbackEvent) {
	om.metrics.RecordFallback(ev)
}
