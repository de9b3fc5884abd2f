package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metrics holds all application metrics. A nil *Metrics records nothing.
type Metrics struct {
	RequestCount     metric.Int64Counter
	RequestDuration  metric.Float64Histogram
	ProviderRequests metric.Int64Counter
	ProviderDuration metric.Float64Histogram
	StageRuns        metric.Int64Counter
	StageDuration    metric.Float64Histogram
	CacheHitCount    metric.Int64Counter
	CacheMissCount   metric.Int64Counter
}

// InitMetrics initializes application metrics
func InitMetrics() (*Metrics, error) {
	meter := otel.Meter(instrumentationName)
	m := &Metrics{}
	var err error

	if m.RequestCount, err = meter.Int64Counter(
		"http.server.request.count",
		metric.WithDescription("Number of HTTP requests"),
	); err != nil {
		return nil, err
	}
	if m.RequestDuration, err = meter.Float64Histogram(
		"http.server.request.duration",
		metric.WithDescription("HTTP request duration in milliseconds"),
		metric.WithUnit("ms"),
	); err != nil {
		return nil, err
	}
	if m.ProviderRequests, err = meter.Int64Counter(
		"articleforge_provider_requests_total",
		metric.WithDescription("Provider adapter attempts by endpoint and outcome"),
	); err != nil {
		return nil, err
	}
	if m.ProviderDuration, err = meter.Float64Histogram(
		"articleforge_provider_duration_ms",
		metric.WithDescription("Provider adapter attempt latency in milliseconds"),
		metric.WithUnit("ms"),
	); err != nil {
		return nil, err
	}
	if m.StageRuns, err = meter.Int64Counter(
		"articleforge_stage_runs_total",
		metric.WithDescription("Workflow stage executions by stage and status"),
	); err != nil {
		return nil, err
	}
	if m.StageDuration, err = meter.Float64Histogram(
		"articleforge_stage_duration_ms",
		metric.WithDescription("Workflow stage duration in milliseconds"),
		metric.WithUnit("ms"),
	); err != nil {
		return nil, err
	}
	if m.CacheHitCount, err = meter.Int64Counter(
		"articleforge_cache_hits_total",
		metric.WithDescription("Artifact cache hits"),
	); err != nil {
		return nil, err
	}
	if m.CacheMissCount, err = meter.Int64Counter(
		"articleforge_cache_misses_total",
		metric.WithDescription("Artifact cache misses"),
	); err != nil {
		return nil, err
	}
	return m, nil
}

// RecordRequestMetric records an HTTP request
func RecordRequestMetric(ctx context.Context, metrics *Metrics, method, path string, statusCode int, duration time.Duration) {
	if metrics == nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String("http.method", method),
		attribute.String("http.route", path),
		attribute.Int("http.status_code", statusCode),
	)
	metrics.RequestCount.Add(ctx, 1, attrs)
	metrics.RequestDuration.Record(ctx, float64(duration.Milliseconds()), attrs)
}

// RecordProviderCall records one adapter attempt; outcome is "ok" or an error kind
func RecordProviderCall(ctx context.Context, metrics *Metrics, endpoint, outcome string, duration time.Duration) {
	if metrics == nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String("endpoint", endpoint),
		attribute.String("outcome", outcome),
	)
	metrics.ProviderRequests.Add(ctx, 1, attrs)
	metrics.ProviderDuration.Record(ctx, float64(duration.Milliseconds()), attrs)
}

// RecordStage records a finished stage execution
func RecordStage(ctx context.Context, metrics *Metrics, stage, status string, duration time.Duration) {
	if metrics == nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String("stage", stage),
		attribute.String("status", status),
	)
	metrics.StageRuns.Add(ctx, 1, attrs)
	metrics.StageDuration.Record(ctx, float64(duration.Milliseconds()), attrs)
}

// RecordCacheHit records an artifact cache hit
func RecordCacheHit(ctx context.Context, metrics *Metrics, stage string) {
	if metrics == nil {
		return
	}
	metrics.CacheHitCount.Add(ctx, 1, metric.WithAttributes(attribute.String("stage", stage)))
}

// RecordCacheMiss records an artifact cache miss
func RecordCacheMiss(ctx context.Context, metrics *Metrics, stage string) {
	if metrics == nil {
		return
	}
	metrics.CacheMissCount.Add(ctx, 1, metric.WithAttributes(attribute.String("stage", stage)))
}
