// Copyright 2025 Kadir Pekel
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package observability

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
	"go.opentelemetry.io/otel/trace"
)

// Tracer wraps the OpenTelemetry tracer with orchestration-specific helpers.
type Tracer struct {
	provider       *sdktrace.TracerProvider
	tracer         trace.Tracer
	debugExporter  *DebugExporter
	capturePayload bool
	serviceName    string
}

// TracerOption configures the Tracer.
type TracerOption func(*Tracer)

// WithDebugExporter adds a debug exporter for inspection tooling.
func WithDebugExporter(exporter *DebugExporter) TracerOption {
	return func(t *Tracer) {
		t.debugExporter = exporter
	}
}

// WithCapturePayloads enables capturing full request/response attributes on spans.
func WithCapturePayloads(capture bool) TracerOption {
	return func(t *Tracer) {
		t.capturePayload = capture
	}
}

// NewTracer creates a new Tracer from configuration.
func NewTracer(ctx context.Context, cfg *TracingConfig, opts ...TracerOption) (*Tracer, error) {
	if cfg == nil || !cfg.Enabled {
		return nil, nil
	}

	cfg.SetDefaults()

	exporter, err := createExporter(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create exporter: %w", err)
	}

	res, err := resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(cfg.ServiceName),
			semconv.ServiceVersion(cfg.ServiceVersion),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	sampler := sdktrace.TraceIDRatioBased(cfg.SamplingRate)

	providerOpts := []sdktrace.TracerProviderOption{
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sampler),
		sdktrace.WithBatcher(exporter),
	}

	provider := sdktrace.NewTracerProvider(providerOpts...)

	otel.SetTracerProvider(provider)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	t := &Tracer{
		provider:    provider,
		tracer:      provider.Tracer(cfg.ServiceName),
		serviceName: cfg.ServiceName,
	}

	for _, opt := range opts {
		opt(t)
	}

	if t.debugExporter != nil {
		provider.RegisterSpanProcessor(sdktrace.NewSimpleSpanProcessor(t.debugExporter))
	}

	return t, nil
}

// createExporter creates the appropriate span exporter based on configuration.
func createExporter(ctx context.Context, cfg *TracingConfig) (sdktrace.SpanExporter, error) {
	switch cfg.Exporter {
	case "otlp", "jaeger", "zipkin":
		// Jaeger and Zipkin collectors generally accept OTLP/HTTP directly.
		return createOTLPExporter(ctx, cfg)
	case "stdout":
		return nil, fmt.Errorf("stdout exporter requires go.opentelemetry.io/otel/exporters/stdout/stdouttrace, not wired")
	default:
		return nil, fmt.Errorf("unsupported exporter: %s", cfg.Exporter)
	}
}

// createOTLPExporter creates an OTLP/HTTP exporter.
func createOTLPExporter(ctx context.Context, cfg *TracingConfig) (*otlptrace.Exporter, error) {
	opts := []otlptracehttp.Option{
		otlptracehttp.WithEndpoint(cfg.Endpoint),
		otlptracehttp.WithTimeout(cfg.Timeout),
	}

	if cfg.IsInsecure() {
		opts = append(opts, otlptracehttp.WithInsecure())
	}

	if len(cfg.Headers) > 0 {
		opts = append(opts, otlptracehttp.WithHeaders(cfg.Headers))
	}

	client := otlptracehttp.NewClient(opts...)
	return otlptrace.New(ctx, client)
}

// Start begins a new span with the given name.
func (t *Tracer) Start(ctx context.Context, spanName string, opts ...trace.SpanStartOption) (context.Context, trace.Span) {
	if t == nil || t.tracer == nil {
		return ctx, noopSpan()
	}
	return t.tracer.Start(ctx, spanName, opts...)
}

// StartOrchestratorPhase begins a span for one phase of the six-phase pipeline.
func (t *Tracer) StartOrchestratorPhase(ctx context.Context, phase, mode, sessionID string) (context.Context, trace.Span) {
	return t.Start(ctx, SpanOrchestratorPhase,
		trace.WithAttributes(
			attribute.String(AttrOrchestratorPhase, phase),
			attribute.String(AttrOrchestratorMode, mode),
			attribute.String(AttrOrchestratorSessionID, sessionID),
		),
	)
}

// StartRouterDecision begins a span for a bandit routing decision.
func (t *Tracer) StartRouterDecision(ctx context.Context, tier string, featureCount int) (context.Context, trace.Span) {
	return t.Start(ctx, SpanRouterDecision,
		trace.WithAttributes(
			attribute.String(AttrRouterTier, tier),
			attribute.Int("feature_count", featureCount),
		),
	)
}

// StartActorAsk begins a span for an ask() round-trip between actors.
func (t *Tracer) StartActorAsk(ctx context.Context, fromActor, toActor string) (context.Context, trace.Span) {
	return t.Start(ctx, SpanActorAsk,
		trace.WithAttributes(
			attribute.String("from_actor", fromActor),
			attribute.String(AttrActorID, toActor),
		),
	)
}

// StartProxyRequest begins a span for an inbound protocol-mirror proxy request.
func (t *Tracer) StartProxyRequest(ctx context.Context, provider string, streaming bool) (context.Context, trace.Span) {
	return t.Start(ctx, SpanProxyRequest,
		trace.WithAttributes(
			attribute.String(AttrProxyProvider, provider),
			attribute.Bool(AttrProxyStreaming, streaming),
		),
	)
}

// AddRouterCost adds the estimated and actual cost of a routing decision to a span.
func (t *Tracer) AddRouterCost(span trace.Span, confidence, cost float64) {
	if span == nil {
		return
	}
	span.SetAttributes(
		attribute.Float64(AttrRouterConfidence, confidence),
		attribute.Float64("chitragupta.router.cost", cost),
	)
}

// AddProxyUsage adds upstream token usage to a span.
func (t *Tracer) AddProxyUsage(span trace.Span, inputTokens, outputTokens int) {
	if span == nil {
		return
	}
	span.SetAttributes(
		attribute.Int("chitragupta.proxy.input_tokens", inputTokens),
		attribute.Int("chitragupta.proxy.output_tokens", outputTokens),
	)
}

// AddPayload adds serialized request/response payloads to a span, if capture is enabled.
func (t *Tracer) AddPayload(span trace.Span, request, response string) {
	if span == nil || t == nil || !t.capturePayload {
		return
	}
	if request != "" {
		span.SetAttributes(attribute.String("chitragupta.payload.request", request))
	}
	if response != "" {
		span.SetAttributes(attribute.String("chitragupta.payload.response", response))
	}
}

// RecordError records an error on a span.
func (t *Tracer) RecordError(span trace.Span, err error) {
	if span == nil || err == nil {
		return
	}
	span.RecordError(err)
	span.SetAttributes(
		attribute.String(AttrErrorType, fmt.Sprintf("%T", err)),
		attribute.String(AttrErrorMessage, err.Error()),
	)
}

// DebugExporter returns the debug exporter if configured.
func (t *Tracer) DebugExporter() *DebugExporter {
	if t == nil {
		return nil
	}
	return t.debugExporter
}

// Shutdown gracefully shuts down the tracer.
func (t *Tracer) Shutdown(ctx context.Context) error {
	if t == nil || t.provider == nil {
		return nil
	}
	return t.provider.Shutdown(ctx)
}

// noopSpan returns a no-op span that satisfies the trace.Span interface.
func noopSpan() trace.Span {
	_, span := trace.NewNoopTracerProvider().Tracer("noop").Start(context.Background(), "noop")
	return span
}
