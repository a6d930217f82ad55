package observability

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

var (
	globalRecorder OTelRecorder
	recorderMu     sync.RWMutex
)

// OTelRecorder is an alternate metrics sink built on the OTel metrics API
// (go.opentelemetry.io/otel/metric), used when a deployment pushes metrics
// through an OTLP collector instead of scraping the Prometheus endpoint
// exposed by Metrics.
type OTelRecorder interface {
	RecordOrchestratorRun(ctx context.Context, duration time.Duration, phases int, err error)
	RecordActorAsk(ctx context.Context, actorID string, duration time.Duration, err error)
	RecordProxyUpstreamCall(ctx context.Context, provider string, duration time.Duration, inputTokens, outputTokens int, err error)

	// HTTP metrics
	RecordHTTPRequest(ctx context.Context, method, path string, statusCode int, duration time.Duration, responseSize int)

	// Mailbox dispatch metrics
	RecordMailboxDispatch(ctx context.Context, actorID, lane string, duration time.Duration, err error)

	// Checkpoint / session KPI metrics
	RecordCheckpointSave(ctx context.Context, sessionID string, duration time.Duration, successful bool)
	RecordOrchestratorPhase(ctx context.Context, phase string, count int)
}

// OTelMetricsRecorder implements OTelRecorder with OTel metric instruments.
type OTelMetricsRecorder struct {
	orchestratorDuration   metric.Float64Histogram
	orchestratorRunsTotal  metric.Int64Counter
	orchestratorErrsTotal  metric.Int64Counter
	orchestratorPhaseCount metric.Int64Counter

	actorDuration    metric.Float64Histogram
	actorAsksTotal   metric.Int64Counter
	actorErrorsTotal metric.Int64Counter

	proxyDuration       metric.Float64Histogram
	proxyInputTokens    metric.Int64Counter
	proxyOutputTokens   metric.Int64Counter
	proxyErrorsTotal    metric.Int64Counter

	// HTTP metrics
	httpRequestsTotal metric.Int64Counter
	httpDuration      metric.Float64Histogram
	httpResponseSize  metric.Int64Histogram

	// Mailbox metrics
	mailboxDispatchTotal  metric.Int64Counter
	mailboxDispatchDur    metric.Float64Histogram
	mailboxDispatchErrors metric.Int64Counter

	// Checkpoint / phase KPI metrics
	checkpointDuration metric.Float64Histogram
	checkpointTotal    metric.Int64Counter
	orchestratorPhases metric.Int64Histogram
}

func NewOTelMetricsRecorder(
	orchestratorDuration metric.Float64Histogram,
	orchestratorRunsTotal metric.Int64Counter,
	orchestratorErrsTotal metric.Int64Counter,
	orchestratorPhaseCount metric.Int64Counter,
	actorDuration metric.Float64Histogram,
	actorAsksTotal metric.Int64Counter,
	actorErrorsTotal metric.Int64Counter,
	proxyDuration metric.Float64Histogram,
	proxyInputTokens metric.Int64Counter,
	proxyOutputTokens metric.Int64Counter,
	proxyErrorsTotal metric.Int64Counter,
	httpRequestsTotal metric.Int64Counter,
	httpDuration metric.Float64Histogram,
	httpResponseSize metric.Int64Histogram,
	mailboxDispatchTotal metric.Int64Counter,
	mailboxDispatchDur metric.Float64Histogram,
	mailboxDispatchErrors metric.Int64Counter,
	checkpointDuration metric.Float64Histogram,
	checkpointTotal metric.Int64Counter,
	orchestratorPhases metric.Int64Histogram,
) *OTelMetricsRecorder {
	return &OTelMetricsRecorder{
		orchestratorDuration:   orchestratorDuration,
		orchestratorRunsTotal:  orchestratorRunsTotal,
		orchestratorErrsTotal:  orchestratorErrsTotal,
		orchestratorPhaseCount: orchestratorPhaseCount,
		actorDuration:          actorDuration,
		actorAsksTotal:         actorAsksTotal,
		actorErrorsTotal:       actorErrorsTotal,
		proxyDuration:          proxyDuration,
		proxyInputTokens:       proxyInputTokens,
		proxyOutputTokens:      proxyOutputTokens,
		proxyErrorsTotal:       proxyErrorsTotal,
		httpRequestsTotal:      httpRequestsTotal,
		httpDuration:           httpDuration,
		httpResponseSize:       httpResponseSize,
		mailboxDispatchTotal:   mailboxDispatchTotal,
		mailboxDispatchDur:     mailboxDispatchDur,
		mailboxDispatchErrors:  mailboxDispatchErrors,
		checkpointDuration:     checkpointDuration,
		checkpointTotal:        checkpointTotal,
		orchestratorPhases:     orchestratorPhases,
	}
}

// RecordOrchestratorRun records the completion of a full pipeline run.
func (m *OTelMetricsRecorder) RecordOrchestratorRun(ctx context.Context, duration time.Duration, phases int, err error) {
	if m == nil || m.orchestratorDuration == nil || m.orchestratorRunsTotal == nil {
		return
	}

	m.orchestratorDuration.Record(ctx, duration.Seconds())
	m.orchestratorRunsTotal.Add(ctx, 1)

	if phases > 0 && m.orchestratorPhaseCount != nil {
		m.orchestratorPhaseCount.Add(ctx, int64(phases))
	}

	if err != nil && m.orchestratorErrsTotal != nil {
		m.orchestratorErrsTotal.Add(ctx, 1)
	}
}

// RecordActorAsk records the duration of a single ask() round-trip.
func (m *OTelMetricsRecorder) RecordActorAsk(ctx context.Context, actorID string, duration time.Duration, err error) {
	if m == nil || m.actorDuration == nil || m.actorAsksTotal == nil {
		return
	}

	attrs := []attribute.KeyValue{
		attribute.String("actor_id", actorID),
	}

	m.actorDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(attrs...))
	m.actorAsksTotal.Add(ctx, 1, metric.WithAttributes(attrs...))

	if err != nil && m.actorErrorsTotal != nil {
		m.actorErrorsTotal.Add(ctx, 1, metric.WithAttributes(attrs...))
	}
}

// RecordProxyUpstreamCall records an upstream provider call made through the proxy.
func (m *OTelMetricsRecorder) RecordProxyUpstreamCall(ctx context.Context, provider string, duration time.Duration, inputTokens, outputTokens int, err error) {
	if m == nil || m.proxyDuration == nil || m.proxyInputTokens == nil || m.proxyOutputTokens == nil {
		return
	}

	attrs := []attribute.KeyValue{
		attribute.String("provider", provider),
	}

	m.proxyDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(attrs...))
	m.proxyInputTokens.Add(ctx, int64(inputTokens), metric.WithAttributes(attrs...))
	m.proxyOutputTokens.Add(ctx, int64(outputTokens), metric.WithAttributes(attrs...))

	if err != nil && m.proxyErrorsTotal != nil {
		m.proxyErrorsTotal.Add(ctx, 1, metric.WithAttributes(attrs...))
	}
}

func SetGlobalRecorder(m OTelRecorder) {
	recorderMu.Lock()
	defer recorderMu.Unlock()
	globalRecorder = m
}

func GetGlobalRecorder() OTelRecorder {
	recorderMu.RLock()
	defer recorderMu.RUnlock()
	if globalRecorder == nil {
		return &NoopOTelRecorder{}
	}
	return globalRecorder
}

// RecordHTTPRequest records HTTP request metrics.
func (m *OTelMetricsRecorder) RecordHTTPRequest(ctx context.Context, method, path string, statusCode int, duration time.Duration, responseSize int) {
	if m == nil || m.httpRequestsTotal == nil || m.httpDuration == nil {
		return
	}

	attrs := []attribute.KeyValue{
		attribute.String("method", method),
		attribute.String("path", path),
		attribute.Int("status_code", statusCode),
	}

	m.httpRequestsTotal.Add(ctx, 1, metric.WithAttributes(attrs...))
	m.httpDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(attrs...))

	if m.httpResponseSize != nil && responseSize > 0 {
		m.httpResponseSize.Record(ctx, int64(responseSize), metric.WithAttributes(attrs...))
	}
}

// RecordMailboxDispatch records the dispatcher delivering one envelope from a lane.
func (m *OTelMetricsRecorder) RecordMailboxDispatch(ctx context.Context, actorID, lane string, duration time.Duration, err error) {
	if m == nil || m.mailboxDispatchTotal == nil || m.mailboxDispatchDur == nil {
		return
	}

	attrs := []attribute.KeyValue{
		attribute.String("actor_id", actorID),
		attribute.String("lane", lane),
	}

	m.mailboxDispatchTotal.Add(ctx, 1, metric.WithAttributes(attrs...))
	m.mailboxDispatchDur.Record(ctx, duration.Seconds(), metric.WithAttributes(attrs...))

	if err != nil && m.mailboxDispatchErrors != nil {
		m.mailboxDispatchErrors.Add(ctx, 1, metric.WithAttributes(attrs...))
	}
}

// RecordCheckpointSave records a checkpoint write for business-level KPIs.
func (m *OTelMetricsRecorder) RecordCheckpointSave(ctx context.Context, sessionID string, duration time.Duration, successful bool) {
	if m == nil || m.checkpointTotal == nil || m.checkpointDuration == nil {
		return
	}

	attrs := []attribute.KeyValue{
		attribute.String("session_id", sessionID),
		attribute.Bool("successful", successful),
	}

	m.checkpointTotal.Add(ctx, 1, metric.WithAttributes(attrs...))
	m.checkpointDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(attrs...))
}

// RecordOrchestratorPhase records how many times a named phase ran in a session.
func (m *OTelMetricsRecorder) RecordOrchestratorPhase(ctx context.Context, phase string, count int) {
	if m == nil || m.orchestratorPhases == nil {
		return
	}

	attrs := []attribute.KeyValue{
		attribute.String("phase", phase),
	}

	m.orchestratorPhases.Record(ctx, int64(count), metric.WithAttributes(attrs...))
}
