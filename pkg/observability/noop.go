// SPDX-License-Identifier: AGPL-3.0
// Copyright 2025 Kadir Pekel
//
// Licensed under the GNU Affero General Public License v3.0 (AGPL-3.0) (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://www.gnu.org/licenses/agpl-3.0.en.html
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package observability

import (
	"context"
	"net/http"
	"time"

	"go.opentelemetry.io/otel/trace"
)

// =============================================================================
// No-op Manager
// =============================================================================

// NoopManager returns a no-operation Manager that does nothing.
// Use this when observability is completely disabled.
func NoopManager() *Manager {
	return &Manager{}
}

// =============================================================================
// No-op Tracer
// =============================================================================

// NoopTracer returns a no-operation Tracer.
type NoopTracer struct{}

// Start returns a no-op span.
func (NoopTracer) Start(ctx context.Context, _ string, _ ...trace.SpanStartOption) (context.Context, trace.Span) {
	return ctx, noopSpan()
}

// StartOrchestratorPhase returns a no-op span.
func (NoopTracer) StartOrchestratorPhase(ctx context.Context, _, _, _ string) (context.Context, trace.Span) {
	return ctx, noopSpan()
}

// StartRouterDecision returns a no-op span.
func (NoopTracer) StartRouterDecision(ctx context.Context, _ string, _ int) (context.Context, trace.Span) {
	return ctx, noopSpan()
}

// StartActorAsk returns a no-op span.
func (NoopTracer) StartActorAsk(ctx context.Context, _, _ string) (context.Context, trace.Span) {
	return ctx, noopSpan()
}

// StartProxyRequest returns a no-op span.
func (NoopTracer) StartProxyRequest(ctx context.Context, _ string, _ bool) (context.Context, trace.Span) {
	return ctx, noopSpan()
}

// AddRouterCost is a no-op.
func (NoopTracer) AddRouterCost(_ trace.Span, _, _ float64) {}

// AddProxyUsage is a no-op.
func (NoopTracer) AddProxyUsage(_ trace.Span, _, _ int) {}

// AddPayload is a no-op.
func (NoopTracer) AddPayload(_ trace.Span, _, _ string) {}

// RecordError is a no-op.
func (NoopTracer) RecordError(_ trace.Span, _ error) {}

// DebugExporter returns nil.
func (NoopTracer) DebugExporter() *DebugExporter { return nil }

// Shutdown is a no-op.
func (NoopTracer) Shutdown(_ context.Context) error { return nil }

// =============================================================================
// No-op Metrics
// =============================================================================

// NoopMetrics is a metrics implementation that does nothing.
type NoopMetrics struct{}

func (NoopMetrics) RecordOrchestratorRun(_ string, _ bool)           {}
func (NoopMetrics) RecordPhaseDuration(_ string, _ time.Duration)    {}
func (NoopMetrics) RecordOrchestratorError(_ string, _ bool)         {}
func (NoopMetrics) SetActiveRuns(_ string, _ int)                    {}
func (NoopMetrics) RecordRouterDecision(_ string, _ float64, _ float64) {}
func (NoopMetrics) SetMailboxSize(_ string, _ int)                   {}
func (NoopMetrics) RecordMailboxRejected(_ string)                   {}
func (NoopMetrics) RecordActorSpawned(_ string)                      {}
func (NoopMetrics) RecordActorAsk(_ string)                          {}
func (NoopMetrics) SetBankerAvailable(_ string, _ int)                {}
func (NoopMetrics) RecordBankerDenial(_ string)                      {}
func (NoopMetrics) SetLocksHeld(_ string, _ int)                     {}
func (NoopMetrics) RecordDeadlockFound()                             {}
func (NoopMetrics) RecordDeadlockResolved(_ string)                  {}
func (NoopMetrics) SetToolDisabled(_ string, _ bool)                 {}
func (NoopMetrics) RecordRetry(_ string)                             {}
func (NoopMetrics) SetDegradedMode(_ bool)                           {}
func (NoopMetrics) RecordCheckpointSave(_ string)                    {}
func (NoopMetrics) RecordProxyRequest(_ string, _ bool)              {}
func (NoopMetrics) RecordProxyUpstreamDuration(_ string, _ time.Duration) {}
func (NoopMetrics) RecordProxyStreamEvent(_ string)                  {}
func (NoopMetrics) RecordHTTPRequest(_, _ string, _ int, _ time.Duration, _, _ int64) {}

// Handler returns a handler that returns 503 Service Unavailable.
func (NoopMetrics) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("metrics not enabled"))
	})
}

// =============================================================================
// Recorder Interface
// =============================================================================

// Recorder defines the interface for recording metrics.
// This allows for dependency injection and easier testing.
type Recorder interface {
	RecordOrchestratorRun(mode string, success bool)
	RecordPhaseDuration(phase string, d time.Duration)
	RecordOrchestratorError(phase string, recoverable bool)
	SetActiveRuns(mode string, n int)

	RecordRouterDecision(tier string, confidence float64, cost float64)

	SetMailboxSize(actorID string, size int)
	RecordMailboxRejected(actorID string)
	RecordActorSpawned(expertise string)
	RecordActorAsk(outcome string)

	SetBankerAvailable(resource string, available int)
	RecordBankerDenial(reason string)
	SetLocksHeld(resource string, n int)
	RecordDeadlockFound()
	RecordDeadlockResolved(strategy string)

	SetToolDisabled(tool string, disabled bool)
	RecordRetry(class string)
	SetDegradedMode(active bool)
	RecordCheckpointSave(sessionID string)

	RecordProxyRequest(provider string, streaming bool)
	RecordProxyUpstreamDuration(provider string, d time.Duration)
	RecordProxyStreamEvent(eventType string)

	RecordHTTPRequest(method, path string, statusCode int, duration time.Duration, reqSize, respSize int64)
}

// Ensure implementations satisfy the interface.
var (
	_ Recorder = (*Metrics)(nil)
	_ Recorder = NoopMetrics{}
)

// NoopOTelRecorder is an OTelRecorder implementation that does nothing.
type NoopOTelRecorder struct{}

func (NoopOTelRecorder) RecordOrchestratorRun(_ context.Context, _ time.Duration, _ int, _ error) {}
func (NoopOTelRecorder) RecordActorAsk(_ context.Context, _ string, _ time.Duration, _ error)     {}
func (NoopOTelRecorder) RecordProxyUpstreamCall(_ context.Context, _ string, _ time.Duration, _, _ int, _ error) {
}
func (NoopOTelRecorder) RecordHTTPRequest(_ context.Context, _, _ string, _ int, _ time.Duration, _ int) {
}
func (NoopOTelRecorder) RecordMailboxDispatch(_ context.Context, _, _ string, _ time.Duration, _ error) {
}
func (NoopOTelRecorder) RecordCheckpointSave(_ context.Context, _ string, _ time.Duration, _ bool) {}
func (NoopOTelRecorder) RecordOrchestratorPhase(_ context.Context, _ string, _ int)                {}

var _ OTelRecorder = NoopOTelRecorder{}
