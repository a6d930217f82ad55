// SPDX-License-Identifier: AGPL-3.0
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
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics provides Prometheus metrics collection for the orchestration core.
type Metrics struct {
	config   *MetricsConfig
	registry *prometheus.Registry

	// Orchestrator metrics
	orchestratorRuns      *prometheus.CounterVec
	orchestratorPhaseDur  *prometheus.HistogramVec
	orchestratorErrors    *prometheus.CounterVec
	orchestratorActiveRun *prometheus.GaugeVec

	// Router metrics
	routerDecisions  *prometheus.CounterVec
	routerConfidence *prometheus.HistogramVec
	routerCostTotal  *prometheus.CounterVec

	// Mailbox/actor metrics
	mailboxSize     *prometheus.GaugeVec
	mailboxRejected *prometheus.CounterVec
	actorsSpawned   *prometheus.CounterVec
	actorAsksTotal  *prometheus.CounterVec

	// Banker/coordination metrics
	bankerAvailable  *prometheus.GaugeVec
	bankerDenials    *prometheus.CounterVec
	locksHeld        *prometheus.GaugeVec
	deadlocksFound   *prometheus.CounterVec
	deadlocksResolve *prometheus.CounterVec

	// Autonomy metrics
	toolDisabled    *prometheus.GaugeVec
	retriesTotal    *prometheus.CounterVec
	degradedModeOn  *prometheus.GaugeVec
	checkpointSaves *prometheus.CounterVec

	// Proxy metrics
	proxyRequests     *prometheus.CounterVec
	proxyUpstreamDur  *prometheus.HistogramVec
	proxyStreamEvents *prometheus.CounterVec

	// HTTP metrics
	httpRequests     *prometheus.CounterVec
	httpDuration     *prometheus.HistogramVec
	httpRequestSize  *prometheus.HistogramVec
	httpResponseSize *prometheus.HistogramVec
}

// NewMetrics creates a new Metrics instance from configuration.
func NewMetrics(cfg *MetricsConfig) (*Metrics, error) {
	if cfg == nil || !cfg.Enabled {
		return nil, nil
	}

	cfg.SetDefaults()

	m := &Metrics{
		config:   cfg,
		registry: prometheus.NewRegistry(),
	}

	m.initOrchestratorMetrics()
	m.initRouterMetrics()
	m.initMailboxMetrics()
	m.initCoordinationMetrics()
	m.initAutonomyMetrics()
	m.initProxyMetrics()
	m.initHTTPMetrics()

	return m, nil
}

func (m *Metrics) initOrchestratorMetrics() {
	m.orchestratorRuns = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.config.Namespace,
			Subsystem: "orchestrator",
			Name:      "runs_total",
			Help:      "Total number of orchestration pipeline runs",
		},
		[]string{"mode", "success"},
	)

	m.orchestratorPhaseDur = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: m.config.Namespace,
			Subsystem: "orchestrator",
			Name:      "phase_duration_seconds",
			Help:      "Duration of each orchestration phase in seconds",
			Buckets:   prometheus.ExponentialBuckets(0.01, 2, 15),
		},
		[]string{"phase"},
	)

	m.orchestratorErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.config.Namespace,
			Subsystem: "orchestrator",
			Name:      "errors_total",
			Help:      "Total number of phase-scoped orchestration errors",
		},
		[]string{"phase", "recoverable"},
	)

	m.orchestratorActiveRun = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: m.config.Namespace,
			Subsystem: "orchestrator",
			Name:      "active_runs",
			Help:      "Number of currently active orchestration runs",
		},
		[]string{"mode"},
	)

	m.registry.MustRegister(m.orchestratorRuns, m.orchestratorPhaseDur, m.orchestratorErrors, m.orchestratorActiveRun)
}

func (m *Metrics) initRouterMetrics() {
	m.routerDecisions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.config.Namespace,
			Subsystem: "router",
			Name:      "tier_calls_total",
			Help:      "Total number of bandit router decisions per tier",
		},
		[]string{"tier"},
	)

	m.routerConfidence = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: m.config.Namespace,
			Subsystem: "router",
			Name:      "decision_confidence",
			Help:      "Confidence reported with each routing decision",
			Buckets:   prometheus.LinearBuckets(0, 0.1, 11),
		},
		[]string{"tier"},
	)

	m.routerCostTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.config.Namespace,
			Subsystem: "router",
			Name:      "cost_total",
			Help:      "Cumulative estimated cost charged to each tier",
		},
		[]string{"tier"},
	)

	m.registry.MustRegister(m.routerDecisions, m.routerConfidence, m.routerCostTotal)
}

func (m *Metrics) initMailboxMetrics() {
	m.mailboxSize = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: m.config.Namespace,
			Subsystem: "mailbox",
			Name:      "size",
			Help:      "Current number of envelopes queued per actor",
		},
		[]string{"actor_id"},
	)

	m.mailboxRejected = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.config.Namespace,
			Subsystem: "mailbox",
			Name:      "rejected_total",
			Help:      "Total number of envelopes dropped because the mailbox was full",
		},
		[]string{"actor_id"},
	)

	m.actorsSpawned = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.config.Namespace,
			Subsystem: "actor",
			Name:      "spawned_total",
			Help:      "Total number of actors spawned",
		},
		[]string{"expertise"},
	)

	m.actorAsksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.config.Namespace,
			Subsystem: "actor",
			Name:      "asks_total",
			Help:      "Total number of ask() calls by outcome",
		},
		[]string{"outcome"},
	)

	m.registry.MustRegister(m.mailboxSize, m.mailboxRejected, m.actorsSpawned, m.actorAsksTotal)
}

func (m *Metrics) initCoordinationMetrics() {
	m.bankerAvailable = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: m.config.Namespace,
			Subsystem: "banker",
			Name:      "available",
			Help:      "Currently available units per resource",
		},
		[]string{"resource"},
	)

	m.bankerDenials = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.config.Namespace,
			Subsystem: "banker",
			Name:      "denials_total",
			Help:      "Total number of denied resource requests by reason",
		},
		[]string{"reason"},
	)

	m.locksHeld = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: m.config.Namespace,
			Subsystem: "coordination",
			Name:      "locks_held",
			Help:      "Current number of held locks",
		},
		[]string{"resource"},
	)

	m.deadlocksFound = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.config.Namespace,
			Subsystem: "coordination",
			Name:      "deadlocks_found_total",
			Help:      "Total number of wait-for cycles detected",
		},
		[]string{},
	)

	m.deadlocksResolve = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.config.Namespace,
			Subsystem: "coordination",
			Name:      "deadlocks_resolved_total",
			Help:      "Total number of deadlocks resolved by strategy",
		},
		[]string{"strategy"},
	)

	m.registry.MustRegister(m.bankerAvailable, m.bankerDenials, m.locksHeld, m.deadlocksFound, m.deadlocksResolve)
}

func (m *Metrics) initAutonomyMetrics() {
	m.toolDisabled = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: m.config.Namespace,
			Subsystem: "autonomy",
			Name:      "tool_disabled",
			Help:      "1 if the tool is currently disabled, 0 otherwise",
		},
		[]string{"tool"},
	)

	m.retriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.config.Namespace,
			Subsystem: "autonomy",
			Name:      "retries_total",
			Help:      "Total number of retry attempts by error class",
		},
		[]string{"class"},
	)

	m.degradedModeOn = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: m.config.Namespace,
			Subsystem: "autonomy",
			Name:      "degraded_mode",
			Help:      "1 if degraded mode is active, 0 otherwise",
		},
		[]string{},
	)

	m.checkpointSaves = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.config.Namespace,
			Subsystem: "checkpoint",
			Name:      "saves_total",
			Help:      "Total number of checkpoint writes",
		},
		[]string{"session_id"},
	)

	m.registry.MustRegister(m.toolDisabled, m.retriesTotal, m.degradedModeOn, m.checkpointSaves)
}

func (m *Metrics) initProxyMetrics() {
	m.proxyRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.config.Namespace,
			Subsystem: "proxy",
			Name:      "requests_total",
			Help:      "Total number of protocol-mirror proxy requests",
		},
		[]string{"provider", "stream"},
	)

	m.proxyUpstreamDur = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: m.config.Namespace,
			Subsystem: "proxy",
			Name:      "upstream_duration_seconds",
			Help:      "Upstream provider call duration in seconds",
			Buckets:   prometheus.ExponentialBuckets(0.1, 2, 12),
		},
		[]string{"provider"},
	)

	m.proxyStreamEvents = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.config.Namespace,
			Subsystem: "proxy",
			Name:      "stream_events_total",
			Help:      "Total number of translated stream events emitted",
		},
		[]string{"event_type"},
	)

	m.registry.MustRegister(m.proxyRequests, m.proxyUpstreamDur, m.proxyStreamEvents)
}

func (m *Metrics) initHTTPMetrics() {
	m.httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.config.Namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	m.httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: m.config.Namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	m.httpRequestSize = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: m.config.Namespace,
			Subsystem: "http",
			Name:      "request_size_bytes",
			Help:      "HTTP request size in bytes",
			Buckets:   prometheus.ExponentialBuckets(100, 10, 7),
		},
		[]string{"method", "path"},
	)

	m.httpResponseSize = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: m.config.Namespace,
			Subsystem: "http",
			Name:      "response_size_bytes",
			Help:      "HTTP response size in bytes",
			Buckets:   prometheus.ExponentialBuckets(100, 10, 7),
		},
		[]string{"method", "path"},
	)

	m.registry.MustRegister(m.httpRequests, m.httpDuration, m.httpRequestSize, m.httpResponseSize)
}

// =============================================================================
// Orchestrator Metrics
// =============================================================================

// RecordOrchestratorRun records the completion of a pipeline run.
func (m *Metrics) RecordOrchestratorRun(mode string, success bool) {
	if m == nil {
		return
	}
	m.orchestratorRuns.WithLabelValues(mode, boolLabel(success)).Inc()
}

// RecordPhaseDuration records how long a phase took.
func (m *Metrics) RecordPhaseDuration(phase string, d time.Duration) {
	if m == nil {
		return
	}
	m.orchestratorPhaseDur.WithLabelValues(phase).Observe(d.Seconds())
}

// RecordOrchestratorError records a phase-scoped error.
func (m *Metrics) RecordOrchestratorError(phase string, recoverable bool) {
	if m == nil {
		return
	}
	m.orchestratorErrors.WithLabelValues(phase, boolLabel(recoverable)).Inc()
}

// SetActiveRuns sets the number of concurrently active runs for a mode.
func (m *Metrics) SetActiveRuns(mode string, n int) {
	if m == nil {
		return
	}
	m.orchestratorActiveRun.WithLabelValues(mode).Set(float64(n))
}

// =============================================================================
// Router Metrics
// =============================================================================

// RecordRouterDecision records a routing decision.
func (m *Metrics) RecordRouterDecision(tier string, confidence float64, cost float64) {
	if m == nil {
		return
	}
	m.routerDecisions.WithLabelValues(tier).Inc()
	m.routerConfidence.WithLabelValues(tier).Observe(confidence)
	m.routerCostTotal.WithLabelValues(tier).Add(cost)
}

// =============================================================================
// Mailbox / Actor Metrics
// =============================================================================

// SetMailboxSize sets the current mailbox size for an actor.
func (m *Metrics) SetMailboxSize(actorID string, size int) {
	if m == nil {
		return
	}
	m.mailboxSize.WithLabelValues(actorID).Set(float64(size))
}

// RecordMailboxRejected records a dropped push due to a full mailbox.
func (m *Metrics) RecordMailboxRejected(actorID string) {
	if m == nil {
		return
	}
	m.mailboxRejected.WithLabelValues(actorID).Inc()
}

// RecordActorSpawned records an actor spawn.
func (m *Metrics) RecordActorSpawned(expertise string) {
	if m == nil {
		return
	}
	m.actorsSpawned.WithLabelValues(expertise).Inc()
}

// RecordActorAsk records the outcome of an ask() call.
func (m *Metrics) RecordActorAsk(outcome string) {
	if m == nil {
		return
	}
	m.actorAsksTotal.WithLabelValues(outcome).Inc()
}

// =============================================================================
// Coordination Metrics
// =============================================================================

// SetBankerAvailable sets the available units for a resource.
func (m *Metrics) SetBankerAvailable(resource string, available int) {
	if m == nil {
		return
	}
	m.bankerAvailable.WithLabelValues(resource).Set(float64(available))
}

// RecordBankerDenial records a denied resource request.
func (m *Metrics) RecordBankerDenial(reason string) {
	if m == nil {
		return
	}
	m.bankerDenials.WithLabelValues(reason).Inc()
}

// SetLocksHeld sets the number of locks held for a resource key.
func (m *Metrics) SetLocksHeld(resource string, n int) {
	if m == nil {
		return
	}
	m.locksHeld.WithLabelValues(resource).Set(float64(n))
}

// RecordDeadlockFound records a detected wait-for cycle.
func (m *Metrics) RecordDeadlockFound() {
	if m == nil {
		return
	}
	m.deadlocksFound.WithLabelValues().Inc()
}

// RecordDeadlockResolved records a resolved deadlock by strategy.
func (m *Metrics) RecordDeadlockResolved(strategy string) {
	if m == nil {
		return
	}
	m.deadlocksResolve.WithLabelValues(strategy).Inc()
}

// =============================================================================
// Autonomy Metrics
// =============================================================================

// SetToolDisabled records whether a tool is currently disabled.
func (m *Metrics) SetToolDisabled(tool string, disabled bool) {
	if m == nil {
		return
	}
	v := 0.0
	if disabled {
		v = 1.0
	}
	m.toolDisabled.WithLabelValues(tool).Set(v)
}

// RecordRetry records a retry attempt for an error class.
func (m *Metrics) RecordRetry(class string) {
	if m == nil {
		return
	}
	m.retriesTotal.WithLabelValues(class).Inc()
}

// SetDegradedMode records whether degraded mode is active.
func (m *Metrics) SetDegradedMode(active bool) {
	if m == nil {
		return
	}
	v := 0.0
	if active {
		v = 1.0
	}
	m.degradedModeOn.WithLabelValues().Set(v)
}

// RecordCheckpointSave records a checkpoint write for a session.
func (m *Metrics) RecordCheckpointSave(sessionID string) {
	if m == nil {
		return
	}
	m.checkpointSaves.WithLabelValues(sessionID).Inc()
}

// =============================================================================
// Proxy Metrics
// =============================================================================

// RecordProxyRequest records an inbound proxy request.
func (m *Metrics) RecordProxyRequest(provider string, streaming bool) {
	if m == nil {
		return
	}
	m.proxyRequests.WithLabelValues(provider, boolLabel(streaming)).Inc()
}

// RecordProxyUpstreamDuration records the upstream call latency.
func (m *Metrics) RecordProxyUpstreamDuration(provider string, d time.Duration) {
	if m == nil {
		return
	}
	m.proxyUpstreamDur.WithLabelValues(provider).Observe(d.Seconds())
}

// RecordProxyStreamEvent records an emitted translated stream event.
func (m *Metrics) RecordProxyStreamEvent(eventType string) {
	if m == nil {
		return
	}
	m.proxyStreamEvents.WithLabelValues(eventType).Inc()
}

// =============================================================================
// HTTP Metrics
// =============================================================================

// RecordHTTPRequest records an HTTP request.
func (m *Metrics) RecordHTTPRequest(method, path string, statusCode int, duration time.Duration, reqSize, respSize int64) {
	if m == nil {
		return
	}
	status := statusCodeLabel(statusCode)
	m.httpRequests.WithLabelValues(method, path, status).Inc()
	m.httpDuration.WithLabelValues(method, path).Observe(duration.Seconds())
	if reqSize > 0 {
		m.httpRequestSize.WithLabelValues(method, path).Observe(float64(reqSize))
	}
	if respSize > 0 {
		m.httpResponseSize.WithLabelValues(method, path).Observe(float64(respSize))
	}
}

// statusCodeLabel converts a status code to a label string.
func statusCodeLabel(code int) string {
	switch {
	case code >= 200 && code < 300:
		return "2xx"
	case code >= 300 && code < 400:
		return "3xx"
	case code >= 400 && code < 500:
		return "4xx"
	case code >= 500:
		return "5xx"
	default:
		return "unknown"
	}
}

func boolLabel(b bool) string {
	if b {
		return "true"
	}
	return "false"
}

// =============================================================================
// HTTP Handler
// =============================================================================

// Handler returns an HTTP handler for the Prometheus metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry returns the Prometheus registry.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}
