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

// Package observability provides OpenTelemetry tracing and Prometheus metrics
// for the orchestration core.
//
// # Architecture
//
// The observability system has three main components:
//
//  1. Tracing: OpenTelemetry spans with OTLP export
//  2. Metrics: Prometheus counters and histograms
//  3. Debug: In-memory span capture for inspection tooling
//
// # Configuration
//
//	observability:
//	  tracing:
//	    enabled: true
//	    exporter: otlp
//	    endpoint: localhost:4317
//	    sampling_rate: 1.0
//	    service_name: chitragupta
//	  metrics:
//	    enabled: true
//	    endpoint: /metrics
package observability

// =============================================================================
// Service Attributes (OpenTelemetry Semantic Conventions)
// =============================================================================

const (
	AttrServiceName     = "service.name"
	AttrServiceVersion  = "service.version"
	AttrServiceInstance = "service.instance.id"
)

// =============================================================================
// Orchestrator / Router / Actor Attributes
// =============================================================================

const (
	// AttrOrchestratorMode identifies the mode of an orchestration run.
	AttrOrchestratorMode = "chitragupta.orchestrator.mode"

	// AttrOrchestratorPhase is the current six-phase pipeline phase.
	AttrOrchestratorPhase = "chitragupta.orchestrator.phase"

	// AttrOrchestratorSessionID is the session ID being orchestrated.
	AttrOrchestratorSessionID = "chitragupta.session_id"

	// AttrRouterTier is the tier a bandit decision routed to.
	AttrRouterTier = "chitragupta.router.tier"

	// AttrRouterConfidence is the confidence reported with a routing decision.
	AttrRouterConfidence = "chitragupta.router.confidence"

	// AttrActorID identifies an actor in the mailbox/dispatcher system.
	AttrActorID = "chitragupta.actor.id"

	// AttrActorExpertise is the declared expertise tag of an actor.
	AttrActorExpertise = "chitragupta.actor.expertise"

	// AttrMailboxLane is the priority lane an envelope traveled through.
	AttrMailboxLane = "chitragupta.mailbox.lane"

	// AttrBankerResource names the resource class a Banker's-algorithm
	// request concerns.
	AttrBankerResource = "chitragupta.banker.resource"

	// AttrProxyProvider is the upstream provider alias a proxy request mirrored.
	AttrProxyProvider = "chitragupta.proxy.provider"

	// AttrProxyStreaming indicates whether a proxy request used SSE streaming.
	AttrProxyStreaming = "chitragupta.proxy.streaming"
)

// =============================================================================
// HTTP Attributes
// =============================================================================

const (
	AttrHTTPMethod       = "http.method"
	AttrHTTPPath         = "http.route"
	AttrHTTPStatusCode   = "http.status_code"
	AttrHTTPRequestSize  = "http.request.body.size"
	AttrHTTPResponseSize = "http.response.body.size"
)

// =============================================================================
// Error Attributes
// =============================================================================

const (
	AttrErrorType    = "error.type"
	AttrErrorMessage = "error.message"
)

// =============================================================================
// Span Names
// =============================================================================

const (
	// SpanOrchestratorPhase is a span covering one phase of the pipeline.
	SpanOrchestratorPhase = "chitragupta.orchestrator.phase"

	// SpanRouterDecision is a span covering one bandit routing decision.
	SpanRouterDecision = "chitragupta.router.decide"

	// SpanActorAsk is a span covering one ask() round-trip between actors.
	SpanActorAsk = "chitragupta.actor.ask"

	// SpanProxyRequest is a span covering one inbound proxy request.
	SpanProxyRequest = "chitragupta.proxy.request"

	// SpanHTTPRequest is a span for HTTP request handling.
	SpanHTTPRequest = "chitragupta.http.request"
)

// =============================================================================
// Default Values
// =============================================================================

const (
	DefaultServiceName  = "chitragupta"
	DefaultSamplingRate = 1.0
	DefaultOTLPEndpoint = "localhost:4317"
	DefaultMetricsPath  = "/metrics"
)
