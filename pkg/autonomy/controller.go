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

package autonomy

import (
	"sync"
	"time"

	"github.com/sriinnu/chitragupta-sub012/pkg/message"
)

// EventType names a best-effort autonomy lifecycle event.
type EventType string

const (
	EventErrorClassified EventType = "autonomy:error_classified"
	EventRetry           EventType = "autonomy:retry"
	EventToolDisabled    EventType = "autonomy:tool_disabled"
	EventToolReenabled   EventType = "autonomy:tool_reenabled"
)

// Event is a best-effort autonomy notification.
type Event struct {
	Type      EventType
	Detail    string
	Timestamp time.Time
}

// DisableThreshold is the default consecutive-failure count that
// disables a tool.
const DisableThreshold = 3

type toolState struct {
	consecutiveFailures int
	disabled            bool
}

type turnRecord struct {
	latency time.Duration
	errored bool
}

// metricsRecorder is the subset of pkg/observability.Metrics the
// controller exercises, duck-typed to avoid importing that package.
type metricsRecorder interface {
	SetToolDisabled(tool string, disabled bool)
	RecordRetry(class string)
	SetDegradedMode(active bool)
}

type noopRecorder struct{}

func (noopRecorder) SetToolDisabled(string, bool) {}
func (noopRecorder) RecordRetry(string)           {}
func (noopRecorder) SetDegradedMode(bool)         {}

// Controller is the autonomy state machine: tool circuit breaker,
// degraded-mode tracking, turn metrics and context recovery.
type Controller struct {
	mu sync.Mutex

	threshold int
	tools     map[string]*toolState

	degraded map[string]bool

	ringSize int
	turns    []turnRecord

	lastSnapshot *message.State

	startedAt time.Time
	onEvent   func(Event)
	metrics   metricsRecorder
}

// Option configures a Controller at construction.
type Option func(*Controller)

// WithThreshold overrides DisableThreshold.
func WithThreshold(n int) Option {
	return func(c *Controller) { c.threshold = n }
}

// WithRingSize bounds the turn-metrics ring buffer (default 200).
func WithRingSize(n int) Option {
	return func(c *Controller) { c.ringSize = n }
}

// WithEventHandler registers a best-effort callback for lifecycle events.
func WithEventHandler(fn func(Event)) Option {
	return func(c *Controller) { c.onEvent = fn }
}

// WithMetrics wires a metrics recorder (typically *observability.Metrics).
func WithMetrics(m metricsRecorder) Option {
	return func(c *Controller) { c.metrics = m }
}

// New creates a Controller.
func New(opts ...Option) *Controller {
	c := &Controller{
		threshold: DisableThreshold,
		tools:     make(map[string]*toolState),
		degraded:  make(map[string]bool),
		ringSize:  200,
		startedAt: time.Now(),
		metrics:   noopRecorder{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Controller) emit(t EventType, tool, detail string) {
	if c.onEvent == nil {
		return
	}
	if tool != "" && detail == "" {
		detail = tool
	}
	c.onEvent(Event{Type: t, Detail: detail, Timestamp: time.Now()})
}

// OnToolUsed records the outcome of invoking a tool. A run of threshold
// consecutive failures disables it; its first subsequent success
// re-enables it and resets the counter.
func (c *Controller) OnToolUsed(name string, failed bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	st, ok := c.tools[name]
	if !ok {
		st = &toolState{}
		c.tools[name] = st
	}

	if failed {
		st.consecutiveFailures++
		if !st.disabled && st.consecutiveFailures >= c.threshold {
			st.disabled = true
			c.metrics.SetToolDisabled(name, true)
			c.emit(EventToolDisabled, name, "")
		}
		return
	}

	wasDisabled := st.disabled
	st.consecutiveFailures = 0
	st.disabled = false
	if wasDisabled {
		c.metrics.SetToolDisabled(name, false)
		c.emit(EventToolReenabled, name, "")
	}
}

// IsToolDisabled reports whether name is currently circuit-broken.
func (c *Controller) IsToolDisabled(name string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	st, ok := c.tools[name]
	return ok && st.disabled
}

// GetDisabledTools returns every currently-disabled tool name.
func (c *Controller) GetDisabledTools() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	var names []string
	for name, st := range c.tools {
		if st.disabled {
			names = append(names, name)
		}
	}
	return names
}

// EnterDegradedMode adds reason to the active degradation-reason set.
func (c *Controller) EnterDegradedMode(reason string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	wasActive := len(c.degraded) > 0
	c.degraded[reason] = true
	if !wasActive {
		c.metrics.SetDegradedMode(true)
	}
}

// ExitDegradedMode removes reason from the active set; degraded mode is
// active iff the set is non-empty.
func (c *Controller) ExitDegradedMode(reason string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.degraded, reason)
	if len(c.degraded) == 0 {
		c.metrics.SetDegradedMode(false)
	}
}

// IsDegraded reports whether any degradation reason is currently active.
func (c *Controller) IsDegraded() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.degraded) > 0
}

// BeforeTurn captures state as the last-known-good snapshot, consulted
// by RecoverContext when no valid message prefix can be found.
func (c *Controller) BeforeTurn(state *message.State) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lastSnapshot = state.Clone()
}

// RecordTurn appends one turn's outcome to the metrics ring buffer.
func (c *Controller) RecordTurn(latency time.Duration, errored bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.turns = append(c.turns, turnRecord{latency: latency, errored: errored})
	if len(c.turns) > c.ringSize {
		c.turns = c.turns[len(c.turns)-c.ringSize:]
	}
}

// HealthReport summarizes turn metrics and active degradation reasons.
type HealthReport struct {
	AvgLatency         time.Duration
	ErrorRate          float64
	TotalTurns         int
	TotalErrors        int
	Uptime             time.Duration
	DegradationReasons []string
}

// GetHealthReport computes the current health summary.
func (c *Controller) GetHealthReport() HealthReport {
	c.mu.Lock()
	defer c.mu.Unlock()

	report := HealthReport{
		TotalTurns: len(c.turns),
		Uptime:     time.Since(c.startedAt),
	}
	if len(c.turns) == 0 {
		for reason := range c.degraded {
			report.DegradationReasons = append(report.DegradationReasons, reason)
		}
		return report
	}

	var totalLatency time.Duration
	for _, t := range c.turns {
		totalLatency += t.latency
		if t.errored {
			report.TotalErrors++
		}
	}
	report.AvgLatency = totalLatency / time.Duration(len(c.turns))
	report.ErrorRate = float64(report.TotalErrors) / float64(len(c.turns))
	for reason := range c.degraded {
		report.DegradationReasons = append(report.DegradationReasons, reason)
	}
	return report
}
