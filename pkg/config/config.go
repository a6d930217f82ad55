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

// Package config loads and aggregates the YAML configuration for every
// component of the system: the bandit router, the context compactor, the
// checkpoint manager, the orchestrator pipeline, the protocol-mirror
// proxy, the Banker's-algorithm allocator, the actor/mailbox layer, the
// agent registry, and observability.
//
// Example config:
//
//	server:
//	  host: 0.0.0.0
//	  port: 8080
//
//	router:
//	  alpha: 1.0
//
//	proxy:
//	  auth_secret: ${PROXY_AUTH_SECRET}
//	  providers:
//	    - name: anthropic
//	      base_url: https://api.anthropic.com/v1/messages
//	      api_key_env: ANTHROPIC_API_KEY
//	      format: passthrough
//	  aliases:
//	    default: anthropic/claude-sonnet-4-20250514
package config

import (
	"fmt"
	"time"

	"github.com/sriinnu/chitragupta-sub012/pkg/checkpoint"
	"github.com/sriinnu/chitragupta-sub012/pkg/llmproxy"
	"github.com/sriinnu/chitragupta-sub012/pkg/observability"
	"github.com/sriinnu/chitragupta-sub012/pkg/proxy"
	"github.com/sriinnu/chitragupta-sub012/pkg/ratelimit"
	"github.com/sriinnu/chitragupta-sub012/pkg/router"
)

// ServerConfig configures the HTTP listener serving the proxy and any
// control-plane endpoints.
type ServerConfig struct {
	// Host to bind to. Default: "0.0.0.0"
	Host string `yaml:"host,omitempty"`
	// Port to listen on. Default: 8080
	Port int `yaml:"port,omitempty"`
}

// SetDefaults fills unset ServerConfig fields with their defaults.
func (c *ServerConfig) SetDefaults() {
	if c.Host == "" {
		c.Host = "0.0.0.0"
	}
	if c.Port == 0 {
		c.Port = 8080
	}
}

// CompactConfig mirrors the scalar tunables of pkg/compact.Config. The
// Summarizer field isn't YAML-serializable and is wired programmatically
// via ToCompactConfig.
type CompactConfig struct {
	RecentMessageCount     int `yaml:"recent_message_count,omitempty"`
	HardRecentMessageCount int `yaml:"hard_recent_message_count,omitempty"`
	MinKeepLast            int `yaml:"min_keep_last,omitempty"`
	ToolResultTruncateLen  int `yaml:"tool_result_truncate_len,omitempty"`
	SummaryCharBudget      int `yaml:"summary_char_budget,omitempty"`
}

// OrchestratorConfig mirrors the scalar tunables of pkg/orchestrator.Config.
// The callback fields (OnApproval, OnProgress, CommitMessage) aren't
// YAML-serializable and must be set by the caller after ToOrchestratorConfig.
type OrchestratorConfig struct {
	Mode                string `yaml:"mode,omitempty"`
	BranchPrefix        string `yaml:"branch_prefix,omitempty"`
	MaxDebugCycles      int    `yaml:"max_debug_cycles,omitempty"`
	MaxReviewCycles     int    `yaml:"max_review_cycles,omitempty"`
	MinReviewSeverity   string `yaml:"min_review_severity,omitempty"`
	MaxReviewIssues     int    `yaml:"max_review_issues,omitempty"`
	DiffPreviewMaxChars int    `yaml:"diff_preview_max_chars,omitempty"`
	TimeoutMs           int64  `yaml:"timeout_ms,omitempty"`
}

// BankerConfig declares the named resources and their totals registered
// with the allocator at startup.
type BankerConfig struct {
	Resources map[string]int `yaml:"resources,omitempty"`
}

// AutonomyConfig mirrors the scalar tunables exposed via autonomy.Option.
type AutonomyConfig struct {
	// Threshold is the consecutive-failure count that disables a tool.
	// Default: 3
	Threshold int `yaml:"threshold,omitempty"`
	// RingSize bounds the recent-turn ring buffer used for health reports.
	// Default: 50
	RingSize int `yaml:"ring_size,omitempty"`
}

// RegistryConfig configures the agent registry.
type RegistryConfig struct {
	// MaxAgents bounds concurrent registrations. Zero means unbounded.
	MaxAgents int `yaml:"max_agents,omitempty"`
	// HeartbeatTimeout is the default Sweep staleness window.
	// Default: 60s
	HeartbeatTimeout time.Duration `yaml:"heartbeat_timeout,omitempty"`
}

// ActorConfig configures the actor/mailbox dispatcher.
type ActorConfig struct {
	// DefaultMailboxMax bounds mailbox depth for actors spawned without an
	// explicit override. Zero means unbounded.
	DefaultMailboxMax int `yaml:"default_mailbox_max,omitempty"`
	// Redis, when Enabled, persists each actor's mailbox to Redis so a
	// restarted process can recover undelivered envelopes.
	Redis RedisMailboxConfig `yaml:"redis,omitempty"`
}

// RedisMailboxConfig configures the optional Redis-backed mailbox
// persistence hook.
type RedisMailboxConfig struct {
	Enabled  bool          `yaml:"enabled,omitempty"`
	Addr     string        `yaml:"addr,omitempty"`
	Password string        `yaml:"password,omitempty"`
	DB       int           `yaml:"db,omitempty"`
	TTL      time.Duration `yaml:"ttl,omitempty"`
}

// LocksConfig configures the coordination lock table.
type LocksConfig struct {
	// MaxHoldTime bounds how long a lock may be held before SweepExpired
	// reclaims it. Zero disables expiry.
	MaxHoldTime time.Duration `yaml:"max_hold_time,omitempty"`
}

// ProxyConfig aggregates the protocol-mirror proxy's server tuning with
// its provider catalog and alias table.
type ProxyConfig struct {
	proxy.Config `yaml:",inline"`
	Providers    []llmproxy.Provider `yaml:"providers,omitempty"`
	Aliases      map[string]string   `yaml:"aliases,omitempty"`
}

// RatelimitConfig configures the two-layer request shaping in front of
// the proxy's upstream calls: a per-identifier token bucket for bursts,
// plus the fixed-window quota rules.
type RatelimitConfig struct {
	ratelimit.Config  `yaml:",inline"`
	BurstRatePerSecond float64 `yaml:"burst_rate_per_second,omitempty"`
	BurstSize          int     `yaml:"burst_size,omitempty"`
}

// Config is the root configuration for the whole system.
type Config struct {
	Server        ServerConfig           `yaml:"server,omitempty"`
	Observability *observability.Config  `yaml:"observability,omitempty"`
	Checkpoint    *checkpoint.Config     `yaml:"checkpoint,omitempty"`
	Router        router.Config          `yaml:"router,omitempty"`
	// RouterTierCostsFile, when set, overrides Router.TierCosts from a
	// standalone TOML profile instead of inline YAML, so an operator can
	// swap in per-environment pricing without touching the main config.
	RouterTierCostsFile string                 `yaml:"router_tier_costs_file,omitempty"`
	Compact             CompactConfig          `yaml:"compact,omitempty"`
	Orchestrator        OrchestratorConfig     `yaml:"orchestrator,omitempty"`
	Proxy         ProxyConfig            `yaml:"proxy,omitempty"`
	Ratelimit     RatelimitConfig        `yaml:"ratelimit,omitempty"`
	Banker        BankerConfig           `yaml:"banker,omitempty"`
	Autonomy      AutonomyConfig         `yaml:"autonomy,omitempty"`
	Registry      RegistryConfig         `yaml:"registry,omitempty"`
	Actor         ActorConfig            `yaml:"actor,omitempty"`
	Locks         LocksConfig            `yaml:"locks,omitempty"`
}

// SetDefaults applies default values across every component config.
func (c *Config) SetDefaults() {
	c.Server.SetDefaults()
	if c.Observability == nil {
		c.Observability = &observability.Config{}
	}
	c.Observability.SetDefaults()
	if c.Checkpoint == nil {
		c.Checkpoint = &checkpoint.Config{}
	}
	c.Checkpoint.SetDefaults()
	c.Router.SetDefaults()

	if c.Compact.RecentMessageCount == 0 {
		c.Compact.RecentMessageCount = 20
	}
	if c.Compact.HardRecentMessageCount == 0 {
		c.Compact.HardRecentMessageCount = 10
	}
	if c.Compact.MinKeepLast == 0 {
		c.Compact.MinKeepLast = 5
	}
	if c.Compact.ToolResultTruncateLen == 0 {
		c.Compact.ToolResultTruncateLen = 100
	}
	if c.Compact.SummaryCharBudget == 0 {
		c.Compact.SummaryCharBudget = 2000
	}

	if c.Orchestrator.Mode == "" {
		c.Orchestrator.Mode = "full"
	}
	if c.Orchestrator.BranchPrefix == "" {
		c.Orchestrator.BranchPrefix = "auto/"
	}
	if c.Orchestrator.MaxDebugCycles == 0 {
		c.Orchestrator.MaxDebugCycles = 3
	}
	if c.Orchestrator.MaxReviewCycles == 0 {
		c.Orchestrator.MaxReviewCycles = 2
	}
	if c.Orchestrator.MinReviewSeverity == "" {
		c.Orchestrator.MinReviewSeverity = "warning"
	}
	if c.Orchestrator.MaxReviewIssues == 0 {
		c.Orchestrator.MaxReviewIssues = 10
	}
	if c.Orchestrator.DiffPreviewMaxChars == 0 {
		c.Orchestrator.DiffPreviewMaxChars = 8000
	}

	if c.Proxy.MaxRetries == 0 {
		c.Proxy.MaxRetries = 3
	}
	if c.Proxy.UpstreamTimeout == 0 {
		c.Proxy.UpstreamTimeout = 60 * time.Second
	}
	if c.Proxy.RetryBaseDelay == 0 {
		c.Proxy.RetryBaseDelay = 100 * time.Millisecond
	}
	if c.Proxy.RetryMaxDelay == 0 {
		c.Proxy.RetryMaxDelay = 2 * time.Second
	}

	if c.Ratelimit.BurstRatePerSecond == 0 {
		c.Ratelimit.BurstRatePerSecond = 5
	}
	if c.Ratelimit.BurstSize == 0 {
		c.Ratelimit.BurstSize = 10
	}

	if c.Autonomy.Threshold == 0 {
		c.Autonomy.Threshold = 3
	}
	if c.Autonomy.RingSize == 0 {
		c.Autonomy.RingSize = 50
	}
	if c.Registry.HeartbeatTimeout == 0 {
		c.Registry.HeartbeatTimeout = 60 * time.Second
	}
}

// Validate checks the configuration for errors a Loader should reject
// before any component is constructed.
func (c *Config) Validate() error {
	var errs []string

	if err := c.Checkpoint.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("checkpoint: %v", err))
	}
	if err := c.Observability.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("observability: %v", err))
	}

	known := make(map[string]bool, len(c.Proxy.Providers))
	for _, p := range c.Proxy.Providers {
		if p.Name == "" {
			errs = append(errs, "proxy.providers: entry missing name")
			continue
		}
		known[p.Name] = true
	}
	for alias, target := range c.Proxy.Aliases {
		providerName, _ := splitAliasTarget(target)
		if !known[providerName] {
			errs = append(errs, fmt.Sprintf("proxy.aliases[%q] references undefined provider %q", alias, providerName))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors:\n  - %s", joinErrs(errs))
	}
	return nil
}

func splitAliasTarget(target string) (provider, model string) {
	for i := 0; i < len(target); i++ {
		if target[i] == '/' {
			return target[:i], target[i+1:]
		}
	}
	return target, ""
}

func joinErrs(errs []string) string {
	out := errs[0]
	for _, e := range errs[1:] {
		out += "\n  - " + e
	}
	return out
}
