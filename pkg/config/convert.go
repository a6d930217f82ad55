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

package config

import (
	"context"

	"github.com/sriinnu/chitragupta-sub012/pkg/actor"
	"github.com/sriinnu/chitragupta-sub012/pkg/agentregistry"
	"github.com/sriinnu/chitragupta-sub012/pkg/autonomy"
	"github.com/sriinnu/chitragupta-sub012/pkg/banker"
	"github.com/sriinnu/chitragupta-sub012/pkg/compact"
	"github.com/sriinnu/chitragupta-sub012/pkg/coordination"
	"github.com/sriinnu/chitragupta-sub012/pkg/llmproxy"
	"github.com/sriinnu/chitragupta-sub012/pkg/mailbox"
	"github.com/sriinnu/chitragupta-sub012/pkg/orchestrator"
	"github.com/sriinnu/chitragupta-sub012/pkg/ratelimit"
)

// ToCompactConfig builds a compact.Config from the YAML-loaded scalars.
// summarizer is wired in programmatically since it isn't serializable.
func (c CompactConfig) ToCompactConfig(summarizer *compact.LocalSummariser) compact.Config {
	return compact.Config{
		RecentMessageCount:     c.RecentMessageCount,
		HardRecentMessageCount: c.HardRecentMessageCount,
		MinKeepLast:            c.MinKeepLast,
		ToolResultTruncateLen:  c.ToolResultTruncateLen,
		SummaryCharBudget:      c.SummaryCharBudget,
		Summarizer:             summarizer,
	}
}

// ToOrchestratorConfig builds an orchestrator.Config from the YAML-loaded
// scalars. The approval/progress/commit-message callbacks aren't
// serializable and must be set on the returned value by the caller.
func (c OrchestratorConfig) ToOrchestratorConfig() orchestrator.Config {
	cfg := orchestrator.Config{
		Mode:                orchestrator.Mode(c.Mode),
		BranchPrefix:        c.BranchPrefix,
		MaxDebugCycles:      c.MaxDebugCycles,
		MaxReviewCycles:     c.MaxReviewCycles,
		MinReviewSeverity:   orchestrator.Severity(c.MinReviewSeverity),
		MaxReviewIssues:     c.MaxReviewIssues,
		DiffPreviewMaxChars: c.DiffPreviewMaxChars,
		TimeoutMs:           c.TimeoutMs,
	}
	return cfg
}

// NewResolver builds the proxy's alias resolver from the loaded provider
// catalog and alias table.
func (c ProxyConfig) NewResolver() (*llmproxy.Resolver, error) {
	return llmproxy.NewResolver(c.Providers, c.Aliases)
}

// NewBanker builds a Banker with every declared resource registered.
func (c BankerConfig) NewBanker() *banker.Banker {
	b := banker.New()
	for name, total := range c.Resources {
		b.AddResource(name, total)
	}
	return b
}

// Options returns the autonomy.Controller options implied by this config.
func (c AutonomyConfig) Options() []autonomy.Option {
	var opts []autonomy.Option
	if c.Threshold > 0 {
		opts = append(opts, autonomy.WithThreshold(c.Threshold))
	}
	if c.RingSize > 0 {
		opts = append(opts, autonomy.WithRingSize(c.RingSize))
	}
	return opts
}

// NewRegistry builds an agent registry from this config.
func (c RegistryConfig) NewRegistry() *agentregistry.Registry {
	return agentregistry.New(c.MaxAgents, c.HeartbeatTimeout)
}

// NewLocks builds a coordination lock table from this config.
func (c LocksConfig) NewLocks() *coordination.Locks {
	return coordination.NewLocks(c.MaxHoldTime)
}

// NewBurstLimiter builds the token-bucket layer of request shaping.
func (c RatelimitConfig) NewBurstLimiter() *ratelimit.BurstLimiter {
	return ratelimit.NewBurstLimiter(c.BurstRatePerSecond, c.BurstSize)
}

// NewRateLimiter builds the fixed-window quota layer, or nil if
// quota rules aren't enabled (the burst layer still applies either way).
func (c RatelimitConfig) NewRateLimiter() (*ratelimit.DefaultRateLimiter, error) {
	if !c.Enabled {
		return nil, nil
	}
	cfg := c.Config
	return ratelimit.NewRateLimiter(&cfg, ratelimit.NewMemoryStore())
}

// NewMailboxBackend dials the Redis mailbox persistence hook, or returns
// nil if it isn't enabled.
func (c ActorConfig) NewMailboxBackend(ctx context.Context) (mailbox.Backend, error) {
	if !c.Redis.Enabled {
		return nil, nil
	}
	return mailbox.NewRedisBackend(ctx, mailbox.RedisBackendConfig{
		Addr:     c.Redis.Addr,
		Password: c.Redis.Password,
		DB:       c.Redis.DB,
		TTL:      c.Redis.TTL,
	})
}

// NewSystem builds the actor runtime, wiring the Redis mailbox backend
// when configured and any additional options the caller supplies.
func (c ActorConfig) NewSystem(ctx context.Context, opts ...actor.Option) (*actor.System, error) {
	backend, err := c.NewMailboxBackend(ctx)
	if err != nil {
		return nil, err
	}
	allOpts := make([]actor.Option, 0, len(opts)+2)
	if c.DefaultMailboxMax > 0 {
		allOpts = append(allOpts, actor.WithDefaultMailboxMax(c.DefaultMailboxMax))
	}
	if backend != nil {
		allOpts = append(allOpts, actor.WithMailboxBackend(backend))
	}
	allOpts = append(allOpts, opts...)
	return actor.New(allOpts...), nil
}
