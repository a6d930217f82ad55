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
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeTestConfig(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatalf("write test config: %v", err)
	}
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeTestConfig(t, `
server:
  port: 9090
`)
	cfg, err := Load(path)
	require.NoError(t, err, "Load")
	if cfg.Server.Port != 9090 {
		t.Errorf("expected port 9090, got %d", cfg.Server.Port)
	}
	if cfg.Server.Host != "0.0.0.0" {
		t.Errorf("expected default host, got %q", cfg.Server.Host)
	}
	if cfg.Orchestrator.MaxDebugCycles != 3 {
		t.Errorf("expected default max debug cycles 3, got %d", cfg.Orchestrator.MaxDebugCycles)
	}
	if cfg.Compact.MinKeepLast != 5 {
		t.Errorf("expected default min keep last 5, got %d", cfg.Compact.MinKeepLast)
	}
}

func TestLoadExpandsEnvVars(t *testing.T) {
	t.Setenv("TEST_PROXY_SECRET", "sssh")
	path := writeTestConfig(t, `
proxy:
  auth_secret: ${TEST_PROXY_SECRET}
`)
	cfg, err := Load(path)
	require.NoError(t, err, "Load")
	if cfg.Proxy.AuthSecret != "sssh" {
		t.Errorf("expected expanded secret, got %q", cfg.Proxy.AuthSecret)
	}
}

func TestLoadEnvVarDefaultFallback(t *testing.T) {
	path := writeTestConfig(t, `
proxy:
  auth_secret: ${UNSET_PROXY_SECRET:-fallback}
`)
	cfg, err := Load(path)
	require.NoError(t, err, "Load")
	if cfg.Proxy.AuthSecret != "fallback" {
		t.Errorf("expected fallback default, got %q", cfg.Proxy.AuthSecret)
	}
}

func TestLoadEnvOverrideBeatsFile(t *testing.T) {
	t.Setenv("CHITRAGUPTA_SERVER_PORT", "7070")
	path := writeTestConfig(t, `
server:
  port: 9090
`)
	cfg, err := Load(path)
	require.NoError(t, err, "Load")
	if cfg.Server.Port != 7070 {
		t.Errorf("expected env override 7070, got %d", cfg.Server.Port)
	}
}

func TestLoadRejectsUnknownProviderAlias(t *testing.T) {
	path := writeTestConfig(t, `
proxy:
  providers:
    - name: anthropic
      base_url: https://api.anthropic.com
      format: passthrough
  aliases:
    default: openai/gpt-4
`)
	if _, err := Load(path); err == nil {
		t.Fatal("expected validation error for unknown provider reference")
	}
}

func TestLoadMissingFileReturnsError(t *testing.T) {
	if _, err := Load("/nonexistent/path/config.yaml"); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestProxyConfigNewResolverWiresProviders(t *testing.T) {
	path := writeTestConfig(t, `
proxy:
  providers:
    - name: anthropic
      base_url: https://api.anthropic.com
      format: passthrough
      models: ["claude-sonnet-4-20250514"]
  aliases:
    default: anthropic/claude-sonnet-4-20250514
`)
	cfg, err := Load(path)
	require.NoError(t, err, "Load")
	resolver, err := cfg.Proxy.NewResolver()
	require.NoError(t, err, "NewResolver")
	resolved, err := resolver.Resolve("default")
	require.NoError(t, err, "Resolve")
	if resolved.Provider.Name != "anthropic" {
		t.Errorf("expected anthropic, got %q", resolved.Provider.Name)
	}
}

func TestBankerConfigNewBankerRegistersResources(t *testing.T) {
	cfg := BankerConfig{Resources: map[string]int{"api_slot": 4}}
	b := cfg.NewBanker()
	snap := b.GetState()
	if snap.Totals["api_slot"] != 4 {
		t.Errorf("expected api_slot total 4, got %d", snap.Totals["api_slot"])
	}
}

func TestLoadAppliesRatelimitDefaults(t *testing.T) {
	path := writeTestConfig(t, `server:
  port: 9090
`)
	cfg, err := Load(path)
	require.NoError(t, err, "Load")
	if cfg.Ratelimit.BurstRatePerSecond != 5 {
		t.Errorf("expected default burst rate 5, got %v", cfg.Ratelimit.BurstRatePerSecond)
	}
	if cfg.Ratelimit.BurstSize != 10 {
		t.Errorf("expected default burst size 10, got %d", cfg.Ratelimit.BurstSize)
	}
}

func TestRatelimitConfigNewRateLimiterNilWhenDisabled(t *testing.T) {
	cfg := RatelimitConfig{}
	rl, err := cfg.NewRateLimiter()
	require.NoError(t, err, "NewRateLimiter")
	if rl != nil {
		t.Error("expected nil limiter when quota rules are disabled")
	}
}

func TestRatelimitConfigNewBurstLimiterAppliesBurst(t *testing.T) {
	cfg := RatelimitConfig{BurstRatePerSecond: 1, BurstSize: 2}
	b := cfg.NewBurstLimiter()
	if !b.Allow("id") || !b.Allow("id") {
		t.Fatal("expected the first two requests within burst to be allowed")
	}
	if b.Allow("id") {
		t.Fatal("expected the third immediate request to be denied")
	}
}

func TestLoadAppliesTierCostsFromTOMLProfile(t *testing.T) {
	dir := t.TempDir()
	tomlPath := filepath.Join(dir, "tier_costs.toml")
	tomlBody := "[tier_costs]\nno-llm = 0\nhaiku = 0.5\nsonnet = 1.5\nopus = 9\n"
	if err := os.WriteFile(tomlPath, []byte(tomlBody), 0644); err != nil {
		t.Fatalf("write tier costs toml: %v", err)
	}

	path := writeTestConfig(t, fmt.Sprintf(`server:
  port: 9090
router_tier_costs_file: %q
`, tomlPath))

	cfg, err := Load(path)
	require.NoError(t, err, "Load")
	if got := cfg.Router.TierCosts["haiku"]; got != 0.5 {
		t.Errorf("expected haiku tier cost 0.5, got %v", got)
	}
	if got := cfg.Router.TierCosts["opus"]; got != 9 {
		t.Errorf("expected opus tier cost 9, got %v", got)
	}
}

func TestActorConfigNewMailboxBackendNilWhenDisabled(t *testing.T) {
	cfg := ActorConfig{}
	backend, err := cfg.NewMailboxBackend(context.Background())
	require.NoError(t, err, "NewMailboxBackend")
	if backend != nil {
		t.Error("expected nil backend when Redis mailbox persistence is disabled")
	}
}

func TestActorConfigNewSystemWithoutBackend(t *testing.T) {
	cfg := ActorConfig{DefaultMailboxMax: 16}
	sys, err := cfg.NewSystem(context.Background())
	require.NoError(t, err, "NewSystem")
	if sys == nil {
		t.Fatal("expected a non-nil actor system")
	}
	sys.Shutdown()
}
