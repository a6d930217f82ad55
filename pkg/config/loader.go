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
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// envPrefix namespaces the environment variables Load consults for final
// overrides, applied after the YAML file and its own ${VAR} expansions.
const envPrefix = "CHITRAGUPTA_"

// Load reads path, expands environment variable references, decodes the
// result into a Config, applies CHITRAGUPTA_-prefixed environment
// overrides, fills defaults, and validates.
func Load(path string) (*Config, error) {
	_ = loadEnvFiles()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	expanded := expandEnvVarsInData(raw)

	reencoded, err := yaml.Marshal(expanded)
	if err != nil {
		return nil, fmt.Errorf("re-encode expanded config: %w", err)
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(reencoded, cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	applyEnvOverrides(cfg)
	cfg.SetDefaults()

	if cfg.RouterTierCostsFile != "" {
		costs, err := loadTierCostsTOML(cfg.RouterTierCostsFile)
		if err != nil {
			return nil, fmt.Errorf("load router tier costs: %w", err)
		}
		cfg.Router.TierCosts = costs
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnvOverrides lets deployment environments override a handful of
// the most commonly tuned fields without editing the YAML file, e.g.
// CHITRAGUPTA_SERVER_PORT=9090 or CHITRAGUPTA_PROXY_AUTH_SECRET=...
func applyEnvOverrides(cfg *Config) {
	if v, ok := lookupEnv("SERVER_HOST"); ok {
		cfg.Server.Host = v
	}
	if v, ok := lookupEnvInt("SERVER_PORT"); ok {
		cfg.Server.Port = v
	}
	if v, ok := lookupEnv("PROXY_AUTH_SECRET"); ok {
		cfg.Proxy.AuthSecret = v
	}
	if v, ok := lookupEnvInt("PROXY_MAX_RETRIES"); ok {
		cfg.Proxy.MaxRetries = v
	}
	if v, ok := lookupEnv("ORCHESTRATOR_MODE"); ok {
		cfg.Orchestrator.Mode = v
	}
}

func lookupEnv(suffix string) (string, bool) {
	v, ok := os.LookupEnv(envPrefix + suffix)
	if !ok || strings.TrimSpace(v) == "" {
		return "", false
	}
	return v, true
}

func lookupEnvInt(suffix string) (int, bool) {
	s, ok := lookupEnv(suffix)
	if !ok {
		return 0, false
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, false
	}
	return n, true
}
