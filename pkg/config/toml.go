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

	"github.com/BurntSushi/toml"

	"github.com/sriinnu/chitragupta-sub012/pkg/router"
)

// tierCostsProfile is the on-disk shape of a TOML tier-cost profile:
//
//	[tier_costs]
//	no-llm = 0
//	haiku  = 0.002
//	sonnet = 0.012
//	opus   = 0.06
type tierCostsProfile struct {
	TierCosts map[string]float64 `toml:"tier_costs"`
}

// loadTierCostsTOML reads a standalone tier-cost profile, letting an
// operator swap in per-environment pricing (spot pricing, a discounted
// enterprise rate card) without touching the main YAML config.
func loadTierCostsTOML(path string) (router.TierCosts, error) {
	var profile tierCostsProfile
	if _, err := toml.DecodeFile(path, &profile); err != nil {
		return nil, fmt.Errorf("decode tier cost profile: %w", err)
	}
	costs := make(router.TierCosts, len(profile.TierCosts))
	for tier, cost := range profile.TierCosts {
		costs[router.Tier(tier)] = cost
	}
	return costs, nil
}
