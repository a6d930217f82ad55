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

package main

import (
	"fmt"

	"github.com/sriinnu/chitragupta-sub012/pkg/config"
	"github.com/sriinnu/chitragupta-sub012/pkg/router"
)

// RouteCmd previews the tier a hand-built context would route to,
// without needing a live conversation to extract one from.
type RouteCmd struct {
	Complexity float64 `help:"Complexity signal, 0-1." default:"0.5"`
	Urgency    float64 `help:"Urgency signal, 0-1." default:"0.0"`
	Creativity float64 `help:"Creativity signal, 0-1." default:"0.0"`
	Precision  float64 `help:"Precision signal, 0-1." default:"0.0"`
	CodeRatio  float64 `help:"Fraction of the message that is code, 0-1." default:"0.0"`
	Depth      float64 `help:"Normalized conversation depth, 0-1." default:"0.0"`
	MemoryLoad float64 `help:"Normalized memory-hit count, 0-1." default:"0.0"`
}

func (c *RouteCmd) Run(cli *CLI) error {
	cfg, err := config.Load(cli.Config)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	bd := router.New(cfg.Router)
	decision := bd.Classify(router.TuriyaContext{
		Complexity:        c.Complexity,
		Urgency:           c.Urgency,
		Creativity:        c.Creativity,
		Precision:         c.Precision,
		CodeRatio:         c.CodeRatio,
		ConversationDepth: c.Depth,
		MemoryLoad:        c.MemoryLoad,
	})

	fmt.Printf("tier:       %s\n", decision.Tier)
	fmt.Printf("confidence: %.3f\n", decision.Confidence)
	fmt.Printf("cost:       %.4f\n", decision.CostEstimate)
	fmt.Printf("rationale:  %s\n", decision.Rationale)
	return nil
}
