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
)

// ValidateCmd loads and validates a configuration file without starting
// anything, so a bad config is caught before a deploy.
type ValidateCmd struct{}

func (c *ValidateCmd) Run(cli *CLI) error {
	cfg, err := config.Load(cli.Config)
	if err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	fmt.Printf("OK: %s is valid\n", cli.Config)
	fmt.Printf("  server:       %s:%d\n", cfg.Server.Host, cfg.Server.Port)
	fmt.Printf("  providers:    %d\n", len(cfg.Proxy.Providers))
	fmt.Printf("  aliases:      %d\n", len(cfg.Proxy.Aliases))
	fmt.Printf("  orchestrator: mode=%s branch_prefix=%s\n", cfg.Orchestrator.Mode, cfg.Orchestrator.BranchPrefix)
	return nil
}
