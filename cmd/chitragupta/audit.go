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
	"context"
	"fmt"

	"github.com/sriinnu/chitragupta-sub012/pkg/session"
)

// AuditCmd lists recorded orchestrator runs from the session store.
type AuditCmd struct {
	DB    string `help:"Path to the session audit database." default:".chitragupta/audit.db"`
	Limit int    `help:"Maximum number of runs to show. 0 means unlimited." default:"20"`
}

func (c *AuditCmd) Run(cli *CLI) error {
	store, err := session.Open(c.DB)
	if err != nil {
		return fmt.Errorf("open session store: %w", err)
	}
	defer store.Close()

	runs, err := store.ListRuns(context.Background(), c.Limit)
	if err != nil {
		return fmt.Errorf("list runs: %w", err)
	}

	if len(runs) == 0 {
		fmt.Println("no recorded runs")
		return nil
	}
	for _, r := range runs {
		fmt.Printf("#%d  %s  %s -> %s  commits=%d errors=%d\n",
			r.ID, r.CreatedAt.Format("2006-01-02 15:04:05"),
			r.OriginalBranch, r.FeatureBranch, r.CommitCount, r.ErrorCount)
	}
	return nil
}
