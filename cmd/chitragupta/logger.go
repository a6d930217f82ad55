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
	"os"

	"github.com/sriinnu/chitragupta-sub012/pkg/logger"
)

// initLogger sets the default slog logger from the --log-level and
// --log-format flags, via pkg/logger so third-party log noise is
// filtered out below DEBUG the same way it is everywhere else this
// module logs.
func initLogger(level, format string) error {
	lvl, err := logger.ParseLevel(level)
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", level, err)
	}
	logger.Init(lvl, os.Stderr, format)
	return nil
}
