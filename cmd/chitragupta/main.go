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

// Command chitragupta runs the orchestration platform: the protocol-mirror
// proxy, the bandit router preview, and the session audit log.
//
// Usage:
//
//	chitragupta serve --config config.yaml
//	chitragupta route --config config.yaml --complexity 0.8 --urgency 0.2
//	chitragupta audit --config config.yaml --limit 20
//	chitragupta validate --config config.yaml
//	chitragupta run "add a retry to the proxy client" --validate "go build ./..." --validate "go test ./..."
package main

import (
	"fmt"
	"os"

	"github.com/alecthomas/kong"
)

// CLI defines the command-line interface.
type CLI struct {
	Version  VersionCmd  `cmd:"" help:"Show version information."`
	Serve    ServeCmd    `cmd:"" help:"Start the protocol-mirror proxy server."`
	Route    RouteCmd    `cmd:"" help:"Preview a bandit routing decision for a hand-built context."`
	Audit    AuditCmd    `cmd:"" help:"List recorded orchestrator runs from the session store."`
	Validate ValidateCmd `cmd:"" help:"Validate a configuration file."`
	Run      RunCmd      `cmd:"" help:"Drive one orchestration run end to end: plan, branch, execute, validate, commit."`

	Config    string `short:"c" help:"Path to config file." type:"path" default:"config.yaml"`
	LogLevel  string `help:"Log level (debug, info, warn, error)." default:"info"`
	LogFormat string `help:"Log format (simple or verbose)." default:"simple"`
}

func main() {
	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name("chitragupta"),
		kong.Description("Multi-agent coding orchestration platform."),
		kong.UsageOnError(),
	)

	if err := initLogger(cli.LogLevel, cli.LogFormat); err != nil {
		fmt.Fprintln(os.Stderr, "chitragupta:", err)
		os.Exit(1)
	}

	if err := ctx.Run(&cli); err != nil {
		fmt.Fprintln(os.Stderr, "chitragupta:", err)
		os.Exit(1)
	}
}
