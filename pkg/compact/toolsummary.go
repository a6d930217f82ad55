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

package compact

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/sriinnu/chitragupta-sub012/pkg/message"
)

const bashArgTruncateLen = 120

var (
	readClassTools = map[string]bool{
		"read": true, "grep": true, "glob": true, "ls": true, "find": true,
		"cat": true, "head": true, "tail": true, "file_read": true, "file_search": true,
	}
	writeClassTools = map[string]bool{
		"write": true, "edit": true, "patch": true, "create": true,
		"delete": true, "move": true, "rename": true,
	}
	bashClassTools = map[string]bool{
		"bash": true, "bash_exec": true, "execute_command": true, "run_terminal_cmd": true,
	}
)

// toolUsageSummary is the structured tally produced by summarizeToolUsage.
type toolUsageSummary struct {
	filesRead    []string
	filesWritten []string
	commandsRun  []string
	otherCounts  map[string]int
}

// summarizeToolUsage walks the tool_call parts of messages and buckets
// them by category, matching each category's Files read/written/Commands
// run/Other tools text prefix.
func summarizeToolUsage(messages []*message.Message) toolUsageSummary {
	summary := toolUsageSummary{otherCounts: make(map[string]int)}
	seenFiles := make(map[string]bool)

	for _, msg := range messages {
		for _, part := range msg.Content {
			tc, ok := part.(message.ToolCall)
			if !ok {
				continue
			}

			name := strings.ToLower(tc.Name)
			switch {
			case readClassTools[name]:
				if path := extractPathArg(tc.Args); path != "" && !seenFiles["r:"+path] {
					seenFiles["r:"+path] = true
					summary.filesRead = append(summary.filesRead, path)
				}
			case writeClassTools[name]:
				if path := extractPathArg(tc.Args); path != "" && !seenFiles["w:"+path] {
					seenFiles["w:"+path] = true
					summary.filesWritten = append(summary.filesWritten, path)
				}
			case bashClassTools[name]:
				cmd := extractCommandArg(tc.Args)
				if len(cmd) > bashArgTruncateLen {
					cmd = cmd[:bashArgTruncateLen] + "..."
				}
				if cmd != "" {
					summary.commandsRun = append(summary.commandsRun, cmd)
				}
			default:
				summary.otherCounts[tc.Name]++
			}
		}
	}

	return summary
}

// extractPathArg leniently parses a tool call's JSON args for a path-like
// field. Unparseable JSON is treated as opaque and yields "".
func extractPathArg(args string) string {
	var parsed map[string]any
	if err := json.Unmarshal([]byte(args), &parsed); err != nil {
		return ""
	}
	for _, key := range []string{"path", "file", "file_path", "filePath"} {
		if v, ok := parsed[key].(string); ok {
			return v
		}
	}
	return ""
}

// extractCommandArg leniently parses a tool call's JSON args for a
// command-like field.
func extractCommandArg(args string) string {
	var parsed map[string]any
	if err := json.Unmarshal([]byte(args), &parsed); err != nil {
		return ""
	}
	for _, key := range []string{"command", "cmd", "script"} {
		if v, ok := parsed[key].(string); ok {
			return v
		}
	}
	return ""
}

// render formats the tally into the deterministic summary's tool-usage
// section, one line per non-empty category.
func (s toolUsageSummary) render() string {
	var b strings.Builder

	if len(s.filesRead) > 0 {
		fmt.Fprintf(&b, "Files read: %s\n", strings.Join(s.filesRead, ", "))
	}
	if len(s.filesWritten) > 0 {
		fmt.Fprintf(&b, "Files written/edited: %s\n", strings.Join(s.filesWritten, ", "))
	}
	if len(s.commandsRun) > 0 {
		fmt.Fprintf(&b, "Commands run: %s\n", strings.Join(s.commandsRun, "; "))
	}
	if len(s.otherCounts) > 0 {
		names := make([]string, 0, len(s.otherCounts))
		for name := range s.otherCounts {
			names = append(names, name)
		}
		sort.Strings(names)
		parts := make([]string, len(names))
		for i, name := range names {
			parts[i] = fmt.Sprintf("%s (%d)", name, s.otherCounts[name])
		}
		fmt.Fprintf(&b, "Other tools: %s\n", strings.Join(parts, ", "))
	}

	return strings.TrimRight(b.String(), "\n")
}
