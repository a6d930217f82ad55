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
	"context"
	"strings"

	"github.com/sriinnu/chitragupta-sub012/pkg/message"
)

// Config tunes compaction tier effects.
type Config struct {
	// RecentMessageCount is the window kept at the medium tier.
	// Default: 20
	RecentMessageCount int
	// HardRecentMessageCount is the tighter window kept at the hard tier.
	// Default: 10
	HardRecentMessageCount int
	// MinKeepLast (K) is never dropped regardless of tier.
	// Default: 5
	MinKeepLast int
	// ToolResultTruncateLen bounds tool_result text at the soft tier.
	// Default: 100
	ToolResultTruncateLen int
	// SummaryCharBudget bounds the hard-tier deterministic/LLM summary.
	// Default: 2000
	SummaryCharBudget int
	// Summarizer is consulted at the hard tier before falling back to
	// the deterministic summary. Nil disables LLM-assisted summaries.
	Summarizer *LocalSummariser
}

// SetDefaults fills unset Config fields with their defaults.
func (c *Config) SetDefaults() {
	if c.RecentMessageCount == 0 {
		c.RecentMessageCount = 20
	}
	if c.HardRecentMessageCount == 0 {
		c.HardRecentMessageCount = 10
	}
	if c.MinKeepLast == 0 {
		c.MinKeepLast = 5
	}
	if c.ToolResultTruncateLen == 0 {
		c.ToolResultTruncateLen = 100
	}
	if c.SummaryCharBudget == 0 {
		c.SummaryCharBudget = defaultSummaryCharBudget
	}
}

// CompactTiered rewrites state's message log to fit under limit, applying
// the compaction tier appropriate to its current utilization. A none tier
// returns a value-equivalent copy of state, unchanged.
func CompactTiered(ctx context.Context, state *message.State, limit int, cfg Config) *message.State {
	cfg.SetDefaults()
	tier := TierFor(state, limit)

	out := state.Clone()
	if tier == TierNone {
		return out
	}

	out.Messages = applySoft(out.Messages, cfg.ToolResultTruncateLen)

	if tier == TierSoft {
		return out
	}

	recentCount := cfg.RecentMessageCount
	includeProse := false
	if tier == TierHard {
		recentCount = cfg.HardRecentMessageCount
		includeProse = true
	}
	if recentCount < cfg.MinKeepLast {
		recentCount = cfg.MinKeepLast
	}

	older, recent := splitKeepWindow(out.Messages, recentCount, cfg.MinKeepLast)
	if len(older) == 0 {
		out.Messages = recent
		return out
	}

	summaryMsg := buildSummaryMessage(ctx, older, includeProse, cfg.Summarizer, cfg.SummaryCharBudget)
	out.Messages = append([]*message.Message{summaryMsg}, recent...)
	return out
}

// applySoft collapses tool-call args to "{}" and truncates tool-result
// text beyond truncateLen, leaving every other part untouched.
func applySoft(messages []*message.Message, truncateLen int) []*message.Message {
	out := make([]*message.Message, len(messages))
	for i, msg := range messages {
		clone := *msg
		clone.Content = make([]message.ContentPart, len(msg.Content))
		for j, part := range msg.Content {
			switch p := part.(type) {
			case message.ToolCall:
				clone.Content[j] = message.ToolCall{ID: p.ID, Name: p.Name, Args: "{}"}
			case message.ToolResult:
				text := p.Text
				if len(text) > truncateLen {
					text = text[:truncateLen] + "..."
				}
				clone.Content[j] = message.ToolResult{CallID: p.CallID, Text: text, IsError: p.IsError}
			default:
				clone.Content[j] = part
			}
		}
		out[i] = &clone
	}
	return out
}

// splitKeepWindow splits messages into an older (to be summarized) and
// recent (kept verbatim) portion, adjusting the cut point so a tool_call
// and its matching tool_result always land on the same side.
func splitKeepWindow(messages []*message.Message, n, minKeepLast int) (older, recent []*message.Message) {
	if n < minKeepLast {
		n = minKeepLast
	}
	if n >= len(messages) {
		return nil, messages
	}

	cut := len(messages) - n

	callIndex := make(map[string]int)
	for i, msg := range messages {
		for _, part := range msg.Content {
			if tc, ok := part.(message.ToolCall); ok {
				callIndex[tc.ID] = i
			}
		}
	}

	for {
		moved := false
		for i := cut; i < len(messages); i++ {
			for _, part := range messages[i].Content {
				if tr, ok := part.(message.ToolResult); ok {
					if ci, found := callIndex[tr.CallID]; found && ci < cut {
						cut = ci
						moved = true
					}
				}
			}
		}
		if !moved {
			break
		}
	}

	return messages[:cut], messages[cut:]
}

// buildSummaryMessage synthesizes the single system-role text message that
// replaces the older portion: always a tool-usage tally, plus a prose
// summary (LLM-assisted, falling back to the deterministic smart-extract)
// when includeProse is set.
func buildSummaryMessage(ctx context.Context, older []*message.Message, includeProse bool, summarizer *LocalSummariser, charBudget int) *message.Message {
	toolSummary := summarizeToolUsage(older).render()

	var sections []string
	if toolSummary != "" {
		sections = append(sections, toolSummary)
	}

	if includeProse {
		prose := ""
		if summarizer != nil {
			conversationText := conversationTextOf(older)
			if resp, err := summarizer.summarize(ctx, conversationText, toolSummary); err == nil && resp != "" {
				prose = resp
			}
		}
		if prose == "" {
			prose = deterministicSummary(older, charBudget)
		}
		if prose != "" {
			sections = append(sections, prose)
		}
	}

	text := strings.Join(sections, "\n\n")
	if text == "" {
		text = "(no prior activity to summarize)"
	}

	return message.NewMessage(message.RoleSystem, message.Text{Value: text})
}

func conversationTextOf(messages []*message.Message) string {
	var b strings.Builder
	for _, msg := range messages {
		if t := textOf(msg); t != "" {
			b.WriteString(string(msg.Role))
			b.WriteString(": ")
			b.WriteString(t)
			b.WriteString("\n")
		}
	}
	return b.String()
}
