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
	"testing"

	"github.com/sriinnu/chitragupta-sub012/pkg/message"
)

func buildState(n int) *message.State {
	s := message.NewState("sess-1")
	s.SystemPrompt = "you are a coding assistant"
	for i := 0; i < n; i++ {
		s.Append(message.NewMessage(message.RoleUser, message.Text{Value: strings.Repeat("word ", 50)}))
		s.Append(message.NewMessage(message.RoleAssistant, message.Text{Value: strings.Repeat("reply ", 50)}))
	}
	return s
}

func TestEstimateTotalTokensAtLeastProviderOverhead(t *testing.T) {
	empty := message.NewState("sess-1")
	tokens := EstimateTotalTokens(empty)
	if tokens < 100 {
		t.Errorf("expected at least 100 tokens of provider overhead, got %d", tokens)
	}
}

func TestTierNoneMeansNoChange(t *testing.T) {
	state := buildState(2)
	limit := EstimateTotalTokens(state) * 100 // utilization far below 0.60

	if TierFor(state, limit) != TierNone {
		t.Fatalf("expected none tier for low utilization")
	}

	compacted := CompactTiered(context.Background(), state, limit, Config{})
	if len(compacted.Messages) != len(state.Messages) {
		t.Errorf("expected tier none to leave message count unchanged, got %d vs %d", len(compacted.Messages), len(state.Messages))
	}
}

func TestCompactTieredNeverDropsLastK(t *testing.T) {
	state := buildState(30)
	tokens := EstimateTotalTokens(state)
	limit := int(float64(tokens) / 0.95) // force hard tier

	cfg := Config{MinKeepLast: 5}
	compacted := CompactTiered(context.Background(), state, limit, cfg)

	original := state.Messages
	keptTail := compacted.Messages[len(compacted.Messages)-5:]
	originalTail := original[len(original)-5:]

	for i := range keptTail {
		if textOf(keptTail[i]) != textOf(originalTail[i]) {
			t.Errorf("expected last K messages preserved verbatim at position %d", i)
		}
	}
}

func TestCompactTieredNeverSplitsToolCallPair(t *testing.T) {
	state := message.NewState("sess-1")
	for i := 0; i < 20; i++ {
		state.Append(message.NewMessage(message.RoleUser, message.Text{Value: strings.Repeat("x", 200)}))
	}
	state.Append(message.NewMessage(message.RoleAssistant, message.ToolCall{ID: "call-1", Name: "read", Args: `{"path":"a.go"}`}))
	state.Append(message.NewMessage(message.RoleToolResult, message.ToolResult{CallID: "call-1", Text: "contents"}))
	for i := 0; i < 3; i++ {
		state.Append(message.NewMessage(message.RoleUser, message.Text{Value: "ok"}))
	}

	tokens := EstimateTotalTokens(state)
	limit := int(float64(tokens) / 0.95)

	compacted := CompactTiered(context.Background(), state, limit, Config{RecentMessageCount: 4, MinKeepLast: 2})

	hasCall, hasResult := false, false
	for _, msg := range compacted.Messages {
		for _, part := range msg.Content {
			switch p := part.(type) {
			case message.ToolCall:
				if p.ID == "call-1" {
					hasCall = true
				}
			case message.ToolResult:
				if p.CallID == "call-1" {
					hasResult = true
				}
			}
		}
	}

	if hasCall != hasResult {
		t.Errorf("expected tool_call and tool_result to travel together, call=%v result=%v", hasCall, hasResult)
	}
}

func TestCompactTieredSummaryIsSingleSystemTextPart(t *testing.T) {
	state := buildState(30)
	tokens := EstimateTotalTokens(state)
	limit := int(float64(tokens) / 0.95)

	compacted := CompactTiered(context.Background(), state, limit, Config{})

	if len(compacted.Messages) == 0 {
		t.Fatal("expected at least one message after compaction")
	}
	summary := compacted.Messages[0]
	if summary.Role != message.RoleSystem {
		t.Errorf("expected summary message role system, got %s", summary.Role)
	}
	if len(summary.Content) != 1 {
		t.Errorf("expected exactly one content part in summary, got %d", len(summary.Content))
	}
	if _, ok := summary.Content[0].(message.Text); !ok {
		t.Errorf("expected summary content part to be Text, got %T", summary.Content[0])
	}
}

func TestSoftTierTruncatesToolResults(t *testing.T) {
	state := message.NewState("sess-1")
	for i := 0; i < 10; i++ {
		state.Append(message.NewMessage(message.RoleUser, message.Text{Value: strings.Repeat("y", 500)}))
	}
	state.Append(message.NewMessage(message.RoleToolResult, message.ToolResult{CallID: "x", Text: strings.Repeat("z", 500)}))

	tokens := EstimateTotalTokens(state)
	limit := int(float64(tokens) / 0.7) // soft tier band

	if TierFor(state, limit) != TierSoft {
		t.Skip("utilization band did not land on soft tier for this fixture")
	}

	compacted := CompactTiered(context.Background(), state, limit, Config{})
	last := compacted.Messages[len(compacted.Messages)-1]
	tr := last.Content[0].(message.ToolResult)
	if len(tr.Text) > 103 {
		t.Errorf("expected tool_result text truncated to ~100 chars, got %d", len(tr.Text))
	}
}

func TestToolUsageSummaryCategorization(t *testing.T) {
	messages := []*message.Message{
		message.NewMessage(message.RoleAssistant, message.ToolCall{ID: "1", Name: "read", Args: `{"path":"a.go"}`}),
		message.NewMessage(message.RoleAssistant, message.ToolCall{ID: "2", Name: "write", Args: `{"path":"b.go"}`}),
		message.NewMessage(message.RoleAssistant, message.ToolCall{ID: "3", Name: "bash", Args: `{"command":"go test ./..."}`}),
		message.NewMessage(message.RoleAssistant, message.ToolCall{ID: "4", Name: "custom_tool", Args: `{}`}),
	}

	summary := summarizeToolUsage(messages)
	rendered := summary.render()

	if !strings.Contains(rendered, "Files read: a.go") {
		t.Errorf("expected files read section, got %q", rendered)
	}
	if !strings.Contains(rendered, "Files written/edited: b.go") {
		t.Errorf("expected files written section, got %q", rendered)
	}
	if !strings.Contains(rendered, "Commands run: go test") {
		t.Errorf("expected commands run section, got %q", rendered)
	}
	if !strings.Contains(rendered, "Other tools: custom_tool (1)") {
		t.Errorf("expected other tools section, got %q", rendered)
	}
}
