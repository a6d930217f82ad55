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

package classify

import "github.com/sriinnu/chitragupta-sub012/pkg/message"

// perMessageOverheadTokens and providerOverheadTokens account for wire
// framing the character estimator can't see directly.
const (
	perMessageOverheadTokens = 4
	providerOverheadTokens   = 100
	imageTokens              = 1000
	toolSchemaFudgeFactor    = 1.15
)

// EstimatePartTokens estimates one content part's token cost using the
// same character-based heuristic throughout the module: ceil(chars/4) for
// text-like content, a fixed cost for images.
func EstimatePartTokens(part message.ContentPart) int {
	switch p := part.(type) {
	case message.Text:
		return EstimateTokens(p.Value)
	case message.Thinking:
		return EstimateTokens(p.Value)
	case message.ToolCall:
		return EstimateTokens(p.Name + p.Args)
	case message.ToolResult:
		return EstimateTokens(p.Text)
	case message.Image:
		return imageTokens
	default:
		return 0
	}
}

// EstimateMessageTokens estimates one message's total token cost: the sum
// of its parts plus a fixed per-message framing overhead.
func EstimateMessageTokens(msg *message.Message) int {
	total := perMessageOverheadTokens
	for _, part := range msg.Content {
		total += EstimatePartTokens(part)
	}
	return total
}

// EstimateToolTokens estimates the token cost of a tool definition being
// sent to the model: name + description + a JSON-Schema-length proxy,
// inflated by a fudge factor for JSON-Schema verbosity.
func EstimateToolTokens(tool message.ToolDefinition) int {
	schemaLen := estimateSchemaLen(tool.InputSchema)
	chars := float64(len(tool.Name)+len(tool.Description)+schemaLen) * toolSchemaFudgeFactor
	return int((chars + 3) / 4)
}

func estimateSchemaLen(schema map[string]any) int {
	// A cheap proxy for serialized length: count keys and stringified
	// scalar values without performing a full json.Marshal.
	total := 0
	var walk func(v any)
	walk = func(v any) {
		switch val := v.(type) {
		case map[string]any:
			for k, vv := range val {
				total += len(k) + 2
				walk(vv)
			}
		case []any:
			for _, vv := range val {
				walk(vv)
			}
		case string:
			total += len(val)
		default:
			total += 4
		}
	}
	walk(schema)
	return total
}

// EstimateStateTokens estimates the total token footprint of an Agent
// State: every message, the system prompt, registered tools, plus a fixed
// per-provider overhead. The result is always at least providerOverheadTokens.
func EstimateStateTokens(state *message.State) int {
	total := providerOverheadTokens
	total += EstimateTokens(state.SystemPrompt)
	for _, msg := range state.Messages {
		total += EstimateMessageTokens(msg)
	}
	for _, tool := range state.Tools {
		total += EstimateToolTokens(tool)
	}
	return total
}
