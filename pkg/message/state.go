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

package message

// ToolDefinition describes a tool an Agent may call, mirroring the
// consumed ToolHandler interface's static half (name/schema only — the
// executable half lives with the tool implementation, outside this
// package).
type ToolDefinition struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	InputSchema map[string]any `json:"inputSchema"`
}

// State is the mutable state owned by exactly one Agent instance. It is
// mutated only by that Agent — on an LLM turn it appends an assistant
// Message, on a tool result it appends a tool_result Message — and is
// never mutated concurrently by another goroutine.
type State struct {
	Messages  []*Message       `json:"messages"`
	ModelID   string           `json:"modelId"`
	ProviderID string          `json:"providerId"`
	Tools     []ToolDefinition `json:"tools"`
	SystemPrompt string        `json:"systemPrompt"`
	Thinking  ThinkingLevel    `json:"thinking"`
	Streaming bool             `json:"streaming"`
	SessionID string           `json:"sessionId"`
}

// NewState creates an empty State for a session.
func NewState(sessionID string) *State {
	return &State{
		SessionID: sessionID,
		Thinking:  ThinkingOff,
	}
}

// Append adds a message to the end of the message log.
func (s *State) Append(msg *Message) {
	s.Messages = append(s.Messages, msg)
}

// Clone returns a shallow copy of State with its own Messages slice header,
// so appends to the clone never mutate the original's backing array.
func (s *State) Clone() *State {
	clone := *s
	clone.Messages = make([]*Message, len(s.Messages))
	copy(clone.Messages, s.Messages)
	clone.Tools = make([]ToolDefinition, len(s.Tools))
	copy(clone.Tools, s.Tools)
	return &clone
}
