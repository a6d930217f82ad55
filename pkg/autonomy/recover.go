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

package autonomy

import "github.com/sriinnu/chitragupta-sub012/pkg/message"

// RecoverContext takes the longest prefix of state's messages that is
// internally valid (each message has a non-empty id and content, a
// positive timestamp, and every tool_result references an earlier
// tool_call id within that same prefix). If no valid prefix can be
// found, it falls back to the last snapshot captured by BeforeTurn.
func (c *Controller) RecoverContext(state *message.State) *message.State {
	prefix := longestValidPrefix(state.Messages)
	if prefix == len(state.Messages) {
		return state
	}
	if prefix > 0 {
		recovered := state.Clone()
		recovered.Messages = append([]*message.Message{}, state.Messages[:prefix]...)
		return recovered
	}

	c.mu.Lock()
	snapshot := c.lastSnapshot
	c.mu.Unlock()
	if snapshot != nil {
		return snapshot.Clone()
	}

	empty := state.Clone()
	empty.Messages = nil
	return empty
}

func longestValidPrefix(messages []*message.Message) int {
	seenCalls := make(map[string]bool)

	for i, msg := range messages {
		if msg.ID == "" || len(msg.Content) == 0 || msg.Timestamp.IsZero() {
			return i
		}
		for _, part := range msg.Content {
			switch p := part.(type) {
			case message.ToolCall:
				seenCalls[p.ID] = true
			case message.ToolResult:
				if !seenCalls[p.CallID] {
					return i
				}
			}
		}
	}
	return len(messages)
}
