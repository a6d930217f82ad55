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

// Package message defines the conversation data model shared by the
// classifier, router, compaction engine and orchestrator: an ordered
// sequence of Messages, each carrying one or more content parts.
package message

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Role identifies who produced a Message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleToolResult Role = "tool_result"
	RoleSystem    Role = "system"
)

// ThinkingLevel controls how much reasoning effort an agent requests.
type ThinkingLevel string

const (
	ThinkingOff    ThinkingLevel = "off"
	ThinkingLow    ThinkingLevel = "low"
	ThinkingMedium ThinkingLevel = "medium"
	ThinkingHigh   ThinkingLevel = "high"
)

// PartType discriminates the ContentPart sum type on the wire.
type PartType string

const (
	PartText       PartType = "text"
	PartThinking   PartType = "thinking"
	PartToolCall   PartType = "tool_call"
	PartToolResult PartType = "tool_result"
	PartImage      PartType = "image"
)

// ContentPart is one variant of a Message's content. It is a closed sum
// type: Type reports which of the concrete structs below a part is, and
// callers type-switch on the concrete type rather than on Type directly.
type ContentPart interface {
	Type() PartType
}

// Text is a plain text content part.
type Text struct {
	Value string `json:"text"`
}

// Type implements ContentPart.
func (Text) Type() PartType { return PartText }

// Thinking is a model reasoning trace, not shown as assistant output.
type Thinking struct {
	Value string `json:"thinking"`
}

// Type implements ContentPart.
func (Thinking) Type() PartType { return PartThinking }

// ToolCall is a request to invoke a named tool with JSON-encoded arguments.
type ToolCall struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Args string `json:"args"` // raw JSON object text
}

// Type implements ContentPart.
func (ToolCall) Type() PartType { return PartToolCall }

// ToolResult carries the outcome of a previously issued ToolCall. CallID
// must reference a ToolCall.ID that appears earlier in the conversation.
type ToolResult struct {
	CallID  string `json:"callId"`
	Text    string `json:"text"`
	IsError bool   `json:"isError,omitempty"`
}

// Type implements ContentPart.
func (ToolResult) Type() PartType { return PartToolResult }

// Image is an inline base64-encoded image.
type Image struct {
	Data string `json:"data"`
	Mime string `json:"mime"`
}

// Type implements ContentPart.
func (Image) Type() PartType { return PartImage }

// Message is an ordered content sequence with a stable id, role and
// timestamp. Content is immutable once appended; Messages are appended to
// Agent State, never mutated in place.
type Message struct {
	ID        string        `json:"id"`
	Role      Role          `json:"role"`
	Content   []ContentPart `json:"content"`
	Timestamp time.Time     `json:"timestamp"`
}

// NewMessage creates a Message with a fresh id and the given role and parts.
func NewMessage(role Role, parts ...ContentPart) *Message {
	return &Message{
		ID:        uuid.NewString(),
		Role:      role,
		Content:   parts,
		Timestamp: time.Now(),
	}
}

// wireMessage is the JSON-serializable shadow of Message, used because
// ContentPart is an interface and needs an explicit discriminator to
// round-trip through encoding/json.
type wireMessage struct {
	ID        string            `json:"id"`
	Role      Role              `json:"role"`
	Content   []json.RawMessage `json:"content"`
	Timestamp time.Time         `json:"timestamp"`
}

type wirePart struct {
	Type PartType `json:"type"`
	Text
	Thinking
	ToolCall
	ToolResult
	Image
}

// MarshalJSON implements json.Marshaler, tagging each content part with its
// PartType discriminator.
func (m Message) MarshalJSON() ([]byte, error) {
	raw := make([]json.RawMessage, len(m.Content))
	for i, part := range m.Content {
		wp, err := marshalPart(part)
		if err != nil {
			return nil, fmt.Errorf("marshal content part %d: %w", i, err)
		}
		raw[i] = wp
	}
	return json.Marshal(wireMessage{
		ID:        m.ID,
		Role:      m.Role,
		Content:   raw,
		Timestamp: m.Timestamp,
	})
}

// UnmarshalJSON implements json.Unmarshaler, reconstructing concrete
// ContentPart values from their discriminator tag.
func (m *Message) UnmarshalJSON(data []byte) error {
	var wm wireMessage
	if err := json.Unmarshal(data, &wm); err != nil {
		return fmt.Errorf("unmarshal message envelope: %w", err)
	}

	parts := make([]ContentPart, len(wm.Content))
	for i, raw := range wm.Content {
		part, err := unmarshalPart(raw)
		if err != nil {
			return fmt.Errorf("unmarshal content part %d: %w", i, err)
		}
		parts[i] = part
	}

	m.ID = wm.ID
	m.Role = wm.Role
	m.Content = parts
	m.Timestamp = wm.Timestamp
	return nil
}

func marshalPart(part ContentPart) (json.RawMessage, error) {
	switch p := part.(type) {
	case Text:
		return json.Marshal(struct {
			Type PartType `json:"type"`
			Text
		}{PartText, p})
	case Thinking:
		return json.Marshal(struct {
			Type PartType `json:"type"`
			Thinking
		}{PartThinking, p})
	case ToolCall:
		return json.Marshal(struct {
			Type PartType `json:"type"`
			ToolCall
		}{PartToolCall, p})
	case ToolResult:
		return json.Marshal(struct {
			Type PartType `json:"type"`
			ToolResult
		}{PartToolResult, p})
	case Image:
		return json.Marshal(struct {
			Type PartType `json:"type"`
			Image
		}{PartImage, p})
	default:
		return nil, fmt.Errorf("unknown content part type %T", part)
	}
}

func unmarshalPart(raw json.RawMessage) (ContentPart, error) {
	var head struct {
		Type PartType `json:"type"`
	}
	if err := json.Unmarshal(raw, &head); err != nil {
		return nil, fmt.Errorf("unmarshal part discriminator: %w", err)
	}

	switch head.Type {
	case PartText:
		var p Text
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, err
		}
		return p, nil
	case PartThinking:
		var p Thinking
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, err
		}
		return p, nil
	case PartToolCall:
		var p ToolCall
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, err
		}
		return p, nil
	case PartToolResult:
		var p ToolResult
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, err
		}
		return p, nil
	case PartImage:
		var p Image
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, err
		}
		return p, nil
	default:
		return nil, fmt.Errorf("unknown content part type %q", head.Type)
	}
}

// Validate checks the invariant that every tool_result references a
// tool_call id that appeared earlier among the given messages.
func Validate(messages []*Message) error {
	seen := make(map[string]bool)
	for mi, msg := range messages {
		for _, part := range msg.Content {
			switch p := part.(type) {
			case ToolCall:
				seen[p.ID] = true
			case ToolResult:
				if !seen[p.CallID] {
					return fmt.Errorf("message %d: tool_result references unknown call id %q", mi, p.CallID)
				}
			}
		}
	}
	return nil
}
