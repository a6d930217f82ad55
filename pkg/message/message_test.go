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

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMessageRoundTrip(t *testing.T) {
	original := NewMessage(RoleAssistant,
		Text{Value: "let me check that file"},
		ToolCall{ID: "call-1", Name: "read_file", Args: `{"path":"a.go"}`},
	)

	data, err := json.Marshal(original)
	require.NoError(t, err, "Marshal failed")

	var restored Message
	if err := json.Unmarshal(data, &restored); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}

	if restored.ID != original.ID || restored.Role != original.Role {
		t.Fatalf("round trip mismatch: got %+v want %+v", restored, original)
	}
	if len(restored.Content) != 2 {
		t.Fatalf("expected 2 content parts, got %d", len(restored.Content))
	}
	if _, ok := restored.Content[0].(Text); !ok {
		t.Errorf("expected first part to be Text, got %T", restored.Content[0])
	}
	if tc, ok := restored.Content[1].(ToolCall); !ok || tc.Name != "read_file" {
		t.Errorf("expected second part to be ToolCall read_file, got %+v", restored.Content[1])
	}
}

func TestValidateToolResultReferencesEarlierCall(t *testing.T) {
	valid := []*Message{
		NewMessage(RoleAssistant, ToolCall{ID: "call-1", Name: "x", Args: "{}"}),
		NewMessage(RoleToolResult, ToolResult{CallID: "call-1", Text: "ok"}),
	}
	if err := Validate(valid); err != nil {
		t.Errorf("expected valid sequence, got error: %v", err)
	}

	invalid := []*Message{
		NewMessage(RoleToolResult, ToolResult{CallID: "missing", Text: "ok"}),
	}
	if err := Validate(invalid); err == nil {
		t.Error("expected error for tool_result referencing unknown call id")
	}
}

func TestStateCloneIndependence(t *testing.T) {
	s := NewState("sess-1")
	s.Append(NewMessage(RoleUser, Text{Value: "hi"}))

	clone := s.Clone()
	clone.Append(NewMessage(RoleAssistant, Text{Value: "hello"}))

	if len(s.Messages) != 1 {
		t.Errorf("expected original to retain 1 message, got %d", len(s.Messages))
	}
	if len(clone.Messages) != 2 {
		t.Errorf("expected clone to have 2 messages, got %d", len(clone.Messages))
	}
}
