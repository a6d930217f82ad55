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

package llmproxy

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestOpenAIConverterRenamesRolesAndCapsTokens(t *testing.T) {
	conv := openAIConverter{}
	req := &Request{
		Model:     "claude-sonnet-4",
		MaxTokens: 100000,
		Messages:  []Message{{Role: "user", Content: "hello"}},
	}
	provider := Provider{Name: "openai", MaxTokens: 4096}

	out, err := conv.ToUpstream(req, provider)
	require.NoError(t, err, "ToUpstream")

	var decoded openAIRequest
	if err := json.Unmarshal(out, &decoded); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if decoded.MaxTokens != 4096 {
		t.Errorf("expected max_tokens capped to 4096, got %d", decoded.MaxTokens)
	}
	if len(decoded.Messages) != 1 || decoded.Messages[0].Role != "user" {
		t.Errorf("unexpected messages: %+v", decoded.Messages)
	}
}

func TestOpenAIConverterFromUpstreamExtractsToolCalls(t *testing.T) {
	body := []byte(`{
		"id": "resp-1",
		"model": "gpt-4o",
		"choices": [{
			"finish_reason": "tool_calls",
			"message": {
				"role": "assistant",
				"tool_calls": [{"id": "call-1", "type": "function", "function": {"name": "search", "arguments": "{}"}}]
			}
		}]
	}`)
	conv := openAIConverter{}
	resp, err := conv.FromUpstream(body)
	require.NoError(t, err, "FromUpstream")
	if len(resp.ToolCalls) != 1 || resp.ToolCalls[0].Name != "search" {
		t.Errorf("unexpected tool calls: %+v", resp.ToolCalls)
	}
	if resp.StopReason != "tool_calls" {
		t.Errorf("expected stop_reason tool_calls, got %q", resp.StopReason)
	}
}

func TestGoogleConverterRenamesAssistantToModelAndDropsSystem(t *testing.T) {
	conv := googleConverter{}
	req := &Request{
		Messages: []Message{
			{Role: "system", Content: "be nice"},
			{Role: "user", Content: "hi"},
			{Role: "assistant", Content: "hello"},
		},
	}
	out, err := conv.ToUpstream(req, Provider{Name: "google"})
	require.NoError(t, err, "ToUpstream")

	var decoded googleRequest
	if err := json.Unmarshal(out, &decoded); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(decoded.Contents) != 2 {
		t.Fatalf("expected system message dropped, got %d contents", len(decoded.Contents))
	}
	if decoded.Contents[1].Role != "model" {
		t.Errorf("expected assistant renamed to model, got %q", decoded.Contents[1].Role)
	}
}

func TestGoogleConverterFromUpstreamConcatenatesTextParts(t *testing.T) {
	body := []byte(`{"candidates": [{"finishReason": "STOP", "content": {"role": "model", "parts": [{"text": "hello "}, {"text": "world"}]}}]}`)
	conv := googleConverter{}
	resp, err := conv.FromUpstream(body)
	require.NoError(t, err, "FromUpstream")
	if resp.Content != "hello world" {
		t.Errorf("expected concatenated text, got %q", resp.Content)
	}
}

func TestParseRequestRejectsOversizedBody(t *testing.T) {
	body := []byte(strings.Repeat("x", 100))
	_, err := ParseRequest(body, 10)
	if err == nil {
		t.Fatal("expected error for oversized body")
	}
}

func TestPassthroughConverterRoundTrips(t *testing.T) {
	conv := passthroughConverter{}
	req := &Request{Model: "claude-opus-4", Messages: []Message{{Role: "user", Content: "hi"}}}
	out, err := conv.ToUpstream(req, Provider{Name: "anthropic"})
	require.NoError(t, err, "ToUpstream")
	resp, err := conv.FromUpstream(out)
	if err == nil && resp == nil {
		t.Fatal("expected non-nil response")
	}
}
