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
	"fmt"
)

// Converter translates between the neutral Request/Response and one
// upstream provider's wire format.
type Converter interface {
	ToUpstream(req *Request, provider Provider) ([]byte, error)
	FromUpstream(body []byte) (*Response, error)
}

// ConverterFor returns the Converter for format.
func ConverterFor(format Format) (Converter, error) {
	switch format {
	case FormatPassthrough, "":
		return passthroughConverter{}, nil
	case FormatOpenAI:
		return openAIConverter{}, nil
	case FormatGoogle:
		return googleConverter{}, nil
	default:
		return nil, fmt.Errorf("llmproxy: unknown target format %q", format)
	}
}

// passthroughConverter re-emits the neutral Request/Response verbatim; used
// when the source and target wire formats are the same.
type passthroughConverter struct{}

func (passthroughConverter) ToUpstream(req *Request, provider Provider) ([]byte, error) {
	req.Model = resolvedUpstreamModel(req, provider)
	req.MaxTokens = provider.capTokens(req.MaxTokens)
	return json.Marshal(req)
}

func (passthroughConverter) FromUpstream(body []byte) (*Response, error) {
	var resp Response
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// openAIMessage is the OpenAI chat-completion wire message.
type openAIMessage struct {
	Role       string             `json:"role"`
	Content    string             `json:"content,omitempty"`
	ToolCalls  []openAIToolCall   `json:"tool_calls,omitempty"`
	ToolCallID string             `json:"tool_call_id,omitempty"`
}

type openAIToolCall struct {
	ID       string             `json:"id"`
	Type     string             `json:"type"`
	Function openAIToolFunction `json:"function"`
}

type openAIToolFunction struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

type openAIRequest struct {
	Model     string          `json:"model"`
	Messages  []openAIMessage `json:"messages"`
	MaxTokens int             `json:"max_tokens,omitempty"`
	Stream    bool            `json:"stream,omitempty"`
	Tools     []openAITool    `json:"tools,omitempty"`
}

type openAITool struct {
	Type     string             `json:"type"`
	Function openAIToolFuncSpec `json:"function"`
}

type openAIToolFuncSpec struct {
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Parameters  json.RawMessage `json:"parameters,omitempty"`
}

type openAIResponse struct {
	ID      string `json:"id"`
	Model   string `json:"model"`
	Choices []struct {
		Message      openAIMessage `json:"message"`
		FinishReason string        `json:"finish_reason"`
	} `json:"choices"`
}

// openAIConverter renames roles and maps tool-call structures to and from
// OpenAI's chat-completion format.
type openAIConverter struct{}

func (openAIConverter) ToUpstream(req *Request, provider Provider) ([]byte, error) {
	out := openAIRequest{
		Model:     resolvedUpstreamModel(req, provider),
		MaxTokens: provider.capTokens(req.MaxTokens),
		Stream:    req.Stream,
	}
	for _, m := range req.Messages {
		out.Messages = append(out.Messages, openAIMessage{
			Role:       renameRoleToOpenAI(m.Role),
			Content:    m.Content,
			ToolCalls:  toOpenAIToolCalls(m.ToolCalls),
			ToolCallID: m.ToolCallID,
		})
	}
	for _, t := range req.Tools {
		out.Tools = append(out.Tools, openAITool{
			Type: "function",
			Function: openAIToolFuncSpec{
				Name:        t.Name,
				Description: t.Description,
				Parameters:  t.InputSchema,
			},
		})
	}
	return json.Marshal(out)
}

func (openAIConverter) FromUpstream(body []byte) (*Response, error) {
	var resp openAIResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, err
	}
	neutral := &Response{ID: resp.ID, Model: resp.Model, Role: "assistant"}
	if len(resp.Choices) > 0 {
		choice := resp.Choices[0]
		neutral.Content = choice.Message.Content
		neutral.StopReason = choice.FinishReason
		for _, tc := range choice.Message.ToolCalls {
			neutral.ToolCalls = append(neutral.ToolCalls, ToolCall{
				ID:   tc.ID,
				Name: tc.Function.Name,
				Args: tc.Function.Arguments,
			})
		}
	}
	return neutral, nil
}

func renameRoleToOpenAI(role string) string {
	if role == "" {
		return "user"
	}
	return role
}

func toOpenAIToolCalls(calls []ToolCall) []openAIToolCall {
	if len(calls) == 0 {
		return nil
	}
	out := make([]openAIToolCall, 0, len(calls))
	for _, c := range calls {
		out = append(out, openAIToolCall{
			ID:   c.ID,
			Type: "function",
			Function: openAIToolFunction{
				Name:      c.Name,
				Arguments: c.Args,
			},
		})
	}
	return out
}

// googleContent is one Gemini-style content turn.
type googleContent struct {
	Role  string       `json:"role"`
	Parts []googlePart `json:"parts"`
}

type googlePart struct {
	Text         string              `json:"text,omitempty"`
	FunctionCall *googleFunctionCall `json:"functionCall,omitempty"`
}

type googleFunctionCall struct {
	Name string          `json:"name"`
	Args json.RawMessage `json:"args,omitempty"`
}

type googleRequest struct {
	Contents         []googleContent        `json:"contents"`
	GenerationConfig googleGenerationConfig `json:"generationConfig,omitempty"`
	Tools            []googleToolDecl       `json:"tools,omitempty"`
}

type googleGenerationConfig struct {
	MaxOutputTokens int `json:"maxOutputTokens,omitempty"`
}

type googleToolDecl struct {
	FunctionDeclarations []googleFuncDecl `json:"functionDeclarations"`
}

type googleFuncDecl struct {
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Parameters  json.RawMessage `json:"parameters,omitempty"`
}

type googleResponse struct {
	Candidates []struct {
		Content      googleContent `json:"content"`
		FinishReason string        `json:"finishReason"`
	} `json:"candidates"`
}

// googleConverter renames roles ("assistant" -> "model") and maps
// content/tool structures to and from Gemini's generateContent format.
type googleConverter struct{}

func (googleConverter) ToUpstream(req *Request, provider Provider) ([]byte, error) {
	out := googleRequest{
		GenerationConfig: googleGenerationConfig{MaxOutputTokens: provider.capTokens(req.MaxTokens)},
	}
	for _, m := range req.Messages {
		if m.Role == "system" {
			continue
		}
		out.Contents = append(out.Contents, googleContent{
			Role:  renameRoleToGoogle(m.Role),
			Parts: toGoogleParts(m),
		})
	}
	if len(req.Tools) > 0 {
		decls := make([]googleFuncDecl, 0, len(req.Tools))
		for _, t := range req.Tools {
			decls = append(decls, googleFuncDecl{Name: t.Name, Description: t.Description, Parameters: t.InputSchema})
		}
		out.Tools = []googleToolDecl{{FunctionDeclarations: decls}}
	}
	return json.Marshal(out)
}

func (googleConverter) FromUpstream(body []byte) (*Response, error) {
	var resp googleResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, err
	}
	neutral := &Response{Role: "assistant"}
	if len(resp.Candidates) == 0 {
		return neutral, nil
	}
	cand := resp.Candidates[0]
	neutral.StopReason = cand.FinishReason
	for _, part := range cand.Content.Parts {
		if part.Text != "" {
			neutral.Content += part.Text
		}
		if part.FunctionCall != nil {
			neutral.ToolCalls = append(neutral.ToolCalls, ToolCall{
				Name: part.FunctionCall.Name,
				Args: string(part.FunctionCall.Args),
			})
		}
	}
	return neutral, nil
}

func renameRoleToGoogle(role string) string {
	if role == "assistant" {
		return "model"
	}
	return "user"
}

func toGoogleParts(m Message) []googlePart {
	var parts []googlePart
	if m.Content != "" {
		parts = append(parts, googlePart{Text: m.Content})
	}
	for _, tc := range m.ToolCalls {
		parts = append(parts, googlePart{FunctionCall: &googleFunctionCall{Name: tc.Name, Args: json.RawMessage(tc.Args)}})
	}
	return parts
}

// resolvedUpstreamModel prefers the resolver's chosen upstream model name
// over whatever the client originally requested.
func resolvedUpstreamModel(req *Request, provider Provider) string {
	if req.Model != "" {
		return req.Model
	}
	return provider.Name
}
