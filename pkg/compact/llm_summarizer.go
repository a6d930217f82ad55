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
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/sriinnu/chitragupta-sub012/pkg/httpclient"
)

// LocalSummariser is the optional external collaborator consulted by the
// hard compaction tier before falling back to the deterministic summary.
// It mirrors a local model server's /api/generate contract.
type LocalSummariser struct {
	Endpoint string
	Model    string
	client   *httpclient.Client
}

// NewLocalSummariser creates a summariser pointed at endpoint, using
// model for the request payload's "model" field.
func NewLocalSummariser(endpoint, model string) *LocalSummariser {
	return &LocalSummariser{
		Endpoint: endpoint,
		Model:    model,
		client:   httpclient.New(),
	}
}

type generateRequest struct {
	Model   string         `json:"model"`
	Prompt  string         `json:"prompt"`
	Stream  bool           `json:"stream"`
	Options map[string]any `json:"options,omitempty"`
}

type generateResponse struct {
	Response string `json:"response"`
}

// summarize builds the deterministic prompt {prompt, conversationText,
// toolSummary} and POSTs it to the summariser endpoint. Any non-2xx
// status or network error returns an error so the caller can fall back
// to the deterministic summary without buffering further.
func (s *LocalSummariser) summarize(ctx context.Context, conversationText, toolSummary string) (string, error) {
	prompt := fmt.Sprintf(
		"Summarize the following conversation for continuation. Preserve decisions and file references.\n\nConversation:\n%s\n\nTool usage:\n%s",
		conversationText, toolSummary,
	)

	body, err := json.Marshal(generateRequest{Model: s.Model, Prompt: prompt, Stream: false})
	if err != nil {
		return "", fmt.Errorf("marshal summarizer request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.Endpoint+"/api/generate", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build summarizer request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("summarizer request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("summarizer returned status %d", resp.StatusCode)
	}

	var out generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode summarizer response: %w", err)
	}

	slog.Debug("llm summary generated", "endpoint", s.Endpoint, "model", s.Model)
	return out.Response, nil
}
