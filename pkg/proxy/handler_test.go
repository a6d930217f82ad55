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

package proxy

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/sriinnu/chitragupta-sub012/pkg/llmproxy"

	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, upstreamURL string, authSecret string) (*Server, *httptest.Server) {
	t.Helper()
	providers := []llmproxy.Provider{
		{Name: "fake", Format: llmproxy.FormatPassthrough, BaseURL: upstreamURL},
	}
	resolver, err := llmproxy.NewResolver(providers, map[string]string{"default": "fake/model-x"})
	require.NoError(t, err, "NewResolver")
	server := NewServer(Config{AuthSecret: authSecret, MaxRetries: 1}, resolver)
	r := chi.NewRouter()
	server.Routes(r)
	return server, httptest.NewServer(r)
}

func TestHandleMessagesNonStreamingRoundTrip(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"resp-1","model":"model-x","role":"assistant","content":"hi there"}`))
	}))
	defer upstream.Close()

	_, proxySrv := newTestServer(t, upstream.URL, "")
	defer proxySrv.Close()

	body := `{"model":"default","messages":[{"role":"user","content":"hello"}]}`
	resp, err := http.Post(proxySrv.URL+"/v1/messages", "application/json", strings.NewReader(body))
	require.NoError(t, err, "POST")
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var decoded llmproxy.Response
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if decoded.Content != "hi there" {
		t.Errorf("expected content 'hi there', got %q", decoded.Content)
	}
}

func TestHandleMessagesRejectsMissingAuth(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	}))
	defer upstream.Close()

	_, proxySrv := newTestServer(t, upstream.URL, "shared-secret")
	defer proxySrv.Close()

	body := `{"model":"default","messages":[{"role":"user","content":"hello"}]}`
	resp, err := http.Post(proxySrv.URL+"/v1/messages", "application/json", strings.NewReader(body))
	require.NoError(t, err, "POST")
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", resp.StatusCode)
	}
}

func TestHandleMessagesUnresolvableAliasReturns400(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	}))
	defer upstream.Close()

	_, proxySrv := newTestServer(t, upstream.URL, "")
	defer proxySrv.Close()

	body := `{"model":"totally-unknown-model","messages":[{"role":"user","content":"hello"}]}`
	resp, err := http.Post(proxySrv.URL+"/v1/messages", "application/json", strings.NewReader(body))
	require.NoError(t, err, "POST")
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", resp.StatusCode)
	}
}

func TestHandleMessagesBubblesUpstreamStatus(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"error":"rate limited"}`))
	}))
	defer upstream.Close()

	_, proxySrv := newTestServer(t, upstream.URL, "")
	defer proxySrv.Close()

	body := `{"model":"default","messages":[{"role":"user","content":"hello"}]}`
	resp, err := http.Post(proxySrv.URL+"/v1/messages", "application/json", strings.NewReader(body))
	require.NoError(t, err, "POST")
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusTooManyRequests {
		t.Errorf("expected 429 to bubble through, got %d", resp.StatusCode)
	}
}

func TestHandleCountTokensForwardsToUpstreamCountTokensEndpoint(t *testing.T) {
	var gotPath string
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"input_tokens":7}`))
	}))
	defer upstream.Close()

	_, proxySrv := newTestServer(t, upstream.URL, "")
	defer proxySrv.Close()

	body := `{"model":"default","messages":[{"role":"user","content":"a pretty long message here"}]}`
	resp, err := http.Post(proxySrv.URL+"/v1/messages/count_tokens", "application/json", strings.NewReader(body))
	require.NoError(t, err, "POST")
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if !strings.HasSuffix(gotPath, "/count_tokens") {
		t.Errorf("expected upstream request path to end in /count_tokens, got %q", gotPath)
	}
	var decoded map[string]int
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if decoded["input_tokens"] != 7 {
		t.Errorf("expected relayed input_tokens 7, got %d", decoded["input_tokens"])
	}
}

func TestHandleCountTokensRejectsMissingAuth(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	}))
	defer upstream.Close()

	_, proxySrv := newTestServer(t, upstream.URL, "shared-secret")
	defer proxySrv.Close()

	body := `{"model":"default","messages":[{"role":"user","content":"hello"}]}`
	resp, err := http.Post(proxySrv.URL+"/v1/messages/count_tokens", "application/json", strings.NewReader(body))
	require.NoError(t, err, "POST")
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", resp.StatusCode)
	}
}
