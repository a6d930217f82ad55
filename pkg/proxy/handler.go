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
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"runtime/debug"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/sriinnu/chitragupta-sub012/pkg/httpclient"
	"github.com/sriinnu/chitragupta-sub012/pkg/llmproxy"
)

// Config controls one proxy server instance.
type Config struct {
	// MaxRequestBytes bounds the inbound request body. Zero disables the bound.
	MaxRequestBytes int `yaml:"max_request_bytes,omitempty"`
	// AuthSecret, if set, requires a matching X-Proxy-Auth header on every request.
	AuthSecret string `yaml:"auth_secret,omitempty"`
	// UpstreamTimeout bounds one upstream call.
	UpstreamTimeout time.Duration `yaml:"upstream_timeout,omitempty"`
	// MaxRetries bounds upstream 5xx/429 retries.
	MaxRetries int `yaml:"max_retries,omitempty"`
	// RetryBaseDelay and RetryMaxDelay bound the retry backoff. Defaults
	// are tuned for a low-latency proxy, not a long-lived batch client.
	RetryBaseDelay time.Duration `yaml:"retry_base_delay,omitempty"`
	RetryMaxDelay  time.Duration `yaml:"retry_max_delay,omitempty"`
}

// Server is the protocol-mirror proxy: it accepts a chat-completion
// request in one wire format, forwards it upstream in the resolved
// provider's format, and streams the translated response back.
type Server struct {
	cfg      Config
	resolver *llmproxy.Resolver
	client   *httpclient.Client
}

// NewServer creates a Server. resolver must already be built over the
// configured providers and aliases.
func NewServer(cfg Config, resolver *llmproxy.Resolver) *Server {
	if cfg.UpstreamTimeout <= 0 {
		cfg.UpstreamTimeout = 60 * time.Second
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	if cfg.RetryBaseDelay <= 0 {
		cfg.RetryBaseDelay = 100 * time.Millisecond
	}
	if cfg.RetryMaxDelay <= 0 {
		cfg.RetryMaxDelay = 2 * time.Second
	}
	client := httpclient.New(
		httpclient.WithHTTPClient(&http.Client{Timeout: cfg.UpstreamTimeout}),
		httpclient.WithMaxRetries(cfg.MaxRetries),
		httpclient.WithBaseDelay(cfg.RetryBaseDelay),
		httpclient.WithMaxDelay(cfg.RetryMaxDelay),
	)
	return &Server{cfg: cfg, resolver: resolver, client: client}
}

// Routes mounts the proxy's endpoints onto r.
func (s *Server) Routes(r chi.Router) {
	r.Get("/", s.handleRoot)
	r.Get("/healthz", s.handleHealthz)
	r.Get("/version", s.handleVersion)
	r.Post("/v1/messages", s.handleMessages)
	r.Post("/v1/messages/count_tokens", s.handleCountTokens)
	r.Get("/v1/messages/ws", s.handleMessagesWS)
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(`{"service":"chitragupta-proxy","status":"ok"}`))
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}

func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	version := "dev"
	if info, ok := debug.ReadBuildInfo(); ok {
		if info.Main.Version != "(devel)" && info.Main.Version != "" {
			version = info.Main.Version
		}
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = fmt.Fprintf(w, `{"service":"chitragupta-proxy","version":%q}`, version)
}

// handleCountTokens is a passthrough: it resolves the model alias exactly
// like handleMessages, converts the request body into the upstream
// provider's wire format, and forwards it to that provider's sibling
// count_tokens endpoint, relaying the response unchanged. The proxy never
// estimates token counts itself.
func (s *Server) handleCountTokens(w http.ResponseWriter, r *http.Request) {
	if !checkAuth(r, s.cfg.AuthSecret) {
		writeError(w, http.StatusUnauthorized, "", "invalid or missing proxy auth")
		return
	}

	body, err := s.readBody(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "", err.Error())
		return
	}
	req, err := llmproxy.ParseRequest(body, s.cfg.MaxRequestBytes)
	if err != nil {
		writeError(w, http.StatusBadRequest, "", err.Error())
		return
	}

	resolved, err := s.resolver.Resolve(req.Model)
	if err != nil {
		writeError(w, http.StatusBadRequest, "", err.Error())
		return
	}

	converter, err := llmproxy.ConverterFor(resolved.Provider.Format)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "", err.Error())
		return
	}

	upstreamBody, err := converter.ToUpstream(req, resolved.Provider)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "", err.Error())
		return
	}

	upstreamReq, err := s.buildCountTokensRequest(r.Context(), resolved.Provider, upstreamBody)
	if err != nil {
		writeError(w, http.StatusBadGateway, "", err.Error())
		return
	}

	resp, err := s.client.Do(upstreamReq)
	if err != nil && resp == nil {
		writeError(w, http.StatusBadGateway, "upstream-timeout", err.Error())
		return
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		writeError(w, http.StatusBadGateway, "", err.Error())
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(resp.StatusCode)
	_, _ = w.Write(respBody)
}

func (s *Server) handleMessages(w http.ResponseWriter, r *http.Request) {
	if !checkAuth(r, s.cfg.AuthSecret) {
		writeError(w, http.StatusUnauthorized, "", "invalid or missing proxy auth")
		return
	}

	body, err := s.readBody(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "", err.Error())
		return
	}
	req, err := llmproxy.ParseRequest(body, s.cfg.MaxRequestBytes)
	if err != nil {
		writeError(w, http.StatusBadRequest, "", err.Error())
		return
	}

	resolved, err := s.resolver.Resolve(req.Model)
	if err != nil {
		writeError(w, http.StatusBadRequest, "", err.Error())
		return
	}

	converter, err := llmproxy.ConverterFor(resolved.Provider.Format)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "", err.Error())
		return
	}

	upstreamBody, err := converter.ToUpstream(req, resolved.Provider)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "", err.Error())
		return
	}

	upstreamReq, err := s.buildUpstreamRequest(r.Context(), resolved.Provider, upstreamBody, req.Stream)
	if err != nil {
		writeError(w, http.StatusBadGateway, "", err.Error())
		return
	}

	resp, err := s.client.Do(upstreamReq)
	if err != nil && resp == nil {
		// No response at all: network failure, connection refused, or
		// context deadline. Surfaced as an upstream timeout in both the
		// streaming and non-streaming paths per the proxy's error model.
		s.writeUpstreamFailure(w, req.Stream, err)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		// Non-retryable (or retries-exhausted) upstream error: bubble the
		// original status through rather than flattening it to a 502, so a
		// rate limit still reads as a rate limit to the caller.
		writeError(w, resp.StatusCode, "", fmt.Sprintf("upstream returned %d", resp.StatusCode))
		return
	}

	if req.Stream {
		s.streamResponse(w, resp.Body)
		return
	}

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		writeError(w, http.StatusBadGateway, "", err.Error())
		return
	}
	neutral, err := converter.FromUpstream(respBody)
	if err != nil {
		writeError(w, http.StatusBadGateway, "", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, neutral)
}

func (s *Server) buildUpstreamRequest(ctx context.Context, provider llmproxy.Provider, body []byte, stream bool) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, provider.BaseURL, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if provider.APIKeyEnv != "" {
		if key := os.Getenv(provider.APIKeyEnv); key != "" {
			req.Header.Set("Authorization", "Bearer "+key)
		}
	}
	if stream {
		req.Header.Set("Accept", "text/event-stream")
	}
	return req, nil
}

// buildCountTokensRequest targets the count_tokens sibling of provider's
// messages endpoint (e.g. ".../v1/messages" -> ".../v1/messages/count_tokens"),
// matching the upstream API shape this proxy mirrors.
func (s *Server) buildCountTokensRequest(ctx context.Context, provider llmproxy.Provider, body []byte) (*http.Request, error) {
	url := strings.TrimSuffix(provider.BaseURL, "/") + "/count_tokens"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if provider.APIKeyEnv != "" {
		if key := os.Getenv(provider.APIKeyEnv); key != "" {
			req.Header.Set("Authorization", "Bearer "+key)
		}
	}
	return req, nil
}

func (s *Server) streamResponse(w http.ResponseWriter, upstream io.Reader) {
	flusher, ok := w.(http.Flusher)
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	transformer := NewStreamTransformer()
	err := transformer.Run(upstream, func(ev OutEvent) {
		fmt.Fprintf(w, "event: %s\ndata: %s\n\n", ev.Event, ev.Data)
		if ok {
			flusher.Flush()
		}
	})
	if err != nil {
		slog.Warn("proxy: stream transform ended with error", "error", err)
	}
}

func (s *Server) writeUpstreamFailure(w http.ResponseWriter, stream bool, err error) {
	if !stream {
		writeError(w, http.StatusBadGateway, "upstream-timeout", err.Error())
		return
	}
	w.Header().Set("Content-Type", "text/event-stream")
	w.WriteHeader(http.StatusOK)
	transformer := NewStreamTransformer()
	transformer.EmitUpstreamTimeout(func(ev OutEvent) {
		fmt.Fprintf(w, "event: %s\ndata: %s\n\n", ev.Event, ev.Data)
	})
}

func (s *Server) readBody(r *http.Request) ([]byte, error) {
	defer r.Body.Close()
	if s.cfg.MaxRequestBytes > 0 {
		return io.ReadAll(io.LimitReader(r.Body, int64(s.cfg.MaxRequestBytes)+1))
	}
	return io.ReadAll(r.Body)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, map[string]string{"error": message, "code": code})
}
