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
	"io"
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/sriinnu/chitragupta-sub012/pkg/llmproxy"
)

// upgrader configures the WebSocket handshake for the streaming fallback
// transport. Origin checking is left open: the proxy sits behind
// whatever network boundary the deployer already trusts for /v1/messages.
var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// wsEvent is one translated event as written to a WebSocket text frame,
// the WS-transport twin of the SSE OutEvent.
type wsEvent struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// handleMessagesWS upgrades the connection and streams translated events
// as JSON text frames instead of SSE, for callers that prefer a
// WebSocket transport to text/event-stream. The request body is sent by
// the client as the first WS message after the handshake, mirroring the
// same llmproxy.Request shape handleMessages accepts over HTTP.
func (s *Server) handleMessagesWS(w http.ResponseWriter, r *http.Request) {
	if !checkAuth(r, s.cfg.AuthSecret) {
		http.Error(w, "invalid or missing proxy auth", http.StatusUnauthorized)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("proxy: websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	_, body, err := conn.ReadMessage()
	if err != nil {
		s.writeWSError(conn, "", "failed to read request frame")
		return
	}

	req, err := llmproxy.ParseRequest(body, s.cfg.MaxRequestBytes)
	if err != nil {
		s.writeWSError(conn, "", err.Error())
		return
	}
	req.Stream = true

	resolved, err := s.resolver.Resolve(req.Model)
	if err != nil {
		s.writeWSError(conn, "", err.Error())
		return
	}
	converter, err := llmproxy.ConverterFor(resolved.Provider.Format)
	if err != nil {
		s.writeWSError(conn, "", err.Error())
		return
	}
	upstreamBody, err := converter.ToUpstream(req, resolved.Provider)
	if err != nil {
		s.writeWSError(conn, "", err.Error())
		return
	}
	upstreamReq, err := s.buildUpstreamRequest(r.Context(), resolved.Provider, upstreamBody, true)
	if err != nil {
		s.writeWSError(conn, "", err.Error())
		return
	}

	resp, err := s.client.Do(upstreamReq)
	if err != nil && resp == nil {
		transformer := NewStreamTransformer()
		transformer.EmitUpstreamTimeout(func(ev OutEvent) { s.writeWSEvent(conn, ev) })
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		s.writeWSError(conn, "", "upstream error")
		return
	}

	s.streamWS(conn, resp.Body)
}

func (s *Server) streamWS(conn *websocket.Conn, upstream io.Reader) {
	transformer := NewStreamTransformer()
	err := transformer.Run(upstream, func(ev OutEvent) { s.writeWSEvent(conn, ev) })
	if err != nil {
		slog.Warn("proxy: ws stream transform ended with error", "error", err)
	}
	_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
}

func (s *Server) writeWSEvent(conn *websocket.Conn, ev OutEvent) {
	data, err := json.Marshal(wsEvent{Event: ev.Event, Data: ev.Data})
	if err != nil {
		return
	}
	if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
		slog.Debug("proxy: ws write failed", "error", err)
	}
}

func (s *Server) writeWSError(conn *websocket.Conn, code, message string) {
	data, _ := json.Marshal(map[string]string{"type": "error", "error": message, "code": code})
	s.writeWSEvent(conn, OutEvent{Event: "error", Data: data})
}
