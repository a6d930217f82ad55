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

// Package checkpoint provides atomic, file-based execution state capture
// and recovery for orchestration sessions.
//
// # Architecture
//
// Each checkpoint is a single JSON file written with the temp-file-then-
// rename pattern, so a reader never observes a partially written file.
// Checkpoints live under <Dir>/<sessionID>/<timestamp-ms>-<8-char-uuid>.json.
// A session accumulates at most Config.MaxCheckpoints files; the oldest are
// pruned on every write that exceeds the bound.
//
// This mirrors fault-tolerance workflows (resume after a crash) and
// human-in-the-loop pauses (resume later from the newest valid snapshot),
// without coupling checkpoint storage to any particular agent runtime —
// the payload (turns + metadata) is caller-supplied and opaque to this
// package beyond the envelope it wraps it in.
package checkpoint

import (
	"encoding/json"
	"fmt"
	"time"
)

// currentVersion is the checkpoint envelope format version. Load rejects
// any file whose version does not match.
const currentVersion = 1

// Data is the caller-supplied payload captured in a checkpoint.
type Data struct {
	// Turns holds the conversation/execution turns, opaque JSON values
	// owned by the caller (e.g. pkg/message.Message marshaled forms).
	Turns []json.RawMessage `json:"turns"`

	// Metadata holds caller-supplied bookkeeping (agent name, iteration,
	// pending tool call, error string, whatever the caller needs to resume).
	Metadata map[string]any `json:"metadata,omitempty"`
}

// NewData creates an empty Data payload.
func NewData() *Data {
	return &Data{Metadata: make(map[string]any)}
}

// WithTurns sets the turns slice.
func (d *Data) WithTurns(turns []json.RawMessage) *Data {
	d.Turns = turns
	return d
}

// WithMetadata sets a single metadata key.
func (d *Data) WithMetadata(key string, value any) *Data {
	if d.Metadata == nil {
		d.Metadata = make(map[string]any)
	}
	d.Metadata[key] = value
	return d
}

// envelope is the on-disk representation of a checkpoint file.
type envelope struct {
	Version   int               `json:"version"`
	SessionID string            `json:"sessionId"`
	Turns     []json.RawMessage `json:"turns"`
	Metadata  map[string]any    `json:"metadata,omitempty"`
	Timestamp int64             `json:"timestamp"`
}

// Checkpoint describes a saved checkpoint's identity without its payload.
type Checkpoint struct {
	ID        string    `json:"id"`
	SessionID string    `json:"sessionId"`
	Timestamp time.Time `json:"timestamp"`
	TurnCount int       `json:"turnCount"`
	Size      int64     `json:"size"`
}

// serialize marshals an envelope to JSON bytes.
func (e *envelope) serialize() ([]byte, error) {
	if e == nil {
		return nil, fmt.Errorf("cannot serialize nil envelope")
	}
	return json.Marshal(e)
}

// deserializeEnvelope reconstructs an envelope from JSON bytes.
func deserializeEnvelope(raw []byte) (*envelope, error) {
	if len(raw) == 0 {
		return nil, fmt.Errorf("cannot deserialize empty data")
	}
	var e envelope
	if err := json.Unmarshal(raw, &e); err != nil {
		return nil, fmt.Errorf("unmarshal checkpoint envelope: %w", err)
	}
	return &e, nil
}

// matches reports whether the envelope is a well-formed checkpoint for the
// given session: version must equal currentVersion and sessionId must match.
func (e *envelope) matches(sessionID string) bool {
	return e != nil && e.Version == currentVersion && e.SessionID == sessionID
}
