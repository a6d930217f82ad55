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

package checkpoint

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Storage persists checkpoint envelopes as one file per checkpoint under
// <dir>/<sessionID>/<timestamp-ms>-<8char-uuid>.json, using a temp-file
// then rename write so readers never see a partial file.
type Storage struct {
	dir string
}

// NewStorage creates a Storage rooted at dir.
func NewStorage(dir string) *Storage {
	return &Storage{dir: dir}
}

// sessionDir returns the directory holding a session's checkpoint files.
func (s *Storage) sessionDir(sessionID string) string {
	return filepath.Join(s.dir, sessionID)
}

// write atomically persists an envelope and returns the checkpoint descriptor.
func (s *Storage) write(e *envelope) (*Checkpoint, error) {
	dir := s.sessionDir(e.SessionID)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create checkpoint dir: %w", err)
	}

	id := fmt.Sprintf("%d-%s", e.Timestamp, shortUUID())
	finalPath := filepath.Join(dir, id+".json")
	tempPath := finalPath + ".tmp"

	data, err := e.serialize()
	if err != nil {
		return nil, fmt.Errorf("serialize checkpoint: %w", err)
	}

	if err := os.WriteFile(tempPath, data, 0644); err != nil {
		return nil, fmt.Errorf("write checkpoint temp file: %w", err)
	}

	if err := os.Rename(tempPath, finalPath); err != nil {
		os.Remove(tempPath)
		return nil, fmt.Errorf("rename checkpoint file: %w", err)
	}

	return &Checkpoint{
		ID:        id,
		SessionID: e.SessionID,
		Timestamp: time.UnixMilli(e.Timestamp),
		TurnCount: len(e.Turns),
		Size:      int64(len(data)),
	}, nil
}

// shortUUID returns the first 8 characters of a freshly generated UUID.
func shortUUID() string {
	full := uuid.NewString()
	return strings.ReplaceAll(full, "-", "")[:8]
}

// filenames returns the checkpoint filenames for a session, sorted
// descending by the timestamp embedded in the filename (newest first).
func (s *Storage) filenames(sessionID string) ([]string, error) {
	dir := s.sessionDir(sessionID)
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read checkpoint dir: %w", err)
	}

	type named struct {
		name string
		ts   int64
	}
	var named_ []named
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		ts, ok := parseTimestamp(entry.Name())
		if !ok {
			continue
		}
		named_ = append(named_, named{name: entry.Name(), ts: ts})
	}

	sort.Slice(named_, func(i, j int) bool { return named_[i].ts > named_[j].ts })

	names := make([]string, len(named_))
	for i, n := range named_ {
		names[i] = n.name
	}
	return names, nil
}

// parseTimestamp extracts the leading <ms> component from a checkpoint
// filename of the form "<ms>-<8char-uuid>.json".
func parseTimestamp(filename string) (int64, bool) {
	base := strings.TrimSuffix(filename, ".json")
	idx := strings.Index(base, "-")
	if idx <= 0 {
		return 0, false
	}
	ts, err := strconv.ParseInt(base[:idx], 10, 64)
	if err != nil {
		return 0, false
	}
	return ts, true
}

// readEnvelope reads and parses one checkpoint file.
func (s *Storage) readEnvelope(sessionID, filename string) (*envelope, error) {
	path := filepath.Join(s.sessionDir(sessionID), filename)
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read checkpoint file: %w", err)
	}
	return deserializeEnvelope(raw)
}

// remove deletes one checkpoint file.
func (s *Storage) remove(sessionID, filename string) error {
	path := filepath.Join(s.sessionDir(sessionID), filename)
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove checkpoint file: %w", err)
	}
	return nil
}

// removeAll deletes every checkpoint file for a session.
func (s *Storage) removeAll(sessionID string) error {
	if err := os.RemoveAll(s.sessionDir(sessionID)); err != nil {
		return fmt.Errorf("remove session checkpoint dir: %w", err)
	}
	return nil
}
