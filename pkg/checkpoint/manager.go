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
	"sync"
	"time"
)

// metricsRecorder is the subset of observability.Recorder the manager needs.
// Declared locally so this package does not import pkg/observability directly
// and can be wired to a nil recorder in tests.
type metricsRecorder interface {
	RecordCheckpointSave(sessionID string)
}

// noopRecorder is used when no recorder is configured.
type noopRecorder struct{}

func (noopRecorder) RecordCheckpointSave(string) {}

// Manager saves, loads, lists and prunes checkpoints for sessions, and can
// drive periodic auto-checkpointing for a running session.
type Manager struct {
	cfg     *Config
	storage *Storage
	metrics metricsRecorder

	mu      sync.Mutex
	timers  map[string]*time.Timer
}

// NewManager creates a Manager from cfg. cfg is defaulted and validated
// in-place if SetDefaults/Validate have not already been called. If metrics
// is nil, checkpoint saves are not recorded anywhere.
func NewManager(cfg *Config, metrics metricsRecorder) (*Manager, error) {
	if cfg == nil {
		return nil, fmt.Errorf("checkpoint: config is required")
	}
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("checkpoint: invalid config: %w", err)
	}
	if metrics == nil {
		metrics = noopRecorder{}
	}
	return &Manager{
		cfg:     cfg,
		storage: NewStorage(cfg.Dir),
		metrics: metrics,
		timers:  make(map[string]*time.Timer),
	}, nil
}

// Save writes data as a new checkpoint for sessionID, pruning the oldest
// checkpoints beyond Config.MaxCheckpoints, and returns the saved
// checkpoint's descriptor.
func (m *Manager) Save(sessionID string, data *Data) (*Checkpoint, error) {
	if !m.cfg.IsEnabled() {
		return nil, fmt.Errorf("checkpoint: checkpointing is disabled")
	}
	if sessionID == "" {
		return nil, fmt.Errorf("checkpoint: sessionID is required")
	}
	if data == nil {
		data = NewData()
	}

	e := &envelope{
		Version:   currentVersion,
		SessionID: sessionID,
		Turns:     data.Turns,
		Metadata:  data.Metadata,
		Timestamp: time.Now().UnixMilli(),
	}

	cp, err := m.storage.write(e)
	if err != nil {
		return nil, fmt.Errorf("checkpoint: save: %w", err)
	}

	m.metrics.RecordCheckpointSave(sessionID)

	if _, err := m.Prune(sessionID); err != nil {
		return cp, fmt.Errorf("checkpoint: save succeeded but prune failed: %w", err)
	}

	return cp, nil
}

// Load returns the newest valid checkpoint's payload for sessionID, skipping
// any files that fail to parse or do not match sessionID. It returns
// (nil, nil) if no valid checkpoint exists.
func (m *Manager) Load(sessionID string) (*Data, error) {
	names, err := m.storage.filenames(sessionID)
	if err != nil {
		return nil, fmt.Errorf("checkpoint: load: %w", err)
	}

	for _, name := range names {
		e, err := m.storage.readEnvelope(sessionID, name)
		if err != nil {
			continue
		}
		if !e.matches(sessionID) {
			continue
		}
		return &Data{Turns: e.Turns, Metadata: e.Metadata}, nil
	}

	return nil, nil
}

// List returns descriptors for every valid checkpoint of sessionID, newest
// first.
func (m *Manager) List(sessionID string) ([]*Checkpoint, error) {
	names, err := m.storage.filenames(sessionID)
	if err != nil {
		return nil, fmt.Errorf("checkpoint: list: %w", err)
	}

	checkpoints := make([]*Checkpoint, 0, len(names))
	for _, name := range names {
		e, err := m.storage.readEnvelope(sessionID, name)
		if err != nil || !e.matches(sessionID) {
			continue
		}
		ts, ok := parseTimestamp(name)
		if !ok {
			continue
		}
		checkpoints = append(checkpoints, &Checkpoint{
			ID:        trimJSONSuffix(name),
			SessionID: sessionID,
			Timestamp: time.UnixMilli(ts),
			TurnCount: len(e.Turns),
		})
	}

	return checkpoints, nil
}

// Prune removes checkpoints beyond Config.MaxCheckpoints for sessionID,
// oldest first, and returns the number removed.
func (m *Manager) Prune(sessionID string) (int, error) {
	if m.cfg.MaxCheckpoints <= 0 {
		return 0, nil
	}

	names, err := m.storage.filenames(sessionID)
	if err != nil {
		return 0, fmt.Errorf("checkpoint: prune: %w", err)
	}
	if len(names) <= m.cfg.MaxCheckpoints {
		return 0, nil
	}

	excess := names[m.cfg.MaxCheckpoints:]
	removed := 0
	for _, name := range excess {
		if err := m.storage.remove(sessionID, name); err != nil {
			return removed, fmt.Errorf("checkpoint: prune: %w", err)
		}
		removed++
	}
	return removed, nil
}

// DeleteAll removes every checkpoint for sessionID and stops any running
// auto-checkpoint timer for it.
func (m *Manager) DeleteAll(sessionID string) error {
	m.StopAutoCheckpoint(sessionID)
	if err := m.storage.removeAll(sessionID); err != nil {
		return fmt.Errorf("checkpoint: delete all: %w", err)
	}
	return nil
}

// StartAutoCheckpoint starts a periodic timer that invokes fn every
// Config.Interval to obtain fresh checkpoint data to save for sessionID.
// If a timer is already running for sessionID, it is replaced. The timer
// is unref'd in the sense that it is stopped by StopAutoCheckpoint or
// DeleteAll rather than by any process-exit hook; callers embedding this
// in a long-running server should call StopAutoCheckpoint on shutdown.
func (m *Manager) StartAutoCheckpoint(sessionID string, fn func() *Data) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if existing, ok := m.timers[sessionID]; ok {
		existing.Stop()
	}

	var tick func()
	tick = func() {
		if data := fn(); data != nil {
			_, _ = m.Save(sessionID, data)
		}

		m.mu.Lock()
		defer m.mu.Unlock()
		if _, ok := m.timers[sessionID]; !ok {
			return
		}
		m.timers[sessionID] = time.AfterFunc(m.cfg.Interval, tick)
	}

	m.timers[sessionID] = time.AfterFunc(m.cfg.Interval, tick)
}

// StopAutoCheckpoint stops the auto-checkpoint timer for sessionID, if any.
func (m *Manager) StopAutoCheckpoint(sessionID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if timer, ok := m.timers[sessionID]; ok {
		timer.Stop()
		delete(m.timers, sessionID)
	}
}

// trimJSONSuffix strips the ".json" extension from a checkpoint filename.
func trimJSONSuffix(name string) string {
	const suffix = ".json"
	if len(name) > len(suffix) && name[len(name)-len(suffix):] == suffix {
		return name[:len(name)-len(suffix)]
	}
	return name
}
