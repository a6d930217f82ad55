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

// Package agentregistry tracks which agents are available for work and
// scores candidates against a query by capability and expertise overlap.
package agentregistry

import (
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/sriinnu/chitragupta-sub012/pkg/registry"
)

// ErrRegistryFull is returned by Register when at capacity and id is new.
var ErrRegistryFull = errors.New("agentregistry: registry full")

// Status is an agent's availability.
type Status string

const (
	StatusIdle    Status = "idle"
	StatusBusy    Status = "busy"
	StatusOffline Status = "offline"
)

// Entry describes one registered agent.
type Entry struct {
	ID            string
	Capabilities  []string
	Expertise     []string
	Status        Status
	Load          float64 // clamped to [0,1]
	RegisteredAt  time.Time
	LastHeartbeat time.Time
}

func (e Entry) clone() Entry {
	c := e
	c.Capabilities = append([]string(nil), e.Capabilities...)
	c.Expertise = append([]string(nil), e.Expertise...)
	return c
}

// Query describes a capability/expertise search.
type Query struct {
	Capabilities []string
	Expertise    []string
	Status       *Status // nil uses the default idle+busy filter
	MaxLoad      *float64
}

// Scored pairs an Entry with its match score.
type Scored struct {
	Entry Entry
	Score float64
}

// Registry tracks agent entries, scoped to a maximum population.
type Registry struct {
	mu        sync.RWMutex
	store     *registry.BaseRegistry[Entry]
	maxAgents int
	timeout   time.Duration
}

// New creates a Registry. maxAgents <= 0 means unbounded. heartbeatTimeout
// is the default used by Sweep when called with a zero duration.
func New(maxAgents int, heartbeatTimeout time.Duration) *Registry {
	if heartbeatTimeout <= 0 {
		heartbeatTimeout = 60 * time.Second
	}
	return &Registry{
		store:     registry.NewBaseRegistry[Entry](),
		maxAgents: maxAgents,
		timeout:   heartbeatTimeout,
	}
}

// Register adds or updates entry. Re-registering an existing id preserves
// its original RegisteredAt. Registering a new id while at maxAgents fails
// with ErrRegistryFull.
func (r *Registry) Register(entry Entry) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry.Load = clamp01(entry.Load)

	existing, exists := r.store.Get(entry.ID)
	if !exists && r.maxAgents > 0 && r.store.Count() >= r.maxAgents {
		return ErrRegistryFull
	}
	if exists {
		entry.RegisteredAt = existing.RegisteredAt
		_ = r.store.Remove(entry.ID)
	}
	if entry.RegisteredAt.IsZero() {
		entry.RegisteredAt = time.Now()
	}
	if entry.LastHeartbeat.IsZero() {
		entry.LastHeartbeat = time.Now()
	}
	return r.store.Register(entry.ID, entry.clone())
}

// Unregister removes id from the registry. Unregistering an unknown id is
// a no-op.
func (r *Registry) Unregister(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_ = r.store.Remove(id)
}

// UpdateStatus sets id's status and, if load is non-nil, its clamped load.
func (r *Registry) UpdateStatus(id string, status Status, load *float64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, ok := r.store.Get(id)
	if !ok {
		return false
	}
	entry.Status = status
	if load != nil {
		entry.Load = clamp01(*load)
	}
	_ = r.store.Remove(id)
	_ = r.store.Register(id, entry)
	return true
}

// Heartbeat refreshes id's LastHeartbeat to now.
func (r *Registry) Heartbeat(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, ok := r.store.Get(id)
	if !ok {
		return false
	}
	entry.LastHeartbeat = time.Now()
	_ = r.store.Remove(id)
	_ = r.store.Register(id, entry)
	return true
}

// Find scores every candidate matching the default or explicit status
// filter and MaxLoad, returning matches sorted by score descending, ties
// broken by more recent LastHeartbeat.
func (r *Registry) Find(q Query) []Scored {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var results []Scored
	for _, entry := range r.store.List() {
		if !passesFilter(entry, q) {
			continue
		}
		results = append(results, Scored{Entry: entry.clone(), Score: score(entry, q)})
	}

	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].Entry.LastHeartbeat.After(results[j].Entry.LastHeartbeat)
	})
	return results
}

// FindBest returns the single highest-scoring match, or false if none.
func (r *Registry) FindBest(capabilities, expertise []string) (Entry, bool) {
	results := r.Find(Query{Capabilities: capabilities, Expertise: expertise})
	if len(results) == 0 {
		return Entry{}, false
	}
	return results[0].Entry, true
}

// Sweep marks entries whose LastHeartbeat exceeds timeout (or the
// registry's default if timeout <= 0) as offline, returning the ids that
// changed.
func (r *Registry) Sweep(timeout time.Duration) []string {
	if timeout <= 0 {
		timeout = r.timeout
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	cutoff := time.Now().Add(-timeout)
	var changed []string
	for _, entry := range r.store.List() {
		if entry.Status == StatusOffline {
			continue
		}
		if entry.LastHeartbeat.Before(cutoff) {
			entry.Status = StatusOffline
			_ = r.store.Remove(entry.ID)
			_ = r.store.Register(entry.ID, entry)
			changed = append(changed, entry.ID)
		}
	}
	return changed
}

// GetAll returns every registered entry.
func (r *Registry) GetAll() []Entry {
	r.mu.RLock()
	defer r.mu.RUnlock()

	all := r.store.List()
	out := make([]Entry, len(all))
	copy(out, all)
	return out
}

// Clear removes every entry.
func (r *Registry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.store.Clear()
}

func passesFilter(e Entry, q Query) bool {
	if q.Status != nil {
		if e.Status != *q.Status {
			return false
		}
	} else if e.Status == StatusOffline {
		return false
	}
	if q.MaxLoad != nil && e.Load > *q.MaxLoad {
		return false
	}
	return true
}

// score implements the weighted capability/expertise/availability formula:
// 0.6*capJ + 0.3*expJ + 0.1*avail.
func score(e Entry, q Query) float64 {
	capJ := jaccard(q.Capabilities, e.Capabilities)
	expJ := jaccard(q.Expertise, e.Expertise)
	if len(q.Expertise) > 0 && len(e.Expertise) == 0 {
		expJ = 0
	}

	var avail float64
	switch e.Status {
	case StatusIdle:
		avail = 1
	case StatusBusy:
		avail = 0.4
	default:
		avail = 0
	}
	avail *= 1 - clamp01(e.Load)

	return 0.6*capJ + 0.3*expJ + 0.1*avail
}

func jaccard(a, b []string) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 0
	}
	setA := toSet(a)
	setB := toSet(b)

	intersection := 0
	union := make(map[string]bool)
	for k := range setA {
		union[k] = true
		if setB[k] {
			intersection++
		}
	}
	for k := range setB {
		union[k] = true
	}
	if len(union) == 0 {
		return 0
	}
	return float64(intersection) / float64(len(union))
}

func toSet(items []string) map[string]bool {
	s := make(map[string]bool, len(items))
	for _, it := range items {
		s[it] = true
	}
	return s
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
