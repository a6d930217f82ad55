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

// Package banker implements a Banker's-algorithm resource allocator:
// agents declare their maximum demand for named resources up front, and
// every request is granted only if the resulting state is provably safe.
package banker

import "sync"

// Request is a resource-name to requested-count map, also used for
// declared maxima and allocations.
type Request map[string]int

// Outcome is the result of a requestResource call.
type Outcome struct {
	Granted bool
	Reason  string
}

// Snapshot is a read-only view of the allocator's committed state.
type Snapshot struct {
	Totals      map[string]int
	Available   map[string]int
	Maximum     map[string]Request
	Allocation  map[string]Request
}

// Banker tracks total/available resources and, per agent, declared
// maxima and current allocation.
type Banker struct {
	mu         sync.Mutex
	totals     map[string]int
	available  map[string]int
	maximum    map[string]Request
	allocation map[string]Request
}

// New creates an empty Banker.
func New() *Banker {
	return &Banker{
		totals:     make(map[string]int),
		available:  make(map[string]int),
		maximum:    make(map[string]Request),
		allocation: make(map[string]Request),
	}
}

// AddResource registers a named resource with total units, or resets an
// existing resource's total, shifting its available count by the change.
func (b *Banker) AddResource(name string, total int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delta := total - b.totals[name]
	b.totals[name] = total
	b.available[name] += delta
}

// DeclareMaximum records agent's maximum demand for each named resource
// in req. Declaring again for an existing agent replaces its prior
// declaration.
func (b *Banker) DeclareMaximum(agent string, req Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.maximum[agent] = cloneRequest(req)
	if _, ok := b.allocation[agent]; !ok {
		b.allocation[agent] = make(Request)
	}
}

// RequestResource runs the full 7-step Banker's request algorithm:
// declaration/maximum/availability checks, a tentative grant, a safety
// simulation, and commit-or-rollback.
func (b *Banker) RequestResource(agent string, req Request) Outcome {
	b.mu.Lock()
	defer b.mu.Unlock()

	max, declared := b.maximum[agent]
	if !declared {
		return Outcome{Granted: false, Reason: "not declared"}
	}

	alloc := b.allocation[agent]
	if alloc == nil {
		alloc = make(Request)
		b.allocation[agent] = alloc
	}

	for resource, amount := range req {
		need := max[resource] - alloc[resource]
		if amount > need {
			return Outcome{Granted: false, Reason: "exceeded declared maximum"}
		}
	}
	for resource, amount := range req {
		if amount > b.available[resource] {
			return Outcome{Granted: false, Reason: "insufficient"}
		}
	}

	for resource, amount := range req {
		alloc[resource] += amount
		b.available[resource] -= amount
	}

	if !b.isSafeLocked() {
		for resource, amount := range req {
			alloc[resource] -= amount
			b.available[resource] += amount
		}
		return Outcome{Granted: false, Reason: "would-be-unsafe"}
	}

	return Outcome{Granted: true}
}

// ReleaseResource returns req back to available, bounded by agent's
// current allocation. Releasing more than allocated is clamped, not an
// error; releasing for an undeclared agent is a no-op.
func (b *Banker) ReleaseResource(agent string, req Request) {
	b.mu.Lock()
	defer b.mu.Unlock()

	alloc, ok := b.allocation[agent]
	if !ok {
		return
	}
	for resource, amount := range req {
		held := alloc[resource]
		if amount > held {
			amount = held
		}
		alloc[resource] -= amount
		b.available[resource] += amount
	}
}

// RemoveProcess returns every resource agent currently holds to
// available and deletes its maximum/allocation declarations.
func (b *Banker) RemoveProcess(agent string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if alloc, ok := b.allocation[agent]; ok {
		for resource, amount := range alloc {
			b.available[resource] += amount
		}
	}
	delete(b.allocation, agent)
	delete(b.maximum, agent)
}

// IsSafeState reports whether the current committed state admits some
// finishing order for every agent.
func (b *Banker) IsSafeState() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.isSafeLocked()
}

// isSafeLocked runs the Banker's safety algorithm: repeatedly find an
// agent whose remaining need is fully covered by available, simulate its
// finish (returning its allocation to available), and repeat until no
// more agents can finish. The state is safe iff every agent finishes.
func (b *Banker) isSafeLocked() bool {
	work := cloneIntMap(b.available)
	finished := make(map[string]bool, len(b.maximum))

	remaining := len(b.maximum)
	for remaining > 0 {
		progressed := false
		for agent, max := range b.maximum {
			if finished[agent] {
				continue
			}
			alloc := b.allocation[agent]
			if !needCoveredBy(max, alloc, work) {
				continue
			}
			for resource, amount := range alloc {
				work[resource] += amount
			}
			finished[agent] = true
			remaining--
			progressed = true
		}
		if !progressed {
			return false
		}
	}
	return true
}

func needCoveredBy(max, alloc, available map[string]int) bool {
	for resource, maxAmount := range max {
		need := maxAmount - alloc[resource]
		if need > available[resource] {
			return false
		}
	}
	return true
}

// GetState returns a deep-copied snapshot of the allocator's state.
func (b *Banker) GetState() Snapshot {
	b.mu.Lock()
	defer b.mu.Unlock()

	maxCopy := make(map[string]Request, len(b.maximum))
	for agent, req := range b.maximum {
		maxCopy[agent] = cloneRequest(req)
	}
	allocCopy := make(map[string]Request, len(b.allocation))
	for agent, req := range b.allocation {
		allocCopy[agent] = cloneRequest(req)
	}

	return Snapshot{
		Totals:     cloneIntMap(b.totals),
		Available:  cloneIntMap(b.available),
		Maximum:    maxCopy,
		Allocation: allocCopy,
	}
}

func cloneRequest(req Request) Request {
	out := make(Request, len(req))
	for k, v := range req {
		out[k] = v
	}
	return out
}

func cloneIntMap(m map[string]int) map[string]int {
	out := make(map[string]int, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
