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

package coordination

import (
	"context"
	"sync"

	"golang.org/x/sync/semaphore"
)

type semState struct {
	sem *semaphore.Weighted
	max int
}

// Semaphores is a table of named counting semaphores, each backed by a
// golang.org/x/sync/semaphore.Weighted for FIFO-fair acquire/release.
type Semaphores struct {
	mu     sync.Mutex
	states map[string]*semState
}

// NewSemaphores creates an empty semaphore table.
func NewSemaphores() *Semaphores {
	return &Semaphores{states: make(map[string]*semState)}
}

func (s *Semaphores) stateFor(name string, maxPermits int) *semState {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.states[name]
	if !ok {
		st = &semState{sem: semaphore.NewWeighted(int64(maxPermits)), max: maxPermits}
		s.states[name] = st
	}
	return st
}

// Acquire takes one of maxPermits permits for name, blocking FIFO until
// one is available or ctx is cancelled. The first call for a given name
// fixes its permit count; later calls reuse the same weighted semaphore.
func (s *Semaphores) Acquire(ctx context.Context, name string, maxPermits int) error {
	st := s.stateFor(name, maxPermits)
	return st.sem.Acquire(ctx, 1)
}

// Release returns one permit for name, waking the next FIFO waiter if any.
func (s *Semaphores) Release(name string) {
	s.mu.Lock()
	st, ok := s.states[name]
	s.mu.Unlock()
	if !ok {
		return
	}
	st.sem.Release(1)
}
