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
	"fmt"
	"log/slog"
)

// SagaStep is one unit of a Saga: Action is expected to behave like an
// ask (it blocks for its own result or timeout, via ctx); Compensate is
// expected to behave like a tell — fire-and-forget, never blocking
// further compensations on its own failure.
type SagaStep struct {
	Name       string
	Action     func(ctx context.Context) error
	Compensate func()
}

// Saga runs an ordered list of steps, and on failure rolls back every
// already-completed step's compensation in reverse order.
type Saga struct {
	Steps []SagaStep
}

// Run executes steps in order. On the first failure, it compensates
// every completed step in reverse order (each compensation's own failure
// is logged but never blocks the remaining compensations) and returns
// the original step error.
func (s *Saga) Run(ctx context.Context) error {
	completed := make([]SagaStep, 0, len(s.Steps))

	for _, step := range s.Steps {
		if err := step.Action(ctx); err != nil {
			s.compensate(completed)
			return fmt.Errorf("saga step %q failed: %w", step.Name, err)
		}
		completed = append(completed, step)
	}
	return nil
}

func (s *Saga) compensate(completed []SagaStep) {
	for i := len(completed) - 1; i >= 0; i-- {
		step := completed[i]
		if step.Compensate == nil {
			continue
		}
		func() {
			defer func() {
				if r := recover(); r != nil {
					slog.Error("saga compensation panicked", "step", step.Name, "recover", r)
				}
			}()
			step.Compensate()
		}()
	}
}
