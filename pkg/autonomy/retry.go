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

package autonomy

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// newSchedule builds the exponential backoff schedule used between
// retries: min(baseDelay*2^attempt, maxDelay), no randomization jitter
// and no elapsed-time cutoff since maxRetries alone bounds the loop.
func newSchedule(baseDelay, maxDelay time.Duration) *backoff.ExponentialBackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = baseDelay
	b.MaxInterval = maxDelay
	b.Multiplier = 2
	b.RandomizationFactor = 0
	b.MaxElapsedTime = 0
	b.Reset()
	return b
}

// WithRetry runs op, retrying only on transient errors with exponential
// backoff, for at most 1+maxRetries total attempts. Fatal and
// escalated-unknown errors stop retrying immediately.
func (c *Controller) WithRetry(ctx context.Context, op func(ctx context.Context) (any, error), maxRetries int, baseDelay, maxDelay time.Duration) (any, error) {
	tracker := newUnknownTracker()
	schedule := newSchedule(baseDelay, maxDelay)

	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		value, err := op(ctx)
		if err == nil {
			return value, nil
		}
		lastErr = err

		class := tracker.classify(err)
		c.emit(EventErrorClassified, "", string(class))

		if class != ClassTransient {
			return nil, err
		}
		if attempt == maxRetries {
			break
		}

		delay := schedule.NextBackOff()
		c.emit(EventRetry, "", fmt.Sprintf("attempt=%d delay=%s", attempt+1, delay))

		timer := time.NewTimer(delay)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		}
	}
	return nil, lastErr
}
