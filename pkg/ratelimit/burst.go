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

package ratelimit

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// BurstLimiter is a per-identifier token bucket, cheaper than the
// fixed-window DefaultRateLimiter and meant to sit in front of it: it
// catches request bursts from a single identifier in the same instant,
// before a CheckAndRecord call ever touches the Store.
type BurstLimiter struct {
	rps   rate.Limit
	burst int

	mu      sync.Mutex
	buckets map[string]*rate.Limiter
}

// NewBurstLimiter creates a BurstLimiter allowing up to burst requests
// instantaneously and ratePerSecond sustained thereafter, per identifier.
func NewBurstLimiter(ratePerSecond float64, burst int) *BurstLimiter {
	return &BurstLimiter{
		rps:     rate.Limit(ratePerSecond),
		burst:   burst,
		buckets: make(map[string]*rate.Limiter),
	}
}

// Allow reports whether identifier may proceed right now, consuming one
// token from its bucket if so.
func (b *BurstLimiter) Allow(identifier string) bool {
	return b.bucketFor(identifier).Allow()
}

// Reserve returns how long the caller must wait before identifier's next
// request would be allowed, or zero if it's allowed now.
func (b *BurstLimiter) Reserve(identifier string) time.Duration {
	r := b.bucketFor(identifier).ReserveN(time.Now(), 1)
	if !r.OK() {
		return 0
	}
	delay := r.Delay()
	if delay == 0 {
		return 0
	}
	r.Cancel()
	return delay
}

func (b *BurstLimiter) bucketFor(identifier string) *rate.Limiter {
	b.mu.Lock()
	defer b.mu.Unlock()
	l, ok := b.buckets[identifier]
	if !ok {
		l = rate.NewLimiter(b.rps, b.burst)
		b.buckets[identifier] = l
	}
	return l
}

// Size reports how many identifier buckets are currently tracked.
func (b *BurstLimiter) Size() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.buckets)
}
