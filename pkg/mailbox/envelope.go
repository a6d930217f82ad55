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

// Package mailbox implements the bounded, 4-lane priority queue each
// actor owns. It holds no actor-system behavior of its own: push, pop,
// peek and drain are the entire surface.
package mailbox

import "time"

// EnvelopeType discriminates inter-actor messages.
type EnvelopeType string

const (
	TypeTell  EnvelopeType = "tell"
	TypeAsk   EnvelopeType = "ask"
	TypeReply EnvelopeType = "reply"
)

// Priority is a mailbox lane index, 0 (low) through 3 (critical).
type Priority int

const (
	PriorityLow      Priority = 0
	PriorityNormal   Priority = 1
	PriorityHigh     Priority = 2
	PriorityCritical Priority = 3
)

// LaneCount is the fixed number of priority lanes.
const LaneCount = 4

// Envelope is one inter-actor message.
type Envelope struct {
	ID            string
	From          string
	To            string // actor id, or "*" for broadcast
	Type          EnvelopeType
	Payload       any
	Priority      Priority
	Timestamp     time.Time
	TTL           time.Duration
	Hops          []string
	Topic         string
	CorrelationID string
}

// Expired reports whether the envelope's TTL has elapsed as of now.
func (e *Envelope) Expired(now time.Time) bool {
	if e.TTL <= 0 {
		return false
	}
	return now.Sub(e.Timestamp) > e.TTL
}

// HasHop reports whether actorID already appears in the hop list, the
// loop-protection check applied before a re-route extends Hops.
func (e *Envelope) HasHop(actorID string) bool {
	for _, h := range e.Hops {
		if h == actorID {
			return true
		}
	}
	return false
}
