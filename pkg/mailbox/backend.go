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

package mailbox

import "context"

// Backend is an optional persistence hook for a Mailbox. The in-memory
// lanes remain the source of truth for delivery order; a Backend only
// shadows Push/Pop so that a crashed process can recover undelivered
// envelopes for an actor id, instead of wiring the whole mailbox through
// a remote store.
type Backend interface {
	// Persist records e as queued for actorID.
	Persist(ctx context.Context, actorID string, e *Envelope) error
	// Load returns the envelopes previously persisted for actorID, in no
	// particular order; callers re-sort by Priority and Timestamp.
	Load(ctx context.Context, actorID string) ([]*Envelope, error)
	// Delete removes the record for envelopeID once it has been
	// delivered (or discarded).
	Delete(ctx context.Context, actorID, envelopeID string) error
}
