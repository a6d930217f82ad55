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

package actor

import (
	"time"

	"github.com/google/uuid"

	"github.com/sriinnu/chitragupta-sub012/pkg/mailbox"
)

// Context is the only surface a Behavior sees: the actor's own identity
// has no field access, only these operations.
type Context struct {
	system *System
	self   *internalActor
}

// Self returns the invoked actor's id.
func (c *Context) Self() string { return c.self.id }

// Reply answers an ask envelope. Replies whose correlation id matches no
// pending ask are silently discarded by the system.
func (c *Context) Reply(req *mailbox.Envelope, payload any) {
	c.system.resolveAsk(&mailbox.Envelope{
		ID:            uuid.NewString(),
		From:          c.self.id,
		To:            req.From,
		Type:          mailbox.TypeReply,
		Payload:       payload,
		Timestamp:     time.Now(),
		CorrelationID: req.CorrelationID,
	})
}

// Send is a fire-and-forget tell to another actor.
func (c *Context) Send(toID string, payload any, priority mailbox.Priority, topic string) {
	c.system.Tell(c.self.id, toID, payload, priority, topic)
}

// Ask sends payload to toID and blocks for a reply up to timeout.
func (c *Context) Ask(toID string, payload any, timeout time.Duration) (*mailbox.Envelope, error) {
	return c.system.Ask(c.self.id, toID, payload, timeout)
}

// Forward re-routes env to a new recipient, extending its hop list. If
// the hop list already contains toID the envelope is dropped to prevent
// routing loops, and Forward reports false.
func (c *Context) Forward(env *mailbox.Envelope, toID string) bool {
	if env.HasHop(toID) {
		return false
	}
	next := *env
	next.Hops = append(append([]string{}, env.Hops...), c.self.id)
	next.To = toID
	return c.system.deliver(&next)
}

// Stop stops another actor by id.
func (c *Context) Stop(id string) bool { return c.system.Stop(id) }

// Become swaps this actor's behavior for subsequent envelopes.
func (c *Context) Become(behavior Behavior) {
	c.self.behaviorMu.Lock()
	c.self.behavior = behavior
	c.self.behaviorMu.Unlock()
}
