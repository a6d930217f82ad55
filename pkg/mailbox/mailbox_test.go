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

import (
	"context"
	"fmt"
	"testing"
	"time"
)

func TestPushPopPriorityOrder(t *testing.T) {
	mb := New(0)
	mb.Push(&Envelope{ID: "a", Priority: PriorityLow})
	mb.Push(&Envelope{ID: "b", Priority: PriorityCritical})
	mb.Push(&Envelope{ID: "c", Priority: PriorityNormal})
	mb.Push(&Envelope{ID: "d", Priority: PriorityCritical})

	want := []string{"b", "d", "c", "a"}
	for _, id := range want {
		e := mb.Pop()
		if e == nil || e.ID != id {
			t.Fatalf("expected %s, got %+v", id, e)
		}
	}
	if mb.Pop() != nil {
		t.Error("expected empty mailbox after draining")
	}
}

func TestPushRespectsCapacity(t *testing.T) {
	mb := New(2)
	if !mb.Push(&Envelope{ID: "a"}) {
		t.Fatal("expected first push to succeed")
	}
	if !mb.Push(&Envelope{ID: "b"}) {
		t.Fatal("expected second push to succeed")
	}
	if mb.Push(&Envelope{ID: "c"}) {
		t.Fatal("expected third push to fail at capacity")
	}
	if !mb.IsFull() {
		t.Error("expected mailbox to report full")
	}
}

func TestSizeEqualsMinOfPushesAndCapacity(t *testing.T) {
	const capacity = 5
	mb := New(capacity)
	for i := 0; i < 8; i++ {
		mb.Push(&Envelope{ID: fmt.Sprintf("e-%d", i), Priority: Priority(i % LaneCount)})
	}
	if mb.Size() != capacity {
		t.Errorf("expected size %d, got %d", capacity, mb.Size())
	}
}

func TestPeekDoesNotRemove(t *testing.T) {
	mb := New(0)
	mb.Push(&Envelope{ID: "a", Priority: PriorityHigh})
	if mb.Peek().ID != "a" {
		t.Fatal("expected peek to return the pushed envelope")
	}
	if mb.Size() != 1 {
		t.Error("expected peek to leave the mailbox unchanged")
	}
}

func TestDrainReturnsPriorityThenInsertionOrder(t *testing.T) {
	mb := New(0)
	mb.Push(&Envelope{ID: "a", Priority: PriorityLow})
	mb.Push(&Envelope{ID: "b", Priority: PriorityHigh})
	mb.Push(&Envelope{ID: "c", Priority: PriorityLow})
	mb.Push(&Envelope{ID: "d", Priority: PriorityHigh})

	drained := mb.Drain()
	want := []string{"b", "d", "a", "c"}
	for i, id := range want {
		if drained[i].ID != id {
			t.Errorf("position %d: expected %s, got %s", i, id, drained[i].ID)
		}
	}
	if !mb.IsEmpty() {
		t.Error("expected mailbox empty after drain")
	}
}

func TestEnvelopeExpired(t *testing.T) {
	now := time.Now()
	e := &Envelope{Timestamp: now.Add(-time.Minute), TTL: time.Second}
	if !e.Expired(now) {
		t.Error("expected envelope past its TTL to be expired")
	}

	never := &Envelope{Timestamp: now.Add(-time.Hour), TTL: 0}
	if never.Expired(now) {
		t.Error("expected zero TTL to mean never expires")
	}
}

func TestEnvelopeHasHop(t *testing.T) {
	e := &Envelope{Hops: []string{"actor-1", "actor-2"}}
	if !e.HasHop("actor-1") {
		t.Error("expected HasHop to find existing hop")
	}
	if e.HasHop("actor-3") {
		t.Error("expected HasHop false for unseen actor")
	}
}

// fakeBackend is an in-memory stand-in for a RedisBackend, exercising the
// Backend contract without a live Redis server.
type fakeBackend struct {
	byActor map[string]map[string]*Envelope
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{byActor: make(map[string]map[string]*Envelope)}
}

func (f *fakeBackend) Persist(_ context.Context, actorID string, e *Envelope) error {
	if f.byActor[actorID] == nil {
		f.byActor[actorID] = make(map[string]*Envelope)
	}
	f.byActor[actorID][e.ID] = e
	return nil
}

func (f *fakeBackend) Load(_ context.Context, actorID string) ([]*Envelope, error) {
	var out []*Envelope
	for _, e := range f.byActor[actorID] {
		out = append(out, e)
	}
	return out, nil
}

func (f *fakeBackend) Delete(_ context.Context, actorID, envelopeID string) error {
	delete(f.byActor[actorID], envelopeID)
	return nil
}

func TestMailboxWithBackendPersistsAndDeletes(t *testing.T) {
	backend := newFakeBackend()
	mb := NewWithBackend(0, "actor-1", backend)

	mb.Push(&Envelope{ID: "a", Priority: PriorityNormal})
	if len(backend.byActor["actor-1"]) != 1 {
		t.Fatalf("expected backend to hold 1 envelope, got %d", len(backend.byActor["actor-1"]))
	}

	mb.Pop()
	if len(backend.byActor["actor-1"]) != 0 {
		t.Errorf("expected backend entry removed after Pop, got %d remaining", len(backend.byActor["actor-1"]))
	}
}

func TestMailboxWithBackendRecoversOnConstruction(t *testing.T) {
	backend := newFakeBackend()
	backend.Persist(context.Background(), "actor-2", &Envelope{ID: "recovered", Priority: PriorityCritical})

	mb := NewWithBackend(0, "actor-2", backend)
	if mb.Size() != 1 {
		t.Fatalf("expected recovered envelope in mailbox, size=%d", mb.Size())
	}
	if got := mb.Pop(); got == nil || got.ID != "recovered" {
		t.Errorf("expected recovered envelope to pop, got %+v", got)
	}
}

func TestMailboxWithBackendDrainDeletesAll(t *testing.T) {
	backend := newFakeBackend()
	mb := NewWithBackend(0, "actor-3", backend)
	mb.Push(&Envelope{ID: "a", Priority: PriorityLow})
	mb.Push(&Envelope{ID: "b", Priority: PriorityHigh})

	mb.Drain()
	if len(backend.byActor["actor-3"]) != 0 {
		t.Errorf("expected drain to clear backend entries, got %d remaining", len(backend.byActor["actor-3"]))
	}
}
