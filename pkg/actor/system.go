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
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/sriinnu/chitragupta-sub012/pkg/mailbox"
)

// Behavior handles one envelope. It never observes concurrent invocation
// of itself: the dispatcher guarantees at most one in-flight call per
// actor at a time. A panicking behavior is recovered and logged; it does
// not crash the dispatcher.
type Behavior func(ctx *Context, env *mailbox.Envelope)

// metricsRecorder is the subset of pkg/observability.Metrics the actor
// system exercises, duck-typed so this package need not import it.
type metricsRecorder interface {
	SetMailboxSize(actorID string, size int)
	RecordMailboxRejected(actorID string)
	RecordActorSpawned(expertise string)
	RecordActorAsk(outcome string)
}

type noopRecorder struct{}

func (noopRecorder) SetMailboxSize(string, int)    {}
func (noopRecorder) RecordMailboxRejected(string)  {}
func (noopRecorder) RecordActorSpawned(string)     {}
func (noopRecorder) RecordActorAsk(string)         {}

type internalActor struct {
	id         string
	expertise  string
	mailbox    *mailbox.Mailbox
	behaviorMu sync.Mutex
	behavior   Behavior
	stopped    bool
}

// System is the actor runtime: a registry of actors driven by a single
// cooperative dispatcher goroutine.
type System struct {
	mu      sync.RWMutex
	actors  map[string]*internalActor
	topics  map[string]map[string]bool
	pending map[string]chan *mailbox.Envelope

	wake   chan struct{}
	stopCh chan struct{}
	done   chan struct{}

	events  chan Event
	onEvent func(Event)

	metrics metricsRecorder

	defaultMailboxMax int

	mailboxBackend mailbox.Backend
}

// Option configures a System at construction.
type Option func(*System)

// WithMetrics wires a metrics recorder (typically *observability.Metrics).
func WithMetrics(m metricsRecorder) Option {
	return func(s *System) { s.metrics = m }
}

// WithEventHandler registers a best-effort callback for lifecycle events.
func WithEventHandler(fn func(Event)) Option {
	return func(s *System) { s.onEvent = fn }
}

// WithDefaultMailboxMax sets the mailbox capacity used by Spawn when no
// per-actor override is given. Zero means unbounded.
func WithDefaultMailboxMax(n int) Option {
	return func(s *System) { s.defaultMailboxMax = n }
}

// WithMailboxBackend wires an optional persistence hook (typically a
// *mailbox.RedisBackend) so every spawned actor's mailbox survives a
// process restart until its envelopes are delivered.
func WithMailboxBackend(b mailbox.Backend) Option {
	return func(s *System) { s.mailboxBackend = b }
}

// New creates a System and starts its dispatcher goroutine.
func New(opts ...Option) *System {
	s := &System{
		actors:  make(map[string]*internalActor),
		topics:  make(map[string]map[string]bool),
		pending: make(map[string]chan *mailbox.Envelope),
		wake:    make(chan struct{}, 1),
		stopCh:  make(chan struct{}),
		done:    make(chan struct{}),
		events:  make(chan Event, 256),
		metrics: noopRecorder{},
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.onEvent != nil {
		go s.drainEvents()
	}
	go s.dispatchLoop()
	return s
}

func (s *System) drainEvents() {
	for ev := range s.events {
		s.onEvent(ev)
	}
}

// SpawnOptions customizes a spawned actor.
type SpawnOptions struct {
	Expertise  string
	MailboxMax int
}

// ActorRef is a lightweight handle to a spawned actor.
type ActorRef struct {
	ID     string
	system *System
}

// Spawn registers behavior under id. Spawning a duplicate id fails with
// ErrDuplicateID.
func (s *System) Spawn(id string, behavior Behavior, opts SpawnOptions) (*ActorRef, error) {
	s.mu.Lock()
	if _, exists := s.actors[id]; exists {
		s.mu.Unlock()
		return nil, ErrDuplicateID
	}
	max := opts.MailboxMax
	if max == 0 {
		max = s.defaultMailboxMax
	}
	mb := mailbox.New(max)
	if s.mailboxBackend != nil {
		mb = mailbox.NewWithBackend(max, id, s.mailboxBackend)
	}
	s.actors[id] = &internalActor{
		id:        id,
		expertise: opts.Expertise,
		mailbox:   mb,
		behavior:  behavior,
	}
	s.mu.Unlock()

	s.metrics.RecordActorSpawned(opts.Expertise)
	s.emit(EventActorSpawned, id, "")
	s.emit(EventPeerDiscovered, id, "")
	return &ActorRef{ID: id, system: s}, nil
}

// Tell delivers payload to toId's mailbox, fire-and-forget. Delivery is
// silently dropped when the mailbox is full or the recipient is unknown.
func (s *System) Tell(from, toID string, payload any, priority mailbox.Priority, topic string) {
	s.deliver(&mailbox.Envelope{
		ID:        uuid.NewString(),
		From:      from,
		To:        toID,
		Type:      mailbox.TypeTell,
		Payload:   payload,
		Priority:  priority,
		Timestamp: time.Now(),
		Topic:     topic,
	})
}

func (s *System) deliver(env *mailbox.Envelope) bool {
	s.mu.RLock()
	a, ok := s.actors[env.To]
	s.mu.RUnlock()
	if !ok || a.stopped {
		return false
	}
	if !a.mailbox.Push(env) {
		s.metrics.RecordMailboxRejected(env.To)
		return false
	}
	s.metrics.SetMailboxSize(env.To, a.mailbox.Size())
	s.signalWork()
	return true
}

func (s *System) signalWork() {
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

// Ask delivers payload to toId and blocks until a matching reply arrives
// or timeout elapses, in which case it returns ErrTimeout. An unknown
// recipient rejects immediately with ErrUnknownActor.
func (s *System) Ask(from, toID string, payload any, timeout time.Duration) (*mailbox.Envelope, error) {
	s.mu.RLock()
	a, ok := s.actors[toID]
	s.mu.RUnlock()
	if !ok || a.stopped {
		s.metrics.RecordActorAsk("unknown")
		return nil, ErrUnknownActor
	}

	correlationID := uuid.NewString()
	reply := make(chan *mailbox.Envelope, 1)

	s.mu.Lock()
	s.pending[correlationID] = reply
	s.mu.Unlock()

	env := &mailbox.Envelope{
		ID:            uuid.NewString(),
		From:          from,
		To:            toID,
		Type:          mailbox.TypeAsk,
		Payload:       payload,
		Timestamp:     time.Now(),
		CorrelationID: correlationID,
	}
	if !s.deliver(env) {
		s.mu.Lock()
		delete(s.pending, correlationID)
		s.mu.Unlock()
		s.metrics.RecordActorAsk("rejected")
		return nil, ErrUnknownActor
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case r := <-reply:
		s.metrics.RecordActorAsk("ok")
		return r, nil
	case <-timer.C:
		s.mu.Lock()
		delete(s.pending, correlationID)
		s.mu.Unlock()
		s.metrics.RecordActorAsk("timeout")
		return nil, ErrTimeout
	case <-s.done:
		s.metrics.RecordActorAsk("stopped")
		return nil, ErrStopped
	}
}

// Broadcast delivers payload once to every actor other than from.
func (s *System) Broadcast(from string, payload any) {
	s.mu.RLock()
	ids := make([]string, 0, len(s.actors))
	for id := range s.actors {
		if id != from {
			ids = append(ids, id)
		}
	}
	s.mu.RUnlock()

	for _, id := range ids {
		s.Tell(from, id, payload, mailbox.PriorityNormal, "")
	}
}

// Subscribe adds actorID to topic's subscriber set.
func (s *System) Subscribe(actorID, topic string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.topics[topic] == nil {
		s.topics[topic] = make(map[string]bool)
	}
	s.topics[topic][actorID] = true
}

// Unsubscribe removes actorID from topic's subscriber set.
func (s *System) Unsubscribe(actorID, topic string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if subs, ok := s.topics[topic]; ok {
		delete(subs, actorID)
	}
}

// Publish delivers payload to every subscriber of topic.
func (s *System) Publish(from, topic string, payload any) {
	s.mu.RLock()
	subs := make([]string, 0, len(s.topics[topic]))
	for id := range s.topics[topic] {
		subs = append(subs, id)
	}
	s.mu.RUnlock()

	for _, id := range subs {
		s.Tell(from, id, payload, mailbox.PriorityNormal, topic)
	}
}

// Stop removes id's mailbox and its topic subscriptions. Asks already in
// flight to id are not rejected: each still ends with ErrTimeout, or with
// ErrStopped if Shutdown happens first. It is idempotent: stopping an already-stopped or unknown id returns
// false without error.
func (s *System) Stop(id string) bool {
	s.mu.Lock()
	a, ok := s.actors[id]
	if !ok || a.stopped {
		s.mu.Unlock()
		return false
	}
	a.stopped = true
	delete(s.actors, id)
	for _, subs := range s.topics {
		delete(subs, id)
	}
	s.mu.Unlock()

	s.emit(EventActorStopped, id, "")
	s.emit(EventPeerLost, id, "")
	return true
}

// Shutdown stops every actor idempotently, rejects all pending asks and
// halts the dispatcher.
func (s *System) Shutdown() {
	s.mu.Lock()
	ids := make([]string, 0, len(s.actors))
	for id := range s.actors {
		ids = append(ids, id)
	}
	s.pending = make(map[string]chan *mailbox.Envelope)
	s.mu.Unlock()

	for _, id := range ids {
		s.Stop(id)
	}
	close(s.done)
	close(s.stopCh)
	if s.onEvent != nil {
		close(s.events)
	}
}

func (s *System) dispatchLoop() {
	ticker := time.NewTicker(2 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-s.stopCh:
			return
		case <-s.wake:
			s.runRound()
		case <-ticker.C:
			s.runRound()
		}
	}
}

// runRound processes exactly one envelope per actor that currently has a
// non-empty mailbox, round-robining across actors so no single actor can
// starve the others.
func (s *System) runRound() {
	s.mu.RLock()
	actors := make([]*internalActor, 0, len(s.actors))
	for _, a := range s.actors {
		actors = append(actors, a)
	}
	s.mu.RUnlock()

	more := false
	for _, a := range actors {
		if a.stopped {
			continue
		}
		env := a.mailbox.Pop()
		if env == nil {
			continue
		}
		if env.Expired(time.Now()) {
			continue
		}
		s.invoke(a, env)
		if !a.mailbox.IsEmpty() {
			more = true
		}
	}
	if more {
		s.signalWork()
	}
}

func (s *System) invoke(a *internalActor, env *mailbox.Envelope) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("actor behavior panicked", "actor", a.id, "recover", r)
		}
	}()

	a.behaviorMu.Lock()
	behavior := a.behavior
	a.behaviorMu.Unlock()

	ctx := &Context{system: s, self: a}
	behavior(ctx, env)
}

// resolveAsk delivers a reply envelope to the pending Ask awaiting its
// CorrelationID, discarding replies that match no pending request.
func (s *System) resolveAsk(env *mailbox.Envelope) {
	s.mu.Lock()
	ch, ok := s.pending[env.CorrelationID]
	if ok {
		delete(s.pending, env.CorrelationID)
	}
	s.mu.Unlock()
	if ok {
		ch <- env
	}
}
