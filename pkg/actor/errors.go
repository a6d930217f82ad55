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

// Package actor implements a cooperative, single-threaded-per-actor
// dispatcher on top of pkg/mailbox: spawn, tell, ask, broadcast and
// topic-based pub/sub, with supervision that isolates a panicking or
// erroring behavior from the rest of the system.
package actor

import "errors"

// ErrDuplicateID is returned by Spawn when an actor with the given id
// already exists.
var ErrDuplicateID = errors.New("actor: duplicate id")

// ErrUnknownActor is returned by Ask when the recipient does not exist.
// Tell to an unknown recipient drops the message without reporting it.
var ErrUnknownActor = errors.New("actor: unknown actor")

// ErrTimeout is returned by Ask when no reply arrives within the
// configured timeout.
var ErrTimeout = errors.New("actor: timeout")

// ErrStopped is returned by Ask when the System is shut down while the
// request is in flight.
var ErrStopped = errors.New("actor: stopped")
