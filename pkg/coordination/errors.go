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

// Package coordination implements the cross-actor synchronization
// primitives layered above pkg/actor and pkg/mailbox: locks, barriers,
// semaphores, a result collector, sagas and wait-for-graph deadlock
// detection/resolution.
package coordination

import "errors"

// ErrLockTimeout is returned by Locks.Acquire when the wait times out.
var ErrLockTimeout = errors.New("coordination: lock timeout")

// ErrAbortedForDeadlock names the abort of a deadlock victim. No function
// in this package returns it: Monitor.Check force-releases the victim's
// locks and reports the victim only through the caller's AbortFunc.
var ErrAbortedForDeadlock = errors.New("coordination: aborted for deadlock")
