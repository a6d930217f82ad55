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
	"testing"
	"time"
)

func TestAcquireUncontendedSucceeds(t *testing.T) {
	l := NewLocks(0)
	if err := l.Acquire("r1", "a", time.Second); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestAcquireContendedBlocksUntilReleased(t *testing.T) {
	l := NewLocks(0)
	l.Acquire("r1", "a", time.Second)

	done := make(chan error, 1)
	go func() {
		done <- l.Acquire("r1", "b", time.Second)
	}()

	time.Sleep(20 * time.Millisecond)
	l.Release("r1", "a")

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("expected b to acquire after release, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for waiter to acquire")
	}
}

func TestAcquireTimesOut(t *testing.T) {
	l := NewLocks(0)
	l.Acquire("r1", "a", time.Second)

	err := l.Acquire("r1", "b", 20*time.Millisecond)
	if err != ErrLockTimeout {
		t.Fatalf("expected ErrLockTimeout, got %v", err)
	}
}

func TestForceReleaseWakesWaiter(t *testing.T) {
	l := NewLocks(0)
	l.Acquire("r1", "a", time.Second)

	done := make(chan error, 1)
	go func() {
		done <- l.Acquire("r1", "b", time.Second)
	}()
	time.Sleep(20 * time.Millisecond)

	l.ForceRelease("a")

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("expected b to acquire after force release, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for force release to propagate")
	}
}

func TestSweepExpiredReclaimsStaleLock(t *testing.T) {
	l := NewLocks(10 * time.Millisecond)
	l.Acquire("r1", "a", time.Second)
	time.Sleep(20 * time.Millisecond)

	reclaimed := l.SweepExpired()
	if len(reclaimed) != 1 || reclaimed[0] != "r1" {
		t.Fatalf("expected r1 reclaimed, got %v", reclaimed)
	}
}
