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

package agentregistry

import (
	"testing"
	"time"
)

func TestRegisterPreservesRegisteredAtOnReregister(t *testing.T) {
	r := New(0, 0)
	first := time.Now().Add(-time.Hour)
	if err := r.Register(Entry{ID: "a", RegisteredAt: first}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := r.Register(Entry{ID: "a"}); err != nil {
		t.Fatalf("unexpected error on re-register: %v", err)
	}

	all := r.GetAll()
	if len(all) != 1 || !all[0].RegisteredAt.Equal(first) {
		t.Errorf("expected original RegisteredAt preserved, got %v", all[0].RegisteredAt)
	}
}

func TestRegisterFullRejectsNewID(t *testing.T) {
	r := New(1, 0)
	if err := r.Register(Entry{ID: "a"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := r.Register(Entry{ID: "b"}); err != ErrRegistryFull {
		t.Fatalf("expected ErrRegistryFull, got %v", err)
	}
	if err := r.Register(Entry{ID: "a", Status: StatusBusy}); err != nil {
		t.Errorf("expected re-register of existing id to succeed at capacity, got %v", err)
	}
}

func TestLoadIsClamped(t *testing.T) {
	r := New(0, 0)
	r.Register(Entry{ID: "a", Load: 5})
	all := r.GetAll()
	if all[0].Load != 1 {
		t.Errorf("expected load clamped to 1, got %v", all[0].Load)
	}
}

func TestFindScoresAndSortsDescending(t *testing.T) {
	r := New(0, 0)
	r.Register(Entry{ID: "exact", Capabilities: []string{"go", "test"}, Status: StatusIdle})
	r.Register(Entry{ID: "partial", Capabilities: []string{"go"}, Status: StatusIdle})
	r.Register(Entry{ID: "none", Capabilities: []string{"python"}, Status: StatusIdle})

	results := r.Find(Query{Capabilities: []string{"go", "test"}})
	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}
	if results[0].Entry.ID != "exact" {
		t.Errorf("expected exact match to score highest, got %s", results[0].Entry.ID)
	}
	for i := 1; i < len(results); i++ {
		if results[i].Score > results[i-1].Score {
			t.Errorf("expected descending score order at index %d", i)
		}
	}
}

func TestFindDefaultFilterExcludesOffline(t *testing.T) {
	r := New(0, 0)
	r.Register(Entry{ID: "a", Status: StatusOffline})
	r.Register(Entry{ID: "b", Status: StatusIdle})

	results := r.Find(Query{})
	if len(results) != 1 || results[0].Entry.ID != "b" {
		t.Errorf("expected only idle entry returned by default, got %+v", results)
	}
}

func TestSweepMarksStaleOffline(t *testing.T) {
	r := New(0, time.Millisecond)
	r.Register(Entry{ID: "a", Status: StatusIdle, LastHeartbeat: time.Now().Add(-time.Hour)})

	changed := r.Sweep(0)
	if len(changed) != 1 || changed[0] != "a" {
		t.Fatalf("expected a swept to offline, got %+v", changed)
	}

	all := r.GetAll()
	if all[0].Status != StatusOffline {
		t.Errorf("expected status offline after sweep, got %v", all[0].Status)
	}
}

func TestFindBestReturnsFalseWhenEmpty(t *testing.T) {
	r := New(0, 0)
	if _, ok := r.FindBest(nil, nil); ok {
		t.Error("expected no best match on empty registry")
	}
}
