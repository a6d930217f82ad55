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

package autonomy

import (
	"testing"
	"time"

	"github.com/sriinnu/chitragupta-sub012/pkg/message"
)

func TestOnToolUsedDisablesAfterThreshold(t *testing.T) {
	c := New()
	for i := 0; i < DisableThreshold; i++ {
		c.OnToolUsed("bash", true)
	}
	if !c.IsToolDisabled("bash") {
		t.Fatal("expected tool disabled after threshold consecutive failures")
	}
}

func TestOnToolUsedReenablesOnSuccess(t *testing.T) {
	c := New()
	for i := 0; i < DisableThreshold; i++ {
		c.OnToolUsed("bash", true)
	}
	c.OnToolUsed("bash", false)
	if c.IsToolDisabled("bash") {
		t.Fatal("expected tool re-enabled after success")
	}
}

func TestGetDisabledToolsListsOnlyDisabled(t *testing.T) {
	c := New()
	for i := 0; i < DisableThreshold; i++ {
		c.OnToolUsed("bash", true)
	}
	c.OnToolUsed("read", false)

	disabled := c.GetDisabledTools()
	if len(disabled) != 1 || disabled[0] != "bash" {
		t.Errorf("expected only bash disabled, got %v", disabled)
	}
}

func TestDegradedModeReasonSetUnionAndRemove(t *testing.T) {
	c := New()
	if c.IsDegraded() {
		t.Fatal("expected not degraded initially")
	}
	c.EnterDegradedMode("high-latency")
	c.EnterDegradedMode("tool-failures")
	if !c.IsDegraded() {
		t.Fatal("expected degraded with reasons active")
	}
	c.ExitDegradedMode("high-latency")
	if !c.IsDegraded() {
		t.Fatal("expected still degraded with one reason remaining")
	}
	c.ExitDegradedMode("tool-failures")
	if c.IsDegraded() {
		t.Fatal("expected not degraded once all reasons removed")
	}
}

func TestGetHealthReportComputesAverages(t *testing.T) {
	c := New()
	c.RecordTurn(10*time.Millisecond, false)
	c.RecordTurn(20*time.Millisecond, true)

	report := c.GetHealthReport()
	if report.TotalTurns != 2 {
		t.Errorf("expected 2 turns, got %d", report.TotalTurns)
	}
	if report.TotalErrors != 1 {
		t.Errorf("expected 1 error, got %d", report.TotalErrors)
	}
	if report.ErrorRate != 0.5 {
		t.Errorf("expected error rate 0.5, got %v", report.ErrorRate)
	}
	if report.AvgLatency != 15*time.Millisecond {
		t.Errorf("expected avg latency 15ms, got %v", report.AvgLatency)
	}
}

func TestRecoverContextReturnsLongestValidPrefix(t *testing.T) {
	c := New()
	state := message.NewState("sess-1")
	state.Append(message.NewMessage(message.RoleUser, message.Text{Value: "hi"}))
	state.Append(message.NewMessage(message.RoleAssistant, message.Text{Value: "hello"}))

	bad := &message.Message{ID: "", Content: []message.ContentPart{message.Text{Value: "broken"}}}
	state.Messages = append(state.Messages, bad)
	state.Append(message.NewMessage(message.RoleUser, message.Text{Value: "after break"}))

	recovered := c.RecoverContext(state)
	if len(recovered.Messages) != 2 {
		t.Fatalf("expected prefix of 2 valid messages, got %d", len(recovered.Messages))
	}
}

func TestRecoverContextFallsBackToSnapshot(t *testing.T) {
	c := New()
	good := message.NewState("sess-1")
	good.Append(message.NewMessage(message.RoleUser, message.Text{Value: "good state"}))
	c.BeforeTurn(good)

	broken := message.NewState("sess-1")
	broken.Messages = append(broken.Messages, &message.Message{ID: "", Content: nil})

	recovered := c.RecoverContext(broken)
	if len(recovered.Messages) != 1 {
		t.Fatalf("expected fallback to snapshot with 1 message, got %d", len(recovered.Messages))
	}
}
