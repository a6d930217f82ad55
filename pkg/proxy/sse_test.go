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

package proxy

import (
	"strings"
	"testing"
)

func TestStreamTransformerEmitsTextDeltasInOrder(t *testing.T) {
	upstream := strings.NewReader(
		"data: {\"type\":\"message_start\",\"role\":\"assistant\"}\n\n" +
			"data: {\"type\":\"text_delta\",\"delta\":\"hel\"}\n\n" +
			"data: {\"type\":\"text_delta\",\"delta\":\"lo\"}\n\n" +
			"data: {\"type\":\"message_stop\"}\n\n",
	)

	transformer := NewStreamTransformer()
	var events []OutEvent
	if err := transformer.Run(upstream, func(ev OutEvent) { events = append(events, ev) }); err != nil {
		t.Fatalf("Run: %v", err)
	}

	wantOrder := []string{"message_start", "text_delta", "text_delta", "message_stop"}
	if len(events) != len(wantOrder) {
		t.Fatalf("expected %d events, got %d: %+v", len(wantOrder), len(events), events)
	}
	for i, want := range wantOrder {
		if events[i].Event != want {
			t.Errorf("event %d: expected %q, got %q", i, want, events[i].Event)
		}
	}
	if transformer.State() != StateStop {
		t.Errorf("expected final state stop, got %v", transformer.State())
	}
}

func TestStreamTransformerHandlesToolCallSequence(t *testing.T) {
	upstream := strings.NewReader(
		"data: {\"type\":\"tool_start\",\"tool_name\":\"search\"}\n\n" +
			"data: {\"type\":\"tool_delta\",\"tool_args_json\":\"q-part-one\"}\n\n" +
			"data: {\"type\":\"tool_delta\",\"tool_args_json\":\"q-part-two\"}\n\n" +
			"data: {\"type\":\"message_stop\"}\n\n",
	)

	transformer := NewStreamTransformer()
	var events []OutEvent
	_ = transformer.Run(upstream, func(ev OutEvent) { events = append(events, ev) })

	if events[0].Event != "message_start" {
		t.Errorf("expected implicit message_start before tool_start, got %q", events[0].Event)
	}
	if events[1].Event != "tool_start" {
		t.Errorf("expected tool_start, got %q", events[1].Event)
	}
	foundDeltas := 0
	for _, ev := range events {
		if ev.Event == "input_json_delta" {
			foundDeltas++
		}
	}
	if foundDeltas != 2 {
		t.Errorf("expected 2 input_json_delta events, got %d", foundDeltas)
	}
}

func TestStreamTransformerUpstreamErrorEvent(t *testing.T) {
	upstream := strings.NewReader("data: {\"type\":\"error\",\"error\":\"rate limited\"}\n\n")

	transformer := NewStreamTransformer()
	var events []OutEvent
	_ = transformer.Run(upstream, func(ev OutEvent) { events = append(events, ev) })

	if len(events) != 1 || events[0].Event != "error" {
		t.Fatalf("expected single error event, got %+v", events)
	}
	if transformer.State() != StateError {
		t.Errorf("expected state error, got %v", transformer.State())
	}
}

func TestStreamTransformerDoneSentinelStopsStream(t *testing.T) {
	upstream := strings.NewReader("data: {\"type\":\"text_delta\",\"delta\":\"hi\"}\n\ndata: [DONE]\n\n")

	transformer := NewStreamTransformer()
	var events []OutEvent
	_ = transformer.Run(upstream, func(ev OutEvent) { events = append(events, ev) })

	last := events[len(events)-1]
	if last.Event != "message_stop" {
		t.Errorf("expected [DONE] to translate to message_stop, got %q", last.Event)
	}
}

func TestStreamTransformerClosesWithStopWhenUpstreamEndsWithoutTerminal(t *testing.T) {
	upstream := strings.NewReader("data: {\"type\":\"text_delta\",\"delta\":\"partial\"}\n\n")

	transformer := NewStreamTransformer()
	var events []OutEvent
	if err := transformer.Run(upstream, func(ev OutEvent) { events = append(events, ev) }); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if transformer.State() != StateStop {
		t.Errorf("expected implicit stop on upstream close, got %v", transformer.State())
	}
}

func TestEmitUpstreamTimeoutSetsErrorCode(t *testing.T) {
	transformer := NewStreamTransformer()
	var got OutEvent
	transformer.EmitUpstreamTimeout(func(ev OutEvent) { got = ev })

	if !strings.Contains(string(got.Data), "upstream-timeout") {
		t.Errorf("expected upstream-timeout code in %q", got.Data)
	}
}
