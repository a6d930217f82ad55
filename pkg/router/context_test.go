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

package router

import (
	"testing"

	"github.com/sriinnu/chitragupta-sub012/pkg/message"
)

func TestExtractContextClampedToUnitRange(t *testing.T) {
	msgs := []*message.Message{
		message.NewMessage(message.RoleUser, message.Text{Value: "URGENT!!! fix this distributed system consensus race condition ASAP, it's CRITICAL and production is down!!!"}),
	}

	ctx := ExtractContext(msgs, "", nil, 100, 10, 5)

	fields := []float64{ctx.Complexity, ctx.Urgency, ctx.Creativity, ctx.Precision, ctx.CodeRatio, ctx.ConversationDepth, ctx.MemoryLoad}
	for _, f := range fields {
		if f < 0 || f > 1 {
			t.Errorf("expected all context fields in [0,1], got %f", f)
		}
	}
	if ctx.Urgency <= 0 {
		t.Error("expected nonzero urgency for urgent message")
	}
}

func TestExtractContextEmptyMessages(t *testing.T) {
	ctx := ExtractContext(nil, "", nil, 0, 10, 5)
	if ctx.Complexity != 0 || ctx.Urgency != 0 {
		t.Errorf("expected zero-valued context for no messages, got %+v", ctx)
	}
}
