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

// Package compact implements the context compaction engine: it estimates
// token usage against a provider context limit, picks a compaction tier,
// and rewrites the message log to fit that tier's budget.
//
// Compaction tier (none/soft/medium/hard) is a vocabulary distinct from
// the router's model Tier (no-llm/haiku/sonnet/opus); the two are
// unrelated and intentionally never compared to one another.
package compact

import (
	"github.com/sriinnu/chitragupta-sub012/pkg/classify"
	"github.com/sriinnu/chitragupta-sub012/pkg/message"
)

// Tier is the compaction aggressiveness level.
type Tier string

const (
	TierNone   Tier = "none"
	TierSoft   Tier = "soft"
	TierMedium Tier = "medium"
	TierHard   Tier = "hard"
)

// shouldCompactUtilization is the utilization ratio at or above which
// ShouldCompact reports true.
const shouldCompactUtilization = 0.8

// EstimateTotalTokens estimates a state's total token footprint.
func EstimateTotalTokens(state *message.State) int {
	return classify.EstimateStateTokens(state)
}

// ShouldCompact reports whether state's utilization of contextLimit has
// reached the compaction threshold.
func ShouldCompact(state *message.State, contextLimit int) bool {
	if contextLimit <= 0 {
		return false
	}
	utilization := float64(EstimateTotalTokens(state)) / float64(contextLimit)
	return utilization >= shouldCompactUtilization
}

// TierFor picks the compaction tier for state against contextLimit, using
// the bands: <0.60 none, [0.60,0.75) soft, [0.75,0.90) medium, >=0.90 hard.
func TierFor(state *message.State, contextLimit int) Tier {
	if contextLimit <= 0 {
		return TierNone
	}

	utilization := float64(EstimateTotalTokens(state)) / float64(contextLimit)
	switch {
	case utilization < 0.60:
		return TierNone
	case utilization < 0.75:
		return TierSoft
	case utilization < 0.90:
		return TierMedium
	default:
		return TierHard
	}
}
