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

package classify

import (
	"strings"
	"testing"
)

func TestClassifySearchRoutesToolOnly(t *testing.T) {
	result := Classify("find all .ts files in src/")

	if result.Intent != IntentSearch {
		t.Errorf("expected search intent, got %s", result.Intent)
	}
	if !result.Features.HasFilePaths {
		t.Error("expected HasFilePaths to be true")
	}
	if result.Confidence < 0.8 {
		t.Errorf("expected confidence >= 0.8, got %f", result.Confidence)
	}
	if result.Route != RouteToolOnly {
		t.Errorf("expected tool-only route, got %s", result.Route)
	}
	if result.Ambiguity > 0.3 {
		t.Errorf("expected ambiguity <= 0.3, got %f", result.Ambiguity)
	}
}

func TestClassifyDurationBudget(t *testing.T) {
	text := strings.Repeat("word ", 2000) // ~8KiB
	result := Classify(text)
	if result.DurationMs >= 5 {
		t.Errorf("expected classification under 5ms, took %fms", result.DurationMs)
	}
}

func TestClassifyConversation(t *testing.T) {
	result := Classify("hey thanks for the help")
	if result.Intent != IntentConversation {
		t.Errorf("expected conversation intent, got %s", result.Intent)
	}
	if result.Route != RouteHaiku {
		t.Errorf("expected haiku route for conversation, got %s", result.Route)
	}
}

func TestClassifyAmbiguousInputNoMatches(t *testing.T) {
	result := Classify("xyzzy plugh")
	if result.Ambiguity != 1.0 {
		t.Errorf("expected ambiguity 1.0 when no pattern matches, got %f", result.Ambiguity)
	}
}

func TestExtractKeywordsDedupesAndCaps(t *testing.T) {
	text := strings.Repeat("refactor refactor the module.go file quickly please ", 3)
	keywords := extractKeywords(text)

	if len(keywords) > 15 {
		t.Errorf("expected at most 15 keywords, got %d", len(keywords))
	}

	seen := make(map[string]bool)
	for _, k := range keywords {
		if seen[k] {
			t.Errorf("expected deduplicated keywords, found repeat %q", k)
		}
		seen[k] = true
	}
}

func TestExtractFeaturesErrorStack(t *testing.T) {
	f := ExtractFeatures("panic: runtime error\ngoroutine 1 [running]:\nmain.main()")
	if !f.HasErrorStack {
		t.Error("expected HasErrorStack true for panic trace")
	}
}

func TestEstimateTokens(t *testing.T) {
	tests := []struct {
		text string
		want int
	}{
		{"", 0},
		{"abcd", 1},
		{"abcde", 2},
		{strings.Repeat("a", 100), 25},
	}
	for _, tt := range tests {
		if got := EstimateTokens(tt.text); got != tt.want {
			t.Errorf("EstimateTokens(%q) = %d, want %d", tt.text, got, tt.want)
		}
	}
}
