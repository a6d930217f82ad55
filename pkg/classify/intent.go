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
	"math"
	"regexp"
	"strings"
	"time"
)

// Intent is one of the closed set of request intents.
type Intent string

const (
	IntentFileOperation Intent = "file_operation"
	IntentCodeGeneration Intent = "code_generation"
	IntentCodeReview    Intent = "code_review"
	IntentDebugging     Intent = "debugging"
	IntentRefactoring   Intent = "refactoring"
	IntentSearch        Intent = "search"
	IntentExplanation   Intent = "explanation"
	IntentDocumentation Intent = "documentation"
	IntentSystem        Intent = "system"
	IntentConversation  Intent = "conversation"
)

// Route is the coarse tier a request is handed to before the bandit router
// ever runs.
type Route string

const (
	RouteToolOnly Route = "tool-only"
	RouteHaiku    Route = "haiku"
	RouteSonnet   Route = "sonnet"
	RouteOpus     Route = "opus"
)

// specificityOrder is the tie-break order across intents with equal score,
// most specific first.
var specificityOrder = []Intent{
	IntentFileOperation,
	IntentCodeGeneration,
	IntentCodeReview,
	IntentDebugging,
	IntentRefactoring,
	IntentSearch,
	IntentDocumentation,
	IntentSystem,
	IntentExplanation,
	IntentConversation,
}

type pattern struct {
	re         *regexp.Regexp
	confidence float64
}

// intentPatterns maps each intent to an ordered list of {pattern,
// base-confidence} entries. The highest base-confidence among matched
// patterns becomes the intent's raw score.
var intentPatterns = map[Intent][]pattern{
	IntentFileOperation: {
		{regexp.MustCompile(`(?i)\b(create|delete|move|rename|copy)\b.*\bfile`), 0.85},
		{regexp.MustCompile(`(?i)\blist\b.*\bfiles?\b`), 0.7},
		{regexp.MustCompile(`(?i)\bread\b.*\bfile`), 0.75},
		{regexp.MustCompile(`(?i)\bwrite\b.*\bfile`), 0.75},
	},
	IntentCodeGeneration: {
		{regexp.MustCompile(`(?i)\b(write|create|generate|implement|add)\b.*\b(function|method|class|struct|endpoint|feature)\b`), 0.85},
		{regexp.MustCompile(`(?i)\bscaffold\b`), 0.8},
		{regexp.MustCompile(`(?i)\bbuild\b.*\b(api|service|component)\b`), 0.75},
	},
	IntentCodeReview: {
		{regexp.MustCompile(`(?i)\breview\b.*\b(code|pr|pull request|changes?)\b`), 0.85},
		{regexp.MustCompile(`(?i)\bcheck\b.*\b(for bugs|for issues|quality)\b`), 0.7},
		{regexp.MustCompile(`(?i)\bany\s+issues?\b`), 0.6},
	},
	IntentDebugging: {
		{regexp.MustCompile(`(?i)\b(fix|debug|investigate)\b.*\b(bug|error|crash|failure|issue)\b`), 0.85},
		{regexp.MustCompile(`(?i)\bwhy\s+(is|does|isn't|doesn't)\b.*\b(fail|break|crash|error)\b`), 0.8},
		{regexp.MustCompile(`(?i)\bnot\s+working\b`), 0.65},
	},
	IntentRefactoring: {
		{regexp.MustCompile(`(?i)\brefactor\b`), 0.85},
		{regexp.MustCompile(`(?i)\bclean\s*up\b.*\bcode\b`), 0.7},
		{regexp.MustCompile(`(?i)\bsimplify\b.*\b(code|function|logic)\b`), 0.7},
		{regexp.MustCompile(`(?i)\bextract\b.*\b(function|method|interface)\b`), 0.75},
	},
	IntentSearch: {
		{regexp.MustCompile(`(?i)\b(find|search|locate|grep)\b`), 0.8},
		{regexp.MustCompile(`(?i)\bwhere\s+is\b`), 0.7},
	},
	IntentExplanation: {
		{regexp.MustCompile(`(?i)\b(explain|what\s+(is|does|are)|how\s+does)\b`), 0.75},
		{regexp.MustCompile(`(?i)\bwhat'?s\s+the\s+difference\b`), 0.7},
	},
	IntentDocumentation: {
		{regexp.MustCompile(`(?i)\b(document|documentation|docstring|readme|comment)\b`), 0.8},
		{regexp.MustCompile(`(?i)\badd\b.*\bcomments?\b`), 0.7},
	},
	IntentSystem: {
		{regexp.MustCompile(`(?i)\b(install|configure|setup|deploy|environment variable)\b`), 0.75},
		{regexp.MustCompile(`(?i)\brun\b.*\b(tests?|build|lint)\b`), 0.7},
	},
	IntentConversation: {
		{regexp.MustCompile(`(?i)^\s*(hi|hello|hey|thanks|thank you)\b`), 0.7},
		{regexp.MustCompile(`(?i)\bhow\s+are\s+you\b`), 0.75},
	},
}

// stopWords are excluded from keyword extraction.
var stopWords = map[string]bool{
	"the": true, "a": true, "an": true, "and": true, "or": true, "but": true,
	"is": true, "are": true, "was": true, "were": true, "be": true, "been": true,
	"to": true, "of": true, "in": true, "on": true, "at": true, "for": true,
	"with": true, "this": true, "that": true, "it": true, "can": true, "you": true,
	"please": true, "me": true, "my": true, "i": true, "we": true, "do": true,
	"does": true, "will": true, "would": true, "could": true, "should": true,
	"have": true, "has": true, "had": true, "not": true, "all": true, "as": true,
}

var keywordTokenPattern = regexp.MustCompile(`[^\w.]+`)

// Result is the output of Classify.
type Result struct {
	Intent     Intent
	Keywords   []string
	Ambiguity  float64
	Route      Route
	Confidence float64
	Features   Features
	DurationMs float64
}

// Classify maps raw input text to an intent, route and supporting
// features. It is fully synchronous, performs no I/O, and completes in
// well under 5ms for inputs up to ~8KiB.
func Classify(text string) Result {
	start := time.Now()

	features := ExtractFeatures(text)
	scores := scoreIntents(text, features)

	topIntent, topScore := pickTop(scores)
	ambiguity := computeAmbiguity(scores, topScore)
	route := decideRoute(topIntent, topScore, features, ambiguity)

	return Result{
		Intent:     topIntent,
		Keywords:   extractKeywords(text),
		Ambiguity:  ambiguity,
		Route:      route,
		Confidence: topScore,
		Features:   features,
		DurationMs: float64(time.Since(start).Microseconds()) / 1000.0,
	}
}

func scoreIntents(text string, f Features) map[Intent]float64 {
	scores := make(map[Intent]float64, len(intentPatterns))

	for intent, patterns := range intentPatterns {
		best := 0.0
		for _, p := range patterns {
			if p.re.MatchString(text) && p.confidence > best {
				best = p.confidence
			}
		}
		scores[intent] = best
	}

	if f.HasErrorStack {
		scores[IntentDebugging] = clamp01(scores[IntentDebugging] + 0.15)
	}
	if f.HasFilePaths {
		scores[IntentFileOperation] = clamp01(scores[IntentFileOperation] + 0.10)
		scores[IntentSearch] = clamp01(scores[IntentSearch] + 0.05)
	}
	if f.HasCode {
		scores[IntentCodeGeneration] = clamp01(scores[IntentCodeGeneration] + 0.05)
		scores[IntentDebugging] = clamp01(scores[IntentDebugging] + 0.05)
	}
	if f.QuestionCount > 0 {
		scores[IntentExplanation] = clamp01(scores[IntentExplanation] + 0.10)
	}

	return scores
}

func pickTop(scores map[Intent]float64) (Intent, float64) {
	best := IntentConversation
	bestScore := -1.0
	for _, intent := range specificityOrder {
		s := scores[intent]
		if s > bestScore {
			best = intent
			bestScore = s
		}
	}
	return best, bestScore
}

func computeAmbiguity(scores map[Intent]float64, max float64) float64 {
	if max == 0 {
		return 1.0
	}

	comp := 0
	threshold := 0.6 * max
	for _, s := range scores {
		if s >= threshold {
			comp++
		}
	}

	ambiguity := 0.7*clamp01(float64(comp-1)/3.0) + 0.3*(1-max)
	return math.Round(ambiguity*100) / 100
}

func decideRoute(intent Intent, confidence float64, f Features, ambiguity float64) Route {
	switch {
	case ambiguity > 0.7:
		return RouteOpus
	case f.MultiStep && f.Technical && f.WordCount > 100:
		return RouteOpus
	case intent == IntentSearch && confidence >= 0.8:
		return RouteToolOnly
	case intent == IntentFileOperation && f.HasFilePaths && confidence >= 0.8:
		return RouteToolOnly
	case intent == IntentConversation:
		return RouteHaiku
	case intent == IntentExplanation && f.WordCount <= 10 && !f.MultiStep:
		return RouteHaiku
	case (intent == IntentFileOperation || intent == IntentSearch) && !f.MultiStep:
		return RouteHaiku
	case intent == IntentCodeGeneration || intent == IntentCodeReview || intent == IntentRefactoring || intent == IntentDocumentation || intent == IntentDebugging || intent == IntentSystem:
		return RouteSonnet
	case intent == IntentExplanation && f.WordCount > 20:
		return RouteSonnet
	default:
		return RouteSonnet
	}
}

func extractKeywords(text string) []string {
	lower := strings.ToLower(text)
	rawTokens := keywordTokenPattern.Split(lower, -1)

	seen := make(map[string]bool, len(rawTokens))
	keywords := make([]string, 0, 15)

	for _, tok := range rawTokens {
		tok = strings.Trim(tok, ".")
		if tok == "" {
			continue
		}
		tok = trimNonAlnumKeepDots(tok)
		if len(tok) < 2 {
			continue
		}
		if stopWords[tok] {
			continue
		}
		if seen[tok] {
			continue
		}
		seen[tok] = true
		keywords = append(keywords, tok)
		if len(keywords) >= 15 {
			break
		}
	}

	return keywords
}

func trimNonAlnumKeepDots(s string) string {
	isKeep := func(r rune) bool {
		return (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '.'
	}
	start := 0
	for start < len(s) && !isKeep(rune(s[start])) {
		start++
	}
	end := len(s)
	for end > start && !isKeep(rune(s[end-1])) {
		end--
	}
	return s[start:end]
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
