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

// Package router implements the contextual bandit that picks a model
// tier per request: a 7-dimensional context vector scored by a LinUCB
// arm per tier, with a heuristic cold-start fallback.
package router

import (
	"regexp"
	"strings"

	"github.com/sriinnu/chitragupta-sub012/pkg/classify"
	"github.com/sriinnu/chitragupta-sub012/pkg/message"
)

// contextDim is D: the 7 signal dimensions plus a bias term.
const contextDim = 8

// TuriyaContext is the 7-dimensional feature vector (plus implicit bias)
// a routing decision is scored against. Every field is clamped to [0,1].
type TuriyaContext struct {
	Complexity        float64
	Urgency           float64
	Creativity        float64
	Precision         float64
	CodeRatio         float64
	ConversationDepth float64
	MemoryLoad        float64
}

// vector returns the D=8 feature vector [1, complexity, urgency, ...]
// used by LinUCB scoring.
func (c TuriyaContext) vector() []float64 {
	return []float64{1, c.Complexity, c.Urgency, c.Creativity, c.Precision, c.CodeRatio, c.ConversationDepth, c.MemoryLoad}
}

var (
	codeKeywordPattern   = regexp.MustCompile(`(?i)\b(function|class|struct|interface|algorithm|refactor|implement|optimize|recursion|concurrency|goroutine|async)\b`)
	codeBlockPattern     = regexp.MustCompile("```([\\s\\S]*?)```")
	multiStepPattern     = regexp.MustCompile(`(?i)\b(then|after that|step \d|first,? .* then|and then)\b`)
	expertDomainPattern  = regexp.MustCompile(`(?i)\b(distributed system|consensus|cryptograph|kernel|compiler|race condition|memory model|lock-free|formal verification)\b`)
	urgencyPattern       = regexp.MustCompile(`(?i)\b(urgent|asap|immediately|critical|production down|emergency|right now)\b`)
	allCapsWordPattern   = regexp.MustCompile(`\b[A-Z]{3,}\b`)
	creativityPattern    = regexp.MustCompile(`(?i)\b(brainstorm|creative|imagine|design|idea|novel approach|alternative)\b`)
	howWhyPattern        = regexp.MustCompile(`(?i)\b(how|why)\b`)
	precisionPattern     = regexp.MustCompile(`(?i)\b(exact|precisely|must be|strict|deterministic|edge case)\b`)
	numberPattern        = regexp.MustCompile(`\d+`)
	auditReviewPattern   = regexp.MustCompile(`(?i)\b(audit|review|type.?check|lint)\b`)
	fileRefPattern       = regexp.MustCompile(`\b[\w./-]+\.\w{1,5}\b`)
)

// ExtractContext derives a TuriyaContext from the conversation's last user
// message, the system prompt, registered tools and the memory hit count.
func ExtractContext(messages []*message.Message, systemPrompt string, tools []message.ToolDefinition, memoryHits int, maxDepth, maxMemoryHits int) TuriyaContext {
	text := lastUserText(messages)
	lower := strings.ToLower(text)

	complexity := complexityScore(text, lower)
	urgency := urgencyScore(lower, text)
	creativity := creativityScore(lower, text)
	precision := precisionScore(lower, text)
	codeRatio := codeRatioScore(text, lower)

	depth := 0.0
	if maxDepth > 0 {
		depth = clamp01(float64(len(messages)) / (2 * float64(maxDepth)))
	}
	memLoad := 0.0
	if maxMemoryHits > 0 {
		memLoad = clamp01(float64(memoryHits) / float64(maxMemoryHits))
	}

	_ = systemPrompt
	_ = tools

	return TuriyaContext{
		Complexity:        complexity,
		Urgency:           urgency,
		Creativity:        creativity,
		Precision:         precision,
		CodeRatio:         codeRatio,
		ConversationDepth: depth,
		MemoryLoad:        memLoad,
	}
}

func lastUserText(messages []*message.Message) string {
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role != message.RoleUser {
			continue
		}
		var sb strings.Builder
		for _, part := range messages[i].Content {
			if t, ok := part.(message.Text); ok {
				sb.WriteString(t.Value)
			}
		}
		return sb.String()
	}
	return ""
}

func complexityScore(text, lower string) float64 {
	tokens := EstimateMessageTokens(text)

	score := 0.0
	switch {
	case tokens > 500:
		score += 0.3
	case tokens > 200:
		score += 0.2
	case tokens > 50:
		score += 0.1
	}

	if codeKeywordPattern.MatchString(text) {
		score += 0.15
	}
	if codeBlockPattern.MatchString(text) {
		score += 0.15
	}
	if multiStepPattern.MatchString(lower) {
		score += 0.2
	}
	if expertDomainPattern.MatchString(lower) {
		score += 0.3
	}

	return clamp01(score)
}

func urgencyScore(lower, text string) float64 {
	score := 0.0
	if urgencyPattern.MatchString(lower) {
		score += 0.5
	}
	bangs := strings.Count(text, "!")
	score += min64(0.3, 0.1*float64(bangs))

	capsWords := allCapsWordPattern.FindAllString(text, -1)
	score += min64(0.2, 0.05*float64(len(capsWords)))

	return clamp01(score)
}

func creativityScore(lower, text string) float64 {
	score := 0.0
	if creativityPattern.MatchString(lower) {
		score += 0.5
	}
	if strings.Contains(text, "?") {
		score += 0.1
	}
	if howWhyPattern.MatchString(lower) {
		score += 0.1
	}
	return clamp01(score)
}

func precisionScore(lower, text string) float64 {
	score := 0.0
	if precisionPattern.MatchString(lower) {
		score += 0.5
	}
	numbers := numberPattern.FindAllString(text, -1)
	score += min64(0.2, 0.03*float64(len(numbers)))
	if auditReviewPattern.MatchString(lower) {
		score += 0.2
	}
	return clamp01(score)
}

func codeRatioScore(text, lower string) float64 {
	totalChars := len([]rune(text))
	if totalChars == 0 {
		return 0
	}

	codeChars := 0
	for _, block := range codeBlockPattern.FindAllString(text, -1) {
		codeChars += len([]rune(block))
	}

	ratio := float64(codeChars) / float64(totalChars)
	if codeKeywordPattern.MatchString(lower) {
		ratio += 0.2
	}
	if fileRefPattern.MatchString(text) {
		ratio += 0.1
	}
	return clamp01(ratio)
}

// EstimateMessageTokens applies the character-based estimator for a single
// text blob (system prompts, last-user-text), matching classify.EstimateTokens.
func EstimateMessageTokens(text string) int {
	return classify.EstimateTokens(text)
}

func min64(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}
