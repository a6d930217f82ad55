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

package compact

import (
	"regexp"
	"strings"

	"github.com/sriinnu/chitragupta-sub012/pkg/message"
)

const defaultSummaryCharBudget = 2000

var (
	decisionPrefixPattern = regexp.MustCompile(`(?i)^(i'll|i will|let's|let us|the fix is|the issue is|the plan is|i've|i have)\b`)
	filePathInTextPattern = regexp.MustCompile(`\b[\w./-]+\.\w{1,5}\b`)
	codeBlockExtractPattern = regexp.MustCompile("(?s)```.*?```")
	sentenceSplitPattern    = regexp.MustCompile(`(?s)[^.!?]+[.!?]+|[^.!?]+$`)
)

// deterministicSummary produces a bounded-size synopsis of messages
// without calling an LLM: decision sentences, deduplicated file paths,
// code blocks, and each message's first and last sentence, combined up to
// charBudget. If none of those signals are present it falls back to a
// leading slice of the concatenated text.
func deterministicSummary(messages []*message.Message, charBudget int) string {
	if charBudget <= 0 {
		charBudget = defaultSummaryCharBudget
	}

	var decisions []string
	filePaths := newOrderedSet()
	var codeBlocks []string
	var edges []string
	var fullText strings.Builder

	for _, msg := range messages {
		text := textOf(msg)
		if text == "" {
			continue
		}
		fullText.WriteString(text)
		fullText.WriteString(" ")

		for _, path := range filePathInTextPattern.FindAllString(text, -1) {
			filePaths.add(path)
		}
		for _, block := range codeBlockExtractPattern.FindAllString(text, -1) {
			codeBlocks = append(codeBlocks, block)
		}

		sentences := splitSentences(text)
		for _, s := range sentences {
			if decisionPrefixPattern.MatchString(strings.TrimSpace(s)) {
				decisions = append(decisions, strings.TrimSpace(s))
			}
		}
		if len(sentences) > 0 {
			edges = append(edges, strings.TrimSpace(sentences[0]))
			if len(sentences) > 1 {
				edges = append(edges, strings.TrimSpace(sentences[len(sentences)-1]))
			}
		}
	}

	hasSignal := len(decisions) > 0 || filePaths.len() > 0 || len(codeBlocks) > 0

	if !hasSignal {
		fallback := strings.TrimSpace(fullText.String())
		if len(fallback) > charBudget {
			fallback = fallback[:charBudget] + "..."
		}
		return fallback
	}

	var b strings.Builder
	appendBudgeted := func(s string) bool {
		if b.Len()+len(s)+1 > charBudget {
			return false
		}
		b.WriteString(s)
		b.WriteString("\n")
		return true
	}

	for _, d := range decisions {
		if !appendBudgeted(d) {
			return strings.TrimSpace(b.String())
		}
	}
	if filePaths.len() > 0 {
		if !appendBudgeted("Files referenced: " + strings.Join(filePaths.items(), ", ")) {
			return strings.TrimSpace(b.String())
		}
	}
	for _, block := range codeBlocks {
		truncated := block
		if len(truncated) > 500 {
			truncated = truncated[:500] + "\n... (truncated)\n```"
		}
		if !appendBudgeted(truncated) {
			return strings.TrimSpace(b.String())
		}
	}
	for _, e := range edges {
		if !appendBudgeted(e) {
			return strings.TrimSpace(b.String())
		}
	}

	return strings.TrimSpace(b.String())
}

func splitSentences(text string) []string {
	matches := sentenceSplitPattern.FindAllString(text, -1)
	out := make([]string, 0, len(matches))
	for _, m := range matches {
		if strings.TrimSpace(m) != "" {
			out = append(out, m)
		}
	}
	return out
}

func textOf(msg *message.Message) string {
	var b strings.Builder
	for _, part := range msg.Content {
		if t, ok := part.(message.Text); ok {
			b.WriteString(t.Value)
			b.WriteString(" ")
		}
	}
	return strings.TrimSpace(b.String())
}

type orderedSet struct {
	seen  map[string]bool
	order []string
}

func newOrderedSet() *orderedSet {
	return &orderedSet{seen: make(map[string]bool)}
}

func (o *orderedSet) add(v string) {
	if o.seen[v] {
		return
	}
	o.seen[v] = true
	o.order = append(o.order, v)
}

func (o *orderedSet) len() int          { return len(o.order) }
func (o *orderedSet) items() []string   { return o.order }
