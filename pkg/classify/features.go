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

// Package classify implements cheap, synchronous text analysis: feature
// extraction and intent classification. Nothing in this package performs
// I/O or calls an LLM; every function is a pure transform of its input.
package classify

import (
	"regexp"
	"strings"
)

// Features are cheap structural signals extracted from raw input text.
type Features struct {
	HasCode        bool
	HasFilePaths   bool
	HasErrorStack  bool
	QuestionCount  int
	WordCount      int
	SentenceCount  int
	Imperative     bool
	MultiStep      bool
	Technical      bool
}

var (
	codeBlockPattern  = regexp.MustCompile("```")
	inlineCodePattern = regexp.MustCompile("`[^`]+`")
	filePathPattern   = regexp.MustCompile(`[\w./-]*\.(go|ts|tsx|js|jsx|py|rb|java|rs|c|cpp|h|hpp|json|yaml|yml|toml|md|sh)\b`)
	errorStackPattern = regexp.MustCompile(`(?i)(traceback|stack trace|at .+\.go:\d+|panic:|exception in thread|unhandled exception)`)
	sentencePattern   = regexp.MustCompile(`[.!?]+`)
	imperativeVerbs    = []string{"add", "fix", "create", "remove", "delete", "update", "refactor", "implement", "write", "build", "run", "install", "configure", "rename", "move", "generate"}
	multiStepPhrases   = []string{"then", "after that", "next,", "first,", "finally,", "step 1", "step one", "and then"}
	technicalTerms     = []string{"function", "class", "interface", "struct", "method", "variable", "api", "endpoint", "database", "query", "algorithm", "compile", "build", "deploy", "dependency", "package", "module", "test", "unit test"}
)

// ExtractFeatures computes the structural signals used by Classify and by
// the bandit router's context extraction.
func ExtractFeatures(text string) Features {
	lower := strings.ToLower(text)
	words := strings.Fields(text)

	imperative := false
	if len(words) > 0 {
		firstWord := strings.ToLower(strings.Trim(words[0], ".,!?;:"))
		for _, v := range imperativeVerbs {
			if firstWord == v {
				imperative = true
				break
			}
		}
	}

	multiStep := false
	for _, phrase := range multiStepPhrases {
		if strings.Contains(lower, phrase) {
			multiStep = true
			break
		}
	}

	technical := false
	for _, term := range technicalTerms {
		if strings.Contains(lower, term) {
			technical = true
			break
		}
	}

	sentences := sentencePattern.Split(strings.TrimSpace(text), -1)
	sentenceCount := 0
	for _, s := range sentences {
		if strings.TrimSpace(s) != "" {
			sentenceCount++
		}
	}

	return Features{
		HasCode:       codeBlockPattern.MatchString(text) || inlineCodePattern.MatchString(text),
		HasFilePaths:  filePathPattern.MatchString(text),
		HasErrorStack: errorStackPattern.MatchString(text),
		QuestionCount: strings.Count(text, "?"),
		WordCount:     len(words),
		SentenceCount: sentenceCount,
		Imperative:    imperative,
		MultiStep:     multiStep,
		Technical:     technical,
	}
}

// EstimateTokens applies the character-based token estimator shared by the
// router's context extraction: ceil(len(s)/4).
func EstimateTokens(s string) int {
	if s == "" {
		return 0
	}
	return (len([]rune(s)) + 3) / 4
}
