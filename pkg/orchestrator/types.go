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

// Package orchestrator drives the plan/branch/execute/validate/review/commit
// pipeline that turns a natural-language request into a reviewed, committed
// change set.
package orchestrator

import "time"

// Mode selects how far the pipeline runs.
type Mode string

const (
	ModePlanOnly Mode = "plan-only"
	ModeFull     Mode = "full"
)

// Complexity is the planner's estimate of how large a change is.
type Complexity string

const (
	ComplexitySmall  Complexity = "small"
	ComplexityMedium Complexity = "medium"
	ComplexityLarge  Complexity = "large"
)

// Severity orders review findings; atLeast compares against a minimum.
type Severity string

const (
	SeverityInfo     Severity = "info"
	SeverityWarning  Severity = "warning"
	SeverityCritical Severity = "critical"
)

var severityRank = map[Severity]int{
	SeverityInfo:     0,
	SeverityWarning:  1,
	SeverityCritical: 2,
}

// atLeast reports whether s is at least as severe as min.
func (s Severity) atLeast(min Severity) bool {
	return severityRank[s] >= severityRank[min]
}

// Plan is the planner agent's decomposition of a request.
type Plan struct {
	Steps            []string
	RelevantFiles    []string
	Complexity       Complexity
	RequiresNewFiles bool
	TestSuggestion   string
	DependencyHints  []string
}

// StepResult records what one executed plan step changed.
type StepResult struct {
	Step          string
	ModifiedFiles []string
	CreatedFiles  []string
	Output        string

	// TokensUsed, Cost and ToolCalls are best-effort, populated by
	// collaborators that track them; zero values are fine and simply
	// contribute nothing to the finalized AggregatedStats.
	TokensUsed int
	Cost       float64
	ToolCalls  map[string]int
}

// ValidationResult is the outcome of one build+test+lint pass.
type ValidationResult struct {
	Passed bool
	Log    string
}

// ReviewIssue is one finding from the self-review phase.
type ReviewIssue struct {
	Severity Severity
	Message  string
	File     string
	Line     int
}

// DiffStats summarizes a captured diff.
type DiffStats struct {
	FilesChanged int
	Insertions   int
	Deletions    int
}

// AggregatedStats summarizes resource usage across every step, debug and
// fix attempt in a run.
type AggregatedStats struct {
	Cost           float64
	TokenCount     int
	ToolCallCounts map[string]int
	TurnCount      int
}

// PhaseError records a non-fatal or fatal failure attributed to a phase.
type PhaseError struct {
	Phase       string
	Message     string
	Recoverable bool
}

// ProgressEvent is emitted as the pipeline advances through its phases.
type ProgressEvent struct {
	Phase      string
	Step       int
	TotalSteps int
	Message    string
	ElapsedMs  int64
}

// Result aggregates everything the pipeline produced for one run,
// regardless of how far it got before stopping.
type Result struct {
	// Success and Summary are set by finalize: Success is false whenever a
	// non-recoverable error was recorded, or validation never passed in
	// full mode; Summary is a human-readable one-liner ("Plan: ..." in
	// plan-only mode, "Orchestration failed: <message>" on failure).
	Success bool
	Summary string

	Plan *Plan

	OriginalBranch string
	FeatureBranch  string
	StashRef       string

	StepResults       []StepResult
	ValidationResults []ValidationResult
	// ValidationPassed is the outcome of the last validation attempt; false
	// if validation never ran (plan-only mode, or the pipeline never
	// reached the validate phase).
	ValidationPassed bool
	ReviewIssues     []ReviewIssue

	DiffPreview string
	Stats       DiffStats
	Commits     []string

	ModifiedFiles []string
	CreatedFiles  []string

	Errors       []PhaseError
	PhaseTimings map[string]time.Duration

	// AggregatedStats and ElapsedMs are computed at finalize time.
	AggregatedStats AggregatedStats
	// ElapsedMs is finalization time minus the run's start time.
	ElapsedMs int64
}

// addError appends a phase error to the result.
func (r *Result) addError(phase, message string, recoverable bool) {
	r.Errors = append(r.Errors, PhaseError{Phase: phase, Message: message, Recoverable: recoverable})
}
