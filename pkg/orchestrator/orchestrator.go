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

package orchestrator

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"
)

// Orchestrator wires together the agents and tools that make up one
// plan/branch/execute/validate/review/commit run.
type Orchestrator struct {
	cfg Config

	planner  Planner
	coder    CodingAgent
	validator Validator
	debugger DebugAgent
	reviewer ReviewAgent
	fixer    FixAgent
	git      GitHelper
	recorder SessionRecorder
	tools    ToolDisabledChecker
}

// New creates an Orchestrator. planner, coder and validator are required;
// the remaining collaborators may be nil, in which case the phases that
// need them are skipped (debug cycles without a DebugAgent, review without
// a ReviewAgent, branch/commit without a GitHelper).
func New(cfg Config, planner Planner, coder CodingAgent, validator Validator, opts ...Opt) *Orchestrator {
	cfg.SetDefaults()
	o := &Orchestrator{cfg: cfg, planner: planner, coder: coder, validator: validator}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Opt configures optional Orchestrator collaborators.
type Opt func(*Orchestrator)

func WithDebugAgent(d DebugAgent) Opt       { return func(o *Orchestrator) { o.debugger = d } }
func WithReviewAgent(r ReviewAgent) Opt     { return func(o *Orchestrator) { o.reviewer = r } }
func WithFixAgent(f FixAgent) Opt           { return func(o *Orchestrator) { o.fixer = f } }
func WithGitHelper(g GitHelper) Opt         { return func(o *Orchestrator) { o.git = g } }
func WithSessionRecorder(r SessionRecorder) Opt { return func(o *Orchestrator) { o.recorder = r } }
func WithToolDisabledChecker(t ToolDisabledChecker) Opt {
	return func(o *Orchestrator) { o.tools = t }
}

// approve calls the configured approval callback, proceeding by default if
// none is installed or if the callback panics.
func (o *Orchestrator) approve(action, detail string) (ok bool) {
	if o.cfg.OnApproval == nil {
		return true
	}
	defer func() {
		if r := recover(); r != nil {
			slog.Warn("orchestrator: approval callback panicked, proceeding by default", "action", action, "panic", r)
			ok = true
		}
	}()
	return o.cfg.OnApproval(action, detail)
}

// progress emits a best-effort progress event.
func (o *Orchestrator) progress(start time.Time, phase string, step, total int, message string) {
	if o.cfg.OnProgress == nil {
		return
	}
	o.cfg.OnProgress(ProgressEvent{
		Phase:      phase,
		Step:       step,
		TotalSteps: total,
		Message:    message,
		ElapsedMs:  time.Since(start).Milliseconds(),
	})
}

// Run executes the pipeline for request and always returns a best-effort
// Result, even when a phase fails.
func (o *Orchestrator) Run(ctx context.Context, request string) *Result {
	start := time.Now()
	result := &Result{PhaseTimings: make(map[string]time.Duration)}

	if d := o.cfg.timeout(); d > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d)
		defer cancel()
	}

	o.runPhase(result, "plan", start, func() bool { return o.runPlan(ctx, result, request, start) })
	if result.Plan == nil {
		o.finalize(result, start)
		return result
	}
	if o.cfg.Mode == ModePlanOnly {
		o.finalize(result, start)
		return result
	}

	o.runPhase(result, "branch", start, func() bool { return o.runBranch(ctx, result, request, start) })
	o.runPhase(result, "execute", start, func() bool { return o.runExecute(ctx, result, start) })
	o.runPhase(result, "validate", start, func() bool { return o.runValidate(ctx, result, start) })
	if o.reviewer != nil {
		o.runPhase(result, "review", start, func() bool { return o.runReview(ctx, result, start) })
	}
	o.runPhase(result, "diff_preview", start, func() bool { return o.runDiffPreview(ctx, result, start) })
	o.runPhase(result, "commit", start, func() bool { return o.runCommit(ctx, result, start) })

	o.finalize(result, start)
	return result
}

// runPhase times fn, recovers a panic as a non-recoverable phase error, and
// after a recovered panic rolls back via o.rollback if a StashRef was
// recorded. fn's return value is ignored.
func (o *Orchestrator) runPhase(result *Result, phase string, start time.Time, fn func() bool) {
	phaseStart := time.Now()
	defer func() {
		result.PhaseTimings[phase] = time.Since(phaseStart)
		if r := recover(); r != nil {
			result.addError(phase, fmt.Sprintf("panic: %v", r), false)
			o.progress(start, "error", 0, 0, fmt.Sprintf("%s: %v", phase, r))
			if result.StashRef != "" {
				o.rollback(context.Background(), result)
			}
		}
	}()
	fn()
}

func (o *Orchestrator) runPlan(ctx context.Context, result *Result, request string, start time.Time) bool {
	o.progress(start, "plan", 0, 0, "planning")
	plan, err := o.planner.Plan(ctx, request)
	if err != nil {
		result.addError("plan", fmt.Sprintf("planner failed: %v", err), false)
		return false
	}
	if plan == nil || len(plan.Steps) == 0 {
		result.addError("plan", "planner returned no steps; nothing to do", true)
		return false
	}
	result.Plan = plan
	o.progress(start, "plan", 0, len(plan.Steps), "plan ready")
	return true
}

func (o *Orchestrator) runBranch(ctx context.Context, result *Result, request string, start time.Time) bool {
	if o.git == nil || !o.git.IsRepo(ctx) {
		return true
	}
	if !o.approve("branch", "create feature branch") {
		return true
	}

	original, err := o.git.CurrentBranch(ctx)
	if err != nil {
		result.addError("branch", fmt.Sprintf("could not determine current branch: %v", err), true)
		return true
	}
	result.OriginalBranch = original

	stashRef, err := o.git.Stash(ctx)
	if err != nil {
		result.addError("branch", fmt.Sprintf("stash failed: %v", err), true)
	} else {
		result.StashRef = stashRef
	}

	name := o.cfg.branchName(request)
	if err := o.git.CreateBranch(ctx, name); err != nil {
		result.addError("branch", fmt.Sprintf("create branch %q failed: %v", name, err), true)
		return true
	}
	result.FeatureBranch = name
	o.progress(start, "branch", 0, 0, "created "+name)
	return true
}

func (o *Orchestrator) runExecute(ctx context.Context, result *Result, start time.Time) bool {
	total := len(result.Plan.Steps)
	for i, step := range result.Plan.Steps {
		o.progress(start, "execute", i+1, total, step)
		sr, err := o.coder.ExecuteStep(ctx, step)
		if err != nil {
			result.addError("execute", fmt.Sprintf("step %q failed: %v", step, err), true)
			continue
		}
		result.StepResults = append(result.StepResults, sr)
	}
	return true
}

func (o *Orchestrator) runValidate(ctx context.Context, result *Result, start time.Time) bool {
	for cycle := 0; cycle <= o.cfg.MaxDebugCycles; cycle++ {
		o.progress(start, "validate", cycle, o.cfg.MaxDebugCycles, "validating")
		vr, err := o.validator.Validate(ctx)
		if err != nil {
			result.addError("validate", fmt.Sprintf("validation run failed: %v", err), true)
			return true
		}
		result.ValidationResults = append(result.ValidationResults, vr)
		if vr.Passed {
			return true
		}
		if o.debugger == nil || cycle == o.cfg.MaxDebugCycles {
			break
		}
		if o.tools != nil && o.tools.IsToolDisabled("debug") {
			result.addError("validate", "debug tool is disabled by the autonomy controller; skipping debug cycle", true)
			break
		}
		o.progress(start, "validate", cycle, o.cfg.MaxDebugCycles, "debugging failure")
		sr, err := o.debugger.Debug(ctx, vr.Log)
		if err != nil {
			result.addError("validate", fmt.Sprintf("debug cycle %d failed: %v", cycle, err), true)
			break
		}
		result.StepResults = append(result.StepResults, sr)
	}
	return true
}

func (o *Orchestrator) runReview(ctx context.Context, result *Result, start time.Time) bool {
	for cycle := 0; cycle <= o.cfg.MaxReviewCycles; cycle++ {
		o.progress(start, "review", cycle, o.cfg.MaxReviewCycles, "reviewing")
		issues, err := o.reviewer.Review(ctx)
		if err != nil {
			result.addError("review", fmt.Sprintf("review failed: %v", err), true)
			return true
		}
		issues = filterAndCapSeverity(issues, o.cfg.MinReviewSeverity, o.cfg.MaxReviewIssues)
		result.ReviewIssues = issues

		critical := firstCritical(issues)
		if critical == nil || o.fixer == nil || cycle == o.cfg.MaxReviewCycles {
			return true
		}

		sr, err := o.fixer.Fix(ctx, *critical)
		if err != nil {
			result.addError("review", fmt.Sprintf("fix cycle %d failed: %v", cycle, err), true)
			return true
		}
		result.StepResults = append(result.StepResults, sr)
	}
	return true
}

func filterAndCapSeverity(issues []ReviewIssue, min Severity, max int) []ReviewIssue {
	var kept []ReviewIssue
	for _, issue := range issues {
		if issue.Severity.atLeast(min) {
			kept = append(kept, issue)
		}
	}
	sort.SliceStable(kept, func(i, j int) bool {
		return severityRank[kept[i].Severity] > severityRank[kept[j].Severity]
	})
	if len(kept) > max {
		kept = kept[:max]
	}
	return kept
}

func firstCritical(issues []ReviewIssue) *ReviewIssue {
	for i := range issues {
		if issues[i].Severity == SeverityCritical {
			return &issues[i]
		}
	}
	return nil
}

func (o *Orchestrator) runDiffPreview(ctx context.Context, result *Result, start time.Time) bool {
	if o.git == nil || !o.git.IsRepo(ctx) {
		return true
	}
	if len(result.StepResults) == 0 {
		return true
	}
	diff, err := o.git.DiffHEAD(ctx)
	if err != nil {
		result.addError("diff_preview", fmt.Sprintf("diff failed: %v", err), true)
		return true
	}
	result.Stats = computeDiffStats(diff)
	if len(diff) > o.cfg.DiffPreviewMaxChars {
		diff = diff[:o.cfg.DiffPreviewMaxChars] + "... (truncated)"
	}
	result.DiffPreview = diff
	return true
}

func (o *Orchestrator) runCommit(ctx context.Context, result *Result, start time.Time) bool {
	if o.git == nil || !o.git.IsRepo(ctx) {
		return true
	}
	if result.DiffPreview == "" && result.Stats.FilesChanged == 0 {
		return true
	}
	if !o.approve("commit", "commit pipeline changes") {
		return true
	}

	message := "automated change"
	if o.cfg.CommitMessage != nil {
		msg, err := o.cfg.CommitMessage(result)
		if err != nil {
			result.addError("commit", fmt.Sprintf("commit message generation failed: %v", err), true)
		} else if strings.TrimSpace(msg) != "" {
			message = msg
		}
	}

	hash, err := o.git.Commit(ctx, message)
	if err != nil {
		result.addError("commit", fmt.Sprintf("commit failed: %v", err), true)
		return true
	}
	result.Commits = append(result.Commits, hash)
	o.progress(start, "commit", 0, 0, hash)
	return true
}

// rollback invokes the git helper's rollback for a failed run that left a
// stash behind.
func (o *Orchestrator) rollback(ctx context.Context, result *Result) {
	if o.git == nil {
		return
	}
	if err := o.git.Rollback(ctx, result.StashRef, result.OriginalBranch); err != nil {
		result.addError("rollback", fmt.Sprintf("rollback failed: %v", err), false)
	}
}

// finalize dedupes file lists, computes aggregated stats and elapsed time,
// derives success/summary/validationPassed, and flushes the result to the
// session recorder, if any, catching any error into a log line rather than
// the result.
func (o *Orchestrator) finalize(result *Result, start time.Time) {
	result.ModifiedFiles = dedupeFiles(result)
	result.CreatedFiles = dedupeCreated(result)
	result.AggregatedStats = aggregateStats(result)
	result.ElapsedMs = time.Since(start).Milliseconds()
	result.ValidationPassed = lastValidationPassed(result)
	result.Success, result.Summary = summarize(o.cfg.Mode, result)

	if o.recorder == nil {
		return
	}
	if err := o.recorder.RecordRun(result); err != nil {
		slog.Error("orchestrator: session recorder failed", "error", err)
	}
}

// lastValidationPassed reports the outcome of the most recent validation
// attempt, or false if validation never ran.
func lastValidationPassed(result *Result) bool {
	if len(result.ValidationResults) == 0 {
		return false
	}
	return result.ValidationResults[len(result.ValidationResults)-1].Passed
}

// aggregateStats sums the best-effort cost/token/tool-call bookkeeping each
// StepResult may carry, plus the turn count.
func aggregateStats(result *Result) AggregatedStats {
	stats := AggregatedStats{ToolCallCounts: make(map[string]int)}
	stats.TurnCount = len(result.StepResults)
	for _, sr := range result.StepResults {
		stats.Cost += sr.Cost
		stats.TokenCount += sr.TokensUsed
		for name, count := range sr.ToolCalls {
			stats.ToolCallCounts[name] += count
		}
	}
	return stats
}

// summarize derives the success flag and human-readable summary per the
// documented finalize behavior: false + "Orchestration failed: <message>"
// on any non-recoverable error or on a missing plan, the formatted plan in
// plan-only mode, and validation outcome otherwise.
func summarize(mode Mode, result *Result) (bool, string) {
	for _, e := range result.Errors {
		if !e.Recoverable {
			return false, fmt.Sprintf("Orchestration failed: %s", e.Message)
		}
	}
	if result.Plan == nil {
		msg := "planner returned no steps; nothing to do"
		if len(result.Errors) > 0 {
			msg = result.Errors[len(result.Errors)-1].Message
		}
		return false, fmt.Sprintf("Orchestration failed: %s", msg)
	}
	if mode == ModePlanOnly {
		return true, formatPlanSummary(result.Plan)
	}
	if !lastValidationPassed(result) {
		return false, "Orchestration failed: validation did not pass"
	}
	return true, fmt.Sprintf("Completed %d step(s), %d commit(s)", len(result.StepResults), len(result.Commits))
}

// formatPlanSummary renders a plan-only summary beginning with "Plan:", one
// numbered line per step.
func formatPlanSummary(p *Plan) string {
	var b strings.Builder
	b.WriteString("Plan:")
	for i, step := range p.Steps {
		fmt.Fprintf(&b, "\n%d. %s", i+1, step)
	}
	return b.String()
}

func dedupeFiles(result *Result) []string {
	seen := make(map[string]bool)
	var out []string
	for _, sr := range result.StepResults {
		for _, f := range sr.ModifiedFiles {
			if !seen[f] {
				seen[f] = true
				out = append(out, f)
			}
		}
	}
	return out
}

func dedupeCreated(result *Result) []string {
	seen := make(map[string]bool)
	var out []string
	for _, sr := range result.StepResults {
		for _, f := range sr.CreatedFiles {
			if !seen[f] {
				seen[f] = true
				out = append(out, f)
			}
		}
	}
	return out
}
