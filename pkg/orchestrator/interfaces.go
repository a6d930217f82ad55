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

import "context"

// Planner turns a natural-language request into an ordered plan.
type Planner interface {
	Plan(ctx context.Context, request string) (*Plan, error)
}

// CodingAgent executes one plan step against the working tree.
type CodingAgent interface {
	ExecuteStep(ctx context.Context, step string) (StepResult, error)
}

// Validator runs the project's build+test+lint chain.
type Validator interface {
	Validate(ctx context.Context) (ValidationResult, error)
}

// DebugAgent is handed a validation failure log and attempts a fix.
type DebugAgent interface {
	Debug(ctx context.Context, failureLog string) (StepResult, error)
}

// ReviewAgent self-reviews the working tree for bugs and security issues.
type ReviewAgent interface {
	Review(ctx context.Context) ([]ReviewIssue, error)
}

// FixAgent is handed a critical review issue and attempts a fix.
type FixAgent interface {
	Fix(ctx context.Context, issue ReviewIssue) (StepResult, error)
}

// GitHelper wraps the git operations the pipeline needs so it never shells
// out directly; an implementation backed by go-git or os/exec can satisfy
// this without the orchestrator knowing which.
type GitHelper interface {
	IsRepo(ctx context.Context) bool
	CurrentBranch(ctx context.Context) (string, error)
	CreateBranch(ctx context.Context, name string) error
	Stash(ctx context.Context) (string, error)
	Rollback(ctx context.Context, stashRef, originalBranch string) error
	DiffHEAD(ctx context.Context) (string, error)
	Commit(ctx context.Context, message string) (string, error)
}

// SessionRecorder persists a finished run, best-effort.
type SessionRecorder interface {
	RecordRun(result *Result) error
}

// ApprovalFunc gates a destructive action. If it panics or is nil, the
// pipeline proceeds as if it had returned true.
type ApprovalFunc func(action, detail string) bool

// CommitMessageFunc generates a commit message from the accumulated result.
type CommitMessageFunc func(*Result) (string, error)

// ToolDisabledChecker lets the debug cycle skip tools the autonomy
// controller has circuit-broken, without the orchestrator importing
// pkg/autonomy directly.
type ToolDisabledChecker interface {
	IsToolDisabled(name string) bool
}
