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
	"os/exec"
	"strings"
)

// ShellGit is a GitHelper backed by the git binary on PATH, run with its
// working directory pinned to Root.
type ShellGit struct {
	Root        string
	AuthorName  string
	AuthorEmail string
}

// NewShellGit creates a ShellGit rooted at dir.
func NewShellGit(dir string) *ShellGit {
	return &ShellGit{Root: dir, AuthorName: "chitragupta", AuthorEmail: "chitragupta@localhost"}
}

func (g *ShellGit) run(ctx context.Context, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = g.Root
	out, err := cmd.CombinedOutput()
	if err != nil {
		return "", fmt.Errorf("git %s: %w: %s", strings.Join(args, " "), err, strings.TrimSpace(string(out)))
	}
	return string(out), nil
}

// IsRepo reports whether Root is inside a git working tree.
func (g *ShellGit) IsRepo(ctx context.Context) bool {
	_, err := g.run(ctx, "rev-parse", "--is-inside-work-tree")
	return err == nil
}

// CurrentBranch returns the checked-out branch name.
func (g *ShellGit) CurrentBranch(ctx context.Context) (string, error) {
	out, err := g.run(ctx, "branch", "--show-current")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}

// CreateBranch creates and checks out name from the current HEAD.
func (g *ShellGit) CreateBranch(ctx context.Context, name string) error {
	_, err := g.run(ctx, "checkout", "-b", name)
	return err
}

// Stash stashes the working tree, including untracked files, and returns a
// reference usable by Rollback. An empty return with a nil error means
// there was nothing to stash.
func (g *ShellGit) Stash(ctx context.Context) (string, error) {
	out, err := g.run(ctx, "stash", "push", "-u", "-m", "chitragupta-orchestrator")
	if err != nil {
		return "", err
	}
	if strings.Contains(out, "No local changes to save") {
		return "", nil
	}
	return "stash@{0}", nil
}

// Rollback checks out originalBranch and, if stashRef is non-empty,
// restores the stashed changes on top of it.
func (g *ShellGit) Rollback(ctx context.Context, stashRef, originalBranch string) error {
	if originalBranch != "" {
		if _, err := g.run(ctx, "checkout", originalBranch); err != nil {
			return err
		}
	}
	if stashRef == "" {
		return nil
	}
	_, err := g.run(ctx, "stash", "pop", stashRef)
	return err
}

// DiffHEAD returns the unified diff of the working tree against HEAD.
func (g *ShellGit) DiffHEAD(ctx context.Context) (string, error) {
	return g.run(ctx, "diff", "HEAD")
}

// Commit stages every change and commits with message. Returns the short
// commit hash.
func (g *ShellGit) Commit(ctx context.Context, message string) (string, error) {
	if _, err := g.run(ctx, "add", "."); err != nil {
		return "", err
	}
	cmd := exec.CommandContext(ctx, "git", "diff", "--cached", "--quiet")
	cmd.Dir = g.Root
	if cmd.Run() == nil {
		return "", fmt.Errorf("orchestrator: nothing to commit")
	}

	commitCmd := exec.CommandContext(ctx, "git", "commit", "-m", message)
	commitCmd.Dir = g.Root
	commitCmd.Env = append(commitCmd.Environ(),
		"GIT_AUTHOR_NAME="+g.AuthorName,
		"GIT_AUTHOR_EMAIL="+g.AuthorEmail,
		"GIT_COMMITTER_NAME="+g.AuthorName,
		"GIT_COMMITTER_EMAIL="+g.AuthorEmail,
	)
	if out, err := commitCmd.CombinedOutput(); err != nil {
		return "", fmt.Errorf("git commit: %w: %s", err, strings.TrimSpace(string(out)))
	}

	out, err := g.run(ctx, "rev-parse", "--short", "HEAD")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}
