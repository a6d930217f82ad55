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
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func initTestRepo(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	run := func(args ...string) {
		cmd := exec.Command("git", args...)
		cmd.Dir = dir
		cmd.Env = append(os.Environ(),
			"GIT_AUTHOR_NAME=test", "GIT_AUTHOR_EMAIL=test@localhost",
			"GIT_COMMITTER_NAME=test", "GIT_COMMITTER_EMAIL=test@localhost",
		)
		if out, err := cmd.CombinedOutput(); err != nil {
			t.Fatalf("git %v: %v: %s", args, err, out)
		}
	}
	run("init")
	run("config", "user.email", "test@localhost")
	run("config", "user.name", "test")
	if err := os.WriteFile(filepath.Join(dir, "file.txt"), []byte("hello\n"), 0644); err != nil {
		t.Fatalf("write file: %v", err)
	}
	run("add", ".")
	run("commit", "-m", "initial")
	return dir
}

func TestShellGitIsRepo(t *testing.T) {
	dir := initTestRepo(t)
	g := NewShellGit(dir)
	if !g.IsRepo(context.Background()) {
		t.Fatal("expected IsRepo true")
	}
}

func TestShellGitCurrentBranchAndCreateBranch(t *testing.T) {
	dir := initTestRepo(t)
	g := NewShellGit(dir)
	ctx := context.Background()

	original, err := g.CurrentBranch(ctx)
	require.NoError(t, err, "CurrentBranch")
	if original == "" {
		t.Fatal("expected non-empty current branch")
	}

	if err := g.CreateBranch(ctx, "auto/test-change"); err != nil {
		t.Fatalf("CreateBranch: %v", err)
	}
	newBranch, err := g.CurrentBranch(ctx)
	require.NoError(t, err, "CurrentBranch after create")
	if newBranch != "auto/test-change" {
		t.Errorf("expected auto/test-change, got %q", newBranch)
	}
}

func TestShellGitCommitAndDiff(t *testing.T) {
	dir := initTestRepo(t)
	g := NewShellGit(dir)
	ctx := context.Background()

	if err := os.WriteFile(filepath.Join(dir, "file.txt"), []byte("hello\nworld\n"), 0644); err != nil {
		t.Fatalf("write file: %v", err)
	}

	diff, err := g.DiffHEAD(ctx)
	require.NoError(t, err, "DiffHEAD")
	if diff == "" {
		t.Fatal("expected non-empty diff before commit")
	}

	hash, err := g.Commit(ctx, "update file")
	require.NoError(t, err, "Commit")
	if hash == "" {
		t.Fatal("expected non-empty commit hash")
	}

	diffAfter, err := g.DiffHEAD(ctx)
	require.NoError(t, err, "DiffHEAD after commit")
	if diffAfter != "" {
		t.Errorf("expected empty diff after commit, got %q", diffAfter)
	}
}

func TestShellGitCommitWithNothingStagedErrors(t *testing.T) {
	dir := initTestRepo(t)
	g := NewShellGit(dir)
	if _, err := g.Commit(context.Background(), "empty commit"); err == nil {
		t.Fatal("expected error committing with no changes")
	}
}

func TestShellGitStashAndRollback(t *testing.T) {
	dir := initTestRepo(t)
	g := NewShellGit(dir)
	ctx := context.Background()

	original, err := g.CurrentBranch(ctx)
	require.NoError(t, err, "CurrentBranch")

	if err := os.WriteFile(filepath.Join(dir, "file.txt"), []byte("dirty\n"), 0644); err != nil {
		t.Fatalf("write file: %v", err)
	}

	ref, err := g.Stash(ctx)
	require.NoError(t, err, "Stash")
	if ref == "" {
		t.Fatal("expected non-empty stash ref for dirty tree")
	}

	if err := g.Rollback(ctx, ref, original); err != nil {
		t.Fatalf("Rollback: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "file.txt"))
	require.NoError(t, err, "read file")
	if string(data) != "dirty\n" {
		t.Errorf("expected stashed change restored, got %q", data)
	}
}
