package testutil

import (
	"os"
	"os/exec"
	"path/filepath"
	"testing"
)

// GitRepo initializes a throwaway git repository with one commit under a
// temp directory and returns its path. The test is skipped when git is not
// available.
func GitRepo(t *testing.T) string {
	t.Helper()
	requireGit(t)
	dir := t.TempDir()
	git(t, dir, "init", "--quiet")
	git(t, dir, "config", "user.email", "audit-test@example.invalid")
	git(t, dir, "config", "user.name", "audit test")
	WriteFile(t, filepath.Join(dir, "README.md"), []byte("fixture\n"))
	git(t, dir, "add", "README.md")
	git(t, dir, "commit", "--quiet", "-m", "fixture commit")
	return resolveSymlinks(t, dir)
}

// GitWorktree adds a linked worktree for an existing repository and returns
// its path. Linked worktrees are how parallel sessions get isolated copies
// of the same repository.
func GitWorktree(t *testing.T, repoDir string) string {
	t.Helper()
	requireGit(t)
	worktreeDir := filepath.Join(t.TempDir(), "worktree")
	git(t, repoDir, "worktree", "add", "--quiet", "-b", "audit-test-branch", worktreeDir)
	t.Cleanup(func() {
		_ = exec.Command("git", "-C", repoDir, "worktree", "remove", "--force", worktreeDir).Run()
	})
	return resolveSymlinks(t, worktreeDir)
}

func WriteFile(t *testing.T, path string, content []byte) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		t.Fatalf("create parent directory for %s: %v", path, err)
	}
	if err := os.WriteFile(path, content, 0o600); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func requireGit(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not available on PATH")
	}
}

func git(t *testing.T, dir string, args ...string) {
	t.Helper()
	// #nosec G204 -- fixed git subcommands driven by test fixtures.
	command := exec.Command("git", args...)
	command.Dir = dir
	if out, err := command.CombinedOutput(); err != nil {
		t.Fatalf("git %v: %v\n%s", args, err, string(out))
	}
}

// resolveSymlinks maps temp paths through any symlinked parents (macOS
// /var -> /private/var) so fixture paths compare equal to git's output.
func resolveSymlinks(t *testing.T, path string) string {
	t.Helper()
	resolved, err := filepath.EvalSymlinks(path)
	if err != nil {
		t.Fatalf("resolve symlinks for %s: %v", path, err)
	}
	return resolved
}
