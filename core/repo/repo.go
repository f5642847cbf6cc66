// Package repo resolves the working-tree boundary the audit log lives under.
//
// The boundary is whatever `git rev-parse --show-toplevel` reports for the
// current directory. Linked worktrees of one repository report different
// toplevels, which is the property the whole shard-isolation scheme depends
// on: two checkouts of the same project must never observe each other's
// pending shards.
package repo

import (
	"bytes"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"

	coreerrors "github.com/davidahmann/scribe/core/errors"
)

// Boundary is the resolved absolute root of the current working tree.
type Boundary struct {
	Root string
}

// Resolve determines the working-tree root for dir (empty means the current
// directory). Resolution failure is fatal to callers by design: an audit
// subsystem that cannot establish its boundary must not write anywhere.
func Resolve(dir string) (Boundary, error) {
	gitPath, err := exec.LookPath("git")
	if err != nil {
		return Boundary{}, coreerrors.Wrap(
			fmt.Errorf("git binary not found: %w", err),
			coreerrors.CategoryDependencyMissing,
			"git_not_found",
			"install git and ensure it is on PATH",
			false,
		)
	}

	// #nosec G204 -- fixed git arguments; only the working directory varies.
	command := exec.Command(gitPath, "rev-parse", "--show-toplevel")
	command.Dir = dir
	var stdout, stderr bytes.Buffer
	command.Stdout = &stdout
	command.Stderr = &stderr
	if err := command.Run(); err != nil {
		detail := strings.TrimSpace(stderr.String())
		if detail == "" {
			detail = err.Error()
		}
		return Boundary{}, coreerrors.Wrap(
			fmt.Errorf("not inside a git working tree: %s", detail),
			coreerrors.CategoryNotInRepository,
			"not_in_repository",
			"run from inside a git working tree",
			false,
		)
	}

	root := strings.TrimSpace(stdout.String())
	if root == "" {
		return Boundary{}, coreerrors.Wrap(
			fmt.Errorf("git reported an empty toplevel"),
			coreerrors.CategoryNotInRepository,
			"not_in_repository",
			"run from inside a git working tree",
			false,
		)
	}
	absRoot, err := filepath.Abs(filepath.FromSlash(root))
	if err != nil {
		return Boundary{}, coreerrors.Wrap(
			fmt.Errorf("normalize worktree root: %w", err),
			coreerrors.CategoryInternalFailure,
			"boundary_resolve_failed",
			"",
			false,
		)
	}
	return Boundary{Root: absRoot}, nil
}
