// Package doctor probes the environment an audit log needs: a git binary,
// a resolvable working-tree boundary, a writable shard directory, and a
// history file whose entries still validate.
package doctor

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/davidahmann/scribe/core/projectconfig"
	"github.com/davidahmann/scribe/core/repo"
	"github.com/davidahmann/scribe/core/schema/validate"
)

const (
	statusPass = "pass"
	statusWarn = "warn"
	statusFail = "fail"
)

type Options struct {
	WorkDir         string
	Config          projectconfig.Config
	ProducerVersion string
}

type Result struct {
	SchemaID        string  `json:"schema_id"`
	SchemaVersion   string  `json:"schema_version"`
	CreatedAt       string  `json:"created_at"`
	ProducerVersion string  `json:"producer_version"`
	Status          string  `json:"status"`
	Summary         string  `json:"summary"`
	Checks          []Check `json:"checks"`
}

type Check struct {
	Name    string `json:"name"`
	Status  string `json:"status"`
	Message string `json:"message"`
}

func Run(opts Options) Result {
	workDir := strings.TrimSpace(opts.WorkDir)
	if workDir == "" {
		workDir = "."
	}
	producerVersion := strings.TrimSpace(opts.ProducerVersion)
	if producerVersion == "" {
		producerVersion = "0.0.0-dev"
	}

	checks := make([]Check, 0, 4)
	gitCheck := checkGitBinary()
	checks = append(checks, gitCheck)

	var boundary repo.Boundary
	boundaryCheck := Check{Name: "worktree_boundary", Status: statusFail, Message: "skipped: git unavailable"}
	if gitCheck.Status == statusPass {
		var err error
		boundary, err = repo.Resolve(workDir)
		if err != nil {
			boundaryCheck = Check{Name: "worktree_boundary", Status: statusFail, Message: fmt.Sprintf("boundary resolution failed: %v", err)}
		} else {
			boundaryCheck = Check{Name: "worktree_boundary", Status: statusPass, Message: fmt.Sprintf("worktree root: %s", boundary.Root)}
		}
	}
	checks = append(checks, boundaryCheck)

	if boundaryCheck.Status == statusPass {
		logDir := opts.Config.Log.Dir
		if !filepath.IsAbs(logDir) {
			logDir = filepath.Join(boundary.Root, logDir)
		}
		checks = append(checks, checkShardDirWritable(filepath.Join(logDir, opts.Config.Log.Pending)))
		checks = append(checks, checkHistoryParses(filepath.Join(logDir, opts.Config.Log.History)))
	}

	failed := 0
	warned := 0
	for _, check := range checks {
		switch check.Status {
		case statusFail:
			failed++
		case statusWarn:
			warned++
		}
	}
	status := statusPass
	if failed > 0 {
		status = statusFail
	} else if warned > 0 {
		status = statusWarn
	}

	return Result{
		SchemaID:        "scribe.doctor.result",
		SchemaVersion:   "1.0.0",
		CreatedAt:       time.Now().UTC().Format(time.RFC3339Nano),
		ProducerVersion: producerVersion,
		Status:          status,
		Summary:         fmt.Sprintf("doctor: status=%s failed=%d warned=%d", status, failed, warned),
		Checks:          checks,
	}
}

func checkGitBinary() Check {
	if _, err := exec.LookPath("git"); err != nil {
		return Check{
			Name:    "git_binary",
			Status:  statusFail,
			Message: "git not found on PATH; the boundary cannot be resolved without it",
		}
	}
	return Check{Name: "git_binary", Status: statusPass, Message: "git is available"}
}

func checkShardDirWritable(pendingDir string) Check {
	if err := os.MkdirAll(pendingDir, 0o750); err != nil {
		return Check{
			Name:    "shard_dir",
			Status:  statusFail,
			Message: fmt.Sprintf("shard directory not creatable: %v", err),
		}
	}
	probePath := filepath.Join(pendingDir, ".scribe-doctor-writecheck")
	if err := os.WriteFile(probePath, []byte("ok"), 0o600); err != nil {
		return Check{
			Name:    "shard_dir",
			Status:  statusFail,
			Message: fmt.Sprintf("shard directory not writable: %v", err),
		}
	}
	_ = os.Remove(probePath)
	return Check{Name: "shard_dir", Status: statusPass, Message: "shard directory is writable"}
}

func checkHistoryParses(historyPath string) Check {
	content, err := os.ReadFile(historyPath)
	if err != nil {
		if os.IsNotExist(err) {
			return Check{Name: "history", Status: statusPass, Message: "no history yet; first consolidation will create it"}
		}
		return Check{Name: "history", Status: statusFail, Message: fmt.Sprintf("history not readable: %v", err)}
	}
	if err := validate.EntriesJSONL(content); err != nil {
		return Check{Name: "history", Status: statusWarn, Message: fmt.Sprintf("history has entries failing validation: %v", err)}
	}
	return Check{Name: "history", Status: statusPass, Message: "history entries validate"}
}
