package main

import (
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/davidahmann/scribe/core/projectconfig"
	"github.com/davidahmann/scribe/core/schema/v1/audit"
	"github.com/davidahmann/scribe/internal/testutil"
)

func TestRunWithoutArgumentsPrintsUsage(t *testing.T) {
	if got := run([]string{"scribe"}); got != exitOK {
		t.Fatalf("unexpected exit: %d", got)
	}
}

func TestRunUnknownCommand(t *testing.T) {
	if got := run([]string{"scribe", "frobnicate"}); got != exitInvalidInput {
		t.Fatalf("unexpected exit: %d", got)
	}
}

func TestRunVersion(t *testing.T) {
	if got := run([]string{"scribe", "version"}); got != exitOK {
		t.Fatalf("unexpected exit: %d", got)
	}
}

func TestLogRequiresKind(t *testing.T) {
	if got := runLog([]string{`{"text":"x"}`}); got != exitInvalidInput {
		t.Fatalf("unexpected exit: %d", got)
	}
}

func TestLogRequiresSinglePayload(t *testing.T) {
	if got := runLog([]string{"--kind", "session_note"}); got != exitInvalidInput {
		t.Fatalf("unexpected exit: %d", got)
	}
}

func TestBuildEntryTypedVariants(t *testing.T) {
	entry, err := buildEntry("approval", []byte(`{"actor":"reviewer","subject":"release","decision":"approved"}`))
	if err != nil {
		t.Fatalf("build approval entry: %v", err)
	}
	if entry.Approval == nil || entry.Approval.Actor != "reviewer" {
		t.Fatalf("approval payload not decoded: %#v", entry)
	}

	entry, err = buildEntry("model_invocation", []byte(`{"model":"local/7b"}`))
	if err != nil {
		t.Fatalf("build custom entry: %v", err)
	}
	if entry.Extra == nil || entry.Extra["model"] != "local/7b" {
		t.Fatalf("custom payload not captured: %#v", entry)
	}

	if _, err := buildEntry("verdict", []byte(`not json`)); err == nil {
		t.Fatalf("expected payload parse failure")
	}
}

func TestConsolidateOutsideRepositoryFails(t *testing.T) {
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not available on PATH")
	}
	t.Chdir(t.TempDir())
	if got := runConsolidate(nil); got != exitNotInRepository {
		t.Fatalf("unexpected exit outside a repository: %d", got)
	}
}

func TestLogTailConsolidateVerifyFlow(t *testing.T) {
	repoDir := testutil.GitRepo(t)
	t.Chdir(repoDir)

	if got := runLog([]string{"--kind", "session_note", "--session", "flowtoken", `{"text":"step one"}`}); got != exitOK {
		t.Fatalf("log exit: %d", got)
	}
	if got := runLog([]string{"--kind", "verdict", "--session", "flowtoken", `{"tool_name":"fs.write","verdict":"allow"}`}); got != exitOK {
		t.Fatalf("second log exit: %d", got)
	}

	pendingDir := filepath.Join(repoDir, projectconfig.DefaultLogDir, projectconfig.DefaultPendingName)
	shardEntries, err := os.ReadDir(pendingDir)
	if err != nil {
		t.Fatalf("read pending dir: %v", err)
	}
	if len(shardEntries) != 1 {
		t.Fatalf("expected one pinned-session shard, got %d", len(shardEntries))
	}

	if got := runTail([]string{"-n", "10"}); got != exitOK {
		t.Fatalf("tail exit: %d", got)
	}
	if got := runConsolidate([]string{"--json"}); got != exitOK {
		t.Fatalf("consolidate exit: %d", got)
	}

	historyPath := filepath.Join(repoDir, projectconfig.DefaultLogDir, projectconfig.DefaultHistoryName)
	raw, err := os.ReadFile(historyPath)
	if err != nil {
		t.Fatalf("read history: %v", err)
	}
	if got := strings.Count(string(raw), "\n"); got != 2 {
		t.Fatalf("expected 2 consolidated entries, got %d", got)
	}
	if remaining, _ := os.ReadDir(pendingDir); len(remaining) != 0 {
		t.Fatalf("shards not removed: %v", remaining)
	}

	if got := runVerify(nil); got != exitOK {
		t.Fatalf("verify exit: %d", got)
	}
	if got := runDoctor(nil); got != exitOK {
		t.Fatalf("doctor exit: %d", got)
	}
}

func TestDoctorUsesProjectConfigFromSubdirectory(t *testing.T) {
	repoDir := testutil.GitRepo(t)
	testutil.WriteFile(t, filepath.Join(repoDir, projectconfig.DefaultPath), []byte("log:\n  dir: audit\n"))
	subDir := filepath.Join(repoDir, "pkg")
	if err := os.MkdirAll(subDir, 0o750); err != nil {
		t.Fatalf("create subdirectory: %v", err)
	}
	t.Chdir(subDir)

	if got := runDoctor(nil); got != exitOK {
		t.Fatalf("doctor exit: %d", got)
	}
	if _, err := os.Stat(filepath.Join(repoDir, "audit", projectconfig.DefaultPendingName)); err != nil {
		t.Fatalf("configured shard dir not probed: %v", err)
	}
	if _, err := os.Stat(filepath.Join(repoDir, projectconfig.DefaultLogDir, projectconfig.DefaultPendingName)); !os.IsNotExist(err) {
		t.Fatalf("default shard dir must not be probed when the config overrides it")
	}
}

func TestLogDirectPathCreatesNoShard(t *testing.T) {
	repoDir := testutil.GitRepo(t)
	t.Chdir(repoDir)
	target := filepath.Join(repoDir, "legacy.jsonl")

	if got := runLog([]string{"--kind", audit.KindSessionNote, "--path", target, `{"text":"legacy"}`}); got != exitOK {
		t.Fatalf("direct log exit: %d", got)
	}
	if _, err := os.Stat(target); err != nil {
		t.Fatalf("legacy target missing: %v", err)
	}
	if _, err := os.Stat(filepath.Join(repoDir, projectconfig.DefaultLogDir)); !os.IsNotExist(err) {
		t.Fatalf("direct mode must not create the shard layout")
	}
}
