package fsx

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

func TestWriteFileAtomicCreatesFile(t *testing.T) {
	workDir := t.TempDir()
	target := filepath.Join(workDir, "history.jsonl")
	content := []byte("{\"a\":1}\n")
	if err := WriteFileAtomic(target, content, 0o600); err != nil {
		t.Fatalf("atomic write: %v", err)
	}
	raw, err := os.ReadFile(target)
	if err != nil {
		t.Fatalf("read target: %v", err)
	}
	if string(raw) != string(content) {
		t.Fatalf("unexpected content: %q", string(raw))
	}
}

func TestWriteFileAtomicReplacesWholesale(t *testing.T) {
	workDir := t.TempDir()
	target := filepath.Join(workDir, "history.jsonl")
	if err := os.WriteFile(target, []byte("old content\n"), 0o600); err != nil {
		t.Fatalf("seed target: %v", err)
	}
	if err := WriteFileAtomic(target, []byte("new content\n"), 0o600); err != nil {
		t.Fatalf("atomic replace: %v", err)
	}
	raw, err := os.ReadFile(target)
	if err != nil {
		t.Fatalf("read target: %v", err)
	}
	if string(raw) != "new content\n" {
		t.Fatalf("unexpected content after replace: %q", string(raw))
	}
}

func TestWriteFileAtomicLeavesNoTempFile(t *testing.T) {
	workDir := t.TempDir()
	target := filepath.Join(workDir, "history.jsonl")
	if err := WriteFileAtomic(target, []byte("x\n"), 0o600); err != nil {
		t.Fatalf("atomic write: %v", err)
	}
	entries, err := os.ReadDir(workDir)
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	if len(entries) != 1 || entries[0].Name() != "history.jsonl" {
		t.Fatalf("unexpected directory contents: %v", entries)
	}
}

func TestWriteFileAtomicSetsMode(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("file modes are not meaningful on windows")
	}
	workDir := t.TempDir()
	target := filepath.Join(workDir, "history.jsonl")
	if err := WriteFileAtomic(target, []byte("x\n"), 0o640); err != nil {
		t.Fatalf("atomic write: %v", err)
	}
	info, err := os.Stat(target)
	if err != nil {
		t.Fatalf("stat target: %v", err)
	}
	if info.Mode().Perm() != 0o640 {
		t.Fatalf("unexpected mode: %v", info.Mode().Perm())
	}
}

func TestAppendLineWritesOneLinePerCall(t *testing.T) {
	workDir := t.TempDir()
	targetPath := filepath.Join(workDir, "events.jsonl")
	if err := AppendLine(targetPath, []byte(`{"event":"a"}`), 0o600); err != nil {
		t.Fatalf("append first line: %v", err)
	}
	if err := AppendLine(targetPath, []byte(`{"event":"b"}`), 0o600); err != nil {
		t.Fatalf("append second line: %v", err)
	}
	raw, err := os.ReadFile(targetPath)
	if err != nil {
		t.Fatalf("read target: %v", err)
	}
	expected := "{\"event\":\"a\"}\n{\"event\":\"b\"}\n"
	if string(raw) != expected {
		t.Fatalf("unexpected append output:\n%s", string(raw))
	}
}

func TestAppendLineCreatesParentDirectory(t *testing.T) {
	workDir := t.TempDir()
	targetPath := filepath.Join(workDir, "pending", "shard.jsonl")
	if err := AppendLine(targetPath, []byte(`{"ok":true}`), 0o600); err != nil {
		t.Fatalf("append with missing parent: %v", err)
	}
	if _, err := os.Stat(filepath.Join(workDir, "pending")); err != nil {
		t.Fatalf("parent directory not created: %v", err)
	}
}

func TestAppendLineRejectsTraversal(t *testing.T) {
	if err := AppendLine(filepath.Join("..", "escape.jsonl"), []byte(`{"ok":true}`), 0o600); err == nil {
		t.Fatalf("expected traversal path to be rejected")
	}
}
