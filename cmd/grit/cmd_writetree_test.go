package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestWriteTreeEmptyWorkingDirectory(t *testing.T) {
	dir := initWorkDir(t)
	if err := os.MkdirAll(filepath.Join(dir, "only", "empty", "dirs"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	out := runCommand(t, newWriteTreeCmd())
	if strings.TrimSpace(out) != "4b825dc642cb6eb9a060e54bf8d69288fbee4904" {
		t.Errorf("write-tree = %q", out)
	}
}

func TestWriteTreeIdempotent(t *testing.T) {
	dir := initWorkDir(t)
	if err := os.WriteFile(filepath.Join(dir, "x.txt"), []byte("x"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	first := runCommand(t, newWriteTreeCmd())
	second := runCommand(t, newWriteTreeCmd())
	if first != second {
		t.Errorf("write-tree not idempotent: %q / %q", first, second)
	}
}

func TestCommitTreeDeterministic(t *testing.T) {
	dir := initWorkDir(t)
	if err := os.WriteFile(filepath.Join(dir, "x.txt"), []byte("x"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	treeSha := strings.TrimSpace(runCommand(t, newWriteTreeCmd()))

	t.Setenv("GIT_AUTHOR_NAME", "Fixture")
	t.Setenv("GIT_AUTHOR_EMAIL", "fixture@example.com")
	t.Setenv("GIT_AUTHOR_DATE", "0 +0000")
	t.Setenv("GIT_COMMITTER_NAME", "Fixture")
	t.Setenv("GIT_COMMITTER_EMAIL", "fixture@example.com")
	t.Setenv("GIT_COMMITTER_DATE", "0 +0000")

	first := strings.TrimSpace(runCommand(t, newCommitTreeCmd(), treeSha, "-m", "init"))
	second := strings.TrimSpace(runCommand(t, newCommitTreeCmd(), treeSha, "-m", "init"))
	if first != second {
		t.Errorf("commit sha not reproducible: %s / %s", first, second)
	}
	if len(first) != 40 {
		t.Errorf("commit sha = %q", first)
	}

	// The message gains a trailing newline, matching what cat-file shows.
	payload := runCommand(t, newCatFileCmd(), "-p", first)
	if !strings.HasSuffix(payload, "\n\ninit\n") {
		t.Errorf("commit payload:\n%q", payload)
	}
	if !strings.Contains(payload, "tree "+treeSha+"\n") {
		t.Errorf("commit payload missing tree header:\n%q", payload)
	}
}

func TestCommitTreeWithParent(t *testing.T) {
	dir := initWorkDir(t)
	if err := os.WriteFile(filepath.Join(dir, "x.txt"), []byte("x"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	treeSha := strings.TrimSpace(runCommand(t, newWriteTreeCmd()))

	parent := strings.TrimSpace(runCommand(t, newCommitTreeCmd(), treeSha, "-m", "first"))
	child := strings.TrimSpace(runCommand(t, newCommitTreeCmd(), treeSha, "-p", parent, "-m", "second"))

	payload := runCommand(t, newCatFileCmd(), "-p", child)
	if !strings.Contains(payload, "parent "+parent+"\n") {
		t.Errorf("child payload missing parent:\n%q", payload)
	}
}

func TestCommitTreeRejectsUnknownTree(t *testing.T) {
	initWorkDir(t)

	cmd := newCommitTreeCmd()
	cmd.SetArgs([]string{"4b825dc642cb6eb9a060e54bf8d69288fbee4904", "-m", "x"})
	if err := cmd.Execute(); err == nil {
		t.Error("commit-tree accepted a tree absent from the store")
	}
}

func TestCommitTreeRequiresMessage(t *testing.T) {
	dir := initWorkDir(t)
	if err := os.WriteFile(filepath.Join(dir, "x.txt"), []byte("x"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	treeSha := strings.TrimSpace(runCommand(t, newWriteTreeCmd()))

	cmd := newCommitTreeCmd()
	cmd.SetArgs([]string{treeSha})
	if err := cmd.Execute(); err == nil {
		t.Error("commit-tree accepted a missing message")
	}
}
