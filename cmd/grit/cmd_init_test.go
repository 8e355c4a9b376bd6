package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestInitCommandCreatesAndReinitializes(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	out := runCommand(t, newInitCmd())
	if !strings.HasPrefix(out, "Initialized empty Git repository in ") {
		t.Errorf("first init output = %q", out)
	}
	if _, err := os.Stat(filepath.Join(dir, ".git", "HEAD")); err != nil {
		t.Fatalf("HEAD missing: %v", err)
	}

	// A second run finds the existing repository and says so.
	out = runCommand(t, newInitCmd())
	if !strings.HasPrefix(out, "Reinitialized existing Git repository in ") {
		t.Errorf("second init output = %q", out)
	}
}

func TestInitCommandCreatesTargetDirectory(t *testing.T) {
	base := t.TempDir()
	t.Chdir(base)

	out := runCommand(t, newInitCmd(), "nested/project")
	if !strings.HasPrefix(out, "Initialized empty Git repository in ") {
		t.Errorf("output = %q", out)
	}
	info, err := os.Stat(filepath.Join(base, "nested", "project", ".git"))
	if err != nil || !info.IsDir() {
		t.Errorf("nested repository missing: %v", err)
	}
}
