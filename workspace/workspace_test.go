package workspace

import (
	"os"
	"path/filepath"
	"testing"
)

func TestFindGitRoot(t *testing.T) {
	// Build root/.git and root/sub/nested, then detect from the leaf.
	root := t.TempDir()
	if err := os.MkdirAll(filepath.Join(root, ".git"), 0755); err != nil {
		t.Fatalf("Failed to create .git: %v", err)
	}
	nested := filepath.Join(root, "sub", "nested")
	if err := os.MkdirAll(nested, 0755); err != nil {
		t.Fatalf("Failed to create nested dir: %v", err)
	}

	if got := findGitRoot(nested); got != root {
		t.Errorf("Expected git root %s, got %s", root, got)
	}
}

func TestFindGitRootNoRepo(t *testing.T) {
	dir := t.TempDir()
	if got := findGitRoot(dir); got != "" {
		t.Errorf("Expected empty result outside a repo, got %s", got)
	}
}

func TestEnsureCuratorDir(t *testing.T) {
	dir := t.TempDir()

	if err := EnsureCuratorDir(dir); err != nil {
		t.Fatalf("EnsureCuratorDir failed: %v", err)
	}

	info, err := os.Stat(filepath.Join(dir, ".curator"))
	if err != nil {
		t.Fatalf("Expected .curator directory: %v", err)
	}
	if !info.IsDir() {
		t.Errorf("Expected .curator to be a directory")
	}

	// Second call is a no-op.
	if err := EnsureCuratorDir(dir); err != nil {
		t.Fatalf("EnsureCuratorDir second call failed: %v", err)
	}
}
