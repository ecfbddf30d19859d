package assets

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"curator/task"
)

var _ task.Store = (*Store)(nil)

// Store applies file operations inside a single workspace. When the
// workspace is a Git repository, moves of tracked files go through "git mv"
// so history follows the file; everything else falls back to plain renames.
// Paths are workspace-relative with forward slashes.
type Store struct {
	workspacePath string
	isGitRepo     bool
	log           *zap.Logger
}

// NewStore creates a store rooted at workspacePath.
func NewStore(workspacePath string, log *zap.Logger) *Store {
	s := &Store{workspacePath: workspacePath, log: log}
	s.isGitRepo = s.checkGitRepo()
	return s
}

// checkGitRepo checks if the workspace is a Git repository
func (s *Store) checkGitRepo() bool {
	cmd := exec.Command("git", "rev-parse", "--git-dir")
	cmd.Dir = s.workspacePath
	return cmd.Run() == nil
}

// IsGitRepo reports whether the workspace is a Git repository.
func (s *Store) IsGitRepo() bool { return s.isGitRepo }

// abs resolves a workspace-relative path and rejects anything that would
// escape the workspace.
func (s *Store) abs(rel string) (string, error) {
	clean := filepath.Clean(filepath.FromSlash(rel))
	if filepath.IsAbs(clean) || clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("path escapes workspace: %s", rel)
	}
	return filepath.Join(s.workspacePath, clean), nil
}

// MoveOrRename moves a single path. A no-op move and a collision with an
// existing target are both errors.
func (s *Store) MoveOrRename(sourcePath, targetPath string) error {
	src, err := s.abs(sourcePath)
	if err != nil {
		return err
	}
	dst, err := s.abs(targetPath)
	if err != nil {
		return err
	}

	if src == dst {
		return fmt.Errorf("source and target are identical: %s", sourcePath)
	}
	if _, err := os.Stat(src); err != nil {
		return fmt.Errorf("source not found: %s", sourcePath)
	}
	if _, err := os.Stat(dst); err == nil {
		return fmt.Errorf("target already exists: %s", targetPath)
	}

	if s.isGitRepo && s.tracked(sourcePath) {
		if err := s.gitMove(sourcePath, targetPath); err == nil {
			return nil
		}
		// git refused; fall through to a plain rename
	}

	if err := os.Rename(src, dst); err != nil {
		return fmt.Errorf("move %s to %s: %w", sourcePath, targetPath, err)
	}
	return nil
}

// tracked reports whether Git knows about the given path.
func (s *Store) tracked(rel string) bool {
	cmd := exec.Command("git", "ls-files", "--error-unmatch", "--", filepath.FromSlash(rel))
	cmd.Dir = s.workspacePath
	return cmd.Run() == nil
}

func (s *Store) gitMove(sourceRel, targetRel string) error {
	cmd := exec.Command("git", "mv", "--", filepath.FromSlash(sourceRel), filepath.FromSlash(targetRel))
	cmd.Dir = s.workspacePath

	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		s.log.Debug("git mv failed, falling back to plain rename",
			zap.String("source", sourceRel),
			zap.String("stderr", strings.TrimSpace(stderr.String())))
		return err
	}
	return nil
}

// DirectoryExists reports whether path is an existing directory.
func (s *Store) DirectoryExists(path string) bool {
	full, err := s.abs(path)
	if err != nil {
		return false
	}
	info, err := os.Stat(full)
	return err == nil && info.IsDir()
}

// CreateDirectory creates path and any missing parents.
func (s *Store) CreateDirectory(path string) error {
	full, err := s.abs(path)
	if err != nil {
		return err
	}
	return os.MkdirAll(full, 0755)
}

// DeleteIfEmpty removes path only when it is an empty directory. Used for
// cleaning up folders a task created itself; anything non-empty is left
// alone.
func (s *Store) DeleteIfEmpty(path string) {
	full, err := s.abs(path)
	if err != nil {
		return
	}

	entries, err := os.ReadDir(full)
	if err != nil || len(entries) > 0 {
		return
	}

	if err := os.Remove(full); err != nil {
		s.log.Debug("could not remove empty directory",
			zap.String("dir", path), zap.Error(err))
	}
}

// RunCommand executes a shell command from the workspace root, capturing
// stdout and stderr separately. The caller bounds the run via ctx.
func (s *Store) RunCommand(ctx context.Context, command string) (string, string, error) {
	cmd := exec.CommandContext(ctx, "sh", "-c", command)
	cmd.Dir = s.workspacePath

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	if ctx.Err() == context.DeadlineExceeded {
		err = fmt.Errorf("command timed out")
	}
	return stdout.String(), stderr.String(), err
}
