package workspace

import (
	"os"
	"path/filepath"
)

// Detect detects the workspace root directory. It tries to find the Git
// repository root, otherwise uses the current directory.
func Detect() (string, error) {
	pwd, err := os.Getwd()
	if err != nil {
		return "", err
	}

	gitRoot := findGitRoot(pwd)
	if gitRoot != "" {
		return gitRoot, nil
	}

	return pwd, nil
}

// findGitRoot walks up the directory tree looking for a .git directory
func findGitRoot(startPath string) string {
	currentPath := startPath

	for {
		gitPath := filepath.Join(currentPath, ".git")
		if _, err := os.Stat(gitPath); err == nil {
			return currentPath
		}

		parentPath := filepath.Dir(currentPath)
		if parentPath == currentPath {
			// Reached the root directory
			break
		}
		currentPath = parentPath
	}

	return ""
}

// EnsureCuratorDir creates the .curator directory if it doesn't exist
func EnsureCuratorDir(workspacePath string) error {
	curatorDir := filepath.Join(workspacePath, ".curator")

	if _, err := os.Stat(curatorDir); os.IsNotExist(err) {
		return os.MkdirAll(curatorDir, 0755)
	}
	return nil
}
