//go:build !prod

package git

import (
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
)

// CreateSafeTempRepo creates an isolated repository with one commit on the
// given branch. Tests are skipped when git is unavailable.
func CreateSafeTempRepo(t *testing.T, branch string) string {
	t.Helper()

	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not available")
	}

	dir, err := os.MkdirTemp("", "gitsync_git_test_*")
	if err != nil {
		t.Fatalf("Failed to create temp directory: %v", err)
	}
	t.Cleanup(func() {
		if err := os.RemoveAll(dir); err != nil {
			t.Errorf("Warning: Failed to remove temp directory: %v", err)
		}
	})

	// Resolve symlinked temp roots (macOS /var -> /private/var).
	if resolved, err := filepath.EvalSymlinks(dir); err == nil {
		dir = resolved
	}

	runGit(t, dir, "init", "-q")
	runGit(t, dir, "checkout", "-q", "-b", branch)
	runGit(t, dir, "-c", "user.name=Test", "-c", "user.email=test@test.com",
		"commit", "-q", "--allow-empty", "-m", "init")

	return dir
}

// VerifyTestIsolation fails when a test directory lives inside this project.
func VerifyTestIsolation(t *testing.T, dir string) {
	t.Helper()

	if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
		t.Fatalf("SAFETY: Test appears to be running in a project directory: %s", dir)
	}
	if !strings.Contains(dir, "gitsync_git_test") {
		t.Fatalf("SAFETY: Test repository is not an isolated temp directory: %s", dir)
	}
}

func runGit(t *testing.T, dir string, args ...string) string {
	t.Helper()

	cmd := exec.Command("git", args...)
	cmd.Dir = dir
	cmd.Env = append(os.Environ(), "GIT_CONFIG_NOSYSTEM=1", "HOME="+dir)
	out, err := cmd.CombinedOutput()
	if err != nil {
		t.Fatalf("git %s failed: %v\n%s", strings.Join(args, " "), err, out)
	}
	return strings.TrimSpace(string(out))
}
