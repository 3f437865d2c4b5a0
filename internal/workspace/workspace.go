// Package workspace resolves where git-sync runs: the logical working
// directory, its path relative to home and the checked out branch.
package workspace

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/samzong/git-sync/internal/gitutil"
)

// ErrDetachedHead is returned when HEAD does not point at a branch.
var ErrDetachedHead = errors.New("HEAD is detached; check out a branch before syncing")

// HomeMismatchError reports a working directory outside the home directory.
// Remote paths mirror the home-relative layout, so nothing can be planned.
type HomeMismatchError struct {
	Cwd  string
	Home string
}

func (e *HomeMismatchError) Error() string {
	return fmt.Sprintf("git-sync assumes that you are running relative to your home directory. cwd=%s, home=%s",
		e.Cwd, e.Home)
}

// Environment supplies the process-global locations.
type Environment interface {
	CurrentDirectory() (string, error)
	HomeDirectory() (string, error)
}

// BranchReader reads the local branch name.
type BranchReader interface {
	CurrentBranch(ctx context.Context) (string, error)
}

// Context is the resolved, read-only view of the local working copy.
type Context struct {
	Cwd         string
	Home        string
	RelativeCwd string
	Branch      string
}

// Resolve computes the Context. homeOverride replaces the environment's home
// directory when non-empty.
func Resolve(ctx context.Context, env Environment, branches BranchReader, homeOverride string) (Context, error) {
	cwd, err := env.CurrentDirectory()
	if err != nil {
		return Context{}, fmt.Errorf("failed to get current directory: %w", err)
	}

	home, err := resolveHome(env, homeOverride)
	if err != nil {
		return Context{}, err
	}

	rel, err := RelativeTo(home, cwd)
	if err != nil {
		return Context{}, err
	}

	branch, err := branches.CurrentBranch(ctx)
	if err != nil {
		return Context{}, err
	}
	if branch == "HEAD" {
		return Context{}, ErrDetachedHead
	}
	if err := gitutil.ValidateBranchName(branch); err != nil {
		return Context{}, err
	}

	return Context{
		Cwd:         cwd,
		Home:        home,
		RelativeCwd: rel,
		Branch:      branch,
	}, nil
}

// RelativeTo returns cwd relative to home, failing when cwd is not home or
// one of its descendants.
func RelativeTo(home, cwd string) (string, error) {
	home = filepath.Clean(home)
	cwd = filepath.Clean(cwd)

	rel, err := filepath.Rel(home, cwd)
	if err != nil {
		return "", &HomeMismatchError{Cwd: cwd, Home: home}
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", &HomeMismatchError{Cwd: cwd, Home: home}
	}
	return filepath.ToSlash(rel), nil
}

func resolveHome(env Environment, override string) (string, error) {
	if override == "" {
		home, err := env.HomeDirectory()
		if err != nil {
			return "", fmt.Errorf("failed to find home directory: %w", err)
		}
		return filepath.Clean(home), nil
	}

	if override == "~" || strings.HasPrefix(override, "~/") {
		home, err := env.HomeDirectory()
		if err != nil {
			return "", fmt.Errorf("failed to find home directory: %w", err)
		}
		override = filepath.Join(home, strings.TrimPrefix(override, "~"))
	}

	abs, err := filepath.Abs(override)
	if err != nil {
		return "", fmt.Errorf("invalid home directory %q: %w", override, err)
	}
	return abs, nil
}

// OSEnvironment reads the process environment. The current directory keeps
// symlinked components: $PWD wins when it names the same directory as the
// OS-reported one.
type OSEnvironment struct{}

func (OSEnvironment) CurrentDirectory() (string, error) {
	wd, err := os.Getwd()
	if err != nil {
		return "", err
	}
	return LogicalDirectory(os.Getenv("PWD"), wd), nil
}

func (OSEnvironment) HomeDirectory() (string, error) {
	return os.UserHomeDir()
}

// LogicalDirectory picks pwd over wd when both refer to the same directory.
func LogicalDirectory(pwd, wd string) string {
	if pwd == "" || !filepath.IsAbs(pwd) {
		return wd
	}
	pwdInfo, err := os.Stat(pwd)
	if err != nil {
		return wd
	}
	wdInfo, err := os.Stat(wd)
	if err != nil {
		return wd
	}
	if !os.SameFile(pwdInfo, wdInfo) {
		return wd
	}
	return filepath.Clean(pwd)
}
