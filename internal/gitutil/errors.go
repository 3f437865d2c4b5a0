package gitutil

import (
	"errors"
	"strings"

	"github.com/samzong/git-sync/internal/gitcmd"
)

// GitError is a failed git query. Stderr holds git's own explanation, which
// is usually more useful than the exit status.
type GitError struct {
	Action string
	Stderr string
	Err    error
}

func (e *GitError) Error() string {
	if e.Stderr != "" {
		return e.Action + ": " + e.Stderr + ": " + e.Err.Error()
	}
	return e.Action + ": " + e.Err.Error()
}

func (e *GitError) Unwrap() error {
	return e.Err
}

// WrapGitError builds an error message that prefers git stderr output when present.
func WrapGitError(action string, result gitcmd.Result, err error) error {
	return &GitError{
		Action: action,
		Stderr: result.StderrString(true),
		Err:    err,
	}
}

// IsNotRepository reports whether git refused to run outside a repository.
func IsNotRepository(err error) bool {
	var gitErr *GitError
	if !errors.As(err, &gitErr) {
		return false
	}
	return strings.Contains(strings.ToLower(gitErr.Stderr), "not a git repository")
}
