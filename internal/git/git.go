// Package git answers the read-only repository questions git-sync needs
// (current branch, push remotes) and registers discovered remotes.
package git

import (
	"context"
	"errors"
	"fmt"
	"strings"

	gogit "github.com/go-git/go-git/v5"
	gitconfig "github.com/go-git/go-git/v5/config"
	"github.com/samzong/git-sync/internal/gitcmd"
	"github.com/samzong/git-sync/internal/gitutil"
	"github.com/samzong/git-sync/internal/stringsutil"
)

// ErrRemoteExists is returned by AddRemote when the name is already configured.
var ErrRemoteExists = errors.New("remote already exists")

type Options struct {
	Verbose bool
	Dir     string
}

type Client struct {
	runner gitcmd.Runner
	dir    string
}

func NewClient(opts Options) *Client {
	return &Client{
		runner: gitcmd.Runner{Verbose: opts.Verbose, Dir: opts.Dir},
		dir:    opts.Dir,
	}
}

// CurrentBranch returns `git rev-parse --abbrev-ref HEAD`. A detached HEAD
// yields the literal "HEAD".
func (c *Client) CurrentBranch(ctx context.Context) (string, error) {
	out, result, err := c.runner.Output(ctx, "rev-parse", "--abbrev-ref", "HEAD")
	if err != nil {
		return "", gitutil.WrapGitError("failed to read current branch", result, err)
	}
	return out, nil
}

// PushRemotes lists the remote names that have a push destination.
func (c *Client) PushRemotes(ctx context.Context) ([]string, error) {
	out, result, err := c.runner.Output(ctx, "remote", "-v")
	if err != nil {
		return nil, gitutil.WrapGitError("failed to list remotes", result, err)
	}
	return ParsePushRemotes(out), nil
}

// ParsePushRemotes extracts remote names from `git remote -v` output whose
// destination tag ends with "(push)". Names are returned once, in order.
func ParsePushRemotes(output string) []string {
	var names []string
	seen := make(map[string]bool)
	for _, line := range stringsutil.Lines(output) {
		// origin	git@github.com:owner/repo.git (push)
		name, dest, ok := strings.Cut(line, "\t")
		if !ok {
			fields := strings.Fields(line)
			if len(fields) < 2 {
				continue
			}
			name, dest = fields[0], strings.Join(fields[1:], " ")
		}
		if !strings.HasSuffix(strings.TrimSpace(dest), "(push)") || seen[name] {
			continue
		}
		seen[name] = true
		names = append(names, name)
	}
	return names
}

// AddRemote writes a new remote into the repository configuration.
func (c *Client) AddRemote(name, url string) error {
	dir := c.dir
	if dir == "" {
		dir = "."
	}
	repo, err := gogit.PlainOpenWithOptions(dir, &gogit.PlainOpenOptions{
		DetectDotGit:          true,
		EnableDotGitCommonDir: true,
	})
	if err != nil {
		return fmt.Errorf("failed to open repository: %w", err)
	}

	_, err = repo.CreateRemote(&gitconfig.RemoteConfig{
		Name: name,
		URLs: []string{url},
	})
	if errors.Is(err, gogit.ErrRemoteExists) {
		return fmt.Errorf("%w: %s", ErrRemoteExists, name)
	}
	if err != nil {
		return fmt.Errorf("failed to add remote %s: %w", name, err)
	}
	return nil
}

// RemoteURLs returns the configured URLs of a remote.
func (c *Client) RemoteURLs(name string) ([]string, error) {
	dir := c.dir
	if dir == "" {
		dir = "."
	}
	repo, err := gogit.PlainOpenWithOptions(dir, &gogit.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return nil, fmt.Errorf("failed to open repository: %w", err)
	}
	remote, err := repo.Remote(name)
	if err != nil {
		return nil, fmt.Errorf("failed to read remote %s: %w", name, err)
	}
	return remote.Config().URLs, nil
}
