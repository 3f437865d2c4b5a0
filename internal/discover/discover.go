// Package discover finds the working copy that mirrors the local one on a
// remote host and registers it as a git remote.
package discover

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/samzong/git-sync/internal/plan"
	"github.com/samzong/git-sync/internal/shell"
	"github.com/samzong/git-sync/internal/stringsutil"
	"github.com/samzong/git-sync/internal/workspace"
	"go.uber.org/zap"
)

// Runner executes lookup commands with captured output.
type Runner interface {
	Run(ctx context.Context, argv []string) (shell.Result, error)
}

// RemoteAdder registers a git remote locally.
type RemoteAdder interface {
	AddRemote(name, url string) error
}

// Options configures one discovery.
type Options struct {
	Host         string
	ForwardAgent bool
	SSHCommand   []string
	// Progress is called before each candidate is tried.
	Progress func(candidate string)
}

// Result describes the discovered repository.
type Result struct {
	Candidate string
	GitDir    string
	Name      string
	URL       string
}

// AddCommand is the equivalent git invocation, printed in dry mode.
func (r Result) AddCommand() string {
	return plan.NewLocal("git", "remote", "add", r.Name, r.URL).String()
}

// Candidates lists the remote directories worth probing, most likely first:
// the home-relative path, the logical absolute path and the symlink-resolved
// absolute path. Duplicates are dropped.
func Candidates(wc workspace.Context) []string {
	resolved, err := filepath.EvalSymlinks(wc.Cwd)
	if err != nil {
		resolved = ""
	}
	return stringsutil.UniqueNonEmpty(wc.RelativeCwd, wc.Cwd, resolved)
}

// Discoverer searches a host over ssh.
type Discoverer struct {
	runner Runner
	logger *zap.Logger
}

func New(runner Runner, logger *zap.Logger) *Discoverer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Discoverer{runner: runner, logger: logger}
}

// LookupCommand asks the host for the absolute .git directory under candidate.
func LookupCommand(opts Options, candidate string) plan.Remote {
	return plan.Remote{
		SSH:          opts.SSHCommand,
		ForwardAgent: opts.ForwardAgent,
		Host:         opts.Host,
		Dir:          candidate,
		Script:       "cd .git && pwd",
	}
}

// Find tries candidates in order and returns the first repository found.
func (d *Discoverer) Find(ctx context.Context, opts Options, candidates []string) (Result, error) {
	if opts.Host == "" {
		return Result{}, fmt.Errorf("host is required")
	}

	for _, candidate := range candidates {
		if opts.Progress != nil {
			opts.Progress(candidate)
		}
		lookup := LookupCommand(opts, candidate)
		d.logger.Debug("checking remote candidate", zap.String("command", lookup.String()))

		res, err := d.runner.Run(ctx, lookup.Argv())
		if err != nil {
			return Result{}, fmt.Errorf("failed to query %s: %w", opts.Host, err)
		}
		if res.ExitCode != 0 {
			d.logger.Debug("candidate not found",
				zap.String("candidate", candidate),
				zap.Int("exit_code", res.ExitCode),
				zap.String("stderr", res.StderrString()))
			continue
		}

		gitDir := stringsutil.LastLine(string(res.Stdout))
		if !strings.HasPrefix(gitDir, "/") {
			d.logger.Debug("unexpected lookup output", zap.String("output", gitDir))
			continue
		}
		return Result{
			Candidate: candidate,
			GitDir:    gitDir,
			Name:      opts.Host,
			URL:       RemoteURL(opts.Host, gitDir),
		}, nil
	}

	return Result{}, fmt.Errorf("no candidate repository found on %s", opts.Host)
}

// Register adds the discovered repository as a remote named after the host.
func Register(adder RemoteAdder, res Result) error {
	if err := adder.AddRemote(res.Name, res.URL); err != nil {
		return fmt.Errorf("failed to add remote %s: %w", res.Name, err)
	}
	return nil
}

// RemoteURL builds the ssh URL of a repository on host.
func RemoteURL(host, gitDir string) string {
	return "ssh://" + host + gitDir
}
