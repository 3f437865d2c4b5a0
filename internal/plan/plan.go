// Package plan assembles the ordered commit, push and sync commands for one
// git-sync invocation. It never executes anything.
package plan

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/samzong/git-sync/internal/workspace"
	"go.uber.org/zap"
)

// DefaultMessage is the commit message used when none is given.
const DefaultMessage = "wip [skip ci]"

// ErrNoPushRemote is returned in force mode when no push remote exists.
var ErrNoPushRemote = errors.New("force mode needs a remote but no push remote is configured")

// AmbiguousRemoteError is returned in force mode when several push remotes
// exist and none was named.
type AmbiguousRemoteError struct {
	Candidates []string
}

func (e *AmbiguousRemoteError) Error() string {
	return fmt.Sprintf("force mode needs a remote but several push remotes are configured (%s); name one explicitly",
		strings.Join(e.Candidates, ", "))
}

// SyncConfig is the per-invocation configuration.
type SyncConfig struct {
	Host         string
	Remote       string
	Message      string
	ForwardAgent bool
	Dry          bool
	Force        bool
	Home         string
	SSHCommand   []string
}

// StepName identifies a plan step.
type StepName string

const (
	StepCommit StepName = "commit"
	StepPush   StepName = "push"
	StepSync   StepName = "sync"
)

// Step is one command of the plan.
type Step struct {
	Name       StepName
	Invocation Invocation
}

// Plan is the ordered command sequence. Steps is always commit, push, sync.
type Plan struct {
	Steps []Step
	// Recovery relaxes receive.denyCurrentBranch on the remote working copy
	// when a push into its checked out branch is refused.
	Recovery Invocation
	// Remote is the git remote the plan uses, empty when git picks it.
	Remote string
}

// Step returns the step with the given name.
func (p *Plan) Step(name StepName) (Step, bool) {
	for _, s := range p.Steps {
		if s.Name == name {
			return s, true
		}
	}
	return Step{}, false
}

// RemoteLister lists the configured push remotes of the local repository.
type RemoteLister interface {
	PushRemotes(ctx context.Context) ([]string, error)
}

// Planner builds plans.
type Planner struct {
	remotes RemoteLister
	logger  *zap.Logger
}

func NewPlanner(remotes RemoteLister, logger *zap.Logger) *Planner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Planner{remotes: remotes, logger: logger}
}

// Plan builds the commit, push and sync steps for cfg in the resolved
// workspace. The only external query is the push-remote lookup in force mode
// when no remote is named.
func (p *Planner) Plan(ctx context.Context, cfg SyncConfig, wc workspace.Context) (*Plan, error) {
	if cfg.Host == "" {
		return nil, errors.New("host is required")
	}
	if cfg.Message == "" {
		cfg.Message = DefaultMessage
	}

	remote := cfg.Remote
	if cfg.Force && remote == "" {
		resolved, err := p.defaultPushRemote(ctx)
		if err != nil {
			return nil, err
		}
		remote = resolved
	}

	commit := NewLocal("git", "commit", "-am").WithQuoted(cfg.Message)

	push := NewLocal("git", "push")
	if remote != "" {
		push = push.With(remote)
	}
	if cfg.Force {
		push = push.With("--force")
	}

	sync := p.remote(cfg, wc, syncScript(cfg, remote, wc.Branch))
	recovery := p.remote(cfg, wc, "git config --local receive.denyCurrentBranch warn")

	p.logger.Debug("planned sync",
		zap.String("host", cfg.Host),
		zap.String("remote", remote),
		zap.String("branch", wc.Branch),
		zap.String("remote_dir", wc.RelativeCwd),
		zap.Bool("force", cfg.Force))

	return &Plan{
		Steps: []Step{
			{Name: StepCommit, Invocation: commit},
			{Name: StepPush, Invocation: push},
			{Name: StepSync, Invocation: sync},
		},
		Recovery: recovery,
		Remote:   remote,
	}, nil
}

func (p *Planner) remote(cfg SyncConfig, wc workspace.Context, script string) Remote {
	return Remote{
		SSH:          cfg.SSHCommand,
		ForwardAgent: cfg.ForwardAgent,
		Host:         cfg.Host,
		Dir:          wc.RelativeCwd,
		Script:       script,
	}
}

func (p *Planner) defaultPushRemote(ctx context.Context) (string, error) {
	if p.remotes == nil {
		return "", ErrNoPushRemote
	}
	candidates, err := p.remotes.PushRemotes(ctx)
	if err != nil {
		return "", err
	}
	switch len(candidates) {
	case 0:
		return "", ErrNoPushRemote
	case 1:
		p.logger.Debug("using the only push remote", zap.String("remote", candidates[0]))
		return candidates[0], nil
	default:
		return "", &AmbiguousRemoteError{Candidates: candidates}
	}
}

// syncScript is the remote-side command run after `cd` into the working copy.
func syncScript(cfg SyncConfig, remote, branch string) string {
	checkout := CheckoutIfNeeded(branch)

	if cfg.Force {
		// Rebuild the remote branch from the pushed ref, discarding its history.
		return fmt.Sprintf("git fetch %s; %s; git reset %s/%s --hard", remote, checkout, remote, branch)
	}

	if remote != "" && remote == cfg.Host {
		// The remote is the target working copy itself: nothing to pull.
		return checkout + " && git reset --hard HEAD"
	}

	pull := "git pull"
	if remote != "" {
		pull += " " + remote
	}
	return pull + " && " + checkout
}

// CheckoutIfNeeded switches the remote working copy to branch unless it is
// already checked out.
func CheckoutIfNeeded(branch string) string {
	return fmt.Sprintf(`if [[ "$(git rev-parse --abbrev-ref HEAD)" != "%s" ]]; then git checkout %s; fi`,
		branch, branch)
}
