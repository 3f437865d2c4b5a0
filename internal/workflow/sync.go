package workflow

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/samzong/git-sync/internal/plan"
	"github.com/samzong/git-sync/internal/shell"
	"github.com/samzong/git-sync/internal/ui"
	"go.uber.org/zap"
)

// ExitNothingToCommit is the `git commit` exit code for a clean tree.
const ExitNothingToCommit = 1

// ExitCommandNotFound is reported when git or ssh cannot be started, as a
// shell would.
const ExitCommandNotFound = 127

// ForcePrompt is asked before relaxing receive.denyCurrentBranch remotely.
const ForcePrompt = "Do you want to force this?"

// Markers git prints when the remote refuses a push into its checked out branch.
var denyCurrentBranchMarkers = []string{
	"updating the current branch in a non-bare repo",
	"refusing to update checked out branch",
}

// StepError aborts the sequence on an unhandled non-zero exit code. ssh
// transport failures surface the same way.
type StepError struct {
	Step     plan.StepName
	ExitCode int
	Stderr   string
	// Err is set when the step never produced an exit code of its own.
	Err error
}

func (e *StepError) Error() string {
	msg := fmt.Sprintf("%s step failed with exit code %d", e.Step, e.ExitCode)
	if e.Stderr != "" {
		msg += ": " + e.Stderr
	}
	return msg
}

func (e *StepError) Unwrap() error {
	return e.Err
}

// runError converts a runner error into an abort. Cancellation passes
// through untouched; anything else means the program could not be started.
func runError(ctx context.Context, step plan.StepName, err error) error {
	if ctx.Err() != nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%s step: %w", step, err)
	}
	return &StepError{Step: step, ExitCode: ExitCommandNotFound, Stderr: err.Error(), Err: err}
}

type SyncOptions struct {
	Dry       bool
	OutWriter io.Writer
	ErrWriter io.Writer
	Logger    *zap.Logger
}

// SyncFlow executes a plan once.
type SyncFlow struct {
	runner    CommandRunner
	confirmer Confirmer
	opts      SyncOptions
	logger    *zap.Logger
	states    []State
}

// NewSyncFlow creates a flow. A nil confirmer declines every question.
func NewSyncFlow(runner CommandRunner, confirmer Confirmer, opts SyncOptions) *SyncFlow {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.OutWriter == nil {
		opts.OutWriter = io.Discard
	}
	if opts.ErrWriter == nil {
		opts.ErrWriter = io.Discard
	}
	return &SyncFlow{
		runner:    runner,
		confirmer: confirmer,
		opts:      opts,
		logger:    logger,
		states:    []State{StatePending},
	}
}

// States returns the states visited so far, starting with StatePending.
func (f *SyncFlow) States() []State {
	return append([]State(nil), f.states...)
}

// State returns the current state.
func (f *SyncFlow) State() State {
	return f.states[len(f.states)-1]
}

func (f *SyncFlow) transition(to State) {
	from := f.State()
	f.states = append(f.states, to)
	f.logger.Debug("state transition", zap.Stringer("from", from), zap.Stringer("to", to))
}

// Run executes p in order. In dry mode each command is printed instead and
// the runner is never called.
func (f *SyncFlow) Run(ctx context.Context, p *plan.Plan) error {
	if f.State() != StatePending {
		return errors.New("sync flow already ran")
	}

	if f.opts.Dry {
		for _, step := range p.Steps {
			fmt.Fprintln(f.opts.OutWriter, step.Invocation.String())
		}
		f.transition(StateDone)
		return nil
	}

	for _, step := range p.Steps {
		if err := ctx.Err(); err != nil {
			f.transition(StateAborted)
			return err
		}

		f.transition(stateFor(step.Name))
		result, err := f.exec(ctx, step.Invocation)
		if err != nil {
			f.transition(StateAborted)
			return runError(ctx, step.Name, err)
		}

		switch {
		case result.ExitCode == 0:
			continue
		case step.Name == plan.StepCommit && result.ExitCode == ExitNothingToCommit:
			f.logger.Debug("nothing to commit, continuing")
			continue
		case step.Name == plan.StepPush:
			recovered, err := f.recoverPush(ctx, p, step, &result)
			if err != nil {
				f.transition(StateAborted)
				return err
			}
			if recovered {
				continue
			}
		}

		f.transition(StateAborted)
		return &StepError{Step: step.Name, ExitCode: result.ExitCode, Stderr: result.StderrString()}
	}

	f.transition(StateDone)
	return nil
}

// recoverPush handles a push refused because it targets the remote's checked
// out branch. On success it returns true; otherwise result holds the exit
// code the sequence aborts with.
func (f *SyncFlow) recoverPush(ctx context.Context, p *plan.Plan, push plan.Step, result *shell.Result) (bool, error) {
	if !IsDenyCurrentBranch(string(result.Stderr)) || p.Recovery == nil {
		return false, nil
	}

	ok, err := f.confirm(ForcePrompt)
	if err != nil {
		return false, &StepError{
			Step:     push.Name,
			ExitCode: result.ExitCode,
			Stderr:   result.StderrString(),
			Err:      err,
		}
	}
	if !ok {
		f.logger.Debug("push recovery declined")
		return false, nil
	}

	f.transition(StatePushRecovering)
	fix, err := f.exec(ctx, p.Recovery)
	if err != nil {
		return false, runError(ctx, push.Name, err)
	}
	if fix.ExitCode != 0 {
		*result = fix
		return false, nil
	}

	f.transition(StatePushRetrying)
	retry, err := f.exec(ctx, push.Invocation)
	if err != nil {
		return false, runError(ctx, push.Name, err)
	}
	*result = retry
	return retry.ExitCode == 0, nil
}

func (f *SyncFlow) confirm(prompt string) (bool, error) {
	if f.confirmer == nil {
		return false, nil
	}
	return f.confirmer.Confirm(prompt)
}

func (f *SyncFlow) exec(ctx context.Context, inv plan.Invocation) (shell.Result, error) {
	fmt.Fprintln(f.opts.ErrWriter, ui.RenderCommand(f.opts.ErrWriter, inv.String()))
	result, err := f.runner.Run(ctx, inv.Argv())
	f.logger.Debug("command finished",
		zap.Strings("argv", inv.Argv()),
		zap.Int("exit_code", result.ExitCode),
		zap.Error(err))
	return result, err
}

// IsDenyCurrentBranch reports whether push stderr says the remote refused to
// update its checked out branch.
func IsDenyCurrentBranch(stderr string) bool {
	for _, marker := range denyCurrentBranchMarkers {
		if strings.Contains(stderr, marker) {
			return true
		}
	}
	return false
}

func stateFor(name plan.StepName) State {
	switch name {
	case plan.StepCommit:
		return StateCommitting
	case plan.StepPush:
		return StatePushing
	default:
		return StateSyncing
	}
}
