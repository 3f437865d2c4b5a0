package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/samzong/git-sync/internal/config"
	"github.com/samzong/git-sync/internal/git"
	"github.com/samzong/git-sync/internal/gitutil"
	"github.com/samzong/git-sync/internal/logger"
	"github.com/samzong/git-sync/internal/plan"
	"github.com/samzong/git-sync/internal/shell"
	"github.com/samzong/git-sync/internal/workflow"
	"github.com/samzong/git-sync/internal/workspace"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	cfgFile      string
	forwardAgent bool
	dryRun       bool
	message      string
	force        bool
	homeDir      string
	autoYes      bool
	configErr    error
	verbose      bool
	rootCmd      = &cobra.Command{
		Use:   "git-sync [flags] <host> [remote]",
		Short: "git-sync - commit, push, ssh, pull",
		Long: `git-sync mirrors the current branch of a local working copy into the
working copy at the same home-relative path on a remote host.

It commits all tracked changes, pushes them, then logs into the host over
ssh and brings the remote checkout up to date.`,
		Version:       fmt.Sprintf("%s (built at %s)", Version, BuildTime),
		Args:          cobra.RangeArgs(1, 2),
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if configErr != nil {
				return fmt.Errorf("configuration error: %w", configErr)
			}
			return handleErrors(runSync(cmd.Context(), cmd, args))
		},
	}
)

// ExitCodeError asks main to exit with Code without printing anything more.
type ExitCodeError struct {
	Code int
	Err  error
}

func (e *ExitCodeError) Error() string {
	return fmt.Sprintf("exit status %d: %v", e.Code, e.Err)
}

func (e *ExitCodeError) Unwrap() error {
	return e.Err
}

func Execute() error {
	return rootCmd.Execute()
}

// SetContext sets the context passed to every command.
func SetContext(ctx context.Context) {
	rootCmd.SetContext(ctx)
}

// RootCmd returns the root command, used by the man page generator.
func RootCmd() *cobra.Command {
	return rootCmd
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "",
		"Configuration file path (default is $XDG_CONFIG_HOME/git-sync/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&forwardAgent, "forward-agent", "A", false, "Forward the ssh agent to the host")
	rootCmd.PersistentFlags().BoolVarP(&dryRun, "dry", "n", false, "Print the commands instead of running them")
	rootCmd.PersistentFlags().StringVar(&homeDir, "home", "", "Home directory the working copy is relative to")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "V", false, "Show debug logging")
	rootCmd.Flags().StringVarP(&message, "message", "m", config.DefaultMessage, "Commit message")
	rootCmd.Flags().BoolVar(&force, "force", false, "Force push and hard reset the remote working copy")
	rootCmd.Flags().BoolVarP(&autoYes, "yes", "y", false, "Automatically confirm relaxing the remote push policy")

	rootCmd.AddCommand(configCmd)
}

func initConfig() {
	configErr = config.InitConfig(cfgFile)
}

// handleErrors turns a step abort into the retcode line and an exit code.
func handleErrors(err error) error {
	if err == nil {
		return nil
	}

	var stepErr *workflow.StepError
	if errors.As(err, &stepErr) {
		fmt.Fprintf(outWriter(), "git-sync cannot continue. retcode=%d\n", stepErr.ExitCode)
		return &ExitCodeError{Code: clampExitCode(stepErr.ExitCode), Err: err}
	}
	return err
}

func clampExitCode(code int) int {
	switch {
	case code < 1:
		return 1
	case code > 255:
		return 255
	default:
		return code
	}
}

// changedFunc reports whether a flag was set on the command line.
type changedFunc func(name string) bool

// syncConfigFor merges command line values over configuration defaults.
func syncConfigFor(args []string, cfg *config.Config, changed changedFunc) (plan.SyncConfig, error) {
	sc := plan.SyncConfig{
		Host:         args[0],
		Message:      message,
		ForwardAgent: forwardAgent,
		Dry:          dryRun,
		Force:        force,
		Home:         homeDir,
	}
	if len(args) > 1 {
		sc.Remote = args[1]
	}

	if !changed("message") && cfg.Message != "" {
		sc.Message = cfg.Message
	}
	if !changed("forward-agent") {
		sc.ForwardAgent = cfg.ForwardAgent
	}
	if !changed("home") {
		sc.Home = cfg.Home
	}

	sshCommand := cfg.SSHCommand
	if sshCommand == "" {
		sshCommand = config.DefaultSSHCommand
	}
	argv, err := shell.SplitCommand(sshCommand)
	if err != nil {
		return plan.SyncConfig{}, fmt.Errorf("invalid ssh_command: %w", err)
	}
	sc.SSHCommand = argv

	return sc, nil
}

func newConfirmer(cfg *config.Config) workflow.Confirmer {
	if autoYes || cfg.AutoConfirm {
		return workflow.AutoConfirmer{ErrWriter: errWriter()}
	}
	return &workflow.InteractiveConfirmer{ErrWriter: errWriter()}
}

func newLogger(cfg *config.Config) *zap.Logger {
	log, err := logger.NewWithFile(verbose, cfg.LogFile)
	if err != nil {
		fmt.Fprintf(errWriter(), "Warning: failed to create logger: %v\n", err)
		return zap.NewNop()
	}
	return log
}

func resolveWorkspace(ctx context.Context, gitClient *git.Client, home string) (workspace.Context, error) {
	wc, err := workspace.Resolve(ctx, workspace.OSEnvironment{}, gitClient, home)
	if gitutil.IsNotRepository(err) {
		return workspace.Context{}, fmt.Errorf("git-sync must run inside a git working copy: %w", err)
	}
	return wc, err
}

func runSync(ctx context.Context, cmd *cobra.Command, args []string) error {
	cfg, err := config.GetConfig()
	if err != nil {
		return err
	}

	sc, err := syncConfigFor(args, cfg, cmd.Flags().Changed)
	if err != nil {
		return err
	}

	log := newLogger(cfg)
	defer func() { _ = log.Sync() }()

	gitClient := git.NewClient(git.Options{Verbose: verbose})
	wc, err := resolveWorkspace(ctx, gitClient, sc.Home)
	if err != nil {
		return err
	}
	log.Debug("resolved working copy",
		zap.String("cwd", wc.Cwd),
		zap.String("home", wc.Home),
		zap.String("relative", wc.RelativeCwd),
		zap.String("branch", wc.Branch))

	p, err := plan.NewPlanner(gitClient, log).Plan(ctx, sc, wc)
	if err != nil {
		return err
	}

	runner := shell.Runner{Stdin: inReader(), Stdout: outWriter(), Stderr: errWriter()}
	flow := workflow.NewSyncFlow(runner, newConfirmer(cfg), workflow.SyncOptions{
		Dry:       sc.Dry,
		OutWriter: outWriter(),
		ErrWriter: errWriter(),
		Logger:    log,
	})
	return flow.Run(ctx, p)
}
