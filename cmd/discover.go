package cmd

import (
	"context"
	"fmt"

	"github.com/samzong/git-sync/internal/config"
	"github.com/samzong/git-sync/internal/discover"
	"github.com/samzong/git-sync/internal/git"
	"github.com/samzong/git-sync/internal/shell"
	"github.com/samzong/git-sync/internal/ui"
	"github.com/spf13/cobra"
)

var discoverCmd = &cobra.Command{
	Use:   "discover <host>",
	Short: "Find the matching repository on a host and add it as a remote",
	Long: `Find the working copy on <host> that mirrors the current one and add it
as a git remote named <host>.

The home-relative path is tried first, then the absolute path with and
without symlinks resolved.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if configErr != nil {
			return fmt.Errorf("configuration error: %w", configErr)
		}
		return runDiscover(cmd.Context(), cmd, args[0])
	},
}

func init() {
	rootCmd.AddCommand(discoverCmd)
}

func runDiscover(ctx context.Context, cmd *cobra.Command, host string) error {
	cfg, err := config.GetConfig()
	if err != nil {
		return err
	}
	sc, err := syncConfigFor([]string{host}, cfg, cmd.Flags().Changed)
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

	sp := ui.NewSpinnerTo(errWriter(), "Searching "+host+"...")
	opts := discover.Options{
		Host:         host,
		ForwardAgent: sc.ForwardAgent,
		SSHCommand:   sc.SSHCommand,
		Progress: func(candidate string) {
			sp.UpdateMessage(fmt.Sprintf("Probing %s:%s", host, candidate))
		},
	}

	sp.Start()
	res, err := discover.New(shell.Runner{}, log).Find(ctx, opts, discover.Candidates(wc))
	sp.Stop()
	if err != nil {
		return err
	}

	if sc.Dry {
		fmt.Fprintln(outWriter(), res.AddCommand())
		return nil
	}
	if err := discover.Register(gitClient, res); err != nil {
		return err
	}
	fmt.Fprintf(outWriter(), "Added remote %s -> %s\n", res.Name, res.URL)
	return nil
}
