package cmd

import (
	"fmt"

	"github.com/samzong/git-sync/internal/config"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var (
	configCmd = &cobra.Command{
		Use:   "config",
		Short: "Manage git-sync configuration",
		Long: `Manage git-sync configuration.

Values in the configuration file and GIT_SYNC_* environment variables are
defaults; flags given on the command line always win.`,
	}

	configGetCmd = &cobra.Command{
		Use:   "get",
		Short: "Show the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			if configErr != nil {
				return fmt.Errorf("configuration error: %w", configErr)
			}
			return runConfigGet()
		},
	}

	configSetCmd = &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Set a configuration value and save it",
		Args:  cobra.ExactArgs(2),
		ValidArgsFunction: func(_ *cobra.Command, args []string, _ string) ([]string, cobra.ShellCompDirective) {
			if len(args) == 0 {
				return config.Keys(), cobra.ShellCompDirectiveNoFileComp
			}
			return nil, cobra.ShellCompDirectiveNoFileComp
		},
		RunE: func(_ *cobra.Command, args []string) error {
			if configErr != nil {
				return fmt.Errorf("configuration error: %w", configErr)
			}
			return runConfigSet(args[0], args[1])
		},
	}
)

func init() {
	configCmd.AddCommand(configGetCmd)
	configCmd.AddCommand(configSetCmd)
}

func runConfigGet() error {
	cfg, err := config.GetConfig()
	if err != nil {
		return err
	}

	enc := yaml.NewEncoder(outWriter())
	enc.SetIndent(2)
	if err := enc.Encode(cfg); err != nil {
		return fmt.Errorf("failed to render configuration: %w", err)
	}
	return enc.Close()
}

func runConfigSet(key, value string) error {
	if err := config.SetConfigValue(key, value); err != nil {
		return err
	}
	if err := config.SaveConfig(); err != nil {
		return err
	}
	fmt.Fprintf(outWriter(), "Set %s to %q\n", key, value)
	return nil
}
