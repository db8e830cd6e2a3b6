package config

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/birdeye-app/birdeye/internal/app"
	"github.com/birdeye-app/birdeye/internal/conf"
)

// Command creates the config parent command
func Command(ctx *app.Context) *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Create or inspect the configuration",
	}

	configCmd.AddCommand(initCommand(), showCommand(ctx))
	return configCmd
}

func initCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "init [path]",
		Short: "Write the default config.yaml",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "config.yaml"
			if len(args) == 1 {
				path = args[0]
			}
			if err := conf.WriteDefaultConfig(path); err != nil {
				return err
			}
			abs, err := filepath.Abs(path)
			if err != nil {
				abs = path
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Default configuration written to %s\n", abs)
			return nil
		},
	}
}

func showCommand(ctx *app.Context) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration with secrets masked",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, err := ctx.Settings()
			if err != nil {
				return err
			}
			out, err := settings.Redacted()
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), out)
			return nil
		},
	}
}
