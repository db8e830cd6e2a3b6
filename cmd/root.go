package cmd

import (
	"github.com/spf13/cobra"

	"github.com/birdeye-app/birdeye/cmd/config"
	"github.com/birdeye-app/birdeye/cmd/identify"
	"github.com/birdeye-app/birdeye/cmd/leaderboard"
	"github.com/birdeye-app/birdeye/cmd/records"
	"github.com/birdeye-app/birdeye/cmd/serve"
	"github.com/birdeye-app/birdeye/cmd/version"
	"github.com/birdeye-app/birdeye/internal/app"
)

// RootCommand creates and returns the root command
func RootCommand(ctx *app.Context) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "birdeye",
		Short:         "BirdEye bird photo identification",
		Long:          "Identify birds in photos, grade them, sort them into an archive and keep a ranking of contributors.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	setupFlags(rootCmd, ctx)

	rootCmd.AddCommand(
		identify.Command(ctx),
		serve.Command(ctx),
		leaderboard.Command(ctx),
		records.Command(ctx),
		config.Command(ctx),
		version.Command(ctx),
	)

	return rootCmd
}

// setupFlags defines flags that are global to the command line interface
func setupFlags(rootCmd *cobra.Command, ctx *app.Context) {
	rootCmd.PersistentFlags().StringVarP(&ctx.ConfigFile, "config", "c", "", "Path to config.yaml (default: search ., ~/.config/birdeye, /etc/birdeye)")
	rootCmd.PersistentFlags().BoolVarP(&ctx.Debug, "debug", "d", false, "Enable debug output")
}
