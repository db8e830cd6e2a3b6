package version

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/birdeye-app/birdeye/internal/app"
)

// Command creates the version command.
func Command(ctx *app.Context) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "birdeye %s (built %s, %s %s/%s)\n",
				ctx.Build.Version(), ctx.Build.BuildDate(), runtime.Version(), runtime.GOOS, runtime.GOARCH)
		},
	}
}
