package serve

import (
	"github.com/spf13/cobra"

	"github.com/birdeye-app/birdeye/internal/app"
	"github.com/birdeye-app/birdeye/internal/logger"
)

// Command creates the serve command running the HTTP API.
func Command(ctx *app.Context) *cobra.Command {
	var listen string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Long:  "Serve photo uploads, archive downloads, records and the leaderboard over HTTP until interrupted.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, err := ctx.Settings()
			if err != nil {
				return err
			}
			if listen != "" {
				settings.Server.Listen = listen
			}

			a, err := app.New(settings, app.WithBuildInfo(ctx.Build))
			if err != nil {
				return err
			}
			defer func() { _ = a.Close() }()

			srv, err := a.Server()
			if err != nil {
				return err
			}
			a.Log.Info("starting HTTP server", logger.String("listen", settings.Server.Listen))
			return srv.Run(cmd.Context())
		},
	}

	cmd.Flags().StringVarP(&listen, "listen", "l", "", "Listen address (default from config)")
	return cmd
}
