package leaderboard

import (
	"github.com/spf13/cobra"

	"github.com/birdeye-app/birdeye/internal/app"
	"github.com/birdeye-app/birdeye/pkg/output"
)

// Command creates the leaderboard command.
func Command(ctx *app.Context) *cobra.Command {
	var (
		format string
		top    int
	)

	cmd := &cobra.Command{
		Use:   "leaderboard",
		Short: "Rank contributors by species, photos and average score",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := output.ParseFormat(format)
			if err != nil {
				return err
			}

			a, err := ctx.Open()
			if err != nil {
				return err
			}
			defer func() { _ = a.Close() }()
			if err := a.RequireRecords(); err != nil {
				return err
			}

			board, err := a.Leaderboard.Board(cmd.Context())
			if err != nil {
				return err
			}
			entries := board.Entries
			if top > 0 && len(entries) > top {
				entries = entries[:top]
			}
			output.Leaderboard(cmd.OutOrStdout(), f, entries)
			return nil
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "table", "Output format: table, csv")
	cmd.Flags().IntVarP(&top, "top", "t", 0, "Show only the first N contributors")
	return cmd
}
