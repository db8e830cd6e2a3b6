package records

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/birdeye-app/birdeye/internal/app"
	"github.com/birdeye-app/birdeye/internal/errors"
	"github.com/birdeye-app/birdeye/internal/records"
	"github.com/birdeye-app/birdeye/pkg/output"
)

// Command creates the records parent command
func Command(ctx *app.Context) *cobra.Command {
	recordsCmd := &cobra.Command{
		Use:   "records",
		Short: "List and delete stored identification records",
	}

	recordsCmd.AddCommand(listCommand(ctx), deleteCommand(ctx))
	return recordsCmd
}

func listCommand(ctx *app.Context) *cobra.Command {
	var (
		nickname string
		limit    int
		format   string
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List records, newest first",
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

			if limit <= 0 {
				limit = a.Settings.Records.ListLimit
			}
			q := records.Query{
				Order: records.NewestFirst,
				Limit: limit,
				Columns: []string{
					records.ColumnID, records.ColumnCreatedAt, records.ColumnNickname,
					records.ColumnChineseName, records.ColumnScore, records.ColumnShootDate,
					records.ColumnOriginalName,
				},
			}
			if nickname != "" {
				q.Filter = records.Eq(records.ColumnNickname, nickname)
			}

			recs, err := a.Records.List(cmd.Context(), q)
			if err != nil {
				return err
			}
			output.Records(cmd.OutOrStdout(), f, recs)
			return nil
		},
	}

	cmd.Flags().StringVarP(&nickname, "nickname", "n", "", "Only records of this nickname")
	cmd.Flags().IntVarP(&limit, "limit", "l", 0, "Maximum number of records (default from config)")
	cmd.Flags().StringVarP(&format, "format", "f", "table", "Output format: table, csv")
	return cmd
}

func deleteCommand(ctx *app.Context) *cobra.Command {
	return &cobra.Command{
		Use:   "delete [id...]",
		Short: "Delete records by id",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := ctx.Open()
			if err != nil {
				return err
			}
			defer func() { _ = a.Close() }()
			if err := a.RequireRecords(); err != nil {
				return err
			}

			for _, id := range args {
				err := a.Records.Delete(cmd.Context(), records.ID(id))
				switch {
				case errors.IsNotFound(err):
					fmt.Fprintf(cmd.ErrOrStderr(), "No record %s\n", id)
					continue
				case err != nil:
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", id)
			}
			a.Leaderboard.Invalidate()
			return nil
		},
	}
}
