// Package output renders identification results, records and rankings for
// the terminal.
package output

import (
	"fmt"
	"io"
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/birdeye-app/birdeye/internal/leaderboard"
	"github.com/birdeye-app/birdeye/internal/records"
	"github.com/birdeye-app/birdeye/internal/session"
)

// Format selects the table rendering.
type Format string

const (
	FormatTable Format = "table"
	FormatCSV   Format = "csv"
)

// ParseFormat validates a --format flag value.
func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case FormatTable, "":
		return FormatTable, nil
	case FormatCSV:
		return FormatCSV, nil
	}
	return "", fmt.Errorf("unsupported output format %q, use table or csv", s)
}

func newWriter(out io.Writer, header table.Row, rightAligned ...int) table.Writer {
	tw := table.NewWriter()
	tw.SetOutputMirror(out)
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(header)

	configs := make([]table.ColumnConfig, 0, len(rightAligned))
	for _, n := range rightAligned {
		configs = append(configs, table.ColumnConfig{Number: n, Align: text.AlignRight, AlignHeader: text.AlignLeft})
	}
	tw.SetColumnConfigs(configs)
	return tw
}

func render(tw table.Writer, f Format) {
	if f == FormatCSV {
		tw.RenderCSV()
		return
	}
	tw.Render()
}

// Batch writes one row per processed photo.
func Batch(out io.Writer, f Format, items []session.Item) {
	tw := newWriter(out, table.Row{"#", "File", "Species", "English", "Order / Family", "Score", "Grade", "Location", "Shot", "Cached"}, 1, 6)
	for i, it := range items {
		r := it.Result
		tw.AppendRow(table.Row{
			i + 1,
			r.OriginalName,
			r.ChineseName,
			r.EnglishName,
			r.OrderChinese + " / " + r.FamilyChinese,
			r.Score,
			string(r.Grade()),
			r.Location,
			r.ShootDate,
			yesNo(it.Cached),
		})
	}
	render(tw, f)
}

// Summary writes the batch summary as a two column table.
func Summary(out io.Writer, s session.Summary, dropped int) {
	tw := newWriter(out, table.Row{"Summary", ""})
	tw.AppendRow(table.Row{"Photos", s.Photos})
	if dropped > 0 {
		tw.AppendRow(table.Row{"Dropped", dropped})
	}
	tw.AppendRow(table.Row{"Species", len(s.Species)})
	tw.AppendRow(table.Row{"Average score", strconv.FormatFloat(s.AvgScore, 'f', 1, 64)})
	tw.AppendRow(table.Row{"Best score", s.BestScore})
	tw.Render()
}

// Leaderboard writes the ranking, best first.
func Leaderboard(out io.Writer, f Format, entries []leaderboard.Entry) {
	tw := newWriter(out, table.Row{"Rank", "Nickname", "Species", "Photos", "Avg", "Best"}, 1, 3, 4, 5, 6)
	for i, e := range entries {
		tw.AppendRow(table.Row{i + 1, e.Nickname, e.SpeciesCount, e.TotalCount, strconv.FormatFloat(e.AvgScore, 'f', 1, 64), e.BestScore})
	}
	render(tw, f)
}

// Records writes stored identification records.
func Records(out io.Writer, f Format, recs []records.Record) {
	tw := newWriter(out, table.Row{"ID", "Created", "Nickname", "Species", "Score", "Shot", "File"}, 5)
	for _, r := range recs {
		created := ""
		if !r.CreatedAt.IsZero() {
			created = r.CreatedAt.Local().Format("2006-01-02 15:04")
		}
		tw.AppendRow(table.Row{string(r.ID), created, r.UserNickname, r.ChineseName, r.Score, r.ShootDate, r.OriginalName})
	}
	render(tw, f)
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return ""
}
