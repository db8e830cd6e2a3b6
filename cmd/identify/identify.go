package identify

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/birdeye-app/birdeye/internal/app"
	"github.com/birdeye-app/birdeye/internal/archive"
	"github.com/birdeye-app/birdeye/internal/errors"
	"github.com/birdeye-app/birdeye/internal/logger"
	"github.com/birdeye-app/birdeye/internal/photo"
	"github.com/birdeye-app/birdeye/internal/session"
	"github.com/birdeye-app/birdeye/pkg/output"
	"github.com/birdeye-app/birdeye/pkg/spinner"
)

type options struct {
	output   string
	nickname string
	format   string
	workers  int
}

// Command creates the identify command for a batch of photo files.
func Command(ctx *app.Context) *cobra.Command {
	var opts options

	cmd := &cobra.Command{
		Use:   "identify [photos...]",
		Short: "Identify and grade bird photos",
		Long: `Identify the bird in each photo, grade the shot and write a zip archive
sorted by order and family. RAW files are read through their embedded preview.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, ctx, opts, args)
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", archive.DownloadName, "Path of the zip archive to write, empty skips the archive")
	cmd.Flags().StringVarP(&opts.nickname, "nickname", "n", "", "Save the results to the record store under this nickname")
	cmd.Flags().StringVarP(&opts.format, "format", "f", "table", "Output format: table, csv")
	cmd.Flags().IntVarP(&opts.workers, "workers", "w", 0, "Photos identified in parallel (default from config)")

	return cmd
}

func run(cmd *cobra.Command, ctx *app.Context, opts options, paths []string) error {
	format, err := output.ParseFormat(opts.format)
	if err != nil {
		return err
	}

	settings, err := ctx.Settings()
	if err != nil {
		return err
	}
	if opts.workers > 0 {
		settings.Batch.Workers = opts.workers
	}

	// fails on a missing classifier key before any photo is read
	a, err := app.New(settings, app.WithBuildInfo(ctx.Build))
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	if opts.nickname != "" {
		if err := a.RequireRecords(); err != nil {
			return err
		}
	}

	inputs, err := readInputs(paths, a.Sessions.MaxPhotos(), a.Log)
	if err != nil {
		return err
	}

	stdout, stderr := cmd.OutOrStdout(), cmd.ErrOrStderr()

	var progress *spinner.Spinner
	if spinner.IsTerminal(stderr) && !settings.Debug {
		progress = spinner.NewSpinner(stderr, fmt.Sprintf("identifying %d photos", len(inputs)))
		progress.Start(spinner.DefaultInterval)
	}
	sess := a.Sessions.Create()
	batch, err := a.Sessions.Process(cmd.Context(), sess, inputs)
	if progress != nil {
		progress.Stop()
	}
	if err != nil {
		return err
	}
	if extra := len(paths) - len(inputs); extra > 0 {
		batch.Dropped += extra
		a.Metrics.Pipeline.AddDropped(extra)
	}

	output.Batch(stdout, format, batch.Items)
	if format == output.FormatTable {
		output.Summary(stdout, session.Summarize(batch.Results()), batch.Dropped)
	}
	printWarnings(cmd, batch.Warnings)

	if opts.output != "" {
		if err := writeArchive(a, opts.output, batch); err != nil {
			return err
		}
		fmt.Fprintf(stderr, "Archive written to %s\n", opts.output)
	}

	if opts.nickname != "" {
		saved, warnings := a.Recorder.Save(cmd.Context(), opts.nickname, batch.Items)
		printWarnings(cmd, warnings)
		fmt.Fprintf(stderr, "Saved %d of %d records for %s\n", saved, len(batch.Items), opts.nickname)
	}
	return nil
}

// readInputs reads at most limit files; the rest are never opened.
func readInputs(paths []string, limit int, log logger.Logger) ([]photo.Input, error) {
	if len(paths) > limit {
		log.Warn("too many photos, extra files are dropped",
			logger.Int("given", len(paths)),
			logger.Int("limit", limit))
		paths = paths[:limit]
	}

	inputs := make([]photo.Input, 0, len(paths))
	for _, p := range paths {
		data, err := os.ReadFile(p)
		if err != nil {
			return nil, fileError(err, p)
		}
		inputs = append(inputs, photo.NewInput(filepath.Base(p), data))
	}
	return inputs, nil
}

func writeArchive(a *app.App, path string, batch *session.BatchResult) error {
	return writeFile(path, func(w io.Writer) error {
		return a.Archive.Write(w, batch.ArchiveItems())
	})
}

// writeFile creates path and fills it with write. A failed write removes
// the partial file.
func writeFile(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fileError(err, path)
	}
	if err := write(f); err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return err
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(path)
		return fileError(err, path)
	}
	return nil
}

func fileError(err error, path string) error {
	return errors.New(err).
		Component("cmd").
		Category(errors.CategoryFileIO).
		Context("path", path).
		Build()
}

func printWarnings(cmd *cobra.Command, warnings []session.Warning) {
	for _, w := range warnings {
		fmt.Fprintf(cmd.ErrOrStderr(), "warning: %s\n", logger.RedactSensitiveData(w.Error()))
	}
}
