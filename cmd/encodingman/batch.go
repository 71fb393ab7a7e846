package main

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/encodingman/encodingman/pkg/pipeline"
	"github.com/encodingman/encodingman/pkg/report"
	"github.com/encodingman/encodingman/pkg/scan"
	"github.com/encodingman/encodingman/pkg/tui"
	"github.com/encodingman/encodingman/pkg/watch"
)

func (a *app) batchCmd() *cobra.Command {
	var (
		recursive  bool
		reportPath string
		asJSON     bool
	)

	cmd := &cobra.Command{
		Use:   "batch <files-or-folders...>",
		Short: "Convert many files in parallel",
		Long: `Batch converts every file given, and every file with a configured extension
inside the given folders, using a bounded pool of workers. Results are
listed in input order. Ctrl+C stops dispatching; files in flight finish.

Examples:
  encodingman batch ./exports
  encodingman batch a.csv b.txt ./more --recursive --workers 4
  encodingman batch ./exports --report summary.xlsx`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			paths, err := scan.New(a.cfg.Extensions, recursive).Expand(args)
			if err != nil {
				return err
			}
			if len(paths) == 0 {
				return fmt.Errorf("no input files found")
			}

			// batches never prompt
			a.assumeYes = true
			p, _, err := a.newPipeline()
			if err != nil {
				return err
			}

			orch := pipeline.NewOrchestrator(p, a.cfg.Workers).WithLogger(a.log)
			if !asJSON && a.interactive() {
				bar := tui.ShowProgress(a.errOut, len(paths), "converting")
				orch.OnProgress(func(pipeline.FileOutcome) { _ = bar.Add(1) })
				defer bar.Finish()
			}

			sum := orch.Run(cmd.Context(), paths)

			if asJSON {
				err = report.WriteJSON(a.out, sum)
			} else {
				err = report.Render(a.out, sum)
			}
			if err != nil {
				return err
			}
			if reportPath != "" {
				if err := writeReport(reportPath, sum); err != nil {
					return err
				}
				a.log.WithField("path", reportPath).Info("report written")
			}

			if sum.Canceled {
				return context.Canceled
			}
			return failures(sum.Counts.Errors)
		},
	}

	cmd.Flags().BoolVarP(&recursive, "recursive", "r", false, "Descend into subfolders")
	cmd.Flags().StringVar(&reportPath, "report", "", "Also write the summary to a .json or .xlsx file")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the summary as JSON")
	return cmd
}

func writeReport(path string, sum *pipeline.Summary) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx":
		return report.WriteXLSX(path, sum)
	case ".json":
		return writeFile(path, func(w io.Writer) error { return report.WriteJSON(w, sum) })
	default:
		return fmt.Errorf("unsupported report format %q (use .json or .xlsx)", filepath.Ext(path))
	}
}

func (a *app) watchCmd() *cobra.Command {
	var debounce time.Duration

	cmd := &cobra.Command{
		Use:   "watch <folders...>",
		Short: "Convert files as they appear in folders",
		Long: `Watch converts each file with a configured extension that is created or
rewritten in the given folders, once writes to it settle. Converted copies
go to the temporary directory, never into the watched folders.

Examples:
  encodingman watch ./inbox
  encodingman watch ./inbox --debounce 2s --target utf-8`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a.assumeYes = true
			p, temps, err := a.newPipeline()
			if err != nil {
				return err
			}

			w, err := watch.NewWatcher(debounce)
			if err != nil {
				return err
			}
			defer w.Close()

			w.Match = watchFilter(scan.New(a.cfg.Extensions, false), temps.Dir())

			ctx := cmd.Context()
			w.OnFile = func(path string) error {
				out := p.Process(ctx, path)
				fmt.Fprintf(a.out, "[%s] %s\n", time.Now().Format("15:04:05"), path)
				tui.PrintOutcome(a.out, out)
				return nil
			}
			w.OnError = func(path string, err error) {
				a.log.WithError(err).WithField("path", path).Error("watch error")
			}

			for _, dir := range args {
				if err := w.Add(dir); err != nil {
					return err
				}
			}

			fmt.Fprintf(a.out, "Watching %s\n", strings.Join(w.Dirs(), ", "))
			fmt.Fprintln(a.out, "Press Ctrl+C to stop")

			if err := w.Run(ctx); err != nil && err != context.Canceled {
				return err
			}
			return nil
		},
	}

	cmd.Flags().DurationVar(&debounce, "debounce", watch.DefaultDebounce, "Quiet period before a changed file is converted")
	return cmd
}

// watchFilter accepts files the scanner matches, except the converted copies
// written into outputDir.
func watchFilter(scanner *scan.Scanner, outputDir string) func(string) bool {
	exclude, err := filepath.Abs(outputDir)
	if outputDir == "" || err != nil {
		exclude = ""
	}
	return func(path string) bool {
		if !scanner.Matches(path) {
			return false
		}
		return exclude == "" || filepath.Dir(path) != exclude
	}
}
