package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/encodingman/encodingman/pkg/detect"
	"github.com/encodingman/encodingman/pkg/launcher"
	"github.com/encodingman/encodingman/pkg/pipeline"
	"github.com/encodingman/encodingman/pkg/tui"
	"github.com/encodingman/encodingman/pkg/validation"
)

// fixedOutput hands out one caller-chosen path.
type fixedOutput string

func (f fixedOutput) Reserve(string, string) (string, error) { return string(f), nil }

func (a *app) convertCmd() *cobra.Command {
	var (
		encoding string
		output   string
		open     bool
	)

	cmd := &cobra.Command{
		Use:   "convert <file>",
		Short: "Convert one file, optionally forcing the source encoding",
		Long: `Convert detects the source encoding (or uses --encoding) and writes the
file in the target encoding, either to a temporary copy or to --output.
The output must not exist and must not be the original.

Examples:
  encodingman convert data.csv
  encodingman convert data.csv --encoding cp932 --output data.utf8.csv
  encodingman convert notes.txt --target shift_jis --open`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]

			var opts []pipeline.Option
			if output != "" {
				if err := validation.ValidateOutputDir(filepath.Dir(output)); err != nil {
					return err
				}
				opts = append(opts, pipeline.WithOutputs(fixedOutput(output)))
			}
			p, _, err := a.newPipeline(opts...)
			if err != nil {
				return err
			}

			var out pipeline.FileOutcome
			if encoding != "" {
				s, err := detect.DefaultRegistry.Lookup(encoding)
				if err != nil {
					return err
				}
				out = p.ConvertTo(cmd.Context(), path, s.Candidate(), output)
			} else {
				out = p.Process(cmd.Context(), path)
			}
			tui.PrintOutcome(a.out, out)

			if out.Tag == pipeline.TagError {
				return out.Err
			}
			if open && out.Tag == pipeline.TagConverted {
				l := launcher.New(a.cfg.DefaultApp).WithLogger(a.log)
				if err := l.Open(cmd.Context(), out.OutputPath()); err != nil {
					a.log.WithError(err).Error("cannot open file")
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&encoding, "encoding", "e", "", "Source encoding; skips detection")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output path (default: a new temporary file)")
	cmd.Flags().BoolVar(&open, "open", false, "Open the converted file")
	return cmd
}

// failures turns a failed-file count into the command's error.
func failures(n int) error {
	if n == 0 {
		return nil
	}
	return fmt.Errorf("%d file(s) failed", n)
}
