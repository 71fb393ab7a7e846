package main

import (
	"encoding/json"
	"time"

	"github.com/spf13/cobra"

	"github.com/encodingman/encodingman/pkg/detect"
	"github.com/encodingman/encodingman/pkg/launcher"
	"github.com/encodingman/encodingman/pkg/pipeline"
	"github.com/encodingman/encodingman/pkg/tui"
)

// staleAfter is the age at which leftover outputs of earlier runs are swept.
const staleAfter = 24 * time.Hour

// runOpen converts each file and opens the result: the converted copy, or
// the original when no conversion was needed.
func (a *app) runOpen(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		return cmd.Help()
	}
	noOpen, _ := cmd.Flags().GetBool("no-open")

	p, temps, err := a.newPipeline()
	if err != nil {
		return err
	}
	if !a.cfg.KeepTempFile {
		if n, err := temps.Sweep(staleAfter); err != nil {
			a.log.WithError(err).Warn("temp sweep incomplete")
		} else if n > 0 {
			a.log.WithField("removed", n).Debug("swept stale temporary files")
		}
	}

	// outputs never handed to a viewer are removed on exit unless kept
	defer func() {
		if n := len(temps.Tracked()); n > 0 && !temps.Keep() {
			a.log.WithField("files", n).Debug("removing unopened outputs")
		}
		if err := temps.CleanupAll(); err != nil {
			a.log.WithError(err).Warn("temp cleanup incomplete")
		}
	}()

	l := launcher.New(a.cfg.DefaultApp).WithLogger(a.log)
	if a.opener != nil {
		l = l.WithOpener(a.opener)
	}

	failed := 0
	for _, path := range args {
		out := p.Process(cmd.Context(), path)
		tui.PrintOutcome(a.out, out)

		if out.Tag == pipeline.TagError {
			failed++
			continue
		}
		if noOpen {
			continue
		}

		target := path
		if out.Tag == pipeline.TagConverted {
			target = out.OutputPath()
		}
		// launch failures are reported but do not change the outcome
		if err := l.Open(cmd.Context(), target); err != nil {
			a.log.WithError(err).WithField("path", target).Error("cannot open file")
			continue
		}
		if out.Tag == pipeline.TagConverted {
			// the viewer may still be reading it
			_ = temps.Release(target)
		}
	}
	return failures(failed)
}

func (a *app) detectCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "detect <files...>",
		Short: "Show ranked encoding candidates without converting",
		Long: `Detect classifies each file and prints every candidate encoding with its
confidence, best first, followed by a preview decoded with the winner.

Examples:
  encodingman detect data.csv
  encodingman detect --json *.txt`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, _, err := a.newPipeline()
			if err != nil {
				return err
			}

			var docs []detection
			failed := 0
			for _, path := range args {
				res, decision, err := p.Detect(cmd.Context(), path)
				if err != nil {
					failed++
					a.log.WithError(err).WithField("path", path).Error("detection failed")
					if asJSON {
						docs = append(docs, detection{Path: path, Error: err.Error()})
					}
					continue
				}
				if asJSON {
					docs = append(docs, newDetection(res, decision))
					continue
				}
				tui.PrintDetection(a.out, res, decision)
			}

			if asJSON {
				enc := json.NewEncoder(a.out)
				enc.SetIndent("", "  ")
				if err := enc.Encode(docs); err != nil {
					return err
				}
			}
			return failures(failed)
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")
	return cmd
}

type scored struct {
	Name       string  `json:"name"`
	Confidence float64 `json:"confidence"`
	Decoded    bool    `json:"decoded"`
}

type detection struct {
	Path     string   `json:"path"`
	Class    string   `json:"class,omitempty"`
	Decision string   `json:"decision,omitempty"`
	Winner   string   `json:"winner,omitempty"`
	Ranked   []scored `json:"ranked,omitempty"`
	Preview  []string `json:"preview,omitempty"`
	Error    string   `json:"error,omitempty"`
}

func newDetection(res *detect.Result, decision detect.Decision) detection {
	d := detection{
		Path:     res.Path,
		Class:    res.Class.String(),
		Decision: decision.String(),
		Preview:  res.Preview,
	}
	if res.Class == detect.ClassText {
		d.Winner = res.Winner.Name
	}
	for _, c := range res.Ranked {
		d.Ranked = append(d.Ranked, scored{Name: c.Name, Confidence: c.Confidence, Decoded: c.Decoded})
	}
	return d
}
