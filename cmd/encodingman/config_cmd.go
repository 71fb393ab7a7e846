package main

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/encodingman/encodingman/pkg/config"
	"github.com/encodingman/encodingman/pkg/convert"
	"github.com/encodingman/encodingman/pkg/detect"
	"github.com/encodingman/encodingman/pkg/tempfile"
	"github.com/encodingman/encodingman/pkg/tui"
)

func (a *app) configCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show or change persisted settings",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "show",
			Short: "Print the effective configuration",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				data, err := yaml.Marshal(a.cfg)
				if err != nil {
					return err
				}
				_, err = a.out.Write(data)
				return err
			},
		},
		&cobra.Command{
			Use:   "get <key>",
			Short: "Print one setting",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				v, err := a.cfg.Value(args[0])
				if err != nil {
					return err
				}
				fmt.Fprintln(a.out, v)
				return nil
			},
		},
		&cobra.Command{
			Use:   "set <key> <value>",
			Short: "Change one setting and save it to the user configuration",
			Long: fmt.Sprintf(`Set validates the new value and writes the user configuration file.
Command-line flags of this invocation are not saved.

Keys: %v`, config.Keys()),
			Args: cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				if err := a.manager.Set(args[0], args[1]); err != nil {
					return err
				}
				if err := a.manager.Save(); err != nil {
					return err
				}
				fmt.Fprintf(a.out, "%s = %s (%s)\n", args[0], args[1], a.manager.UserPath())
				return nil
			},
		},
		&cobra.Command{
			Use:   "path",
			Short: "Print the configuration files in use",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				fmt.Fprintf(a.out, "user: %s\n", a.manager.UserPath())
				for _, p := range a.manager.GetPaths() {
					fmt.Fprintf(a.out, "loaded: %s\n", p)
				}
				return nil
			},
		},
	)
	return cmd
}

func (a *app) encodingsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "encodings",
		Short: "List encodings accepted by --encoding and --target",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintln(a.out, "Source encodings:")
			tui.PrintEncodings(a.out, detect.SupportedEncodings())
			fmt.Fprintln(a.out)
			fmt.Fprintln(a.out, "Targets:")
			for _, t := range convert.SupportedTargets() {
				fmt.Fprintf(a.out, "  %s\n", t)
			}
			return nil
		},
	}
}

func (a *app) cleanupCmd() *cobra.Command {
	var olderThan time.Duration

	cmd := &cobra.Command{
		Use:   "cleanup",
		Short: "Remove converted temporary files",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			temps := tempfile.NewManager(a.cfg.TempDir, false)
			n, err := temps.Sweep(olderThan)
			fmt.Fprintf(a.out, "removed %d file(s) from %s\n", n, temps.Dir())
			return err
		},
	}
	cmd.Flags().DurationVar(&olderThan, "older-than", 0, "Only remove files at least this old")
	return cmd
}

// writeFile creates path and hands it to fn.
func writeFile(path string, fn func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := fn(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
