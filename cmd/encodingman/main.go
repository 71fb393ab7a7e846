// encodingman detects the character encoding of text files and converts
// them to a canonical encoding without touching the originals.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/encodingman/encodingman/pkg/config"
	"github.com/encodingman/encodingman/pkg/launcher"
	"github.com/encodingman/encodingman/pkg/logging"
	"github.com/encodingman/encodingman/pkg/pipeline"
	"github.com/encodingman/encodingman/pkg/telemetry"
	"github.com/encodingman/encodingman/pkg/tempfile"
	"github.com/encodingman/encodingman/pkg/tui"
)

var (
	version = "0.1.0"
	commit  = "dev"
)

// flagKeys maps global flags onto configuration keys.
var flagKeys = map[string]string{
	"target":     "target_encoding",
	"mode":       "mode",
	"threshold":  "confidence_threshold",
	"preview":    "preview_lines",
	"workers":    "workers",
	"keep-temp":  "keep_temp_file",
	"temp-dir":   "temp_dir",
	"app":        "default_app",
	"extensions": "extensions",
	"log-level":  "log.level",
	"log-format": "log.format",
}

// app holds what one CLI invocation shares between commands.
type app struct {
	in     io.Reader
	out    io.Writer
	errOut io.Writer

	configPath  string
	assumeYes   bool
	interactive func() bool
	opener      launcher.Opener // nil uses the desktop handler

	v        *viper.Viper
	manager  *config.Manager
	cfg      config.Config
	log      *logrus.Logger
	shutdown telemetry.ShutdownFunc
}

func main() {
	telemetry.Version = version
	a := newApp(os.Stdin, os.Stdout, os.Stderr)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := a.execute(ctx, os.Args[1:])
	stop()

	if err != nil {
		fmt.Fprintln(os.Stderr, tui.ErrorLine(err))
		os.Exit(1)
	}
}

func newApp(in io.Reader, out, errOut io.Writer) *app {
	return &app{
		in:          in,
		out:         out,
		errOut:      errOut,
		interactive: tui.IsInteractive,
		v:           viper.New(),
		log:         logging.Discard(),
	}
}

func (a *app) execute(ctx context.Context, args []string) error {
	root := a.rootCmd()
	root.SetArgs(args)
	root.SetIn(a.in)
	root.SetOut(a.out)
	root.SetErr(a.errOut)

	err := root.ExecuteContext(ctx)
	if a.shutdown != nil {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if serr := a.shutdown(flushCtx); serr != nil {
			a.log.WithError(serr).Warn("telemetry flush failed")
		}
	}
	return err
}

func (a *app) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "encodingman [files...]",
		Short: "Detect text file encodings and convert them",
		Long: `encodingman works out the character encoding of text files (Shift_JIS,
EUC-JP, ISO-2022-JP, UTF-8, UTF-16, Windows-1252), converts them to the
target encoding in a temporary copy and opens the copy in the configured
application. Originals are never modified.

Examples:
  encodingman report.csv
  encodingman --target shift_jis legacy.txt
  encodingman batch ./exports --recursive --report summary.xlsx`,
		Version:           fmt.Sprintf("%s (%s)", version, commit),
		Args:              cobra.ArbitraryArgs,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
		RunE:              a.runOpen,
	}

	pf := root.PersistentFlags()
	pf.StringVar(&a.configPath, "config", "", "Use this configuration file instead of the standard locations")
	pf.BoolVarP(&a.assumeYes, "yes", "y", false, "Never prompt; accept the best candidate")
	pf.StringP("target", "t", "", "Target encoding (utf-8-bom, utf-8, shift_jis)")
	pf.String("mode", "", "Selection mode (smart, threshold)")
	pf.Float64("threshold", 0, "Confidence threshold for threshold mode")
	pf.Int("preview", 0, "Number of preview lines")
	pf.IntP("workers", "w", 0, "Parallel workers for batches (0 = one per CPU)")
	pf.Bool("keep-temp", false, "Keep converted temporary files")
	pf.String("temp-dir", "", "Directory for converted files")
	pf.String("app", "", "Application used to open files (system_default or a path)")
	pf.StringSlice("extensions", nil, "Extensions picked up from folders")
	pf.String("log-level", "", "Log level (debug, info, warn, error)")
	pf.String("log-format", "", "Log format (text, json)")

	root.Flags().Bool("no-open", false, "Convert only; do not launch the application")

	root.AddCommand(
		a.detectCmd(),
		a.convertCmd(),
		a.batchCmd(),
		a.watchCmd(),
		a.configCmd(),
		a.encodingsCmd(),
		a.cleanupCmd(),
	)
	return root
}

// setup loads configuration, overlays changed flags and starts logging and
// telemetry.
func (a *app) setup(cmd *cobra.Command, _ []string) error {
	if a.configPath != "" {
		a.manager = config.NewManagerWithPaths(a.configPath, a.configPath)
	} else {
		a.manager = config.NewManager()
	}
	if err := a.manager.Load(); err != nil {
		return err
	}

	cfg, err := a.applyFlags(cmd.Flags(), a.manager.Snapshot())
	if err != nil {
		return err
	}
	a.cfg = cfg

	a.log, err = logging.New(cfg.Log, a.errOut)
	if err != nil {
		return err
	}
	a.shutdown, err = telemetry.Init(cmd.Context(), cfg.Telemetry)
	if err != nil {
		a.log.WithError(err).Warn("telemetry disabled")
		a.shutdown = nil
	}
	return nil
}

// applyFlags binds the global flags through viper and applies the ones set
// on the command line on top of cfg.
func (a *app) applyFlags(flags *pflag.FlagSet, cfg config.Config) (config.Config, error) {
	for name, key := range flagKeys {
		f := flags.Lookup(name)
		if f == nil {
			continue
		}
		if err := a.v.BindPFlag(key, f); err != nil {
			return cfg, err
		}
		if !f.Changed {
			continue
		}

		value := a.v.GetString(key)
		if f.Value.Type() == "stringSlice" {
			value = strings.Join(a.v.GetStringSlice(key), ",")
		}
		if err := cfg.Apply(key, value); err != nil {
			return cfg, err
		}
	}
	return cfg, nil
}

// newPipeline builds a pipeline from the invocation's snapshot.
func (a *app) newPipeline(opts ...pipeline.Option) (*pipeline.Pipeline, *tempfile.Manager, error) {
	temps := tempfile.NewManager(a.cfg.TempDir, a.cfg.KeepTempFile)
	base := []pipeline.Option{
		pipeline.WithLogger(a.log),
		pipeline.WithOutputs(temps),
	}
	if !a.assumeYes && a.interactive() {
		base = append(base, pipeline.WithConfirmer(tui.NewPrompter(a.in, a.out, nil)))
	}
	p, err := pipeline.New(a.cfg, append(base, opts...)...)
	if err != nil {
		return nil, nil, err
	}
	return p, temps, nil
}
