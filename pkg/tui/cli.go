// Package tui prints detection results and asks for confirmation on the
// terminal. Plain streaming output, no full-screen UI.
package tui

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/schollz/progressbar/v3"
	"golang.org/x/term"

	"github.com/encodingman/encodingman/pkg/detect"
	"github.com/encodingman/encodingman/pkg/errors"
	"github.com/encodingman/encodingman/pkg/pipeline"
	"github.com/encodingman/encodingman/pkg/report"
)

// Colors (Swiss minimal)
var (
	accent  = lipgloss.Color("#FF0000")
	muted   = lipgloss.Color("#666666")
	success = lipgloss.Color("#00CC66")
)

// Styles
var (
	titleStyle   = lipgloss.NewStyle().Bold(true)
	accentStyle  = lipgloss.NewStyle().Foreground(accent).Bold(true)
	mutedStyle   = lipgloss.NewStyle().Foreground(muted)
	successStyle = lipgloss.NewStyle().Foreground(success).Bold(true)
	previewStyle = lipgloss.NewStyle().BorderStyle(lipgloss.NormalBorder()).
			BorderLeft(true).BorderForeground(muted).PaddingLeft(1)
)

// maxListed caps the ranked candidates printed per file.
const maxListed = 5

// IsInteractive reports whether stdin and stdout are terminals.
func IsInteractive() bool {
	return term.IsTerminal(int(os.Stdin.Fd())) && term.IsTerminal(int(os.Stdout.Fd()))
}

// PrintDetection prints the ranked candidates and the decoded preview.
func PrintDetection(w io.Writer, res *detect.Result, decision detect.Decision) {
	fmt.Fprintln(w)
	fmt.Fprintln(w, titleStyle.Render("  "+res.Path))

	if res.Class == detect.ClassBinary {
		fmt.Fprintln(w, mutedStyle.Render("  binary file, left untouched"))
		return
	}

	for i, c := range res.Ranked {
		if i == maxListed {
			fmt.Fprintln(w, mutedStyle.Render(fmt.Sprintf("     … %d more", len(res.Ranked)-maxListed)))
			break
		}
		line := fmt.Sprintf("  %d. %-14s %.3f", i+1, c.Name, c.Confidence)
		switch {
		case i == 0:
			fmt.Fprintln(w, accentStyle.Render(line))
		case !c.Decoded:
			fmt.Fprintln(w, mutedStyle.Render(line+"  (does not decode)"))
		default:
			fmt.Fprintln(w, mutedStyle.Render(line))
		}
	}
	if decision == detect.NeedsConfirmation {
		fmt.Fprintln(w, mutedStyle.Render("  confidence below threshold"))
	}
	printPreview(w, res.Preview)
}

func printPreview(w io.Writer, lines []string) {
	if len(lines) == 0 {
		return
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, previewStyle.Render(strings.Join(lines, "\n")))
}

// PrintOutcome prints the result of one file.
func PrintOutcome(w io.Writer, out pipeline.FileOutcome) {
	tag := report.TagStyle(out.Tag).Render(out.Tag.String())
	switch out.Tag {
	case pipeline.TagConverted:
		fmt.Fprintf(w, "  %s %s %s\n", successStyle.Render("✓"), tag,
			mutedStyle.Render(fmt.Sprintf("%s → %s (%s)", out.Encoding(), out.Conversion.Target, formatDuration(out.Duration))))
		fmt.Fprintf(w, "  %s %s\n", mutedStyle.Render("Output:"), out.OutputPath())
		if out.Conversion.Lossy > 0 {
			fmt.Fprintln(w, accentStyle.Render(fmt.Sprintf("  %d character(s) replaced with '?'", out.Conversion.Lossy)))
		}
		printPreview(w, out.Preview)
	case pipeline.TagError:
		fmt.Fprintf(w, "  %s %s %s\n", accentStyle.Render("✗"), tag, out.Message)
	default:
		fmt.Fprintf(w, "  %s %s\n", mutedStyle.Render("·"), tag)
	}
}

// PrintEncodings lists encodings a user may pick for an override.
func PrintEncodings(w io.Writer, candidates []detect.Candidate) {
	for _, c := range candidates {
		fmt.Fprintf(w, "  %-14s %s\n", c.Name, mutedStyle.Render(c.Label))
	}
}

// Prompter asks on the terminal whether a low-confidence winner should be
// used. It implements pipeline.Confirmer.
type Prompter struct {
	in       *bufio.Reader
	out      io.Writer
	registry *detect.Registry
}

// NewPrompter creates a prompter reading answers from in.
func NewPrompter(in io.Reader, out io.Writer, registry *detect.Registry) *Prompter {
	if registry == nil {
		registry = detect.DefaultRegistry
	}
	return &Prompter{in: bufio.NewReader(in), out: out, registry: registry}
}

// Confirm prints the detection and reads a choice: Enter or y accepts the
// winner, n declines, a number picks a ranked candidate and a name picks any
// supported encoding.
func (p *Prompter) Confirm(ctx context.Context, res *detect.Result) (detect.Candidate, bool, error) {
	PrintDetection(p.out, res, detect.NeedsConfirmation)

	for {
		if err := ctx.Err(); err != nil {
			return detect.Candidate{}, false, err
		}
		fmt.Fprintf(p.out, "\n  Convert from %s? [Y/n/number/encoding]: ", titleStyle.Render(res.Winner.Name))

		input, err := p.in.ReadString('\n')
		if err != nil && (err != io.EOF || input == "") {
			return detect.Candidate{}, false, err
		}

		c, ok, valid := p.parse(strings.TrimSpace(input), res)
		if valid {
			return c, ok, nil
		}
		fmt.Fprintln(p.out, accentStyle.Render("  unrecognized choice"))
	}
}

func (p *Prompter) parse(answer string, res *detect.Result) (c detect.Candidate, ok, valid bool) {
	switch strings.ToLower(answer) {
	case "", "y", "yes":
		return res.Winner.Candidate, true, true
	case "n", "no":
		return detect.Candidate{}, false, true
	}

	if n, err := strconv.Atoi(answer); err == nil {
		if n >= 1 && n <= len(res.Ranked) {
			return res.Ranked[n-1].Candidate, true, true
		}
		return detect.Candidate{}, false, false
	}

	s, err := p.registry.Lookup(answer)
	if err != nil {
		return detect.Candidate{}, false, false
	}
	return s.Candidate(), true, true
}

// ShowProgress creates a progress bar for a batch.
func ShowProgress(w io.Writer, total int, description string) *progressbar.ProgressBar {
	return progressbar.NewOptions(total,
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetDescription(description),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowCount(),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "█",
			SaucerHead:    "█",
			SaucerPadding: "░",
			BarStart:      "",
			BarEnd:        "",
		}),
		progressbar.OptionThrottle(100*time.Millisecond),
		progressbar.OptionClearOnFinish(),
	)
}

// ErrorLine formats an error for stderr, code first.
func ErrorLine(err error) string {
	code := errors.CodeOf(err)
	if code == errors.CodeUnknown {
		return accentStyle.Render("error: ") + err.Error()
	}
	return accentStyle.Render(fmt.Sprintf("error %s (%s): ", code, code.Name())) + errors.Message(err)
}

// formatDuration formats a duration in a human-readable way.
func formatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	if d < time.Minute {
		return fmt.Sprintf("%.1fs", d.Seconds())
	}
	return fmt.Sprintf("%dm%ds", int(d.Minutes()), int(d.Seconds())%60)
}
