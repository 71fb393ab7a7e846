// Package report renders batch summaries for people and for other tools.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/encodingman/encodingman/pkg/errors"
	"github.com/encodingman/encodingman/pkg/pipeline"
)

// Row is one file in a report.
type Row struct {
	Index      int     `json:"index"`
	Path       string  `json:"path"`
	Outcome    string  `json:"outcome"`
	Encoding   string  `json:"encoding,omitempty"`
	Confidence float64 `json:"confidence,omitempty"`
	Output     string  `json:"output,omitempty"`
	Lossy      int     `json:"lossy,omitempty"`
	Error      string  `json:"error,omitempty"`
	Code       string  `json:"code,omitempty"`
}

// Document is the serialized form of a summary.
type Document struct {
	Counts     pipeline.Counts `json:"counts"`
	Canceled   bool            `json:"canceled"`
	Pending    []string        `json:"pending,omitempty"`
	DurationMS int64           `json:"duration_ms"`
	Files      []Row           `json:"files"`
}

// Rows flattens outcomes in summary order.
func Rows(sum *pipeline.Summary) []Row {
	rows := make([]Row, 0, len(sum.Outcomes))
	for _, o := range sum.Outcomes {
		r := Row{
			Index:      o.Index,
			Path:       o.Path,
			Outcome:    o.Tag.String(),
			Encoding:   o.Encoding(),
			Confidence: o.Confidence(),
			Output:     o.OutputPath(),
			Error:      o.Message,
		}
		if o.Conversion != nil {
			r.Lossy = o.Conversion.Lossy
		}
		if o.Err != nil {
			r.Code = string(errors.CodeOf(o.Err))
		}
		rows = append(rows, r)
	}
	return rows
}

// NewDocument builds the serialized form of sum.
func NewDocument(sum *pipeline.Summary) Document {
	return Document{
		Counts:     sum.Counts,
		Canceled:   sum.Canceled,
		Pending:    sum.Pending,
		DurationMS: sum.Duration().Milliseconds(),
		Files:      Rows(sum),
	}
}

// WriteJSON writes sum as indented JSON.
func WriteJSON(w io.Writer, sum *pipeline.Summary) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(NewDocument(sum))
}

var (
	muted   = lipgloss.Color("#666666")
	accent  = lipgloss.Color("#FF0000")
	success = lipgloss.Color("#00CC66")
	warn    = lipgloss.Color("#FFAA00")

	titleStyle   = lipgloss.NewStyle().Bold(true)
	mutedStyle   = lipgloss.NewStyle().Foreground(muted)
	errorStyle   = lipgloss.NewStyle().Foreground(accent).Bold(true)
	successStyle = lipgloss.NewStyle().Foreground(success).Bold(true)
	warnStyle    = lipgloss.NewStyle().Foreground(warn)
)

// TagStyle returns the style used for an outcome tag.
func TagStyle(t pipeline.Tag) lipgloss.Style {
	switch t {
	case pipeline.TagConverted:
		return successStyle
	case pipeline.TagError:
		return errorStyle
	case pipeline.TagBinary:
		return warnStyle
	default:
		return mutedStyle
	}
}

// Render writes a human-readable summary.
func Render(w io.Writer, sum *pipeline.Summary) error {
	var sb strings.Builder

	for _, o := range sum.Outcomes {
		tag := TagStyle(o.Tag).Render(fmt.Sprintf("%-14s", o.Tag))
		sb.WriteString("  " + tag + " " + filepath.Base(o.Path))
		switch {
		case o.Tag == pipeline.TagError:
			sb.WriteString(" " + errorStyle.Render(o.Message))
		case o.Encoding() != "":
			sb.WriteString(mutedStyle.Render(fmt.Sprintf(" %s (%.2f)", o.Encoding(), o.Confidence())))
		}
		if out := o.OutputPath(); out != "" {
			sb.WriteString(mutedStyle.Render(" → " + out))
		}
		if o.Conversion != nil && o.Conversion.Lossy > 0 {
			sb.WriteString(warnStyle.Render(fmt.Sprintf(" [%d substituted]", o.Conversion.Lossy)))
		}
		sb.WriteString("\n")
	}

	c := sum.Counts
	sb.WriteString("\n")
	sb.WriteString("  " + titleStyle.Render("Summary") + "\n")
	sb.WriteString(fmt.Sprintf("  %s %d\n", mutedStyle.Render("Total:         "), c.Total))
	sb.WriteString(fmt.Sprintf("  %s %d\n", mutedStyle.Render("Converted:     "), c.Converted))
	sb.WriteString(fmt.Sprintf("  %s %d\n", mutedStyle.Render("Already target:"), c.AlreadyTarget))
	sb.WriteString(fmt.Sprintf("  %s %d\n", mutedStyle.Render("Binary:        "), c.Binary))
	sb.WriteString(fmt.Sprintf("  %s %d\n", mutedStyle.Render("Errors:        "), c.Errors))
	sb.WriteString(fmt.Sprintf("  %s %v\n", mutedStyle.Render("Duration:      "), sum.Duration().Round(time.Millisecond)))
	if sum.Canceled {
		sb.WriteString("  " + errorStyle.Render(fmt.Sprintf("Canceled, %d file(s) not started", len(sum.Pending))) + "\n")
	}

	_, err := io.WriteString(w, sb.String())
	return err
}
