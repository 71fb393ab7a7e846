package pipeline

import (
	"time"

	"github.com/encodingman/encodingman/pkg/convert"
	"github.com/encodingman/encodingman/pkg/detect"
)

// Tag is the final classification of one file.
type Tag uint8

const (
	TagConverted Tag = iota
	TagAlreadyTarget
	TagBinary
	TagError
)

func (t Tag) String() string {
	switch t {
	case TagConverted:
		return "converted"
	case TagAlreadyTarget:
		return "already_target"
	case TagBinary:
		return "binary"
	case TagError:
		return "error"
	default:
		return "unknown"
	}
}

// FileOutcome is the result of processing one file.
type FileOutcome struct {
	Index      int
	Path       string
	Tag        Tag
	Detection  *detect.Result
	Decision   detect.Decision
	Conversion *convert.Outcome
	Preview    []string // first lines of the converted text
	Err        error
	Message    string
	Duration   time.Duration
}

// Encoding returns the winning encoding name, or "" when none was chosen.
func (o FileOutcome) Encoding() string {
	if o.Conversion != nil {
		return o.Conversion.Source.Name
	}
	if o.Detection != nil && o.Detection.Class == detect.ClassText {
		return o.Detection.Winner.Name
	}
	return ""
}

// Confidence returns the winner's confidence, or 0.
func (o FileOutcome) Confidence() float64 {
	if o.Detection != nil && o.Detection.Class == detect.ClassText {
		return o.Detection.Winner.Confidence
	}
	return 0
}

// OutputPath returns the written file, or "".
func (o FileOutcome) OutputPath() string {
	if o.Conversion != nil {
		return o.Conversion.OutputPath
	}
	return ""
}

// Counts tallies outcomes by tag.
type Counts struct {
	Total         int `json:"total"`
	Converted     int `json:"converted"`
	AlreadyTarget int `json:"already_target"`
	Binary        int `json:"binary"`
	Errors        int `json:"errors"`
}

// Add records one outcome.
func (c *Counts) Add(t Tag) {
	c.Total++
	switch t {
	case TagConverted:
		c.Converted++
	case TagAlreadyTarget:
		c.AlreadyTarget++
	case TagBinary:
		c.Binary++
	case TagError:
		c.Errors++
	}
}

// Merge returns the sum of two tallies.
func (c Counts) Merge(o Counts) Counts {
	return Counts{
		Total:         c.Total + o.Total,
		Converted:     c.Converted + o.Converted,
		AlreadyTarget: c.AlreadyTarget + o.AlreadyTarget,
		Binary:        c.Binary + o.Binary,
		Errors:        c.Errors + o.Errors,
	}
}

// Summary is the result of a batch run. Outcomes keep input order.
type Summary struct {
	Outcomes []FileOutcome
	Counts   Counts
	Pending  []string // inputs never dispatched because the run was canceled
	Canceled bool
	Started  time.Time
	Finished time.Time
}

// Duration returns the wall-clock time of the run.
func (s *Summary) Duration() time.Duration {
	return s.Finished.Sub(s.Started)
}

// Failed returns the outcomes tagged as errors.
func (s *Summary) Failed() []FileOutcome {
	var out []FileOutcome
	for _, o := range s.Outcomes {
		if o.Tag == TagError {
			out = append(out, o)
		}
	}
	return out
}
