package detect

import (
	"github.com/saintfish/chardet"
)

// Hinter offers an independent best guess of a charset label.
type Hinter interface {
	Hint(data []byte) string
}

// DefaultHintLimit bounds the bytes handed to the statistical detector.
const DefaultHintLimit = 64 * 1024

// ChardetHinter asks saintfish/chardet for its best guess.
type ChardetHinter struct {
	Limit int
}

// NewChardetHinter creates a hinter with the default byte limit.
func NewChardetHinter() *ChardetHinter {
	return &ChardetHinter{Limit: DefaultHintLimit}
}

// Hint returns the detector's charset label, or "" when it has no opinion.
func (h *ChardetHinter) Hint(data []byte) string {
	if len(data) == 0 {
		return ""
	}
	data = Sample(data).Prefix(h.Limit)

	result, err := chardet.NewTextDetector().DetectBest(data)
	if err != nil || result == nil {
		return ""
	}
	return result.Charset
}
