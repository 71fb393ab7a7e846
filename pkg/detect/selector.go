package detect

import (
	"strings"

	"github.com/encodingman/encodingman/pkg/errors"
)

// Mode controls how the selector treats low-confidence winners.
type Mode string

const (
	// ModeSmart always uses the top candidate.
	ModeSmart Mode = "smart"
	// ModeThreshold asks for confirmation below the confidence threshold.
	ModeThreshold Mode = "threshold"
)

// ParseMode parses a mode name. An empty name means ModeSmart.
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case "", ModeSmart:
		return ModeSmart, nil
	case ModeThreshold:
		return ModeThreshold, nil
	}
	return "", errors.New(errors.CodeInvalidConfig, "unknown selection mode").
		WithContext("mode", s)
}

// DefaultThreshold is the confidence below which threshold mode asks.
const DefaultThreshold = 0.75

// Selector picks the winning candidate and decides whether to ask.
type Selector struct {
	Mode      Mode
	Threshold float64
}

// Select builds the detection result from ranked candidates.
// It fails only when no candidate decoded structurally; otherwise the best
// effort winner is returned even when its confidence is low.
func (s Selector) Select(path string, class FileClass, ranked []ScoredCandidate, preview []string) (*Result, Decision, error) {
	res := &Result{
		Path:    path,
		Class:   class,
		Ranked:  ranked,
		Preview: preview,
	}
	if class == ClassBinary {
		res.Ranked = nil
		return res, AutoConvert, nil
	}

	usable := -1
	for i, sc := range ranked {
		if !sc.Truncated {
			usable = i
			break
		}
	}
	if usable < 0 {
		name := ""
		if len(ranked) > 0 {
			name = ranked[0].Name
		}
		return nil, AutoConvert, errors.DecodeFailure(name).WithContext("path", path)
	}

	if usable > 0 {
		// a truncated candidate tied at zero; promote the first usable one
		reordered := make([]ScoredCandidate, 0, len(ranked))
		reordered = append(reordered, ranked[usable])
		reordered = append(reordered, ranked[:usable]...)
		reordered = append(reordered, ranked[usable+1:]...)
		res.Ranked = reordered
	}
	res.Winner = res.Ranked[0]
	if s.Mode == ModeThreshold && res.Winner.Confidence < s.Threshold {
		return res, NeedsConfirmation, nil
	}
	return res, AutoConvert, nil
}

// IsTarget reports whether the winner already is the named target state.
func IsTarget(winner Candidate, target string) bool {
	return winner.Name == target
}
