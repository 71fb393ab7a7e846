package detect

// Weights holds every tunable scoring coefficient.
type Weights struct {
	// Core formula
	ValidityWeight     float64
	ScriptWeight       float64
	CleanBonus         float64
	ReplacementPenalty float64
	ControlPenalty     float64
	MaxUnmarked        float64

	// Script tables
	HalfwidthWeight float64

	// Per-family adjustments
	UnmarkedUTF16Discount float64
	FallbackDiscount      float64
	MultiByteFloor        float64

	// Decode-success threshold (replacements per rune)
	ToleratedErrorRate float64

	// Corroboration from the statistical detector
	HintBonus float64

	// Scores closer than Epsilon are ties, broken by rank
	Epsilon float64
}

// DefaultWeights returns the calibrated scoring coefficients.
func DefaultWeights() Weights {
	return Weights{
		ValidityWeight:        0.6,
		ScriptWeight:          0.3,
		CleanBonus:            0.1,
		ReplacementPenalty:    10,
		ControlPenalty:        2,
		MaxUnmarked:           0.99,
		HalfwidthWeight:       0.5,
		UnmarkedUTF16Discount: 0.5,
		FallbackDiscount:      0.5,
		MultiByteFloor:        0.5,
		ToleratedErrorRate:    0.001,
		HintBonus:             0.02,
		Epsilon:               0.01,
	}
}

// confidence folds text statistics into a score in [0, MaxUnmarked].
func (w Weights) confidence(st textStats) float64 {
	validity, script := 1.0, 1.0
	if st.runes > 0 {
		validity = clamp(1-w.ReplacementPenalty*float64(st.replacements)/float64(st.runes), 0, 1)
	}
	if st.nonASCII > 0 {
		script = st.script / float64(st.nonASCII)
	}

	conf := w.ValidityWeight*validity + w.ScriptWeight*script
	if st.replacements == 0 {
		conf += w.CleanBonus
	}
	if st.runes > 0 {
		conf -= w.ControlPenalty * float64(st.controls) / float64(st.runes)
	}
	return clamp(conf, 0, w.MaxUnmarked)
}

// decoded reports whether the replacement ratio is within tolerance.
func (w Weights) decoded(st textStats) bool {
	if st.runes == 0 {
		return true
	}
	return float64(st.replacements)/float64(st.runes) <= w.ToleratedErrorRate
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
