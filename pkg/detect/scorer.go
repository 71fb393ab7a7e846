package detect

// Scorer evaluates every applicable strategy and ranks the results.
type Scorer struct {
	registry *Registry
	weights  Weights
	hinter   Hinter
}

// NewScorer creates a scorer. A nil hinter disables corroboration.
func NewScorer(registry *Registry, weights Weights, hinter Hinter) *Scorer {
	if registry == nil {
		registry = DefaultRegistry
	}
	return &Scorer{
		registry: registry,
		weights:  weights,
		hinter:   hinter,
	}
}

// Score attempts every proposed candidate and returns them ranked.
func (s *Scorer) Score(data []byte) []ScoredCandidate {
	strategies := s.registry.Candidates(data)
	scored := make([]ScoredCandidate, len(strategies))
	fallback := make([]bool, len(strategies))
	for i, st := range strategies {
		scored[i] = st.Attempt(data, s.weights)
		fallback[i] = st.Fallback()
	}

	s.applyFallbackDiscount(scored, fallback)
	s.applyHint(data, scored)

	return Rank(scored, s.weights.Epsilon)
}

// applyFallbackDiscount lowers single-byte candidates when some multi-byte
// candidate decoded cleanly with a reasonable score.
func (s *Scorer) applyFallbackDiscount(scored []ScoredCandidate, fallback []bool) {
	strong := false
	for i, sc := range scored {
		if !fallback[i] && sc.Decoded && sc.Confidence >= s.weights.MultiByteFloor {
			strong = true
			break
		}
	}
	if !strong {
		return
	}
	for i := range scored {
		if fallback[i] {
			scored[i].Confidence *= s.weights.FallbackDiscount
		}
	}
}

// applyHint nudges the unmarked candidate the statistical detector agrees with.
func (s *Scorer) applyHint(data []byte, scored []ScoredCandidate) {
	if s.hinter == nil || s.weights.HintBonus == 0 {
		return
	}
	label := s.hinter.Hint(data)
	if label == "" {
		return
	}
	st, err := s.registry.Lookup(label)
	if err != nil {
		return
	}
	name := st.Candidate().Name
	for i := range scored {
		sc := &scored[i]
		if sc.Name != name || sc.Marked || !sc.Decoded {
			continue
		}
		sc.Confidence = clamp(sc.Confidence+s.weights.HintBonus, 0, s.weights.MaxUnmarked)
	}
}

// Rank orders candidates by confidence. Candidates within epsilon of the
// best remaining score are ties and the lowest rank among them goes first.
func Rank(scored []ScoredCandidate, epsilon float64) []ScoredCandidate {
	rest := make([]ScoredCandidate, len(scored))
	copy(rest, scored)
	out := make([]ScoredCandidate, 0, len(scored))

	for len(rest) > 0 {
		best := 0
		for i := range rest {
			if rest[i].Confidence > rest[best].Confidence {
				best = i
			}
		}
		top := rest[best].Confidence
		pick := -1
		for i := range rest {
			if top-rest[i].Confidence > epsilon {
				continue
			}
			if pick < 0 || rest[i].Rank < rest[pick].Rank {
				pick = i
			}
		}
		out = append(out, rest[pick])
		rest = append(rest[:pick], rest[pick+1:]...)
	}
	return out
}
