package detect

// Options configures a Detector. Zero values select the defaults.
type Options struct {
	Registry *Registry
	Weights  *Weights
	Hinter   Hinter
	Selector Selector
	// NoHint disables statistical corroboration.
	NoHint bool
}

// Detector runs classification, scoring and selection for one file at a time.
// It keeps no per-file state and may be shared between goroutines.
type Detector struct {
	registry *Registry
	scorer   *Scorer
	selector Selector
}

// NewDetector creates a detector.
func NewDetector(opts Options) *Detector {
	registry := opts.Registry
	if registry == nil {
		registry = DefaultRegistry
	}
	weights := DefaultWeights()
	if opts.Weights != nil {
		weights = *opts.Weights
	}
	hinter := opts.Hinter
	if hinter == nil && !opts.NoHint {
		hinter = NewChardetHinter()
	}
	selector := opts.Selector
	if selector.Mode == "" {
		selector.Mode = ModeSmart
	}

	return &Detector{
		registry: registry,
		scorer:   NewScorer(registry, weights, hinter),
		selector: selector,
	}
}

// Registry returns the strategy registry in use.
func (d *Detector) Registry() *Registry {
	return d.registry
}

// Detect classifies data read from path and, for text, ranks the candidates
// and selects a winner. previewLines > 0 decodes a preview with the winner.
func (d *Detector) Detect(path string, data []byte, previewLines int) (*Result, Decision, error) {
	class := ClassifyPath(path, data)
	if class == ClassBinary {
		return d.selector.Select(path, class, nil, nil)
	}

	ranked := d.scorer.Score(data)
	res, decision, err := d.selector.Select(path, class, ranked, nil)
	if err != nil {
		return nil, decision, err
	}

	if previewLines > 0 {
		if dec, err := d.registry.Decode(data, res.Winner.Candidate); err == nil {
			res.Preview = PreviewLines(dec.Text, previewLines)
		}
	}
	return res, decision, nil
}
