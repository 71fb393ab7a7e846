package detect

import (
	"sort"
	"strings"
	"sync"

	"github.com/encodingman/encodingman/pkg/errors"
)

// Registry holds the strategies the scorer evaluates.
type Registry struct {
	mu         sync.RWMutex
	strategies map[string]Strategy
	aliases    map[string]string
}

// DefaultRegistry holds the built-in strategies.
var DefaultRegistry = NewDefaultRegistry()

// NewRegistry creates an empty strategy registry.
func NewRegistry() *Registry {
	return &Registry{
		strategies: make(map[string]Strategy),
		aliases:    make(map[string]string),
	}
}

// NewDefaultRegistry creates a registry with every built-in strategy.
func NewDefaultRegistry() *Registry {
	r := NewRegistry()
	for _, s := range Builtin() {
		name := s.Candidate().Name
		r.Register(s, builtinAliases[name]...)
	}
	return r
}

// Register registers a strategy under its canonical name and aliases.
func (r *Registry) Register(s Strategy, aliases ...string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	name := s.Candidate().Name
	r.strategies[name] = s
	r.aliases[normalizeLabel(name)] = name
	r.aliases[normalizeLabel(s.Candidate().Label)] = name
	for _, a := range aliases {
		r.aliases[normalizeLabel(a)] = name
	}
}

// Get returns the strategy registered under a canonical name.
func (r *Registry) Get(name string) (Strategy, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if s, ok := r.strategies[name]; ok {
		return s, nil
	}
	return nil, errors.New(errors.CodeUnknownEncoding, "unknown encoding").
		WithContext("encoding", name)
}

// Lookup resolves a user-supplied or detector-reported label.
func (r *Registry) Lookup(label string) (Strategy, error) {
	r.mu.RLock()
	name, ok := r.aliases[normalizeLabel(label)]
	r.mu.RUnlock()

	if !ok {
		return nil, errors.New(errors.CodeUnknownEncoding, "unknown encoding").
			WithContext("encoding", label)
	}
	return r.Get(name)
}

// Strategies returns all strategies in rank order.
func (r *Registry) Strategies() []Strategy {
	r.mu.RLock()
	out := make([]Strategy, 0, len(r.strategies))
	for _, s := range r.strategies {
		out = append(out, s)
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		return out[i].Candidate().Rank < out[j].Candidate().Rank
	})
	return out
}

// Candidates proposes every applicable candidate for data in rank order.
// Marked candidates appear only when their mark is present.
func (r *Registry) Candidates(data []byte) []Strategy {
	all := r.Strategies()
	out := all[:0]
	for _, s := range all {
		if s.Applies(data) {
			out = append(out, s)
		}
	}
	return out
}

// Decode decodes data as the given candidate.
func (r *Registry) Decode(data []byte, c Candidate) (Decoding, error) {
	s, err := r.Get(c.Name)
	if err != nil {
		return Decoding{}, err
	}
	return s.Decode(data), nil
}

// Names returns the canonical names in rank order.
func (r *Registry) Names() []string {
	strategies := r.Strategies()
	names := make([]string, len(strategies))
	for i, s := range strategies {
		names[i] = s.Candidate().Name
	}
	return names
}

// Candidates proposes candidates from the default registry.
func Candidates(data []byte) []Candidate {
	strategies := DefaultRegistry.Candidates(data)
	out := make([]Candidate, len(strategies))
	for i, s := range strategies {
		out[i] = s.Candidate()
	}
	return out
}

// SupportedEncodings lists the encodings a user may pick manually.
func SupportedEncodings() []Candidate {
	var out []Candidate
	for _, s := range DefaultRegistry.Strategies() {
		if c := s.Candidate(); !c.Marked || c.Name == NameUTF8BOM {
			out = append(out, c)
		}
	}
	return out
}

func normalizeLabel(label string) string {
	return strings.ToLower(strings.TrimSpace(label))
}
