package detect

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scoreWith(t *testing.T, data []byte, hinter Hinter) []ScoredCandidate {
	t.Helper()
	ranked := NewScorer(DefaultRegistry, DefaultWeights(), hinter).Score(data)
	require.NotEmpty(t, ranked)
	return ranked
}

func find(ranked []ScoredCandidate, name string) (ScoredCandidate, bool) {
	for _, sc := range ranked {
		if sc.Name == name {
			return sc, true
		}
	}
	return ScoredCandidate{}, false
}

func TestScorer_RoundTrip(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		want string
	}{
		{"shift_jis", sjis(t, japaneseText), NameShiftJIS},
		{"euc-jp", eucjp(t, japaneseText), NameEUCJP},
		{"iso-2022-jp", iso2022(t, japaneseText), NameISO2022JP},
		{"utf-8", []byte(japaneseText), NameUTF8},
		{"utf-8 with mark", withUTF8BOM(japaneseText), NameUTF8BOM},
		{"utf-16le with mark", utf16le(t, japaneseText, true), NameUTF16LEBOM},
		{"windows-1252", cp1252(t, latinText), NameWindows1252},
		{"ascii", []byte("hello, world\n"), NameUTF8},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, hinter := range []Hinter{nil, NewChardetHinter()} {
				ranked := scoreWith(t, tt.data, hinter)
				assert.Equal(t, tt.want, ranked[0].Name)
				assert.True(t, ranked[0].Decoded)
			}
		})
	}
}

func TestScorer_ISO2022MostlyASCII(t *testing.T) {
	text := strings.Repeat("id,name,value,comment\r\n", 20) + "1,山田,3,テスト\r\n"
	data := iso2022(t, text)

	for _, hinter := range []Hinter{nil, NewChardetHinter()} {
		ranked := scoreWith(t, data, hinter)
		require.Equal(t, NameISO2022JP, ranked[0].Name)
		assert.True(t, ranked[0].Decoded)

		for _, name := range []string{NameUTF8, NameShiftJIS, NameEUCJP, NameWindows1252} {
			sc, ok := find(ranked, name)
			require.True(t, ok, name)
			assert.False(t, sc.Decoded, name)
			assert.Greater(t, sc.Replacements, 0, name)
			assert.Less(t, sc.Confidence, ranked[0].Confidence-DefaultWeights().Epsilon, name)
		}
	}
}

func TestMeasure_Designators(t *testing.T) {
	w := DefaultWeights()

	st := measure([]byte("a\x1b$Bb\x1b(Bc"), unicodeScript, w)
	assert.Equal(t, 5, st.runes)
	assert.Equal(t, 2, st.replacements)
	assert.Zero(t, st.controls)

	// a lone escape is an ordinary control character
	st = measure([]byte("a\x1bb"), unicodeScript, w)
	assert.Zero(t, st.replacements)
	assert.Equal(t, 1, st.controls)
}

func TestScorer_MarkedCandidateScoresOne(t *testing.T) {
	ranked := scoreWith(t, withUTF8BOM("id,name\r\n1,テスト\r\n"), nil)

	assert.Equal(t, NameUTF8BOM, ranked[0].Name)
	assert.Equal(t, 1.0, ranked[0].Confidence)
	for _, sc := range ranked[1:] {
		assert.Less(t, sc.Confidence, 1.0, sc.Name)
	}
}

func TestScorer_MarkedCandidatesOnlyWithMark(t *testing.T) {
	ranked := scoreWith(t, []byte(japaneseText), nil)

	for _, sc := range ranked {
		assert.False(t, sc.Marked, sc.Name)
	}
	assert.Len(t, ranked, 7)

	ranked = scoreWith(t, withUTF8BOM(japaneseText), nil)
	_, ok := find(ranked, NameUTF8BOM)
	assert.True(t, ok)
	_, ok = find(ranked, NameUTF8)
	assert.True(t, ok, "unmarked candidates are still evaluated")
}

func TestScorer_TruncatedSequenceScoresZero(t *testing.T) {
	data := append(sjis(t, japaneseText), 0x82)

	sc, ok := find(scoreWith(t, data, nil), NameShiftJIS)
	require.True(t, ok)
	assert.True(t, sc.Truncated)
	assert.False(t, sc.Decoded)
	assert.Zero(t, sc.Confidence)
}

func TestScorer_OddLengthUTF16(t *testing.T) {
	sc, ok := find(scoreWith(t, []byte("abc"), nil), NameUTF16LE)
	require.True(t, ok)
	assert.True(t, sc.Truncated)
	assert.Zero(t, sc.Confidence)
}

func TestScorer_FallbackDiscount(t *testing.T) {
	w := DefaultWeights()

	// A strong multi-byte candidate halves the single-byte fallback.
	sc, ok := find(scoreWith(t, sjis(t, japaneseText), nil), NameWindows1252)
	require.True(t, ok)
	assert.LessOrEqual(t, sc.Confidence, w.MaxUnmarked*w.FallbackDiscount)

	// Without one, the fallback keeps its full score.
	sc, ok = find(scoreWith(t, cp1252(t, latinText), nil), NameWindows1252)
	require.True(t, ok)
	assert.Equal(t, w.MaxUnmarked, sc.Confidence)
}

func TestScorer_RankedIsMonotonic(t *testing.T) {
	eps := DefaultWeights().Epsilon
	for _, data := range [][]byte{
		sjis(t, japaneseText),
		eucjp(t, japaneseText),
		cp1252(t, latinText),
		withUTF8BOM(japaneseText),
	} {
		ranked := scoreWith(t, data, NewChardetHinter())
		for i := 1; i < len(ranked); i++ {
			assert.LessOrEqual(t, ranked[i].Confidence, ranked[i-1].Confidence+eps)
			assert.GreaterOrEqual(t, ranked[i].Confidence, 0.0)
			assert.LessOrEqual(t, ranked[i].Confidence, 1.0)
		}
	}
}

type fixedHinter string

func (h fixedHinter) Hint([]byte) string { return string(h) }

func TestScorer_HintBonusIsCapped(t *testing.T) {
	w := DefaultWeights()
	ranked := scoreWith(t, []byte("plain ascii text\n"), fixedHinter("ISO-8859-1"))

	assert.Equal(t, NameUTF8, ranked[0].Name, "a hint never overrides priority at the cap")
	for _, sc := range ranked {
		assert.LessOrEqual(t, sc.Confidence, w.MaxUnmarked)
	}
}

func TestRank_EpsilonTieBreak(t *testing.T) {
	scored := []ScoredCandidate{
		{Candidate: Candidate{Name: "c", Rank: 6}, Confidence: 0.95},
		{Candidate: Candidate{Name: "a", Rank: 1}, Confidence: 0.945},
		{Candidate: Candidate{Name: "b", Rank: 3}, Confidence: 0.40},
	}

	ranked := Rank(scored, 0.01)
	require.Len(t, ranked, 3)
	assert.Equal(t, "a", ranked[0].Name)
	assert.Equal(t, "c", ranked[1].Name)
	assert.Equal(t, "b", ranked[2].Name)
	for i := 1; i < len(ranked); i++ {
		assert.LessOrEqual(t, ranked[i].Confidence, ranked[i-1].Confidence+0.01)
	}

	ranked = Rank(scored, 0.001)
	assert.Equal(t, "c", ranked[0].Name)
}

func TestWeights_Confidence(t *testing.T) {
	w := DefaultWeights()

	clean := w.confidence(textStats{runes: 100, nonASCII: 50, script: 50})
	assert.Equal(t, w.MaxUnmarked, clean)

	noisy := w.confidence(textStats{runes: 100, nonASCII: 50, script: 45, replacements: 5})
	assert.Less(t, noisy, clean)

	controls := w.confidence(textStats{runes: 100, controls: 10})
	assert.InDelta(t, 1.0-0.2, controls, 1e-9)

	assert.Equal(t, w.MaxUnmarked, w.confidence(textStats{}))
}
