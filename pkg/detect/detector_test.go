package detect

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetector_Detect(t *testing.T) {
	d := NewDetector(Options{NoHint: true})

	res, decision, err := d.Detect("people.csv", sjis(t, japaneseText), 2)
	require.NoError(t, err)
	assert.Equal(t, AutoConvert, decision)
	assert.Equal(t, ClassText, res.Class)
	assert.Equal(t, NameShiftJIS, res.Winner.Name)
	assert.Equal(t, []string{"名前,住所,電話番号", "山田太郎,東京都千代田区,03-1234-5678"}, res.Preview)
}

func TestDetector_BinaryExtension(t *testing.T) {
	d := NewDetector(Options{NoHint: true})

	res, _, err := d.Detect("book.xlsx", []byte("looks,like,text\n"), 5)
	require.NoError(t, err)
	assert.Equal(t, ClassBinary, res.Class)
	assert.Empty(t, res.Ranked)
	assert.Empty(t, res.Preview)
}

func TestDetector_EmptyInput(t *testing.T) {
	d := NewDetector(Options{NoHint: true})

	res, _, err := d.Detect("empty.txt", nil, 5)
	require.NoError(t, err)
	assert.Equal(t, ClassText, res.Class)
	assert.Equal(t, NameUTF8, res.Winner.Name)
	assert.Empty(t, res.Preview)
}

func TestDetector_ThresholdMode(t *testing.T) {
	w := DefaultWeights()
	d := NewDetector(Options{
		NoHint:   true,
		Weights:  &w,
		Selector: Selector{Mode: ModeThreshold, Threshold: 0.995},
	})

	_, decision, err := d.Detect("people.csv", sjis(t, japaneseText), 0)
	require.NoError(t, err)
	assert.Equal(t, NeedsConfirmation, decision, "unmarked scores are capped below 0.995")
}

func TestRegistry_Lookup(t *testing.T) {
	for label, want := range map[string]string{
		"Shift_JIS":    NameShiftJIS,
		"cp932":        NameShiftJIS,
		"EUC-JP":       NameEUCJP,
		"ISO-2022-JP":  NameISO2022JP,
		"UTF-8":        NameUTF8,
		"utf8bom":      NameUTF8BOM,
		"ISO-8859-1":   NameWindows1252,
		"windows-1252": NameWindows1252,
		" UTF-16LE ":   NameUTF16LE,
	} {
		s, err := DefaultRegistry.Lookup(label)
		require.NoError(t, err, label)
		assert.Equal(t, want, s.Candidate().Name, label)
	}

	_, err := DefaultRegistry.Lookup("klingon")
	assert.Error(t, err)
}

func TestRegistry_RankOrder(t *testing.T) {
	assert.Equal(t, []string{
		NameUTF8BOM, NameUTF8, NameUTF16LEBOM, NameUTF16LE, NameUTF16BEBOM,
		NameUTF16BE, NameShiftJIS, NameEUCJP, NameISO2022JP, NameWindows1252,
	}, DefaultRegistry.Names())
}

func TestSupportedEncodings(t *testing.T) {
	names := make([]string, 0)
	for _, c := range SupportedEncodings() {
		names = append(names, c.Name)
	}
	assert.Equal(t, []string{
		NameUTF8BOM, NameUTF8, NameUTF16LE, NameUTF16BE,
		NameShiftJIS, NameEUCJP, NameISO2022JP, NameWindows1252,
	}, names)
}

func TestDecodeAll_LargeInput(t *testing.T) {
	var big []byte
	for len(big) < 3*decodeChunk {
		big = append(big, sjis(t, japaneseText)...)
	}

	s, err := DefaultRegistry.Get(NameShiftJIS)
	require.NoError(t, err)
	dec := s.Decode(big)
	assert.False(t, dec.Truncated)
	assert.Contains(t, string(dec.Text), "東京都千代田区")
}
