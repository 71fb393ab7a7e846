package detect

import (
	"bytes"
	"unicode"
	"unicode/utf8"
)

// scriptTable weighs a non-ASCII rune by how plausible it is for an encoding.
type scriptTable func(r rune, w Weights) float64

// japaneseScript favours kana, kanji and full-width forms.
func japaneseScript(r rune, w Weights) float64 {
	switch {
	case r >= 0x3040 && r <= 0x30FF: // hiragana, katakana
		return 1
	case r >= 0x4E00 && r <= 0x9FFF: // CJK unified ideographs
		return 1
	case r >= 0x3400 && r <= 0x4DBF: // CJK extension A
		return 1
	case r >= 0xF900 && r <= 0xFAFF: // CJK compatibility ideographs
		return 1
	case r >= 0x3000 && r <= 0x303F: // CJK symbols and punctuation
		return 1
	case r >= 0xFF01 && r <= 0xFF60, r >= 0xFFE0 && r <= 0xFFEF: // full-width forms
		return 1
	case r >= 0xFF61 && r <= 0xFF9F: // half-width katakana
		return w.HalfwidthWeight
	case r >= 0x2010 && r <= 0x266F, r >= 0x0391 && r <= 0x0451:
		// JIS X 0208 row 1-8 symbols, Greek and Cyrillic
		return w.HalfwidthWeight
	case r == 0x00A7, r == 0x00A8, r == 0x00B0, r == 0x00B1, r == 0x00B4, r == 0x00B6, r == 0x00D7, r == 0x00F7:
		return w.HalfwidthWeight
	}
	return 0
}

// unicodeScript accepts any graphic, non-private rune.
func unicodeScript(r rune, _ Weights) float64 {
	if r == 0xFEFF {
		return 1
	}
	if unicode.IsGraphic(r) && !unicode.Is(unicode.Co, r) {
		return 1
	}
	return 0
}

// latinScript favours Latin letters and Western typographic marks.
func latinScript(r rune, w Weights) float64 {
	switch {
	case r <= 0x024F && unicode.IsLetter(r):
		return 1
	case r >= 0x00A0 && r <= 0x00BF, r == 0x00D7, r == 0x00F7:
		return w.HalfwidthWeight
	}
	switch r {
	case 0x20AC, 0x201A, 0x201E, 0x2026, 0x2020, 0x2021, 0x02C6, 0x2030,
		0x2039, 0x2018, 0x2019, 0x201C, 0x201D, 0x2022, 0x2013, 0x2014,
		0x02DC, 0x2122, 0x203A:
		return 1
	}
	return 0
}

// textStats summarises decoded text for scoring.
type textStats struct {
	runes        int
	replacements int
	nonASCII     int
	controls     int
	script       float64
}

// measure walks decoded UTF-8 text and tallies what the scorer needs.
func measure(text []byte, table scriptTable, w Weights) textStats {
	var st textStats
	for len(text) > 0 {
		if n := designatorLen(text); n > 0 {
			// a decoder that leaves ISO-2022 escapes in its output misread them
			text = text[n:]
			st.runes++
			st.replacements++
			st.nonASCII++
			continue
		}

		r, size := utf8.DecodeRune(text)
		text = text[size:]
		st.runes++

		if r == utf8.RuneError {
			st.replacements++
			st.nonASCII++
			continue
		}
		if r < utf8.RuneSelf {
			if isControlRune(r) {
				st.controls++
			}
			continue
		}
		st.nonASCII++
		if isControlRune(r) || unicode.Is(unicode.Co, r) {
			st.controls++
			continue
		}
		st.script += table(r, w)
	}
	return st
}

// iso2022Designators are the ISO-2022-JP charset designation sequences.
var iso2022Designators = [][]byte{
	[]byte("\x1b$(D"),
	[]byte("\x1b$@"),
	[]byte("\x1b$B"),
	[]byte("\x1b(B"),
	[]byte("\x1b(J"),
	[]byte("\x1b(I"),
}

// designatorLen returns the length of the designation sequence text starts
// with, or 0.
func designatorLen(text []byte) int {
	if len(text) == 0 || text[0] != 0x1b {
		return 0
	}
	for _, d := range iso2022Designators {
		if bytes.HasPrefix(text, d) {
			return len(d)
		}
	}
	return 0
}

// isControlRune reports C0/C1 controls other than common whitespace.
func isControlRune(r rune) bool {
	switch r {
	case '\t', '\n', '\v', '\f', '\r':
		return false
	}
	return r < 0x20 || (r >= 0x7F && r <= 0x9F)
}
