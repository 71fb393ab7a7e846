package detect

import (
	"bytes"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/encoding/unicode"
)

// Strategy decodes and scores one candidate encoding.
type Strategy interface {
	// Candidate describes the encoding.
	Candidate() Candidate
	// Fallback reports a single-byte strategy that decodes anything.
	Fallback() bool
	// Applies reports whether the candidate should be proposed for data.
	Applies(data []byte) bool
	// Decode converts data to UTF-8, stripping the mark of a marked candidate.
	Decode(data []byte) Decoding
	// Attempt decodes data and scores the result.
	Attempt(data []byte, w Weights) ScoredCandidate
}

// codec is a Strategy backed by an x/text encoding.
type codec struct {
	candidate Candidate
	enc       encoding.Encoding
	mark      []byte
	script    scriptTable
	fallback  bool
	discount  func(w Weights) float64
}

func (c *codec) Candidate() Candidate { return c.candidate }

func (c *codec) Fallback() bool { return c.fallback }

func (c *codec) Applies(data []byte) bool {
	return c.mark == nil || bytes.HasPrefix(data, c.mark)
}

func (c *codec) Decode(data []byte) Decoding {
	if c.mark != nil {
		data = bytes.TrimPrefix(data, c.mark)
	}
	return decodeAll(c.enc.NewDecoder(), data)
}

func (c *codec) Attempt(data []byte, w Weights) ScoredCandidate {
	sc := ScoredCandidate{Candidate: c.candidate}

	dec := c.Decode(data)
	if dec.Truncated {
		sc.Truncated = true
		return sc
	}

	st := measure(dec.Text, c.script, w)
	sc.Runes = st.runes
	sc.Replacements = st.replacements
	if st.nonASCII > 0 {
		sc.Script = st.script / float64(st.nonASCII)
	} else {
		sc.Script = 1
	}
	sc.Decoded = w.decoded(st)

	if c.candidate.Marked && st.replacements == 0 {
		sc.Confidence = 1
		return sc
	}

	conf := w.confidence(st)
	if c.discount != nil {
		conf *= c.discount(w)
	}
	sc.Confidence = conf
	return sc
}

func utf16Discount(w Weights) float64 { return w.UnmarkedUTF16Discount }

// Builtin returns the built-in strategies in rank order.
func Builtin() []Strategy {
	utf16le := unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM)
	utf16be := unicode.UTF16(unicode.BigEndian, unicode.IgnoreBOM)

	return []Strategy{
		&codec{
			candidate: Candidate{Name: NameUTF8BOM, Label: "UTF-8 (BOM)", Rank: 0, Marked: true},
			enc:       unicode.UTF8,
			mark:      bomUTF8,
			script:    unicodeScript,
		},
		&codec{
			candidate: Candidate{Name: NameUTF8, Label: "UTF-8", Rank: 1},
			enc:       unicode.UTF8,
			script:    unicodeScript,
		},
		&codec{
			candidate: Candidate{Name: NameUTF16LEBOM, Label: "UTF-16LE (BOM)", Rank: 2, Marked: true},
			enc:       utf16le,
			mark:      bomUTF16LE,
			script:    unicodeScript,
		},
		&codec{
			candidate: Candidate{Name: NameUTF16LE, Label: "UTF-16LE", Rank: 3},
			enc:       utf16le,
			script:    unicodeScript,
			discount:  utf16Discount,
		},
		&codec{
			candidate: Candidate{Name: NameUTF16BEBOM, Label: "UTF-16BE (BOM)", Rank: 4, Marked: true},
			enc:       utf16be,
			mark:      bomUTF16BE,
			script:    unicodeScript,
		},
		&codec{
			candidate: Candidate{Name: NameUTF16BE, Label: "UTF-16BE", Rank: 5},
			enc:       utf16be,
			script:    unicodeScript,
			discount:  utf16Discount,
		},
		&codec{
			candidate: Candidate{Name: NameShiftJIS, Label: "Shift_JIS", Rank: 6},
			enc:       japanese.ShiftJIS,
			script:    japaneseScript,
		},
		&codec{
			candidate: Candidate{Name: NameEUCJP, Label: "EUC-JP", Rank: 7},
			enc:       japanese.EUCJP,
			script:    japaneseScript,
		},
		&codec{
			candidate: Candidate{Name: NameISO2022JP, Label: "ISO-2022-JP", Rank: 8},
			enc:       japanese.ISO2022JP,
			script:    japaneseScript,
		},
		&codec{
			candidate: Candidate{Name: NameWindows1252, Label: "windows-1252", Rank: 9},
			enc:       charmap.Windows1252,
			script:    latinScript,
			fallback:  true,
		},
	}
}

// builtinAliases maps alternative labels, including the charset names the
// statistical detector reports, to canonical names.
var builtinAliases = map[string][]string{
	NameUTF8BOM:     {"utf8bom", "utf-8-sig", "utf8-bom"},
	NameUTF8:        {"utf8", "ascii", "us-ascii"},
	NameUTF16LEBOM:  {"utf-16-bom"},
	NameUTF16LE:     {"utf16le", "utf-16"},
	NameUTF16BE:     {"utf16be"},
	NameShiftJIS:    {"shift-jis", "sjis", "cp932", "ms932", "windows-31j", "x-sjis"},
	NameEUCJP:       {"eucjp", "euc_jp", "x-euc-jp"},
	NameISO2022JP:   {"iso2022jp", "jis", "csiso2022jp"},
	NameWindows1252: {"cp1252", "latin1", "latin-1", "iso-8859-1", "iso8859-1"},
}
