// Package detect classifies files as text or binary and resolves the
// character encoding of text files by scoring every plausible candidate.
package detect

// DefaultSampleSize is the number of leading bytes the classifier inspects.
const DefaultSampleSize = 8 * 1024 // 8KB

// Sample is an immutable view of a file's bytes.
type Sample []byte

// Prefix returns at most n leading bytes.
func (s Sample) Prefix(n int) []byte {
	if n <= 0 || n >= len(s) {
		return s
	}
	return s[:n]
}

// FileClass is the coarse text/binary verdict.
type FileClass uint8

const (
	ClassText FileClass = iota
	ClassBinary
)

func (c FileClass) String() string {
	switch c {
	case ClassText:
		return "text"
	case ClassBinary:
		return "binary"
	default:
		return "unknown"
	}
}

// Canonical candidate names.
const (
	NameUTF8BOM     = "utf-8-bom"
	NameUTF8        = "utf-8"
	NameUTF16LEBOM  = "utf-16le-bom"
	NameUTF16BEBOM  = "utf-16be-bom"
	NameUTF16LE     = "utf-16le"
	NameUTF16BE     = "utf-16be"
	NameShiftJIS    = "shift_jis"
	NameEUCJP       = "euc-jp"
	NameISO2022JP   = "iso-2022-jp"
	NameWindows1252 = "windows-1252"
)

// Candidate identifies an encoding under consideration.
type Candidate struct {
	Name   string // canonical name, e.g. "shift_jis"
	Label  string // display label, e.g. "Shift_JIS"
	Rank   int    // lower wins ties
	Marked bool   // identified by a byte-order mark
}

func (c Candidate) String() string {
	return c.Name
}

// ScoredCandidate is a candidate after a decode attempt.
type ScoredCandidate struct {
	Candidate
	Confidence   float64
	Decoded      bool // decoded structurally with tolerable replacements
	Truncated    bool // ended in an incomplete sequence
	Replacements int
	Runes        int
	Script       float64 // weighted in-script density of non-ASCII runes
}

// Result is the outcome of detection for one file.
type Result struct {
	Path    string
	Class   FileClass
	Winner  ScoredCandidate
	Ranked  []ScoredCandidate
	Preview []string
}

// Decision says whether the winner may be used without confirmation.
type Decision uint8

const (
	AutoConvert Decision = iota
	NeedsConfirmation
)

func (d Decision) String() string {
	if d == NeedsConfirmation {
		return "needs_confirmation"
	}
	return "auto_convert"
}
