package detect

import (
	"bytes"
	"path/filepath"
	"strings"
	"unicode/utf8"
)

// BinaryThreshold is the suspicious-byte ratio above which a sample is binary.
const BinaryThreshold = 0.30

// Byte-order marks.
var (
	bomUTF8    = []byte{0xEF, 0xBB, 0xBF}
	bomUTF16LE = []byte{0xFF, 0xFE}
	bomUTF16BE = []byte{0xFE, 0xFF}
)

// containerExtensions are office and page-description formats that are
// never treated as text, whatever their bytes look like.
var containerExtensions = map[string]struct{}{
	".xlsx": {}, ".xlsm": {}, ".xltx": {}, ".xls": {}, ".xlsb": {}, ".ods": {},
	".docx": {}, ".docm": {}, ".doc": {}, ".odt": {},
	".pptx": {}, ".pptm": {}, ".ppt": {}, ".odp": {},
	".pdf": {}, ".xps": {}, ".oxps": {}, ".ps": {}, ".eps": {},
}

// IsContainerExtension reports whether path names an office or
// page-description container.
func IsContainerExtension(path string) bool {
	_, ok := containerExtensions[strings.ToLower(filepath.Ext(path))]
	return ok
}

// ClassifyPath applies the extension rule, then classifies the sample.
func ClassifyPath(path string, sample []byte) FileClass {
	if IsContainerExtension(path) {
		return ClassBinary
	}
	return Classify(sample)
}

// Classify decides whether a byte sample is text or binary.
// Only the first DefaultSampleSize bytes are inspected. Never fails.
func Classify(sample []byte) FileClass {
	if len(sample) == 0 {
		return ClassText
	}
	sample = Sample(sample).Prefix(DefaultSampleSize)

	if hasMark(sample) {
		return ClassText
	}
	if hasContainerMagic(sample) {
		return ClassBinary
	}
	if bytes.IndexByte(sample, 0x00) >= 0 {
		return ClassBinary
	}

	ratio := float64(countSuspicious(sample)) / float64(len(sample))
	if ratio > BinaryThreshold {
		return ClassBinary
	}
	return ClassText
}

func hasMark(sample []byte) bool {
	return bytes.HasPrefix(sample, bomUTF8) ||
		bytes.HasPrefix(sample, bomUTF16LE) ||
		bytes.HasPrefix(sample, bomUTF16BE)
}

// hasContainerMagic checks the magic numbers of zip, OLE2, PDF and gzip.
func hasContainerMagic(sample []byte) bool {
	if len(sample) < 4 {
		return false
	}
	// Zip (OOXML, ODF): PK\x03\x04
	if bytes.HasPrefix(sample, []byte("PK\x03\x04")) {
		return true
	}
	// OLE2 compound document (legacy Office): D0 CF 11 E0
	if bytes.HasPrefix(sample, []byte{0xD0, 0xCF, 0x11, 0xE0}) {
		return true
	}
	// PDF
	if bytes.HasPrefix(sample, []byte("%PDF-")) {
		return true
	}
	// Gzip: 1f 8b
	return sample[0] == 0x1f && sample[1] == 0x8b
}

// countSuspicious counts bytes that no supported text encoding explains.
func countSuspicious(sample []byte) int {
	suspicious := 0
	for i := 0; i < len(sample); {
		b := sample[i]
		if b < utf8.RuneSelf {
			if !isTextByte(b) {
				suspicious++
			}
			i++
			continue
		}
		if n := explainedRun(sample[i:]); n > 0 {
			i += n
			continue
		}
		suspicious++
		i++
	}
	return suspicious
}

// isTextByte reports whether an ASCII byte is printable or common whitespace.
// ESC is allowed for ISO-2022-JP and SUB for DOS end-of-file markers.
func isTextByte(b byte) bool {
	switch {
	case b >= 0x20 && b < 0x7F:
		return true
	case b == '\t', b == '\n', b == '\v', b == '\f', b == '\r', b == 0x1B, b == 0x1A:
		return true
	}
	return false
}

// explainedRun returns the length of the multi-byte or high-byte sequence at
// the start of p when some candidate encoding accounts for it, or 0.
// A sequence cut short by the end of p counts as explained.
func explainedRun(p []byte) int {
	// UTF-8
	if r, size := utf8.DecodeRune(p); r != utf8.RuneError || size > 1 {
		return size
	}
	if !utf8.FullRune(p) {
		return len(p)
	}

	b := p[0]
	// Shift_JIS double-byte
	if isSJISLead(b) {
		if len(p) < 2 {
			return 1
		}
		if isSJISTrail(p[1]) {
			return 2
		}
	}
	// EUC-JP double-byte and SS2 half-width kana
	if len(p) >= 2 {
		if b >= 0xA1 && b <= 0xFE && p[1] >= 0xA1 && p[1] <= 0xFE {
			return 2
		}
		if b == 0x8E && p[1] >= 0xA1 && p[1] <= 0xDF {
			return 2
		}
	}
	// Shift_JIS half-width katakana
	if b >= 0xA1 && b <= 0xDF {
		return 1
	}
	// Latin letters in a single-byte Western code page
	if b >= 0xC0 {
		return 1
	}
	return 0
}

func isSJISLead(b byte) bool {
	return (b >= 0x81 && b <= 0x9F) || (b >= 0xE0 && b <= 0xFC)
}

func isSJISTrail(b byte) bool {
	return (b >= 0x40 && b <= 0x7E) || (b >= 0x80 && b <= 0xFC)
}
