package convert

import (
	"bytes"
	"unicode/utf8"

	"golang.org/x/text/encoding/japanese"

	"github.com/encodingman/encodingman/pkg/detect"
	"github.com/encodingman/encodingman/pkg/errors"
)

// Substitute replaces runes the target encoding cannot represent.
const Substitute = '?'

var utf8Mark = []byte{0xEF, 0xBB, 0xBF}

// Decoder decodes bytes as a detected candidate.
type Decoder interface {
	Decode(data []byte, c detect.Candidate) (detect.Decoding, error)
}

// Result is the in-memory product of a conversion.
type Result struct {
	Data     []byte
	Source   detect.Candidate
	Target   Target
	Changed  bool // Data differs from the input bytes
	Lossy    int  // runes replaced by Substitute
	Replaced int  // U+FFFD produced while decoding the source
}

// Converter re-encodes text. It holds no per-file state.
type Converter struct {
	decoder Decoder
}

// New creates a converter. A nil decoder uses the default registry.
func New(decoder Decoder) *Converter {
	if decoder == nil {
		decoder = detect.DefaultRegistry
	}
	return &Converter{decoder: decoder}
}

// Convert decodes data as source and re-encodes it as target. Line endings
// and content are preserved; only the byte encoding changes.
func (c *Converter) Convert(data []byte, source detect.Candidate, target Target) (*Result, error) {
	if _, err := ParseTarget(string(target)); err != nil {
		return nil, err
	}

	dec, err := c.decoder.Decode(data, source)
	if err != nil {
		return nil, err
	}
	if dec.Truncated {
		return nil, errors.DecodeFailure(source.Name)
	}

	// A byte-order mark is never content.
	text := bytes.TrimPrefix(dec.Text, utf8Mark)

	res := &Result{
		Source:   source,
		Target:   target,
		Replaced: bytes.Count(text, []byte(string(utf8.RuneError))),
	}

	switch target {
	case TargetUTF8BOM:
		out := make([]byte, 0, len(utf8Mark)+len(text))
		out = append(out, utf8Mark...)
		res.Data = append(out, text...)
	case TargetUTF8:
		res.Data = text
	case TargetShiftJIS:
		res.Data, res.Lossy = encodeShiftJIS(text)
	}
	res.Changed = !bytes.Equal(res.Data, data)
	return res, nil
}

// encodeShiftJIS encodes UTF-8 text rune by rune so that unrepresentable
// runes are substituted and counted instead of aborting the conversion.
func encodeShiftJIS(text []byte) ([]byte, int) {
	enc := japanese.ShiftJIS.NewEncoder()
	out := make([]byte, 0, len(text))
	lossy := 0

	for len(text) > 0 {
		r, size := utf8.DecodeRune(text)
		chunk := text[:size]
		text = text[size:]

		if r < utf8.RuneSelf {
			out = append(out, byte(r))
			continue
		}
		if r == utf8.RuneError {
			out = append(out, Substitute)
			lossy++
			continue
		}
		b, err := enc.Bytes(chunk)
		if err != nil {
			out = append(out, Substitute)
			lossy++
			continue
		}
		out = append(out, b...)
	}
	return out, lossy
}
