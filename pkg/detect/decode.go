package detect

import (
	"errors"

	"golang.org/x/text/transform"
)

// Decoding is the UTF-8 text produced by a decoder. Invalid input appears as
// U+FFFD. Truncated reports an incomplete sequence at the end of the input.
type Decoding struct {
	Text      []byte
	Truncated bool
}

const decodeChunk = 32 * 1024

// decodeAll drives t over src without signalling EOF, so that a decoder left
// waiting for more bytes exposes a truncated trailing sequence. The tail is
// then flushed with atEOF set.
func decodeAll(t transform.Transformer, src []byte) Decoding {
	t.Reset()
	out := make([]byte, 0, len(src)+len(src)/2)
	buf := make([]byte, decodeChunk)

	for len(src) > 0 {
		nDst, nSrc, err := t.Transform(buf, src, false)
		out = append(out, buf[:nDst]...)
		src = src[nSrc:]

		switch {
		case err == nil:
			if nSrc == 0 && nDst == 0 {
				return Decoding{Text: out}
			}
		case errors.Is(err, transform.ErrShortDst):
			if nSrc == 0 && nDst == 0 {
				buf = make([]byte, 2*len(buf))
			}
		case errors.Is(err, transform.ErrShortSrc):
			if nSrc == 0 {
				return Decoding{Text: flush(t, out, src), Truncated: true}
			}
		default:
			return Decoding{Text: flush(t, out, src), Truncated: true}
		}
	}
	return Decoding{Text: out}
}

// flush decodes the remaining tail with atEOF set.
func flush(t transform.Transformer, out, tail []byte) []byte {
	if len(tail) == 0 {
		return out
	}
	buf := make([]byte, 4*len(tail)+16)
	nDst, _, _ := t.Transform(buf, tail, true)
	return append(out, buf[:nDst]...)
}
