package detect

import "github.com/encodingman/encodingman/internal/lines"

// DefaultPreviewLines is the number of lines shown for a preview.
const DefaultPreviewLines = 10

// PreviewLines returns the first n lines of decoded text.
func PreviewLines(text []byte, n int) []string {
	return lines.Head(text, n)
}
