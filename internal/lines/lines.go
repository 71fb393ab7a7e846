// Package lines provides allocation-free line splitting over decoded text.
package lines

// Buffer walks a byte slice line by line without copying.
type Buffer struct {
	data   []byte
	pos    int
	length int
}

// New creates a line buffer wrapping the given byte slice.
func New(data []byte) *Buffer {
	return &Buffer{
		data:   data,
		length: len(data),
	}
}

// Reset resets the line buffer with new data.
func (b *Buffer) Reset(data []byte) {
	b.data = data
	b.pos = 0
	b.length = len(data)
}

// Next returns the next line without its terminator. A trailing "\r" before
// "\n" is dropped; a lone "\r" is kept as content.
// Returns nil when EOF is reached.
func (b *Buffer) Next() []byte {
	if b.pos >= b.length {
		return nil
	}

	start := b.pos
	for b.pos < b.length {
		if b.data[b.pos] == '\n' {
			line := b.data[start:b.pos]
			b.pos++
			if len(line) > 0 && line[len(line)-1] == '\r' {
				line = line[:len(line)-1]
			}
			return line
		}
		b.pos++
	}

	// Last line without newline
	return b.data[start:b.length]
}

// HasMore returns true if there's more data to read.
func (b *Buffer) HasMore() bool {
	return b.pos < b.length
}

// Head returns up to n leading lines of data as strings.
func Head(data []byte, n int) []string {
	if n <= 0 || len(data) == 0 {
		return nil
	}
	out := make([]string, 0, n)
	buf := New(data)
	for len(out) < n && buf.HasMore() {
		out = append(out, string(buf.Next()))
	}
	return out
}
