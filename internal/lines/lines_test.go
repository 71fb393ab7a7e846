package lines

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuffer_Next(t *testing.T) {
	buf := New([]byte("a,b\r\nc\nlast"))

	assert.Equal(t, "a,b", string(buf.Next()))
	assert.Equal(t, "c", string(buf.Next()))
	assert.True(t, buf.HasMore())
	assert.Equal(t, "last", string(buf.Next()))
	assert.False(t, buf.HasMore())
	assert.Nil(t, buf.Next())
}

func TestHead(t *testing.T) {
	tests := []struct {
		name string
		data string
		n    int
		want []string
	}{
		{"empty", "", 3, nil},
		{"zero lines", "a\nb", 0, nil},
		{"fewer than n", "a\nb\n", 5, []string{"a", "b"}},
		{"truncated", "1\n2\n3\n4", 2, []string{"1", "2"}},
		{"crlf", "x\r\ny\r\n", 2, []string{"x", "y"}},
		{"blank line kept", "x\n\ny", 3, []string{"x", "", "y"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Head([]byte(tt.data), tt.n))
		})
	}
}
