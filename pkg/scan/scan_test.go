package scan

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tree(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	for _, rel := range []string{
		"b.csv", "a.TXT", "c.xlsx", ".hidden.csv",
		"sub/d.csv", "sub/deeper/e.tsv", ".git/f.csv",
	} {
		p := filepath.Join(root, rel)
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte("x"), 0o644))
	}
	return root
}

func TestNew_NormalizesExtensions(t *testing.T) {
	s := New([]string{"CSV", " .tsv", ""}, false)
	assert.Equal(t, []string{".csv", ".tsv"}, s.Extensions)
	assert.True(t, s.Matches("x.Csv"))
	assert.False(t, s.Matches("x.xlsx"))
	assert.True(t, New(nil, false).Matches("anything"))
}

func TestExpand(t *testing.T) {
	root := tree(t)
	j := func(rel string) string { return filepath.Join(root, rel) }

	tests := []struct {
		name      string
		recursive bool
		paths     []string
		want      []string
	}{
		{
			name:  "flat directory",
			paths: []string{root},
			want:  []string{j("a.TXT"), j("b.csv")},
		},
		{
			name:      "recursive",
			recursive: true,
			paths:     []string{root},
			want:      []string{j("a.TXT"), j("b.csv"), j("sub/d.csv"), j("sub/deeper/e.tsv")},
		},
		{
			name:  "explicit files pass through",
			paths: []string{j("c.xlsx"), j("missing.csv"), j("b.csv")},
			want:  []string{j("c.xlsx"), j("missing.csv"), j("b.csv")},
		},
		{
			name:  "duplicates dropped",
			paths: []string{j("b.csv"), root},
			want:  []string{j("b.csv"), j("a.TXT")},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := New([]string{".csv", ".tsv", ".txt"}, tt.recursive)
			got, err := s.Expand(tt.paths)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
