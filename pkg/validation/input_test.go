package validation

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/encodingman/encodingman/pkg/errors"
)

func TestValidateFilePath(t *testing.T) {
	_, err := ValidateFilePath("")
	assert.Error(t, err)

	abs, err := ValidateFilePath("data/../data/file.csv")
	require.NoError(t, err)
	assert.True(t, filepath.IsAbs(abs))
	assert.Equal(t, "file.csv", filepath.Base(abs))
}

func TestReadSource(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "in.csv")
	require.NoError(t, os.WriteFile(path, []byte("a,b\n"), 0o644))

	data, err := ReadSource(path)
	require.NoError(t, err)
	assert.Equal(t, "a,b\n", string(data))

	_, err = ReadSource(filepath.Join(dir, "missing.csv"))
	assert.Equal(t, errors.CodeUnreadableSource, errors.CodeOf(err))

	_, err = ReadSource(dir)
	assert.Equal(t, errors.CodeUnreadableSource, errors.CodeOf(err))
}

func TestValidateOutputDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "a", "b")
	require.NoError(t, ValidateOutputDir(dir))

	file := filepath.Join(dir, "f")
	require.NoError(t, os.WriteFile(file, nil, 0o644))
	assert.Error(t, ValidateOutputDir(file))
}
