package convert

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/japanese"

	"github.com/encodingman/encodingman/pkg/detect"
	"github.com/encodingman/encodingman/pkg/errors"
)

const sample = "名前,年齢\r\n山田太郎,42\r\n"

func candidate(t *testing.T, name string) detect.Candidate {
	t.Helper()
	s, err := detect.DefaultRegistry.Get(name)
	require.NoError(t, err)
	return s.Candidate()
}

func sjisBytes(t *testing.T, s string) []byte {
	t.Helper()
	b, err := japanese.ShiftJIS.NewEncoder().Bytes([]byte(s))
	require.NoError(t, err)
	return b
}

func TestParseTarget(t *testing.T) {
	tests := []struct {
		in   string
		want Target
	}{
		{"", TargetUTF8BOM},
		{"UTF-8-BOM", TargetUTF8BOM},
		{"utf8", TargetUTF8},
		{"Shift_JIS", TargetShiftJIS},
		{"cp932", TargetShiftJIS},
	}
	for _, tt := range tests {
		got, err := ParseTarget(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}

	_, err := ParseTarget("euc-jp")
	require.Error(t, err)
	assert.Equal(t, errors.CodeUnsupportedTarget, errors.CodeOf(err))
}

func TestConvert_ShiftJISToUTF8BOM(t *testing.T) {
	c := New(nil)
	in := sjisBytes(t, sample)

	res, err := c.Convert(in, candidate(t, detect.NameShiftJIS), TargetUTF8BOM)
	require.NoError(t, err)
	assert.Equal(t, append([]byte{0xEF, 0xBB, 0xBF}, sample...), res.Data)
	assert.True(t, res.Changed)
	assert.Zero(t, res.Lossy)
}

func TestConvert_PreservesLineEndings(t *testing.T) {
	c := New(nil)
	in := sjisBytes(t, "a\r\nb\nc\rd")

	res, err := c.Convert(in, candidate(t, detect.NameShiftJIS), TargetUTF8)
	require.NoError(t, err)
	assert.Equal(t, "a\r\nb\nc\rd", string(res.Data))
	assert.False(t, res.Changed, "ascii bytes are identical in both encodings")
}

func TestConvert_StripsSourceMark(t *testing.T) {
	c := New(nil)
	in := append([]byte{0xEF, 0xBB, 0xBF}, sample...)

	res, err := c.Convert(in, candidate(t, detect.NameUTF8BOM), TargetUTF8)
	require.NoError(t, err)
	assert.Equal(t, sample, string(res.Data))
	assert.True(t, res.Changed)

	// an unmarked source choice still drops the mark, so no double mark
	res, err = c.Convert(in, candidate(t, detect.NameUTF8), TargetUTF8BOM)
	require.NoError(t, err)
	assert.Equal(t, in, res.Data)
	assert.False(t, res.Changed)
}

func TestConvert_ToShiftJISIsLossy(t *testing.T) {
	c := New(nil)
	in := []byte("price: 5€ 😀 テスト\n")

	res, err := c.Convert(in, candidate(t, detect.NameUTF8), TargetShiftJIS)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Lossy)

	back, err := japanese.ShiftJIS.NewDecoder().Bytes(res.Data)
	require.NoError(t, err)
	assert.Equal(t, "price: 5? ? テスト\n", string(back))
}

func TestConvert_RoundTripShiftJIS(t *testing.T) {
	c := New(nil)
	in := sjisBytes(t, sample+"ｶﾀｶﾅ\n")

	res, err := c.Convert(in, candidate(t, detect.NameShiftJIS), TargetShiftJIS)
	require.NoError(t, err)
	assert.Equal(t, in, res.Data)
	assert.False(t, res.Changed)
}

func TestConvert_TruncatedSource(t *testing.T) {
	c := New(nil)
	in := append(sjisBytes(t, sample), 0x82)

	_, err := c.Convert(in, candidate(t, detect.NameShiftJIS), TargetUTF8)
	require.Error(t, err)
	assert.Equal(t, errors.CodeDecodeFailure, errors.CodeOf(err))
}

func TestConvert_UnsupportedTarget(t *testing.T) {
	_, err := New(nil).Convert([]byte("x"), candidate(t, detect.NameUTF8), Target("euc-jp"))
	assert.True(t, errors.HasCode(err, errors.CodeUnsupportedTarget))
}

func TestTarget_Matches(t *testing.T) {
	assert.True(t, TargetShiftJIS.Matches(candidate(t, detect.NameShiftJIS)))
	assert.True(t, TargetUTF8BOM.Matches(candidate(t, detect.NameUTF8BOM)))
	assert.False(t, TargetUTF8BOM.Matches(candidate(t, detect.NameUTF8)))
	assert.Equal(t, detect.NameShiftJIS, TargetShiftJIS.Candidate().Name)
}

func TestWriteFile(t *testing.T) {
	dir := t.TempDir()
	original := filepath.Join(dir, "in.csv")
	require.NoError(t, os.WriteFile(original, []byte("orig"), 0o644))

	out := filepath.Join(dir, "out", "in_utf8.csv")
	require.NoError(t, WriteFile(original, out, []byte("new")))
	got, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "new", string(got))

	// never overwrites an existing file
	err = WriteFile(original, out, []byte("again"))
	assert.True(t, errors.HasCode(err, errors.CodeUnwritableOutput))

	// never writes to the original, even through a relative spelling
	err = WriteFile(original, filepath.Join(dir, "out", "..", "in.csv"), []byte("x"))
	assert.True(t, errors.HasCode(err, errors.CodeUnwritableOutput))

	data, err := os.ReadFile(original)
	require.NoError(t, err)
	assert.Equal(t, "orig", string(data))
}
