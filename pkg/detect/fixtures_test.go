package detect

import (
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/encoding/unicode"
)

const japaneseText = "名前,住所,電話番号\r\n" +
	"山田太郎,東京都千代田区,03-1234-5678\r\n" +
	"佐藤花子,大阪府大阪市北区,06-9876-5432\r\n" +
	"これは日本語のテキストです。カタカナもひらがなも含みます。\r\n"

const latinText = "Café crème brûlée, naïve façade.\r\n" +
	"Über die Straße gehen wir à la carte.\r\n" +
	"Señor Muñoz ordered a piña colada.\r\n"

func encodeWith(t *testing.T, enc encoding.Encoding, s string) []byte {
	t.Helper()
	b, err := enc.NewEncoder().Bytes([]byte(s))
	require.NoError(t, err)
	return b
}

func sjis(t *testing.T, s string) []byte { return encodeWith(t, japanese.ShiftJIS, s) }
func eucjp(t *testing.T, s string) []byte { return encodeWith(t, japanese.EUCJP, s) }
func iso2022(t *testing.T, s string) []byte { return encodeWith(t, japanese.ISO2022JP, s) }
func cp1252(t *testing.T, s string) []byte { return encodeWith(t, charmap.Windows1252, s) }

func utf16le(t *testing.T, s string, bom bool) []byte {
	policy := unicode.IgnoreBOM
	if bom {
		policy = unicode.UseBOM
	}
	return encodeWith(t, unicode.UTF16(unicode.LittleEndian, policy), s)
}

func withUTF8BOM(s string) []byte {
	return append([]byte{0xEF, 0xBB, 0xBF}, s...)
}
