package fetcher

import (
	"bytes"
	"unicode/utf8"

	"github.com/rotisserie/eris"
	"golang.org/x/text/encoding/korean"
	"golang.org/x/text/transform"
)

// Encoding names reported by DecodeText.
const (
	EncodingUTF8  = "utf-8"
	EncodingCP949 = "cp949"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// DecodeText converts raw file bytes to a UTF-8 string. A UTF-8 byte order
// mark is stripped. Input that is not valid UTF-8 is decoded as CP949
// (the EUC-KR superset used by Korean statistics exports).
func DecodeText(data []byte) (string, string, error) {
	data = bytes.TrimPrefix(data, utf8BOM)
	if utf8.Valid(data) {
		return string(data), EncodingUTF8, nil
	}

	out, _, err := transform.Bytes(korean.EUCKR.NewDecoder(), data)
	if err != nil {
		return "", "", eris.Wrap(err, "decode: not utf-8 or cp949")
	}
	if bytes.ContainsRune(out, utf8.RuneError) {
		return "", "", eris.New("decode: not utf-8 or cp949")
	}
	return string(out), EncodingCP949, nil
}
