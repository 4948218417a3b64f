package extraction

import (
	"bytes"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// decodeText never fails: bytes that are not UTF-8 are read as Latin-1, where every byte is a rune.
func decodeText(raw []byte) (string, string) {
	raw = bytes.TrimPrefix(raw, utf8BOM)
	if utf8.Valid(raw) {
		return string(raw), "utf-8"
	}
	decoded, err := charmap.ISO8859_1.NewDecoder().Bytes(raw)
	if err != nil {
		return string(bytes.ToValidUTF8(raw, []byte("�"))), "utf-8-lossy"
	}
	return string(decoded), "latin-1"
}

// decodeUnknown accepts a file of unknown type only when it plausibly is text.
func decodeUnknown(raw []byte) (string, string, bool) {
	if !looksLikeText(raw) {
		return "", "", false
	}
	text, encoding := decodeText(raw)
	return text, encoding, true
}

func looksLikeText(raw []byte) bool {
	for _, b := range raw {
		switch {
		case b == '\t', b == '\n', b == '\r', b == '\f':
		case b < 0x20, b == 0x7f:
			return false
		}
	}
	return true
}
