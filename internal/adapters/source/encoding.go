package source

import (
	"bytes"
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/htmlindex"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// EncodingByName resolves a legacy encoding label such as "windows-1252" or
// "latin1". "none" and "" disable the fallback and return nil.
func EncodingByName(name string) (encoding.Encoding, error) {
	switch n := strings.ToLower(strings.TrimSpace(name)); n {
	case "", "none":
		return nil, nil
	case "cp1252", "windows-1252":
		return charmap.Windows1252, nil
	default:
		enc, err := htmlindex.Get(n)
		if err != nil {
			return nil, fmt.Errorf("unknown encoding %q: %w", name, err)
		}
		return enc, nil
	}
}

// decode returns b as UTF-8. Input that is not valid UTF-8 is decoded with
// fallback; fellBack reports whether that happened.
func decode(b []byte, fallback encoding.Encoding) (out []byte, fellBack bool, err error) {
	b = bytes.TrimPrefix(b, utf8BOM)
	if utf8.Valid(b) {
		return b, false, nil
	}
	if fallback == nil {
		return nil, false, fmt.Errorf("input is not valid UTF-8 and no fallback encoding is configured")
	}
	out, err = fallback.NewDecoder().Bytes(b)
	if err != nil {
		return nil, true, fmt.Errorf("fallback decode: %w", err)
	}
	if !utf8.Valid(out) || bytes.ContainsRune(out, utf8.RuneError) {
		return nil, true, fmt.Errorf("input is neither UTF-8 nor decodable with the fallback encoding")
	}
	return out, true, nil
}
