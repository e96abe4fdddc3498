package gpu

import (
	"errors"
	"unicode/utf8"
)

var ErrInvalidUTF8 = errors.New("invalid UTF-8 code")

// decodeRune decodes the first rune of s, rejecting surrogates, overlong
// encodings, truncated sequences and code points above U+10FFFF.
func decodeRune(s string) (rune, int, error) {
	r, n := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError && n <= 1 {
		return 0, 0, ErrInvalidUTF8
	}
	return r, n, nil
}

// DecodeStrict decodes all of s.
func DecodeStrict(s string) ([]rune, error) {
	rs := make([]rune, 0, len(s))
	for len(s) > 0 {
		r, n, err := decodeRune(s)
		if err != nil {
			return nil, err
		}
		rs = append(rs, r)
		s = s[n:]
	}
	return rs, nil
}
