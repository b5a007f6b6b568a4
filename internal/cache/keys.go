package cache

import (
	"strconv"
	"strings"
	"unicode/utf8"
)

// Linux file names are byte strings and need not be valid UTF-8, while
// encoding/json replaces invalid bytes with U+FFFD. Such bytes are written to
// the cache file as lone low-surrogate escapes (\udc80 to \udcff), the form
// Python's surrogateescape handler produces, so caches stay interchangeable
// with the original tool. Between the map and encoding/json a raw byte b
// travels as NUL followed by the two hex digits of b; NUL never occurs in a
// path.

const hexDigits = "0123456789abcdef"

// maskKey replaces each byte of k that is not part of a valid UTF-8 sequence
// with NUL and its two hex digits.
func maskKey(k string) string {
	if utf8.ValidString(k) {
		return k
	}
	var b strings.Builder
	for i := 0; i < len(k); {
		r, size := utf8.DecodeRuneInString(k[i:])
		if r == utf8.RuneError && size == 1 {
			b.WriteByte(0)
			b.WriteByte(hexDigits[k[i]>>4])
			b.WriteByte(hexDigits[k[i]&0x0f])
		} else {
			b.WriteString(k[i : i+size])
		}
		i += size
	}
	return b.String()
}

// unmaskKey reverses maskKey.
func unmaskKey(k string) string {
	if strings.IndexByte(k, 0) < 0 {
		return k
	}
	var b strings.Builder
	for i := 0; i < len(k); i++ {
		if k[i] == 0 && i+2 < len(k) {
			if v, err := strconv.ParseUint(k[i+1:i+3], 16, 8); err == nil {
				b.WriteByte(byte(v))
				i += 2
				continue
			}
		}
		b.WriteByte(k[i])
	}
	return b.String()
}

// rewriteEscapes copies the JSON document data. At every \uXXXX escape fn
// receives the rest of the input, the escape's code unit and whether the
// escape directly follows a high-surrogate escape. fn returns the
// replacement and the number of input bytes it covers; n == 0 keeps the
// escape as is.
func rewriteEscapes(data []byte, fn func(rest []byte, code uint16, afterHigh bool) (repl []byte, n int)) []byte {
	out := make([]byte, 0, len(data))
	afterHigh := false
	for i := 0; i < len(data); {
		if data[i] != '\\' || i+1 == len(data) {
			out = append(out, data[i])
			i++
			afterHigh = false
			continue
		}
		if data[i+1] != 'u' || i+6 > len(data) {
			out = append(out, data[i], data[i+1])
			i += 2
			afterHigh = false
			continue
		}
		code, err := strconv.ParseUint(string(data[i+2:i+6]), 16, 16)
		if err != nil {
			out = append(out, data[i:i+6]...)
			i += 6
			afterHigh = false
			continue
		}
		if repl, n := fn(data[i:], uint16(code), afterHigh); n > 0 {
			out = append(out, repl...)
			i += n
			afterHigh = false
			continue
		}
		out = append(out, data[i:i+6]...)
		i += 6
		afterHigh = code >= 0xd800 && code < 0xdc00
	}
	return out
}

func isHex(c byte) bool {
	return strings.IndexByte(hexDigits, c) >= 0
}

// surrogateEscapes turns the encoded form of masked bytes, \u0000 followed by
// two hex digits, into \udcXX.
func surrogateEscapes(data []byte) []byte {
	return rewriteEscapes(data, func(rest []byte, code uint16, _ bool) ([]byte, int) {
		if code != 0 || len(rest) < 8 || !isHex(rest[6]) || !isHex(rest[7]) {
			return nil, 0
		}
		return []byte{'\\', 'u', 'd', 'c', rest[6], rest[7]}, 8
	})
}

// maskEscapes turns lone \udc80-\udcff escapes into \u0000 followed by two
// hex digits, which encoding/json decodes without loss.
func maskEscapes(data []byte) []byte {
	return rewriteEscapes(data, func(_ []byte, code uint16, afterHigh bool) ([]byte, int) {
		if afterHigh || code < 0xdc80 || code > 0xdcff {
			return nil, 0
		}
		b := byte(code)
		return []byte{'\\', 'u', '0', '0', '0', '0', hexDigits[b>>4], hexDigits[b&0x0f]}, 6
	})
}
