package order

import (
	"strconv"
	"strings"
)

// ParseUserID converts a caller supplied user reference to an integer the
// same tolerant way the public listing endpoint always has: leading
// whitespace is skipped, an optional sign is accepted and parsing stops at
// the first invalid digit, so "12abc" yields 12. A 0x or 0X prefix switches
// to hexadecimal, so "0x1A" yields 26. It reports false when no digits could
// be read or the value overflows an int.
func ParseUserID(raw string) (int, bool) {
	s := strings.TrimLeft(raw, " \t\n\r\v\f")

	sign := ""
	if s != "" && (s[0] == '+' || s[0] == '-') {
		sign, s = s[:1], s[1:]
	}

	base, isDigit := 10, isDecimal
	if len(s) >= 2 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X') {
		base, isDigit, s = 16, isHex, s[2:]
	}

	end := 0
	for end < len(s) && isDigit(s[end]) {
		end++
	}
	if end == 0 {
		return 0, false
	}

	id, err := strconv.ParseInt(sign+s[:end], base, strconv.IntSize)
	if err != nil {
		return 0, false
	}
	return int(id), true
}

func isDecimal(c byte) bool { return c >= '0' && c <= '9' }

func isHex(c byte) bool {
	return isDecimal(c) || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}
