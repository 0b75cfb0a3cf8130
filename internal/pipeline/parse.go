package pipeline

import (
	"math"
	"strconv"
	"strings"
)

// skipBlanks skips ASCII spaces and tabs only.
func skipBlanks(s string) string {
	return strings.TrimLeft(s, " \t")
}

func isHexDigit(c byte) bool {
	return (c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func countWhile(s string, pred func(byte) bool) int {
	n := 0
	for n < len(s) && pred(s[n]) {
		n++
	}
	return n
}

// parseInt32 parses a C-style integer prefix of s: optional sign, then a
// 0x hex, leading-zero octal or decimal number. It returns the remaining
// tail. Negative values wrap into the signed range the same way strtol
// does for 32-bit targets.
func parseInt32(s string) (int32, string, bool) {
	s = skipBlanks(s)

	negative := false
	if s != "" && (s[0] == '-' || s[0] == '+') {
		negative = s[0] == '-'
		s = s[1:]
	}

	base := 10
	switch {
	case strings.HasPrefix(s, "0x"):
		base = 16
		s = s[2:]
	case len(s) > 1 && s[0] == '0' && isDigit(s[1]):
		base = 8
		s = s[1:]
	}

	// Hex digits are consumed for every base so that "9f" is rejected
	// instead of being split into a number and a tail.
	n := countWhile(s, isHexDigit)
	u, err := strconv.ParseUint(s[:n], base, 32)
	if err != nil {
		return 0, s, false
	}

	if negative {
		if u > math.MaxInt32+1 {
			return 0, s, false
		}
		return int32(uint32(-int64(u))), s[n:], true
	}
	if u > math.MaxInt32 {
		return 0, s, false
	}
	return int32(u), s[n:], true
}

// parseFloat32 parses a float prefix of s. A 0x prefix reads the raw IEEE
// bit pattern. Otherwise it accepts an optional sign followed by inf,
// infinity, nan or a decimal number with optional fraction and exponent.
func parseFloat32(s string) (float32, string, bool) {
	s = skipBlanks(s)

	if strings.HasPrefix(s, "0x") {
		n := 2 + countWhile(s[2:], isHexDigit)
		bits, err := strconv.ParseUint(s[2:n], 16, 32)
		if err != nil {
			return 0, s, false
		}
		return math.Float32frombits(uint32(bits)), s[n:], true
	}

	n := 0
	if s != "" && (s[0] == '-' || s[0] == '+') {
		n++
	}

	if w := specialFloatWord(s[n:]); w > 0 {
		n += w
	} else {
		digits := countWhile(s[n:], isDigit)
		n += digits
		frac := 0
		if n < len(s) && s[n] == '.' {
			frac = countWhile(s[n+1:], isDigit)
			n += 1 + frac
		}
		if digits == 0 && frac == 0 {
			return 0, s, false
		}
		if n < len(s) && (s[n] == 'e' || s[n] == 'E') {
			e := n + 1
			if e < len(s) && (s[e] == '+' || s[e] == '-') {
				e++
			}
			if d := countWhile(s[e:], isDigit); d > 0 {
				n = e + d
			}
		}
	}

	v, err := strconv.ParseFloat(s[:n], 32)
	if err != nil {
		return 0, s, false
	}
	return float32(v), s[n:], true
}

func specialFloatWord(s string) int {
	lower := strings.ToLower(s)
	for _, w := range []string{"infinity", "inf", "nan"} {
		if strings.HasPrefix(lower, w) {
			return len(w)
		}
	}
	return 0
}
