package streams

import (
	"math"
	"strconv"
	"strings"
)

// DefaultSeed is used whenever the seed input is missing or not a number.
const DefaultSeed int64 = 123

const seedModulus = 1 << 32

// ParseSeed normalises user seed input the way a browser's parseInt does.
// It reads an optional sign, an optional 0x prefix and the leading digits,
// ignoring anything after them, so "42abc" is 42 and "0x1A" is 26. Empty
// input, input without leading digits and zero yield DefaultSeed.
//
// Values that do not fit in an int64 are reduced to the 32 bits the
// generator keeps.
func ParseSeed(input string) int64 {
	s := strings.TrimSpace(input)
	neg := false
	if s != "" && (s[0] == '+' || s[0] == '-') {
		neg = s[0] == '-'
		s = s[1:]
	}
	base := 10
	if len(s) >= 2 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X') {
		base = 16
		s = s[2:]
	}
	end := 0
	for end < len(s) && digitValue(s[end]) < base {
		end++
	}
	if end == 0 {
		return DefaultSeed
	}

	seed, err := strconv.ParseUint(s[:end], base, 63)
	if err != nil {
		seed = wrapSeed(s[:end], base)
	}
	if seed == 0 {
		return DefaultSeed
	}
	if neg {
		return -int64(seed)
	}
	return int64(seed)
}

// wrapSeed reduces an oversized digit string modulo 2^32 after rounding it
// to a float64, as the browser holds it. A reduction to zero is kept as
// 2^32 so the seed still counts as given.
func wrapSeed(digits string, base int) uint64 {
	lit := digits
	if base == 16 {
		lit = "0x" + digits + "p0"
	}
	f, _ := strconv.ParseFloat(lit, 64)
	if math.IsInf(f, 0) {
		return seedModulus
	}
	r := uint64(math.Mod(f, seedModulus))
	if r == 0 {
		return seedModulus
	}
	return r
}

func digitValue(c byte) int {
	switch {
	case c >= '0' && c <= '9':
		return int(c - '0')
	case c >= 'a' && c <= 'z':
		return int(c-'a') + 10
	case c >= 'A' && c <= 'Z':
		return int(c-'A') + 10
	default:
		return 99
	}
}
