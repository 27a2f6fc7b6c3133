// Package version implements the dpkg version comparator: encoding a
// dpkg version string into a form that compares correctly under plain
// byte-lexicographic ordering, plus the relational predicate used by
// dependency resolution (<<, <=, =, >=, >>).
package version

import (
	"fmt"
	"strconv"
	"strings"
)

// terminator is the reserved marker appended after every encoded
// non-digit run. It sits one code point above '~' so that a version
// ending in "~" sorts below an otherwise-identical version that ends
// the run there, matching dpkg's tilde-sorts-lowest rule.
const terminator = 49 // '1'

// Encode maps a dpkg version string of the form
// "[epoch:]upstream[-revision]" to a byte-lexicographically comparable
// string. Two encoded strings compare with Go's "<" exactly when dpkg
// --compare-versions would order the original inputs the same way.
func Encode(v string) string {
	epoch := "00"
	rest := v
	if i := strings.IndexByte(v, ':'); i >= 0 {
		epoch = v[:i]
		rest = v[i+1:]
	}

	upstream := rest
	revision := "1"
	if i := strings.LastIndexByte(rest, '-'); i >= 0 {
		upstream = rest[:i]
		revision = rest[i+1:]
	}

	return comparableVer(epoch) + "!" + comparableVer(upstream) + "!" + comparableVer(revision)
}

// comparableVer walks left-to-right, repeatedly peeling a maximal
// non-digit run followed by a maximal digit run, encoding each in turn.
func comparableVer(s string) string {
	var b strings.Builder
	i := 0
	for i < len(s) {
		start := i
		for i < len(s) && !isDigit(s[i]) {
			i++
		}
		b.WriteString(encodeNonDigits(s[start:i]))

		start = i
		for i < len(s) && isDigit(s[i]) {
			i++
		}
		if i > start {
			b.WriteString(encodeDigits(s[start:i]))
		}
	}
	// A value ending in a digit run still needs a final non-digit
	// (possibly empty) run so two versions differing only by trailing
	// letters after the same digits still compare correctly.
	if len(s) == 0 || isDigit(s[len(s)-1]) {
		b.WriteString(encodeNonDigits(""))
	}
	return b.String()
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

// encodeNonDigits maps each rune of a non-digit run through the
// fixed character-translation table and appends the reserved
// terminator.
func encodeNonDigits(s string) string {
	b := make([]byte, 0, len(s)+1)
	for _, r := range s {
		b = append(b, translate(r))
	}
	b = append(b, terminator)
	return string(b)
}

// translate implements the table: '~' -> 48 ; 'A'-'Z' -> 50-75 ;
// 'a'-'z' -> 82-107 ; '+' -> 108 ; '-' -> 109 ; '.' -> 110.
func translate(r rune) byte {
	switch {
	case r == '~':
		return 48
	case r >= 'A' && r <= 'Z':
		return byte(50 + (r - 'A'))
	case r >= 'a' && r <= 'z':
		return byte(82 + (r - 'a'))
	case r == '+':
		return 108
	case r == '-':
		return 109
	case r == '.':
		return 110
	default:
		// dpkg restricts upstream/revision characters to
		// [A-Za-z0-9.+~-]; anything else maps to 111 plus its code
		// point modulo 32, above the recognized alphabet. Relative order
		// among such characters is not preserved.
		return byte(111 + (int(r) % 32))
	}
}

// encodeDigits canonicalizes a run of decimal digits: strip leading
// zeros (an all-zero run collapses to "0"), then prefix with one
// character encoding the run's length so runs of different lengths
// still compare by magnitude first.
func encodeDigits(s string) string {
	trimmed := strings.TrimLeft(s, "0")
	if trimmed == "" {
		trimmed = "0"
	}
	return string(rune(47+len(trimmed))) + trimmed
}

// Compare evaluates the dpkg relational operator op ("<<", "<=", "=",
// ">=", ">>", or "" for an unconstrained dependency) between versions
// a and b. An empty op always evaluates true.
func Compare(a, op, b string) (bool, error) {
	if op == "" {
		return true, nil
	}
	ea, eb := Encode(a), Encode(b)
	switch op {
	case "<<":
		return ea < eb, nil
	case "<=":
		return ea <= eb, nil
	case "=":
		return ea == eb, nil
	case ">=":
		return ea >= eb, nil
	case ">>":
		return ea > eb, nil
	default:
		return false, fmt.Errorf("version: unknown operator %q", op)
	}
}

// Less reports whether a orders strictly before b under dpkg semantics.
func Less(a, b string) bool {
	return Encode(a) < Encode(b)
}

// ParseEpoch returns the numeric epoch of v, or 0 if none is present.
func ParseEpoch(v string) (int, error) {
	i := strings.IndexByte(v, ':')
	if i < 0 {
		return 0, nil
	}
	n, err := strconv.Atoi(v[:i])
	if err != nil {
		return 0, fmt.Errorf("version: invalid epoch in %q: %w", v, err)
	}
	return n, nil
}
