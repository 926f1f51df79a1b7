package marker

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// IsIDRune reports whether r may appear in a fragment id: letters, digits, '/', '_', '-'.
func IsIDRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsNumber(r) || r == '/' || r == '_' || r == '-'
}

// ValidID reports whether s is a non-empty id made only of id runes.
func ValidID(s string) bool {
	return s != "" && strings.IndexFunc(s, func(r rune) bool { return !IsIDRune(r) }) < 0
}

// SanitizeID replaces every rune outside the id charset with '_'.
func SanitizeID(s string) string {
	return strings.Map(func(r rune) rune {
		if IsIDRune(r) {
			return r
		}
		return '_'
	}, s)
}

// idRun returns the longest prefix of s made of id runes.
func idRun(s string) string {
	for i, r := range s {
		if !IsIDRune(r) {
			return s[:i]
		}
	}
	return s
}

// fieldRun returns the longest prefix of s made of letters and digits.
func fieldRun(s string) string {
	for i, r := range s {
		if !unicode.IsLetter(r) && !unicode.IsNumber(r) {
			return s[:i]
		}
	}
	return s
}

// token returns the prefix of s up to the first whitespace rune.
func token(s string) string {
	if i := strings.IndexFunc(s, unicode.IsSpace); i >= 0 {
		return s[:i]
	}
	return s
}

// firstInvalid returns the byte offset and value of the first rune in id that is
// not an id rune, or -1.
func firstInvalid(id string) (int, rune) {
	for i, r := range id {
		if !IsIDRune(r) {
			return i, r
		}
	}
	return -1, utf8.RuneError
}
