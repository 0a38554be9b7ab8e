package segment

import (
	"strconv"
	"strings"
)

// defaultWords maps spelled-out English number words to their values.
// Compact compound forms ("twentyone") are included because the
// transcriber often collapses hyphenated numbers into a single token.
var defaultWords = map[string]int{
	"zero": 0, "one": 1, "two": 2, "three": 3, "four": 4, "five": 5,
	"six": 6, "seven": 7, "eight": 8, "nine": 9, "ten": 10,
	"eleven": 11, "twelve": 12, "thirteen": 13, "fourteen": 14,
	"fifteen": 15, "sixteen": 16, "seventeen": 17, "eighteen": 18,
	"nineteen": 19, "twenty": 20, "twentyone": 21, "twentytwo": 22,
	"twentythree": 23, "twentyfour": 24, "twentyfive": 25,
	"twentysix": 26, "twentyseven": 27, "twentyeight": 28,
	"twentynine": 29, "thirty": 30,
}

// Vocabulary is the set of spelled-out number words the detector
// recognizes, mapped to their numeric values.
type Vocabulary map[string]int

// NewVocabulary returns the default zero..thirty vocabulary extended
// with any additional word=value entries.
func NewVocabulary(extra map[string]int) Vocabulary {
	v := make(Vocabulary, len(defaultWords)+len(extra))
	for w, n := range defaultWords {
		v[w] = n
	}
	for w, n := range extra {
		v[NormalizeToken(w)] = n
	}
	return v
}

// Lookup resolves a normalized token to its value via the word list only.
func (v Vocabulary) Lookup(token string) (int, bool) {
	n, ok := v[token]
	return n, ok
}

// Value resolves a normalized token to its value, accepting both
// spelled-out words and all-digit tokens.
func (v Vocabulary) Value(token string) (int, bool) {
	if n, ok := v[token]; ok {
		return n, true
	}
	if isAllDigits(token) {
		n, err := strconv.Atoi(token)
		if err != nil {
			return 0, false
		}
		return n, true
	}
	return 0, false
}

// NormalizeToken lowercases a transcript token and strips every
// character outside [a-z0-9-].
func NormalizeToken(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '-' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func isAllDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
