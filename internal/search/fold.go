package search

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// combiningDiacritic matches U+0300..U+036F. Kana sound marks are outside the
// range and survive folding.
var combiningDiacritic = runes.Predicate(func(r rune) bool {
	return r >= 0x0300 && r <= 0x036F
})

// Fold lowercases s and strips Latin diacritics, so "Shōnen" and "shonen"
// compare equal. Compatibility decomposition also maps full-width Latin to ASCII.
func Fold(s string) string {
	t := transform.Chain(norm.NFKD, runes.Remove(combiningDiacritic), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		folded = s
	}
	return strings.ToLower(folded)
}

// terms splits a folded query into the words that must all match.
func terms(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
}
