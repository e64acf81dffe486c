// Package identity matches informally recorded counterparty names to the
// signed-in party. Matching is best-effort and only filters what is shown;
// it never grants access to anything.
package identity

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// MinAliasLength is the shortest alias accepted for substring matching.
const MinAliasLength = 2

// MinPhoneOverlap is the number of digits two phone numbers must share.
const MinPhoneOverlap = 8

const countryCode = "55"

// Normalize lowercases s, strips diacritics and trims surrounding space.
func Normalize(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		out = s
	}
	return strings.TrimSpace(strings.ToLower(out))
}

// CleanPhone keeps only digits and drops a leading country code when the
// number is longer than a national one.
func CleanPhone(phone string) string {
	var b strings.Builder
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	digits := b.String()
	if len(digits) > 11 && strings.HasPrefix(digits, countryCode) {
		digits = digits[len(countryCode):]
	}
	return digits
}

// PhonesOverlap reports whether two cleaned numbers contain one another and
// the shorter one has at least MinPhoneOverlap digits.
func PhonesOverlap(a, b string) bool {
	if len(a) > len(b) {
		a, b = b, a
	}
	if len(a) < MinPhoneOverlap {
		return false
	}
	return strings.Contains(b, a)
}
