// Package textutil provides the canonical text projections used for symptom
// matching and remedy identity: a display form that keeps accents, a match
// key that strips them, and URL slug derivation from remedy names.
package textutil

import (
	"net/url"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/remedesfr/remedes-api/remediesparser/entities"
)

// stripMarks removes combining diacritical marks after canonical
// decomposition, so "é" becomes "e" and "ç" becomes "c".
var stripMarks = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// ToDisplayForm lowercases, trims the string boundary, collapses whitespace
// runs to a single space and turns hyphens and underscores into spaces.
// Accents are preserved. Non-normalizable input degrades to itself rather
// than failing; there is no error path.
func ToDisplayForm(input string) string {
	s := strings.ToLower(input)
	s = strings.Join(strings.Fields(s), " ")
	s = strings.ReplaceAll(s, "-", " ")
	s = strings.ReplaceAll(s, "_", " ")
	return s
}

// ToMatchKey applies the display pipeline and then strips combining marks,
// producing the accent-insensitive key used for all symptom equality checks.
// Same input always yields the same key regardless of locale.
func ToMatchKey(input string) string {
	s := ToDisplayForm(input)
	stripped, _, err := transform.String(stripMarks, s)
	if err != nil {
		// Invalid UTF-8 sequences are left as-is; equality on the raw
		// bytes is still stable.
		return s
	}
	return stripped
}

// GenerateSlug derives the URL identity of a remedy name: lowercase,
// whitespace runs become a single hyphen, anything that is not a letter
// (accented letters included), digit or hyphen is dropped, and boundary
// hyphens are trimmed. Accents are preserved so "Tisane de Tilleul"
// becomes "tisane-de-tilleul" and "Thé à la menthe" keeps its accents.
func GenerateSlug(name string) string {
	s := strings.ToLower(strings.TrimSpace(name))
	s = strings.Join(strings.Fields(s), "-")
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '-' {
			b.WriteRune(r)
		}
	}
	return strings.Trim(b.String(), "-")
}

// FindBySlug resolves a URL slug back to its remedy. The slug is
// percent-decoded first; malformed encoding or an unknown slug returns nil.
func FindBySlug(slug string, remedies []entities.Remedy) *entities.Remedy {
	decoded, err := url.PathUnescape(slug)
	if err != nil {
		return nil
	}
	for i := range remedies {
		if GenerateSlug(remedies[i].Name) == decoded {
			return &remedies[i]
		}
	}
	return nil
}
