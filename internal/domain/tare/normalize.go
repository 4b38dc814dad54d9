package tare

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// stripMarks decomposes, drops combining marks, and recomposes.
var stripMarks = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Normalize turns a free-text supplier or product name into its lookup key:
// lower-cased, accent-free, punctuation folded to spaces, whitespace collapsed
// and trimmed. "FORNECEDOR LTDA", "Fornecedor Ltda." and "  fornecedor  ltda "
// share a key, as do "José" and "Jose". An empty result identifies nothing.
func Normalize(text string) string {
	s := strings.ToLower(text)
	if out, _, err := transform.String(stripMarks, s); err == nil {
		s = out
	}
	s = strings.Map(func(r rune) rune {
		if unicode.IsPunct(r) {
			return ' '
		}
		return r
	}, s)
	return strings.Join(strings.Fields(s), " ")
}
