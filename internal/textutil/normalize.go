package textutil

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

var folder = cases.Fold()

// Normalize prepares a filename for similarity scoring. The value is NFC
// composed and case folded, then every non letter/digit rune becomes a space
// and the ends are trimmed. Interior runs of spaces are preserved.
func Normalize(value string) string {
	value = folder.String(norm.NFC.String(value))
	var b strings.Builder
	b.Grow(len(value))
	for _, r := range value {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			continue
		}
		b.WriteByte(' ')
	}
	return strings.TrimSpace(b.String())
}

// FoldCase case-folds value using Unicode rules.
func FoldCase(value string) string {
	return folder.String(value)
}
