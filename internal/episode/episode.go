// Package episode extracts season/episode identifiers such as "S01E03" from
// filenames.
package episode

import (
	"path/filepath"
	"regexp"
	"strings"
	"unicode"
)

// tagPattern matches a season marker directly or loosely followed by an
// episode marker: "S01E03", "s1e3", "s01 e03".
var tagPattern = regexp.MustCompile(`[sS]\d{1,3}\s?[eE]\d{1,3}`)

// Tag is a normalized season+episode identifier. Two filenames that spell the
// same identifier with different casing or spacing yield equal tags.
type Tag string

func (t Tag) String() string { return string(t) }

// Extract returns the first tag found in the base name of filename. The
// boolean is false when the name carries no tag.
func Extract(filename string) (Tag, bool) {
	match := tagPattern.FindString(filepath.Base(filename))
	if match == "" {
		return "", false
	}
	return normalize(match), true
}

func normalize(raw string) Tag {
	var b strings.Builder
	b.Grow(len(raw))
	for _, r := range raw {
		if unicode.IsSpace(r) {
			continue
		}
		b.WriteRune(unicode.ToUpper(r))
	}
	return Tag(b.String())
}
