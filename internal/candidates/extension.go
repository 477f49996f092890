package candidates

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Extension is a normalized, lower-case file extension including the leading
// dot.
type Extension string

// Recognized subtitle extensions.
const (
	SRT Extension = ".srt"
	ASS Extension = ".ass"
	SSA Extension = ".ssa"
	USF Extension = ".usf"
	PGS Extension = ".pgs"
	IDX Extension = ".idx"
	SUB Extension = ".sub"
)

// DefaultExtensions is the recognized set in the fixed probe order used when
// several buckets could match the same primary.
var DefaultExtensions = []Extension{SRT, ASS, SSA, USF, PGS, IDX, SUB}

// ParseExtension normalizes value (".SRT", "srt") and rejects extensions
// outside the recognized set.
func ParseExtension(value string) (Extension, error) {
	value = strings.ToLower(strings.TrimSpace(value))
	if value == "" {
		return "", fmt.Errorf("extension: empty value")
	}
	if !strings.HasPrefix(value, ".") {
		value = "." + value
	}
	ext := Extension(value)
	for _, known := range DefaultExtensions {
		if ext == known {
			return ext, nil
		}
	}
	return "", fmt.Errorf("extension %q is not a recognized subtitle format", value)
}

// ParseExtensions parses a list, dropping duplicates but keeping first-seen
// order. An empty list yields DefaultExtensions.
func ParseExtensions(values []string) ([]Extension, error) {
	if len(values) == 0 {
		return append([]Extension(nil), DefaultExtensions...), nil
	}
	out := make([]Extension, 0, len(values))
	seen := make(map[Extension]struct{}, len(values))
	for _, v := range values {
		ext, err := ParseExtension(v)
		if err != nil {
			return nil, err
		}
		if _, ok := seen[ext]; ok {
			continue
		}
		seen[ext] = struct{}{}
		out = append(out, ext)
	}
	return out, nil
}

// ExtensionOf returns the normalized extension of path.
func ExtensionOf(path string) Extension {
	return Extension(strings.ToLower(filepath.Ext(path)))
}

func (e Extension) String() string { return string(e) }
