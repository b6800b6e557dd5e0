// Package normalize maps raw file and directory names to their canonical
// form: invalid and disallowed characters stripped, whitespace collapsed,
// title casing applied. All functions are pure and operate on single path
// segments, never on full paths.
//
// Casing uses the Unicode und (undetermined) locale from x/text so the same
// input yields the same output on every host, independent of environment
// locale settings.
package normalize

import (
	"path/filepath"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var (
	lower = cases.Lower(language.Und)
	title = cases.Title(language.Und)
)

// invalidChars are characters rejected by common filesystems. They are
// removed before any other transformation.
const invalidChars = `/\:*?"<>|`

// isAllowed reports whether r survives the final character policy:
// letters, digits, whitespace, hyphen, underscore, period, comma,
// and apostrophe.
func isAllowed(r rune) bool {
	if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r) {
		return true
	}
	switch r {
	case '-', '_', '.', ',', '\'':
		return true
	}
	return false
}

// Name normalizes a single name segment. The steps run in order: drop
// filesystem-invalid characters, lowercase then capitalize each
// whitespace-delimited word, collapse runs of whitespace to a single
// space, strip disallowed characters, trim. Word boundaries are
// whitespace only; punctuation inside a word does not start a new
// capital. Idempotent: Name(Name(s)) == Name(s).
func Name(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r < 0x20 || strings.ContainsRune(invalidChars, r) {
			continue
		}
		b.WriteRune(r)
	}

	words := strings.Fields(lower.String(b.String()))
	for i, w := range words {
		words[i] = capitalizeFirst(w)
	}
	out := strings.Join(words, " ")

	var cleaned strings.Builder
	cleaned.Grow(len(out))
	for _, r := range out {
		if isAllowed(r) {
			cleaned.WriteRune(r)
		}
	}

	return strings.TrimSpace(cleaned.String())
}

// capitalizeFirst title-cases the leading rune of a word, leaving the
// rest untouched.
func capitalizeFirst(w string) string {
	r, size := utf8.DecodeRuneInString(w)
	if r == utf8.RuneError && size <= 1 {
		return w
	}
	return title.String(string(r)) + w[size:]
}

// FileName normalizes a file base name. The extension is lowercased and
// reattached verbatim; only the stem goes through the Name pipeline.
func FileName(name string) string {
	ext := filepath.Ext(name)
	stem := strings.TrimSuffix(name, ext)
	return Name(stem) + strings.ToLower(ext)
}

// DirName normalizes a directory name segment.
func DirName(name string) string {
	return Name(name)
}

// collisionStrip holds characters removed from a stem when generating a
// collision-free alternative name. Applied only during collision
// resolution, not during normal normalization.
const collisionStrip = ".-_"

// CollisionStem reduces a file stem for numbered-suffix generation:
// the characters ".", "-", "_" and the literal substring "www" are removed.
func CollisionStem(stem string) string {
	stem = strings.ReplaceAll(stem, "www", "")
	var b strings.Builder
	b.Grow(len(stem))
	for _, r := range stem {
		if strings.ContainsRune(collisionStrip, r) {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
