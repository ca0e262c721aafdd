package content

import (
	"errors"
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	slugAllowed   = regexp.MustCompile(`^[a-z0-9\-]+$`)
	slugSeparator = regexp.MustCompile(`-+`)
)

// NormalizeSlug converts raw input (a file name, a path segment, a title)
// into the canonical page slug.
func NormalizeSlug(input string) (string, error) {
	trimmed := strings.TrimSpace(input)
	if strings.ContainsAny(trimmed, "/\\?&:#'\"") || strings.Contains(trimmed, "..") {
		return "", errors.New("slug contains invalid path characters")
	}

	trimmed = stripDiacritics(trimmed)
	trimmed = strings.ReplaceAll(trimmed, "%20", "-")
	trimmed = normalizeUnicode(trimmed)
	trimmed = strings.Trim(trimmed, "-")

	if trimmed == "" {
		return "", errors.New("empty slug")
	}

	trimmed = slugSeparator.ReplaceAllString(trimmed, "-")

	if !slugAllowed.MatchString(trimmed) {
		return "", errors.New("slug contains invalid characters")
	}

	return trimmed, nil
}

func normalizeUnicode(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)):
			b.WriteRune(unicode.ToLower(r))
		case r == '-' || r == '_' || unicode.IsSpace(r):
			b.WriteRune('-')
		default:
			// skip everything else
		}
	}
	return b.String()
}

// SlugTitle converts a slug into a human-friendly title.
func SlugTitle(slug string) string {
	// Casers carry state and must not be shared between goroutines.
	return cases.Title(language.English).String(strings.ReplaceAll(slug, "-", " "))
}

func stripDiacritics(s string) string {
	stripper := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	stripped, _, err := transform.String(stripper, s)
	if err != nil {
		return s
	}
	return stripped
}
