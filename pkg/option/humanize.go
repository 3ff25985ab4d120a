package option

import (
	"strings"
	"unicode"
)

// Humanize derives a display label from a raw option key or enum value. It
// splits snake_case, kebab-case and camelCase identifiers into words and
// title-cases each one, so "draftPost" and "draft_post" both become
// "Draft Post". Values that already contain spaces are title-cased as-is.
func Humanize(key string) string {
	if key == "" {
		return ""
	}

	var words []string
	var current strings.Builder

	flush := func() {
		if current.Len() > 0 {
			words = append(words, current.String())
			current.Reset()
		}
	}

	runes := []rune(key)
	for i, r := range runes {
		switch {
		case r == '_' || r == '-' || unicode.IsSpace(r):
			flush()
		case unicode.IsUpper(r) && i > 0 && (unicode.IsLower(runes[i-1]) || nextIsLower(runes, i)):
			flush()
			current.WriteRune(r)
		default:
			current.WriteRune(r)
		}
	}
	flush()

	for i, word := range words {
		words[i] = titleWord(word)
	}
	return strings.Join(words, " ")
}

// nextIsLower reports whether the rune after index i exists and is lower
// case, which marks the end of an acronym run ("HTTPServer" → "HTTP Server").
func nextIsLower(runes []rune, i int) bool {
	return i+1 < len(runes) && unicode.IsLower(runes[i+1])
}

func titleWord(word string) string {
	if word == "" {
		return word
	}
	runes := []rune(word)
	if allUpper(runes) {
		return word
	}
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}

func allUpper(runes []rune) bool {
	for _, r := range runes {
		if unicode.IsLetter(r) && !unicode.IsUpper(r) {
			return false
		}
	}
	return true
}
