package lang

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// foldTransformer strips combining marks so vocalized Urdu text matches the
// unvocalized lexicon entries.
var foldTransformer = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Fold canonicalizes text for lexicon lookups: lower-case, diacritics
// removed, Arabic-Indic digits mapped to ASCII, whitespace collapsed.
func Fold(s string) string {
	folded, _, err := transform.String(foldTransformer, s)
	if err != nil {
		folded = s
	}

	var b strings.Builder
	b.Grow(len(folded))
	space := false
	for _, r := range folded {
		switch {
		case unicode.IsSpace(r):
			space = true
			continue
		case r >= '٠' && r <= '٩': // Arabic-Indic digits
			r = '0' + (r - '٠')
		case r >= '۰' && r <= '۹': // Extended Arabic-Indic digits
			r = '0' + (r - '۰')
		default:
			r = unicode.ToLower(r)
		}
		if space && b.Len() > 0 {
			b.WriteByte(' ')
		}
		space = false
		b.WriteRune(r)
	}
	return b.String()
}

// isWordRune reports whether r belongs inside a word for boundary checks.
func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '\''
}

// FindWord locates phrase in folded text at a word boundary. Returns the
// byte span of the earliest occurrence.
func FindWord(folded, phrase string) (start, end int, ok bool) {
	if phrase == "" {
		return 0, 0, false
	}
	from := 0
	for {
		idx := strings.Index(folded[from:], phrase)
		if idx < 0 {
			return 0, 0, false
		}
		s := from + idx
		e := s + len(phrase)
		if boundaryBefore(folded, s) && boundaryAfter(folded, e) {
			return s, e, true
		}
		from = s + 1
	}
}

func boundaryBefore(s string, i int) bool {
	if i == 0 {
		return true
	}
	r, _ := decodeLastRune(s[:i])
	return !isWordRune(r)
}

func boundaryAfter(s string, i int) bool {
	if i >= len(s) {
		return true
	}
	for _, r := range s[i:] {
		return !isWordRune(r)
	}
	return true
}

func decodeLastRune(s string) (rune, int) {
	var last rune
	var size int
	for i, r := range s {
		last = r
		size = len(s) - i
	}
	return last, size
}
