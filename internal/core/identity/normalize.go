package identity

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// Fold lowercases, strips diacritics, turns punctuation into spaces and
// collapses whitespace. Two raw strings name the same thing at the folding
// level iff their folded forms are equal.
func Fold(s string) string {
	if s == "" {
		return ""
	}
	s = stripDiacritics(s)
	s = strings.ToLower(s)
	s = strings.Map(func(r rune) rune {
		if unicode.IsPunct(r) || unicode.IsSymbol(r) {
			return ' '
		}
		return r
	}, s)
	return collapseWhitespace(s)
}

func stripDiacritics(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range norm.NFD.String(s) {
		if !unicode.Is(unicode.Mn, r) { // Mn = Mark, Nonspacing (combining accents)
			b.WriteRune(r)
		}
	}
	return b.String()
}

func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// teamSuffixes are organisation words bookmakers append to roster names.
var teamSuffixes = []string{" esports", " esport", " gaming", " team"}

// variations returns the folded form followed by its suffix-stripped forms.
func variations(folded string, kind Kind) []string {
	out := []string{folded}
	if kind != KindTeam {
		return out
	}
	for _, suf := range teamSuffixes {
		if trimmed, ok := strings.CutSuffix(folded, suf); ok && trimmed != "" {
			out = append(out, trimmed)
		}
	}
	if trimmed, ok := strings.CutPrefix(folded, "team "); ok && trimmed != "" {
		out = append(out, trimmed)
	}
	return out
}
