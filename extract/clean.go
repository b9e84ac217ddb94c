package extract

import (
	"regexp"
	"strings"
)

// CleanText normalises extracted text for storage and search.
// It collapses whitespace runs to single spaces, removes zero-width
// characters, and trims.
func CleanText(text string) string {
	text = strings.Map(func(r rune) rune {
		switch r {
		case '\u200b', '\u200c', '\u200d', '\ufeff', '\u00ad':
			return -1
		}
		return r
	}, text)

	return strings.TrimSpace(collapseWhitespace(text))
}

var multiSpaceRe = regexp.MustCompile(`\s+`)

func collapseWhitespace(s string) string {
	return multiSpaceRe.ReplaceAllString(s, " ")
}
