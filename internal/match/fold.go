package match

import (
	"strings"
	"unicode"
)

// Fold reduces a name to the form Score compares: separators removed and
// every letter lower case. "t_meas", "tMeas" and "T-MEAS" fold alike.
func Fold(name string) string {
	var b strings.Builder

	b.Grow(len(name))

	for _, r := range name {
		if isSeparator(r) {
			continue
		}

		b.WriteRune(unicode.ToLower(r))
	}

	return b.String()
}

func isSeparator(r rune) bool {
	switch r {
	case '_', '-', '.', ' ':
		return true
	}

	return false
}
