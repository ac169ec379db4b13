package session

import (
	"errors"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
	"golang.org/x/text/width"
)

const maxNameRunes = 24

// NormalizeName canonicalizes a display name: full/half-width forms fold
// together and compatibility characters collapse, so two visually identical
// names cannot coexist at one table.
func NormalizeName(s string) (string, error) {
	s = width.Fold.String(s)
	s = norm.NFKC.String(s)
	s = strings.TrimSpace(s)
	if s == "" {
		return "", errors.New("name is empty")
	}
	if utf8.RuneCountInString(s) > maxNameRunes {
		return "", errors.New("name too long")
	}
	for _, r := range s {
		if unicode.IsControl(r) {
			return "", errors.New("name contains control characters")
		}
	}
	return s, nil
}
