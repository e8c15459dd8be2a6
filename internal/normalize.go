package internal

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// NormalizeWord trims, NFC-normalizes and case-folds word so that dictionary keys
// and lookups agree regardless of the case or composition they arrive in.
//
// A Caser is stateful, so a fresh one is built per call.
func NormalizeWord(word string) string {
	word = strings.TrimSpace(word)
	if word == "" {
		return ""
	}
	return cases.Fold().String(norm.NFC.String(word))
}
