// Package normalize canonicalizes user-entered tag and action names.
package normalize

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// Name trims the input, collapses runs of whitespace to a single space, and
// applies NFC so visually identical names compare equal byte-for-byte.
func Name(s string) string {
	return norm.NFC.String(strings.Join(strings.Fields(s), " "))
}

// Key returns the case-folded form of Name, used for duplicate detection.
// "Morning  Walk" and "morning walk" share a key; display keeps the original casing.
func Key(s string) string {
	return cases.Fold().String(Name(s))
}

// SameName reports whether two names collide under Key.
func SameName(a, b string) bool {
	return Key(a) == Key(b)
}
