// Package util provides small text helpers shared across packages.
package util

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// Slugify converts a label to its catalog slug. Two labels with the same slug
// name the same tag.
//
// Accented letters fold to their base letter, letters and digits are kept in
// lower case, and every other run of characters becomes a single dash:
//
//	"Low risk"      → "low-risk"
//	"Café Launch"   → "cafe-launch"
//	"Q3 / OKRs!"    → "q3-okrs"
//	"  --Ship--  "  → "ship"
func Slugify(label string) string {
	var b strings.Builder
	b.Grow(len(label))

	pendingDash := false
	for _, r := range norm.NFKD.String(label) {
		switch {
		case unicode.Is(unicode.Mn, r):
			// Combining marks left over from decomposition.
			continue
		case r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)):
			if pendingDash && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingDash = false
			b.WriteRune(unicode.ToLower(r))
		default:
			pendingDash = true
		}
	}
	return b.String()
}
