// Package normalize holds the canonical string forms used for
// case-insensitive comparisons across the app.
package normalize

import "strings"

// Email returns the normalized form of an email address: surrounding
// whitespace trimmed and lower-cased.
func Email(e string) string {
	return strings.ToLower(strings.TrimSpace(e))
}

// Skill returns the normalized form of a skill name used for
// uniqueness and matching. Display casing is preserved elsewhere;
// this form is only for comparisons.
func Skill(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
