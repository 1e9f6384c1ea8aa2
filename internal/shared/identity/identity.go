// Package identity holds the one email-ownership predicate every module
// shares. Stored emails are compared case-insensitively throughout the app;
// keeping the comparison here stops per-entity ownership checks drifting
// apart.
package identity

import "strings"

// Normalize lowercases and trims an email for storage and comparison.
func Normalize(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Match reports whether two emails identify the same person.
// Empty strings never match anything.
func Match(a, b string) bool {
	if a == "" || b == "" {
		return false
	}
	return Normalize(a) == Normalize(b)
}

// Owns reports whether requester matches any of the given owner emails.
// Entities pass whichever email-bearing fields count as ownership for them
// (purchaser, attendee, linked profile).
func Owns(requester string, ownerEmails ...string) bool {
	for _, owner := range ownerEmails {
		if Match(requester, owner) {
			return true
		}
	}
	return false
}
