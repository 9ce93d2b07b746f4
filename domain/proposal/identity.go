package proposal

import "strings"

// Identity canonicalizes a raw match-column value
func Identity(raw string) string {
	return strings.TrimSpace(raw)
}

// Key is the join key for identity equality: trimmed and case-folded
func Key(identity string) string {
	return strings.ToLower(strings.TrimSpace(identity))
}

// SameIdentity reports whether a and b name the same proposal
func SameIdentity(a, b string) bool {
	ka := Key(a)
	return ka != "" && ka == Key(b)
}
