package proposal

import (
	"strings"

	"granttrack/domain/core"
)

// AssignmentMap maps proposal identity to its reviewers in assignment order
type AssignmentMap map[string][]string

// Reviewers returns the reviewers assigned to identity
func (a AssignmentMap) Reviewers(identity string) []string {
	v, _ := lookup(a, identity)
	return v
}

// Set replaces identity's reviewers, dropping blanks and duplicates
func (a AssignmentMap) Set(identity string, reviewers []string) {
	a[Identity(identity)] = DedupeNames(reviewers)
}

// Clone returns a deep copy
func (a AssignmentMap) Clone() AssignmentMap {
	out := make(AssignmentMap, len(a))
	for k, v := range a {
		out[k] = append([]string(nil), v...)
	}
	return out
}

// DedupeNames trims names and removes blanks and case-insensitive duplicates, keeping first occurrence
func DedupeNames(names []string) []string {
	out := make([]string, 0, len(names))
	seen := make(map[string]bool, len(names))
	for _, n := range names {
		n = strings.TrimSpace(n)
		if n == "" || seen[strings.ToLower(n)] {
			continue
		}
		seen[strings.ToLower(n)] = true
		out = append(out, n)
	}
	return out
}

// BalancerDefaults remembers the inputs of the last successful balancer run
type BalancerDefaults struct {
	Dates []core.Date `json:"dates"`
	Pool  []string    `json:"pool"`
	K     int         `json:"k"`
}

// IsZero reports whether no run has been remembered
func (d BalancerDefaults) IsZero() bool {
	return len(d.Dates) == 0 && len(d.Pool) == 0 && d.K == 0
}

// SavedPlan is everything one balancer run writes
type SavedPlan struct {
	Assignments AssignmentMap
	DueDates    map[string]core.Date
	Defaults    BalancerDefaults
}
