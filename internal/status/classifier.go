// Package status derives a proposal's workflow state from the data joined to it.
package status

import (
	"strings"

	"granttrack/domain/proposal"

	"github.com/shopspring/decimal"
)

// Facts is everything the classifier needs to know about one proposal
type Facts struct {
	Identity    string
	Reviewers   []string
	Given       decimal.NullDecimal
	Funding     proposal.FundingStatus
	Submissions []proposal.Submission
	Approved    bool
}

// Gather joins a proposal identity to the per-dataset maps. Only submissions
// whose identity equals identity are kept.
func Gather(identity string, assignments proposal.AssignmentMap, meta *proposal.Meta,
	submissions []proposal.Submission, approved proposal.ApprovedList) Facts {
	f := Facts{
		Identity:  proposal.Identity(identity),
		Reviewers: proposal.DedupeNames(assignments.Reviewers(identity)),
		Given:     meta.Given(identity),
		Funding:   meta.Funding(identity),
		Approved:  approved.Has(identity),
	}
	for _, s := range submissions {
		if proposal.SameIdentity(s.ProjectIdentity, identity) {
			f.Submissions = append(f.Submissions, s)
		}
	}
	return f
}

// IsSubstantive reports whether a submission carries any written feedback
func IsSubstantive(s proposal.Submission) bool {
	return strings.TrimSpace(s.OverallThoughts) != "" ||
		strings.TrimSpace(s.LineItems) != "" ||
		strings.TrimSpace(s.FundingRecommendation) != ""
}

// SubstantiveCount counts the substantive submissions in f
func (f Facts) SubstantiveCount() int {
	n := 0
	for _, s := range f.Submissions {
		if IsSubstantive(s) {
			n++
		}
	}
	return n
}

// Classify returns the first matching status in priority order:
// approved, unassigned, ready for review, waiting approval, under review.
func Classify(f Facts) proposal.Status {
	switch {
	case f.Approved:
		return proposal.StatusApproved
	case len(f.Reviewers) == 0:
		return proposal.StatusUnassigned
	case !f.Given.Valid && f.Funding == proposal.FundingEmpty && f.SubstantiveCount() >= len(f.Reviewers):
		return proposal.StatusReadyForReview
	case f.Funding != proposal.FundingEmpty:
		return proposal.StatusWaitingApproval
	default:
		return proposal.StatusUnderReview
	}
}

// Tally counts statuses across a board; every status has an entry
func Tally(statuses []proposal.Status) map[proposal.Status]int {
	out := make(map[proposal.Status]int, len(proposal.AllStatuses))
	for _, s := range proposal.AllStatuses {
		out[s] = 0
	}
	for _, s := range statuses {
		out[s]++
	}
	return out
}
