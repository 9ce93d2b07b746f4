package status

import (
	"testing"

	"granttrack/domain/proposal"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func sub(identity, thoughts string) proposal.Submission {
	return proposal.Submission{ProjectIdentity: identity, ReviewerName: "r", OverallThoughts: thoughts}
}

func TestClassifyPriority(t *testing.T) {
	given := decimal.NewNullDecimal(decimal.NewFromInt(500))

	tests := []struct {
		name  string
		facts Facts
		want  proposal.Status
	}{
		{
			name:  "approval beats everything",
			facts: Facts{Approved: true, Funding: proposal.FundingPartial},
			want:  proposal.StatusApproved,
		},
		{
			name:  "no reviewers",
			facts: Facts{Funding: proposal.FundingFully},
			want:  proposal.StatusUnassigned,
		},
		{
			name: "every reviewer has written",
			facts: Facts{
				Reviewers:   []string{"Ana", "Ben"},
				Submissions: []proposal.Submission{sub("P", "great"), {ProjectIdentity: "P", LineItems: "cut travel"}},
			},
			want: proposal.StatusReadyForReview,
		},
		{
			name: "blank submissions do not count",
			facts: Facts{
				Reviewers:   []string{"Ana", "Ben"},
				Submissions: []proposal.Submission{sub("P", "great"), sub("P", "  \n")},
			},
			want: proposal.StatusUnderReview,
		},
		{
			name: "given amount blocks ready for review",
			facts: Facts{
				Reviewers:   []string{"Ana"},
				Given:       given,
				Submissions: []proposal.Submission{sub("P", "ok")},
			},
			want: proposal.StatusUnderReview,
		},
		{
			name: "funding decision recorded",
			facts: Facts{
				Reviewers:   []string{"Ana"},
				Funding:     proposal.FundingNone,
				Submissions: []proposal.Submission{sub("P", "ok")},
			},
			want: proposal.StatusWaitingApproval,
		},
		{
			name:  "default",
			facts: Facts{Reviewers: []string{"Ana"}},
			want:  proposal.StatusUnderReview,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.facts))
		})
	}
}

func TestClassifyIsIdempotent(t *testing.T) {
	f := Facts{Reviewers: []string{"Ana"}, Submissions: []proposal.Submission{sub("P", "x")}}
	first := Classify(f)
	assert.Equal(t, first, Classify(f))
}

func TestGatherJoinsByIdentity(t *testing.T) {
	assignments := proposal.AssignmentMap{"Mural": {"Ana", "Ben"}}
	meta := proposal.NewMeta()
	meta.FundingStatuses["mural"] = proposal.FundingFully
	subs := []proposal.Submission{sub("MURAL ", "good"), sub("Zine", "other")}
	approved := proposal.ApprovedList{{ProjectIdentity: "Zine"}}

	f := Gather(" mural", assignments, meta, subs, approved)
	assert.Equal(t, "mural", f.Identity)
	assert.Equal(t, []string{"Ana", "Ben"}, f.Reviewers)
	assert.Equal(t, proposal.FundingFully, f.Funding)
	assert.Len(t, f.Submissions, 1)
	assert.False(t, f.Approved)
	assert.Equal(t, proposal.StatusWaitingApproval, Classify(f))

	assert.Equal(t, proposal.StatusApproved, Classify(Gather("zine", assignments, nil, subs, approved)))
}

func TestTally(t *testing.T) {
	got := Tally([]proposal.Status{proposal.StatusApproved, proposal.StatusApproved, proposal.StatusUnassigned})
	assert.Equal(t, 2, got[proposal.StatusApproved])
	assert.Equal(t, 1, got[proposal.StatusUnassigned])
	assert.Equal(t, 0, got[proposal.StatusUnderReview])
	assert.Len(t, got, len(proposal.AllStatuses))
}
