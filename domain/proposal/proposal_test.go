package proposal

import (
	"testing"

	"granttrack/domain/core"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func TestParseAmount(t *testing.T) {
	tests := []struct {
		raw   string
		want  string
		valid bool
		err   bool
	}{
		{"$12,500.00", "12500", true, false},
		{" 300 ", "300", true, false},
		{"1 000 USD", "1000", true, false},
		{"", "", false, false},
		{"   ", "", false, false},
		{"about 5k", "", false, true},
	}

	for _, tt := range tests {
		got, err := ParseAmount(tt.raw)
		if tt.err {
			assert.ErrorIs(t, err, core.ErrInvalidAmount, tt.raw)
			continue
		}
		require.NoError(t, err, tt.raw)
		assert.Equal(t, tt.valid, got.Valid, tt.raw)
		if tt.valid {
			assert.True(t, got.Decimal.Equal(decimal.RequireFromString(tt.want)), tt.raw)
		}
	}

	assert.False(t, LooseAmount("n/a").Valid)
}

func TestParseFundingStatus(t *testing.T) {
	for raw, want := range map[string]FundingStatus{
		"Fully":     FundingFully,
		" partial ": FundingPartial,
		"NONE":      FundingNone,
		"":          FundingEmpty,
	} {
		got, err := ParseFundingStatus(raw)
		require.NoError(t, err, raw)
		assert.Equal(t, want, got, raw)
	}

	_, err := ParseFundingStatus("maybe")
	assert.ErrorIs(t, err, core.ErrInvalidFundingStatus)
	assert.True(t, core.IsValidationError(err))
}

func TestSameIdentity(t *testing.T) {
	assert.True(t, SameIdentity(" Garden Project", "garden project "))
	assert.False(t, SameIdentity("", ""))
	assert.False(t, SameIdentity("Garden", "Gardens"))
}

func TestDatasetIdentities(t *testing.T) {
	ds, err := NewDataset("Spring", []string{"Project Name", "Lead"}, []Row{
		{Cells: map[string]string{"Project Name": "Mural", "Lead": "A"}},
		{Cells: map[string]string{"Project Name": " mural ", "Lead": "B"}},
		{Cells: map[string]string{"Project Name": "", "Lead": "C"}},
		{Cells: map[string]string{"Project Name": "Zine", "Lead": "D"}, Hidden: true},
	})
	require.NoError(t, err)

	assert.Empty(t, ds.Identities(), "no match column yet")

	ds.MatchColumn = "Project Name"
	assert.Equal(t, []string{"Mural"}, ds.Identities())
	assert.Equal(t, []string{"Mural", "Zine"}, ds.AllIdentities())

	row, ok := ds.RowFor("MURAL")
	require.True(t, ok)
	assert.Equal(t, "A", row.Value("Lead"))

	_, ok = ds.RowFor("")
	assert.False(t, ok)
}

func TestRowForPrefersVisibleRows(t *testing.T) {
	ds, err := NewDataset("Spring", []string{"Project Name", "Lead"}, []Row{
		{Cells: map[string]string{"Project Name": "Mural", "Lead": "old"}, Hidden: true},
		{Cells: map[string]string{"Project Name": "Mural", "Lead": "new"}},
		{Cells: map[string]string{"Project Name": "Zine", "Lead": "first"}, Hidden: true},
		{Cells: map[string]string{"Project Name": "Zine", "Lead": "second"}, Hidden: true},
	})
	require.NoError(t, err)
	ds.MatchColumn = "Project Name"

	row, ok := ds.RowFor("mural")
	require.True(t, ok)
	assert.Equal(t, "new", row.Value("Lead"))

	row, ok = ds.RowFor("Zine")
	require.True(t, ok)
	assert.Equal(t, "first", row.Value("Lead"))
}

func TestNewDatasetRejectsBadHeaders(t *testing.T) {
	_, err := NewDataset("x", []string{"A", " "}, nil)
	assert.ErrorIs(t, err, core.ErrUnknownHeader)

	_, err = NewDataset("x", []string{"A", "A "}, nil)
	assert.ErrorIs(t, err, core.ErrUnknownHeader)
}

func TestMetaPatch(t *testing.T) {
	m := NewMeta()
	m.GivenAmounts["Mural"] = decimal.NewNullDecimal(decimal.NewFromInt(100))

	patch := MetaPatch{
		GivenAmount:   strPtr("$250"),
		FundingStatus: strPtr("Partial"),
		DueDate:       strPtr("2025-03-15"),
		Note:          strPtr("Needs **budget** detail\n"),
	}
	require.False(t, patch.IsEmpty())
	parsed, err := patch.Parse()
	require.NoError(t, err)

	m.Apply("mural", parsed)
	assert.Len(t, m.GivenAmounts, 1, "case variants collapse to one entry")
	assert.True(t, m.Given("MURAL").Decimal.Equal(decimal.NewFromInt(250)))
	assert.Equal(t, FundingPartial, m.Funding("Mural"))
	assert.Equal(t, "2025-03-15", m.DueDate("Mural").String())
	assert.Equal(t, "Needs **budget** detail", m.Note("mural"))

	cleared, err := MetaPatch{GivenAmount: strPtr(""), FundingStatus: strPtr("")}.Parse()
	require.NoError(t, err)
	m.Apply("Mural", cleared)
	assert.False(t, m.Given("Mural").Valid)
	assert.Equal(t, FundingEmpty, m.Funding("Mural"))
	assert.Equal(t, "Needs **budget** detail", m.Note("Mural"), "untouched fields survive")

	_, err = MetaPatch{DueDate: strPtr("next week")}.Parse()
	assert.ErrorIs(t, err, core.ErrInvalidDate)

	var nilMeta *Meta
	assert.Equal(t, "", nilMeta.Note("Mural"))
	assert.True(t, MetaPatch{}.IsEmpty())
}

func TestAssignmentMap(t *testing.T) {
	a := AssignmentMap{}
	a.Set(" Mural ", []string{"Ana", " ana", "", "Ben"})
	assert.Equal(t, []string{"Ana", "Ben"}, a.Reviewers("mural"))

	clone := a.Clone()
	clone["Mural"][0] = "Zed"
	assert.Equal(t, "Ana", a.Reviewers("Mural")[0])
}

func TestApprovedToggle(t *testing.T) {
	var list ApprovedList
	list, approved := list.Toggle(ApprovedRecord{ProjectIdentity: "Mural"})
	assert.True(t, approved)
	assert.True(t, list.Has("mural"))

	list, approved = list.Toggle(ApprovedRecord{ProjectIdentity: " MURAL"})
	assert.False(t, approved)
	assert.Empty(t, list)
}
