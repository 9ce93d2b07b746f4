package crosscycle

import (
	"context"
	"errors"
	"testing"

	"granttrack/domain/core"
	"granttrack/domain/proposal"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockMetaLoader struct {
	mock.Mock
}

func (m *mockMetaLoader) Load(ctx context.Context, datasetID core.DatasetID) (*proposal.Meta, error) {
	args := m.Called(ctx, datasetID)
	if meta := args.Get(0); meta != nil {
		return meta.(*proposal.Meta), args.Error(1)
	}
	return nil, args.Error(1)
}

func cycle(t *testing.T, name string, rows ...map[string]string) *proposal.Dataset {
	t.Helper()
	headers := []string{"Project Name", "Amount Requested", "Proposal Link"}
	var rs []proposal.Row
	for _, cells := range rows {
		rs = append(rs, proposal.Row{Cells: cells})
	}
	ds, err := proposal.NewDataset(name, headers, rs)
	require.NoError(t, err)
	ds.MatchColumn = "Project Name"
	return ds
}

func TestMatchRanksExactFirst(t *testing.T) {
	active := cycle(t, "2025", map[string]string{"Project Name": "Community Garden"})
	y2023 := cycle(t, "2023",
		map[string]string{"Project Name": "Community Garden Expansion", "Amount Requested": "$1,000"},
		map[string]string{"Project Name": "Bike Clinic"},
	)
	y2024 := cycle(t, "2024",
		map[string]string{"Project Name": "community garden!", "Amount Requested": "2500", "Proposal Link": "https://forms.example/24"},
	)

	got := Match("Community Garden", active.ID, []*proposal.Dataset{active, y2023, y2024}, 0.6)
	require.Len(t, got, 2)
	assert.Equal(t, "2024", got[0].DatasetName)
	assert.InDelta(t, 1.0, got[0].Score, 1e-9)
	assert.True(t, got[0].Exact)
	assert.Equal(t, "https://forms.example/24", got[0].Link)
	assert.True(t, got[0].Requested.Decimal.Equal(decimal.NewFromInt(2500)))
	assert.InDelta(t, 2.0/3.0, got[1].Score, 1e-9)

	assert.Len(t, Match("Community Garden", active.ID, []*proposal.Dataset{y2023}, DefaultThreshold), 0)
}

func TestReorderedTokensAreNotExact(t *testing.T) {
	active := cycle(t, "2025", map[string]string{"Project Name": "Community Garden"})
	y2020 := cycle(t, "2020", map[string]string{"Project Name": "Garden Community"})
	y2024 := cycle(t, "2024", map[string]string{"Project Name": "community garden"})

	got := Match("Community Garden", active.ID, []*proposal.Dataset{y2020, y2024}, DefaultThreshold)
	require.Len(t, got, 2)
	assert.Equal(t, "2024", got[0].DatasetName)
	assert.True(t, got[0].Exact)
	assert.InDelta(t, 1.0, got[1].Score, 1e-9)
	assert.False(t, got[1].Exact)

	loader := new(mockMetaLoader)
	loader.On("Load", mock.Anything, y2020.ID).Return(proposal.NewMeta(), nil)
	res, err := NewMatcher(loader, Options{Threshold: DefaultThreshold, Concurrency: 1}, nil).
		Find(context.Background(), "Community Garden", active.ID, []*proposal.Dataset{active, y2020})
	require.NoError(t, err)
	require.Len(t, res.Candidates, 1)
	assert.False(t, res.Candidates[0].Exact)
	assert.True(t, res.Ambiguous)
}

func TestFindEnrichesWithMeta(t *testing.T) {
	active := cycle(t, "2025", map[string]string{"Project Name": "Mural Walk"})
	y2023 := cycle(t, "2023", map[string]string{"Project Name": "Mural Walk", "Amount Requested": "800"})
	y2024 := cycle(t, "2024",
		map[string]string{"Project Name": "mural walk", "Amount Requested": "1200"},
		map[string]string{"Project Name": "Walk Mural", "Amount Requested": "50"},
	)
	other := cycle(t, "2022", map[string]string{"Project Name": "Zine Library"})

	meta23 := proposal.NewMeta()
	meta23.GivenAmounts["Mural Walk"] = decimal.NewNullDecimal(decimal.NewFromInt(600))
	meta23.FundingStatuses["Mural Walk"] = proposal.FundingPartial
	meta24 := proposal.NewMeta()
	meta24.GivenAmounts["Mural Walk"] = decimal.NewNullDecimal(decimal.NewFromInt(1200))

	loader := new(mockMetaLoader)
	loader.On("Load", mock.Anything, y2023.ID).Return(meta23, nil).Once()
	loader.On("Load", mock.Anything, y2024.ID).Return(meta24, nil).Once()

	m := NewMatcher(loader, Options{Threshold: 0.7, Concurrency: 2}, nil)
	res, err := m.Find(context.Background(), "Mural Walk", active.ID, []*proposal.Dataset{active, y2023, y2024, other})
	require.NoError(t, err)
	loader.AssertExpectations(t)

	assert.Equal(t, StatusMatched, res.Status)
	assert.Equal(t, 3, res.Searched)
	require.Len(t, res.Candidates, 3)
	assert.Equal(t, "2023", res.Candidates[0].DatasetName)
	assert.Equal(t, proposal.FundingPartial, res.Candidates[0].FundingStatus)
	assert.True(t, res.Totals.Requested.Equal(decimal.NewFromInt(2050)))
	assert.True(t, res.Totals.Given.Equal(decimal.NewFromInt(1800)))
	assert.True(t, res.Ambiguous, "2024 holds two candidates")
}

func TestFindStatuses(t *testing.T) {
	loader := new(mockMetaLoader)
	m := NewMatcher(loader, Options{}, nil)
	other := cycle(t, "2023", map[string]string{"Project Name": "Bike Clinic"})

	res, err := m.Find(context.Background(), "  !! ", core.DatasetID("a"), []*proposal.Dataset{other})
	require.NoError(t, err)
	assert.Equal(t, StatusNoIdentity, res.Status)
	assert.Zero(t, res.Searched)

	res, err = m.Find(context.Background(), "Mural Walk", core.DatasetID("a"), []*proposal.Dataset{other})
	require.NoError(t, err)
	assert.Equal(t, StatusNoMatches, res.Status)
	assert.Equal(t, 1, res.Searched)
	assert.NotNil(t, res.Candidates)

	loader.AssertNotCalled(t, "Load", mock.Anything, mock.Anything)
}

func TestFindPropagatesLoadErrors(t *testing.T) {
	active := cycle(t, "2025", map[string]string{"Project Name": "Mural"})
	y2023 := cycle(t, "2023", map[string]string{"Project Name": "Mural"})
	boom := errors.New("connection reset")

	loader := new(mockMetaLoader)
	loader.On("Load", mock.Anything, y2023.ID).Return(nil, boom)

	_, err := NewMatcher(loader, Options{}, nil).Find(context.Background(), "Mural", active.ID, []*proposal.Dataset{active, y2023})
	assert.ErrorIs(t, err, boom)
}

func TestRequestedAmountTiers(t *testing.T) {
	headers := []string{"Budget Total", "Request Notes", "Requested Amount"}
	row := proposal.Row{Cells: map[string]string{
		"Budget Total":     "900",
		"Request Notes":    "about $500",
		"Requested Amount": "$750.50",
	}}
	amount, header := RequestedAmount(row, headers)
	assert.Equal(t, "Requested Amount", header)
	assert.True(t, amount.Decimal.Equal(decimal.RequireFromString("750.50")))

	row.Cells["Requested Amount"] = ""
	amount, header = RequestedAmount(row, headers)
	assert.Equal(t, "Budget Total", header, "unparseable request notes are skipped")
	assert.True(t, amount.Decimal.Equal(decimal.NewFromInt(900)))

	amount, header = RequestedAmount(proposal.Row{}, headers)
	assert.False(t, amount.Valid)
	assert.Empty(t, header)
}

func TestProposalLink(t *testing.T) {
	headers := []string{"Project Name", "Website URL"}
	row := proposal.Row{
		Cells: map[string]string{"Project Name": "Mural", "Website URL": "https://mural.example"},
		Links: map[string]string{"Project Name": "https://docs.example/mural"},
	}
	assert.Equal(t, "https://docs.example/mural", ProposalLink(row, headers, "Project Name"))

	row.Links = nil
	assert.Equal(t, "https://mural.example", ProposalLink(row, headers, "Project Name"))
}
