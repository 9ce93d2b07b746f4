package memory

import (
	"context"
	"testing"
	"time"

	"granttrack/domain/core"
	"granttrack/domain/proposal"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDatasetRoundTripIsCopied(t *testing.T) {
	ctx := context.Background()
	repos := NewStore().Repositories()

	ds, err := proposal.NewDataset("2025", []string{"Project Name"}, []proposal.Row{
		{Cells: map[string]string{"Project Name": "Mural"}},
	})
	require.NoError(t, err)
	require.NoError(t, repos.Datasets.Save(ctx, ds))

	ds.Rows[0].Cells["Project Name"] = "Changed"

	got, err := repos.Datasets.Get(ctx, ds.ID)
	require.NoError(t, err)
	assert.Equal(t, "Mural", got.Rows[0].Value("Project Name"))

	_, err = repos.Datasets.Get(ctx, core.NewDatasetID())
	assert.ErrorIs(t, err, core.ErrDatasetNotFound)
	assert.True(t, core.IsNotFoundError(err))
}

func TestDatasetListNewestFirst(t *testing.T) {
	ctx := context.Background()
	repos := NewStore().Repositories()

	older, _ := proposal.NewDataset("2024", []string{"A"}, nil)
	older.CreatedAt = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	newer, _ := proposal.NewDataset("2025", []string{"A"}, nil)
	newer.CreatedAt = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, repos.Datasets.Save(ctx, older))
	require.NoError(t, repos.Datasets.Save(ctx, newer))

	list, err := repos.Datasets.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "2025", list[0].Name)

	require.NoError(t, repos.Datasets.Delete(ctx, older.ID))
	assert.ErrorIs(t, repos.Datasets.Delete(ctx, older.ID), core.ErrDatasetNotFound)
}

func TestSubmissions(t *testing.T) {
	ctx := context.Background()
	repos := NewStore().Repositories()
	datasetID := core.NewDatasetID()

	first := &proposal.Submission{ID: core.NewSubmissionID(), DatasetID: datasetID, ProjectIdentity: "Mural", Timestamp: time.Unix(100, 0)}
	second := &proposal.Submission{ID: core.NewSubmissionID(), DatasetID: datasetID, ProjectIdentity: "Zine", Timestamp: time.Unix(50, 0)}
	require.NoError(t, repos.Submissions.Create(ctx, first))
	require.NoError(t, repos.Submissions.Create(ctx, second))

	list, err := repos.Submissions.ListByDataset(ctx, datasetID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "Zine", list[0].ProjectIdentity)

	first.OverallThoughts = "strong"
	require.NoError(t, repos.Submissions.Replace(ctx, first))
	require.NoError(t, repos.Submissions.Delete(ctx, datasetID, second.ID))

	list, err = repos.Submissions.ListByDataset(ctx, datasetID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "strong", list[0].OverallThoughts)

	assert.ErrorIs(t, repos.Submissions.Delete(ctx, datasetID, second.ID), core.ErrSubmissionNotFound)
	assert.ErrorIs(t, repos.Submissions.Replace(ctx, second), core.ErrSubmissionNotFound)
}

func TestSubmissionsStayInTheirDataset(t *testing.T) {
	ctx := context.Background()
	repos := NewStore().Repositories()
	home, other := core.NewDatasetID(), core.NewDatasetID()

	sub := &proposal.Submission{ID: core.NewSubmissionID(), DatasetID: home, ProjectIdentity: "Mural", ReviewerName: "Ana"}
	require.NoError(t, repos.Submissions.Create(ctx, sub))

	assert.ErrorIs(t, repos.Submissions.Delete(ctx, other, sub.ID), core.ErrSubmissionNotFound)
	moved := *sub
	moved.DatasetID = other
	assert.ErrorIs(t, repos.Submissions.Replace(ctx, &moved), core.ErrSubmissionNotFound)

	list, err := repos.Submissions.ListByDataset(ctx, home)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, home, list[0].DatasetID)
}

func TestSavePlanWritesEveryPart(t *testing.T) {
	ctx := context.Background()
	repos := NewStore().Repositories()
	id := core.NewDatasetID()

	require.NoError(t, repos.Plans.SavePlan(ctx, id, proposal.SavedPlan{
		Assignments: proposal.AssignmentMap{"Mural": {"Ana"}},
		DueDates:    map[string]core.Date{"Mural": core.MustParseDate("2025-03-01")},
		Defaults:    proposal.BalancerDefaults{Pool: []string{"Ana"}, K: 1},
	}))

	assigned, err := repos.Assignments.Load(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, []string{"Ana"}, assigned.Reviewers("mural"))
	meta, err := repos.Meta.Load(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "2025-03-01", meta.DueDate("Mural").String())
	d, err := repos.Settings.LoadBalancerDefaults(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 1, d.K)
}

func TestAssignmentsMergeByIdentity(t *testing.T) {
	ctx := context.Background()
	repos := NewStore().Repositories()
	id := core.NewDatasetID()

	require.NoError(t, repos.Assignments.Save(ctx, id, proposal.AssignmentMap{"Mural": {"Ana"}, "Zine": {"Ben"}}))
	require.NoError(t, repos.Assignments.Save(ctx, id, proposal.AssignmentMap{"Mural": {"Cy", "Dee"}}))

	got, err := repos.Assignments.Load(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, []string{"Cy", "Dee"}, got.Reviewers("Mural"))
	assert.Equal(t, []string{"Ben"}, got.Reviewers("Zine"))
}

func TestMetaFieldsAndDueDates(t *testing.T) {
	ctx := context.Background()
	repos := NewStore().Repositories()
	id := core.NewDatasetID()

	given := decimal.NewNullDecimal(decimal.NewFromInt(40))
	require.NoError(t, repos.Meta.SaveField(ctx, id, "Mural", proposal.ParsedMetaPatch{GivenAmount: &given}))
	require.NoError(t, repos.Meta.SaveDueDates(ctx, id, map[string]core.Date{
		"Mural": core.MustParseDate("2025-03-01"),
		"Zine":  core.MustParseDate("2025-03-15"),
	}))

	meta, err := repos.Meta.Load(ctx, id)
	require.NoError(t, err)
	assert.True(t, meta.Given("Mural").Decimal.Equal(decimal.NewFromInt(40)))
	assert.Equal(t, "2025-03-15", meta.DueDate("zine").String())

	meta.Notes["Mural"] = "local only"
	again, err := repos.Meta.Load(ctx, id)
	require.NoError(t, err)
	assert.Empty(t, again.Note("Mural"))
}

func TestApprovedAndSettings(t *testing.T) {
	ctx := context.Background()
	repos := NewStore().Repositories()
	id := core.NewDatasetID()

	require.NoError(t, repos.Approved.Save(ctx, id, proposal.ApprovedList{{ProjectIdentity: "Mural"}}))
	list, err := repos.Approved.Load(ctx, id)
	require.NoError(t, err)
	assert.True(t, list.Has("mural"))

	d, err := repos.Settings.LoadBalancerDefaults(ctx, id)
	require.NoError(t, err)
	assert.True(t, d.IsZero())

	require.NoError(t, repos.Settings.SaveBalancerDefaults(ctx, id, proposal.BalancerDefaults{Pool: []string{"Ana"}, K: 1}))
	d, err = repos.Settings.LoadBalancerDefaults(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 1, d.K)
	assert.Equal(t, []string{"Ana"}, d.Pool)
}
