package columns

import (
	"fmt"
	"testing"
	"time"

	"granttrack/domain/core"
	"granttrack/domain/proposal"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rowsOf(headers []string, records ...[]string) []proposal.Row {
	rows := make([]proposal.Row, 0, len(records))
	for _, rec := range records {
		cells := make(map[string]string, len(headers))
		for i, h := range headers {
			if i < len(rec) {
				cells[h] = rec[i]
			}
		}
		rows = append(rows, proposal.Row{Cells: cells})
	}
	return rows
}

func TestInferPrefersNameLikeUniqueColumn(t *testing.T) {
	headers := []string{"Timestamp", "Department", "Proposal Title", "Budget File"}
	rows := rowsOf(headers,
		[]string{"2025-01-02", "Art", "Mural Walk", "mural.pdf"},
		[]string{"2025-01-03", "Art", "Poetry Night", "poetry.docx"},
		[]string{"2025-01-04", "Music", "Jazz Series", "https://drive.example.com/x"},
	)

	inf, err := Infer(headers, rows, nil, DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, "Proposal Title", inf.Column)
	assert.Equal(t, ConfidenceHigh, inf.Confidence)
	assert.False(t, inf.Ambiguous())
	require.Len(t, inf.Scores, 4)
	assert.InDelta(t, 1.0, inf.Scores[3].FileRatio, 1e-9)
}

func TestInferUsesKnownSubmissionIdentities(t *testing.T) {
	headers := []string{"Name", "Title"}
	rows := rowsOf(headers,
		[]string{"Alice Smith", "Garden Project"},
		[]string{"Bob Jones", "Library Zine"},
		[]string{"Cara Diaz", "Bike Repair Clinic"},
	)

	inf, err := Infer(headers, rows, []string{"garden project", "Library Zine "}, DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, "Title", inf.Column)
	assert.InDelta(t, 1.0, inf.Scores[1].SubmissionRatio, 1e-9)
	assert.InDelta(t, 0.0, inf.Scores[0].SubmissionRatio, 1e-9)
}

func TestInferCanonicalHeaderWins(t *testing.T) {
	// Any dataset whose "Project Name" column is at least 80% unique picks it.
	for n := 5; n <= 25; n += 5 {
		headers := []string{"Applicant Name", "Project Title", "Project Name", "Email"}
		records := make([][]string, 0, n)
		for i := 0; i < n; i++ {
			projectName := fmt.Sprintf("Project %d", i)
			if i == n-1 {
				projectName = "Project 0" // one duplicate keeps uniqueness >= 0.8
			}
			records = append(records, []string{
				fmt.Sprintf("Applicant %d", i),
				fmt.Sprintf("Title %d", i),
				projectName,
				fmt.Sprintf("a%d@example.org", i),
			})
		}

		inf, err := Infer(headers, rowsOf(headers, records...), nil, DefaultOptions())
		require.NoError(t, err)
		assert.Equal(t, "Project Name", inf.Column, "rows=%d", n)
	}
}

func TestInferFileLikeWinnerFallsBack(t *testing.T) {
	opts := DefaultOptions()
	opts.FilePenalty = 0 // let the attachment column win on raw score

	t.Run("canonical header present", func(t *testing.T) {
		headers := []string{"Project Attachment", "Project Name", "Notes"}
		rows := rowsOf(headers,
			[]string{"a.pdf", "Same", "x"},
			[]string{"b.pdf", "Same", "y"},
			[]string{"c.pdf", "Same", "z"},
		)
		inf, err := Infer(headers, rows, nil, opts)
		require.NoError(t, err)
		assert.Equal(t, "Project Name", inf.Column)
		assert.Equal(t, FallbackFileLike, inf.Fallback)
		assert.True(t, inf.Ambiguous())
	})

	t.Run("first low file-likeness header", func(t *testing.T) {
		headers := []string{"Upload", "Project Files", "Comments"}
		rows := rowsOf(headers,
			[]string{"https://x.example/1", "a.pdf", "ok"},
			[]string{"https://x.example/2", "b.pdf", "fine"},
		)
		inf, err := Infer(headers, rows, nil, opts)
		require.NoError(t, err)
		assert.Equal(t, "Comments", inf.Column)
		assert.Equal(t, FallbackFileLike, inf.Fallback)
	})

	t.Run("all headers file-like", func(t *testing.T) {
		headers := []string{"Upload", "Project Files"}
		rows := rowsOf(headers,
			[]string{"https://x.example/1", "a.pdf"},
			[]string{"https://x.example/2", "b.pdf"},
		)
		inf, err := Infer(headers, rows, nil, opts)
		require.NoError(t, err)
		assert.Equal(t, "Upload", inf.Column)
		assert.Equal(t, ConfidenceLow, inf.Confidence)
	})
}

func TestInferEdgeCases(t *testing.T) {
	_, err := Infer(nil, nil, nil, DefaultOptions())
	assert.ErrorIs(t, err, core.ErrNoMatchColumn)

	inf, err := Infer([]string{"Budget", "Project"}, nil, nil, DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, "Budget", inf.Column)
	assert.Equal(t, FallbackNoRows, inf.Fallback)
	assert.Empty(t, inf.Scores)
}

func TestInferFlagsCloseRunnerUp(t *testing.T) {
	headers := []string{"Project Title", "Application Title"}
	rows := rowsOf(headers,
		[]string{"A", "B"},
		[]string{"C", "D"},
	)
	inf, err := Infer(headers, rows, nil, DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, "Project Title", inf.Column, "ties go to the first header")
	assert.Equal(t, ConfidenceLow, inf.Confidence)
}

func TestSelectLockAndHistory(t *testing.T) {
	ds, err := proposal.NewDataset("2025", []string{"Project Name", "Title"}, nil)
	require.NoError(t, err)
	at := time.Date(2025, 2, 1, 12, 0, 0, 0, time.UTC)

	changed, err := Record(ds, Inference{Column: "Project Name", Confidence: ConfidenceHigh}, at)
	require.NoError(t, err)
	assert.True(t, changed)
	assert.True(t, ds.MatchColumnLocked)
	require.Len(t, ds.ColumnHistory, 1)
	assert.Equal(t, proposal.ColumnInferred, ds.ColumnHistory[0].Kind)

	changed, err = Record(ds, Inference{Column: "Title"}, at)
	require.NoError(t, err)
	assert.False(t, changed, "a locked column is not re-inferred")

	err = Select(ds, "Title", SelectOptions{Lock: true, At: at})
	assert.ErrorIs(t, err, core.ErrColumnLocked)
	assert.Equal(t, "Project Name", ds.MatchColumn)
	assert.Len(t, ds.ColumnHistory, 1, "rejected changes leave no history")

	require.NoError(t, Select(ds, "Title", SelectOptions{ConfirmUnlock: true, Lock: true, At: at}))
	assert.Equal(t, "Title", ds.MatchColumn)
	require.Len(t, ds.ColumnHistory, 2)
	assert.Equal(t, "Project Name", ds.ColumnHistory[1].Previous)
	assert.True(t, ds.ColumnHistory[1].Confirmed)

	assert.ErrorIs(t, Select(ds, "Missing", SelectOptions{ConfirmUnlock: true}), core.ErrUnknownHeader)
}

func TestSetLocked(t *testing.T) {
	ds, err := proposal.NewDataset("2025", []string{"Project Name"}, nil)
	require.NoError(t, err)

	assert.ErrorIs(t, SetLocked(ds, true, false, time.Time{}), core.ErrNoMatchColumn)

	require.NoError(t, Select(ds, "Project Name", SelectOptions{Lock: true}))
	assert.ErrorIs(t, SetLocked(ds, false, false, time.Time{}), core.ErrColumnLocked)
	require.NoError(t, SetLocked(ds, false, true, time.Time{}))
	assert.False(t, ds.MatchColumnLocked)

	last := ds.ColumnHistory[len(ds.ColumnHistory)-1]
	assert.Equal(t, proposal.ColumnUnlocked, last.Kind)
	assert.Len(t, ds.ColumnHistory, 2)
}

func TestMarkMissing(t *testing.T) {
	ds, err := proposal.NewDataset("2025", []string{"Project Name", "Budget"}, nil)
	require.NoError(t, err)
	assert.False(t, MarkMissing(ds, time.Time{}), "no column chosen yet")

	require.NoError(t, Select(ds, "Project Name", SelectOptions{Lock: true}))
	assert.False(t, MarkMissing(ds, time.Time{}))
	assert.Len(t, ds.ColumnHistory, 1)

	ds.Headers = []string{"Title", "Budget"}
	assert.True(t, MarkMissing(ds, time.Time{}))
	assert.Empty(t, ds.MatchColumn)
	assert.False(t, ds.MatchColumnLocked)
	require.Len(t, ds.ColumnHistory, 2)
	assert.Equal(t, proposal.ColumnMissing, ds.ColumnHistory[1].Kind)
	assert.Equal(t, "Project Name", ds.ColumnHistory[1].Previous)
	assert.False(t, ds.ColumnHistory[1].At.IsZero())
}
