package app

import (
	"context"

	"granttrack/domain/core"
	"granttrack/domain/proposal"
	"granttrack/internal/crosscycle"
	apperrors "granttrack/internal/errors"
	"granttrack/internal/speedtype"
	"granttrack/internal/status"

	"github.com/shopspring/decimal"
)

// BoardEntry is one proposal with everything joined to it
type BoardEntry struct {
	Identity        string                 `json:"identity"`
	Status          proposal.Status        `json:"status"`
	Reviewers       []string               `json:"reviewers"`
	Submissions     int                    `json:"submissions"`
	Substantive     int                    `json:"substantive"`
	DueDate         core.Date              `json:"due_date"`
	RequestedAmount decimal.NullDecimal    `json:"requested_amount"`
	GivenAmount     decimal.NullDecimal    `json:"given_amount"`
	FundingStatus   proposal.FundingStatus `json:"funding_status"`
	Note            string                 `json:"note"`
	Code            string                 `json:"code"`
	Link            string                 `json:"link,omitempty"`
	Approved        bool                   `json:"approved"`
}

// Board is the per-proposal view of one dataset
type Board struct {
	DatasetID   core.DatasetID          `json:"dataset_id"`
	DatasetName string                  `json:"dataset_name"`
	MatchColumn string                  `json:"match_column"`
	Entries     []BoardEntry            `json:"entries"`
	Tally       map[proposal.Status]int `json:"tally"`
}

// boardState is every per-dataset collection the board joins
type boardState struct {
	dataset     *proposal.Dataset
	submissions []proposal.Submission
	assignments proposal.AssignmentMap
	meta        *proposal.Meta
	approved    proposal.ApprovedList
}

func (s *TrackerService) loadState(ctx context.Context, id core.DatasetID) (*boardState, error) {
	ds, err := s.GetDataset(ctx, id)
	if err != nil {
		return nil, err
	}
	st := &boardState{dataset: ds}
	if st.submissions, err = s.repos.Submissions.ListByDataset(ctx, id); err != nil {
		return nil, err
	}
	if st.assignments, err = s.repos.Assignments.Load(ctx, id); err != nil {
		return nil, err
	}
	if st.meta, err = s.repos.Meta.Load(ctx, id); err != nil {
		return nil, err
	}
	if st.approved, err = s.repos.Approved.Load(ctx, id); err != nil {
		return nil, err
	}
	return st, nil
}

// Board joins the visible rows of a dataset to their assignments, meta,
// submissions and approval, and classifies each proposal.
func (s *TrackerService) Board(ctx context.Context, id core.DatasetID) (*Board, error) {
	st, err := s.loadState(ctx, id)
	if err != nil {
		return nil, err
	}
	ds := st.dataset
	if ds.MatchColumn == "" {
		return nil, apperrors.Classify(core.ErrNoMatchColumn)
	}

	board := &Board{
		DatasetID:   ds.ID,
		DatasetName: ds.Name,
		MatchColumn: ds.MatchColumn,
		Entries:     []BoardEntry{},
	}
	statuses := make([]proposal.Status, 0, len(ds.Rows))
	for _, identity := range ds.Identities() {
		row, _ := ds.RowFor(identity)
		facts := status.Gather(identity, st.assignments, st.meta, st.submissions, st.approved)
		entry := BoardEntry{
			Identity:      identity,
			Status:        status.Classify(facts),
			Reviewers:     facts.Reviewers,
			Submissions:   len(facts.Submissions),
			Substantive:   facts.SubstantiveCount(),
			DueDate:       st.meta.DueDate(identity),
			GivenAmount:   facts.Given,
			FundingStatus: facts.Funding,
			Note:          st.meta.Note(identity),
			Link:          crosscycle.ProposalLink(row, ds.Headers, ds.MatchColumn),
			Approved:      facts.Approved,
		}
		if entry.Reviewers == nil {
			entry.Reviewers = []string{}
		}
		entry.RequestedAmount, _ = crosscycle.RequestedAmount(row, ds.Headers)

		in := speedtype.Input{Headers: ds.Headers, Row: row, Column: ds.CodeColumn}
		if rec, ok := st.approved.Find(identity); ok {
			in.Approved = &rec
		}
		entry.Code = speedtype.ExtractCode(in)

		board.Entries = append(board.Entries, entry)
		statuses = append(statuses, entry.Status)
	}
	board.Tally = status.Tally(statuses)
	return board, nil
}
