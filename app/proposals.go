package app

import (
	"context"

	"granttrack/domain/core"
	"granttrack/domain/proposal"
	"granttrack/internal/crosscycle"
	apperrors "granttrack/internal/errors"
	"granttrack/internal/speedtype"
)

// UpdateProposalField validates and saves an incremental edit of one proposal's meta
func (s *TrackerService) UpdateProposalField(ctx context.Context, id core.DatasetID, identity string, patch proposal.MetaPatch) (*proposal.Meta, error) {
	if patch.IsEmpty() {
		return nil, apperrors.InvalidInput("patch has no fields")
	}
	parsed, err := patch.Parse()
	if err != nil {
		return nil, apperrors.Classify(err)
	}

	var meta *proposal.Meta
	err = s.withDataset(id, func() error {
		ds, err := s.GetDataset(ctx, id)
		if err != nil {
			return err
		}
		if _, err := requireRow(ds, identity); err != nil {
			return err
		}
		if err := s.repos.Meta.SaveField(ctx, id, proposal.Identity(identity), parsed); err != nil {
			return err
		}
		meta, err = s.repos.Meta.Load(ctx, id)
		return err
	})
	return meta, err
}

// ApprovalResult reports the state of a proposal after a toggle
type ApprovalResult struct {
	Identity string                   `json:"identity"`
	Approved bool                     `json:"approved"`
	Record   *proposal.ApprovedRecord `json:"record,omitempty"`
}

// ToggleApproval approves a proposal that is not approved and revokes one that is.
// A new record is filled from the row, the proposal's meta and the code extractor.
func (s *TrackerService) ToggleApproval(ctx context.Context, id core.DatasetID, identity string) (*ApprovalResult, error) {
	var result *ApprovalResult
	err := s.withDataset(id, func() error {
		st, err := s.loadState(ctx, id)
		if err != nil {
			return err
		}
		row, err := requireRow(st.dataset, identity)
		if err != nil {
			return err
		}
		identity = st.dataset.Identity(row)

		rec := proposal.ApprovedRecord{ProjectIdentity: identity}
		if !st.approved.Has(identity) {
			rec = s.approvedRecord(st, row, identity)
		}
		list, approved := st.approved.Toggle(rec)
		if err := s.repos.Approved.Save(ctx, id, list); err != nil {
			return err
		}

		s.metrics.ApprovalToggled(approved)
		result = &ApprovalResult{Identity: identity, Approved: approved}
		if approved {
			result.Record = &rec
			s.logger.Info("approved %q in dataset %s (code=%q)", identity, id, rec.Code)
		} else {
			s.logger.Info("revoked approval of %q in dataset %s", identity, id)
		}
		return nil
	})
	return result, err
}

func (s *TrackerService) approvedRecord(st *boardState, row proposal.Row, identity string) proposal.ApprovedRecord {
	ds := st.dataset
	requested, _ := crosscycle.RequestedAmount(row, ds.Headers)
	code := speedtype.Extract(speedtype.Input{Headers: ds.Headers, Row: row, Column: ds.CodeColumn})
	if code.Code != "" {
		s.metrics.CodeExtracted(string(code.Source))
	}
	return proposal.ApprovedRecord{
		ProjectIdentity: identity,
		RequestedAmount: requested,
		GivenAmount:     st.meta.Given(identity),
		FundingStatus:   st.meta.Funding(identity),
		Notes:           st.meta.Note(identity),
		Code:            code.Code,
		ApprovedAt:      s.now(),
	}
}

// ExtractCode finds the validated speedtype code of one proposal
func (s *TrackerService) ExtractCode(ctx context.Context, id core.DatasetID, identity string) (speedtype.Result, error) {
	ds, err := s.GetDataset(ctx, id)
	if err != nil {
		return speedtype.Result{}, err
	}
	row, err := requireRow(ds, identity)
	if err != nil {
		return speedtype.Result{}, err
	}
	approved, err := s.repos.Approved.Load(ctx, id)
	if err != nil {
		return speedtype.Result{}, err
	}

	in := speedtype.Input{Headers: ds.Headers, Row: row, Column: ds.CodeColumn}
	if rec, ok := approved.Find(identity); ok {
		in.Approved = &rec
	}
	res := speedtype.Extract(in)
	if res.Code != "" {
		s.metrics.CodeExtracted(string(res.Source))
	}
	return res, nil
}

// ApprovedList returns the dataset's approved records in approval order
func (s *TrackerService) ApprovedList(ctx context.Context, id core.DatasetID) (proposal.ApprovedList, error) {
	if _, err := s.GetDataset(ctx, id); err != nil {
		return nil, err
	}
	return s.repos.Approved.Load(ctx, id)
}

// FindCrossCycleMatches searches every other dataset for proposals resembling identity
func (s *TrackerService) FindCrossCycleMatches(ctx context.Context, id core.DatasetID, identity string) (crosscycle.Result, error) {
	if _, err := s.GetDataset(ctx, id); err != nil {
		return crosscycle.Result{}, err
	}
	cycles, err := s.repos.Datasets.List(ctx)
	if err != nil {
		return crosscycle.Result{}, err
	}

	result, err := s.matcher.Find(ctx, identity, id, cycles)
	if err != nil {
		s.logger.Error("cross-cycle search for %q failed: %v", identity, err)
		return crosscycle.Result{}, err
	}
	s.metrics.CrossCycleSearch(string(result.Status))
	if result.Ambiguous {
		s.logger.Warn("cross-cycle search for %q is ambiguous: %d candidates", identity, len(result.Candidates))
	}
	return result, nil
}
