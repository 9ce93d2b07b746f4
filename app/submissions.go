package app

import (
	"context"
	"strings"

	"granttrack/domain/core"
	"granttrack/domain/proposal"
	apperrors "granttrack/internal/errors"
)

// SubmissionInput is a reviewer's write-up as entered
type SubmissionInput struct {
	ProjectIdentity       string `json:"project_identity" validate:"required"`
	ReviewerName          string `json:"reviewer_name" validate:"required"`
	OverallThoughts       string `json:"overall_thoughts"`
	LineItems             string `json:"line_items"`
	FundingRecommendation string `json:"funding_recommendation"`
}

func (in SubmissionInput) toSubmission(id core.SubmissionID, datasetID core.DatasetID) (*proposal.Submission, error) {
	identity := proposal.Identity(in.ProjectIdentity)
	if identity == "" {
		return nil, apperrors.Classify(core.ErrEmptyIdentity)
	}
	reviewer := strings.TrimSpace(in.ReviewerName)
	if reviewer == "" {
		return nil, apperrors.InvalidInput("reviewer name is required")
	}
	return &proposal.Submission{
		ID:                    id,
		DatasetID:             datasetID,
		ProjectIdentity:       identity,
		ReviewerName:          reviewer,
		OverallThoughts:       in.OverallThoughts,
		LineItems:             in.LineItems,
		FundingRecommendation: in.FundingRecommendation,
	}, nil
}

// ListSubmissions returns the dataset's submissions
func (s *TrackerService) ListSubmissions(ctx context.Context, id core.DatasetID) ([]proposal.Submission, error) {
	if _, err := s.GetDataset(ctx, id); err != nil {
		return nil, err
	}
	return s.repos.Submissions.ListByDataset(ctx, id)
}

// CreateSubmission records a new reviewer submission
func (s *TrackerService) CreateSubmission(ctx context.Context, id core.DatasetID, in SubmissionInput) (*proposal.Submission, error) {
	sub, err := in.toSubmission(core.NewSubmissionID(), id)
	if err != nil {
		return nil, err
	}
	sub.Timestamp = s.now()

	err = s.withDataset(id, func() error {
		if _, err := s.GetDataset(ctx, id); err != nil {
			return err
		}
		return s.repos.Submissions.Create(ctx, sub)
	})
	if err != nil {
		return nil, err
	}
	s.logger.Debug("submission %s by %q for %q", sub.ID, sub.ReviewerName, sub.ProjectIdentity)
	return sub, nil
}

// ReplaceSubmission overwrites the submission with subID. A submission of
// another dataset is reported as not found.
func (s *TrackerService) ReplaceSubmission(ctx context.Context, id core.DatasetID, subID core.SubmissionID, in SubmissionInput) (*proposal.Submission, error) {
	sub, err := in.toSubmission(subID, id)
	if err != nil {
		return nil, err
	}
	sub.Timestamp = s.now()

	err = s.withDataset(id, func() error {
		if _, err := s.GetDataset(ctx, id); err != nil {
			return err
		}
		if err := s.repos.Submissions.Replace(ctx, sub); err != nil {
			return apperrors.Classify(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return sub, nil
}

// DeleteSubmission removes the submission with subID from dataset id
func (s *TrackerService) DeleteSubmission(ctx context.Context, id core.DatasetID, subID core.SubmissionID) error {
	return s.withDataset(id, func() error {
		if _, err := s.GetDataset(ctx, id); err != nil {
			return err
		}
		return apperrors.Classify(s.repos.Submissions.Delete(ctx, id, subID))
	})
}
