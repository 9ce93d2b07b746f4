package postgres

import (
	"context"
	"fmt"

	"granttrack/domain/core"
	"granttrack/domain/proposal"
	"granttrack/ports"

	"github.com/jmoiron/sqlx"
)

type submissionRepository struct {
	db *sqlx.DB
}

// NewSubmissionRepository creates a new submission repository
func NewSubmissionRepository(db *sqlx.DB) ports.SubmissionRepository {
	return &submissionRepository{db: db}
}

// ListByDataset returns a dataset's submissions, oldest first
func (r *submissionRepository) ListByDataset(ctx context.Context, datasetID core.DatasetID) ([]proposal.Submission, error) {
	var subs []proposal.Submission
	err := r.db.SelectContext(ctx, &subs, `
		SELECT id, dataset_id, project_identity, reviewer_name, submitted_at,
		       overall_thoughts, line_items, funding_recommendation
		FROM submissions
		WHERE dataset_id = $1
		ORDER BY submitted_at, id
	`, datasetID)
	if err != nil {
		return nil, fmt.Errorf("failed to list submissions: %w", err)
	}
	return subs, nil
}

// Create inserts a submission
func (r *submissionRepository) Create(ctx context.Context, s *proposal.Submission) error {
	_, err := r.db.NamedExecContext(ctx, `
		INSERT INTO submissions (
			id, dataset_id, project_identity, reviewer_name, submitted_at,
			overall_thoughts, line_items, funding_recommendation
		) VALUES (
			:id, :dataset_id, :project_identity, :reviewer_name, :submitted_at,
			:overall_thoughts, :line_items, :funding_recommendation
		)
	`, s)
	if err != nil {
		return fmt.Errorf("failed to create submission: %w", err)
	}
	return nil
}

// Replace overwrites a submission by ID within its dataset
func (r *submissionRepository) Replace(ctx context.Context, s *proposal.Submission) error {
	result, err := r.db.NamedExecContext(ctx, `
		UPDATE submissions SET
			project_identity = :project_identity,
			reviewer_name = :reviewer_name,
			submitted_at = :submitted_at,
			overall_thoughts = :overall_thoughts,
			line_items = :line_items,
			funding_recommendation = :funding_recommendation
		WHERE id = :id AND dataset_id = :dataset_id
	`, s)
	if err != nil {
		return fmt.Errorf("failed to replace submission: %w", err)
	}
	return expectOne(result, fmt.Errorf("%w: %s", core.ErrSubmissionNotFound, s.ID))
}

// Delete removes a submission by ID within datasetID
func (r *submissionRepository) Delete(ctx context.Context, datasetID core.DatasetID, id core.SubmissionID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM submissions WHERE id = $1 AND dataset_id = $2`, id, datasetID)
	if err != nil {
		return fmt.Errorf("failed to delete submission: %w", err)
	}
	return expectOne(result, fmt.Errorf("%w: %s", core.ErrSubmissionNotFound, id))
}
