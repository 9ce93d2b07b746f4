package ports

import (
	"context"

	"granttrack/domain/core"
	"granttrack/domain/proposal"
)

// SubmissionRepository stores reviewer submissions. Submissions are never
// edited in place: they are replaced or deleted by ID, and only within the
// dataset they were created in.
type SubmissionRepository interface {
	ListByDataset(ctx context.Context, datasetID core.DatasetID) ([]proposal.Submission, error)
	Create(ctx context.Context, s *proposal.Submission) error
	// Replace overwrites the submission with s.ID if it belongs to s.DatasetID
	Replace(ctx context.Context, s *proposal.Submission) error
	Delete(ctx context.Context, datasetID core.DatasetID, id core.SubmissionID) error
}

// AssignmentRepository stores a dataset's reviewer assignments
type AssignmentRepository interface {
	Load(ctx context.Context, datasetID core.DatasetID) (proposal.AssignmentMap, error)
	// Save replaces the entries for every identity in m; other identities are kept
	Save(ctx context.Context, datasetID core.DatasetID, m proposal.AssignmentMap) error
}

// MetaRepository stores the per-proposal fields an admin edits
type MetaRepository interface {
	Load(ctx context.Context, datasetID core.DatasetID) (*proposal.Meta, error)
	SaveField(ctx context.Context, datasetID core.DatasetID, identity string, patch proposal.ParsedMetaPatch) error
	// SaveDueDates writes all due dates in one transaction
	SaveDueDates(ctx context.Context, datasetID core.DatasetID, dates map[string]core.Date) error
}

// ApprovedRepository stores the approved list of a dataset
type ApprovedRepository interface {
	Load(ctx context.Context, datasetID core.DatasetID) (proposal.ApprovedList, error)
	// Save replaces the whole list
	Save(ctx context.Context, datasetID core.DatasetID, list proposal.ApprovedList) error
}

// SettingsRepository remembers per-dataset defaults
type SettingsRepository interface {
	// LoadBalancerDefaults returns zero defaults when none were saved
	LoadBalancerDefaults(ctx context.Context, datasetID core.DatasetID) (proposal.BalancerDefaults, error)
	SaveBalancerDefaults(ctx context.Context, datasetID core.DatasetID, d proposal.BalancerDefaults) error
}

// PlanRepository persists a balancer run
type PlanRepository interface {
	// SavePlan writes assignments, due dates and defaults together; on error none are written
	SavePlan(ctx context.Context, datasetID core.DatasetID, plan proposal.SavedPlan) error
}

// Repositories bundles every store the tracker needs
type Repositories struct {
	Datasets    DatasetRepository
	Submissions SubmissionRepository
	Assignments AssignmentRepository
	Meta        MetaRepository
	Approved    ApprovedRepository
	Settings    SettingsRepository
	Plans       PlanRepository
}
