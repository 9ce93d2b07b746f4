package ports

import (
	"context"

	"granttrack/domain/core"
	"granttrack/domain/proposal"
)

// DatasetRepository defines storage for uploaded datasets (one per funding cycle)
type DatasetRepository interface {
	Get(ctx context.Context, id core.DatasetID) (*proposal.Dataset, error)
	// List returns every dataset, newest first, rows included
	List(ctx context.Context) ([]*proposal.Dataset, error)
	// Save inserts or replaces the dataset with the same ID
	Save(ctx context.Context, ds *proposal.Dataset) error
	Delete(ctx context.Context, id core.DatasetID) error
}
