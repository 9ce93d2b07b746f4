package migration

import (
	"context"

	"granttrack/internal/errors"

	"github.com/jmoiron/sqlx"
)

// Migrator defines the interface for database migration operations
type Migrator interface {
	Run(ctx context.Context, db *sqlx.DB) error
	Version() string
}

// MigrationRunner handles database schema migrations
type MigrationRunner struct {
	version string
}

// NewRunner creates a new migration runner
func NewRunner() *MigrationRunner {
	return &MigrationRunner{
		version: "1.0.0",
	}
}

// Version returns the migration version
func (r *MigrationRunner) Version() string {
	return r.version
}

type step struct {
	name string
	sql  string
}

// steps lists the schema statements in the order Run applies them
func (r *MigrationRunner) steps() []step {
	return []step{
		{"datasets table", createDatasetsTable},
		{"submissions table", createSubmissionsTable},
		{"assignments table", createAssignmentsTable},
		{"proposal_meta table", createProposalMetaTable},
		{"approved_records table", createApprovedRecordsTable},
		{"balancer_defaults table", createBalancerDefaultsTable},
		{"indexes", createIndexes},
	}
}

// Run executes all database migrations in the correct order, in one
// transaction, so a failed step leaves the schema as it was
func (r *MigrationRunner) Run(ctx context.Context, db *sqlx.DB) error {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "failed to begin migration transaction")
	}
	for _, s := range r.steps() {
		if _, err := tx.ExecContext(ctx, s.sql); err != nil {
			_ = tx.Rollback()
			return errors.Wrapf(err, "failed to create %s", s.name)
		}
	}
	if err := tx.Commit(); err != nil {
		return errors.Wrap(err, "failed to commit migrations")
	}
	return nil
}

const createDatasetsTable = `
	CREATE TABLE IF NOT EXISTS datasets (
		id UUID PRIMARY KEY,
		name VARCHAR(255) NOT NULL,
		headers JSONB NOT NULL DEFAULT '[]',
		rows JSONB NOT NULL DEFAULT '[]',
		match_column TEXT NOT NULL DEFAULT '',
		match_column_locked BOOLEAN NOT NULL DEFAULT false,
		code_column TEXT NOT NULL DEFAULT '',
		column_history JSONB NOT NULL DEFAULT '[]',
		created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
		updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
	)`

const createSubmissionsTable = `
	CREATE TABLE IF NOT EXISTS submissions (
		id UUID PRIMARY KEY,
		dataset_id UUID NOT NULL REFERENCES datasets(id) ON DELETE CASCADE,
		project_identity TEXT NOT NULL,
		reviewer_name TEXT NOT NULL DEFAULT '',
		submitted_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
		overall_thoughts TEXT NOT NULL DEFAULT '',
		line_items TEXT NOT NULL DEFAULT '',
		funding_recommendation TEXT NOT NULL DEFAULT ''
	)`

// identity_key is the trimmed, lowercased identity so joins match the domain's identity equality
const createAssignmentsTable = `
	CREATE TABLE IF NOT EXISTS assignments (
		dataset_id UUID NOT NULL REFERENCES datasets(id) ON DELETE CASCADE,
		identity_key TEXT NOT NULL,
		identity TEXT NOT NULL,
		reviewers JSONB NOT NULL DEFAULT '[]',
		updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
		PRIMARY KEY (dataset_id, identity_key)
	)`

const createProposalMetaTable = `
	CREATE TABLE IF NOT EXISTS proposal_meta (
		dataset_id UUID NOT NULL REFERENCES datasets(id) ON DELETE CASCADE,
		identity_key TEXT NOT NULL,
		identity TEXT NOT NULL,
		given_amount NUMERIC(14,2),
		funding_status VARCHAR(16) NOT NULL DEFAULT ''
			CHECK (funding_status IN ('', 'none', 'partial', 'fully')),
		due_date DATE,
		note TEXT NOT NULL DEFAULT '',
		updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
		PRIMARY KEY (dataset_id, identity_key)
	)`

const createApprovedRecordsTable = `
	CREATE TABLE IF NOT EXISTS approved_records (
		dataset_id UUID NOT NULL REFERENCES datasets(id) ON DELETE CASCADE,
		position INTEGER NOT NULL,
		project_identity TEXT NOT NULL,
		requested_amount NUMERIC(14,2),
		given_amount NUMERIC(14,2),
		funding_status VARCHAR(16) NOT NULL DEFAULT '',
		notes TEXT NOT NULL DEFAULT '',
		code VARCHAR(8) NOT NULL DEFAULT '',
		approved_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
		PRIMARY KEY (dataset_id, position)
	)`

const createBalancerDefaultsTable = `
	CREATE TABLE IF NOT EXISTS balancer_defaults (
		dataset_id UUID PRIMARY KEY REFERENCES datasets(id) ON DELETE CASCADE,
		dates JSONB NOT NULL DEFAULT '[]',
		pool JSONB NOT NULL DEFAULT '[]',
		k INTEGER NOT NULL DEFAULT 0,
		updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
	)`

const createIndexes = `
	CREATE INDEX IF NOT EXISTS idx_submissions_dataset ON submissions(dataset_id, submitted_at);
	CREATE INDEX IF NOT EXISTS idx_datasets_created ON datasets(created_at DESC);
	CREATE UNIQUE INDEX IF NOT EXISTS idx_approved_identity
		ON approved_records(dataset_id, lower(trim(project_identity)))`
