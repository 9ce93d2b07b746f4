package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"granttrack/domain/core"
	"granttrack/domain/proposal"
	"granttrack/ports"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
)

// NewRepositories wires every tracker repository to db
func NewRepositories(db *sqlx.DB) ports.Repositories {
	return ports.Repositories{
		Datasets:    NewDatasetRepository(db),
		Submissions: NewSubmissionRepository(db),
		Assignments: &assignmentRepository{db: db},
		Meta:        &metaRepository{db: db},
		Approved:    &approvedRepository{db: db},
		Settings:    &settingsRepository{db: db},
		Plans:       &planRepository{db: db},
	}
}

func expectOne(result sql.Result, notFound error) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return notFound
	}
	return nil
}

// withTx runs fn in a transaction, rolling back when fn fails
func withTx(ctx context.Context, db *sqlx.DB, fn func(tx *sqlx.Tx) error) error {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

type assignmentRepository struct {
	db *sqlx.DB
}

func (r *assignmentRepository) Load(ctx context.Context, datasetID core.DatasetID) (proposal.AssignmentMap, error) {
	var rows []struct {
		Identity  string `db:"identity"`
		Reviewers []byte `db:"reviewers"`
	}
	err := r.db.SelectContext(ctx, &rows, `SELECT identity, reviewers FROM assignments WHERE dataset_id = $1`, datasetID)
	if err != nil {
		return nil, fmt.Errorf("failed to load assignments: %w", err)
	}

	out := make(proposal.AssignmentMap, len(rows))
	for _, row := range rows {
		var reviewers []string
		if err := unmarshalJSONB(row.Reviewers, &reviewers); err != nil {
			return nil, fmt.Errorf("failed to unmarshal reviewers: %w", err)
		}
		out.Set(row.Identity, reviewers)
	}
	return out, nil
}

func (r *assignmentRepository) Save(ctx context.Context, datasetID core.DatasetID, m proposal.AssignmentMap) error {
	return withTx(ctx, r.db, func(tx *sqlx.Tx) error {
		return saveAssignments(ctx, tx, datasetID, m)
	})
}

func saveAssignments(ctx context.Context, tx *sqlx.Tx, datasetID core.DatasetID, m proposal.AssignmentMap) error {
	for identity, reviewers := range m {
		payload, err := json.Marshal(proposal.DedupeNames(reviewers))
		if err != nil {
			return fmt.Errorf("failed to marshal reviewers: %w", err)
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO assignments (dataset_id, identity_key, identity, reviewers, updated_at)
			VALUES ($1, $2, $3, $4, NOW())
			ON CONFLICT (dataset_id, identity_key) DO UPDATE SET
				identity = EXCLUDED.identity,
				reviewers = EXCLUDED.reviewers,
				updated_at = NOW()
		`, datasetID, proposal.Key(identity), proposal.Identity(identity), payload)
		if err != nil {
			return fmt.Errorf("failed to save assignment for %q: %w", identity, err)
		}
	}
	return nil
}

type metaRepository struct {
	db *sqlx.DB
}

type metaRow struct {
	Identity      string              `db:"identity"`
	GivenAmount   decimal.NullDecimal `db:"given_amount"`
	FundingStatus string              `db:"funding_status"`
	DueDate       core.Date           `db:"due_date"`
	Note          string              `db:"note"`
}

func (r *metaRepository) Load(ctx context.Context, datasetID core.DatasetID) (*proposal.Meta, error) {
	var rows []metaRow
	err := r.db.SelectContext(ctx, &rows, `
		SELECT identity, given_amount, funding_status, due_date, note
		FROM proposal_meta WHERE dataset_id = $1
	`, datasetID)
	if err != nil {
		return nil, fmt.Errorf("failed to load proposal meta: %w", err)
	}

	meta := proposal.NewMeta()
	for _, row := range rows {
		if row.GivenAmount.Valid {
			meta.GivenAmounts[row.Identity] = row.GivenAmount
		}
		if row.FundingStatus != "" {
			meta.FundingStatuses[row.Identity] = proposal.FundingStatus(row.FundingStatus)
		}
		if !row.DueDate.IsZero() {
			meta.DueDates[row.Identity] = row.DueDate
		}
		if row.Note != "" {
			meta.Notes[row.Identity] = row.Note
		}
	}
	return meta, nil
}

// SaveField upserts only the columns present in patch
func (r *metaRepository) SaveField(ctx context.Context, datasetID core.DatasetID, identity string, patch proposal.ParsedMetaPatch) error {
	return withTx(ctx, r.db, func(tx *sqlx.Tx) error {
		if err := ensureMetaRow(ctx, tx, datasetID, identity); err != nil {
			return err
		}

		key := proposal.Key(identity)
		var err error
		if patch.GivenAmount != nil {
			_, err = tx.ExecContext(ctx, `UPDATE proposal_meta SET given_amount = $3, updated_at = NOW() WHERE dataset_id = $1 AND identity_key = $2`,
				datasetID, key, *patch.GivenAmount)
			if err != nil {
				return fmt.Errorf("failed to save given amount: %w", err)
			}
		}
		if patch.FundingStatus != nil {
			_, err = tx.ExecContext(ctx, `UPDATE proposal_meta SET funding_status = $3, updated_at = NOW() WHERE dataset_id = $1 AND identity_key = $2`,
				datasetID, key, string(*patch.FundingStatus))
			if err != nil {
				return fmt.Errorf("failed to save funding status: %w", err)
			}
		}
		if patch.DueDate != nil {
			_, err = tx.ExecContext(ctx, `UPDATE proposal_meta SET due_date = $3, updated_at = NOW() WHERE dataset_id = $1 AND identity_key = $2`,
				datasetID, key, *patch.DueDate)
			if err != nil {
				return fmt.Errorf("failed to save due date: %w", err)
			}
		}
		if patch.Note != nil {
			_, err = tx.ExecContext(ctx, `UPDATE proposal_meta SET note = $3, updated_at = NOW() WHERE dataset_id = $1 AND identity_key = $2`,
				datasetID, key, *patch.Note)
			if err != nil {
				return fmt.Errorf("failed to save note: %w", err)
			}
		}
		return nil
	})
}

// SaveDueDates writes every due date in one transaction
func (r *metaRepository) SaveDueDates(ctx context.Context, datasetID core.DatasetID, dates map[string]core.Date) error {
	return withTx(ctx, r.db, func(tx *sqlx.Tx) error {
		return saveDueDates(ctx, tx, datasetID, dates)
	})
}

func saveDueDates(ctx context.Context, tx *sqlx.Tx, datasetID core.DatasetID, dates map[string]core.Date) error {
	for identity, d := range dates {
		if err := ensureMetaRow(ctx, tx, datasetID, identity); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx, `UPDATE proposal_meta SET due_date = $3, updated_at = NOW() WHERE dataset_id = $1 AND identity_key = $2`,
			datasetID, proposal.Key(identity), d)
		if err != nil {
			return fmt.Errorf("failed to save due date for %q: %w", identity, err)
		}
	}
	return nil
}

func ensureMetaRow(ctx context.Context, tx *sqlx.Tx, datasetID core.DatasetID, identity string) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO proposal_meta (dataset_id, identity_key, identity)
		VALUES ($1, $2, $3)
		ON CONFLICT (dataset_id, identity_key) DO NOTHING
	`, datasetID, proposal.Key(identity), proposal.Identity(identity))
	if err != nil {
		return fmt.Errorf("failed to create proposal meta row: %w", err)
	}
	return nil
}

type approvedRepository struct {
	db *sqlx.DB
}

type approvedRow struct {
	Position        int                 `db:"position"`
	ProjectIdentity string              `db:"project_identity"`
	RequestedAmount decimal.NullDecimal `db:"requested_amount"`
	GivenAmount     decimal.NullDecimal `db:"given_amount"`
	FundingStatus   string              `db:"funding_status"`
	Notes           string              `db:"notes"`
	Code            string              `db:"code"`
	ApprovedAt      time.Time           `db:"approved_at"`
}

func (r *approvedRepository) Load(ctx context.Context, datasetID core.DatasetID) (proposal.ApprovedList, error) {
	var rows []approvedRow
	err := r.db.SelectContext(ctx, &rows, `
		SELECT position, project_identity, requested_amount, given_amount,
		       funding_status, notes, code, approved_at
		FROM approved_records WHERE dataset_id = $1 ORDER BY position
	`, datasetID)
	if err != nil {
		return nil, fmt.Errorf("failed to load approved records: %w", err)
	}

	list := make(proposal.ApprovedList, 0, len(rows))
	for _, row := range rows {
		list = append(list, proposal.ApprovedRecord{
			ProjectIdentity: row.ProjectIdentity,
			RequestedAmount: row.RequestedAmount,
			GivenAmount:     row.GivenAmount,
			FundingStatus:   proposal.FundingStatus(row.FundingStatus),
			Notes:           row.Notes,
			Code:            row.Code,
			ApprovedAt:      row.ApprovedAt,
		})
	}
	return list, nil
}

// Save replaces the approved list in one transaction
func (r *approvedRepository) Save(ctx context.Context, datasetID core.DatasetID, list proposal.ApprovedList) error {
	return withTx(ctx, r.db, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM approved_records WHERE dataset_id = $1`, datasetID); err != nil {
			return fmt.Errorf("failed to clear approved records: %w", err)
		}
		for i, rec := range list {
			approvedAt := rec.ApprovedAt
			if approvedAt.IsZero() {
				approvedAt = time.Now().UTC()
			}
			_, err := tx.ExecContext(ctx, `
				INSERT INTO approved_records (
					dataset_id, position, project_identity, requested_amount, given_amount,
					funding_status, notes, code, approved_at
				) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			`, datasetID, i, rec.ProjectIdentity, rec.RequestedAmount, rec.GivenAmount,
				string(rec.FundingStatus), rec.Notes, rec.Code, approvedAt)
			if err != nil {
				return fmt.Errorf("failed to save approved record %q: %w", rec.ProjectIdentity, err)
			}
		}
		return nil
	})
}

type settingsRepository struct {
	db *sqlx.DB
}

func (r *settingsRepository) LoadBalancerDefaults(ctx context.Context, datasetID core.DatasetID) (proposal.BalancerDefaults, error) {
	var row struct {
		Dates []byte `db:"dates"`
		Pool  []byte `db:"pool"`
		K     int    `db:"k"`
	}
	err := r.db.GetContext(ctx, &row, `SELECT dates, pool, k FROM balancer_defaults WHERE dataset_id = $1`, datasetID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return proposal.BalancerDefaults{}, nil
		}
		return proposal.BalancerDefaults{}, fmt.Errorf("failed to load balancer defaults: %w", err)
	}

	d := proposal.BalancerDefaults{K: row.K}
	if err := unmarshalJSONB(row.Dates, &d.Dates); err != nil {
		return proposal.BalancerDefaults{}, fmt.Errorf("failed to unmarshal dates: %w", err)
	}
	if err := unmarshalJSONB(row.Pool, &d.Pool); err != nil {
		return proposal.BalancerDefaults{}, fmt.Errorf("failed to unmarshal pool: %w", err)
	}
	return d, nil
}

func (r *settingsRepository) SaveBalancerDefaults(ctx context.Context, datasetID core.DatasetID, d proposal.BalancerDefaults) error {
	return saveBalancerDefaults(ctx, r.db, datasetID, d)
}

func saveBalancerDefaults(ctx context.Context, ex sqlx.ExecerContext, datasetID core.DatasetID, d proposal.BalancerDefaults) error {
	dates, err := json.Marshal(d.Dates)
	if err != nil {
		return fmt.Errorf("failed to marshal dates: %w", err)
	}
	pool, err := json.Marshal(d.Pool)
	if err != nil {
		return fmt.Errorf("failed to marshal pool: %w", err)
	}

	_, err = ex.ExecContext(ctx, `
		INSERT INTO balancer_defaults (dataset_id, dates, pool, k, updated_at)
		VALUES ($1, $2, $3, $4, NOW())
		ON CONFLICT (dataset_id) DO UPDATE SET
			dates = EXCLUDED.dates, pool = EXCLUDED.pool, k = EXCLUDED.k, updated_at = NOW()
	`, datasetID, dates, pool, d.K)
	if err != nil {
		return fmt.Errorf("failed to save balancer defaults: %w", err)
	}
	return nil
}

type planRepository struct {
	db *sqlx.DB
}

// SavePlan writes a balancer run in one transaction
func (r *planRepository) SavePlan(ctx context.Context, datasetID core.DatasetID, plan proposal.SavedPlan) error {
	return withTx(ctx, r.db, func(tx *sqlx.Tx) error {
		if err := saveAssignments(ctx, tx, datasetID, plan.Assignments); err != nil {
			return err
		}
		if err := saveDueDates(ctx, tx, datasetID, plan.DueDates); err != nil {
			return err
		}
		return saveBalancerDefaults(ctx, tx, datasetID, plan.Defaults)
	})
}
