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
)

// datasetRepository implements the DatasetRepository interface
type datasetRepository struct {
	db *sqlx.DB
}

// NewDatasetRepository creates a new dataset repository
func NewDatasetRepository(db *sqlx.DB) ports.DatasetRepository {
	return &datasetRepository{db: db}
}

// datasetRow is the datasets table layout; slices and history live in JSONB
type datasetRow struct {
	ID                core.DatasetID `db:"id"`
	Name              string         `db:"name"`
	Headers           []byte         `db:"headers"`
	Rows              []byte         `db:"rows"`
	MatchColumn       string         `db:"match_column"`
	MatchColumnLocked bool           `db:"match_column_locked"`
	CodeColumn        string         `db:"code_column"`
	ColumnHistory     []byte         `db:"column_history"`
	CreatedAt         time.Time      `db:"created_at"`
	UpdatedAt         time.Time      `db:"updated_at"`
}

const datasetColumns = `id, name, headers, rows, match_column, match_column_locked,
	code_column, column_history, created_at, updated_at`

// Get retrieves a dataset by its ID
func (r *datasetRepository) Get(ctx context.Context, id core.DatasetID) (*proposal.Dataset, error) {
	var row datasetRow
	err := r.db.GetContext(ctx, &row, `SELECT `+datasetColumns+` FROM datasets WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", core.ErrDatasetNotFound, id)
		}
		return nil, fmt.Errorf("failed to get dataset: %w", err)
	}
	return row.toDomain()
}

// List retrieves every dataset, newest first
func (r *datasetRepository) List(ctx context.Context) ([]*proposal.Dataset, error) {
	var rows []datasetRow
	err := r.db.SelectContext(ctx, &rows, `SELECT `+datasetColumns+` FROM datasets ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query datasets: %w", err)
	}

	datasets := make([]*proposal.Dataset, 0, len(rows))
	for _, row := range rows {
		ds, err := row.toDomain()
		if err != nil {
			return nil, err
		}
		datasets = append(datasets, ds)
	}
	return datasets, nil
}

// Save inserts the dataset or replaces the stored copy
func (r *datasetRepository) Save(ctx context.Context, ds *proposal.Dataset) error {
	row, err := datasetRowFrom(ds)
	if err != nil {
		return err
	}

	_, err = r.db.NamedExecContext(ctx, `
		INSERT INTO datasets (`+datasetColumns+`)
		VALUES (:id, :name, :headers, :rows, :match_column, :match_column_locked,
			:code_column, :column_history, :created_at, :updated_at)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			headers = EXCLUDED.headers,
			rows = EXCLUDED.rows,
			match_column = EXCLUDED.match_column,
			match_column_locked = EXCLUDED.match_column_locked,
			code_column = EXCLUDED.code_column,
			column_history = EXCLUDED.column_history,
			updated_at = EXCLUDED.updated_at
	`, row)
	if err != nil {
		return fmt.Errorf("failed to save dataset: %w", err)
	}
	return nil
}

// Delete removes a dataset; dependent tables cascade
func (r *datasetRepository) Delete(ctx context.Context, id core.DatasetID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM datasets WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete dataset: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("%w: %s", core.ErrDatasetNotFound, id)
	}
	return nil
}

func datasetRowFrom(ds *proposal.Dataset) (datasetRow, error) {
	headers, err := json.Marshal(ds.Headers)
	if err != nil {
		return datasetRow{}, fmt.Errorf("failed to marshal headers: %w", err)
	}
	rows, err := json.Marshal(ds.Rows)
	if err != nil {
		return datasetRow{}, fmt.Errorf("failed to marshal rows: %w", err)
	}
	history, err := json.Marshal(ds.ColumnHistory)
	if err != nil {
		return datasetRow{}, fmt.Errorf("failed to marshal column history: %w", err)
	}

	updated := ds.UpdatedAt
	if updated.IsZero() {
		updated = time.Now().UTC()
	}
	created := ds.CreatedAt
	if created.IsZero() {
		created = updated
	}

	return datasetRow{
		ID:                ds.ID,
		Name:              ds.Name,
		Headers:           headers,
		Rows:              rows,
		MatchColumn:       ds.MatchColumn,
		MatchColumnLocked: ds.MatchColumnLocked,
		CodeColumn:        ds.CodeColumn,
		ColumnHistory:     history,
		CreatedAt:         created,
		UpdatedAt:         updated,
	}, nil
}

func (row datasetRow) toDomain() (*proposal.Dataset, error) {
	ds := &proposal.Dataset{
		ID:                row.ID,
		Name:              row.Name,
		MatchColumn:       row.MatchColumn,
		MatchColumnLocked: row.MatchColumnLocked,
		CodeColumn:        row.CodeColumn,
		CreatedAt:         row.CreatedAt,
		UpdatedAt:         row.UpdatedAt,
	}
	if err := unmarshalJSONB(row.Headers, &ds.Headers); err != nil {
		return nil, fmt.Errorf("failed to unmarshal headers: %w", err)
	}
	if err := unmarshalJSONB(row.Rows, &ds.Rows); err != nil {
		return nil, fmt.Errorf("failed to unmarshal rows: %w", err)
	}
	if err := unmarshalJSONB(row.ColumnHistory, &ds.ColumnHistory); err != nil {
		return nil, fmt.Errorf("failed to unmarshal column history: %w", err)
	}
	return ds, nil
}

func unmarshalJSONB(data []byte, v interface{}) error {
	if len(data) == 0 {
		return nil
	}
	return json.Unmarshal(data, v)
}
