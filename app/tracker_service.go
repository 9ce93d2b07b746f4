package app

import (
	"context"
	"strings"
	"time"

	"granttrack/domain/core"
	"granttrack/domain/proposal"
	"granttrack/internal"
	"granttrack/internal/columns"
	"granttrack/internal/config"
	"granttrack/internal/crosscycle"
	apperrors "granttrack/internal/errors"
	"granttrack/internal/metrics"
	"granttrack/ports"
)

// TrackerOptions tune the engines the service drives
type TrackerOptions struct {
	Columns          columns.Options
	MatchThreshold   float64
	MatchConcurrency int
	DefaultK         int
	RotateTies       bool
}

// DefaultTrackerOptions mirrors the configuration defaults
func DefaultTrackerOptions() TrackerOptions {
	return TrackerOptions{
		Columns:          columns.DefaultOptions(),
		MatchThreshold:   crosscycle.DefaultThreshold,
		MatchConcurrency: 4,
		DefaultK:         2,
		RotateTies:       true,
	}
}

// OptionsFromConfig builds TrackerOptions from loaded configuration
func OptionsFromConfig(cfg *config.Config) TrackerOptions {
	opts := DefaultTrackerOptions()
	opts.Columns.HintBonus = cfg.Columns.HintBonus
	opts.Columns.FilePenalty = cfg.Columns.FilePenalty
	opts.Columns.FalsePositiveRatio = cfg.Columns.FalsePositiveRatio
	opts.MatchThreshold = cfg.Matching.Threshold
	opts.MatchConcurrency = cfg.Matching.Concurrency
	opts.DefaultK = cfg.Balancer.DefaultReviewersPerProposal
	opts.RotateTies = cfg.Balancer.RotateTies
	return opts
}

// TrackerService orchestrates the tracker engines over the repositories.
// Engines stay pure; this service loads their inputs, persists their outputs
// and keeps writers to one dataset from racing.
type TrackerService struct {
	repos   ports.Repositories
	opts    TrackerOptions
	matcher *crosscycle.Matcher
	metrics *metrics.Recorder
	logger  *internal.Logger
	locks   *datasetLocks
	now     func() time.Time
}

// NewTrackerService creates a tracker service. A nil recorder or logger gets a default.
func NewTrackerService(repos ports.Repositories, opts TrackerOptions, recorder *metrics.Recorder, logger *internal.Logger) *TrackerService {
	if recorder == nil {
		recorder = metrics.NewRecorder()
	}
	if logger == nil {
		logger = internal.DefaultLogger
	}
	logger = logger.Component("TrackerService")
	return &TrackerService{
		repos: repos,
		opts:  opts,
		matcher: crosscycle.NewMatcher(repos.Meta, crosscycle.Options{
			Threshold:   opts.MatchThreshold,
			Concurrency: opts.MatchConcurrency,
		}, logger),
		metrics: recorder,
		logger:  logger,
		locks:   newDatasetLocks(),
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Metrics returns the recorder the service counts into
func (s *TrackerService) Metrics() *metrics.Recorder {
	return s.metrics
}

// withDataset runs fn while holding the dataset's write lock
func (s *TrackerService) withDataset(id core.DatasetID, fn func() error) error {
	release, ok := s.locks.tryLock(id)
	if !ok {
		return apperrors.Busy("dataset " + id.String())
	}
	defer release()
	return fn()
}

// ImportResult is a stored upload and the column chosen for it
type ImportResult struct {
	Dataset   *proposal.Dataset `json:"dataset"`
	Inference columns.Inference `json:"inference"`
}

// ImportDataset stores a freshly read dataset after inferring and locking its match column
func (s *TrackerService) ImportDataset(ctx context.Context, ds *proposal.Dataset) (*ImportResult, error) {
	inf, err := columns.Infer(ds.Headers, ds.Rows, nil, s.opts.Columns)
	if err != nil {
		return nil, apperrors.Classify(err)
	}
	if _, err := columns.Record(ds, inf, s.now()); err != nil {
		return nil, apperrors.Classify(err)
	}
	ds.UpdatedAt = s.now()
	if err := s.repos.Datasets.Save(ctx, ds); err != nil {
		return nil, err
	}

	s.metrics.ColumnInferred(string(inf.Confidence))
	s.logger.Info("imported dataset %s (%q): %d rows, match column %q (confidence=%s)",
		ds.ID, ds.Name, len(ds.Rows), inf.Column, inf.Confidence)
	return &ImportResult{Dataset: ds, Inference: inf}, nil
}

// ReplaceResult is a dataset after its data was replaced
type ReplaceResult struct {
	Dataset    *proposal.Dataset  `json:"dataset"`
	Reinferred bool               `json:"reinferred"`
	Inference  *columns.Inference `json:"inference,omitempty"`
}

// ReplaceData swaps the headers and rows of dataset id for those of upload,
// keeping its ID, name and column history. The match column is kept while it
// still exists; otherwise the loss is recorded and the column inferred again.
func (s *TrackerService) ReplaceData(ctx context.Context, id core.DatasetID, upload *proposal.Dataset) (*ReplaceResult, error) {
	if upload == nil || len(upload.Headers) == 0 {
		return nil, apperrors.Classify(core.ErrNoMatchColumn)
	}

	var result *ReplaceResult
	err := s.withDataset(id, func() error {
		ds, err := s.GetDataset(ctx, id)
		if err != nil {
			return err
		}
		now := s.now()
		previous := ds.MatchColumn
		ds.Headers = upload.Headers
		ds.Rows = upload.Rows
		if ds.CodeColumn != "" && !ds.HasHeader(ds.CodeColumn) {
			s.logger.Warn("dataset %s: code column %q is gone after replacement", id, ds.CodeColumn)
			ds.CodeColumn = ""
		}

		result = &ReplaceResult{Dataset: ds}
		missing := columns.MarkMissing(ds, now)
		if ds.MatchColumn == "" {
			known, err := s.knownIdentities(ctx, id)
			if err != nil {
				return err
			}
			inf, err := columns.Infer(ds.Headers, ds.Rows, known, s.opts.Columns)
			if err != nil {
				return apperrors.Classify(err)
			}
			if _, err := columns.Record(ds, inf, now); err != nil {
				return apperrors.Classify(err)
			}
			s.metrics.ColumnInferred(string(inf.Confidence))
			if missing {
				s.logger.Warn("dataset %s: match column %q missing from replaced data, inferred %q (confidence=%s)",
					id, previous, inf.Column, inf.Confidence)
			}
			result.Reinferred = true
			result.Inference = &inf
		}

		ds.UpdatedAt = now
		if err := s.repos.Datasets.Save(ctx, ds); err != nil {
			return err
		}
		s.logger.Info("replaced data of dataset %s: %d rows, match column %q", id, len(ds.Rows), ds.MatchColumn)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// knownIdentities lists the project identities the dataset's submissions use
func (s *TrackerService) knownIdentities(ctx context.Context, id core.DatasetID) ([]string, error) {
	subs, err := s.repos.Submissions.ListByDataset(ctx, id)
	if err != nil {
		return nil, err
	}
	known := make([]string, 0, len(subs))
	for _, sub := range subs {
		known = append(known, sub.ProjectIdentity)
	}
	return known, nil
}

// GetDataset loads one dataset
func (s *TrackerService) GetDataset(ctx context.Context, id core.DatasetID) (*proposal.Dataset, error) {
	ds, err := s.repos.Datasets.Get(ctx, id)
	if err != nil {
		return nil, apperrors.Classify(err)
	}
	return ds, nil
}

// ListDatasets lists every dataset, newest first
func (s *TrackerService) ListDatasets(ctx context.Context) ([]*proposal.Dataset, error) {
	return s.repos.Datasets.List(ctx)
}

// DeleteDataset removes a dataset and everything joined to it
func (s *TrackerService) DeleteDataset(ctx context.Context, id core.DatasetID) error {
	return s.withDataset(id, func() error {
		if err := s.repos.Datasets.Delete(ctx, id); err != nil {
			return apperrors.Classify(err)
		}
		s.logger.Info("deleted dataset %s", id)
		return nil
	})
}

// InferMatchColumn scores the dataset's headers, boosted by identities that
// submissions already use. The result is recorded and locked unless a locked
// column is already in place; the inference is returned either way.
func (s *TrackerService) InferMatchColumn(ctx context.Context, id core.DatasetID) (columns.Inference, error) {
	var inf columns.Inference
	err := s.withDataset(id, func() error {
		ds, err := s.GetDataset(ctx, id)
		if err != nil {
			return err
		}
		known, err := s.knownIdentities(ctx, id)
		if err != nil {
			return err
		}

		inf, err = columns.Infer(ds.Headers, ds.Rows, known, s.opts.Columns)
		if err != nil {
			return apperrors.Classify(err)
		}
		s.metrics.ColumnInferred(string(inf.Confidence))

		changed, err := columns.Record(ds, inf, s.now())
		if err != nil {
			return apperrors.Classify(err)
		}
		if !changed {
			s.logger.Debug("dataset %s keeps locked match column %q", id, ds.MatchColumn)
			return nil
		}
		ds.UpdatedAt = s.now()
		if err := s.repos.Datasets.Save(ctx, ds); err != nil {
			return err
		}
		if inf.Ambiguous() {
			s.logger.Warn("dataset %s: match column %q chosen with low confidence (fallback=%q)", id, inf.Column, inf.Fallback)
		}
		return nil
	})
	return inf, err
}

// SetMatchColumn selects and locks header. Replacing a locked column needs confirm.
func (s *TrackerService) SetMatchColumn(ctx context.Context, id core.DatasetID, header string, confirm bool) (*proposal.Dataset, error) {
	return s.mutateDataset(ctx, id, func(ds *proposal.Dataset) error {
		return columns.Select(ds, strings.TrimSpace(header), columns.SelectOptions{
			ConfirmUnlock: confirm,
			Lock:          true,
			Kind:          proposal.ColumnSelected,
			At:            s.now(),
		})
	})
}

// SetColumnLocked locks or unlocks the match column. Unlocking needs confirm.
func (s *TrackerService) SetColumnLocked(ctx context.Context, id core.DatasetID, locked, confirm bool) (*proposal.Dataset, error) {
	return s.mutateDataset(ctx, id, func(ds *proposal.Dataset) error {
		return columns.SetLocked(ds, locked, confirm, s.now())
	})
}

// SetCodeColumn maps the column the code extractor reads first; "" clears it
func (s *TrackerService) SetCodeColumn(ctx context.Context, id core.DatasetID, header string) (*proposal.Dataset, error) {
	return s.mutateDataset(ctx, id, func(ds *proposal.Dataset) error {
		header = strings.TrimSpace(header)
		if header != "" && !ds.HasHeader(header) {
			return core.ErrUnknownHeader
		}
		ds.CodeColumn = header
		return nil
	})
}

func (s *TrackerService) mutateDataset(ctx context.Context, id core.DatasetID, fn func(ds *proposal.Dataset) error) (*proposal.Dataset, error) {
	var out *proposal.Dataset
	err := s.withDataset(id, func() error {
		ds, err := s.GetDataset(ctx, id)
		if err != nil {
			return err
		}
		if err := fn(ds); err != nil {
			return apperrors.Classify(err)
		}
		ds.UpdatedAt = s.now()
		if err := s.repos.Datasets.Save(ctx, ds); err != nil {
			return err
		}
		out = ds
		return nil
	})
	return out, err
}

// requireRow resolves identity to its row in ds
func requireRow(ds *proposal.Dataset, identity string) (proposal.Row, error) {
	if ds.MatchColumn == "" {
		return proposal.Row{}, apperrors.Classify(core.ErrNoMatchColumn)
	}
	if proposal.Key(identity) == "" {
		return proposal.Row{}, apperrors.Classify(core.ErrEmptyIdentity)
	}
	row, ok := ds.RowFor(identity)
	if !ok {
		return proposal.Row{}, apperrors.NotFound("proposal "+proposal.Identity(identity), core.ErrProposalNotFound)
	}
	return row, nil
}
