// Package memory is an in-process implementation of every tracker repository,
// used by tests and the offline CLI.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"granttrack/domain/core"
	"granttrack/domain/proposal"
	"granttrack/ports"
)

// Store holds all tracker state behind one mutex. Values are copied on the
// way in and out so callers never share maps with the store.
type Store struct {
	mu          sync.RWMutex
	datasets    map[core.DatasetID]*proposal.Dataset
	submissions map[core.SubmissionID]proposal.Submission
	assignments map[core.DatasetID]proposal.AssignmentMap
	meta        map[core.DatasetID]*proposal.Meta
	approved    map[core.DatasetID]proposal.ApprovedList
	defaults    map[core.DatasetID]proposal.BalancerDefaults
}

// NewStore creates an empty store
func NewStore() *Store {
	return &Store{
		datasets:    make(map[core.DatasetID]*proposal.Dataset),
		submissions: make(map[core.SubmissionID]proposal.Submission),
		assignments: make(map[core.DatasetID]proposal.AssignmentMap),
		meta:        make(map[core.DatasetID]*proposal.Meta),
		approved:    make(map[core.DatasetID]proposal.ApprovedList),
		defaults:    make(map[core.DatasetID]proposal.BalancerDefaults),
	}
}

// Repositories exposes the store through every port
func (s *Store) Repositories() ports.Repositories {
	return ports.Repositories{
		Datasets:    datasetRepo{s},
		Submissions: submissionRepo{s},
		Assignments: assignmentRepo{s},
		Meta:        metaRepo{s},
		Approved:    approvedRepo{s},
		Settings:    settingsRepo{s},
		Plans:       planRepo{s},
	}
}

type datasetRepo struct{ s *Store }

func (r datasetRepo) Get(ctx context.Context, id core.DatasetID) (*proposal.Dataset, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	ds, ok := r.s.datasets[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", core.ErrDatasetNotFound, id)
	}
	return cloneDataset(ds), nil
}

func (r datasetRepo) List(ctx context.Context) ([]*proposal.Dataset, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := make([]*proposal.Dataset, 0, len(r.s.datasets))
	for _, ds := range r.s.datasets {
		out = append(out, cloneDataset(ds))
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

func (r datasetRepo) Save(ctx context.Context, ds *proposal.Dataset) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.datasets[ds.ID] = cloneDataset(ds)
	return nil
}

func (r datasetRepo) Delete(ctx context.Context, id core.DatasetID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.datasets[id]; !ok {
		return fmt.Errorf("%w: %s", core.ErrDatasetNotFound, id)
	}
	delete(r.s.datasets, id)
	delete(r.s.assignments, id)
	delete(r.s.meta, id)
	delete(r.s.approved, id)
	delete(r.s.defaults, id)
	for sid, sub := range r.s.submissions {
		if sub.DatasetID == id {
			delete(r.s.submissions, sid)
		}
	}
	return nil
}

type submissionRepo struct{ s *Store }

func (r submissionRepo) ListByDataset(ctx context.Context, datasetID core.DatasetID) ([]proposal.Submission, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var out []proposal.Submission
	for _, sub := range r.s.submissions {
		if sub.DatasetID == datasetID {
			out = append(out, sub)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Timestamp.Equal(out[j].Timestamp) {
			return out[i].Timestamp.Before(out[j].Timestamp)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (r submissionRepo) Create(ctx context.Context, sub *proposal.Submission) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.submissions[sub.ID] = *sub
	return nil
}

func (r submissionRepo) Replace(ctx context.Context, sub *proposal.Submission) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if !r.owned(sub.DatasetID, sub.ID) {
		return fmt.Errorf("%w: %s", core.ErrSubmissionNotFound, sub.ID)
	}
	r.s.submissions[sub.ID] = *sub
	return nil
}

func (r submissionRepo) Delete(ctx context.Context, datasetID core.DatasetID, id core.SubmissionID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if !r.owned(datasetID, id) {
		return fmt.Errorf("%w: %s", core.ErrSubmissionNotFound, id)
	}
	delete(r.s.submissions, id)
	return nil
}

// owned reports whether submission id exists in datasetID; callers hold mu
func (r submissionRepo) owned(datasetID core.DatasetID, id core.SubmissionID) bool {
	existing, ok := r.s.submissions[id]
	return ok && existing.DatasetID == datasetID
}

type assignmentRepo struct{ s *Store }

func (r assignmentRepo) Load(ctx context.Context, datasetID core.DatasetID) (proposal.AssignmentMap, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	if m, ok := r.s.assignments[datasetID]; ok {
		return m.Clone(), nil
	}
	return proposal.AssignmentMap{}, nil
}

func (r assignmentRepo) Save(ctx context.Context, datasetID core.DatasetID, m proposal.AssignmentMap) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.putAssignments(datasetID, m)
	return nil
}

type metaRepo struct{ s *Store }

func (r metaRepo) Load(ctx context.Context, datasetID core.DatasetID) (*proposal.Meta, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return cloneMeta(r.s.meta[datasetID]), nil
}

func (r metaRepo) SaveField(ctx context.Context, datasetID core.DatasetID, identity string, patch proposal.ParsedMetaPatch) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.metaFor(datasetID).Apply(identity, patch)
	return nil
}

func (r metaRepo) SaveDueDates(ctx context.Context, datasetID core.DatasetID, dates map[string]core.Date) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.putDueDates(datasetID, dates)
	return nil
}

type approvedRepo struct{ s *Store }

func (r approvedRepo) Load(ctx context.Context, datasetID core.DatasetID) (proposal.ApprovedList, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return append(proposal.ApprovedList{}, r.s.approved[datasetID]...), nil
}

func (r approvedRepo) Save(ctx context.Context, datasetID core.DatasetID, list proposal.ApprovedList) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.approved[datasetID] = append(proposal.ApprovedList{}, list...)
	return nil
}

type settingsRepo struct{ s *Store }

func (r settingsRepo) LoadBalancerDefaults(ctx context.Context, datasetID core.DatasetID) (proposal.BalancerDefaults, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	d := r.s.defaults[datasetID]
	return proposal.BalancerDefaults{
		Dates: append([]core.Date(nil), d.Dates...),
		Pool:  append([]string(nil), d.Pool...),
		K:     d.K,
	}, nil
}

func (r settingsRepo) SaveBalancerDefaults(ctx context.Context, datasetID core.DatasetID, d proposal.BalancerDefaults) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.putDefaults(datasetID, d)
	return nil
}

type planRepo struct{ s *Store }

func (r planRepo) SavePlan(ctx context.Context, datasetID core.DatasetID, plan proposal.SavedPlan) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.putAssignments(datasetID, plan.Assignments)
	r.s.putDueDates(datasetID, plan.DueDates)
	r.s.putDefaults(datasetID, plan.Defaults)
	return nil
}

// The put helpers below expect mu to be held for writing.

func (s *Store) putAssignments(datasetID core.DatasetID, m proposal.AssignmentMap) {
	current, ok := s.assignments[datasetID]
	if !ok {
		current = proposal.AssignmentMap{}
		s.assignments[datasetID] = current
	}
	for identity, reviewers := range m {
		current.Set(identity, reviewers)
	}
}

func (s *Store) putDueDates(datasetID core.DatasetID, dates map[string]core.Date) {
	meta := s.metaFor(datasetID)
	for identity, d := range dates {
		meta.Apply(identity, proposal.ParsedMetaPatch{DueDate: &d})
	}
}

func (s *Store) putDefaults(datasetID core.DatasetID, d proposal.BalancerDefaults) {
	s.defaults[datasetID] = proposal.BalancerDefaults{
		Dates: append([]core.Date(nil), d.Dates...),
		Pool:  append([]string(nil), d.Pool...),
		K:     d.K,
	}
}

func (s *Store) metaFor(datasetID core.DatasetID) *proposal.Meta {
	meta, ok := s.meta[datasetID]
	if !ok {
		meta = proposal.NewMeta()
		s.meta[datasetID] = meta
	}
	return meta
}

func cloneDataset(ds *proposal.Dataset) *proposal.Dataset {
	out := *ds
	out.Headers = append([]string(nil), ds.Headers...)
	out.ColumnHistory = append([]proposal.ColumnChangeEvent(nil), ds.ColumnHistory...)
	out.Rows = make([]proposal.Row, len(ds.Rows))
	for i, row := range ds.Rows {
		out.Rows[i] = proposal.Row{Cells: cloneStrings(row.Cells), Links: cloneStrings(row.Links), Hidden: row.Hidden}
	}
	return &out
}

func cloneStrings(m map[string]string) map[string]string {
	if m == nil {
		return nil
	}
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func cloneMeta(m *proposal.Meta) *proposal.Meta {
	out := proposal.NewMeta()
	if m == nil {
		return out
	}
	for k, v := range m.GivenAmounts {
		out.GivenAmounts[k] = v
	}
	for k, v := range m.FundingStatuses {
		out.FundingStatuses[k] = v
	}
	for k, v := range m.DueDates {
		out.DueDates[k] = v
	}
	for k, v := range m.Notes {
		out.Notes[k] = v
	}
	return out
}
