// Package crosscycle finds the same proposal in other funding cycles.
package crosscycle

import (
	"context"
	"sort"

	"granttrack/domain/core"
	"granttrack/domain/proposal"
	"granttrack/internal"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

// DefaultThreshold is the minimum similarity a candidate needs to be reported
const DefaultThreshold = 0.7

// Status distinguishes "nothing to search for" from "searched, found nothing"
type Status string

const (
	StatusNoIdentity Status = "no_identity"
	StatusNoMatches  Status = "no_matches"
	StatusMatched    Status = "matched"
)

// Candidate is one proposal in another cycle that resembles the searched identity
type Candidate struct {
	DatasetID     core.DatasetID         `json:"dataset_id"`
	DatasetName   string                 `json:"dataset_name"`
	Identity      string                 `json:"identity"`
	Score         float64                `json:"score"`
	Exact         bool                   `json:"exact"`
	Requested     decimal.NullDecimal    `json:"requested"`
	Given         decimal.NullDecimal    `json:"given"`
	FundingStatus proposal.FundingStatus `json:"funding_status,omitempty"`
	Link          string                 `json:"link,omitempty"`
}

// Totals sums the known amounts across all candidates
type Totals struct {
	Requested decimal.Decimal `json:"requested"`
	Given     decimal.Decimal `json:"given"`
}

// Result is the outcome of a cross-cycle search
type Result struct {
	Identity   string      `json:"identity"`
	Status     Status      `json:"status"`
	Candidates []Candidate `json:"candidates"`
	Totals     Totals      `json:"totals"`
	// Ambiguous is set when the best hit is not an exact name match or a
	// cycle holds more than one candidate.
	Ambiguous bool `json:"ambiguous"`
	Searched  int  `json:"searched"`
}

// MetaLoader fetches a cycle's proposal meta
type MetaLoader interface {
	Load(ctx context.Context, datasetID core.DatasetID) (*proposal.Meta, error)
}

// Options tune a Matcher
type Options struct {
	Threshold   float64
	Concurrency int
}

// Matcher searches other cycles and enriches hits with their meta
type Matcher struct {
	meta   MetaLoader
	opts   Options
	logger *internal.Logger
}

// NewMatcher creates a Matcher. Zero options fall back to the defaults.
func NewMatcher(meta MetaLoader, opts Options, logger *internal.Logger) *Matcher {
	if opts.Threshold <= 0 {
		opts.Threshold = DefaultThreshold
	}
	if opts.Concurrency < 1 {
		opts.Concurrency = 1
	}
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &Matcher{meta: meta, opts: opts, logger: logger.Component("crosscycle")}
}

// Match scores identity against every identity of every cycle except active.
// Candidates carry requested amounts and links but no meta.
func Match(identity string, active core.DatasetID, cycles []*proposal.Dataset, threshold float64) []Candidate {
	var out []Candidate
	want := Normalize(identity)
	for _, ds := range cycles {
		if ds == nil || ds.ID == active || ds.MatchColumn == "" {
			continue
		}
		for _, other := range ds.AllIdentities() {
			score := Similarity(identity, other)
			if score < threshold {
				continue
			}
			c := Candidate{
				DatasetID:   ds.ID,
				DatasetName: ds.Name,
				Identity:    other,
				Score:       score,
				Exact:       want != "" && Normalize(other) == want,
			}
			if row, ok := ds.RowFor(other); ok {
				c.Requested, _ = RequestedAmount(row, ds.Headers)
				c.Link = ProposalLink(row, ds.Headers, ds.MatchColumn)
			}
			out = append(out, c)
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		if out[i].Exact != out[j].Exact {
			return out[i].Exact
		}
		if out[i].DatasetName != out[j].DatasetName {
			return out[i].DatasetName < out[j].DatasetName
		}
		return out[i].Identity < out[j].Identity
	})
	return out
}

// Find runs Match and then loads the meta of every cycle with a hit, one
// load per cycle, concurrently. A failed load fails the whole search.
func (m *Matcher) Find(ctx context.Context, identity string, active core.DatasetID, cycles []*proposal.Dataset) (Result, error) {
	result := Result{Identity: proposal.Identity(identity), Candidates: []Candidate{}}
	if Normalize(identity) == "" {
		result.Status = StatusNoIdentity
		return result, nil
	}
	for _, ds := range cycles {
		if ds != nil && ds.ID != active {
			result.Searched++
		}
	}

	candidates := Match(identity, active, cycles, m.opts.Threshold)
	if len(candidates) == 0 {
		result.Status = StatusNoMatches
		m.logger.Debug("no matches for %q across %d cycles", identity, result.Searched)
		return result, nil
	}

	var ids []core.DatasetID
	index := make(map[core.DatasetID]int)
	for _, c := range candidates {
		if _, ok := index[c.DatasetID]; !ok {
			index[c.DatasetID] = len(ids)
			ids = append(ids, c.DatasetID)
		}
	}

	metas := make([]*proposal.Meta, len(ids))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(m.opts.Concurrency)
	for i, id := range ids {
		i, id := i, id
		g.Go(func() error {
			meta, err := m.meta.Load(gctx, id)
			if err != nil {
				return err
			}
			metas[i] = meta
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Result{}, err
	}

	perCycle := make(map[core.DatasetID]int)
	for i := range candidates {
		c := &candidates[i]
		meta := metas[index[c.DatasetID]]
		c.Given = meta.Given(c.Identity)
		c.FundingStatus = meta.Funding(c.Identity)

		if c.Requested.Valid {
			result.Totals.Requested = result.Totals.Requested.Add(c.Requested.Decimal)
		}
		if c.Given.Valid {
			result.Totals.Given = result.Totals.Given.Add(c.Given.Decimal)
		}
		perCycle[c.DatasetID]++
		if perCycle[c.DatasetID] > 1 {
			result.Ambiguous = true
		}
	}
	if !candidates[0].Exact {
		result.Ambiguous = true
	}

	result.Status = StatusMatched
	result.Candidates = candidates
	m.logger.Debug("matched %q: %d candidates in %d cycles", identity, len(candidates), len(ids))
	return result, nil
}
