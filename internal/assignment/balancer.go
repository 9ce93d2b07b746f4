// Package assignment spreads reviewers across proposals and proposals across
// meeting dates.
package assignment

import (
	"fmt"
	"sort"

	"granttrack/domain/core"
	"granttrack/domain/proposal"

	"github.com/montanaflynn/stats"
)

// Request is the input of one balancer run
type Request struct {
	Dates     []core.Date
	Pool      []string
	K         int
	Proposals []string
	// RotateTies advances the tie-break order by one reviewer after every proposal
	RotateTies bool
}

// Plan is a computed assignment, ready to persist
type Plan struct {
	ChunkSize   int                    `json:"chunk_size"`
	Dates       []core.Date            `json:"dates"`
	Pool        []string               `json:"pool"`
	K           int                    `json:"k"`
	Order       []string               `json:"order"`
	DueDates    map[string]core.Date   `json:"due_dates"`
	Assignments proposal.AssignmentMap `json:"assignments"`
	Loads       map[string]int         `json:"loads"`
}

// LoadSummary describes how evenly a plan spread the work
type LoadSummary struct {
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"std_dev"`
	Total  int     `json:"total"`
}

// NormalizeDates drops zero dates, sorts chronologically and removes duplicates
func NormalizeDates(dates []core.Date) []core.Date {
	out := make([]core.Date, 0, len(dates))
	for _, d := range dates {
		if !d.IsZero() {
			out = append(out, d)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Before(out[j]) })

	deduped := out[:0]
	for i, d := range out {
		if i > 0 && d.Equal(out[i-1]) {
			continue
		}
		deduped = append(deduped, d)
	}
	return deduped
}

// NormalizePool trims reviewer names and drops blanks and case-insensitive duplicates
func NormalizePool(pool []string) []string {
	return proposal.DedupeNames(pool)
}

// ParseDates parses YYYY-MM-DD strings and normalizes the result
func ParseDates(raw []string) ([]core.Date, error) {
	dates := make([]core.Date, 0, len(raw))
	for _, r := range raw {
		d, err := core.ParseDate(r)
		if err != nil {
			return nil, err
		}
		dates = append(dates, d)
	}
	return NormalizeDates(dates), nil
}

// Balance computes due dates and reviewer lists for req.Proposals. It never
// returns a partial plan: invalid input yields a validation error only.
func Balance(req Request) (*Plan, error) {
	dates := NormalizeDates(req.Dates)
	pool := NormalizePool(req.Pool)
	order := dedupeIdentities(req.Proposals)

	switch {
	case len(dates) == 0:
		return nil, core.ErrNoDates
	case req.K < 1:
		return nil, fmt.Errorf("%w: got %d", core.ErrInvalidReviewerCount, req.K)
	case len(pool) < req.K:
		return nil, fmt.Errorf("%w: %d reviewers for %d per proposal", core.ErrPoolTooSmall, len(pool), req.K)
	case len(order) == 0:
		return nil, core.ErrNoProposals
	}

	chunk := (len(order) + len(dates) - 1) / len(dates)
	plan := &Plan{
		ChunkSize:   chunk,
		Dates:       dates,
		Pool:        pool,
		K:           req.K,
		Order:       order,
		DueDates:    make(map[string]core.Date, len(order)),
		Assignments: make(proposal.AssignmentMap, len(order)),
		Loads:       make(map[string]int, len(pool)),
	}

	loads := make([]int, len(pool))
	offset := 0
	for i, identity := range order {
		idx := i / chunk
		if idx > len(dates)-1 {
			idx = len(dates) - 1
		}
		plan.DueDates[identity] = dates[idx]

		picked := pickLowest(loads, req.K, offset)
		reviewers := make([]string, 0, req.K)
		for _, p := range picked {
			loads[p]++
			reviewers = append(reviewers, pool[p])
		}
		plan.Assignments[identity] = reviewers

		if req.RotateTies {
			offset = (offset + 1) % len(pool)
		}
	}

	for i, name := range pool {
		plan.Loads[name] = loads[i]
	}
	return plan, nil
}

// pickLowest returns the k pool indexes with the lowest load. Equal loads are
// ordered by pool position counted from offset.
func pickLowest(loads []int, k, offset int) []int {
	n := len(loads)
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	rank := func(i int) int { return (i - offset + n) % n }
	sort.SliceStable(idx, func(a, b int) bool {
		ia, ib := idx[a], idx[b]
		if loads[ia] != loads[ib] {
			return loads[ia] < loads[ib]
		}
		return rank(ia) < rank(ib)
	})
	return idx[:k]
}

func dedupeIdentities(identities []string) []string {
	out := make([]string, 0, len(identities))
	seen := make(map[string]bool, len(identities))
	for _, raw := range identities {
		id := proposal.Identity(raw)
		key := proposal.Key(id)
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, id)
	}
	return out
}

// Summary reports per-reviewer load statistics for the plan
func (p *Plan) Summary() (LoadSummary, error) {
	data := make([]float64, 0, len(p.Pool))
	total := 0
	for _, name := range p.Pool {
		data = append(data, float64(p.Loads[name]))
		total += p.Loads[name]
	}

	var s LoadSummary
	var err error
	if s.Min, err = stats.Min(data); err != nil {
		return LoadSummary{}, err
	}
	if s.Max, err = stats.Max(data); err != nil {
		return LoadSummary{}, err
	}
	if s.Mean, err = stats.Mean(data); err != nil {
		return LoadSummary{}, err
	}
	if s.StdDev, err = stats.StandardDeviation(data); err != nil {
		return LoadSummary{}, err
	}
	s.Total = total
	return s, nil
}

// DueDateFor returns the due date assigned to identity
func (p *Plan) DueDateFor(identity string) (core.Date, bool) {
	for k, d := range p.DueDates {
		if proposal.SameIdentity(k, identity) {
			return d, true
		}
	}
	return core.Date{}, false
}
