package app

import (
	"context"

	"granttrack/domain/core"
	"granttrack/domain/proposal"
	"granttrack/internal/assignment"
	apperrors "granttrack/internal/errors"
)

// BalanceInput is a balancer request as it arrives from a form or flag set.
// Empty fields fall back to the dataset's saved defaults, then to configuration.
type BalanceInput struct {
	Dates []string `json:"dates"`
	Pool  []string `json:"pool"`
	K     int      `json:"k" validate:"gte=0"`
}

// BalanceResult is a persisted plan and its load statistics
type BalanceResult struct {
	Plan    *assignment.Plan       `json:"plan"`
	Summary assignment.LoadSummary `json:"summary"`
}

// Balancer outcomes counted by the metrics recorder
const (
	outcomeOK       = "ok"
	outcomeRejected = "rejected"
	outcomeFailed   = "failed"
)

// RunAssignmentBalancer assigns reviewers and due dates to every visible
// proposal of the dataset and saves the plan. Invalid input writes nothing.
func (s *TrackerService) RunAssignmentBalancer(ctx context.Context, id core.DatasetID, in BalanceInput) (*BalanceResult, error) {
	var result *BalanceResult
	err := s.withDataset(id, func() error {
		ds, err := s.GetDataset(ctx, id)
		if err != nil {
			return err
		}
		saved, err := s.repos.Settings.LoadBalancerDefaults(ctx, id)
		if err != nil {
			return err
		}

		req, err := s.balanceRequest(ds, in, saved)
		if err != nil {
			s.metrics.BalancerRun(outcomeRejected)
			return apperrors.Classify(err)
		}
		plan, err := assignment.Balance(req)
		if err != nil {
			s.metrics.BalancerRun(outcomeRejected)
			return apperrors.Classify(err)
		}
		summary, err := plan.Summary()
		if err != nil {
			s.metrics.BalancerRun(outcomeRejected)
			return apperrors.Wrap(err, "failed to summarize reviewer loads")
		}

		if err := s.savePlan(ctx, id, plan); err != nil {
			s.metrics.BalancerRun(outcomeFailed)
			s.logger.Error("failed to save balancer plan for dataset %s: %v", id, err)
			return err
		}

		s.metrics.BalancerRun(outcomeOK)
		s.logger.Info("balanced dataset %s: %d proposals over %d dates, %d reviewers x%d (load min=%.0f max=%.0f mean=%.2f sd=%.2f)",
			id, len(plan.Order), len(plan.Dates), len(plan.Pool), plan.K,
			summary.Min, summary.Max, summary.Mean, summary.StdDev)
		result = &BalanceResult{Plan: plan, Summary: summary}
		return nil
	})
	return result, err
}

func (s *TrackerService) balanceRequest(ds *proposal.Dataset, in BalanceInput, saved proposal.BalancerDefaults) (assignment.Request, error) {
	if ds.MatchColumn == "" {
		return assignment.Request{}, core.ErrNoMatchColumn
	}

	dates := saved.Dates
	if len(in.Dates) > 0 {
		parsed, err := assignment.ParseDates(in.Dates)
		if err != nil {
			return assignment.Request{}, err
		}
		dates = parsed
	}
	pool := saved.Pool
	if len(in.Pool) > 0 {
		pool = in.Pool
	}
	k := in.K
	if k == 0 {
		k = saved.K
	}
	if k == 0 {
		k = s.opts.DefaultK
	}

	return assignment.Request{
		Dates:      dates,
		Pool:       pool,
		K:          k,
		Proposals:  ds.Identities(),
		RotateTies: s.opts.RotateTies,
	}, nil
}

// savePlan writes assignments, due dates and the inputs as new defaults in one call
func (s *TrackerService) savePlan(ctx context.Context, id core.DatasetID, plan *assignment.Plan) error {
	return s.repos.Plans.SavePlan(ctx, id, proposal.SavedPlan{
		Assignments: plan.Assignments,
		DueDates:    plan.DueDates,
		Defaults: proposal.BalancerDefaults{
			Dates: plan.Dates,
			Pool:  plan.Pool,
			K:     plan.K,
		},
	})
}

// Assignments returns the dataset's saved reviewer assignments
func (s *TrackerService) Assignments(ctx context.Context, id core.DatasetID) (proposal.AssignmentMap, error) {
	if _, err := s.GetDataset(ctx, id); err != nil {
		return nil, err
	}
	return s.repos.Assignments.Load(ctx, id)
}
