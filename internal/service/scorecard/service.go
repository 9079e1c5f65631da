package scorecard

import (
	"context"
	"fmt"
	"time"

	"github.com/cmlabs-hris/fleet-metrics-go/internal/domain/kpi"
	"github.com/cmlabs-hris/fleet-metrics-go/internal/domain/scorecard"
	"github.com/cmlabs-hris/fleet-metrics-go/internal/pkg/database"
	"github.com/cmlabs-hris/fleet-metrics-go/internal/pkg/validator"
	"github.com/google/uuid"
)

// MeasurementReader is the part of the measurement store a scorecard reads.
type MeasurementReader interface {
	GetByID(ctx context.Context, id string, companyID string) (kpi.Measurement, error)
}

type ScorecardServiceImpl struct {
	tx           database.TxRunner
	repo         scorecard.ScorecardRepository
	measurements MeasurementReader
	policy       scorecard.StatusPolicy
	now          func() time.Time
}

func NewScorecardService(tx database.TxRunner, repo scorecard.ScorecardRepository, measurements MeasurementReader, policy scorecard.StatusPolicy) scorecard.ScorecardService {
	if !policy.Valid() {
		policy = scorecard.PolicyWorstCase
	}
	return &ScorecardServiceImpl{
		tx:           tx,
		repo:         repo,
		measurements: measurements,
		policy:       policy,
		now:          func() time.Time { return time.Now().UTC() },
	}
}

// resolveItems snapshots the requested measurements. Each must belong to
// the scorecard's scope and end inside its period.
func (s *ScorecardServiceImpl) resolveItems(ctx context.Context, companyID string, scope kpi.Scope, period kpi.Period, reqs []scorecard.ItemRequest) ([]scorecard.Item, error) {
	var errs validator.ValidationErrors
	items := make([]scorecard.Item, 0, len(reqs))
	for i, req := range reqs {
		m, err := s.measurements.GetByID(ctx, req.MeasurementID, companyID)
		if err != nil {
			return nil, err
		}
		if m.Scope != scope {
			errs.Add("items", fmt.Sprintf("measurement %s is for scope %s, not %s", m.ID, m.Scope.String(), scope.String()))
			continue
		}
		if m.PeriodEnd.Before(period.Start) || m.PeriodEnd.After(period.End) {
			errs.Add("items", fmt.Sprintf("measurement %s ends outside the scorecard period", m.ID))
			continue
		}
		items = append(items, scorecard.NewItem(m, req.Weight, i))
	}
	if err := errs.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

// Build implements scorecard.ScorecardService.
func (s *ScorecardServiceImpl) Build(ctx context.Context, companyID string, req scorecard.BuildScorecardRequest) (scorecard.ScorecardResponse, error) {
	scope, period, err := req.Validate()
	if err != nil {
		return scorecard.ScorecardResponse{}, err
	}

	id, err := uuid.NewV7()
	if err != nil {
		return scorecard.ScorecardResponse{}, fmt.Errorf("failed to generate scorecard id: %w", err)
	}

	var created scorecard.Scorecard
	err = s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		items, err := s.resolveItems(txCtx, companyID, scope, period, req.Items)
		if err != nil {
			return err
		}
		previous, err := s.repo.GetPrevious(txCtx, companyID, req.Name, scope, period.Start)
		if err != nil {
			return fmt.Errorf("failed to load previous scorecard: %w", err)
		}

		sc := scorecard.Assemble(scorecard.Scorecard{
			ID:           id.String(),
			CompanyID:    companyID,
			Name:         req.Name,
			Scope:        scope,
			PeriodStart:  period.Start,
			PeriodEnd:    period.End,
			StatusPolicy: s.policy,
			Status:       scorecard.StatusDraft,
			Items:        items,
		}, previous)

		created, err = s.repo.Create(txCtx, sc)
		return err
	})
	if err != nil {
		return scorecard.ScorecardResponse{}, err
	}
	return scorecard.NewScorecardResponse(created), nil
}

// Rebuild implements scorecard.ScorecardService.
func (s *ScorecardServiceImpl) Rebuild(ctx context.Context, companyID string, id string, req scorecard.RebuildScorecardRequest) (scorecard.ScorecardResponse, error) {
	if err := req.Validate(); err != nil {
		return scorecard.ScorecardResponse{}, err
	}

	var rebuilt scorecard.Scorecard
	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		sc, err := s.repo.GetByID(txCtx, id, companyID)
		if err != nil {
			return err
		}
		if sc.Status == scorecard.StatusPublished {
			return scorecard.ErrScorecardPublished
		}

		period := kpi.Period{Start: sc.PeriodStart, End: sc.PeriodEnd}
		items, err := s.resolveItems(txCtx, companyID, sc.Scope, period, req.Items)
		if err != nil {
			return err
		}
		previous, err := s.repo.GetPrevious(txCtx, companyID, sc.Name, sc.Scope, sc.PeriodStart)
		if err != nil {
			return fmt.Errorf("failed to load previous scorecard: %w", err)
		}

		sc.Items = items
		sc.StatusPolicy = s.policy
		rebuilt, err = s.repo.ReplaceItems(txCtx, scorecard.Assemble(sc, previous))
		return err
	})
	if err != nil {
		return scorecard.ScorecardResponse{}, err
	}
	return scorecard.NewScorecardResponse(rebuilt), nil
}

// Publish implements scorecard.ScorecardService. A published scorecard
// can no longer be rebuilt or republished.
func (s *ScorecardServiceImpl) Publish(ctx context.Context, companyID string, id string, publishedBy string) (scorecard.ScorecardResponse, error) {
	var published scorecard.Scorecard
	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		sc, err := s.repo.GetByID(txCtx, id, companyID)
		if err != nil {
			return err
		}
		if sc.Status == scorecard.StatusPublished {
			return scorecard.ErrScorecardPublished
		}

		now := s.now()
		if err := s.repo.MarkPublished(txCtx, id, companyID, publishedBy, now); err != nil {
			return err
		}
		sc.Status = scorecard.StatusPublished
		sc.PublishedBy = &publishedBy
		sc.PublishedAt = &now
		published = sc
		return nil
	})
	if err != nil {
		return scorecard.ScorecardResponse{}, err
	}
	return scorecard.NewScorecardResponse(published), nil
}

// Get implements scorecard.ScorecardService.
func (s *ScorecardServiceImpl) Get(ctx context.Context, companyID string, id string) (scorecard.ScorecardResponse, error) {
	sc, err := s.repo.GetByID(ctx, id, companyID)
	if err != nil {
		return scorecard.ScorecardResponse{}, err
	}
	return scorecard.NewScorecardResponse(sc), nil
}

// List implements scorecard.ScorecardService.
func (s *ScorecardServiceImpl) List(ctx context.Context, companyID string, filter scorecard.ScorecardFilter) ([]scorecard.ScorecardResponse, error) {
	if err := filter.Validate(); err != nil {
		return nil, err
	}
	cards, err := s.repo.List(ctx, companyID, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list scorecards: %w", err)
	}
	resp := make([]scorecard.ScorecardResponse, 0, len(cards))
	for _, sc := range cards {
		resp = append(resp, scorecard.NewScorecardResponse(sc))
	}
	return resp, nil
}
