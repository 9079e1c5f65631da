package overtime

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/cmlabs-hris/fleet-metrics-go/internal/domain/overtime"
	"github.com/cmlabs-hris/fleet-metrics-go/internal/domain/rollup"
	"github.com/cmlabs-hris/fleet-metrics-go/internal/domain/technician"
	"github.com/cmlabs-hris/fleet-metrics-go/internal/pkg/database"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type OvertimeServiceImpl struct {
	tx             database.TxRunner
	repo           overtime.AuthorizationRepository
	technicianRepo technician.TechnicianRepository
	now            func() time.Time
}

func NewOvertimeService(tx database.TxRunner, repo overtime.AuthorizationRepository, technicianRepo technician.TechnicianRepository) overtime.OvertimeService {
	return &OvertimeServiceImpl{
		tx:             tx,
		repo:           repo,
		technicianRepo: technicianRepo,
		now:            func() time.Time { return time.Now().UTC() },
	}
}

// Authorize implements overtime.OvertimeService.
func (s *OvertimeServiceImpl) Authorize(ctx context.Context, companyID string, authorizedBy string, req overtime.AuthorizeRequest) (overtime.AuthorizationResponse, error) {
	authorized, from, until, err := req.Validate()
	if err != nil {
		return overtime.AuthorizationResponse{}, err
	}
	if _, err := s.technicianRepo.GetByID(ctx, req.TechnicianID, companyID); err != nil {
		return overtime.AuthorizationResponse{}, err
	}

	id, err := uuid.NewV7()
	if err != nil {
		return overtime.AuthorizationResponse{}, fmt.Errorf("failed to generate authorization id: %w", err)
	}

	auth := overtime.Authorization{
		ID:               id.String(),
		CompanyID:        companyID,
		TechnicianID:     req.TechnicianID,
		AuthorizedDate:   authorized,
		MaxOvertimeHours: req.MaxOvertimeHours.Round(2),
		HoursUsed:        decimal.Zero,
		ValidFrom:        from,
		ValidUntil:       until,
		Status:           overtime.StatusActive,
		Reason:           req.Reason,
		AuthorizedBy:     authorizedBy,
	}
	// a zero budget is used up from the start
	if auth.MaxOvertimeHours.IsZero() {
		auth.Status = overtime.StatusUsed
	}

	created, err := s.repo.Create(ctx, auth)
	if err != nil {
		return overtime.AuthorizationResponse{}, fmt.Errorf("failed to create overtime authorization: %w", err)
	}
	return overtime.NewAuthorizationResponse(created), nil
}

// RecordUsage implements overtime.OvertimeService. It joins the caller's
// transaction when there is one.
func (s *OvertimeServiceImpl) RecordUsage(ctx context.Context, companyID string, technicianID string, date time.Time, hours decimal.Decimal) ([]overtime.Authorization, error) {
	if !hours.IsPositive() {
		return nil, nil
	}
	date = rollup.TruncateDay(date)

	var updated []overtime.Authorization
	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		auths, err := s.repo.ListCovering(txCtx, companyID, technicianID, date)
		if err != nil {
			return fmt.Errorf("failed to list covering authorizations: %w", err)
		}
		for _, a := range auths {
			if !a.AccruesUsage() || !a.Covers(date) {
				continue
			}
			a.ApplyUsage(hours)
			if err := s.repo.Update(txCtx, a); err != nil {
				return fmt.Errorf("failed to update authorization %s: %w", a.ID, err)
			}
			if a.HoursRemaining().IsNegative() {
				slog.Warn("overtime authorization exceeded",
					"authorization_id", a.ID, "technician_id", technicianID,
					"max_hours", a.MaxOvertimeHours.String(), "hours_used", a.HoursUsed.String())
			}
			updated = append(updated, a)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// Cancel implements overtime.OvertimeService.
func (s *OvertimeServiceImpl) Cancel(ctx context.Context, companyID string, id string, cancelledBy string) (overtime.AuthorizationResponse, error) {
	var cancelled overtime.Authorization
	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		a, err := s.repo.GetByID(txCtx, id, companyID)
		if err != nil {
			return err
		}
		if !a.IsOpen() {
			return overtime.ErrAuthorizationClosed
		}

		now := s.now()
		a.Status = overtime.StatusCancelled
		a.CancelledBy = &cancelledBy
		a.CancelledAt = &now
		if err := s.repo.Update(txCtx, a); err != nil {
			return fmt.Errorf("failed to cancel authorization: %w", err)
		}
		cancelled = a
		return nil
	})
	if err != nil {
		return overtime.AuthorizationResponse{}, err
	}
	return overtime.NewAuthorizationResponse(cancelled), nil
}

// ExpireStale implements overtime.OvertimeService.
func (s *OvertimeServiceImpl) ExpireStale(ctx context.Context, asOf time.Time) (int64, error) {
	n, err := s.repo.ExpireBefore(ctx, rollup.TruncateDay(asOf))
	if err != nil {
		return 0, fmt.Errorf("failed to expire overtime authorizations: %w", err)
	}
	if n > 0 {
		slog.Info("overtime authorizations expired", "count", n, "as_of", asOf.Format("2006-01-02"))
	}
	return n, nil
}

// Get implements overtime.OvertimeService.
func (s *OvertimeServiceImpl) Get(ctx context.Context, companyID string, id string) (overtime.AuthorizationResponse, error) {
	a, err := s.repo.GetByID(ctx, id, companyID)
	if err != nil {
		return overtime.AuthorizationResponse{}, err
	}
	return overtime.NewAuthorizationResponse(a), nil
}

// List implements overtime.OvertimeService.
func (s *OvertimeServiceImpl) List(ctx context.Context, companyID string, filter overtime.AuthorizationFilter) ([]overtime.AuthorizationResponse, error) {
	if err := filter.Validate(); err != nil {
		return nil, err
	}
	auths, err := s.repo.List(ctx, companyID, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list overtime authorizations: %w", err)
	}
	resp := make([]overtime.AuthorizationResponse, 0, len(auths))
	for _, a := range auths {
		resp = append(resp, overtime.NewAuthorizationResponse(a))
	}
	return resp, nil
}

// CoveringCaps implements overtime.OvertimeService. Expired authorizations
// still cover the dates inside their window; cancelled ones never do.
func (s *OvertimeServiceImpl) CoveringCaps(ctx context.Context, companyID string, date time.Time) (map[string]decimal.Decimal, error) {
	day := rollup.TruncateDay(date).Format("2006-01-02")
	auths, err := s.repo.List(ctx, companyID, overtime.AuthorizationFilter{Date: &day})
	if err != nil {
		return nil, err
	}

	caps := make(map[string]decimal.Decimal)
	for _, a := range auths {
		if a.Status == overtime.StatusCancelled {
			continue
		}
		caps[a.TechnicianID] = caps[a.TechnicianID].Add(a.MaxOvertimeHours)
	}
	return caps, nil
}
