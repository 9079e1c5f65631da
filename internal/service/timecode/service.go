package timecode

import (
	"context"
	"fmt"

	"github.com/cmlabs-hris/fleet-metrics-go/internal/domain/timecode"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var defaultOvertimeMultiplier = decimal.RequireFromString("1.5")

type TimeCodeServiceImpl struct {
	repo timecode.TimeCodeRepository
}

func NewTimeCodeService(repo timecode.TimeCodeRepository) timecode.TimeCodeService {
	return &TimeCodeServiceImpl{repo: repo}
}

// Create implements timecode.TimeCodeService.
func (s *TimeCodeServiceImpl) Create(ctx context.Context, companyID string, req timecode.CreateTimeCodeRequest) (timecode.TimeCodeResponse, error) {
	if err := req.Validate(); err != nil {
		return timecode.TimeCodeResponse{}, err
	}

	id, err := uuid.NewV7()
	if err != nil {
		return timecode.TimeCodeResponse{}, fmt.Errorf("failed to generate time code id: %w", err)
	}

	multiplier := defaultOvertimeMultiplier
	if req.OvertimeMultiplier != nil {
		multiplier = *req.OvertimeMultiplier
	}

	created, err := s.repo.Create(ctx, timecode.TimeCode{
		ID:                 id.String(),
		CompanyID:          companyID,
		Code:               req.Code,
		Name:               req.Name,
		Category:           timecode.Category(req.Category),
		IsBillable:         req.IsBillable,
		IsProductive:       req.IsProductive,
		RequiresWorkOrder:  req.RequiresWorkOrder,
		RequiresVehicle:    req.RequiresVehicle,
		StandardRate:       req.StandardRate.Round(2),
		OvertimeMultiplier: multiplier.Round(2),
		IsActive:           true,
	})
	if err != nil {
		return timecode.TimeCodeResponse{}, err
	}
	return timecode.NewTimeCodeResponse(created), nil
}

// Get implements timecode.TimeCodeService.
func (s *TimeCodeServiceImpl) Get(ctx context.Context, companyID string, id string) (timecode.TimeCodeResponse, error) {
	tc, err := s.repo.GetByID(ctx, id, companyID)
	if err != nil {
		return timecode.TimeCodeResponse{}, err
	}
	return timecode.NewTimeCodeResponse(tc), nil
}

// List implements timecode.TimeCodeService.
func (s *TimeCodeServiceImpl) List(ctx context.Context, companyID string, activeOnly bool) ([]timecode.TimeCodeResponse, error) {
	codes, err := s.repo.List(ctx, companyID, activeOnly)
	if err != nil {
		return nil, fmt.Errorf("failed to list time codes: %w", err)
	}
	resp := make([]timecode.TimeCodeResponse, 0, len(codes))
	for _, tc := range codes {
		resp = append(resp, timecode.NewTimeCodeResponse(tc))
	}
	return resp, nil
}

// Deactivate implements timecode.TimeCodeService. Existing entries keep their copied rates.
func (s *TimeCodeServiceImpl) Deactivate(ctx context.Context, companyID string, id string) error {
	if _, err := s.repo.GetByID(ctx, id, companyID); err != nil {
		return err
	}
	return s.repo.SetActive(ctx, id, companyID, false)
}
