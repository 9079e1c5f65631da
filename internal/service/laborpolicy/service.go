package laborpolicy

import (
	"context"
	"errors"
	"fmt"

	"github.com/cmlabs-hris/fleet-metrics-go/internal/domain/laborpolicy"
	"github.com/shopspring/decimal"
)

type LaborPolicyServiceImpl struct {
	repo             laborpolicy.LaborPolicyRepository
	defaultThreshold decimal.Decimal
}

// NewLaborPolicyService returns a service that falls back to defaultThreshold
// for companies without a stored policy.
func NewLaborPolicyService(repo laborpolicy.LaborPolicyRepository, defaultThreshold decimal.Decimal) laborpolicy.LaborPolicyService {
	return &LaborPolicyServiceImpl{repo: repo, defaultThreshold: defaultThreshold}
}

// Get implements laborpolicy.LaborPolicyService.
func (s *LaborPolicyServiceImpl) Get(ctx context.Context, companyID string) (laborpolicy.LaborPolicy, error) {
	policy, err := s.repo.Get(ctx, companyID)
	if err != nil {
		if errors.Is(err, laborpolicy.ErrLaborPolicyNotFound) {
			return laborpolicy.LaborPolicy{
				CompanyID:                   companyID,
				DailyOvertimeThresholdHours: s.defaultThreshold,
				IsDefault:                   true,
			}, nil
		}
		return laborpolicy.LaborPolicy{}, fmt.Errorf("failed to get labor policy: %w", err)
	}
	return policy, nil
}

// Update implements laborpolicy.LaborPolicyService.
func (s *LaborPolicyServiceImpl) Update(ctx context.Context, companyID string, req laborpolicy.UpdateLaborPolicyRequest) (laborpolicy.LaborPolicyResponse, error) {
	if err := req.Validate(); err != nil {
		return laborpolicy.LaborPolicyResponse{}, err
	}

	saved, err := s.repo.Upsert(ctx, laborpolicy.LaborPolicy{
		CompanyID:                   companyID,
		DailyOvertimeThresholdHours: req.DailyOvertimeThresholdHours.Round(2),
	})
	if err != nil {
		return laborpolicy.LaborPolicyResponse{}, fmt.Errorf("failed to save labor policy: %w", err)
	}
	return laborpolicy.LaborPolicyResponse{
		CompanyID:                   saved.CompanyID,
		DailyOvertimeThresholdHours: saved.DailyOvertimeThresholdHours,
	}, nil
}
