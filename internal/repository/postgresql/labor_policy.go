package postgresql

import (
	"context"
	"fmt"

	"github.com/cmlabs-hris/fleet-metrics-go/internal/domain/laborpolicy"
	"github.com/cmlabs-hris/fleet-metrics-go/internal/pkg/database"
)

type laborPolicyRepository struct {
	db *database.DB
}

// Get implements laborpolicy.LaborPolicyRepository.
func (r *laborPolicyRepository) Get(ctx context.Context, companyID string) (laborpolicy.LaborPolicy, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT company_id, daily_overtime_threshold_hours, created_at, updated_at
		FROM labor_policies
		WHERE company_id = $1
	`
	var p laborpolicy.LaborPolicy
	err := q.QueryRow(ctx, query, companyID).Scan(&p.CompanyID, &p.DailyOvertimeThresholdHours, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if isNoRows(err) {
			return laborpolicy.LaborPolicy{}, laborpolicy.ErrLaborPolicyNotFound
		}
		return laborpolicy.LaborPolicy{}, fmt.Errorf("failed to get labor policy: %w", err)
	}
	return p, nil
}

// Upsert implements laborpolicy.LaborPolicyRepository.
func (r *laborPolicyRepository) Upsert(ctx context.Context, policy laborpolicy.LaborPolicy) (laborpolicy.LaborPolicy, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO labor_policies (company_id, daily_overtime_threshold_hours)
		VALUES ($1, $2)
		ON CONFLICT (company_id) DO UPDATE
		SET daily_overtime_threshold_hours = EXCLUDED.daily_overtime_threshold_hours,
			updated_at = NOW()
		RETURNING created_at, updated_at
	`
	err := q.QueryRow(ctx, query, policy.CompanyID, policy.DailyOvertimeThresholdHours).Scan(&policy.CreatedAt, &policy.UpdatedAt)
	if err != nil {
		return laborpolicy.LaborPolicy{}, fmt.Errorf("failed to save labor policy: %w", err)
	}
	policy.IsDefault = false
	return policy, nil
}

func NewLaborPolicyRepository(db *database.DB) laborpolicy.LaborPolicyRepository {
	return &laborPolicyRepository{db: db}
}
