package laborpolicy

import (
	"context"
	"testing"

	"github.com/cmlabs-hris/fleet-metrics-go/internal/domain/laborpolicy"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePolicyRepo struct {
	policies map[string]laborpolicy.LaborPolicy
}

func (f *fakePolicyRepo) Get(_ context.Context, companyID string) (laborpolicy.LaborPolicy, error) {
	p, ok := f.policies[companyID]
	if !ok {
		return laborpolicy.LaborPolicy{}, laborpolicy.ErrLaborPolicyNotFound
	}
	return p, nil
}

func (f *fakePolicyRepo) Upsert(_ context.Context, p laborpolicy.LaborPolicy) (laborpolicy.LaborPolicy, error) {
	f.policies[p.CompanyID] = p
	return p, nil
}

func TestLaborPolicyService_FallsBackToDefault(t *testing.T) {
	svc := NewLaborPolicyService(&fakePolicyRepo{policies: map[string]laborpolicy.LaborPolicy{}}, decimal.NewFromInt(8))

	p, err := svc.Get(context.Background(), "c1")
	require.NoError(t, err)
	assert.True(t, p.IsDefault)
	assert.True(t, p.DailyOvertimeThresholdHours.Equal(decimal.NewFromInt(8)))
}

func TestLaborPolicyService_UpdateThenGet(t *testing.T) {
	repo := &fakePolicyRepo{policies: map[string]laborpolicy.LaborPolicy{}}
	svc := NewLaborPolicyService(repo, decimal.NewFromInt(8))

	_, err := svc.Update(context.Background(), "c1", laborpolicy.UpdateLaborPolicyRequest{DailyOvertimeThresholdHours: decimal.RequireFromString("7.5")})
	require.NoError(t, err)

	p, err := svc.Get(context.Background(), "c1")
	require.NoError(t, err)
	assert.False(t, p.IsDefault)
	assert.True(t, p.DailyOvertimeThresholdHours.Equal(decimal.RequireFromString("7.5")))

	_, err = svc.Update(context.Background(), "c1", laborpolicy.UpdateLaborPolicyRequest{DailyOvertimeThresholdHours: decimal.Zero})
	assert.Error(t, err)
}
