package laborpolicy

import "context"

type LaborPolicyRepository interface {
	Get(ctx context.Context, companyID string) (LaborPolicy, error)
	Upsert(ctx context.Context, policy LaborPolicy) (LaborPolicy, error)
}

type LaborPolicyService interface {
	// Get returns the company policy, or the process default when none is stored
	Get(ctx context.Context, companyID string) (LaborPolicy, error)
	Update(ctx context.Context, companyID string, req UpdateLaborPolicyRequest) (LaborPolicyResponse, error)
}
