package scorecard

import "context"

type ScorecardService interface {
	Build(ctx context.Context, companyID string, req BuildScorecardRequest) (ScorecardResponse, error)
	// Rebuild replaces the items of a draft scorecard
	Rebuild(ctx context.Context, companyID string, id string, req RebuildScorecardRequest) (ScorecardResponse, error)
	Publish(ctx context.Context, companyID string, id string, publishedBy string) (ScorecardResponse, error)
	Get(ctx context.Context, companyID string, id string) (ScorecardResponse, error)
	List(ctx context.Context, companyID string, filter ScorecardFilter) ([]ScorecardResponse, error)
}
