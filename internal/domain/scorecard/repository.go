package scorecard

import (
	"context"
	"time"

	"github.com/cmlabs-hris/fleet-metrics-go/internal/domain/kpi"
)

type ScorecardRepository interface {
	// Create stores the scorecard and its items; ErrScorecardExists on a duplicate key
	Create(ctx context.Context, sc Scorecard) (Scorecard, error)
	GetByID(ctx context.Context, id string, companyID string) (Scorecard, error)
	// GetPrevious returns the latest scorecard of the same name and scope ending before periodStart
	GetPrevious(ctx context.Context, companyID string, name string, scope kpi.Scope, periodStart time.Time) (*Scorecard, error)
	// ReplaceItems rewrites the items and derived fields of a draft scorecard
	ReplaceItems(ctx context.Context, sc Scorecard) (Scorecard, error)
	MarkPublished(ctx context.Context, id string, companyID string, publishedBy string, at time.Time) error
	List(ctx context.Context, companyID string, filter ScorecardFilter) ([]Scorecard, error)
}
