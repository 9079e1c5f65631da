package overtime

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

type OvertimeService interface {
	Authorize(ctx context.Context, companyID string, authorizedBy string, req AuthorizeRequest) (AuthorizationResponse, error)

	// RecordUsage adds hours to every open authorization covering date and
	// returns the updated rows. No authorization is not an error.
	RecordUsage(ctx context.Context, companyID string, technicianID string, date time.Time, hours decimal.Decimal) ([]Authorization, error)

	Cancel(ctx context.Context, companyID string, id string, cancelledBy string) (AuthorizationResponse, error)
	ExpireStale(ctx context.Context, asOf time.Time) (int64, error)
	Get(ctx context.Context, companyID string, id string) (AuthorizationResponse, error)
	List(ctx context.Context, companyID string, filter AuthorizationFilter) ([]AuthorizationResponse, error)

	// CoveringCaps sums MaxOvertimeHours per technician over authorizations valid on date.
	CoveringCaps(ctx context.Context, companyID string, date time.Time) (map[string]decimal.Decimal, error)
}
