package overtime

import (
	"context"
	"time"
)

type AuthorizationRepository interface {
	Create(ctx context.Context, a Authorization) (Authorization, error)
	GetByID(ctx context.Context, id string, companyID string) (Authorization, error)
	List(ctx context.Context, companyID string, filter AuthorizationFilter) ([]Authorization, error)

	// ListCovering returns authorizations accepting usage whose window contains date.
	// An empty technicianID returns them for every technician. Rows are locked
	// FOR UPDATE when called inside a transaction.
	ListCovering(ctx context.Context, companyID string, technicianID string, date time.Time) ([]Authorization, error)

	Update(ctx context.Context, a Authorization) error

	// ExpireBefore marks every open authorization whose window ended before asOf as expired.
	ExpireBefore(ctx context.Context, asOf time.Time) (int64, error)
}
