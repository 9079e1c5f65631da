package rollup

import (
	"context"
	"time"
)

// DailyRollupRepository stores daily rollups. Replace must run inside the
// caller's transaction so the delete and insert commit together.
type DailyRollupRepository interface {
	Replace(ctx context.Context, r DailyRollup) error
	Get(ctx context.Context, companyID string, technicianID string, date time.Time) (DailyRollup, error)
	ListForTechnician(ctx context.Context, companyID string, technicianID string, from, to time.Time) ([]DailyRollup, error)
	ListForDate(ctx context.Context, companyID string, date time.Time) ([]DailyRollup, error)
	List(ctx context.Context, companyID string, filter RollupFilter) ([]DailyRollup, error)
}

type WeeklyRollupRepository interface {
	Replace(ctx context.Context, r WeeklyRollup) error
	List(ctx context.Context, companyID string, filter RollupFilter) ([]WeeklyRollup, error)
}

type ShopRollupRepository interface {
	Replace(ctx context.Context, r ShopRollup) error
	// List returns the organization-wide rows unless filter.DepartmentID is set
	List(ctx context.Context, companyID string, filter RollupFilter) ([]ShopRollup, error)
}
