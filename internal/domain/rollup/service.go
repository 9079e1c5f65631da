package rollup

import (
	"context"
	"time"
)

// DirtyHandler consumes daily-rollup-dirty events.
type DirtyHandler interface {
	HandleDirty(ctx context.Context, key DirtyKey) error
}

type RollupService interface {
	DirtyHandler

	RecomputeDaily(ctx context.Context, key DirtyKey) (DailyRollup, error)
	RecomputeWeekly(ctx context.Context, key WeekKey) (WeeklyRollup, error)
	RecomputeShop(ctx context.Context, key ShopKey) (ShopRollup, error)

	// Batch variants isolate per-key failures in the returned summary.
	RecomputeDailyForDate(ctx context.Context, companyID string, date time.Time) *BatchSummary
	RecomputeWeeklyForWeek(ctx context.Context, companyID string, weekStart time.Time) *BatchSummary
	RecomputeShopForDate(ctx context.Context, companyID string, date time.Time) *BatchSummary

	// RunPeriod chains daily, then weekly, then shop for one date.
	RunPeriod(ctx context.Context, companyID string, date time.Time) *BatchSummary
	Recalculate(ctx context.Context, companyID string, scope ScopeKey, period Period) (*BatchSummary, error)

	ListDaily(ctx context.Context, companyID string, filter RollupFilter) ([]DailyRollup, error)
	ListWeekly(ctx context.Context, companyID string, filter RollupFilter) ([]WeeklyRollup, error)
	ListShop(ctx context.Context, companyID string, filter RollupFilter) ([]ShopRollup, error)
}
