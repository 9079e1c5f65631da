package fleet

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// DataSource is everything the built-in KPI calculations read. Missing
// source rows yield zero values, not errors.
type DataSource interface {
	MilesDriven(ctx context.Context, companyID string, f Filter) (decimal.Decimal, error)
	// OperatingCost sums the cost ledger; no costTypes means every type
	OperatingCost(ctx context.Context, companyID string, f Filter, costTypes ...string) (decimal.Decimal, error)
	// ApprovedLaborCost sums approved time entry costs, honoring VehicleID on entries
	ApprovedLaborCost(ctx context.Context, companyID string, f Filter) (decimal.Decimal, error)
	PMCompliance(ctx context.Context, companyID string, f Filter) (PMCompliance, error)
	LaborTotals(ctx context.Context, companyID string, f Filter) (LaborTotals, error)
	// AverageAttendanceRate averages shop rollup attendance; ok is false when no rows exist
	AverageAttendanceRate(ctx context.Context, companyID string, departmentID string, from, to time.Time) (rate decimal.Decimal, ok bool, err error)
	ListVehicleIDs(ctx context.Context, companyID string, from, to time.Time) ([]string, error)
}

// WorkOrderCounter reports completed work orders for the daily rollup.
type WorkOrderCounter interface {
	CountCompleted(ctx context.Context, companyID string, technicianID string, date time.Time) (int, error)
}
