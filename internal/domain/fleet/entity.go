// Package fleet describes the read-only data mirrored from the billing and
// work-order systems, plus labor totals over the rollup tables.
package fleet

import (
	"time"

	"github.com/shopspring/decimal"
)

// Filter scopes a fleet query. Empty IDs match everything.
type Filter struct {
	DepartmentID string
	VehicleID    string
	TechnicianID string
	From         time.Time
	To           time.Time
}

// PMCompliance counts preventive-maintenance work orders due in a period.
type PMCompliance struct {
	Due             int
	CompletedOnTime int
}

// LaborTotals sums daily rollups over a period.
type LaborTotals struct {
	NetHours        decimal.Decimal
	BillableHours   decimal.Decimal
	ProductiveHours decimal.Decimal
	OvertimeHours   decimal.Decimal
	LaborCost       decimal.Decimal
	DaysRecorded    int
}
