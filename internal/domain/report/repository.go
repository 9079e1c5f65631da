package report

import (
	"context"
	"time"
)

// ReportRepository runs read-only aggregate queries over the rollup tables.
type ReportRepository interface {
	// LaborByTechnician aggregates daily rollups per technician in [from, to]
	LaborByTechnician(ctx context.Context, companyID string, from, to time.Time, departmentID string) ([]TechnicianLaborRow, error)
}
