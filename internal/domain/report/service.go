package report

import (
	"context"
	"time"
)

type ReportService interface {
	LaborSummary(ctx context.Context, companyID string, req RangeRequest) (LaborSummary, error)
	TechnicianWeek(ctx context.Context, companyID string, technicianID string, date time.Time) (TechnicianWeek, error)
	ShopTrend(ctx context.Context, companyID string, req RangeRequest) ([]ShopTrendPoint, error)

	// ExportLabor writes the labor summary, daily detail and shop trend to an
	// xlsx workbook in file storage and returns a download URL.
	ExportLabor(ctx context.Context, companyID string, req RangeRequest) (ExportResponse, error)
}
