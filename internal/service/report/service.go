package report

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/cmlabs-hris/fleet-metrics-go/internal/domain/report"
	"github.com/cmlabs-hris/fleet-metrics-go/internal/domain/rollup"
	"github.com/cmlabs-hris/fleet-metrics-go/internal/domain/technician"
	"github.com/cmlabs-hris/fleet-metrics-go/internal/pkg/storage"
)

type ReportServiceImpl struct {
	reportRepo     report.ReportRepository
	dailyRepo      rollup.DailyRollupRepository
	weeklyRepo     rollup.WeeklyRollupRepository
	shopRepo       rollup.ShopRollupRepository
	technicianRepo technician.TechnicianRepository
	storage        storage.FileStorage
	urlExpiry      time.Duration
	now            func() time.Time
}

func NewReportService(
	reportRepo report.ReportRepository,
	dailyRepo rollup.DailyRollupRepository,
	weeklyRepo rollup.WeeklyRollupRepository,
	shopRepo rollup.ShopRollupRepository,
	technicianRepo technician.TechnicianRepository,
	fileStorage storage.FileStorage,
	urlExpiry time.Duration,
) report.ReportService {
	if urlExpiry <= 0 {
		urlExpiry = 24 * time.Hour
	}
	return &ReportServiceImpl{
		reportRepo:     reportRepo,
		dailyRepo:      dailyRepo,
		weeklyRepo:     weeklyRepo,
		shopRepo:       shopRepo,
		technicianRepo: technicianRepo,
		storage:        fileStorage,
		urlExpiry:      urlExpiry,
		now:            func() time.Time { return time.Now().UTC() },
	}
}

func rangeFilter(req report.RangeRequest) rollup.RollupFilter {
	return rollup.RollupFilter{DepartmentID: req.DepartmentID, StartDate: req.StartDate, EndDate: req.EndDate}
}

// LaborSummary implements report.ReportService.
func (s *ReportServiceImpl) LaborSummary(ctx context.Context, companyID string, req report.RangeRequest) (report.LaborSummary, error) {
	start, end, err := req.Validate()
	if err != nil {
		return report.LaborSummary{}, err
	}

	rows, err := s.reportRepo.LaborByTechnician(ctx, companyID, start, end, req.Department())
	if err != nil {
		return report.LaborSummary{}, fmt.Errorf("failed to get labor data: %w", err)
	}

	return report.LaborSummary{
		PeriodStart:  start.Format("2006-01-02"),
		PeriodEnd:    end.Format("2006-01-02"),
		DepartmentID: req.Department(),
		GeneratedAt:  s.now().Format(time.RFC3339),
		Totals:       report.Totalize(rows),
		Technicians:  rows,
	}, nil
}

// TechnicianWeek implements report.ReportService.
func (s *ReportServiceImpl) TechnicianWeek(ctx context.Context, companyID string, technicianID string, date time.Time) (report.TechnicianWeek, error) {
	if _, err := s.technicianRepo.GetByID(ctx, technicianID, companyID); err != nil {
		return report.TechnicianWeek{}, err
	}

	weekStart := rollup.WeekStart(date)
	days, err := s.dailyRepo.ListForTechnician(ctx, companyID, technicianID, weekStart, weekStart.AddDate(0, 0, 6))
	if err != nil {
		return report.TechnicianWeek{}, fmt.Errorf("failed to get daily rollups: %w", err)
	}

	ws := weekStart.Format("2006-01-02")
	weeks, err := s.weeklyRepo.List(ctx, companyID, rollup.RollupFilter{TechnicianID: &technicianID, StartDate: ws, EndDate: ws})
	if err != nil {
		return report.TechnicianWeek{}, fmt.Errorf("failed to get weekly rollup: %w", err)
	}

	resp := report.TechnicianWeek{TechnicianID: technicianID, WeekStart: ws, Days: days}
	if len(weeks) > 0 {
		resp.Weekly = &weeks[0]
	}
	return resp, nil
}

// ShopTrend implements report.ReportService.
func (s *ReportServiceImpl) ShopTrend(ctx context.Context, companyID string, req report.RangeRequest) ([]report.ShopTrendPoint, error) {
	if _, _, err := req.Validate(); err != nil {
		return nil, err
	}

	rows, err := s.shopRepo.List(ctx, companyID, rangeFilter(req))
	if err != nil {
		return nil, fmt.Errorf("failed to get shop rollups: %w", err)
	}
	points := make([]report.ShopTrendPoint, 0, len(rows))
	for _, r := range rows {
		points = append(points, report.NewShopTrendPoint(r))
	}
	return points, nil
}

// ExportLabor implements report.ReportService.
func (s *ReportServiceImpl) ExportLabor(ctx context.Context, companyID string, req report.RangeRequest) (report.ExportResponse, error) {
	summary, err := s.LaborSummary(ctx, companyID, req)
	if err != nil {
		return report.ExportResponse{}, err
	}

	daily, err := s.dailyRepo.List(ctx, companyID, rangeFilter(req))
	if err != nil {
		return report.ExportResponse{}, fmt.Errorf("failed to get daily rollups: %w", err)
	}
	shop, err := s.shopRepo.List(ctx, companyID, rangeFilter(req))
	if err != nil {
		return report.ExportResponse{}, fmt.Errorf("failed to get shop rollups: %w", err)
	}

	f, err := buildLaborWorkbook(summary, daily, shop)
	if err != nil {
		return report.ExportResponse{}, fmt.Errorf("%w: %v", report.ErrExportFailed, err)
	}
	defer f.Close()

	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		return report.ExportResponse{}, fmt.Errorf("%w: %v", report.ErrExportFailed, err)
	}

	now := s.now()
	key := fmt.Sprintf("exports/%s/labor_%s_%s_%s.xlsx", companyID, summary.PeriodStart, summary.PeriodEnd, now.Format("20060102T150405"))
	size := int64(buf.Len())
	key, err = s.storage.Upload(ctx, &buf, size, key, storage.ContentTypeXLSX)
	if err != nil {
		return report.ExportResponse{}, fmt.Errorf("failed to upload export: %w", err)
	}

	url, err := s.storage.GetURL(ctx, key, s.urlExpiry)
	if err != nil {
		return report.ExportResponse{}, fmt.Errorf("failed to get export url: %w", err)
	}

	return report.ExportResponse{
		Key:         key,
		URL:         url,
		SizeBytes:   size,
		GeneratedAt: now.Format(time.RFC3339),
	}, nil
}
