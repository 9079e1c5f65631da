package report

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/cmlabs-hris/fleet-metrics-go/internal/domain/report"
	"github.com/cmlabs-hris/fleet-metrics-go/internal/domain/rollup"
	"github.com/cmlabs-hris/fleet-metrics-go/internal/domain/technician"
	"github.com/cmlabs-hris/fleet-metrics-go/internal/pkg/storage"
	"github.com/cmlabs-hris/fleet-metrics-go/internal/pkg/validator"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

const companyID = "company-1"

var monday = time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)

type fakeReportRepo struct{}

func (fakeReportRepo) LaborByTechnician(context.Context, string, time.Time, time.Time, string) ([]report.TechnicianLaborRow, error) {
	return []report.TechnicianLaborRow{
		{TechnicianID: "tech-1", FullName: "Ana Ruiz", EmployeeCode: "T-001", NetHours: decimal.NewFromInt(40), BillableHours: decimal.NewFromInt(30), LaborCost: decimal.NewFromInt(1600), DaysWorked: 5},
		{TechnicianID: "tech-2", FullName: "Lee Park", EmployeeCode: "T-002", NetHours: decimal.NewFromInt(40), BillableHours: decimal.NewFromInt(34), LaborCost: decimal.NewFromInt(1700), DaysWorked: 5},
	}, nil
}

type fakeRollups struct {
	daily  []rollup.DailyRollup
	weekly []rollup.WeeklyRollup
	shop   []rollup.ShopRollup
}

type dailyRepo struct{ *fakeRollups }
type weeklyRepo struct{ *fakeRollups }
type shopRepo struct{ *fakeRollups }

func (r dailyRepo) Replace(context.Context, rollup.DailyRollup) error { return nil }
func (r dailyRepo) Get(context.Context, string, string, time.Time) (rollup.DailyRollup, error) {
	return rollup.DailyRollup{}, rollup.ErrDailyRollupNotFound
}
func (r dailyRepo) ListForTechnician(_ context.Context, _ string, tech string, from, to time.Time) ([]rollup.DailyRollup, error) {
	var out []rollup.DailyRollup
	for _, d := range r.daily {
		if d.TechnicianID == tech && !d.Date.Before(from) && !d.Date.After(to) {
			out = append(out, d)
		}
	}
	return out, nil
}
func (r dailyRepo) ListForDate(context.Context, string, time.Time) ([]rollup.DailyRollup, error) {
	return nil, nil
}
func (r dailyRepo) List(context.Context, string, rollup.RollupFilter) ([]rollup.DailyRollup, error) {
	return r.daily, nil
}

func (r weeklyRepo) Replace(context.Context, rollup.WeeklyRollup) error { return nil }
func (r weeklyRepo) List(context.Context, string, rollup.RollupFilter) ([]rollup.WeeklyRollup, error) {
	return r.weekly, nil
}

func (r shopRepo) Replace(context.Context, rollup.ShopRollup) error { return nil }
func (r shopRepo) List(context.Context, string, rollup.RollupFilter) ([]rollup.ShopRollup, error) {
	return r.shop, nil
}

type techs struct{}

func (techs) GetByID(_ context.Context, id, company string) (technician.Technician, error) {
	if id != "tech-1" {
		return technician.Technician{}, technician.ErrTechnicianNotFound
	}
	return technician.Technician{ID: id, CompanyID: company}, nil
}
func (techs) ListActive(context.Context, string, string) ([]technician.Technician, error) {
	return nil, nil
}
func (techs) ListDepartments(context.Context, string) ([]string, error) { return nil, nil }
func (techs) ListCompanyIDs(context.Context) ([]string, error)          { return nil, nil }

func newTestService(t *testing.T) (report.ReportService, string) {
	t.Helper()
	dir := t.TempDir()
	local, err := storage.NewLocalStorage(dir, "http://localhost:8080/files")
	require.NoError(t, err)

	data := &fakeRollups{
		daily: []rollup.DailyRollup{
			{CompanyID: companyID, TechnicianID: "tech-1", Date: monday, NetHoursWorked: decimal.NewFromInt(8), EntryCount: 1},
			{CompanyID: companyID, TechnicianID: "tech-1", Date: monday.AddDate(0, 0, 1), NetHoursWorked: decimal.NewFromInt(9), EntryCount: 2},
		},
		weekly: []rollup.WeeklyRollup{{CompanyID: companyID, TechnicianID: "tech-1", WeekStart: monday, TotalHoursWorked: decimal.NewFromInt(17)}},
		shop: []rollup.ShopRollup{
			{CompanyID: companyID, Date: monday, TotalTechnicians: 2, TechniciansPresent: 2, AttendanceRate: decimal.NewFromInt(100)},
		},
	}
	svc := NewReportService(fakeReportRepo{}, dailyRepo{data}, weeklyRepo{data}, shopRepo{data}, techs{}, local, time.Hour)
	return svc, dir
}

func TestLaborSummary_Totals(t *testing.T) {
	svc, _ := newTestService(t)

	summary, err := svc.LaborSummary(context.Background(), companyID, report.RangeRequest{StartDate: "2024-03-04", EndDate: "2024-03-10"})
	require.NoError(t, err)
	assert.Len(t, summary.Technicians, 2)
	assert.True(t, summary.Totals.NetHours.Equal(decimal.NewFromInt(80)))
	assert.True(t, summary.Totals.UtilizationRate.Equal(decimal.NewFromInt(80)))
	assert.True(t, summary.Totals.LaborCost.Equal(decimal.NewFromInt(3300)))
}

func TestLaborSummary_RejectsLongRanges(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.LaborSummary(context.Background(), companyID, report.RangeRequest{StartDate: "2023-01-01", EndDate: "2024-03-10"})
	var verrs validator.ValidationErrors
	assert.ErrorAs(t, err, &verrs)
}

func TestTechnicianWeek(t *testing.T) {
	svc, _ := newTestService(t)

	week, err := svc.TechnicianWeek(context.Background(), companyID, "tech-1", monday.AddDate(0, 0, 3))
	require.NoError(t, err)
	assert.Equal(t, "2024-03-04", week.WeekStart)
	assert.Len(t, week.Days, 2)
	require.NotNil(t, week.Weekly)
	assert.True(t, week.Weekly.TotalHoursWorked.Equal(decimal.NewFromInt(17)))

	_, err = svc.TechnicianWeek(context.Background(), companyID, "ghost", monday)
	assert.ErrorIs(t, err, technician.ErrTechnicianNotFound)
}

func TestExportLabor_WritesWorkbook(t *testing.T) {
	svc, dir := newTestService(t)

	resp, err := svc.ExportLabor(context.Background(), companyID, report.RangeRequest{StartDate: "2024-03-04", EndDate: "2024-03-10"})
	require.NoError(t, err)
	assert.Contains(t, resp.Key, "exports/company-1/labor_2024-03-04_2024-03-10_")
	assert.Equal(t, "http://localhost:8080/files/"+resp.Key, resp.URL)
	assert.Positive(t, resp.SizeBytes)

	f, err := excelize.OpenFile(filepath.Join(dir, filepath.FromSlash(resp.Key)))
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{sheetSummary, sheetDaily, sheetShop}, f.GetSheetList())

	summaryRows, err := f.GetRows(sheetSummary)
	require.NoError(t, err)
	// title, blank, header, two technicians, totals
	require.Len(t, summaryRows, 6)
	assert.Equal(t, "T-001", summaryRows[3][0])
	assert.Equal(t, "TOTAL", summaryRows[5][0])
	assert.Equal(t, "80", summaryRows[5][2])

	dailyRows, err := f.GetRows(sheetDaily)
	require.NoError(t, err)
	assert.Len(t, dailyRows, 3)
	assert.Equal(t, "2024-03-05", dailyRows[2][0])

	shopRows, err := f.GetRows(sheetShop)
	require.NoError(t, err)
	assert.Len(t, shopRows, 2)
}
