package report

import (
	"time"

	"github.com/cmlabs-hris/fleet-metrics-go/internal/domain/rollup"
	"github.com/cmlabs-hris/fleet-metrics-go/internal/pkg/validator"
	"github.com/shopspring/decimal"
)

// maxReportDays bounds any report or export range.
const maxReportDays = 366

// ========================================
// LABOR SUMMARY REPORT
// ========================================

type RangeRequest struct {
	StartDate    string  `json:"start_date"` // YYYY-MM-DD
	EndDate      string  `json:"end_date"`   // YYYY-MM-DD
	DepartmentID *string `json:"department_id,omitempty"`
}

// Validate returns the parsed range.
func (r *RangeRequest) Validate() (time.Time, time.Time, error) {
	var errs validator.ValidationErrors

	start, okStart := validator.IsValidDate(r.StartDate)
	if !okStart {
		errs.Add("start_date", "start_date must be in YYYY-MM-DD format")
	}
	end, okEnd := validator.IsValidDate(r.EndDate)
	if !okEnd {
		errs.Add("end_date", "end_date must be in YYYY-MM-DD format")
	}
	if okStart && okEnd {
		if end.Before(start) {
			errs.Add("end_date", "end_date must not be before start_date")
		} else if end.Sub(start) > maxReportDays*24*time.Hour {
			errs.Add("end_date", "range must not exceed 366 days")
		}
	}
	return start, end, errs.Err()
}

func (r *RangeRequest) Department() string {
	if r.DepartmentID == nil {
		return ""
	}
	return *r.DepartmentID
}

type TechnicianLaborRow struct {
	TechnicianID    string          `json:"technician_id"`
	FullName        string          `json:"full_name"`
	EmployeeCode    string          `json:"employee_code"`
	DepartmentID    *string         `json:"department_id,omitempty"`
	NetHours        decimal.Decimal `json:"net_hours"`
	RegularHours    decimal.Decimal `json:"regular_hours"`
	OvertimeHours   decimal.Decimal `json:"overtime_hours"`
	BillableHours   decimal.Decimal `json:"billable_hours"`
	ProductiveHours decimal.Decimal `json:"productive_hours"`
	UtilizationRate decimal.Decimal `json:"utilization_rate"`
	EfficiencyRate  decimal.Decimal `json:"efficiency_rate"`
	LaborCost       decimal.Decimal `json:"labor_cost"`
	OvertimeCost    decimal.Decimal `json:"overtime_cost"`
	DaysWorked      int             `json:"days_worked"`
	DaysAbsent      int             `json:"days_absent"`
}

type LaborTotals struct {
	NetHours        decimal.Decimal `json:"net_hours"`
	OvertimeHours   decimal.Decimal `json:"overtime_hours"`
	BillableHours   decimal.Decimal `json:"billable_hours"`
	UtilizationRate decimal.Decimal `json:"utilization_rate"`
	LaborCost       decimal.Decimal `json:"labor_cost"`
	OvertimeCost    decimal.Decimal `json:"overtime_cost"`
}

type LaborSummary struct {
	PeriodStart  string               `json:"period_start"`
	PeriodEnd    string               `json:"period_end"`
	DepartmentID string               `json:"department_id,omitempty"`
	GeneratedAt  string               `json:"generated_at"`
	Totals       LaborTotals          `json:"totals"`
	Technicians  []TechnicianLaborRow `json:"technicians"`
}

// Totalize sums technician rows; utilization is recomputed from the sums.
func Totalize(rows []TechnicianLaborRow) LaborTotals {
	var t LaborTotals
	for _, r := range rows {
		t.NetHours = t.NetHours.Add(r.NetHours)
		t.OvertimeHours = t.OvertimeHours.Add(r.OvertimeHours)
		t.BillableHours = t.BillableHours.Add(r.BillableHours)
		t.LaborCost = t.LaborCost.Add(r.LaborCost)
		t.OvertimeCost = t.OvertimeCost.Add(r.OvertimeCost)
	}
	if t.NetHours.IsPositive() {
		t.UtilizationRate = t.BillableHours.Div(t.NetHours).Mul(decimal.NewFromInt(100)).Round(2)
	}
	return t
}

// ========================================
// TECHNICIAN WEEK
// ========================================

type TechnicianWeek struct {
	TechnicianID string               `json:"technician_id"`
	WeekStart    string               `json:"week_start"`
	Weekly       *rollup.WeeklyRollup `json:"weekly"`
	Days         []rollup.DailyRollup `json:"days"`
}

// ========================================
// SHOP TREND
// ========================================

type ShopTrendPoint struct {
	Date                      string          `json:"date"`
	TotalTechnicians          int             `json:"total_technicians"`
	TechniciansPresent        int             `json:"technicians_present"`
	AttendanceRate            decimal.Decimal `json:"attendance_rate"`
	TotalHoursWorked          decimal.Decimal `json:"total_hours_worked"`
	UtilizationRate           decimal.Decimal `json:"utilization_rate"`
	EfficiencyRate            decimal.Decimal `json:"efficiency_rate"`
	LaborCost                 decimal.Decimal `json:"labor_cost"`
	OvertimeHours             decimal.Decimal `json:"overtime_hours"`
	UnauthorizedOvertimeHours decimal.Decimal `json:"unauthorized_overtime_hours"`
}

// NewShopTrendPoint projects a shop rollup onto a chart point.
func NewShopTrendPoint(s rollup.ShopRollup) ShopTrendPoint {
	return ShopTrendPoint{
		Date:                      s.Date.Format("2006-01-02"),
		TotalTechnicians:          s.TotalTechnicians,
		TechniciansPresent:        s.TechniciansPresent,
		AttendanceRate:            s.AttendanceRate,
		TotalHoursWorked:          s.TotalHoursWorked,
		UtilizationRate:           s.UtilizationRate,
		EfficiencyRate:            s.EfficiencyRate,
		LaborCost:                 s.LaborCost,
		OvertimeHours:             s.OvertimeHours,
		UnauthorizedOvertimeHours: s.UnauthorizedOvertimeHours,
	}
}

// ========================================
// EXPORT
// ========================================

type ExportResponse struct {
	Key         string `json:"key"`
	URL         string `json:"url"`
	SizeBytes   int64  `json:"size_bytes"`
	GeneratedAt string `json:"generated_at"`
}
