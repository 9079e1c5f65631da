package rollup

import (
	"time"

	"github.com/shopspring/decimal"
)

// DailyRollup is the derived labor summary of one technician-day. It is
// rebuilt wholesale from approved entries and never patched in place.
type DailyRollup struct {
	CompanyID           string          `json:"company_id"`
	TechnicianID        string          `json:"technician_id"`
	Date                time.Time       `json:"date"`
	TotalHours          decimal.Decimal `json:"total_hours"`
	BreakHours          decimal.Decimal `json:"break_hours"`
	NetHoursWorked      decimal.Decimal `json:"net_hours_worked"`
	DirectLaborHours    decimal.Decimal `json:"direct_labor_hours"`
	IndirectLaborHours  decimal.Decimal `json:"indirect_labor_hours"`
	AdministrativeHours decimal.Decimal `json:"administrative_hours"`
	TrainingHours       decimal.Decimal `json:"training_hours"`
	UnclassifiedHours   decimal.Decimal `json:"unclassified_hours"`
	RegularHours        decimal.Decimal `json:"regular_hours"`
	OvertimeHours       decimal.Decimal `json:"overtime_hours"`
	BillableHours       decimal.Decimal `json:"billable_hours"`
	ProductiveHours     decimal.Decimal `json:"productive_hours"`
	UtilizationRate     decimal.Decimal `json:"utilization_rate"`
	EfficiencyRate      decimal.Decimal `json:"efficiency_rate"`
	LaborCost           decimal.Decimal `json:"labor_cost"`
	RegularCost         decimal.Decimal `json:"regular_cost"`
	OvertimeCost        decimal.Decimal `json:"overtime_cost"`
	EntryCount          int             `json:"entry_count"`
	WorkOrdersCompleted int             `json:"work_orders_completed"`
	IsAbsent            bool            `json:"is_absent"`
	HasOvertime         bool            `json:"has_overtime"`
	ComputedAt          time.Time       `json:"computed_at"`
}

// WeeklyRollup sums the seven daily rollups of a technician-week.
type WeeklyRollup struct {
	CompanyID           string          `json:"company_id"`
	TechnicianID        string          `json:"technician_id"`
	WeekStart           time.Time       `json:"week_start"`
	WeekEnd             time.Time       `json:"week_end"`
	TotalHoursWorked    decimal.Decimal `json:"total_hours_worked"`
	RegularHours        decimal.Decimal `json:"regular_hours"`
	OvertimeHours       decimal.Decimal `json:"overtime_hours"`
	BillableHours       decimal.Decimal `json:"billable_hours"`
	ProductiveHours     decimal.Decimal `json:"productive_hours"`
	LaborCost           decimal.Decimal `json:"labor_cost"`
	OvertimeCost        decimal.Decimal `json:"overtime_cost"`
	DaysWorked          int             `json:"days_worked"`
	DaysAbsent          int             `json:"days_absent"`
	DaysMissing         int             `json:"days_missing"`
	AvgUtilizationRate  decimal.Decimal `json:"avg_utilization_rate"`
	AvgEfficiencyRate   decimal.Decimal `json:"avg_efficiency_rate"`
	WorkOrdersCompleted int             `json:"work_orders_completed"`
	ComputedAt          time.Time       `json:"computed_at"`
}

// ShopRollup aggregates every in-scope technician's day. An empty
// DepartmentID is the organization-wide row.
type ShopRollup struct {
	CompanyID                 string          `json:"company_id"`
	Date                      time.Time       `json:"date"`
	DepartmentID              string          `json:"department_id"`
	TotalTechnicians          int             `json:"total_technicians"`
	TechniciansPresent        int             `json:"technicians_present"`
	TechniciansAbsent         int             `json:"technicians_absent"`
	AttendanceRate            decimal.Decimal `json:"attendance_rate"`
	TotalHoursWorked          decimal.Decimal `json:"total_hours_worked"`
	BillableHours             decimal.Decimal `json:"billable_hours"`
	ProductiveHours           decimal.Decimal `json:"productive_hours"`
	RegularHours              decimal.Decimal `json:"regular_hours"`
	OvertimeHours             decimal.Decimal `json:"overtime_hours"`
	UtilizationRate           decimal.Decimal `json:"utilization_rate"`
	EfficiencyRate            decimal.Decimal `json:"efficiency_rate"`
	LaborCost                 decimal.Decimal `json:"labor_cost"`
	OvertimeCost              decimal.Decimal `json:"overtime_cost"`
	WorkOrdersCompleted       int             `json:"work_orders_completed"`
	TechniciansWithOvertime   int             `json:"technicians_with_overtime"`
	AuthorizedOvertimeHours   decimal.Decimal `json:"authorized_overtime_hours"`
	UnauthorizedOvertimeHours decimal.Decimal `json:"unauthorized_overtime_hours"`
	ComputedAt                time.Time       `json:"computed_at"`
}
