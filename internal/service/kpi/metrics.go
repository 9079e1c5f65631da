package kpi

import (
	"context"

	"github.com/cmlabs-hris/fleet-metrics-go/internal/domain/fleet"
	"github.com/cmlabs-hris/fleet-metrics-go/internal/domain/kpi"
	"github.com/shopspring/decimal"
)

// Built-in metric codes.
const (
	CodeCostPerMile           = "cost_per_mile"
	CodeLaborCostPerMile      = "labor_cost_per_mile"
	CodePMCompliance          = "pm_compliance"
	CodeTechnicianUtilization = "technician_utilization"
	CodeTechnicianEfficiency  = "technician_efficiency"
	CodeOvertimeRatio         = "overtime_ratio"
	CodeAttendanceRate        = "attendance_rate"
)

type metricRegistrar interface {
	RegisterMetric(code string, fn kpi.CalculationFunc, scopes ...kpi.ScopeType)
}

// RegisterBuiltinMetrics binds the standard fleet calculations to source.
func RegisterBuiltinMetrics(r metricRegistrar, source fleet.DataSource) {
	m := builtinMetrics{source: source}

	r.RegisterMetric(CodeCostPerMile, m.costPerMile, kpi.ScopeFleet, kpi.ScopeDepartment, kpi.ScopeVehicle)
	r.RegisterMetric(CodeLaborCostPerMile, m.laborCostPerMile, kpi.ScopeFleet, kpi.ScopeDepartment, kpi.ScopeVehicle)
	r.RegisterMetric(CodePMCompliance, m.pmCompliance, kpi.ScopeFleet, kpi.ScopeDepartment, kpi.ScopeVehicle)
	r.RegisterMetric(CodeTechnicianUtilization, m.laborRatio(func(t fleet.LaborTotals) decimal.Decimal { return t.BillableHours }),
		kpi.ScopeFleet, kpi.ScopeDepartment, kpi.ScopeTechnician)
	r.RegisterMetric(CodeTechnicianEfficiency, m.laborRatio(func(t fleet.LaborTotals) decimal.Decimal { return t.ProductiveHours }),
		kpi.ScopeFleet, kpi.ScopeDepartment, kpi.ScopeTechnician)
	r.RegisterMetric(CodeOvertimeRatio, m.laborRatio(func(t fleet.LaborTotals) decimal.Decimal { return t.OvertimeHours }),
		kpi.ScopeFleet, kpi.ScopeDepartment, kpi.ScopeTechnician)
	r.RegisterMetric(CodeAttendanceRate, m.attendanceRate, kpi.ScopeFleet, kpi.ScopeDepartment)
}

type builtinMetrics struct {
	source fleet.DataSource
}

func filterFor(in kpi.CalculationInput) fleet.Filter {
	f := fleet.Filter{From: in.Period.Start, To: in.Period.End}
	switch in.Scope.Type {
	case kpi.ScopeDepartment:
		f.DepartmentID = in.Scope.ID
	case kpi.ScopeVehicle:
		f.VehicleID = in.Scope.ID
	case kpi.ScopeTechnician:
		f.TechnicianID = in.Scope.ID
	}
	return f
}

// ratio returns num/den, or nil when den is zero.
func ratio(num, den decimal.Decimal, scale int64) *float64 {
	if den.IsZero() {
		return nil
	}
	v := num.Mul(decimal.NewFromInt(scale)).Div(den).InexactFloat64()
	return &v
}

func (m builtinMetrics) perMile(ctx context.Context, in kpi.CalculationInput, cost decimal.Decimal) (*float64, error) {
	miles, err := m.source.MilesDriven(ctx, in.CompanyID, filterFor(in))
	if err != nil {
		return nil, err
	}
	return ratio(cost, miles, 1), nil
}

func (m builtinMetrics) costPerMile(ctx context.Context, in kpi.CalculationInput) (*float64, error) {
	cost, err := m.source.OperatingCost(ctx, in.CompanyID, filterFor(in))
	if err != nil {
		return nil, err
	}
	return m.perMile(ctx, in, cost)
}

func (m builtinMetrics) laborCostPerMile(ctx context.Context, in kpi.CalculationInput) (*float64, error) {
	cost, err := m.source.ApprovedLaborCost(ctx, in.CompanyID, filterFor(in))
	if err != nil {
		return nil, err
	}
	return m.perMile(ctx, in, cost)
}

func (m builtinMetrics) pmCompliance(ctx context.Context, in kpi.CalculationInput) (*float64, error) {
	pm, err := m.source.PMCompliance(ctx, in.CompanyID, filterFor(in))
	if err != nil {
		return nil, err
	}
	return ratio(decimal.NewFromInt(int64(pm.CompletedOnTime)), decimal.NewFromInt(int64(pm.Due)), 100), nil
}

// laborRatio expresses a share of net hours as a percentage.
func (m builtinMetrics) laborRatio(part func(fleet.LaborTotals) decimal.Decimal) kpi.CalculationFunc {
	return func(ctx context.Context, in kpi.CalculationInput) (*float64, error) {
		totals, err := m.source.LaborTotals(ctx, in.CompanyID, filterFor(in))
		if err != nil {
			return nil, err
		}
		return ratio(part(totals), totals.NetHours, 100), nil
	}
}

func (m builtinMetrics) attendanceRate(ctx context.Context, in kpi.CalculationInput) (*float64, error) {
	rate, ok, err := m.source.AverageAttendanceRate(ctx, in.CompanyID, filterFor(in).DepartmentID, in.Period.Start, in.Period.End)
	if err != nil || !ok {
		return nil, err
	}
	v := rate.InexactFloat64()
	return &v, nil
}
