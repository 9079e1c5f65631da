package postgresql

import (
	"context"
	"fmt"
	"time"

	"github.com/cmlabs-hris/fleet-metrics-go/internal/domain/fleet"
	"github.com/cmlabs-hris/fleet-metrics-go/internal/pkg/database"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// preventiveOrderType marks work orders counted by PM compliance.
const preventiveOrderType = "preventive"

type fleetRepository struct {
	db *database.DB
}

// scopeWhere appends the department and vehicle conditions of f. The date
// column bounds are always $2 and $3.
func scopeWhere(f fleet.Filter, args []interface{}, departmentCol, vehicleCol string) (string, []interface{}) {
	where := ""
	if f.DepartmentID != "" && departmentCol != "" {
		args = append(args, f.DepartmentID)
		where += fmt.Sprintf(" AND %s = $%d", departmentCol, len(args))
	}
	if f.VehicleID != "" && vehicleCol != "" {
		args = append(args, f.VehicleID)
		where += fmt.Sprintf(" AND %s = $%d", vehicleCol, len(args))
	}
	return where, args
}

func (r *fleetRepository) sum(ctx context.Context, query string, args ...interface{}) (decimal.Decimal, error) {
	q := GetQuerier(ctx, r.db)

	var total decimal.Decimal
	if err := q.QueryRow(ctx, query, args...).Scan(&total); err != nil {
		return decimal.Zero, err
	}
	return total, nil
}

// MilesDriven implements fleet.DataSource.
func (r *fleetRepository) MilesDriven(ctx context.Context, companyID string, f fleet.Filter) (decimal.Decimal, error) {
	where, args := scopeWhere(f, []interface{}{companyID, f.From, f.To}, "department_id", "vehicle_id")
	query := `
		SELECT COALESCE(SUM(miles_driven), 0)
		FROM vehicle_mileage_logs
		WHERE company_id = $1 AND log_date BETWEEN $2 AND $3` + where

	miles, err := r.sum(ctx, query, args...)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to sum miles driven: %w", err)
	}
	return miles, nil
}

// OperatingCost implements fleet.DataSource.
func (r *fleetRepository) OperatingCost(ctx context.Context, companyID string, f fleet.Filter, costTypes ...string) (decimal.Decimal, error) {
	where, args := scopeWhere(f, []interface{}{companyID, f.From, f.To}, "department_id", "vehicle_id")
	if len(costTypes) > 0 {
		args = append(args, costTypes)
		where += fmt.Sprintf(" AND cost_type = ANY($%d)", len(args))
	}
	query := `
		SELECT COALESCE(SUM(amount), 0)
		FROM cost_ledger_entries
		WHERE company_id = $1 AND entry_date BETWEEN $2 AND $3` + where

	cost, err := r.sum(ctx, query, args...)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to sum operating cost: %w", err)
	}
	return cost, nil
}

// ApprovedLaborCost implements fleet.DataSource.
func (r *fleetRepository) ApprovedLaborCost(ctx context.Context, companyID string, f fleet.Filter) (decimal.Decimal, error) {
	where, args := scopeWhere(f, []interface{}{companyID, f.From, f.To}, "t.department_id", "e.vehicle_id")
	if f.TechnicianID != "" {
		args = append(args, f.TechnicianID)
		where += fmt.Sprintf(" AND e.technician_id = $%d", len(args))
	}
	query := `
		SELECT COALESCE(SUM(e.total_cost), 0)
		FROM time_entries e
		JOIN technicians t ON t.id = e.technician_id AND t.company_id = e.company_id
		WHERE e.company_id = $1 AND e.entry_date BETWEEN $2 AND $3 AND e.status = 'approved'` + where

	cost, err := r.sum(ctx, query, args...)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to sum approved labor cost: %w", err)
	}
	return cost, nil
}

// PMCompliance implements fleet.DataSource. An order is on time when it was
// completed on or before its due date.
func (r *fleetRepository) PMCompliance(ctx context.Context, companyID string, f fleet.Filter) (fleet.PMCompliance, error) {
	q := GetQuerier(ctx, r.db)

	where, args := scopeWhere(f, []interface{}{companyID, f.From, f.To, preventiveOrderType}, "department_id", "vehicle_id")
	query := `
		SELECT
			COUNT(*),
			COUNT(*) FILTER (WHERE completed_at IS NOT NULL AND completed_at::date <= due_date)
		FROM work_orders
		WHERE company_id = $1 AND due_date BETWEEN $2 AND $3 AND order_type = $4` + where

	var pm fleet.PMCompliance
	if err := q.QueryRow(ctx, query, args...).Scan(&pm.Due, &pm.CompletedOnTime); err != nil {
		return fleet.PMCompliance{}, fmt.Errorf("failed to count preventive maintenance: %w", err)
	}
	return pm, nil
}

// LaborTotals implements fleet.DataSource.
func (r *fleetRepository) LaborTotals(ctx context.Context, companyID string, f fleet.Filter) (fleet.LaborTotals, error) {
	q := GetQuerier(ctx, r.db)

	where, args := scopeWhere(f, []interface{}{companyID, f.From, f.To}, "t.department_id", "")
	if f.TechnicianID != "" {
		args = append(args, f.TechnicianID)
		where += fmt.Sprintf(" AND d.technician_id = $%d", len(args))
	}
	query := `
		SELECT
			COALESCE(SUM(d.net_hours_worked), 0),
			COALESCE(SUM(d.billable_hours), 0),
			COALESCE(SUM(d.productive_hours), 0),
			COALESCE(SUM(d.overtime_hours), 0),
			COALESCE(SUM(d.labor_cost), 0),
			COUNT(*)
		FROM daily_rollups d
		JOIN technicians t ON t.id = d.technician_id AND t.company_id = d.company_id
		WHERE d.company_id = $1 AND d.rollup_date BETWEEN $2 AND $3` + where

	var totals fleet.LaborTotals
	err := q.QueryRow(ctx, query, args...).Scan(
		&totals.NetHours, &totals.BillableHours, &totals.ProductiveHours,
		&totals.OvertimeHours, &totals.LaborCost, &totals.DaysRecorded,
	)
	if err != nil {
		return fleet.LaborTotals{}, fmt.Errorf("failed to sum labor totals: %w", err)
	}
	return totals, nil
}

// AverageAttendanceRate implements fleet.DataSource.
func (r *fleetRepository) AverageAttendanceRate(ctx context.Context, companyID string, departmentID string, from, to time.Time) (decimal.Decimal, bool, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT COALESCE(ROUND(AVG(attendance_rate), 2), 0), COUNT(*)
		FROM shop_rollups
		WHERE company_id = $1 AND rollup_date BETWEEN $2 AND $3 AND department_id = $4
	`
	var (
		rate decimal.Decimal
		n    int
	)
	if err := q.QueryRow(ctx, query, companyID, from, to, departmentID).Scan(&rate, &n); err != nil {
		return decimal.Zero, false, fmt.Errorf("failed to average attendance rate: %w", err)
	}
	return rate, n > 0, nil
}

// ListVehicleIDs implements fleet.DataSource.
func (r *fleetRepository) ListVehicleIDs(ctx context.Context, companyID string, from, to time.Time) ([]string, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT vehicle_id FROM vehicle_mileage_logs
		WHERE company_id = $1 AND log_date BETWEEN $2 AND $3
		UNION
		SELECT vehicle_id FROM cost_ledger_entries
		WHERE company_id = $1 AND entry_date BETWEEN $2 AND $3 AND vehicle_id IS NOT NULL
		ORDER BY 1
	`
	rows, err := q.Query(ctx, query, companyID, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to list vehicles: %w", err)
	}
	return pgx.CollectRows(rows, pgx.RowTo[string])
}

// CountCompleted implements fleet.WorkOrderCounter.
func (r *fleetRepository) CountCompleted(ctx context.Context, companyID string, technicianID string, date time.Time) (int, error) {
	q := GetQuerier(ctx, r.db)

	var n int
	err := q.QueryRow(ctx, `
		SELECT COUNT(*)
		FROM work_orders
		WHERE company_id = $1 AND technician_id = $2 AND completed_at::date = $3
	`, companyID, technicianID, date).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count completed work orders: %w", err)
	}
	return n, nil
}

// FleetRepository serves both the KPI data source and the work-order counter.
type FleetRepository interface {
	fleet.DataSource
	fleet.WorkOrderCounter
}

func NewFleetRepository(db *database.DB) FleetRepository {
	return &fleetRepository{db: db}
}
