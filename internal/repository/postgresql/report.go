package postgresql

import (
	"context"
	"fmt"
	"time"

	"github.com/cmlabs-hris/fleet-metrics-go/internal/domain/report"
	"github.com/cmlabs-hris/fleet-metrics-go/internal/pkg/database"
)

type reportRepositoryImpl struct {
	db *database.DB
}

func NewReportRepository(db *database.DB) report.ReportRepository {
	return &reportRepositoryImpl{db: db}
}

// LaborByTechnician aggregates the daily rollups of every technician that was
// active or has rollups in the period. Rates are recomputed from the summed hours.
func (r *reportRepositoryImpl) LaborByTechnician(ctx context.Context, companyID string, from, to time.Time, departmentID string) ([]report.TechnicianLaborRow, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		WITH technician_days AS (
			SELECT
				t.id AS technician_id,
				t.full_name,
				t.employee_code,
				t.department_id,
				t.is_active,
				d.technician_id AS rollup_technician_id,
				d.net_hours_worked,
				d.regular_hours,
				d.overtime_hours,
				d.billable_hours,
				d.productive_hours,
				d.labor_cost,
				d.overtime_cost,
				d.is_absent
			FROM technicians t
			LEFT JOIN daily_rollups d ON d.technician_id = t.id
				AND d.company_id = t.company_id
				AND d.rollup_date >= $2 AND d.rollup_date <= $3
			WHERE t.company_id = $1
				AND ($4 = '' OR t.department_id = $4)
		)
		SELECT
			technician_id::text,
			full_name,
			employee_code,
			department_id,
			COALESCE(SUM(net_hours_worked), 0) AS net_hours,
			COALESCE(SUM(regular_hours), 0) AS regular_hours,
			COALESCE(SUM(overtime_hours), 0) AS overtime_hours,
			COALESCE(SUM(billable_hours), 0) AS billable_hours,
			COALESCE(SUM(productive_hours), 0) AS productive_hours,
			CASE WHEN COALESCE(SUM(net_hours_worked), 0) = 0 THEN 0
				ELSE ROUND(SUM(billable_hours) / SUM(net_hours_worked) * 100, 2) END AS utilization_rate,
			CASE WHEN COALESCE(SUM(net_hours_worked), 0) = 0 THEN 0
				ELSE ROUND(SUM(productive_hours) / SUM(net_hours_worked) * 100, 2) END AS efficiency_rate,
			COALESCE(SUM(labor_cost), 0) AS labor_cost,
			COALESCE(SUM(overtime_cost), 0) AS overtime_cost,
			COUNT(*) FILTER (WHERE net_hours_worked > 0) AS days_worked,
			COUNT(*) FILTER (WHERE is_absent) AS days_absent
		FROM technician_days
		GROUP BY technician_id, full_name, employee_code, department_id, is_active
		HAVING is_active OR COUNT(rollup_technician_id) > 0
		ORDER BY employee_code, technician_id
	`

	rows, err := q.Query(ctx, query, companyID, from, to, departmentID)
	if err != nil {
		return nil, fmt.Errorf("failed to query labor by technician: %w", err)
	}
	defer rows.Close()

	var result []report.TechnicianLaborRow
	for rows.Next() {
		var row report.TechnicianLaborRow
		err := rows.Scan(
			&row.TechnicianID, &row.FullName, &row.EmployeeCode, &row.DepartmentID,
			&row.NetHours, &row.RegularHours, &row.OvertimeHours, &row.BillableHours, &row.ProductiveHours,
			&row.UtilizationRate, &row.EfficiencyRate, &row.LaborCost, &row.OvertimeCost,
			&row.DaysWorked, &row.DaysAbsent,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan labor row: %w", err)
		}
		result = append(result, row)
	}
	return result, rows.Err()
}
