package postgresql

import (
	"context"
	"fmt"
	"time"

	"github.com/cmlabs-hris/fleet-metrics-go/internal/domain/rollup"
	"github.com/cmlabs-hris/fleet-metrics-go/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

const dailyRollupColumns = `company_id, technician_id, rollup_date, total_hours, break_hours, net_hours_worked,
	direct_labor_hours, indirect_labor_hours, administrative_hours, training_hours, unclassified_hours,
	regular_hours, overtime_hours, billable_hours, productive_hours, utilization_rate, efficiency_rate,
	labor_cost, regular_cost, overtime_cost, entry_count, work_orders_completed, is_absent, has_overtime,
	computed_at`

type dailyRollupRepository struct {
	db *database.DB
}

func scanDailyRollup(row pgx.Row) (rollup.DailyRollup, error) {
	var d rollup.DailyRollup
	err := row.Scan(
		&d.CompanyID, &d.TechnicianID, &d.Date, &d.TotalHours, &d.BreakHours, &d.NetHoursWorked,
		&d.DirectLaborHours, &d.IndirectLaborHours, &d.AdministrativeHours, &d.TrainingHours, &d.UnclassifiedHours,
		&d.RegularHours, &d.OvertimeHours, &d.BillableHours, &d.ProductiveHours, &d.UtilizationRate, &d.EfficiencyRate,
		&d.LaborCost, &d.RegularCost, &d.OvertimeCost, &d.EntryCount, &d.WorkOrdersCompleted, &d.IsAbsent, &d.HasOvertime,
		&d.ComputedAt,
	)
	return d, err
}

func collectDailyRollups(rows pgx.Rows) ([]rollup.DailyRollup, error) {
	defer rows.Close()

	var out []rollup.DailyRollup
	for rows.Next() {
		d, err := scanDailyRollup(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan daily rollup: %w", err)
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// Replace implements rollup.DailyRollupRepository.
func (r *dailyRollupRepository) Replace(ctx context.Context, d rollup.DailyRollup) error {
	q := GetQuerier(ctx, r.db)

	_, err := q.Exec(ctx, `DELETE FROM daily_rollups WHERE company_id = $1 AND technician_id = $2 AND rollup_date = $3`,
		d.CompanyID, d.TechnicianID, d.Date)
	if err != nil {
		return fmt.Errorf("failed to clear daily rollup: %w", err)
	}

	query := `
		INSERT INTO daily_rollups (` + dailyRollupColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22, $23, $24, $25)
	`
	_, err = q.Exec(ctx, query,
		d.CompanyID, d.TechnicianID, d.Date, d.TotalHours, d.BreakHours, d.NetHoursWorked,
		d.DirectLaborHours, d.IndirectLaborHours, d.AdministrativeHours, d.TrainingHours, d.UnclassifiedHours,
		d.RegularHours, d.OvertimeHours, d.BillableHours, d.ProductiveHours, d.UtilizationRate, d.EfficiencyRate,
		d.LaborCost, d.RegularCost, d.OvertimeCost, d.EntryCount, d.WorkOrdersCompleted, d.IsAbsent, d.HasOvertime,
		d.ComputedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert daily rollup: %w", err)
	}
	return nil
}

// Get implements rollup.DailyRollupRepository.
func (r *dailyRollupRepository) Get(ctx context.Context, companyID string, technicianID string, date time.Time) (rollup.DailyRollup, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + dailyRollupColumns + ` FROM daily_rollups WHERE company_id = $1 AND technician_id = $2 AND rollup_date = $3`
	d, err := scanDailyRollup(q.QueryRow(ctx, query, companyID, technicianID, date))
	if err != nil {
		if isNoRows(err) {
			return rollup.DailyRollup{}, rollup.ErrDailyRollupNotFound
		}
		return rollup.DailyRollup{}, fmt.Errorf("failed to get daily rollup: %w", err)
	}
	return d, nil
}

// ListForTechnician implements rollup.DailyRollupRepository.
func (r *dailyRollupRepository) ListForTechnician(ctx context.Context, companyID string, technicianID string, from, to time.Time) ([]rollup.DailyRollup, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT ` + dailyRollupColumns + `
		FROM daily_rollups
		WHERE company_id = $1 AND technician_id = $2 AND rollup_date BETWEEN $3 AND $4
		ORDER BY rollup_date
	`
	rows, err := q.Query(ctx, query, companyID, technicianID, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to list daily rollups: %w", err)
	}
	return collectDailyRollups(rows)
}

// ListForDate implements rollup.DailyRollupRepository.
func (r *dailyRollupRepository) ListForDate(ctx context.Context, companyID string, date time.Time) ([]rollup.DailyRollup, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + dailyRollupColumns + ` FROM daily_rollups WHERE company_id = $1 AND rollup_date = $2 ORDER BY technician_id`
	rows, err := q.Query(ctx, query, companyID, date)
	if err != nil {
		return nil, fmt.Errorf("failed to list daily rollups: %w", err)
	}
	return collectDailyRollups(rows)
}

// List implements rollup.DailyRollupRepository.
func (r *dailyRollupRepository) List(ctx context.Context, companyID string, filter rollup.RollupFilter) ([]rollup.DailyRollup, error) {
	q := GetQuerier(ctx, r.db)

	where := "d.company_id = $1 AND d.rollup_date BETWEEN $2::date AND $3::date"
	args := []interface{}{companyID, filter.StartDate, filter.EndDate}
	if filter.TechnicianID != nil && *filter.TechnicianID != "" {
		args = append(args, *filter.TechnicianID)
		where += fmt.Sprintf(" AND d.technician_id = $%d", len(args))
	}
	if filter.DepartmentID != nil && *filter.DepartmentID != "" {
		args = append(args, *filter.DepartmentID)
		where += fmt.Sprintf(" AND t.department_id = $%d", len(args))
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM daily_rollups d
		JOIN technicians t ON t.id = d.technician_id AND t.company_id = d.company_id
		WHERE %s
		ORDER BY d.rollup_date, d.technician_id
	`, prefixColumns(dailyRollupColumns, "d."), where)
	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list daily rollups: %w", err)
	}
	return collectDailyRollups(rows)
}

func NewDailyRollupRepository(db *database.DB) rollup.DailyRollupRepository {
	return &dailyRollupRepository{db: db}
}

const weeklyRollupColumns = `company_id, technician_id, week_start, week_end, total_hours_worked, regular_hours,
	overtime_hours, billable_hours, productive_hours, labor_cost, overtime_cost, days_worked, days_absent,
	days_missing, avg_utilization_rate, avg_efficiency_rate, work_orders_completed, computed_at`

type weeklyRollupRepository struct {
	db *database.DB
}

// Replace implements rollup.WeeklyRollupRepository.
func (r *weeklyRollupRepository) Replace(ctx context.Context, w rollup.WeeklyRollup) error {
	q := GetQuerier(ctx, r.db)

	_, err := q.Exec(ctx, `DELETE FROM weekly_rollups WHERE company_id = $1 AND technician_id = $2 AND week_start = $3`,
		w.CompanyID, w.TechnicianID, w.WeekStart)
	if err != nil {
		return fmt.Errorf("failed to clear weekly rollup: %w", err)
	}

	query := `
		INSERT INTO weekly_rollups (` + weeklyRollupColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
	`
	_, err = q.Exec(ctx, query,
		w.CompanyID, w.TechnicianID, w.WeekStart, w.WeekEnd, w.TotalHoursWorked, w.RegularHours,
		w.OvertimeHours, w.BillableHours, w.ProductiveHours, w.LaborCost, w.OvertimeCost, w.DaysWorked, w.DaysAbsent,
		w.DaysMissing, w.AvgUtilizationRate, w.AvgEfficiencyRate, w.WorkOrdersCompleted, w.ComputedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert weekly rollup: %w", err)
	}
	return nil
}

// List implements rollup.WeeklyRollupRepository. Weeks are selected by week_start.
func (r *weeklyRollupRepository) List(ctx context.Context, companyID string, filter rollup.RollupFilter) ([]rollup.WeeklyRollup, error) {
	q := GetQuerier(ctx, r.db)

	where := "w.company_id = $1 AND w.week_start BETWEEN $2::date AND $3::date"
	args := []interface{}{companyID, filter.StartDate, filter.EndDate}
	if filter.TechnicianID != nil && *filter.TechnicianID != "" {
		args = append(args, *filter.TechnicianID)
		where += fmt.Sprintf(" AND w.technician_id = $%d", len(args))
	}
	if filter.DepartmentID != nil && *filter.DepartmentID != "" {
		args = append(args, *filter.DepartmentID)
		where += fmt.Sprintf(" AND t.department_id = $%d", len(args))
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM weekly_rollups w
		JOIN technicians t ON t.id = w.technician_id AND t.company_id = w.company_id
		WHERE %s
		ORDER BY w.week_start, w.technician_id
	`, prefixColumns(weeklyRollupColumns, "w."), where)
	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list weekly rollups: %w", err)
	}
	defer rows.Close()

	var out []rollup.WeeklyRollup
	for rows.Next() {
		var w rollup.WeeklyRollup
		err := rows.Scan(
			&w.CompanyID, &w.TechnicianID, &w.WeekStart, &w.WeekEnd, &w.TotalHoursWorked, &w.RegularHours,
			&w.OvertimeHours, &w.BillableHours, &w.ProductiveHours, &w.LaborCost, &w.OvertimeCost, &w.DaysWorked, &w.DaysAbsent,
			&w.DaysMissing, &w.AvgUtilizationRate, &w.AvgEfficiencyRate, &w.WorkOrdersCompleted, &w.ComputedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan weekly rollup: %w", err)
		}
		out = append(out, w)
	}
	return out, rows.Err()
}

func NewWeeklyRollupRepository(db *database.DB) rollup.WeeklyRollupRepository {
	return &weeklyRollupRepository{db: db}
}

const shopRollupColumns = `company_id, rollup_date, department_id, total_technicians, technicians_present,
	technicians_absent, attendance_rate, total_hours_worked, billable_hours, productive_hours, regular_hours,
	overtime_hours, utilization_rate, efficiency_rate, labor_cost, overtime_cost, work_orders_completed,
	technicians_with_overtime, authorized_overtime_hours, unauthorized_overtime_hours, computed_at`

type shopRollupRepository struct {
	db *database.DB
}

// Replace implements rollup.ShopRollupRepository.
func (r *shopRollupRepository) Replace(ctx context.Context, s rollup.ShopRollup) error {
	q := GetQuerier(ctx, r.db)

	_, err := q.Exec(ctx, `DELETE FROM shop_rollups WHERE company_id = $1 AND rollup_date = $2 AND department_id = $3`,
		s.CompanyID, s.Date, s.DepartmentID)
	if err != nil {
		return fmt.Errorf("failed to clear shop rollup: %w", err)
	}

	query := `
		INSERT INTO shop_rollups (` + shopRollupColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21)
	`
	_, err = q.Exec(ctx, query,
		s.CompanyID, s.Date, s.DepartmentID, s.TotalTechnicians, s.TechniciansPresent,
		s.TechniciansAbsent, s.AttendanceRate, s.TotalHoursWorked, s.BillableHours, s.ProductiveHours, s.RegularHours,
		s.OvertimeHours, s.UtilizationRate, s.EfficiencyRate, s.LaborCost, s.OvertimeCost, s.WorkOrdersCompleted,
		s.TechniciansWithOvertime, s.AuthorizedOvertimeHours, s.UnauthorizedOvertimeHours, s.ComputedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert shop rollup: %w", err)
	}
	return nil
}

// List implements rollup.ShopRollupRepository.
func (r *shopRollupRepository) List(ctx context.Context, companyID string, filter rollup.RollupFilter) ([]rollup.ShopRollup, error) {
	q := GetQuerier(ctx, r.db)

	department := ""
	if filter.DepartmentID != nil {
		department = *filter.DepartmentID
	}

	query := `
		SELECT ` + shopRollupColumns + `
		FROM shop_rollups
		WHERE company_id = $1 AND rollup_date BETWEEN $2::date AND $3::date AND department_id = $4
		ORDER BY rollup_date
	`
	rows, err := q.Query(ctx, query, companyID, filter.StartDate, filter.EndDate, department)
	if err != nil {
		return nil, fmt.Errorf("failed to list shop rollups: %w", err)
	}
	defer rows.Close()

	var out []rollup.ShopRollup
	for rows.Next() {
		var s rollup.ShopRollup
		err := rows.Scan(
			&s.CompanyID, &s.Date, &s.DepartmentID, &s.TotalTechnicians, &s.TechniciansPresent,
			&s.TechniciansAbsent, &s.AttendanceRate, &s.TotalHoursWorked, &s.BillableHours, &s.ProductiveHours, &s.RegularHours,
			&s.OvertimeHours, &s.UtilizationRate, &s.EfficiencyRate, &s.LaborCost, &s.OvertimeCost, &s.WorkOrdersCompleted,
			&s.TechniciansWithOvertime, &s.AuthorizedOvertimeHours, &s.UnauthorizedOvertimeHours, &s.ComputedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan shop rollup: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func NewShopRollupRepository(db *database.DB) rollup.ShopRollupRepository {
	return &shopRollupRepository{db: db}
}
