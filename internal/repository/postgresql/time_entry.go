package postgresql

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/cmlabs-hris/fleet-metrics-go/internal/domain/timeentry"
	"github.com/cmlabs-hris/fleet-metrics-go/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

const timeEntryColumns = `id, company_id, technician_id, time_code_id, entry_date, clock_in, clock_out,
	total_hours, break_hours, net_hours, regular_hours, overtime_hours, is_overtime,
	regular_rate, overtime_rate, total_cost, work_order_id, vehicle_id, notes,
	status, approved_by, approved_at, rejection_reason, created_by, created_at, updated_at`

type timeEntryRepository struct {
	db *database.DB
}

func scanTimeEntry(row pgx.Row) (timeentry.TimeEntry, error) {
	var e timeentry.TimeEntry
	err := row.Scan(
		&e.ID, &e.CompanyID, &e.TechnicianID, &e.TimeCodeID, &e.EntryDate, &e.ClockIn, &e.ClockOut,
		&e.TotalHours, &e.BreakHours, &e.NetHours, &e.RegularHours, &e.OvertimeHours, &e.IsOvertime,
		&e.RegularRate, &e.OvertimeRate, &e.TotalCost, &e.WorkOrderID, &e.VehicleID, &e.Notes,
		&e.Status, &e.ApprovedBy, &e.ApprovedAt, &e.RejectionReason, &e.CreatedBy, &e.CreatedAt, &e.UpdatedAt,
	)
	return e, err
}

func collectTimeEntries(rows pgx.Rows) ([]timeentry.TimeEntry, error) {
	defer rows.Close()

	var entries []timeentry.TimeEntry
	for rows.Next() {
		e, err := scanTimeEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan time entry: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Create implements timeentry.TimeEntryRepository.
func (r *timeEntryRepository) Create(ctx context.Context, entry timeentry.TimeEntry) (timeentry.TimeEntry, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO time_entries (
			id, company_id, technician_id, time_code_id, entry_date, clock_in, clock_out,
			total_hours, break_hours, net_hours, regular_hours, overtime_hours, is_overtime,
			regular_rate, overtime_rate, total_cost, work_order_id, vehicle_id, notes,
			status, created_by
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21
		) RETURNING created_at, updated_at
	`
	err := q.QueryRow(ctx, query,
		entry.ID, entry.CompanyID, entry.TechnicianID, entry.TimeCodeID, entry.EntryDate, entry.ClockIn, entry.ClockOut,
		entry.TotalHours, entry.BreakHours, entry.NetHours, entry.RegularHours, entry.OvertimeHours, entry.IsOvertime,
		entry.RegularRate, entry.OvertimeRate, entry.TotalCost, entry.WorkOrderID, entry.VehicleID, entry.Notes,
		entry.Status, entry.CreatedBy,
	).Scan(&entry.CreatedAt, &entry.UpdatedAt)
	if err != nil {
		return timeentry.TimeEntry{}, fmt.Errorf("failed to create time entry: %w", err)
	}
	return entry, nil
}

// GetByID implements timeentry.TimeEntryRepository.
func (r *timeEntryRepository) GetByID(ctx context.Context, id string, companyID string) (timeentry.TimeEntry, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + timeEntryColumns + ` FROM time_entries WHERE id = $1 AND company_id = $2`
	e, err := scanTimeEntry(q.QueryRow(ctx, query, id, companyID))
	if err != nil {
		if isNoRows(err) {
			return timeentry.TimeEntry{}, timeentry.ErrTimeEntryNotFound
		}
		return timeentry.TimeEntry{}, fmt.Errorf("failed to get time entry: %w", err)
	}
	return e, nil
}

// Update implements timeentry.TimeEntryRepository.
func (r *timeEntryRepository) Update(ctx context.Context, entry timeentry.TimeEntry) (timeentry.TimeEntry, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		UPDATE time_entries SET
			time_code_id = $3, entry_date = $4, clock_in = $5, clock_out = $6,
			total_hours = $7, break_hours = $8, net_hours = $9, regular_hours = $10,
			overtime_hours = $11, is_overtime = $12, regular_rate = $13, overtime_rate = $14,
			total_cost = $15, work_order_id = $16, vehicle_id = $17, notes = $18,
			updated_at = NOW()
		WHERE id = $1 AND company_id = $2 AND status = 'pending'
		RETURNING updated_at
	`
	err := q.QueryRow(ctx, query,
		entry.ID, entry.CompanyID,
		entry.TimeCodeID, entry.EntryDate, entry.ClockIn, entry.ClockOut,
		entry.TotalHours, entry.BreakHours, entry.NetHours, entry.RegularHours,
		entry.OvertimeHours, entry.IsOvertime, entry.RegularRate, entry.OvertimeRate,
		entry.TotalCost, entry.WorkOrderID, entry.VehicleID, entry.Notes,
	).Scan(&entry.UpdatedAt)
	if err != nil {
		if isNoRows(err) {
			return timeentry.TimeEntry{}, r.notPending(ctx, entry.ID, entry.CompanyID)
		}
		return timeentry.TimeEntry{}, fmt.Errorf("failed to update time entry: %w", err)
	}
	return entry, nil
}

// SetStatus implements timeentry.TimeEntryRepository.
func (r *timeEntryRepository) SetStatus(ctx context.Context, entry timeentry.TimeEntry) (timeentry.TimeEntry, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		UPDATE time_entries SET
			status = $3, approved_by = $4, approved_at = $5, rejection_reason = $6, updated_at = NOW()
		WHERE id = $1 AND company_id = $2 AND status = 'pending'
		RETURNING updated_at
	`
	err := q.QueryRow(ctx, query,
		entry.ID, entry.CompanyID, entry.Status, entry.ApprovedBy, entry.ApprovedAt, entry.RejectionReason,
	).Scan(&entry.UpdatedAt)
	if err != nil {
		if isNoRows(err) {
			return timeentry.TimeEntry{}, r.notPending(ctx, entry.ID, entry.CompanyID)
		}
		return timeentry.TimeEntry{}, fmt.Errorf("failed to update time entry status: %w", err)
	}
	return entry, nil
}

// notPending tells a missing entry apart from one already approved or rejected.
func (r *timeEntryRepository) notPending(ctx context.Context, id string, companyID string) error {
	if _, err := r.GetByID(ctx, id, companyID); err != nil {
		return err
	}
	return timeentry.ErrEntryAlreadyProcessed
}

// List implements timeentry.TimeEntryRepository.
func (r *timeEntryRepository) List(ctx context.Context, filter timeentry.TimeEntryFilter, companyID string) ([]timeentry.TimeEntry, int64, error) {
	q := GetQuerier(ctx, r.db)

	baseWhere := "company_id = $1"
	args := []interface{}{companyID}
	argIdx := 2

	if filter.TechnicianID != nil && *filter.TechnicianID != "" {
		baseWhere += fmt.Sprintf(" AND technician_id = $%d", argIdx)
		args = append(args, *filter.TechnicianID)
		argIdx++
	}
	if filter.TimeCodeID != nil && *filter.TimeCodeID != "" {
		baseWhere += fmt.Sprintf(" AND time_code_id = $%d", argIdx)
		args = append(args, *filter.TimeCodeID)
		argIdx++
	}
	if filter.Status != nil && *filter.Status != "" {
		baseWhere += fmt.Sprintf(" AND status = $%d", argIdx)
		args = append(args, *filter.Status)
		argIdx++
	}
	if filter.StartDate != nil && *filter.StartDate != "" {
		baseWhere += fmt.Sprintf(" AND entry_date >= $%d::date", argIdx)
		args = append(args, *filter.StartDate)
		argIdx++
	}
	if filter.EndDate != nil && *filter.EndDate != "" {
		baseWhere += fmt.Sprintf(" AND entry_date <= $%d::date", argIdx)
		args = append(args, *filter.EndDate)
		argIdx++
	}

	var total int64
	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM time_entries WHERE %s", baseWhere)
	if err := q.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count time entries: %w", err)
	}

	orderByField := "entry_date"
	switch filter.SortBy {
	case "created_at":
		orderByField = "created_at"
	case "net_hours":
		orderByField = "net_hours"
	case "status":
		orderByField = "status"
	}
	sortOrder := "DESC"
	if strings.ToLower(filter.SortOrder) == "asc" {
		sortOrder = "ASC"
	}

	limit := filter.Limit
	if limit == 0 {
		limit = 20
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}

	selectQuery := fmt.Sprintf(`
		SELECT %s
		FROM time_entries
		WHERE %s
		ORDER BY %s %s, id
		LIMIT $%d OFFSET $%d
	`, timeEntryColumns, baseWhere, orderByField, sortOrder, argIdx, argIdx+1)
	args = append(args, limit, (page-1)*limit)

	rows, err := q.Query(ctx, selectQuery, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query time entries: %w", err)
	}
	entries, err := collectTimeEntries(rows)
	if err != nil {
		return nil, 0, err
	}
	return entries, total, nil
}

// ListApprovedForDay implements timeentry.TimeEntryRepository.
func (r *timeEntryRepository) ListApprovedForDay(ctx context.Context, companyID string, technicianID string, date time.Time) ([]timeentry.TimeEntry, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT ` + timeEntryColumns + `
		FROM time_entries
		WHERE company_id = $1 AND technician_id = $2 AND entry_date = $3 AND status = 'approved'
		ORDER BY clock_in NULLS LAST, id
	`
	rows, err := q.Query(ctx, query, companyID, technicianID, date)
	if err != nil {
		return nil, fmt.Errorf("failed to query approved time entries: %w", err)
	}
	return collectTimeEntries(rows)
}

// ListApprovedInRange implements timeentry.TimeEntryRepository.
func (r *timeEntryRepository) ListApprovedInRange(ctx context.Context, companyID string, from, to time.Time) ([]timeentry.TimeEntry, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT ` + timeEntryColumns + `
		FROM time_entries
		WHERE company_id = $1 AND entry_date BETWEEN $2 AND $3 AND status = 'approved'
		ORDER BY entry_date, technician_id, clock_in NULLS LAST, id
	`
	rows, err := q.Query(ctx, query, companyID, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to query approved time entries: %w", err)
	}
	return collectTimeEntries(rows)
}

func NewTimeEntryRepository(db *database.DB) timeentry.TimeEntryRepository {
	return &timeEntryRepository{db: db}
}
