package postgresql

import (
	"context"
	"fmt"

	"github.com/cmlabs-hris/fleet-metrics-go/internal/domain/technician"
	"github.com/cmlabs-hris/fleet-metrics-go/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

type technicianRepository struct {
	db *database.DB
}

const technicianColumns = `id, company_id, department_id, location, employee_code, full_name, is_active, created_at, updated_at`

func scanTechnician(row pgx.Row) (technician.Technician, error) {
	var t technician.Technician
	err := row.Scan(&t.ID, &t.CompanyID, &t.DepartmentID, &t.Location, &t.EmployeeCode, &t.FullName, &t.IsActive, &t.CreatedAt, &t.UpdatedAt)
	return t, err
}

// GetByID implements technician.TechnicianRepository.
func (r *technicianRepository) GetByID(ctx context.Context, id string, companyID string) (technician.Technician, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + technicianColumns + ` FROM technicians WHERE id = $1 AND company_id = $2`
	t, err := scanTechnician(q.QueryRow(ctx, query, id, companyID))
	if err != nil {
		if isNoRows(err) {
			return technician.Technician{}, technician.ErrTechnicianNotFound
		}
		return technician.Technician{}, fmt.Errorf("failed to get technician: %w", err)
	}
	return t, nil
}

// ListActive implements technician.TechnicianRepository.
func (r *technicianRepository) ListActive(ctx context.Context, companyID string, departmentID string) ([]technician.Technician, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + technicianColumns + ` FROM technicians WHERE company_id = $1 AND is_active`
	args := []interface{}{companyID}
	if departmentID != "" {
		query += ` AND department_id = $2`
		args = append(args, departmentID)
	}
	query += ` ORDER BY employee_code, id`

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list technicians: %w", err)
	}
	defer rows.Close()

	var technicians []technician.Technician
	for rows.Next() {
		t, err := scanTechnician(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan technician: %w", err)
		}
		technicians = append(technicians, t)
	}
	return technicians, rows.Err()
}

// ListDepartments implements technician.TechnicianRepository.
func (r *technicianRepository) ListDepartments(ctx context.Context, companyID string) ([]string, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT DISTINCT department_id
		FROM technicians
		WHERE company_id = $1 AND is_active AND department_id IS NOT NULL AND department_id <> ''
		ORDER BY department_id
	`
	rows, err := q.Query(ctx, query, companyID)
	if err != nil {
		return nil, fmt.Errorf("failed to list departments: %w", err)
	}
	return pgx.CollectRows(rows, pgx.RowTo[string])
}

// ListCompanyIDs implements technician.TechnicianRepository.
func (r *technicianRepository) ListCompanyIDs(ctx context.Context) ([]string, error) {
	q := GetQuerier(ctx, r.db)

	rows, err := q.Query(ctx, `SELECT DISTINCT company_id::text FROM technicians WHERE is_active ORDER BY 1`)
	if err != nil {
		return nil, fmt.Errorf("failed to list companies: %w", err)
	}
	return pgx.CollectRows(rows, pgx.RowTo[string])
}

func NewTechnicianRepository(db *database.DB) technician.TechnicianRepository {
	return &technicianRepository{db: db}
}
