package postgresql

import (
	"context"
	"fmt"

	"github.com/cmlabs-hris/fleet-metrics-go/internal/domain/timecode"
	"github.com/cmlabs-hris/fleet-metrics-go/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

const timeCodeColumns = `id, company_id, code, name, category, is_billable, is_productive,
	requires_work_order, requires_vehicle, standard_rate, overtime_multiplier,
	is_active, created_at, updated_at`

type timeCodeRepository struct {
	db *database.DB
}

func scanTimeCode(row pgx.Row) (timecode.TimeCode, error) {
	var tc timecode.TimeCode
	err := row.Scan(
		&tc.ID, &tc.CompanyID, &tc.Code, &tc.Name, &tc.Category, &tc.IsBillable, &tc.IsProductive,
		&tc.RequiresWorkOrder, &tc.RequiresVehicle, &tc.StandardRate, &tc.OvertimeMultiplier,
		&tc.IsActive, &tc.CreatedAt, &tc.UpdatedAt,
	)
	return tc, err
}

// Create implements timecode.TimeCodeRepository.
func (r *timeCodeRepository) Create(ctx context.Context, tc timecode.TimeCode) (timecode.TimeCode, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO time_codes (
			id, company_id, code, name, category, is_billable, is_productive,
			requires_work_order, requires_vehicle, standard_rate, overtime_multiplier, is_active
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING created_at, updated_at
	`
	err := q.QueryRow(ctx, query,
		tc.ID, tc.CompanyID, tc.Code, tc.Name, tc.Category, tc.IsBillable, tc.IsProductive,
		tc.RequiresWorkOrder, tc.RequiresVehicle, tc.StandardRate, tc.OvertimeMultiplier, tc.IsActive,
	).Scan(&tc.CreatedAt, &tc.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return timecode.TimeCode{}, timecode.ErrTimeCodeCodeExists
		}
		return timecode.TimeCode{}, fmt.Errorf("failed to create time code: %w", err)
	}
	return tc, nil
}

// GetByID implements timecode.TimeCodeRepository.
func (r *timeCodeRepository) GetByID(ctx context.Context, id string, companyID string) (timecode.TimeCode, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + timeCodeColumns + ` FROM time_codes WHERE id = $1 AND company_id = $2`
	tc, err := scanTimeCode(q.QueryRow(ctx, query, id, companyID))
	if err != nil {
		if isNoRows(err) {
			return timecode.TimeCode{}, timecode.ErrTimeCodeNotFound
		}
		return timecode.TimeCode{}, fmt.Errorf("failed to get time code: %w", err)
	}
	return tc, nil
}

// GetByIDs implements timecode.TimeCodeRepository.
func (r *timeCodeRepository) GetByIDs(ctx context.Context, ids []string, companyID string) (map[string]timecode.TimeCode, error) {
	codes := make(map[string]timecode.TimeCode, len(ids))
	if len(ids) == 0 {
		return codes, nil
	}
	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + timeCodeColumns + ` FROM time_codes WHERE company_id = $1 AND id = ANY($2)`
	rows, err := q.Query(ctx, query, companyID, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to get time codes: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		tc, err := scanTimeCode(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan time code: %w", err)
		}
		codes[tc.ID] = tc
	}
	return codes, rows.Err()
}

// List implements timecode.TimeCodeRepository.
func (r *timeCodeRepository) List(ctx context.Context, companyID string, activeOnly bool) ([]timecode.TimeCode, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + timeCodeColumns + ` FROM time_codes WHERE company_id = $1`
	if activeOnly {
		query += ` AND is_active`
	}
	query += ` ORDER BY code`

	rows, err := q.Query(ctx, query, companyID)
	if err != nil {
		return nil, fmt.Errorf("failed to list time codes: %w", err)
	}
	defer rows.Close()

	var codes []timecode.TimeCode
	for rows.Next() {
		tc, err := scanTimeCode(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan time code: %w", err)
		}
		codes = append(codes, tc)
	}
	return codes, rows.Err()
}

// SetActive implements timecode.TimeCodeRepository.
func (r *timeCodeRepository) SetActive(ctx context.Context, id string, companyID string, active bool) error {
	q := GetQuerier(ctx, r.db)

	tag, err := q.Exec(ctx, `UPDATE time_codes SET is_active = $3, updated_at = NOW() WHERE id = $1 AND company_id = $2`, id, companyID, active)
	if err != nil {
		return fmt.Errorf("failed to update time code: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return timecode.ErrTimeCodeNotFound
	}
	return nil
}

func NewTimeCodeRepository(db *database.DB) timecode.TimeCodeRepository {
	return &timeCodeRepository{db: db}
}
