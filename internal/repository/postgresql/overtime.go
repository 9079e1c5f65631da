package postgresql

import (
	"context"
	"fmt"
	"time"

	"github.com/cmlabs-hris/fleet-metrics-go/internal/domain/overtime"
	"github.com/cmlabs-hris/fleet-metrics-go/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

const authorizationColumns = `id, company_id, technician_id, authorized_date, max_overtime_hours, hours_used,
	valid_from, valid_until, status, reason, authorized_by, cancelled_by, cancelled_at, created_at, updated_at`

type overtimeRepository struct {
	db *database.DB
}

func scanAuthorization(row pgx.Row) (overtime.Authorization, error) {
	var a overtime.Authorization
	err := row.Scan(
		&a.ID, &a.CompanyID, &a.TechnicianID, &a.AuthorizedDate, &a.MaxOvertimeHours, &a.HoursUsed,
		&a.ValidFrom, &a.ValidUntil, &a.Status, &a.Reason, &a.AuthorizedBy, &a.CancelledBy, &a.CancelledAt,
		&a.CreatedAt, &a.UpdatedAt,
	)
	return a, err
}

func collectAuthorizations(rows pgx.Rows) ([]overtime.Authorization, error) {
	defer rows.Close()

	var auths []overtime.Authorization
	for rows.Next() {
		a, err := scanAuthorization(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan overtime authorization: %w", err)
		}
		auths = append(auths, a)
	}
	return auths, rows.Err()
}

// Create implements overtime.AuthorizationRepository.
func (r *overtimeRepository) Create(ctx context.Context, a overtime.Authorization) (overtime.Authorization, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO overtime_authorizations (
			id, company_id, technician_id, authorized_date, max_overtime_hours, hours_used,
			valid_from, valid_until, status, reason, authorized_by
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING created_at, updated_at
	`
	err := q.QueryRow(ctx, query,
		a.ID, a.CompanyID, a.TechnicianID, a.AuthorizedDate, a.MaxOvertimeHours, a.HoursUsed,
		a.ValidFrom, a.ValidUntil, a.Status, a.Reason, a.AuthorizedBy,
	).Scan(&a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return overtime.Authorization{}, fmt.Errorf("failed to create overtime authorization: %w", err)
	}
	return a, nil
}

// GetByID implements overtime.AuthorizationRepository.
func (r *overtimeRepository) GetByID(ctx context.Context, id string, companyID string) (overtime.Authorization, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + authorizationColumns + ` FROM overtime_authorizations WHERE id = $1 AND company_id = $2`
	a, err := scanAuthorization(q.QueryRow(ctx, query, id, companyID))
	if err != nil {
		if isNoRows(err) {
			return overtime.Authorization{}, overtime.ErrAuthorizationNotFound
		}
		return overtime.Authorization{}, fmt.Errorf("failed to get overtime authorization: %w", err)
	}
	return a, nil
}

// List implements overtime.AuthorizationRepository.
func (r *overtimeRepository) List(ctx context.Context, companyID string, filter overtime.AuthorizationFilter) ([]overtime.Authorization, error) {
	q := GetQuerier(ctx, r.db)

	where := "company_id = $1"
	args := []interface{}{companyID}
	if filter.TechnicianID != nil && *filter.TechnicianID != "" {
		args = append(args, *filter.TechnicianID)
		where += fmt.Sprintf(" AND technician_id = $%d", len(args))
	}
	if filter.Status != nil && *filter.Status != "" {
		args = append(args, *filter.Status)
		where += fmt.Sprintf(" AND status = $%d", len(args))
	}
	if filter.Date != nil && *filter.Date != "" {
		args = append(args, *filter.Date)
		where += fmt.Sprintf(" AND $%d::date BETWEEN valid_from AND valid_until", len(args))
	}

	query := fmt.Sprintf(`SELECT %s FROM overtime_authorizations WHERE %s ORDER BY valid_from DESC, created_at DESC`, authorizationColumns, where)
	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list overtime authorizations: %w", err)
	}
	return collectAuthorizations(rows)
}

// ListCovering implements overtime.AuthorizationRepository.
func (r *overtimeRepository) ListCovering(ctx context.Context, companyID string, technicianID string, date time.Time) ([]overtime.Authorization, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT ` + authorizationColumns + `
		FROM overtime_authorizations
		WHERE company_id = $1
		  AND ($2 = '' OR technician_id::text = $2)
		  AND $3 BETWEEN valid_from AND valid_until
		  AND status <> 'cancelled'
		ORDER BY created_at, id
		FOR UPDATE
	`
	rows, err := q.Query(ctx, query, companyID, technicianID, date)
	if err != nil {
		return nil, fmt.Errorf("failed to list covering overtime authorizations: %w", err)
	}
	return collectAuthorizations(rows)
}

// Update implements overtime.AuthorizationRepository.
func (r *overtimeRepository) Update(ctx context.Context, a overtime.Authorization) error {
	q := GetQuerier(ctx, r.db)

	query := `
		UPDATE overtime_authorizations
		SET hours_used = $3, status = $4, cancelled_by = $5, cancelled_at = $6, updated_at = NOW()
		WHERE id = $1 AND company_id = $2
	`
	tag, err := q.Exec(ctx, query, a.ID, a.CompanyID, a.HoursUsed, a.Status, a.CancelledBy, a.CancelledAt)
	if err != nil {
		return fmt.Errorf("failed to update overtime authorization: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return overtime.ErrAuthorizationNotFound
	}
	return nil
}

// ExpireBefore implements overtime.AuthorizationRepository.
func (r *overtimeRepository) ExpireBefore(ctx context.Context, asOf time.Time) (int64, error) {
	q := GetQuerier(ctx, r.db)

	tag, err := q.Exec(ctx, `
		UPDATE overtime_authorizations
		SET status = 'expired', updated_at = NOW()
		WHERE valid_until < $1 AND status IN ('active', 'used')
	`, asOf)
	if err != nil {
		return 0, fmt.Errorf("failed to expire overtime authorizations: %w", err)
	}
	return tag.RowsAffected(), nil
}

func NewOvertimeRepository(db *database.DB) overtime.AuthorizationRepository {
	return &overtimeRepository{db: db}
}
