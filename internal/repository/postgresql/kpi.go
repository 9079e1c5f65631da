package postgresql

import (
	"context"
	"fmt"

	"github.com/cmlabs-hris/fleet-metrics-go/internal/domain/kpi"
	"github.com/cmlabs-hris/fleet-metrics-go/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

const kpiDefinitionColumns = `id, company_id, code, name, description, category, unit, target_value,
	warning_threshold, critical_threshold, higher_is_better, benchmark_low, benchmark_median, benchmark_high,
	frequency, is_active, created_at, updated_at`

type kpiDefinitionRepository struct {
	db *database.DB
}

func scanDefinition(row pgx.Row) (kpi.Definition, error) {
	var d kpi.Definition
	err := row.Scan(
		&d.ID, &d.CompanyID, &d.Code, &d.Name, &d.Description, &d.Category, &d.Unit, &d.TargetValue,
		&d.WarningThreshold, &d.CriticalThreshold, &d.HigherIsBetter, &d.BenchmarkLow, &d.BenchmarkMedian, &d.BenchmarkHigh,
		&d.Frequency, &d.IsActive, &d.CreatedAt, &d.UpdatedAt,
	)
	return d, err
}

const insertDefinition = `
	INSERT INTO kpi_definitions (
		id, company_id, code, name, description, category, unit, target_value,
		warning_threshold, critical_threshold, higher_is_better, benchmark_low, benchmark_median, benchmark_high,
		frequency, is_active
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
`

func definitionArgs(d kpi.Definition) []interface{} {
	return []interface{}{
		d.ID, d.CompanyID, d.Code, d.Name, d.Description, d.Category, d.Unit, d.TargetValue,
		d.WarningThreshold, d.CriticalThreshold, d.HigherIsBetter, d.BenchmarkLow, d.BenchmarkMedian, d.BenchmarkHigh,
		d.Frequency, d.IsActive,
	}
}

// Create implements kpi.DefinitionRepository.
func (r *kpiDefinitionRepository) Create(ctx context.Context, d kpi.Definition) (kpi.Definition, error) {
	q := GetQuerier(ctx, r.db)

	err := q.QueryRow(ctx, insertDefinition+` RETURNING created_at, updated_at`, definitionArgs(d)...).Scan(&d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return kpi.Definition{}, kpi.ErrDefinitionExists
		}
		return kpi.Definition{}, fmt.Errorf("failed to create kpi definition: %w", err)
	}
	return d, nil
}

// CreateIfMissing implements kpi.DefinitionRepository.
func (r *kpiDefinitionRepository) CreateIfMissing(ctx context.Context, d kpi.Definition) (bool, error) {
	q := GetQuerier(ctx, r.db)

	tag, err := q.Exec(ctx, insertDefinition+` ON CONFLICT (company_id, code) DO NOTHING`, definitionArgs(d)...)
	if err != nil {
		return false, fmt.Errorf("failed to seed kpi definition: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

// Update implements kpi.DefinitionRepository.
func (r *kpiDefinitionRepository) Update(ctx context.Context, d kpi.Definition) (kpi.Definition, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		UPDATE kpi_definitions SET
			name = $3, description = $4, category = $5, unit = $6, target_value = $7,
			warning_threshold = $8, critical_threshold = $9, higher_is_better = $10,
			benchmark_low = $11, benchmark_median = $12, benchmark_high = $13,
			frequency = $14, is_active = $15, updated_at = NOW()
		WHERE id = $1 AND company_id = $2
		RETURNING updated_at
	`
	err := q.QueryRow(ctx, query,
		d.ID, d.CompanyID, d.Name, d.Description, d.Category, d.Unit, d.TargetValue,
		d.WarningThreshold, d.CriticalThreshold, d.HigherIsBetter,
		d.BenchmarkLow, d.BenchmarkMedian, d.BenchmarkHigh,
		d.Frequency, d.IsActive,
	).Scan(&d.UpdatedAt)
	if err != nil {
		if isNoRows(err) {
			return kpi.Definition{}, kpi.ErrDefinitionNotFound
		}
		return kpi.Definition{}, fmt.Errorf("failed to update kpi definition: %w", err)
	}
	return d, nil
}

// GetByCode implements kpi.DefinitionRepository.
func (r *kpiDefinitionRepository) GetByCode(ctx context.Context, companyID string, code string) (kpi.Definition, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + kpiDefinitionColumns + ` FROM kpi_definitions WHERE company_id = $1 AND code = $2`
	d, err := scanDefinition(q.QueryRow(ctx, query, companyID, code))
	if err != nil {
		if isNoRows(err) {
			return kpi.Definition{}, kpi.ErrDefinitionNotFound
		}
		return kpi.Definition{}, fmt.Errorf("failed to get kpi definition: %w", err)
	}
	return d, nil
}

// List implements kpi.DefinitionRepository.
func (r *kpiDefinitionRepository) List(ctx context.Context, companyID string, activeOnly bool) ([]kpi.Definition, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + kpiDefinitionColumns + ` FROM kpi_definitions WHERE company_id = $1`
	if activeOnly {
		query += ` AND is_active`
	}
	query += ` ORDER BY category, code`

	rows, err := q.Query(ctx, query, companyID)
	if err != nil {
		return nil, fmt.Errorf("failed to list kpi definitions: %w", err)
	}
	defer rows.Close()

	var defs []kpi.Definition
	for rows.Next() {
		d, err := scanDefinition(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan kpi definition: %w", err)
		}
		defs = append(defs, d)
	}
	return defs, rows.Err()
}

func NewKPIDefinitionRepository(db *database.DB) kpi.DefinitionRepository {
	return &kpiDefinitionRepository{db: db}
}

const kpiMeasurementColumns = `id, company_id, definition_id, kpi_code, scope_type, scope_id, period_start,
	period_end, revision, actual_value, target_value, variance, variance_percent, benchmark_value,
	benchmark_variance, performance_status, performance_score, error_message, calculated_at`

// measurementInsertAttempts bounds retries when two evaluations race for the same revision.
const measurementInsertAttempts = 3

type kpiMeasurementRepository struct {
	db *database.DB
}

func scanMeasurement(row pgx.Row) (kpi.Measurement, error) {
	var m kpi.Measurement
	err := row.Scan(
		&m.ID, &m.CompanyID, &m.DefinitionID, &m.KPICode, &m.Scope.Type, &m.Scope.ID, &m.PeriodStart,
		&m.PeriodEnd, &m.Revision, &m.ActualValue, &m.TargetValue, &m.Variance, &m.VariancePercent, &m.BenchmarkValue,
		&m.BenchmarkVariance, &m.PerformanceStatus, &m.PerformanceScore, &m.ErrorMessage, &m.CalculatedAt,
	)
	return m, err
}

func collectMeasurements(rows pgx.Rows) ([]kpi.Measurement, error) {
	defer rows.Close()

	var out []kpi.Measurement
	for rows.Next() {
		m, err := scanMeasurement(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan kpi measurement: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// Create implements kpi.MeasurementRepository.
func (r *kpiMeasurementRepository) Create(ctx context.Context, m kpi.Measurement) (kpi.Measurement, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO kpi_measurements (
			id, company_id, definition_id, kpi_code, scope_type, scope_id, period_start, period_end, revision,
			actual_value, target_value, variance, variance_percent, benchmark_value, benchmark_variance,
			performance_status, performance_score, error_message, calculated_at
		)
		SELECT $1, $2, $3, $4, $5, $6, $7, $8, COALESCE(MAX(revision), 0) + 1,
			$9, $10, $11, $12, $13, $14, $15, $16, $17, $18
		FROM kpi_measurements
		WHERE definition_id = $3 AND scope_type = $5 AND scope_id = $6 AND period_start = $7 AND period_end = $8
		RETURNING revision
	`

	var err error
	for attempt := 0; attempt < measurementInsertAttempts; attempt++ {
		err = q.QueryRow(ctx, query,
			m.ID, m.CompanyID, m.DefinitionID, m.KPICode, m.Scope.Type, m.Scope.ID, m.PeriodStart, m.PeriodEnd,
			m.ActualValue, m.TargetValue, m.Variance, m.VariancePercent, m.BenchmarkValue, m.BenchmarkVariance,
			m.PerformanceStatus, m.PerformanceScore, m.ErrorMessage, m.CalculatedAt,
		).Scan(&m.Revision)
		if err == nil {
			return m, nil
		}
		if !isUniqueViolation(err) {
			break
		}
	}
	return kpi.Measurement{}, fmt.Errorf("failed to create kpi measurement: %w", err)
}

// GetByID implements kpi.MeasurementRepository.
func (r *kpiMeasurementRepository) GetByID(ctx context.Context, id string, companyID string) (kpi.Measurement, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + kpiMeasurementColumns + ` FROM kpi_measurements WHERE id = $1 AND company_id = $2`
	m, err := scanMeasurement(q.QueryRow(ctx, query, id, companyID))
	if err != nil {
		if isNoRows(err) {
			return kpi.Measurement{}, kpi.ErrMeasurementNotFound
		}
		return kpi.Measurement{}, fmt.Errorf("failed to get kpi measurement: %w", err)
	}
	return m, nil
}

// ListRecent implements kpi.MeasurementRepository.
func (r *kpiMeasurementRepository) ListRecent(ctx context.Context, companyID string, code string, scope kpi.Scope, limit int) ([]kpi.Measurement, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT * FROM (
			SELECT DISTINCT ON (period_start, period_end) ` + kpiMeasurementColumns + `
			FROM kpi_measurements
			WHERE company_id = $1 AND kpi_code = $2 AND scope_type = $3 AND scope_id = $4
			ORDER BY period_start, period_end, revision DESC
		) latest
		ORDER BY period_end DESC
		LIMIT $5
	`
	rows, err := q.Query(ctx, query, companyID, code, scope.Type, scope.ID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list kpi measurements: %w", err)
	}
	return collectMeasurements(rows)
}

// History implements kpi.MeasurementRepository.
func (r *kpiMeasurementRepository) History(ctx context.Context, companyID string, filter kpi.HistoryFilter) ([]kpi.Measurement, error) {
	q := GetQuerier(ctx, r.db)

	where := "company_id = $1"
	args := []interface{}{companyID}
	if filter.Code != nil && *filter.Code != "" {
		args = append(args, *filter.Code)
		where += fmt.Sprintf(" AND kpi_code = $%d", len(args))
	}
	if filter.ScopeType != nil && *filter.ScopeType != "" {
		args = append(args, *filter.ScopeType)
		where += fmt.Sprintf(" AND scope_type = $%d", len(args))
	}
	if filter.ScopeID != nil {
		args = append(args, *filter.ScopeID)
		where += fmt.Sprintf(" AND scope_id = $%d", len(args))
	}
	if filter.StartDate != nil && *filter.StartDate != "" {
		args = append(args, *filter.StartDate)
		where += fmt.Sprintf(" AND period_end >= $%d::date", len(args))
	}
	if filter.EndDate != nil && *filter.EndDate != "" {
		args = append(args, *filter.EndDate)
		where += fmt.Sprintf(" AND period_end <= $%d::date", len(args))
	}

	limit := filter.Limit
	if limit == 0 {
		limit = 100
	}

	args = append(args, limit)

	var query string
	if filter.AllRevisions {
		query = fmt.Sprintf(`
			SELECT %s
			FROM kpi_measurements
			WHERE %s
			ORDER BY period_end DESC, kpi_code, scope_type, scope_id, revision DESC
			LIMIT $%d
		`, kpiMeasurementColumns, where, len(args))
	} else {
		query = fmt.Sprintf(`
			SELECT * FROM (
				SELECT DISTINCT ON (definition_id, scope_type, scope_id, period_start, period_end) %s
				FROM kpi_measurements
				WHERE %s
				ORDER BY definition_id, scope_type, scope_id, period_start, period_end, revision DESC
			) latest
			ORDER BY period_end DESC, kpi_code, scope_type, scope_id
			LIMIT $%d
		`, kpiMeasurementColumns, where, len(args))
	}

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query kpi history: %w", err)
	}
	return collectMeasurements(rows)
}

func NewKPIMeasurementRepository(db *database.DB) kpi.MeasurementRepository {
	return &kpiMeasurementRepository{db: db}
}
