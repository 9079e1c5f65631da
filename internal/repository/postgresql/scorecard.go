package postgresql

import (
	"context"
	"fmt"
	"time"

	"github.com/cmlabs-hris/fleet-metrics-go/internal/domain/kpi"
	"github.com/cmlabs-hris/fleet-metrics-go/internal/domain/scorecard"
	"github.com/cmlabs-hris/fleet-metrics-go/internal/pkg/database"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const scorecardColumns = `id, company_id, name, scope_type, scope_id, period_start, period_end, overall_score,
	overall_status, previous_score, score_trend, status_policy, status, published_by, published_at,
	created_at, updated_at`

type scorecardRepository struct {
	db *database.DB
}

func scanScorecard(row pgx.Row) (scorecard.Scorecard, error) {
	var sc scorecard.Scorecard
	err := row.Scan(
		&sc.ID, &sc.CompanyID, &sc.Name, &sc.Scope.Type, &sc.Scope.ID, &sc.PeriodStart, &sc.PeriodEnd, &sc.OverallScore,
		&sc.OverallStatus, &sc.PreviousScore, &sc.ScoreTrend, &sc.StatusPolicy, &sc.Status, &sc.PublishedBy, &sc.PublishedAt,
		&sc.CreatedAt, &sc.UpdatedAt,
	)
	return sc, err
}

// Create implements scorecard.ScorecardRepository.
func (r *scorecardRepository) Create(ctx context.Context, sc scorecard.Scorecard) (scorecard.Scorecard, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO scorecards (
			id, company_id, name, scope_type, scope_id, period_start, period_end, overall_score,
			overall_status, previous_score, score_trend, status_policy, status
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING created_at, updated_at
	`
	err := q.QueryRow(ctx, query,
		sc.ID, sc.CompanyID, sc.Name, sc.Scope.Type, sc.Scope.ID, sc.PeriodStart, sc.PeriodEnd, sc.OverallScore,
		sc.OverallStatus, sc.PreviousScore, sc.ScoreTrend, sc.StatusPolicy, sc.Status,
	).Scan(&sc.CreatedAt, &sc.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return scorecard.Scorecard{}, scorecard.ErrScorecardExists
		}
		return scorecard.Scorecard{}, fmt.Errorf("failed to create scorecard: %w", err)
	}

	items, err := r.insertItems(ctx, sc.ID, sc.Items)
	if err != nil {
		return scorecard.Scorecard{}, err
	}
	sc.Items = items
	return sc, nil
}

func (r *scorecardRepository) insertItems(ctx context.Context, scorecardID string, items []scorecard.Item) ([]scorecard.Item, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO scorecard_items (
			id, scorecard_id, measurement_id, kpi_code, weight, actual_value,
			performance_score, performance_status, position
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	out := make([]scorecard.Item, 0, len(items))
	for _, item := range items {
		id, err := uuid.NewV7()
		if err != nil {
			return nil, fmt.Errorf("failed to generate scorecard item id: %w", err)
		}
		item.ID = id.String()
		item.ScorecardID = scorecardID

		_, err = q.Exec(ctx, query,
			item.ID, item.ScorecardID, item.MeasurementID, item.KPICode, item.Weight, item.ActualValue,
			item.PerformanceScore, item.PerformanceStatus, item.Position,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to insert scorecard item: %w", err)
		}
		out = append(out, item)
	}
	return out, nil
}

// loadItems fills Items for every scorecard in cards.
func (r *scorecardRepository) loadItems(ctx context.Context, cards []scorecard.Scorecard) error {
	if len(cards) == 0 {
		return nil
	}
	q := GetQuerier(ctx, r.db)

	ids := make([]string, len(cards))
	index := make(map[string]int, len(cards))
	for i, sc := range cards {
		ids[i] = sc.ID
		index[sc.ID] = i
	}

	query := `
		SELECT id, scorecard_id, measurement_id, kpi_code, weight, actual_value,
			performance_score, performance_status, position
		FROM scorecard_items
		WHERE scorecard_id = ANY($1)
		ORDER BY scorecard_id, position
	`
	rows, err := q.Query(ctx, query, ids)
	if err != nil {
		return fmt.Errorf("failed to query scorecard items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var item scorecard.Item
		err := rows.Scan(
			&item.ID, &item.ScorecardID, &item.MeasurementID, &item.KPICode, &item.Weight, &item.ActualValue,
			&item.PerformanceScore, &item.PerformanceStatus, &item.Position,
		)
		if err != nil {
			return fmt.Errorf("failed to scan scorecard item: %w", err)
		}
		i := index[item.ScorecardID]
		cards[i].Items = append(cards[i].Items, item)
	}
	return rows.Err()
}

// GetByID implements scorecard.ScorecardRepository.
func (r *scorecardRepository) GetByID(ctx context.Context, id string, companyID string) (scorecard.Scorecard, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + scorecardColumns + ` FROM scorecards WHERE id = $1 AND company_id = $2`
	sc, err := scanScorecard(q.QueryRow(ctx, query, id, companyID))
	if err != nil {
		if isNoRows(err) {
			return scorecard.Scorecard{}, scorecard.ErrScorecardNotFound
		}
		return scorecard.Scorecard{}, fmt.Errorf("failed to get scorecard: %w", err)
	}

	cards := []scorecard.Scorecard{sc}
	if err := r.loadItems(ctx, cards); err != nil {
		return scorecard.Scorecard{}, err
	}
	return cards[0], nil
}

// GetPrevious implements scorecard.ScorecardRepository.
func (r *scorecardRepository) GetPrevious(ctx context.Context, companyID string, name string, scope kpi.Scope, periodStart time.Time) (*scorecard.Scorecard, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT ` + scorecardColumns + `
		FROM scorecards
		WHERE company_id = $1 AND name = $2 AND scope_type = $3 AND scope_id = $4 AND period_end < $5
		ORDER BY period_end DESC
		LIMIT 1
	`
	sc, err := scanScorecard(q.QueryRow(ctx, query, companyID, name, scope.Type, scope.ID, periodStart))
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get previous scorecard: %w", err)
	}
	return &sc, nil
}

// ReplaceItems implements scorecard.ScorecardRepository.
func (r *scorecardRepository) ReplaceItems(ctx context.Context, sc scorecard.Scorecard) (scorecard.Scorecard, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		UPDATE scorecards SET
			overall_score = $3, overall_status = $4, previous_score = $5, score_trend = $6,
			status_policy = $7, updated_at = NOW()
		WHERE id = $1 AND company_id = $2 AND status = 'draft'
		RETURNING updated_at
	`
	err := q.QueryRow(ctx, query,
		sc.ID, sc.CompanyID, sc.OverallScore, sc.OverallStatus, sc.PreviousScore, sc.ScoreTrend, sc.StatusPolicy,
	).Scan(&sc.UpdatedAt)
	if err != nil {
		if isNoRows(err) {
			if _, getErr := r.GetByID(ctx, sc.ID, sc.CompanyID); getErr != nil {
				return scorecard.Scorecard{}, getErr
			}
			return scorecard.Scorecard{}, scorecard.ErrScorecardPublished
		}
		return scorecard.Scorecard{}, fmt.Errorf("failed to update scorecard: %w", err)
	}

	if _, err := q.Exec(ctx, `DELETE FROM scorecard_items WHERE scorecard_id = $1`, sc.ID); err != nil {
		return scorecard.Scorecard{}, fmt.Errorf("failed to clear scorecard items: %w", err)
	}
	items, err := r.insertItems(ctx, sc.ID, sc.Items)
	if err != nil {
		return scorecard.Scorecard{}, err
	}
	sc.Items = items
	return sc, nil
}

// MarkPublished implements scorecard.ScorecardRepository.
func (r *scorecardRepository) MarkPublished(ctx context.Context, id string, companyID string, publishedBy string, at time.Time) error {
	q := GetQuerier(ctx, r.db)

	tag, err := q.Exec(ctx, `
		UPDATE scorecards
		SET status = 'published', published_by = $3, published_at = $4, updated_at = NOW()
		WHERE id = $1 AND company_id = $2 AND status = 'draft'
	`, id, companyID, publishedBy, at)
	if err != nil {
		return fmt.Errorf("failed to publish scorecard: %w", err)
	}
	if tag.RowsAffected() == 0 {
		if _, err := r.GetByID(ctx, id, companyID); err != nil {
			return err
		}
		return scorecard.ErrScorecardPublished
	}
	return nil
}

// List implements scorecard.ScorecardRepository.
func (r *scorecardRepository) List(ctx context.Context, companyID string, filter scorecard.ScorecardFilter) ([]scorecard.Scorecard, error) {
	q := GetQuerier(ctx, r.db)

	where := "company_id = $1"
	args := []interface{}{companyID}
	if filter.Name != nil && *filter.Name != "" {
		args = append(args, *filter.Name)
		where += fmt.Sprintf(" AND name = $%d", len(args))
	}
	if filter.ScopeType != nil && *filter.ScopeType != "" {
		args = append(args, *filter.ScopeType)
		where += fmt.Sprintf(" AND scope_type = $%d", len(args))
	}
	if filter.ScopeID != nil {
		args = append(args, *filter.ScopeID)
		where += fmt.Sprintf(" AND scope_id = $%d", len(args))
	}
	if filter.Status != nil && *filter.Status != "" {
		args = append(args, *filter.Status)
		where += fmt.Sprintf(" AND status = $%d", len(args))
	}
	if filter.StartDate != nil && *filter.StartDate != "" {
		args = append(args, *filter.StartDate)
		where += fmt.Sprintf(" AND period_start >= $%d::date", len(args))
	}
	if filter.EndDate != nil && *filter.EndDate != "" {
		args = append(args, *filter.EndDate)
		where += fmt.Sprintf(" AND period_end <= $%d::date", len(args))
	}

	query := fmt.Sprintf(`SELECT %s FROM scorecards WHERE %s ORDER BY period_start DESC, name`, scorecardColumns, where)
	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list scorecards: %w", err)
	}
	defer rows.Close()

	var cards []scorecard.Scorecard
	for rows.Next() {
		sc, err := scanScorecard(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan scorecard: %w", err)
		}
		cards = append(cards, sc)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	rows.Close()

	if err := r.loadItems(ctx, cards); err != nil {
		return nil, err
	}
	return cards, nil
}

func NewScorecardRepository(db *database.DB) scorecard.ScorecardRepository {
	return &scorecardRepository{db: db}
}
