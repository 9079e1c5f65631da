package kpi

import "context"

type DefinitionRepository interface {
	Create(ctx context.Context, d Definition) (Definition, error)
	// CreateIfMissing inserts d unless its code already exists for the company
	CreateIfMissing(ctx context.Context, d Definition) (bool, error)
	Update(ctx context.Context, d Definition) (Definition, error)
	GetByCode(ctx context.Context, companyID string, code string) (Definition, error)
	List(ctx context.Context, companyID string, activeOnly bool) ([]Definition, error)
}

type MeasurementRepository interface {
	// Create assigns the next revision for the definition, scope and period.
	Create(ctx context.Context, m Measurement) (Measurement, error)
	GetByID(ctx context.Context, id string, companyID string) (Measurement, error)
	// ListRecent returns the newest measurements of a series, latest revision
	// per period only, ordered by period end descending.
	ListRecent(ctx context.Context, companyID string, code string, scope Scope, limit int) ([]Measurement, error)
	History(ctx context.Context, companyID string, filter HistoryFilter) ([]Measurement, error)
}
