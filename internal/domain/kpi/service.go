package kpi

import (
	"context"
	"time"
)

type KPIService interface {
	RegisterMetric(code string, fn CalculationFunc, scopes ...ScopeType)

	// Evaluate runs one calculation under its own timeout and stores the result.
	Evaluate(ctx context.Context, companyID string, code string, scope Scope, period Period) (MeasurementResponse, error)

	// EvaluateAll evaluates every active definition for its previous complete
	// period as of asOf, across every supported scope.
	EvaluateAll(ctx context.Context, companyID string, asOf time.Time) (*EvaluationSummary, error)

	Trend(ctx context.Context, companyID string, code string, scope Scope) (TrendResponse, error)
	History(ctx context.Context, companyID string, filter HistoryFilter) ([]MeasurementResponse, error)

	CreateDefinition(ctx context.Context, companyID string, req CreateDefinitionRequest) (DefinitionResponse, error)
	UpdateDefinition(ctx context.Context, companyID string, code string, req UpdateDefinitionRequest) (DefinitionResponse, error)
	GetDefinition(ctx context.Context, companyID string, code string) (DefinitionResponse, error)
	ListDefinitions(ctx context.Context, companyID string, activeOnly bool) ([]DefinitionResponse, error)

	// SeedCatalog creates the catalog definitions the company does not have yet.
	SeedCatalog(ctx context.Context, companyID string, catalog []CreateDefinitionRequest) (int, error)
}
