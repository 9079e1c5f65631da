package kpi

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/cmlabs-hris/fleet-metrics-go/internal/domain/fleet"
	"github.com/cmlabs-hris/fleet-metrics-go/internal/domain/kpi"
	"github.com/cmlabs-hris/fleet-metrics-go/internal/domain/technician"
	"github.com/cmlabs-hris/fleet-metrics-go/internal/pkg/apperror"
	"github.com/cmlabs-hris/fleet-metrics-go/internal/pkg/validator"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

type Config struct {
	// CalculationTimeout bounds each metric calculation independently.
	CalculationTimeout time.Duration
	// Concurrency bounds the calculations EvaluateAll runs at once.
	Concurrency int
}

func (c Config) withDefaults() Config {
	if c.CalculationTimeout <= 0 {
		c.CalculationTimeout = 30 * time.Second
	}
	if c.Concurrency <= 0 {
		c.Concurrency = 4
	}
	return c
}

type KPIServiceImpl struct {
	cfg            Config
	registry       *kpi.Registry
	definitions    kpi.DefinitionRepository
	measurements   kpi.MeasurementRepository
	technicianRepo technician.TechnicianRepository
	source         fleet.DataSource
	now            func() time.Time
}

func NewKPIService(
	cfg Config,
	definitions kpi.DefinitionRepository,
	measurements kpi.MeasurementRepository,
	technicianRepo technician.TechnicianRepository,
	source fleet.DataSource,
) kpi.KPIService {
	return &KPIServiceImpl{
		cfg:            cfg.withDefaults(),
		registry:       kpi.NewRegistry(),
		definitions:    definitions,
		measurements:   measurements,
		technicianRepo: technicianRepo,
		source:         source,
		now:            func() time.Time { return time.Now().UTC() },
	}
}

// RegisterMetric implements kpi.KPIService.
func (s *KPIServiceImpl) RegisterMetric(code string, fn kpi.CalculationFunc, scopes ...kpi.ScopeType) {
	s.registry.Register(code, fn, scopes...)
}

// Evaluate implements kpi.KPIService.
func (s *KPIServiceImpl) Evaluate(ctx context.Context, companyID string, code string, scope kpi.Scope, period kpi.Period) (kpi.MeasurementResponse, error) {
	def, err := s.definitions.GetByCode(ctx, companyID, code)
	if err != nil {
		return kpi.MeasurementResponse{}, err
	}
	if !def.IsActive {
		return kpi.MeasurementResponse{}, kpi.ErrDefinitionInactive
	}

	metric, ok := s.registry.Lookup(code)
	if !ok {
		return kpi.MeasurementResponse{}, kpi.ErrMetricNotRegistered
	}
	if !metric.Supports(scope.Type) {
		return kpi.MeasurementResponse{}, validator.ValidationErrors{{Field: "scope_type", Message: kpi.ErrScopeNotSupported.Error()}}
	}
	if err := s.checkScope(ctx, companyID, scope, period); err != nil {
		return kpi.MeasurementResponse{}, err
	}

	m, err := s.evaluate(ctx, def, metric, kpi.CalculationInput{CompanyID: companyID, Scope: scope, Period: period})
	if err != nil {
		return kpi.MeasurementResponse{}, err
	}
	return kpi.NewMeasurementResponse(m), nil
}

// checkScope confirms the scope names something the company has. Vehicles
// are known only through their mileage and cost records, so a vehicle must
// have activity inside period.
func (s *KPIServiceImpl) checkScope(ctx context.Context, companyID string, scope kpi.Scope, period kpi.Period) error {
	var ids []string
	switch scope.Type {
	case kpi.ScopeTechnician:
		_, err := s.technicianRepo.GetByID(ctx, scope.ID, companyID)
		return err
	case kpi.ScopeDepartment:
		deps, err := s.technicianRepo.ListDepartments(ctx, companyID)
		if err != nil {
			return fmt.Errorf("failed to list departments: %w", err)
		}
		ids = deps
	case kpi.ScopeVehicle:
		vehicles, err := s.source.ListVehicleIDs(ctx, companyID, period.Start, period.End)
		if err != nil {
			return fmt.Errorf("failed to list vehicles: %w", err)
		}
		ids = vehicles
	default:
		return nil
	}
	if !slices.Contains(ids, scope.ID) {
		return fmt.Errorf("%s: %w", scope.String(), kpi.ErrScopeNotFound)
	}
	return nil
}

// evaluate calculates and stores one measurement. Calculation failures
// become critical rows; only storage failures and caller cancellation are
// returned as errors.
func (s *KPIServiceImpl) evaluate(ctx context.Context, def kpi.Definition, metric kpi.Metric, in kpi.CalculationInput) (kpi.Measurement, error) {
	actual, calcErr := s.calculate(ctx, metric, in)
	if ctxErr := ctx.Err(); ctxErr != nil {
		return kpi.Measurement{}, ctxErr
	}
	if calcErr != nil {
		slog.Warn("kpi calculation failed",
			"company_id", in.CompanyID, "kpi_code", def.Code, "scope", in.Scope.String(), "error", calcErr)
	}

	m := kpi.NewMeasurement(def, in.Scope, in.Period, actual, calcErr, s.now())
	id, err := uuid.NewV7()
	if err != nil {
		return kpi.Measurement{}, fmt.Errorf("failed to generate measurement id: %w", err)
	}
	m.ID = id.String()

	stored, err := s.measurements.Create(ctx, m)
	if err != nil {
		return kpi.Measurement{}, fmt.Errorf("failed to store measurement: %w", err)
	}
	return stored, nil
}

// calculate runs the metric under its own deadline. A calculation that
// ignores its context is abandoned once the deadline passes.
func (s *KPIServiceImpl) calculate(ctx context.Context, metric kpi.Metric, in kpi.CalculationInput) (*float64, error) {
	calcCtx, cancel := context.WithTimeout(ctx, s.cfg.CalculationTimeout)
	defer cancel()

	type result struct {
		value *float64
		err   error
	}
	done := make(chan result, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- result{err: fmt.Errorf("%w: panic: %v", apperror.ErrCalculation, r)}
			}
		}()
		v, err := metric.Calculate(calcCtx, in)
		done <- result{value: v, err: err}
	}()

	select {
	case r := <-done:
		if r.err != nil {
			if errors.Is(r.err, context.DeadlineExceeded) && ctx.Err() == nil {
				return nil, kpi.ErrCalculationTimeout
			}
			if !errors.Is(r.err, apperror.ErrCalculation) {
				return nil, fmt.Errorf("%w: %v", apperror.ErrCalculation, r.err)
			}
			return nil, r.err
		}
		return r.value, nil
	case <-calcCtx.Done():
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return nil, kpi.ErrCalculationTimeout
	}
}

type evaluation struct {
	def    kpi.Definition
	metric kpi.Metric
	input  kpi.CalculationInput
}

// EvaluateAll implements kpi.KPIService. One failing definition or scope is
// recorded in the summary and never stops the rest.
func (s *KPIServiceImpl) EvaluateAll(ctx context.Context, companyID string, asOf time.Time) (*kpi.EvaluationSummary, error) {
	defs, err := s.definitions.List(ctx, companyID, true)
	if err != nil {
		return nil, fmt.Errorf("failed to list kpi definitions: %w", err)
	}

	summary := &kpi.EvaluationSummary{}
	var mu sync.Mutex
	fail := func(code string, scope string, err error) {
		mu.Lock()
		defer mu.Unlock()
		summary.Failed = append(summary.Failed, kpi.EvaluationFailure{KPICode: code, Scope: scope, Error: err.Error()})
	}

	resolver := newScopeResolver(s, companyID)
	var jobs []evaluation
	for _, def := range defs {
		metric, ok := s.registry.Lookup(def.Code)
		if !ok {
			fail(def.Code, "", kpi.ErrMetricNotRegistered)
			continue
		}
		period := kpi.PreviousPeriod(def.Frequency, asOf)
		for _, scopeType := range metric.Scopes {
			scopes, err := resolver.resolve(ctx, scopeType, period)
			if err != nil {
				fail(def.Code, string(scopeType), err)
				continue
			}
			for _, scope := range scopes {
				jobs = append(jobs, evaluation{def: def, metric: metric, input: kpi.CalculationInput{CompanyID: companyID, Scope: scope, Period: period}})
			}
		}
	}

	var g errgroup.Group
	g.SetLimit(s.cfg.Concurrency)
	for _, job := range jobs {
		g.Go(func() error {
			m, err := s.evaluate(ctx, job.def, job.metric, job.input)
			if err != nil {
				fail(job.def.Code, job.input.Scope.String(), err)
				return nil
			}
			mu.Lock()
			summary.Evaluated++
			if m.PerformanceStatus == kpi.StatusCritical {
				summary.Critical++
			}
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	slog.Info("kpi evaluation completed",
		"company_id", companyID, "as_of", asOf.Format("2006-01-02"),
		"evaluated", summary.Evaluated, "critical", summary.Critical, "failed", len(summary.Failed))
	return summary, nil
}

// scopeResolver lists the scopes of each type once per evaluation run.
type scopeResolver struct {
	svc       *KPIServiceImpl
	companyID string
	cache     map[string][]kpi.Scope
}

func newScopeResolver(svc *KPIServiceImpl, companyID string) *scopeResolver {
	return &scopeResolver{svc: svc, companyID: companyID, cache: make(map[string][]kpi.Scope)}
}

func (r *scopeResolver) resolve(ctx context.Context, t kpi.ScopeType, period kpi.Period) ([]kpi.Scope, error) {
	cacheKey := string(t)
	if t == kpi.ScopeVehicle {
		cacheKey += period.Start.Format("2006-01-02") + period.End.Format("2006-01-02")
	}
	if scopes, ok := r.cache[cacheKey]; ok {
		return scopes, nil
	}

	var ids []string
	switch t {
	case kpi.ScopeFleet:
		r.cache[cacheKey] = []kpi.Scope{kpi.FleetScope()}
		return r.cache[cacheKey], nil
	case kpi.ScopeDepartment:
		deps, err := r.svc.technicianRepo.ListDepartments(ctx, r.companyID)
		if err != nil {
			return nil, fmt.Errorf("failed to list departments: %w", err)
		}
		ids = deps
	case kpi.ScopeTechnician:
		techs, err := r.svc.technicianRepo.ListActive(ctx, r.companyID, "")
		if err != nil {
			return nil, fmt.Errorf("failed to list technicians: %w", err)
		}
		for _, tech := range techs {
			ids = append(ids, tech.ID)
		}
	case kpi.ScopeVehicle:
		vehicles, err := r.svc.source.ListVehicleIDs(ctx, r.companyID, period.Start, period.End)
		if err != nil {
			return nil, fmt.Errorf("failed to list vehicles: %w", err)
		}
		ids = vehicles
	}

	scopes := make([]kpi.Scope, 0, len(ids))
	for _, id := range ids {
		scopes = append(scopes, kpi.Scope{Type: t, ID: id})
	}
	r.cache[cacheKey] = scopes
	return scopes, nil
}

// Trend implements kpi.KPIService. It compares the latest two periods of the
// series; a missing period or a null actual yields insufficient_data.
func (s *KPIServiceImpl) Trend(ctx context.Context, companyID string, code string, scope kpi.Scope) (kpi.TrendResponse, error) {
	def, err := s.definitions.GetByCode(ctx, companyID, code)
	if err != nil {
		return kpi.TrendResponse{}, err
	}

	recent, err := s.measurements.ListRecent(ctx, companyID, code, scope, 2)
	if err != nil {
		return kpi.TrendResponse{}, fmt.Errorf("failed to list measurements: %w", err)
	}

	resp := kpi.TrendResponse{KPICode: code, Scope: scope, Direction: kpi.TrendInsufficientData}
	if len(recent) > 0 {
		latest := kpi.NewMeasurementResponse(recent[0])
		resp.Latest = &latest
	}
	if len(recent) < 2 {
		return resp, nil
	}
	previous := kpi.NewMeasurementResponse(recent[1])
	resp.Previous = &previous

	if recent[0].ActualValue != nil && recent[1].ActualValue != nil {
		resp.Direction = kpi.CompareTrend(def.HigherIsBetter, *recent[0].ActualValue, *recent[1].ActualValue)
	}
	return resp, nil
}

// History implements kpi.KPIService.
func (s *KPIServiceImpl) History(ctx context.Context, companyID string, filter kpi.HistoryFilter) ([]kpi.MeasurementResponse, error) {
	if err := filter.Validate(); err != nil {
		return nil, err
	}
	rows, err := s.measurements.History(ctx, companyID, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to query measurement history: %w", err)
	}
	resp := make([]kpi.MeasurementResponse, 0, len(rows))
	for _, m := range rows {
		resp = append(resp, kpi.NewMeasurementResponse(m))
	}
	return resp, nil
}

// CreateDefinition implements kpi.KPIService.
func (s *KPIServiceImpl) CreateDefinition(ctx context.Context, companyID string, req kpi.CreateDefinitionRequest) (kpi.DefinitionResponse, error) {
	if err := req.Validate(); err != nil {
		return kpi.DefinitionResponse{}, err
	}

	def := req.ToDefinition(companyID)
	id, err := uuid.NewV7()
	if err != nil {
		return kpi.DefinitionResponse{}, fmt.Errorf("failed to generate definition id: %w", err)
	}
	def.ID = id.String()

	created, err := s.definitions.Create(ctx, def)
	if err != nil {
		return kpi.DefinitionResponse{}, err
	}
	return s.definitionResponse(created), nil
}

// UpdateDefinition implements kpi.KPIService.
func (s *KPIServiceImpl) UpdateDefinition(ctx context.Context, companyID string, code string, req kpi.UpdateDefinitionRequest) (kpi.DefinitionResponse, error) {
	current, err := s.definitions.GetByCode(ctx, companyID, code)
	if err != nil {
		return kpi.DefinitionResponse{}, err
	}
	merged, err := req.Apply(current)
	if err != nil {
		return kpi.DefinitionResponse{}, err
	}
	updated, err := s.definitions.Update(ctx, merged)
	if err != nil {
		return kpi.DefinitionResponse{}, fmt.Errorf("failed to update kpi definition: %w", err)
	}
	return s.definitionResponse(updated), nil
}

// GetDefinition implements kpi.KPIService.
func (s *KPIServiceImpl) GetDefinition(ctx context.Context, companyID string, code string) (kpi.DefinitionResponse, error) {
	def, err := s.definitions.GetByCode(ctx, companyID, code)
	if err != nil {
		return kpi.DefinitionResponse{}, err
	}
	return s.definitionResponse(def), nil
}

// ListDefinitions implements kpi.KPIService.
func (s *KPIServiceImpl) ListDefinitions(ctx context.Context, companyID string, activeOnly bool) ([]kpi.DefinitionResponse, error) {
	defs, err := s.definitions.List(ctx, companyID, activeOnly)
	if err != nil {
		return nil, fmt.Errorf("failed to list kpi definitions: %w", err)
	}
	resp := make([]kpi.DefinitionResponse, 0, len(defs))
	for _, d := range defs {
		resp = append(resp, s.definitionResponse(d))
	}
	return resp, nil
}

func (s *KPIServiceImpl) definitionResponse(d kpi.Definition) kpi.DefinitionResponse {
	_, registered := s.registry.Lookup(d.Code)
	return kpi.NewDefinitionResponse(d, registered)
}

// SeedCatalog implements kpi.KPIService. Existing codes are left untouched
// so operator edits survive a re-seed.
func (s *KPIServiceImpl) SeedCatalog(ctx context.Context, companyID string, catalog []kpi.CreateDefinitionRequest) (int, error) {
	created := 0
	for i := range catalog {
		req := catalog[i]
		if err := req.Validate(); err != nil {
			return created, fmt.Errorf("catalog entry %q: %w", req.Code, err)
		}

		def := req.ToDefinition(companyID)
		id, err := uuid.NewV7()
		if err != nil {
			return created, fmt.Errorf("failed to generate definition id: %w", err)
		}
		def.ID = id.String()

		inserted, err := s.definitions.CreateIfMissing(ctx, def)
		if err != nil {
			return created, fmt.Errorf("failed to seed kpi %s: %w", req.Code, err)
		}
		if inserted {
			created++
		}
	}
	if created > 0 {
		slog.Info("kpi catalog seeded", "company_id", companyID, "created", created)
	}
	return created, nil
}
